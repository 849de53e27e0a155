package ol

import "maps"

// Version maps each replica to the highest op time applied from it.
type Version map[string]uint64

// Observe records op and reports whether it advanced the replica's entry.
func (v Version) Observe(op Op) bool {
	replica, time := op.Origin()
	if last, ok := v[replica]; ok && last >= time {
		return false
	}
	v[replica] = time
	return true
}

func (v Version) Get(replica string) uint64 {
	return v[replica]
}

func (v Version) Clone() Version {
	return maps.Clone(v)
}
