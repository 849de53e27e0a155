package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"

	"github.com/kevinxiao27/lseq/lseq"
	"github.com/kevinxiao27/lseq/ol"
	"github.com/kevinxiao27/lseq/sequence"
	"github.com/kevinxiao27/lseq/util"
)

type client struct {
	replica string
	send    chan []byte
}

// document is the server's replica of one sequence plus the clients editing it.
type document struct {
	id  string
	log *slog.Logger

	mu      sync.Mutex // protects the fields below
	seq     *sequence.Sequence[string]
	seen    mapset.Set[string] // opKey of every op relayed
	clients mapset.Set[*client]
}

func newDocument(id string, cfg lseq.Config, logger *slog.Logger) (*document, error) {
	logger = logger.With("doc", id)
	seq, err := sequence.New[string]("srv-"+uuid.NewString(), ol.StringCodec{},
		sequence.WithConfig(cfg),
		sequence.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return &document{
		id:      id,
		log:     logger,
		seq:     seq,
		seen:    mapset.NewThreadUnsafeSet[string](),
		clients: mapset.NewThreadUnsafeSet[*client](),
	}, nil
}

// opKey identifies an op for relay dedup: at most one insert and one remove
// exist per identifier.
func opKey(op ol.Op) string {
	return op.Kind().String() + " " + op.Target().String()
}

// apply decodes a batch of encoded ops, applies them and relays the ones not
// seen before to every client except from. A malformed op rejects the whole
// batch.
func (d *document) apply(texts []string, from *client) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ops, err := ol.DecodeOps[string](texts, ol.StringCodec{})
	if err != nil {
		opsRejected.Inc()
		return nil, err
	}

	novel := []string{}
	for i, op := range ops {
		if !d.seen.Add(opKey(op)) {
			continue
		}
		changed := d.seq.Apply(op)
		opsApplied.WithLabelValues(op.Kind().String(), strconv.FormatBool(changed)).Inc()
		novel = append(novel, texts[i])
	}
	d.relay(novel, from)
	return novel, nil
}

// insert edits the server's own replica.
func (d *document) insert(value string, pos int) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	op, err := d.seq.Insert(value, pos)
	if err != nil {
		return "", err
	}
	return d.local(op)
}

func (d *document) remove(pos int) (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	op, ok := d.seq.Remove(pos)
	if !ok {
		return "", false, nil
	}
	text, err := d.local(op)
	return text, true, err
}

func (d *document) local(op ol.Op) (string, error) {
	text, err := d.seq.Encode(op)
	if err != nil {
		return "", err
	}
	d.seen.Add(opKey(op))
	opsApplied.WithLabelValues(op.Kind().String(), "true").Inc()
	d.relay([]string{text}, nil)
	return text, nil
}

func (d *document) relay(texts []string, from *client) {
	documentDepth.WithLabelValues(d.id).Set(float64(d.seq.Depth()))
	if len(texts) == 0 {
		return
	}
	msg, err := json.Marshal(WSMessage{Type: "ops", Ops: texts})
	if err != nil {
		d.log.Error("marshal relay message", "error", err)
		return
	}
	peers := util.Filter(d.clients.ToSlice(), func(c *client) bool { return c != from })
	for _, c := range peers {
		d.enqueue(c, msg)
	}
}

// enqueue must be called with mu held. A client whose queue is full is
// dropped.
func (d *document) enqueue(c *client, msg []byte) {
	select {
	case c.send <- msg:
	default:
		d.log.Warn("client too slow, dropping", "replica", c.replica)
		d.drop(c)
	}
}

func (d *document) drop(c *client) {
	if d.clients.Contains(c) {
		d.clients.Remove(c)
		close(c.send)
		connectedClients.Dec()
	}
}

// join registers c and queues the snapshot as its first message.
func (d *document) join(c *client) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	snap, err := json.Marshal(d.seq)
	if err != nil {
		return err
	}
	msg, err := json.Marshal(WSMessage{Type: "snapshot", Replica: c.replica, Doc: snap})
	if err != nil {
		return err
	}
	d.clients.Add(c)
	connectedClients.Inc()
	d.enqueue(c, msg)
	return nil
}

func (d *document) leave(c *client) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.drop(c)
}

func (d *document) reply(c *client, msg WSMessage) {
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.clients.Contains(c) {
		d.enqueue(c, b)
	}
}

func (d *document) view() (DocumentResponse, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	snap, err := json.Marshal(d.seq)
	if err != nil {
		return DocumentResponse{}, fmt.Errorf("snapshot %s: %w", d.id, err)
	}
	return DocumentResponse{
		Content:  d.seq.ToArray(),
		Depth:    d.seq.Depth(),
		Snapshot: snap,
	}, nil
}
