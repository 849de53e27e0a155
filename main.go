package main

import (
	"fmt"
	"log"

	"github.com/sanity-io/litter"

	"github.com/kevinxiao27/lseq/ol"
	"github.com/kevinxiao27/lseq/sequence"
)

func insertText(s *sequence.Sequence[rune], pos int, text string) []string {
	var out []string
	for _, r := range text {
		op, err := s.Insert(r, pos)
		if err != nil {
			log.Fatal(err)
		}
		enc, err := s.Encode(op)
		if err != nil {
			log.Fatal(err)
		}
		out = append(out, enc)
		pos++
	}
	return out
}

// mergeInto applies encoded ops in reverse, the worst delivery order.
func mergeInto(dest *sequence.Sequence[rune], ops []string) {
	for i := len(ops) - 1; i >= 0; i-- {
		if _, err := dest.ApplyString(ops[i]); err != nil {
			log.Fatal(err)
		}
	}
}

func main() {
	doc1, err := sequence.New[rune]("a", ol.RuneCodec{})
	if err != nil {
		log.Fatal(err)
	}
	doc2, err := sequence.New[rune]("z", ol.RuneCodec{})
	if err != nil {
		log.Fatal(err)
	}

	ops1 := insertText(doc1, 0, "hi")
	ops2 := insertText(doc2, 0, "yoooo")

	mergeInto(doc1, ops2)
	mergeInto(doc2, ops1)

	result1 := doc1.ToArray()
	fmt.Printf("Result: %v → '%s'\n", result1, string(result1))

	result2 := doc2.ToArray()
	fmt.Printf("Result: %v → '%s'\n", result2, string(result2))

	if string(result1) == string(result2) {
		fmt.Println("Replicas converged")
	} else {
		fmt.Println("Replicas differ")
	}

	rm, ok := doc1.Remove(0)
	if ok {
		enc, _ := doc1.Encode(rm)
		mergeInto(doc2, []string{enc})
	}
	fmt.Printf("After remove: '%s' / '%s'\n", string(doc1.ToArray()), string(doc2.ToArray()))

	litter.Config.HidePrivateFields = false
	litter.Dump(doc1.Version(), doc2.Version())

	snap, err := doc1.MarshalJSON()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(snap))
}
