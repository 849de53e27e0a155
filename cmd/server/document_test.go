package main

import (
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevinxiao27/lseq/lseq"
)

func newClient(replica string) *client {
	return &client{replica: replica, send: make(chan []byte, 4)}
}

func TestRelaySkipsSender(t *testing.T) {
	cfg := lseq.DefaultConfig()
	cfg.Seed = 1
	d, err := newDocument("relay", cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	alice, bob, carol := newClient("alice"), newClient("bob"), newClient("carol")
	for _, c := range []*client{alice, bob, carol} {
		require.NoError(t, d.join(c))
		<-c.send // snapshot
	}

	texts := []string{"+alice:1:3,alice/1:hi"}
	novel, err := d.apply(texts, alice)
	require.NoError(t, err)
	assert.Equal(t, texts, novel)

	assert.Empty(t, alice.send)
	for _, c := range []*client{bob, carol} {
		require.Len(t, c.send, 1, c.replica)
		var msg WSMessage
		require.NoError(t, json.Unmarshal(<-c.send, &msg))
		assert.Equal(t, "ops", msg.Type)
		assert.Equal(t, texts, msg.Ops)
	}

	// a replayed op is not relayed again
	novel, err = d.apply(texts, bob)
	require.NoError(t, err)
	assert.Empty(t, novel)
	for _, c := range []*client{alice, bob, carol} {
		assert.Empty(t, c.send, c.replica)
	}

	// server edits reach everyone
	_, err = d.insert("yo", 1)
	require.NoError(t, err)
	for _, c := range []*client{alice, bob, carol} {
		assert.Len(t, c.send, 1, c.replica)
	}
}
