package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHub_BroadcastSkipsFullClient(t *testing.T) {
	h := NewHub()
	stalled := &hubClient{addr: "stalled", send: make(chan []byte, 1)}
	stalled.send <- []byte(`{"n":0}`)
	ready := &hubClient{addr: "ready", send: make(chan []byte, 1)}
	h.clients[stalled] = struct{}{}
	h.clients[ready] = struct{}{}

	done := make(chan struct{})
	go func() {
		h.Broadcast([]byte(`{"n":1}`))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked on a stalled client")
	}

	assert.Equal(t, []byte(`{"n":0}`), <-stalled.send)
	assert.Equal(t, []byte(`{"n":1}`), <-ready.send)
	assert.Equal(t, 2, h.Len())
}
