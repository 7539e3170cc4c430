package hub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubRegisterBroadcastUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client := &Client{Send: make(chan []byte, 10), Room: "room1"}
	other := &Client{Send: make(chan []byte, 10), Room: "room2"}
	hub.Register(client)
	hub.Register(other)

	require.Eventually(t, func() bool { return hub.HasClients("room1") }, time.Second, 5*time.Millisecond)
	assert.False(t, hub.HasClients("nobody"))

	data := []byte(`{"surface":"badge","data":1}`)
	hub.Publish("room1", data)

	select {
	case got := <-client.Send:
		assert.Equal(t, string(data), string(got))
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
	assert.Empty(t, other.Send)

	hub.Unregister(client)
	require.Eventually(t, func() bool { return !hub.HasClients("room1") }, time.Second, 5*time.Millisecond)
	_, open := <-client.Send
	assert.False(t, open)

	// a second unregister must not panic on the closed channel
	hub.Unregister(client)
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	slow := &Client{Send: make(chan []byte), Room: "r"}
	hub.Register(slow)
	hub.Publish("r", []byte("x"))
	require.Eventually(t, func() bool { return !hub.HasClients("r") }, time.Second, 5*time.Millisecond)
}

func TestHubStopUnblocksCallers(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	hub.Stop()
	hub.Stop()

	done := make(chan struct{})
	go func() {
		hub.Publish("r", []byte("x"))
		hub.Register(&Client{Send: make(chan []byte, 1), Room: "r"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked after stop")
	}
}
