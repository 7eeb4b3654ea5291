package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(userID uuid.UUID) *Client {
	return &Client{ID: uuid.New().String(), UserID: userID, Send: make(chan []byte, 4)}
}

func recv(t *testing.T, c *Client) map[string]interface{} {
	t.Helper()
	select {
	case raw := <-c.Send:
		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &payload))
		return payload
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for hub delivery")
		return nil
	}
}

func TestHubSendToUser(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	alice := uuid.New()
	bob := uuid.New()

	a1 := newClient(alice)
	a2 := newClient(alice)
	b := newClient(bob)
	hub.RegisterClient(a1)
	hub.RegisterClient(a2)
	hub.RegisterClient(b)
	time.Sleep(20 * time.Millisecond) // let the hub loop drain registrations

	hub.SendToUser(alice, map[string]string{"type": "ping"})

	assert.Equal(t, "ping", recv(t, a1)["type"])
	assert.Equal(t, "ping", recv(t, a2)["type"])

	select {
	case <-b.Send:
		t.Fatal("bob should not receive alice's payload")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubSendToProject(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	clientID := uuid.New()
	freelancerID := uuid.New()

	c := newClient(clientID)
	f := newClient(freelancerID)
	hub.RegisterClient(c)
	hub.RegisterClient(f)
	time.Sleep(20 * time.Millisecond)

	hub.SendToProject(clientID, freelancerID, map[string]string{"type": "new_message"})

	assert.Equal(t, "new_message", recv(t, c)["type"])
	assert.Equal(t, "new_message", recv(t, f)["type"])
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c := newClient(uuid.New())
	hub.RegisterClient(c)
	hub.UnregisterClient(c)

	select {
	case _, ok := <-c.Send:
		assert.False(t, ok, "send channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("send channel never closed")
	}

	// delivery to a departed user is a no-op, not a panic
	hub.SendToUser(c.UserID, map[string]string{"type": "ping"})
}
