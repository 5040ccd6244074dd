package websocket

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

func registerClient(t *testing.T, h *Hub, userID uuid.UUID, buffer int) *Client {
	t.Helper()
	client := &Client{
		Hub:    h,
		UserID: userID,
		Send:   make(chan []byte, buffer),
	}
	h.register <- client

	require.Eventually(t, func() bool {
		h.mu.RLock()
		defer h.mu.RUnlock()
		for _, c := range h.clients[userID] {
			if c == client {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
	return client
}

func TestSendDeliversToEveryDevice(t *testing.T) {
	h := NewHub(nil, nopLogger{})
	go h.Run()

	userID := uuid.New()
	first := registerClient(t, h, userID, 4)
	second := registerClient(t, h, userID, 4)

	h.Send(userID, Frame{Type: FrameChatChunk, Data: map[string]string{"text": "hi"}})

	assert.Eventually(t, func() bool {
		return len(first.Send) == 1 && len(second.Send) == 1
	}, time.Second, 5*time.Millisecond)

	// Other users see nothing.
	other := registerClient(t, h, uuid.New(), 4)
	assert.Empty(t, other.Send)
}

func TestSendDropsStalledClientWithoutPanic(t *testing.T) {
	h := NewHub(nil, nopLogger{})
	go h.Run()

	userID := uuid.New()
	// No buffer and no reader: the first frame already overflows.
	client := registerClient(t, h, userID, 0)

	h.Send(userID, Frame{Type: FrameChatChunk, Data: "one"})

	// The hub tears the client down exactly once: Send closes and the client
	// leaves the registry.
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-client.Send:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		h.mu.RLock()
		defer h.mu.RUnlock()
		return len(h.clients[userID]) == 0
	}, time.Second, 5*time.Millisecond)

	// Further frames for the user are a no-op.
	h.Send(userID, Frame{Type: FrameChatChunk, Data: "two"})
}

func TestUnregisterTwiceIsANoOp(t *testing.T) {
	h := NewHub(nil, nopLogger{})
	go h.Run()

	userID := uuid.New()
	client := registerClient(t, h, userID, 1)

	h.unregister <- client
	h.unregister <- client

	assert.Eventually(t, func() bool {
		h.mu.RLock()
		defer h.mu.RUnlock()
		_, ok := h.clients[userID]
		return !ok
	}, time.Second, 5*time.Millisecond)
}
