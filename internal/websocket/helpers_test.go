package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/thereayou/zenlist-realtime/pkg/logger"
)

func newTestHub() *Hub {
	return NewHub(Options{SendBuffer: 16}, logger.NewNop())
}

// newTestClient registers and binds a socketless client.
func newTestClient(t *testing.T, h *Hub, userID uuid.UUID, name string) *Client {
	t.Helper()
	c := h.Connect(nil)
	require.NoError(t, h.Bind(c.ID, Identity{UserID: userID, Name: name}))
	return c
}

// drain returns every frame queued for c without blocking.
func drain(t *testing.T, c *Client) []Envelope {
	t.Helper()
	var out []Envelope
	for {
		select {
		case data, ok := <-c.Send:
			if !ok {
				return out
			}
			var env Envelope
			require.NoError(t, json.Unmarshal(data, &env))
			out = append(out, env)
		default:
			return out
		}
	}
}

func eventsOf(envs []Envelope, event EventType) []Envelope {
	var out []Envelope
	for _, e := range envs {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }
