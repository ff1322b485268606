package hub

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishFansOutPerGame(t *testing.T) {
	h := NewHub(nil)
	a, b, other := make(Client, 1), make(Client, 1), make(Client, 1)
	h.Subscribe("g1", a)
	h.Subscribe("g1", b)
	h.Subscribe("g2", other)

	h.Publish("g1", "player.joined", map[string]int{"playersJoined": 3})

	for _, c := range []Client{a, b} {
		select {
		case msg := <-c:
			var ev struct {
				Type    string         `json:"type"`
				Payload map[string]int `json:"payload"`
			}
			require.NoError(t, json.Unmarshal(msg, &ev))
			assert.Equal(t, "player.joined", ev.Type)
			assert.Equal(t, 3, ev.Payload["playersJoined"])
		default:
			t.Fatal("expected an event")
		}
	}
	assert.Empty(t, other)
}

func TestSlowClientDoesNotBlock(t *testing.T) {
	h := NewHub(nil)
	c := make(Client, 1)
	h.Subscribe("g1", c)

	h.Publish("g1", "a", nil)
	h.Publish("g1", "b", nil)

	assert.Len(t, c, 1)
}

func TestUnsubscribeClosesClient(t *testing.T) {
	h := NewHub(nil)
	c := make(Client, 1)
	h.Subscribe("g1", c)
	assert.Equal(t, 1, h.Subscribers("g1"))

	h.Unsubscribe("g1", c)
	_, open := <-c
	assert.False(t, open)
	assert.Zero(t, h.Subscribers("g1"))

	// second unsubscribe is a no-op
	h.Unsubscribe("g1", c)
	h.Publish("g1", "x", nil)
}
