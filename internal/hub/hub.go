package hub

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Event represents a real-time event to be sent to clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Client is the channel an SSE handler reads encoded events from.
type Client chan []byte

// Hub fans game events out to the clients watching each game.
type Hub struct {
	games  map[string]map[Client]bool
	mu     sync.RWMutex
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		games:  make(map[string]map[Client]bool),
		logger: logger,
	}
}

// Subscribe adds a client to a game.
func (h *Hub) Subscribe(gameID string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.games[gameID]; !ok {
		h.games[gameID] = make(map[Client]bool)
	}
	h.games[gameID][client] = true
}

// Unsubscribe removes a client from a game and closes its channel.
func (h *Hub) Unsubscribe(gameID string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.games[gameID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client)
			if len(clients) == 0 {
				delete(h.games, gameID)
			}
		}
	}
}

// Subscribers reports how many clients watch a game.
func (h *Hub) Subscribers(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.games[gameID])
}

// Publish sends an event to every client of a game. Slow clients miss it.
func (h *Hub) Publish(gameID, eventType string, payload any) {
	h.Broadcast(gameID, Event{Type: eventType, Payload: payload})
}

func (h *Hub) Broadcast(gameID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.games[gameID]
	if !ok {
		return
	}
	messageBytes, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("encode hub event", zap.String("type", event.Type), zap.Error(err))
		return
	}

	for client := range clients {
		select {
		case client <- messageBytes:
		default:
			h.logger.Debug("dropped event for slow client", zap.String("game_id", gameID), zap.String("type", event.Type))
		}
	}
}
