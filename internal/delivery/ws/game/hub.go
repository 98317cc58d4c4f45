package ws_game

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	usecase_game "github.com/nbelyakov/doodleroom/internal/usecase/game"
)

const (
	EventGameUpdate   = "game:update"
	EventTimeUpdate   = "time-update"
	EventDrawing      = "drawing-update"
	EventChatMessage  = "chat-message"
	EventCorrectGuess = "correct-guess"
	EventPlayerLeft   = "player-left"
	EventError        = "error"
)

type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type ChatView struct {
	SenderID uuid.UUID `json:"senderId"`
	Sender   string    `json:"sender"`
	Text     string    `json:"text"`
	At       time.Time `json:"timestamp"`
}

type CorrectGuessView struct {
	PlayerID   uuid.UUID `json:"playerId"`
	PlayerName string    `json:"playerName"`
	Points     int       `json:"points"`
}

// Hub fans session events out to the connected participants of each room,
// applying the role-based filtering rules. It also implements
// usecase_game.Broadcaster for timer-driven updates.
type Hub struct {
	usecase *usecase_game.Usecase
	logger  *slog.Logger

	mu    sync.RWMutex
	rooms map[string]map[*Client]bool
}

func NewHub(usecase *usecase_game.Usecase) *Hub {
	return &Hub{
		usecase: usecase,
		logger:  slog.Default(),
		rooms:   make(map[string]map[*Client]bool),
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[client.roomCode]; !ok {
		h.rooms[client.roomCode] = make(map[*Client]bool)
	}
	h.rooms[client.roomCode][client] = true

	h.logger.Info("client registered",
		"player_id", client.playerID,
		"room", client.roomCode)
}

func (h *Hub) Remove(client *Client) {
	h.mu.Lock()
	if clients, ok := h.rooms[client.roomCode]; ok {
		if _, present := clients[client]; present {
			delete(clients, client)
			close(client.send)
		}
		if len(clients) == 0 {
			delete(h.rooms, client.roomCode)
		}
	}
	h.mu.Unlock()

	h.logger.Info("client unregistered",
		"player_id", client.playerID,
		"room", client.roomCode)
}

// GameUpdated sends every participant its own filtered view of the session.
func (h *Hub) GameUpdated(code string) {
	snap, players, err := h.usecase.Snapshot(context.Background(), code)
	if err != nil {
		h.logger.Error("failed to snapshot game", "room", code, "error", err)
		return
	}

	h.fanOut(code, func(client *Client) (Event, bool) {
		return Event{
			Type:    EventGameUpdate,
			Payload: BuildView(snap, players, client.playerID),
		}, true
	})
}

// TimeUpdate goes to the whole room every tick and on demand.
func (h *Hub) TimeUpdate(code string, seconds int) {
	h.BroadcastRoom(code, Event{Type: EventTimeUpdate, Payload: seconds})
}

func (h *Hub) BroadcastRoom(code string, event Event) {
	h.fanOut(code, func(*Client) (Event, bool) {
		return event, true
	})
}

// BroadcastExcept suppresses the echo back to one participant, used for
// canvas deltas so the drawer never receives its own strokes.
func (h *Hub) BroadcastExcept(code string, exclude uuid.UUID, event Event) {
	h.fanOut(code, func(client *Client) (Event, bool) {
		return event, client.playerID != exclude
	})
}

// SendToPlayer targets every connection a player currently holds.
func (h *Hub) SendToPlayer(code string, playerID uuid.UUID, event Event) {
	h.fanOut(code, func(client *Client) (Event, bool) {
		return event, client.playerID == playerID
	})
}

// fanOut delivers per-client events, then detaches consumers whose send
// buffers are full. Removal happens outside the read lock.
func (h *Hub) fanOut(code string, build func(*Client) (Event, bool)) {
	var dead []*Client

	h.mu.RLock()
	for client := range h.rooms[code] {
		event, want := build(client)
		if !want {
			continue
		}
		raw, err := json.Marshal(event)
		if err != nil {
			h.logger.Error("failed to marshal event", "room", code, "error", err)
			continue
		}
		if !client.trySend(raw) {
			dead = append(dead, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range dead {
		h.logger.Warn("dropping slow client", "player_id", client.playerID, "room", code)
		h.Remove(client)
	}
}
