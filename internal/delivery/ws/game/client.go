package ws_game

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	usecase_game "github.com/nbelyakov/doodleroom/internal/usecase/game"
)

const sendBufferSize = 64

type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	playerID uuid.UUID
	roomCode string
}

// inbound is the envelope for client-originated events.
type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func (c *Client) trySend(raw []byte) bool {
	select {
	case c.send <- raw:
		return true
	default:
		return false
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Remove(c)
		c.conn.Close()
		c.hub.BroadcastRoom(c.roomCode, Event{Type: EventPlayerLeft, Payload: c.playerID})
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg inbound
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.hub.logger.Warn("unreadable client event", "room", c.roomCode, "error", err)
			continue
		}
		c.hub.handle(c, msg)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for raw := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
			return
		}
	}
}

// handle applies one socket-driven action. These are fire-and-forget:
// invalid actions no-op and nothing is reported back to the room.
func (h *Hub) handle(c *Client, msg inbound) {
	ctx := context.Background()

	switch msg.Type {
	case "choose-word":
		var payload struct {
			Word string `json:"word"`
		}
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return
		}
		if h.usecase.ChooseWord(ctx, c.roomCode, c.playerID, payload.Word) {
			h.GameUpdated(c.roomCode)
		}

	case "send-message":
		var payload struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return
		}
		h.routeChat(ctx, c, payload.Text)

	case "update-drawing":
		// The drawer holds the only authoritative in-progress canvas, so
		// deltas go to everyone but the drawer, not just past the sender.
		canvas, drawer, ok := h.usecase.UpdateCanvas(ctx, c.roomCode, msg.Payload)
		if ok {
			h.BroadcastExcept(c.roomCode, drawer, Event{Type: EventDrawing, Payload: canvas})
		}

	case "join-game":
		h.usecase.Touch(ctx, c.roomCode, c.playerID, c.conn.RemoteAddr().String())
		h.GameUpdated(c.roomCode)

	case "request-time-update":
		if seconds, ok := h.usecase.TimeLeft(ctx, c.roomCode); ok {
			h.TimeUpdate(c.roomCode, seconds)
		}

	default:
		h.logger.Warn("unknown client event", "type", msg.Type, "room", c.roomCode)
	}
}

// routeChat enforces the visibility rules for guesses: a correct guess is
// revealed only to its sender and the drawer, while the room at large gets
// an anonymized notification that never contains the word.
func (h *Hub) routeChat(ctx context.Context, c *Client, text string) {
	out := h.usecase.SubmitGuess(ctx, c.roomCode, c.playerID, text, time.Now())

	chat := Event{Type: EventChatMessage, Payload: ChatView{
		SenderID: out.PlayerID,
		Sender:   out.PlayerName,
		Text:     out.Text,
		At:       time.Now(),
	}}

	switch out.Verdict {
	case usecase_game.VerdictChat:
		h.BroadcastRoom(c.roomCode, chat)

	case usecase_game.VerdictConcealed:
		h.SendToPlayer(c.roomCode, out.PlayerID, chat)
		if out.DrawerID != out.PlayerID {
			h.SendToPlayer(c.roomCode, out.DrawerID, chat)
		}

	case usecase_game.VerdictCorrect:
		h.SendToPlayer(c.roomCode, out.PlayerID, chat)
		h.SendToPlayer(c.roomCode, out.DrawerID, chat)
		h.BroadcastRoom(c.roomCode, Event{Type: EventCorrectGuess, Payload: CorrectGuessView{
			PlayerID:   out.PlayerID,
			PlayerName: out.PlayerName,
			Points:     out.Points,
		}})
		h.GameUpdated(c.roomCode)

	case usecase_game.VerdictIgnored:
	}
}
