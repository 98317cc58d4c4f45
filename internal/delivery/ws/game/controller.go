package ws_game

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/nbelyakov/doodleroom/internal/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Controller struct {
	hub    *Hub
	logger *slog.Logger
}

func NewController(hub *Hub) *Controller {
	return &Controller{
		hub:    hub,
		logger: slog.Default(),
	}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ws", c.serve)
}

// serve upgrades the connection and attaches it to a room. Identity comes
// from the query string; an unknown room produces a single error event
// before the connection is dropped.
func (c *Controller) serve(ctx *gin.Context) {
	code := ctx.Query("partyCode")
	playerID, err := uuid.Parse(ctx.Query("playerId"))
	if code == "" || err != nil {
		ctx.Status(http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		hub:      c.hub,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		playerID: playerID,
		roomCode: code,
	}

	snap, players, err := c.hub.usecase.Snapshot(ctx.Request.Context(), code)
	if err != nil {
		raw, _ := json.Marshal(Event{Type: EventError, Payload: gin.H{"message": "game not found"}})
		conn.WriteMessage(websocket.TextMessage, raw)
		conn.Close()
		return
	}

	c.hub.Register(client)
	c.hub.usecase.Touch(ctx.Request.Context(), code, playerID, conn.RemoteAddr().String())

	go client.writePump()

	// Late joiners synchronize immediately instead of waiting a tick.
	if raw, err := json.Marshal(Event{Type: EventGameUpdate, Payload: BuildView(snap, players, playerID)}); err == nil {
		client.trySend(raw)
	}
	if snap.Status == model.StatusPlaying {
		if raw, err := json.Marshal(Event{Type: EventTimeUpdate, Payload: snap.TimeLeft}); err == nil {
			client.trySend(raw)
		}
	}

	client.readPump()
}
