package model

import (
	"time"

	"github.com/google/uuid"
)

// Player belongs to exactly one session. The live connection handle is
// owned by the ws hub, not stored here; SocketID is just the last-seen one.
type Player struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	IsHost     bool      `json:"isHost"`
	Score      int       `json:"score"`
	GameCode   string    `json:"gameCode"`
	SocketID   string    `json:"socketId,omitempty"`
	LastActive time.Time `json:"lastActive"`
}
