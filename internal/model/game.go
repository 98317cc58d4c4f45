package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusLobby    Status = "lobby"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

type Phase string

const (
	PhaseChoosing Phase = "choosing"
	PhaseDrawing  Phase = "drawing"
)

// MessageLogLimit bounds the per-session chat log. Older entries are dropped.
const MessageLogLimit = 50

type Settings struct {
	Rounds      int      `json:"rounds"`
	DrawingTime int      `json:"drawingTime"`
	MaxPlayers  int      `json:"maxPlayers"`
	CustomWords []string `json:"customWords"`
}

func DefaultSettings() Settings {
	return Settings{
		Rounds:      3,
		DrawingTime: 60,
		MaxPlayers:  8,
		CustomWords: []string{"apple", "banana", "mountain"},
	}
}

// Clamp forces every field back into its allowed range.
func (s *Settings) Clamp() {
	s.Rounds = clamp(s.Rounds, 1, 10)
	s.DrawingTime = clamp(s.DrawingTime, 30, 180)
	s.MaxPlayers = clamp(s.MaxPlayers, 2, 12)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// GuessEntry is one row of the per-turn ledger of correct guesses.
type GuessEntry struct {
	PlayerID uuid.UUID `json:"playerId"`
	Points   int       `json:"points"`
	At       time.Time `json:"timestamp"`
	Bucket   int64     `json:"bucket"`
}

type ChatMessage struct {
	Sender string    `json:"sender"`
	Text   string    `json:"text"`
	At     time.Time `json:"timestamp"`
}

// CanvasState is an opaque snapshot of the shared canvas. Turn is the
// session's turn counter at write time so receivers can drop deltas that
// belong to a previous turn.
type CanvasState struct {
	Turn int             `json:"turn"`
	Data json.RawMessage `json:"data"`
}

func (c CanvasState) Empty() bool {
	return len(c.Data) == 0
}

// Session is one game instance. It holds player identifiers only;
// hydration into full Player records happens at the delivery boundary.
type Session struct {
	Code          string
	Status        Status
	Settings      Settings
	CurrentRound  int
	CurrentWord   string
	UsedWords     []string
	CurrentDrawer uuid.UUID
	Players       []uuid.UUID
	TurnOrder     []uuid.UUID
	Turn          int
	WordChoices   []string
	Guesses       []GuessEntry
	Messages      []ChatMessage
	Canvas        CanvasState
	TimeLeft      int
	Phase         Phase
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (s *Session) HasGuessed(playerID uuid.UUID) bool {
	for _, g := range s.Guesses {
		if g.PlayerID == playerID {
			return true
		}
	}
	return false
}

func (s *Session) WordOffered(word string) bool {
	for _, w := range s.WordChoices {
		if w == word {
			return true
		}
	}
	return false
}

// DrawerIndex locates the current drawer within the fixed turn order,
// -1 when absent.
func (s *Session) DrawerIndex() int {
	for i, id := range s.TurnOrder {
		if id == s.CurrentDrawer {
			return i
		}
	}
	return -1
}

// PushMessage appends to the bounded message log.
func (s *Session) PushMessage(m ChatMessage) {
	s.Messages = append(s.Messages, m)
	if len(s.Messages) > MessageLogLimit {
		s.Messages = s.Messages[len(s.Messages)-MessageLogLimit:]
	}
}
