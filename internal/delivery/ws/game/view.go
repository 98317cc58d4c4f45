package ws_game

import (
	"time"

	"github.com/google/uuid"
	"github.com/nbelyakov/doodleroom/internal/model"
)

type PlayerView struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	IsHost     bool      `json:"isHost"`
	Score      int       `json:"score"`
	IsDrawing  bool      `json:"isDrawing"`
	HasGuessed bool      `json:"hasGuessed"`
	LastActive time.Time `json:"lastActive"`
}

type GuessView struct {
	PlayerID uuid.UUID `json:"playerId"`
	Points   int       `json:"points"`
}

// GameView is the role-filtered state snapshot sent to one participant.
// The drawer owns the only authoritative in-progress canvas, so its copy
// never carries the canvas field; everyone else gets the word masked until
// the turn ends.
type GameView struct {
	PartyCode     string              `json:"partyCode"`
	Status        model.Status        `json:"status"`
	Phase         model.Phase         `json:"phase"`
	Settings      model.Settings      `json:"settings"`
	CurrentRound  int                 `json:"currentRound"`
	CurrentDrawer uuid.UUID           `json:"currentDrawer"`
	CurrentWord   string              `json:"currentWord,omitempty"`
	WordChoices   []string            `json:"wordChoices,omitempty"`
	TimeLeft      int                 `json:"timeLeft"`
	Turn          int                 `json:"turn"`
	Players       []PlayerView        `json:"players"`
	Guessed       []GuessView         `json:"guessedPlayers"`
	Messages      []model.ChatMessage `json:"messages"`
	Canvas        *model.CanvasState  `json:"canvasState,omitempty"`
}

// BuildView hydrates player records into the snapshot and applies the
// role-based visibility rules for the given viewer.
func BuildView(s model.Session, players []model.Player, viewer uuid.UUID) GameView {
	isDrawer := viewer == s.CurrentDrawer

	view := GameView{
		PartyCode:     s.Code,
		Status:        s.Status,
		Phase:         s.Phase,
		Settings:      s.Settings,
		CurrentRound:  s.CurrentRound,
		CurrentDrawer: s.CurrentDrawer,
		TimeLeft:      s.TimeLeft,
		Turn:          s.Turn,
		Messages:      s.Messages,
	}

	if isDrawer {
		view.CurrentWord = s.CurrentWord
		view.WordChoices = s.WordChoices
	} else if !s.Canvas.Empty() {
		canvas := s.Canvas
		view.Canvas = &canvas
	}

	for _, p := range players {
		view.Players = append(view.Players, PlayerView{
			ID:         p.ID,
			Name:       p.Name,
			IsHost:     p.IsHost,
			Score:      p.Score,
			IsDrawing:  s.Status == model.StatusPlaying && p.ID == s.CurrentDrawer,
			HasGuessed: s.HasGuessed(p.ID),
			LastActive: p.LastActive,
		})
	}
	for _, g := range s.Guesses {
		view.Guessed = append(view.Guessed, GuessView{PlayerID: g.PlayerID, Points: g.Points})
	}

	return view
}
