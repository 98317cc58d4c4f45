package usecase_game

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nbelyakov/doodleroom/internal/model"
	"github.com/nbelyakov/doodleroom/internal/wordbank"
)

const wordChoiceCount = 3

// Verdict classifies an incoming chat line for routing purposes.
type Verdict int

const (
	// VerdictChat goes verbatim to the whole room.
	VerdictChat Verdict = iota
	// VerdictCorrect earned points; text goes to sender and drawer only,
	// the room gets an anonymized correct-guess notification.
	VerdictCorrect
	// VerdictConcealed matched the word but earns nothing (drawer typed it,
	// or the sender already guessed); text still must not leak to the room.
	VerdictConcealed
	// VerdictIgnored is dropped entirely.
	VerdictIgnored
)

type GuessOutcome struct {
	Verdict    Verdict
	Points     int
	PlayerID   uuid.UUID
	PlayerName string
	DrawerID   uuid.UUID
	Text       string
}

// Start moves a lobby into play: round 1, turn order snapshotted, first
// drawer choosing from three fresh words.
func (u *Usecase) Start(ctx context.Context, code string) (model.Session, error) {
	r, err := u.roomByCode(ctx, code)
	if err != nil {
		return model.Session{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.session
	if s.Status != model.StatusLobby {
		return model.Session{}, ErrRoomInProgress
	}
	if len(s.Players) == 0 {
		return model.Session{}, ErrNoPlayers
	}

	s.Status = model.StatusPlaying
	s.CurrentRound = 1
	s.TurnOrder = append([]uuid.UUID(nil), s.Players...)
	s.CurrentDrawer = s.TurnOrder[0]
	s.Turn = 1
	u.enterChoosingLocked(s)

	if err := u.repo.SaveTurnState(ctx, *s); err != nil {
		return model.Session{}, errors.Join(ErrInternal, err)
	}

	return snapshotLocked(r), nil
}

// NextTurn advances the drawer by one position; wrapping to the first
// drawer increments the round, and exceeding the configured round count
// finishes the game. The sole mechanism for progressing rounds.
func (u *Usecase) NextTurn(ctx context.Context, code string) (model.Session, error) {
	r, err := u.roomByCode(ctx, code)
	if err != nil {
		return model.Session{}, err
	}

	r.mu.Lock()
	u.advanceLocked(r.session)
	err = u.repo.SaveTurnState(ctx, *r.session)
	snap := snapshotLocked(r)
	r.mu.Unlock()

	// The countdown must not run into the choosing phase; the next
	// ChooseWord starts a fresh one.
	u.stopTimer(code)
	if err != nil {
		return model.Session{}, errors.Join(ErrInternal, err)
	}
	return snap, nil
}

// ChooseWord accepts the drawer's pick and opens the drawing phase.
// Violations are ignored without feedback; callers may treat the call as
// idempotent-safe. Reports whether state changed.
func (u *Usecase) ChooseWord(ctx context.Context, code string, playerID uuid.UUID, word string) bool {
	r, err := u.roomByCode(ctx, code)
	if err != nil {
		return false
	}

	r.mu.Lock()
	s := r.session
	if s.Status != model.StatusPlaying || s.Phase != model.PhaseChoosing ||
		playerID != s.CurrentDrawer || !s.WordOffered(word) {
		r.mu.Unlock()
		return false
	}

	s.CurrentWord = word
	s.WordChoices = nil
	s.Phase = model.PhaseDrawing
	s.TimeLeft = s.Settings.DrawingTime
	s.Guesses = nil
	s.UpdatedAt = time.Now()

	if err := u.repo.SaveTurnState(ctx, *s); err != nil {
		u.logger.Warn("turn state not persisted", "room", code, "error", err)
	}
	seconds := s.TimeLeft
	r.mu.Unlock()

	u.startTimer(code, seconds)
	return true
}

// SubmitGuess arbitrates one chat line: scoring on an exact normalized
// match, routing classification otherwise. The drawer cannot guess and a
// player scores at most once per turn.
func (u *Usecase) SubmitGuess(ctx context.Context, code string, playerID uuid.UUID, text string, at time.Time) GuessOutcome {
	r, err := u.roomByCode(ctx, code)
	if err != nil {
		return GuessOutcome{Verdict: VerdictIgnored}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.session
	p, ok := r.players[playerID]
	if !ok {
		return GuessOutcome{Verdict: VerdictIgnored}
	}

	out := GuessOutcome{
		Verdict:    VerdictChat,
		PlayerID:   playerID,
		PlayerName: p.Name,
		DrawerID:   s.CurrentDrawer,
		Text:       text,
	}

	normalized := normalizeWord(text)
	target := normalizeWord(s.CurrentWord)
	match := normalized != "" && target != "" && normalized == target

	if !match {
		s.PushMessage(model.ChatMessage{Sender: p.Name, Text: text, At: at})
		return out
	}
	if playerID == s.CurrentDrawer || s.HasGuessed(playerID) {
		out.Verdict = VerdictConcealed
		return out
	}

	bucket := bucketFor(at)
	points := pointsFor(s.Guesses, bucket)

	entry := model.GuessEntry{PlayerID: playerID, Points: points, At: at, Bucket: bucket}
	s.Guesses = append(s.Guesses, entry)
	s.UpdatedAt = at
	p.Score += points

	if err := u.repo.AppendGuess(ctx, code, entry); err != nil {
		u.logger.Warn("guess not persisted", "room", code, "error", err)
	}
	if err := u.repo.IncrementScore(ctx, playerID, points); err != nil {
		u.logger.Warn("score not persisted", "room", code, "error", err)
	}

	out.Verdict = VerdictCorrect
	out.Points = points
	return out
}

// UpdateCanvas replaces the stored snapshot unconditionally. The payload is
// opaque; size bounds belong to the transport. Returns the versioned
// snapshot plus the current drawer, who must never receive the delta back.
func (u *Usecase) UpdateCanvas(ctx context.Context, code string, data json.RawMessage) (model.CanvasState, uuid.UUID, bool) {
	r, err := u.roomByCode(ctx, code)
	if err != nil {
		return model.CanvasState{}, uuid.Nil, false
	}

	r.mu.Lock()
	s := r.session
	canvas := model.CanvasState{Turn: s.Turn, Data: data}
	s.Canvas = canvas
	s.UpdatedAt = time.Now()
	drawer := s.CurrentDrawer
	r.mu.Unlock()

	if err := u.canvas.Set(code, canvas); err != nil {
		u.logger.Warn("canvas not cached", "room", code, "error", err)
	}
	return canvas, drawer, true
}

// TimeLeft reports the remaining seconds for on-demand time sync.
func (u *Usecase) TimeLeft(ctx context.Context, code string) (int, bool) {
	r, err := u.roomByCode(ctx, code)
	if err != nil {
		return 0, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.TimeLeft, true
}

// advanceLocked is the cyclic rotation at the heart of the state machine.
func (u *Usecase) advanceLocked(s *model.Session) {
	if s.Status != model.StatusPlaying || len(s.TurnOrder) == 0 {
		return
	}

	next := (s.DrawerIndex() + 1) % len(s.TurnOrder)
	if next == 0 {
		s.CurrentRound++
		if s.CurrentRound > s.Settings.Rounds {
			u.finishLocked(s)
			return
		}
	}

	s.CurrentDrawer = s.TurnOrder[next]
	s.Turn++
	u.enterChoosingLocked(s)
}

// enterChoosingLocked resets the per-turn state and offers fresh words.
// The guess ledger is cleared exactly here.
func (u *Usecase) enterChoosingLocked(s *model.Session) {
	s.Phase = model.PhaseChoosing
	s.Guesses = nil
	s.CurrentWord = ""
	s.TimeLeft = 0
	s.WordChoices = wordbank.Choices(wordChoiceCount, s.UsedWords, s.Settings.CustomWords)
	s.UsedWords = append(s.UsedWords, s.WordChoices...)
	s.UpdatedAt = time.Now()
}

// finishLocked is terminal; nothing re-enters playing from here.
func (u *Usecase) finishLocked(s *model.Session) {
	s.Status = model.StatusFinished
	s.Phase = model.PhaseChoosing
	s.CurrentWord = ""
	s.WordChoices = nil
	s.Guesses = nil
	s.TimeLeft = 0
	s.UpdatedAt = time.Now()
}

func normalizeWord(w string) string {
	return strings.ToLower(strings.TrimSpace(w))
}
