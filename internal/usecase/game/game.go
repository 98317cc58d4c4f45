package usecase_game

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nbelyakov/doodleroom/internal/model"
)

var (
	ErrInternal         = errors.New("internal error")
	ErrResourceNotFound = errors.New("no such resource")
	ErrCodeConflict     = errors.New("code conflict")
	ErrRoomsUnavailable = errors.New("no available rooms")
	ErrRoomInProgress   = errors.New("game already in progress")
	ErrPlayerExists     = errors.New("player already exists")
	ErrRoomFull         = errors.New("room is full")
	ErrSettingsLocked   = errors.New("settings locked while playing")
	ErrNoPlayers        = errors.New("no players in game")
)

//go:generate mockery --name=GameRepository --output=./mocks/game/repository --filename=repository.go
type GameRepository interface {
	CreateSession(ctx context.Context, s model.Session) error
	CreatePlayer(ctx context.Context, p model.Player) error
	FindSession(ctx context.Context, code string) (model.Session, error)
	ListPlayers(ctx context.Context, code string) ([]model.Player, error)

	// SaveTurnState atomically sets the mutable turn fields of a session
	// without touching anything else.
	SaveTurnState(ctx context.Context, s model.Session) error
	SaveSettings(ctx context.Context, code string, settings model.Settings) error
	SetTimeLeft(ctx context.Context, code string, seconds int) error
	AppendGuess(ctx context.Context, code string, e model.GuessEntry) error
	IncrementScore(ctx context.Context, playerID uuid.UUID, delta int) error
	TouchPlayer(ctx context.Context, playerID uuid.UUID, socketID string, at time.Time) error

	// DeleteStale removes sessions that are empty or untouched for longer
	// than olderThan, players included, and reports the deleted codes.
	DeleteStale(ctx context.Context, olderThan time.Duration) ([]string, error)
}

//go:generate mockery --name=CanvasCache --output=./mocks/game/canvas --filename=canvas.go
type CanvasCache interface {
	Set(code string, c model.CanvasState) error
	Get(code string) (model.CanvasState, bool, error)
	Delete(code string) error
}

// Broadcaster is how timer-driven transitions reach connected clients.
// Implemented by the ws hub; delivery-driven mutations broadcast on their own.
type Broadcaster interface {
	GameUpdated(code string)
	TimeUpdate(code string, seconds int)
}

// room pairs one session with its hydrated players. All mutation of a
// session happens under its mutex, one operation at a time.
type room struct {
	mu      sync.Mutex
	session *model.Session
	players map[uuid.UUID]*model.Player
}

type Usecase struct {
	repo   GameRepository
	canvas CanvasCache
	logger *slog.Logger

	broadcaster Broadcaster

	mu    sync.RWMutex
	rooms map[string]*room

	tmu    sync.Mutex
	timers map[string]chan struct{}
	tick   time.Duration

	staleAfter time.Duration
}

func New(repo GameRepository, canvas CanvasCache) *Usecase {
	return &Usecase{
		repo:       repo,
		canvas:     canvas,
		logger:     slog.Default(),
		rooms:      make(map[string]*room),
		timers:     make(map[string]chan struct{}),
		tick:       time.Second,
		staleAfter: 24 * time.Hour,
	}
}

// AttachBroadcaster wires the ws hub in after construction; the hub itself
// needs the usecase, so the dependency cannot be passed to New.
func (u *Usecase) AttachBroadcaster(b Broadcaster) {
	u.broadcaster = b
}

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func buildRoomCode() string {
	const codeLen = 4
	var builder strings.Builder
	builder.Grow(codeLen)

	for i := 0; i < codeLen; i++ {
		builder.WriteByte(codeAlphabet[rand.Intn(len(codeAlphabet))])
	}

	return builder.String()
}

// Create books a fresh room and registers its host.
// Codes are assumed to conflict occasionally; retrying.
func (u *Usecase) Create(ctx context.Context, hostName string) (model.Session, model.Player, error) {
	now := time.Now()

	var session *model.Session
	retries := 3
	for retries > 0 {
		code := buildRoomCode()
		candidate := model.Session{
			Code:      code,
			Status:    model.StatusLobby,
			Settings:  model.DefaultSettings(),
			Phase:     model.PhaseChoosing,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := u.repo.CreateSession(ctx, candidate); err != nil {
			if errors.Is(err, ErrCodeConflict) {
				retries--
				continue
			}
			return model.Session{}, model.Player{}, errors.Join(ErrInternal, err)
		}
		session = &candidate
		break
	}
	if session == nil {
		return model.Session{}, model.Player{}, ErrRoomsUnavailable
	}

	host := model.Player{
		ID:         uuid.New(),
		Name:       hostName,
		IsHost:     true,
		GameCode:   session.Code,
		LastActive: now,
	}
	if err := u.repo.CreatePlayer(ctx, host); err != nil {
		return model.Session{}, model.Player{}, errors.Join(ErrInternal, err)
	}

	session.Players = append(session.Players, host.ID)
	session.CurrentDrawer = host.ID

	r := &room{
		session: session,
		players: map[uuid.UUID]*model.Player{host.ID: &host},
	}
	u.mu.Lock()
	u.rooms[session.Code] = r
	u.mu.Unlock()

	r.mu.Lock()
	snap := snapshotLocked(r)
	r.mu.Unlock()

	return snap, host, nil
}

// Join adds a named player to a lobby.
func (u *Usecase) Join(ctx context.Context, code, name string) (model.Player, model.Session, error) {
	r, err := u.roomByCode(ctx, code)
	if err != nil {
		return model.Player{}, model.Session{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.session
	if s.Status != model.StatusLobby {
		return model.Player{}, model.Session{}, ErrRoomInProgress
	}
	for _, p := range r.players {
		if p.Name == name {
			return model.Player{}, model.Session{}, ErrPlayerExists
		}
	}
	if len(r.players) >= s.Settings.MaxPlayers {
		return model.Player{}, model.Session{}, ErrRoomFull
	}

	player := model.Player{
		ID:         uuid.New(),
		Name:       name,
		GameCode:   code,
		LastActive: time.Now(),
	}
	if err := u.repo.CreatePlayer(ctx, player); err != nil {
		return model.Player{}, model.Session{}, errors.Join(ErrInternal, err)
	}

	s.Players = append(s.Players, player.ID)
	s.UpdatedAt = time.Now()
	r.players[player.ID] = &player

	return player, snapshotLocked(r), nil
}

// Rejoin reattaches a known player, refreshing liveness and the connection
// handle reference.
func (u *Usecase) Rejoin(ctx context.Context, code string, playerID uuid.UUID, socketID string) (model.Player, model.Session, error) {
	r, err := u.roomByCode(ctx, code)
	if err != nil {
		return model.Player{}, model.Session{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerID]
	if !ok {
		return model.Player{}, model.Session{}, ErrResourceNotFound
	}

	p.SocketID = socketID
	p.LastActive = time.Now()
	if err := u.repo.TouchPlayer(ctx, playerID, socketID, p.LastActive); err != nil {
		return model.Player{}, model.Session{}, errors.Join(ErrInternal, err)
	}

	return *p, snapshotLocked(r), nil
}

// Touch refreshes liveness on socket attach. Store failures are swallowed;
// liveness is advisory.
func (u *Usecase) Touch(ctx context.Context, code string, playerID uuid.UUID, socketID string) {
	r, err := u.roomByCode(ctx, code)
	if err != nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerID]
	if !ok {
		return
	}
	p.SocketID = socketID
	p.LastActive = time.Now()
	if err := u.repo.TouchPlayer(ctx, playerID, socketID, p.LastActive); err != nil {
		u.logger.Warn("touch player not persisted", "room", code, "error", err)
	}
}

// Snapshot returns a copy of the session plus its players in join order.
func (u *Usecase) Snapshot(ctx context.Context, code string) (model.Session, []model.Player, error) {
	r, err := u.roomByCode(ctx, code)
	if err != nil {
		return model.Session{}, nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return snapshotLocked(r), playersLocked(r), nil
}

// UpdateSettings patches lobby settings; locked once the game starts.
func (u *Usecase) UpdateSettings(ctx context.Context, code string, settings model.Settings) (model.Session, error) {
	r, err := u.roomByCode(ctx, code)
	if err != nil {
		return model.Session{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.session
	if s.Status != model.StatusLobby {
		return model.Session{}, ErrSettingsLocked
	}

	settings.Clamp()
	if len(settings.CustomWords) == 0 {
		settings.CustomWords = s.Settings.CustomWords
	}
	if err := u.repo.SaveSettings(ctx, code, settings); err != nil {
		return model.Session{}, errors.Join(ErrInternal, err)
	}
	s.Settings = settings
	s.UpdatedAt = time.Now()

	return snapshotLocked(r), nil
}

// Cleanup drops empty and long-idle rooms, their players, timers and cached
// canvases, both live and persisted.
func (u *Usecase) Cleanup(ctx context.Context) (int, error) {
	codes, err := u.repo.DeleteStale(ctx, u.staleAfter)
	if err != nil {
		return 0, errors.Join(ErrInternal, err)
	}

	deleted := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		deleted[code] = struct{}{}
	}

	u.mu.Lock()
	for code, r := range u.rooms {
		r.mu.Lock()
		stale := len(r.players) == 0 || time.Since(r.session.UpdatedAt) > u.staleAfter
		r.mu.Unlock()
		if _, gone := deleted[code]; gone || stale {
			deleted[code] = struct{}{}
			delete(u.rooms, code)
		}
	}
	u.mu.Unlock()

	for code := range deleted {
		u.stopTimer(code)
		if err := u.canvas.Delete(code); err != nil {
			u.logger.Warn("canvas cleanup failed", "room", code, "error", err)
		}
	}

	return len(deleted), nil
}

// roomByCode resolves a live room, falling back to the durable store so a
// session survives a process restart.
func (u *Usecase) roomByCode(ctx context.Context, code string) (*room, error) {
	u.mu.RLock()
	r, ok := u.rooms[code]
	u.mu.RUnlock()
	if ok {
		return r, nil
	}

	session, err := u.repo.FindSession(ctx, code)
	if err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, errors.Join(ErrInternal, err)
	}
	players, err := u.repo.ListPlayers(ctx, code)
	if err != nil {
		return nil, errors.Join(ErrInternal, err)
	}

	byID := make(map[uuid.UUID]*model.Player, len(players))
	session.Players = session.Players[:0]
	for i := range players {
		byID[players[i].ID] = &players[i]
		session.Players = append(session.Players, players[i].ID)
	}
	if canvas, ok, err := u.canvas.Get(code); err == nil && ok {
		session.Canvas = canvas
	}

	r = &room{session: &session, players: byID}

	u.mu.Lock()
	if existing, ok := u.rooms[code]; ok {
		r = existing // lost the race, keep the live one
	} else {
		u.rooms[code] = r
	}
	u.mu.Unlock()

	return r, nil
}

func snapshotLocked(r *room) model.Session {
	s := *r.session
	s.UsedWords = append([]string(nil), r.session.UsedWords...)
	s.Players = append([]uuid.UUID(nil), r.session.Players...)
	s.TurnOrder = append([]uuid.UUID(nil), r.session.TurnOrder...)
	s.WordChoices = append([]string(nil), r.session.WordChoices...)
	s.Guesses = append([]model.GuessEntry(nil), r.session.Guesses...)
	s.Messages = append([]model.ChatMessage(nil), r.session.Messages...)
	return s
}

func playersLocked(r *room) []model.Player {
	out := make([]model.Player, 0, len(r.players))
	for _, id := range r.session.Players {
		if p, ok := r.players[id]; ok {
			out = append(out, *p)
		}
	}
	return out
}
