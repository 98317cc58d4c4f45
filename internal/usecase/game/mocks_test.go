package usecase_game

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nbelyakov/doodleroom/internal/model"
	"github.com/stretchr/testify/mock"
)

// --- GameRepository ---

type MockGameRepository struct {
	mock.Mock
}

func (m *MockGameRepository) CreateSession(ctx context.Context, s model.Session) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockGameRepository) CreatePlayer(ctx context.Context, p model.Player) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockGameRepository) FindSession(ctx context.Context, code string) (model.Session, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(model.Session), args.Error(1)
}

func (m *MockGameRepository) ListPlayers(ctx context.Context, code string) ([]model.Player, error) {
	args := m.Called(ctx, code)
	return args.Get(0).([]model.Player), args.Error(1)
}

func (m *MockGameRepository) SaveTurnState(ctx context.Context, s model.Session) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockGameRepository) SaveSettings(ctx context.Context, code string, settings model.Settings) error {
	args := m.Called(ctx, code, settings)
	return args.Error(0)
}

func (m *MockGameRepository) SetTimeLeft(ctx context.Context, code string, seconds int) error {
	args := m.Called(ctx, code, seconds)
	return args.Error(0)
}

func (m *MockGameRepository) AppendGuess(ctx context.Context, code string, e model.GuessEntry) error {
	args := m.Called(ctx, code, e)
	return args.Error(0)
}

func (m *MockGameRepository) IncrementScore(ctx context.Context, playerID uuid.UUID, delta int) error {
	args := m.Called(ctx, playerID, delta)
	return args.Error(0)
}

func (m *MockGameRepository) TouchPlayer(ctx context.Context, playerID uuid.UUID, socketID string, at time.Time) error {
	args := m.Called(ctx, playerID, socketID, at)
	return args.Error(0)
}

func (m *MockGameRepository) DeleteStale(ctx context.Context, olderThan time.Duration) ([]string, error) {
	args := m.Called(ctx, olderThan)
	var codes []string
	if v := args.Get(0); v != nil {
		codes = v.([]string)
	}
	return codes, args.Error(1)
}

// --- CanvasCache ---

type MockCanvasCache struct {
	mock.Mock
}

func (m *MockCanvasCache) Set(code string, c model.CanvasState) error {
	args := m.Called(code, c)
	return args.Error(0)
}

func (m *MockCanvasCache) Get(code string) (model.CanvasState, bool, error) {
	args := m.Called(code)
	return args.Get(0).(model.CanvasState), args.Bool(1), args.Error(2)
}

func (m *MockCanvasCache) Delete(code string) error {
	args := m.Called(code)
	return args.Error(0)
}

// --- Broadcaster ---

type MockBroadcaster struct {
	mock.Mock
}

func (m *MockBroadcaster) GameUpdated(code string) {
	m.Called(code)
}

func (m *MockBroadcaster) TimeUpdate(code string, seconds int) {
	m.Called(code, seconds)
}
