package usecase_game

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nbelyakov/doodleroom/internal/model"
	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type UsecaseGameUnitSuite struct {
	suite.Suite
}

type resources struct {
	usecase *Usecase
	repo    *MockGameRepository
	canvas  *MockCanvasCache
	ctx     context.Context
}

func initResources(_ provider.T) *resources {
	repo := new(MockGameRepository)
	canvas := new(MockCanvasCache)
	usecase := New(repo, canvas)
	// Keep countdown goroutines inert during unit tests.
	usecase.tick = time.Hour

	return &resources{
		usecase: usecase,
		repo:    repo,
		canvas:  canvas,
		ctx:     context.Background(),
	}
}

// seedRoom installs a live room directly, bypassing store hydration.
func seedRoom(u *Usecase, s model.Session, players ...model.Player) {
	byID := make(map[uuid.UUID]*model.Player, len(players))
	for i := range players {
		byID[players[i].ID] = &players[i]
		s.Players = append(s.Players, players[i].ID)
	}
	u.mu.Lock()
	u.rooms[s.Code] = &room{session: &s, players: byID}
	u.mu.Unlock()
}

func lobbySession(code string) model.Session {
	return model.Session{
		Code:      code,
		Status:    model.StatusLobby,
		Settings:  model.DefaultSettings(),
		Phase:     model.PhaseChoosing,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func namedPlayer(name string) model.Player {
	return model.Player{ID: uuid.New(), Name: name, LastActive: time.Now()}
}

func (suite *UsecaseGameUnitSuite) TestCreate(t provider.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		setupMocks    func(r *resources)
		expectError   bool
		expectedError error
	}{
		{
			name: "Should create game and host successfully",
			setupMocks: func(r *resources) {
				r.repo.On("CreateSession", r.ctx, mock.AnythingOfType("model.Session")).
					Return(nil).Once()
				r.repo.On("CreatePlayer", r.ctx, mock.AnythingOfType("model.Player")).
					Return(nil).Once()
			},
			expectError: false,
		},
		{
			name: "Should give up after repeated code conflicts",
			setupMocks: func(r *resources) {
				r.repo.On("CreateSession", r.ctx, mock.AnythingOfType("model.Session")).
					Return(ErrCodeConflict).Times(3)
			},
			expectError:   true,
			expectedError: ErrRoomsUnavailable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			r := initResources(t)
			tc.setupMocks(r)

			session, host, err := r.usecase.Create(r.ctx, "alice")

			if tc.expectError {
				assert.ErrorIs(t, err, tc.expectedError)
			} else {
				assert.NoError(t, err)
				assert.Len(t, session.Code, 4)
				assert.Equal(t, model.StatusLobby, session.Status)
				assert.True(t, host.IsHost)
				assert.Equal(t, host.ID, session.CurrentDrawer)
			}
			r.repo.AssertExpectations(t)
		})
	}
}

func (suite *UsecaseGameUnitSuite) TestJoin(t provider.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		seed          func(r *resources)
		setupMocks    func(r *resources)
		joinName      string
		expectError   bool
		expectedError error
	}{
		{
			name: "Should join lobby successfully",
			seed: func(r *resources) {
				seedRoom(r.usecase, lobbySession("AAAA"), namedPlayer("alice"))
			},
			setupMocks: func(r *resources) {
				r.repo.On("CreatePlayer", r.ctx, mock.AnythingOfType("model.Player")).
					Return(nil).Once()
			},
			joinName:    "bob",
			expectError: false,
		},
		{
			name: "Should reject duplicate name",
			seed: func(r *resources) {
				seedRoom(r.usecase, lobbySession("AAAA"), namedPlayer("alice"))
			},
			setupMocks:    func(r *resources) {},
			joinName:      "alice",
			expectError:   true,
			expectedError: ErrPlayerExists,
		},
		{
			name: "Should reject join once playing",
			seed: func(r *resources) {
				s := lobbySession("AAAA")
				s.Status = model.StatusPlaying
				seedRoom(r.usecase, s, namedPlayer("alice"))
			},
			setupMocks:    func(r *resources) {},
			joinName:      "bob",
			expectError:   true,
			expectedError: ErrRoomInProgress,
		},
		{
			name: "Should reject join when room is full",
			seed: func(r *resources) {
				s := lobbySession("AAAA")
				s.Settings.MaxPlayers = 2
				seedRoom(r.usecase, s, namedPlayer("alice"), namedPlayer("bob"))
			},
			setupMocks:    func(r *resources) {},
			joinName:      "carol",
			expectError:   true,
			expectedError: ErrRoomFull,
		},
		{
			name: "Should report unknown code",
			seed: func(r *resources) {},
			setupMocks: func(r *resources) {
				r.repo.On("FindSession", r.ctx, "AAAA").
					Return(model.Session{}, ErrResourceNotFound).Once()
			},
			joinName:      "bob",
			expectError:   true,
			expectedError: ErrResourceNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			r := initResources(t)
			tc.seed(r)
			tc.setupMocks(r)

			player, session, err := r.usecase.Join(r.ctx, "AAAA", tc.joinName)

			if tc.expectError {
				assert.ErrorIs(t, err, tc.expectedError)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.joinName, player.Name)
				assert.Contains(t, session.Players, player.ID)
			}
			r.repo.AssertExpectations(t)
		})
	}
}

func (suite *UsecaseGameUnitSuite) TestRejoin(t provider.T) {
	t.Parallel()

	known := namedPlayer("alice")

	testCases := []struct {
		name          string
		playerID      uuid.UUID
		setupMocks    func(r *resources)
		expectError   bool
		expectedError error
	}{
		{
			name:     "Should reattach a known player",
			playerID: known.ID,
			setupMocks: func(r *resources) {
				r.repo.On("TouchPlayer", r.ctx, known.ID, "sock-1", mock.AnythingOfType("time.Time")).
					Return(nil).Once()
			},
			expectError: false,
		},
		{
			name:          "Should reject an unknown player",
			playerID:      uuid.New(),
			setupMocks:    func(r *resources) {},
			expectError:   true,
			expectedError: ErrResourceNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			r := initResources(t)
			seedRoom(r.usecase, lobbySession("BBBB"), known)
			tc.setupMocks(r)

			player, _, err := r.usecase.Rejoin(r.ctx, "BBBB", tc.playerID, "sock-1")

			if tc.expectError {
				assert.ErrorIs(t, err, tc.expectedError)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "sock-1", player.SocketID)
			}
			r.repo.AssertExpectations(t)
		})
	}
}

func (suite *UsecaseGameUnitSuite) TestStart(t provider.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		seed          func(r *resources)
		setupMocks    func(r *resources)
		expectError   bool
		expectedError error
	}{
		{
			name: "Should start with first player drawing",
			seed: func(r *resources) {
				seedRoom(r.usecase, lobbySession("CCCC"), namedPlayer("alice"), namedPlayer("bob"))
			},
			setupMocks: func(r *resources) {
				r.repo.On("SaveTurnState", r.ctx, mock.AnythingOfType("model.Session")).
					Return(nil).Once()
			},
			expectError: false,
		},
		{
			name: "Should refuse an empty room",
			seed: func(r *resources) {
				seedRoom(r.usecase, lobbySession("CCCC"))
			},
			setupMocks:    func(r *resources) {},
			expectError:   true,
			expectedError: ErrNoPlayers,
		},
		{
			name: "Should refuse a second start",
			seed: func(r *resources) {
				s := lobbySession("CCCC")
				s.Status = model.StatusPlaying
				seedRoom(r.usecase, s, namedPlayer("alice"))
			},
			setupMocks:    func(r *resources) {},
			expectError:   true,
			expectedError: ErrRoomInProgress,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			r := initResources(t)
			tc.seed(r)
			tc.setupMocks(r)

			session, err := r.usecase.Start(r.ctx, "CCCC")

			if tc.expectError {
				assert.ErrorIs(t, err, tc.expectedError)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, model.StatusPlaying, session.Status)
				assert.Equal(t, 1, session.CurrentRound)
				assert.Equal(t, 1, session.Turn)
				assert.Equal(t, model.PhaseChoosing, session.Phase)
				assert.Equal(t, session.TurnOrder[0], session.CurrentDrawer)
				assert.Len(t, session.WordChoices, 3)
				assert.Empty(t, session.CurrentWord)
			}
			r.repo.AssertExpectations(t)
		})
	}
}

func (suite *UsecaseGameUnitSuite) TestNextTurn(t provider.T) {
	t.Parallel()

	alice := namedPlayer("alice")
	bob := namedPlayer("bob")

	playingSession := func(drawer uuid.UUID, round, rounds int) model.Session {
		s := lobbySession("DDDD")
		s.Status = model.StatusPlaying
		s.Phase = model.PhaseDrawing
		s.CurrentRound = round
		s.Settings.Rounds = rounds
		s.TurnOrder = []uuid.UUID{alice.ID, bob.ID}
		s.CurrentDrawer = drawer
		s.CurrentWord = "cat"
		s.Turn = 1
		return s
	}

	testCases := []struct {
		name           string
		seed           func(r *resources)
		expectedStatus model.Status
		expectedDrawer uuid.UUID
		expectedRound  int
	}{
		{
			name: "Should rotate to the next drawer within a round",
			seed: func(r *resources) {
				seedRoom(r.usecase, playingSession(alice.ID, 1, 3), alice, bob)
			},
			expectedStatus: model.StatusPlaying,
			expectedDrawer: bob.ID,
			expectedRound:  1,
		},
		{
			name: "Should advance the round when the order wraps",
			seed: func(r *resources) {
				seedRoom(r.usecase, playingSession(bob.ID, 1, 3), alice, bob)
			},
			expectedStatus: model.StatusPlaying,
			expectedDrawer: alice.ID,
			expectedRound:  2,
		},
		{
			name: "Should finish past the final round",
			seed: func(r *resources) {
				seedRoom(r.usecase, playingSession(bob.ID, 3, 3), alice, bob)
			},
			expectedStatus: model.StatusFinished,
			expectedDrawer: bob.ID,
			expectedRound:  4,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			r := initResources(t)
			tc.seed(r)
			r.repo.On("SaveTurnState", r.ctx, mock.AnythingOfType("model.Session")).
				Return(nil).Once()

			session, err := r.usecase.NextTurn(r.ctx, "DDDD")

			assert.NoError(t, err)
			assert.Equal(t, tc.expectedStatus, session.Status)
			assert.Equal(t, tc.expectedDrawer, session.CurrentDrawer)
			assert.Equal(t, tc.expectedRound, session.CurrentRound)
			assert.Empty(t, session.CurrentWord)
			assert.Equal(t, model.PhaseChoosing, session.Phase)
			if tc.expectedStatus == model.StatusFinished {
				assert.Empty(t, session.WordChoices)
			} else {
				assert.Len(t, session.WordChoices, 3)
			}
			r.repo.AssertExpectations(t)
		})
	}
}

func (suite *UsecaseGameUnitSuite) TestChooseWord(t provider.T) {
	t.Parallel()

	alice := namedPlayer("alice")
	bob := namedPlayer("bob")

	choosingSession := func() model.Session {
		s := lobbySession("EEEE")
		s.Status = model.StatusPlaying
		s.Phase = model.PhaseChoosing
		s.CurrentRound = 1
		s.Turn = 1
		s.TurnOrder = []uuid.UUID{alice.ID, bob.ID}
		s.CurrentDrawer = alice.ID
		s.WordChoices = []string{"cat", "dog", "fish"}
		return s
	}

	testCases := []struct {
		name     string
		player   uuid.UUID
		word     string
		mutate   func(s *model.Session)
		accepted bool
	}{
		{
			name:     "Should accept the drawer's offered word",
			player:   alice.ID,
			word:     "dog",
			mutate:   func(s *model.Session) {},
			accepted: true,
		},
		{
			name:     "Should ignore a non-drawer",
			player:   bob.ID,
			word:     "dog",
			mutate:   func(s *model.Session) {},
			accepted: false,
		},
		{
			name:     "Should ignore a word that was not offered",
			player:   alice.ID,
			word:     "zebra",
			mutate:   func(s *model.Session) {},
			accepted: false,
		},
		{
			name:   "Should ignore a pick outside the choosing phase",
			player: alice.ID,
			word:   "dog",
			mutate: func(s *model.Session) {
				s.Phase = model.PhaseDrawing
				s.CurrentWord = "cat"
			},
			accepted: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			r := initResources(t)
			s := choosingSession()
			tc.mutate(&s)
			seedRoom(r.usecase, s, alice, bob)
			if tc.accepted {
				r.repo.On("SaveTurnState", r.ctx, mock.AnythingOfType("model.Session")).
					Return(nil).Once()
			}

			changed := r.usecase.ChooseWord(r.ctx, "EEEE", tc.player, tc.word)
			r.usecase.stopTimer("EEEE")

			assert.Equal(t, tc.accepted, changed)
			if tc.accepted {
				session, _, err := r.usecase.Snapshot(r.ctx, "EEEE")
				assert.NoError(t, err)
				assert.Equal(t, model.PhaseDrawing, session.Phase)
				assert.Equal(t, tc.word, session.CurrentWord)
				assert.Equal(t, session.Settings.DrawingTime, session.TimeLeft)
				assert.Empty(t, session.WordChoices)
			}
			r.repo.AssertExpectations(t)
		})
	}
}

func (suite *UsecaseGameUnitSuite) TestSubmitGuess(t provider.T) {
	t.Parallel()

	alice := namedPlayer("alice") // drawer
	bob := namedPlayer("bob")
	carol := namedPlayer("carol")

	base := time.UnixMilli(1_700_000_000_000)

	drawingSession := func() model.Session {
		s := lobbySession("FFFF")
		s.Status = model.StatusPlaying
		s.Phase = model.PhaseDrawing
		s.CurrentRound = 1
		s.Turn = 1
		s.TurnOrder = []uuid.UUID{alice.ID, bob.ID, carol.ID}
		s.CurrentDrawer = alice.ID
		s.CurrentWord = "Giraffe"
		return s
	}

	t.Run("Should award full points to the first correct guess", func(t provider.T) {
		t.Parallel()
		r := initResources(t)
		seedRoom(r.usecase, drawingSession(), alice, bob, carol)
		r.repo.On("AppendGuess", r.ctx, "FFFF", mock.AnythingOfType("model.GuessEntry")).
			Return(nil).Once()
		r.repo.On("IncrementScore", r.ctx, bob.ID, 100).Return(nil).Once()

		out := r.usecase.SubmitGuess(r.ctx, "FFFF", bob.ID, "  giraffe ", base)

		assert.Equal(t, VerdictCorrect, out.Verdict)
		assert.Equal(t, 100, out.Points)
		assert.Equal(t, alice.ID, out.DrawerID)
		r.repo.AssertExpectations(t)
	})

	t.Run("Should drop one tier per distinct arrival bucket", func(t provider.T) {
		t.Parallel()
		r := initResources(t)
		seedRoom(r.usecase, drawingSession(), alice, bob, carol)
		r.repo.On("AppendGuess", r.ctx, "FFFF", mock.AnythingOfType("model.GuessEntry")).
			Return(nil).Twice()
		r.repo.On("IncrementScore", r.ctx, bob.ID, 100).Return(nil).Once()
		r.repo.On("IncrementScore", r.ctx, carol.ID, 90).Return(nil).Once()

		first := r.usecase.SubmitGuess(r.ctx, "FFFF", bob.ID, "giraffe", base)
		second := r.usecase.SubmitGuess(r.ctx, "FFFF", carol.ID, "giraffe", base.Add(3*time.Second))

		assert.Equal(t, 100, first.Points)
		assert.Equal(t, 90, second.Points)
		r.repo.AssertExpectations(t)
	})

	t.Run("Should share a tier inside one arrival bucket", func(t provider.T) {
		t.Parallel()
		r := initResources(t)
		seedRoom(r.usecase, drawingSession(), alice, bob, carol)
		r.repo.On("AppendGuess", r.ctx, "FFFF", mock.AnythingOfType("model.GuessEntry")).
			Return(nil).Twice()
		r.repo.On("IncrementScore", r.ctx, bob.ID, 100).Return(nil).Once()
		r.repo.On("IncrementScore", r.ctx, carol.ID, 100).Return(nil).Once()

		first := r.usecase.SubmitGuess(r.ctx, "FFFF", bob.ID, "giraffe", base)
		second := r.usecase.SubmitGuess(r.ctx, "FFFF", carol.ID, "giraffe", base.Add(500*time.Millisecond))

		assert.Equal(t, first.Points, second.Points)
		r.repo.AssertExpectations(t)
	})

	t.Run("Should conceal the word when the drawer types it", func(t provider.T) {
		t.Parallel()
		r := initResources(t)
		seedRoom(r.usecase, drawingSession(), alice, bob, carol)

		out := r.usecase.SubmitGuess(r.ctx, "FFFF", alice.ID, "giraffe", base)

		assert.Equal(t, VerdictConcealed, out.Verdict)
		assert.Zero(t, out.Points)
		r.repo.AssertExpectations(t)
	})

	t.Run("Should conceal a repeat from a player who already scored", func(t provider.T) {
		t.Parallel()
		r := initResources(t)
		seedRoom(r.usecase, drawingSession(), alice, bob, carol)
		r.repo.On("AppendGuess", r.ctx, "FFFF", mock.AnythingOfType("model.GuessEntry")).
			Return(nil).Once()
		r.repo.On("IncrementScore", r.ctx, bob.ID, 100).Return(nil).Once()

		first := r.usecase.SubmitGuess(r.ctx, "FFFF", bob.ID, "giraffe", base)
		repeat := r.usecase.SubmitGuess(r.ctx, "FFFF", bob.ID, "giraffe", base.Add(time.Second))

		assert.Equal(t, VerdictCorrect, first.Verdict)
		assert.Equal(t, VerdictConcealed, repeat.Verdict)
		r.repo.AssertExpectations(t)
	})

	t.Run("Should pass a miss through as plain chat", func(t provider.T) {
		t.Parallel()
		r := initResources(t)
		seedRoom(r.usecase, drawingSession(), alice, bob, carol)

		out := r.usecase.SubmitGuess(r.ctx, "FFFF", bob.ID, "elephant", base)

		assert.Equal(t, VerdictChat, out.Verdict)
		session, _, err := r.usecase.Snapshot(r.ctx, "FFFF")
		assert.NoError(t, err)
		assert.Len(t, session.Messages, 1)
		assert.Equal(t, "elephant", session.Messages[0].Text)
		r.repo.AssertExpectations(t)
	})
}

func (suite *UsecaseGameUnitSuite) TestUpdateSettings(t provider.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		seed          func(r *resources)
		setupMocks    func(r *resources)
		settings      model.Settings
		expectError   bool
		expectedError error
		check         func(t provider.T, s model.Session)
	}{
		{
			name: "Should clamp out-of-range values",
			seed: func(r *resources) {
				seedRoom(r.usecase, lobbySession("GGGG"), namedPlayer("alice"))
			},
			setupMocks: func(r *resources) {
				r.repo.On("SaveSettings", r.ctx, "GGGG", mock.AnythingOfType("model.Settings")).
					Return(nil).Once()
			},
			settings: model.Settings{Rounds: 99, DrawingTime: 5, MaxPlayers: 100},
			check: func(t provider.T, s model.Session) {
				assert.Equal(t, 10, s.Settings.Rounds)
				assert.Equal(t, 30, s.Settings.DrawingTime)
				assert.Equal(t, 12, s.Settings.MaxPlayers)
			},
		},
		{
			name: "Should lock settings once playing",
			seed: func(r *resources) {
				s := lobbySession("GGGG")
				s.Status = model.StatusPlaying
				seedRoom(r.usecase, s, namedPlayer("alice"))
			},
			setupMocks:    func(r *resources) {},
			settings:      model.Settings{Rounds: 5, DrawingTime: 60, MaxPlayers: 8},
			expectError:   true,
			expectedError: ErrSettingsLocked,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			r := initResources(t)
			tc.seed(r)
			tc.setupMocks(r)

			session, err := r.usecase.UpdateSettings(r.ctx, "GGGG", tc.settings)

			if tc.expectError {
				assert.ErrorIs(t, err, tc.expectedError)
			} else {
				assert.NoError(t, err)
				tc.check(t, session)
			}
			r.repo.AssertExpectations(t)
		})
	}
}

func (suite *UsecaseGameUnitSuite) TestCleanup(t provider.T) {
	t.Parallel()

	t.Run("Should drop stale rooms and their canvases", func(t provider.T) {
		t.Parallel()
		r := initResources(t)

		s := lobbySession("HHHH")
		s.UpdatedAt = time.Now().Add(-48 * time.Hour)
		seedRoom(r.usecase, s, namedPlayer("alice"))
		seedRoom(r.usecase, lobbySession("IIII"), namedPlayer("bob"))

		r.repo.On("DeleteStale", r.ctx, 24*time.Hour).
			Return([]string{"HHHH"}, nil).Once()
		r.canvas.On("Delete", "HHHH").Return(nil).Once()

		deleted, err := r.usecase.Cleanup(r.ctx)

		assert.NoError(t, err)
		assert.Equal(t, 1, deleted)

		r.usecase.mu.RLock()
		_, staleGone := r.usecase.rooms["HHHH"]
		_, freshKept := r.usecase.rooms["IIII"]
		r.usecase.mu.RUnlock()
		assert.False(t, staleGone)
		assert.True(t, freshKept)

		r.repo.AssertExpectations(t)
		r.canvas.AssertExpectations(t)
	})

	t.Run("Should surface store failures", func(t provider.T) {
		t.Parallel()
		r := initResources(t)
		r.repo.On("DeleteStale", r.ctx, 24*time.Hour).
			Return(nil, ErrInternal).Once()

		_, err := r.usecase.Cleanup(r.ctx)

		assert.ErrorIs(t, err, ErrInternal)
		r.repo.AssertExpectations(t)
	})
}

func TestUnitSuite(t *testing.T) {
	suite.RunSuite(t, new(UsecaseGameUnitSuite))
}
