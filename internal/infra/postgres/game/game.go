package infra_postgres_game

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/nbelyakov/doodleroom/internal/model"
	usecase_game "github.com/nbelyakov/doodleroom/internal/usecase/game"
)

type Driver struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Driver {
	return &Driver{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	code           TEXT PRIMARY KEY,
	status         TEXT NOT NULL,
	phase          TEXT NOT NULL,
	current_round  INT NOT NULL DEFAULT 0,
	current_word   TEXT NOT NULL DEFAULT '',
	current_drawer TEXT NOT NULL DEFAULT '',
	turn           INT NOT NULL DEFAULT 0,
	time_left      INT NOT NULL DEFAULT 0,
	rounds         INT NOT NULL,
	drawing_time   INT NOT NULL,
	max_players    INT NOT NULL,
	custom_words   TEXT[] NOT NULL DEFAULT '{}',
	used_words     TEXT[] NOT NULL DEFAULT '{}',
	word_choices   TEXT[] NOT NULL DEFAULT '{}',
	turn_order     TEXT[] NOT NULL DEFAULT '{}',
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS players (
	id          UUID PRIMARY KEY,
	name        TEXT NOT NULL,
	is_host     BOOLEAN NOT NULL DEFAULT FALSE,
	score       INT NOT NULL DEFAULT 0,
	game_code   TEXT NOT NULL REFERENCES sessions (code) ON DELETE CASCADE,
	socket_id   TEXT NOT NULL DEFAULT '',
	last_active TIMESTAMPTZ NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS guesses (
	game_code  TEXT NOT NULL REFERENCES sessions (code) ON DELETE CASCADE,
	player_id  UUID NOT NULL,
	points     INT NOT NULL,
	bucket     BIGINT NOT NULL,
	arrived_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_players_game_code ON players (game_code);
CREATE INDEX IF NOT EXISTS idx_guesses_game_code ON guesses (game_code);
`

// EnsureSchema creates the tables on first run.
func (d *Driver) EnsureSchema(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, schema)
	return err
}

type sessionDTO struct {
	Code          string         `db:"code"`
	Status        string         `db:"status"`
	Phase         string         `db:"phase"`
	CurrentRound  int            `db:"current_round"`
	CurrentWord   string         `db:"current_word"`
	CurrentDrawer string         `db:"current_drawer"`
	Turn          int            `db:"turn"`
	TimeLeft      int            `db:"time_left"`
	Rounds        int            `db:"rounds"`
	DrawingTime   int            `db:"drawing_time"`
	MaxPlayers    int            `db:"max_players"`
	CustomWords   pq.StringArray `db:"custom_words"`
	UsedWords     pq.StringArray `db:"used_words"`
	WordChoices   pq.StringArray `db:"word_choices"`
	TurnOrder     pq.StringArray `db:"turn_order"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

type playerDTO struct {
	ID         uuid.UUID `db:"id"`
	Name       string    `db:"name"`
	IsHost     bool      `db:"is_host"`
	Score      int       `db:"score"`
	GameCode   string    `db:"game_code"`
	SocketID   string    `db:"socket_id"`
	LastActive time.Time `db:"last_active"`
	CreatedAt  time.Time `db:"created_at"`
}

type guessDTO struct {
	GameCode  string    `db:"game_code"`
	PlayerID  uuid.UUID `db:"player_id"`
	Points    int       `db:"points"`
	Bucket    int64     `db:"bucket"`
	ArrivedAt time.Time `db:"arrived_at"`
}

func (d *Driver) CreateSession(ctx context.Context, s model.Session) error {
	dto := toSessionDTO(s)

	query := `
		INSERT INTO sessions (code, status, phase, current_round, current_word, current_drawer,
			turn, time_left, rounds, drawing_time, max_players, custom_words, used_words,
			word_choices, turn_order, created_at, updated_at)
		VALUES (:code, :status, :phase, :current_round, :current_word, :current_drawer,
			:turn, :time_left, :rounds, :drawing_time, :max_players, :custom_words, :used_words,
			:word_choices, :turn_order, :created_at, :updated_at)
	`

	_, err := d.db.NamedExecContext(ctx, query, dto)
	if err != nil {
		if strings.Contains(err.Error(), "unique constraint") ||
			strings.Contains(err.Error(), "duplicate key") {
			return usecase_game.ErrCodeConflict
		}
		return err
	}
	return nil
}

func (d *Driver) CreatePlayer(ctx context.Context, p model.Player) error {
	dto := playerDTO{
		ID:         p.ID,
		Name:       p.Name,
		IsHost:     p.IsHost,
		Score:      p.Score,
		GameCode:   p.GameCode,
		SocketID:   p.SocketID,
		LastActive: p.LastActive,
		CreatedAt:  time.Now(),
	}

	query := `
		INSERT INTO players (id, name, is_host, score, game_code, socket_id, last_active, created_at)
		VALUES (:id, :name, :is_host, :score, :game_code, :socket_id, :last_active, :created_at)
	`

	_, err := d.db.NamedExecContext(ctx, query, dto)
	return err
}

func (d *Driver) FindSession(ctx context.Context, code string) (model.Session, error) {
	var dto sessionDTO

	query := `SELECT * FROM sessions WHERE code = $1`

	if err := d.db.GetContext(ctx, &dto, query, code); err != nil {
		if err == sql.ErrNoRows {
			return model.Session{}, usecase_game.ErrResourceNotFound
		}
		return model.Session{}, err
	}

	session := fromSessionDTO(dto)

	var guesses []guessDTO
	query = `SELECT * FROM guesses WHERE game_code = $1 ORDER BY arrived_at`
	if err := d.db.SelectContext(ctx, &guesses, query, code); err != nil {
		return model.Session{}, err
	}
	for _, g := range guesses {
		session.Guesses = append(session.Guesses, model.GuessEntry{
			PlayerID: g.PlayerID,
			Points:   g.Points,
			At:       g.ArrivedAt,
			Bucket:   g.Bucket,
		})
	}

	return session, nil
}

func (d *Driver) ListPlayers(ctx context.Context, code string) ([]model.Player, error) {
	var dtos []playerDTO

	query := `SELECT * FROM players WHERE game_code = $1 ORDER BY created_at`

	if err := d.db.SelectContext(ctx, &dtos, query, code); err != nil {
		return nil, err
	}

	players := make([]model.Player, 0, len(dtos))
	for _, dto := range dtos {
		players = append(players, model.Player{
			ID:         dto.ID,
			Name:       dto.Name,
			IsHost:     dto.IsHost,
			Score:      dto.Score,
			GameCode:   dto.GameCode,
			SocketID:   dto.SocketID,
			LastActive: dto.LastActive,
		})
	}
	return players, nil
}

func (d *Driver) SaveTurnState(ctx context.Context, s model.Session) error {
	dto := toSessionDTO(s)

	query := `
		UPDATE sessions
		SET status = :status, phase = :phase, current_round = :current_round,
			current_word = :current_word, current_drawer = :current_drawer, turn = :turn,
			time_left = :time_left, used_words = :used_words, word_choices = :word_choices,
			turn_order = :turn_order, updated_at = :updated_at
		WHERE code = :code
	`

	result, err := d.db.NamedExecContext(ctx, query, dto)
	if err != nil {
		return err
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return usecase_game.ErrResourceNotFound
	}

	// Entering choosing clears the ledger; mirror that in the store.
	if len(s.Guesses) == 0 {
		_, err = d.db.ExecContext(ctx, `DELETE FROM guesses WHERE game_code = $1`, s.Code)
	}
	return err
}

func (d *Driver) SaveSettings(ctx context.Context, code string, settings model.Settings) error {
	query := `
		UPDATE sessions
		SET rounds = $1, drawing_time = $2, max_players = $3, custom_words = $4, updated_at = $5
		WHERE code = $6
	`

	result, err := d.db.ExecContext(ctx, query,
		settings.Rounds,
		settings.DrawingTime,
		settings.MaxPlayers,
		pq.StringArray(settings.CustomWords),
		time.Now(),
		code,
	)
	if err != nil {
		return err
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return usecase_game.ErrResourceNotFound
	}
	return nil
}

func (d *Driver) SetTimeLeft(ctx context.Context, code string, seconds int) error {
	query := `UPDATE sessions SET time_left = $1, updated_at = $2 WHERE code = $3`

	result, err := d.db.ExecContext(ctx, query, seconds, time.Now(), code)
	if err != nil {
		return err
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return usecase_game.ErrResourceNotFound
	}
	return nil
}

func (d *Driver) AppendGuess(ctx context.Context, code string, e model.GuessEntry) error {
	dto := guessDTO{
		GameCode:  code,
		PlayerID:  e.PlayerID,
		Points:    e.Points,
		Bucket:    e.Bucket,
		ArrivedAt: e.At,
	}

	query := `
		INSERT INTO guesses (game_code, player_id, points, bucket, arrived_at)
		VALUES (:game_code, :player_id, :points, :bucket, :arrived_at)
	`

	_, err := d.db.NamedExecContext(ctx, query, dto)
	return err
}

func (d *Driver) IncrementScore(ctx context.Context, playerID uuid.UUID, delta int) error {
	query := `UPDATE players SET score = score + $1, last_active = $2 WHERE id = $3`

	result, err := d.db.ExecContext(ctx, query, delta, time.Now(), playerID)
	if err != nil {
		return err
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return usecase_game.ErrResourceNotFound
	}
	return nil
}

func (d *Driver) TouchPlayer(ctx context.Context, playerID uuid.UUID, socketID string, at time.Time) error {
	query := `UPDATE players SET socket_id = $1, last_active = $2 WHERE id = $3`

	result, err := d.db.ExecContext(ctx, query, socketID, at, playerID)
	if err != nil {
		return err
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return usecase_game.ErrResourceNotFound
	}
	return nil
}

func (d *Driver) DeleteStale(ctx context.Context, olderThan time.Duration) ([]string, error) {
	query := `
		DELETE FROM sessions
		WHERE updated_at < $1
			OR NOT EXISTS (SELECT 1 FROM players WHERE players.game_code = sessions.code)
		RETURNING code
	`

	rows, err := d.db.QueryContext(ctx, query, time.Now().Add(-olderThan))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

func toSessionDTO(s model.Session) sessionDTO {
	drawer := ""
	if s.CurrentDrawer != uuid.Nil {
		drawer = s.CurrentDrawer.String()
	}

	order := make(pq.StringArray, 0, len(s.TurnOrder))
	for _, id := range s.TurnOrder {
		order = append(order, id.String())
	}

	return sessionDTO{
		Code:          s.Code,
		Status:        string(s.Status),
		Phase:         string(s.Phase),
		CurrentRound:  s.CurrentRound,
		CurrentWord:   s.CurrentWord,
		CurrentDrawer: drawer,
		Turn:          s.Turn,
		TimeLeft:      s.TimeLeft,
		Rounds:        s.Settings.Rounds,
		DrawingTime:   s.Settings.DrawingTime,
		MaxPlayers:    s.Settings.MaxPlayers,
		CustomWords:   pq.StringArray(s.Settings.CustomWords),
		UsedWords:     pq.StringArray(s.UsedWords),
		WordChoices:   pq.StringArray(s.WordChoices),
		TurnOrder:     order,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func fromSessionDTO(dto sessionDTO) model.Session {
	drawer := uuid.Nil
	if dto.CurrentDrawer != "" {
		drawer, _ = uuid.Parse(dto.CurrentDrawer)
	}

	order := make([]uuid.UUID, 0, len(dto.TurnOrder))
	for _, raw := range dto.TurnOrder {
		if id, err := uuid.Parse(raw); err == nil {
			order = append(order, id)
		}
	}

	return model.Session{
		Code:          dto.Code,
		Status:        model.Status(dto.Status),
		Phase:         model.Phase(dto.Phase),
		CurrentRound:  dto.CurrentRound,
		CurrentWord:   dto.CurrentWord,
		CurrentDrawer: drawer,
		Turn:          dto.Turn,
		TimeLeft:      dto.TimeLeft,
		Settings: model.Settings{
			Rounds:      dto.Rounds,
			DrawingTime: dto.DrawingTime,
			MaxPlayers:  dto.MaxPlayers,
			CustomWords: []string(dto.CustomWords),
		},
		UsedWords:   []string(dto.UsedWords),
		WordChoices: []string(dto.WordChoices),
		TurnOrder:   order,
		CreatedAt:   dto.CreatedAt,
		UpdatedAt:   dto.UpdatedAt,
	}
}
