package http_game

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	http_common "github.com/nbelyakov/doodleroom/internal/delivery/http/common"
	ws_game "github.com/nbelyakov/doodleroom/internal/delivery/ws/game"
	"github.com/nbelyakov/doodleroom/internal/model"
	usecase_game "github.com/nbelyakov/doodleroom/internal/usecase/game"
)

// Notifier pushes state snapshots to a room's connected participants after
// a request/response mutation. Implemented by the ws hub.
type Notifier interface {
	GameUpdated(code string)
}

type Controller struct {
	usecase  *usecase_game.Usecase
	notifier Notifier
	logger   *slog.Logger
}

func New(usecase *usecase_game.Usecase, notifier Notifier) *Controller {
	return &Controller{
		usecase:  usecase,
		notifier: notifier,
		logger:   slog.Default(),
	}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	games := router.Group("/games")
	{
		games.POST("", c.create)
		games.GET("/cleanup", c.cleanup)
		games.GET("/:party_code", c.get)
		games.POST("/:party_code/join", c.join)
		games.POST("/:party_code/rejoin", c.rejoin)
		games.PATCH("/:party_code/start", c.start)
		games.PATCH("/:party_code/next-turn", c.nextTurn)
		games.PATCH("/:party_code", c.patchSettings)
	}
}

type playerRequestDTO struct {
	Player struct {
		ID   string `json:"id"`
		Name string `json:"name" binding:"required"`
	} `json:"player" binding:"required"`
}

type gameResponseDTO struct {
	Success bool             `json:"success"`
	Game    ws_game.GameView `json:"game"`
	Player  *model.Player    `json:"player,omitempty"`
}

func (c *Controller) create(ctx *gin.Context) {
	var req playerRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{Message: "invalid request format"})
		return
	}

	session, host, err := c.usecase.Create(ctx, req.Player.Name)
	if err != nil {
		c.fail(ctx, "failed to create game", err)
		return
	}

	ctx.JSON(http.StatusCreated, gameResponseDTO{
		Success: true,
		Game:    ws_game.BuildView(session, []model.Player{host}, host.ID),
		Player:  &host,
	})
}

func (c *Controller) join(ctx *gin.Context) {
	code := ctx.Param("party_code")

	var req playerRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{Message: "invalid request format"})
		return
	}

	player, session, err := c.usecase.Join(ctx, code, req.Player.Name)
	if err != nil {
		c.fail(ctx, "failed to join game", err)
		return
	}

	c.notifier.GameUpdated(code)

	players, _ := c.players(ctx, code)
	ctx.JSON(http.StatusOK, gameResponseDTO{
		Success: true,
		Game:    ws_game.BuildView(session, players, player.ID),
		Player:  &player,
	})
}

func (c *Controller) rejoin(ctx *gin.Context) {
	code := ctx.Param("party_code")

	var req playerRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{Message: "invalid request format"})
		return
	}
	playerID, err := uuid.Parse(req.Player.ID)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{Message: "invalid player id"})
		return
	}

	player, session, err := c.usecase.Rejoin(ctx, code, playerID, ctx.Query("socketId"))
	if err != nil {
		c.fail(ctx, "failed to rejoin game", err)
		return
	}

	players, _ := c.players(ctx, code)
	ctx.JSON(http.StatusOK, gameResponseDTO{
		Success: true,
		Game:    ws_game.BuildView(session, players, player.ID),
		Player:  &player,
	})
}

func (c *Controller) get(ctx *gin.Context) {
	code := ctx.Param("party_code")

	session, players, err := c.usecase.Snapshot(ctx, code)
	if err != nil {
		c.fail(ctx, "failed to get game state", err)
		return
	}

	// Anonymous viewer: the word stays masked.
	ctx.JSON(http.StatusOK, gameResponseDTO{
		Success: true,
		Game:    ws_game.BuildView(session, players, uuid.Nil),
	})
}

func (c *Controller) start(ctx *gin.Context) {
	code := ctx.Param("party_code")

	session, err := c.usecase.Start(ctx, code)
	if err != nil {
		c.fail(ctx, "failed to start game", err)
		return
	}

	// Timer starts after the drawer chooses a word.
	c.notifier.GameUpdated(code)

	players, _ := c.players(ctx, code)
	ctx.JSON(http.StatusOK, gameResponseDTO{
		Success: true,
		Game:    ws_game.BuildView(session, players, uuid.Nil),
	})
}

func (c *Controller) nextTurn(ctx *gin.Context) {
	code := ctx.Param("party_code")

	session, err := c.usecase.NextTurn(ctx, code)
	if err != nil {
		c.fail(ctx, "failed to advance turn", err)
		return
	}

	c.notifier.GameUpdated(code)

	players, _ := c.players(ctx, code)
	ctx.JSON(http.StatusOK, gameResponseDTO{
		Success: true,
		Game:    ws_game.BuildView(session, players, uuid.Nil),
	})
}

type settingsRequestDTO struct {
	Settings model.Settings `json:"settings" binding:"required"`
}

func (c *Controller) patchSettings(ctx *gin.Context) {
	code := ctx.Param("party_code")

	var req settingsRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{Message: "invalid request format"})
		return
	}

	session, err := c.usecase.UpdateSettings(ctx, code, req.Settings)
	if err != nil {
		c.fail(ctx, "failed to update settings", err)
		return
	}

	c.notifier.GameUpdated(code)

	players, _ := c.players(ctx, code)
	ctx.JSON(http.StatusOK, gameResponseDTO{
		Success: true,
		Game:    ws_game.BuildView(session, players, uuid.Nil),
	})
}

type cleanupResponseDTO struct {
	Success bool `json:"success"`
	Deleted int  `json:"deleted"`
}

func (c *Controller) cleanup(ctx *gin.Context) {
	deleted, err := c.usecase.Cleanup(ctx)
	if err != nil {
		c.fail(ctx, "cleanup failed", err)
		return
	}
	ctx.JSON(http.StatusOK, cleanupResponseDTO{Success: true, Deleted: deleted})
}

func (c *Controller) players(ctx *gin.Context, code string) ([]model.Player, error) {
	_, players, err := c.usecase.Snapshot(ctx, code)
	return players, err
}

func (c *Controller) fail(ctx *gin.Context, msg string, err error) {
	c.logger.Error(msg, slog.String("error", err.Error()))

	switch {
	case errors.Is(err, usecase_game.ErrResourceNotFound):
		ctx.JSON(http.StatusNotFound, http_common.ErrorResponse{Message: "not found"})
	case errors.Is(err, usecase_game.ErrRoomInProgress),
		errors.Is(err, usecase_game.ErrPlayerExists),
		errors.Is(err, usecase_game.ErrRoomFull),
		errors.Is(err, usecase_game.ErrSettingsLocked),
		errors.Is(err, usecase_game.ErrNoPlayers):
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{Message: err.Error()})
	case errors.Is(err, usecase_game.ErrRoomsUnavailable):
		ctx.JSON(http.StatusServiceUnavailable, http_common.ErrorResponse{Message: "unavailable"})
	default:
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{Message: "internal error"})
	}
}
