package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/rocketscienceinc/tictactoe-api/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-api/internal/entity"
)

type GameHandler interface {
	CreateGame(ctx echo.Context) error
	GetGame(ctx echo.Context) error
	SubmitMove(ctx echo.Context) error
}

type gameService interface {
	CreateGame(ctx context.Context, boardSize, winCondition int) (*entity.Game, error)
	GetGame(ctx context.Context, id string) (*entity.Game, error)
}

type gamePlayService interface {
	SubmitMove(ctx context.Context, gameID, expectedVersion string, player entity.Mark, row, column int) (*entity.Game, error)
}

type gameHandler struct {
	logger *slog.Logger

	games    gameService
	gameplay gamePlayService
}

func NewGameHandler(logger *slog.Logger, games gameService, gameplay gamePlayService) GameHandler {
	return &gameHandler{
		logger:   logger,
		games:    games,
		gameplay: gameplay,
	}
}

type createGameRequest struct {
	BoardSize    int `json:"boardSize"`
	WinCondition int `json:"winCondition"`
}

type createGameResponse struct {
	GameID string `json:"gameId"`
}

type submitMoveRequest struct {
	Player string `json:"player"`
	Row    *int   `json:"row"`
	Column *int   `json:"column"`
}

func (that *gameHandler) CreateGame(ctx echo.Context) error {
	var req createGameRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}

	game, err := that.games.CreateGame(ctx.Request().Context(), req.BoardSize, req.WinCondition)
	if err != nil {
		return err
	}

	setETag(ctx, game.Version())
	ctx.Response().Header().Set(echo.HeaderLocation, "/api/games/"+game.ID())

	return ctx.JSON(http.StatusCreated, createGameResponse{GameID: game.ID()})
}

func (that *gameHandler) GetGame(ctx echo.Context) error {
	game, err := that.games.GetGame(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	setETag(ctx, game.Version())

	return ctx.JSON(http.StatusOK, newSnapshot(game))
}

func (that *gameHandler) SubmitMove(ctx echo.Context) error {
	expectedVersion, err := parseIfMatch(ctx.Request().Header.Get("If-Match"))
	if err != nil {
		return err
	}

	var req submitMoveRequest
	if err = ctx.Bind(&req); err != nil {
		return err
	}

	if req.Row == nil || req.Column == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "row and column are required")
	}

	player, err := entity.ParseMark(req.Player)
	if err != nil {
		return err
	}

	game, err := that.gameplay.SubmitMove(
		ctx.Request().Context(), ctx.Param("id"), expectedVersion, player, *req.Row, *req.Column)
	if err != nil {
		return fmt.Errorf("failed to submit move: %w", err)
	}

	setETag(ctx, game.Version())

	return ctx.JSON(http.StatusOK, newSnapshot(game))
}

func setETag(ctx echo.Context, version string) {
	ctx.Response().Header().Set("ETag", `"`+version+`"`)
}

// parseIfMatch accepts a strong or weak entity tag, quoted or bare, holding a UUID version.
func parseIfMatch(header string) (string, error) {
	value := strings.TrimSpace(header)
	value = strings.TrimPrefix(value, "W/")
	value = strings.Trim(value, `"`)

	if value == "" {
		return "", apperror.ErrVersionRequired
	}

	version, err := uuid.Parse(value)
	if err != nil {
		return "", fmt.Errorf("%w: %q", apperror.ErrInvalidVersion, value)
	}

	return version.String(), nil
}
