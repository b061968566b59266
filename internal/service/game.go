package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-api/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-api/internal/entity"
	"github.com/rocketscienceinc/tictactoe-api/internal/metrics"
)

type GameService interface {
	// CreateGame starts a new game. A zero boardSize or winCondition falls back to the configured default.
	CreateGame(ctx context.Context, boardSize, winCondition int) (*entity.Game, error)
	GetGame(ctx context.Context, id string) (*entity.Game, error)
}

type gameRepo interface {
	Create(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	Update(ctx context.Context, game *entity.Game, expectedVersion string) error
}

const defaultMaxBoardSize = 25

// Defaults holds the board settings a new game gets when the caller leaves them out.
// MaxBoardSize caps what a caller may ask for; zero means defaultMaxBoardSize.
type Defaults struct {
	BoardSize    int
	WinCondition int
	MaxBoardSize int
}

type gameService struct {
	logger   *slog.Logger
	gameRepo gameRepo
	defaults Defaults
}

func NewGameService(logger *slog.Logger, gameRepo gameRepo, defaults Defaults) GameService {
	if defaults.MaxBoardSize <= 0 {
		defaults.MaxBoardSize = defaultMaxBoardSize
	}

	return &gameService{
		logger:   logger.With("component", "game_service"),
		gameRepo: gameRepo,
		defaults: defaults,
	}
}

func (that *gameService) CreateGame(ctx context.Context, boardSize, winCondition int) (*entity.Game, error) {
	if boardSize == 0 {
		boardSize = that.defaults.BoardSize
	}

	if winCondition == 0 {
		winCondition = min(that.defaults.WinCondition, boardSize)
	}

	if boardSize > that.defaults.MaxBoardSize {
		return nil, fmt.Errorf("%w: board size must be at most %d, got %d",
			apperror.ErrInvalidConfiguration, that.defaults.MaxBoardSize, boardSize)
	}

	game, err := entity.CreateNew(boardSize, winCondition)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	if err = that.gameRepo.Create(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to save game to storage: %w", err)
	}

	metrics.RecordGameCreated()
	that.logger.Info("game created",
		"gameID", game.ID(), "boardSize", game.BoardSize(), "winCondition", game.WinCondition())

	return game, nil
}

func (that *gameService) GetGame(ctx context.Context, id string) (*entity.Game, error) {
	game, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve game from storage: %w", err)
	}

	return game, nil
}
