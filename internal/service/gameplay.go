package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/rocketscienceinc/tictactoe-api/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-api/internal/entity"
	"github.com/rocketscienceinc/tictactoe-api/internal/metrics"
)

type GamePlayService interface {
	// SubmitMove applies a move against the game version the caller last saw. Resubmitting the move
	// that produced the current state returns that state again without writing anything.
	SubmitMove(ctx context.Context, gameID, expectedVersion string, player entity.Mark, row, column int) (*entity.Game, error)
}

type gamePlayService struct {
	logger *slog.Logger

	gameRepo gameRepo
	random   entity.RandomSource
}

// NewGamePlayService builds the move service. A nil random uses math/rand.
func NewGamePlayService(logger *slog.Logger, gameRepo gameRepo, random entity.RandomSource) GamePlayService {
	if random == nil {
		random = defaultRandom
	}

	return &gamePlayService{
		logger:   logger.With("component", "gameplay_service"),
		gameRepo: gameRepo,
		random:   random,
	}
}

func defaultRandom() int {
	return rand.IntN(100) //nolint:gosec // game chance, not security
}

func (that *gamePlayService) SubmitMove(
	ctx context.Context, gameID, expectedVersion string, player entity.Mark, row, column int,
) (*entity.Game, error) {
	log := that.logger.With("method", "SubmitMove", "gameID", gameID, "player", player.String())

	game, err := that.submitMove(ctx, log, gameID, expectedVersion, player, row, column)
	if err != nil {
		metrics.RecordMove(moveResult(err))
		return nil, err
	}

	return game, nil
}

func (that *gamePlayService) submitMove(
	ctx context.Context, log *slog.Logger, gameID, expectedVersion string, player entity.Mark, row, column int,
) (*entity.Game, error) {
	if strings.TrimSpace(expectedVersion) == "" {
		return nil, apperror.ErrVersionRequired
	}

	if !player.IsValid() {
		return nil, fmt.Errorf("%w: got %q", apperror.ErrInvalidPlayer, player)
	}

	game, err := that.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	if isResubmission(game, player, row, column) {
		log.Info("duplicate move absorbed", "row", row, "column", column, "version", game.Version())
		metrics.RecordMove(metrics.MoveDuplicate)

		return game, nil
	}

	loadedVersion := game.Version()
	if loadedVersion != expectedVersion {
		log.Warn("stale version", "expected", expectedVersion, "current", loadedVersion)

		return nil, fmt.Errorf("%w: current version %s", apperror.ErrVersionConflict, loadedVersion)
	}

	if err = game.ApplyMove(player, row, column, that.random); err != nil {
		return nil, fmt.Errorf("failed to apply move: %w", err)
	}

	if err = that.gameRepo.Update(ctx, game, loadedVersion); err != nil {
		if errors.Is(err, apperror.ErrVersionConflict) {
			return that.resolveLostWrite(ctx, log, gameID, loadedVersion, player, row, column, err)
		}

		return nil, fmt.Errorf("failed to save game: %w", err)
	}

	last, _ := game.LastMove()
	log.Info("move applied",
		"moveNumber", last.MoveNumber, "placed", last.Player.String(), "status", game.Status(), "version", game.Version())
	metrics.RecordMove(metrics.MoveApplied)

	return game, nil
}

// resolveLostWrite runs after a lost compare-and-swap. The winner may have been an identical request,
// in which case the stored state already is this move's result.
func (that *gamePlayService) resolveLostWrite(
	ctx context.Context, log *slog.Logger, gameID, loadedVersion string, player entity.Mark, row, column int, cause error,
) (*entity.Game, error) {
	current, err := that.gameRepo.GetByID(ctx, gameID)
	if err == nil && isResubmission(current, player, row, column) {
		log.Info("identical concurrent move absorbed", "row", row, "column", column, "version", current.Version())
		metrics.RecordMove(metrics.MoveDuplicate)

		return current, nil
	}

	log.Warn("lost concurrent write", "expected", loadedVersion)

	return nil, fmt.Errorf("failed to save game: %w", cause)
}

// isResubmission reports whether the move on (row, column) by player is the one that produced the
// current state. The turn check keeps a different requester on the same cell from being absorbed.
func isResubmission(game *entity.Game, player entity.Mark, row, column int) bool {
	last, ok := game.LastMove()
	if !ok {
		return false
	}

	return last.SameCell(row, column) && game.CurrentTurn() == player.Opponent()
}

func moveResult(err error) string {
	switch apperror.KindOf(err) {
	case apperror.KindConflict:
		return metrics.MoveConflict
	case apperror.KindClient, apperror.KindNotFound:
		return metrics.MoveRejected
	default:
		return metrics.MoveError
	}
}
