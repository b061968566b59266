package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/rocketscienceinc/tictactoe-api/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-api/internal/entity"
)

// GameRepository stores whole game snapshots. Update is a compare-and-swap on the version token:
// it writes only when the stored version still equals expectedVersion.
type GameRepository interface {
	Create(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	Update(ctx context.Context, game *entity.Game, expectedVersion string) error
}

type gameRecord struct {
	ID           string       `json:"id"`
	BoardSize    int          `json:"board_size"`
	WinCondition int          `json:"win_condition"`
	Status       string       `json:"status"`
	CurrentTurn  string       `json:"current_turn"`
	Version      string       `json:"version"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	Moves        []moveRecord `json:"moves"`
}

type moveRecord struct {
	GameID     string    `json:"game_id"`
	Player     string    `json:"player"`
	Row        int       `json:"row"`
	Column     int       `json:"column"`
	MoveNumber int       `json:"move_number"`
	CreatedAt  time.Time `json:"created_at"`
}

func newGameRecord(game *entity.Game) gameRecord {
	state := game.State()

	moves := make([]moveRecord, 0, len(state.Moves))
	for _, move := range state.Moves {
		moves = append(moves, moveRecord{
			GameID:     move.GameID,
			Player:     move.Player.String(),
			Row:        move.Row,
			Column:     move.Column,
			MoveNumber: move.MoveNumber,
			CreatedAt:  move.CreatedAt,
		})
	}

	return gameRecord{
		ID:           state.ID,
		BoardSize:    state.BoardSize,
		WinCondition: state.WinCondition,
		Status:       string(state.Status),
		CurrentTurn:  state.CurrentTurn.String(),
		Version:      state.Version,
		CreatedAt:    state.CreatedAt,
		UpdatedAt:    state.UpdatedAt,
		Moves:        moves,
	}
}

func (that gameRecord) toEntity() *entity.Game {
	moves := make([]entity.Move, 0, len(that.Moves))
	for _, move := range that.Moves {
		moves = append(moves, entity.Move{
			GameID:     move.GameID,
			Player:     entity.Mark(move.Player),
			Row:        move.Row,
			Column:     move.Column,
			MoveNumber: move.MoveNumber,
			CreatedAt:  move.CreatedAt,
		})
	}

	return entity.Rehydrate(entity.GameState{
		ID:           that.ID,
		BoardSize:    that.BoardSize,
		WinCondition: that.WinCondition,
		Status:       entity.Status(that.Status),
		CurrentTurn:  entity.Mark(that.CurrentTurn),
		Version:      that.Version,
		CreatedAt:    that.CreatedAt,
		UpdatedAt:    that.UpdatedAt,
		Moves:        moves,
	})
}

type cell struct {
	row, column int
}

// checkCells rejects a snapshot with two moves on one cell, the same rule the SQL stores enforce
// with a unique index.
func (that gameRecord) checkCells() error {
	seen := make(map[cell]struct{}, len(that.Moves))

	for _, move := range that.Moves {
		key := cell{move.Row, move.Column}
		if _, ok := seen[key]; ok {
			return fmt.Errorf("%w: game %s has two moves on (%d, %d)",
				apperror.ErrCellOccupied, that.ID, move.Row, move.Column)
		}
		seen[key] = struct{}{}
	}

	return nil
}
