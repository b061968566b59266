package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/rocketscienceinc/tictactoe-api/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-api/internal/entity"
)

// memoryGame keeps records by value so no caller ever shares state with the store.
// The mutex only makes each single write atomic, the way a real store would.
type memoryGame struct {
	mu    sync.Mutex
	games map[string]gameRecord
}

func NewMemoryGameRepository() GameRepository {
	return &memoryGame{
		games: make(map[string]gameRecord),
	}
}

func (that *memoryGame) Create(ctx context.Context, game *entity.Game) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	record := newGameRecord(game)
	if err := record.checkCells(); err != nil {
		return err
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.games[record.ID]; ok {
		return fmt.Errorf("%w: id %s", apperror.ErrGameAlreadyExists, record.ID)
	}

	that.games[record.ID] = record

	return nil
}

func (that *memoryGame) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	that.mu.Lock()
	record, ok := that.games[id]
	that.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: id %s", apperror.ErrNotFound, id)
	}

	return record.toEntity(), nil
}

func (that *memoryGame) Update(ctx context.Context, game *entity.Game, expectedVersion string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	record := newGameRecord(game)
	if err := record.checkCells(); err != nil {
		return err
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	current, ok := that.games[record.ID]
	if !ok {
		return fmt.Errorf("%w: id %s", apperror.ErrNotFound, record.ID)
	}

	if current.Version != expectedVersion {
		return fmt.Errorf("%w: stored version %s, expected %s",
			apperror.ErrVersionConflict, current.Version, expectedVersion)
	}

	that.games[record.ID] = record

	return nil
}
