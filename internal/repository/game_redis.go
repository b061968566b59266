package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-api/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-api/internal/entity"
)

type dbGame struct {
	client *redis.Client
}

func NewGameRepository(client *redis.Client) GameRepository {
	return &dbGame{
		client: client,
	}
}

func gameKey(id string) string {
	return "game:" + id
}

func (that *dbGame) Create(ctx context.Context, game *entity.Game) error {
	gameJSON, err := marshalGame(game)
	if err != nil {
		return err
	}

	created, err := that.client.SetNX(ctx, gameKey(game.ID()), gameJSON, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to set game: %w", err)
	}

	if !created {
		return fmt.Errorf("%w: id %s", apperror.ErrGameAlreadyExists, game.ID())
	}

	return nil
}

func (that *dbGame) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	response, err := that.client.Get(ctx, gameKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: id %s", apperror.ErrNotFound, id)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	record, err := unmarshalGame(response)
	if err != nil {
		return nil, err
	}

	return record.toEntity(), nil
}

// Update watches the game key, checks the stored version and writes inside MULTI/EXEC.
// A write by anyone else between WATCH and EXEC aborts the transaction.
func (that *dbGame) Update(ctx context.Context, game *entity.Game, expectedVersion string) error {
	gameJSON, err := marshalGame(game)
	if err != nil {
		return err
	}

	key := gameKey(game.ID())

	txf := func(tx *redis.Tx) error {
		stored, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("%w: id %s", apperror.ErrNotFound, game.ID())
		}

		if err != nil {
			return fmt.Errorf("failed to get game: %w", err)
		}

		current, err := unmarshalGame(stored)
		if err != nil {
			return err
		}

		if current.Version != expectedVersion {
			return fmt.Errorf("%w: stored version %s, expected %s",
				apperror.ErrVersionConflict, current.Version, expectedVersion)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, gameJSON, 0)
			return nil
		})

		return err
	}

	err = that.client.Watch(ctx, txf, key)
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("%w: concurrent write on game %s", apperror.ErrVersionConflict, game.ID())
	}

	if err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}

	return nil
}

func marshalGame(game *entity.Game) ([]byte, error) {
	record := newGameRecord(game)
	if err := record.checkCells(); err != nil {
		return nil, err
	}

	gameJSON, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("could not marshal game: %w", err)
	}

	return gameJSON, nil
}

func unmarshalGame(data []byte) (gameRecord, error) {
	var record gameRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return gameRecord{}, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return record, nil
}
