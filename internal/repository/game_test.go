package repository

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-api/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-api/internal/entity"
	"github.com/rocketscienceinc/tictactoe-api/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-api/testing/suite"
)

func noSwap() int { return 99 }

type repoFactory func(t *testing.T) (context.Context, GameRepository)

func memoryRepo(t *testing.T) (context.Context, GameRepository) {
	t.Helper()

	return context.Background(), NewMemoryGameRepository()
}

func sqliteRepo(t *testing.T) (context.Context, GameRepository) {
	t.Helper()

	ctx := context.Background()

	st, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "games.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.Init(ctx))

	return ctx, NewSQLiteGameRepository(st)
}

func redisRepo(t *testing.T) (context.Context, GameRepository) {
	t.Helper()

	ctx, st := suite.New(t)

	return ctx, NewGameRepository(st.Redis)
}

var repositories = map[string]repoFactory{
	"memory": memoryRepo,
	"sqlite": sqliteRepo,
	"redis":  redisRepo,
}

func newGame(t *testing.T) *entity.Game {
	t.Helper()

	game, err := entity.CreateNew(3, 3)
	require.NoError(t, err)

	return game
}

func TestGameRepository_CreateAndGet(t *testing.T) {
	for name, factory := range repositories {
		t.Run(name, func(t *testing.T) {
			ctx, repo := factory(t)

			// Given: a freshly created game
			game := newGame(t)

			// When: it is stored and read back
			require.NoError(t, repo.Create(ctx, game))
			stored, err := repo.GetByID(ctx, game.ID())

			// Then: the snapshot matches
			require.NoError(t, err)
			assert.Equal(t, game.ID(), stored.ID())
			assert.Equal(t, 3, stored.BoardSize())
			assert.Equal(t, 3, stored.WinCondition())
			assert.Equal(t, entity.StatusInProgress, stored.Status())
			assert.Equal(t, entity.PlayerX, stored.CurrentTurn())
			assert.Equal(t, entity.EmptyVersion, stored.Version())
			assert.Empty(t, stored.Moves())
		})
	}
}

func TestGameRepository_CreateDuplicate(t *testing.T) {
	for name, factory := range repositories {
		t.Run(name, func(t *testing.T) {
			ctx, repo := factory(t)

			game := newGame(t)
			require.NoError(t, repo.Create(ctx, game))

			// When: the same id is created twice
			err := repo.Create(ctx, game)

			// Then: the store refuses it
			require.ErrorIs(t, err, apperror.ErrGameAlreadyExists)
		})
	}
}

func TestGameRepository_GetByID_NotFound(t *testing.T) {
	for name, factory := range repositories {
		t.Run(name, func(t *testing.T) {
			ctx, repo := factory(t)

			// When: an unknown id is requested
			game, err := repo.GetByID(ctx, "9999999")

			// Then: ErrNotFound is returned
			require.ErrorIs(t, err, apperror.ErrNotFound)
			assert.Nil(t, game)
		})
	}
}

func TestGameRepository_Update(t *testing.T) {
	for name, factory := range repositories {
		t.Run(name, func(t *testing.T) {
			t.Run("matching version", func(t *testing.T) {
				ctx, repo := factory(t)

				game := newGame(t)
				require.NoError(t, repo.Create(ctx, game))

				// Given: two moves applied on a loaded copy
				loaded, err := repo.GetByID(ctx, game.ID())
				require.NoError(t, err)
				expected := loaded.Version()
				require.NoError(t, loaded.ApplyMove(entity.PlayerX, 1, 1, noSwap))
				require.NoError(t, loaded.ApplyMove(entity.PlayerO, 0, 2, noSwap))

				// When: it is written with the version it was loaded at
				require.NoError(t, repo.Update(ctx, loaded, expected))

				// Then: the new snapshot is stored with its moves and board
				stored, err := repo.GetByID(ctx, game.ID())
				require.NoError(t, err)
				assert.Equal(t, loaded.Version(), stored.Version())
				assert.Equal(t, entity.PlayerX, stored.CurrentTurn())
				require.Len(t, stored.Moves(), 2)
				assert.Equal(t, entity.PlayerX, stored.Board()[1][1])
				assert.Equal(t, entity.PlayerO, stored.Board()[0][2])

				last, ok := stored.LastMove()
				require.True(t, ok)
				assert.Equal(t, 2, last.MoveNumber)
			})

			t.Run("stale version", func(t *testing.T) {
				ctx, repo := factory(t)

				game := newGame(t)
				require.NoError(t, repo.Create(ctx, game))

				first, err := repo.GetByID(ctx, game.ID())
				require.NoError(t, err)
				second, err := repo.GetByID(ctx, game.ID())
				require.NoError(t, err)

				require.NoError(t, first.ApplyMove(entity.PlayerX, 0, 0, noSwap))
				require.NoError(t, repo.Update(ctx, first, entity.EmptyVersion))

				// When: a second writer commits against the old version
				require.NoError(t, second.ApplyMove(entity.PlayerX, 2, 2, noSwap))
				err = repo.Update(ctx, second, entity.EmptyVersion)

				// Then: it loses and the first write is untouched
				require.ErrorIs(t, err, apperror.ErrVersionConflict)

				stored, err := repo.GetByID(ctx, game.ID())
				require.NoError(t, err)
				assert.Equal(t, first.Version(), stored.Version())
				assert.Equal(t, entity.PlayerX, stored.Board()[0][0])
				assert.Equal(t, entity.MarkNone, stored.Board()[2][2])
			})

			t.Run("missing game", func(t *testing.T) {
				ctx, repo := factory(t)

				game := newGame(t)
				require.NoError(t, game.ApplyMove(entity.PlayerX, 0, 0, noSwap))

				err := repo.Update(ctx, game, entity.EmptyVersion)

				require.ErrorIs(t, err, apperror.ErrNotFound)
			})
		})
	}
}

func TestGameRepository_Update_DuplicateCell(t *testing.T) {
	for name, factory := range repositories {
		t.Run(name, func(t *testing.T) {
			ctx, repo := factory(t)

			game := newGame(t)
			require.NoError(t, repo.Create(ctx, game))

			// Given: a snapshot whose history holds the same cell twice
			state := game.State()
			state.Version = "broken"
			state.Moves = []entity.Move{
				{GameID: game.ID(), Player: entity.PlayerX, Row: 0, Column: 0, MoveNumber: 1},
				{GameID: game.ID(), Player: entity.PlayerO, Row: 0, Column: 0, MoveNumber: 2},
			}
			broken := entity.Rehydrate(state)

			// When: it is written
			err := repo.Update(ctx, broken, entity.EmptyVersion)

			// Then: the store rejects it and keeps the old snapshot
			require.ErrorIs(t, err, apperror.ErrCellOccupied)

			stored, err := repo.GetByID(ctx, game.ID())
			require.NoError(t, err)
			assert.Equal(t, entity.EmptyVersion, stored.Version())
		})
	}
}

func TestGameRepository_Update_Concurrent(t *testing.T) {
	const writers = 8

	for name, factory := range repositories {
		t.Run(name, func(t *testing.T) {
			ctx, repo := factory(t)

			game := newGame(t)
			require.NoError(t, repo.Create(ctx, game))

			// Given: several writers holding the same loaded version
			copies := make([]*entity.Game, writers)
			for i := range copies {
				loaded, err := repo.GetByID(ctx, game.ID())
				require.NoError(t, err)
				require.NoError(t, loaded.ApplyMove(entity.PlayerX, i/3, i%3, noSwap))
				copies[i] = loaded
			}

			// When: all of them commit at once
			var (
				wg        sync.WaitGroup
				applied   atomic.Int32
				conflicts atomic.Int32
			)

			for _, candidate := range copies {
				wg.Add(1)
				go func(candidate *entity.Game) {
					defer wg.Done()

					err := repo.Update(ctx, candidate, entity.EmptyVersion)
					switch {
					case err == nil:
						applied.Add(1)
					case apperror.KindOf(err) == apperror.KindConflict:
						conflicts.Add(1)
					}
				}(candidate)
			}
			wg.Wait()

			// Then: exactly one wins
			assert.Equal(t, int32(1), applied.Load())
			assert.Equal(t, int32(writers-1), conflicts.Load())

			stored, err := repo.GetByID(ctx, game.ID())
			require.NoError(t, err)
			assert.Len(t, stored.Moves(), 1)
		})
	}
}
