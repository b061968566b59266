package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/rocketscienceinc/tictactoe-api/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-api/internal/entity"
	"github.com/rocketscienceinc/tictactoe-api/internal/repository/storage"
)

type sqliteGame struct {
	db *sql.DB
}

func NewSQLiteGameRepository(st *storage.Storage) GameRepository {
	return &sqliteGame{
		db: st.Connection,
	}
}

func (that *sqliteGame) Create(ctx context.Context, game *entity.Game) error {
	record := newGameRecord(game)
	if err := record.checkCells(); err != nil {
		return err
	}

	tx, err := that.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO games (id, board_size, win_condition, status, current_turn, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.BoardSize, record.WinCondition, record.Status, record.CurrentTurn,
		record.Version, toMillis(record.CreatedAt), toMillis(record.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: id %s", apperror.ErrGameAlreadyExists, record.ID)
	}

	if err != nil {
		return fmt.Errorf("failed to insert game: %w", err)
	}

	if err = insertMoves(ctx, tx, record.ID, record.Moves); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit game: %w", err)
	}

	return nil
}

func (that *sqliteGame) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	var (
		record               gameRecord
		createdAt, updatedAt int64
	)

	err := that.db.QueryRowContext(ctx, `
		SELECT id, board_size, win_condition, status, current_turn, version, created_at, updated_at
		FROM games WHERE id = ?`, id,
	).Scan(&record.ID, &record.BoardSize, &record.WinCondition, &record.Status, &record.CurrentTurn,
		&record.Version, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %s", apperror.ErrNotFound, id)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)

	record.Moves, err = that.listMoves(ctx, id)
	if err != nil {
		return nil, err
	}

	return record.toEntity(), nil
}

// Update rewrites the game row only while its version still equals expectedVersion,
// then appends the moves the stored history does not have yet.
func (that *sqliteGame) Update(ctx context.Context, game *entity.Game, expectedVersion string) error {
	record := newGameRecord(game)
	if err := record.checkCells(); err != nil {
		return err
	}

	tx, err := that.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		UPDATE games SET status = ?, current_turn = ?, version = ?, updated_at = ?
		WHERE id = ? AND version = ?`,
		record.Status, record.CurrentTurn, record.Version, toMillis(record.UpdatedAt),
		record.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return that.missOrConflict(ctx, tx, record.ID, expectedVersion)
	}

	var stored int
	if err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(move_number), 0) FROM moves WHERE game_id = ?`, record.ID,
	).Scan(&stored); err != nil {
		return fmt.Errorf("failed to read last move number: %w", err)
	}

	fresh := make([]moveRecord, 0, 1)
	for _, move := range record.Moves {
		if move.MoveNumber > stored {
			fresh = append(fresh, move)
		}
	}

	if err = insertMoves(ctx, tx, record.ID, fresh); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit game: %w", err)
	}

	return nil
}

func (that *sqliteGame) missOrConflict(ctx context.Context, tx *sql.Tx, id, expectedVersion string) error {
	var version string

	err := tx.QueryRowContext(ctx, `SELECT version FROM games WHERE id = ?`, id).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: id %s", apperror.ErrNotFound, id)
	}

	if err != nil {
		return fmt.Errorf("failed to get game version: %w", err)
	}

	return fmt.Errorf("%w: stored version %s, expected %s", apperror.ErrVersionConflict, version, expectedVersion)
}

func (that *sqliteGame) listMoves(ctx context.Context, gameID string) ([]moveRecord, error) {
	rows, err := that.db.QueryContext(ctx, `
		SELECT player, row_index, column_index, move_number, created_at
		FROM moves WHERE game_id = ? ORDER BY move_number`, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list moves: %w", err)
	}
	defer rows.Close()

	var moves []moveRecord
	for rows.Next() {
		move := moveRecord{GameID: gameID}

		var createdAt int64
		if err = rows.Scan(&move.Player, &move.Row, &move.Column, &move.MoveNumber, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan move: %w", err)
		}

		move.CreatedAt = fromMillis(createdAt)
		moves = append(moves, move)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate moves: %w", err)
	}

	return moves, nil
}

func insertMoves(ctx context.Context, tx *sql.Tx, gameID string, moves []moveRecord) error {
	for _, move := range moves {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO moves (game_id, player, row_index, column_index, move_number, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			gameID, move.Player, move.Row, move.Column, move.MoveNumber, toMillis(move.CreatedAt),
		)

		switch {
		case err == nil:
			continue
		case isUniqueViolation(err) && strings.Contains(err.Error(), "move_number"):
			return fmt.Errorf("%w: move %d already stored for game %s",
				apperror.ErrVersionConflict, move.MoveNumber, gameID)
		case isUniqueViolation(err):
			return fmt.Errorf("%w: (%d, %d)", apperror.ErrCellOccupied, move.Row, move.Column)
		default:
			return fmt.Errorf("failed to insert move: %w", err)
		}
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}

	switch sqliteErr.Code() {
	case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}

	return false
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
