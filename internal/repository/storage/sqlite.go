package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rocketscienceinc/tictactoe-api/internal/repository/storage/migrations"

	// import the SQLite driver to register it with the database/sql package.
	_ "modernc.org/sqlite"
)

var ErrEmptyPath = errors.New("sqlite storage path is empty")

// writes take the lock at BEGIN so concurrent compare-and-swap updates queue on busy_timeout
// instead of failing on a lock upgrade.
const sqliteParams = "?_txlock=immediate" +
	"&_pragma=busy_timeout(5000)" +
	"&_pragma=journal_mode(WAL)" +
	"&_pragma=foreign_keys(1)" +
	"&_pragma=synchronous(NORMAL)"

type Storage struct {
	Connection *sql.DB
}

func NewSQLiteStorage(path string) (*Storage, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrEmptyPath
	}

	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("can't create database dir: %w", err)
	}

	conn, err := sql.Open("sqlite", path+sqliteParams)
	if err != nil {
		return nil, fmt.Errorf("can't open database: %w", err)
	}

	if err = conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("can't connect to database: %w", err)
	}

	return &Storage{Connection: conn}, nil
}

// Init applies the embedded schema migrations.
func (that *Storage) Init(ctx context.Context) error {
	if err := ApplyMigrations(ctx, that.Connection, migrations.FS); err != nil {
		return fmt.Errorf("can't apply migrations: %w", err)
	}

	return nil
}

func (that *Storage) Close() error {
	if err := that.Connection.Close(); err != nil {
		return fmt.Errorf("can't close database: %w", err)
	}

	return nil
}
