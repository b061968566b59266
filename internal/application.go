package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/tictactoe-api/internal/config"
	"github.com/rocketscienceinc/tictactoe-api/internal/repository"
	"github.com/rocketscienceinc/tictactoe-api/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-api/internal/service"
	"github.com/rocketscienceinc/tictactoe-api/transport/rest"
)

var (
	ErrAddrNotFound   = errors.New("redis address string is empty")
	ErrUnknownStorage = errors.New("unknown storage driver")
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	gameRepo, closer, err := openStorage(ctx, conf)
	if err != nil {
		return err
	}

	defer func() {
		if err = closer.Close(); err != nil {
			log.Error("could not close storage", "error", err)
		}
	}()

	log.Info("storage ready", "driver", conf.Storage.Driver)

	games := service.NewGameService(logger, gameRepo, service.Defaults{
		BoardSize:    conf.Game.BoardSize,
		WinCondition: conf.Game.WinCondition,
		MaxBoardSize: conf.Game.MaxBoardSize,
	})
	gameplay := service.NewGamePlayService(logger, gameRepo, nil)

	server := rest.New(logger, rest.Timeouts{
		Read:  conf.HTTP.ReadTimeout,
		Write: conf.HTTP.WriteTimeout,
	}, games, gameplay)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		if httpErr := server.Start(conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
		log.Info("Received signal, shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), conf.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err = server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info("HTTP server stopped")

	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func openStorage(ctx context.Context, conf *config.Config) (repository.GameRepository, io.Closer, error) {
	switch conf.Storage.Driver {
	case config.DriverRedis:
		redisAddrString := conf.Redis.GetRedisAddr()
		if conf.Redis.Host == "" {
			return nil, nil, ErrAddrNotFound
		}

		redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}

		return repository.NewGameRepository(redisStorage.Connection), redisStorage, nil

	case config.DriverSQLite:
		sqliteStorage, err := storage.NewSQLiteStorage(conf.SQLiteStoragePath)
		if err != nil {
			return nil, nil, fmt.Errorf("could not open sqlite storage: %w", err)
		}

		if err = sqliteStorage.Init(ctx); err != nil {
			_ = sqliteStorage.Close()
			return nil, nil, fmt.Errorf("could not init sqlite storage: %w", err)
		}

		return repository.NewSQLiteGameRepository(sqliteStorage), sqliteStorage, nil

	case config.DriverMemory:
		return repository.NewMemoryGameRepository(), nopCloser{}, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownStorage, conf.Storage.Driver)
	}
}
