package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	app "github.com/rocketscienceinc/tictactoe-api/internal"
	"github.com/rocketscienceinc/tictactoe-api/internal/config"
)

const defaultConfigPath = "config.yml"

func main() {
	conf := config.MustLoad(configPath())
	logger := newLogger(conf.LogLevel)

	if err := app.RunApp(logger, conf); err != nil {
		logger.Error("app run failed", "error", err)
		os.Exit(1)
	}
}

// configPath prefers CONFIG_PATH and falls back to config.yml in the working directory.
func configPath() string {
	if path := strings.TrimSpace(os.Getenv("CONFIG_PATH")); path != "" {
		return path
	}

	return defaultConfigPath
}

// newLogger builds the JSON logger. An unknown level is reported once and treated as info.
func newLogger(levelName string) *slog.Logger {
	var level slog.Level

	levelErr := level.UnmarshalText([]byte(levelName))
	if levelErr != nil {
		level = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	if levelErr != nil {
		logger.Warn("unknown log level, using info", "level", levelName, "error", fmt.Sprint(levelErr))
	}

	return logger
}
