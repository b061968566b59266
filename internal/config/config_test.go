package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestMustLoad(t *testing.T) {
	t.Run("Fills defaults for missing keys", func(t *testing.T) {
		// Given: a config file that only sets the storage driver
		path := writeConfig(t, "storage:\n  driver: memory\n")

		// When: it is loaded
		conf := MustLoad(path)

		// Then: everything else takes its default
		assert.Equal(t, DriverMemory, conf.Storage.Driver)
		assert.Equal(t, "info", conf.LogLevel)
		assert.Equal(t, "9090", conf.HTTPPort)
		assert.Equal(t, 3, conf.Game.BoardSize)
		assert.Equal(t, 3, conf.Game.WinCondition)
		assert.Equal(t, 25, conf.Game.MaxBoardSize)
		assert.Equal(t, 10*time.Second, conf.HTTP.ShutdownTimeout)
		assert.Equal(t, "localhost:6379", conf.Redis.GetRedisAddr())
	})

	t.Run("Environment overrides the file", func(t *testing.T) {
		path := writeConfig(t, "game:\n  board-size: 4\n")
		t.Setenv("GAME_BOARD_SIZE", "7")

		conf := MustLoad(path)

		assert.Equal(t, 7, conf.Game.BoardSize)
	})

	t.Run("Panics on a missing file", func(t *testing.T) {
		assert.Panics(t, func() {
			MustLoad(filepath.Join(t.TempDir(), "absent.yml"))
		})
	})
}
