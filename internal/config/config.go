package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Storage drivers.
const (
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

type Config struct {
	LogLevel          string  `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort          string  `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	HTTP              HTTP    `yaml:"http"`
	Storage           Storage `yaml:"storage"`
	Redis             Redis   `yaml:"redis"`
	SQLiteStoragePath string  `yaml:"sqlite-storage-path" env:"SQLITE_STORAGE_PATH" env-default:"./data/tictactoe.db"`
	Game              Game    `yaml:"game"`
}

type HTTP struct {
	ReadTimeout     time.Duration `yaml:"read-timeout" env:"HTTP_READ_TIMEOUT" env-default:"5s"`
	WriteTimeout    time.Duration `yaml:"write-timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown-timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"redis"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

// Game holds the board settings used when a create request leaves them out.
type Game struct {
	BoardSize    int `yaml:"board-size" env:"GAME_BOARD_SIZE" env-default:"3"`
	WinCondition int `yaml:"win-condition" env:"GAME_WIN_CONDITION" env-default:"3"`
	MaxBoardSize int `yaml:"max-board-size" env:"GAME_MAX_BOARD_SIZE" env-default:"25"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
