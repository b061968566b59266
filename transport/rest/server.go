package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodySize = "4K"

type Timeouts struct {
	Read  time.Duration
	Write time.Duration
}

type Server struct {
	logger *slog.Logger
	echo   *echo.Echo
}

func New(logger *slog.Logger, timeouts Timeouts, games gameService, gameplay gamePlayService) *Server {
	log := logger.With("component", "http")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = timeouts.Read
	e.Server.WriteTimeout = timeouts.Write
	e.HTTPErrorHandler = newErrorHandler(log)

	e.Use(middleware.RequestID())
	e.Use(observe(log))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(maxBodySize))

	ping := NewPingHandler()
	e.GET("/ping", ping.Ping)
	e.GET("/health", ping.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	handler := NewGameHandler(log, games, gameplay)
	api := e.Group("/api/games")
	api.POST("", handler.CreateGame)
	api.GET("/:id", handler.GetGame)
	api.POST("/:id/moves", handler.SubmitMove)

	return &Server{
		logger: log,
		echo:   e,
	}
}

// Handler exposes the router, mostly for tests.
func (that *Server) Handler() http.Handler {
	return that.echo
}

// Start blocks until the server stops. A graceful Shutdown is not reported as an error.
func (that *Server) Start(port string) error {
	that.logger.Info("Starting HTTP server", "port", port)

	if err := that.echo.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) Shutdown(ctx context.Context) error {
	if err := that.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
