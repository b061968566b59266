package rest

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rocketscienceinc/tictactoe-api/internal/metrics"
)

// observe logs and times every request. Errors are rendered here so the final status is known.
func observe(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			started := time.Now()

			if err := next(ctx); err != nil {
				ctx.Error(err)
			}

			req := ctx.Request()
			res := ctx.Response()

			route := ctx.Path()
			if route == "" {
				route = "unmatched"
			}

			metrics.RecordHTTPRequest(req.Method, route, res.Status, started)
			logger.Info("request",
				"method", req.Method,
				"path", req.URL.Path,
				"status", res.Status,
				"latency", time.Since(started).String(),
				"requestID", res.Header().Get(echo.HeaderXRequestID),
			)

			return nil
		}
	}
}
