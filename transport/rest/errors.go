package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rocketscienceinc/tictactoe-api/internal/apperror"
)

const mimeProblemJSON = "application/problem+json"

// problem is an RFC 7807 problem document.
type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func newErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		if ctx.Response().Committed {
			return
		}

		status, detail := statusOf(err)
		if status >= http.StatusInternalServerError {
			logger.Error("request failed", "path", ctx.Request().URL.Path, "error", err)
		}

		body, marshalErr := json.Marshal(problem{
			Type:   "about:blank",
			Title:  http.StatusText(status),
			Status: status,
			Detail: detail,
		})
		if marshalErr != nil {
			logger.Error("failed to marshal problem", "error", marshalErr)
			_ = ctx.NoContent(http.StatusInternalServerError)
			return
		}

		if ctx.Request().Method == http.MethodHead {
			_ = ctx.NoContent(status)
			return
		}

		if writeErr := ctx.Blob(status, mimeProblemJSON, body); writeErr != nil {
			logger.Error("failed to write problem", "error", writeErr)
		}
	}
}

// statusOf maps err to a status and the detail safe to show the caller.
func statusOf(err error) (int, string) {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		if message, ok := httpErr.Message.(string); ok {
			return httpErr.Code, message
		}

		return httpErr.Code, http.StatusText(httpErr.Code)
	}

	if errors.Is(err, apperror.ErrVersionRequired) {
		return http.StatusPreconditionRequired, apperror.ErrVersionRequired.Error()
	}

	switch apperror.KindOf(err) {
	case apperror.KindClient:
		return http.StatusBadRequest, err.Error()
	case apperror.KindNotFound:
		return http.StatusNotFound, err.Error()
	case apperror.KindConflict:
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
