package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/farmfeed/backend/internal/services"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Response is the envelope every endpoint answers with
type Response struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func respond(c echo.Context, code int, message string, data interface{}) error {
	return c.JSON(code, Response{Status: true, Message: message, Data: data})
}

const (
	internalErrorMessage = "Something went wrong, please try again later"
	identityTakenMessage = "Username, email, phone number or IC number already registered"
)

// serviceError maps domain errors to HTTP errors. Anything unrecognized
// becomes a 500 whose cause is logged by HTTPErrorHandler but not returned.
func serviceError(err error) error {
	switch {
	case errors.Is(err, services.ErrPostNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	case errors.Is(err, services.ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	case errors.Is(err, services.ErrUserExists):
		return echo.NewHTTPError(http.StatusConflict, identityTakenMessage)
	case errors.Is(err, services.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusForbidden, "You are not allowed to modify this post")
	case errors.Is(err, services.ErrModerationUnavailable):
		return echo.NewHTTPError(http.StatusInternalServerError, "Moderation service unavailable, please try again later").SetInternal(err)
	case errors.Is(err, services.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, internalErrorMessage).SetInternal(err)
	}
}

// HTTPErrorHandler renders errors in the response envelope
func HTTPErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := internalErrorMessage

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			} else if code != http.StatusInternalServerError {
				message = http.StatusText(code)
			}
		}

		if code >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Int("status", code),
				zap.Error(err))
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(code)
		} else {
			writeErr = c.JSON(code, Response{Status: false, Message: message, Data: nil})
		}
		if writeErr != nil {
			logger.Error("failed to write error response", zap.Error(writeErr))
		}
	}
}
