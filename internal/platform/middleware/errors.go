package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/apperr"
)

const genericErrorMessage = "Something went wrong!"

// ErrorResponse is the JSON body of every failed request. Error is a string,
// or a list of strings for validation failures.
type ErrorResponse struct {
	Error   interface{} `json:"error"`
	Details string      `json:"details,omitempty"`
}

// ErrorHandler is the catch-all echo error handler. Application errors keep
// their status and message; anything unrecognised becomes a 500 whose cause is
// only included when exposeDetails is set.
func ErrorHandler(logger zerolog.Logger, exposeDetails bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := renderError(err, exposeDetails)
		if status >= http.StatusInternalServerError {
			logger.Error().
				Err(err).
				Str("request_id", fmt.Sprintf("%v", c.Get("request_id"))).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, body)
		}
		if writeErr != nil {
			logger.Error().Err(writeErr).Msg("write error response")
		}
	}
}

func renderError(err error, exposeDetails bool) (int, ErrorResponse) {
	if appErr, ok := apperr.As(err); ok {
		status := appErr.Status()
		if status >= http.StatusInternalServerError {
			return status, internalBody(appErr.Message, appErr.Err, exposeDetails)
		}
		if appErr.Message == "" && len(appErr.Messages) > 0 {
			return status, ErrorResponse{Error: appErr.Messages}
		}
		return status, ErrorResponse{Error: appErr.Message}
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Code >= http.StatusInternalServerError {
			return httpErr.Code, internalBody("", httpErr.Internal, exposeDetails)
		}
		msg := httpErr.Message
		if s, ok := msg.(string); ok {
			return httpErr.Code, ErrorResponse{Error: s}
		}
		if msg == nil {
			msg = http.StatusText(httpErr.Code)
		}
		return httpErr.Code, ErrorResponse{Error: fmt.Sprintf("%v", msg)}
	}

	return http.StatusInternalServerError, internalBody("", err, exposeDetails)
}

func internalBody(message string, cause error, exposeDetails bool) ErrorResponse {
	if message == "" {
		message = genericErrorMessage
	}
	resp := ErrorResponse{Error: message}
	if exposeDetails && cause != nil {
		resp.Details = cause.Error()
	}
	return resp
}
