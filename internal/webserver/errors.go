package webserver

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/talkincode/toughledger/internal/apperr"
	"go.uber.org/zap"
)

// ErrorBody is the JSON shape of every failed response.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details"`
	Stack   string      `json:"stack,omitempty"`
}

// StatusFor maps a domain error kind to its HTTP status.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.ValidationFailed:
		return http.StatusBadRequest
	case apperr.Unauthorized:
		return http.StatusUnauthorized
	case apperr.Forbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// kindForStatus classifies transport errors raised by echo itself.
func kindForStatus(status int) apperr.Kind {
	switch status {
	case http.StatusNotFound:
		return apperr.NotFound
	case http.StatusBadRequest:
		return apperr.ValidationFailed
	case http.StatusUnauthorized:
		return apperr.Unauthorized
	case http.StatusForbidden:
		return apperr.Forbidden
	default:
		return 0
	}
}

// handleError is the single translation point from errors to responses.
func (s *Server) handleError(err error, c echo.Context) {
	status, body := s.translate(err, c)

	fields := []zap.Field{
		zap.String("method", c.Request().Method),
		zap.String("uri", c.Request().RequestURI),
		zap.Int("status", status),
		zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		zap.String("code", body.Code),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", fields...)
	} else {
		s.logger.Warn("request rejected", fields...)
	}

	if c.Response().Committed {
		return
	}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		s.logger.Error("failed to write error response", zap.Error(err))
	}
}

func (s *Server) translate(err error, c echo.Context) (int, ErrorBody) {
	production := s.config.IsProduction()

	if appErr, ok := apperr.As(err); ok {
		body := ErrorBody{
			Code:    appErr.Kind.Code(),
			Message: appErr.Message,
			Details: detailsOrEmpty(appErr.Details),
		}
		if !production {
			body.Stack = appErr.StackTrace()
		}
		return StatusFor(appErr.Kind), body
	}

	if he, ok := err.(*echo.HTTPError); ok {
		if he.Internal != nil {
			if appErr, ok := apperr.As(he.Internal); ok {
				return s.translate(appErr, c)
			}
		}
		if he.Code == http.StatusNotFound {
			return http.StatusNotFound, ErrorBody{
				Code:    apperr.NotFound.Code(),
				Message: fmt.Sprintf("Unknown resource: %s", c.Request().URL.String()),
				Details: map[string]interface{}{},
			}
		}
		if kind := kindForStatus(he.Code); kind != 0 {
			return he.Code, ErrorBody{
				Code:    kind.Code(),
				Message: fmt.Sprint(he.Message),
				Details: map[string]interface{}{},
			}
		}
		if he.Code < http.StatusInternalServerError {
			return he.Code, ErrorBody{
				Code:    statusCode(he.Code),
				Message: fmt.Sprint(he.Message),
				Details: map[string]interface{}{},
			}
		}
	}

	body := ErrorBody{
		Code:    "INTERNAL_SERVER_ERROR",
		Message: "Internal server error",
		Details: map[string]interface{}{},
	}
	if !production {
		body.Message = err.Error()
		body.Stack = fmt.Sprintf("%+v", err)
	}
	return http.StatusInternalServerError, body
}

// statusCode turns 405 into METHOD_NOT_ALLOWED.
func statusCode(status int) string {
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}

func detailsOrEmpty(details interface{}) interface{} {
	if details == nil {
		return map[string]interface{}{}
	}
	return details
}
