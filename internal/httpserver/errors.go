package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
)

var statusBySentinel = []struct {
	err    error
	status int
}{
	{service.ErrValidation, http.StatusBadRequest},
	{service.ErrInvalidOperation, http.StatusBadRequest},
	{service.ErrInvalidState, http.StatusBadRequest},
	{service.ErrPreconditionFailed, http.StatusBadRequest},
	{service.ErrVerificationFailed, http.StatusBadRequest},
	{service.ErrUnauthorized, http.StatusUnauthorized},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrConflict, http.StatusConflict},
	{service.ErrUpstream, http.StatusInternalServerError},
}

// classify maps an error to the status code and the message shown to clients.
func classify(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok {
			msg = s
		} else if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
		return he.Code, msg
	}
	for _, m := range statusBySentinel {
		if errors.Is(err, m.err) {
			if m.status >= http.StatusInternalServerError {
				return m.status, "Payment gateway error"
			}
			return m.status, err.Error()
		}
	}
	return http.StatusInternalServerError, "Server Error"
}

// HTTPErrorHandler renders every error as a failed envelope.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status, msg := classify(err)
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	if jerr := c.JSON(status, transport.Envelope{Status: false, Message: msg}); jerr != nil {
		logging.FromContext(c.Request().Context()).Error("write_error_response", "error", jerr)
	}
}

// fail logs err under event at a level matching its status and returns it.
func fail(l *slog.Logger, event string, err error) error {
	status, _ := classify(err)
	if status >= http.StatusInternalServerError {
		l.Error(event, "status", status, "error", err)
	} else {
		l.Warn(event, "status", status, "error", err)
	}
	return err
}

func badRequest(l *slog.Logger, event, msg string, err error) error {
	l.Warn(event, "status", http.StatusBadRequest, "reason", msg, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}

func ok(c echo.Context, status int, msg string, data any) error {
	return c.JSON(status, transport.Envelope{Status: true, Message: msg, Data: data})
}
