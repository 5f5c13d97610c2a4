package apperr

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ErrorResponse is the JSON body returned for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// HTTPErrorHandler returns an echo error handler that maps error kinds to
// status codes. echo.HTTPError values produced by middleware pass through
// with their original status.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		body := ErrorResponse{Error: "internal server error", Kind: KindInternal.String()}

		switch e := err.(type) {
		case *echo.HTTPError:
			status = e.Code
			if msg, ok := e.Message.(string); ok {
				body = ErrorResponse{Error: msg, Kind: kindForStatus(e.Code).String()}
			}
		default:
			k := KindOf(err)
			status = k.HTTPStatus()
			body = ErrorResponse{Error: Message(err), Kind: k.String()}
		}

		if status >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			logger.Error().
				Err(err).
				Str("request_id", rid).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}

func kindForStatus(status int) Kind {
	switch status {
	case http.StatusUnauthorized:
		return KindUnauthenticated
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusBadRequest:
		return KindInvalid
	case http.StatusConflict:
		return KindConflict
	}
	return KindInternal
}
