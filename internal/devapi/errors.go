package devapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sdm/cabinet-client/pkg/validation"
)

// errorResponse is the error envelope the cabinet backend uses.
type errorResponse struct {
	Error string `json:"error"`
}

// newHTTPErrorHandler maps store errors to status codes and renders every
// failure as {"error": "<message>"}. Unexpected errors are logged and
// answered with a generic message.
func newHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var ve *validation.Error
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.Error()
	}

	switch {
	case errors.Is(err, ErrUserExists), errors.Is(err, ErrIngredientExists):
		return http.StatusConflict, err.Error()
	case errors.Is(err, ErrIngredientNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, ErrInvalidType), errors.Is(err, ErrNegativeQuantity), errors.Is(err, ErrInvalidResetLink):
		return http.StatusBadRequest, err.Error()
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
