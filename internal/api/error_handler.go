package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sdm/cabinet-client/internal/core/domain"
	"github.com/sdm/cabinet-client/pkg/validation"
)

// GenericErrorMessage is shown for failures whose details stay in the log.
const GenericErrorMessage = "Something went wrong talking to the server. Please try again."

// Report is what the user gets to see of an error.
type Report struct {
	Status  int
	Message string
	// Silent errors are dropped without telling the user.
	Silent bool
}

// ErrorReporter turns errors into user-facing reports:
//   - backend-reported errors are shown verbatim;
//   - validation failures list every failed field;
//   - a negative quantity is dropped silently;
//   - transport failures and anything unexpected are logged and shown as
//     GenericErrorMessage.
type ErrorReporter struct {
	log zerolog.Logger
}

func NewErrorReporter(log zerolog.Logger) *ErrorReporter {
	return &ErrorReporter{log: log}
}

func (r *ErrorReporter) Resolve(err error) Report {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return Report{Status: he.Code, Message: fmt.Sprintf("%v", he.Message)}
	}

	var be *domain.BackendError
	if errors.As(err, &be) {
		return Report{Status: http.StatusBadRequest, Message: be.Message}
	}

	var ve *validation.Error
	if errors.As(err, &ve) {
		return Report{Status: http.StatusBadRequest, Message: ve.Error()}
	}

	switch {
	case errors.Is(err, domain.ErrNegativeQuantity):
		return Report{Status: http.StatusNoContent, Silent: true}
	case errors.Is(err, domain.ErrNoSession):
		return Report{Status: http.StatusUnauthorized, Message: "Please log in again."}
	case errors.Is(err, domain.ErrUnknownIngredient):
		return Report{Status: http.StatusNotFound, Message: err.Error()}
	case errors.Is(err, domain.ErrNotBrowsePage):
		return Report{Status: http.StatusConflict, Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidIngredientType):
		return Report{Status: http.StatusBadRequest, Message: "type must be one of fruit, vegetable, liquid, yogurt or other"}
	case errors.Is(err, domain.ErrInvalidInput):
		return Report{Status: http.StatusBadRequest, Message: err.Error()}
	}

	var te *domain.TransportError
	if errors.As(err, &te) {
		r.log.Error().Err(te.Err).Str("endpoint", te.Endpoint).Msg("backend unreachable")
		return Report{Status: http.StatusBadGateway, Message: GenericErrorMessage}
	}

	r.log.Error().Err(err).Msg("unhandled error")
	return Report{Status: http.StatusInternalServerError, Message: GenericErrorMessage}
}

// errorResponse is the canonical error envelope of the UI shell.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler renders reports as {"error": "<message>"}; silent
// reports get an empty body.
func NewHTTPErrorHandler(r *ErrorReporter) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		rep := r.Resolve(err)
		if rep.Silent {
			_ = c.NoContent(rep.Status)
			return
		}
		_ = c.JSON(rep.Status, errorResponse{Error: rep.Message})
	}
}
