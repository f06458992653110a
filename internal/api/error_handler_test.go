package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/sdm/cabinet-client/internal/core/domain"
	"github.com/sdm/cabinet-client/pkg/validation"
)

func TestErrorReporter_Resolve(t *testing.T) {
	r := NewErrorReporter(zerolog.Nop())

	cases := []struct {
		name string
		err  error
		want Report
	}{
		{
			name: "backend message verbatim",
			err:  fmt.Errorf("login: %w", &domain.BackendError{Message: "bad credentials"}),
			want: Report{Status: http.StatusBadRequest, Message: "bad credentials"},
		},
		{
			name: "validation",
			err:  &validation.Error{Messages: []string{"loginid is required", "password is required"}},
			want: Report{Status: http.StatusBadRequest, Message: "loginid is required; password is required"},
		},
		{
			name: "negative quantity is silent",
			err:  domain.ErrNegativeQuantity,
			want: Report{Status: http.StatusNoContent, Silent: true},
		},
		{
			name: "transport failure is generic",
			err:  &domain.TransportError{Endpoint: "login", Err: errors.New("connection refused")},
			want: Report{Status: http.StatusBadGateway, Message: GenericErrorMessage},
		},
		{
			name: "unknown ingredient",
			err:  fmt.Errorf("%w: Kiwi", domain.ErrUnknownIngredient),
			want: Report{Status: http.StatusNotFound, Message: "ingredient not found: Kiwi"},
		},
		{
			name: "echo error",
			err:  echo.NewHTTPError(http.StatusMethodNotAllowed, "nope"),
			want: Report{Status: http.StatusMethodNotAllowed, Message: "nope"},
		},
		{
			name: "unexpected",
			err:  errors.New("boom"),
			want: Report{Status: http.StatusInternalServerError, Message: GenericErrorMessage},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, r.Resolve(tc.err))
		})
	}
}

func TestHTTPErrorHandler_SilentHasNoBody(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPatch, "/", nil), rec)

	NewHTTPErrorHandler(NewErrorReporter(zerolog.Nop()))(domain.ErrNegativeQuantity, c)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestHTTPErrorHandler_RendersEnvelope(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)

	NewHTTPErrorHandler(NewErrorReporter(zerolog.Nop()))(&domain.BackendError{Message: "ingredient already exists"}, c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"ingredient already exists"}`, rec.Body.String())
}
