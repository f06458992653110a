// Package handler holds the page controllers of the local UI shell. Each
// page is an echo handler over the client services; pages answer with
// JSON view models, and navigation becomes a 303 redirect.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type messageResponse struct {
	Message string `json:"message"`
}

// bind decodes the request into form and validates it with the
// echo.Validator registered on the router.
func bind(c echo.Context, form any) error {
	if err := c.Bind(form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(form)
}
