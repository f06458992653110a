package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sdm/cabinet-client/internal/api/middleware"
	"github.com/sdm/cabinet-client/internal/core/domain"
	"github.com/sdm/cabinet-client/internal/core/ports"
)

// SessionFactory builds a session service that navigates through nav. Form
// handlers create one per request so navigation can become the response.
type SessionFactory func(nav ports.Navigator) ports.SessionService

type AuthHandler struct {
	sessions SessionFactory
}

func NewAuthHandler(sessions SessionFactory) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

type LoginForm struct {
	LoginID  string `json:"loginId" form:"loginId" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type SignUpForm struct {
	Username        string `json:"username" form:"username" validate:"required"`
	Email           string `json:"email" form:"email" validate:"required,email"`
	Password        string `json:"password" form:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword" validate:"required,eqfield=Password"`
}

type ForgotPasswordForm struct {
	LoginID string `json:"loginId" form:"loginId" validate:"required"`
}

type ResetPasswordForm struct {
	Token           string `param:"token" validate:"required"`
	NewPassword     string `json:"newPassword" form:"newPassword" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

// formPage describes a public page: its name and the fields it submits.
type formPage struct {
	Page   string   `json:"page"`
	Fields []string `json:"fields"`
	From   string   `json:"from,omitempty"`
}

// LoginPage describes the login form. A guard redirect passes the
// originally requested location in "from".
func (h *AuthHandler) LoginPage(c echo.Context) error {
	return c.JSON(http.StatusOK, formPage{
		Page:   "login",
		Fields: []string{"loginId", "password"},
		From:   c.QueryParam("from"),
	})
}

func (h *AuthHandler) SignUpPage(c echo.Context) error {
	return c.JSON(http.StatusOK, formPage{Page: "signup", Fields: []string{"username", "email", "password", "confirmPassword"}})
}

func (h *AuthHandler) ForgotPasswordPage(c echo.Context) error {
	return c.JSON(http.StatusOK, formPage{Page: "forgot-password", Fields: []string{"loginId"}})
}

func (h *AuthHandler) ResetPasswordPage(c echo.Context) error {
	return c.JSON(http.StatusOK, formPage{Page: "reset-password", Fields: []string{"newPassword", "confirmPassword"}})
}

// Login submits the login form. On success the session token is stored
// and the response redirects to the cabinet.
func (h *AuthHandler) Login(c echo.Context) error {
	var form LoginForm
	if err := bind(c, &form); err != nil {
		return err
	}

	nav := &middleware.Redirect{}
	if err := h.sessions(nav).Login(c.Request().Context(), form.LoginID, form.Password); err != nil {
		return err
	}
	return nav.Respond(c, func() error { return c.NoContent(http.StatusNoContent) })
}

func (h *AuthHandler) SignUp(c echo.Context) error {
	var form SignUpForm
	if err := bind(c, &form); err != nil {
		return err
	}

	nav := &middleware.Redirect{}
	if err := h.sessions(nav).Register(c.Request().Context(), form.Username, form.Password, form.Email); err != nil {
		return err
	}
	return nav.Respond(c, func() error { return c.NoContent(http.StatusCreated) })
}

// ForgotPassword requests a reset link and shows the backend's answer.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var form ForgotPasswordForm
	if err := bind(c, &form); err != nil {
		return err
	}

	msg, err := h.sessions(&middleware.Redirect{}).RequestPasswordReset(c.Request().Context(), form.LoginID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: msg})
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var form ResetPasswordForm
	if err := bind(c, &form); err != nil {
		return err
	}

	nav := &middleware.Redirect{}
	if err := h.sessions(nav).ResetPassword(c.Request().Context(), form.Token, form.NewPassword); err != nil {
		return err
	}
	return nav.Respond(c, func() error { return c.NoContent(http.StatusNoContent) })
}

func (h *AuthHandler) Logout(c echo.Context) error {
	nav := &middleware.Redirect{}
	if err := h.sessions(nav).Logout(c.Request().Context()); err != nil {
		return err
	}
	return nav.Respond(c, func() error { return c.NoContent(http.StatusNoContent) })
}

// Fallback handles every unknown path: with a stored token it goes to the
// cabinet, whose guard validates the token; without one, to the login page.
func Fallback(tokens ports.TokenStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, err := tokens.Get(c.Request().Context())
		if err != nil {
			return err
		}
		to := domain.Location{Path: domain.PathLogin}
		if token != "" {
			to.Path = domain.PathCabinetBrowse
		}
		return c.Redirect(http.StatusSeeOther, to.Href())
	}
}
