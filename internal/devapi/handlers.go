package devapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sdm/cabinet-client/internal/core/domain"
)

type loginRequest struct {
	LoginID  string `json:"loginId" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}

type passwordLinkRequest struct {
	LoginID string `json:"loginId" validate:"required"`
}

type passwordResetRequest struct {
	NewPassword string `json:"newPassword" validate:"required"`
}

type updateIngredientRequest struct {
	Name       string  `json:"name" validate:"required"`
	Quantity   float64 `json:"quantity"`
	IsFavorite string  `json:"isFavorite" validate:"omitempty,oneof=True False"`
}

type customIngredientRequest struct {
	Name string `json:"name" validate:"required"`
	Type string `json:"type"`
}

type userIngredientsRequest struct {
	Ingredients []string `json:"ingredients" validate:"required"`
}

type ingredientSet struct {
	Default []IngredientRow `json:"default"`
	Custom  []IngredientRow `json:"custom"`
}

// bind decodes and validates the request body.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}

func (s *Server) status(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// ── Accounts ─────────────────────────────────────────────────────────────────

func (s *Server) login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": err.Error()})
	}

	username, err := s.store.Authenticate(req.LoginID, req.Password)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"message": err.Error()})
	}
	token, err := s.IssueToken(username)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"token": token})
}

func (s *Server) register(c echo.Context) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := s.store.Register(req.Username, req.Password, req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]string{"message": "account created"})
}

// forgotPassword answers identically whether or not the account exists.
func (s *Server) forgotPassword(c echo.Context) error {
	var req passwordLinkRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if token, ok := s.store.CreateResetToken(req.LoginID); ok {
		s.log.Info().Str("login_id", req.LoginID).Str("reset_path", "/reset-pass/"+token).Msg("password reset link issued")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "if the account exists, a reset link has been sent"})
}

func (s *Server) resetPassword(c echo.Context) error {
	var req passwordResetRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := s.store.ResetPassword(c.Param("token"), req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "password updated"})
}

func (s *Server) authenticate(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"user": currentUser(c)})
}

// ── Ingredients ──────────────────────────────────────────────────────────────

func (s *Server) allIngredients(c echo.Context) error {
	def, custom := s.store.Catalog(currentUser(c))
	return c.JSON(http.StatusOK, map[string]ingredientSet{"ingredients": {Default: def, Custom: custom}})
}

func (s *Server) userIngredients(c echo.Context) error {
	def, custom := s.store.Inventory(currentUser(c))
	return c.JSON(http.StatusOK, map[string]ingredientSet{"ingredients": {Default: def, Custom: custom}})
}

func (s *Server) updateIngredient(c echo.Context) error {
	var req updateIngredientRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := s.store.UpdateIngredient(currentUser(c), req.Name, req.Quantity, req.IsFavorite == "True"); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "ingredient updated"})
}

func (s *Server) deleteUserIngredients(c echo.Context) error {
	var req userIngredientsRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	s.store.RemoveFromInventory(currentUser(c), req.Ingredients)
	return c.JSON(http.StatusOK, map[string]string{"message": "ingredients removed"})
}

func (s *Server) customIngredients(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]CatalogItem{"ingredients": s.store.CustomIngredients(currentUser(c))})
}

// addCustomIngredient reports rejected ingredients under "error" with
// status 200; clients branch on the key, not the status.
func (s *Server) addCustomIngredient(c echo.Context) error {
	var req customIngredientRequest
	if err := bind(c, &req); err != nil {
		return c.JSON(http.StatusOK, errorResponse{Error: err.Error()})
	}
	if err := s.store.AddCustomIngredient(currentUser(c), req.Name, req.Type); err != nil {
		if errors.Is(err, ErrIngredientExists) || errors.Is(err, ErrInvalidType) {
			return c.JSON(http.StatusOK, errorResponse{Error: err.Error()})
		}
		return err
	}
	return c.JSON(http.StatusCreated, map[string]string{"message": "custom ingredient added"})
}

func (s *Server) deleteCustomIngredient(c echo.Context) error {
	var req customIngredientRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := s.store.DeleteCustomIngredient(currentUser(c), req.Name); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "custom ingredient deleted"})
}

// ── Recipes ──────────────────────────────────────────────────────────────────

func (s *Server) allRecipes(c echo.Context) error {
	return s.recipes(c, s.store.Recipes())
}

func (s *Server) filteredRecipes(c echo.Context) error {
	return s.recipes(c, s.store.MatchRecipes(currentUser(c), true))
}

func (s *Server) partialRecipes(c echo.Context) error {
	return s.recipes(c, s.store.MatchRecipes(currentUser(c), false))
}

func (s *Server) recipes(c echo.Context, recipes []domain.Recipe) error {
	if recipes == nil {
		recipes = []domain.Recipe{}
	}
	return c.JSON(http.StatusOK, map[string][]domain.Recipe{"recipes": recipes})
}

