package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sdm/cabinet-client/internal/core/domain"
	"github.com/sdm/cabinet-client/internal/core/ports"
	"github.com/sdm/cabinet-client/internal/core/service"
)

type RecipesHandler struct {
	recipes ports.RecipeAPI
	log     zerolog.Logger
}

func NewRecipesHandler(recipes ports.RecipeAPI, log zerolog.Logger) *RecipesHandler {
	return &RecipesHandler{recipes: recipes, log: log}
}

type feedResponse struct {
	Feed    domain.FeedContext `json:"feed"`
	Recipes []domain.Recipe    `json:"recipes"`
	Message string             `json:"message,omitempty"`
}

// Show loads the feed named in the path. Each request is a fresh mount, so
// it issues exactly one fetch.
func (h *RecipesHandler) Show(c echo.Context) error {
	feed := domain.FeedContext(c.Param("feed"))
	view, err := service.NewFeedLoader(h.recipes, h.log).Load(c.Request().Context(), feed)
	if err != nil {
		return err
	}

	resp := feedResponse{Feed: view.Context, Recipes: view.Recipes, Message: view.Message}
	if resp.Recipes == nil {
		resp.Recipes = []domain.Recipe{}
	}
	return c.JSON(http.StatusOK, resp)
}

type ShoppingHandler struct {
	bridge *service.ShoppingListBridge
}

func NewShoppingHandler(bridge *service.ShoppingListBridge) *ShoppingHandler {
	return &ShoppingHandler{bridge: bridge}
}

type commandResponse struct {
	CommandID string `json:"commandId"`
}

// ViewList queues the "view list" binding on the shopping list widget.
func (h *ShoppingHandler) ViewList(c echo.Context) error {
	return c.JSON(http.StatusAccepted, commandResponse{CommandID: h.bridge.ViewList()})
}

// AddIngredients queues free-form items, in order.
func (h *ShoppingHandler) AddIngredients(c echo.Context) error {
	var form struct {
		Items []string `json:"items" validate:"required,min=1"`
	}
	if err := bind(c, &form); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, commandResponse{CommandID: h.bridge.AddIngredients(form.Items...)})
}
