package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/sdm/cabinet-client/internal/api/handler"
	"github.com/sdm/cabinet-client/internal/api/middleware"
	"github.com/sdm/cabinet-client/internal/core/ports"
	"github.com/sdm/cabinet-client/internal/core/service"
	"github.com/sdm/cabinet-client/pkg/validation"
)

// Deps are the client services the UI shell is built on.
type Deps struct {
	Tokens     ports.TokenStore
	Sessions   handler.SessionFactory
	Cabinet    ports.CabinetAPI
	Recipes    ports.RecipeAPI
	Dispatcher ports.TaskDispatcher
	Shopping   *service.ShoppingListBridge
	Policy     service.ReconcilePolicy
	Debounce   time.Duration
	Log        zerolog.Logger
}

// NewRouter builds the client route table:
//
//	/, /signup, /forgot-password, /reset-pass/:token   public forms
//	/mycabinet/:page, /recipes/:feed                   behind the route guard
//	anything else                                      cabinet if a token is stored, else /
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()
	e.HTTPErrorHandler = NewHTTPErrorHandler(NewErrorReporter(d.Log))

	// Request metrics live in a registry of their own so that several
	// routers can coexist in one process.
	reg := prometheus.NewRegistry()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "cabinet",
		Subsystem:  "shell",
		Registerer: reg,
		Skipper:    func(c echo.Context) bool { return c.Path() == "/metrics" },
	}))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.Sessions)
	cabinetOpts := []handler.CabinetOption{
		handler.WithReconcilePolicy(d.Policy),
		handler.WithSearchDebounce(d.Debounce),
	}
	if d.Shopping != nil {
		cabinetOpts = append(cabinetOpts, handler.WithShoppingList(d.Shopping))
	}
	cabinetHandler := handler.NewCabinetHandler(d.Cabinet, d.Dispatcher, d.Log, cabinetOpts...)
	recipesHandler := handler.NewRecipesHandler(d.Recipes, d.Log)
	guard := middleware.RequireSession(d.Sessions(&middleware.Redirect{}), d.Log)

	// --- Public pages ---
	e.GET("/", authHandler.LoginPage)
	e.POST("/", authHandler.Login)
	e.GET("/signup", authHandler.SignUpPage)
	e.POST("/signup", authHandler.SignUp)
	e.GET("/forgot-password", authHandler.ForgotPasswordPage)
	e.POST("/forgot-password", authHandler.ForgotPassword)
	e.GET("/reset-pass/:token", authHandler.ResetPasswordPage)
	e.POST("/reset-pass/:token", authHandler.ResetPassword)
	e.POST("/logout", authHandler.Logout)

	// --- Cabinet ---
	cabinet := e.Group("/mycabinet", guard)
	cabinet.GET("/:page", cabinetHandler.Show)
	cabinet.PUT("/:page/search", cabinetHandler.Search)
	cabinet.POST("/:page/ingredients", cabinetHandler.AddCustomIngredient)
	cabinet.PATCH("/:page/ingredients/:name", cabinetHandler.UpdateIngredient)
	cabinet.DELETE("/:page/ingredients/:name", cabinetHandler.DeleteIngredient)
	cabinet.POST("/:page/ingredients/:name/favorite", cabinetHandler.ToggleFavorite)
	cabinet.POST("/:page/ingredients/:name/cart", cabinetHandler.AddToCart)

	// --- Recipes ---
	e.GET("/recipes/:feed", recipesHandler.Show, guard)

	// --- Shopping list ---
	if d.Shopping != nil {
		shoppingHandler := handler.NewShoppingHandler(d.Shopping)
		e.POST("/shopping-list/view", shoppingHandler.ViewList, guard)
		e.POST("/shopping-list/items", shoppingHandler.AddIngredients, guard)
	}

	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(
		prometheus.Gatherers{prometheus.DefaultGatherer, reg},
		promhttp.HandlerOpts{},
	)))

	e.RouteNotFound("/*", handler.Fallback(d.Tokens))

	return e
}
