// Package devapi is an in-memory implementation of the cabinet REST API.
// It backs the `cabinet devserver` command and the client's integration
// tests. Every request is recorded so tests can assert which calls were
// (or were not) made.
package devapi

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/sdm/cabinet-client/pkg/validation"
)

// Prefix is the path every endpoint is mounted under.
const Prefix = "/api"

// Request is one recorded call.
type Request struct {
	Method   string
	Endpoint string
	Bearer   bool
}

type Server struct {
	echo     *echo.Echo
	store    *Store
	secret   []byte
	tokenTTL time.Duration
	log      zerolog.Logger

	mu       sync.Mutex
	requests []Request
}

type Option func(*Server)

func WithSecret(secret string) Option {
	return func(s *Server) { s.secret = []byte(secret) }
}

func WithTokenTTL(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.tokenTTL = d
		}
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithStore replaces the seeded store.
func WithStore(store *Store) Option {
	return func(s *Server) { s.store = store }
}

func New(opts ...Option) *Server {
	s := &Server{
		store:    NewStore(),
		secret:   []byte("dev-secret"),
		tokenTTL: 24 * time.Hour,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.echo = s.newRouter()
	return s
}

func (s *Server) newRouter() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()
	e.HTTPErrorHandler = newHTTPErrorHandler(s.log)

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		TargetHeader: "X-Request-ID",
	}))
	e.Use(s.record)

	api := e.Group(Prefix)
	api.GET("", s.status)
	api.GET("/", s.status)

	// --- Account routes ---
	api.POST("/login", s.login)
	api.POST("/register", s.register)
	api.POST("/forgot-password", s.forgotPassword)
	api.POST("/forgot-password/:token", s.resetPassword)

	// --- Authenticated routes ---
	auth := bearerAuth(s.secret)
	api.POST("/authenticate", s.authenticate, auth)
	api.GET("/all-ingredients", s.allIngredients, auth)
	api.PATCH("/all-ingredients", s.updateIngredient, auth)
	api.GET("/user-ingredients", s.userIngredients, auth)
	api.DELETE("/user-ingredients", s.deleteUserIngredients, auth)
	api.GET("/custom-ingredients", s.customIngredients, auth)
	api.POST("/custom-ingredients", s.addCustomIngredient, auth)
	api.DELETE("/custom-ingredients", s.deleteCustomIngredient, auth)
	api.GET("/all-recipes", s.allRecipes, auth)
	api.GET("/filtered-recipes", s.filteredRecipes, auth)
	api.GET("/partial-filter", s.partialRecipes, auth)

	return e
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) Store() *Store {
	return s.store
}

// IssueToken signs a session token for username, as login would.
func (s *Server) IssueToken(username string) (string, error) {
	return issueToken(s.secret, username, s.tokenTTL)
}

// Requests returns the recorded calls in arrival order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// Count returns how many calls were made to endpoint with method.
func (s *Server) Count(method, endpoint string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Endpoint == endpoint {
			n++
		}
	}
	return n
}

func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

func (s *Server) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:   req.Method,
			Endpoint: strings.Trim(strings.TrimPrefix(req.URL.Path, Prefix), "/"),
			Bearer:   strings.HasPrefix(req.Header.Get("Authorization"), "Bearer "),
		})
		s.mu.Unlock()
		return next(c)
	}
}
