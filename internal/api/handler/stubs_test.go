package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/sdm/cabinet-client/internal/core/domain"
	"github.com/sdm/cabinet-client/internal/core/ports"
	"github.com/sdm/cabinet-client/pkg/validation"
)

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validation.New()
	return e
}

func newContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// ---------------------------------------------------------------------------
// Sessions
// ---------------------------------------------------------------------------

type stubSessions struct {
	nav      ports.Navigator
	loginErr error
	err      error
	resetMsg string

	loginID  string
	password string
	email    string
}

func (s *stubSessions) factory() SessionFactory {
	return func(nav ports.Navigator) ports.SessionService {
		s.nav = nav
		return s
	}
}

func (s *stubSessions) IsTokenPresentAndWellFormed(context.Context) bool { return true }
func (s *stubSessions) Authenticate(context.Context) (*domain.User, bool) {
	return &domain.User{Username: "alice"}, true
}

func (s *stubSessions) Login(_ context.Context, loginID, password string) error {
	s.loginID, s.password = loginID, password
	if s.loginErr != nil {
		return s.loginErr
	}
	s.nav.Navigate(domain.Location{Path: domain.PathCabinetBrowse})
	return nil
}

func (s *stubSessions) Register(_ context.Context, username, password, email string) error {
	s.loginID, s.password, s.email = username, password, email
	if s.err != nil {
		return s.err
	}
	s.nav.Navigate(domain.Location{Path: domain.PathLogin})
	return nil
}

func (s *stubSessions) RequestPasswordReset(_ context.Context, loginID string) (string, error) {
	s.loginID = loginID
	return s.resetMsg, s.err
}

func (s *stubSessions) ResetPassword(_ context.Context, token, newPassword string) error {
	s.loginID, s.password = token, newPassword
	if s.err != nil {
		return s.err
	}
	s.nav.Navigate(domain.Location{Path: domain.PathLogin})
	return nil
}

func (s *stubSessions) Logout(context.Context) error {
	s.nav.Navigate(domain.Location{Path: domain.PathLogin})
	return nil
}

// ---------------------------------------------------------------------------
// Cabinet
// ---------------------------------------------------------------------------

type stubCabinet struct {
	mu      sync.Mutex
	all     *ports.IngredientSet
	user    *ports.IngredientSet
	addErr  error
	updates []domain.Ingredient
	loads   int
}

func (s *stubCabinet) AllIngredients(context.Context) (*ports.IngredientSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	return s.all, nil
}

func (s *stubCabinet) UserIngredients(context.Context) (*ports.IngredientSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	return s.user, nil
}

func (s *stubCabinet) CustomIngredients(context.Context) ([]domain.Ingredient, error) {
	return nil, nil
}

func (s *stubCabinet) UpdateIngredient(_ context.Context, ing domain.Ingredient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, ing)
	return nil
}

func (s *stubCabinet) AddCustomIngredient(_ context.Context, name string, typ domain.IngredientType) (string, error) {
	if s.addErr != nil {
		return "", s.addErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.all.Custom = append(s.all.Custom, domain.Ingredient{Name: name, Type: typ, Origin: domain.OriginCustom})
	return "custom ingredient added", nil
}

func (s *stubCabinet) DeleteCustomIngredient(context.Context, string) error { return nil }
func (s *stubCabinet) DeleteUserIngredients(context.Context, []string) error { return nil }

// inlineDispatcher runs every task synchronously.
type inlineDispatcher struct {
	names []string
}

func (d *inlineDispatcher) Dispatch(_, name string, task ports.Task, onDone func(error)) {
	d.names = append(d.names, name)
	err := task(context.Background())
	if onDone != nil {
		onDone(err)
	}
}

type stubQueue struct {
	cmds []domain.ShoppingListCommand
}

func (q *stubQueue) Push(cmd domain.ShoppingListCommand) { q.cmds = append(q.cmds, cmd) }

type stubRecipes struct {
	recipes map[domain.FeedContext][]domain.Recipe
	calls   []domain.FeedContext
}

func (s *stubRecipes) Recipes(_ context.Context, feed domain.FeedContext) ([]domain.Recipe, error) {
	s.calls = append(s.calls, feed)
	return s.recipes[feed], nil
}

func cabinetFixture() *stubCabinet {
	def := []domain.Ingredient{
		{Name: "Apple", Type: domain.TypeFruit, Quantity: 2, Origin: domain.OriginDefault},
		{Name: "Carrot", Type: domain.TypeVegetable, Origin: domain.OriginDefault},
	}
	custom := []domain.Ingredient{
		{Name: "Lime", Type: domain.TypeFruit, Quantity: 1, Origin: domain.OriginCustom},
		{Name: "Mint", Type: domain.TypeOther, Origin: domain.OriginCustom},
	}
	return &stubCabinet{
		all:  &ports.IngredientSet{Default: def, Custom: custom},
		user: &ports.IngredientSet{Default: def[:1], Custom: custom},
	}
}
