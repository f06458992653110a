package service

import (
	"context"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/sdm/cabinet-client/internal/core/domain"
	"github.com/sdm/cabinet-client/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Session stubs
// ---------------------------------------------------------------------------

type stubTokenStore struct {
	token   string
	deletes int
}

func (s *stubTokenStore) Get(context.Context) (string, error) { return s.token, nil }
func (s *stubTokenStore) Set(_ context.Context, token string) error {
	s.token = token
	return nil
}
func (s *stubTokenStore) Delete(context.Context) error {
	s.token = ""
	s.deletes++
	return nil
}

type stubAccountAPI struct {
	loginToken string
	loginErr   error
	whoami     *domain.User
	whoamiErr  error
	resetMsg   string
	err        error

	whoamiCalls int
	loginCalls  int
}

func (a *stubAccountAPI) Login(context.Context, string, string) (string, error) {
	a.loginCalls++
	return a.loginToken, a.loginErr
}
func (a *stubAccountAPI) Register(context.Context, string, string, string) error { return a.err }
func (a *stubAccountAPI) RequestPasswordReset(context.Context, string) (string, error) {
	return a.resetMsg, a.err
}
func (a *stubAccountAPI) ResetPassword(context.Context, string, string) error { return a.err }
func (a *stubAccountAPI) WhoAmI(context.Context) (*domain.User, error) {
	a.whoamiCalls++
	return a.whoami, a.whoamiErr
}

type stubNavigator struct {
	visited []domain.Location
}

func (n *stubNavigator) Navigate(to domain.Location) { n.visited = append(n.visited, to) }

type stubNotifier struct {
	alerts []string
}

func (n *stubNotifier) Alert(message string) { n.alerts = append(n.alerts, message) }

func wellFormedToken(t *testing.T) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "alice"}).SignedString([]byte("k"))
	require.NoError(t, err)
	return token
}

// ---------------------------------------------------------------------------
// Cabinet stubs
// ---------------------------------------------------------------------------

type stubCabinet struct {
	mu sync.Mutex

	all    *ports.IngredientSet
	user   *ports.IngredientSet
	addMsg string
	addErr error

	updateErr   error
	deleteErr   error
	userDelErr  error
	loadErr     error
	allCalls    int
	userCalls   int
	updates     []domain.Ingredient
	customDels  []string
	userDels    [][]string
	customAdded []string
}

func (c *stubCabinet) AllIngredients(context.Context) (*ports.IngredientSet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.allCalls++
	return c.all, c.loadErr
}

func (c *stubCabinet) UserIngredients(context.Context) (*ports.IngredientSet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userCalls++
	return c.user, c.loadErr
}

func (c *stubCabinet) CustomIngredients(context.Context) ([]domain.Ingredient, error) {
	return nil, nil
}

func (c *stubCabinet) UpdateIngredient(_ context.Context, ing domain.Ingredient) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates = append(c.updates, ing)
	return c.updateErr
}

func (c *stubCabinet) AddCustomIngredient(_ context.Context, name string, _ domain.IngredientType) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.customAdded = append(c.customAdded, name)
	return c.addMsg, c.addErr
}

func (c *stubCabinet) DeleteCustomIngredient(_ context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.customDels = append(c.customDels, name)
	return c.deleteErr
}

func (c *stubCabinet) DeleteUserIngredients(_ context.Context, names []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userDels = append(c.userDels, names)
	return c.userDelErr
}

func (c *stubCabinet) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.updates) + len(c.customDels) + len(c.userDels)
}

// heldDispatcher queues tasks until Run is called, so tests can observe the
// optimistic state before any write lands.
type heldDispatcher struct {
	jobs []heldJob
}

type heldJob struct {
	key, name string
	task      ports.Task
	onDone    func(error)
}

func (d *heldDispatcher) Dispatch(key, name string, task ports.Task, onDone func(error)) {
	d.jobs = append(d.jobs, heldJob{key: key, name: name, task: task, onDone: onDone})
}

// Run executes the queued tasks, in order when order is nil, or in the
// given index order otherwise.
func (d *heldDispatcher) Run(order ...int) {
	jobs := d.jobs
	d.jobs = nil
	if order == nil {
		for i := range jobs {
			order = append(order, i)
		}
	}
	for _, i := range order {
		j := jobs[i]
		err := j.task(context.Background())
		if j.onDone != nil {
			j.onDone(err)
		}
	}
}

// ---------------------------------------------------------------------------
// Shopping list stubs
// ---------------------------------------------------------------------------

type stubQueue struct {
	cmds []domain.ShoppingListCommand
}

func (q *stubQueue) Push(cmd domain.ShoppingListCommand) { q.cmds = append(q.cmds, cmd) }

type recordingWidget struct {
	listeners [][2]string
	added     [][]string
}

func (w *recordingWidget) AddClickListener(elementID, action string) {
	w.listeners = append(w.listeners, [2]string{elementID, action})
}

func (w *recordingWidget) AddProductsToList(products []string) {
	w.added = append(w.added, products)
}

type stubRecipes struct {
	result map[domain.FeedContext][]domain.Recipe
	calls  []domain.FeedContext
	err    error
}

func (r *stubRecipes) Recipes(_ context.Context, feed domain.FeedContext) ([]domain.Recipe, error) {
	r.calls = append(r.calls, feed)
	return r.result[feed], r.err
}
