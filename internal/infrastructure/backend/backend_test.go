package backend_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdm/cabinet-client/internal/api/middleware"
	"github.com/sdm/cabinet-client/internal/core/domain"
	"github.com/sdm/cabinet-client/internal/core/service"
	"github.com/sdm/cabinet-client/internal/devapi"
	"github.com/sdm/cabinet-client/internal/infrastructure/backend"
	"github.com/sdm/cabinet-client/internal/infrastructure/queue"
	"github.com/sdm/cabinet-client/internal/infrastructure/tokenstore"
)

type recordingNav struct {
	mu   sync.Mutex
	seen []domain.Location
}

func (n *recordingNav) Navigate(to domain.Location) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.seen = append(n.seen, to)
}

func (n *recordingNav) locations() []domain.Location {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Location(nil), n.seen...)
}

type harness struct {
	api      *devapi.Server
	tokens   *tokenstore.Memory
	backend  *backend.Backend
	sessions *service.SessionService
	nav      *recordingNav
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	api := devapi.New()
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	log := zerolog.Nop()
	tokens := tokenstore.NewMemory("")
	gw := backend.NewGateway(srv.URL+devapi.Prefix+"/", tokens, log)
	b := backend.New(gw, service.NewTokenInspector(tokens, log), log)
	nav := &recordingNav{}

	return &harness{
		api:      api,
		tokens:   tokens,
		backend:  b,
		sessions: service.NewSessionService(tokens, b, nav, log),
		nav:      nav,
	}
}

func (h *harness) signIn(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.api.Store().Register("alice", "pw", "alice@example.com"))
	require.NoError(t, h.sessions.Login(ctx, "alice", "pw"))
	h.api.ResetRequests()
}

func TestLogin_StoresTokenAndNavigates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.api.Store().Register("alice", "pw", "alice@example.com"))

	require.NoError(t, h.sessions.Login(ctx, "alice@example.com", "pw"))

	token, _ := h.tokens.Get(ctx)
	assert.NotEmpty(t, token)
	assert.True(t, h.sessions.IsTokenPresentAndWellFormed(ctx))
	assert.Equal(t, []domain.Location{{Path: domain.PathCabinetBrowse}}, h.nav.locations())
}

func TestLogin_RejectedCredentials(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	err := h.sessions.Login(ctx, "a", "b")

	var be *domain.BackendError
	require.True(t, errors.As(err, &be), "expected backend error, got %v", err)
	assert.Equal(t, "invalid login credentials", be.Message)
	assert.Empty(t, h.nav.locations())
	token, _ := h.tokens.Get(ctx)
	assert.Empty(t, token)
}

func TestReads_WithoutTokenMakeNoCalls(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	set, err := h.backend.UserIngredients(ctx)
	assert.NoError(t, err)
	assert.Nil(t, set)

	recipes, err := h.backend.Recipes(ctx, domain.FeedFilter)
	assert.NoError(t, err)
	assert.Nil(t, recipes)

	assert.ErrorIs(t, h.backend.UpdateIngredient(ctx, domain.Ingredient{Name: "Lemon"}), domain.ErrNoSession)
	assert.Empty(t, h.api.Requests())
}

func TestReads_MalformedTokenMakeNoCalls(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.tokens.Set(ctx, "not-a-jwt"))

	set, err := h.backend.AllIngredients(ctx)
	assert.NoError(t, err)
	assert.Nil(t, set)
	assert.Empty(t, h.api.Requests())
}

func TestGuard_NoTokenRedirectsWithoutCall(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	rendered := false
	route := middleware.NewGuard(h.sessions, h.nav, zerolog.Nop()).Protect(
		middleware.ProtectedViewFunc(func(context.Context, *domain.User) error {
			rendered = true
			return nil
		}))

	requested := domain.Location{Path: "/recipes/all"}
	state, err := route.Mount(ctx, requested)
	require.NoError(t, err)

	assert.Equal(t, middleware.StateUnauthenticated, state)
	assert.False(t, rendered)
	assert.Zero(t, h.api.Count(http.MethodPost, backend.EndpointAuthenticate))
	nav := h.nav.locations()
	require.Len(t, nav, 1)
	assert.Equal(t, domain.PathLogin, nav[0].Path)
	require.NotNil(t, nav[0].From)
	assert.Equal(t, requested.Path, nav[0].From.Path)
}

func TestGuard_RejectedTokenRedirects(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// Signed by someone else: well formed, but the backend refuses it.
	forged, err := devapi.New(devapi.WithSecret("other")).IssueToken("mallory")
	require.NoError(t, err)
	require.NoError(t, h.tokens.Set(ctx, forged))

	route := middleware.NewGuard(h.sessions, h.nav, zerolog.Nop()).Protect(
		middleware.ProtectedViewFunc(func(context.Context, *domain.User) error {
			t.Fatal("view must not render")
			return nil
		}))

	state, err := route.Mount(ctx, domain.Location{Path: "/mycabinet/manage"})
	require.NoError(t, err)
	assert.Equal(t, middleware.StateUnauthenticated, state)
	assert.Equal(t, 1, h.api.Count(http.MethodPost, backend.EndpointAuthenticate))
}

func TestGuard_ValidTokenRendersUser(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	var got *domain.User
	route := middleware.NewGuard(h.sessions, h.nav, zerolog.Nop()).Protect(
		middleware.ProtectedViewFunc(func(_ context.Context, u *domain.User) error {
			got = u
			return nil
		}))

	state, err := route.Mount(context.Background(), domain.Location{Path: "/mycabinet/browse"})
	require.NoError(t, err)
	assert.Equal(t, middleware.StateAuthenticated, state)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Username)
}

func TestUpdateIngredient_FavoriteFlagRoundTrip(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	ctx := context.Background()

	require.NoError(t, h.backend.UpdateIngredient(ctx, domain.Ingredient{Name: "Honey", Quantity: 1.5, Favorite: true}))

	set, err := h.backend.UserIngredients(ctx)
	require.NoError(t, err)
	require.NotNil(t, set)
	require.Len(t, set.Default, 1)
	honey := set.Default[0]
	assert.Equal(t, "Honey", honey.Name)
	assert.Equal(t, 1.5, honey.Quantity)
	assert.True(t, honey.Favorite)
	assert.Equal(t, domain.OriginDefault, honey.Origin)

	require.NoError(t, h.backend.UpdateIngredient(ctx, domain.Ingredient{Name: "Honey", Quantity: 1.5}))
	set, err = h.backend.UserIngredients(ctx)
	require.NoError(t, err)
	assert.False(t, set.Default[0].Favorite)
}

func TestAddCustomIngredient_DuplicateIsBackendError(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	ctx := context.Background()

	msg, err := h.backend.AddCustomIngredient(ctx, "basil", domain.TypeOther)
	require.NoError(t, err)
	assert.NotEmpty(t, msg)

	_, err = h.backend.AddCustomIngredient(ctx, "Basil", domain.TypeOther)
	var be *domain.BackendError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "ingredient already exists", be.Message)

	custom, err := h.backend.CustomIngredients(ctx)
	require.NoError(t, err)
	require.Len(t, custom, 1)
	assert.Equal(t, "Basil", custom[0].Name)
}

func TestAddCustomIngredient_EmptyEnvelopeIsBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	token, err := devapi.New().IssueToken("alice")
	require.NoError(t, err)
	log := zerolog.Nop()
	tokens := tokenstore.NewMemory(token)
	b := backend.New(backend.NewGateway(srv.URL+"/", tokens, log), service.NewTokenInspector(tokens, log), log)

	msg, err := b.AddCustomIngredient(context.Background(), "basil", domain.TypeOther)
	assert.Empty(t, msg)
	var be *domain.BackendError
	require.True(t, errors.As(err, &be), "got %v", err)
	assert.Equal(t, "unexpected response from server", be.Message)
}

func TestDeleteCustomIngredient_EndToEnd(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	ctx := context.Background()

	for _, name := range []string{"Lime", "Mint"} {
		_, err := h.backend.AddCustomIngredient(ctx, name, domain.TypeOther)
		require.NoError(t, err)
		require.NoError(t, h.backend.UpdateIngredient(ctx, domain.Ingredient{Name: name, Quantity: 1}))
	}

	d := queue.NewDispatcher(2, zerolog.Nop())
	d.Start(ctx)
	t.Cleanup(d.Close)

	m := service.NewCollectionManager(domain.PageManage, h.backend, d, zerolog.Nop())
	require.NoError(t, m.Load(ctx))
	require.NoError(t, m.DeleteCustomIngredient("Lime"))

	snap := m.Snapshot()
	require.Len(t, snap.Custom, 1)
	assert.Equal(t, "Mint", snap.Custom[0].Name)

	d.Wait()
	assert.Equal(t, 1, h.api.Count(http.MethodDelete, backend.EndpointCustomIngredients))
	assert.Equal(t, 1, h.api.Count(http.MethodDelete, backend.EndpointUserIngredients))

	custom, err := h.backend.CustomIngredients(ctx)
	require.NoError(t, err)
	require.Len(t, custom, 1)
	assert.Equal(t, "Mint", custom[0].Name)
}

func TestRecipes_FeedEndpoints(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	ctx := context.Background()

	all, err := h.backend.Recipes(ctx, domain.FeedAll)
	require.NoError(t, err)
	assert.NotEmpty(t, all)

	filtered, err := h.backend.Recipes(ctx, domain.FeedFilter)
	require.NoError(t, err)
	assert.Empty(t, filtered)
	assert.NotNil(t, filtered)

	assert.Equal(t, 1, h.api.Count(http.MethodGet, backend.EndpointAllRecipes))
	assert.Equal(t, 1, h.api.Count(http.MethodGet, backend.EndpointFilteredRecipes))
}

func TestHealthChecker(t *testing.T) {
	srv := httptest.NewServer(devapi.New().Handler())
	defer srv.Close()

	ok := backend.NewHealthChecker(srv.URL+devapi.Prefix, nil, nil).Check(context.Background())
	assert.True(t, ok.Healthy())
	assert.Equal(t, "ok", ok.Dependencies["backend"].Status)

	down := backend.NewHealthChecker("http://127.0.0.1:1/api", nil, nil).Check(context.Background())
	assert.False(t, down.Healthy())
	assert.NotEmpty(t, down.Dependencies["backend"].Error)
}
