package middleware

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sdm/cabinet-client/internal/api/metrics"
	"github.com/sdm/cabinet-client/internal/core/domain"
	"github.com/sdm/cabinet-client/internal/core/ports"
)

// GuardState is the state of a guarded route.
type GuardState int

const (
	StateLoading GuardState = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s GuardState) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "loading"
	}
}

// ProtectedView is a page that may only be rendered for a signed-in user.
type ProtectedView interface {
	Render(ctx context.Context, user *domain.User) error
}

// ProtectedViewFunc adapts a function to ProtectedView.
type ProtectedViewFunc func(ctx context.Context, user *domain.User) error

func (f ProtectedViewFunc) Render(ctx context.Context, user *domain.User) error {
	return f(ctx, user)
}

// Guard wraps protected views behind a live session check.
type Guard struct {
	auth ports.Authenticator
	nav  ports.Navigator
	log  zerolog.Logger
}

func NewGuard(auth ports.Authenticator, nav ports.Navigator, log zerolog.Logger) *Guard {
	return &Guard{auth: auth, nav: nav, log: log}
}

// Protect returns a route that renders view only after the session has
// been validated.
func (g *Guard) Protect(view ProtectedView) *GuardedRoute {
	return &GuardedRoute{guard: g, view: view}
}

// GuardedRoute checks the session once, on its first Mount. Later mounts
// reuse that outcome; a session revoked in between is only noticed by a
// new route.
type GuardedRoute struct {
	guard *Guard
	view  ProtectedView
	once  sync.Once

	mu    sync.Mutex
	state GuardState
	user  *domain.User
}

// Mount resolves the session and then either renders the view with the
// user or redirects to the login page, carrying requested in From.
func (r *GuardedRoute) Mount(ctx context.Context, requested domain.Location) (GuardState, error) {
	r.once.Do(func() { r.resolve(ctx) })

	r.mu.Lock()
	state, user := r.state, r.user
	r.mu.Unlock()

	switch state {
	case StateAuthenticated:
		return state, r.view.Render(ctx, user)
	case StateUnauthenticated:
		from := requested
		r.guard.nav.Navigate(domain.Location{Path: domain.PathLogin, From: &from})
	}
	return state, nil
}

func (r *GuardedRoute) resolve(ctx context.Context) {
	user, ok := r.guard.auth.Authenticate(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if ok {
		r.state, r.user = StateAuthenticated, user
	} else {
		r.state = StateUnauthenticated
	}
	metrics.GuardOutcomesTotal.WithLabelValues(r.state.String()).Inc()
	r.guard.log.Debug().Str("state", r.state.String()).Msg("route guard resolved")
}

// State returns the current state; StateLoading before the first Mount.
func (r *GuardedRoute) State() GuardState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// User returns the authenticated user, or nil.
func (r *GuardedRoute) User() *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.user
}
