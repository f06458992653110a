package middleware

import (
	"context"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sdm/cabinet-client/internal/core/domain"
	"github.com/sdm/cabinet-client/internal/core/ports"
)

const ctxUser = "user"

// Redirect is a Navigator scoped to one request: it remembers the last
// location navigated to so the handler can answer with a redirect.
type Redirect struct {
	mu sync.Mutex
	to *domain.Location
}

func (r *Redirect) Navigate(to domain.Location) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.to = &to
}

// Location returns where the request navigated, if anywhere.
func (r *Redirect) Location() (domain.Location, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.to == nil {
		return domain.Location{}, false
	}
	return *r.to, true
}

// Respond issues a 303 to the recorded location, or calls fallback when
// nothing navigated.
func (r *Redirect) Respond(c echo.Context, fallback func() error) error {
	if to, ok := r.Location(); ok {
		return c.Redirect(http.StatusSeeOther, to.Href())
	}
	return fallback()
}

// RequireSession mounts each request behind its own GuardedRoute. The
// authenticated user is available to the handler through CurrentUser;
// anyone else is redirected to the login page with the requested location
// in "from".
func RequireSession(auth ports.Authenticator, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			nav := &Redirect{}
			route := NewGuard(auth, nav, log).Protect(ProtectedViewFunc(func(_ context.Context, user *domain.User) error {
				c.Set(ctxUser, user)
				return next(c)
			}))

			req := c.Request()
			requested := domain.Location{Path: req.URL.Path, Query: req.URL.RawQuery}
			if _, err := route.Mount(req.Context(), requested); err != nil {
				return err
			}
			return nav.Respond(c, func() error { return nil })
		}
	}
}

// CurrentUser returns the user RequireSession authenticated, or nil.
func CurrentUser(c echo.Context) *domain.User {
	u, _ := c.Get(ctxUser).(*domain.User)
	return u
}
