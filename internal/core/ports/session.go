package ports

import (
	"context"

	"github.com/sdm/cabinet-client/internal/core/domain"
)

// TokenStore persists the single session token. Get returns "" with a nil
// error when no token is stored.
type TokenStore interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Delete(ctx context.Context) error
}

// AccountAPI is the typed view of the public account endpoints and the
// authenticated whoami call. Backend-reported failures come back as
// *domain.BackendError carrying the backend's message verbatim.
type AccountAPI interface {
	Login(ctx context.Context, loginID, password string) (token string, err error)
	Register(ctx context.Context, username, password, email string) error
	RequestPasswordReset(ctx context.Context, loginID string) (string, error)
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
	WhoAmI(ctx context.Context) (*domain.User, error)
}

// SessionChecker is the synchronous, network-free structural check consulted
// before every authenticated read.
type SessionChecker interface {
	IsTokenPresentAndWellFormed(ctx context.Context) bool
}

// Authenticator validates the stored session against the backend.
type Authenticator interface {
	Authenticate(ctx context.Context) (*domain.User, bool)
}

// SessionService covers the session lifecycle: login, registration,
// password recovery, validation and logout.
type SessionService interface {
	SessionChecker
	Authenticator
	Login(ctx context.Context, loginID, password string) error
	Register(ctx context.Context, username, password, email string) error
	RequestPasswordReset(ctx context.Context, loginID string) (string, error)
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
	Logout(ctx context.Context) error
}
