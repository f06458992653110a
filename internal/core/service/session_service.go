package service

import (
	"context"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/sdm/cabinet-client/internal/core/domain"
	"github.com/sdm/cabinet-client/internal/core/ports"
)

type tokenState int

const (
	tokenMissing tokenState = iota
	tokenMalformed
	tokenWellFormed
)

// TokenInspector performs the structural session check. The token must
// decode as a JWT; neither its signature nor its expiry is verified here,
// the backend is the authority on both.
type TokenInspector struct {
	tokens ports.TokenStore
	parser *jwt.Parser
	log    zerolog.Logger
}

var _ ports.SessionChecker = (*TokenInspector)(nil)

func NewTokenInspector(tokens ports.TokenStore, log zerolog.Logger) *TokenInspector {
	return &TokenInspector{tokens: tokens, parser: jwt.NewParser(), log: log}
}

// IsTokenPresentAndWellFormed never contacts the backend and never mutates
// the store.
func (i *TokenInspector) IsTokenPresentAndWellFormed(ctx context.Context) bool {
	return i.inspect(ctx) == tokenWellFormed
}

func (i *TokenInspector) inspect(ctx context.Context) tokenState {
	token, err := i.tokens.Get(ctx)
	if err != nil {
		i.log.Warn().Err(err).Msg("token store read failed")
		return tokenMissing
	}
	if strings.TrimSpace(token) == "" {
		return tokenMissing
	}
	if _, _, err := i.parser.ParseUnverified(token, jwt.MapClaims{}); err != nil {
		return tokenMalformed
	}
	return tokenWellFormed
}

// SessionService implements the session lifecycle on top of the account
// endpoints and the token store.
type SessionService struct {
	*TokenInspector
	tokens ports.TokenStore
	api    ports.AccountAPI
	nav    ports.Navigator
	log    zerolog.Logger
}

var _ ports.SessionService = (*SessionService)(nil)

func NewSessionService(tokens ports.TokenStore, api ports.AccountAPI, nav ports.Navigator, log zerolog.Logger) *SessionService {
	return &SessionService{
		TokenInspector: NewTokenInspector(tokens, log),
		tokens:         tokens,
		api:            api,
		nav:            nav,
		log:            log,
	}
}

// Login stores the returned token and navigates to the cabinet. A backend
// rejection comes back as *domain.BackendError and nothing is navigated.
func (s *SessionService) Login(ctx context.Context, loginID, password string) error {
	if loginID == "" || password == "" {
		return domain.ErrInvalidInput
	}

	token, err := s.api.Login(ctx, loginID, password)
	if err != nil {
		return err
	}
	if err := s.tokens.Set(ctx, token); err != nil {
		return err
	}

	s.log.Info().Str("login_id", loginID).Msg("logged in")
	s.nav.Navigate(domain.Location{Path: domain.PathCabinetBrowse})
	return nil
}

func (s *SessionService) Register(ctx context.Context, username, password, email string) error {
	if username == "" || password == "" || email == "" {
		return domain.ErrInvalidInput
	}
	if err := s.api.Register(ctx, username, password, email); err != nil {
		return err
	}
	s.nav.Navigate(domain.Location{Path: domain.PathLogin})
	return nil
}

// RequestPasswordReset returns the backend's confirmation message.
func (s *SessionService) RequestPasswordReset(ctx context.Context, loginID string) (string, error) {
	if loginID == "" {
		return "", domain.ErrInvalidInput
	}
	return s.api.RequestPasswordReset(ctx, loginID)
}

func (s *SessionService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if resetToken == "" || newPassword == "" {
		return domain.ErrInvalidInput
	}
	if err := s.api.ResetPassword(ctx, resetToken, newPassword); err != nil {
		return err
	}
	s.nav.Navigate(domain.Location{Path: domain.PathLogin})
	return nil
}

func (s *SessionService) Logout(ctx context.Context) error {
	if err := s.tokens.Delete(ctx); err != nil {
		return err
	}
	s.nav.Navigate(domain.Location{Path: domain.PathLogin})
	return nil
}

// Authenticate runs the structural check and, only when it passes, asks the
// backend who the token belongs to. Every failure yields (nil, false); none
// is retried. A token that does not decode is removed from the store.
func (s *SessionService) Authenticate(ctx context.Context) (*domain.User, bool) {
	switch s.inspect(ctx) {
	case tokenMissing:
		return nil, false
	case tokenMalformed:
		s.log.Warn().Msg("stored token is malformed, discarding it")
		if err := s.tokens.Delete(ctx); err != nil {
			s.log.Error().Err(err).Msg("failed to discard malformed token")
		}
		return nil, false
	}

	user, err := s.api.WhoAmI(ctx)
	if err != nil {
		s.log.Debug().Err(err).Msg("session rejected")
		return nil, false
	}
	if user == nil || user.Username == "" {
		return nil, false
	}
	return user, true
}
