package backend

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/sdm/cabinet-client/internal/api/metrics"
	"github.com/sdm/cabinet-client/internal/core/domain"
	"github.com/sdm/cabinet-client/internal/core/ports"
)

// Backend endpoints.
const (
	EndpointLogin             = "login"
	EndpointRegister          = "register"
	EndpointForgotPassword    = "forgot-password"
	EndpointAuthenticate      = "authenticate"
	EndpointAllIngredients    = "all-ingredients"
	EndpointUserIngredients   = "user-ingredients"
	EndpointCustomIngredients = "custom-ingredients"
	EndpointAllRecipes        = "all-recipes"
	EndpointFilteredRecipes   = "filtered-recipes"
	EndpointPartialRecipes    = "partial-filter"
)

// Backend maps domain operations onto gateway calls. Authenticated reads are
// skipped, returning nothing, when the session check fails; authenticated
// writes return domain.ErrNoSession without being issued.
type Backend struct {
	gw      ports.Gateway
	session ports.SessionChecker
	log     zerolog.Logger
}

var (
	_ ports.CabinetAPI = (*Backend)(nil)
	_ ports.RecipeAPI  = (*Backend)(nil)
	_ ports.AccountAPI = (*Backend)(nil)
)

// New creates a Backend. session may be nil for account-only use, in which
// case every authenticated read and write is treated as lacking a session.
func New(gw ports.Gateway, session ports.SessionChecker, log zerolog.Logger) *Backend {
	return &Backend{gw: gw, session: session, log: log}
}

func (b *Backend) hasSession(ctx context.Context, endpoint string) bool {
	if b.session != nil && b.session.IsTokenPresentAndWellFormed(ctx) {
		return true
	}
	metrics.GatewaySkippedTotal.WithLabelValues(endpointLabel(endpoint)).Inc()
	b.log.Debug().Str("endpoint", endpoint).Msg("no valid session, call skipped")
	return false
}

// ── Account ──────────────────────────────────────────────────────────────────

func (b *Backend) Login(ctx context.Context, loginID, password string) (string, error) {
	env, err := b.gw.PublicCall(ctx, EndpointLogin, http.MethodPost, loginRequest{LoginID: loginID, Password: password})
	if err != nil {
		return "", err
	}
	if env.Has("token") {
		return env.String("token"), nil
	}
	return "", backendError(env, "message")
}

func (b *Backend) Register(ctx context.Context, username, password, email string) error {
	env, err := b.gw.PublicCall(ctx, EndpointRegister, http.MethodPost, registerRequest{
		Username: username,
		Password: password,
		Email:    email,
	})
	if err != nil {
		return err
	}
	if env.Has("error") {
		return backendError(env, "error")
	}
	return nil
}

func (b *Backend) RequestPasswordReset(ctx context.Context, loginID string) (string, error) {
	env, err := b.gw.PublicCall(ctx, EndpointForgotPassword, http.MethodPost, passwordLinkRequest{LoginID: loginID})
	if err != nil {
		return "", err
	}
	if env.Has("error") {
		return "", backendError(env, "error")
	}
	return env.String("message"), nil
}

func (b *Backend) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	endpoint := EndpointForgotPassword + "/" + resetToken
	env, err := b.gw.PublicCall(ctx, endpoint, http.MethodPost, passwordResetRequest{NewPassword: newPassword})
	if err != nil {
		return err
	}
	if env.Has("error") {
		return backendError(env, "error")
	}
	return nil
}

// WhoAmI returns the user the stored token belongs to. It does not consult
// the session checker; callers perform the structural check first.
func (b *Backend) WhoAmI(ctx context.Context) (*domain.User, error) {
	env, err := b.gw.Call(ctx, EndpointAuthenticate, http.MethodPost, nil)
	if err != nil {
		return nil, err
	}
	if !env.Has("user") {
		return nil, backendError(env, "message")
	}
	return &domain.User{Username: env.String("user")}, nil
}

// ── Ingredients ──────────────────────────────────────────────────────────────

func (b *Backend) AllIngredients(ctx context.Context) (*ports.IngredientSet, error) {
	return b.ingredientSet(ctx, EndpointAllIngredients)
}

func (b *Backend) UserIngredients(ctx context.Context) (*ports.IngredientSet, error) {
	return b.ingredientSet(ctx, EndpointUserIngredients)
}

func (b *Backend) ingredientSet(ctx context.Context, endpoint string) (*ports.IngredientSet, error) {
	if !b.hasSession(ctx, endpoint) {
		return nil, nil
	}
	env, err := b.gw.Call(ctx, endpoint, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	if !env.Has("ingredients") {
		b.log.Warn().Str("endpoint", endpoint).Str("message", env.String("message")).Msg("response carried no ingredients")
		return nil, nil
	}
	var set wireIngredientSet
	if err := env.Decode("ingredients", &set); err != nil {
		return nil, &domain.TransportError{Endpoint: endpoint, Err: err}
	}
	return &ports.IngredientSet{
		Default: toDomainIngredients(set.Default, domain.OriginDefault),
		Custom:  toDomainIngredients(set.Custom, domain.OriginCustom),
	}, nil
}

func (b *Backend) CustomIngredients(ctx context.Context) ([]domain.Ingredient, error) {
	if !b.hasSession(ctx, EndpointCustomIngredients) {
		return nil, nil
	}
	env, err := b.gw.Call(ctx, EndpointCustomIngredients, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	if !env.Has("ingredients") {
		return nil, nil
	}
	var list []wireIngredient
	if err := env.Decode("ingredients", &list); err != nil {
		return nil, &domain.TransportError{Endpoint: EndpointCustomIngredients, Err: err}
	}
	return toDomainIngredients(list, domain.OriginCustom), nil
}

func (b *Backend) UpdateIngredient(ctx context.Context, ing domain.Ingredient) error {
	if !b.hasSession(ctx, EndpointAllIngredients) {
		return domain.ErrNoSession
	}
	env, err := b.gw.Call(ctx, EndpointAllIngredients, http.MethodPatch, updateIngredientRequest{
		Name:       ing.Name,
		Quantity:   ing.Quantity,
		IsFavorite: wireFlag(ing.Favorite),
	})
	if err != nil {
		return err
	}
	if env.Has("error") {
		return backendError(env, "error")
	}
	return nil
}

func (b *Backend) AddCustomIngredient(ctx context.Context, name string, typ domain.IngredientType) (string, error) {
	if !b.hasSession(ctx, EndpointCustomIngredients) {
		return "", domain.ErrNoSession
	}
	env, err := b.gw.Call(ctx, EndpointCustomIngredients, http.MethodPost, customIngredientRequest{
		Name: name,
		Type: string(typ),
	})
	if err != nil {
		return "", err
	}
	if env.Has("message") {
		return env.String("message"), nil
	}
	return "", backendError(env, "error")
}

func (b *Backend) DeleteCustomIngredient(ctx context.Context, name string) error {
	if !b.hasSession(ctx, EndpointCustomIngredients) {
		return domain.ErrNoSession
	}
	env, err := b.gw.Call(ctx, EndpointCustomIngredients, http.MethodDelete, customIngredientRequest{Name: name})
	if err != nil {
		return err
	}
	if env.Has("error") {
		return backendError(env, "error")
	}
	return nil
}

func (b *Backend) DeleteUserIngredients(ctx context.Context, names []string) error {
	if !b.hasSession(ctx, EndpointUserIngredients) {
		return domain.ErrNoSession
	}
	env, err := b.gw.Call(ctx, EndpointUserIngredients, http.MethodDelete, userIngredientsRequest{Ingredients: names})
	if err != nil {
		return err
	}
	if env.Has("error") {
		return backendError(env, "error")
	}
	return nil
}

// ── Recipes ──────────────────────────────────────────────────────────────────

// Recipes fetches one recipe feed. Unknown feed contexts fall back to the
// full recipe list.
func (b *Backend) Recipes(ctx context.Context, feed domain.FeedContext) ([]domain.Recipe, error) {
	endpoint := recipeEndpoint(feed)
	if !b.hasSession(ctx, endpoint) {
		return nil, nil
	}
	env, err := b.gw.Call(ctx, endpoint, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	if !env.Has("recipes") {
		return nil, nil
	}
	var recipes []domain.Recipe
	if err := env.Decode("recipes", &recipes); err != nil {
		return nil, &domain.TransportError{Endpoint: endpoint, Err: err}
	}
	return recipes, nil
}

func recipeEndpoint(feed domain.FeedContext) string {
	switch feed {
	case domain.FeedFilter:
		return EndpointFilteredRecipes
	case domain.FeedPartial:
		return EndpointPartialRecipes
	default:
		return EndpointAllRecipes
	}
}

// backendError builds a *domain.BackendError from the first populated key,
// preferring key and falling back to the other of error/message.
func backendError(env ports.Envelope, key string) error {
	for _, k := range []string{key, "error", "message"} {
		if msg := env.String(k); msg != "" {
			return &domain.BackendError{Message: msg}
		}
	}
	return &domain.BackendError{Message: "unexpected response from server"}
}

