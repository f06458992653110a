package devapi

import (
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sdm/cabinet-client/internal/core/domain"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrIngredientExists   = errors.New("ingredient already exists")
	ErrIngredientNotFound = errors.New("ingredient not found")
	ErrInvalidType        = errors.New("invalid ingredient type")
	ErrInvalidResetLink   = errors.New("invalid or expired reset link")
	ErrNegativeQuantity   = errors.New("quantity cannot be negative")
)

type account struct {
	username string
	email    string
	hash     []byte
}

// CatalogItem is an ingredient definition without per-user state.
type CatalogItem struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type entry struct {
	quantity float64
	favorite bool
}

// IngredientRow is an ingredient as the backend reports it, favorite flag
// included.
type IngredientRow struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Quantity float64 `json:"quantity"`
	Favorite string  `json:"favorite"`
}

// Store is the in-memory state of the development backend.
type Store struct {
	mu        sync.RWMutex
	accounts  map[string]*account
	resets    map[string]string
	catalog   []CatalogItem
	custom    map[string][]CatalogItem
	inventory map[string]map[string]entry
	recipes   []domain.Recipe
}

func NewStore() *Store {
	return &Store{
		accounts:  make(map[string]*account),
		resets:    make(map[string]string),
		catalog:   slices.Clone(seedCatalog),
		custom:    make(map[string][]CatalogItem),
		inventory: make(map[string]map[string]entry),
		recipes:   slices.Clone(seedRecipes),
	}
}

// ── Accounts ─────────────────────────────────────────────────────────────────

func (s *Store) Register(username, password, email string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(username)
	if _, ok := s.accounts[key]; ok {
		return ErrUserExists
	}
	for _, a := range s.accounts {
		if strings.EqualFold(a.email, email) {
			return ErrUserExists
		}
	}
	s.accounts[key] = &account{username: username, email: email, hash: hash}
	return nil
}

// Authenticate accepts a username or an email as loginID.
func (s *Store) Authenticate(loginID, password string) (string, error) {
	s.mu.RLock()
	a := s.lookup(loginID)
	s.mu.RUnlock()
	if a == nil {
		return "", ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(a.hash, []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}
	return a.username, nil
}

// CreateResetToken issues a one-time password reset token. Unknown login
// ids get no token; the caller answers the same way in both cases.
func (s *Store) CreateResetToken(loginID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.lookup(loginID)
	if a == nil {
		return "", false
	}
	token := uuid.NewString()
	s.resets[token] = strings.ToLower(a.username)
	return token, true
}

func (s *Store) ResetPassword(token, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.MinCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.resets[token]
	if !ok {
		return ErrInvalidResetLink
	}
	delete(s.resets, token)
	s.accounts[key].hash = hash
	return nil
}

// lookup finds an account by username or email. Caller holds mu.
func (s *Store) lookup(loginID string) *account {
	if a, ok := s.accounts[strings.ToLower(loginID)]; ok {
		return a
	}
	for _, a := range s.accounts {
		if strings.EqualFold(a.email, loginID) {
			return a
		}
	}
	return nil
}

// ── Ingredients ──────────────────────────────────────────────────────────────

// Catalog returns every default ingredient and the user's custom ones,
// overlaid with the user's quantities and favorites.
func (s *Store) Catalog(user string) (def, custom []IngredientRow) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv := s.inventory[strings.ToLower(user)]
	return rows(s.catalog, inv, false), rows(s.custom[strings.ToLower(user)], inv, false)
}

// Inventory returns only what the user holds or has marked as favorite.
func (s *Store) Inventory(user string) (def, custom []IngredientRow) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv := s.inventory[strings.ToLower(user)]
	return rows(s.catalog, inv, true), rows(s.custom[strings.ToLower(user)], inv, true)
}

func (s *Store) CustomIngredients(user string) []CatalogItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Clone(s.custom[strings.ToLower(user)])
	if out == nil {
		out = []CatalogItem{}
	}
	return out
}

func (s *Store) UpdateIngredient(user, name string, quantity float64, favorite bool) error {
	if quantity < 0 {
		return ErrNegativeQuantity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(user)
	it, ok := s.find(key, name)
	if !ok {
		return ErrIngredientNotFound
	}
	if s.inventory[key] == nil {
		s.inventory[key] = make(map[string]entry)
	}
	s.inventory[key][it.Name] = entry{quantity: quantity, favorite: favorite}
	return nil
}

// AddCustomIngredient stores name and type capitalized.
func (s *Store) AddCustomIngredient(user, name, typ string) error {
	t, err := domain.ParseIngredientType(typ)
	if err != nil {
		return ErrInvalidType
	}
	name = capitalize(strings.TrimSpace(name))

	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(user)
	if _, ok := s.find(key, name); ok {
		return ErrIngredientExists
	}
	s.custom[key] = append(s.custom[key], CatalogItem{Name: name, Type: capitalize(string(t))})
	return nil
}

func (s *Store) DeleteCustomIngredient(user, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(user)
	before := len(s.custom[key])
	s.custom[key] = slices.DeleteFunc(s.custom[key], func(it CatalogItem) bool { return strings.EqualFold(it.Name, name) })
	if len(s.custom[key]) == before {
		return ErrIngredientNotFound
	}
	return nil
}

// RemoveFromInventory clears quantity and favorite of each name.
func (s *Store) RemoveFromInventory(user string, names []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv := s.inventory[strings.ToLower(user)]
	for _, n := range names {
		for k := range inv {
			if strings.EqualFold(k, n) {
				delete(inv, k)
			}
		}
	}
}

// find looks name up in the catalog and the user's custom list. Caller
// holds mu.
func (s *Store) find(user, name string) (CatalogItem, bool) {
	match := func(it CatalogItem) bool { return strings.EqualFold(it.Name, name) }
	if i := slices.IndexFunc(s.catalog, match); i >= 0 {
		return s.catalog[i], true
	}
	if i := slices.IndexFunc(s.custom[user], match); i >= 0 {
		return s.custom[user][i], true
	}
	return CatalogItem{}, false
}

// ── Recipes ──────────────────────────────────────────────────────────────────

// Recipes returns every recipe.
func (s *Store) Recipes() []domain.Recipe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.recipes)
}

// MatchRecipes returns the recipes whose ingredients the user holds: all
// of them when full is true, at least one otherwise.
func (s *Store) MatchRecipes(user string, full bool) []domain.Recipe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	held := make(map[string]bool)
	for name, e := range s.inventory[strings.ToLower(user)] {
		if e.quantity > 0 {
			held[strings.ToLower(name)] = true
		}
	}

	out := []domain.Recipe{}
	for _, r := range s.recipes {
		have := 0
		for _, ing := range r.Ingredients {
			if held[strings.ToLower(ing)] {
				have++
			}
		}
		if (full && have == len(r.Ingredients)) || (!full && have > 0) {
			out = append(out, r)
		}
	}
	return out
}

func rows(items []CatalogItem, inv map[string]entry, heldOnly bool) []IngredientRow {
	out := []IngredientRow{}
	for _, it := range items {
		e, ok := inv[it.Name]
		if heldOnly && (!ok || (e.quantity <= 0 && !e.favorite)) {
			continue
		}
		fav := "False"
		if e.favorite {
			fav = "True"
		}
		out = append(out, IngredientRow{Name: it.Name, Type: it.Type, Quantity: e.quantity, Favorite: fav})
	}
	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
