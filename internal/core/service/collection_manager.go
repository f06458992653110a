package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/sdm/cabinet-client/internal/api/metrics"
	"github.com/sdm/cabinet-client/internal/core/domain"
	"github.com/sdm/cabinet-client/internal/core/ports"
)

type pendingKey struct {
	name  string
	field domain.Field
}

// CollectionManager owns the ingredient collections of one cabinet page.
// Mutations are applied locally first; their persistence is dispatched and
// never awaited.
type CollectionManager struct {
	page       domain.PageContext
	cabinet    ports.CabinetAPI
	dispatcher ports.TaskDispatcher
	notifier   ports.Notifier
	cart       *ShoppingListBridge
	policy     ReconcilePolicy
	log        zerolog.Logger
	refetch    singleflight.Group

	mu      sync.Mutex
	coll    domain.Collection
	loaded  bool
	seq     uint64
	pending map[pendingKey]uint64
}

type CollectionOption func(*CollectionManager)

// WithReconcilePolicy replaces the default LastWriteWins policy.
func WithReconcilePolicy(p ReconcilePolicy) CollectionOption {
	return func(m *CollectionManager) {
		if p != nil {
			m.policy = p
		}
	}
}

// WithShoppingList enables AddToCart.
func WithShoppingList(b *ShoppingListBridge) CollectionOption {
	return func(m *CollectionManager) { m.cart = b }
}

// WithNotifier sets where backend errors of AddCustomIngredient are shown.
func WithNotifier(n ports.Notifier) CollectionOption {
	return func(m *CollectionManager) { m.notifier = n }
}

func NewCollectionManager(page domain.PageContext, cabinet ports.CabinetAPI, dispatcher ports.TaskDispatcher, log zerolog.Logger, opts ...CollectionOption) *CollectionManager {
	m := &CollectionManager{
		page:       page,
		cabinet:    cabinet,
		dispatcher: dispatcher,
		policy:     LastWriteWins{},
		log:        log.With().Str("page", string(page)).Logger(),
		coll:       domain.NewCollection(nil, nil),
		pending:    make(map[pendingKey]uint64),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *CollectionManager) Page() domain.PageContext {
	return m.page
}

// Load fetches the page's collections once. The browse page reads the
// user's inventory; every other page reads the global catalog. A second
// call returns domain.ErrAlreadyLoaded without fetching.
func (m *CollectionManager) Load(ctx context.Context) error {
	m.mu.Lock()
	if m.loaded {
		m.mu.Unlock()
		return domain.ErrAlreadyLoaded
	}
	m.loaded = true
	m.mu.Unlock()

	set, err := m.fetch(ctx)
	if err != nil {
		m.log.Error().Err(err).Msg("failed to load ingredients")
		return fmt.Errorf("load %s ingredients: %w", m.page, err)
	}
	if set == nil {
		return nil
	}

	m.mu.Lock()
	m.coll = domain.NewCollection(slices.Clone(set.Default), slices.Clone(set.Custom))
	m.mu.Unlock()
	return nil
}

func (m *CollectionManager) fetch(ctx context.Context) (*ports.IngredientSet, error) {
	if m.page == domain.PageBrowse {
		return m.cabinet.UserIngredients(ctx)
	}
	return m.cabinet.AllIngredients(ctx)
}

// Snapshot returns a copy of all three collections.
func (m *CollectionManager) Snapshot() domain.Collection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.coll.Clone()
}

// View returns the rows the page displays: the custom collection on the
// custom page, All everywhere else.
func (m *CollectionManager) View() []domain.Ingredient {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.page == domain.PageCustom {
		return slices.Clone(m.coll.Custom)
	}
	return slices.Clone(m.coll.All)
}

// Filter returns the page's rows of one ingredient type.
func (m *CollectionManager) Filter(typ domain.IngredientType) []domain.Ingredient {
	var out []domain.Ingredient
	for _, ing := range m.View() {
		if ing.Type == typ {
			out = append(out, ing)
		}
	}
	return out
}

// Update changes one field of the named ingredient. value must be a float64
// for FieldQuantity and a bool for FieldFavorite.
func (m *CollectionManager) Update(name string, field domain.Field, value any) error {
	switch field {
	case domain.FieldQuantity:
		q, ok := value.(float64)
		if !ok {
			return fmt.Errorf("%w: quantity must be a number", domain.ErrInvalidInput)
		}
		return m.UpdateQuantity(name, q)
	case domain.FieldFavorite:
		f, ok := value.(bool)
		if !ok {
			return fmt.Errorf("%w: favorite must be a boolean", domain.ErrInvalidInput)
		}
		return m.SetFavorite(name, f)
	}
	return fmt.Errorf("%w: unknown field %q", domain.ErrInvalidInput, field)
}

// UpdateQuantity sets the quantity and dispatches the write without
// awaiting it. A negative quantity is dropped: nothing changes locally and
// no call is made.
func (m *CollectionManager) UpdateQuantity(name string, quantity float64) error {
	if quantity < 0 {
		metrics.MutationsRejectedTotal.WithLabelValues("negative_quantity").Inc()
		return domain.ErrNegativeQuantity
	}
	return m.mutate(name, domain.FieldQuantity, func(ing *domain.Ingredient) { ing.Quantity = quantity })
}

// SetFavorite sets the favorite flag and dispatches the write without
// awaiting it.
func (m *CollectionManager) SetFavorite(name string, favorite bool) error {
	return m.mutate(name, domain.FieldFavorite, func(ing *domain.Ingredient) { ing.Favorite = favorite })
}

// ToggleFavorite flips the favorite flag and dispatches the write without
// awaiting it.
func (m *CollectionManager) ToggleFavorite(name string) error {
	return m.mutate(name, domain.FieldFavorite, func(ing *domain.Ingredient) { ing.Favorite = !ing.Favorite })
}

func (m *CollectionManager) mutate(name string, field domain.Field, apply func(*domain.Ingredient)) error {
	m.mu.Lock()
	current, ok := m.find(name)
	if !ok {
		m.mu.Unlock()
		metrics.MutationsRejectedTotal.WithLabelValues("unknown_ingredient").Inc()
		return fmt.Errorf("%w: %s", domain.ErrUnknownIngredient, name)
	}

	previous := current
	updated := current
	apply(&updated)
	m.replace(name, func(ing *domain.Ingredient) { apply(ing) })

	m.seq++
	seq := m.seq
	key := pendingKey{name: name, field: field}
	m.pending[key] = seq
	m.mu.Unlock()

	metrics.OptimisticMutationsTotal.WithLabelValues("update").Inc()
	m.log.Debug().Str("ingredient", name).Str("field", string(field)).Uint64("seq", seq).Msg("optimistic update")

	m.dispatcher.Dispatch(name, "update_ingredient",
		func(ctx context.Context) error {
			return m.cabinet.UpdateIngredient(ctx, updated)
		},
		func(err error) {
			m.settle(key, seq, previous, err)
		},
	)
	return nil
}

// settle hands a finished write to the reconcile policy.
func (m *CollectionManager) settle(key pendingKey, seq uint64, previous domain.Ingredient, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	latest := m.pending[key] == seq
	if latest {
		delete(m.pending, key)
	}
	outcome := WriteOutcome{Ingredient: key.name, Field: key.field, Seq: seq, Latest: latest, Err: err}
	if !m.policy.Rollback(outcome) {
		return
	}

	m.log.Warn().Err(err).Str("ingredient", key.name).Str("field", string(key.field)).Msg("write failed, rolling back")
	m.replace(key.name, func(ing *domain.Ingredient) {
		switch key.field {
		case domain.FieldQuantity:
			ing.Quantity = previous.Quantity
		case domain.FieldFavorite:
			ing.Favorite = previous.Favorite
		}
	})
}

// DeleteCustomIngredient removes name from the local collections at once
// and then dispatches two independent writes: removal from the custom
// ingredient store and from the user's inventory. Neither is awaited and a
// failure of either leaves the local state as it is.
func (m *CollectionManager) DeleteCustomIngredient(name string) error {
	m.mu.Lock()
	before := len(m.coll.All)
	match := func(ing domain.Ingredient) bool { return ing.Name == name }
	m.coll.Custom = slices.DeleteFunc(m.coll.Custom, match)
	if m.page == domain.PageBrowse {
		m.coll.Default = slices.DeleteFunc(m.coll.Default, match)
	}
	m.coll.Derive()
	removed := len(m.coll.All) < before
	m.mu.Unlock()

	if !removed {
		metrics.MutationsRejectedTotal.WithLabelValues("unknown_ingredient").Inc()
		return fmt.Errorf("%w: %s", domain.ErrUnknownIngredient, name)
	}
	metrics.OptimisticMutationsTotal.WithLabelValues("delete").Inc()

	m.dispatcher.Dispatch(name, "delete_custom_ingredient", func(ctx context.Context) error {
		return m.cabinet.DeleteCustomIngredient(ctx, name)
	}, nil)
	m.dispatcher.Dispatch(name, "delete_user_ingredient", func(ctx context.Context) error {
		return m.cabinet.DeleteUserIngredients(ctx, []string{name})
	}, nil)
	return nil
}

// AddCustomIngredient creates a custom ingredient and, once the backend
// accepts it, re-fetches the collection and replaces Custom. Nothing is
// applied optimistically since the backend normalizes names. A backend
// rejection is shown through the notifier.
func (m *CollectionManager) AddCustomIngredient(ctx context.Context, name, typ string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: ingredient name is required", domain.ErrInvalidInput)
	}
	t, err := domain.ParseIngredientType(typ)
	if err != nil {
		return err
	}

	msg, err := m.cabinet.AddCustomIngredient(ctx, name, t)
	if err != nil {
		var be *domain.BackendError
		if errors.As(err, &be) && m.notifier != nil {
			m.notifier.Alert(be.Message)
		}
		return err
	}
	m.log.Info().Str("ingredient", name).Str("message", msg).Msg("custom ingredient added")

	v, err, _ := m.refetch.Do(string(m.page), func() (any, error) {
		return m.fetch(ctx)
	})
	if err != nil {
		m.log.Error().Err(err).Msg("refetch after add failed")
		return err
	}
	set, _ := v.(*ports.IngredientSet)
	if set == nil {
		return nil
	}

	m.mu.Lock()
	m.coll.Custom = slices.Clone(set.Custom)
	m.coll.Derive()
	m.mu.Unlock()
	return nil
}

// AddToCart sends "<quantity> <name>" to the shopping list. Only the browse
// page offers it.
func (m *CollectionManager) AddToCart(name string) error {
	if m.page != domain.PageBrowse {
		return domain.ErrNotBrowsePage
	}
	if m.cart == nil {
		return fmt.Errorf("%w: shopping list not configured", domain.ErrInvalidInput)
	}

	m.mu.Lock()
	ing, ok := m.find(name)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownIngredient, name)
	}

	m.cart.AddIngredient(strconv.FormatFloat(ing.Quantity, 'f', -1, 64) + " " + ing.Name)
	return nil
}

// find returns the first ingredient named name. Caller holds mu.
func (m *CollectionManager) find(name string) (domain.Ingredient, bool) {
	i := slices.IndexFunc(m.coll.All, func(ing domain.Ingredient) bool { return ing.Name == name })
	if i < 0 {
		return domain.Ingredient{}, false
	}
	return m.coll.All[i], true
}

// replace applies fn to every copy of name in the sources and re-derives
// All. Caller holds mu.
func (m *CollectionManager) replace(name string, fn func(*domain.Ingredient)) {
	for _, src := range [][]domain.Ingredient{m.coll.Default, m.coll.Custom} {
		for i := range src {
			if src[i].Name == name {
				fn(&src[i])
			}
		}
	}
	m.coll.Derive()
}
