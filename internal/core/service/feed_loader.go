package service

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sdm/cabinet-client/internal/core/domain"
	"github.com/sdm/cabinet-client/internal/core/ports"
)

// FeedLoader fetches one recipe feed and holds the result.
type FeedLoader struct {
	recipes ports.RecipeAPI
	log     zerolog.Logger

	mu   sync.Mutex
	view domain.FeedView
}

func NewFeedLoader(recipes ports.RecipeAPI, log zerolog.Logger) *FeedLoader {
	return &FeedLoader{recipes: recipes, log: log}
}

// Load issues exactly one fetch for feed and replaces the held recipes with
// its result. The cabinet-filtered feeds render a message instead of an
// empty grid; the full feed renders an empty grid.
func (l *FeedLoader) Load(ctx context.Context, feed domain.FeedContext) (domain.FeedView, error) {
	switch feed {
	case domain.FeedAll, domain.FeedFilter, domain.FeedPartial:
	default:
		l.log.Warn().Str("feed", string(feed)).Msg("unknown feed, showing all recipes")
		feed = domain.FeedAll
	}

	recipes, err := l.recipes.Recipes(ctx, feed)
	if err != nil {
		l.log.Error().Err(err).Str("feed", string(feed)).Msg("failed to load recipes")
		return domain.FeedView{}, fmt.Errorf("load %s recipes: %w", feed, err)
	}

	view := domain.FeedView{Context: feed, Recipes: slices.Clone(recipes)}
	if len(recipes) == 0 && feed != domain.FeedAll {
		view.Message = domain.NotEnoughIngredientsMessage
	}

	l.mu.Lock()
	l.view = view
	l.mu.Unlock()
	return view, nil
}

// Current returns the last loaded view.
func (l *FeedLoader) Current() domain.FeedView {
	l.mu.Lock()
	defer l.mu.Unlock()
	v := l.view
	v.Recipes = slices.Clone(v.Recipes)
	return v
}
