package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdm/cabinet-client/internal/core/domain"
)

func TestFeedLoader_EmptyResultPolicy(t *testing.T) {
	api := &stubRecipes{}
	loader := NewFeedLoader(api, zerolog.Nop())
	ctx := context.Background()

	for _, feed := range []domain.FeedContext{domain.FeedFilter, domain.FeedPartial} {
		view, err := loader.Load(ctx, feed)
		require.NoError(t, err, feed)
		assert.Equal(t, domain.NotEnoughIngredientsMessage, view.Message, feed)
		assert.False(t, view.ShowGrid(), feed)
	}

	view, err := loader.Load(ctx, domain.FeedAll)
	require.NoError(t, err)
	assert.Empty(t, view.Message)
	assert.True(t, view.ShowGrid())
}

func TestFeedLoader_ReplacesState(t *testing.T) {
	api := &stubRecipes{result: map[domain.FeedContext][]domain.Recipe{
		domain.FeedAll:    {{Name: "Smoothie"}, {Name: "Lemonade"}},
		domain.FeedFilter: {{Name: "Lemonade"}},
	}}
	loader := NewFeedLoader(api, zerolog.Nop())
	ctx := context.Background()

	_, err := loader.Load(ctx, domain.FeedAll)
	require.NoError(t, err)
	_, err = loader.Load(ctx, domain.FeedFilter)
	require.NoError(t, err)

	cur := loader.Current()
	assert.Equal(t, domain.FeedFilter, cur.Context)
	require.Len(t, cur.Recipes, 1)
	assert.Equal(t, "Lemonade", cur.Recipes[0].Name)
	assert.Len(t, api.calls, 2)
}

func TestFeedLoader_UnknownFeedFallsBackToAll(t *testing.T) {
	api := &stubRecipes{}
	loader := NewFeedLoader(api, zerolog.Nop())

	view, err := loader.Load(context.Background(), domain.FeedContext("weird"))
	require.NoError(t, err)
	assert.Equal(t, domain.FeedAll, view.Context)
	require.NotEmpty(t, api.calls)
	assert.Equal(t, domain.FeedAll, api.calls[0])
}

func TestFeedLoader_Error(t *testing.T) {
	boom := errors.New("boom")
	loader := NewFeedLoader(&stubRecipes{err: boom}, zerolog.Nop())

	_, err := loader.Load(context.Background(), domain.FeedAll)
	assert.ErrorIs(t, err, boom)
}
