package service

import (
	"slices"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sdm/cabinet-client/internal/api/metrics"
	"github.com/sdm/cabinet-client/internal/core/domain"
	"github.com/sdm/cabinet-client/internal/core/ports"
)

// ShoppingListBridge turns shopping list intents into commands on the
// widget's queue. It never checks whether the widget is ready; the queue
// runs commands in push order once it is.
type ShoppingListBridge struct {
	queue ports.CommandQueue
	log   zerolog.Logger
}

func NewShoppingListBridge(queue ports.CommandQueue, log zerolog.Logger) *ShoppingListBridge {
	return &ShoppingListBridge{queue: queue, log: log}
}

// ViewList queues a command binding the list anchor to the view action.
func (b *ShoppingListBridge) ViewList() string {
	return b.push(domain.CommandViewList, nil, func(w domain.ShoppingListWidget) {
		w.AddClickListener(domain.ShoppingListAnchorID, domain.ActionViewList)
	})
}

// AddIngredients queues one command adding items to the list, in order.
// The command holds its own copy of items.
func (b *ShoppingListBridge) AddIngredients(items ...string) string {
	products := slices.Clone(items)
	if products == nil {
		products = []string{}
	}
	return b.push(domain.CommandAddIngredients, products, func(w domain.ShoppingListWidget) {
		w.AddProductsToList(products)
	})
}

// AddIngredient queues a one-element add command.
func (b *ShoppingListBridge) AddIngredient(item string) string {
	return b.AddIngredients(item)
}

func (b *ShoppingListBridge) push(kind domain.CommandKind, products []string, run func(domain.ShoppingListWidget)) string {
	cmd := domain.ShoppingListCommand{
		ID:       uuid.NewString(),
		Kind:     kind,
		Products: products,
		Run:      run,
	}
	b.queue.Push(cmd)
	metrics.ShoppingCommandsTotal.WithLabelValues(string(kind), "queued").Inc()
	b.log.Debug().Str("command_id", cmd.ID).Str("kind", string(kind)).Strs("products", products).Msg("shopping list command queued")
	return cmd.ID
}
