package ports

import (
	"context"

	"github.com/sdm/cabinet-client/internal/core/domain"
)

// Task is a unit of fire-and-forget work.
type Task func(ctx context.Context) error

// TaskDispatcher runs tasks in the background without the caller awaiting
// them. Tasks sharing a key run in dispatch order; the outcome of a task is
// reported to onDone when it is non-nil.
type TaskDispatcher interface {
	Dispatch(key, name string, task Task, onDone func(error))
}

// CommandQueue is the external shopping list widget's queue. Pushed
// commands run once the widget is ready, in push order, exactly once.
type CommandQueue interface {
	Push(cmd domain.ShoppingListCommand)
}
