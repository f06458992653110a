package shoppinglist

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sdm/cabinet-client/internal/api/metrics"
	"github.com/sdm/cabinet-client/internal/core/domain"
	"github.com/sdm/cabinet-client/internal/core/ports"
)

// Widget is an in-process shopping list that initializes asynchronously.
// Commands pushed before it is ready are buffered; once ready, a single
// runner goroutine executes them in push order, each exactly once.
type Widget struct {
	log zerolog.Logger

	mu      sync.Mutex
	queue   []domain.ShoppingListCommand
	ready   bool
	started bool
	stopped bool
	wake    chan struct{}
	pending sync.WaitGroup

	stateMu   sync.Mutex
	listeners map[string]string
	items     []string
}

var (
	_ ports.CommandQueue        = (*Widget)(nil)
	_ domain.ShoppingListWidget = (*Widget)(nil)
)

func NewWidget(log zerolog.Logger) *Widget {
	return &Widget{
		log:       log,
		wake:      make(chan struct{}, 1),
		listeners: make(map[string]string),
	}
}

// Push enqueues a command. It never blocks on readiness. Commands pushed
// after the runner has stopped are dropped.
func (w *Widget) Push(cmd domain.ShoppingListCommand) {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		w.dropped(cmd)
		return
	}
	w.queue = append(w.queue, cmd)
	w.pending.Add(1)
	w.mu.Unlock()

	metrics.ShoppingQueueDepth.Inc()
	w.signal()
}

// Init starts initialization in the background. After delay the widget
// becomes ready and begins draining the queue. The runner stops when ctx
// is cancelled; commands still queued at that point are dropped unrun.
func (w *Widget) Init(ctx context.Context, delay time.Duration) {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()

	go w.run(ctx, delay)
}

// Ready reports whether initialization has finished.
func (w *Widget) Ready() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ready
}

// Wait blocks until every pushed command has been executed or dropped.
func (w *Widget) Wait() {
	w.pending.Wait()
}

func (w *Widget) signal() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Widget) run(ctx context.Context, delay time.Duration) {
	if delay > 0 {
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			w.stop()
			return
		case <-t.C:
		}
	}

	w.mu.Lock()
	w.ready = true
	w.mu.Unlock()
	w.log.Debug().Msg("shopping list widget ready")

	for {
		for {
			cmd, ok := w.next()
			if !ok {
				break
			}
			w.execute(cmd)
		}

		select {
		case <-ctx.Done():
			w.stop()
			return
		case <-w.wake:
		}
	}
}

func (w *Widget) next() (domain.ShoppingListCommand, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.queue) == 0 {
		return domain.ShoppingListCommand{}, false
	}
	cmd := w.queue[0]
	w.queue[0] = domain.ShoppingListCommand{}
	w.queue = w.queue[1:]
	return cmd, true
}

// stop marks the runner as gone and releases everything still queued.
func (w *Widget) stop() {
	w.mu.Lock()
	w.stopped = true
	rest := w.queue
	w.queue = nil
	w.mu.Unlock()

	for _, cmd := range rest {
		metrics.ShoppingQueueDepth.Dec()
		w.dropped(cmd)
		w.pending.Done()
	}
}

func (w *Widget) dropped(cmd domain.ShoppingListCommand) {
	metrics.ShoppingCommandsTotal.WithLabelValues(string(cmd.Kind), "dropped").Inc()
	w.log.Warn().Str("command_id", cmd.ID).Str("kind", string(cmd.Kind)).Msg("shopping list command dropped")
}

func (w *Widget) execute(cmd domain.ShoppingListCommand) {
	defer w.pending.Done()
	defer metrics.ShoppingQueueDepth.Dec()

	defer func() {
		if r := recover(); r != nil {
			metrics.ShoppingCommandsTotal.WithLabelValues(string(cmd.Kind), "failed").Inc()
			w.log.Error().Interface("panic", r).Str("command_id", cmd.ID).Msg("shopping list command panicked")
		}
	}()

	if cmd.Run != nil {
		cmd.Run(w)
	}
	metrics.ShoppingCommandsTotal.WithLabelValues(string(cmd.Kind), "executed").Inc()
	w.log.Debug().Str("command_id", cmd.ID).Str("kind", string(cmd.Kind)).Msg("shopping list command executed")
}

// AddClickListener binds an element id to an action.
func (w *Widget) AddClickListener(elementID, action string) {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()
	w.listeners[elementID] = action
}

// AddProductsToList appends products to the list.
func (w *Widget) AddProductsToList(products []string) {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()
	w.items = append(w.items, products...)
}

// Click returns the action bound to elementID.
func (w *Widget) Click(elementID string) (string, bool) {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()
	action, ok := w.listeners[elementID]
	return action, ok
}

// Items returns the products on the list in insertion order.
func (w *Widget) Items() []string {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()
	return slices.Clone(w.items)
}
