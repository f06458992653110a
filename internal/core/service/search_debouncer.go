package service

import (
	"sync"
	"time"

	"github.com/sdm/cabinet-client/internal/api/metrics"
	"github.com/sdm/cabinet-client/internal/core/domain"
)

// DefaultSearchDebounce is the quiet period after the last keystroke before
// the search text is committed.
const DefaultSearchDebounce = 500 * time.Millisecond

// Timer is the handle returned by an AfterFunc.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SearchDebouncer collapses bursts of search input into a single commit.
// Every Change cancels the pending timer and starts a new one; only the
// text present when a timer fires is committed.
type SearchDebouncer struct {
	window    time.Duration
	afterFunc AfterFunc
	now       func() time.Time
	onCommit  func(domain.SearchState)

	mu      sync.Mutex
	pending Timer
	live    string
	gen     uint64
	state   domain.SearchState
}

type DebouncerOption func(*SearchDebouncer)

// WithAfterFunc replaces time.AfterFunc, letting tests fire timers by hand.
func WithAfterFunc(f AfterFunc) DebouncerOption {
	return func(d *SearchDebouncer) { d.afterFunc = f }
}

// WithClock sets the source of LastCommittedAt.
func WithClock(now func() time.Time) DebouncerOption {
	return func(d *SearchDebouncer) { d.now = now }
}

// WithOnCommit registers a callback run after each commit, outside the lock.
func WithOnCommit(f func(domain.SearchState)) DebouncerOption {
	return func(d *SearchDebouncer) { d.onCommit = f }
}

// WithInitialText seeds the committed state, e.g. from a ?search= query.
func WithInitialText(text string) DebouncerOption {
	return func(d *SearchDebouncer) {
		d.live = text
		d.state.Text = text
	}
}

func NewSearchDebouncer(window time.Duration, opts ...DebouncerOption) *SearchDebouncer {
	if window <= 0 {
		window = DefaultSearchDebounce
	}
	d := &SearchDebouncer{
		window:    window,
		afterFunc: realAfterFunc,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Change records new live text and restarts the quiet period.
func (d *SearchDebouncer) Change(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil {
		d.pending.Stop()
	}
	d.live = text
	d.gen++
	gen := d.gen
	d.pending = d.afterFunc(d.window, func() { d.fire(gen) })
}

// fire commits when gen is still the latest timer. A timer that was
// stopped too late to prevent it from running is ignored here.
func (d *SearchDebouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.pending == nil {
		d.mu.Unlock()
		return
	}
	state := d.commitLocked()
	d.mu.Unlock()
	d.notify(state)
}

// Flush commits the live text now, cancelling any pending timer.
func (d *SearchDebouncer) Flush() {
	d.mu.Lock()
	if d.pending == nil {
		d.mu.Unlock()
		return
	}
	d.pending.Stop()
	state := d.commitLocked()
	d.mu.Unlock()
	d.notify(state)
}

// Stop cancels the pending timer without committing.
func (d *SearchDebouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
	d.gen++
}

// Committed returns the last committed search state.
func (d *SearchDebouncer) Committed() domain.SearchState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Live returns the most recent input, committed or not.
func (d *SearchDebouncer) Live() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.live
}

func (d *SearchDebouncer) commitLocked() domain.SearchState {
	d.pending = nil
	d.gen++
	d.state = domain.SearchState{Text: d.live, LastCommittedAt: d.now()}
	metrics.SearchCommitsTotal.Inc()
	return d.state
}

func (d *SearchDebouncer) notify(state domain.SearchState) {
	if d.onCommit != nil {
		d.onCommit(state)
	}
}
