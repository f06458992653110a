package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sdm/cabinet-client/internal/api/metrics"
	"github.com/sdm/cabinet-client/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// ErrClosed is reported to onDone for tasks dispatched after Close.
var ErrClosed = errors.New("dispatcher closed")

type job struct {
	key    string
	name   string
	task   ports.Task
	onDone func(error)
}

// Dispatcher runs fire-and-forget persistence tasks on a fixed set of
// workers. Tasks are routed by consistent hashing on their key, so writes
// for the same ingredient run in dispatch order while writes for different
// ingredients may complete in any order.
type Dispatcher struct {
	workers []chan job
	log     zerolog.Logger

	mu      sync.RWMutex
	closed  bool
	taskCtx context.Context
	pending sync.WaitGroup
	started sync.Once
}

var _ ports.TaskDispatcher = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan job, numWorkers),
		log:     log,
		taskCtx: context.Background(),
	}
	for i := range d.workers {
		d.workers[i] = make(chan job, channelBuffer)
	}
	return d
}

// Start launches the worker goroutines. Tasks run with a context detached
// from ctx's cancellation: tearing a page down never aborts a write that
// is already queued.
func (d *Dispatcher) Start(ctx context.Context) {
	d.started.Do(func() {
		d.mu.Lock()
		d.taskCtx = context.WithoutCancel(ctx)
		d.mu.Unlock()
		for i, ch := range d.workers {
			go d.runWorker(i, ch)
		}
	})
}

// Dispatch queues a task and returns immediately. The call blocks only if
// the worker's buffer is full.
func (d *Dispatcher) Dispatch(key, name string, task ports.Task, onDone func(error)) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Warn().Str("task", name).Str("key", key).Msg("dispatch after close, task dropped")
		if onDone != nil {
			onDone(ErrClosed)
		}
		return
	}

	idx := d.shardIndex(key)
	d.pending.Add(1)
	metrics.DispatcherQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	d.workers[idx] <- job{key: key, name: name, task: task, onDone: onDone}
}

// Wait blocks until every dispatched task has finished.
func (d *Dispatcher) Wait() {
	d.pending.Wait()
}

// Close stops accepting tasks. Workers drain what is already queued.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	for _, ch := range d.workers {
		close(ch)
	}
}

// shardIndex maps a key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(id int, ch <-chan job) {
	workerID := strconv.Itoa(id)
	for j := range ch {
		metrics.DispatcherQueueDepth.WithLabelValues(workerID).Dec()
		d.run(id, j)
	}
}

func (d *Dispatcher) run(id int, j job) {
	defer d.pending.Done()

	d.mu.RLock()
	ctx := d.taskCtx
	d.mu.RUnlock()

	err := j.task(ctx)
	if err != nil {
		metrics.PersistenceFailuresTotal.WithLabelValues(j.name).Inc()
		d.log.Error().Err(err).
			Str("task", j.name).
			Str("key", j.key).
			Int("worker_id", id).
			Msg("background task failed")
	}
	if j.onDone != nil {
		j.onDone(err)
	}
}
