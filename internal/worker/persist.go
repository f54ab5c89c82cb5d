// Package worker runs the asynchronous legs of the app: the in-process
// persistence queue behind optimistic UI mutations, and the mirror
// applier that replays queued mutations against a second store.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	ports "kakeibo/internal/sheets"
)

// Task is one unit of deferred persistence. Run executes against the
// backing store; Name shows up in logs.
type Task struct {
	Name string
	Run  func(ctx context.Context, store ports.Store) error

	// Done, when non-nil, receives the final error (nil on success)
	// exactly once. The channel must have capacity 1.
	Done chan error
}

// PersistConfig holds tuning for the persistence queue.
type PersistConfig struct {
	// QueueSize is the buffered channel capacity (default: 64).
	QueueSize int

	// TaskTimeout bounds the single attempt a task gets (default: 15s).
	TaskTimeout time.Duration
}

// DefaultPersistConfig returns sensible defaults.
func DefaultPersistConfig() PersistConfig {
	return PersistConfig{
		QueueSize:   64,
		TaskTimeout: 15 * time.Second,
	}
}

// PersistWorker drains a task queue against the backing store. The UI
// path applies mutations locally first and enqueues the durable write
// here, so a slow spreadsheet round-trip never blocks a request.
type PersistWorker struct {
	store  ports.Store
	config PersistConfig
	tasks  chan Task

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewPersistWorker creates a persistence worker over the given store.
func NewPersistWorker(store ports.Store, config PersistConfig) *PersistWorker {
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultPersistConfig().QueueSize
	}
	if config.TaskTimeout <= 0 {
		config.TaskTimeout = DefaultPersistConfig().TaskTimeout
	}
	return &PersistWorker{
		store:  store,
		config: config,
		tasks:  make(chan Task, config.QueueSize),
	}
}

// Enqueue queues a task without blocking. Returns false when the queue
// is full; the task is dropped and the caller decides what to surface.
func (w *PersistWorker) Enqueue(task Task) bool {
	select {
	case w.tasks <- task:
		return true
	default:
		slog.Warn("Persistence queue full, dropping task", "task", task.Name)
		if task.Done != nil {
			task.Done <- fmt.Errorf("persistence queue full")
		}
		return false
	}
}

// Start begins the drain loop. Returns an error if already running.
func (w *PersistWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("persist worker is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	// The loop runs until Stop, detached from the caller's cancellation,
	// so tasks queued before a shutdown signal still drain.
	go w.runLoop(context.WithoutCancel(ctx))

	slog.InfoContext(ctx, "Persist worker started",
		"queue_size", w.config.QueueSize)
	return nil
}

// Stop signals the loop to finish and waits for it, draining what is
// already queued.
func (w *PersistWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)

	select {
	case <-w.doneCh:
		slog.InfoContext(ctx, "Persist worker stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Persist worker stop timed out")
		return ctx.Err()
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
	return nil
}

// IsRunning returns whether the worker loop is active.
func (w *PersistWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *PersistWorker) runLoop(ctx context.Context) {
	defer close(w.doneCh)

	for {
		select {
		case <-w.stopCh:
			// Drain what is already queued before exiting.
			for {
				select {
				case task := <-w.tasks:
					w.process(ctx, task)
				default:
					return
				}
			}
		case task := <-w.tasks:
			w.process(ctx, task)
		}
	}
}

// process runs a task exactly once. The queue is fire-and-forget: a
// failed write is logged and reported on Done, never replayed, so the
// store sees each mutation at most one time.
func (w *PersistWorker) process(ctx context.Context, task Task) {
	taskCtx, cancel := context.WithTimeout(ctx, w.config.TaskTimeout)
	err := task.Run(taskCtx, w.store)
	cancel()

	if err != nil {
		slog.ErrorContext(ctx, "Persistence task failed",
			"task", task.Name,
			"error", err)
	}
	if task.Done != nil {
		task.Done <- err
	}
}
