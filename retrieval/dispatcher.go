package retrieval

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type job struct {
	name string
	fn   func(context.Context) error
}

// Dispatcher runs indexing and deletion work off the request path. Jobs are
// best-effort, at-most-once: a failed job is logged with its name and source
// id and dropped, never retried, never surfaced to the user. Enqueue never
// blocks; when the buffer is full the job is dropped instead.
type Dispatcher struct {
	jobs   chan job
	wg     sync.WaitGroup
	logger *slog.Logger
}

func NewDispatcher(buffer int) *Dispatcher {
	return &Dispatcher{
		jobs:   make(chan job, buffer),
		logger: slog.Default(),
	}
}

func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go d.run()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for j := range d.jobs {
		// Background work is deliberately not bound to the request timeout.
		if err := j.fn(context.Background()); err != nil {
			d.logger.Error("background job failed", "job", j.name, "error", err)
		}
	}
}

func (d *Dispatcher) Enqueue(name string, fn func(context.Context) error) {
	select {
	case d.jobs <- job{name: name, fn: fn}:
	default:
		d.logger.Warn("background queue full, dropping job", "job", name)
	}
}

// Stop closes the queue and waits for in-flight jobs to drain, bounded by a
// shutdown timeout.
func (d *Dispatcher) Stop() {
	close(d.jobs)

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("background dispatcher stopped")
	case <-time.After(5 * time.Second):
		d.logger.Warn("timeout waiting for background jobs, forcing shutdown")
	}
}
