package retrieval

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDispatcherRunsJobs(t *testing.T) {
	d := NewDispatcher(8)
	d.Start()

	var ran atomic.Int32
	done := make(chan struct{})
	d.Enqueue("job", func(ctx context.Context) error {
		ran.Add(1)
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not run")
	}
	d.Stop()
	assert.Equal(t, int32(1), ran.Load())
}

func TestDispatcherSwallowsFailures(t *testing.T) {
	d := NewDispatcher(8)
	d.Start()

	var ran atomic.Int32
	d.Enqueue("failing", func(ctx context.Context) error {
		return errors.New("boom")
	})
	d.Enqueue("following", func(ctx context.Context) error {
		ran.Add(1)
		return nil
	})

	d.Stop()
	assert.Equal(t, int32(1), ran.Load())
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	// Not started: the buffer fills and further jobs are dropped instead of
	// blocking the caller.
	d := NewDispatcher(1)

	d.Enqueue("first", func(ctx context.Context) error { return nil })
	finished := make(chan struct{})
	go func() {
		d.Enqueue("dropped", func(ctx context.Context) error { return nil })
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("enqueue blocked on full queue")
	}
}
