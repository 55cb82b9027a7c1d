// Package background runs fire-and-forget tasks spawned by request handlers,
// mainly notification dispatch. A task failure is logged and swallowed: it
// must never undo or fail the buyer-facing operation that spawned it.
package background

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

type Background struct {
	log logrus.FieldLogger
	wg  sync.WaitGroup
}

func New(log logrus.FieldLogger) *Background {
	return &Background{log: log}
}

// Run executes task on its own goroutine. Errors and panics are logged,
// never propagated.
func (b *Background) Run(task func() error) {
	b.wg.Add(1)

	go func() {
		defer b.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				b.log.Errorf("background task panic: %v", rec)
			}
		}()

		if err := task(); err != nil {
			b.log.Errorf("background task: %v", err)
		}
	}()
}

// Shutdown waits for in-flight tasks, bounded by the context deadline.
func (b *Background) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutting down background tasks: %w", ctx.Err())
	}
}
