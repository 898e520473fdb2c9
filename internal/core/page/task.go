package page

import (
	"context"
	"fmt"
)

// Task is an in-flight page operation. It settles exactly once.
type Task struct {
	done   chan struct{}
	cancel context.CancelFunc
	err    error
}

func startTask(parent context.Context, fn func(ctx context.Context) error) *Task {
	ctx, cancel := context.WithCancel(parent)
	t := &Task{done: make(chan struct{}), cancel: cancel}
	go func() {
		defer close(t.done)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				t.err = fmt.Errorf("page task panicked: %v", r)
			}
		}()
		t.err = fn(ctx)
	}()
	return t
}

// Done is closed once the task has settled.
func (t *Task) Done() <-chan struct{} { return t.done }

// Err is the task's result. It is only meaningful after Done is closed.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Cancel asks the task to stop. The task still settles through Done.
func (t *Task) Cancel() { t.cancel() }

// Wait blocks until the task settles or ctx is done. A ctx expiry does not
// cancel the task.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
