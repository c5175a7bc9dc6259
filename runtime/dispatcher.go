package runtime

import (
	"context"
	"log/slog"

	"sftpflow/errors"
)

// Dispatcher is the single designated context for collection-level mutation.
// Tasks submitted from any goroutine run one at a time, in submission order,
// on the dispatcher's own goroutine — the engine's stand-in for a UI thread.
type Dispatcher struct {
	tasks chan func()
	done  chan struct{}
	log   *slog.Logger
}

func NewDispatcher(log *slog.Logger, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 64
	}
	return &Dispatcher{
		tasks: make(chan func(), buffer),
		done:  make(chan struct{}),
		log:   log,
	}
}

// Run pumps tasks until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			d.log.Info("Stopping dispatcher")
			return ctx.Err()
		case task := <-d.tasks:
			d.runTask(task)
		}
	}
}

// runTask isolates panics so one bad task cannot kill the pump; the done
// channel must only ever be closed once.
func (d *Dispatcher) runTask(task func()) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("Dispatcher task panicked", "panic", r)
		}
	}()
	task()
}

// Submit queues fn for execution on the dispatcher goroutine. It returns
// ErrDispatcherStopped once Run has exited; the task is then dropped.
func (d *Dispatcher) Submit(fn func()) error {
	select {
	case <-d.done:
		return errors.ErrDispatcherStopped
	case d.tasks <- fn:
		return nil
	}
}

// Invoke runs fn on the dispatcher goroutine and waits for it to finish.
func (d *Dispatcher) Invoke(fn func()) error {
	finished := make(chan struct{})
	if err := d.Submit(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-d.done:
		return errors.ErrDispatcherStopped
	case <-finished:
		return nil
	}
}
