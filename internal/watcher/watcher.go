// Package watcher forwards host errors to the reporting pipeline.
//
// There is no implicit global error channel in Go: the host hands the watcher
// an explicit source, and may also route recovered panics through PanicError.
package watcher

import (
	"context"
	"fmt"
	"sync"
)

// Handler receives every error read from the source.
type Handler func(error)

// Watcher consumes an error source on its own goroutine until stopped.
type Watcher struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Start begins consuming src. It stops when ctx is cancelled, when Stop is
// called, or when src is closed. Nil errors are ignored.
func Start(ctx context.Context, src <-chan error, handle Handler) *Watcher {
	ctx, cancel := context.WithCancel(ctx)
	w := &Watcher{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(w.done)
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-src:
				if !ok {
					return
				}
				if err != nil {
					handle(err)
				}
			}
		}
	}()
	return w
}

// Stop cancels the watcher and waits for its goroutine to exit.
func (w *Watcher) Stop() {
	w.once.Do(w.cancel)
	<-w.done
}

// Done is closed once the watcher goroutine has exited.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// PanicError wraps a recovered panic value as an error.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// FromRecover converts the result of recover() to an error, or nil.
func FromRecover(r any) error {
	if r == nil {
		return nil
	}
	return &PanicError{Value: r}
}
