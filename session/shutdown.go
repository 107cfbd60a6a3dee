package session

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
)

// ErrInterrupted is the cause recorded when a process signal stops the session
var ErrInterrupted = errors.New("session interrupted")

// Shutdown is a one-shot cancellation token. The first Trigger wins; later
// calls, from signals or from errors, are no-ops. Cancelling the parent
// context fires the token too, with the parent's cause.
type Shutdown struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	once   sync.Once
}

// NewShutdown derives a token from parent
func NewShutdown(parent context.Context) *Shutdown {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancelCause(parent)
	return &Shutdown{ctx: ctx, cancel: cancel}
}

// Trigger fires the token with cause and reports whether this call fired it
func (s *Shutdown) Trigger(cause error) bool {
	fired := false
	s.once.Do(func() {
		if s.ctx.Err() != nil {
			return
		}
		if cause == nil {
			cause = context.Canceled
		}
		s.cancel(cause)
		fired = true
	})
	return fired
}

// Done is closed once the token has fired
func (s *Shutdown) Done() <-chan struct{} {
	return s.ctx.Done()
}

// Fired reports whether the token has fired
func (s *Shutdown) Fired() bool {
	return s.ctx.Err() != nil
}

// Context is cancelled when the token fires
func (s *Shutdown) Context() context.Context {
	return s.ctx
}

// Cause returns what fired the token, or nil
func (s *Shutdown) Cause() error {
	return context.Cause(s.ctx)
}

// NotifyOn fires the token with ErrInterrupted on any of sigs.
// The returned stop function detaches the signal handler.
func (s *Shutdown) NotifyOn(sigs ...os.Signal) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	quit := make(chan struct{})

	go func() {
		for {
			select {
			case <-ch:
				s.Trigger(ErrInterrupted)
			case <-quit:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(ch)
			close(quit)
		})
	}
}

// release frees the context resources
func (s *Shutdown) release() {
	s.cancel(context.Canceled)
}
