package session

import (
	"context"

	"github.com/srg/imuble/internal/groutine"
)

// Handle tracks a session started in the background
type Handle struct {
	cancel context.CancelCauseFunc
	done   chan struct{}
	result *Result
	err    error
}

// Start runs the session on its own goroutine and returns immediately
func (s *Session) Start(ctx context.Context) *Handle {
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithCancelCause(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}

	groutine.Go(runCtx, "imu-session", func(ctx context.Context) {
		defer close(h.done)
		defer cancel(context.Canceled)
		h.result, h.err = s.Run(ctx)
	})
	return h
}

// Stop raises the shutdown signal; cause defaults to ErrInterrupted
func (h *Handle) Stop(cause error) {
	if cause == nil {
		cause = ErrInterrupted
	}
	h.cancel(cause)
}

// Done is closed when the session has ended
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the session ends and returns its result
func (h *Handle) Wait() (*Result, error) {
	<-h.done
	return h.result, h.err
}
