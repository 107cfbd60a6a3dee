package emitter

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hedzr/go-ringbuf/v2/mpmc"
	"github.com/sirupsen/logrus"
)

// MaxBufferSize caps the ring size to guard against accidental misconfiguration
const MaxBufferSize uint32 = 1024 * 1024

var ErrClosed = errors.New("emitter closed")

// BufferedMetrics counts what happened to buffered samples
type BufferedMetrics struct {
	Delivered   int64
	Failed      int64
	Overwritten int64
}

// Buffered decouples the polling task from a slow consumer. Emit stores the
// sample in a ring that overwrites the oldest entry when full and returns
// immediately; a background goroutine drains the ring into the next emitter.
type Buffered struct {
	next   Emitter
	buffer mpmc.RichOverlappedRingBuffer[Sample]
	logger *logrus.Logger

	wake      chan struct{}
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	delivered   atomic.Int64
	failed      atomic.Int64
	overwritten atomic.Int64
}

// NewBuffered starts a drain goroutine feeding next from a ring of size entries
func NewBuffered(next Emitter, size uint32, logger *logrus.Logger) (*Buffered, error) {
	if next == nil {
		return nil, fmt.Errorf("next emitter cannot be nil")
	}
	if size == 0 {
		return nil, fmt.Errorf("buffer size must be > 0")
	}
	if size > MaxBufferSize {
		return nil, fmt.Errorf("buffer size %d exceeds maximum %d", size, MaxBufferSize)
	}
	if logger == nil {
		logger = logrus.New()
	}

	b := &Buffered{
		next:   next,
		buffer: mpmc.NewOverlappedRingBuffer[Sample](size),
		logger: logger,
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go b.run()
	return b, nil
}

// Emit enqueues s without waiting for the consumer
func (b *Buffered) Emit(s Sample) error {
	if b.closed.Load() {
		return ErrClosed
	}

	overwrites, err := b.buffer.EnqueueM(s)
	if err != nil {
		return fmt.Errorf("unexpected buffer.Enqueue error: %w", err)
	}
	if overwrites > 0 {
		b.overwritten.Add(int64(overwrites))
	}

	select {
	case b.wake <- struct{}{}:
	default:
	}
	return nil
}

func (b *Buffered) run() {
	defer close(b.done)
	for {
		b.drain()
		select {
		case <-b.wake:
		case <-b.stop:
			b.drain()
			return
		}
	}
}

func (b *Buffered) drain() {
	for !b.buffer.IsEmpty() {
		s, err := b.buffer.Dequeue()
		if err != nil {
			return
		}
		if err := Deliver(b.next, s, b.logger); err != nil {
			b.failed.Add(1)
			continue
		}
		b.delivered.Add(1)
	}
}

// Close flushes what is buffered and stops the drain goroutine
func (b *Buffered) Close() error {
	b.closeOnce.Do(func() {
		b.closed.Store(true)
		close(b.stop)
	})
	<-b.done
	return nil
}

// Metrics returns a snapshot of the counters
func (b *Buffered) Metrics() BufferedMetrics {
	return BufferedMetrics{
		Delivered:   b.delivered.Load(),
		Failed:      b.failed.Load(),
		Overwritten: b.overwritten.Load(),
	}
}
