package middleware

import (
	"context"
	"errors"
	"sync"
	"time"

	"StoreMonitor/internal/domain/models"
	domrepo "StoreMonitor/internal/domain/repository"
	"StoreMonitor/pkg/logger"
)

var ErrBufferFull = errors.New("poll buffer full")

// ObservationSink is where buffered polls end up.
type ObservationSink interface {
	InsertObservations(ctx context.Context, obs []models.Observation) error
}

// PollBuffer sits between the live poll consumer and storage. It groups
// single polls into batch inserts and retries a failed flush with backoff.
// Polls accepted by the buffer are lost if the process dies before a flush.
type PollBuffer struct {
	sink     ObservationSink
	metrics  domrepo.Metrics
	log      *logger.Logger
	maxBatch int
	interval time.Duration
	retries  int
	in       chan models.Observation
	stopCh   chan struct{}
	done     chan struct{}
	mu       sync.Mutex
	started  bool
}

type BufferOption func(*PollBuffer)

// WithBatchSize flushes as soon as n polls are pending.
func WithBatchSize(n int) BufferOption {
	return func(b *PollBuffer) {
		if n > 0 {
			b.maxBatch = n
		}
	}
}

// WithFlushInterval bounds how long a poll waits for a flush.
func WithFlushInterval(d time.Duration) BufferOption {
	return func(b *PollBuffer) {
		if d > 0 {
			b.interval = d
		}
	}
}

// WithCapacity sets how many polls may wait before InsertObservations refuses.
func WithCapacity(n int) BufferOption {
	return func(b *PollBuffer) {
		if n > 0 {
			b.in = make(chan models.Observation, n)
		}
	}
}

// NewPollBuffer creates a PollBuffer flushing to sink. Call Start to begin flushing.
func NewPollBuffer(sink ObservationSink, metrics domrepo.Metrics, log *logger.Logger, opts ...BufferOption) *PollBuffer {
	b := &PollBuffer{
		sink:     sink,
		metrics:  metrics,
		log:      log,
		maxBatch: 500,
		interval: time.Second,
		retries:  3,
		in:       make(chan models.Observation, 10000),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// InsertObservations queues polls without waiting for storage.
func (b *PollBuffer) InsertObservations(_ context.Context, obs []models.Observation) error {
	for _, o := range obs {
		select {
		case b.in <- o:
		default:
			b.metrics.RecordError("poll_buffer_full")
			return ErrBufferFull
		}
	}
	return nil
}

// Start launches the flush loop.
func (b *PollBuffer) Start(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return
	}
	b.started = true
	go b.run(context.WithoutCancel(ctx))
}

// Stop flushes what is pending and waits for the loop, bounded by ctx.
func (b *PollBuffer) Stop(ctx context.Context) error {
	b.mu.Lock()
	if !b.started {
		b.mu.Unlock()
		return nil
	}
	b.started = false
	close(b.stopCh)
	b.mu.Unlock()

	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *PollBuffer) run(ctx context.Context) {
	defer close(b.done)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	batch := make([]models.Observation, 0, b.maxBatch)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		b.flush(ctx, batch)
		batch = batch[:0]
	}

	for {
		select {
		case o := <-b.in:
			batch = append(batch, o)
			if len(batch) >= b.maxBatch {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-b.stopCh:
			// drain without blocking
			for {
				select {
				case o := <-b.in:
					batch = append(batch, o)
				default:
					flush()
					return
				}
			}
		}
	}
}

func (b *PollBuffer) flush(ctx context.Context, batch []models.Observation) {
	backoff := 50 * time.Millisecond
	for attempt := 0; ; attempt++ {
		err := b.sink.InsertObservations(ctx, batch)
		if err == nil {
			b.metrics.RowsImported(domrepo.DatasetStatus, len(batch))
			return
		}
		if attempt >= b.retries {
			b.metrics.RecordError("poll_flush_drop")
			b.log.Error("dropping poll batch", logger.Int("size", len(batch)), logger.Error(err))
			return
		}
		b.metrics.RecordError("poll_flush")
		time.Sleep(backoff)
		if backoff < 2*time.Second {
			backoff *= 2
		}
	}
}
