package history

import (
	"context"
	"log/slog"
	"time"
)

// DefaultQueueSize bounds the number of batches waiting to be persisted.
const DefaultQueueSize = 256

// writeTimeout bounds one batch write so a stuck database cannot wedge the
// worker.
const writeTimeout = 30 * time.Second

// Recorder persists ranked output asynchronously. The ranking engine hands
// batches to Enqueue, which never blocks; a single background worker drains
// the queue and writes through the Sink. Write failures are logged and
// discarded, never retried and never surfaced to the request path.
type Recorder struct {
	sink    Sink
	queue   chan []Record
	metrics *Metrics
	logger  *slog.Logger
}

// NewRecorder creates a Recorder with the given queue size. A queueSize of
// zero or less falls back to DefaultQueueSize. A nil metrics disables
// instrumentation.
func NewRecorder(sink Sink, queueSize int, metrics *Metrics, logger *slog.Logger) *Recorder {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		sink:    sink,
		queue:   make(chan []Record, queueSize),
		metrics: metrics,
		logger:  logger,
	}
}

// Enqueue submits a batch for asynchronous persistence. It never blocks:
// when the queue is full the batch is dropped and counted. Returns whether
// the batch was accepted.
func (r *Recorder) Enqueue(records []Record) bool {
	if len(records) == 0 {
		return true
	}

	select {
	case r.queue <- records:
		return true
	default:
		if r.metrics != nil {
			r.metrics.ObserveDropped()
		}
		r.logger.Warn("history queue full, dropping batch", "records", len(records))
		return false
	}
}

// Run drains the queue until the context is cancelled, then flushes whatever
// is still buffered before returning.
func (r *Recorder) Run(ctx context.Context) error {
	r.logger.Info("history recorder started", "queue_size", cap(r.queue))

	for {
		select {
		case <-ctx.Done():
			r.drain()
			r.logger.Info("history recorder stopped")
			return ctx.Err()
		case batch := <-r.queue:
			r.write(batch)
		}
	}
}

// drain flushes buffered batches after shutdown was requested.
func (r *Recorder) drain() {
	for {
		select {
		case batch := <-r.queue:
			r.write(batch)
		default:
			return
		}
	}
}

// write persists one batch. Failures are logged and swallowed.
func (r *Recorder) write(batch []Record) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	start := time.Now()
	err := r.sink.Append(ctx, batch)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		if r.metrics != nil {
			r.metrics.ObserveWrite(StatusFailure, len(batch), elapsed)
		}
		r.logger.Error("failed to persist recommendation history",
			"records", len(batch),
			"error", err)
		return
	}

	if r.metrics != nil {
		r.metrics.ObserveWrite(StatusSuccess, len(batch), elapsed)
	}
	r.logger.Debug("persisted recommendation history",
		"records", len(batch),
		"duration_s", elapsed)
}
