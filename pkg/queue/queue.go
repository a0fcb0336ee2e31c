// Package queue holds the serialized delivery queue: a bounded FIFO
// channel with a single consumer loop that spaces item completions by a
// fixed delay.
package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/logger"
)

// ErrQueueFull is returned by TryEnqueue when the queue is at capacity.
var ErrQueueFull = errors.New("delivery queue full")

// Item is one admitted request. Created at admission time, consumed
// exactly once by the worker, never mutated.
type Item struct {
	UserID int64
	Key    string
	ChatID int64
	// ReplyTo is the inbound message id replies should reference.
	ReplyTo int
	// EnqSeq is a monotonic enqueue sequence, useful in logs to confirm
	// FIFO processing.
	EnqSeq uint64
}

// Queue is a bounded in-memory FIFO. Safe for concurrent producers; the
// worker is the sole consumer.
type Queue struct {
	ch       chan Item
	capacity int
	dropped  uint64
	seq      uint64
}

// New creates a bounded Queue with the provided capacity.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Queue{ch: make(chan Item, capacity), capacity: capacity}
}

// TryEnqueue appends the item without blocking. Returns ErrQueueFull
// when at capacity; the caller rejects the request rather than stalling
// the webhook path.
func (q *Queue) TryEnqueue(it Item) error {
	it.EnqSeq = atomic.AddUint64(&q.seq, 1)
	select {
	case q.ch <- it:
		return nil
	default:
		atomic.AddUint64(&q.dropped, 1)
		return ErrQueueFull
	}
}

// Out returns the read-only receive side; the worker ranges over it.
func (q *Queue) Out() <-chan Item { return q.ch }

// Len returns the current number of queued items.
func (q *Queue) Len() int { return len(q.ch) }

// Cap returns the configured capacity.
func (q *Queue) Cap() int { return q.capacity }

// Dropped returns how many enqueues were rejected on a full queue.
func (q *Queue) Dropped() uint64 { return atomic.LoadUint64(&q.dropped) }

// Handler processes one dequeued item (re-validation plus delivery).
type Handler func(ctx context.Context, it Item)

// Worker is the single consumer loop. After each item it releases the
// user's admission slot and waits Delay before the next receive, which
// throttles total outbound delivery regardless of per-item outcome.
type Worker struct {
	q       *Queue
	delay   time.Duration
	handle  Handler
	release func(userID int64)
}

// NewWorker wires a worker to the queue. release is called exactly once
// per item on every exit path, including handler panics; skipping it
// would lock that user out until restart.
func NewWorker(q *Queue, delay time.Duration, handle Handler, release func(userID int64)) *Worker {
	return &Worker{q: q, delay: delay, handle: handle, release: release}
}

// Run consumes items until ctx is canceled. It returns only when the
// loop has fully stopped, so callers can join it during shutdown.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case it := <-w.q.ch:
			w.process(ctx, it)
			select {
			case <-time.After(w.delay):
			case <-ctx.Done():
				return
			}
		}
	}
}

func (w *Worker) process(ctx context.Context, it Item) {
	defer w.release(it.UserID)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("worker_item_panic", "user", it.UserID, "key", it.Key, "panic", r)
		}
	}()
	w.handle(ctx, it)
}
