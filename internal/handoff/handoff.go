// Package handoff marshals read requests from other goroutines onto the
// stats engine's single writer context. The engine only guarantees
// correctness when calls arrive serialized through this queue; the HTTP
// layer must never touch the engine directly.
package handoff

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrClosed is returned for calls made after Close.
var ErrClosed = errors.New("handoff queue is closed")

// ErrNoValue means a request could not be served and no previous value for
// its key was cached to fall back on.
var ErrNoValue = errors.New("no cached value available")

type request struct {
	id       uuid.UUID
	key      string
	fn       func() (any, error)
	done     chan result
	enqueued time.Time
}

type result struct {
	value any
	err   error
}

type cacheEntry struct {
	value any
	at    time.Time
}

// Queue is a bounded work queue with a per-key result cache. Producers call
// Call with a bounded wait; the single consumer (the engine's driver
// goroutine) executes requests via Run. When a request cannot be served in
// time, or its refresh function fails, the previous cached value for the
// same key is served instead: this subsystem is a reporting facility and
// stale figures beat blocking live play.
type Queue struct {
	log     *slog.Logger
	timeout time.Duration

	requests chan *request
	closeCh  chan struct{}

	mu        sync.Mutex
	cache     map[string]cacheEntry
	closed    bool
	served    uint64
	staleHits uint64
}

// New creates a queue with the given per-call wait budget and capacity.
func New(timeout time.Duration, capacity int, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		log:      logger,
		timeout:  timeout,
		requests: make(chan *request, capacity),
		closeCh:  make(chan struct{}),
		cache:    make(map[string]cacheEntry),
	}
}

// Call enqueues fn to run on the consumer goroutine and waits up to the
// queue's timeout for its result. On success the result is cached under key.
// On timeout, queue-full, or fn failure, the last cached value for key is
// returned with stale=true; ErrNoValue if none exists.
func (q *Queue) Call(key string, fn func() (any, error)) (value any, stale bool, err error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return q.fallback(key, ErrClosed)
	}
	q.mu.Unlock()

	req := &request{
		id:       uuid.New(),
		key:      key,
		fn:       fn,
		done:     make(chan result, 1),
		enqueued: time.Now(),
	}

	select {
	case q.requests <- req:
	default:
		q.log.Warn("handoff queue full, serving cached value", "key", key, "request_id", req.id)
		return q.fallback(key, fmt.Errorf("handoff queue full"))
	}

	timer := time.NewTimer(q.timeout)
	defer timer.Stop()

	select {
	case res := <-req.done:
		if res.err != nil {
			q.log.Warn("handoff refresh failed, serving cached value",
				"key", key, "request_id", req.id, "error", res.err)
			return q.fallback(key, res.err)
		}
		q.storeCache(key, res.value)
		return res.value, false, nil
	case <-timer.C:
		q.log.Warn("handoff wait exceeded, serving cached value",
			"key", key, "request_id", req.id, "timeout", q.timeout)
		return q.fallback(key, fmt.Errorf("handoff wait exceeded %s", q.timeout))
	case <-q.closeCh:
		return q.fallback(key, ErrClosed)
	}
}

func (q *Queue) storeCache(key string, value any) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cache[key] = cacheEntry{value: value, at: time.Now()}
	q.served++
}

func (q *Queue) fallback(key string, cause error) (any, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry, ok := q.cache[key]
	if !ok {
		return nil, false, fmt.Errorf("%w for %q: %v", ErrNoValue, key, cause)
	}
	q.staleHits++
	return entry.value, true, nil
}

// Age returns how old the cached value for key is, and whether one exists.
// Consumers use it to label possibly stale data.
func (q *Queue) Age(key string) (time.Duration, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry, ok := q.cache[key]
	if !ok {
		return 0, false
	}
	return time.Since(entry.at), true
}

// ServeNext executes at most one pending request. Returns false when the
// queue is closed. Must only be called from the single consumer goroutine.
func (q *Queue) ServeNext() bool {
	select {
	case req, ok := <-q.requests:
		if !ok {
			return false
		}
		q.serve(req)
		return true
	case <-q.closeCh:
		return false
	}
}

// Run serves requests until Close. Intended to be the body of the engine's
// driver loop (or interleaved with it via ServeNext).
func (q *Queue) Run() {
	for q.ServeNext() {
	}
}

func (q *Queue) serve(req *request) {
	wait := time.Since(req.enqueued)
	if wait > q.timeout/2 {
		q.log.Debug("slow handoff", "key", req.key, "request_id", req.id, "queued_for", wait)
	}

	value, err := req.fn()
	req.done <- result{value: value, err: err}
}

// Stats reports how many requests were served fresh and how many calls fell
// back to a cached value.
func (q *Queue) Stats() (served, staleHits uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.served, q.staleHits
}

// Close stops the queue. In-flight Call invocations fall back to their
// cached values.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.closeCh)
	}
}
