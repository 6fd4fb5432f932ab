// Package display moves annotated frames from region workers to a single
// consumer that shows them.
package display

import (
	"context"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"
)

// Default queue settings.
const (
	DefaultCapacity   = 20
	DefaultPutTimeout = 100 * time.Millisecond
	DefaultGetTimeout = 100 * time.Millisecond
)

// Item is one labelled frame. Whoever holds an Item owns its Mat.
type Item struct {
	Label string
	Frame gocv.Mat
}

// Close releases the frame.
func (i Item) Close() {
	i.Frame.Close()
}

// Queue is a bounded FIFO of display items. Producers never wait longer
// than their timeout: on a full queue the incoming item is dropped.
type Queue struct {
	ch chan Item

	enqueued atomic.Uint64
	dropped  atomic.Uint64
}

// NewQueue creates a queue holding at most capacity items.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{ch: make(chan Item, capacity)}
}

// TryPut enqueues item, waiting at most timeout for space. When the queue
// stays full the item is closed and false is returned.
func (q *Queue) TryPut(item Item, timeout time.Duration) bool {
	select {
	case q.ch <- item:
		q.enqueued.Add(1)
		return true
	default:
	}

	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		select {
		case q.ch <- item:
			q.enqueued.Add(1)
			return true
		case <-t.C:
		}
	}

	q.dropped.Add(1)
	item.Close()
	return false
}

// Get dequeues the oldest item, waiting at most timeout. It returns false
// on timeout or when ctx is done.
func (q *Queue) Get(ctx context.Context, timeout time.Duration) (Item, bool) {
	select {
	case item := <-q.ch:
		return item, true
	default:
	}

	if timeout <= 0 {
		return Item{}, false
	}

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case item := <-q.ch:
		return item, true
	case <-t.C:
	case <-ctx.Done():
	}
	return Item{}, false
}

// Len returns the number of queued items.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int {
	return cap(q.ch)
}

// Enqueued returns how many items have been accepted.
func (q *Queue) Enqueued() uint64 {
	return q.enqueued.Load()
}

// Dropped returns how many items were dropped on a full queue.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}

// Drain closes every queued item.
func (q *Queue) Drain() {
	for {
		select {
		case item := <-q.ch:
			item.Close()
		default:
			return
		}
	}
}
