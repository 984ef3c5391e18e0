// Package queue provides the append-only, deduplicated sequence shared
// between a producer that discovers items and a reader that consumes them
// strictly in order.
package queue

import (
	"context"
	"sync"

	eq "github.com/eapache/queue"
)

// Queue is an ordered, key-deduplicated sequence. Items are never removed
// or reordered, so an index stays valid once it exists. All methods are
// safe for concurrent use.
type Queue[T any] struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items *eq.Queue
	seen  map[string]struct{}
	key   func(T) string
}

// New returns an empty Queue identifying items by key.
func New[T any](key func(T) string) *Queue[T] {
	q := &Queue[T]{
		items: eq.New(),
		seen:  make(map[string]struct{}),
		key:   key,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Append adds the items whose key has not been seen before, in the order
// given, and returns how many were added. Waiting readers are woken.
func (q *Queue[T]) Append(items ...T) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	added := 0
	for _, it := range items {
		k := q.key(it)
		if _, dup := q.seen[k]; dup {
			continue
		}
		q.seen[k] = struct{}{}
		q.items.Add(it)
		added++
	}
	if added > 0 {
		q.cond.Broadcast()
	}
	return added
}

// Len returns the number of items appended so far.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Length()
}

// Contains reports whether an item with key k has been appended.
func (q *Queue[T]) Contains(k string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.seen[k]
	return ok
}

// At returns the item at index i, if it exists yet.
func (q *Queue[T]) At(i int) (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.at(i)
}

func (q *Queue[T]) at(i int) (T, bool) {
	if i < 0 || i >= q.items.Length() {
		var zero T
		return zero, false
	}
	return q.items.Get(i).(T), true
}

// WaitAt blocks until an item exists at index i and returns it, or returns
// ctx.Err() once ctx is done.
func (q *Queue[T]) WaitAt(ctx context.Context, i int) (T, error) {
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		q.cond.Broadcast()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if it, ok := q.at(i); ok {
			return it, nil
		}
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, err
		}
		q.cond.Wait()
	}
}
