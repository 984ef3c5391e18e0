package queue

import (
	"context"
	"errors"
	"testing"
	"time"
)

type item struct {
	name string
	n    int
}

func newTestQueue() *Queue[item] {
	return New(func(it item) string { return it.name })
}

func TestAppendDeduplicatesByKey(t *testing.T) {
	q := newTestQueue()
	if got := q.Append(item{"a", 1}, item{"b", 2}, item{"a", 3}); got != 2 {
		t.Fatalf("Append added %d, want 2", got)
	}
	if got := q.Append(item{"b", 4}, item{"c", 5}); got != 1 {
		t.Fatalf("second Append added %d, want 1", got)
	}
	if q.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", q.Len())
	}

	want := []item{{"a", 1}, {"b", 2}, {"c", 5}}
	for i, w := range want {
		got, ok := q.At(i)
		if !ok || got != w {
			t.Fatalf("At(%d) = %v, %v; want %v", i, got, ok, w)
		}
	}
	if _, ok := q.At(3); ok {
		t.Fatal("At(3) should not exist")
	}
	if _, ok := q.At(-1); ok {
		t.Fatal("At(-1) should not exist")
	}
	if !q.Contains("c") || q.Contains("d") {
		t.Fatal("Contains mismatch")
	}
}

func TestLenNeverDecreases(t *testing.T) {
	q := newTestQueue()
	last := 0
	for round := range 20 {
		q.Append(item{name: string(rune('a' + round%7))})
		if n := q.Len(); n < last {
			t.Fatalf("Len went from %d to %d", last, n)
		} else {
			last = n
		}
	}
	if last != 7 {
		t.Fatalf("Len() = %d, want 7", last)
	}
}

func TestWaitAtWakesOnAppend(t *testing.T) {
	q := newTestQueue()
	got := make(chan item, 1)
	go func() {
		it, err := q.WaitAt(context.Background(), 1)
		if err != nil {
			t.Errorf("WaitAt: %v", err)
		}
		got <- it
	}()

	q.Append(item{name: "first"})
	select {
	case <-got:
		t.Fatal("WaitAt(1) returned with only one item queued")
	case <-time.After(20 * time.Millisecond):
	}

	q.Append(item{name: "second"})
	select {
	case it := <-got:
		if it.name != "second" {
			t.Fatalf("got %q, want second", it.name)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitAt did not wake after append")
	}
}

func TestWaitAtCancel(t *testing.T) {
	q := newTestQueue()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := q.WaitAt(ctx, 0)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitAt did not return after cancel")
	}
}
