package assets

import (
	"context"
	"errors"
	"testing"
	"time"
)

// drain polls q until every request has been delivered.
func drain(t *testing.T, q *Queue) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for q.Pending() > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("queue still has %d pending requests", q.Pending())
		}
		q.Poll()
		time.Sleep(time.Millisecond)
	}
}

func TestQueueDeliversOnPoll(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.bin", "hello")

	q := NewQueue(context.Background(), NewManager(dir), 2)
	defer q.Close()

	var got any
	var gotErr error
	q.Request("a.bin", func(data []byte, path string) (any, error) {
		return len(data), nil
	}, func(v any, err error) {
		got, gotErr = v, err
	})

	if q.Pending() != 1 {
		t.Fatalf("Pending = %d, want 1", q.Pending())
	}
	drain(t, q)

	if gotErr != nil {
		t.Fatalf("callback error: %v", gotErr)
	}
	if got != 5 {
		t.Errorf("decoded value = %v, want 5", got)
	}
}

func TestQueueReportsErrors(t *testing.T) {
	q := NewQueue(context.Background(), NewManager(t.TempDir()), 1)
	defer q.Close()

	var gotErr error
	q.Request("missing.png", nil, func(_ any, err error) { gotErr = err })
	drain(t, q)

	if !errors.Is(gotErr, ErrNotFound) {
		t.Errorf("callback error = %v, want ErrNotFound", gotErr)
	}
}

func TestQueueBacklogBeyondWorkers(t *testing.T) {
	dir := t.TempDir()
	names := []string{"a", "b", "c", "d", "e"}
	for _, n := range names {
		writeFile(t, dir, n, n)
	}

	q := NewQueue(context.Background(), NewManager(dir), 1)
	defer q.Close()

	seen := map[string]bool{}
	for _, n := range names {
		q.Request(n, nil, func(v any, err error) {
			if err != nil {
				t.Errorf("request failed: %v", err)
				return
			}
			seen[string(v.([]byte))] = true
		})
	}
	drain(t, q)

	if len(seen) != len(names) {
		t.Errorf("delivered %d results, want %d", len(seen), len(names))
	}
}
