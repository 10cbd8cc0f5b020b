package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestRunProcessesAllIndices(t *testing.T) {
	var count int64
	indices := make([]int, 100)
	for i := range indices {
		indices[i] = i
	}

	seen := make([]int32, len(indices))
	var mu sync.Mutex

	err := Run(context.Background(), 4, indices, func(_ context.Context, index int) error {
		atomic.AddInt64(&count, 1)
		mu.Lock()
		seen[index]++
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if int(count) != len(indices) {
		t.Errorf("expected %d invocations, got %d", len(indices), count)
	}
	for i, n := range seen {
		if n != 1 {
			t.Errorf("index %d processed %d times, expected 1", i, n)
		}
	}
}

func TestRunPropagatesFirstError(t *testing.T) {
	indices := []int{0, 1, 2, 3}
	sentinel := errors.New("boom")

	err := Run(context.Background(), 2, indices, func(_ context.Context, index int) error {
		if index == 2 {
			return sentinel
		}
		return nil
	})
	if err != sentinel {
		t.Errorf("expected sentinel error, got %v", err)
	}
}

func TestRunRespectsCancellation(t *testing.T) {
	indices := make([]int, 50)
	for i := range indices {
		indices[i] = i
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var count int64
	err := Run(ctx, 4, indices, func(_ context.Context, _ int) error {
		atomic.AddInt64(&count, 1)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("expected no work to run after cancellation, got %d calls", count)
	}
}

func TestRunEmptyIndices(t *testing.T) {
	if err := Run(context.Background(), 4, nil, func(context.Context, int) error {
		t.Fatal("fn should not be called for empty input")
		return nil
	}); err != nil {
		t.Fatal(err)
	}
}
