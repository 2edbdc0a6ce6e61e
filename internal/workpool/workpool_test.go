package workpool

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunSortsByKey(t *testing.T) {
	items := []int{5, 3, 9, 1, 7}

	results := Run(context.Background(), 3, items,
		func(i int) string { return fmt.Sprintf("item-%d", i) },
		func(_ context.Context, i int) (int, error) {
			time.Sleep(time.Duration(10-i) * time.Millisecond)
			return i * i, nil
		})

	if len(results) != len(items) {
		t.Fatalf("Expected %d results, got %d", len(items), len(results))
	}
	want := []string{"item-1", "item-3", "item-5", "item-7", "item-9"}
	for i, r := range results {
		if r.Key != want[i] {
			t.Errorf("results[%d].Key = %s, want %s", i, r.Key, want[i])
		}
	}
	if results[0].Value != 1 || results[4].Value != 81 {
		t.Errorf("Unexpected values: %+v", results)
	}
}

func TestRunRespectsLimit(t *testing.T) {
	var active, peak int32
	items := make([]int, 20)
	for i := range items {
		items[i] = i
	}

	Run(context.Background(), 2, items,
		func(i int) string { return fmt.Sprintf("%02d", i) },
		func(_ context.Context, _ int) (struct{}, error) {
			n := atomic.AddInt32(&active, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&active, -1)
			return struct{}{}, nil
		})

	if peak > 2 {
		t.Errorf("Expected at most 2 concurrent workers, saw %d", peak)
	}
}

func TestRunCollectsErrors(t *testing.T) {
	errBoom := errors.New("boom")
	items := []string{"a", "b", "c"}

	results := Run(context.Background(), 0, items,
		func(s string) string { return s },
		func(_ context.Context, s string) (string, error) {
			if s == "b" {
				return "", errBoom
			}
			return s + "!", nil
		})

	var failed []Result[string]
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	if len(failed) != 1 || failed[0].Key != "b" || !errors.Is(failed[0].Err, errBoom) {
		t.Fatalf("Expected one failure for b, got %+v", failed)
	}
	if results[2].Value != "c!" {
		t.Errorf("Expected other items to succeed, got %+v", results)
	}
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := Run(ctx, 2, []string{"x", "y"},
		func(s string) string { return s },
		func(_ context.Context, s string) (string, error) { return s, nil })

	for _, r := range results {
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("Expected %s to report the context error, got %v", r.Key, r.Err)
		}
	}
	if len(results) != 2 {
		t.Errorf("Expected both items to report the context error, got %+v", results)
	}
}
