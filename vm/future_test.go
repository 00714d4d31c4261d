package vm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestFutureSetOnce(t *testing.T) {
	f := NewFuture()
	if f.Ready() {
		t.Fatal("new future should not be ready")
	}
	if !f.Set(Int(1)) {
		t.Error("first Set() = false, want true")
	}
	if f.Set(Int(2)) {
		t.Error("second Set() = true, want false")
	}
	if v, ok := f.Value(); !ok || !v.Equal(Int(1)) {
		t.Errorf("Value() = %v, %v, want 1", v, ok)
	}
	if !strings.Contains(f.String(), "= 1") {
		t.Errorf("String() = %q", f.String())
	}
}

func TestFutureWaitAcrossGoroutines(t *testing.T) {
	f := NewFuture()
	const waiters = 8

	var wg sync.WaitGroup
	results := make([]Value, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := f.Wait(context.Background())
			if err != nil {
				t.Errorf("Wait() error = %v", err)
			}
			results[i] = v
		}(i)
	}

	time.Sleep(5 * time.Millisecond)
	f.Set(String("ok"))
	wg.Wait()

	for i, v := range results {
		if !v.Equal(String("ok")) {
			t.Errorf("waiter %d got %v, want ok", i, v)
		}
	}
}

func TestFutureWaitCancelled(t *testing.T) {
	f := NewFuture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() err = %v, want canceled", err)
	}
	if !strings.Contains(f.String(), "pending") {
		t.Errorf("String() = %q, want pending", f.String())
	}
}

func TestResolvedFuture(t *testing.T) {
	f := NewResolvedFuture(Bool(true))
	select {
	case <-f.Done():
	default:
		t.Fatal("Done() should be closed for a resolved future")
	}
	if f.ID() == NewResolvedFuture(Void).ID() {
		t.Error("futures should have distinct ids")
	}
}
