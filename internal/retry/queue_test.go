package retry

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"testing"
)

func TestQueueRunsInOrder(t *testing.T) {
	q := NewQueue(8)
	defer q.Close()

	var mu sync.Mutex
	var order []int

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = q.Add(context.Background(), func(ctx context.Context) error {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	if len(order) != 4 {
		t.Fatalf("ran %d operations, want 4", len(order))
	}
}

func TestQueueReturnsOperationError(t *testing.T) {
	q := NewQueue(1)
	defer q.Close()

	want := errors.New("boom")
	if err := q.Add(context.Background(), func(ctx context.Context) error { return want }); !errors.Is(err, want) {
		t.Errorf("got %v, want %v", err, want)
	}
}

func TestQueueClearRejectsPendingWork(t *testing.T) {
	q := NewQueue(8)
	defer q.Close()

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = q.Add(context.Background(), func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	// Pile work up behind the blocked operation.
	var wg sync.WaitGroup
	errs := make(chan error, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- q.Add(context.Background(), func(ctx context.Context) error { return nil })
		}()
	}
	for len(q.items) < 3 {
		runtime.Gosched()
	}

	q.Clear()
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if !errors.Is(err, ErrQueueCleared) {
			t.Errorf("pending caller got %v, want ErrQueueCleared", err)
		}
	}
}

func TestQueueCloseRejectsNewWork(t *testing.T) {
	q := NewQueue(1)
	q.Close()

	err := q.Add(context.Background(), func(ctx context.Context) error { return nil })
	if !errors.Is(err, ErrQueueClosed) {
		t.Errorf("got %v, want ErrQueueClosed", err)
	}
}
