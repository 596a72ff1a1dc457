package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPool_RunsTasks(t *testing.T) {
	p := NewWorkerPool(2, 10)
	p.Start()
	defer p.Stop()

	var count atomic.Int32
	results := make(chan error, 5)
	for i := 0; i < 5; i++ {
		err := p.Submit(Task{
			ID: "task",
			Handler: func(ctx context.Context) error {
				count.Add(1)
				return nil
			},
			Result: results,
		})
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	}

	for i := 0; i < 5; i++ {
		select {
		case err := <-results:
			if err != nil {
				t.Errorf("Expected nil result, got %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("Timed out waiting for task results")
		}
	}
	if count.Load() != 5 {
		t.Errorf("Expected 5 executions, got %d", count.Load())
	}
}

func TestWorkerPool_PropagatesError(t *testing.T) {
	p := NewWorkerPool(1, 1)
	p.Start()
	defer p.Stop()

	boom := errors.New("boom")
	result := make(chan error, 1)
	if err := p.Submit(Task{ID: "x", Handler: func(context.Context) error { return boom }, Result: result}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	select {
	case err := <-result:
		if !errors.Is(err, boom) {
			t.Errorf("Expected boom, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for task result")
	}
}

func TestWorkerPool_QueueFull(t *testing.T) {
	// not started, so nothing drains the queue
	p := NewWorkerPool(1, 1)
	defer p.Stop()

	noop := func(context.Context) error { return nil }
	if err := p.Submit(Task{ID: "a", Handler: noop}); err != nil {
		t.Fatalf("First Submit() error = %v", err)
	}
	if err := p.Submit(Task{ID: "b", Handler: noop}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("Expected ErrQueueFull, got %v", err)
	}
}

func TestWorkerPool_SubmitAfterStop(t *testing.T) {
	p := NewWorkerPool(1, 1)
	p.Start()
	p.Stop()
	p.Stop()

	err := p.Submit(Task{ID: "late", Handler: func(context.Context) error { return nil }})
	if !errors.Is(err, ErrPoolStopped) {
		t.Errorf("Expected ErrPoolStopped, got %v", err)
	}
}

func TestWorkerPool_StopCancelsRunning(t *testing.T) {
	p := NewWorkerPool(1, 1)
	p.Start()

	started := make(chan struct{})
	result := make(chan error, 1)
	err := p.Submit(Task{
		ID: "long",
		Handler: func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		},
		Result: result,
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	<-started
	p.Stop()

	if err := <-result; !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestWorkerPool_StopReportsDroppedTasks(t *testing.T) {
	p := NewWorkerPool(1, 2)

	var ran atomic.Int32
	dropped := make(chan string, 2)
	for _, id := range []string{"a", "b"} {
		err := p.Submit(Task{
			ID: id,
			Handler: func(context.Context) error {
				ran.Add(1)
				return nil
			},
			Dropped: func(err error) {
				if !errors.Is(err, ErrPoolStopped) {
					t.Errorf("Expected ErrPoolStopped, got %v", err)
				}
				dropped <- id
			},
		})
		if err != nil {
			t.Fatalf("Submit(%s) error = %v", id, err)
		}
	}

	p.Stop()
	close(dropped)

	var got []string
	for id := range dropped {
		got = append(got, id)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Expected a and b dropped in order, got %v", got)
	}
	if ran.Load() != 0 {
		t.Errorf("Expected no handler to run, got %d", ran.Load())
	}
}
