package worker_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"stats-service/internal/entity"
	"stats-service/internal/worker"
)

func newTestPool(t *testing.T, workers int) *worker.Pool {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pool, err := worker.NewPool(worker.NewProcessor(logger), workers, logger)
	if err != nil {
		t.Fatalf("unexpected pool error: %v", err)
	}
	return pool
}

// collect drains the completion channel until it is closed.
func collect(pool *worker.Pool) <-chan []entity.Outcome {
	res := make(chan []entity.Outcome, 1)
	go func() {
		var outs []entity.Outcome
		for out := range pool.Completions() {
			outs = append(outs, out)
		}
		res <- outs
	}()
	return res
}

func echoAfter(d time.Duration) entity.Computation {
	return func(payload json.RawMessage) (any, error) {
		time.Sleep(d)
		var v int
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

func TestNewPool_RejectsNonPositiveWorkers(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	for _, n := range []int{0, -1} {
		_, err := worker.NewPool(worker.NewProcessor(logger), n, logger)
		if !errors.Is(err, entity.ErrConfiguration) {
			t.Fatalf("workers=%d: expected configuration error, got %v", n, err)
		}
	}
}

func TestPool_SingleWorkerRunsEveryJob(t *testing.T) {
	pool := newTestPool(t, 1)
	results := collect(pool)

	var active, maxActive atomic.Int32
	comp := func(payload json.RawMessage) (any, error) {
		n := active.Add(1)
		defer active.Add(-1)
		for {
			m := maxActive.Load()
			if n <= m || maxActive.CompareAndSwap(m, n) {
				break
			}
		}
		return echoAfter(20 * time.Millisecond)(payload)
	}

	for i := 1; i <= 3; i++ {
		payload, _ := json.Marshal(i * 10)
		if err := pool.Submit(&entity.Job{ID: entity.JobID(i), Payload: payload, Computation: comp}); err != nil {
			t.Fatalf("unexpected submit error: %v", err)
		}
	}

	pool.Shutdown(true)
	outs := <-results

	if len(outs) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outs))
	}
	sort.Slice(outs, func(i, j int) bool { return outs[i].ID < outs[j].ID })
	for i, out := range outs {
		if out.Err != nil {
			t.Fatalf("job %d: unexpected error %v", out.ID, out.Err)
		}
		if out.Result != (i+1)*10 {
			t.Fatalf("job %d: expected %d, got %v", out.ID, (i+1)*10, out.Result)
		}
	}
	if maxActive.Load() != 1 {
		t.Fatalf("expected serialized execution, saw %d concurrent jobs", maxActive.Load())
	}
}

func TestPool_FailuresAreContained(t *testing.T) {
	pool := newTestPool(t, 2)
	results := collect(pool)

	failing := func(json.RawMessage) (any, error) { return nil, errors.New("boom") }
	panicking := func(json.RawMessage) (any, error) { panic("kaboom") }

	_ = pool.Submit(&entity.Job{ID: 1, Computation: failing})
	_ = pool.Submit(&entity.Job{ID: 2, Computation: panicking})
	_ = pool.Submit(&entity.Job{ID: 3, Payload: json.RawMessage(`7`), Computation: echoAfter(0)})
	_ = pool.Submit(&entity.Job{ID: 4})

	pool.Shutdown(true)
	outs := <-results

	if len(outs) != 4 {
		t.Fatalf("expected 4 outcomes, got %d", len(outs))
	}
	byID := map[entity.JobID]entity.Outcome{}
	for _, out := range outs {
		byID[out.ID] = out
	}

	for _, id := range []entity.JobID{1, 2, 4} {
		var compErr *entity.ComputationError
		if !errors.As(byID[id].Err, &compErr) {
			t.Fatalf("job %d: expected ComputationError, got %v", id, byID[id].Err)
		}
		if compErr.JobID != id {
			t.Fatalf("job %d: error carries id %d", id, compErr.JobID)
		}
	}
	if byID[3].Err != nil || byID[3].Result != 7 {
		t.Fatalf("job 3: expected 7, got %v (err=%v)", byID[3].Result, byID[3].Err)
	}
}

func TestPool_GracefulShutdownDrainsBacklog(t *testing.T) {
	pool := newTestPool(t, 2)
	results := collect(pool)

	for i := 1; i <= 10; i++ {
		payload, _ := json.Marshal(i)
		_ = pool.Submit(&entity.Job{ID: entity.JobID(i), Payload: payload, Computation: echoAfter(5 * time.Millisecond)})
	}

	pool.Shutdown(true)

	if err := pool.Submit(&entity.Job{ID: 11, Computation: echoAfter(0)}); !errors.Is(err, worker.ErrPoolClosed) {
		t.Fatalf("expected ErrPoolClosed, got %v", err)
	}
	if got := len(<-results); got != 10 {
		t.Fatalf("expected 10 outcomes, got %d", got)
	}
	if pool.Pending() != 0 {
		t.Fatalf("expected empty backlog, got %d", pool.Pending())
	}
}

func TestPool_AbortDropsBacklog(t *testing.T) {
	pool := newTestPool(t, 1)
	results := collect(pool)

	release := make(chan struct{})
	blocking := func(json.RawMessage) (any, error) {
		<-release
		return "late", nil
	}

	for i := 1; i <= 3; i++ {
		_ = pool.Submit(&entity.Job{ID: entity.JobID(i), Computation: blocking})
	}

	returned := make(chan struct{})
	go func() {
		pool.Shutdown(false)
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("expected non-graceful shutdown to return promptly")
	}
	if pool.Pending() != 0 {
		t.Fatalf("expected backlog to be dropped, got %d", pool.Pending())
	}

	close(release)
	if outs := <-results; len(outs) != 0 {
		t.Fatalf("expected abandoned jobs to produce no outcome, got %d", len(outs))
	}
}
