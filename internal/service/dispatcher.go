package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"stats-service/internal/entity"
	"stats-service/internal/metrics"
)

// ResultStore port (implementations: filestore, redis, postgresql).
type ResultStore interface {
	Put(ctx context.Context, id entity.JobID, result any) error
	Get(ctx context.Context, id entity.JobID) (json.RawMessage, error)
}

// Executor port (implementation: worker.Pool).
type Executor interface {
	Submit(job *entity.Job) error
	Completions() <-chan entity.Outcome
	Shutdown(graceful bool)
}

var ErrNoComputation = errors.New("computation is required")

const persistTimeout = 10 * time.Second

type state int

const (
	stateAccepting state = iota
	stateDraining
	stateStopped
)

// JobState is the answer to a status query. Result is set only for done jobs.
type JobState struct {
	ID     entity.JobID
	Status entity.JobStatus
	Result json.RawMessage
}

// Dispatcher allocates job identities, hands jobs to the executor and records
// their outcomes. An updater goroutine consumes executor completions and
// persists each result before marking its job done.
type Dispatcher struct {
	instance string
	exec     Executor
	store    ResultStore
	statuses *StatusTable
	logger   *slog.Logger

	lastID atomic.Int64

	mu    sync.RWMutex
	state state

	updaterDone chan struct{}
	stopped     chan struct{}
}

func NewDispatcher(exec Executor, store ResultStore, statuses *StatusTable, logger *slog.Logger) *Dispatcher {
	d := &Dispatcher{
		instance:    uuid.NewString(),
		exec:        exec,
		store:       store,
		statuses:    statuses,
		logger:      logger,
		updaterDone: make(chan struct{}),
		stopped:     make(chan struct{}),
	}
	go d.runUpdater()
	return d
}

// Submit registers the job as running and queues it. It never waits for the
// computation; after Shutdown has begun it fails with entity.ErrRejected.
func (d *Dispatcher) Submit(payload json.RawMessage, computation entity.Computation) (entity.JobID, error) {
	if computation == nil {
		return 0, ErrNoComputation
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.state != stateAccepting {
		metrics.JobsRejectedTotal.Inc()
		return 0, entity.ErrRejected
	}

	id := entity.JobID(d.lastID.Add(1))
	d.statuses.MarkRunning(id)

	if err := d.exec.Submit(&entity.Job{ID: id, Payload: payload, Computation: computation}); err != nil {
		// The executor is only closed by Shutdown, which cannot run while we hold the read lock.
		return 0, fmt.Errorf("%w: %v", entity.ErrRejected, err)
	}

	metrics.JobsSubmittedTotal.Inc()
	d.logger.Debug("job submitted", slog.String("job_id", id.String()))
	return id, nil
}

// QueryStatus never blocks on execution. Unknown identities yield
// entity.StatusNotFound together with entity.ErrNotFound.
func (d *Dispatcher) QueryStatus(ctx context.Context, id entity.JobID) (JobState, error) {
	st := d.statuses.Get(id)
	switch st {
	case entity.StatusNotFound:
		return JobState{ID: id, Status: st}, entity.ErrNotFound
	case entity.StatusRunning:
		return JobState{ID: id, Status: st}, nil
	}

	result, err := d.store.Get(ctx, id)
	if err != nil {
		return JobState{ID: id, Status: st}, fmt.Errorf("load result %d: %w", id, err)
	}
	return JobState{ID: id, Status: st, Result: result}, nil
}

func (d *Dispatcher) Jobs() map[entity.JobID]entity.JobStatus {
	return d.statuses.Snapshot()
}

func (d *Dispatcher) NumJobs() int {
	return d.statuses.Len()
}

// Accepting reports whether new submissions are admitted.
func (d *Dispatcher) Accepting() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state == stateAccepting
}

// Shutdown moves the dispatcher from accepting to draining to stopped.
// A graceful shutdown returns once every queued and in-flight job is done;
// otherwise unfinished jobs are abandoned and Shutdown returns at once.
// Calls after the dispatcher stopped are no-ops.
func (d *Dispatcher) Shutdown(graceful bool) error {
	d.mu.Lock()
	switch d.state {
	case stateStopped:
		d.mu.Unlock()
		return nil
	case stateDraining:
		d.mu.Unlock()
		if !graceful {
			d.exec.Shutdown(false)
			return nil
		}
		<-d.stopped
		return nil
	}
	d.state = stateDraining
	d.mu.Unlock()

	d.logger.Info("dispatcher draining",
		slog.String("instance", d.instance),
		slog.Bool("graceful", graceful),
		slog.Int("jobs", d.statuses.Len()),
	)

	d.exec.Shutdown(graceful)
	if graceful {
		<-d.updaterDone
	}

	d.mu.Lock()
	d.state = stateStopped
	d.mu.Unlock()
	close(d.stopped)

	d.logger.Info("dispatcher stopped", slog.String("instance", d.instance))
	return nil
}

// runUpdater persists outcomes concurrently; a slow write for one job must
// not hold back other jobs or the workers.
func (d *Dispatcher) runUpdater() {
	defer close(d.updaterDone)

	var wg sync.WaitGroup
	defer wg.Wait()

	for out := range d.exec.Completions() {
		wg.Add(1)
		go func(out entity.Outcome) {
			defer wg.Done()
			d.complete(out)
		}(out)
	}
}

// complete persists the outcome and only then marks the job done, so a
// reader that sees done can always load the result.
func (d *Dispatcher) complete(out entity.Outcome) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	var result any = out.Result
	outcome := metrics.OutcomeSuccess
	if out.Err != nil {
		result = entity.FailureResult{Error: out.Err.Error()}
		outcome = metrics.OutcomeFailure
	}

	err := d.store.Put(ctx, out.ID, result)
	if err != nil && out.Err == nil {
		d.logger.Warn("result not persisted, recording failure",
			slog.String("job_id", out.ID.String()),
			slog.String("error", err.Error()),
		)
		outcome = metrics.OutcomeFailure
		err = d.store.Put(ctx, out.ID, entity.FailureResult{Error: "persist result: " + err.Error()})
	}
	if err != nil {
		d.logger.Error("job outcome lost, job stays running",
			slog.String("job_id", out.ID.String()),
			slog.String("error", err.Error()),
		)
		return
	}

	d.statuses.MarkDone(out.ID)
	metrics.JobsCompletedTotal.WithLabelValues(outcome).Inc()
	d.logger.Info("job done",
		slog.String("job_id", out.ID.String()),
		slog.String("outcome", outcome),
	)
}
