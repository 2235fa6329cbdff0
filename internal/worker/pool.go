package worker

import (
	"errors"
	"log/slog"
	"strconv"
	"sync"

	"stats-service/internal/entity"
	"stats-service/internal/metrics"
)

var ErrPoolClosed = errors.New("worker pool closed")

// Pool runs submitted jobs on a fixed number of goroutines. The backlog is
// unbounded: Submit never blocks on busy workers.
//
// Every executed job produces exactly one outcome on Completions(), sent from
// the worker goroutine that ran it. The channel is closed once all workers
// have exited.
type Pool struct {
	processor *Processor
	workers   int
	logger    *slog.Logger

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []*entity.Job
	closed bool

	abort     chan struct{}
	abortOnce sync.Once

	completions chan entity.Outcome
	done        chan struct{}
	wg          sync.WaitGroup
}

// NewPool starts workers goroutines. workers must be at least 1.
func NewPool(processor *Processor, workers int, logger *slog.Logger) (*Pool, error) {
	if workers < 1 {
		return nil, &entity.ConfigError{Key: "workers", Value: strconv.Itoa(workers), Reason: "must be at least 1"}
	}

	p := &Pool{
		processor:   processor,
		workers:     workers,
		logger:      logger,
		abort:       make(chan struct{}),
		completions: make(chan entity.Outcome),
		done:        make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mu)

	logger.Info("worker pool started", slog.Int("workers", workers))

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.work(i + 1)
	}

	go func() {
		p.wg.Wait()
		close(p.completions)
		close(p.done)
		logger.Info("worker pool stopped")
	}()

	return p, nil
}

func (p *Pool) Workers() int { return p.workers }

// Pending returns the number of queued jobs not yet picked up by a worker.
func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

func (p *Pool) Completions() <-chan entity.Outcome {
	return p.completions
}

func (p *Pool) Submit(job *entity.Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPoolClosed
	}
	p.queue = append(p.queue, job)
	metrics.QueueDepth.Inc()
	p.cond.Signal()
	return nil
}

// Shutdown stops accepting jobs. A graceful shutdown blocks until the backlog
// is drained and every outcome has been handed to the Completions consumer.
// Otherwise the backlog is dropped, outcomes of in-flight jobs are discarded
// and Shutdown returns immediately.
func (p *Pool) Shutdown(graceful bool) {
	p.mu.Lock()
	p.closed = true
	if !graceful {
		dropped := len(p.queue)
		p.queue = nil
		metrics.QueueDepth.Sub(float64(dropped))
		p.abortOnce.Do(func() { close(p.abort) })
		if dropped > 0 {
			p.logger.Warn("worker pool aborted, dropping queued jobs", slog.Int("dropped", dropped))
		}
	}
	p.cond.Broadcast()
	p.mu.Unlock()

	if graceful {
		<-p.done
	}
}

func (p *Pool) work(n int) {
	defer p.wg.Done()

	for {
		job, ok := p.next()
		if !ok {
			return
		}

		metrics.JobsRunning.Inc()
		out := p.processor.Process(job)
		metrics.JobsRunning.Dec()

		if p.aborted() {
			p.logger.Debug("discarding outcome after abort",
				slog.Int("worker", n),
				slog.String("job_id", job.ID.String()),
			)
			continue
		}

		select {
		case p.completions <- out:
		case <-p.abort:
		}
	}
}

// next blocks until a job is available or the pool is closed and drained.
func (p *Pool) next() (*entity.Job, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.queue) == 0 && !p.closed {
		p.cond.Wait()
	}
	if len(p.queue) == 0 {
		return nil, false
	}

	job := p.queue[0]
	p.queue[0] = nil
	p.queue = p.queue[1:]
	metrics.QueueDepth.Dec()
	return job, true
}

func (p *Pool) aborted() bool {
	select {
	case <-p.abort:
		return true
	default:
		return false
	}
}
