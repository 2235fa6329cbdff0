package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"stats-service/internal/entity"
	"stats-service/internal/metrics"
)

var errNoComputation = errors.New("no computation attached to job")

// Processor executes a single job. Failures never escape it: an error or a
// panic raised by the computation is returned as a *entity.ComputationError
// inside the outcome.
type Processor struct {
	logger *slog.Logger
}

func NewProcessor(logger *slog.Logger) *Processor {
	return &Processor{logger: logger}
}

func (p *Processor) Process(job *entity.Job) entity.Outcome {
	start := time.Now()

	result, err := p.run(job)
	elapsed := time.Since(start)
	metrics.JobDurationSeconds.Observe(elapsed.Seconds())

	if err != nil {
		p.logger.Warn("job failed",
			slog.String("job_id", job.ID.String()),
			slog.Int64("duration_ms", elapsed.Milliseconds()),
			slog.String("error", err.Error()),
		)
		return entity.Outcome{ID: job.ID, Err: err}
	}

	p.logger.Debug("job computed",
		slog.String("job_id", job.ID.String()),
		slog.Int64("duration_ms", elapsed.Milliseconds()),
	)
	return entity.Outcome{ID: job.ID, Result: result}
}

func (p *Processor) run(job *entity.Job) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("computation panicked",
				slog.String("job_id", job.ID.String()),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			result = nil
			err = &entity.ComputationError{JobID: job.ID, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if job.Computation == nil {
		return nil, &entity.ComputationError{JobID: job.ID, Err: errNoComputation}
	}

	out, cErr := job.Computation(job.Payload)
	if cErr != nil {
		return nil, &entity.ComputationError{JobID: job.ID, Err: cErr}
	}
	return out, nil
}
