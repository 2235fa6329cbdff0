package entity

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrRejected      = errors.New("submission rejected: shutdown in progress")
	ErrConfiguration = errors.New("invalid configuration")
)

// ConfigError reports an environment override that could not be used.
type ConfigError struct {
	Key    string
	Value  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s=%q: %s", e.Key, e.Value, e.Reason)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}

// ComputationError wraps a failure (error or panic) raised by a job's computation.
type ComputationError struct {
	JobID JobID
	Err   error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("job %d: computation failed: %v", e.JobID, e.Err)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}
