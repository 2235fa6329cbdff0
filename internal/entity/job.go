package entity

import (
	"encoding/json"
	"strconv"
)

// JobID is the process-unique handle of a submitted job. Allocation starts at 1.
type JobID int64

func (id JobID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

func ParseJobID(s string) (JobID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return JobID(n), nil
}

type JobStatus string

const (
	StatusRunning  JobStatus = "running"
	StatusDone     JobStatus = "done"
	StatusNotFound JobStatus = "not found"
)

// Computation turns a payload into a JSON-serializable result.
type Computation func(payload json.RawMessage) (any, error)

// Job lives only for the duration of its execution; afterwards only the
// identity, its status and the persisted result remain.
type Job struct {
	ID          JobID
	Payload     json.RawMessage
	Computation Computation
}

// Outcome is what the worker pool reports for every executed job.
type Outcome struct {
	ID     JobID
	Result any
	Err    error
}

// FailureResult is persisted in place of a result when the computation failed.
type FailureResult struct {
	Error string `json:"error"`
}
