package jobs

import (
	"errors"
	"fmt"
	"time"

	"github.com/deva-0608/dataslide/internal/dataset"
)

// Stage names the pipeline step a failure happened in.
type Stage string

const (
	StageLoad     Stage = "load"
	StageInsights Stage = "insights"
	StagePersist  Stage = "persist"
	StagePreview  Stage = "preview"
	StagePanic    Stage = "panic"
)

var (
	// ErrClaimed is returned by Claim when another owner holds the job.
	ErrClaimed = errors.New("job already claimed")
	// ErrNotOwner is returned by Release for a claim held by someone else.
	ErrNotOwner = errors.New("claim held by another owner")
)

// PipelineError is a failure inside one job's processing.
type PipelineError struct {
	JobID     string
	Stage     Stage
	Err       error
	Retryable bool
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("job %s: %s: %v", e.JobID, e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// stageError wraps err for stage. Input format problems are terminal;
// everything else may succeed on another attempt.
func stageError(jobID string, stage Stage, err error) *PipelineError {
	return &PipelineError{JobID: jobID, Stage: stage, Err: err, Retryable: !dataset.IsInputFormat(err)}
}

// asPipelineError normalizes any error returned by a pipeline run.
func asPipelineError(jobID string, err error) *PipelineError {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe
	}
	return &PipelineError{JobID: jobID, Stage: "unknown", Err: err, Retryable: !dataset.IsInputFormat(err)}
}

// Failure is the error.json record kept next to a failed job's status.
type Failure struct {
	Message   string    `json:"message"`
	Stage     Stage     `json:"stage,omitempty"`
	Retryable bool      `json:"retryable"`
	Attempts  int       `json:"attempts"`
	FailedAt  time.Time `json:"failed_at"`
}
