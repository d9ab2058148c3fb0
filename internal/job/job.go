// Package job provides the broadcast Job aggregate and the service that
// drives a prompt through tokenizing, compiling and exporting.
package job

import (
	"errors"
	"sync"
	"time"

	"github.com/maauso/atis-broadcast/internal/audio"
	"github.com/maauso/atis-broadcast/internal/job/id"
	"github.com/maauso/atis-broadcast/internal/storage"
)

// Status represents the current state of a Job.
type Status string

const (
	// StatusIdle indicates the job was created but has not started.
	StatusIdle Status = "IDLE"
	// StatusTokenizing indicates the prompt is being split into tokens.
	StatusTokenizing Status = "TOKENIZING"
	// StatusCompiling indicates tokens are being resolved and assembled.
	StatusCompiling Status = "COMPILING"
	// StatusExporting indicates the assembled audio is being written out.
	StatusExporting Status = "EXPORTING"
	// StatusDone indicates the artifact was committed.
	StatusDone Status = "DONE"
	// StatusFailed indicates the run stopped on its first error.
	StatusFailed Status = "FAILED"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed.
// Every non-terminal state may fail; terminal states have no exits.
var validTransitions = map[Status][]Status{
	StatusIdle:       {StatusTokenizing, StatusFailed},
	StatusTokenizing: {StatusCompiling, StatusFailed},
	StatusCompiling:  {StatusExporting, StatusFailed},
	StatusExporting:  {StatusDone, StatusFailed},
	StatusDone:       {},
	StatusFailed:     {},
}

// canTransition checks if a transition from one status to another is valid.
func canTransition(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Job represents one broadcast compilation.
type Job struct {
	mu sync.RWMutex

	// ID is the unique identifier for this job.
	ID string
	// Status is the current job state.
	Status Status
	// Prompt is the source text.
	Prompt string
	// TokenCount is the number of tokens produced from the prompt.
	TokenCount int
	// DelayCount is the number of delay tokens among them.
	DelayCount int
	// Format is the canonical format of the output.
	Format audio.Format
	// Duration is the length of the output.
	Duration time.Duration
	// Artifact is set once the output is committed.
	Artifact storage.Artifact
	// Error contains the first error if the job failed.
	Error string
	// CreatedAt is when the job was created.
	CreatedAt time.Time
	// UpdatedAt is when the job was last updated.
	UpdatedAt time.Time
	// StartedAt is when tokenizing started.
	StartedAt time.Time
	// CompletedAt is when the job reached a terminal state.
	CompletedAt time.Time
}

// New creates a new Job with a generated ID in IDLE status.
func New(prompt string) *Job {
	return NewWithID(id.Generate(), prompt)
}

// NewWithID creates a new Job with the specified ID in IDLE status.
func NewWithID(jobID, prompt string) *Job {
	now := time.Now()
	return &Job{
		ID:        jobID,
		Status:    StatusIdle,
		Prompt:    prompt,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TransitionTo attempts to change the job status to the specified state.
// Returns ErrInvalidTransition if the transition is not allowed.
func (j *Job) TransitionTo(status Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.transitionLocked(status)
}

func (j *Job) transitionLocked(status Status) error {
	if !canTransition(j.Status, status) {
		return ErrInvalidTransition
	}

	j.Status = status
	j.UpdatedAt = time.Now()

	switch status {
	case StatusTokenizing:
		j.StartedAt = j.UpdatedAt
	case StatusDone, StatusFailed:
		j.CompletedAt = j.UpdatedAt
	}

	return nil
}

// StartTokenizing transitions the job from IDLE to TOKENIZING.
func (j *Job) StartTokenizing() error {
	return j.TransitionTo(StatusTokenizing)
}

// StartCompiling records the token counts and transitions to COMPILING.
func (j *Job) StartCompiling(tokens, delays int) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.transitionLocked(StatusCompiling); err != nil {
		return err
	}
	j.TokenCount = tokens
	j.DelayCount = delays
	return nil
}

// StartExporting records the compiled audio shape and transitions to EXPORTING.
func (j *Job) StartExporting(format audio.Format, duration time.Duration) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.transitionLocked(StatusExporting); err != nil {
		return err
	}
	j.Format = format
	j.Duration = duration
	return nil
}

// Complete records the committed artifact and transitions to DONE.
func (j *Job) Complete(artifact storage.Artifact) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.transitionLocked(StatusDone); err != nil {
		return err
	}
	j.Artifact = artifact
	return nil
}

// Fail transitions the job to FAILED state with an error message.
// Returns ErrInvalidTransition if the job is already terminal.
func (j *Job) Fail(errMsg string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.transitionLocked(StatusFailed); err != nil {
		return err
	}
	j.Error = errMsg
	return nil
}

// GetStatus returns the current job status (thread-safe).
func (j *Job) GetStatus() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// IsTerminal returns true if the job is in a terminal state.
func (j *Job) IsTerminal() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status == StatusDone || j.Status == StatusFailed
}

// Clone creates a copy of the job for safe reads.
func (j *Job) Clone() *Job {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return &Job{
		ID:          j.ID,
		Status:      j.Status,
		Prompt:      j.Prompt,
		TokenCount:  j.TokenCount,
		DelayCount:  j.DelayCount,
		Format:      j.Format,
		Duration:    j.Duration,
		Artifact:    j.Artifact,
		Error:       j.Error,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
}
