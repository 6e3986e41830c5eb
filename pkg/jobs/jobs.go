// Package jobs records every pipeline run.
//
// A [Record] keeps what a caller needs to explain a render after the fact:
// the original and normalized script, the outcome URL or error code, and the
// full engine stderr with its exit code.
//
// Backends:
//   - [MemoryStore]: in-process, for tests and one-shot CLI runs
//   - [FileStore]: one JSON file per job, for the CLI and single hosts
//   - [SQLiteStore]: one database file, for hosts that keep long histories
//   - [MongoStore]: shared store for service deployments
package jobs

import (
	"context"
	"strings"
	"time"

	"github.com/cursor2d/cursor2d/pkg/errors"
)

// Status is the state of a job record.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// DefaultListLimit bounds List when the caller passes a non-positive limit.
const DefaultListLimit = 50

// Record describes one pipeline run.
type Record struct {
	ID               string    `json:"id" bson:"_id" yaml:"id"`
	Target           string    `json:"target" bson:"target" yaml:"target"`
	Status           Status    `json:"status" bson:"status" yaml:"status"`
	URL              string    `json:"url,omitempty" bson:"url,omitempty" yaml:"url,omitempty"`
	ArtifactPath     string    `json:"artifact_path,omitempty" bson:"artifact_path,omitempty" yaml:"artifact_path,omitempty"`
	ErrorCode        string    `json:"error_code,omitempty" bson:"error_code,omitempty" yaml:"error_code,omitempty"`
	ErrorMessage     string    `json:"error_message,omitempty" bson:"error_message,omitempty" yaml:"error_message,omitempty"`
	Pattern          string    `json:"pattern,omitempty" bson:"pattern,omitempty" yaml:"pattern,omitempty"`
	Script           string    `json:"script" bson:"script" yaml:"script"`
	NormalizedScript string    `json:"normalized_script,omitempty" bson:"normalized_script,omitempty" yaml:"normalized_script,omitempty"`
	Stderr           string    `json:"stderr,omitempty" bson:"stderr,omitempty" yaml:"stderr,omitempty"`
	ExitCode         int       `json:"exit_code" bson:"exit_code" yaml:"exit_code"`
	Cached           bool      `json:"cached,omitempty" bson:"cached,omitempty" yaml:"cached,omitempty"`
	CreatedAt        time.Time `json:"created_at" bson:"created_at" yaml:"created_at"`
	FinishedAt       time.Time `json:"finished_at,omitempty" bson:"finished_at,omitempty" yaml:"finished_at,omitempty"`
}

// Duration returns how long the run took, or zero while it is running.
func (r *Record) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.CreatedAt)
}

// Succeed marks the record finished with url.
func (r *Record) Succeed(url, artifactPath string, cached bool) {
	r.Status = StatusSucceeded
	r.URL = url
	r.ArtifactPath = artifactPath
	r.Cached = cached
	r.FinishedAt = time.Now()
}

// Fail marks the record failed with err, copying any diagnostics it carries.
func (r *Record) Fail(err error) {
	r.Status = StatusFailed
	r.ErrorCode = string(errors.GetCode(err))
	r.ErrorMessage = errors.UserMessage(err)
	if d, ok := errors.GetDiagnostics(err); ok {
		r.Stderr = d.Stderr
		r.ExitCode = d.ExitCode
		r.Pattern = d.Pattern
	}
	r.FinishedAt = time.Now()
}

// Store persists job records. Implementations are safe for concurrent use.
type Store interface {
	// Put inserts or replaces the record with r.ID.
	Put(ctx context.Context, r *Record) error

	// Get returns the record with id, or a NOT_FOUND error.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns up to limit records, newest first.
	List(ctx context.Context, limit int) ([]*Record, error)

	// Close releases the backend.
	Close() error
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeNotFound, "job %q not found", id)
}

func validID(id string) error {
	if id == "" {
		return errors.New(errors.ErrCodeInvalidInput, "job id cannot be empty")
	}
	if strings.Contains(id, "/") {
		return errors.New(errors.ErrCodeInvalidInput, "job id cannot contain /")
	}
	if err := errors.ValidateRelativePath(id); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid job id")
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
