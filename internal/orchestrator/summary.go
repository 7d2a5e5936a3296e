package orchestrator

import (
	"time"

	"github.com/mschirtzinger/ragsync/internal/parse"
	"github.com/mschirtzinger/ragsync/internal/upload"
)

// Summary is the outcome of one sync run.
type Summary struct {
	RunID        string        `json:"run_id" yaml:"run_id"`
	Collection   string        `json:"collection" yaml:"collection"`
	CollectionID string        `json:"collection_id,omitempty" yaml:"collection_id,omitempty"`
	Dir          string        `json:"dir" yaml:"dir"`
	NoFiles      bool          `json:"no_files,omitempty" yaml:"no_files,omitempty"`
	Upload       *upload.Stats `json:"upload" yaml:"upload"`
	Parse        *parse.Result `json:"parse,omitempty" yaml:"parse,omitempty"`
	ParseSkipped bool          `json:"parse_skipped,omitempty" yaml:"parse_skipped,omitempty"`
	ParseError   string        `json:"parse_error,omitempty" yaml:"parse_error,omitempty"`
	Error        string        `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt    time.Time     `json:"started_at" yaml:"started_at"`
	FinishedAt   time.Time     `json:"finished_at" yaml:"finished_at"`
}

// Duration returns the wall-clock time of the whole run.
func (s *Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// OK reports whether the run finished without a fatal error and every
// attempted file was uploaded.
func (s *Summary) OK() bool {
	return s.Error == "" && s.Upload != nil && s.Upload.Failed() == 0
}
