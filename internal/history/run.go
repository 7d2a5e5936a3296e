package history

import "github.com/mschirtzinger/ragsync/internal/orchestrator"

// FromSummary converts a finished sync summary into a ledger row.
func FromSummary(s *orchestrator.Summary) Run {
	run := Run{
		ID:           s.RunID,
		Collection:   s.Collection,
		CollectionID: s.CollectionID,
		Dir:          s.Dir,
		ParseSkipped: s.ParseSkipped,
		ParseError:   s.ParseError,
		Error:        s.Error,
		StartedAt:    s.StartedAt,
		FinishedAt:   s.FinishedAt,
	}
	if s.Upload != nil {
		run.Total = s.Upload.Total
		run.Skipped = s.Upload.Skipped
		run.Attempted = s.Upload.Attempted
		run.Succeeded = s.Upload.Succeeded
		run.Failed = s.Upload.Failed()
		for _, f := range s.Upload.FailedFiles {
			run.Failures = append(run.Failures, Failure{Path: f.Path, Reason: f.Reason})
		}
	}
	if s.Parse != nil {
		run.ParseSubmitted = s.Parse.Submitted
	}
	return run
}
