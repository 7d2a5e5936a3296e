package upload

import "time"

// FailedFile identifies a file that could not be uploaded.
type FailedFile struct {
	Path   string `json:"path" yaml:"path"`
	Name   string `json:"name" yaml:"name"`
	Reason string `json:"reason" yaml:"reason"`
}

// Stats accumulates the outcome of an upload run.
//
// After a run that was not interrupted:
//
//	Succeeded + Failed() == Attempted
//	Attempted + Skipped == Total
type Stats struct {
	Total        int           `json:"total" yaml:"total"`
	Skipped      int           `json:"skipped" yaml:"skipped"`
	Attempted    int           `json:"attempted" yaml:"attempted"`
	Succeeded    int           `json:"succeeded" yaml:"succeeded"`
	Batches      int           `json:"batches" yaml:"batches"`
	SkippedFiles []string      `json:"skipped_files,omitempty" yaml:"skipped_files,omitempty"`
	FailedFiles  []FailedFile  `json:"failed_files,omitempty" yaml:"failed_files,omitempty"`
	Elapsed      time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Failed returns the number of files that could not be uploaded.
func (s *Stats) Failed() int {
	return len(s.FailedFiles)
}

// AveragePerFile returns the mean elapsed time per attempted file.
func (s *Stats) AveragePerFile() time.Duration {
	if s.Attempted == 0 {
		return 0
	}
	return s.Elapsed / time.Duration(s.Attempted)
}

// add folds one batch outcome into the totals.
func (s *Stats) add(res BatchResult) {
	s.Batches++
	s.Succeeded += len(res.Uploaded)
	s.FailedFiles = append(s.FailedFiles, res.Failed...)
}
