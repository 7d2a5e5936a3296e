package upload

import (
	"time"

	"github.com/mschirtzinger/ragsync/internal/scan"
)

// BatchResult is the outcome of one upload batch.
type BatchResult struct {
	// Number is the 1-based batch index.
	Number int

	// Size is the number of files assigned to the batch.
	Size int

	// Uploaded lists the files the service accepted.
	Uploaded []scan.File

	// Failed lists the files that could not be read or uploaded.
	Failed []FailedFile

	// Err is the upload call's error, if the call itself failed.
	Err error

	// Duration covers the upload call only.
	Duration time.Duration
}

// OK reports whether every file in the batch was uploaded.
func (r BatchResult) OK() bool {
	return len(r.Failed) == 0
}

// Partition splits files into contiguous batches of at most size files,
// preserving order. Only the last batch may be smaller than size.
func Partition(files []scan.File, size int) [][]scan.File {
	if size < 1 {
		size = 1
	}
	batches := make([][]scan.File, 0, (len(files)+size-1)/size)
	for start := 0; start < len(files); start += size {
		end := min(start+size, len(files))
		batches = append(batches, files[start:end])
	}
	return batches
}
