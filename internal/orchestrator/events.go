package orchestrator

import (
	"time"

	"github.com/mschirtzinger/ragsync/internal/upload"
)

// EventType names a progress event emitted during a run.
type EventType string

const (
	// EventRunStarted is emitted once the source directory has been scanned.
	EventRunStarted EventType = "run_started"

	// EventBatchDone is emitted after every upload batch.
	EventBatchDone EventType = "batch_done"

	// EventRunComplete is emitted when the run finishes, successfully or not.
	EventRunComplete EventType = "run_complete"
)

// Event is a progress notification. Events are values; observers may keep them.
type Event struct {
	Type    EventType
	RunID   string
	Time    time.Time
	Files   int
	Batch   *upload.BatchResult
	Summary *Summary
}

// Observer receives progress events. Notify must not block for long.
type Observer interface {
	Notify(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Notify implements Observer.
func (f ObserverFunc) Notify(e Event) { f(e) }
