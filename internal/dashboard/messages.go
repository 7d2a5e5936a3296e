package dashboard

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mschirtzinger/ragsync/internal/orchestrator"
)

// MessageType defines the type of dashboard message.
type MessageType string

const (
	// MessageTypeSnapshot is sent to a client right after it connects.
	MessageTypeSnapshot MessageType = "snapshot"

	// MessageTypeRunStarted indicates the source directory was scanned.
	MessageTypeRunStarted MessageType = "run_started"

	// MessageTypeBatchDone indicates an upload batch finished.
	MessageTypeBatchDone MessageType = "batch_done"

	// MessageTypeRunComplete indicates the run finished.
	MessageTypeRunComplete MessageType = "run_complete"
)

// Message is a dashboard broadcast.
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// RunStartedData announces a new run.
type RunStartedData struct {
	RunID string `json:"run_id"`
	Files int    `json:"files"`
}

// BatchDoneData describes one finished batch.
type BatchDoneData struct {
	RunID      string   `json:"run_id"`
	Batch      int      `json:"batch"`
	Size       int      `json:"size"`
	Uploaded   int      `json:"uploaded"`
	Failed     []string `json:"failed,omitempty"`
	Error      string   `json:"error,omitempty"`
	DurationMS int64    `json:"duration_ms"`
}

// RunCompleteData carries the final counters.
type RunCompleteData struct {
	RunID      string `json:"run_id"`
	OK         bool   `json:"ok"`
	Succeeded  int    `json:"succeeded"`
	Failed     int    `json:"failed"`
	Skipped    int    `json:"skipped"`
	Parsed     int    `json:"parsed"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// Progress is the running state of the current sync.
type Progress struct {
	RunID     string `json:"run_id,omitempty"`
	Files     int    `json:"files"`
	Batches   int    `json:"batches"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Done      bool   `json:"done"`
	OK        bool   `json:"ok"`
}

func newMessage(t MessageType, data any) (Message, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Message{}, fmt.Errorf("failed to marshal %s data: %w", t, err)
	}
	return Message{Type: t, Timestamp: time.Now(), Data: raw}, nil
}

// Progress returns a copy of the current run state.
func (s *Server) Progress() Progress {
	s.progressMu.RLock()
	defer s.progressMu.RUnlock()
	return s.progress
}

// Notify implements orchestrator.Observer.
func (s *Server) Notify(e orchestrator.Event) {
	var (
		msg Message
		err error
	)

	s.progressMu.Lock()
	switch e.Type {
	case orchestrator.EventRunStarted:
		s.progress = Progress{RunID: e.RunID, Files: e.Files}
		msg, err = newMessage(MessageTypeRunStarted, RunStartedData{RunID: e.RunID, Files: e.Files})

	case orchestrator.EventBatchDone:
		if e.Batch == nil {
			break
		}
		b := e.Batch
		s.progress.Batches++
		s.progress.Succeeded += len(b.Uploaded)
		s.progress.Failed += len(b.Failed)

		data := BatchDoneData{
			RunID:      e.RunID,
			Batch:      b.Number,
			Size:       b.Size,
			Uploaded:   len(b.Uploaded),
			DurationMS: b.Duration.Milliseconds(),
		}
		for _, f := range b.Failed {
			data.Failed = append(data.Failed, f.Name)
		}
		if b.Err != nil {
			data.Error = b.Err.Error()
		}
		msg, err = newMessage(MessageTypeBatchDone, data)

	case orchestrator.EventRunComplete:
		if e.Summary == nil {
			break
		}
		sum := e.Summary
		s.progress.Done = true
		s.progress.OK = sum.OK()

		data := RunCompleteData{
			RunID:      e.RunID,
			OK:         sum.OK(),
			Error:      sum.Error,
			DurationMS: sum.Duration().Milliseconds(),
		}
		if sum.Upload != nil {
			data.Succeeded = sum.Upload.Succeeded
			data.Failed = sum.Upload.Failed()
			data.Skipped = sum.Upload.Skipped
		}
		if sum.Parse != nil {
			data.Parsed = sum.Parse.Submitted
		}
		msg, err = newMessage(MessageTypeRunComplete, data)
	}
	s.progressMu.Unlock()

	if err != nil {
		s.logger.Error("Failed to build dashboard message", "error", err)
		return
	}
	if msg.Type == "" {
		return
	}
	msg.Timestamp = e.Time
	s.Broadcast(msg)
}
