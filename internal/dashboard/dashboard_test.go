package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mschirtzinger/ragsync/internal/orchestrator"
	"github.com/mschirtzinger/ragsync/internal/parse"
	"github.com/mschirtzinger/ragsync/internal/scan"
	"github.com/mschirtzinger/ragsync/internal/upload"
)

func startServer(t *testing.T) *Server {
	t.Helper()
	server := NewServer(&Config{Port: 0})
	require.NoError(t, server.Start())
	t.Cleanup(func() { _ = server.Stop() })
	return server
}

func dial(t *testing.T, ctx context.Context, server *Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, "ws://"+server.Addr()+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func readMessage(t *testing.T, ctx context.Context, conn *websocket.Conn) Message {
	t.Helper()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestServerStartStop(t *testing.T) {
	server := NewServer(&Config{Port: 0})
	require.NoError(t, server.Start())
	assert.NotEmpty(t, server.Addr())
	assert.NotContains(t, server.Addr(), ":0")
	require.NoError(t, server.Stop())
}

func TestSnapshotOnConnect(t *testing.T) {
	server := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, server)
	msg := readMessage(t, ctx, conn)
	assert.Equal(t, MessageTypeSnapshot, msg.Type)
	assert.Equal(t, 1, server.ClientCount())
}

func TestNotifyBroadcastsRunEvents(t *testing.T) {
	server := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, server)
	readMessage(t, ctx, conn)

	server.Notify(orchestrator.Event{Type: orchestrator.EventRunStarted, RunID: "r1", Files: 3})
	msg := readMessage(t, ctx, conn)
	require.Equal(t, MessageTypeRunStarted, msg.Type)
	var started RunStartedData
	require.NoError(t, json.Unmarshal(msg.Data, &started))
	assert.Equal(t, RunStartedData{RunID: "r1", Files: 3}, started)

	server.Notify(orchestrator.Event{
		Type:  orchestrator.EventBatchDone,
		RunID: "r1",
		Batch: &upload.BatchResult{
			Number:   1,
			Size:     3,
			Uploaded: []scan.File{{Name: "a.md"}, {Name: "b.md"}},
			Failed:   []upload.FailedFile{{Name: "c.md", Reason: "read error"}},
			Err:      errors.New("partial"),
		},
	})
	msg = readMessage(t, ctx, conn)
	require.Equal(t, MessageTypeBatchDone, msg.Type)
	var batch BatchDoneData
	require.NoError(t, json.Unmarshal(msg.Data, &batch))
	assert.Equal(t, 2, batch.Uploaded)
	assert.Equal(t, []string{"c.md"}, batch.Failed)
	assert.Equal(t, "partial", batch.Error)

	start := time.Now()
	server.Notify(orchestrator.Event{
		Type:  orchestrator.EventRunComplete,
		RunID: "r1",
		Summary: &orchestrator.Summary{
			RunID:      "r1",
			Upload:     &upload.Stats{Total: 3, Attempted: 3, Succeeded: 3},
			Parse:      &parse.Result{Submitted: 3},
			StartedAt:  start,
			FinishedAt: start.Add(2 * time.Second),
		},
	})
	msg = readMessage(t, ctx, conn)
	require.Equal(t, MessageTypeRunComplete, msg.Type)
	var done RunCompleteData
	require.NoError(t, json.Unmarshal(msg.Data, &done))
	assert.True(t, done.OK)
	assert.Equal(t, 3, done.Parsed)
	assert.Equal(t, int64(2000), done.DurationMS)

	p := server.Progress()
	assert.Equal(t, "r1", p.RunID)
	assert.Equal(t, 1, p.Batches)
	assert.Equal(t, 2, p.Succeeded)
	assert.Equal(t, 1, p.Failed)
	assert.True(t, p.Done)
}

func TestMultipleClients(t *testing.T) {
	server := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conns := make([]*websocket.Conn, 3)
	for i := range conns {
		conns[i] = dial(t, ctx, server)
		readMessage(t, ctx, conns[i])
	}
	assert.Equal(t, 3, server.ClientCount())

	server.Notify(orchestrator.Event{Type: orchestrator.EventRunStarted, RunID: "r2", Files: 1})
	for _, conn := range conns {
		assert.Equal(t, MessageTypeRunStarted, readMessage(t, ctx, conn).Type)
	}
}

func TestHealthAndProgressEndpoints(t *testing.T) {
	server := startServer(t)
	server.Notify(orchestrator.Event{Type: orchestrator.EventRunStarted, RunID: "r3", Files: 9})

	resp, err := http.Get("http://" + server.Addr() + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health["status"])

	resp2, err := http.Get("http://" + server.Addr() + "/progress")
	require.NoError(t, err)
	defer resp2.Body.Close()

	var p Progress
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&p))
	assert.Equal(t, "r3", p.RunID)
	assert.Equal(t, 9, p.Files)
}

func TestNotifyIgnoresIncompleteEvents(t *testing.T) {
	server := NewServer(nil)
	server.Notify(orchestrator.Event{Type: orchestrator.EventBatchDone})
	server.Notify(orchestrator.Event{Type: orchestrator.EventRunComplete})
	assert.Equal(t, Progress{}, server.Progress())
	assert.Empty(t, server.broadcast)
}
