package workspace

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/user/datalenz/internal/types"
)

// autoInsightPrompt is the fixed analytical prompt fired after a successful
// upload. The chart requirement is part of the service contract: the
// backend persists the named PNG files as chart artifacts.
const autoInsightPrompt = "Analyze this dataset with deep, structured reasoning. Provide a comprehensive summary including: " +
	"1. Data structure overview. 2. Key statistics. 3. Three interesting trends. 4. Three suggested questions. \n\n" +
	"IMPORTANT: You MUST generate and save at least 3 distinct visualizations as PNG files " +
	"(e.g., 'distribution.png', 'correlation.png', 'trends.png') using matplotlib/seaborn. " +
	"These files are required to display the charts in the UI."

const (
	msgNoSession       = "No active session. Start a new session first."
	msgNoDataset       = "Please upload a dataset first before asking questions."
	msgAnalysisOK      = "Analysis complete! Check the workspace for results."
	msgAnalysisFailed  = "Analysis failed. Check the terminal output for details."
	msgInsightsRunning = "Generating automatic insights..."
	msgInsightsDone    = "I have analyzed your dataset. Check the workspace for a detailed summary and visualizations."
)

// Dispatcher submits user questions and system-generated auto-insight
// prompts against the active session, appending the derived conversational
// messages and execution records through the store.
type Dispatcher struct {
	backend Backend
	store   *Store
	queue   *Queue

	uploadMu sync.Mutex
	uploads  map[types.SessionID]bool
}

// NewDispatcher wires a Dispatcher to the gateway, store, and lane queue.
func NewDispatcher(b Backend, store *Store, queue *Queue) *Dispatcher {
	return &Dispatcher{
		backend: b,
		store:   store,
		queue:   queue,
		uploads: make(map[types.SessionID]bool),
	}
}

// Submit enqueues a query on the active session's dispatch lane. done, when
// non-nil, is invoked after the dispatch completes (on the lane goroutine).
func (d *Dispatcher) Submit(query string, done func()) error {
	sessionID := d.store.Snapshot().SessionID
	return d.queue.Enqueue(sessionID, func(ctx context.Context) {
		d.Dispatch(ctx, query)
		if done != nil {
			done()
		}
	})
}

// Dispatch runs one interactive query round-trip synchronously. Local
// preconditions are checked first: without an active session or an attached
// dataset schema it appends exactly one system message and issues no
// backend call. Dispatch failures never block the session; they are
// appended to the transcript and the user may immediately try again.
func (d *Dispatcher) Dispatch(ctx context.Context, query string) {
	snap := d.store.Snapshot()
	sessionID := snap.SessionID
	if sessionID == "" {
		d.appendSystem(sessionID, msgNoSession)
		return
	}
	if snap.Schema == nil {
		d.appendSystem(sessionID, msgNoDataset)
		return
	}

	// Optimistic append: the user's message shows before the backend answers.
	d.store.AppendMessage(sessionID, types.Message{
		ID:        types.NewMessageID(),
		Role:      types.RoleUser,
		Content:   query,
		Timestamp: time.Now(),
	})

	resp, err := d.backend.SubmitQuery(ctx, sessionID, query)
	if err != nil {
		slog.Warn("query dispatch failed", "session_id", string(sessionID), "error", err)
		d.appendSystem(sessionID, "Error: "+displayMessage(err))
		return
	}

	// The commit is bound to the session the query started against; after
	// a mid-flight session switch the response is dropped.
	if !d.store.RecordExecution(sessionID, resp, recordFromResponse(query, resp)) {
		slog.Warn("discarding query result for inactive session", "session_id", string(sessionID))
		return
	}
	d.store.AppendMessage(sessionID, types.Message{
		ID:        types.NewMessageID(),
		Role:      types.RoleAssistant,
		Content:   outcomeMessage(&resp.Result),
		Timestamp: time.Now(),
	})
}

// outcomeMessage summarizes an execution result for the transcript.
func outcomeMessage(result *types.ExecutionResult) string {
	if !result.Success {
		return msgAnalysisFailed
	}
	msg := msgAnalysisOK
	if retries := result.Retries(); retries > 0 {
		noun := "retries"
		if retries == 1 {
			noun = "retry"
		}
		msg += fmt.Sprintf(" (Corrected after %d %s)", retries, noun)
	}
	return msg
}

// Upload sends a dataset to the backend for the active session, attaches
// the returned schema, and schedules the auto-insight dispatch on the
// session's lane. A second upload for the same session while one is in
// flight is refused; uploads are not cancellable.
func (d *Dispatcher) Upload(ctx context.Context, filename string, data io.Reader) (*types.UploadResult, error) {
	sessionID := d.store.Snapshot().SessionID
	if sessionID == "" {
		return nil, fmt.Errorf("no active session")
	}

	d.uploadMu.Lock()
	if d.uploads[sessionID] {
		d.uploadMu.Unlock()
		return nil, fmt.Errorf("upload already in progress for session %s", sessionID)
	}
	d.uploads[sessionID] = true
	d.uploadMu.Unlock()
	defer func() {
		d.uploadMu.Lock()
		delete(d.uploads, sessionID)
		d.uploadMu.Unlock()
	}()

	uploaded, err := d.backend.UploadDataset(ctx, sessionID, filename, data)
	if err != nil {
		// Schema stays untouched on failure; the caller surfaces the error.
		return nil, fmt.Errorf("upload dataset: %w", err)
	}

	schema := uploaded.Schema
	if !d.store.AttachSchema(sessionID, &schema) {
		slog.Warn("discarding upload result for inactive session", "session_id", string(sessionID))
		return uploaded, nil
	}
	d.appendSystem(sessionID, fmt.Sprintf("Dataset loaded! I can see %d columns.", len(schema.Columns)))

	slog.Info("dataset uploaded",
		"session_id", string(sessionID),
		"filename", uploaded.Filename,
		"columns", len(schema.Columns),
		"rows", schema.RowCount,
	)

	if err := d.queue.Enqueue(sessionID, func(ctx context.Context) {
		d.autoInsight(ctx, sessionID)
	}); err != nil {
		slog.Warn("auto-insight not scheduled", "session_id", string(sessionID), "error", err)
	}

	return uploaded, nil
}

// autoInsight runs the backend-driven analysis pass that follows a
// successful upload. Its failures are logged, never surfaced as blocking
// errors, and it must not wedge interactive queries: it runs on the same
// lane as ordinary dispatches, so it is serialized but never exclusive.
func (d *Dispatcher) autoInsight(ctx context.Context, sessionID types.SessionID) {
	d.appendSystem(sessionID, msgInsightsRunning)

	resp, err := d.backend.SubmitQuery(ctx, sessionID, autoInsightPrompt)
	if err != nil {
		slog.Warn("auto-insight failed", "session_id", string(sessionID), "error", err)
		return
	}

	if !d.store.RecordExecution(sessionID, resp, recordFromResponse(autoInsightPrompt, resp)) {
		slog.Warn("discarding auto-insight result for inactive session", "session_id", string(sessionID))
		return
	}

	if !resp.Result.Success {
		slog.Warn("auto-insight execution unsuccessful",
			"session_id", string(sessionID),
			"stderr_len", len(resp.Result.Stderr),
		)
		return
	}

	d.store.AppendMessage(sessionID, types.Message{
		ID:        types.NewMessageID(),
		Role:      types.RoleAssistant,
		Content:   msgInsightsDone,
		Timestamp: time.Now(),
	})
}

func (d *Dispatcher) appendSystem(sessionID types.SessionID, content string) {
	d.store.AppendMessage(sessionID, types.Message{
		ID:        types.NewMessageID(),
		Role:      types.RoleSystem,
		Content:   content,
		Timestamp: time.Now(),
	})
}
