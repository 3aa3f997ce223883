package workspace

import (
	"testing"
	"time"

	"github.com/user/datalenz/internal/types"
)

func restorePayload() *types.RestoreResult {
	return &types.RestoreResult{
		SessionID: "s1",
		Session:   types.Session{ID: "s1", Schema: &types.DatasetSchema{RowCount: 100}},
		Messages: []types.StoredMessage{
			{ID: "m1", Role: types.RoleUser, Content: "Show average price", CreatedAt: "2025-06-01T10:00:00Z"},
			{ID: "m2", Role: types.RoleAssistant, Content: "Analysis complete!", CreatedAt: "2025-06-01T10:00:05Z"},
			{ID: "m3", Role: types.RoleUser, Content: "Now plot it", CreatedAt: "2025-06-01T10:01:00Z"},
		},
		ExecutionLogs: []types.StoredExecutionLog{
			{ID: "e1", Query: "Show average price", Code: "df.mean()", Success: true, Stdout: "12.5", ExecutionTime: 0.8, RetryCount: 1, CreatedAt: "2025-06-01T10:00:05Z"},
			{ID: "e2", Query: "Now plot it", Code: "df.plot()", Success: false, Stderr: "boom", CreatedAt: "2025-06-01T10:01:03Z"},
		},
	}
}

func TestReconcileShape(t *testing.T) {
	transcript, history := Reconcile(restorePayload())

	if len(transcript) != 4 {
		t.Fatalf("expected banner + 3 messages, got %d entries", len(transcript))
	}
	banner := transcript[0]
	if banner.Role != types.RoleSystem || banner.Content != restoredBanner {
		t.Errorf("expected synthetic banner first, got %+v", banner)
	}
	if transcript[1].ID != "m1" || transcript[2].ID != "m2" || transcript[3].ID != "m3" {
		t.Error("messages out of original order")
	}
	want, _ := time.Parse(time.RFC3339, "2025-06-01T10:00:00Z")
	if !transcript[1].Timestamp.Equal(want) {
		t.Errorf("expected persisted timestamp, got %v", transcript[1].Timestamp)
	}

	if len(history) != 2 {
		t.Fatalf("expected 2 records, got %d", len(history))
	}
	if history[0].ID != "e1" || history[1].ID != "e2" {
		t.Error("records out of original order")
	}
	if history[0].RetryCount != 1 {
		t.Errorf("retry count not preserved: %d", history[0].RetryCount)
	}
	if history[1].Success {
		t.Error("expected failed record to stay failed")
	}
}

func TestReconcileIsIdempotentViaReplace(t *testing.T) {
	store := NewStore()
	payload := restorePayload()

	transcript, history := Reconcile(payload)
	store.ReplaceSession(payload.SessionID, payload.Session.Schema, transcript, history)

	transcript, history = Reconcile(payload)
	store.ReplaceSession(payload.SessionID, payload.Session.Schema, transcript, history)

	snap := store.Snapshot()
	if len(snap.Transcript) != 4 {
		t.Errorf("expected 4 transcript entries after repeated reconciliation, got %d", len(snap.Transcript))
	}
	if len(snap.History) != 2 {
		t.Errorf("expected 2 records after repeated reconciliation, got %d", len(snap.History))
	}
}

func TestParseTimestampFallsBack(t *testing.T) {
	before := time.Now()
	ts := parseTimestamp("not-a-time")
	if ts.Before(before) {
		t.Error("expected fallback to current time")
	}

	// FastAPI commonly persists without a zone suffix.
	ts = parseTimestamp("2025-06-01T10:00:00.123456")
	if ts.Year() != 2025 || ts.Nanosecond() == 0 {
		t.Errorf("expected microsecond timestamp parsed, got %v", ts)
	}
}

func TestRecordFromResponseDefaultsRetries(t *testing.T) {
	resp := &types.QueryResponse{
		Result: types.ExecutionResult{Success: true, Code: "df.head()", Stdout: "ok", ExecutionTime: 0.2},
	}
	rec := recordFromResponse("peek", resp)
	if rec.RetryCount != 0 {
		t.Errorf("expected retry count 0, got %d", rec.RetryCount)
	}
	if rec.Query != "peek" || rec.Code != "df.head()" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.ID == "" {
		t.Error("expected generated record id")
	}
}
