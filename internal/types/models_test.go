package types

import (
	"encoding/json"
	"testing"
)

func TestQueryResponseSerialization(t *testing.T) {
	raw := `{
		"plan": {"steps": ["load data", "group by city"], "estimated_complexity": "low", "required_libraries": ["pandas"]},
		"result": {"success": true, "code": "df.mean()", "stdout": "42", "stderr": "", "artifacts": [], "execution_time": 1.5},
		"session_id": "abc-123"
	}`

	var resp QueryResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatal(err)
	}

	if len(resp.Plan.Steps) != 2 {
		t.Errorf("expected 2 plan steps, got %d", len(resp.Plan.Steps))
	}
	if !resp.Result.Success {
		t.Error("expected success")
	}
	if resp.SessionID != SessionID("abc-123") {
		t.Errorf("unexpected session id %s", resp.SessionID)
	}
}

func TestRetriesDefaultsToZero(t *testing.T) {
	var result ExecutionResult
	if err := json.Unmarshal([]byte(`{"success": true}`), &result); err != nil {
		t.Fatal(err)
	}
	if got := result.Retries(); got != 0 {
		t.Errorf("expected 0 retries when absent, got %d", got)
	}

	if err := json.Unmarshal([]byte(`{"success": true, "retry_count": 2}`), &result); err != nil {
		t.Fatal(err)
	}
	if got := result.Retries(); got != 2 {
		t.Errorf("expected 2 retries, got %d", got)
	}
}

func TestSchemaOptionalOnSession(t *testing.T) {
	var sess Session
	if err := json.Unmarshal([]byte(`{"id": "s1", "user_id": "u1", "is_active": true}`), &sess); err != nil {
		t.Fatal(err)
	}
	if sess.Schema != nil {
		t.Error("expected nil schema when absent")
	}
}
