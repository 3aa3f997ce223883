package workspace

import (
	"testing"
	"time"

	"github.com/user/datalenz/internal/types"
)

func TestReplaceSessionSwapsAllFields(t *testing.T) {
	store := NewStore()
	store.ReplaceSession("a", &types.DatasetSchema{RowCount: 10}, []types.Message{
		{ID: "m1", Role: types.RoleSystem, Content: "hello"},
	}, []types.ExecutionRecord{
		{ID: "r1", Query: "old"},
	})
	store.RecordExecution("a", &types.QueryResponse{SessionID: "a"}, types.ExecutionRecord{ID: "r2"})

	store.ReplaceSession("b", &types.DatasetSchema{RowCount: 3}, nil, nil)

	snap := store.Snapshot()
	if snap.SessionID != "b" {
		t.Errorf("expected session b, got %s", snap.SessionID)
	}
	if snap.Schema == nil || snap.Schema.RowCount != 3 {
		t.Error("expected schema of session b")
	}
	if snap.Latest != nil {
		t.Error("expected latest response to be cleared on session switch")
	}
	if len(snap.History) != 0 || len(snap.Transcript) != 0 {
		t.Error("expected history and transcript to be replaced")
	}
}

func TestListenerSeesConsistentSnapshot(t *testing.T) {
	store := NewStore()

	var seen []Snapshot
	store.Subscribe("test", func(snap Snapshot) {
		seen = append(seen, snap)
	})

	store.ReplaceSession("a", &types.DatasetSchema{RowCount: 100}, []types.Message{
		{ID: "m1", Role: types.RoleSystem, Content: "welcome"},
	}, nil)
	store.AppendMessage("a", types.Message{ID: "m2", Role: types.RoleUser, Content: "hi", Timestamp: time.Now()})

	if len(seen) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(seen))
	}
	// Every notification carries the complete state, never a partial view.
	first := seen[0]
	if first.SessionID != "a" || first.Schema == nil || len(first.Transcript) != 1 {
		t.Errorf("first snapshot incomplete: %+v", first)
	}
	second := seen[1]
	if len(second.Transcript) != 2 {
		t.Errorf("expected 2 transcript entries, got %d", len(second.Transcript))
	}
}

func TestSnapshotIsolatedFromLaterMutations(t *testing.T) {
	store := NewStore()
	store.ReplaceSession("a", nil, nil, nil)
	store.AppendMessage("a", types.Message{ID: "m1", Role: types.RoleUser, Content: "one"})

	snap := store.Snapshot()
	store.AppendMessage("a", types.Message{ID: "m2", Role: types.RoleUser, Content: "two"})

	if len(snap.Transcript) != 1 {
		t.Errorf("snapshot mutated after the fact: %d entries", len(snap.Transcript))
	}
}

func TestCommitsBoundToSession(t *testing.T) {
	store := NewStore()
	store.ReplaceSession("a", nil, nil, nil)
	store.ReplaceSession("b", nil, nil, nil)

	if store.AppendMessage("a", types.Message{ID: "m1", Content: "stale"}) {
		t.Error("append for a replaced session must be discarded")
	}
	if store.RecordExecution("a", &types.QueryResponse{}, types.ExecutionRecord{ID: "r1"}) {
		t.Error("record for a replaced session must be discarded")
	}
	if store.AttachSchema("a", &types.DatasetSchema{RowCount: 5}) {
		t.Error("schema for a replaced session must be discarded")
	}

	snap := store.Snapshot()
	if len(snap.Transcript) != 0 || len(snap.History) != 0 || snap.Schema != nil || snap.Latest != nil {
		t.Errorf("stale commits leaked into session b: %+v", snap)
	}

	if !store.AppendMessage("b", types.Message{ID: "m2", Content: "current"}) {
		t.Error("append for the active session must commit")
	}
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	store := NewStore()
	count := 0
	store.Subscribe("test", func(Snapshot) { count++ })
	store.AppendMessage("", types.Message{ID: "m1"})
	store.Unsubscribe("test")
	store.AppendMessage("", types.Message{ID: "m2"})

	if count != 1 {
		t.Errorf("expected 1 notification, got %d", count)
	}
}
