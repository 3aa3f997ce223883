package tui

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/user/datalenz/internal/backend"
	"github.com/user/datalenz/internal/sessioncache"
	"github.com/user/datalenz/internal/types"
	"github.com/user/datalenz/internal/workspace"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 20, "short"},
		{"a longer query string", 10, "a longer …"},
		{"line\nbreaks\nhere", 40, "line breaks here"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestShortID(t *testing.T) {
	if got := shortID(types.SessionID("0123456789abcdef")); got != "01234567" {
		t.Errorf("shortID = %q", got)
	}
	if got := shortID(types.SessionID("abc")); got != "abc" {
		t.Errorf("shortID short input = %q", got)
	}
}

func TestLayoutCollapsesWhenNarrow(t *testing.T) {
	m := &Model{width: 70, height: 24}
	l := m.computeLayout()
	if l.WorkW != 0 || l.HistW != 0 {
		t.Errorf("narrow layout should drop side panes, got work=%d hist=%d", l.WorkW, l.HistW)
	}
	if l.ChatW != 70 {
		t.Errorf("chat should take full width, got %d", l.ChatW)
	}

	m.width = 120
	l = m.computeLayout()
	if l.WorkW == 0 || l.HistW == 0 {
		t.Error("wide layout should show side panes")
	}
	if l.ChatW+l.WorkW != 120 {
		t.Errorf("panes should fill width: chat=%d work=%d", l.ChatW, l.WorkW)
	}
}

func TestApplySnapshotResetsStaleHistorySelection(t *testing.T) {
	store := workspace.NewStore()
	m := New(nil, nil, store, nil, nil, nil)
	m.histSel = 5

	m.applySnapshot(workspace.Snapshot{
		SessionID: "s1",
		History:   []types.ExecutionRecord{{ID: "r1", Query: "q", Success: true}},
	})

	if m.histSel != -1 {
		t.Errorf("histSel = %d, want -1 after history shrank", m.histSel)
	}
	if m.snap.SessionID != "s1" {
		t.Errorf("snapshot not applied")
	}
}

// fakeGateway serves the session list and counts mutating calls so tests
// can assert which paths actually reached the backend.
type fakeGateway struct {
	sessions []types.Session
	lists    int
	deletes  int
}

func (f *fakeGateway) CreateSession(ctx context.Context) (*types.Session, error) {
	return &types.Session{ID: "new"}, nil
}

func (f *fakeGateway) RestoreSession(ctx context.Context, id types.SessionID) (*types.RestoreResult, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeGateway) DeleteSession(ctx context.Context, id types.SessionID) error {
	f.deletes++
	kept := f.sessions[:0]
	for _, s := range f.sessions {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	f.sessions = kept
	return nil
}

func (f *fakeGateway) SubmitQuery(ctx context.Context, sessionID types.SessionID, query string) (*types.QueryResponse, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeGateway) UploadDataset(ctx context.Context, sessionID types.SessionID, filename string, data io.Reader) (*types.UploadResult, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeGateway) ListSessions(ctx context.Context) ([]types.Session, error) {
	f.lists++
	return f.sessions, nil
}

// collectMsgs runs a command tree to completion, flattening batches.
func collectMsgs(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	var msgs []tea.Msg
	var walk func(c tea.Cmd)
	walk = func(c tea.Cmd) {
		if c == nil {
			return
		}
		msg := c()
		if batch, ok := msg.(tea.BatchMsg); ok {
			for _, sub := range batch {
				walk(sub)
			}
			return
		}
		msgs = append(msgs, msg)
	}
	walk(cmd)
	return msgs
}

func sessionModel(gw *fakeGateway, active types.SessionID) *Model {
	store := workspace.NewStore()
	if active != "" {
		store.ReplaceSession(active, nil, nil, nil)
	}
	manager := workspace.NewManager(gw, store)
	return New(manager, nil, store, nil, nil, sessioncache.New(gw, time.Minute))
}

func TestDeleteActiveSessionRefused(t *testing.T) {
	gw := &fakeGateway{sessions: []types.Session{{ID: "s1"}}}
	m := sessionModel(gw, "s1")

	var outcome *sessionOpMsg
	for _, msg := range collectMsgs(t, m.runCommand("/delete s1")) {
		if op, ok := msg.(sessionOpMsg); ok {
			outcome = &op
		}
	}
	if outcome == nil {
		t.Fatal("no delete outcome produced")
	}
	if outcome.err == nil {
		t.Fatal("expected deleting the open session to be refused")
	}
	if !backend.IsKind(outcome.err, backend.ValidationError) {
		t.Errorf("refusal should be a validation error, got %v", outcome.err)
	}
	if gw.deletes != 0 {
		t.Errorf("gateway delete called %d times for the open session", gw.deletes)
	}
}

func TestDeleteOtherSessionRefreshesList(t *testing.T) {
	gw := &fakeGateway{sessions: []types.Session{{ID: "s1"}, {ID: "s2"}}}
	m := sessionModel(gw, "s1")

	var refreshed *sessionsMsg
	for _, msg := range collectMsgs(t, m.runCommand("/delete s2")) {
		if sm, ok := msg.(sessionsMsg); ok {
			refreshed = &sm
		}
	}
	if gw.deletes != 1 {
		t.Fatalf("gateway delete called %d times, want 1", gw.deletes)
	}
	if refreshed == nil {
		t.Fatal("delete should refetch the session list")
	}
	if refreshed.err != nil {
		t.Fatalf("list refresh failed: %v", refreshed.err)
	}
	if len(refreshed.list) != 1 || refreshed.list[0].ID != "s1" {
		t.Errorf("refreshed list = %v, want only s1", refreshed.list)
	}
}

func TestSessionsCommandMarksActive(t *testing.T) {
	gw := &fakeGateway{sessions: []types.Session{
		{ID: "s1", LastActivity: time.Now()},
		{ID: "s2", Schema: &types.DatasetSchema{Columns: []types.ColumnInfo{{Name: "a"}}, RowCount: 10}},
	}}
	m := sessionModel(gw, "s1")

	for _, msg := range collectMsgs(t, m.runCommand("/sessions")) {
		m.Update(msg)
	}
	if !m.showSessions {
		t.Fatal("session list should be showing")
	}

	list := m.renderSessionList()
	if !strings.Contains(list, "(active)") {
		t.Error("open session not marked active in list")
	}
	if !strings.Contains(list, "s2") || !strings.Contains(list, "1 cols, 10 rows") {
		t.Errorf("list missing other session details:\n%s", list)
	}
}

func TestSessionListServedFromCacheWithinTTL(t *testing.T) {
	gw := &fakeGateway{sessions: []types.Session{{ID: "s1"}}}
	m := sessionModel(gw, "s1")

	for _, msg := range collectMsgs(t, m.runCommand("/sessions")) {
		m.Update(msg)
	}
	for _, msg := range collectMsgs(t, m.runCommand("/sessions")) {
		m.Update(msg)
	}
	if gw.lists != 1 {
		t.Errorf("gateway listed %d times, want 1 (second open served from cache)", gw.lists)
	}
}

func TestSubmitClosesSessionList(t *testing.T) {
	m := sessionModel(&fakeGateway{}, "s1")
	m.showSessions = true
	m.closeSessionList()
	if m.showSessions {
		t.Error("session list should close")
	}
}
