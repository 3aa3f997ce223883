package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/user/datalenz/internal/backend"
	"github.com/user/datalenz/internal/types"
)

// Phase is the lifecycle state of the active session.
type Phase string

const (
	PhaseUninitialized Phase = "uninitialized"
	PhaseCreating      Phase = "creating"
	PhaseActive        Phase = "active"
	PhaseRestoring     Phase = "restoring"
	PhaseError         Phase = "error"
)

const welcomeMessage = "Welcome to DataLenz! Upload a dataset to get started, or ask me anything about your data."

// Manager owns the current session identifier and its creation,
// restoration, and deletion. At most one creation or restoration attempt is
// outstanding at a time; a second trigger while one is in flight is a no-op.
type Manager struct {
	backend Backend
	store   *Store

	mu       sync.Mutex
	phase    Phase
	inflight bool
	lastErr  string
}

// NewManager creates a Manager in the Uninitialized phase.
func NewManager(b Backend, store *Store) *Manager {
	return &Manager{
		backend: b,
		store:   store,
		phase:   PhaseUninitialized,
	}
}

// Phase returns the current lifecycle phase.
func (m *Manager) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// LastError returns the human-readable message of the last failed
// transition, empty outside the Error phase.
func (m *Manager) LastError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// begin claims the in-flight guard and transitions to next. It returns
// false when another creation or restoration is already outstanding.
func (m *Manager) begin(next Phase) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inflight {
		return false
	}
	m.inflight = true
	m.phase = next
	m.lastErr = ""
	return true
}

// finish releases the guard and records the transition outcome.
func (m *Manager) finish(next Phase, errMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inflight = false
	m.phase = next
	m.lastErr = errMsg
}

// NewSession creates a fresh backend session and atomically resets the
// store around it: empty schema, empty history, a single welcome message.
// A trigger while a create or restore is outstanding is ignored.
func (m *Manager) NewSession(ctx context.Context) error {
	if !m.begin(PhaseCreating) {
		slog.Debug("session creation already in flight, ignoring trigger")
		return nil
	}

	session, err := m.backend.CreateSession(ctx)
	if err != nil {
		m.finish(PhaseError, displayMessage(err))
		return fmt.Errorf("create session: %w", err)
	}

	m.store.ReplaceSession(session.ID, nil, []types.Message{{
		ID:        types.NewMessageID(),
		Role:      types.RoleSystem,
		Content:   welcomeMessage,
		Timestamp: time.Now(),
	}}, nil)
	m.finish(PhaseActive, "")

	slog.Info("session created", "session_id", string(session.ID))
	return nil
}

// Restore switches to a prior session, rebuilding transcript and history
// from the backend's persisted record set. The five store fields are
// committed in one swap; on failure the previously active session remains
// selected and untouched.
func (m *Manager) Restore(ctx context.Context, id types.SessionID) error {
	if !m.begin(PhaseRestoring) {
		slog.Debug("session transition already in flight, ignoring restore", "session_id", string(id))
		return nil
	}

	restored, err := m.backend.RestoreSession(ctx, id)
	if err != nil {
		m.finish(PhaseError, displayMessage(err))
		return fmt.Errorf("restore session: %w", err)
	}

	transcript, history := Reconcile(restored)
	m.store.ReplaceSession(restored.SessionID, restored.Session.Schema, transcript, history)
	m.finish(PhaseActive, "")

	slog.Info("session restored",
		"session_id", string(restored.SessionID),
		"messages", len(restored.Messages),
		"execution_logs", len(restored.ExecutionLogs),
	)
	return nil
}

// Retry re-enters Creating after a failed transition.
func (m *Manager) Retry(ctx context.Context) error {
	return m.NewSession(ctx)
}

// Delete removes a non-active session. Deleting the currently active
// session is refused locally by policy, without a network call.
func (m *Manager) Delete(ctx context.Context, id types.SessionID) error {
	if m.store.Snapshot().SessionID == id {
		return &backend.Error{Kind: backend.ValidationError, Detail: "cannot delete the active session"}
	}
	if err := m.backend.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	slog.Info("session deleted", "session_id", string(id))
	return nil
}

// displayMessage extracts a user-facing message from a gateway failure.
func displayMessage(err error) string {
	var be *backend.Error
	if errors.As(err, &be) {
		return be.Message()
	}
	return err.Error()
}
