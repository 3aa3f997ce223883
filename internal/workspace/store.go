package workspace

import (
	"sync"

	"github.com/user/datalenz/internal/types"
)

// Snapshot is a consistent read of all five authoritative fields. Slices
// are copies; readers can hold a Snapshot without racing later mutations.
type Snapshot struct {
	SessionID  types.SessionID
	Schema     *types.DatasetSchema
	Latest     *types.QueryResponse
	History    []types.ExecutionRecord
	Transcript []types.Message
}

// Listener receives a full Snapshot after each committed mutation.
type Listener func(Snapshot)

// Store holds the authoritative in-memory session state: active session id,
// dataset schema, latest raw execution response, cumulative execution
// history, and transcript. Display surfaces subscribe for snapshots and
// never touch fields directly; all writes go through the four named
// operations so a render can never observe a torn cross-field update.
type Store struct {
	mu         sync.RWMutex
	sessionID  types.SessionID
	schema     *types.DatasetSchema
	latest     *types.QueryResponse
	history    []types.ExecutionRecord
	transcript []types.Message

	lmu       sync.RWMutex
	listeners map[string]Listener
}

// NewStore creates an empty Store in the uninitialized state (no session).
func NewStore() *Store {
	return &Store{
		listeners: make(map[string]Listener),
	}
}

// Subscribe registers a named listener. A surface re-subscribing under the
// same name replaces its previous registration.
func (s *Store) Subscribe(name string, fn Listener) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	s.listeners[name] = fn
}

// Unsubscribe removes a named listener.
func (s *Store) Unsubscribe(name string) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	delete(s.listeners, name)
}

// snapshotLocked builds a Snapshot. Caller must hold at least a read lock.
func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID: s.sessionID,
		Schema:    s.schema,
		Latest:    s.latest,
	}
	snap.History = make([]types.ExecutionRecord, len(s.history))
	copy(snap.History, s.history)
	snap.Transcript = make([]types.Message, len(s.transcript))
	copy(snap.Transcript, s.transcript)
	return snap
}

// Snapshot returns a consistent copy of all five fields.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// notify fans the snapshot out to all listeners. Called after the state
// lock is released so listeners may call Snapshot themselves.
func (s *Store) notify(snap Snapshot) {
	s.lmu.RLock()
	defer s.lmu.RUnlock()
	for _, fn := range s.listeners {
		fn(snap)
	}
}

// ReplaceSession atomically swaps every field for a session switch. The
// latest execution response is cleared: it described the previous session.
func (s *Store) ReplaceSession(id types.SessionID, schema *types.DatasetSchema, transcript []types.Message, history []types.ExecutionRecord) {
	s.mu.Lock()
	s.sessionID = id
	s.schema = schema
	s.latest = nil
	s.transcript = append([]types.Message(nil), transcript...)
	s.history = append([]types.ExecutionRecord(nil), history...)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// AttachSchema replaces the dataset schema only, after a successful
// upload. The commit is bound to the session the upload started against:
// if the active session changed mid-flight it is discarded and false is
// returned, so a stale result can never land in another session's state.
func (s *Store) AttachSchema(id types.SessionID, schema *types.DatasetSchema) bool {
	s.mu.Lock()
	if s.sessionID != id {
		s.mu.Unlock()
		return false
	}
	s.schema = schema
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return true
}

// RecordExecution stores the response as the latest raw plan+result and
// appends its derived record to the execution history in one commit.
// Discarded (returning false) when id is no longer the active session.
func (s *Store) RecordExecution(id types.SessionID, resp *types.QueryResponse, record types.ExecutionRecord) bool {
	s.mu.Lock()
	if s.sessionID != id {
		s.mu.Unlock()
		return false
	}
	s.latest = resp
	s.history = append(s.history, record)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return true
}

// AppendMessage appends one transcript entry. The transcript is
// append-only. Discarded (returning false) when id is no longer the
// active session.
func (s *Store) AppendMessage(id types.SessionID, msg types.Message) bool {
	s.mu.Lock()
	if s.sessionID != id {
		s.mu.Unlock()
		return false
	}
	s.transcript = append(s.transcript, msg)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return true
}
