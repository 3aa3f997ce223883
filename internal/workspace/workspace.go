// Package workspace is the client-side orchestration core: it owns the
// session lifecycle, serializes query dispatch, rebuilds history on session
// restoration, and fans state out to the display surfaces through a single
// store.
package workspace

import (
	"context"
	"io"

	"github.com/user/datalenz/internal/backend"
	"github.com/user/datalenz/internal/types"
)

// Backend is the slice of the gateway the orchestrator depends on.
type Backend interface {
	CreateSession(ctx context.Context) (*types.Session, error)
	RestoreSession(ctx context.Context, id types.SessionID) (*types.RestoreResult, error)
	DeleteSession(ctx context.Context, id types.SessionID) error
	SubmitQuery(ctx context.Context, sessionID types.SessionID, query string) (*types.QueryResponse, error)
	UploadDataset(ctx context.Context, sessionID types.SessionID, filename string, data io.Reader) (*types.UploadResult, error)
}

// Compile-time interface compliance check.
var _ Backend = (*backend.Client)(nil)
