package types

import (
	"encoding/json"
	"time"
)

// Role identifies the author of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Session is the server-tracked analysis workspace record.
type Session struct {
	ID           SessionID      `json:"id"`
	UserID       string         `json:"user_id"`
	CreatedAt    time.Time      `json:"created_at"`
	LastActivity time.Time      `json:"last_activity"`
	Schema       *DatasetSchema `json:"dataset_schema,omitempty"`
	IsActive     bool           `json:"is_active"`
}

// ColumnInfo describes one column of an uploaded dataset.
type ColumnInfo struct {
	Name         string            `json:"name"`
	Dtype        string            `json:"dtype"`
	NullCount    int               `json:"null_count"`
	UniqueCount  int               `json:"unique_count"`
	SampleValues []json.RawMessage `json:"sample_values,omitempty"`
	MinValue     json.RawMessage   `json:"min_value,omitempty"`
	MaxValue     json.RawMessage   `json:"max_value,omitempty"`
}

// DatasetSchema is an immutable structural snapshot of an uploaded dataset.
// It is replaced wholesale on re-upload, never patched.
type DatasetSchema struct {
	Columns  []ColumnInfo `json:"columns"`
	RowCount int          `json:"row_count"`
}

// Message is one transcript entry. The transcript is append-only: a message
// is never edited or removed once appended.
type Message struct {
	ID        MessageID `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ArtifactType classifies an execution output item.
type ArtifactType string

const (
	ArtifactCode  ArtifactType = "code"
	ArtifactChart ArtifactType = "chart"
	ArtifactTable ArtifactType = "table"
	ArtifactError ArtifactType = "error"
)

// Artifact is a single typed output produced by an execution. Content is
// opaque to the orchestrator: base64 PNG for charts, HTML or JSON for
// tables, source text for code.
type Artifact struct {
	Type     ArtifactType    `json:"type"`
	Content  json.RawMessage `json:"content"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// ExecutionPlan describes the next execution only; each query response
// supersedes it wholesale.
type ExecutionPlan struct {
	Steps               []string `json:"steps"`
	EstimatedComplexity string   `json:"estimated_complexity"`
	RequiredLibraries   []string `json:"required_libraries"`
}

// ExecutionResult is the outcome portion of a query response.
type ExecutionResult struct {
	Success       bool       `json:"success"`
	Code          string     `json:"code"`
	Stdout        string     `json:"stdout"`
	Stderr        string     `json:"stderr"`
	Artifacts     []Artifact `json:"artifacts"`
	ExecutionTime float64    `json:"execution_time"`
	RetryCount    *int       `json:"retry_count,omitempty"`
}

// Retries returns the retry count, defaulting an absent value to zero.
func (r *ExecutionResult) Retries() int {
	if r.RetryCount == nil {
		return 0
	}
	return *r.RetryCount
}

// QueryResponse is the combined plan+result answer to one query.
type QueryResponse struct {
	Plan      ExecutionPlan   `json:"plan"`
	Result    ExecutionResult `json:"result"`
	SessionID SessionID       `json:"session_id"`
}

// ExecutionRecord is one completed query round-trip as held in the
// client's chronological, append-only execution history.
type ExecutionRecord struct {
	ID            RecordID  `json:"id"`
	Query         string    `json:"query"`
	Code          string    `json:"code"`
	Success       bool      `json:"success"`
	Stdout        string    `json:"stdout"`
	Stderr        string    `json:"stderr"`
	ExecutionTime float64   `json:"execution_time"`
	RetryCount    int       `json:"retry_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// StoredMessage is a message as persisted by the backend, with its
// creation time in wire form.
type StoredMessage struct {
	ID        string `json:"id"`
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// StoredExecutionLog is an execution record as persisted by the backend.
type StoredExecutionLog struct {
	ID            string  `json:"id"`
	Query         string  `json:"query"`
	Code          string  `json:"code"`
	Success       bool    `json:"success"`
	Stdout        string  `json:"stdout"`
	Stderr        string  `json:"stderr"`
	ExecutionTime float64 `json:"execution_time"`
	RetryCount    int     `json:"retry_count"`
	CreatedAt     string  `json:"created_at"`
}

// RestoreResult is the full restoration payload for a prior session.
type RestoreResult struct {
	Message       string               `json:"message"`
	SessionID     SessionID            `json:"session_id"`
	Session       Session              `json:"session"`
	Messages      []StoredMessage      `json:"messages"`
	ExecutionLogs []StoredExecutionLog `json:"execution_logs"`
}

// UploadResult is the backend's answer to a dataset upload.
type UploadResult struct {
	Schema   DatasetSchema `json:"schema"`
	Filename string        `json:"filename"`
	Message  string        `json:"message"`
}
