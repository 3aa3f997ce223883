package workspace

import (
	"time"

	"github.com/user/datalenz/internal/types"
)

// restoredBanner opens every reconciled transcript.
const restoredBanner = "Session restored. Previous conversation loaded."

// Reconcile converts a restoration payload into the in-memory transcript
// and execution-history sequences: a synthetic system banner followed by
// the persisted messages in their original order, and the persisted
// execution logs in their original order, unmodified. Callers commit the
// result with Store.ReplaceSession, so reconciling the same payload twice
// yields identical state rather than duplicated banners or records.
func Reconcile(restored *types.RestoreResult) ([]types.Message, []types.ExecutionRecord) {
	transcript := make([]types.Message, 0, len(restored.Messages)+1)
	transcript = append(transcript, types.Message{
		ID:        types.NewMessageID(),
		Role:      types.RoleSystem,
		Content:   restoredBanner,
		Timestamp: time.Now(),
	})
	for _, msg := range restored.Messages {
		transcript = append(transcript, types.Message{
			ID:        types.MessageID(msg.ID),
			Role:      msg.Role,
			Content:   msg.Content,
			Timestamp: parseTimestamp(msg.CreatedAt),
		})
	}

	history := make([]types.ExecutionRecord, 0, len(restored.ExecutionLogs))
	for _, log := range restored.ExecutionLogs {
		history = append(history, recordFromLog(log))
	}

	return transcript, history
}

// recordFromLog converts a backend-persisted execution log into the
// canonical ExecutionRecord shape. Live query responses go through
// recordFromResponse; both paths produce the same shape.
func recordFromLog(log types.StoredExecutionLog) types.ExecutionRecord {
	return types.ExecutionRecord{
		ID:            types.RecordID(log.ID),
		Query:         log.Query,
		Code:          log.Code,
		Success:       log.Success,
		Stdout:        log.Stdout,
		Stderr:        log.Stderr,
		ExecutionTime: log.ExecutionTime,
		RetryCount:    log.RetryCount,
		CreatedAt:     parseTimestamp(log.CreatedAt),
	}
}

// recordFromResponse derives the ExecutionRecord for one completed query
// round-trip. An absent retry count defaults to zero.
func recordFromResponse(query string, resp *types.QueryResponse) types.ExecutionRecord {
	return types.ExecutionRecord{
		ID:            types.NewRecordID(),
		Query:         query,
		Code:          resp.Result.Code,
		Success:       resp.Result.Success,
		Stdout:        resp.Result.Stdout,
		Stderr:        resp.Result.Stderr,
		ExecutionTime: resp.Result.ExecutionTime,
		RetryCount:    resp.Result.Retries(),
		CreatedAt:     time.Now(),
	}
}

// parseTimestamp parses a persisted creation time, tolerating missing
// sub-second precision. Unparseable values fall back to the current time
// rather than dropping the entry.
func parseTimestamp(raw string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts
		}
	}
	return time.Now()
}
