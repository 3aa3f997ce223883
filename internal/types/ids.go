package types

import (
	"github.com/google/uuid"
)

type SessionID string
type MessageID string
type RecordID string

// NewMessageID returns a fresh identifier for a client-originated message.
// Messages persisted by the backend keep their server-issued IDs.
func NewMessageID() MessageID {
	return MessageID(uuid.New().String())
}

// NewRecordID returns a fresh identifier for a client-derived execution record.
func NewRecordID() RecordID {
	return RecordID(uuid.New().String())
}
