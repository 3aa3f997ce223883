package types

import (
	"testing"
)

func TestNewMessageID(t *testing.T) {
	id := NewMessageID()
	if id == "" {
		t.Error("expected non-empty MessageID")
	}
	if len(string(id)) != 36 {
		t.Errorf("expected UUID format, got %s", id)
	}
}

func TestNewRecordID(t *testing.T) {
	a := NewRecordID()
	b := NewRecordID()
	if a == b {
		t.Error("expected unique RecordIDs")
	}
}
