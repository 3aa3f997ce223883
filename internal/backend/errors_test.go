package backend

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindForStatus(t *testing.T) {
	tests := []struct {
		status int
		kind   Kind
	}{
		{400, ValidationError},
		{401, Unauthenticated},
		{403, Unauthenticated},
		{404, NotFound},
		{422, ValidationError},
		{500, ServerError},
		{503, ServerError},
	}
	for _, tt := range tests {
		if got := kindForStatus(tt.status); got != tt.kind {
			t.Errorf("status %d: expected %s, got %s", tt.status, tt.kind, got)
		}
	}
}

func TestErrorMessageFallbacks(t *testing.T) {
	withDetail := &Error{Kind: ServerError, Status: 500, Detail: "sandbox crashed"}
	if got := withDetail.Message(); got != "sandbox crashed" {
		t.Errorf("expected backend detail, got %q", got)
	}

	noDetail := &Error{Kind: ServerError, Status: 502}
	if got := noDetail.Message(); got != "API error: 502" {
		t.Errorf("expected status fallback, got %q", got)
	}

	network := &Error{Kind: NetworkError}
	if got := network.Message(); got == "" {
		t.Error("expected generic message for network error")
	}
}

func TestIsKindThroughWrapping(t *testing.T) {
	err := fmt.Errorf("restore session: %w", &Error{Kind: NotFound, Status: 404})
	if !IsKind(err, NotFound) {
		t.Error("expected NotFound through wrapping")
	}
	if IsKind(err, NetworkError) {
		t.Error("did not expect NetworkError")
	}
	if IsKind(errors.New("plain"), NotFound) {
		t.Error("plain errors carry no kind")
	}
}
