package workspace

import (
	"testing"

	"github.com/user/datalenz/internal/types"
)

func TestTranscriptTokens(t *testing.T) {
	est, err := NewTokenEstimator()
	if err != nil {
		t.Skipf("tokenizer unavailable: %v", err)
	}

	if got := est.TranscriptTokens(nil); got != 0 {
		t.Errorf("expected 0 for empty transcript, got %d", got)
	}

	one := est.TranscriptTokens([]types.Message{
		{Role: types.RoleUser, Content: "Show average price by city"},
	})
	if one == 0 {
		t.Error("expected non-zero count")
	}

	two := est.TranscriptTokens([]types.Message{
		{Role: types.RoleUser, Content: "Show average price by city"},
		{Role: types.RoleAssistant, Content: "Analysis complete! Check the workspace for results."},
	})
	if two <= one {
		t.Errorf("expected count to grow with the transcript: %d then %d", one, two)
	}
}
