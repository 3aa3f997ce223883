package workspace

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/user/datalenz/internal/types"
)

// TokenEstimator approximates how much of the backend's prompt budget the
// conversation consumes. The count is advisory (shown in the status bar);
// the backend owns the real context assembly.
type TokenEstimator struct {
	tokenizer *tiktoken.Tiktoken
}

// NewTokenEstimator creates an estimator on the cl100k_base encoding.
func NewTokenEstimator() (*TokenEstimator, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("get tokenizer: %w", err)
	}
	return &TokenEstimator{tokenizer: enc}, nil
}

// TranscriptTokens returns the token count of all message content in order.
func (e *TokenEstimator) TranscriptTokens(transcript []types.Message) int {
	total := 0
	for _, msg := range transcript {
		total += len(e.tokenizer.Encode(msg.Content, nil, nil))
	}
	return total
}
