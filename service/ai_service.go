package service

import (
	"context"

	"github.com/tieubaoca/docqa-be/types"
)

// AIService is the reasoning and summarization boundary. Implementations
// must catch provider failures (quota, network) and return an error the
// caller can substitute with a deterministic fallback message; they never
// panic across this boundary.
type AIService interface {
	ChatWithContext(ctx context.Context, question string, history []types.Message, contextData string) (string, error)
	Summarize(ctx context.Context, text string, maxTokens int) (string, error)
}
