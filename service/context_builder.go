package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

const (
	summarizeInputLimit = 8000

	summarizedNote = "[NOTE: File content summarized for token limit.]"
	truncatedNote  = "[NOTE: File content truncated for token limit.]"
)

// ContextBuilder shapes extracted file content into a prompt-sized context
// block. Content over maxChars gets summarized by the AI layer; if that
// fails the content is truncated instead so a question can always be
// answered with something.
type ContextBuilder struct {
	ai               AIService
	maxChars         int
	summaryMaxTokens int
}

func NewContextBuilder(ai AIService, maxChars, summaryMaxTokens int) *ContextBuilder {
	if maxChars <= 0 {
		maxChars = 2000
	}
	if summaryMaxTokens <= 0 {
		summaryMaxTokens = 400
	}
	return &ContextBuilder{
		ai:               ai,
		maxChars:         maxChars,
		summaryMaxTokens: summaryMaxTokens,
	}
}

// BuildContext produces the system context string for a question about the
// named file.
func (c *ContextBuilder) BuildContext(ctx context.Context, filename, content string) string {
	if len(content) > c.maxChars {
		content = c.condense(ctx, filename, content)
	}
	return fmt.Sprintf(
		"Use the content of the file '%s' to answer the user's questions.\n"+
			"--- FILE CONTENT ---\n%s\n--- END FILE CONTENT ---",
		filename, content,
	)
}

func (c *ContextBuilder) condense(ctx context.Context, filename, content string) string {
	input := content
	if len(input) > summarizeInputLimit {
		input = input[:summarizeInputLimit]
	}
	if c.ai != nil {
		summary, err := c.ai.Summarize(ctx, input, c.summaryMaxTokens)
		if err == nil && summary != "" {
			return summary + "\n" + summarizedNote
		}
		logrus.Warnf("[CONTEXT] Summarization failed for %s, truncating instead: %v", filename, err)
	}
	return content[:c.maxChars] + "\n" + truncatedNote
}
