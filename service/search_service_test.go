package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatSearchContext(t *testing.T) {
	got := FormatSearchContext([]SearchResult{
		{Title: "First", Link: "https://a.example", Snippet: "snippet one"},
		{Title: "Second", Link: "https://b.example", Snippet: "snippet two"},
	})

	assert.Contains(t, got, "Web search results:")
	assert.Contains(t, got, "1. First")
	assert.Contains(t, got, "2. Second")
	assert.Contains(t, got, "https://b.example")
}

func TestFormatSearchContextEmpty(t *testing.T) {
	assert.Empty(t, FormatSearchContext(nil))
}
