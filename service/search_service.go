package service

import (
	"context"
	"fmt"
	"strings"

	customsearch "google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// SearchResult is a single hit from Google Custom Search.
type SearchResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// WebSearcher is the web-fallback boundary used when the document context
// cannot answer a question.
type WebSearcher interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// SearchService performs Google Custom Search queries.
type SearchService struct {
	apiKey   string
	engineID string
}

func NewSearchService(apiKey, engineID string) *SearchService {
	return &SearchService{
		apiKey:   apiKey,
		engineID: engineID,
	}
}

// Search returns up to 5 results for the query.
func (s *SearchService) Search(ctx context.Context, query string) ([]SearchResult, error) {
	opts := []option.ClientOption{}
	if s.apiKey != "" {
		opts = append(opts, option.WithAPIKey(s.apiKey))
	}
	searchService, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create search service: %v", err)
	}

	search := searchService.Cse.List()
	search.Q(query)
	search.Cx(s.engineID)
	search.Num(5)

	result, err := search.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %v", err)
	}

	searchResults := make([]SearchResult, 0)
	for _, item := range result.Items {
		searchResults = append(searchResults, SearchResult{
			Title:   item.Title,
			Link:    item.Link,
			Snippet: item.Snippet,
		})
	}
	return searchResults, nil
}

// FormatSearchContext renders search results as supplemental context for
// the AI layer.
func FormatSearchContext(results []SearchResult) string {
	if len(results) == 0 {
		return ""
	}
	var builder strings.Builder
	builder.WriteString("Web search results:\n")
	for i, r := range results {
		fmt.Fprintf(&builder, "%d. %s\n%s\n%s\n\n", i+1, r.Title, r.Snippet, r.Link)
	}
	return builder.String()
}
