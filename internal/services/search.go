package services

import (
  "context"
  "strings"
  "unicode/utf8"

  "github.com/yungbote/ollamadesk/internal/logger"
  "github.com/yungbote/ollamadesk/internal/types"
)

// snippetRadius is how many bytes of context surround the first match.
const snippetRadius = 40

type SearchHit struct {
  types.SearchResult
  Snippet string `json:"snippet"`
}

type SearchSummary struct {
  Total         int            `json:"total"`
  Conversations int            `json:"conversations"`
  ByRole        map[string]int `json:"by_role"`
}

type SearchService interface {
  Search(ctx context.Context, query string, conversationID *int64) ([]SearchHit, error)
  Summarize(results []SearchHit) SearchSummary
}

type searchService struct {
  log         *logger.Logger
  convService ConversationService
}

func NewSearchService(log *logger.Logger, convService ConversationService) SearchService {
  return &searchService{
    log:         log.With("service", "SearchService"),
    convService: convService,
  }
}

// Search runs the substring match and decorates each hit with a snippet
// around the first occurrence.
func (ss *searchService) Search(ctx context.Context, query string, conversationID *int64) ([]SearchHit, error) {
  results, err := ss.convService.SearchMessages(ctx, query, conversationID)
  if err != nil {
    return nil, err
  }
  hits := make([]SearchHit, 0, len(results))
  for _, r := range results {
    hits = append(hits, SearchHit{
      SearchResult: r,
      Snippet:      Snippet(r.Message.Content, query),
    })
  }
  return hits, nil
}

func (ss *searchService) Summarize(results []SearchHit) SearchSummary {
  summary := SearchSummary{
    Total:  len(results),
    ByRole: make(map[string]int),
  }
  seen := make(map[int64]struct{})
  for _, r := range results {
    if _, ok := seen[r.ConversationID]; !ok {
      seen[r.ConversationID] = struct{}{}
      summary.Conversations++
    }
    summary.ByRole[r.Message.Role.String()]++
  }
  return summary
}

// Snippet extracts a window of content around the first case-insensitive
// occurrence of query, with ellipses marking trimmed ends. Without a
// match it falls back to the head of the content.
func Snippet(content, query string) string {
  lowerContent := strings.ToLower(content)
  lowerQuery := strings.ToLower(strings.TrimSpace(query))

  start, end := 0, len(content)
  idx := strings.Index(lowerContent, lowerQuery)
  if idx >= 0 && lowerQuery != "" {
    start = idx - snippetRadius
    end = idx + len(lowerQuery) + snippetRadius
  } else {
    end = 2 * snippetRadius
  }
  if start < 0 {
    start = 0
  }
  if end > len(content) {
    end = len(content)
  }
  // Lowercasing can shift byte offsets for some scripts; clamp to rune
  // boundaries so the slice stays valid UTF-8.
  for start > 0 && start < len(content) && !utf8.RuneStart(content[start]) {
    start--
  }
  for end > start && end < len(content) && !utf8.RuneStart(content[end]) {
    end++
  }

  out := content[start:end]
  if start > 0 {
    out = "..." + out
  }
  if end < len(content) {
    out = out + "..."
  }
  return out
}
