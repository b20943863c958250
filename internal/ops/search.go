package ops

import (
	"database/sql"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/feedlark/lister/internal/db"
	"github.com/feedlark/lister/internal/errors"
	"github.com/feedlark/lister/internal/post"
)

// Search limits
const (
	MaxQueryLength  = db.MaxSearchQueryChars
	MaxSnippetChars = 300
)

// SearchInput contains parameters for the Search operation.
type SearchInput struct {
	Query  string // required, FTS5 match syntax
	Limit  int    // default: 20, max: 100
	Offset int    // default: 0
}

// SearchResultItem is one ranked match.
type SearchResultItem struct {
	post.Post
	Score float64 `json:"score"`
	// Snippet is HTML-safe: user-controlled content is escaped; only
	// <b>...</b> highlight tags are present.
	Snippet string `json:"snippet"`
}

// SearchOutput contains the result of the Search operation.
type SearchOutput struct {
	Items      []SearchResultItem `json:"items"`
	Pagination Pagination         `json:"pagination"`
	Sort       string             `json:"sort"` // "relevance"
}

// Search performs full-text search across stored posts, ranked by BM25
// relevance.
func Search(database *sql.DB, input SearchInput) (*SearchOutput, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, errors.NewInvalidRequest("query is required")
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("query exceeds maximum length of %d characters", MaxQueryLength))
	}

	limit := boundLimit(input.Limit, DefaultSearchLimit, MaxSearchLimit)
	offset := max(input.Offset, 0)

	results, total, err := db.SearchPosts(database, query, limit, offset)
	if err != nil {
		return nil, err
	}

	items := make([]SearchResultItem, len(results))
	for i, r := range results {
		// Escape user content before restoring highlight tags, then
		// truncate (preserves UTF-8 and closes unclosed tags).
		snippet := escapeSnippetHTML(r.Snippet)
		snippet = truncateSnippet(snippet, MaxSnippetChars)

		items[i] = SearchResultItem{
			Post:    r.Post,
			Score:   r.Score,
			Snippet: snippet,
		}
	}

	return &SearchOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(items) < total,
			Total:   total,
		},
		Sort: "relevance",
	}, nil
}

// truncateSnippet truncates a snippet to approximately maxChars while:
// 1. Preserving valid UTF-8 (never splits multi-byte runes)
// 2. Preserving markup integrity (closes any open <b> tags)
// 3. Preferring word boundaries when possible
func truncateSnippet(s string, maxChars int) string {
	if maxChars <= 0 {
		return "..."
	}

	if len(s) <= maxChars {
		return s
	}

	// Find a safe truncation point that doesn't split UTF-8 runes
	truncateAt := maxChars
	for truncateAt > 0 && !utf8.RuneStart(s[truncateAt]) {
		truncateAt--
	}

	if truncateAt == 0 {
		return "..."
	}

	truncated := s[:truncateAt]

	// Avoid returning malformed HTML by trimming any partial tag/entity
	// suffix. The only tags present should be <b> and </b>, and user
	// content may contain HTML entities (e.g., &lt;).
	if lastLT := strings.LastIndex(truncated, "<"); lastLT != -1 && !strings.Contains(truncated[lastLT:], ">") {
		truncated = truncated[:lastLT]
	}
	if lastAmp := strings.LastIndex(truncated, "&"); lastAmp != -1 && !strings.Contains(truncated[lastAmp:], ";") {
		truncated = truncated[:lastAmp]
	}

	// Try to cut at word boundary if we're not losing too much content
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > truncateAt/2 {
		truncated = truncated[:lastSpace]
	}

	// Close any unclosed <b> tags to keep the HTML structure valid
	openTags := strings.Count(truncated, "<b>")
	closeTags := strings.Count(truncated, "</b>")
	for range openTags - closeTags {
		truncated += "</b>"
	}

	return truncated + "..."
}

// escapeSnippetHTML escapes user content in a snippet while preserving
// the highlight markers emitted by the FTS query, preventing stored post
// content from injecting markup into the web UI.
func escapeSnippetHTML(s string) string {
	// Use unlikely placeholders that won't appear in normal content
	const (
		openPlaceholder  = "\x00LISTER_B_OPEN\x00"
		closePlaceholder = "\x00LISTER_B_CLOSE\x00"
	)

	// Step 1: Replace the markers from db.SearchPosts with placeholders.
	s = strings.ReplaceAll(s, db.SnippetOpenMarker, openPlaceholder)
	s = strings.ReplaceAll(s, db.SnippetCloseMarker, closePlaceholder)

	// Step 2: Escape all HTML in user content
	s = html.EscapeString(s)

	// Step 3: Restore highlight tags (and only highlight tags).
	s = strings.ReplaceAll(s, openPlaceholder, "<b>")
	s = strings.ReplaceAll(s, closePlaceholder, "</b>")

	return s
}
