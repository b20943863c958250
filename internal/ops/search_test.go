package ops

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/feedlark/lister/internal/db"
	"github.com/feedlark/lister/internal/errors"
	"github.com/feedlark/lister/internal/post"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Init(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func seedPost(t *testing.T, database *sql.DB, id int64, feed, text string) {
	t.Helper()
	added, err := db.InsertPost(database, &post.Post{
		ID:           id,
		CreatedAt:    1_700_000_000 + id,
		AuthorName:   "Ada",
		AuthorHandle: "ada",
		Text:         text,
		Feed:         feed,
	})
	require.NoError(t, err)
	require.True(t, added)
}

func TestSearchRequiresQuery(t *testing.T) {
	database := testDB(t)

	for _, q := range []string{"", "   "} {
		_, err := Search(database, SearchInput{Query: q})
		require.Error(t, err)
		require.True(t, errors.Is(err, errors.ErrInvalidRequest))
	}
}

func TestSearchRejectsOverlongQuery(t *testing.T) {
	database := testDB(t)

	_, err := Search(database, SearchInput{Query: strings.Repeat("x", MaxQueryLength+1)})
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestSearchRanksAndPaginates(t *testing.T) {
	database := testDB(t)
	seedPost(t, database, 1, "infra", "failover failover failover drill")
	seedPost(t, database, 2, "infra", "one failover mention")
	seedPost(t, database, 3, "markets", "unrelated")

	out, err := Search(database, SearchInput{Query: "failover", Limit: 1})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	require.Equal(t, int64(1), out.Items[0].ID)
	require.Equal(t, "relevance", out.Sort)
	require.Equal(t, 2, out.Pagination.Total)
	require.True(t, out.Pagination.HasMore)

	rest, err := Search(database, SearchInput{Query: "failover", Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, rest.Items, 1)
	require.Equal(t, int64(2), rest.Items[0].ID)
	require.False(t, rest.Pagination.HasMore)
}

func TestSearchSnippetEscapesContent(t *testing.T) {
	database := testDB(t)
	seedPost(t, database, 1, "infra", `<script>alert(1)</script> failover notes`)

	out, err := Search(database, SearchInput{Query: "failover"})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)

	snippet := out.Items[0].Snippet
	require.NotContains(t, snippet, "<script>")
	require.Contains(t, snippet, "&lt;script&gt;")
	require.Contains(t, snippet, "<b>failover</b>")
}

func TestSearchDefaultLimit(t *testing.T) {
	database := testDB(t)
	seedPost(t, database, 1, "infra", "hello world")

	out, err := Search(database, SearchInput{Query: "hello"})
	require.NoError(t, err)
	require.Equal(t, DefaultSearchLimit, out.Pagination.Limit)

	out, err = Search(database, SearchInput{Query: "hello", Limit: MaxSearchLimit + 50})
	require.NoError(t, err)
	require.Equal(t, MaxSearchLimit, out.Pagination.Limit)
}

func TestEscapeSnippetHTML(t *testing.T) {
	in := "before [[[B]]]match[[[/B]]] <i>raw</i> & after"
	got := escapeSnippetHTML(in)
	require.Equal(t, "before <b>match</b> &lt;i&gt;raw&lt;/i&gt; &amp; after", got)
}

func TestTruncateSnippet(t *testing.T) {
	t.Run("short strings untouched", func(t *testing.T) {
		require.Equal(t, "hello", truncateSnippet("hello", 10))
	})

	t.Run("never splits runes", func(t *testing.T) {
		s := strings.Repeat("é", 100)
		got := truncateSnippet(s, 51)
		trimmed := strings.TrimSuffix(got, "...")
		require.True(t, strings.HasSuffix(got, "..."))
		require.Equal(t, trimmed, strings.ToValidUTF8(trimmed, ""))
	})

	t.Run("closes open highlight tag", func(t *testing.T) {
		s := "<b>" + strings.Repeat("a", 300) + "</b>"
		got := truncateSnippet(s, 300)
		require.Equal(t, 1, strings.Count(got, "<b>"))
		require.Equal(t, 1, strings.Count(got, "</b>"))
	})

	t.Run("trims partial entity", func(t *testing.T) {
		s := strings.Repeat("a", 296) + "&amp;"
		got := truncateSnippet(s, 300)
		require.NotContains(t, got, "&a")
	})
}
