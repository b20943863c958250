package web

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/feedlark/lister/internal/config"
	"github.com/feedlark/lister/internal/db"
	"github.com/feedlark/lister/internal/post"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()

	database, err := db.Init(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	for i, text := range []string{
		"first failover note",
		"second post about markets",
		"<script>alert(1)</script> injected content",
	} {
		added, err := db.InsertPost(database, &post.Post{
			ID:           int64(i + 1),
			CreatedAt:    1_700_000_000 + int64(i),
			AuthorName:   "Ada",
			AuthorHandle: "ada",
			Text:         text,
			Feed:         "infra",
		})
		require.NoError(t, err)
		require.True(t, added)
	}
	require.NoError(t, db.InsertAlert(database, &db.Alert{
		ID: "01A", PostID: 1, Feed: "infra", Content: "first failover note", CreatedAt: 1_700_000_000,
	}))

	srv, err := NewServer(database, config.DefaultConfig(), "test", "127.0.0.1", 0)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, ts *httptest.Server, path string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestRootRedirectsToPosts(t *testing.T) {
	ts := testServer(t)

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/posts", resp.Header.Get("Location"))
}

func TestPostsPage(t *testing.T) {
	ts := testServer(t)

	resp, body := get(t, ts, "/posts")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "first failover note")
	require.Contains(t, body, "ada")

	// Stored markup must arrive escaped
	require.NotContains(t, body, "<script>alert(1)</script>")
}

func TestPostsPageFeedFilter(t *testing.T) {
	ts := testServer(t)

	resp, body := get(t, ts, "/posts?feed=ghost")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotContains(t, body, "first failover note")
}

func TestSearchPage(t *testing.T) {
	ts := testServer(t)

	// Without a query the form renders with no results section
	resp, _ := get(t, ts, "/posts/search")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := get(t, ts, "/posts/search?q=failover")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "<b>failover</b>")
}

func TestSearchPageBadQuery(t *testing.T) {
	ts := testServer(t)

	resp, _ := get(t, ts, `/posts/search?q=%22unbalanced`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFeedsPage(t *testing.T) {
	ts := testServer(t)

	resp, body := get(t, ts, "/feeds")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "infra")
}

func TestAlertsPage(t *testing.T) {
	ts := testServer(t)

	resp, body := get(t, ts, "/alerts")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "first failover note")
}

func TestSecurityHeaders(t *testing.T) {
	ts := testServer(t)

	resp, _ := get(t, ts, "/posts")
	require.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	require.NotEmpty(t, resp.Header.Get("Content-Security-Policy"))
}

func TestStaticStylesheet(t *testing.T) {
	ts := testServer(t)

	resp, _ := get(t, ts, "/static/style.css")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
