package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"github.com/feedlark/lister/internal/config"
	"github.com/feedlark/lister/internal/db"
	"github.com/feedlark/lister/internal/ops"
	"github.com/feedlark/lister/internal/post"
)

func testHandlers(t *testing.T) *Handlers {
	t.Helper()

	database, err := db.Init(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	for i, text := range []string{
		"failover completed cleanly",
		"routine markets update",
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
		ID: "01A", PostID: 1, Feed: "infra", Content: "failover completed cleanly", CreatedAt: 1_700_000_000,
	}))

	return NewHandlers(database, config.DefaultConfig())
}

func toolRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()
	require.ElementsMatch(t, []string{
		"post_search", "post_latest", "feed_inventory", "alert_recent",
	}, names)
}

func TestNewServerRegistersTools(t *testing.T) {
	h := testHandlers(t)
	srv := NewServer(h.db, h.cfg, "test")
	require.NotNil(t, srv)
}

func TestHandleSearch(t *testing.T) {
	h := testHandlers(t)

	result, err := h.HandleSearch(context.Background(), toolRequest(map[string]any{
		"query": "failover",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var out ops.SearchOutput
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &out))
	require.Len(t, out.Items, 1)
	require.Equal(t, int64(1), out.Items[0].ID)
	require.Equal(t, "relevance", out.Sort)
}

func TestHandleSearchMissingQuery(t *testing.T) {
	h := testHandlers(t)

	result, err := h.HandleSearch(context.Background(), toolRequest(map[string]any{}))
	require.NoError(t, err)
	require.True(t, result.IsError)
	require.Contains(t, resultText(t, result), "INVALID_REQUEST")
}

func TestHandleLatest(t *testing.T) {
	h := testHandlers(t)

	result, err := h.HandleLatest(context.Background(), toolRequest(map[string]any{
		"feed":  "infra",
		"limit": float64(1),
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var out ops.LatestOutput
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &out))
	require.Len(t, out.Items, 1)
	require.Equal(t, int64(2), out.Items[0].ID)
	require.True(t, out.Pagination.HasMore)
}

func TestHandleInventory(t *testing.T) {
	h := testHandlers(t)

	result, err := h.HandleInventory(context.Background(), toolRequest(nil))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var out ops.InventoryOutput
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &out))
	require.Equal(t, 2, out.TotalPosts)
	require.Equal(t, int64(2), out.ResumeID)
	require.Len(t, out.Feeds, 1)
}

func TestHandleAlerts(t *testing.T) {
	h := testHandlers(t)

	result, err := h.HandleAlerts(context.Background(), toolRequest(map[string]any{}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var out ops.AlertsOutput
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &out))
	require.Len(t, out.Items, 1)
	require.Equal(t, "failover completed cleanly", out.Items[0].Content)
}

func TestErrorResultHidesInternalDetails(t *testing.T) {
	h := testHandlers(t)

	// A malformed FTS query surfaces as a structured invalid-request error
	result, err := h.HandleSearch(context.Background(), toolRequest(map[string]any{
		"query": `"unbalanced`,
	}))
	require.NoError(t, err)
	require.True(t, result.IsError)

	var payload struct {
		Error struct {
			Code   string `json:"code"`
			Status int    `json:"status"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &payload))
	require.Equal(t, "INVALID_REQUEST", payload.Error.Code)
	require.Equal(t, 400, payload.Error.Status)
}
