package mcp

import "github.com/mark3labs/mcp-go/mcp"

var searchToolDef = mcp.NewTool("post_search",
	mcp.WithDescription("Full-text search over stored posts, ranked by relevance. Supports FTS5 match syntax (AND, OR, phrases)."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Full-text query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum results to return (default 20, max 100)"),
	),
	mcp.WithNumber("offset",
		mcp.Description("Results to skip for pagination"),
	),
)

var latestToolDef = mcp.NewTool("post_latest",
	mcp.WithDescription("Newest stored posts, optionally restricted to one feed."),
	mcp.WithString("feed",
		mcp.Description("Feed name filter"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum results to return (default 20, max 100)"),
	),
	mcp.WithNumber("offset",
		mcp.Description("Results to skip for pagination"),
	),
)

var inventoryToolDef = mcp.NewTool("feed_inventory",
	mcp.WithDescription("Per-feed ingest totals: post counts, newest id, time bounds, and the store's resume position."),
)

var alertsToolDef = mcp.NewTool("alert_recent",
	mcp.WithDescription("Most recent trigger-filter alerts, newest first."),
	mcp.WithNumber("limit",
		mcp.Description("Maximum alerts to return (default 50, max 200)"),
	),
)
