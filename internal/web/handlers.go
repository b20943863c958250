package web

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/feedlark/lister/internal/config"
	"github.com/feedlark/lister/internal/ops"
)

// Handlers contains HTTP route handlers for the operator UI.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	renderer *Renderer
}

// HandlePosts handles GET /posts — newest stored posts, optionally one feed.
func (h *Handlers) HandlePosts(w http.ResponseWriter, r *http.Request) {
	feed := r.URL.Query().Get("feed")

	result, err := ops.Latest(h.db, ops.LatestInput{
		Feed:   feed,
		Limit:  parseIntParam(r, "limit", 0),
		Offset: parseIntParam(r, "offset", 0),
	})
	if err != nil {
		h.renderer.renderError(w, err)
		return
	}

	h.renderer.renderPage(w, http.StatusOK, "posts", PostsPageData{
		PageData: PageData{
			Title:   "Posts",
			Version: h.renderer.version,
			Nav:     "posts",
		},
		Items:      result.Items,
		Pagination: result.Pagination,
		Feed:       feed,
	})
}

// HandleSearch handles GET /posts/search — full-text search.
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	data := SearchPageData{
		PageData: PageData{
			Title:   "Search",
			Version: h.renderer.version,
			Nav:     "search",
		},
		Query:    query,
		HasQuery: query != "",
	}

	if query == "" {
		h.renderer.renderPage(w, http.StatusOK, "search", data)
		return
	}

	result, err := ops.Search(h.db, ops.SearchInput{
		Query:  query,
		Limit:  parseIntParam(r, "limit", 0),
		Offset: parseIntParam(r, "offset", 0),
	})
	if err != nil {
		h.renderer.renderError(w, err)
		return
	}

	data.Items = result.Items
	data.Pagination = result.Pagination
	h.renderer.renderPage(w, http.StatusOK, "search", data)
}

// HandleFeeds handles GET /feeds — per-feed ingest inventory.
func (h *Handlers) HandleFeeds(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Inventory(h.db)
	if err != nil {
		h.renderer.renderError(w, err)
		return
	}

	h.renderer.renderPage(w, http.StatusOK, "feeds", FeedsPageData{
		PageData: PageData{
			Title:   "Feeds",
			Version: h.renderer.version,
			Nav:     "feeds",
		},
		Feeds:      result.Feeds,
		TotalPosts: result.TotalPosts,
		ResumeID:   result.ResumeID,
	})
}

// HandleAlerts handles GET /alerts — recent trigger matches.
func (h *Handlers) HandleAlerts(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Alerts(h.db, ops.AlertsInput{
		Limit: parseIntParam(r, "limit", 0),
	})
	if err != nil {
		h.renderer.renderError(w, err)
		return
	}

	h.renderer.renderPage(w, http.StatusOK, "alerts", AlertsPageData{
		PageData: PageData{
			Title:   "Alerts",
			Version: h.renderer.version,
			Nav:     "alerts",
		},
		Items: result.Items,
	})
}

// parseIntParam reads an integer query parameter, falling back on def.
func parseIntParam(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
