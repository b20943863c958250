package web

import (
	stderrors "errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/feedlark/lister/internal/db"
	"github.com/feedlark/lister/internal/errors"
	"github.com/feedlark/lister/internal/ops"
	"github.com/feedlark/lister/internal/post"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
	Nav     string // active nav item: "posts", "search", "feeds", "alerts"
}

// PostsPageData is the template data for the recent posts page.
type PostsPageData struct {
	PageData
	Items      []post.Post
	Pagination ops.Pagination
	Feed       string
}

// SearchPageData is the template data for the search page.
type SearchPageData struct {
	PageData
	Query      string
	Items      []ops.SearchResultItem
	Pagination ops.Pagination
	HasQuery   bool
}

// FeedsPageData is the template data for the feeds inventory page.
type FeedsPageData struct {
	PageData
	Feeds      []db.FeedCount
	TotalPosts int
	ResumeID   int64
}

// AlertsPageData is the template data for the alerts page.
type AlertsPageData struct {
	PageData
	Items []db.Alert
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	Status  int
	Code    string
	Message string
}

// Renderer parses and executes the embedded page templates.
type Renderer struct {
	pages   map[string]*template.Template
	version string
}

// templateFuncs are available to all page templates.
var templateFuncs = template.FuncMap{
	// epoch seconds to a compact UTC stamp
	"utctime": func(ts int64) string {
		return time.Unix(ts, 0).UTC().Format("2006-01-02 15:04:05")
	},
	// snippets are pre-escaped by ops.Search; only <b> tags remain
	"snippet": func(s string) template.HTML {
		return template.HTML(s)
	},
}

// NewRenderer loads every page template paired with the shared layout.
func NewRenderer(fsys fs.FS, version string) (*Renderer, error) {
	pages := map[string]*template.Template{}
	for _, name := range []string{"posts", "search", "feeds", "alerts", "error"} {
		t, err := template.New("base.html").Funcs(templateFuncs).ParseFS(fsys, "base.html", name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = t
	}
	return &Renderer{pages: pages, version: version}, nil
}

// renderPage executes one page template with the shared layout.
func (rd *Renderer) renderPage(w http.ResponseWriter, status int, name string, data any) {
	t, ok := rd.pages[name]
	if !ok {
		slog.Error("unknown template", "name", name)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := t.ExecuteTemplate(w, "base.html", data); err != nil {
		slog.Error("template execution failed", "name", name, "error", err)
	}
}

// renderError maps a ListerError to the error page with its status.
func (rd *Renderer) renderError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := string(errors.ErrInternal)
	message := "an internal error occurred"

	var lErr *errors.ListerError
	if stderrors.As(err, &lErr) {
		status = lErr.Status
		code = string(lErr.Code)
		// Internal error details stay out of responses
		if lErr.Code != errors.ErrInternal {
			message = lErr.Message
		}
	}
	if status >= 500 {
		slog.Error("request failed", "error", err)
	}

	rd.renderPage(w, status, "error", ErrorPageData{
		PageData: PageData{Title: "Error", Version: rd.version},
		Status:   status,
		Code:     code,
		Message:  message,
	})
}
