package alert

import (
	"context"
	"crypto/rand"
	"database/sql"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/feedlark/lister/internal/db"
	"github.com/feedlark/lister/internal/post"
)

// Notifier receives posts that passed the trigger filter. text is the
// evaluated (share-expanded) body, which can differ from p.Text. This is
// the extension point for external alert sinks; delivery is best-effort,
// not exactly-once.
type Notifier interface {
	Notify(ctx context.Context, p *post.Post, text string) error
}

// LogNotifier emits the alert as a structured log line, the local
// notification the daemon ships with.
type LogNotifier struct{}

// Notify implements Notifier.
func (LogNotifier) Notify(_ context.Context, p *post.Post, text string) error {
	slog.Info("alert",
		"feed", p.Feed,
		"post_id", p.ID,
		"created_at", time.Unix(p.CreatedAt, 0).UTC().Format(time.RFC3339),
		"author", p.AuthorHandle,
		"text", text,
	)
	return nil
}

// Recorder persists alert records so the alerts surfaces (CLI, web, MCP)
// can show what fired after the fact.
type Recorder struct {
	DB *sql.DB
}

// Notify implements Notifier.
func (r *Recorder) Notify(_ context.Context, p *post.Post, text string) error {
	id, err := generateULID()
	if err != nil {
		return err
	}
	return db.InsertAlert(r.DB, &db.Alert{
		ID:        id,
		PostID:    p.ID,
		Feed:      p.Feed,
		Content:   text,
		CreatedAt: time.Now().Unix(),
	})
}

// Multi fans one alert out to several notifiers. Failures are logged and
// do not stop the remaining notifiers.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, p *post.Post, text string) error {
	for _, n := range m {
		if err := n.Notify(ctx, p, text); err != nil {
			slog.Error("notifier failed", "post_id", p.ID, "error", err)
		}
	}
	return nil
}

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
