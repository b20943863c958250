package db

import (
	"database/sql"
	"strings"

	"github.com/feedlark/lister/internal/errors"
	"github.com/feedlark/lister/internal/post"
)

// MaxSearchQueryChars bounds free-text query length.
const MaxSearchQueryChars = 500

// Snippet highlight markers emitted by SearchPosts. The web and CLI layers
// convert these to their own highlight forms after escaping user content.
const (
	SnippetOpenMarker  = "[[[B]]]"
	SnippetCloseMarker = "[[[/B]]]"
)

// InsertPost persists a post keyed by its source id, together with its
// full-text index row, in one transaction. Returns true if the post was
// newly persisted, false if a post with that id already exists (the same
// post can arrive via several lists; the first membership observed wins).
func InsertPost(db *sql.DB, p *post.Post) (bool, error) {
	tx, err := db.Begin()
	if err != nil {
		return false, errors.NewInternal(err)
	}
	defer tx.Rollback()

	var entities sql.NullString
	if len(p.Entities) > 0 {
		entities = sql.NullString{String: string(p.Entities), Valid: true}
	}

	_, err = tx.Exec(`
		INSERT INTO posts (id, created_at, feed, author_name, author_handle, content, entities)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.CreatedAt, p.Feed, p.AuthorName, p.AuthorHandle, p.Text, entities)
	if err != nil {
		if isUniqueConstraintError(err) {
			return false, nil
		}
		return false, errors.NewInternal(err)
	}

	// Same key for the index row; the transaction guarantees no orphan
	// index entry survives a failure between the two inserts.
	if _, err := tx.Exec(`INSERT INTO posts_fts (rowid, content) VALUES (?, ?)`, p.ID, p.Text); err != nil {
		return false, errors.NewInternal(err)
	}

	if err := tx.Commit(); err != nil {
		return false, errors.NewInternal(err)
	}
	return true, nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite reports primary-key conflicts as a UNIQUE constraint failure
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ResumePosition returns the maximum stored post id, or 0 if the store is
// empty. Called once per process start to seed every cursor's high-water
// mark. Deliberately global rather than per-feed: a per-feed watermark
// would be `WHERE feed = ?` on this query, but the global one matches the
// stores already in the field.
func ResumePosition(db *sql.DB) (int64, error) {
	var maxID int64
	if err := db.QueryRow(`SELECT COALESCE(MAX(id), 0) FROM posts`).Scan(&maxID); err != nil {
		return 0, errors.NewInternal(err)
	}
	return maxID, nil
}

// SearchResult is one full-text match with its relevance score and a
// marker-highlighted snippet.
type SearchResult struct {
	Post    post.Post
	Score   float64
	Snippet string
}

// SearchPosts runs a full-text query over post bodies, ordered by bm25
// relevance (best first). Returns the page of matches and the total match
// count. Ids never repeat: the index is keyed by post id and duplicates
// were dropped at insert.
func SearchPosts(db *sql.DB, query string, limit, offset int) ([]SearchResult, int, error) {
	var total int
	if err := db.QueryRow(`SELECT COUNT(*) FROM posts_fts WHERE posts_fts MATCH ?`, query).Scan(&total); err != nil {
		if isFTSQueryError(err) {
			return nil, 0, errors.NewInvalidRequest("invalid search query: " + err.Error())
		}
		return nil, 0, errors.NewInternal(err)
	}

	// bm25() is lower-is-better, so ascending order ranks best matches first
	rows, err := db.Query(`
		SELECT p.id, p.created_at, p.feed, p.author_name, p.author_handle, p.content, p.entities,
		       bm25(posts_fts) AS score,
		       snippet(posts_fts, 0, ?, ?, '...', 16) AS snip
		FROM posts_fts
		JOIN posts p ON p.id = posts_fts.rowid
		WHERE posts_fts MATCH ?
		ORDER BY score ASC
		LIMIT ? OFFSET ?
	`, SnippetOpenMarker, SnippetCloseMarker, query, limit, offset)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var entities sql.NullString
		if err := rows.Scan(&r.Post.ID, &r.Post.CreatedAt, &r.Post.Feed, &r.Post.AuthorName,
			&r.Post.AuthorHandle, &r.Post.Text, &entities, &r.Score, &r.Snippet); err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		if entities.Valid {
			r.Post.Entities = []byte(entities.String)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	return results, total, nil
}

// isFTSQueryError distinguishes user syntax errors in MATCH expressions
// from real engine failures.
func isFTSQueryError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "fts5: syntax error") || strings.Contains(msg, "unknown special query")
}

// LatestPosts returns the newest stored posts (descending id), optionally
// restricted to one feed. Returns the page and the total row count for the
// same filter.
func LatestPosts(db *sql.DB, feed string, limit, offset int) ([]post.Post, int, error) {
	var (
		total int
		err   error
	)
	if feed != "" {
		err = db.QueryRow(`SELECT COUNT(*) FROM posts WHERE feed = ?`, feed).Scan(&total)
	} else {
		err = db.QueryRow(`SELECT COUNT(*) FROM posts`).Scan(&total)
	}
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	q := `
		SELECT id, created_at, feed, author_name, author_handle, content, entities
		FROM posts
	`
	args := []any{}
	if feed != "" {
		q += " WHERE feed = ?"
		args = append(args, feed)
	}
	q += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	var posts []post.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	return posts, total, nil
}

// FeedCount summarizes one feed's stored posts.
type FeedCount struct {
	Feed     string `json:"feed"`
	Posts    int    `json:"posts"`
	NewestID int64  `json:"newest_id"`
	NewestAt int64  `json:"newest_at"`
	OldestAt int64  `json:"oldest_at"`
}

// FeedCounts returns per-feed ingest totals, most active feed first.
func FeedCounts(db *sql.DB) ([]FeedCount, error) {
	rows, err := db.Query(`
		SELECT feed, COUNT(*), MAX(id), MAX(created_at), MIN(created_at)
		FROM posts
		GROUP BY feed
		ORDER BY COUNT(*) DESC, feed ASC
	`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var counts []FeedCount
	for rows.Next() {
		var fc FeedCount
		if err := rows.Scan(&fc.Feed, &fc.Posts, &fc.NewestID, &fc.NewestAt, &fc.OldestAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		counts = append(counts, fc)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return counts, nil
}

// Alert is a persisted alert record: a post that passed the trigger filter.
type Alert struct {
	ID        string `json:"id"`
	PostID    int64  `json:"post_id"`
	Feed      string `json:"feed"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at"`
}

// InsertAlert persists one alert record.
func InsertAlert(db *sql.DB, a *Alert) error {
	_, err := db.Exec(`
		INSERT INTO alerts (id, post_id, feed, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, a.ID, a.PostID, a.Feed, a.Content, a.CreatedAt)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// RecentAlerts returns the newest alert records, newest first.
func RecentAlerts(db *sql.DB, limit int) ([]Alert, error) {
	rows, err := db.Query(`
		SELECT id, post_id, feed, content, created_at
		FROM alerts
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var alerts []Alert
	for rows.Next() {
		var a Alert
		if err := rows.Scan(&a.ID, &a.PostID, &a.Feed, &a.Content, &a.CreatedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return alerts, nil
}

// scanPost scans one posts row.
func scanPost(rows *sql.Rows) (*post.Post, error) {
	var p post.Post
	var entities sql.NullString
	if err := rows.Scan(&p.ID, &p.CreatedAt, &p.Feed, &p.AuthorName, &p.AuthorHandle, &p.Text, &entities); err != nil {
		return nil, err
	}
	if entities.Valid {
		p.Entities = []byte(entities.String)
	}
	return &p, nil
}
