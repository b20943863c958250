// Package tracker drives the polling engine: one cursor per attached
// feed list, and a tracker that runs their bootstrap and update cycles.
package tracker

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/feedlark/lister/internal/alert"
	"github.com/feedlark/lister/internal/db"
	"github.com/feedlark/lister/internal/errors"
	"github.com/feedlark/lister/internal/feed"
	"github.com/feedlark/lister/internal/post"
)

// Defaults mirroring the configuration surface.
const (
	DefaultPageSize      = 512
	DefaultBootstrapDays = 3
	RecentWindowCap      = 1024
)

// Retry delays for absorbed fetch failures. Classified (network or feed
// service) errors get the short delay, anything unexpected the long one.
// There is no retry ceiling; cancellation is the only way out.
const (
	classifiedRetryDelay   = 1 * time.Second
	unclassifiedRetryDelay = 3 * time.Second
)

// Cursor tracks one feed list's fetch position. It pages backward during
// bootstrap and forward during steady-state polling. Cursor state lives
// in memory only; durability comes from the store's resume position.
type Cursor struct {
	list     feed.List
	client   feed.Client
	store    *sql.DB
	filter   *alert.Filter
	notifier alert.Notifier

	pageSize        int
	bootstrapDays   int
	refreshInterval time.Duration

	// highWaterMark is the newest post id fully processed; 0 means none.
	highWaterMark int64

	// nextDue gates the scheduler: Update is only called once this has
	// elapsed. A busy poll leaves it untouched so the cursor stays due.
	nextDue time.Time

	// recent is a bounded newest-first buffer for operator inspection
	// only; the store is the authority.
	recent recentWindow

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
	log   *slog.Logger
}

// newCursor creates a cursor seeded with the store's resume position.
func newCursor(list feed.List, client feed.Client, store *sql.DB, filter *alert.Filter,
	notifier alert.Notifier, pageSize, bootstrapDays int, refreshInterval time.Duration,
	resume int64, log *slog.Logger) *Cursor {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if bootstrapDays <= 0 {
		bootstrapDays = DefaultBootstrapDays
	}
	return &Cursor{
		list:            list,
		client:          client,
		store:           store,
		filter:          filter,
		notifier:        notifier,
		pageSize:        pageSize,
		bootstrapDays:   bootstrapDays,
		refreshInterval: refreshInterval,
		highWaterMark:   resume,
		recent:          recentWindow{cap: RecentWindowCap},
		now:             time.Now,
		sleep:           sleepCtx,
		log:             log,
	}
}

// HighWaterMark returns the newest post id this cursor has fully processed.
func (c *Cursor) HighWaterMark() int64 { return c.highWaterMark }

// Recent returns a copy of the in-memory window, newest first.
func (c *Cursor) Recent() []post.Post { return c.recent.snapshot() }

// Bootstrap backfills the list's recent history on first attachment, back
// to bootstrapDays before now. A cursor seeded with a nonzero resume
// position skips the backfill and performs one ordinary update instead:
// a resume position means a prior run was already caught up.
func (c *Cursor) Bootstrap(ctx context.Context) error {
	if c.highWaterMark > 0 {
		_, err := c.Update(ctx)
		return err
	}

	cutoff := c.now().Add(-time.Duration(c.bootstrapDays) * 24 * time.Hour).Unix()
	oldest := c.now().Unix()
	var until int64

	for oldest > cutoff {
		q := feed.TimelineQuery{Count: c.pageSize}
		if until > 0 {
			q.MaxID = until
		}

		page, err := c.fetch(ctx, q)
		if err != nil {
			return err
		}

		if until == 0 && len(page) > 0 {
			// The very first page's newest id becomes the pivot for
			// incremental polling. Bootstrap never advances it again.
			c.highWaterMark = page[0].ID
		}

		c.log.Info("bootstrap page",
			"feed", c.list.Name,
			"count", len(page),
			"oldest", oldest,
		)

		// Pagination commonly re-returns the boundary item requested as
		// max_id; drop that one duplicate before processing the rest.
		if len(page) > 0 && page[0].ID == until {
			page = page[1:]
		}

		if len(page) == 0 {
			c.log.Info("bootstrap stopping early, no more history",
				"feed", c.list.Name,
				"reached", oldest,
			)
			return nil
		}

		c.recent.appendOlder(page)
		c.ingest(ctx, page)

		last := page[len(page)-1]
		oldest = last.CreatedAt
		until = last.ID
	}

	return nil
}

// Update performs one incremental poll: fetch items strictly newer than
// the high-water mark, persist them, and evaluate alerting on the newly
// accepted ones. Returns true iff at least one item was ingested.
//
// A page of zero or one items backs the cursor off to the refresh
// interval. Two or more items leave nextDue untouched, so a feed that is
// catching up stays immediately eligible on the next scheduler tick.
func (c *Cursor) Update(ctx context.Context) (bool, error) {
	q := feed.TimelineQuery{Count: c.pageSize}
	if c.highWaterMark > 0 {
		q.SinceID = c.highWaterMark
	}

	page, err := c.fetch(ctx, q)
	if err != nil {
		return false, err
	}

	if len(page) <= 1 {
		c.nextDue = c.now().Add(c.refreshInterval)
		if len(page) == 0 {
			return false, nil
		}
	}

	c.recent.prependNewer(page)
	c.ingest(ctx, page)
	c.highWaterMark = page[0].ID

	c.log.Debug("fetched page",
		"feed", c.list.Name,
		"count", len(page),
		"from", page[len(page)-1].ID,
		"to", page[0].ID,
	)

	return true, nil
}

// fetch retrieves one timeline page, absorbing every failure with a
// blocking retry. The only error this returns is ctx cancellation.
func (c *Cursor) fetch(ctx context.Context, q feed.TimelineQuery) ([]post.Post, error) {
	for {
		page, err := c.client.Timeline(ctx, c.list.Handle, q)
		if err == nil {
			return page, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		delay := unclassifiedRetryDelay
		switch {
		case errors.Is(err, errors.ErrTransientNetwork):
			delay = classifiedRetryDelay
			c.log.Warn("network read error, retrying",
				"feed", c.list.Name,
				"error", err,
			)
		case errors.Is(err, errors.ErrFeedService):
			delay = classifiedRetryDelay
			c.log.Warn("feed service error, retrying",
				"feed", c.list.Name,
				"error", err,
			)
		default:
			c.log.Error("timeline failure, retrying",
				"feed", c.list.Name,
				"error", err,
			)
		}

		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// ingest persists every post in the page under this cursor's feed name
// and evaluates the trigger filter on each newly accepted one. Storage
// errors are logged and skipped; duplicates are a normal false return.
func (c *Cursor) ingest(ctx context.Context, page []post.Post) {
	for i := range page {
		p := &page[i]
		p.Feed = c.list.Name

		added, err := db.InsertPost(c.store, p)
		if err != nil {
			c.log.Error("insert failed",
				"feed", c.list.Name,
				"post_id", p.ID,
				"error", err,
			)
			continue
		}
		if !added {
			continue
		}

		// Shares are evaluated against the shared-from text; the stored
		// content stays as-received.
		if text := p.AlertText(); c.filter.ShouldAlert(text) {
			if err := c.notifier.Notify(ctx, p, text); err != nil {
				c.log.Error("notify failed",
					"feed", c.list.Name,
					"post_id", p.ID,
					"error", err,
				)
			}
		}
	}
}

// sleepCtx sleeps for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// recentWindow is a bounded newest-first buffer of posts.
type recentWindow struct {
	cap   int
	posts []post.Post
}

// prependNewer inserts a newest-first page ahead of the current window,
// dropping the oldest entries past capacity.
func (w *recentWindow) prependNewer(page []post.Post) {
	merged := make([]post.Post, 0, len(page)+len(w.posts))
	merged = append(merged, page...)
	merged = append(merged, w.posts...)
	if len(merged) > w.cap {
		merged = merged[:w.cap]
	}
	w.posts = merged
}

// appendOlder adds a page of strictly older posts at the old end. Once
// the window is full the excess history is discarded.
func (w *recentWindow) appendOlder(page []post.Post) {
	room := w.cap - len(w.posts)
	if room <= 0 {
		return
	}
	if len(page) > room {
		page = page[:room]
	}
	w.posts = append(w.posts, page...)
}

// snapshot returns a copy of the window contents, newest first.
func (w *recentWindow) snapshot() []post.Post {
	out := make([]post.Post, len(w.posts))
	copy(out, w.posts)
	return out
}
