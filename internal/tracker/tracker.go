package tracker

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/feedlark/lister/internal/alert"
	"github.com/feedlark/lister/internal/config"
	"github.com/feedlark/lister/internal/db"
	"github.com/feedlark/lister/internal/feed"
)

// Tracker attaches the configured feed lists and runs the cooperative
// poll loop. Everything happens on the caller's goroutine: no two feed
// fetches or storage writes are ever in flight at once, which is what
// lets the storage layer get away with per-item transactions alone.
type Tracker struct {
	client   feed.Client
	store    *sql.DB
	cfg      *config.Config
	filter   *alert.Filter
	notifier alert.Notifier

	// cursors in discovery order; the tick iterates them in this order
	cursors []*Cursor

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
	log   *slog.Logger
}

// New creates a tracker. Configuration is read once here and never again.
func New(client feed.Client, store *sql.DB, cfg *config.Config, filter *alert.Filter, notifier alert.Notifier) *Tracker {
	return &Tracker{
		client:   client,
		store:    store,
		cfg:      cfg,
		filter:   filter,
		notifier: notifier,
		now:      time.Now,
		sleep:    sleepCtx,
		log:      slog.Default(),
	}
}

// Attach enumerates the lists visible to the credential, matches them
// against the configured names, and bootstraps one cursor per match —
// synchronously, one list at a time, in discovery order. Every cursor is
// seeded with the store-wide resume position.
func (t *Tracker) Attach(ctx context.Context) error {
	resume, err := db.ResumePosition(t.store)
	if err != nil {
		return err
	}

	wanted := make(map[string]bool, len(t.cfg.Feeds))
	for _, name := range t.cfg.Feeds {
		wanted[name] = true
	}

	lists, err := t.client.Lists(ctx)
	if err != nil {
		return err
	}

	refresh := time.Duration(t.cfg.RefreshSeconds) * time.Second
	for _, l := range lists {
		if !wanted[l.Name] {
			continue
		}

		t.log.Info("attaching list",
			"feed", l.Name,
			"resume", resume,
		)

		c := newCursor(l, t.client, t.store, t.filter, t.notifier,
			t.cfg.PageSize, t.cfg.BootstrapDays, refresh, resume, t.log)
		c.now = t.now
		c.sleep = t.sleep
		t.cursors = append(t.cursors, c)

		if err := c.Bootstrap(ctx); err != nil {
			return err
		}
	}

	t.log.Info("attachment complete", "feeds", len(t.cursors))
	return nil
}

// Cursors returns the attached cursors in discovery order.
func (t *Tracker) Cursors() []*Cursor { return t.cursors }

// Run drives the poll loop until ctx is cancelled. Each tick updates
// every due cursor sequentially, then sleeps for a quarter of the refresh
// interval so feeds with no cooldown are revisited promptly.
func (t *Tracker) Run(ctx context.Context) error {
	tick := t.tickInterval()
	for {
		if err := t.tick(ctx); err != nil {
			return err
		}
		if err := t.sleep(ctx, tick); err != nil {
			return err
		}
	}
}

// tick updates each cursor whose due time has elapsed. One slow feed
// delays the rest of the tick; due times are cooldowns, not deadlines.
func (t *Tracker) tick(ctx context.Context) error {
	checkNow := t.now()
	for _, c := range t.cursors {
		if c.nextDue.After(checkNow) {
			continue
		}
		if _, err := c.Update(ctx); err != nil {
			return err
		}
	}
	return nil
}

// tickInterval is max(1, refresh/4) seconds. The sub-interval granularity
// keeps catching-up feeds hot while still respecting per-feed cooldowns.
func (t *Tracker) tickInterval() time.Duration {
	quarter := t.cfg.RefreshSeconds / 4
	if quarter < 1 {
		quarter = 1
	}
	return time.Duration(quarter) * time.Second
}
