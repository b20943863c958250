// Package feed talks to the remote feed service: list discovery and
// cursor-paginated timeline reads.
package feed

import (
	"context"

	"github.com/feedlark/lister/internal/post"
)

// List is a named remote collection of posts.
type List struct {
	// Name is the human-assigned list name matched against configuration
	Name string `json:"name"`

	// Handle is the service's opaque reference for the list
	Handle string `json:"id"`
}

// TimelineQuery bounds a timeline page. At most one of SinceID/MaxID is
// set: SinceID asks for items strictly newer, MaxID for items at or older
// than the cursor (the service may re-return the boundary item itself).
type TimelineQuery struct {
	SinceID int64
	MaxID   int64
	Count   int
}

// Client is the feed service boundary. Timeline returns items newest
// first. Failures are classified: errors.ErrTransientNetwork for
// network-level trouble, errors.ErrFeedService for trouble the service
// reported, anything else is unexpected.
type Client interface {
	// Lists enumerates all lists visible to the credential.
	Lists(ctx context.Context) ([]List, error)

	// Timeline fetches one page of a list's posts, newest first.
	Timeline(ctx context.Context, handle string, q TimelineQuery) ([]post.Post, error)
}
