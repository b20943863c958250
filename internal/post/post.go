// Package post defines the domain types for ingested feed entries.
package post

import "encoding/json"

// Post represents a single entry ingested from a feed list.
// IDs are issued by the source and are monotonic: a larger ID is newer.
type Post struct {
	// ID uniquely identifies the post across the whole store
	ID int64 `json:"id"`

	// CreatedAt is the source-reported creation time, epoch seconds
	CreatedAt int64 `json:"created_at"`

	// AuthorName is the display name of the author
	AuthorName string `json:"author_name"`

	// AuthorHandle is the author's account handle
	AuthorHandle string `json:"author_handle"`

	// Text is the body as delivered by the feed. For shares this is the
	// wrapper text, not the shared-from body; see AlertText.
	Text string `json:"text"`

	// Entities carries the source's structured annotations verbatim
	Entities json.RawMessage `json:"entities,omitempty"`

	// Feed is the list membership the post was ingested under. A post can
	// belong to several lists; only the first membership observed is stored.
	Feed string `json:"feed,omitempty"`

	// Shared references the re-published original when this post is a share
	Shared *Shared `json:"shared,omitempty"`
}

// Shared is the original behind a share. Its Text is authoritative for
// display and alerting; the wrapper's Text is what gets persisted.
type Shared struct {
	AuthorHandle string `json:"author_handle"`
	Text         string `json:"text"`
}

// AlertText returns the text the trigger filter should evaluate: the
// shared-from body when this post is a share, the post's own body otherwise.
func (p *Post) AlertText() string {
	if p.Shared != nil {
		return p.Shared.Text
	}
	return p.Text
}
