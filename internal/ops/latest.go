package ops

import (
	"database/sql"
	"strings"

	"github.com/feedlark/lister/internal/db"
	"github.com/feedlark/lister/internal/post"
)

// LatestInput contains parameters for the Latest operation.
type LatestInput struct {
	Feed   string // optional filter; empty means all feeds
	Limit  int    // default: 20, max: 100
	Offset int    // default: 0
}

// LatestOutput contains the result of the Latest operation.
type LatestOutput struct {
	Items      []post.Post `json:"items"`
	Pagination Pagination  `json:"pagination"`
	Sort       string      `json:"sort"` // "id_desc"
}

// Latest retrieves the newest stored posts, optionally for one feed.
// Ordering is by descending id, which is descending recency within a
// feed; there is no cross-feed ordering guarantee beyond id issuance.
func Latest(database *sql.DB, input LatestInput) (*LatestOutput, error) {
	feed := strings.TrimSpace(input.Feed)
	limit := boundLimit(input.Limit, DefaultLatestLimit, MaxLatestLimit)
	offset := max(input.Offset, 0)

	posts, total, err := db.LatestPosts(database, feed, limit, offset)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []post.Post{}
	}

	return &LatestOutput{
		Items: posts,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(posts) < total,
			Total:   total,
		},
		Sort: "id_desc",
	}, nil
}
