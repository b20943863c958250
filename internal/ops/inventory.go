package ops

import (
	"database/sql"

	"github.com/feedlark/lister/internal/db"
)

// InventoryOutput contains the result of the Inventory operation.
type InventoryOutput struct {
	Feeds      []db.FeedCount `json:"feeds"`
	TotalPosts int            `json:"total_posts"`
	ResumeID   int64          `json:"resume_id"`
}

// Inventory summarizes ingest state per feed: post counts, newest id and
// timestamps, plus the store-wide resume position a restart would seed
// cursors with.
func Inventory(database *sql.DB) (*InventoryOutput, error) {
	counts, err := db.FeedCounts(database)
	if err != nil {
		return nil, err
	}
	if counts == nil {
		counts = []db.FeedCount{}
	}

	resume, err := db.ResumePosition(database)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, fc := range counts {
		total += fc.Posts
	}

	return &InventoryOutput{
		Feeds:      counts,
		TotalPosts: total,
		ResumeID:   resume,
	}, nil
}
