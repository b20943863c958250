package ops

import (
	"database/sql"

	"github.com/feedlark/lister/internal/db"
)

// AlertsInput contains parameters for the Alerts operation.
type AlertsInput struct {
	Limit int // default: 50, max: 200
}

// AlertsOutput contains the result of the Alerts operation.
type AlertsOutput struct {
	Items []db.Alert `json:"items"`
	Sort  string     `json:"sort"` // "created_at_desc"
}

// Alerts retrieves the most recent alert records.
func Alerts(database *sql.DB, input AlertsInput) (*AlertsOutput, error) {
	limit := boundLimit(input.Limit, DefaultAlertsLimit, MaxAlertsLimit)

	alerts, err := db.RecentAlerts(database, limit)
	if err != nil {
		return nil, err
	}
	if alerts == nil {
		alerts = []db.Alert{}
	}

	return &AlertsOutput{
		Items: alerts,
		Sort:  "created_at_desc",
	}, nil
}
