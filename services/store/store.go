package store

import (
	"context"

	"hotelpriceworker/internal/scraper"
)

// CheckInStats aggregates observed prices for one check-in date.
type CheckInStats struct {
	CheckIn  string  `json:"check_in"`
	MinPrice float64 `json:"min_price"`
	AvgPrice float64 `json:"avg_price"`
	MaxPrice float64 `json:"max_price"`
	Count    int64   `json:"count"`
}

// Store persists price observations, one table per listing group.
type Store interface {
	// Append stores one observation under the given group
	Append(ctx context.Context, group string, obs scraper.PriceObservation) error

	// Observations returns the stored observations of a group whose check-in
	// falls inside [startDate, endDate], ordered by check-in date. Dates use
	// the dd-mm-yyyy form.
	Observations(ctx context.Context, group, startDate, endDate string) ([]scraper.PriceObservation, error)

	// Stats returns min/avg/max of positive prices per check-in date
	Stats(ctx context.Context, group, startDate, endDate string) ([]CheckInStats, error)

	// Close releases the connection pool
	Close()
}
