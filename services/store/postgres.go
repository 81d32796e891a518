package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"hotelpriceworker/internal/scraper"
	"hotelpriceworker/logger"
	apperrors "hotelpriceworker/pkg/errors"
)

const (
	tablePrefix     = "hotel_prices_"
	canonicalLayout = "02-01-2006"

	// PostgreSQL truncates identifiers beyond this length.
	maxIdentifierLen = 63
)

// PostgresStore implements Store on a pgx connection pool. Each listing group
// gets its own table, created lazily on first append.
type PostgresStore struct {
	pool *pgxpool.Pool
	log  *logger.Logger

	mu      sync.Mutex
	created map[string]bool
}

// NewPostgresStore connects to Postgres and verifies the connection.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, apperrors.NewStorage("store", "failed to create pool", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperrors.NewStorage("store", "failed to connect", err)
	}

	return &PostgresStore{
		pool:    pool,
		log:     logger.ForStore(),
		created: make(map[string]bool),
	}, nil
}

// safeTableName derives the per-group table name. Group labels come from
// user input and are reduced to a lowercase identifier before ever reaching
// SQL text.
func safeTableName(group string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(group) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	name := tablePrefix + b.String()
	if name == tablePrefix {
		name += "default"
	}
	if len(name) > maxIdentifierLen {
		name = name[:maxIdentifierLen]
	}
	return name
}

func (s *PostgresStore) ensureTable(ctx context.Context, table string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.created[table] {
		return nil
	}

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id           BIGSERIAL PRIMARY KEY,
		listing_url  TEXT NOT NULL,
		listing_name TEXT NOT NULL DEFAULT '',
		room_label   TEXT NOT NULL DEFAULT '',
		price        DOUBLE PRECISION NOT NULL,
		currency     TEXT NOT NULL DEFAULT '',
		check_in     DATE,
		check_out    DATE,
		observed_at  TIMESTAMPTZ NOT NULL,
		notes        TEXT NOT NULL DEFAULT ''
	)`, table)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return apperrors.NewStorage("store", "failed to create table "+table, err)
	}
	s.log.Debug().Str("table", table).Msg("Ensured price table")
	s.created[table] = true
	return nil
}

// Append stores one observation under the given group
func (s *PostgresStore) Append(ctx context.Context, group string, obs scraper.PriceObservation) error {
	table := safeTableName(group)
	if err := s.ensureTable(ctx, table); err != nil {
		return err
	}

	// Error-path observations may carry no dates at all; they are still
	// audit rows and go in with NULL date columns.
	checkIn, err := nullableDate(obs.CheckIn)
	if err != nil {
		return apperrors.NewValidation("store", "bad check-in date: "+obs.CheckIn)
	}
	checkOut, err := nullableDate(obs.CheckOut)
	if err != nil {
		return apperrors.NewValidation("store", "bad check-out date: "+obs.CheckOut)
	}

	query := fmt.Sprintf(`INSERT INTO %s
		(listing_url, listing_name, room_label, price, currency, check_in, check_out, observed_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`, table)
	_, err = s.pool.Exec(ctx, query,
		obs.ListingURL, obs.ListingName, obs.RoomLabel, obs.Price, obs.Currency,
		checkIn, checkOut, time.Unix(obs.ObservedAt, 0).UTC(), obs.Notes)
	if err != nil {
		return apperrors.NewStorage("store", "failed to append observation", err)
	}
	return nil
}

// Observations returns the stored observations of a group inside the
// check-in range, ordered by check-in date.
func (s *PostgresStore) Observations(ctx context.Context, group, startDate, endDate string) ([]scraper.PriceObservation, error) {
	start, err := parseCanonicalDate(startDate)
	if err != nil {
		return nil, apperrors.NewValidation("store", "bad start date: "+startDate)
	}
	end, err := parseCanonicalDate(endDate)
	if err != nil {
		return nil, apperrors.NewValidation("store", "bad end date: "+endDate)
	}

	table := safeTableName(group)
	query := fmt.Sprintf(`SELECT listing_url, listing_name, room_label, price, currency,
			check_in, check_out, observed_at, notes
		FROM %s
		WHERE check_in BETWEEN $1 AND $2
		ORDER BY check_in, observed_at`, table)

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, apperrors.NewStorage("store", "failed to query observations", err)
	}
	defer rows.Close()

	var observations []scraper.PriceObservation
	for rows.Next() {
		var (
			obs        scraper.PriceObservation
			checkIn    *time.Time
			checkOut   *time.Time
			observedAt time.Time
		)
		if err := rows.Scan(&obs.ListingURL, &obs.ListingName, &obs.RoomLabel, &obs.Price,
			&obs.Currency, &checkIn, &checkOut, &observedAt, &obs.Notes); err != nil {
			return nil, apperrors.NewStorage("store", "failed to scan observation", err)
		}
		if checkIn != nil {
			obs.CheckIn = checkIn.Format(canonicalLayout)
		}
		if checkOut != nil {
			obs.CheckOut = checkOut.Format(canonicalLayout)
		}
		obs.ObservedAt = observedAt.Unix()
		obs.GroupLabel = group
		observations = append(observations, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorage("store", "failed to read observations", err)
	}
	return observations, nil
}

// Stats returns min/avg/max of positive prices per check-in date. Zero-price
// rows record unavailable or unparsed pages and are excluded.
func (s *PostgresStore) Stats(ctx context.Context, group, startDate, endDate string) ([]CheckInStats, error) {
	start, err := parseCanonicalDate(startDate)
	if err != nil {
		return nil, apperrors.NewValidation("store", "bad start date: "+startDate)
	}
	end, err := parseCanonicalDate(endDate)
	if err != nil {
		return nil, apperrors.NewValidation("store", "bad end date: "+endDate)
	}

	table := safeTableName(group)
	query := fmt.Sprintf(`SELECT check_in, MIN(price), AVG(price), MAX(price), COUNT(*)
		FROM %s
		WHERE price > 0 AND check_in BETWEEN $1 AND $2
		GROUP BY check_in
		ORDER BY check_in`, table)

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, apperrors.NewStorage("store", "failed to query stats", err)
	}
	defer rows.Close()

	var stats []CheckInStats
	for rows.Next() {
		var (
			entry   CheckInStats
			checkIn time.Time
		)
		if err := rows.Scan(&checkIn, &entry.MinPrice, &entry.AvgPrice, &entry.MaxPrice, &entry.Count); err != nil {
			return nil, apperrors.NewStorage("store", "failed to scan stats", err)
		}
		entry.CheckIn = checkIn.Format(canonicalLayout)
		stats = append(stats, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorage("store", "failed to read stats", err)
	}
	return stats, nil
}

// Close releases the connection pool
func (s *PostgresStore) Close() {
	s.pool.Close()
}

func parseCanonicalDate(value string) (time.Time, error) {
	return scraper.ParseCanonical(value)
}

// nullableDate maps an empty date string to a NULL column value and a
// malformed one to an error.
func nullableDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := scraper.ParseCanonical(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
