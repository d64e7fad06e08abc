package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"rental-cleaning/models"
	"rental-cleaning/utils"
)

// mirrorColumns is the typed subset of snapshot columns stored in the
// listings table, in insert order.
var mirrorColumns = []string{
	"id", "name", "neighbourhood_group", "neighbourhood",
	"latitude", "longitude", "room_type", "price",
	"minimum_nights", "number_of_reviews", "last_review",
}

// PostgresWriter mirrors cleaned snapshots into PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string, logger *utils.Logger) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := &utils.RetryConfig{MaxAttempts: 5, BaseDelay: 2 * time.Second, Logger: logger}
	if err := retry.Do("postgres ping", db.Ping); err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			listing_id          BIGINT PRIMARY KEY,
			name                TEXT          NOT NULL DEFAULT '',
			neighbourhood_group TEXT          NOT NULL DEFAULT '',
			neighbourhood       TEXT          NOT NULL DEFAULT '',
			latitude            NUMERIC(9,6)  NOT NULL,
			longitude           NUMERIC(9,6)  NOT NULL,
			room_type           TEXT          NOT NULL DEFAULT '',
			price               NUMERIC(10,2) NOT NULL DEFAULT 0,
			minimum_nights      INT           NOT NULL DEFAULT 0,
			number_of_reviews   INT           NOT NULL DEFAULT 0,
			last_review         DATE
		);

		CREATE INDEX IF NOT EXISTS idx_listings_price         ON listings(price);
		CREATE INDEX IF NOT EXISTS idx_listings_neighbourhood ON listings(neighbourhood);
		CREATE INDEX IF NOT EXISTS idx_listings_room_type     ON listings(room_type);
	`)
	return err
}

// Clear deletes all existing listings from the table.
func (pw *PostgresWriter) Clear() error {
	_, err := pw.db.Exec("DELETE FROM listings")
	if err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}
	return nil
}

// Mirror batch-inserts every row of the cleaned snapshot, clearing old
// data first. The snapshot must carry all mirrored columns.
func (pw *PostgresWriter) Mirror(s *models.Snapshot) error {
	if s.Len() == 0 {
		return nil
	}

	cols := make([]int, len(mirrorColumns))
	for i, name := range mirrorColumns {
		idx, ok := s.ColumnIndex(name)
		if !ok {
			return fmt.Errorf("postgres: snapshot missing column %q", name)
		}
		cols[i] = idx
	}

	if err := pw.Clear(); err != nil {
		return err
	}

	const batchSize = 50
	for start := 0; start < s.Len(); start += batchSize {
		end := start + batchSize
		if end > s.Len() {
			end = s.Len()
		}
		if err := pw.insertBatch(s, cols, start, end); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(s *models.Snapshot, cols []int, start, end int) error {
	valueStrings := make([]string, 0, end-start)
	valueArgs := make([]interface{}, 0, (end-start)*len(cols))

	for row := start; row < end; row++ {
		placeholders := make([]string, len(cols))
		base := len(valueArgs)
		for i, col := range cols {
			placeholders[i] = fmt.Sprintf("$%d", base+i+1)
			cell := s.Rows[row][col]
			// Empty last_review cells become NULL rather than an invalid date.
			if mirrorColumns[i] == "last_review" && cell == "" {
				valueArgs = append(valueArgs, nil)
			} else {
				valueArgs = append(valueArgs, cell)
			}
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
	}

	query := fmt.Sprintf(`
		INSERT INTO listings (listing_id, name, neighbourhood_group, neighbourhood,
			latitude, longitude, room_type, price, minimum_nights, number_of_reviews, last_review)
		VALUES %s
		ON CONFLICT (listing_id) DO NOTHING
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	return err
}

// Count returns the number of mirrored listings.
func (pw *PostgresWriter) Count() (int, error) {
	var n int
	if err := pw.db.QueryRow("SELECT COUNT(*) FROM listings").Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count: %w", err)
	}
	return n, nil
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
