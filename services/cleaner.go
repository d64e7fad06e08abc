package services

import (
	"strings"
	"time"

	"rental-cleaning/models"
	"rental-cleaning/utils"
)

// NYC bounding box. Rows with coordinates outside it are mislocated and dropped.
const (
	MinLongitude = -74.25
	MaxLongitude = -73.50
	MinLatitude  = 40.5
	MaxLatitude  = 41.2
)

// reviewLayouts are tried in order when normalising last_review.
var reviewLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"1/2/2006",
	"January 2, 2006",
}

// Cleaner applies the basic-cleaning filters to a listings snapshot.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean runs the price filter, the last_review normalisation and the
// geographic bounds filter, in that order. Both intervals are closed, so
// boundary rows are retained. The only error is a snapshot missing one of
// the required columns.
func (c *Cleaner) Clean(s *models.Snapshot, minPrice, maxPrice float64) (*models.Snapshot, *models.CleanStats, error) {
	if err := s.RequireColumns("price", "longitude", "latitude", "last_review"); err != nil {
		return nil, nil, err
	}

	stats := &models.CleanStats{RowsIn: s.Len()}

	out := c.filterPriceRange(s, minPrice, maxPrice, stats)
	c.normalizeLastReview(out, stats)
	out = c.filterBounds(out, stats)

	stats.RowsOut = out.Len()
	c.logger.Info("[cleaner] Cleaned %d → %d rows (price dropped %d, bounds dropped %d, unparsable dates %d)",
		stats.RowsIn, stats.RowsOut, stats.DroppedPrice, stats.DroppedBounds, stats.UnparsableDates)
	return out, stats, nil
}

// filterPriceRange keeps rows with minPrice ≤ price ≤ maxPrice. A row whose
// price cell does not parse as a number is dropped with the outliers.
func (c *Cleaner) filterPriceRange(s *models.Snapshot, minPrice, maxPrice float64, stats *models.CleanStats) *models.Snapshot {
	col, _ := s.ColumnIndex("price")

	out := models.NewSnapshot(s.Columns)
	for i := range s.Rows {
		price, ok := s.Float(i, col)
		if !ok || price < minPrice || price > maxPrice {
			stats.DroppedPrice++
			continue
		}
		out.Append(s.Rows[i])
	}
	return out
}

// normalizeLastReview rewrites every last_review cell as YYYY-MM-DD in place.
// Empty cells stay empty; a value no layout accepts is blanked and counted.
func (c *Cleaner) normalizeLastReview(s *models.Snapshot, stats *models.CleanStats) {
	col, _ := s.ColumnIndex("last_review")

	for i, row := range s.Rows {
		raw := strings.TrimSpace(row[col])
		if raw == "" {
			row[col] = ""
			continue
		}

		t, ok := parseReviewDate(raw)
		if !ok {
			stats.UnparsableDates++
			c.logger.Warn("[cleaner] Unparsable last_review %q on row %d — blanked", raw, i)
			row[col] = ""
			continue
		}
		row[col] = t.Format("2006-01-02")
	}
}

// filterBounds keeps rows whose coordinates fall inside the NYC bounding
// box. Rows with unparsable coordinates are dropped as mislocated.
func (c *Cleaner) filterBounds(s *models.Snapshot, stats *models.CleanStats) *models.Snapshot {
	lonCol, _ := s.ColumnIndex("longitude")
	latCol, _ := s.ColumnIndex("latitude")

	out := models.NewSnapshot(s.Columns)
	for i := range s.Rows {
		lon, lonOK := s.Float(i, lonCol)
		lat, latOK := s.Float(i, latCol)
		if !lonOK || !latOK ||
			lon < MinLongitude || lon > MaxLongitude ||
			lat < MinLatitude || lat > MaxLatitude {
			stats.DroppedBounds++
			continue
		}
		out.Append(s.Rows[i])
	}
	return out
}

func parseReviewDate(raw string) (time.Time, bool) {
	for _, layout := range reviewLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
