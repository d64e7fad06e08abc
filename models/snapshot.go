package models

import (
	"fmt"

	"github.com/spf13/cast"
)

// Snapshot is one versioned instance of a tabular dataset: an ordered
// header plus rows of string cells. Every column from the source file is
// preserved so the cleaned output keeps the input schema.
type Snapshot struct {
	Columns []string
	Rows    [][]string

	index map[string]int
}

// NewSnapshot creates an empty snapshot with the given header.
func NewSnapshot(columns []string) *Snapshot {
	s := &Snapshot{
		Columns: columns,
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		s.index[c] = i
	}
	return s
}

// ColumnIndex returns the position of the named column.
func (s *Snapshot) ColumnIndex(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// RequireColumns returns an error naming the first missing column.
func (s *Snapshot) RequireColumns(names ...string) error {
	for _, name := range names {
		if _, ok := s.index[name]; !ok {
			return fmt.Errorf("snapshot: missing required column %q", name)
		}
	}
	return nil
}

// Append adds one row. The row must match the header length.
func (s *Snapshot) Append(row []string) {
	s.Rows = append(s.Rows, row)
}

// Len returns the number of data rows (header excluded).
func (s *Snapshot) Len() int {
	return len(s.Rows)
}

// Float parses the cell at (row, col) as a number.
// ok is false for empty or non-numeric cells.
func (s *Snapshot) Float(row, col int) (float64, bool) {
	cell := s.Rows[row][col]
	if cell == "" {
		return 0, false
	}
	v, err := cast.ToFloat64E(cell)
	if err != nil {
		return 0, false
	}
	return v, true
}

// CleanStats tallies what the cleaning filters did to a snapshot.
type CleanStats struct {
	RowsIn          int
	RowsOut         int
	DroppedPrice    int
	DroppedBounds   int
	UnparsableDates int
}

// CleanReport holds the post-clean summary printed at the end of a run.
type CleanReport struct {
	Stats        CleanStats
	AveragePrice float64
	MinPrice     float64
	MaxPrice     float64
	RowsByGroup  map[string]int
}
