package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"rental-cleaning/models"
)

// ReadSnapshot parses a comma-separated UTF-8 file with a header row into
// a Snapshot.
func ReadSnapshot(path string) (*models.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: parse %q: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv: %q has no header row", path)
	}

	snapshot := models.NewSnapshot(records[0])
	for _, row := range records[1:] {
		snapshot.Append(row)
	}
	return snapshot, nil
}

// WriteSnapshot serializes a snapshot to the given path: header row first,
// no index column. Intermediate directories are created automatically.
func WriteSnapshot(path string, s *models.Snapshot) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("csv: create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(s.Columns); err != nil {
		_ = f.Close()
		return fmt.Errorf("csv: write header: %w", err)
	}
	for _, row := range s.Rows {
		if err := w.Write(row); err != nil {
			_ = f.Close()
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("csv: flush: %w", err)
	}
	return f.Close()
}
