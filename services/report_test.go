package services

import (
	"testing"

	"rental-cleaning/models"
)

func TestReportBuild(t *testing.T) {
	svc := NewReportService(newTestLogger())
	cleaned := listingSnapshot(
		[]string{"1", "A", "Brooklyn", "200", "-73.9", "40.7", "2019-05-01"},
		[]string{"2", "B", "Brooklyn", "50", "-73.9", "40.7", ""},
		[]string{"3", "C", "Manhattan", "120", "-73.95", "40.75", "2019-06-01"},
	)
	stats := &models.CleanStats{RowsIn: 5, RowsOut: 3, DroppedPrice: 1, DroppedBounds: 1}

	r := svc.Build(cleaned, stats)

	if r.AveragePrice != 123.33 {
		t.Errorf("AveragePrice: got %.2f, want 123.33", r.AveragePrice)
	}
	if r.MinPrice != 50 {
		t.Errorf("MinPrice: got %.2f, want 50", r.MinPrice)
	}
	if r.MaxPrice != 200 {
		t.Errorf("MaxPrice: got %.2f, want 200", r.MaxPrice)
	}
	if r.RowsByGroup["Brooklyn"] != 2 {
		t.Errorf("Brooklyn count: got %d, want 2", r.RowsByGroup["Brooklyn"])
	}
	if r.RowsByGroup["Manhattan"] != 1 {
		t.Errorf("Manhattan count: got %d, want 1", r.RowsByGroup["Manhattan"])
	}
	if r.Stats.DroppedPrice != 1 || r.Stats.DroppedBounds != 1 {
		t.Errorf("stats not carried into report: %+v", r.Stats)
	}
}

func TestReportBuildEmptySnapshot(t *testing.T) {
	svc := NewReportService(newTestLogger())
	r := svc.Build(listingSnapshot(), &models.CleanStats{RowsIn: 2, RowsOut: 0})

	if r.AveragePrice != 0 || len(r.RowsByGroup) != 0 {
		t.Errorf("expected zero report for empty snapshot, got %+v", r)
	}
	if r.Stats.RowsIn != 2 {
		t.Errorf("RowsIn: got %d, want 2", r.Stats.RowsIn)
	}
}
