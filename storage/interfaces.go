package storage

import "rental-cleaning/models"

// SnapshotMirror is the interface any secondary sink for cleaned
// snapshots must satisfy. The published artifact stays the source of
// truth; a mirror is a queryable copy.
type SnapshotMirror interface {
	Mirror(s *models.Snapshot) error
	Count() (int, error)
	Close() error
}
