package db

import (
	"time"

	"gorm.io/gorm"
)

// RankLimit is the number of rows kept per property category by the
// ranking queries.
const RankLimit = 10

// Store runs the analytics queries against the injected pool. It holds
// no per-request state and is safe for concurrent use.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStore returns a Store backed by db.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// currentYear is the calendar year the "current" and "last" year
// comparisons of the area listings are anchored on.
func (s *Store) currentYear() int {
	return s.now().UTC().Year()
}
