package dashboard

import (
	"sync/atomic"

	"github.com/couchcryptid/water-utility-etl/internal/domain"
)

// Store holds the latest cleaned table. Update swaps the whole snapshot, so
// readers see either the previous table or the new one.
type Store struct {
	latest atomic.Pointer[domain.CleanedTable]
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Update replaces the snapshot with a copy of table.
func (s *Store) Update(table domain.CleanedTable) {
	snapshot := table.Clone()
	s.latest.Store(&snapshot)
}

// Latest returns the current snapshot and whether one has been stored.
func (s *Store) Latest() (domain.CleanedTable, bool) {
	t := s.latest.Load()
	if t == nil {
		return domain.CleanedTable{}, false
	}
	return *t, true
}
