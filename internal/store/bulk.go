package store

import (
	"fmt"

	"github.com/aleksaelezovic/trigo/internal/store/bulkload"
)

// BulkLoad drains src into the store using the parallel bulk-ingest path
// instead of one transaction per quad. It claims the store's writer mutex
// for the duration of the load (best-effort exclusivity, per the bulk
// loader's documented requirement that no transactional writer run
// concurrently): ErrBulkLoadExclusive is returned immediately if a
// transaction already holds it, rather than blocking behind it.
func (s *Store) BulkLoad(opts bulkload.Options, src bulkload.QuadSource) error {
	if !s.writeMu.TryLock() {
		return ErrBulkLoadExclusive
	}
	defer s.writeMu.Unlock()

	if err := bulkload.New(s.engine, opts).Load(src); err != nil {
		return fmt.Errorf("store: bulk load: %w", err)
	}
	return nil
}
