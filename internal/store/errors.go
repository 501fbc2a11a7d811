package store

import "errors"

// Error taxonomy the storage core reports. The read operations and
// BulkLoad wrap the underlying kv/engine error with fmt.Errorf("...: %w",
// err); the write operations (Insert, Remove, ClearGraph, ...) return
// these sentinels and engine errors unwrapped. Either way callers can
// errors.Is/errors.As down to these sentinels or to an io/corruption
// failure from the backing engine.
var (
	ErrNotFound            = errors.New("store: quad not found")
	ErrDatabaseExists       = errors.New("store: database already exists")
	ErrTransactionReadOnly  = errors.New("store: transaction is read-only")
	ErrQuadExists           = errors.New("store: quad already exists")
	ErrQuadNotExist         = errors.New("store: quad does not exist")
	ErrSchemaTooOld         = errors.New("store: on-disk schema predates this build and cannot be auto-migrated")
	ErrSchemaTooNew         = errors.New("store: on-disk schema is newer than this build understands")
	ErrBulkLoadExclusive    = errors.New("store: bulk load requires no concurrent transactional writer")
)

// CorruptionError wraps a validate() failure, naming the invariant that
// was violated.
type CorruptionError struct {
	Invariant string
	Detail    string
}

func (e *CorruptionError) Error() string {
	return "store: corruption detected (" + e.Invariant + "): " + e.Detail
}
