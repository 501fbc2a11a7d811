// Package kv defines the storage-engine-agnostic facade the rest of the
// store is built against: column families, a read/write transaction with
// write-write conflict detection, point-in-time snapshots, and bulk SST
// ingestion. memkv and badgerkv are the two concrete implementations.
package kv

import (
	"context"
	"errors"
)

// CF identifies one of the ten column families backing the quad store.
type CF byte

const (
	// CFID2Str maps a 128-bit term hash to its original string.
	CFID2Str CF = iota

	// Default graph indexes (3 permutations).
	CFSPO
	CFPOS
	CFOSP

	// Named graph indexes (6 permutations).
	CFSPOG
	CFPOSG
	CFOSPG
	CFGSPO
	CFGPOS
	CFGOSP

	// CFGraphs holds the set of known named graphs.
	CFGraphs

	// CFDefault stores store-wide metadata, including the schema version.
	CFDefault

	cfCount
)

func (cf CF) String() string {
	switch cf {
	case CFID2Str:
		return "id2str"
	case CFSPO:
		return "dspo"
	case CFPOS:
		return "dpos"
	case CFOSP:
		return "dosp"
	case CFSPOG:
		return "spog"
	case CFPOSG:
		return "posg"
	case CFOSPG:
		return "ospg"
	case CFGSPO:
		return "gspo"
	case CFGPOS:
		return "gpos"
	case CFGOSP:
		return "gosp"
	case CFGraphs:
		return "graphs"
	case CFDefault:
		return "default"
	default:
		return "unknown"
	}
}

// AllCFs lists every column family, in a stable order used wherever the
// store needs to iterate "every CF" (e.g. validate()).
func AllCFs() []CF {
	cfs := make([]CF, 0, cfCount)
	for cf := CF(0); cf < cfCount; cf++ {
		cfs = append(cfs, cf)
	}
	return cfs
}

var (
	ErrNotFound       = errors.New("kv: key not found")
	ErrReadOnly       = errors.New("kv: transaction is read-only")
	ErrConflict       = errors.New("kv: transaction conflict detected at commit")
	ErrEngineExists   = errors.New("kv: database already exists at path")
	ErrEngineNotFound = errors.New("kv: no database found at path")
)

// Engine is the storage-engine-agnostic facade every concrete backend
// implements.
type Engine interface {
	// View runs fn against a read-only transaction. Writes attempted
	// inside fn return ErrReadOnly.
	View(fn func(Txn) error) error

	// Update runs fn against a read-write transaction and commits it if
	// fn returns nil. Returns ErrConflict if another writer committed a
	// conflicting key first.
	Update(fn func(Txn) error) error

	// Snapshot pins the current engine state for later repeatable reads,
	// independent of subsequent Updates.
	Snapshot() (Snapshot, error)

	// IngestSST bulk-loads pre-sorted (cf, key, value) entries built by
	// the bulk loader, bypassing the per-key transaction path.
	IngestSST(entries []SSTEntry) error

	// Flush forces any buffered writes to stable storage.
	Flush() error

	// Compact asks the engine to compact its on-disk representation.
	Compact(ctx context.Context) error

	// Backup streams a full copy of the engine state to sink.
	Backup(ctx context.Context, sink BackupSink) error

	// Close releases all engine resources.
	Close() error
}

// SSTEntry is one pre-sorted record destined for a column family during
// bulk ingestion.
type SSTEntry struct {
	CF    CF
	Key   []byte
	Value []byte
}

// BackupSink receives (cf, key, value) triples during Engine.Backup.
type BackupSink interface {
	Write(cf CF, key, value []byte) error
}

// Txn is a single read or read-write transaction.
type Txn interface {
	// Get looks up key in cf. Returns ErrNotFound if absent.
	Get(cf CF, key []byte) ([]byte, error)

	// Contains reports whether key is present in cf, without fetching
	// its value.
	Contains(cf CF, key []byte) (bool, error)

	// ContainsForUpdate behaves like Contains but additionally registers
	// key as a read dependency for conflict detection: if another
	// transaction writes to key before this one commits, commit fails
	// with ErrConflict. Used by insert/remove paths that must observe
	// "does this key already exist" atomically with the write.
	ContainsForUpdate(cf CF, key []byte) (bool, error)

	// Insert stores key/value in cf. Returns ErrReadOnly outside Update.
	Insert(cf CF, key, value []byte) error

	// Remove deletes key from cf. Returns ErrReadOnly outside Update.
	Remove(cf CF, key []byte) error

	// ScanPrefix iterates all keys in cf starting with prefix, in
	// ascending byte order, calling fn(key, value) for each. Iteration
	// stops early if fn returns false.
	ScanPrefix(cf CF, prefix []byte, fn func(key, value []byte) bool) error
}

// Snapshot is a point-in-time, read-only view of the engine that survives
// subsequent writes made through other transactions.
type Snapshot interface {
	Txn
	// Close releases the snapshot's pinned resources.
	Close() error
}
