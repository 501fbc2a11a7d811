package store

import "github.com/aleksaelezovic/trigo/internal/store/kv"

const (
	schemaVersionKey     = "schema_version"
	currentSchemaVersion = byte(1)
)

// ensureSchema stamps a fresh database with the current schema version, or
// validates that an existing one is within the range this build
// understands.
func (s *Store) ensureSchema() error {
	return s.engine.Update(func(txn kv.Txn) error {
		v, err := txn.Get(kv.CFDefault, []byte(schemaVersionKey))
		if err == kv.ErrNotFound {
			return txn.Insert(kv.CFDefault, []byte(schemaVersionKey), []byte{currentSchemaVersion})
		}
		if err != nil {
			return err
		}
		if len(v) != 1 {
			return &CorruptionError{Invariant: "version-correctness", Detail: "malformed schema version marker"}
		}
		if v[0] > currentSchemaVersion {
			return ErrSchemaTooNew
		}
		if v[0] < currentSchemaVersion {
			return s.migrate(txn, v[0])
		}
		return nil
	})
}

// migrate upgrades an on-disk database from an older schema version. There
// is only one schema version so far; this is the hook future migrations
// hang off of.
func (s *Store) migrate(txn kv.Txn, from byte) error {
	switch from {
	default:
		return ErrSchemaTooOld
	}
}
