// Package badgerkv implements kv.Engine on top of BadgerDB, giving the
// store durable, crash-safe persistence. Column families are namespaced
// by prepending a one-byte CF tag to every key, the same scheme the
// teacher storage layer uses for its own table set.
package badgerkv

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/aleksaelezovic/trigo/internal/rlog"
	"github.com/aleksaelezovic/trigo/internal/store/kv"
)

// Engine is a BadgerDB-backed kv.Engine.
type Engine struct {
	db *badger.DB
}

// Open opens (creating if necessary) a badger database at path.
func Open(path string) (*Engine, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = badgerLogger{}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badgerkv: opening %s: %w", path, err)
	}
	return &Engine{db: db}, nil
}

func cfKey(cf kv.CF, key []byte) []byte {
	out := make([]byte, 1+len(key))
	out[0] = byte(cf)
	copy(out[1:], key)
	return out
}

func (e *Engine) View(fn func(kv.Txn) error) error {
	return e.db.View(func(btxn *badger.Txn) error {
		return fn(&txn{btxn: btxn, writable: false})
	})
}

func (e *Engine) Update(fn func(kv.Txn) error) error {
	err := e.db.Update(func(btxn *badger.Txn) error {
		return fn(&txn{btxn: btxn, writable: true})
	})
	if errors.Is(err, badger.ErrConflict) {
		return kv.ErrConflict
	}
	return err
}

func (e *Engine) Snapshot() (kv.Snapshot, error) {
	btxn := e.db.NewTransaction(false)
	return &snapshotTxn{txn: txn{btxn: btxn, writable: false}}, nil
}

// IngestSST writes entries through badger's managed write batch. Real SST
// file ingestion (badger.DB.Flatten / external sorted-table import) is a
// further optimization the bulk loader's own batching already makes
// largely unnecessary at the scale this module targets. The write batch
// applies the records outside any caller transaction, but it is not
// atomic: badger commits it in as many internal transactions as its size
// needs, so a failure part-way leaves the earlier records written.
func (e *Engine) IngestSST(entries []kv.SSTEntry) error {
	wb := e.db.NewWriteBatch()
	defer wb.Cancel()
	for _, ent := range entries {
		if err := wb.Set(cfKey(ent.CF, ent.Key), ent.Value); err != nil {
			return fmt.Errorf("badgerkv: ingest: %w", err)
		}
	}
	return wb.Flush()
}

func (e *Engine) Flush() error { return e.db.Sync() }

func (e *Engine) Compact(ctx context.Context) error {
	return e.db.Flatten(2)
}

func (e *Engine) Backup(ctx context.Context, sink kv.BackupSink) error {
	return e.db.View(func(btxn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := btxn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			k := item.KeyCopy(nil)
			if len(k) == 0 {
				continue
			}
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := sink.Write(kv.CF(k[0]), k[1:], v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (e *Engine) Close() error { return e.db.Close() }

type txn struct {
	btxn     *badger.Txn
	writable bool
}

func (t *txn) Get(cf kv.CF, key []byte) ([]byte, error) {
	item, err := t.btxn.Get(cfKey(cf, key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, kv.ErrNotFound
		}
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (t *txn) Contains(cf kv.CF, key []byte) (bool, error) {
	_, err := t.btxn.Get(cfKey(cf, key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

// ContainsForUpdate relies on badger's own SSI conflict detection: any
// Get inside an update transaction registers a read conflict key, so a
// concurrent writer touching the same key causes this transaction's
// Update to fail with kv.ErrConflict at commit time.
func (t *txn) ContainsForUpdate(cf kv.CF, key []byte) (bool, error) {
	return t.Contains(cf, key)
}

func (t *txn) Insert(cf kv.CF, key, value []byte) error {
	if !t.writable {
		return kv.ErrReadOnly
	}
	return t.btxn.Set(cfKey(cf, key), value)
}

func (t *txn) Remove(cf kv.CF, key []byte) error {
	if !t.writable {
		return kv.ErrReadOnly
	}
	return t.btxn.Delete(cfKey(cf, key))
}

func (t *txn) ScanPrefix(cf kv.CF, prefix []byte, fn func(key, value []byte) bool) error {
	opts := badger.DefaultIteratorOptions
	fullPrefix := cfKey(cf, prefix)
	opts.Prefix = fullPrefix
	it := t.btxn.NewIterator(opts)
	defer it.Close()
	for it.Seek(fullPrefix); it.ValidForPrefix(fullPrefix); it.Next() {
		item := it.Item()
		key := item.KeyCopy(nil)
		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if !bytes.HasPrefix(key, fullPrefix) {
			break
		}
		if !fn(key[1:], value) {
			break
		}
	}
	return nil
}

type snapshotTxn struct{ txn }

func (s *snapshotTxn) Close() error {
	s.btxn.Discard()
	return nil
}

// badgerLogger routes badger's internal diagnostics through rlog instead
// of badger's own stderr logger.
type badgerLogger struct{}

func (badgerLogger) Errorf(f string, v ...interface{})   { rlog.Errorf(f, v...) }
func (badgerLogger) Warningf(f string, v ...interface{}) { rlog.Warningf(f, v...) }
func (badgerLogger) Infof(f string, v ...interface{})    { rlog.Infof(f, v...) }
func (badgerLogger) Debugf(f string, v ...interface{}) {
	if rlog.V(2) {
		rlog.Infof(f, v...)
	}
}
