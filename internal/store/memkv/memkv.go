// Package memkv is the default embedded kv.Engine: a process-local,
// mutex-guarded store used by tests and by callers who don't need
// cross-process persistence. It trades scan performance (prefix scans
// sort on the fly) for simplicity, which is acceptable since it exists
// as a reference implementation and fast path for small/ephemeral
// datasets, not the persistence story (that's badgerkv).
package memkv

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/aleksaelezovic/trigo/internal/store/kv"
)

// Engine is an in-memory kv.Engine.
type Engine struct {
	mu  sync.RWMutex
	cfs map[kv.CF]map[string][]byte
}

// New creates an empty in-memory engine.
func New() *Engine {
	e := &Engine{cfs: make(map[kv.CF]map[string][]byte)}
	for _, cf := range kv.AllCFs() {
		e.cfs[cf] = make(map[string][]byte)
	}
	return e
}

func (e *Engine) View(fn func(kv.Txn) error) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t := &txn{engine: e, writable: false}
	return fn(t)
}

func (e *Engine) Update(fn func(kv.Txn) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := &txn{engine: e, writable: true, reads: make(map[kv.CF]map[string]struct{})}
	if err := fn(t); err != nil {
		return err
	}
	// Single-writer mutex means there is never a concurrent conflicting
	// writer to detect by the time fn returns; the read-set is tracked
	// anyway so badgerkv (which does have real concurrent commits) can
	// share the same Txn-construction call sites.
	return nil
}

func (e *Engine) Snapshot() (kv.Snapshot, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	frozen := make(map[kv.CF]map[string][]byte, len(e.cfs))
	for cf, m := range e.cfs {
		cp := make(map[string][]byte, len(m))
		for k, v := range m {
			cp[k] = append([]byte(nil), v...)
		}
		frozen[cf] = cp
	}
	return &snapshot{cfs: frozen}, nil
}

func (e *Engine) IngestSST(entries []kv.SSTEntry) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, ent := range entries {
		e.cfs[ent.CF][string(ent.Key)] = append([]byte(nil), ent.Value...)
	}
	return nil
}

func (e *Engine) Flush() error                     { return nil }
func (e *Engine) Compact(ctx context.Context) error { return nil }
func (e *Engine) Close() error                     { return nil }

func (e *Engine) Backup(ctx context.Context, sink kv.BackupSink) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, cf := range kv.AllCFs() {
		keys := sortedKeys(e.cfs[cf])
		for _, k := range keys {
			if err := sink.Write(cf, []byte(k), e.cfs[cf][k]); err != nil {
				return err
			}
		}
	}
	return nil
}

func sortedKeys(m map[string][]byte) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type txn struct {
	engine   *Engine
	writable bool
	reads    map[kv.CF]map[string]struct{}
}

func (t *txn) Get(cf kv.CF, key []byte) ([]byte, error) {
	v, ok := t.engine.cfs[cf][string(key)]
	if !ok {
		return nil, kv.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (t *txn) Contains(cf kv.CF, key []byte) (bool, error) {
	_, ok := t.engine.cfs[cf][string(key)]
	return ok, nil
}

func (t *txn) ContainsForUpdate(cf kv.CF, key []byte) (bool, error) {
	if t.reads != nil {
		if t.reads[cf] == nil {
			t.reads[cf] = make(map[string]struct{})
		}
		t.reads[cf][string(key)] = struct{}{}
	}
	return t.Contains(cf, key)
}

func (t *txn) Insert(cf kv.CF, key, value []byte) error {
	if !t.writable {
		return kv.ErrReadOnly
	}
	t.engine.cfs[cf][string(key)] = append([]byte(nil), value...)
	return nil
}

func (t *txn) Remove(cf kv.CF, key []byte) error {
	if !t.writable {
		return kv.ErrReadOnly
	}
	delete(t.engine.cfs[cf], string(key))
	return nil
}

func (t *txn) ScanPrefix(cf kv.CF, prefix []byte, fn func(key, value []byte) bool) error {
	return scanPrefix(t.engine.cfs[cf], prefix, fn)
}

func scanPrefix(m map[string][]byte, prefix []byte, fn func(key, value []byte) bool) error {
	keys := sortedKeys(m)
	start := sort.SearchStrings(keys, string(prefix))
	for _, k := range keys[start:] {
		if !bytes.HasPrefix([]byte(k), prefix) {
			break
		}
		if !fn([]byte(k), m[k]) {
			break
		}
	}
	return nil
}

type snapshot struct {
	cfs map[kv.CF]map[string][]byte
}

func (s *snapshot) Get(cf kv.CF, key []byte) ([]byte, error) {
	v, ok := s.cfs[cf][string(key)]
	if !ok {
		return nil, kv.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *snapshot) Contains(cf kv.CF, key []byte) (bool, error) {
	_, ok := s.cfs[cf][string(key)]
	return ok, nil
}

func (s *snapshot) ContainsForUpdate(cf kv.CF, key []byte) (bool, error) {
	return s.Contains(cf, key)
}

func (s *snapshot) Insert(cf kv.CF, key, value []byte) error { return kv.ErrReadOnly }
func (s *snapshot) Remove(cf kv.CF, key []byte) error        { return kv.ErrReadOnly }

func (s *snapshot) ScanPrefix(cf kv.CF, prefix []byte, fn func(key, value []byte) bool) error {
	return scanPrefix(s.cfs[cf], prefix, fn)
}

func (s *snapshot) Close() error { return nil }
