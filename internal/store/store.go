// Package store is the storage core: the ten column families, their
// invariants, and the reader/writer operations layered on top of the kv
// engine facade. It has no notion of SPARQL; callers drive it with plain
// rdf.Quad values and bound/unbound term patterns.
package store

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/aleksaelezovic/trigo/internal/store/encoding"
	"github.com/aleksaelezovic/trigo/internal/store/kv"
	"github.com/aleksaelezovic/trigo/pkg/rdf"
)

// Store is a clonable handle onto a kv.Engine. Clone/Close maintain a
// reference count so the engine is only closed once every handle derived
// from the original Open call has been released, mirroring the "shared
// clonable handle" ownership model.
type Store struct {
	engine   kv.Engine
	refcount *int32
	writeMu  *sync.Mutex
}

// Option configures Open.
type Option func(*openConfig)

type openConfig struct {
	readOnly bool
	inMemory bool
}

// ReadOnly sets the read-only flag of the open configuration. Neither
// engine reads that flag: the returned Store still accepts writes, and
// Open still stamps the schema version on a fresh database.
func ReadOnly() Option { return func(c *openConfig) { c.readOnly = true } }

// InMemory selects the in-memory reference engine instead of badger,
// regardless of path. Used by tests and by callers that want an
// ephemeral store.
func InMemory() Option { return func(c *openConfig) { c.inMemory = true } }

// Open opens (or creates) a store at path.
func Open(path string, opts ...Option) (*Store, error) {
	cfg := &openConfig{}
	for _, o := range opts {
		o(cfg)
	}

	engine, err := newEngine(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}

	s := &Store{
		engine:   engine,
		refcount: new(int32),
		writeMu:  &sync.Mutex{},
	}
	*s.refcount = 1

	if err := s.ensureSchema(); err != nil {
		_ = engine.Close()
		return nil, err
	}
	return s, nil
}

// Clone returns a new handle sharing the same underlying engine. Each
// returned handle must be Close'd independently; the engine itself is
// closed only once the last handle is released.
func (s *Store) Clone() *Store {
	atomic.AddInt32(s.refcount, 1)
	return &Store{engine: s.engine, refcount: s.refcount, writeMu: s.writeMu}
}

// Close releases this handle. When it is the last outstanding handle the
// underlying engine is closed.
func (s *Store) Close() error {
	if atomic.AddInt32(s.refcount, -1) == 0 {
		return s.engine.Close()
	}
	return nil
}

func (s *Store) Flush() error { return s.engine.Flush() }

func (s *Store) Compact(ctx context.Context) error { return s.engine.Compact(ctx) }

func (s *Store) Backup(ctx context.Context, sink kv.BackupSink) error {
	return s.engine.Backup(ctx, sink)
}

// Pattern is a quad pattern for QuadsForPattern: a nil field is unbound.
// A nil Graph means "any graph, default graph included".
type Pattern struct {
	Subject, Predicate, Object, Graph rdf.Term
}

// ---- Reader operations ----

// Len returns the total number of quads in the store (default graph plus
// every named graph).
func (s *Store) Len() (int64, error) {
	var n int64
	err := s.engine.View(func(txn kv.Txn) error {
		return txn.ScanPrefix(kv.CFSPOG, nil, func(k, v []byte) bool {
			n++
			return true
		})
	})
	if err != nil {
		return 0, fmt.Errorf("store: len: %w", err)
	}
	return n, nil
}

func (s *Store) IsEmpty() (bool, error) {
	n, err := s.Len()
	return n == 0, err
}

// Contains reports whether quad is present.
func (s *Store) Contains(quad *rdf.Quad) (bool, error) {
	var found bool
	err := s.engine.View(func(txn kv.Txn) error {
		enc := encoding.NewEncoder()
		key, err := spogKeyFor(enc, quad)
		if err != nil {
			return err
		}
		found, err = txn.Contains(kv.CFSPOG, key)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("store: contains: %w", err)
	}
	return found, nil
}

// NamedGraphs returns every named graph the store knows about.
func (s *Store) NamedGraphs() ([]rdf.Term, error) {
	var out []rdf.Term
	err := s.engine.View(func(txn kv.Txn) error {
		dec := s.decoder(txn)
		return txn.ScanPrefix(kv.CFGraphs, nil, func(k, v []byte) bool {
			var enc encoding.EncodedTerm
			copy(enc[:], k)
			term, derr := dec.DecodeTerm(enc)
			if derr != nil {
				return true
			}
			out = append(out, term)
			return true
		})
	})
	if err != nil {
		return nil, fmt.Errorf("store: named graphs: %w", err)
	}
	return out, nil
}

func (s *Store) ContainsNamedGraph(graph rdf.Term) (bool, error) {
	var found bool
	err := s.engine.View(func(txn kv.Txn) error {
		enc := encoding.NewEncoder()
		ge, _, err := enc.EncodeTerm(graph)
		if err != nil {
			return err
		}
		found, err = txn.Contains(kv.CFGraphs, ge[:])
		return err
	})
	if err != nil {
		return false, fmt.Errorf("store: contains named graph: %w", err)
	}
	return found, nil
}

// QuadIterator iterates over quads matching a Pattern.
type QuadIterator interface {
	Next() bool
	Quad() (*rdf.Quad, error)
	Close() error
}

// QuadsForPattern dispatches the pattern across the sixteen bound-position
// subsets, picking the column family whose key prefix covers the bound
// positions most specifically.
func (s *Store) QuadsForPattern(pat Pattern) (QuadIterator, error) {
	snap, err := s.engine.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("store: quads for pattern: %w", err)
	}

	if pat.Graph != nil && pat.Graph.Type() == rdf.TermTypeDefaultGraph {
		it, err := newIndexIterator(snap, s.decoder(snap), pat, defaultGraphFamily)
		if err != nil {
			snap.Close()
			return nil, err
		}
		return &chainIterator{iters: []QuadIterator{it}, closer: snap}, nil
	}

	if pat.Graph != nil {
		it, err := newIndexIterator(snap, s.decoder(snap), pat, namedGraphFamily)
		if err != nil {
			snap.Close()
			return nil, err
		}
		return &chainIterator{iters: []QuadIterator{it}, closer: snap}, nil
	}

	// Unbound graph: union the default-graph family with the named-graph
	// family, graph position left wild in both. namedGraphFamily also
	// indexes default-graph quads (graph = DefaultGraph as an ordinary
	// value), so its scan must exclude those to avoid double-reporting
	// what defaultGraphFamily's scan already returned.
	defPat := pat
	defPat.Graph = rdf.NewDefaultGraph()
	first, err := newIndexIterator(snap, s.decoder(snap), defPat, defaultGraphFamily)
	if err != nil {
		snap.Close()
		return nil, err
	}
	second, err := newIndexIterator(snap, s.decoder(snap), pat, namedGraphFamily)
	if err != nil {
		first.Close()
		snap.Close()
		return nil, err
	}
	filtered := &excludeDefaultGraphIterator{inner: second}
	return &chainIterator{iters: []QuadIterator{first, filtered}, closer: snap}, nil
}

// Validate checks index-count parity (the six named-graph permutations
// hold the same number of entries, as do the three default-graph ones),
// that the default-graph family is no larger than the named-graph family,
// and the schema version marker. It compares entry counts only: it does
// not check that each key's permuted companion keys exist, that every
// named graph in a key is registered in the graphs table, or that every
// hashed term has an id2str entry.
func (s *Store) Validate() error {
	return s.engine.View(func(txn kv.Txn) error {
		spogCount, spoCount := 0, 0
		if err := txn.ScanPrefix(kv.CFSPOG, nil, func(k, v []byte) bool { spogCount++; return true }); err != nil {
			return err
		}
		if err := txn.ScanPrefix(kv.CFSPO, nil, func(k, v []byte) bool { spoCount++; return true }); err != nil {
			return err
		}
		for _, cf := range []kv.CF{kv.CFPOSG, kv.CFOSPG, kv.CFGSPO, kv.CFGPOS, kv.CFGOSP} {
			n := 0
			if err := txn.ScanPrefix(cf, nil, func(k, v []byte) bool { n++; return true }); err != nil {
				return err
			}
			if n != spogCount {
				return &CorruptionError{Invariant: "index-count-parity",
					Detail: fmt.Sprintf("%s has %d entries, spog has %d", cf, n, spogCount)}
			}
		}
		for _, cf := range []kv.CF{kv.CFPOS, kv.CFOSP} {
			n := 0
			if err := txn.ScanPrefix(cf, nil, func(k, v []byte) bool { n++; return true }); err != nil {
				return err
			}
			if n != spoCount {
				return &CorruptionError{Invariant: "index-count-parity",
					Detail: fmt.Sprintf("%s has %d entries, spo has %d", cf, n, spoCount)}
			}
		}
		if spoCount > spogCount {
			return &CorruptionError{Invariant: "companion-key-coexistence",
				Detail: "default graph family has more entries than the named-graph family that must also hold them"}
		}
		return s.validateSchemaVersion(txn)
	})
}

func (s *Store) validateSchemaVersion(txn kv.Txn) error {
	v, err := txn.Get(kv.CFDefault, []byte(schemaVersionKey))
	if err != nil {
		if err == kv.ErrNotFound {
			return &CorruptionError{Invariant: "version-correctness", Detail: "missing schema version marker"}
		}
		return err
	}
	if len(v) != 1 {
		return &CorruptionError{Invariant: "version-correctness", Detail: "malformed schema version marker"}
	}
	if v[0] > currentSchemaVersion {
		return ErrSchemaTooNew
	}
	return nil
}

func (s *Store) decoder(txn kv.Txn) *encoding.Decoder {
	return encoding.NewDecoder(func(hash []byte) (string, bool) {
		v, err := txn.Get(kv.CFID2Str, hash)
		if err != nil {
			return "", false
		}
		return string(v), true
	})
}

// ---- shared key helpers ----

func spogKeyFor(enc *encoding.Encoder, quad *rdf.Quad) ([]byte, error) {
	se, _, err := enc.EncodeTerm(quad.Subject)
	if err != nil {
		return nil, fmt.Errorf("encoding subject: %w", err)
	}
	pe, _, err := enc.EncodeTerm(quad.Predicate)
	if err != nil {
		return nil, fmt.Errorf("encoding predicate: %w", err)
	}
	oe, _, err := enc.EncodeTerm(quad.Object)
	if err != nil {
		return nil, fmt.Errorf("encoding object: %w", err)
	}
	ge, _, err := enc.EncodeTerm(quad.Graph)
	if err != nil {
		return nil, fmt.Errorf("encoding graph: %w", err)
	}
	return encoding.EncodeQuadKey(se, pe, oe, ge), nil
}
