package store

import (
	"fmt"

	"github.com/aleksaelezovic/trigo/internal/store/encoding"
	"github.com/aleksaelezovic/trigo/internal/store/kv"
	"github.com/aleksaelezovic/trigo/pkg/rdf"
)

// Insert adds quad to the store. Returns ErrQuadExists if it is already
// present. Every quad is indexed under all six named-graph permutations
// using its actual graph (DefaultGraph included); the three default-graph
// permutations are additionally populated only when the quad's graph is
// literally the default graph. A non-default graph is also registered in
// the known-graphs table.
func (s *Store) Insert(quad *rdf.Quad) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.engine.Update(func(txn kv.Txn) error {
		exists, err := s.insertQuadInTxn(txn, quad)
		if err != nil {
			return err
		}
		if exists {
			return ErrQuadExists
		}
		return nil
	})
}

// insertQuadInTxn performs the write and reports whether the quad already
// existed (in which case nothing was written).
func (s *Store) insertQuadInTxn(txn kv.Txn, quad *rdf.Quad) (alreadyExisted bool, err error) {
	enc := encoding.NewEncoder()
	se, sStr, err := enc.EncodeTerm(quad.Subject)
	if err != nil {
		return false, fmt.Errorf("store: encoding subject: %w", err)
	}
	pe, pStr, err := enc.EncodeTerm(quad.Predicate)
	if err != nil {
		return false, fmt.Errorf("store: encoding predicate: %w", err)
	}
	oe, oStr, err := enc.EncodeTerm(quad.Object)
	if err != nil {
		return false, fmt.Errorf("store: encoding object: %w", err)
	}
	ge, gStr, err := enc.EncodeTerm(quad.Graph)
	if err != nil {
		return false, fmt.Errorf("store: encoding graph: %w", err)
	}

	byField := map[field]encoding.EncodedTerm{fieldS: se, fieldP: pe, fieldO: oe, fieldG: ge}
	spogKey := keyFor(namedGraphFamily[0], byField)

	exists, err := txn.ContainsForUpdate(kv.CFSPOG, spogKey)
	if err != nil {
		return false, err
	}
	if exists {
		return true, nil
	}

	for _, pair := range []struct {
		enc encoding.EncodedTerm
		str *string
	}{{se, sStr}, {pe, pStr}, {oe, oStr}, {ge, gStr}} {
		if pair.str != nil {
			if err := txn.Insert(kv.CFID2Str, pair.enc.HashKey(), []byte(*pair.str)); err != nil {
				return false, err
			}
		}
	}

	for _, perm := range namedGraphFamily {
		if err := txn.Insert(perm.cf, keyFor(perm, byField), nil); err != nil {
			return false, err
		}
	}

	if quad.Graph.Type() == rdf.TermTypeDefaultGraph {
		for _, perm := range defaultGraphFamily {
			if err := txn.Insert(perm.cf, keyFor(perm, byField), nil); err != nil {
				return false, err
			}
		}
	} else {
		if err := txn.Insert(kv.CFGraphs, ge[:], nil); err != nil {
			return false, err
		}
	}

	return false, nil
}

func keyFor(perm permutation, byField map[field]encoding.EncodedTerm) []byte {
	terms := make([]encoding.EncodedTerm, len(perm.order))
	for i, f := range perm.order {
		terms[i] = byField[f]
	}
	return encoding.EncodeQuadKey(terms...)
}

// Remove deletes quad from the store. Returns ErrQuadNotExist if it is
// absent. The id2str dictionary and the known-graphs table are never
// shrunk by a removal, matching the store's no-garbage-collection
// semantics: a term or graph name once seen remains resolvable even after
// every quad using it is gone.
func (s *Store) Remove(quad *rdf.Quad) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.engine.Update(func(txn kv.Txn) error {
		removed, err := s.removeQuadInTxn(txn, quad)
		if err != nil {
			return err
		}
		if !removed {
			return ErrQuadNotExist
		}
		return nil
	})
}

func (s *Store) removeQuadInTxn(txn kv.Txn, quad *rdf.Quad) (removed bool, err error) {
	enc := encoding.NewEncoder()
	se, _, err := enc.EncodeTerm(quad.Subject)
	if err != nil {
		return false, err
	}
	pe, _, err := enc.EncodeTerm(quad.Predicate)
	if err != nil {
		return false, err
	}
	oe, _, err := enc.EncodeTerm(quad.Object)
	if err != nil {
		return false, err
	}
	ge, _, err := enc.EncodeTerm(quad.Graph)
	if err != nil {
		return false, err
	}
	byField := map[field]encoding.EncodedTerm{fieldS: se, fieldP: pe, fieldO: oe, fieldG: ge}
	spogKey := keyFor(namedGraphFamily[0], byField)

	exists, err := txn.ContainsForUpdate(kv.CFSPOG, spogKey)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}

	for _, perm := range namedGraphFamily {
		if err := txn.Remove(perm.cf, keyFor(perm, byField)); err != nil {
			return false, err
		}
	}
	if quad.Graph.Type() == rdf.TermTypeDefaultGraph {
		for _, perm := range defaultGraphFamily {
			if err := txn.Remove(perm.cf, keyFor(perm, byField)); err != nil {
				return false, err
			}
		}
	}
	return true, nil
}

// InsertNamedGraph registers graph as known even if it holds no quads yet.
func (s *Store) InsertNamedGraph(graph rdf.Term) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.engine.Update(func(txn kv.Txn) error {
		enc := encoding.NewEncoder()
		ge, _, err := enc.EncodeTerm(graph)
		if err != nil {
			return err
		}
		return txn.Insert(kv.CFGraphs, ge[:], nil)
	})
}

// ClearGraph removes every quad in graph without forgetting that the
// graph itself is known (use RemoveNamedGraph to forget it too).
func (s *Store) ClearGraph(graph rdf.Term) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.engine.Update(func(txn kv.Txn) error {
		return s.clearGraphInTxn(txn, graph)
	})
}

func (s *Store) clearGraphInTxn(txn kv.Txn, graph rdf.Term) error {
	dec := s.decoder(txn)
	it, err := newIndexIterator(txn, dec, Pattern{Graph: graph}, namedGraphFamily)
	if err != nil {
		return err
	}
	var quads []*rdf.Quad
	for it.Next() {
		q, err := it.Quad()
		if err != nil {
			return err
		}
		quads = append(quads, q)
	}
	for _, q := range quads {
		if _, err := s.removeQuadInTxn(txn, q); err != nil {
			return err
		}
	}
	return nil
}

// RemoveNamedGraph clears graph and forgets that it is known. Has no
// effect on the default graph's quads; if graph is the default graph only
// its quads are cleared (it can never be forgotten, since it isn't
// tracked in the known-graphs table to begin with).
func (s *Store) RemoveNamedGraph(graph rdf.Term) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.engine.Update(func(txn kv.Txn) error {
		if err := s.clearGraphInTxn(txn, graph); err != nil {
			return err
		}
		if graph.Type() == rdf.TermTypeDefaultGraph {
			return nil
		}
		enc := encoding.NewEncoder()
		ge, _, err := enc.EncodeTerm(graph)
		if err != nil {
			return err
		}
		return txn.Remove(kv.CFGraphs, ge[:])
	})
}

// ClearAllNamedGraphs removes every quad from every named graph, leaving
// the default graph and the known-graphs table untouched (matching
// SPARQL Update's CLEAR NAMED semantics).
func (s *Store) ClearAllNamedGraphs() error {
	graphs, err := s.NamedGraphs()
	if err != nil {
		return err
	}
	for _, g := range graphs {
		if err := s.ClearGraph(g); err != nil {
			return err
		}
	}
	return nil
}

// ClearAllGraphs empties the default graph and every named graph, but
// leaves graph names registered (SPARQL Update's CLEAR ALL).
func (s *Store) ClearAllGraphs() error {
	if err := s.ClearAllNamedGraphs(); err != nil {
		return err
	}
	return s.ClearGraph(rdf.NewDefaultGraph())
}

// Clear empties the default graph and every named graph and, unlike
// ClearAllGraphs, also forgets every named graph name.
func (s *Store) Clear() error {
	graphs, err := s.NamedGraphs()
	if err != nil {
		return err
	}
	for _, g := range graphs {
		if err := s.RemoveNamedGraph(g); err != nil {
			return err
		}
	}
	return s.ClearGraph(rdf.NewDefaultGraph())
}
