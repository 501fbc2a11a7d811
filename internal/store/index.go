package store

import (
	"fmt"

	"github.com/aleksaelezovic/trigo/internal/store/encoding"
	"github.com/aleksaelezovic/trigo/internal/store/kv"
	"github.com/aleksaelezovic/trigo/pkg/rdf"
)

// field identifies one quad position within a permutation's key order.
type field int

const (
	fieldS field = iota
	fieldP
	fieldO
	fieldG
)

// permutation describes one column family's key layout: the order in
// which the four quad positions are concatenated to form its key.
type permutation struct {
	cf    kv.CF
	order []field
}

// defaultGraphFamily holds the three permutations that only ever index
// quads whose graph is the default graph; their keys have no graph
// component at all.
var defaultGraphFamily = []permutation{
	{kv.CFSPO, []field{fieldS, fieldP, fieldO}},
	{kv.CFPOS, []field{fieldP, fieldO, fieldS}},
	{kv.CFOSP, []field{fieldO, fieldS, fieldP}},
}

// namedGraphFamily holds the six permutations that index every quad
// (default graph included, using DefaultGraph as an ordinary graph value)
// keyed on all four positions.
var namedGraphFamily = []permutation{
	{kv.CFSPOG, []field{fieldS, fieldP, fieldO, fieldG}},
	{kv.CFPOSG, []field{fieldP, fieldO, fieldS, fieldG}},
	{kv.CFOSPG, []field{fieldO, fieldS, fieldP, fieldG}},
	{kv.CFGSPO, []field{fieldG, fieldS, fieldP, fieldO}},
	{kv.CFGPOS, []field{fieldG, fieldP, fieldO, fieldS}},
	{kv.CFGOSP, []field{fieldG, fieldO, fieldS, fieldP}},
}

func boundMap(pat Pattern) map[field]rdf.Term {
	m := make(map[field]rdf.Term, 4)
	if pat.Subject != nil {
		m[fieldS] = pat.Subject
	}
	if pat.Predicate != nil {
		m[fieldP] = pat.Predicate
	}
	if pat.Object != nil {
		m[fieldO] = pat.Object
	}
	if pat.Graph != nil {
		m[fieldG] = pat.Graph
	}
	return m
}

// choosePermutation picks, among family, the permutation whose key order
// has the longest leading run of positions bound by pat. A longer bound
// prefix narrows the prefix scan further, which is the same selectivity
// argument the algebra's plan builder applies when ordering basic graph
// pattern triples.
func choosePermutation(family []permutation, bound map[field]rdf.Term) permutation {
	best := family[0]
	bestRun := -1
	for _, perm := range family {
		run := 0
		for _, f := range perm.order {
			if _, ok := bound[f]; !ok {
				break
			}
			run++
		}
		if run > bestRun {
			bestRun = run
			best = perm
		}
	}
	return best
}

func termFor(f field, pat Pattern) rdf.Term {
	switch f {
	case fieldS:
		return pat.Subject
	case fieldP:
		return pat.Predicate
	case fieldO:
		return pat.Object
	default:
		return pat.Graph
	}
}

type indexIterator struct {
	txn   kv.Txn
	dec   *encoding.Decoder
	perm  permutation
	pat   Pattern
	pairs []kvPair
	pos   int
	err   error
}

type kvPair struct{ key, value []byte }

func newIndexIterator(txn kv.Txn, dec *encoding.Decoder, pat Pattern, family []permutation) (*indexIterator, error) {
	bound := boundMap(pat)
	perm := choosePermutation(family, bound)

	enc := encoding.NewEncoder()
	var prefix []byte
	for _, f := range perm.order {
		term, ok := bound[f]
		if !ok {
			break
		}
		et, _, err := enc.EncodeTerm(term)
		if err != nil {
			return nil, fmt.Errorf("store: encoding pattern: %w", err)
		}
		prefix = append(prefix, et[:]...)
	}

	it := &indexIterator{txn: txn, dec: dec, perm: perm, pat: pat, pos: -1}
	err := txn.ScanPrefix(perm.cf, prefix, func(k, v []byte) bool {
		it.pairs = append(it.pairs, kvPair{key: append([]byte(nil), k...), value: v})
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("store: scanning %s: %w", perm.cf, err)
	}
	return it, nil
}

func (it *indexIterator) Next() bool {
	it.pos++
	return it.pos < len(it.pairs)
}

func (it *indexIterator) Quad() (*rdf.Quad, error) {
	if it.pos < 0 || it.pos >= len(it.pairs) {
		return nil, fmt.Errorf("store: Quad called out of iteration bounds")
	}
	key := it.pairs[it.pos].key
	if len(key) != len(it.perm.order)*encoding.WrittenTermMaxSize {
		return nil, fmt.Errorf("store: malformed key in %s", it.perm.cf)
	}

	terms := make(map[field]rdf.Term, len(it.perm.order))
	for i, f := range it.perm.order {
		var et encoding.EncodedTerm
		copy(et[:], key[i*encoding.WrittenTermMaxSize:(i+1)*encoding.WrittenTermMaxSize])
		term, err := it.dec.DecodeTerm(et)
		if err != nil {
			return nil, err
		}
		terms[f] = term
	}

	graph := terms[fieldG]
	if graph == nil {
		graph = rdf.NewDefaultGraph()
	}
	return &rdf.Quad{
		Subject:   terms[fieldS],
		Predicate: terms[fieldP],
		Object:    terms[fieldO],
		Graph:     graph,
	}, nil
}

func (it *indexIterator) Close() error { return nil }

// excludeDefaultGraphIterator wraps a QuadIterator over namedGraphFamily,
// skipping quads whose graph is DefaultGraph. namedGraphFamily indexes
// every quad including default-graph ones (graph = DefaultGraph as an
// ordinary value), so a scan left unconstrained on the graph position
// would otherwise return default-graph quads a second time alongside
// defaultGraphFamily's copy. Quad() re-reads the wrapped iterator's
// current position rather than caching, since indexIterator.Quad() is
// stable across repeated calls between Next() advances.
type excludeDefaultGraphIterator struct {
	inner QuadIterator
}

func (it *excludeDefaultGraphIterator) Next() bool {
	for it.inner.Next() {
		q, err := it.inner.Quad()
		if err != nil {
			return true // surface the error from the next Quad() call
		}
		if q.Graph.Type() == rdf.TermTypeDefaultGraph {
			continue
		}
		return true
	}
	return false
}

func (it *excludeDefaultGraphIterator) Quad() (*rdf.Quad, error) { return it.inner.Quad() }

func (it *excludeDefaultGraphIterator) Close() error { return it.inner.Close() }

// chainIterator concatenates several QuadIterators, closing an owning
// resource (typically a kv.Snapshot) once every sub-iterator is closed.
type chainIterator struct {
	iters  []QuadIterator
	idx    int
	closer interface{ Close() error }
}

func (c *chainIterator) Next() bool {
	for c.idx < len(c.iters) {
		if c.iters[c.idx].Next() {
			return true
		}
		c.idx++
	}
	return false
}

func (c *chainIterator) Quad() (*rdf.Quad, error) {
	return c.iters[c.idx].Quad()
}

func (c *chainIterator) Close() error {
	var firstErr error
	for _, it := range c.iters {
		if err := it.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.closer != nil {
		if err := c.closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
