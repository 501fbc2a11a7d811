package store

import (
	"reflect"
	"testing"

	"github.com/aleksaelezovic/trigo/internal/store/bulkload"
	"github.com/aleksaelezovic/trigo/internal/store/encoding"
	"github.com/aleksaelezovic/trigo/internal/store/kv"
	"github.com/aleksaelezovic/trigo/pkg/rdf"
)

type sliceQuadSource struct {
	quads []*rdf.Quad
	pos   int
}

func (s *sliceQuadSource) Next() bool {
	s.pos++
	return s.pos <= len(s.quads)
}

func (s *sliceQuadSource) Quad() (*rdf.Quad, error) { return s.quads[s.pos-1], nil }

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("", InMemory())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func quad(s, p, o string, g rdf.Term) *rdf.Quad {
	return rdf.NewQuad(rdf.NewNamedNode(s), rdf.NewNamedNode(p), rdf.NewLiteral(o), g)
}

// allQuads drains a QuadsForPattern(Pattern{}) result into a multiset keyed
// by Quad.String(), the comparison spec §8's bulk-load equivalence property
// is defined against.
func allQuads(t *testing.T, s *Store) map[string]int {
	t.Helper()
	it, err := s.QuadsForPattern(Pattern{})
	if err != nil {
		t.Fatalf("QuadsForPattern: %v", err)
	}
	defer it.Close()

	out := make(map[string]int)
	for it.Next() {
		q, err := it.Quad()
		if err != nil {
			t.Fatalf("Quad: %v", err)
		}
		out[q.String()]++
	}
	return out
}

func TestInsertAndContains(t *testing.T) {
	s := newTestStore(t)
	q := quad("http://example.org/alice", "http://xmlns.com/foaf/0.1/name", "Alice", rdf.NewDefaultGraph())

	if err := s.Insert(q); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	found, err := s.Contains(q)
	if err != nil {
		t.Fatalf("Contains: %v", err)
	}
	if !found {
		t.Fatalf("expected quad to be found after insert")
	}

	if err := s.Insert(q); err != ErrQuadExists {
		t.Fatalf("expected ErrQuadExists on duplicate insert, got %v", err)
	}
}

func TestInsertNamedGraphRegistersGraph(t *testing.T) {
	s := newTestStore(t)
	g := rdf.NewNamedNode("http://example.org/graph1")
	q := quad("http://example.org/bob", "http://xmlns.com/foaf/0.1/name", "Bob", g)

	if err := s.Insert(q); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	known, err := s.ContainsNamedGraph(g)
	if err != nil {
		t.Fatalf("ContainsNamedGraph: %v", err)
	}
	if !known {
		t.Fatalf("expected graph to be registered after inserting a quad into it")
	}

	graphs, err := s.NamedGraphs()
	if err != nil {
		t.Fatalf("NamedGraphs: %v", err)
	}
	if len(graphs) != 1 {
		t.Fatalf("expected exactly one named graph, got %d", len(graphs))
	}
}

func TestDefaultGraphQuadNeverRegistersAsNamedGraph(t *testing.T) {
	s := newTestStore(t)
	q := quad("http://example.org/alice", "http://xmlns.com/foaf/0.1/name", "Alice", rdf.NewDefaultGraph())
	if err := s.Insert(q); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	graphs, err := s.NamedGraphs()
	if err != nil {
		t.Fatalf("NamedGraphs: %v", err)
	}
	if len(graphs) != 0 {
		t.Fatalf("expected no named graphs after inserting only a default-graph quad, got %d", len(graphs))
	}
}

func TestRemoveIsExact(t *testing.T) {
	s := newTestStore(t)
	q := quad("http://example.org/alice", "http://xmlns.com/foaf/0.1/name", "Alice", rdf.NewDefaultGraph())

	if err := s.Remove(q); err != ErrQuadNotExist {
		t.Fatalf("expected ErrQuadNotExist removing an absent quad, got %v", err)
	}

	if err := s.Insert(q); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.Remove(q); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	found, err := s.Contains(q)
	if err != nil {
		t.Fatalf("Contains: %v", err)
	}
	if found {
		t.Fatalf("expected quad to be gone after Remove")
	}
}

func TestDictionaryAndGraphsSurviveRemoval(t *testing.T) {
	s := newTestStore(t)
	g := rdf.NewNamedNode("http://example.org/graph1")
	q := quad("http://example.org/carol", "http://xmlns.com/foaf/0.1/name", "Carol", g)

	if err := s.Insert(q); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.Remove(q); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	// The graph's quads are gone, but the store never forgets a graph name
	// it has seen just because a quad is removed.
	known, err := s.ContainsNamedGraph(g)
	if err != nil {
		t.Fatalf("ContainsNamedGraph: %v", err)
	}
	if !known {
		t.Fatalf("expected graph registration to survive quad removal")
	}

	// The removed quad's subject IRI stays resolvable through id2str.
	subjectHash := encoding.Hash128("http://example.org/carol")
	var inDict bool
	if err := s.engine.View(func(txn kv.Txn) error {
		var err error
		inDict, err = txn.Contains(kv.CFID2Str, subjectHash[:])
		return err
	}); err != nil {
		t.Fatalf("id2str lookup: %v", err)
	}
	if !inDict {
		t.Fatalf("expected id2str entry to survive quad removal")
	}
}

func TestQuadsForPatternDispatchesAcrossBoundPositions(t *testing.T) {
	s := newTestStore(t)
	alice := quad("http://example.org/alice", "http://xmlns.com/foaf/0.1/name", "Alice", rdf.NewDefaultGraph())
	bob := quad("http://example.org/bob", "http://xmlns.com/foaf/0.1/name", "Bob", rdf.NewDefaultGraph())
	for _, q := range []*rdf.Quad{alice, bob} {
		if err := s.Insert(q); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	it, err := s.QuadsForPattern(Pattern{Predicate: rdf.NewNamedNode("http://xmlns.com/foaf/0.1/name")})
	if err != nil {
		t.Fatalf("QuadsForPattern: %v", err)
	}
	defer it.Close()

	count := 0
	for it.Next() {
		if _, err := it.Quad(); err != nil {
			t.Fatalf("Quad: %v", err)
		}
		count++
	}
	if count != 2 {
		t.Fatalf("expected 2 matches on bound predicate, got %d", count)
	}
}

func TestQuadsForPatternUnboundGraphCoversNamedAndDefault(t *testing.T) {
	s := newTestStore(t)
	g := rdf.NewNamedNode("http://example.org/graph1")
	defQuad := quad("http://example.org/alice", "http://xmlns.com/foaf/0.1/name", "Alice", rdf.NewDefaultGraph())
	namedQuad := quad("http://example.org/bob", "http://xmlns.com/foaf/0.1/name", "Bob", g)
	for _, q := range []*rdf.Quad{defQuad, namedQuad} {
		if err := s.Insert(q); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	it, err := s.QuadsForPattern(Pattern{})
	if err != nil {
		t.Fatalf("QuadsForPattern: %v", err)
	}
	defer it.Close()

	count := 0
	for it.Next() {
		count++
	}
	if count != 2 {
		t.Fatalf("expected both quads across default and named graphs, got %d", count)
	}
}

func TestClearGraphLeavesGraphRegistered(t *testing.T) {
	s := newTestStore(t)
	g := rdf.NewNamedNode("http://example.org/graph1")
	q := quad("http://example.org/dave", "http://xmlns.com/foaf/0.1/name", "Dave", g)
	if err := s.Insert(q); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.ClearGraph(g); err != nil {
		t.Fatalf("ClearGraph: %v", err)
	}
	known, err := s.ContainsNamedGraph(g)
	if err != nil {
		t.Fatalf("ContainsNamedGraph: %v", err)
	}
	if !known {
		t.Fatalf("ClearGraph should not forget the graph, only empty it")
	}
	n, err := s.Len()
	if err != nil {
		t.Fatalf("Len: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected store to be empty after ClearGraph, got %d quads", n)
	}
}

func TestRemoveNamedGraphForgetsIt(t *testing.T) {
	s := newTestStore(t)
	g := rdf.NewNamedNode("http://example.org/graph1")
	q := quad("http://example.org/dave", "http://xmlns.com/foaf/0.1/name", "Dave", g)
	if err := s.Insert(q); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.RemoveNamedGraph(g); err != nil {
		t.Fatalf("RemoveNamedGraph: %v", err)
	}
	known, err := s.ContainsNamedGraph(g)
	if err != nil {
		t.Fatalf("ContainsNamedGraph: %v", err)
	}
	if known {
		t.Fatalf("expected graph to be forgotten after RemoveNamedGraph")
	}
}

func TestValidatePassesOnFreshStore(t *testing.T) {
	s := newTestStore(t)
	if err := s.Insert(quad("http://example.org/a", "http://example.org/p", "v", rdf.NewDefaultGraph())); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestBulkLoadEquivalentToTransactionalInsert(t *testing.T) {
	quads := []*rdf.Quad{
		quad("http://example.org/alice", "http://xmlns.com/foaf/0.1/name", "Alice", rdf.NewDefaultGraph()),
		quad("http://example.org/bob", "http://xmlns.com/foaf/0.1/name", "Bob", rdf.NewNamedNode("http://example.org/g1")),
	}

	txnStore := newTestStore(t)
	for _, q := range quads {
		if err := txnStore.Insert(q); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	bulkStore := newTestStore(t)
	if err := bulkStore.BulkLoad(bulkload.Options{NumThreads: 2}, &sliceQuadSource{quads: quads}); err != nil {
		t.Fatalf("BulkLoad: %v", err)
	}

	for _, q := range quads {
		found, err := bulkStore.Contains(q)
		if err != nil {
			t.Fatalf("Contains: %v", err)
		}
		if !found {
			t.Fatalf("expected bulk-loaded store to contain %v", q)
		}
	}
	if err := bulkStore.Validate(); err != nil {
		t.Fatalf("Validate after bulk load: %v", err)
	}

	// Equivalence is judged by quads_for_pattern(None,None,None,None): the
	// two stores must agree on the exact multiset of quads it reports, not
	// merely on a count or individual membership checks.
	txnQuads := allQuads(t, txnStore)
	bulkQuads := allQuads(t, bulkStore)
	if !reflect.DeepEqual(txnQuads, bulkQuads) {
		t.Fatalf("expected bulk-loaded and transactionally-inserted stores to report the same quads via QuadsForPattern(Pattern{}), got %v vs %v", bulkQuads, txnQuads)
	}
}

func TestBulkLoadRefusesConcurrentWriter(t *testing.T) {
	s := newTestStore(t)
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err := s.BulkLoad(bulkload.Options{}, &sliceQuadSource{})
	if err != ErrBulkLoadExclusive {
		t.Fatalf("expected ErrBulkLoadExclusive while a writer holds the mutex, got %v", err)
	}
}

func TestCloneSharesEngineAndClosesOnce(t *testing.T) {
	s := newTestStore(t)
	clone := s.Clone()
	if err := clone.Insert(quad("http://example.org/a", "http://example.org/p", "v", rdf.NewDefaultGraph())); err != nil {
		t.Fatalf("Insert via clone: %v", err)
	}
	n, err := s.Len()
	if err != nil {
		t.Fatalf("Len: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected clone's write to be visible through the original handle, got %d", n)
	}
	if err := clone.Close(); err != nil {
		t.Fatalf("Close clone: %v", err)
	}
	// The engine must still be usable through s, since s itself hasn't
	// been closed yet.
	if _, err := s.Len(); err != nil {
		t.Fatalf("expected engine to remain open while the original handle is alive: %v", err)
	}
}
