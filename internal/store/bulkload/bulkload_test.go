package bulkload

import (
	"testing"

	"github.com/aleksaelezovic/trigo/internal/store/kv"
	"github.com/aleksaelezovic/trigo/internal/store/memkv"
	"github.com/aleksaelezovic/trigo/pkg/rdf"
)

type sliceSource struct {
	quads []*rdf.Quad
	pos   int
}

func (s *sliceSource) Next() bool {
	s.pos++
	return s.pos <= len(s.quads)
}

func (s *sliceSource) Quad() (*rdf.Quad, error) { return s.quads[s.pos-1], nil }

func TestLoadIngestsAllQuads(t *testing.T) {
	engine := memkv.New()
	defer engine.Close()

	quads := []*rdf.Quad{
		rdf.NewQuad(rdf.NewNamedNode("http://example.org/a"), rdf.NewNamedNode("http://example.org/p"), rdf.NewLiteral("1"), rdf.NewDefaultGraph()),
		rdf.NewQuad(rdf.NewNamedNode("http://example.org/b"), rdf.NewNamedNode("http://example.org/p"), rdf.NewLiteral("2"), rdf.NewNamedNode("http://example.org/g")),
	}

	loader := New(engine, Options{NumThreads: 3})
	if err := loader.Load(&sliceSource{quads: quads}); err != nil {
		t.Fatalf("Load: %v", err)
	}

	var count int
	err := engine.View(func(txn kv.Txn) error {
		return txn.ScanPrefix(kv.CFSPOG, nil, func(k, v []byte) bool {
			count++
			return true
		})
	})
	if err != nil {
		t.Fatalf("ScanPrefix: %v", err)
	}
	if count != len(quads) {
		t.Fatalf("expected %d ingested SPOG entries, got %d", len(quads), count)
	}
}

func TestBatchSizeDefaultsAndFloor(t *testing.T) {
	opts := Options{}
	if opts.batchSize() != DefaultBatchSize {
		t.Fatalf("expected default batch size %d, got %d", DefaultBatchSize, opts.batchSize())
	}

	opts = Options{MaxMemorySize: 1, NumThreads: 2}
	if opts.batchSize() != minBatchSize {
		t.Fatalf("expected batch size floored to %d, got %d", minBatchSize, opts.batchSize())
	}
}

func TestNumThreadsFloor(t *testing.T) {
	opts := Options{NumThreads: 1}
	if opts.numThreads() != 2 {
		t.Fatalf("expected numThreads floored to 2, got %d", opts.numThreads())
	}
}
