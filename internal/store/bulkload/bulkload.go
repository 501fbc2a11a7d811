// Package bulkload implements batched, parallel, out-of-band ingestion:
// producer reads quads, worker goroutines encode/dedup/sort them into
// per-column-family SST-shaped entries, and the result is installed with
// one IngestSST call per batch instead of one transaction per quad (how
// atomic that call is depends on the engine). It trades the transactional path's conflict detection for raw
// throughput, so callers must not run it alongside concurrent writers.
package bulkload

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/aleksaelezovic/trigo/internal/store/encoding"
	"github.com/aleksaelezovic/trigo/internal/store/kv"
	"github.com/aleksaelezovic/trigo/pkg/rdf"
)

// DefaultBatchSize is both the default batch size when MaxMemorySize is
// unset and the granularity at which the progress callback fires.
const DefaultBatchSize = 1_000_000

const minBatchSize = 10_000

// Options configures a Loader.
type Options struct {
	// NumThreads bounds the number of concurrent encode/sort workers.
	// Values below 2 are raised to 2.
	NumThreads int

	// MaxMemorySize, in MB, bounds a batch's size: MaxMemorySize * 1000 /
	// NumThreads, floored at minBatchSize. Zero selects DefaultBatchSize.
	MaxMemorySize int

	// Progress, if non-nil, is invoked every time the number of quads
	// processed crosses a multiple of DefaultBatchSize.
	Progress func(processed int64)
}

func (o Options) batchSize() int {
	threads := o.numThreads()
	if o.MaxMemorySize <= 0 {
		return DefaultBatchSize
	}
	size := o.MaxMemorySize * 1000 / threads
	if size < minBatchSize {
		return minBatchSize
	}
	return size
}

func (o Options) numThreads() int {
	if o.NumThreads < 2 {
		return 2
	}
	return o.NumThreads
}

// Loader bulk-ingests quads into a kv.Engine.
type Loader struct {
	engine kv.Engine
	opts   Options
}

func New(engine kv.Engine, opts Options) *Loader {
	return &Loader{engine: engine, opts: opts}
}

// QuadSource is a pull-based iterator the loader reads from; it is the
// bulk-load analogue of store.QuadIterator.
type QuadSource interface {
	Next() bool
	Quad() (*rdf.Quad, error)
}

// Load drains src, producing batches of opts.batchSize() and fanning each
// batch out across opts.numThreads()-1 worker goroutines (the producer
// goroutine itself counts as one of the threads). Errors from any worker
// abort the load; the first error encountered is returned.
func (l *Loader) Load(src QuadSource) error {
	batchSize := l.opts.batchSize()
	workers := l.opts.numThreads() - 1
	if workers < 1 {
		workers = 1
	}

	var processed int64
	var batch []*rdf.Quad

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := l.processBatch(batch, workers); err != nil {
			return err
		}
		n := atomic.AddInt64(&processed, int64(len(batch)))
		if l.opts.Progress != nil && n/DefaultBatchSize > (n-int64(len(batch)))/DefaultBatchSize {
			l.opts.Progress(n)
		}
		batch = batch[:0]
		return nil
	}

	for src.Next() {
		q, err := src.Quad()
		if err != nil {
			return fmt.Errorf("bulkload: reading source: %w", err)
		}
		batch = append(batch, q)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

// batchResult is one worker's contribution: encoded SST entries per
// column family, still unsorted.
type batchResult struct {
	entries []kv.SSTEntry
	err     error
}

// processBatch splits a batch across concurrency workers, each owning an
// independent slice, encodes and locally dedups their shares, merges and
// sorts the results per column family, and installs them with a single
// IngestSST call.
func (l *Loader) processBatch(batch []*rdf.Quad, concurrency int) error {
	chunks := splitEvenly(batch, concurrency)
	results := make([]batchResult, len(chunks))

	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		go func(i int, chunk []*rdf.Quad) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[i] = batchResult{err: fmt.Errorf("bulkload: worker panic: %v", r)}
				}
			}()
			entries, err := encodeChunk(chunk)
			results[i] = batchResult{entries: entries, err: err}
		}(i, chunk)
	}
	wg.Wait()

	var merged []kv.SSTEntry
	for _, r := range results {
		if r.err != nil {
			return r.err
		}
		merged = append(merged, r.entries...)
	}

	sortByCF(merged)
	return l.engine.IngestSST(merged)
}

func splitEvenly(batch []*rdf.Quad, n int) [][]*rdf.Quad {
	if n > len(batch) {
		n = len(batch)
	}
	if n < 1 {
		n = 1
	}
	chunks := make([][]*rdf.Quad, 0, n)
	size := (len(batch) + n - 1) / n
	for i := 0; i < len(batch); i += size {
		end := i + size
		if end > len(batch) {
			end = len(batch)
		}
		chunks = append(chunks, batch[i:end])
	}
	return chunks
}

// encodeChunk mirrors the storage core's insertQuadInTxn writes, but
// against a local hash set (deduplicating within the chunk) rather than a
// transaction, and without the "does this key already exist" read that
// the transactional path relies on for its at-most-once-written
// invariant: duplicate keys across SSTs (or against existing data) are
// harmless here since every value is empty.
func encodeChunk(chunk []*rdf.Quad) ([]kv.SSTEntry, error) {
	enc := encoding.NewEncoder()
	seenDefault := make(map[string]bool)
	seenNamed := make(map[string]bool)
	seenGraph := make(map[string]bool)
	seenDict := make(map[string]bool)

	var out []kv.SSTEntry
	for _, quad := range chunk {
		se, sStr, err := enc.EncodeTerm(quad.Subject)
		if err != nil {
			return nil, fmt.Errorf("bulkload: encoding subject: %w", err)
		}
		pe, pStr, err := enc.EncodeTerm(quad.Predicate)
		if err != nil {
			return nil, fmt.Errorf("bulkload: encoding predicate: %w", err)
		}
		oe, oStr, err := enc.EncodeTerm(quad.Object)
		if err != nil {
			return nil, fmt.Errorf("bulkload: encoding object: %w", err)
		}
		ge, gStr, err := enc.EncodeTerm(quad.Graph)
		if err != nil {
			return nil, fmt.Errorf("bulkload: encoding graph: %w", err)
		}

		for _, pair := range []struct {
			enc encoding.EncodedTerm
			str *string
		}{{se, sStr}, {pe, pStr}, {oe, oStr}, {ge, gStr}} {
			if pair.str == nil {
				continue
			}
			key := string(pair.enc.HashKey())
			if seenDict[key] {
				continue
			}
			seenDict[key] = true
			out = append(out, kv.SSTEntry{CF: kv.CFID2Str, Key: pair.enc.HashKey(), Value: []byte(*pair.str)})
		}

		spogKey := encoding.EncodeQuadKey(se, pe, oe, ge)
		if !seenNamed[string(spogKey)] {
			seenNamed[string(spogKey)] = true
			out = append(out,
				kv.SSTEntry{CF: kv.CFSPOG, Key: spogKey},
				kv.SSTEntry{CF: kv.CFPOSG, Key: encoding.EncodeQuadKey(pe, oe, se, ge)},
				kv.SSTEntry{CF: kv.CFOSPG, Key: encoding.EncodeQuadKey(oe, se, pe, ge)},
				kv.SSTEntry{CF: kv.CFGSPO, Key: encoding.EncodeQuadKey(ge, se, pe, oe)},
				kv.SSTEntry{CF: kv.CFGPOS, Key: encoding.EncodeQuadKey(ge, pe, oe, se)},
				kv.SSTEntry{CF: kv.CFGOSP, Key: encoding.EncodeQuadKey(ge, oe, se, pe)},
			)
		}

		if quad.Graph.Type() == rdf.TermTypeDefaultGraph {
			spoKey := encoding.EncodeQuadKey(se, pe, oe)
			if !seenDefault[string(spoKey)] {
				seenDefault[string(spoKey)] = true
				out = append(out,
					kv.SSTEntry{CF: kv.CFSPO, Key: spoKey},
					kv.SSTEntry{CF: kv.CFPOS, Key: encoding.EncodeQuadKey(pe, oe, se)},
					kv.SSTEntry{CF: kv.CFOSP, Key: encoding.EncodeQuadKey(oe, se, pe)},
				)
			}
		} else if !seenGraph[string(ge[:])] {
			seenGraph[string(ge[:])] = true
			out = append(out, kv.SSTEntry{CF: kv.CFGraphs, Key: ge[:]})
		}
	}
	return out, nil
}

// sortByCF sorts entries lexicographically within each column family,
// mirroring an SST builder's key-ordering requirement. Duplicate (cf,
// key) pairs across workers' chunks are left in place rather than
// deduplicated: every value here is empty, so the engine's set semantics
// make a duplicate key harmless.
func sortByCF(entries []kv.SSTEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CF != entries[j].CF {
			return entries[i].CF < entries[j].CF
		}
		return string(entries[i].Key) < string(entries[j].Key)
	})
}
