// Package rdfio wraps the format-specific parsers in pkg/rdf with the
// three input surfaces operations in this module are expected to offer:
// a blocking reader, a one-shot slice, and a context-aware async reader.
package rdfio

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/aleksaelezovic/trigo/pkg/rdf"
)

// Format names a concrete RDF syntax this package can parse.
type Format string

const (
	FormatNTriples Format = "application/n-triples"
	FormatNQuads   Format = "application/n-quads"
	FormatTurtle   Format = "text/turtle"
	FormatTriG     Format = "application/trig"
	FormatJSONLD   Format = "application/ld+json"
	FormatRDFXML   Format = "application/rdf+xml"
)

// Parser reads one full document and decodes it into quads. The
// underlying rdf.RDFParser implementations buffer a document before
// decoding it, so ForReader and ForSlice both resolve to the same call;
// they are kept distinct because callers reason about them differently
// (a long-lived connection vs. an in-memory buffer already held).
type Parser struct {
	format Format
	inner  rdf.RDFParser
	reader io.Reader
}

// ForReader builds a parser that will consume r to EOF and decode it as format.
func ForReader(format Format, r io.Reader) (*Parser, error) {
	inner, err := rdf.NewParser(string(format))
	if err != nil {
		return nil, err
	}
	return &Parser{format: format, inner: inner, reader: r}, nil
}

// ForSlice builds a parser over an in-memory buffer.
func ForSlice(format Format, b []byte) (*Parser, error) {
	return ForReader(format, bufio.NewReader(newSliceReader(b)))
}

// Parse consumes the configured input and returns all decoded quads.
func (p *Parser) Parse() ([]*rdf.Quad, error) {
	quads, err := p.inner.Parse(p.reader)
	if err != nil {
		return nil, fmt.Errorf("rdfio: parsing %s: %w", p.format, err)
	}
	return quads, nil
}

// Prefixes returns the prefix -> IRI map the document declared, reflecting
// state as of the end of the last Parse call. Formats with no prefix
// syntax (N-Triples, N-Quads, RDF/XML, JSON-LD) report an empty map.
func (p *Parser) Prefixes() map[string]string {
	if pa, ok := p.inner.(rdf.PrefixAware); ok {
		return pa.Prefixes()
	}
	return map[string]string{}
}

// BaseIRI returns the base IRI in effect at the end of the last Parse
// call, or "" for formats without base-IRI syntax or if none was set.
func (p *Parser) BaseIRI() string {
	if pa, ok := p.inner.(rdf.PrefixAware); ok {
		return pa.BaseIRI()
	}
	return ""
}

// AsyncParser streams decoded quads over a channel, pumped from a
// goroutine reading from the wrapped io.Reader. It is the idiomatic Go
// analogue of a cooperative async parser: there is no mid-document
// suspension point beyond the underlying Read, so the goroutine parses
// eagerly and forwards results, honoring ctx cancellation between quads.
type AsyncParser struct {
	format Format
	reader io.Reader
}

// ForAsyncReader builds a parser that streams results over a channel.
func ForAsyncReader(format Format, r io.Reader) *AsyncParser {
	return &AsyncParser{format: format, reader: r}
}

// Quads starts parsing in a background goroutine and returns a channel of
// results. The channel is closed after the final quad or the first error.
// A send of a non-nil error is always the last value on the channel.
func (a *AsyncParser) Quads(ctx context.Context) <-chan QuadOrError {
	out := make(chan QuadOrError, 64)
	go func() {
		defer close(out)
		p, err := ForReader(a.format, a.reader)
		if err != nil {
			select {
			case out <- QuadOrError{Err: err}:
			case <-ctx.Done():
			}
			return
		}
		quads, err := p.Parse()
		if err != nil {
			select {
			case out <- QuadOrError{Err: err}:
			case <-ctx.Done():
			}
			return
		}
		for _, q := range quads {
			select {
			case out <- QuadOrError{Quad: q}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// QuadOrError is one element of an AsyncParser result stream.
type QuadOrError struct {
	Quad *rdf.Quad
	Err  error
}

type sliceReader struct {
	b   []byte
	pos int
}

func newSliceReader(b []byte) *sliceReader { return &sliceReader{b: b} }

func (s *sliceReader) Read(p []byte) (int, error) {
	if s.pos >= len(s.b) {
		return 0, io.EOF
	}
	n := copy(p, s.b[s.pos:])
	s.pos += n
	return n, nil
}
