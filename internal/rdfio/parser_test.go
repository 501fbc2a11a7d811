package rdfio

import (
	"context"
	"strings"
	"testing"
)

func TestForReaderParsesNTriples(t *testing.T) {
	input := `<http://example.org/s> <http://example.org/p> <http://example.org/o> .
`
	p, err := ForReader(FormatNTriples, strings.NewReader(input))
	if err != nil {
		t.Fatalf("ForReader: %v", err)
	}
	quads, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(quads) != 1 {
		t.Fatalf("expected 1 quad, got %d", len(quads))
	}
}

func TestForSliceParsesNQuads(t *testing.T) {
	input := []byte(`<http://example.org/s> <http://example.org/p> <http://example.org/o> <http://example.org/g> .
`)
	p, err := ForSlice(FormatNQuads, input)
	if err != nil {
		t.Fatalf("ForSlice: %v", err)
	}
	quads, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(quads) != 1 {
		t.Fatalf("expected 1 quad, got %d", len(quads))
	}
}

func TestAsyncParserStreamsQuadsAndRespectsCancellation(t *testing.T) {
	input := `<http://example.org/s1> <http://example.org/p> "1" .
<http://example.org/s2> <http://example.org/p> "2" .
`
	ap := ForAsyncReader(FormatNTriples, strings.NewReader(input))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	count := 0
	for res := range ap.Quads(ctx) {
		if res.Err != nil {
			t.Fatalf("unexpected error: %v", res.Err)
		}
		count++
	}
	if count != 2 {
		t.Fatalf("expected 2 quads, got %d", count)
	}
}

func TestTurtleParserExposesPrefixesAndBaseIRI(t *testing.T) {
	input := `@base <http://example.org/> .
@prefix foaf: <http://xmlns.com/foaf/0.1/> .
<alice> foaf:name "Alice" .
`
	p, err := ForReader(FormatTurtle, strings.NewReader(input))
	if err != nil {
		t.Fatalf("ForReader: %v", err)
	}
	if _, err := p.Parse(); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if got := p.BaseIRI(); got != "http://example.org/" {
		t.Fatalf("expected base IRI http://example.org/, got %q", got)
	}
	prefixes := p.Prefixes()
	if prefixes["foaf"] != "http://xmlns.com/foaf/0.1/" {
		t.Fatalf("expected foaf prefix to be recorded, got %v", prefixes)
	}
}

func TestNTriplesParserReportsNoPrefixes(t *testing.T) {
	p, err := ForReader(FormatNTriples, strings.NewReader(`<http://example.org/s> <http://example.org/p> "o" .`+"\n"))
	if err != nil {
		t.Fatalf("ForReader: %v", err)
	}
	if _, err := p.Parse(); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(p.Prefixes()) != 0 {
		t.Fatalf("expected no prefixes for N-Triples, got %v", p.Prefixes())
	}
	if p.BaseIRI() != "" {
		t.Fatalf("expected no base IRI for N-Triples, got %q", p.BaseIRI())
	}
}

func TestAsyncParserSurfacesParseError(t *testing.T) {
	ap := ForAsyncReader(FormatNTriples, strings.NewReader("not valid n-triples"))
	ctx := context.Background()

	var sawErr bool
	for res := range ap.Quads(ctx) {
		if res.Err != nil {
			sawErr = true
		}
	}
	if !sawErr {
		t.Fatalf("expected malformed input to surface a parse error")
	}
}
