package rdf

import (
	"strings"
	"testing"
)

func TestJSONLDParser_SimpleObject(t *testing.T) {
	input := `{
  "@id": "http://example.org/alice",
  "http://example.org/name": "Alice"
}`

	parser := NewJSONLDParser()
	quads, err := parser.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(quads) != 1 {
		t.Fatalf("Expected 1 quad, got %d", len(quads))
	}

	quad := quads[0]
	if getIRI(quad.Subject) != "http://example.org/alice" {
		t.Errorf("Wrong subject: %s", getIRI(quad.Subject))
	}
	if getIRI(quad.Predicate) != "http://example.org/name" {
		t.Errorf("Wrong predicate: %s", getIRI(quad.Predicate))
	}

	literal, ok := quad.Object.(*Literal)
	if !ok {
		t.Fatalf("Expected literal object, got %T", quad.Object)
	}
	if literal.Value != "Alice" {
		t.Errorf("Expected value 'Alice', got '%s'", literal.Value)
	}
}

func TestJSONLDParser_WithContext(t *testing.T) {
	input := `{
  "@context": {
    "ex": "http://example.org/",
    "name": "ex:name",
    "age": "ex:age"
  },
  "@id": "http://example.org/alice",
  "name": "Alice",
  "age": 30
}`

	parser := NewJSONLDParser()
	quads, err := parser.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(quads) != 2 {
		t.Fatalf("Expected 2 quads, got %d", len(quads))
	}
}

func TestJSONLDParser_NamedGraph(t *testing.T) {
	input := `{
  "@context": {"ex": "http://example.org/"},
  "@graph": [
    {
      "@id": "ex:graph1",
      "@graph": [
        {"@id": "ex:alice", "ex:name": "Alice"}
      ]
    }
  ]
}`

	parser := NewJSONLDParser()
	quads, err := parser.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	foundNamed := false
	for _, q := range quads {
		if q.Graph.Type() != TermTypeDefaultGraph {
			foundNamed = true
		}
	}
	if !foundNamed {
		t.Errorf("expected at least one quad in a named graph, got %d quads all in default graph", len(quads))
	}
}

func TestJSONLDParser_List(t *testing.T) {
	input := `{
  "@context": {"ex": "http://example.org/"},
  "@id": "ex:alice",
  "ex:items": {"@list": ["a", "b", "c"]}
}`

	parser := NewJSONLDParser()
	quads, err := parser.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	firsts := 0
	for _, q := range quads {
		if getIRI(q.Predicate) == rdfFirstIRI {
			firsts++
		}
	}
	if firsts != 3 {
		t.Errorf("expected 3 rdf:first triples for a 3-element list, got %d", firsts)
	}
}

func TestJSONLDParser_NumberCanonicalization(t *testing.T) {
	input := `{
  "@context": {"ex": "http://example.org/"},
  "@id": "ex:alice",
  "ex:age": 30,
  "ex:balance": 12.5
}`

	parser := NewJSONLDParser()
	quads, err := parser.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	var age, balance *Literal
	for _, q := range quads {
		lit, ok := q.Object.(*Literal)
		if !ok {
			continue
		}
		switch getIRI(q.Predicate) {
		case "http://example.org/age":
			age = lit
		case "http://example.org/balance":
			balance = lit
		}
	}
	if age == nil {
		t.Fatalf("expected an ex:age literal")
	}
	if getIRI(age.Datatype) != XSDInteger.IRI || age.Value != "30" {
		t.Errorf("expected ex:age to be xsd:integer \"30\", got %q ^^%s", age.Value, getIRI(age.Datatype))
	}
	if balance == nil {
		t.Fatalf("expected an ex:balance literal")
	}
	if getIRI(balance.Datatype) != XSDDouble.IRI || balance.Value != "1.25E1" {
		t.Errorf("expected ex:balance to be xsd:double \"1.25E1\", got %q ^^%s", balance.Value, getIRI(balance.Datatype))
	}
}

func TestJSONLDParser_ContentType(t *testing.T) {
	parser := NewJSONLDParser()
	if parser.ContentType() != "application/ld+json" {
		t.Errorf("unexpected content type: %s", parser.ContentType())
	}
}
