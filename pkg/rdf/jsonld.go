package rdf

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	ld "github.com/piprate/json-gold/ld"

	"github.com/aleksaelezovic/trigo/pkg/rdf/xsd"
)

// JSONLDParser parses JSON-LD documents into quads.
//
// Expansion (context resolution, @id/@type coercion, @list/@set/@graph
// handling) is delegated to the JSON-LD 1.1 processor; this type only
// walks the already-expanded node-object form and turns it into quads,
// since that walk is the part specific to our term/quad representation.
type JSONLDParser struct {
	proc *ld.JsonLdProcessor
	opts *ld.JsonLdOptions
}

// NewJSONLDParser creates a new JSON-LD parser.
func NewJSONLDParser() *JSONLDParser {
	return &JSONLDParser{
		proc: ld.NewJsonLdProcessor(),
		opts: ld.NewJsonLdOptions(""),
	}
}

func (p *JSONLDParser) ContentType() string { return "application/ld+json" }

// Parse parses JSON-LD and returns quads. A node object carrying @graph
// places its @graph entries in a graph named by that node (its @id, or a
// fresh blank node). A top-level object holding only @context and @graph
// is unwrapped by expansion, so its entries land in the default graph,
// as does anything else.
func (p *JSONLDParser) Parse(reader io.Reader) ([]*Quad, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("error reading JSON-LD: %w", err)
	}

	doc, err := ld.DocumentFromReader(strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("error parsing JSON-LD document: %w", err)
	}

	expanded, err := p.proc.Expand(doc, p.opts)
	if err != nil {
		return nil, fmt.Errorf("error expanding JSON-LD: %w", err)
	}

	c := &jsonldConverter{blankPrefix: "b"}
	for _, node := range expanded {
		obj, ok := node.(map[string]interface{})
		if !ok {
			continue
		}
		if _, err := c.convertNode(obj, NewDefaultGraph()); err != nil {
			return nil, err
		}
	}
	return c.quads, nil
}

type jsonldConverter struct {
	quads       []*Quad
	blankPrefix string
	counter     int
}

func (c *jsonldConverter) freshBlank() *BlankNode {
	c.counter++
	return NewBlankNode(fmt.Sprintf("%s%d", c.blankPrefix, c.counter))
}

// convertNode converts one expanded JSON-LD node object into quads placed
// in the given graph, returning the term used to reference the node.
func (c *jsonldConverter) convertNode(obj map[string]interface{}, graph Term) (Term, error) {
	var subject Term
	if idVal, ok := obj["@id"].(string); ok && idVal != "" {
		subject = NewNamedNode(idVal)
	} else {
		subject = c.freshBlank()
	}

	// Keep iteration order stable (expanded keys are IRIs or @keywords).
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		switch key {
		case "@id":
			continue
		case "@type":
			types, _ := obj[key].([]interface{})
			for _, t := range types {
				if ts, ok := t.(string); ok {
					c.emit(subject, NewNamedNode(rdfTypeIRI), NewNamedNode(ts), graph)
				}
			}
		case "@graph":
			items, _ := obj[key].([]interface{})
			namedGraph := subject
			for _, item := range items {
				if nodeObj, ok := item.(map[string]interface{}); ok {
					if _, err := c.convertNode(nodeObj, namedGraph); err != nil {
						return nil, err
					}
				}
			}
		default:
			if strings.HasPrefix(key, "@") {
				continue
			}
			items, _ := obj[key].([]interface{})
			for _, item := range items {
				obj, err := c.convertValue(item, graph)
				if err != nil {
					return nil, err
				}
				if obj != nil {
					c.emit(subject, NewNamedNode(key), obj, graph)
				}
			}
		}
	}

	return subject, nil
}

func (c *jsonldConverter) convertValue(item interface{}, graph Term) (Term, error) {
	m, ok := item.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected expanded JSON-LD value: %T", item)
	}

	if list, ok := m["@list"].([]interface{}); ok {
		return c.convertList(list, graph)
	}

	if raw, ok := m["@value"]; ok {
		value := fmt.Sprintf("%v", raw)
		if lang, ok := m["@language"].(string); ok {
			return NewLiteralWithLanguage(value, lang), nil
		}
		if dt, ok := m["@type"].(string); ok {
			return NewLiteralWithDatatype(value, NewNamedNode(dt)), nil
		}
		switch v := raw.(type) {
		case bool:
			return NewLiteralWithDatatype(value, XSDBoolean), nil
		case float64:
			// The JSON decoder has already collapsed the document's
			// lexical form into a float64, so what we canonicalize is
			// the shortest round-tripping re-rendering of that value
			// rather than the author's original digits (e.g. "1.0" and
			// "1" are indistinguishable by the time we see them). That
			// still lands on the right xsd:integer/xsd:double split and
			// canonical form for the value itself.
			canon, ok := xsd.CanonicalizeJSONNumber(strconv.FormatFloat(v, 'g', -1, 64), false)
			if !ok {
				return NewLiteralWithDatatype(value, XSDDouble), nil
			}
			if canon.Kind == xsd.JSONNumberInteger {
				return NewLiteralWithDatatype(canon.Lexical, XSDInteger), nil
			}
			return NewLiteralWithDatatype(canon.Lexical, XSDDouble), nil
		}
		return NewLiteralWithDatatype(value, XSDString), nil
	}

	// Nested node object.
	return c.convertNode(m, graph)
}

// convertList materialises an rdf:first/rdf:rest chain for @list.
func (c *jsonldConverter) convertList(items []interface{}, graph Term) (Term, error) {
	if len(items) == 0 {
		return NewNamedNode(rdfNilIRI), nil
	}

	head := c.freshBlank()
	node := Term(head)
	for i, item := range items {
		value, err := c.convertValue(item, graph)
		if err != nil {
			return nil, err
		}
		c.emit(node, NewNamedNode(rdfFirstIRI), value, graph)
		if i == len(items)-1 {
			c.emit(node, NewNamedNode(rdfRestIRI), NewNamedNode(rdfNilIRI), graph)
		} else {
			next := c.freshBlank()
			c.emit(node, NewNamedNode(rdfRestIRI), next, graph)
			node = next
		}
	}
	return head, nil
}

func (c *jsonldConverter) emit(s, p, o, g Term) {
	c.quads = append(c.quads, NewQuad(s, p, o, g))
}

const (
	rdfTypeIRI  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	rdfFirstIRI = "http://www.w3.org/1999/02/22-rdf-syntax-ns#first"
	rdfRestIRI  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#rest"
	rdfNilIRI   = "http://www.w3.org/1999/02/22-rdf-syntax-ns#nil"
)
