// Package encoding implements the fixed-layout term codec: every RDF
// term collapses to a 17-byte EncodedTerm (a one-byte type tag plus a
// 16-byte payload), either a 128-bit xxhash3 of the term's string form or,
// for the types small enough to fit, the native value itself. Quad keys
// are the concatenation of the four encoded positions, so lexicographic
// byte order on a key matches the natural memcmp ordering the index scans
// rely on.
package encoding

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/aleksaelezovic/trigo/pkg/rdf"
	"github.com/zeebo/xxh3"
)

const (
	// MaxInlineStringSize is the largest string literal value that is
	// stored inline in the encoded term rather than hashed into id2str.
	MaxInlineStringSize = 16

	// WrittenTermMaxSize is the on-disk size of every EncodedTerm: one
	// type byte plus a 16-byte payload.
	WrittenTermMaxSize = 17
)

// EncodedTerm is the fixed-size wire form of a Term used as a key
// component in every column family.
type EncodedTerm [WrittenTermMaxSize]byte

// Type extracts the term-type tag.
func (e EncodedTerm) Type() rdf.TermType { return rdf.TermType(e[0]) }

// NeedsStringLookup reports whether decoding e may require a companion
// id2str entry: true for IRIs, hashed blank nodes, lang/typed literals,
// quoted triples and non-empty string literals (an inline string and a
// hashed one share the same layout, so DecodeTerm tries id2str first);
// false for the empty string, numeric blank nodes and other terms whose
// value is packed directly into the payload.
func (e EncodedTerm) NeedsStringLookup() bool {
	switch e.Type() {
	case rdf.TermTypeNamedNode, rdf.TermTypeLangStringLiteral,
		rdf.TermTypeQuotedTriple, rdf.TermTypeTypedLiteral:
		return true
	case rdf.TermTypeBlankNode:
		return !e.payloadAllZeroFrom(9)
	case rdf.TermTypeStringLiteral:
		return !e.payloadAllZeroFrom(1)
	default:
		return false
	}
}

func (e EncodedTerm) isHashedString() bool {
	// Reports whether the whole payload is zero, which is how
	// encodeString writes the empty string. It does not tell an inline
	// string from a hashed one; DecodeTerm does that by looking the
	// payload up in id2str first and reading it as an inline string when
	// no entry exists.
	return e[1] == 0 && e.payloadAllZeroFrom(1)
}

func (e EncodedTerm) payloadAllZeroFrom(start int) bool {
	for i := start; i < WrittenTermMaxSize; i++ {
		if e[i] != 0 {
			return false
		}
	}
	return true
}

// HashKey is the 16-byte hash portion used to key the id2str table (the
// type byte is dropped, matching spec's "hash -> string" dictionary).
func (e EncodedTerm) HashKey() []byte { return e[1:] }

// Hash128 computes the big-endian 128-bit xxhash3 digest of s.
func Hash128(s string) [16]byte {
	h := xxh3.Hash128([]byte(s))
	var out [16]byte
	binary.BigEndian.PutUint64(out[0:8], h.Hi)
	binary.BigEndian.PutUint64(out[8:16], h.Lo)
	return out
}

// Encoder turns RDF terms into their fixed-size encoded form, reporting a
// companion string to persist in id2str when the term's value isn't fully
// recoverable from the encoding alone.
type Encoder struct{}

func NewEncoder() *Encoder { return &Encoder{} }

// EncodeTerm encodes term, returning the dictionary string to store (if
// any).
func (enc *Encoder) EncodeTerm(term rdf.Term) (EncodedTerm, *string, error) {
	var out EncodedTerm
	switch t := term.(type) {
	case *rdf.NamedNode:
		out[0] = byte(rdf.TermTypeNamedNode)
		h := Hash128(t.IRI)
		copy(out[1:], h[:])
		return out, &t.IRI, nil
	case *rdf.BlankNode:
		return enc.encodeBlankNode(t)
	case *rdf.Literal:
		return enc.encodeLiteral(t)
	case *rdf.DefaultGraph:
		out[0] = byte(rdf.TermTypeDefaultGraph)
		return out, nil, nil
	case *rdf.QuotedTriple:
		out[0] = byte(rdf.TermTypeQuotedTriple)
		serialized := t.String()
		h := Hash128(serialized)
		copy(out[1:], h[:])
		return out, &serialized, nil
	default:
		return out, nil, fmt.Errorf("encoding: unsupported term type %T", term)
	}
}

func (enc *Encoder) encodeBlankNode(b *rdf.BlankNode) (EncodedTerm, *string, error) {
	var out EncodedTerm
	out[0] = byte(rdf.TermTypeBlankNode)
	if num, err := strconv.ParseUint(b.ID, 10, 64); err == nil {
		binary.BigEndian.PutUint64(out[1:9], num)
		return out, nil, nil
	}
	h := Hash128(b.ID)
	copy(out[1:], h[:])
	return out, &b.ID, nil
}

func (enc *Encoder) encodeLiteral(lit *rdf.Literal) (EncodedTerm, *string, error) {
	if lit.Datatype != nil {
		switch lit.Datatype.IRI {
		case rdf.XSDInteger.IRI:
			return enc.encodeFixed(rdf.TermTypeIntegerLiteral, func(b []byte) error {
				v, err := strconv.ParseInt(lit.Value, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid xsd:integer %q: %w", lit.Value, err)
				}
				binary.BigEndian.PutUint64(b, uint64(v))
				return nil
			})
		case rdf.XSDDecimal.IRI:
			return enc.encodeFixed(rdf.TermTypeDecimalLiteral, func(b []byte) error {
				v, err := strconv.ParseFloat(lit.Value, 64)
				if err != nil {
					return fmt.Errorf("invalid xsd:decimal %q: %w", lit.Value, err)
				}
				binary.BigEndian.PutUint64(b, math.Float64bits(v))
				return nil
			})
		case rdf.XSDDouble.IRI:
			return enc.encodeFixed(rdf.TermTypeDoubleLiteral, func(b []byte) error {
				v, err := strconv.ParseFloat(lit.Value, 64)
				if err != nil {
					return fmt.Errorf("invalid xsd:double %q: %w", lit.Value, err)
				}
				binary.BigEndian.PutUint64(b, math.Float64bits(v))
				return nil
			})
		case rdf.XSDBoolean.IRI:
			var out EncodedTerm
			out[0] = byte(rdf.TermTypeBooleanLiteral)
			v, err := strconv.ParseBool(lit.Value)
			if err != nil {
				return out, nil, fmt.Errorf("invalid xsd:boolean %q: %w", lit.Value, err)
			}
			if v {
				out[1] = 1
			}
			return out, nil, nil
		case rdf.XSDDateTime.IRI:
			return enc.encodeDateTime(lit)
		case rdf.XSDDate.IRI:
			return enc.encodeDate(lit)
		default:
			return enc.encodeTypedLiteral(lit)
		}
	}
	if lit.Language != "" {
		return enc.encodeLangString(lit)
	}
	return enc.encodeString(lit)
}

func (enc *Encoder) encodeFixed(tt rdf.TermType, fill func([]byte) error) (EncodedTerm, *string, error) {
	var out EncodedTerm
	out[0] = byte(tt)
	if err := fill(out[1:9]); err != nil {
		return out, nil, err
	}
	return out, nil, nil
}

func (enc *Encoder) encodeString(lit *rdf.Literal) (EncodedTerm, *string, error) {
	var out EncodedTerm
	out[0] = byte(rdf.TermTypeStringLiteral)
	if len(lit.Value) <= MaxInlineStringSize && len(lit.Value) > 0 {
		copy(out[1:], []byte(lit.Value))
		return out, nil, nil
	}
	if lit.Value == "" {
		return out, nil, nil
	}
	h := Hash128(lit.Value)
	copy(out[1:], h[:])
	return out, &lit.Value, nil
}

func (enc *Encoder) encodeLangString(lit *rdf.Literal) (EncodedTerm, *string, error) {
	var out EncodedTerm
	out[0] = byte(rdf.TermTypeLangStringLiteral)
	combined := lit.Value + "@" + lit.Language
	if lit.Direction != "" {
		combined += "--" + lit.Direction
	}
	h := Hash128(combined)
	copy(out[1:], h[:])
	return out, &combined, nil
}

func (enc *Encoder) encodeTypedLiteral(lit *rdf.Literal) (EncodedTerm, *string, error) {
	var out EncodedTerm
	out[0] = byte(rdf.TermTypeTypedLiteral)
	combined := lit.Value + "^^" + lit.Datatype.IRI
	h := Hash128(combined)
	copy(out[1:], h[:])
	return out, &combined, nil
}

func (enc *Encoder) encodeDateTime(lit *rdf.Literal) (EncodedTerm, *string, error) {
	var out EncodedTerm
	out[0] = byte(rdf.TermTypeDateTimeLiteral)
	trimmed := strings.TrimSpace(lit.Value)
	t, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		t, err = time.Parse("2006-01-02T15:04:05", trimmed)
		if err != nil {
			return out, nil, fmt.Errorf("invalid xsd:dateTime %q: %w", lit.Value, err)
		}
		t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	}
	binary.BigEndian.PutUint64(out[1:9], uint64(t.UnixNano()))
	return out, nil, nil
}

func (enc *Encoder) encodeDate(lit *rdf.Literal) (EncodedTerm, *string, error) {
	var out EncodedTerm
	out[0] = byte(rdf.TermTypeDateLiteral)
	t, err := time.Parse("2006-01-02", strings.TrimSpace(lit.Value))
	if err != nil {
		return out, nil, fmt.Errorf("invalid xsd:date %q: %w", lit.Value, err)
	}
	days := t.Unix() / 86400
	binary.BigEndian.PutUint64(out[1:9], uint64(days))
	return out, nil, nil
}

// EncodeQuadKey concatenates the encoded positions of a quad/triple key
// for one column family, in that family's key order.
func EncodeQuadKey(terms ...EncodedTerm) []byte {
	out := make([]byte, 0, len(terms)*WrittenTermMaxSize)
	for _, t := range terms {
		out = append(out, t[:]...)
	}
	return out
}

// Decoder reconstructs RDF terms from their encoded form, consulting the
// id2str dictionary lookup function for hashed values.
type Decoder struct {
	// Lookup resolves a 16-byte hash key to its original string, as
	// stored in the id2str column family.
	Lookup func(hash []byte) (string, bool)
}

func NewDecoder(lookup func(hash []byte) (string, bool)) *Decoder {
	return &Decoder{Lookup: lookup}
}

// DecodeTerm reverses EncodeTerm.
func (d *Decoder) DecodeTerm(enc EncodedTerm) (rdf.Term, error) {
	switch enc.Type() {
	case rdf.TermTypeNamedNode:
		s, ok := d.Lookup(enc.HashKey())
		if !ok {
			return nil, fmt.Errorf("decoding: missing id2str entry for named node")
		}
		return rdf.NewNamedNode(s), nil

	case rdf.TermTypeBlankNode:
		if enc.payloadAllZeroFrom(9) {
			num := binary.BigEndian.Uint64(enc[1:9])
			return rdf.NewBlankNode(strconv.FormatUint(num, 10)), nil
		}
		s, ok := d.Lookup(enc.HashKey())
		if !ok {
			return nil, fmt.Errorf("decoding: missing id2str entry for blank node")
		}
		return rdf.NewBlankNode(s), nil

	case rdf.TermTypeStringLiteral:
		if enc.isHashedString() {
			return rdf.NewLiteral(""), nil
		}
		if s, ok := d.Lookup(enc.HashKey()); ok {
			return rdf.NewLiteral(s), nil
		}
		end := 1
		for end < WrittenTermMaxSize && enc[end] != 0 {
			end++
		}
		return rdf.NewLiteral(string(enc[1:end])), nil

	case rdf.TermTypeLangStringLiteral:
		s, ok := d.Lookup(enc.HashKey())
		if !ok {
			return nil, fmt.Errorf("decoding: missing id2str entry for lang string")
		}
		value, lang, direction := splitLangString(s)
		if direction != "" {
			return rdf.NewLiteralWithLanguageAndDirection(value, lang, direction), nil
		}
		return rdf.NewLiteralWithLanguage(value, lang), nil

	case rdf.TermTypeIntegerLiteral:
		v := int64(binary.BigEndian.Uint64(enc[1:9]))
		return rdf.NewIntegerLiteral(v), nil

	case rdf.TermTypeDecimalLiteral:
		v := math.Float64frombits(binary.BigEndian.Uint64(enc[1:9]))
		return rdf.NewDecimalLiteral(v), nil

	case rdf.TermTypeDoubleLiteral:
		v := math.Float64frombits(binary.BigEndian.Uint64(enc[1:9]))
		return rdf.NewDoubleLiteral(v), nil

	case rdf.TermTypeBooleanLiteral:
		return rdf.NewBooleanLiteral(enc[1] != 0), nil

	case rdf.TermTypeDateTimeLiteral:
		nanos := int64(binary.BigEndian.Uint64(enc[1:9]))
		return rdf.NewDateTimeLiteral(time.Unix(0, nanos).UTC()), nil

	case rdf.TermTypeDateLiteral:
		days := int64(binary.BigEndian.Uint64(enc[1:9]))
		t := time.Unix(days*86400, 0).UTC()
		return rdf.NewLiteralWithDatatype(t.Format("2006-01-02"), rdf.XSDDate), nil

	case rdf.TermTypeDefaultGraph:
		return rdf.NewDefaultGraph(), nil

	case rdf.TermTypeTypedLiteral:
		s, ok := d.Lookup(enc.HashKey())
		if !ok {
			return nil, fmt.Errorf("decoding: missing id2str entry for typed literal")
		}
		idx := strings.LastIndex(s, "^^")
		if idx < 0 {
			return nil, fmt.Errorf("decoding: malformed typed literal dictionary entry %q", s)
		}
		return rdf.NewLiteralWithDatatype(s[:idx], rdf.NewNamedNode(s[idx+2:])), nil

	case rdf.TermTypeQuotedTriple:
		return nil, fmt.Errorf("decoding: quoted triple terms are not reconstructed from id2str")

	default:
		return nil, fmt.Errorf("decoding: unknown term type %d", enc.Type())
	}
}

func splitLangString(s string) (value, lang, direction string) {
	if idx := strings.LastIndex(s, "--"); idx >= 0 {
		direction = s[idx+2:]
		s = s[:idx]
	}
	if idx := strings.LastIndex(s, "@"); idx >= 0 {
		return s[:idx], s[idx+1:], direction
	}
	return s, "", direction
}
