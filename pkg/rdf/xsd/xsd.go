// Package xsd implements the canonical value types used by SPARQL
// expression evaluation: xsd:integer (arbitrary precision), xsd:decimal
// (fixed point), xsd:float/xsd:double (IEEE754), and xsd:boolean. Integer
// and Decimal are unbounded, so their Add, Sub and Mul return a plain value
// and never overflow; Double arithmetic follows IEEE754, so an overflow
// yields ±INF. Div on each type reports a zero divisor as (zero value,
// false) rather than panicking, so the expression evaluator can surface it
// as an unbound result per SPARQL error-propagation rules.
package xsd

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Integer is an arbitrary-precision xsd:integer value.
type Integer struct{ v *big.Int }

func NewInteger(i int64) Integer { return Integer{big.NewInt(i)} }

func ParseInteger(s string) (Integer, bool) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return Integer{}, false
	}
	return Integer{v}, true
}

func (i Integer) String() string { return i.v.String() }
func (i Integer) BigInt() *big.Int { return new(big.Int).Set(i.v) }

func (i Integer) Add(o Integer) Integer { return Integer{new(big.Int).Add(i.v, o.v)} }
func (i Integer) Sub(o Integer) Integer { return Integer{new(big.Int).Sub(i.v, o.v)} }
func (i Integer) Mul(o Integer) Integer { return Integer{new(big.Int).Mul(i.v, o.v)} }

// Div performs xsd:integer division, returning xsd:decimal per SPARQL's
// numeric type promotion rules for "/" (division always promotes to
// decimal or double, never truncates like integer division would).
func (i Integer) Div(o Integer) (Decimal, bool) {
	if o.v.Sign() == 0 {
		return Decimal{}, false
	}
	return Decimal{decimal.NewFromBigInt(i.v, 0).Div(decimal.NewFromBigInt(o.v, 0))}, true
}

func (i Integer) Cmp(o Integer) int { return i.v.Cmp(o.v) }

// Decimal is a fixed-point xsd:decimal value, backed by shopspring/decimal.
type Decimal struct{ v decimal.Decimal }

func NewDecimalFromFloat(f float64) Decimal { return Decimal{decimal.NewFromFloat(f)} }

func ParseDecimal(s string) (Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Decimal{}, false
	}
	return Decimal{d}, true
}

func (d Decimal) String() string { return canonicalDecimalString(d.v) }

func (d Decimal) Add(o Decimal) Decimal { return Decimal{d.v.Add(o.v)} }
func (d Decimal) Sub(o Decimal) Decimal { return Decimal{d.v.Sub(o.v)} }
func (d Decimal) Mul(o Decimal) Decimal { return Decimal{d.v.Mul(o.v)} }

func (d Decimal) Div(o Decimal) (Decimal, bool) {
	if o.v.IsZero() {
		return Decimal{}, false
	}
	return Decimal{d.v.DivRound(o.v, 18)}, true
}

func (d Decimal) Cmp(o Decimal) int { return d.v.Cmp(o.v) }
func (d Decimal) Float64() float64  { f, _ := d.v.Float64(); return f }

// canonicalDecimalString always shows at least one fractional digit, per
// xsd:decimal's canonical lexical mapping.
func canonicalDecimalString(d decimal.Decimal) string {
	s := d.String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Double is an IEEE754 xsd:double/xsd:float value.
type Double float64

func ParseDouble(s string) (Double, bool) {
	s = strings.TrimSpace(s)
	switch s {
	case "INF", "+INF":
		return Double(math.Inf(1)), true
	case "-INF":
		return Double(math.Inf(-1)), true
	case "NaN":
		return Double(math.NaN()), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return Double(f), true
}

func (d Double) String() string {
	f := float64(d)
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0E0"
	}
	return s
}

func (d Double) Add(o Double) Double { return d + o }
func (d Double) Sub(o Double) Double { return d - o }
func (d Double) Mul(o Double) Double { return d * o }
func (d Double) Div(o Double) (Double, bool) {
	if o == 0 {
		return 0, false
	}
	return d / o, true
}

func (d Double) Cmp(o Double) int {
	switch {
	case float64(d) < float64(o):
		return -1
	case float64(d) > float64(o):
		return 1
	default:
		return 0
	}
}

// Boolean is an xsd:boolean value. ParseBoolean accepts the lexical forms
// true, false, 1 and 0; String writes the canonical true or false.
type Boolean bool

func ParseBoolean(s string) (Boolean, bool) {
	switch strings.TrimSpace(s) {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	}
	return false, false
}

func (b Boolean) String() string {
	if b {
		return "true"
	}
	return "false"
}

// JSONNumberKind tags the result of CanonicalizeJSONNumber: a JSON number
// lifted into RDF becomes either an xsd:integer or an xsd:double depending
// on its normalized exponent, per the JSON-LD number-to-RDF rule.
type JSONNumberKind int

const (
	JSONNumberInteger JSONNumberKind = iota
	JSONNumberDouble
)

// CanonicalJSONNumber is a canonicalized JSON number, tagged with the xsd
// datatype it should be lifted into and carrying that datatype's canonical
// lexical form.
type CanonicalJSONNumber struct {
	Kind    JSONNumberKind
	Lexical string
}

// CanonicalizeJSONNumber canonicalizes the lexical form of a JSON number
// (as matched by the JSON number grammar: optional sign, integer part,
// optional fraction, optional exponent) into either xsd:integer or
// xsd:double canonical form.
//
// When alwaysDouble is false, a number whose normalized exponent falls in
// [digitCount, 21) is free of a fractional part and is reported as
// xsd:integer; otherwise (including when alwaysDouble is true) it is
// reported as xsd:double in "d.dddEn" scientific form. This mirrors how a
// JSON-LD processor decides between xsd:integer and xsd:double when lifting
// a JSON number literal into RDF.
//
// Returns false if lexical does not match the JSON number grammar.
func CanonicalizeJSONNumber(lexical string, alwaysDouble bool) (CanonicalJSONNumber, bool) {
	value := lexical
	isNegative := false
	switch {
	case strings.HasPrefix(value, "-"):
		value = value[1:]
		isNegative = true
	case strings.HasPrefix(value, "+"):
		value = value[1:]
	}

	mantissa, expPart, hasExp := cutAny(value, "eE")
	exp := int64(0)
	if hasExp {
		parsed, err := strconv.ParseInt(expPart, 10, 64)
		if err != nil {
			return CanonicalJSONNumber{}, false
		}
		exp = parsed
	}

	integerPart, decimalPart, _ := strings.Cut(mantissa, ".")
	if integerPart == "" && decimalPart == "" {
		return CanonicalJSONNumber{}, false
	}
	if strings.Trim(integerPart, "0123456789") != "" || strings.Trim(decimalPart, "0123456789") != "" {
		return CanonicalJSONNumber{}, false
	}

	// Trim the zeros: leading zeros from the integer part, trailing zeros
	// from the decimal part. If the decimal part vanished entirely, any
	// trailing zeros left in the integer part are also insignificant, and
	// stripping them shifts the exponent right by one per digit removed.
	integerPart = strings.TrimLeft(integerPart, "0")
	decimalPart = strings.TrimRight(decimalPart, "0")
	if decimalPart == "" {
		for strings.HasSuffix(integerPart, "0") {
			integerPart = integerPart[:len(integerPart)-1]
			exp++
		}
	}
	if integerPart == "" {
		for strings.HasPrefix(decimalPart, "0") {
			decimalPart = decimalPart[1:]
			exp--
		}
	}

	// Shift into 0.XXXEyyy form: exp now counts the power of ten applied to
	// the full digit string read as an integer.
	exp += int64(len(integerPart))

	if integerPart == "" && decimalPart == "" {
		integerPart = "0"
		exp = 1
	}

	digitsCount := int64(len(integerPart) + len(decimalPart))

	var buf strings.Builder
	if isNegative {
		buf.WriteByte('-')
	}
	if !alwaysDouble && exp >= digitsCount && exp < 21 {
		buf.WriteString(integerPart)
		buf.WriteString(decimalPart)
		for i := int64(0); i < exp-digitsCount; i++ {
			buf.WriteByte('0')
		}
		return CanonicalJSONNumber{Kind: JSONNumberInteger, Lexical: buf.String()}, true
	}

	allDigits := integerPart + decimalPart
	buf.WriteByte(allDigits[0])
	buf.WriteByte('.')
	if digitsCount == 1 {
		buf.WriteByte('0')
	} else {
		buf.WriteString(allDigits[1:])
	}
	fmt.Fprintf(&buf, "E%d", exp-1)
	return CanonicalJSONNumber{Kind: JSONNumberDouble, Lexical: buf.String()}, true
}

// cutAny is strings.Cut generalized to a set of candidate separator bytes,
// used to split a JSON number's mantissa from its exponent regardless of
// whether "e" or "E" introduced it.
func cutAny(s, chars string) (before, after string, found bool) {
	if i := strings.IndexAny(s, chars); i >= 0 {
		return s[:i], s[i+1:], true
	}
	return s, "", false
}
