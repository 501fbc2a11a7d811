package xsd

import "testing"

func TestIntegerArithmetic(t *testing.T) {
	a := NewInteger(7)
	b := NewInteger(2)

	if got := a.Add(b).String(); got != "9" {
		t.Errorf("Add: got %s, want 9", got)
	}
	if got := a.Sub(b).String(); got != "5" {
		t.Errorf("Sub: got %s, want 5", got)
	}
	if got := a.Mul(b).String(); got != "14" {
		t.Errorf("Mul: got %s, want 14", got)
	}

	quotient, ok := a.Div(b)
	if !ok {
		t.Fatalf("Div: expected ok")
	}
	if got := quotient.String(); got != "3.5" {
		t.Errorf("Div: got %s, want 3.5", got)
	}

	if _, ok := a.Div(NewInteger(0)); ok {
		t.Errorf("Div by zero should report not ok")
	}
}

func TestParseIntegerRejectsNonInteger(t *testing.T) {
	if _, ok := ParseInteger("3.5"); ok {
		t.Errorf("expected ParseInteger to reject a decimal lexical form")
	}
	v, ok := ParseInteger("  42 ")
	if !ok || v.String() != "42" {
		t.Errorf("expected to parse surrounding whitespace, got %v %v", v, ok)
	}
}

func TestDecimalCanonicalStringAlwaysHasDecimalPoint(t *testing.T) {
	d, ok := ParseDecimal("5")
	if !ok {
		t.Fatalf("ParseDecimal failed")
	}
	if got := d.String(); got != "5.0" {
		t.Errorf("got %s, want 5.0", got)
	}
}

func TestDecimalDivisionByZero(t *testing.T) {
	a := NewDecimalFromFloat(1)
	zero := NewDecimalFromFloat(0)
	if _, ok := a.Div(zero); ok {
		t.Errorf("expected division by zero to report not ok")
	}
}

func TestDoubleCanonicalLexicalForms(t *testing.T) {
	cases := map[string]string{
		"INF":  "INF",
		"-INF": "-INF",
		"NaN":  "NaN",
	}
	for input, want := range cases {
		v, ok := ParseDouble(input)
		if !ok {
			t.Fatalf("ParseDouble(%q) failed", input)
		}
		if got := v.String(); got != want {
			t.Errorf("ParseDouble(%q).String() = %s, want %s", input, got, want)
		}
	}
}

func TestBooleanCanonicalForms(t *testing.T) {
	for _, lexical := range []string{"true", "1"} {
		v, ok := ParseBoolean(lexical)
		if !ok || !bool(v) {
			t.Errorf("ParseBoolean(%q) should yield true", lexical)
		}
		if v.String() != "true" {
			t.Errorf("Boolean(true).String() = %s, want true", v.String())
		}
	}
	if _, ok := ParseBoolean("yes"); ok {
		t.Errorf("expected ParseBoolean to reject a string outside the xsd:boolean lexical space")
	}
}

func TestCanonicalizeJSONNumber(t *testing.T) {
	cases := []struct {
		lexical      string
		alwaysDouble bool
		wantKind     JSONNumberKind
		wantLexical  string
	}{
		{"12", false, JSONNumberInteger, "12"},
		{"-12", false, JSONNumberInteger, "-12"},
		{"1", true, JSONNumberDouble, "1.0E0"},
		{"+1", true, JSONNumberDouble, "1.0E0"},
		{"-1", true, JSONNumberDouble, "-1.0E0"},
		{"12", true, JSONNumberDouble, "1.2E1"},
		{"-12", true, JSONNumberDouble, "-1.2E1"},
		{"12.3456E3", false, JSONNumberDouble, "1.23456E4"},
		{"12.3456e3", false, JSONNumberDouble, "1.23456E4"},
		{"-12.3456E3", false, JSONNumberDouble, "-1.23456E4"},
		{"12.34E-3", false, JSONNumberDouble, "1.234E-2"},
		{"12.340E-3", false, JSONNumberDouble, "1.234E-2"},
		{"0.01234E-1", false, JSONNumberDouble, "1.234E-3"},
		{"1.0", false, JSONNumberInteger, "1"},
		{"1.0E0", false, JSONNumberInteger, "1"},
		{"0.01E2", false, JSONNumberInteger, "1"},
		{"1E2", false, JSONNumberInteger, "100"},
		{"1E21", false, JSONNumberDouble, "1.0E21"},
		{"0", false, JSONNumberInteger, "0"},
		{"0", true, JSONNumberDouble, "0.0E0"},
		{"-0", true, JSONNumberDouble, "-0.0E0"},
		{"0E-10", true, JSONNumberDouble, "0.0E0"},
	}
	for _, c := range cases {
		got, ok := CanonicalizeJSONNumber(c.lexical, c.alwaysDouble)
		if !ok {
			t.Errorf("CanonicalizeJSONNumber(%q, %v): expected ok", c.lexical, c.alwaysDouble)
			continue
		}
		if got.Kind != c.wantKind || got.Lexical != c.wantLexical {
			t.Errorf("CanonicalizeJSONNumber(%q, %v) = %v %q, want %v %q",
				c.lexical, c.alwaysDouble, got.Kind, got.Lexical, c.wantKind, c.wantLexical)
		}
	}
}

func TestCanonicalizeJSONNumberRejectsMalformedLexical(t *testing.T) {
	if _, ok := CanonicalizeJSONNumber("", false); ok {
		t.Errorf("expected empty lexical to be rejected")
	}
	if _, ok := CanonicalizeJSONNumber("1E", false); ok {
		t.Errorf("expected malformed exponent to be rejected")
	}
}
