package plan

import (
	"testing"

	"github.com/aleksaelezovic/trigo/internal/sparql/algebra"
	"github.com/aleksaelezovic/trigo/pkg/rdf"
)

func TestOrderByCostPrefersFullyBoundPattern(t *testing.T) {
	bound := algebra.TriplePattern{
		Subject:   algebra.Const(rdf.NewNamedNode("http://example.org/a")),
		Predicate: algebra.Var("p"),
		Object:    algebra.Var("o"),
	}
	unbound := algebra.TriplePattern{
		Subject:   algebra.Var("x"),
		Predicate: algebra.Var("y"),
		Object:    algebra.Var("z"),
	}

	ordered := orderByCost([]algebra.TriplePattern{unbound, bound}, map[string]bool{})
	if ordered[0] != bound {
		t.Fatalf("expected the fully-bound-subject pattern to be ordered first")
	}
}

func TestOrderByCostUsesAssignedVariables(t *testing.T) {
	first := algebra.TriplePattern{
		Subject:   algebra.Const(rdf.NewNamedNode("http://example.org/a")),
		Predicate: algebra.Const(rdf.NewNamedNode("http://example.org/knows")),
		Object:    algebra.Var("friend"),
	}
	second := algebra.TriplePattern{
		Subject:   algebra.Var("friend"),
		Predicate: algebra.Const(rdf.NewNamedNode("http://example.org/name")),
		Object:    algebra.Var("name"),
	}
	third := algebra.TriplePattern{
		Subject:   algebra.Var("other"),
		Predicate: algebra.Var("pred"),
		Object:    algebra.Var("obj"),
	}

	ordered := orderByCost([]algebra.TriplePattern{third, second, first}, map[string]bool{})
	if ordered[0] != first {
		t.Fatalf("expected the all-constant-except-one pattern first, got %+v", ordered[0])
	}
	if ordered[1] != second {
		t.Fatalf("expected the pattern reusing 'friend' second (cost 1+1+4), got %+v", ordered[1])
	}
	if ordered[2] != third {
		t.Fatalf("expected the fully-unbound pattern last")
	}
}

func TestBuildBGPChainsQuadPatternJoins(t *testing.T) {
	bgp := &algebra.BGP{
		Triples: []algebra.TriplePattern{
			{Subject: algebra.Var("s"), Predicate: algebra.Const(rdf.NewNamedNode("http://example.org/p")), Object: algebra.Var("o")},
		},
	}
	b := NewBuilder()
	op := b.Build(bgp)

	qpj, ok := op.(QuadPatternJoin)
	if !ok {
		t.Fatalf("expected a QuadPatternJoin at the root, got %T", op)
	}
	if _, ok := qpj.Prev.(Init); !ok {
		t.Fatalf("expected the single triple's predecessor to be Init, got %T", qpj.Prev)
	}
}

func TestLeftJoinMarksRightOnlyVariablesPossiblyUnbound(t *testing.T) {
	left := &algebra.BGP{Triples: []algebra.TriplePattern{
		{Subject: algebra.Var("s"), Predicate: algebra.Const(rdf.NewNamedNode("http://example.org/name")), Object: algebra.Var("name")},
	}}
	right := &algebra.BGP{Triples: []algebra.TriplePattern{
		{Subject: algebra.Var("s"), Predicate: algebra.Const(rdf.NewNamedNode("http://example.org/email")), Object: algebra.Var("email")},
	}}
	lj := &algebra.LeftJoin{Left: left, Right: right}

	b := NewBuilder()
	op := b.Build(lj)

	planLJ, ok := op.(LeftJoin)
	if !ok {
		t.Fatalf("expected a LeftJoin, got %T", op)
	}
	if len(planLJ.PossiblyUnbound) != 1 || planLJ.PossiblyUnbound[0] != "email" {
		t.Fatalf("expected only 'email' to be flagged possibly-unbound, got %v", planLJ.PossiblyUnbound)
	}
}

func TestSliceAppliesSkipThenLimit(t *testing.T) {
	inner := &algebra.BGP{}
	slice := &algebra.Slice{Input: inner, Offset: 5, Length: 10}

	b := NewBuilder()
	op := b.Build(slice)

	limit, ok := op.(Limit)
	if !ok {
		t.Fatalf("expected outermost op to be Limit, got %T", op)
	}
	if limit.N != 10 {
		t.Fatalf("expected limit 10, got %d", limit.N)
	}
	skip, ok := limit.Input.(Skip)
	if !ok {
		t.Fatalf("expected Limit's input to be Skip, got %T", limit.Input)
	}
	if skip.N != 5 {
		t.Fatalf("expected skip 5, got %d", skip.N)
	}
}
