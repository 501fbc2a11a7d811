package algebra

import (
	"reflect"
	"sort"
	"testing"

	"github.com/aleksaelezovic/trigo/pkg/rdf"
)

func sortedVars(vars []string) []string {
	out := append([]string(nil), vars...)
	sort.Strings(out)
	return out
}

func TestBGPInScopeVariables(t *testing.T) {
	bgp := &BGP{Triples: []TriplePattern{
		{Subject: Var("s"), Predicate: Const(rdf.NewNamedNode("http://example.org/p")), Object: Var("o")},
	}}
	got := sortedVars(bgp.InScopeVariables())
	want := []string{"o", "s"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestProjectRestrictsInScopeVariables(t *testing.T) {
	bgp := &BGP{Triples: []TriplePattern{
		{Subject: Var("s"), Predicate: Var("p"), Object: Var("o")},
	}}
	proj := &Project{Input: bgp, Vars: []string{"s"}}
	got := proj.InScopeVariables()
	if !reflect.DeepEqual(got, []string{"s"}) {
		t.Fatalf("got %v, want [s]", got)
	}
}

func TestExtendAddsItsVariableToScope(t *testing.T) {
	bgp := &BGP{Triples: []TriplePattern{
		{Subject: Var("s"), Predicate: Var("p"), Object: Var("o")},
	}}
	ext := &Extend{Input: bgp, Var: "computed", Expr: VarRef{Name: "o"}}
	got := sortedVars(ext.InScopeVariables())
	want := []string{"computed", "o", "s"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestGraphWithVariableNameAddsToScope(t *testing.T) {
	bgp := &BGP{}
	g := &Graph{Input: bgp, Name: Var("g")}
	got := g.InScopeVariables()
	if len(got) != 1 || got[0] != "g" {
		t.Fatalf("expected [g], got %v", got)
	}
}
