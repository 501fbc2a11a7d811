// Package algebra is the in-memory SPARQL algebra: an immutable tree of
// graph patterns, expressions, and property paths. It has no textual
// syntax of its own; a SPARQL grammar parser is an external collaborator
// that produces these trees, the same way the teacher's own
// internal/sparql/parser package fed its optimizer.
package algebra

import "github.com/aleksaelezovic/trigo/pkg/rdf"

// PatternTerm is one position of a triple/path pattern: either a bound
// rdf.Term or a variable referenced by name. Blank nodes appearing in a
// pattern are represented as variables named after the blank node's id,
// the same hack SPARQL engines use so join/projection logic never has to
// special-case them.
type PatternTerm struct {
	Constant rdf.Term
	Variable string
}

func Const(t rdf.Term) PatternTerm { return PatternTerm{Constant: t} }
func Var(name string) PatternTerm  { return PatternTerm{Variable: name} }

func (t PatternTerm) IsVariable() bool { return t.Constant == nil }

// TriplePattern is one BGP element: subject/predicate/object, each either
// bound or a variable.
type TriplePattern struct {
	Subject, Predicate, Object PatternTerm
}

// Variables returns the distinct variable names referenced by p, in
// subject/predicate/object order.
func (p TriplePattern) Variables() []string {
	var out []string
	for _, t := range []PatternTerm{p.Subject, p.Predicate, p.Object} {
		if t.IsVariable() {
			out = append(out, t.Variable)
		}
	}
	return dedupVars(out)
}

// Pattern is one node of the algebra tree.
type Pattern interface {
	patternNode()
	// InScopeVariables returns the variables that may appear bound in
	// this pattern's result rows, per SPARQL's variable scope rules.
	InScopeVariables() []string
}

func dedupVars(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range lists {
		for _, v := range l {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

// BGP is a basic graph pattern: a conjunction of triple/path patterns
// evaluated against one graph.
type BGP struct {
	Triples []TriplePattern
	Paths   []PathPattern
}

func (*BGP) patternNode() {}
func (b *BGP) InScopeVariables() []string {
	var lists [][]string
	for _, t := range b.Triples {
		lists = append(lists, t.Variables())
	}
	for _, p := range b.Paths {
		lists = append(lists, p.Variables())
	}
	return dedupVars(lists...)
}

// PathPattern is a triple pattern whose predicate position is a property
// path rather than a single predicate.
type PathPattern struct {
	Subject PatternTerm
	Path    Path
	Object  PatternTerm
}

func (p PathPattern) Variables() []string {
	var out []string
	if p.Subject.IsVariable() {
		out = append(out, p.Subject.Variable)
	}
	if p.Object.IsVariable() {
		out = append(out, p.Object.Variable)
	}
	return out
}

// Join is an inner join of two patterns sharing the same scope.
type Join struct{ Left, Right Pattern }

func (*Join) patternNode() {}
func (j *Join) InScopeVariables() []string {
	return dedupVars(j.Left.InScopeVariables(), j.Right.InScopeVariables())
}

// LeftJoin is OPTIONAL: every row from Left appears in the result, joined
// with Right's bindings when Expr holds and Right has a match.
type LeftJoin struct {
	Left, Right Pattern
	Expr        Expression // nil if the OPTIONAL carries no FILTER
}

func (*LeftJoin) patternNode() {}
func (j *LeftJoin) InScopeVariables() []string {
	return dedupVars(j.Left.InScopeVariables(), j.Right.InScopeVariables())
}

// Union is pattern alternation.
type Union struct{ Left, Right Pattern }

func (*Union) patternNode() {}
func (u *Union) InScopeVariables() []string {
	return dedupVars(u.Left.InScopeVariables(), u.Right.InScopeVariables())
}

// Minus removes rows from Left that are compatible with some row of Right
// (SPARQL set difference by shared-variable compatibility).
type Minus struct{ Left, Right Pattern }

func (*Minus) patternNode() {}
func (m *Minus) InScopeVariables() []string { return m.Left.InScopeVariables() }

// Filter restricts Input's rows to those for which Expr evaluates truthy.
type Filter struct {
	Input Pattern
	Expr  Expression
}

func (*Filter) patternNode() {}
func (f *Filter) InScopeVariables() []string { return f.Input.InScopeVariables() }

// Extend is BIND: adds Var, bound to Expr, to every row of Input.
type Extend struct {
	Input Pattern
	Var   string
	Expr  Expression
}

func (*Extend) patternNode() {}
func (e *Extend) InScopeVariables() []string {
	return dedupVars(e.Input.InScopeVariables(), []string{e.Var})
}

// Graph restricts Input to one named graph (or, if Name is a variable,
// binds that variable to the graph each matched row came from).
type Graph struct {
	Input Pattern
	Name  PatternTerm
}

func (*Graph) patternNode() {}
func (g *Graph) InScopeVariables() []string {
	if g.Name.IsVariable() {
		return dedupVars(g.Input.InScopeVariables(), []string{g.Name.Variable})
	}
	return g.Input.InScopeVariables()
}

// Service delegates Input to a remote SPARQL endpoint.
type Service struct {
	Input    Pattern
	Endpoint PatternTerm
	Silent   bool
}

func (*Service) patternNode() {}
func (s *Service) InScopeVariables() []string { return s.Input.InScopeVariables() }

// Group applies GROUP BY semantics: rows are partitioned by By, and each
// partition reduces to one row carrying the Aggregates' results.
type Group struct {
	Input      Pattern
	By         []Expression
	ByVars     []string // variable each grouping expression is bound to, "" if anonymous
	Aggregates []AggregateExpr
}

func (*Group) patternNode() {}
func (g *Group) InScopeVariables() []string {
	var vars []string
	for _, v := range g.ByVars {
		if v != "" {
			vars = append(vars, v)
		}
	}
	for _, a := range g.Aggregates {
		vars = append(vars, a.As)
	}
	return dedupVars(vars)
}

// OrderBy sorts Input's rows; it introduces no new variables.
type OrderBy struct {
	Input      Pattern
	Conditions []OrderCondition
}

type OrderCondition struct {
	Expr       Expression
	Descending bool
}

func (*OrderBy) patternNode() {}
func (o *OrderBy) InScopeVariables() []string { return o.Input.InScopeVariables() }

// Project narrows Input's rows down to Vars (SELECT's variable list).
type Project struct {
	Input Pattern
	Vars  []string
}

func (*Project) patternNode() {}
func (p *Project) InScopeVariables() []string { return p.Vars }

// Distinct removes duplicate rows.
type Distinct struct{ Input Pattern }

func (*Distinct) patternNode() {}
func (d *Distinct) InScopeVariables() []string { return d.Input.InScopeVariables() }

// Reduced permits (but does not require) duplicate elimination.
type Reduced struct{ Input Pattern }

func (*Reduced) patternNode() {}
func (r *Reduced) InScopeVariables() []string { return r.Input.InScopeVariables() }

// Slice applies OFFSET/LIMIT. A negative Length means "no limit".
type Slice struct {
	Input  Pattern
	Offset int
	Length int
}

func (*Slice) patternNode() {}
func (s *Slice) InScopeVariables() []string { return s.Input.InScopeVariables() }

// Values is the VALUES clause: a fixed table of bindings, some of which
// may be UNDEF (represented as a nil rdf.Term entry in its row; the
// column's name is the matching entry of Vars).
type Values struct {
	Vars     []string
	Bindings [][]rdf.Term // len(Bindings[i]) == len(Vars); nil entry == UNDEF
}

func (*Values) patternNode() {}
func (v *Values) InScopeVariables() []string { return v.Vars }

// Path is the property path ADT used by PathPattern.
type Path interface{ pathNode() }

type PredicatePath struct{ IRI rdf.Term }

func (PredicatePath) pathNode() {}

type ReversePath struct{ Inner Path }

func (ReversePath) pathNode() {}

type SequencePath struct{ A, B Path }

func (SequencePath) pathNode() {}

type AlternativePath struct{ A, B Path }

func (AlternativePath) pathNode() {}

type ZeroOrMorePath struct{ Inner Path }

func (ZeroOrMorePath) pathNode() {}

type OneOrMorePath struct{ Inner Path }

func (OneOrMorePath) pathNode() {}

type ZeroOrOnePath struct{ Inner Path }

func (ZeroOrOnePath) pathNode() {}

// NegatedPropertySet is `!(:a|:b|^:c)`: any predicate not in IRIs (forward
// members) nor whose inverse is in Reverse.
type NegatedPropertySet struct {
	IRIs    []rdf.Term
	Reverse []rdf.Term
}

func (NegatedPropertySet) pathNode() {}
