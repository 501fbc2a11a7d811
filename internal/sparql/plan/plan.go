// Package plan lowers an algebra.Pattern tree into a physical operator
// tree. The BGP ordering heuristic, left-join safety analysis, and
// variable slotting are grounded on the structural shape of the teacher's
// internal/sparql/optimizer package, generalized to the additive
// bound/unbound cost rule and scoped-variable model the algebra package
// exposes.
package plan

import (
	"sort"

	"github.com/aleksaelezovic/trigo/internal/sparql/algebra"
)

// Op is one node of the physical plan.
type Op interface{ opNode() }

// Init produces exactly one empty row; the base case a left-deep pipeline
// of QuadPatternJoins is built on top of.
type Init struct{}

func (Init) opNode() {}

// QuadPatternJoin extends every row of Prev with the matches of Pattern,
// given the bindings already assigned in that row.
type QuadPatternJoin struct {
	Prev    Op
	Pattern algebra.TriplePattern
}

func (QuadPatternJoin) opNode() {}

// PathPatternJoin extends every row of Prev by evaluating a property path
// between Subject and Object.
type PathPatternJoin struct {
	Prev            Op
	Subject, Object algebra.PatternTerm
	Path            algebra.Path
}

func (PathPatternJoin) opNode() {}

// Join, LeftJoin, AntiJoin mirror algebra's Join/LeftJoin/Minus once both
// sides have been lowered to physical plans.
type Join struct{ Left, Right Op }

func (Join) opNode() {}

// LeftJoin is an OPTIONAL join. PossiblyUnbound names the variables the
// left-join-safety analysis found may be unbound in some output rows
// (those introduced strictly within Right, not shared with Left).
type LeftJoin struct {
	Left, Right     Op
	Expr            algebra.Expression
	PossiblyUnbound []string
}

func (LeftJoin) opNode() {}

// AntiJoin is MINUS: rows of Left compatible with some row of Right are
// dropped.
type AntiJoin struct{ Left, Right Op }

func (AntiJoin) opNode() {}

type Filter struct {
	Input Op
	Expr  algebra.Expression
}

func (Filter) opNode() {}

type Union struct{ Left, Right Op }

func (Union) opNode() {}

type Extend struct {
	Input Op
	Var   string
	Expr  algebra.Expression
}

func (Extend) opNode() {}

type Service struct {
	Input    Op
	Endpoint algebra.PatternTerm
	Silent   bool
}

func (Service) opNode() {}

type Aggregate struct {
	Input      Op
	GroupBy    []algebra.Expression
	GroupVars  []string
	Aggregates []algebra.AggregateExpr
}

func (Aggregate) opNode() {}

type Sort struct {
	Input      Op
	Conditions []algebra.OrderCondition
}

func (Sort) opNode() {}

type HashDeduplicate struct{ Input Op }

func (HashDeduplicate) opNode() {}

type Project struct {
	Input Op
	Vars  []string
}

func (Project) opNode() {}

type Skip struct {
	Input Op
	N     int
}

func (Skip) opNode() {}

type Limit struct {
	Input Op
	N     int
}

func (Limit) opNode() {}

type StaticBindings struct {
	Vars     []string
	Bindings [][]interface{}
}

func (StaticBindings) opNode() {}

// ---- Builder ----

// Builder lowers algebra.Pattern trees into Op trees, tracking variable
// slot assignment across nested scopes.
type Builder struct {
	slots    map[string]int
	nextSlot int
	parent   *Builder
}

// NewBuilder creates a top-level builder with an empty slot table.
func NewBuilder() *Builder {
	return &Builder{slots: make(map[string]int)}
}

// ChildScope returns a builder for a nested scope (e.g. the SELECT inside
// a GROUP BY's subquery), whose slot table starts fresh but can still
// translate an outer slot via ConvertVariableID.
func (b *Builder) ChildScope() *Builder {
	return &Builder{slots: make(map[string]int), parent: b}
}

// SlotFor assigns name its first-appearance integer slot, or returns the
// slot already assigned.
func (b *Builder) SlotFor(name string) int {
	if slot, ok := b.slots[name]; ok {
		return slot
	}
	slot := b.nextSlot
	b.nextSlot++
	b.slots[name] = slot
	return slot
}

// ConvertVariableID remaps a slot assigned in an ancestor scope's table
// into this scope's own table, assigning a fresh local slot the first
// time a given outer variable is seen.
func (b *Builder) ConvertVariableID(outerName string) int {
	return b.SlotFor(outerName)
}

// Build lowers pattern into a physical plan rooted below an Init.
func (b *Builder) Build(pattern algebra.Pattern) Op {
	return b.build(Init{}, pattern)
}

func (b *Builder) build(prev Op, pattern algebra.Pattern) Op {
	switch p := pattern.(type) {
	case *algebra.BGP:
		return b.buildBGP(prev, p)
	case *algebra.Join:
		left := b.build(prev, p.Left)
		right := b.build(Init{}, p.Right)
		return Join{Left: left, Right: right}
	case *algebra.LeftJoin:
		left := b.build(prev, p.Left)
		right := b.build(Init{}, p.Right)
		return LeftJoin{
			Left:            left,
			Right:           right,
			Expr:            p.Expr,
			PossiblyUnbound: possiblyUnboundVariables(p.Left, p.Right),
		}
	case *algebra.Union:
		return Union{Left: b.build(Init{}, p.Left), Right: b.build(Init{}, p.Right)}
	case *algebra.Minus:
		return AntiJoin{Left: b.build(prev, p.Left), Right: b.build(Init{}, p.Right)}
	case *algebra.Filter:
		return Filter{Input: b.build(prev, p.Input), Expr: p.Expr}
	case *algebra.Extend:
		b.SlotFor(p.Var)
		return Extend{Input: b.build(prev, p.Input), Var: p.Var, Expr: p.Expr}
	case *algebra.Graph:
		if p.Name.IsVariable() {
			b.SlotFor(p.Name.Variable)
		}
		return b.build(prev, p.Input)
	case *algebra.Service:
		return Service{Input: b.build(Init{}, p.Input), Endpoint: p.Endpoint, Silent: p.Silent}
	case *algebra.Group:
		for _, v := range p.ByVars {
			if v != "" {
				b.SlotFor(v)
			}
		}
		for _, a := range p.Aggregates {
			b.SlotFor(a.As)
		}
		return Aggregate{
			Input:      b.build(prev, p.Input),
			GroupBy:    p.By,
			GroupVars:  p.ByVars,
			Aggregates: p.Aggregates,
		}
	case *algebra.OrderBy:
		return Sort{Input: b.build(prev, p.Input), Conditions: p.Conditions}
	case *algebra.Project:
		for _, v := range p.Vars {
			b.SlotFor(v)
		}
		return Project{Input: b.build(prev, p.Input), Vars: p.Vars}
	case *algebra.Distinct:
		return HashDeduplicate{Input: b.build(prev, p.Input)}
	case *algebra.Reduced:
		return b.build(prev, p.Input) // reduction is a hint, not an obligation
	case *algebra.Slice:
		input := b.build(prev, p.Input)
		if p.Offset > 0 {
			input = Skip{Input: input, N: p.Offset}
		}
		if p.Length >= 0 {
			input = Limit{Input: input, N: p.Length}
		}
		return input
	case *algebra.Values:
		for _, v := range p.Vars {
			b.SlotFor(v)
		}
		return lowerValues(p)
	default:
		return prev
	}
}

func lowerValues(v *algebra.Values) StaticBindings {
	rows := make([][]interface{}, len(v.Bindings))
	for i, row := range v.Bindings {
		converted := make([]interface{}, len(row))
		for j, term := range row {
			converted[j] = term
		}
		rows[i] = converted
	}
	return StaticBindings{Vars: v.Vars, Bindings: rows}
}

// buildBGP orders the BGP's triples by the additive bound/unbound cost
// rule and chains them into a left-deep QuadPatternJoin pipeline, then
// appends any property path elements the same way.
func (b *Builder) buildBGP(prev Op, bgp *algebra.BGP) Op {
	assigned := make(map[string]bool)
	collectAssigned(prev, assigned)

	plan := prev
	for _, t := range orderByCost(bgp.Triples, assigned) {
		for _, v := range t.Variables() {
			b.SlotFor(v)
			assigned[v] = true
		}
		plan = QuadPatternJoin{Prev: plan, Pattern: t}
	}
	for _, p := range bgp.Paths {
		for _, v := range p.Variables() {
			b.SlotFor(v)
			assigned[v] = true
		}
		plan = PathPatternJoin{Prev: plan, Subject: p.Subject, Object: p.Object, Path: p.Path}
	}
	return plan
}

// collectAssigned walks a previously-built plan to recover which
// variables its rows already bind, so a BGP appended after e.g. a VALUES
// clause or another BGP starts its cost estimate from the right baseline.
func collectAssigned(op Op, out map[string]bool) {
	switch o := op.(type) {
	case QuadPatternJoin:
		collectAssigned(o.Prev, out)
		for _, v := range o.Pattern.Variables() {
			out[v] = true
		}
	case PathPatternJoin:
		collectAssigned(o.Prev, out)
		if o.Subject.IsVariable() {
			out[o.Subject.Variable] = true
		}
		if o.Object.IsVariable() {
			out[o.Object.Variable] = true
		}
	case Extend:
		collectAssigned(o.Input, out)
		out[o.Var] = true
	case Filter:
		collectAssigned(o.Input, out)
	case StaticBindings:
		for _, v := range o.Vars {
			out[v] = true
		}
	}
}

// cost computes a triple pattern's selection cost under assigned: a
// constant term, or a variable already assigned, contributes 1; a
// variable seen for the first time contributes 4.
func cost(t algebra.TriplePattern, assigned map[string]bool) int {
	total := 0
	for _, term := range []algebra.PatternTerm{t.Subject, t.Predicate, t.Object} {
		if !term.IsVariable() || assigned[term.Variable] {
			total += 1
		} else {
			total += 4
		}
	}
	return total
}

// orderByCost repeatedly picks the lowest-cost remaining pattern under
// the current assigned set, marks its variables assigned, and repeats —
// the same greedy selectivity ordering the teacher's optimizer performs,
// generalized from its multiplicative heuristic to the additive
// bound=1/unbound=4 rule and made order-sensitive to prior assignments.
func orderByCost(triples []algebra.TriplePattern, assigned map[string]bool) []algebra.TriplePattern {
	remaining := append([]algebra.TriplePattern(nil), triples...)
	assigned = cloneAssigned(assigned)
	ordered := make([]algebra.TriplePattern, 0, len(remaining))

	for len(remaining) > 0 {
		sort.SliceStable(remaining, func(i, j int) bool {
			return cost(remaining[i], assigned) < cost(remaining[j], assigned)
		})
		next := remaining[0]
		remaining = remaining[1:]
		for _, v := range next.Variables() {
			assigned[v] = true
		}
		ordered = append(ordered, next)
	}
	return ordered
}

func cloneAssigned(in map[string]bool) map[string]bool {
	out := make(map[string]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// possiblyUnboundVariables finds the variables of right that do not also
// appear in left: their binding depends entirely on the optional side, so
// they may be absent from an output row whenever the optional fails to
// match.
func possiblyUnboundVariables(left, right algebra.Pattern) []string {
	leftVars := make(map[string]bool)
	for _, v := range left.InScopeVariables() {
		leftVars[v] = true
	}
	var out []string
	for _, v := range right.InScopeVariables() {
		if !leftVars[v] {
			out = append(out, v)
		}
	}
	return out
}
