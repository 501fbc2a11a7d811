package algebra

import "github.com/aleksaelezovic/trigo/pkg/rdf"

// Expression is the SPARQL expression ADT: logical, numeric, comparison,
// IN, function call, EXISTS, BOUND, IF, COALESCE.
type Expression interface{ exprNode() }

// VarRef references a variable's current binding.
type VarRef struct{ Name string }

func (VarRef) exprNode() {}

// Literal is a constant term used directly in an expression.
type Literal struct{ Value rdf.Term }

func (Literal) exprNode() {}

// LogicalOp is && / ||.
type LogicalOp struct {
	Op          LogicalOperator
	Left, Right Expression
}

func (LogicalOp) exprNode() {}

type LogicalOperator int

const (
	LogicalAnd LogicalOperator = iota
	LogicalOr
)

// Not is unary !.
type Not struct{ Inner Expression }

func (Not) exprNode() {}

// Compare is one of = != < <= > >=.
type Compare struct {
	Op          CompareOperator
	Left, Right Expression
}

func (Compare) exprNode() {}

type CompareOperator int

const (
	CompareEQ CompareOperator = iota
	CompareNE
	CompareLT
	CompareLE
	CompareGT
	CompareGE
)

// Arithmetic is + - * /.
type Arithmetic struct {
	Op          ArithmeticOperator
	Left, Right Expression
}

func (Arithmetic) exprNode() {}

type ArithmeticOperator int

const (
	ArithAdd ArithmeticOperator = iota
	ArithSub
	ArithMul
	ArithDiv
)

// UnaryMinus negates a numeric expression.
type UnaryMinus struct{ Inner Expression }

func (UnaryMinus) exprNode() {}

// In is `expr IN (list...)`; Negated makes it NOT IN.
type In struct {
	Expr    Expression
	List    []Expression
	Negated bool
}

func (In) exprNode() {}

// Builtin enumerates the SPARQL built-in functions plus the XSD
// constructor casts, dispatched by a single FunctionCall node.
type Builtin int

const (
	FnStr Builtin = iota
	FnLang
	FnLangMatches
	FnDatatype
	FnBound
	FnIRI
	FnURI
	FnBNode
	FnRand
	FnAbs
	FnCeil
	FnFloor
	FnRound
	FnConcat
	FnStrLen
	FnUCase
	FnLCase
	FnEncodeForURI
	FnContains
	FnStrStarts
	FnStrEnds
	FnStrBefore
	FnStrAfter
	FnYear
	FnMonth
	FnDay
	FnHours
	FnMinutes
	FnSeconds
	FnTimezone
	FnTz
	FnNow
	FnUUID
	FnStrUUID
	FnMD5
	FnSHA1
	FnSHA256
	FnSHA384
	FnSHA512
	FnCoalesce
	FnIf
	FnStrLang
	FnStrDt
	FnSameTerm
	FnIsIRI
	FnIsURI
	FnIsBlank
	FnIsLiteral
	FnIsNumeric
	FnRegex
	FnSubstr
	FnReplace
	FnCastBoolean
	FnCastInteger
	FnCastDecimal
	FnCastFloat
	FnCastDouble
	FnCastDate
	FnCastTime
	FnCastDateTime
	FnCastDuration
	FnCastYearMonthDuration
	FnCastDayTimeDuration
	FnCastString
)

// FunctionCall invokes one of the Builtin functions with Args.
type FunctionCall struct {
	Function Builtin
	Args     []Expression
}

func (FunctionCall) exprNode() {}

// Exists is `[NOT] EXISTS { pattern }`.
type Exists struct {
	Pattern Pattern
	Negate  bool
}

func (Exists) exprNode() {}

// If is the three-argument IF() function.
type If struct{ Cond, Then, Else Expression }

func (If) exprNode() {}

// Coalesce returns the first argument that evaluates without error.
type Coalesce struct{ Args []Expression }

func (Coalesce) exprNode() {}

// AggregateFunc enumerates the SPARQL set functions.
type AggregateFunc int

const (
	AggCount AggregateFunc = iota
	AggSum
	AggAvg
	AggMin
	AggMax
	AggSample
	AggGroupConcat
)

// AggregateExpr is one aggregate in a GROUP BY's projection: COUNT, SUM,
// AVG, MIN, MAX, SAMPLE, or GROUP_CONCAT, each carrying a DISTINCT flag
// and, for GROUP_CONCAT, a separator (default " ").
type AggregateExpr struct {
	Func      AggregateFunc
	Arg       Expression // nil for COUNT(*)
	Distinct  bool
	Separator string // GROUP_CONCAT only
	As        string // variable the aggregate result is bound to
}

func DefaultGroupConcatSeparator() string { return " " }
