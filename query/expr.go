package query

import (
	"reflect"
	"strings"
	"time"
)

// Expr is the interface for all expression nodes in a query AST.
// Nodes are immutable values; composing them always builds a new parent.
type Expr interface {
	exprNode() // marker method to identify expression types
}

// Identifier is an unqualified column or table name.
type Identifier struct {
	Name string
}

func (Identifier) exprNode() {}

// QualifiedIdentifier is a name qualified by a table (or schema) alias.
type QualifiedIdentifier struct {
	Table string
	Name  string
}

func (QualifiedIdentifier) exprNode() {}

// AliasedExpression renders as "expr AS alias".
type AliasedExpression struct {
	Expr  Expr
	Alias string
}

func (AliasedExpression) exprNode() {}

// NullsOrder controls NULLS FIRST / NULLS LAST on an ordered expression.
type NullsOrder int

const (
	NullsDefault NullsOrder = iota
	NullsFirst
	NullsLast
)

// OrderedExpression is an ORDER BY item.
type OrderedExpression struct {
	Expr  Expr
	Desc  bool
	Nulls NullsOrder
}

func (OrderedExpression) exprNode() {}

// Invert flips the direction of the ordering, keeping the nulls placement.
func (o OrderedExpression) Invert() OrderedExpression {
	o.Desc = !o.Desc
	switch o.Nulls {
	case NullsFirst:
		o.Nulls = NullsLast
	case NullsLast:
		o.Nulls = NullsFirst
	}
	return o
}

// BooleanExpression is a predicate: AND/OR/NOT over predicates, or a
// comparison (=, <>, <, IS, IN, LIKE, ...) between two operands.
type BooleanExpression struct {
	Op   BoolOp
	Args []Expr
}

func (BooleanExpression) exprNode() {}

// ComplexExpression is an arithmetic, bitwise or string operation.
// A single argument renders the unary form of the operator.
type ComplexExpression struct {
	Op   ComplexOp
	Args []Expr
}

func (ComplexExpression) exprNode() {}

// Window is an OVER clause for a window function.
type Window struct {
	PartitionBy []Expr
	OrderBy     []Expr
}

// Function is a SQL function call. Star renders count(*)-style calls.
type Function struct {
	Name     string
	Args     []Expr
	Distinct bool
	Star     bool
	Over     *Window
}

func (Function) exprNode() {}

// PlaceholderLiteralString is a literal SQL template whose "?" markers (or
// ":name" markers when Named is set) are replaced by literalized arguments.
type PlaceholderLiteralString struct {
	Template string
	Args     []any
	Named    map[string]any
	Parens   bool
}

func (PlaceholderLiteralString) exprNode() {}

// Subscript renders an array access: expr[1, 2].
type Subscript struct {
	Expr    Expr
	Indexes []any
}

func (Subscript) exprNode() {}

// CaseWhen is one WHEN ... THEN ... branch.
type CaseWhen struct {
	Cond   Expr
	Result Expr
}

// CaseExpression renders CASE [subject] WHEN ... THEN ... ELSE ... END.
type CaseExpression struct {
	Subject Expr
	Whens   []CaseWhen
	Else    Expr
}

func (CaseExpression) exprNode() {}

// LiteralString is SQL text emitted verbatim.
type LiteralString string

func (LiteralString) exprNode() {}

// Placeholder is a named bind variable, filled in by a prepared statement call.
type Placeholder struct {
	Name string
}

func (Placeholder) exprNode() {}

// Value wraps a native Go value so it can sit in an expression tree.
type Value struct {
	V any
}

func (Value) exprNode() {}

// ValueList is a parenthesized list of values, used for row-value IN lists.
type ValueList struct {
	Values []any
}

func (ValueList) exprNode() {}

// Subquery embeds a nested query descriptor.
type Subquery struct {
	Query *AST
}

func (Subquery) exprNode() {}

// Cast renders CAST(expr AS type).
type Cast struct {
	Expr Expr
	Type string
}

func (Cast) exprNode() {}

// Star renders "*" or "table.*".
type Star struct {
	Table string
}

func (Star) exprNode() {}

// Compile-time checks that all expression types implement Expr.
var (
	_ Expr = Identifier{}
	_ Expr = QualifiedIdentifier{}
	_ Expr = AliasedExpression{}
	_ Expr = OrderedExpression{}
	_ Expr = BooleanExpression{}
	_ Expr = ComplexExpression{}
	_ Expr = Function{}
	_ Expr = PlaceholderLiteralString{}
	_ Expr = Subscript{}
	_ Expr = CaseExpression{}
	_ Expr = LiteralString("")
	_ Expr = Placeholder{}
	_ Expr = Value{}
	_ Expr = ValueList{}
	_ Expr = Subquery{}
	_ Expr = Cast{}
	_ Expr = Star{}
)

// Range is an inclusive (or end-exclusive) bound pair. It is only accepted
// as a predicate value, where it becomes lo <= col AND col <= hi.
type Range struct {
	Lo        any
	Hi        any
	Exclusive bool
}

// Date is a calendar date without a time of day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Queryable is implemented by anything that can be embedded as a subquery.
type Queryable interface {
	QueryAST() *AST
}

// =============================================================================
// Constructors
// =============================================================================

// I builds an unqualified identifier.
func I(name string) Identifier { return Identifier{Name: name} }

// Q builds a qualified identifier.
func Q(table, name string) QualifiedIdentifier {
	return QualifiedIdentifier{Table: table, Name: name}
}

// C parses a column reference string: "t.c" and "t__c" become qualified
// identifiers, "c___a" becomes an aliased expression, "*" and "t.*" become
// stars. Anything else is a plain identifier.
func C(name string) Expr {
	var alias string
	if i := strings.Index(name, "___"); i > 0 && i+3 < len(name) {
		name, alias = name[:i], name[i+3:]
	}
	var e Expr
	switch {
	case name == "*":
		e = Star{}
	case strings.HasSuffix(name, ".*"):
		e = Star{Table: strings.TrimSuffix(name, ".*")}
	case strings.Contains(name, "."):
		i := strings.LastIndex(name, ".")
		e = Q(name[:i], name[i+1:])
	case strings.Index(name, "__") > 0 && strings.Index(name, "__")+2 < len(name):
		i := strings.Index(name, "__")
		e = Q(name[:i], name[i+2:])
	default:
		e = I(name)
	}
	if alias != "" {
		return AliasedExpression{Expr: e, Alias: alias}
	}
	return e
}

// F builds a function call.
func F(name string, args ...any) Function {
	return Function{Name: name, Args: toExprs(args)}
}

// Count builds count(*).
func Count() Function { return Function{Name: "count", Star: true} }

// L builds a placeholder literal string with positional "?" arguments.
func L(template string, args ...any) PlaceholderLiteralString {
	return PlaceholderLiteralString{Template: template, Args: args}
}

// LNamed builds a placeholder literal string with ":name" arguments.
func LNamed(template string, args map[string]any) PlaceholderLiteralString {
	return PlaceholderLiteralString{Template: template, Named: args}
}

// Lit marks a string as verbatim SQL.
func Lit(sql string) LiteralString { return LiteralString(sql) }

// P builds a named bind placeholder.
func P(name string) Placeholder { return Placeholder{Name: name} }

// V wraps a native value.
func V(v any) Value { return Value{V: v} }

// SubqueryOf builds a subquery node from a descriptor or anything Queryable.
func SubqueryOf(q Queryable) Subquery { return Subquery{Query: q.QueryAST()} }

// CastTo builds CAST(v AS typ).
func CastTo(v any, typ string) Cast { return Cast{Expr: toExpr(v), Type: typ} }

// Case builds a CASE expression from condition/result pairs.
func Case(whens []CaseWhen, els any) CaseExpression {
	c := CaseExpression{Whens: whens}
	if els != nil {
		c.Else = toExpr(els)
	}
	return c
}

// When builds one CASE branch.
func When(cond, result any) CaseWhen {
	return CaseWhen{Cond: toExpr(cond), Result: toExpr(result)}
}

// As aliases any expression.
func As(e any, alias string) AliasedExpression {
	return AliasedExpression{Expr: toExpr(e), Alias: alias}
}

// Asc orders ascending.
func Asc(e any) OrderedExpression { return OrderedExpression{Expr: toExpr(e)} }

// Desc orders descending.
func Desc(e any) OrderedExpression { return OrderedExpression{Expr: toExpr(e), Desc: true} }

// Equal reports whether two expressions are structurally identical.
func Equal(a, b Expr) bool {
	return reflect.DeepEqual(a, b)
}

// ToExpr converts a Go value into an expression node: expressions are
// returned unchanged, descriptors become subqueries, everything else is
// wrapped in a Value.
func ToExpr(v any) Expr { return toExpr(v) }

func toExpr(v any) Expr {
	switch x := v.(type) {
	case Expr:
		return x
	case *AST:
		return Subquery{Query: x}
	case Queryable:
		return Subquery{Query: x.QueryAST()}
	default:
		return Value{V: v}
	}
}

func toExprs(vs []any) []Expr {
	if len(vs) == 0 {
		return nil
	}
	out := make([]Expr, len(vs))
	for i, v := range vs {
		out[i] = toExpr(v)
	}
	return out
}

// SourceAlias returns the name a FROM or JOIN source is referenced by.
func SourceAlias(e Expr) string {
	switch x := e.(type) {
	case Identifier:
		return x.Name
	case QualifiedIdentifier:
		return x.Name
	case AliasedExpression:
		return x.Alias
	case LiteralString:
		return string(x)
	}
	return ""
}
