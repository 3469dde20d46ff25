package query

import (
	"maps"
	"slices"
)

// QueryKind identifies the type of statement a descriptor compiles to.
type QueryKind string

const (
	SelectQuery QueryKind = "select"
	InsertQuery QueryKind = "insert"
	UpdateQuery QueryKind = "update"
	DeleteQuery QueryKind = "delete"
)

// AST is the immutable query descriptor. Every operation in this module
// that changes a query returns a fresh *AST from Clone and leaves the
// receiver untouched.
type AST struct {
	Kind QueryKind

	// RawSQL, when set, replaces every structured clause.
	RawSQL *RawSQL

	With       []CTE
	Distinct   bool
	DistinctOn []Expr
	Columns    []Expr // nil selects *
	From       []Expr
	Joins      []JoinClause
	Where      Expr
	Group      []Expr
	Having     Expr
	Compounds  []Compound
	Order      []Expr
	Limit      *int
	Offset     *int
	Lock       LockMode

	// Graph holds result-splitting metadata for graphed joins.
	Graph *GraphMeta

	// Binds supplies values for Placeholder nodes.
	Binds map[string]any

	// JoinCounter numbers synthetic tN aliases. It only ever grows.
	JoinCounter int

	// DML payloads
	Insert    *InsertPayload
	Set       []SetClause
	Returning []Expr
}

// QueryAST lets a descriptor be used wherever a Queryable is accepted.
func (a *AST) QueryAST() *AST { return a }

// RawSQL is a literal statement with positional "?" arguments.
type RawSQL struct {
	SQL  string
	Args []any
}

// CTE represents a Common Table Expression (WITH clause).
type CTE struct {
	Name      string
	Columns   []string
	Query     *AST
	Recursive bool
}

// CompoundOp is a set operation type.
type CompoundOp string

const (
	Union     CompoundOp = "UNION"
	Intersect CompoundOp = "INTERSECT"
	Except    CompoundOp = "EXCEPT"
)

// Compound is one set operation applied to the descriptor.
type Compound struct {
	Op    CompoundOp
	All   bool
	Query *AST
}

// JoinType represents the type of join.
type JoinType string

const (
	InnerJoin        JoinType = "INNER"
	LeftJoin         JoinType = "LEFT OUTER"
	RightJoin        JoinType = "RIGHT OUTER"
	FullJoin         JoinType = "FULL OUTER"
	CrossJoin        JoinType = "CROSS"
	NaturalJoin      JoinType = "NATURAL"
	NaturalLeftJoin  JoinType = "NATURAL LEFT OUTER"
	NaturalRightJoin JoinType = "NATURAL RIGHT OUTER"
	NaturalFullJoin  JoinType = "NATURAL FULL OUTER"
)

// TakesCondition reports whether the join type requires ON or USING.
func (t JoinType) TakesCondition() bool {
	switch t {
	case CrossJoin, NaturalJoin, NaturalLeftJoin, NaturalRightJoin, NaturalFullJoin:
		return false
	}
	return true
}

// JoinClause represents a JOIN.
type JoinClause struct {
	Type  JoinType
	Table Expr
	Alias string
	On    Expr
	Using []string
}

// LockMode is a row-locking suffix. Values other than the named constants
// are emitted verbatim.
type LockMode string

const (
	LockNone   LockMode = ""
	ForUpdate  LockMode = "FOR UPDATE"
	ForShare   LockMode = "FOR SHARE"
	SkipLocked LockMode = "FOR UPDATE SKIP LOCKED"
)

// InsertPayload is the row source of an INSERT.
type InsertPayload struct {
	Columns       []Expr
	Rows          [][]any
	Select        *AST
	DefaultValues bool
}

// SetClause represents column = value in UPDATE.
type SetClause struct {
	Column Expr
	Value  any
}

// Clone returns a copy whose slices and maps can be modified without
// touching the receiver. Nodes themselves are shared; they are immutable.
func (a *AST) Clone() *AST {
	if a == nil {
		return &AST{Kind: SelectQuery}
	}
	c := *a
	c.With = cloneSlice(a.With)
	c.DistinctOn = cloneSlice(a.DistinctOn)
	c.Columns = cloneSlice(a.Columns)
	c.From = cloneSlice(a.From)
	c.Joins = cloneSlice(a.Joins)
	c.Group = cloneSlice(a.Group)
	c.Compounds = cloneSlice(a.Compounds)
	c.Order = cloneSlice(a.Order)
	c.Set = cloneSlice(a.Set)
	c.Returning = cloneSlice(a.Returning)
	if a.Binds != nil {
		c.Binds = maps.Clone(a.Binds)
	}
	if a.Graph != nil {
		c.Graph = a.Graph.Clone()
	}
	if a.Limit != nil {
		n := *a.Limit
		c.Limit = &n
	}
	if a.Offset != nil {
		n := *a.Offset
		c.Offset = &n
	}
	return &c
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

// PositionalAlias is the alias a bare sub-query at FROM position i is
// written with.
func PositionalAlias(i int) string { return syntheticAlias(i + 1) }

// fromAlias returns the alias FROM source i is visible under.
func (a *AST) fromAlias(i int) string {
	if alias := SourceAlias(a.From[i]); alias != "" {
		return alias
	}
	if _, ok := a.From[i].(Subquery); ok {
		return PositionalAlias(i)
	}
	return ""
}

// SourceAliases returns the aliases of every FROM source followed by every
// join, in order.
func (a *AST) SourceAliases() []string {
	out := make([]string, 0, len(a.From)+len(a.Joins))
	for i := range a.From {
		if alias := a.fromAlias(i); alias != "" {
			out = append(out, alias)
		}
	}
	for _, j := range a.Joins {
		out = append(out, j.Alias)
	}
	return out
}

// FirstSourceAlias returns the alias of the first FROM source, or "".
func (a *AST) FirstSourceAlias() string {
	if len(a.From) == 0 {
		return ""
	}
	return a.fromAlias(0)
}

// LastAlias returns the alias of the most recent join, falling back to the
// first source.
func (a *AST) LastAlias() string {
	if n := len(a.Joins); n > 0 {
		return a.Joins[n-1].Alias
	}
	return a.FirstSourceAlias()
}

// NextAlias advances the join counter to the next tN alias that no source
// of a already uses.
func (a *AST) NextAlias() string {
	used := a.SourceAliases()
	for _, cte := range a.With {
		used = append(used, cte.Name)
	}
	for {
		a.JoinCounter++
		if alias := syntheticAlias(a.JoinCounter); !slices.Contains(used, alias) {
			return alias
		}
	}
}

// FromSelf wraps the descriptor in a derived table aliased as alias, or the
// next synthetic alias when empty. Binds and graph metadata stay with the
// outer query.
func FromSelf(a *AST, alias string) *AST {
	inner := a.Clone()
	inner.Binds = nil
	inner.Graph = nil
	outer := &AST{Kind: SelectQuery, Binds: a.Binds, JoinCounter: a.JoinCounter}
	if alias == "" {
		alias = outer.NextAlias()
	}
	outer.From = []Expr{AliasedExpression{Expr: Subquery{Query: inner}, Alias: alias}}
	return outer
}

// IsSimpleSelect reports whether the descriptor has no clauses that would
// change its meaning when wrapped or combined.
func (a *AST) IsSimpleSelect() bool {
	return a.RawSQL == nil && len(a.Order) == 0 && a.Limit == nil &&
		a.Offset == nil && len(a.Compounds) == 0
}
