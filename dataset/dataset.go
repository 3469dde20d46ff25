// Package dataset is the immutable query façade: every mutator returns a
// new *Dataset and leaves the receiver untouched, and terminal methods
// compile the descriptor for the dataset's dialect and run it through a
// Database.
package dataset

import (
	"maps"

	"github.com/shipq/sequel/query"
	"github.com/shipq/sequel/query/compile"
)

// Dataset is an immutable query. The zero value is not usable; build one
// with New or NewWithDialect.
//
// Construction errors are sticky: once a mutator fails, every later
// mutator returns the failed dataset unchanged and every terminal method
// returns the original error.
type Dataset struct {
	db      Database
	dialect *compile.Dialect
	ast     *query.AST
	alias   string
	mode    BindMode
	err     error
}

// Row is one result row keyed by (output-folded) column name. Graphed
// datasets yield rows keyed by table alias whose values are map[string]any,
// or nil when an outer join found no match.
type Row map[string]any

// New returns a dataset selecting from tables on db. db may be nil for
// SQL-only use, in which case the default dialect applies.
func New(db Database, tables ...any) *Dataset {
	d := compile.Default
	if db != nil {
		d = db.Dialect()
	}
	ds := &Dataset{db: db, dialect: d, ast: &query.AST{Kind: query.SelectQuery}}
	if m, ok := db.(BindModer); ok {
		ds.mode = m.BindMode()
	}
	if len(tables) == 0 {
		return ds
	}
	return ds.From(tables...)
}

// NewWithDialect returns a dataset with no database that compiles for d.
func NewWithDialect(d *compile.Dialect, tables ...any) *Dataset {
	ds := New(nil, tables...)
	ds.dialect = d
	return ds
}

// QueryAST returns the descriptor, so datasets can be used anywhere a
// subquery is accepted.
func (d *Dataset) QueryAST() *query.AST { return d.ast }

// Err returns the sticky construction error, if any.
func (d *Dataset) Err() error { return d.err }

// Dialect returns the dialect the dataset compiles for.
func (d *Dataset) Dialect() *compile.Dialect { return d.dialect }

// DB returns the dataset's database, or nil.
func (d *Dataset) DB() Database { return d.db }

// Alias returns the alias set with As.
func (d *Dataset) Alias() string { return d.alias }

// Binds returns a copy of the dataset's bind values.
func (d *Dataset) Binds() map[string]any { return maps.Clone(d.ast.Binds) }

func (d *Dataset) withAST(ast *query.AST) *Dataset {
	c := *d
	c.ast = ast
	return &c
}

func (d *Dataset) fail(err error) *Dataset {
	c := *d
	c.err = err
	return &c
}

// mutate runs fn on a clone of the descriptor.
func (d *Dataset) mutate(fn func(ast *query.AST) error) *Dataset {
	if d.err != nil {
		return d
	}
	ast := d.ast.Clone()
	if err := fn(ast); err != nil {
		return d.fail(err)
	}
	return d.withAST(ast)
}

// WithDB returns a copy bound to db, keeping the current dialect.
func (d *Dataset) WithDB(db Database) *Dataset {
	c := *d
	c.db = db
	return &c
}

// WithBindMode returns a copy whose prepared statements use mode.
func (d *Dataset) WithBindMode(mode BindMode) *Dataset {
	c := *d
	c.mode = mode
	return &c
}

// IdentifierCase returns a copy whose dialect folds identifiers written to
// SQL with input and result column names with output.
func (d *Dataset) IdentifierCase(input, output compile.CaseFold) *Dataset {
	c := *d
	c.dialect = d.dialect.WithIdentifierCase(input, output)
	return &c
}

// QuoteIdentifiers returns a copy with identifier quoting switched on or off.
func (d *Dataset) QuoteIdentifiers(on bool) *Dataset {
	c := *d
	c.dialect = d.dialect.WithQuoting(on)
	return &c
}

// As names the dataset for use as a derived table in From or a join.
func (d *Dataset) As(alias string) *Dataset {
	if d.err != nil {
		return d
	}
	if err := compile.ValidateIdentifier(alias); err != nil {
		return d.fail(err)
	}
	c := *d
	c.alias = alias
	return &c
}

// sourceExpr is the FROM/JOIN form of a dataset: a subquery, aliased when
// As was used.
func (d *Dataset) sourceExpr() query.Expr {
	sub := query.Subquery{Query: d.ast}
	if d.alias == "" {
		return sub
	}
	return query.AliasedExpression{Expr: sub, Alias: d.alias}
}

// exprOf converts a column-ish argument: strings are parsed as column
// references ("t.c", "t__c", "c___alias", "*").
func exprOf(v any) query.Expr {
	switch x := v.(type) {
	case string:
		return query.C(x)
	case *Dataset:
		return query.Subquery{Query: x.ast}
	}
	return query.ToExpr(v)
}

// firstErr returns the sticky error of any dataset among args.
func firstErr(args []any) error {
	for _, a := range args {
		if ds, ok := a.(*Dataset); ok && ds.err != nil {
			return ds.err
		}
	}
	return nil
}

func exprsOf(args []any) []query.Expr {
	if len(args) == 0 {
		return nil
	}
	out := make([]query.Expr, len(args))
	for i, a := range args {
		out[i] = exprOf(a)
	}
	return out
}

func mergeBinds(into *query.AST, from map[string]any) {
	if len(from) == 0 {
		return
	}
	if into.Binds == nil {
		into.Binds = make(map[string]any, len(from))
	}
	for k, v := range from {
		if _, set := into.Binds[k]; !set {
			into.Binds[k] = v
		}
	}
}
