package dataset

import (
	"github.com/shipq/sequel/query"
	"github.com/shipq/sequel/query/compile"
)

// Select replaces the selected columns. No arguments selects *.
func (d *Dataset) Select(cols ...any) *Dataset {
	return d.mutate(func(ast *query.AST) error {
		if err := firstErr(cols); err != nil {
			return err
		}
		ast.Columns = exprsOf(cols)
		ast.Graph = nil
		return nil
	})
}

// SelectAppend adds columns to the selection, keeping * when nothing was
// selected explicitly.
func (d *Dataset) SelectAppend(cols ...any) *Dataset {
	return d.mutate(func(ast *query.AST) error {
		if err := firstErr(cols); err != nil {
			return err
		}
		if ast.Columns == nil {
			ast.Columns = []query.Expr{query.Star{}}
		}
		ast.Columns = append(ast.Columns, exprsOf(cols)...)
		return nil
	})
}

// SelectAll selects every column of the given tables, or * without
// arguments.
func (d *Dataset) SelectAll(tables ...string) *Dataset {
	return d.mutate(func(ast *query.AST) error {
		ast.Graph = nil
		if len(tables) == 0 {
			ast.Columns = nil
			return nil
		}
		ast.Columns = make([]query.Expr, len(tables))
		for i, t := range tables {
			ast.Columns[i] = query.Star{Table: t}
		}
		return nil
	})
}

// From replaces the source tables. Strings name tables ("schema.table" is
// qualified), datasets become derived tables.
func (d *Dataset) From(tables ...any) *Dataset {
	return d.mutate(func(ast *query.AST) error {
		if err := firstErr(tables); err != nil {
			return err
		}
		ast.From = make([]query.Expr, 0, len(tables))
		for _, t := range tables {
			switch x := t.(type) {
			case string:
				if x == "" {
					return query.NewError(query.MalformedInput, "from", "empty table name")
				}
				ast.From = append(ast.From, query.C(x))
			case *Dataset:
				ast.From = append(ast.From, x.sourceExpr())
				mergeBinds(ast, x.ast.Binds)
			case *query.AST:
				ast.From = append(ast.From, query.Subquery{Query: x})
			case query.Expr:
				ast.From = append(ast.From, x)
			default:
				return query.NewValueError(query.MalformedInput, "from", t, "unsupported source %T", t)
			}
		}
		return nil
	})
}

// FromSelf wraps the dataset in a derived table so later clauses apply to
// its result. The alias defaults to the next synthetic tN alias.
func (d *Dataset) FromSelf(alias ...string) *Dataset {
	if d.err != nil {
		return d
	}
	name := ""
	if len(alias) > 0 && alias[0] != "" {
		if err := compile.ValidateIdentifier(alias[0]); err != nil {
			return d.fail(err)
		}
		name = alias[0]
	}
	return d.withAST(query.FromSelf(d.ast, name))
}

// Distinct selects distinct rows.
func (d *Dataset) Distinct() *Dataset {
	return d.mutate(func(ast *query.AST) error {
		ast.Distinct = true
		ast.DistinctOn = nil
		return nil
	})
}

// DistinctOn selects the first row of each group of equal exprs.
func (d *Dataset) DistinctOn(exprs ...any) *Dataset {
	return d.mutate(func(ast *query.AST) error {
		if len(exprs) == 0 {
			return query.NewError(query.MalformedInput, "distinct", "DISTINCT ON requires at least one expression")
		}
		ast.Distinct = true
		ast.DistinctOn = exprsOf(exprs)
		return nil
	})
}

// Group replaces the GROUP BY list. No arguments removes grouping.
func (d *Dataset) Group(cols ...any) *Dataset {
	return d.mutate(func(ast *query.AST) error {
		ast.Group = exprsOf(cols)
		return nil
	})
}

// Order replaces the ORDER BY list. No arguments removes ordering.
func (d *Dataset) Order(exprs ...any) *Dataset {
	return d.mutate(func(ast *query.AST) error {
		ast.Order = exprsOf(exprs)
		return nil
	})
}

// OrderAppend adds to the ORDER BY list.
func (d *Dataset) OrderAppend(exprs ...any) *Dataset {
	return d.mutate(func(ast *query.AST) error {
		ast.Order = append(ast.Order, exprsOf(exprs)...)
		return nil
	})
}

// Reverse inverts the direction of every ORDER BY term. Given arguments it
// orders by them and then reverses.
func (d *Dataset) Reverse(exprs ...any) *Dataset {
	return d.mutate(func(ast *query.AST) error {
		if len(exprs) > 0 {
			ast.Order = exprsOf(exprs)
		}
		if len(ast.Order) == 0 {
			return query.NewError(query.InvalidOperation, "order", "cannot reverse a dataset without an order")
		}
		for i, o := range ast.Order {
			ordered, ok := o.(query.OrderedExpression)
			if !ok {
				ordered = query.Asc(o)
			}
			ast.Order[i] = ordered.Invert()
		}
		return nil
	})
}

// Unordered removes ORDER BY.
func (d *Dataset) Unordered() *Dataset {
	return d.mutate(func(ast *query.AST) error {
		ast.Order = nil
		return nil
	})
}

// Limit sets LIMIT and, optionally, OFFSET. n must be at least 1.
func (d *Dataset) Limit(n int, offset ...int) *Dataset {
	return d.mutate(func(ast *query.AST) error {
		if n < 1 {
			return query.NewValueError(query.MalformedInput, "limit", n, "limit must be at least 1")
		}
		ast.Limit = &n
		if len(offset) > 0 {
			return setOffset(ast, offset[0])
		}
		return nil
	})
}

// Offset sets OFFSET. n must not be negative.
func (d *Dataset) Offset(n int) *Dataset {
	return d.mutate(func(ast *query.AST) error {
		return setOffset(ast, n)
	})
}

func setOffset(ast *query.AST, n int) error {
	if n < 0 {
		return query.NewValueError(query.MalformedInput, "offset", n, "offset must not be negative")
	}
	ast.Offset = &n
	return nil
}

// Unlimited removes LIMIT and OFFSET.
func (d *Dataset) Unlimited() *Dataset {
	return d.mutate(func(ast *query.AST) error {
		ast.Limit = nil
		ast.Offset = nil
		return nil
	})
}

// ForUpdate locks the selected rows for update.
func (d *Dataset) ForUpdate() *Dataset { return d.Lock(query.ForUpdate) }

// ForShare takes a shared lock on the selected rows.
func (d *Dataset) ForShare() *Dataset { return d.Lock(query.ForShare) }

// Lock sets the row-locking mode. Modes other than the query constants
// are written verbatim.
func (d *Dataset) Lock(mode query.LockMode) *Dataset {
	return d.mutate(func(ast *query.AST) error {
		ast.Lock = mode
		return nil
	})
}

// Returning adds a RETURNING list to INSERT, UPDATE and DELETE. No
// arguments returns every column.
func (d *Dataset) Returning(cols ...any) *Dataset {
	return d.mutate(func(ast *query.AST) error {
		if len(cols) == 0 {
			ast.Returning = []query.Expr{query.Star{}}
			return nil
		}
		ast.Returning = exprsOf(cols)
		return nil
	})
}

// With adds a common table expression named name.
func (d *Dataset) With(name string, q *Dataset, cols ...string) *Dataset {
	return d.with(name, q, false, cols)
}

// WithRecursive adds a recursive common table expression.
func (d *Dataset) WithRecursive(name string, q *Dataset, cols ...string) *Dataset {
	return d.with(name, q, true, cols)
}

func (d *Dataset) with(name string, q *Dataset, recursive bool, cols []string) *Dataset {
	return d.mutate(func(ast *query.AST) error {
		if q.err != nil {
			return q.err
		}
		if err := compile.ValidateIdentifier(name); err != nil {
			return err
		}
		for _, c := range cols {
			if err := compile.ValidateIdentifier(c); err != nil {
				return err
			}
		}
		for _, cte := range ast.With {
			if cte.Name == name {
				return query.NewValueError(query.AliasConflict, "with", name, "common table expression %q already defined", name)
			}
		}
		inner := q.ast.Clone()
		mergeBinds(ast, inner.Binds)
		inner.Binds = nil
		ast.With = append(ast.With, query.CTE{Name: name, Columns: cols, Query: inner, Recursive: recursive})
		return nil
	})
}

// WithSQL replaces every structured clause with a literal statement whose
// "?" markers are filled from args.
func (d *Dataset) WithSQL(sql string, args ...any) *Dataset {
	return d.mutate(func(ast *query.AST) error {
		if n := query.CountPlaceholders(sql); n != len(args) {
			return query.NewValueError(query.MalformedInput, "sql", sql,
				"template has %d placeholders but %d arguments were given", n, len(args))
		}
		ast.RawSQL = &query.RawSQL{SQL: sql, Args: args}
		return nil
	})
}

// Bind adds values for named placeholders. Later calls override earlier
// values for the same name.
func (d *Dataset) Bind(binds map[string]any) *Dataset {
	return d.mutate(func(ast *query.AST) error {
		if ast.Binds == nil {
			ast.Binds = make(map[string]any, len(binds))
		}
		for k, v := range binds {
			ast.Binds[k] = v
		}
		return nil
	})
}
