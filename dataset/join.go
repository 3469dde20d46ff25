package dataset

import "github.com/shipq/sequel/query"

// JoinOption adjusts how a join resolves its target and condition.
type JoinOption func(*query.JoinOptions)

// TableAlias names the joined table.
func TableAlias(alias string) JoinOption {
	return func(o *query.JoinOptions) { o.TableAlias = alias }
}

// ImplicitQualifier qualifies the value side of column-pair conditions
// with table instead of the previously joined table.
func ImplicitQualifier(table string) JoinOption {
	return func(o *query.JoinOptions) { o.ImplicitQualifier = table }
}

// Join adds a join of type jt. table is a table name, a *Dataset, or an
// expression; cond is a column-pair map, a []string USING list, a
// query.JoinFunc or an expression, and must be nil for cross and natural
// joins.
func (d *Dataset) Join(jt query.JoinType, table any, cond any, opts ...JoinOption) *Dataset {
	if d.err != nil {
		return d
	}
	var o query.JoinOptions
	for _, opt := range opts {
		opt(&o)
	}

	target := table
	var binds map[string]any
	if ds, ok := table.(*Dataset); ok {
		if ds.err != nil {
			return d.fail(ds.err)
		}
		target = ds.ast
		binds = ds.ast.Binds
		if o.TableAlias == "" {
			o.TableAlias = ds.alias
		}
	}

	ast, err := query.Join(d.ast, jt, target, cond, o)
	if err != nil {
		return d.fail(err)
	}
	mergeBinds(ast, binds)
	return d.withAST(ast)
}

// InnerJoin adds an INNER JOIN.
func (d *Dataset) InnerJoin(table, cond any, opts ...JoinOption) *Dataset {
	return d.Join(query.InnerJoin, table, cond, opts...)
}

// LeftJoin adds a LEFT OUTER JOIN.
func (d *Dataset) LeftJoin(table, cond any, opts ...JoinOption) *Dataset {
	return d.Join(query.LeftJoin, table, cond, opts...)
}

// RightJoin adds a RIGHT OUTER JOIN.
func (d *Dataset) RightJoin(table, cond any, opts ...JoinOption) *Dataset {
	return d.Join(query.RightJoin, table, cond, opts...)
}

// FullJoin adds a FULL OUTER JOIN.
func (d *Dataset) FullJoin(table, cond any, opts ...JoinOption) *Dataset {
	return d.Join(query.FullJoin, table, cond, opts...)
}

// CrossJoin adds a CROSS JOIN.
func (d *Dataset) CrossJoin(table any, opts ...JoinOption) *Dataset {
	return d.Join(query.CrossJoin, table, nil, opts...)
}

// NaturalJoin adds a NATURAL JOIN.
func (d *Dataset) NaturalJoin(table any, opts ...JoinOption) *Dataset {
	return d.Join(query.NaturalJoin, table, nil, opts...)
}

// JoinUsing adds an inner join with a USING column list.
func (d *Dataset) JoinUsing(table any, cols ...string) *Dataset {
	if len(cols) == 0 {
		return d.fail(query.NewValueError(query.MalformedInput, "join", table, "USING requires at least one column"))
	}
	return d.Join(query.InnerJoin, table, cols)
}

// Graph joins table and records which selected columns belong to which
// table, so All and First return one nested map per table.
func (d *Dataset) Graph(table any, cond any, opts query.GraphOptions) *Dataset {
	if d.err != nil {
		return d
	}
	target := table
	var binds map[string]any
	if ds, ok := table.(*Dataset); ok {
		if ds.err != nil {
			return d.fail(ds.err)
		}
		target = ds.ast
		binds = ds.ast.Binds
		if opts.TableAlias == "" {
			opts.TableAlias = ds.alias
		}
	}
	ast, err := query.Graph(d.ast, target, cond, opts)
	if err != nil {
		return d.fail(err)
	}
	mergeBinds(ast, binds)
	return d.withAST(ast)
}

// Ungraphed drops graph metadata so rows come back flat.
func (d *Dataset) Ungraphed() *Dataset {
	return d.mutate(func(ast *query.AST) error {
		ast.Graph = nil
		return nil
	})
}
