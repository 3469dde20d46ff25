package dataset

import "github.com/shipq/sequel/query"

// Where AND-combines a condition with the existing WHERE. See
// query.BuildPredicate for the accepted inputs.
func (d *Dataset) Where(cond any, args ...any) *Dataset {
	return d.filterWith(cond, func(ast *query.AST, c any) error {
		e, err := query.Filter(ast.Where, c, args...)
		if err != nil {
			return err
		}
		ast.Where = e
		return nil
	})
}

// Filter is an alias for Where.
func (d *Dataset) Filter(cond any, args ...any) *Dataset { return d.Where(cond, args...) }

// Exclude AND-combines the inverse of a condition with the existing WHERE.
func (d *Dataset) Exclude(cond any, args ...any) *Dataset {
	return d.filterWith(cond, func(ast *query.AST, c any) error {
		e, err := query.Exclude(ast.Where, c, args...)
		if err != nil {
			return err
		}
		ast.Where = e
		return nil
	})
}

// Or OR-combines a condition with the existing WHERE, which must be set.
func (d *Dataset) Or(cond any, args ...any) *Dataset {
	return d.filterWith(cond, func(ast *query.AST, c any) error {
		e, err := query.OrWith("or", ast.Where, c, args...)
		if err != nil {
			return err
		}
		ast.Where = e
		return nil
	})
}

// And is Where, except that it refuses to start a WHERE clause.
func (d *Dataset) And(cond any, args ...any) *Dataset {
	if d.err == nil && d.ast.Where == nil {
		return d.fail(query.NewError(query.InvalidOperation, "and", "no existing filter to AND with"))
	}
	return d.Where(cond, args...)
}

// Having AND-combines a condition with the existing HAVING.
func (d *Dataset) Having(cond any, args ...any) *Dataset {
	return d.filterWith(cond, func(ast *query.AST, c any) error {
		e, err := query.Filter(ast.Having, c, args...)
		if err != nil {
			return err
		}
		ast.Having = e
		return nil
	})
}

// Invert negates WHERE and HAVING. A dataset with neither matches nothing
// afterwards.
func (d *Dataset) Invert() *Dataset {
	return d.mutate(func(ast *query.AST) error {
		if ast.Where == nil && ast.Having == nil {
			ast.Where = query.V(false)
			return nil
		}
		if ast.Where != nil {
			ast.Where = query.Invert(ast.Where)
		}
		if ast.Having != nil {
			ast.Having = query.Invert(ast.Having)
		}
		return nil
	})
}

// Unfiltered removes WHERE and HAVING.
func (d *Dataset) Unfiltered() *Dataset {
	return d.mutate(func(ast *query.AST) error {
		ast.Where = nil
		ast.Having = nil
		return nil
	})
}

// condOf lets a dataset stand in for its descriptor as a subquery value.
func condOf(cond any) any {
	if ds, ok := cond.(*Dataset); ok {
		return query.Subquery{Query: ds.ast}
	}
	return cond
}

// nestedDatasets returns the datasets used as values of a condition map, so
// their binds and errors reach the outer query.
func nestedDatasets(cond any) []*Dataset {
	var out []*Dataset
	add := func(v any) {
		if ds, ok := v.(*Dataset); ok {
			out = append(out, ds)
		}
	}
	switch c := cond.(type) {
	case *Dataset:
		add(c)
	case query.Hash:
		for _, v := range c {
			add(v)
		}
	case map[string]any:
		for _, v := range c {
			add(v)
		}
	case query.Pairs:
		for _, p := range c {
			add(p.Value)
		}
	case []query.Pair:
		for _, p := range c {
			add(p.Value)
		}
	}
	return out
}

// filterWith applies fn to a clone of the descriptor after merging the
// binds of datasets nested in cond.
func (d *Dataset) filterWith(cond any, fn func(ast *query.AST, cond any) error) *Dataset {
	return d.mutate(func(ast *query.AST) error {
		for _, ds := range nestedDatasets(cond) {
			if ds.err != nil {
				return ds.err
			}
			mergeBinds(ast, ds.ast.Binds)
		}
		return fn(ast, condOf(cond))
	})
}
