package dataset

import "github.com/shipq/sequel/query"

// Union appends UNION other. Duplicate rows are removed.
func (d *Dataset) Union(other *Dataset) *Dataset { return d.compound(query.Union, false, other) }

// UnionAll appends UNION ALL other.
func (d *Dataset) UnionAll(other *Dataset) *Dataset { return d.compound(query.Union, true, other) }

// Intersect appends INTERSECT other.
func (d *Dataset) Intersect(other *Dataset) *Dataset {
	return d.compound(query.Intersect, false, other)
}

// IntersectAll appends INTERSECT ALL other.
func (d *Dataset) IntersectAll(other *Dataset) *Dataset {
	return d.compound(query.Intersect, true, other)
}

// Except appends EXCEPT other.
func (d *Dataset) Except(other *Dataset) *Dataset { return d.compound(query.Except, false, other) }

// ExceptAll appends EXCEPT ALL other.
func (d *Dataset) ExceptAll(other *Dataset) *Dataset { return d.compound(query.Except, true, other) }

// compound keeps chains of the same operation flat. A receiver whose order,
// limit or differing set operation would change meaning under the new
// operation is wrapped in a derived table first.
func (d *Dataset) compound(op query.CompoundOp, all bool, other *Dataset) *Dataset {
	if d.err != nil {
		return d
	}
	if other == nil {
		return d.fail(query.NewError(query.MalformedInput, "compounds", "nil dataset"))
	}
	if other.err != nil {
		return d.fail(other.err)
	}

	base := d.ast
	if needsWrap(base, op, all) {
		base = query.FromSelf(base, "")
	}
	ast := base.Clone()

	right := other.ast.Clone()
	mergeBinds(ast, right.Binds)
	right.Binds = nil
	right.Graph = nil
	ast.Compounds = append(ast.Compounds, query.Compound{Op: op, All: all, Query: right})
	return d.withAST(ast)
}

func needsWrap(ast *query.AST, op query.CompoundOp, all bool) bool {
	if ast.RawSQL != nil || len(ast.Order) > 0 || ast.Limit != nil || ast.Offset != nil {
		return true
	}
	for _, c := range ast.Compounds {
		if c.Op != op || c.All != all {
			return true
		}
	}
	return false
}
