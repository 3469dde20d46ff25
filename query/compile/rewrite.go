package compile

import (
	"strconv"

	"github.com/shipq/sequel/query"
)

// RowNumberColumn names the ROW_NUMBER() column of emulated offsets. Result
// rows only carry it when the query selects *.
const RowNumberColumn = "x_row_number_x"

// rewriteRowNumber emulates LIMIT/OFFSET for dialects without them. A bare
// limit on Oracle filters on ROWNUM; any offset numbers the rows with
// ROW_NUMBER() in a derived table and filters on that number.
func rewriteRowNumber(d *Dialect, ast *query.AST) (*query.AST, error) {
	if ast.Limit == nil && ast.Offset == nil {
		return ast, nil
	}
	if ast.Offset == nil {
		if d.Kind != KindOracle {
			return ast, nil
		}
		inner := ast.Clone()
		inner.Limit = nil
		inner.Lock = query.LockNone
		outer := query.FromSelf(inner, defaultSourceAlias(0))
		outer.Where = query.Lte(query.Lit("ROWNUM"), *ast.Limit)
		outer.Lock = ast.Lock
		return outer, nil
	}

	mid := ast.Clone()
	mid.Limit, mid.Offset, mid.Order = nil, nil, nil
	mid.Lock = query.LockNone

	w := &query.Window{OrderBy: ast.Order}
	if len(w.OrderBy) == 0 && d.Kind == KindOracle {
		w.OrderBy = []query.Expr{query.Lit("NULL")}
	}
	rn := query.Function{Name: "ROW_NUMBER", Over: w}

	alias := defaultSourceAlias(0)
	cols := mid.Columns
	named, projected, ok := projectNames(cols, alias)
	if ok {
		cols = named
	}
	if len(cols) == 0 {
		for i, src := range mid.From {
			alias := query.SourceAlias(src)
			if alias == "" {
				alias = defaultSourceAlias(i)
			}
			cols = append(cols, query.Star{Table: alias})
		}
		for _, j := range mid.Joins {
			cols = append(cols, query.Star{Table: j.Alias})
		}
	}
	mid.Columns = append(append([]query.Expr(nil), cols...), query.As(rn, RowNumberColumn))

	outer := query.FromSelf(mid, alias)
	outer.Columns = projected

	off := *ast.Offset
	cond := query.Gt(query.I(RowNumberColumn), off)
	if ast.Limit != nil {
		outer.Where = query.And(cond, query.Lte(query.I(RowNumberColumn), off+*ast.Limit))
	} else {
		outer.Where = cond
	}
	outer.Order = []query.Expr{query.I(RowNumberColumn)}
	outer.Lock = ast.Lock
	return outer, nil
}

// projectNames names every selected column so the outer query can re-select
// them without the row number. Unnamed expressions get an x_col_N alias. ok
// is false when a star leaves the names unknown.
func projectNames(cols []query.Expr, table string) (named, projected []query.Expr, ok bool) {
	if len(cols) == 0 {
		return nil, nil, false
	}
	named = make([]query.Expr, 0, len(cols))
	projected = make([]query.Expr, 0, len(cols))
	for i, col := range cols {
		var name string
		switch x := col.(type) {
		case query.Star:
			return nil, nil, false
		case query.Identifier:
			name = x.Name
		case query.QualifiedIdentifier:
			name = x.Name
		case query.AliasedExpression:
			name = x.Alias
		}
		if name == "*" {
			return nil, nil, false
		}
		if name == "" {
			name = "x_col_" + strconv.Itoa(i+1)
			col = query.As(col, name)
		}
		named = append(named, col)
		projected = append(projected, query.Q(table, name))
	}
	return named, projected, true
}
