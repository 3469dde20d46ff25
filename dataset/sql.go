package dataset

import (
	"maps"
	"slices"

	"github.com/shipq/sequel/query"
	"github.com/shipq/sequel/query/compile"
)

// SQL returns the SELECT statement with native bind markers.
func (d *Dataset) SQL() (string, error) {
	if d.err != nil {
		return "", d.err
	}
	res, err := compile.NewCompiler(d.dialect).CompileResult(d.ast)
	if err != nil {
		return "", err
	}
	return res.SQL, nil
}

// InsertSQL returns the INSERT statement for values. Each value is one row:
// a query.Hash or map (columns in sorted key order), query.Pairs, or a []any
// of values for every column. A single *Dataset inserts its SELECT; no
// values inserts DEFAULT VALUES.
func (d *Dataset) InsertSQL(values ...any) (string, error) {
	ast, err := d.insertAST(values)
	if err != nil {
		return "", err
	}
	return d.compileSQL(ast)
}

// UpdateSQL returns the UPDATE statement setting values (a query.Hash, map or
// query.Pairs) on the rows the dataset filters.
func (d *Dataset) UpdateSQL(values any) (string, error) {
	ast, err := d.updateAST(values)
	if err != nil {
		return "", err
	}
	return d.compileSQL(ast)
}

// DeleteSQL returns the DELETE statement for the rows the dataset filters.
func (d *Dataset) DeleteSQL() (string, error) {
	ast, err := d.deleteAST()
	if err != nil {
		return "", err
	}
	return d.compileSQL(ast)
}

func (d *Dataset) compileSQL(ast *query.AST) (string, error) {
	res, err := compile.NewCompiler(d.dialect).CompileResult(ast)
	if err != nil {
		return "", err
	}
	return res.SQL, nil
}

// compileArgs compiles ast with native markers and resolves the markers
// from the descriptor's binds.
func (d *Dataset) compileArgs(ast *query.AST) (string, []any, error) {
	res, err := compile.NewCompiler(d.dialect).CompileResult(ast)
	if err != nil {
		return "", nil, err
	}
	args, err := res.Args(ast.Binds)
	if err != nil {
		return "", nil, err
	}
	return res.SQL, args, nil
}

// dmlBase starts a DML descriptor on the dataset's single plain table.
func (d *Dataset) dmlBase(kind query.QueryKind) (*query.AST, error) {
	if d.err != nil {
		return nil, d.err
	}
	clause := string(kind)
	if d.ast.RawSQL != nil {
		return nil, query.NewError(query.InvalidOperation, clause, "cannot build a statement from a literal SQL dataset")
	}
	if len(d.ast.From) != 1 {
		return nil, query.NewValueError(query.InvalidOperation, clause, len(d.ast.From),
			"%s requires exactly one source table", kind)
	}
	switch d.ast.From[0].(type) {
	case query.Identifier, query.QualifiedIdentifier, query.AliasedExpression:
	default:
		return nil, query.NewError(query.InvalidOperation, clause, "cannot modify a derived table")
	}
	return &query.AST{
		Kind:      kind,
		With:      d.ast.With,
		From:      d.ast.From,
		Returning: d.ast.Returning,
		Binds:     maps.Clone(d.ast.Binds),
	}, nil
}

func (d *Dataset) insertAST(values []any) (*query.AST, error) {
	ast, err := d.dmlBase(query.InsertQuery)
	if err != nil {
		return nil, err
	}
	if a, ok := ast.From[0].(query.AliasedExpression); ok {
		ast.From = []query.Expr{a.Expr}
	}
	payload := &query.InsertPayload{}
	ast.Insert = payload

	if len(values) == 0 {
		payload.DefaultValues = true
		return ast, nil
	}
	if src, ok := values[0].(*Dataset); ok {
		if len(values) > 1 {
			return nil, query.NewError(query.MalformedInput, "insert", "INSERT ... SELECT takes a single dataset")
		}
		if src.err != nil {
			return nil, src.err
		}
		sel := src.ast.Clone()
		mergeBinds(ast, sel.Binds)
		sel.Binds = nil
		sel.Graph = nil
		payload.Select = sel
		return ast, nil
	}

	var columns []string
	for i, v := range values {
		cols, row, err := insertRow(v)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			columns = cols
		} else if !slices.Equal(cols, columns) {
			return nil, query.NewValueError(query.MalformedInput, "insert", v,
				"row %d does not have the same columns as the first row", i)
		}
		payload.Rows = append(payload.Rows, row)
	}
	for _, c := range columns {
		payload.Columns = append(payload.Columns, query.I(c))
	}
	return ast, nil
}

// insertRow splits one row value into its column names (nil for a bare
// value list) and values.
func insertRow(v any) ([]string, []any, error) {
	switch r := v.(type) {
	case query.Hash:
		return insertRow(map[string]any(r))
	case map[string]any:
		if len(r) == 0 {
			return nil, nil, query.NewValueError(query.MalformedInput, "insert", r, "empty row")
		}
		cols := slices.Sorted(maps.Keys(r))
		row := make([]any, len(cols))
		for i, c := range cols {
			row[i] = valueOf(r[c])
		}
		return cols, row, nil
	case query.Pairs:
		return insertPairs(r)
	case []query.Pair:
		return insertPairs(r)
	case []any:
		if len(r) == 0 {
			return nil, nil, query.NewValueError(query.MalformedInput, "insert", r, "empty row")
		}
		row := make([]any, len(r))
		for i, x := range r {
			row[i] = valueOf(x)
		}
		return nil, row, nil
	}
	return nil, nil, query.NewValueError(query.MalformedInput, "insert", v, "unsupported insert row %T", v)
}

func insertPairs(pairs []query.Pair) ([]string, []any, error) {
	if len(pairs) == 0 {
		return nil, nil, query.NewValueError(query.MalformedInput, "insert", pairs, "empty row")
	}
	cols := make([]string, len(pairs))
	row := make([]any, len(pairs))
	for i, p := range pairs {
		name, ok := p.Key.(string)
		if !ok {
			return nil, nil, query.NewValueError(query.MalformedInput, "insert", p.Key, "insert column must be a name")
		}
		cols[i] = name
		row[i] = valueOf(p.Value)
	}
	return cols, row, nil
}

// valueOf turns a dataset used as a value into a scalar subquery.
func valueOf(v any) any {
	if ds, ok := v.(*Dataset); ok {
		return query.Subquery{Query: ds.ast}
	}
	return v
}

func (d *Dataset) updateAST(values any) (*query.AST, error) {
	if d.err != nil {
		return nil, d.err
	}
	if err := d.checkModifiable(query.UpdateQuery); err != nil {
		return nil, err
	}
	ast, err := d.dmlBase(query.UpdateQuery)
	if err != nil {
		return nil, err
	}

	var pairs []query.Pair
	switch v := values.(type) {
	case query.Hash:
		pairs = sortedPairs(v)
	case map[string]any:
		pairs = sortedPairs(v)
	case query.Pairs:
		pairs = v
	case []query.Pair:
		pairs = v
	default:
		return nil, query.NewValueError(query.MalformedInput, "update", values, "unsupported update values %T", values)
	}
	if len(pairs) == 0 {
		return nil, query.NewValueError(query.MalformedInput, "update", values, "no columns to update")
	}
	for _, p := range pairs {
		var col query.Expr
		switch k := p.Key.(type) {
		case string:
			col = query.C(k)
		case query.Expr:
			col = k
		default:
			return nil, query.NewValueError(query.MalformedInput, "update", p.Key, "update column must be a name or expression")
		}
		ast.Set = append(ast.Set, query.SetClause{Column: col, Value: valueOf(p.Value)})
	}
	d.copyFilter(ast)
	return ast, nil
}

func (d *Dataset) deleteAST() (*query.AST, error) {
	if d.err != nil {
		return nil, d.err
	}
	if err := d.checkModifiable(query.DeleteQuery); err != nil {
		return nil, err
	}
	ast, err := d.dmlBase(query.DeleteQuery)
	if err != nil {
		return nil, err
	}
	d.copyFilter(ast)
	return ast, nil
}

// checkModifiable rejects datasets whose rows cannot be updated or deleted
// in place.
func (d *Dataset) checkModifiable(kind query.QueryKind) error {
	clause := string(kind)
	a := d.ast
	switch {
	case len(a.Joins) > 0:
		return query.NewError(query.InvalidOperation, clause, "cannot %s a joined dataset", clause)
	case len(a.Group) > 0 || a.Having != nil:
		return query.NewError(query.InvalidOperation, clause, "cannot %s a grouped dataset", clause)
	case len(a.Compounds) > 0:
		return query.NewError(query.InvalidOperation, clause, "cannot %s a compound dataset", clause)
	case a.Distinct || len(a.DistinctOn) > 0:
		return query.NewError(query.InvalidOperation, clause, "cannot %s a distinct dataset", clause)
	case a.Offset != nil:
		return query.NewError(query.InvalidOperation, clause, "cannot %s a dataset with an offset", clause)
	case a.Limit != nil && !d.dialect.HasClause(kind, "limit"):
		return query.NewError(query.InvalidOperation, clause, "cannot %s a limited dataset", clause)
	}
	return nil
}

// copyFilter carries WHERE into a DML descriptor, plus ORDER and LIMIT where
// the dialect writes them for this statement.
func (d *Dataset) copyFilter(ast *query.AST) {
	ast.Where = d.ast.Where
	if d.dialect.HasClause(ast.Kind, "order") {
		ast.Order = d.ast.Order
	}
	if d.ast.Limit != nil {
		n := *d.ast.Limit
		ast.Limit = &n
	}
}

func sortedPairs(h map[string]any) []query.Pair {
	keys := slices.Sorted(maps.Keys(h))
	pairs := make([]query.Pair, len(keys))
	for i, k := range keys {
		pairs[i] = query.Pair{Key: k, Value: h[k]}
	}
	return pairs
}
