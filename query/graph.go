package query

import "strconv"

// ColumnRef locates a result column in its source table.
type ColumnRef struct {
	Table  string
	Column string
}

// GraphMeta records which table each selected column belongs to so that
// flat result rows can be split into one map per table.
type GraphMeta struct {
	Tables        map[string]Expr
	TableOrder    []string
	ColumnAliases map[string]ColumnRef
	ColumnOrder   []string
}

// Clone returns a deep copy of the metadata maps and slices.
func (g *GraphMeta) Clone() *GraphMeta {
	if g == nil {
		return nil
	}
	c := &GraphMeta{
		Tables:        make(map[string]Expr, len(g.Tables)),
		TableOrder:    cloneSlice(g.TableOrder),
		ColumnAliases: make(map[string]ColumnRef, len(g.ColumnAliases)),
		ColumnOrder:   cloneSlice(g.ColumnOrder),
	}
	for k, v := range g.Tables {
		c.Tables[k] = v
	}
	for k, v := range g.ColumnAliases {
		c.ColumnAliases[k] = v
	}
	return c
}

// GraphOptions configure a graphed join.
type GraphOptions struct {
	// JoinType defaults to LeftJoin.
	JoinType JoinType
	// TableAlias overrides the alias of the graphed table.
	TableAlias string
	// Columns lists the graphed table's columns. Required.
	Columns []string
	// SourceColumns lists the primary table's columns on the first graph
	// call. Defaults to the receiver's plain selected columns.
	SourceColumns []string
	// ImplicitQualifier is passed through to the join.
	ImplicitQualifier string
}

const graphClause = "graph"

// Graph joins target to ast and records column ownership for splitting.
// A receiver that already joins several sources without graph metadata is
// first wrapped in a derived table named after its first source.
func Graph(ast *AST, target any, cond any, opts GraphOptions) (*AST, error) {
	if len(opts.Columns) == 0 {
		return nil, NewValueError(InvalidOperation, graphClause, target,
			"graph requires the graphed table's columns")
	}
	base := ast
	if base.Graph == nil && (len(base.From) > 1 || len(base.Joins) > 0) {
		base = FromSelf(base, base.FirstSourceAlias())
	}

	meta := base.Graph.Clone()
	var columns []Expr
	if meta == nil {
		primary := base.FirstSourceAlias()
		if primary == "" {
			return nil, NewError(InvalidOperation, graphClause, "graph requires a source table")
		}
		srcCols := opts.SourceColumns
		if len(srcCols) == 0 {
			var err error
			if srcCols, err = plainColumnNames(ast.Columns); err != nil {
				return nil, err
			}
		}
		meta = &GraphMeta{
			Tables:        map[string]Expr{primary: base.From[0]},
			ColumnAliases: make(map[string]ColumnRef),
		}
		meta.TableOrder = append(meta.TableOrder, primary)
		for _, col := range srcCols {
			columns = append(columns, meta.add(primary, col))
		}
	} else {
		columns = cloneSlice(base.Columns)
	}

	jt := opts.JoinType
	if jt == "" {
		jt = LeftJoin
	}
	joined, err := Join(base, jt, target, cond, JoinOptions{
		TableAlias:        opts.TableAlias,
		ImplicitQualifier: opts.ImplicitQualifier,
	})
	if err != nil {
		return nil, err
	}

	alias := joined.Joins[len(joined.Joins)-1].Alias
	if _, dup := meta.Tables[alias]; dup {
		return nil, NewValueError(AliasConflict, graphClause, alias,
			"table alias %q is already graphed", alias)
	}
	meta.Tables[alias] = joined.Joins[len(joined.Joins)-1].Table
	meta.TableOrder = append(meta.TableOrder, alias)
	for _, col := range opts.Columns {
		columns = append(columns, meta.add(alias, col))
	}

	joined.Columns = columns
	joined.Graph = meta
	return joined, nil
}

// add registers table.column under a free alias and returns the select
// expression for it: column, then table_column, then table_column_N.
func (g *GraphMeta) add(table, column string) Expr {
	alias := column
	if _, taken := g.ColumnAliases[alias]; taken {
		alias = table + "_" + column
		if _, taken := g.ColumnAliases[alias]; taken {
			for n := 1; ; n++ {
				candidate := table + "_" + column + "_" + strconv.Itoa(n)
				if _, taken := g.ColumnAliases[candidate]; !taken {
					alias = candidate
					break
				}
			}
		}
	}
	g.ColumnAliases[alias] = ColumnRef{Table: table, Column: column}
	g.ColumnOrder = append(g.ColumnOrder, alias)
	if alias == column {
		return Q(table, column)
	}
	return AliasedExpression{Expr: Q(table, column), Alias: alias}
}

func plainColumnNames(cols []Expr) ([]string, error) {
	if len(cols) == 0 {
		return nil, NewError(InvalidOperation, graphClause,
			"graph needs explicit source columns when the receiver selects *")
	}
	names := make([]string, 0, len(cols))
	for _, c := range cols {
		switch x := c.(type) {
		case Identifier:
			names = append(names, x.Name)
		case QualifiedIdentifier:
			names = append(names, x.Name)
		default:
			return nil, NewValueError(InvalidOperation, graphClause, c,
				"graph can only split plain column selections")
		}
	}
	return names, nil
}

// Split turns a flat result row into one map per graphed table, keyed by
// table alias. A table whose values are all nil maps to nil: its outer
// join found no row.
func Split(meta *GraphMeta, row map[string]any) map[string]map[string]any {
	out := make(map[string]map[string]any, len(meta.TableOrder))
	for _, t := range meta.TableOrder {
		out[t] = make(map[string]any)
	}
	for _, alias := range meta.ColumnOrder {
		ref := meta.ColumnAliases[alias]
		out[ref.Table][ref.Column] = row[alias]
	}
	for t, values := range out {
		allNil := true
		for _, v := range values {
			if v != nil {
				allNil = false
				break
			}
		}
		if allNil {
			out[t] = nil
		}
	}
	return out
}
