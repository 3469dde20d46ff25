package query

// ExprVisitor is called for each expression during a walk.
// Return false to stop walking the current branch.
type ExprVisitor func(expr Expr) bool

// Walk traverses an expression tree in depth-first order, calling the visitor
// for each expression. If the visitor returns false, children of that
// expression are not visited. Nested descriptors are walked with WalkAST.
func Walk(expr Expr, visit ExprVisitor) {
	if expr == nil {
		return
	}
	if !visit(expr) {
		return
	}

	switch e := expr.(type) {
	case AliasedExpression:
		Walk(e.Expr, visit)
	case OrderedExpression:
		Walk(e.Expr, visit)
	case BooleanExpression:
		walkAll(e.Args, visit)
	case ComplexExpression:
		walkAll(e.Args, visit)
	case Function:
		walkAll(e.Args, visit)
		if e.Over != nil {
			walkAll(e.Over.PartitionBy, visit)
			walkAll(e.Over.OrderBy, visit)
		}
	case PlaceholderLiteralString:
		for _, a := range e.Args {
			walkValue(a, visit)
		}
		for _, a := range e.Named {
			walkValue(a, visit)
		}
	case Subscript:
		Walk(e.Expr, visit)
		for _, i := range e.Indexes {
			walkValue(i, visit)
		}
	case CaseExpression:
		Walk(e.Subject, visit)
		for _, w := range e.Whens {
			Walk(w.Cond, visit)
			Walk(w.Result, visit)
		}
		Walk(e.Else, visit)
	case Value:
		walkValue(e.V, visit)
	case ValueList:
		for _, v := range e.Values {
			walkValue(v, visit)
		}
	case Subquery:
		WalkAST(e.Query, visit)
	case Cast:
		Walk(e.Expr, visit)

	// These expression types have no children:
	// - Identifier, QualifiedIdentifier, Star
	// - LiteralString, Placeholder
	}
}

func walkAll(exprs []Expr, visit ExprVisitor) {
	for _, e := range exprs {
		Walk(e, visit)
	}
}

func walkValue(v any, visit ExprVisitor) {
	switch x := v.(type) {
	case Expr:
		Walk(x, visit)
	case *AST:
		WalkAST(x, visit)
	case []any:
		for _, item := range x {
			walkValue(item, visit)
		}
	}
}

// WalkAST traverses all expressions in a descriptor in depth-first order,
// including CTEs, derived tables, joins and compound members.
func WalkAST(ast *AST, visit ExprVisitor) {
	if ast == nil {
		return
	}
	if ast.RawSQL != nil {
		for _, a := range ast.RawSQL.Args {
			walkValue(a, visit)
		}
		return
	}
	for _, cte := range ast.With {
		WalkAST(cte.Query, visit)
	}
	walkAll(ast.DistinctOn, visit)
	walkAll(ast.Columns, visit)
	walkAll(ast.From, visit)
	for _, j := range ast.Joins {
		Walk(j.Table, visit)
		Walk(j.On, visit)
	}
	Walk(ast.Where, visit)
	walkAll(ast.Group, visit)
	Walk(ast.Having, visit)
	for _, c := range ast.Compounds {
		WalkAST(c.Query, visit)
	}
	walkAll(ast.Order, visit)
	if ast.Insert != nil {
		walkAll(ast.Insert.Columns, visit)
		for _, row := range ast.Insert.Rows {
			for _, v := range row {
				walkValue(v, visit)
			}
		}
		WalkAST(ast.Insert.Select, visit)
	}
	for _, s := range ast.Set {
		Walk(s.Column, visit)
		walkValue(s.Value, visit)
	}
	walkAll(ast.Returning, visit)
}

// PlaceholderNames returns the bind placeholder names in a descriptor in
// first-occurrence order.
func PlaceholderNames(ast *AST) []string {
	var names []string
	seen := make(map[string]bool)
	WalkAST(ast, func(e Expr) bool {
		if p, ok := e.(Placeholder); ok && !seen[p.Name] {
			seen[p.Name] = true
			names = append(names, p.Name)
		}
		return true
	})
	return names
}

// HasSubqueries returns true if the descriptor contains any subquery.
func HasSubqueries(ast *AST) bool {
	found := false
	WalkAST(ast, func(e Expr) bool {
		if _, ok := e.(Subquery); ok {
			found = true
			return false
		}
		return !found
	})
	return found
}
