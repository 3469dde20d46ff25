package query

var invertedOps = map[BoolOp]BoolOp{
	OpEq:       OpNe,
	OpNe:       OpEq,
	OpGt:       OpLte,
	OpLte:      OpGt,
	OpLt:       OpGte,
	OpGte:      OpLt,
	OpIs:       OpIsNot,
	OpIsNot:    OpIs,
	OpIn:       OpNotIn,
	OpNotIn:    OpIn,
	OpLike:     OpNotLike,
	OpNotLike:  OpLike,
	OpILike:    OpNotILike,
	OpNotILike: OpILike,
	OpAnd:      OpOr,
	OpOr:       OpAnd,
}

// Invert returns the logical negation of a predicate. Comparisons flip
// their operator and AND/OR trees are rewritten by De Morgan's laws, so
// NOT only appears around expressions that have no inverse form.
// Invert(Invert(e)) is structurally equal to e.
func Invert(e Expr) Expr {
	switch x := e.(type) {
	case BooleanExpression:
		if x.Op == OpNot && len(x.Args) == 1 {
			return x.Args[0]
		}
		op, ok := invertedOps[x.Op]
		if !ok {
			break
		}
		if x.Op == OpAnd || x.Op == OpOr {
			args := make([]Expr, len(x.Args))
			for i, a := range x.Args {
				args[i] = Invert(a)
			}
			return BooleanExpression{Op: op, Args: args}
		}
		return BooleanExpression{Op: op, Args: x.Args}
	case Value:
		if b, ok := x.V.(bool); ok {
			return Value{V: !b}
		}
	case nil:
		return nil
	}
	return BooleanExpression{Op: OpNot, Args: []Expr{e}}
}
