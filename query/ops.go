package query

// BoolOp is the operator of a BooleanExpression.
type BoolOp string

const (
	OpAnd      BoolOp = "AND"
	OpOr       BoolOp = "OR"
	OpNot      BoolOp = "NOT"
	OpEq       BoolOp = "="
	OpNe       BoolOp = "<>"
	OpGt       BoolOp = ">"
	OpGte      BoolOp = ">="
	OpLt       BoolOp = "<"
	OpLte      BoolOp = "<="
	OpIs       BoolOp = "IS"
	OpIsNot    BoolOp = "IS NOT"
	OpIn       BoolOp = "IN"
	OpNotIn    BoolOp = "NOT IN"
	OpLike     BoolOp = "LIKE"
	OpNotLike  BoolOp = "NOT LIKE"
	OpILike    BoolOp = "ILIKE"
	OpNotILike BoolOp = "NOT ILIKE"
)

// IsComparison reports whether op takes exactly two operands.
func (op BoolOp) IsComparison() bool {
	switch op {
	case OpAnd, OpOr, OpNot:
		return false
	}
	return true
}

// ComplexOp is the operator of a ComplexExpression.
type ComplexOp string

const (
	OpAdd        ComplexOp = "+"
	OpSub        ComplexOp = "-"
	OpMul        ComplexOp = "*"
	OpDiv        ComplexOp = "/"
	OpMod        ComplexOp = "%"
	OpConcat     ComplexOp = "||"
	OpBitAnd     ComplexOp = "&"
	OpBitOr      ComplexOp = "|"
	OpBitXor     ComplexOp = "^"
	OpShiftLeft  ComplexOp = "<<"
	OpShiftRight ComplexOp = ">>"
	OpBitNot     ComplexOp = "~"
)

func compare(op BoolOp, l, r any) BooleanExpression {
	return BooleanExpression{Op: op, Args: []Expr{toExpr(l), toExpr(r)}}
}

// Eq builds l = r.
func Eq(l, r any) BooleanExpression { return compare(OpEq, l, r) }

// Ne builds l <> r.
func Ne(l, r any) BooleanExpression { return compare(OpNe, l, r) }

// Gt builds l > r.
func Gt(l, r any) BooleanExpression { return compare(OpGt, l, r) }

// Gte builds l >= r.
func Gte(l, r any) BooleanExpression { return compare(OpGte, l, r) }

// Lt builds l < r.
func Lt(l, r any) BooleanExpression { return compare(OpLt, l, r) }

// Lte builds l <= r.
func Lte(l, r any) BooleanExpression { return compare(OpLte, l, r) }

// Like builds l LIKE pattern.
func Like(l, pattern any) BooleanExpression { return compare(OpLike, l, pattern) }

// ILike builds a case-insensitive LIKE.
func ILike(l, pattern any) BooleanExpression { return compare(OpILike, l, pattern) }

// IsNull builds e IS NULL.
func IsNull(e any) BooleanExpression { return compare(OpIs, e, nil) }

// IsNotNull builds e IS NOT NULL.
func IsNotNull(e any) BooleanExpression { return compare(OpIsNot, e, nil) }

// IsTrue builds e IS TRUE.
func IsTrue(e any) BooleanExpression { return compare(OpIs, e, true) }

// IsFalse builds e IS FALSE.
func IsFalse(e any) BooleanExpression { return compare(OpIs, e, false) }

// In builds l IN (values...). A single slice, descriptor or subquery
// argument is used as the right-hand side directly.
func In(l any, values ...any) BooleanExpression {
	return compare(OpIn, l, inOperand(values))
}

// NotIn builds l NOT IN (values...).
func NotIn(l any, values ...any) BooleanExpression {
	return compare(OpNotIn, l, inOperand(values))
}

func inOperand(values []any) any {
	if len(values) == 1 {
		switch values[0].(type) {
		case *AST, Queryable, Subquery, ValueList:
			return values[0]
		}
		if isSlice(values[0]) {
			return values[0]
		}
	}
	return values
}

// Between builds (e >= lo AND e <= hi).
func Between(e, lo, hi any) BooleanExpression {
	return And(Gte(e, lo), Lte(e, hi))
}

// And combines predicates with AND, flattening nested ANDs.
func And(exprs ...Expr) BooleanExpression { return junction(OpAnd, exprs) }

// Or combines predicates with OR, flattening nested ORs.
func Or(exprs ...Expr) BooleanExpression { return junction(OpOr, exprs) }

// Not negates a predicate without rewriting it.
func Not(e any) BooleanExpression {
	return BooleanExpression{Op: OpNot, Args: []Expr{toExpr(e)}}
}

func junction(op BoolOp, exprs []Expr) BooleanExpression {
	args := make([]Expr, 0, len(exprs))
	for _, e := range exprs {
		if e == nil {
			continue
		}
		if be, ok := e.(BooleanExpression); ok && be.Op == op {
			args = append(args, be.Args...)
			continue
		}
		args = append(args, e)
	}
	return BooleanExpression{Op: op, Args: args}
}

func arith(op ComplexOp, args ...any) ComplexExpression {
	return ComplexExpression{Op: op, Args: toExprs(args)}
}

// Add builds (l + r).
func Add(l, r any) ComplexExpression { return arith(OpAdd, l, r) }

// Sub builds (l - r).
func Sub(l, r any) ComplexExpression { return arith(OpSub, l, r) }

// Mul builds (l * r).
func Mul(l, r any) ComplexExpression { return arith(OpMul, l, r) }

// Div builds (l / r).
func Div(l, r any) ComplexExpression { return arith(OpDiv, l, r) }

// Mod builds (l % r).
func Mod(l, r any) ComplexExpression { return arith(OpMod, l, r) }

// Concat builds (a || b || ...).
func Concat(parts ...any) ComplexExpression { return arith(OpConcat, parts...) }

// BitAnd builds (l & r).
func BitAnd(l, r any) ComplexExpression { return arith(OpBitAnd, l, r) }

// BitOr builds (l | r).
func BitOr(l, r any) ComplexExpression { return arith(OpBitOr, l, r) }

// BitXor builds (l ^ r).
func BitXor(l, r any) ComplexExpression { return arith(OpBitXor, l, r) }

// ShiftLeft builds (l << r).
func ShiftLeft(l, r any) ComplexExpression { return arith(OpShiftLeft, l, r) }

// ShiftRight builds (l >> r).
func ShiftRight(l, r any) ComplexExpression { return arith(OpShiftRight, l, r) }

// BitNot builds ~e.
func BitNot(e any) ComplexExpression { return arith(OpBitNot, e) }

// Neg builds -e.
func Neg(e any) ComplexExpression { return arith(OpSub, e) }

// =============================================================================
// Builder methods
// =============================================================================

func (i Identifier) Eq(v any) BooleanExpression { return Eq(i, v) }
func (i Identifier) Ne(v any) BooleanExpression { return Ne(i, v) }
func (i Identifier) Gt(v any) BooleanExpression { return Gt(i, v) }
func (i Identifier) Gte(v any) BooleanExpression { return Gte(i, v) }
func (i Identifier) Lt(v any) BooleanExpression { return Lt(i, v) }
func (i Identifier) Lte(v any) BooleanExpression { return Lte(i, v) }
func (i Identifier) In(vs ...any) BooleanExpression { return In(i, vs...) }
func (i Identifier) NotIn(vs ...any) BooleanExpression { return NotIn(i, vs...) }
func (i Identifier) Like(p any) BooleanExpression { return Like(i, p) }
func (i Identifier) ILike(p any) BooleanExpression { return ILike(i, p) }
func (i Identifier) IsNull() BooleanExpression { return IsNull(i) }
func (i Identifier) IsNotNull() BooleanExpression { return IsNotNull(i) }
func (i Identifier) IsTrue() BooleanExpression { return IsTrue(i) }
func (i Identifier) IsFalse() BooleanExpression { return IsFalse(i) }
func (i Identifier) Between(lo, hi any) BooleanExpression { return Between(i, lo, hi) }
func (i Identifier) Add(v any) ComplexExpression { return Add(i, v) }
func (i Identifier) Sub(v any) ComplexExpression { return Sub(i, v) }
func (i Identifier) Mul(v any) ComplexExpression { return Mul(i, v) }
func (i Identifier) Div(v any) ComplexExpression { return Div(i, v) }
func (i Identifier) Concat(v ...any) ComplexExpression { return Concat(append([]any{i}, v...)...) }
func (i Identifier) As(alias string) AliasedExpression { return As(i, alias) }
func (i Identifier) Asc() OrderedExpression { return Asc(i) }
func (i Identifier) Desc() OrderedExpression { return Desc(i) }

func (q QualifiedIdentifier) Eq(v any) BooleanExpression { return Eq(q, v) }
func (q QualifiedIdentifier) Ne(v any) BooleanExpression { return Ne(q, v) }
func (q QualifiedIdentifier) Gt(v any) BooleanExpression { return Gt(q, v) }
func (q QualifiedIdentifier) Gte(v any) BooleanExpression { return Gte(q, v) }
func (q QualifiedIdentifier) Lt(v any) BooleanExpression { return Lt(q, v) }
func (q QualifiedIdentifier) Lte(v any) BooleanExpression { return Lte(q, v) }
func (q QualifiedIdentifier) In(vs ...any) BooleanExpression { return In(q, vs...) }
func (q QualifiedIdentifier) NotIn(vs ...any) BooleanExpression { return NotIn(q, vs...) }
func (q QualifiedIdentifier) Like(p any) BooleanExpression { return Like(q, p) }
func (q QualifiedIdentifier) ILike(p any) BooleanExpression { return ILike(q, p) }
func (q QualifiedIdentifier) IsNull() BooleanExpression { return IsNull(q) }
func (q QualifiedIdentifier) IsNotNull() BooleanExpression { return IsNotNull(q) }
func (q QualifiedIdentifier) IsTrue() BooleanExpression { return IsTrue(q) }
func (q QualifiedIdentifier) IsFalse() BooleanExpression { return IsFalse(q) }
func (q QualifiedIdentifier) Between(lo, hi any) BooleanExpression { return Between(q, lo, hi) }
func (q QualifiedIdentifier) Add(v any) ComplexExpression { return Add(q, v) }
func (q QualifiedIdentifier) Sub(v any) ComplexExpression { return Sub(q, v) }
func (q QualifiedIdentifier) Mul(v any) ComplexExpression { return Mul(q, v) }
func (q QualifiedIdentifier) Div(v any) ComplexExpression { return Div(q, v) }
func (q QualifiedIdentifier) Concat(v ...any) ComplexExpression { return Concat(append([]any{q}, v...)...) }
func (q QualifiedIdentifier) As(alias string) AliasedExpression { return As(q, alias) }
func (q QualifiedIdentifier) Asc() OrderedExpression { return Asc(q) }
func (q QualifiedIdentifier) Desc() OrderedExpression { return Desc(q) }

func (f Function) Eq(v any) BooleanExpression { return Eq(f, v) }
func (f Function) Ne(v any) BooleanExpression { return Ne(f, v) }
func (f Function) Gt(v any) BooleanExpression { return Gt(f, v) }
func (f Function) Gte(v any) BooleanExpression { return Gte(f, v) }
func (f Function) Lt(v any) BooleanExpression { return Lt(f, v) }
func (f Function) Lte(v any) BooleanExpression { return Lte(f, v) }
func (f Function) Add(v any) ComplexExpression { return Add(f, v) }
func (f Function) Sub(v any) ComplexExpression { return Sub(f, v) }
func (f Function) As(alias string) AliasedExpression { return As(f, alias) }
func (f Function) Asc() OrderedExpression { return Asc(f) }
func (f Function) Desc() OrderedExpression { return Desc(f) }

// DistinctArgs returns the call with DISTINCT applied to its arguments.
func (f Function) DistinctArgs() Function {
	f.Distinct = true
	return f
}

// OverWindow attaches an OVER clause.
func (f Function) OverWindow(w Window) Function {
	f.Over = &w
	return f
}

func (c ComplexExpression) Eq(v any) BooleanExpression { return Eq(c, v) }
func (c ComplexExpression) Ne(v any) BooleanExpression { return Ne(c, v) }
func (c ComplexExpression) Gt(v any) BooleanExpression { return Gt(c, v) }
func (c ComplexExpression) Gte(v any) BooleanExpression { return Gte(c, v) }
func (c ComplexExpression) Lt(v any) BooleanExpression { return Lt(c, v) }
func (c ComplexExpression) Lte(v any) BooleanExpression { return Lte(c, v) }
func (c ComplexExpression) Add(v any) ComplexExpression { return Add(c, v) }
func (c ComplexExpression) Sub(v any) ComplexExpression { return Sub(c, v) }
func (c ComplexExpression) Mul(v any) ComplexExpression { return Mul(c, v) }
func (c ComplexExpression) Div(v any) ComplexExpression { return Div(c, v) }
func (c ComplexExpression) As(alias string) AliasedExpression { return As(c, alias) }

func (b BooleanExpression) As(alias string) AliasedExpression { return As(b, alias) }
