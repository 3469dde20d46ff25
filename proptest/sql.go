package proptest

import (
	"strconv"
	"time"

	"github.com/shipq/sequel/query"
)

// Literal returns a random value of a kind every dialect can literalize.
func (g *Generator) Literal() any {
	switch g.Intn(7) {
	case 0:
		return nil
	case 1:
		return g.Int64()
	case 2:
		return float64(g.IntRange(-1000, 1000)) / 8
	case 3:
		return g.Bool()
	case 4:
		return []byte(g.String(8))
	case 5:
		return time.Unix(g.rng.Int63n(4_000_000_000), int64(g.Intn(1_000_000))*1000).UTC()
	}
	return g.EdgeCaseString()
}

// Comparison returns a single comparison on one of cols against a literal.
func (g *Generator) Comparison(cols []string) query.BooleanExpression {
	col := query.I(OneOf(g, cols...))
	switch g.Intn(8) {
	case 0:
		return query.Eq(col, g.Literal())
	case 1:
		return query.Ne(col, g.Int64())
	case 2:
		return query.Gt(col, g.Int64())
	case 3:
		return query.Lte(col, g.EdgeCaseString())
	case 4:
		return query.Like(col, g.EdgeCaseString())
	case 5:
		return query.IsNull(col)
	case 6:
		return query.In(col, SliceN(g, 0, 3, func(g *Generator) any { return g.Int64() }))
	}
	return query.NotIn(col, SliceN(g, 0, 3, func(g *Generator) any { return g.EdgeCaseString() }))
}

// Predicate returns a random predicate tree over cols of at most depth
// junction levels.
func (g *Generator) Predicate(cols []string, depth int) query.Expr {
	if depth <= 0 || g.Float64() < 0.3 {
		return g.Comparison(cols)
	}
	parts := SliceN(g, 1, 3, func(g *Generator) query.Expr {
		return g.Predicate(cols, depth-1)
	})
	switch g.Intn(3) {
	case 0:
		return query.And(parts...)
	case 1:
		return query.Or(parts...)
	}
	return query.Not(parts[0])
}

// InvertiblePredicate is like Predicate without explicit NOT nodes, so every
// node has an inverse form and query.Invert maps the tree back onto itself.
func (g *Generator) InvertiblePredicate(cols []string, depth int) query.Expr {
	if depth <= 0 || g.Float64() < 0.3 {
		return g.Comparison(cols)
	}
	parts := SliceN(g, 1, 3, func(g *Generator) query.Expr {
		return g.InvertiblePredicate(cols, depth-1)
	})
	if g.Bool() {
		return query.And(parts...)
	}
	return query.Or(parts...)
}

// BoundPredicate is like Predicate but every compared value is a named
// placeholder. It returns the bind values the placeholders need.
func (g *Generator) BoundPredicate(cols []string, depth int) (query.Expr, map[string]any) {
	binds := make(map[string]any)
	next := 0
	bind := func(v any) query.Placeholder {
		// Reuse an earlier name now and then so duplicates are exercised.
		if next > 0 && g.Float64() < 0.2 {
			return query.P("p" + strconv.Itoa(g.Intn(next)))
		}
		name := "p" + strconv.Itoa(next)
		next++
		binds[name] = v
		return query.P(name)
	}

	var build func(depth int) query.Expr
	build = func(depth int) query.Expr {
		if depth <= 0 || g.Float64() < 0.3 {
			col := query.I(OneOf(g, cols...))
			switch g.Intn(4) {
			case 0:
				return query.Eq(col, bind(g.Int64()))
			case 1:
				return query.Ne(col, bind(g.EdgeCaseString()))
			case 2:
				return query.Gte(col, bind(float64(g.IntRange(-100, 100))/4))
			}
			return query.Like(col, bind(g.EdgeCaseString()))
		}
		left, right := build(depth-1), build(depth-1)
		if g.Bool() {
			return query.And(left, right)
		}
		return query.Or(left, right)
	}
	return build(depth), binds
}
