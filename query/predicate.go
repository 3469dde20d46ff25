package query

import (
	"reflect"
	"strings"
)

// Hash is a column → value condition map. Keys are parsed with C, and
// conditions are emitted in sorted key order so output is deterministic.
type Hash map[string]any

// Pair is one key/value condition. Key is a column string or an Expr.
type Pair struct {
	Key   any
	Value any
}

// Pairs is an ordered condition list that, unlike Hash, keeps duplicate keys.
type Pairs []Pair

// VirtualRow builds expressions inside a RowFunc. It carries no state; it
// exists so filter blocks read the same way whatever they construct.
type VirtualRow struct{}

// I builds an identifier.
func (VirtualRow) I(name string) Identifier { return I(name) }

// Q builds a qualified identifier.
func (VirtualRow) Q(table, name string) QualifiedIdentifier { return Q(table, name) }

// F builds a function call.
func (VirtualRow) F(name string, args ...any) Function { return F(name, args...) }

// L builds a placeholder literal string.
func (VirtualRow) L(template string, args ...any) PlaceholderLiteralString {
	return L(template, args...)
}

// RowFunc is a deferred predicate block.
type RowFunc func(VirtualRow) Expr

const predicateClause = "filter"

// BuildPredicate converts a filter input into a predicate expression.
//
// Accepted inputs: Hash, map[string]any, Pairs, []Pair, a string template
// with positional args (or one map for ":name" args), a bare string used as a
// literal fragment, RowFunc or func(VirtualRow) Expr, and any Expr.
func BuildPredicate(input any, args ...any) (Expr, error) {
	if s, ok := input.(string); ok {
		return stringPredicate(s, args)
	}
	if len(args) > 0 {
		return nil, NewValueError(MalformedInput, predicateClause, input,
			"arguments are only accepted with a string template")
	}

	switch v := input.(type) {
	case Hash:
		return hashPredicate(map[string]any(v))
	case map[string]any:
		return hashPredicate(v)
	case Pairs:
		return pairsPredicate(v)
	case []Pair:
		return pairsPredicate(v)
	case RowFunc:
		return rowPredicate(v)
	case func(VirtualRow) Expr:
		return rowPredicate(v)
	case LiteralString:
		return PlaceholderLiteralString{Template: string(v), Parens: true}, nil
	case Expr:
		return v, nil
	case bool:
		return Value{V: v}, nil
	}
	return nil, NewValueError(MalformedInput, predicateClause, input,
		"unsupported filter argument %T", input)
}

func stringPredicate(s string, args []any) (Expr, error) {
	if len(args) == 0 {
		return PlaceholderLiteralString{Template: s, Parens: true}, nil
	}
	if len(args) == 1 {
		var named map[string]any
		switch m := args[0].(type) {
		case Hash:
			named = m
		case map[string]any:
			named = m
		}
		if named != nil {
			return PlaceholderLiteralString{Template: s, Named: named, Parens: true}, nil
		}
	}
	if n := CountPlaceholders(s); n != len(args) {
		return nil, NewValueError(MalformedInput, predicateClause, s,
			"template has %d placeholders but %d arguments were given", n, len(args))
	}
	return PlaceholderLiteralString{Template: s, Args: args, Parens: true}, nil
}

// CountPlaceholders counts "?" markers outside single-quoted strings.
func CountPlaceholders(template string) int {
	n := 0
	inQuote := false
	for i := 0; i < len(template); i++ {
		switch template[i] {
		case '\'':
			inQuote = !inQuote
		case '?':
			if !inQuote {
				n++
			}
		}
	}
	return n
}

func rowPredicate(fn func(VirtualRow) Expr) (Expr, error) {
	e := fn(VirtualRow{})
	if e == nil {
		return nil, NewError(MalformedInput, predicateClause, "filter block returned no expression")
	}
	return e, nil
}

func hashPredicate(h map[string]any) (Expr, error) {
	if len(h) == 0 {
		return nil, NewValueError(MalformedInput, predicateClause, h, "empty condition map")
	}
	return pairsPredicate(hashToPairs(h))
}

func pairsPredicate(pairs []Pair) (Expr, error) {
	if len(pairs) == 0 {
		return nil, NewValueError(MalformedInput, predicateClause, pairs, "empty condition list")
	}
	conds := make([]Expr, 0, len(pairs))
	for _, p := range pairs {
		var key Expr
		switch k := p.Key.(type) {
		case string:
			key = C(k)
		case Expr:
			key = k
		default:
			return nil, NewValueError(MalformedInput, predicateClause, p.Key,
				"condition key must be a string or expression")
		}
		cond, err := PairCondition(key, p.Value)
		if err != nil {
			return nil, err
		}
		conds = append(conds, cond)
	}
	if len(conds) == 1 {
		return conds[0], nil
	}
	return And(conds...), nil
}

// PairCondition builds the condition for one key/value pair: nil tests IS
// NULL, bools test IS TRUE/FALSE, ranges become bounded comparisons, slices
// and subqueries become IN, and everything else is equality.
func PairCondition(key Expr, value any) (Expr, error) {
	switch v := value.(type) {
	case nil:
		return IsNull(key), nil
	case bool:
		return compare(OpIs, key, v), nil
	case Range:
		hi := Lte(key, v.Hi)
		if v.Exclusive {
			hi = Lt(key, v.Hi)
		}
		return And(Gte(key, v.Lo), hi), nil
	case *Range:
		return PairCondition(key, *v)
	case *AST, Queryable, Subquery:
		return compare(OpIn, key, v), nil
	case ValueList:
		if len(v.Values) == 0 {
			return matchNothing(), nil
		}
		return compare(OpIn, key, v), nil
	case []byte:
		return Eq(key, v), nil
	}
	if isSlice(value) {
		if reflect.ValueOf(value).Len() == 0 {
			return matchNothing(), nil
		}
		return compare(OpIn, key, value), nil
	}
	return Eq(key, value), nil
}

// matchNothing is the condition for an empty IN list. Inverting it yields
// 1 <> 0, so an excluded empty list matches everything.
func matchNothing() BooleanExpression {
	return Eq(Value{V: 1}, Value{V: 0})
}

func isSlice(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.([]byte); ok {
		return false
	}
	t := reflect.TypeOf(v)
	switch t.Kind() {
	case reflect.Slice:
		return true
	case reflect.Array:
		// Fixed-size byte arrays such as UUIDs are scalars.
		return t.Elem().Kind() != reflect.Uint8
	}
	return false
}

// Filter AND-combines a new predicate with an existing one (which may be nil).
func Filter(existing Expr, input any, args ...any) (Expr, error) {
	cond, err := BuildPredicate(input, args...)
	if err != nil {
		return nil, err
	}
	return AndWith(existing, cond), nil
}

// AndWith combines two predicates, returning the other when one is nil.
func AndWith(existing, cond Expr) Expr {
	if existing == nil {
		return cond
	}
	if cond == nil {
		return existing
	}
	return And(existing, cond)
}

// OrWith OR-combines a new predicate with an existing one. There must be
// an existing predicate to alternate with.
func OrWith(clause string, existing Expr, input any, args ...any) (Expr, error) {
	if existing == nil {
		return nil, NewError(InvalidOperation, clause, "no existing filter to OR with")
	}
	cond, err := BuildPredicate(input, args...)
	if err != nil {
		return nil, err
	}
	return Or(existing, cond), nil
}

// Exclude AND-combines the inversion of a new predicate with an existing one.
func Exclude(existing Expr, input any, args ...any) (Expr, error) {
	cond, err := BuildPredicate(input, args...)
	if err != nil {
		return nil, err
	}
	return AndWith(existing, Invert(cond)), nil
}

func isIdentChar(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

// SplitNamed returns the literal segments and marker names of a ":name"
// template. len(segments) == len(names)+1. A "::" sequence is kept literal.
func SplitNamed(template string) (segments []string, names []string) {
	var b strings.Builder
	for i := 0; i < len(template); i++ {
		c := template[i]
		if c == ':' && i+1 < len(template) && template[i+1] == ':' {
			b.WriteString("::")
			i++
			continue
		}
		if c == ':' && i+1 < len(template) && isIdentChar(template[i+1]) && (i == 0 || !isIdentChar(template[i-1])) {
			j := i + 1
			for j < len(template) && isIdentChar(template[j]) {
				j++
			}
			segments = append(segments, b.String())
			b.Reset()
			names = append(names, template[i+1:j])
			i = j - 1
			continue
		}
		b.WriteByte(c)
	}
	segments = append(segments, b.String())
	return segments, names
}
