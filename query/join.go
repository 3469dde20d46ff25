package query

import (
	"maps"
	"slices"
	"strconv"
)

// JoinFunc builds a join condition from the alias of the table being
// joined, the alias of the previous table and the joins so far.
type JoinFunc func(joined, last string, joins []JoinClause) Expr

// JoinOptions adjust how a join target and its condition are resolved.
type JoinOptions struct {
	// TableAlias overrides the alias of the joined table.
	TableAlias string
	// ImplicitQualifier qualifies the value side of column-pair conditions
	// instead of the previous table.
	ImplicitQualifier string
}

const joinClause = "join"

func syntheticAlias(n int) string { return "t" + strconv.Itoa(n) }

// Join appends a join to a copy of ast. Subquery targets get a synthetic
// tN alias from the descriptor's join counter unless an alias is given.
func Join(ast *AST, jt JoinType, target any, cond any, opts JoinOptions) (*AST, error) {
	out := ast.Clone()

	table, alias, err := resolveJoinTarget(out, target, opts.TableAlias)
	if err != nil {
		return nil, err
	}
	for _, existing := range ast.SourceAliases() {
		if existing == alias {
			return nil, NewValueError(AliasConflict, joinClause, alias,
				"table alias %q is already used in this query", alias)
		}
	}

	jc := JoinClause{Type: jt, Table: table, Alias: alias}
	if !jt.TakesCondition() {
		if cond != nil {
			return nil, NewValueError(MalformedInput, joinClause, cond,
				"%s JOIN does not take a condition", jt)
		}
		out.Joins = append(out.Joins, jc)
		return out, nil
	}
	if cond == nil {
		return nil, NewValueError(MalformedInput, joinClause, target,
			"%s JOIN requires a condition", jt)
	}

	last := opts.ImplicitQualifier
	if last == "" {
		last = ast.LastAlias()
	}

	switch c := cond.(type) {
	case []string:
		if len(c) == 0 {
			return nil, NewValueError(MalformedInput, joinClause, c, "USING requires at least one column")
		}
		jc.Using = append([]string(nil), c...)
	case JoinFunc:
		jc.On = c(alias, last, cloneSlice(ast.Joins))
	case func(joined, last string, joins []JoinClause) Expr:
		jc.On = c(alias, last, cloneSlice(ast.Joins))
	case Hash:
		jc.On, err = joinPairs(hashToPairs(c), alias, last)
	case map[string]any:
		jc.On, err = joinPairs(hashToPairs(c), alias, last)
	case Pairs:
		jc.On, err = joinPairs(c, alias, last)
	case []Pair:
		jc.On, err = joinPairs(c, alias, last)
	default:
		jc.On, err = BuildPredicate(cond)
	}
	if err != nil {
		return nil, err
	}
	if jc.On == nil && jc.Using == nil {
		return nil, NewValueError(MalformedInput, joinClause, cond, "join condition resolved to nothing")
	}

	out.Joins = append(out.Joins, jc)
	return out, nil
}

func resolveJoinTarget(ast *AST, target any, alias string) (Expr, string, error) {
	var table Expr
	switch t := target.(type) {
	case string:
		if t == "" {
			return nil, "", NewError(MalformedInput, joinClause, "empty join table name")
		}
		table = C(t)
	case *AST:
		table = Subquery{Query: t}
	case Queryable:
		table = Subquery{Query: t.QueryAST()}
	case Identifier, QualifiedIdentifier, Subquery, LiteralString, Function:
		table = t.(Expr)
	case AliasedExpression:
		if alias == "" {
			alias = t.Alias
		}
		table = t.Expr
	default:
		return nil, "", NewValueError(MalformedInput, joinClause, target,
			"unsupported join target %T", target)
	}

	if alias == "" {
		switch t := table.(type) {
		case Subquery, Function:
			alias = ast.NextAlias()
		case AliasedExpression:
			alias = t.Alias
			table = t.Expr
		default:
			alias = SourceAlias(table)
		}
	}
	return table, alias, nil
}

func hashToPairs(h map[string]any) Pairs {
	var pairs Pairs
	for _, k := range slices.Sorted(maps.Keys(h)) {
		pairs = append(pairs, Pair{Key: k, Value: h[k]})
	}
	return pairs
}

// joinPairs qualifies each key with the joined alias and each bare column
// value with the previous table's alias.
func joinPairs(pairs []Pair, joined, last string) (Expr, error) {
	if len(pairs) == 0 {
		return nil, NewValueError(MalformedInput, joinClause, pairs, "empty join condition")
	}
	conds := make([]Expr, 0, len(pairs))
	for _, p := range pairs {
		var key Expr
		switch k := p.Key.(type) {
		case string:
			key = qualify(C(k), joined)
		case Expr:
			key = qualify(k, joined)
		default:
			return nil, NewValueError(MalformedInput, joinClause, p.Key,
				"join condition key must be a string or expression")
		}

		var cond Expr
		switch v := p.Value.(type) {
		case string:
			cond = Eq(key, qualify(C(v), last))
		case Identifier:
			cond = Eq(key, qualify(v, last))
		default:
			var err error
			if cond, err = PairCondition(key, p.Value); err != nil {
				return nil, err
			}
		}
		conds = append(conds, cond)
	}
	if len(conds) == 1 {
		return conds[0], nil
	}
	return And(conds...), nil
}

func qualify(e Expr, table string) Expr {
	if id, ok := e.(Identifier); ok && table != "" {
		return Q(table, id.Name)
	}
	return e
}
