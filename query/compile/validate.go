package compile

import (
	"regexp"
	"slices"

	"github.com/shipq/sequel/query"
)

// identifierRegex matches valid SQL identifiers.
// Identifiers must start with a letter or underscore, followed by letters, digits, or underscores.
var identifierRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidateIdentifier checks that a name can be used as an alias or CTE name
// without quoting surprises.
func ValidateIdentifier(name string) error {
	if name == "" {
		return query.NewError(query.MalformedInput, "identifier", "identifier cannot be empty")
	}
	if !identifierRegex.MatchString(name) {
		return query.NewValueError(query.MalformedInput, "identifier", name,
			"must start with a letter or underscore and contain only letters, digits, and underscores")
	}
	return nil
}

// validateAliases checks that every table qualifier in the select list,
// GROUP BY and ORDER BY names a source visible from this query.
func (c *Compiler) validateAliases(ast *query.AST) error {
	check := func(clause string, exprs []query.Expr) error {
		var bad string
		visit := func(e query.Expr) bool {
			if bad != "" {
				return false
			}
			switch x := e.(type) {
			case query.Subquery, query.Value:
				return false
			case query.QualifiedIdentifier:
				if !c.aliasVisible(x.Table) {
					bad = x.Table
				}
			case query.Star:
				if x.Table != "" && !c.aliasVisible(x.Table) {
					bad = x.Table
				}
			}
			return true
		}
		for _, e := range exprs {
			query.Walk(e, visit)
			if bad != "" {
				return query.NewValueError(query.InvalidOperation, clause, bad,
					"table %q is not a source or join alias of this query", bad)
			}
		}
		return nil
	}

	if err := check("columns", ast.Columns); err != nil {
		return err
	}
	if err := check("group", ast.Group); err != nil {
		return err
	}
	return check("order", ast.Order)
}

func (c *Compiler) aliasVisible(table string) bool {
	for i := len(c.state.scopes) - 1; i >= 0; i-- {
		if slices.Contains(c.state.scopes[i], table) {
			return true
		}
	}
	return false
}
