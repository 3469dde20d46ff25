package compile

import (
	"strconv"
	"strings"

	"github.com/shipq/sequel/query"
)

// defaultClauses maps clause names to their standard emitters. Dialects
// override individual entries through Dialect.clauses.
var defaultClauses map[string]ClauseFunc

func init() {
	defaultClauses = map[string]ClauseFunc{
		"with":      writeWith,
		"select":    writeSelectKeyword,
		"distinct":  writeDistinct,
		"columns":   writeColumns,
		"from":      writeFrom,
		"join":      writeJoins,
		"where":     writeWhere,
		"group":     writeGroup,
		"having":    writeHaving,
		"compounds": writeCompounds,
		"order":     writeOrder,
		"limit":     writeLimit,
		"lock":      writeLock,
		"insert":    writeInsert,
		"values":    writeValues,
		"update":    writeUpdate,
		"set":       writeSet,
		"delete":    writeDelete,
		"returning": writeReturning,
	}
}

func defaultSourceAlias(i int) string { return query.PositionalAlias(i) }

// ===== Shared clauses =====

func writeWith(c *Compiler, b *strings.Builder, ast *query.AST) error {
	if len(ast.With) == 0 {
		return nil
	}
	f := c.dialect.Features
	if !f.CTE {
		return c.unsupported("with", ast.With[0].Name, "common table expressions are not supported")
	}
	recursive := false
	for _, cte := range ast.With {
		if cte.Recursive {
			recursive = true
		}
	}
	if recursive && !f.RecursiveCTE {
		return c.unsupported("with", ast.With[0].Name, "recursive common table expressions are not supported")
	}

	b.WriteString("WITH ")
	if recursive && f.RecursiveKeyword {
		b.WriteString("RECURSIVE ")
	}
	for i, cte := range ast.With {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.dialect.QuoteIdentifier(cte.Name))
		if len(cte.Columns) > 0 {
			b.WriteString(" (")
			for j, col := range cte.Columns {
				if j > 0 {
					b.WriteString(", ")
				}
				b.WriteString(c.dialect.QuoteIdentifier(col))
			}
			b.WriteString(")")
		}
		b.WriteString(" AS ")
		if err := c.writeSubquery(b, cte.Query); err != nil {
			return err
		}
	}
	b.WriteString(" ")
	return nil
}

func writeWhere(c *Compiler, b *strings.Builder, ast *query.AST) error {
	if ast.Where == nil {
		return nil
	}
	b.WriteString(" WHERE ")
	return c.writePredicate(b, ast.Where)
}

func writeOrder(c *Compiler, b *strings.Builder, ast *query.AST) error {
	if len(ast.Order) == 0 {
		return nil
	}
	b.WriteString(" ORDER BY ")
	return c.writeExprList(b, ast.Order)
}

func writeLimit(c *Compiler, b *strings.Builder, ast *query.AST) error {
	switch {
	case ast.Limit != nil:
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(*ast.Limit))
	case ast.Offset != nil && c.dialect.MaxLimit != "":
		b.WriteString(" LIMIT ")
		b.WriteString(c.dialect.MaxLimit)
	}
	if ast.Offset != nil {
		b.WriteString(" OFFSET ")
		b.WriteString(strconv.Itoa(*ast.Offset))
	}
	return nil
}

func writeReturning(c *Compiler, b *strings.Builder, ast *query.AST) error {
	if len(ast.Returning) == 0 {
		return nil
	}
	if !c.dialect.Features.Returning {
		return c.unsupported("returning", len(ast.Returning), "RETURNING is not supported")
	}
	b.WriteString(" RETURNING ")
	return c.writeExprList(b, ast.Returning)
}

// ===== SELECT clauses =====

func writeSelectKeyword(c *Compiler, b *strings.Builder, ast *query.AST) error {
	b.WriteString("SELECT")
	return nil
}

func writeDistinct(c *Compiler, b *strings.Builder, ast *query.AST) error {
	if len(ast.DistinctOn) > 0 {
		if !c.dialect.Features.DistinctOn {
			return c.unsupported("distinct", len(ast.DistinctOn), "DISTINCT ON is not supported")
		}
		b.WriteString(" DISTINCT ON (")
		if err := c.writeExprList(b, ast.DistinctOn); err != nil {
			return err
		}
		b.WriteString(")")
		return nil
	}
	if ast.Distinct {
		b.WriteString(" DISTINCT")
	}
	return nil
}

func writeColumns(c *Compiler, b *strings.Builder, ast *query.AST) error {
	if len(ast.Columns) == 0 {
		b.WriteString(" *")
		return nil
	}
	b.WriteString(" ")
	return c.writeExprList(b, ast.Columns)
}

func writeFrom(c *Compiler, b *strings.Builder, ast *query.AST) error {
	if len(ast.From) == 0 {
		b.WriteString(c.dialect.EmptyFrom)
		return nil
	}
	b.WriteString(" FROM ")
	for i, src := range ast.From {
		if i > 0 {
			b.WriteString(", ")
		}
		if err := c.writeSource(b, src, defaultSourceAlias(i)); err != nil {
			return err
		}
	}
	return nil
}

// writeSource renders a FROM or JOIN source. Derived tables always carry an
// alias; fallback is used when the source has none.
func (c *Compiler) writeSource(b *strings.Builder, src query.Expr, fallback string) error {
	switch s := src.(type) {
	case query.AliasedExpression:
		if err := c.writeTable(b, s.Expr); err != nil {
			return err
		}
		c.writeTableAlias(b, s.Alias)
		return nil
	case query.Subquery:
		if err := c.writeSubquery(b, s.Query); err != nil {
			return err
		}
		c.writeTableAlias(b, fallback)
		return nil
	}
	return c.writeTable(b, src)
}

func (c *Compiler) writeTable(b *strings.Builder, t query.Expr) error {
	if id, ok := t.(query.Identifier); ok {
		c.writeQualified(b, id.Name)
		return nil
	}
	return c.writeExpr(b, t)
}

func (c *Compiler) writeTableAlias(b *strings.Builder, alias string) {
	if c.dialect.Features.TableAliasAS {
		b.WriteString(" AS ")
	} else {
		b.WriteString(" ")
	}
	b.WriteString(c.dialect.QuoteIdentifier(alias))
}

func writeJoins(c *Compiler, b *strings.Builder, ast *query.AST) error {
	f := c.dialect.Features
	for _, j := range ast.Joins {
		switch j.Type {
		case query.FullJoin, query.NaturalFullJoin:
			if !f.FullOuterJoin {
				return c.unsupported("join", j.Type, "FULL OUTER JOIN is not supported")
			}
		}
		if !j.Type.TakesCondition() && j.Type != query.CrossJoin && !f.NaturalJoins {
			return c.unsupported("join", j.Type, "NATURAL JOIN is not supported")
		}
		if len(j.Using) > 0 && !f.UsingJoins {
			return c.unsupported("join", j.Using, "JOIN USING is not supported")
		}

		b.WriteString(" ")
		b.WriteString(string(j.Type))
		b.WriteString(" JOIN ")
		table := j.Table
		if a, ok := table.(query.AliasedExpression); ok {
			table = a.Expr
		}
		if err := c.writeTable(b, table); err != nil {
			return err
		}
		if j.Alias != "" && j.Alias != query.SourceAlias(table) {
			c.writeTableAlias(b, j.Alias)
		}

		switch {
		case len(j.Using) > 0:
			b.WriteString(" USING (")
			for i, col := range j.Using {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(c.dialect.QuoteIdentifier(col))
			}
			b.WriteString(")")
		case j.On != nil:
			b.WriteString(" ON ")
			if err := c.writePredicate(b, j.On); err != nil {
				return err
			}
		case j.Type.TakesCondition():
			return query.NewValueError(query.MalformedInput, "join", j.Alias, "%s JOIN requires a condition", j.Type)
		}
	}
	return nil
}

func writeGroup(c *Compiler, b *strings.Builder, ast *query.AST) error {
	if len(ast.Group) == 0 {
		return nil
	}
	b.WriteString(" GROUP BY ")
	return c.writeExprList(b, ast.Group)
}

func writeHaving(c *Compiler, b *strings.Builder, ast *query.AST) error {
	if ast.Having == nil {
		return nil
	}
	b.WriteString(" HAVING ")
	return c.writePredicate(b, ast.Having)
}

func writeCompounds(c *Compiler, b *strings.Builder, ast *query.AST) error {
	f := c.dialect.Features
	for _, comp := range ast.Compounds {
		keyword := string(comp.Op)
		if comp.Op != query.Union {
			if !f.IntersectExcept {
				return c.unsupported("compounds", comp.Op, "%s is not supported", comp.Op)
			}
			if comp.All && !f.IntersectExceptAll {
				return c.unsupported("compounds", comp.Op, "%s ALL is not supported", comp.Op)
			}
			if comp.Op == query.Except && c.dialect.ExceptKeyword != "" {
				keyword = c.dialect.ExceptKeyword
			}
		}

		b.WriteString(" ")
		b.WriteString(keyword)
		if comp.All {
			b.WriteString(" ALL")
		}
		b.WriteString(" ")

		right := comp.Query
		if right == nil {
			return query.NewError(query.MalformedInput, "compounds", "nil compound query")
		}
		if !right.IsSimpleSelect() && right.RawSQL == nil {
			right = query.FromSelf(right, defaultSourceAlias(0))
		}
		if f.ParenthesizedCompounds {
			if err := c.writeSubquery(b, right); err != nil {
				return err
			}
			continue
		}
		if err := c.compileInto(right, b); err != nil {
			return err
		}
	}
	return nil
}

func writeLock(c *Compiler, b *strings.Builder, ast *query.AST) error {
	switch ast.Lock {
	case query.LockNone:
		return nil
	case query.ForShare:
		if !c.dialect.Features.ShareLock {
			return c.unsupported("lock", ast.Lock, "shared row locks are not supported")
		}
	}
	b.WriteString(" ")
	b.WriteString(string(ast.Lock))
	return nil
}

// ===== DML clauses =====

func writeInsert(c *Compiler, b *strings.Builder, ast *query.AST) error {
	b.WriteString("INSERT INTO ")
	if err := c.writeTable(b, ast.From[0]); err != nil {
		return err
	}
	if ast.Insert == nil || len(ast.Insert.Columns) == 0 {
		return nil
	}
	b.WriteString(" (")
	if err := c.writeExprList(b, ast.Insert.Columns); err != nil {
		return err
	}
	b.WriteString(")")
	return nil
}

func writeValues(c *Compiler, b *strings.Builder, ast *query.AST) error {
	p := ast.Insert
	if p == nil || p.DefaultValues || (p.Select == nil && len(p.Rows) == 0) {
		b.WriteString(c.dialect.DefaultValues)
		return nil
	}
	if p.Select != nil {
		b.WriteString(" ")
		return c.compileInto(p.Select, b)
	}
	if len(p.Rows) > 1 && !c.dialect.Features.MultiRowInsert {
		return c.unsupported("values", len(p.Rows), "multi-row VALUES is not supported")
	}

	b.WriteString(" VALUES ")
	for i, row := range p.Rows {
		if len(p.Columns) > 0 && len(row) != len(p.Columns) {
			return query.NewValueError(query.MalformedInput, "values", row,
				"row %d has %d values for %d columns", i, len(row), len(p.Columns))
		}
		if i > 0 {
			b.WriteString(", ")
		}
		if err := c.writeList(b, row); err != nil {
			return err
		}
	}
	return nil
}

func writeUpdate(c *Compiler, b *strings.Builder, ast *query.AST) error {
	b.WriteString("UPDATE ")
	return c.writeSource(b, ast.From[0], defaultSourceAlias(0))
}

func writeSet(c *Compiler, b *strings.Builder, ast *query.AST) error {
	if len(ast.Set) == 0 {
		return query.NewError(query.MalformedInput, "set", "UPDATE requires at least one column")
	}
	b.WriteString(" SET ")
	for i, s := range ast.Set {
		if i > 0 {
			b.WriteString(", ")
		}
		if err := c.writeExpr(b, s.Column); err != nil {
			return err
		}
		b.WriteString(" = ")
		if err := c.writeLiteral(b, s.Value); err != nil {
			return err
		}
	}
	return nil
}

func writeDelete(c *Compiler, b *strings.Builder, ast *query.AST) error {
	b.WriteString("DELETE FROM ")
	return c.writeSource(b, ast.From[0], defaultSourceAlias(0))
}

// ===== Dialect-specific clauses =====

// writeMySQLLock spells shared locks the MySQL 5.7 way.
func writeMySQLLock(c *Compiler, b *strings.Builder, ast *query.AST) error {
	if ast.Lock == query.ForShare {
		b.WriteString(" LOCK IN SHARE MODE")
		return nil
	}
	return writeLock(c, b, ast)
}

// writeTop emits TOP (n) after SELECT [DISTINCT]. TOP has no offset form.
func writeTop(c *Compiler, b *strings.Builder, ast *query.AST) error {
	if ast.Offset != nil {
		return c.unsupported("limit", *ast.Offset, "OFFSET without ORDER BY ... OFFSET FETCH is not supported")
	}
	if ast.Limit == nil {
		return nil
	}
	b.WriteString(" TOP (")
	b.WriteString(strconv.Itoa(*ast.Limit))
	b.WriteString(")")
	return nil
}

// writeTableHint renders row locks as table hints on the FROM source.
func writeTableHint(c *Compiler, b *strings.Builder, ast *query.AST) error {
	switch ast.Lock {
	case query.LockNone:
	case query.ForUpdate:
		b.WriteString(" WITH (UPDLOCK)")
	case query.ForShare:
		b.WriteString(" WITH (HOLDLOCK)")
	case query.SkipLocked:
		b.WriteString(" WITH (UPDLOCK, READPAST)")
	default:
		b.WriteString(" ")
		b.WriteString(string(ast.Lock))
	}
	return nil
}

// writeOutput is RETURNING spelled as an OUTPUT clause over the
// INSERTED or DELETED pseudo-tables.
func writeOutput(c *Compiler, b *strings.Builder, ast *query.AST) error {
	if len(ast.Returning) == 0 {
		return nil
	}
	pseudo := "INSERTED"
	if ast.Kind == query.DeleteQuery {
		pseudo = "DELETED"
	}
	b.WriteString(" OUTPUT ")
	for i, e := range ast.Returning {
		if i > 0 {
			b.WriteString(", ")
		}
		alias := ""
		if a, ok := e.(query.AliasedExpression); ok {
			e, alias = a.Expr, a.Alias
		}
		switch x := e.(type) {
		case query.Identifier:
			b.WriteString(pseudo + "." + c.dialect.QuoteIdentifier(x.Name))
		case query.QualifiedIdentifier:
			b.WriteString(pseudo + "." + c.dialect.QuoteIdentifier(x.Name))
		case query.Star:
			b.WriteString(pseudo + ".*")
		default:
			if err := c.writeExpr(b, e); err != nil {
				return err
			}
		}
		if alias != "" {
			b.WriteString(" AS ")
			b.WriteString(c.dialect.QuoteIdentifier(alias))
		}
	}
	return nil
}

// writeFetchFirst is the DB2 limit. Offsets never reach it; they are
// rewritten into a ROW_NUMBER() filter first.
func writeFetchFirst(c *Compiler, b *strings.Builder, ast *query.AST) error {
	if ast.Offset != nil {
		return c.unsupported("limit", *ast.Offset, "OFFSET is not supported")
	}
	if ast.Limit == nil {
		return nil
	}
	b.WriteString(" FETCH FIRST ")
	b.WriteString(strconv.Itoa(*ast.Limit))
	b.WriteString(" ROWS ONLY")
	return nil
}

// writeFirstSkip is the Firebird limit, written before the column list.
func writeFirstSkip(c *Compiler, b *strings.Builder, ast *query.AST) error {
	if ast.Limit != nil {
		b.WriteString(" FIRST ")
		b.WriteString(strconv.Itoa(*ast.Limit))
	}
	if ast.Offset != nil {
		b.WriteString(" SKIP ")
		b.WriteString(strconv.Itoa(*ast.Offset))
	}
	return nil
}
