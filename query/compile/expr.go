package compile

import (
	"strings"

	"github.com/shipq/sequel/query"
)

// writeExpr renders any expression node.
func (c *Compiler) writeExpr(b *strings.Builder, expr query.Expr) error {
	switch e := expr.(type) {
	case nil:
		b.WriteString("NULL")

	case query.Identifier:
		b.WriteString(c.dialect.QuoteIdentifier(e.Name))

	case query.QualifiedIdentifier:
		c.writeQualified(b, e.Table)
		b.WriteString(".")
		b.WriteString(c.dialect.QuoteIdentifier(e.Name))

	case query.Star:
		if e.Table != "" {
			c.writeQualified(b, e.Table)
			b.WriteString(".")
		}
		b.WriteString("*")

	case query.AliasedExpression:
		if err := c.writeExpr(b, e.Expr); err != nil {
			return err
		}
		b.WriteString(" AS ")
		b.WriteString(c.dialect.QuoteIdentifier(e.Alias))

	case query.OrderedExpression:
		return c.writeOrdered(b, e)

	case query.BooleanExpression:
		return c.writeBoolean(b, e)

	case query.ComplexExpression:
		return c.writeComplex(b, e)

	case query.Function:
		return c.writeFunction(b, e)

	case query.PlaceholderLiteralString:
		return c.writePLS(b, e)

	case query.Subscript:
		if err := c.writeExpr(b, e.Expr); err != nil {
			return err
		}
		b.WriteString("[")
		for i, idx := range e.Indexes {
			if i > 0 {
				b.WriteString(", ")
			}
			if err := c.writeLiteral(b, idx); err != nil {
				return err
			}
		}
		b.WriteString("]")

	case query.CaseExpression:
		return c.writeCase(b, e)

	case query.LiteralString:
		b.WriteString(string(e))

	case query.Placeholder:
		return c.writePlaceholder(b, e)

	case query.Value:
		return c.writeLiteral(b, e.V)

	case query.ValueList:
		return c.writeLiteral(b, e.Values)

	case query.Subquery:
		return c.writeSubquery(b, e.Query)

	case query.Cast:
		b.WriteString("CAST(")
		if err := c.writeExpr(b, e.Expr); err != nil {
			return err
		}
		b.WriteString(" AS ")
		b.WriteString(e.Type)
		b.WriteString(")")

	default:
		return query.NewValueError(query.TypeMismatch, "expression", expr, "unsupported expression type %T", expr)
	}
	return nil
}

// writeQualified quotes each dot-separated part of a table reference.
func (c *Compiler) writeQualified(b *strings.Builder, table string) {
	for i, part := range strings.Split(table, ".") {
		if i > 0 {
			b.WriteString(".")
		}
		b.WriteString(c.dialect.QuoteIdentifier(part))
	}
}

func (c *Compiler) writeExprList(b *strings.Builder, exprs []query.Expr) error {
	for i, e := range exprs {
		if i > 0 {
			b.WriteString(", ")
		}
		if err := c.writeExpr(b, e); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) writeSubquery(b *strings.Builder, ast *query.AST) error {
	if ast == nil {
		return query.NewError(query.MalformedInput, "subquery", "nil query")
	}
	b.WriteString("(")
	if err := c.compileInto(ast, b); err != nil {
		return err
	}
	b.WriteString(")")
	return nil
}

// writePredicate renders the root of a WHERE, HAVING or ON condition.
// Comparisons get their own parentheses there; junctions already have them.
func (c *Compiler) writePredicate(b *strings.Builder, e query.Expr) error {
	switch p := e.(type) {
	case query.Value:
		if v, ok := p.V.(bool); ok && !c.dialect.Features.IsTrue {
			if v {
				b.WriteString("(1 = 1)")
			} else {
				b.WriteString("(1 = 0)")
			}
			return nil
		}
	case query.BooleanExpression:
		if (p.Op == query.OpAnd || p.Op == query.OpOr) && len(p.Args) == 1 {
			return c.writePredicate(b, p.Args[0])
		}
		if p.Op.IsComparison() && !c.selfParenthesized(p) {
			b.WriteString("(")
			if err := c.writeBoolean(b, p); err != nil {
				return err
			}
			b.WriteString(")")
			return nil
		}
	}
	return c.writeExpr(b, e)
}

func (c *Compiler) writeBoolean(b *strings.Builder, e query.BooleanExpression) error {
	switch e.Op {
	case query.OpAnd, query.OpOr:
		return c.writeJunction(b, e)
	case query.OpNot:
		if len(e.Args) != 1 {
			return query.NewValueError(query.MalformedInput, "expression", len(e.Args), "NOT takes one argument")
		}
		b.WriteString("NOT ")
		if selfDelimited(e.Args[0]) {
			return c.writeExpr(b, e.Args[0])
		}
		b.WriteString("(")
		if err := c.writeExpr(b, e.Args[0]); err != nil {
			return err
		}
		b.WriteString(")")
		return nil
	}

	if len(e.Args) != 2 {
		return query.NewValueError(query.MalformedInput, "expression", len(e.Args),
			"%s takes two arguments", e.Op)
	}
	l, r := e.Args[0], e.Args[1]

	switch e.Op {
	case query.OpIs, query.OpIsNot:
		return c.writeIs(b, e.Op, l, r)
	case query.OpIn, query.OpNotIn:
		return c.writeIn(b, e.Op, l, r)
	case query.OpILike, query.OpNotILike:
		if !c.dialect.Features.NativeILike {
			return c.writeILIKEWithLower(b, e.Op, l, r)
		}
	}

	if err := c.writeOperand(b, l); err != nil {
		return err
	}
	b.WriteString(" ")
	b.WriteString(string(e.Op))
	b.WriteString(" ")
	return c.writeOperand(b, r)
}

func (c *Compiler) writeJunction(b *strings.Builder, e query.BooleanExpression) error {
	switch len(e.Args) {
	case 0:
		if e.Op == query.OpAnd {
			b.WriteString("(1 = 1)")
		} else {
			b.WriteString("(1 = 0)")
		}
		return nil
	case 1:
		return c.writeExpr(b, e.Args[0])
	}
	sep := " " + string(e.Op) + " "
	b.WriteString("(")
	for i, arg := range e.Args {
		if i > 0 {
			b.WriteString(sep)
		}
		if err := c.writeExpr(b, arg); err != nil {
			return err
		}
	}
	b.WriteString(")")
	return nil
}

// writeOperand parenthesizes nested comparisons so "(a = b) = c" keeps its shape.
func (c *Compiler) writeOperand(b *strings.Builder, e query.Expr) error {
	if be, ok := e.(query.BooleanExpression); ok && be.Op.IsComparison() {
		b.WriteString("(")
		if err := c.writeBoolean(b, be); err != nil {
			return err
		}
		b.WriteString(")")
		return nil
	}
	return c.writeExpr(b, e)
}

func (c *Compiler) writeIs(b *strings.Builder, op query.BoolOp, l, r query.Expr) error {
	if v, ok := r.(query.Value); ok {
		if t, isBool := v.V.(bool); isBool && !c.dialect.Features.IsTrue {
			return c.writeEmulatedIs(b, op, l, t)
		}
	}
	if err := c.writeOperand(b, l); err != nil {
		return err
	}
	b.WriteString(" ")
	b.WriteString(string(op))
	b.WriteString(" ")
	if v, ok := r.(query.Value); ok {
		switch t := v.V.(type) {
		case nil:
			b.WriteString("NULL")
			return nil
		case bool:
			if t {
				b.WriteString("TRUE")
			} else {
				b.WriteString("FALSE")
			}
			return nil
		}
	}
	return c.writeOperand(b, r)
}

// writeEmulatedIs renders IS [NOT] TRUE/FALSE for dialects whose booleans
// are integers. The negated form must still match NULL.
func (c *Compiler) writeEmulatedIs(b *strings.Builder, op query.BoolOp, l query.Expr, v bool) error {
	lit := c.dialect.BoolLiteral(v)
	if op == query.OpIs {
		if err := c.writeOperand(b, l); err != nil {
			return err
		}
		b.WriteString(" = ")
		b.WriteString(lit)
		return nil
	}
	var col strings.Builder
	if err := c.writeOperand(&col, l); err != nil {
		return err
	}
	b.WriteString("(")
	b.WriteString(col.String())
	b.WriteString(" <> ")
	b.WriteString(lit)
	b.WriteString(" OR ")
	b.WriteString(col.String())
	b.WriteString(" IS NULL)")
	return nil
}

func (c *Compiler) writeIn(b *strings.Builder, op query.BoolOp, l, r query.Expr) error {
	var values []any
	isList := false
	switch v := r.(type) {
	case query.Value:
		if isSliceValue(v.V) {
			values, isList = sliceValues(v.V), true
		}
	case query.ValueList:
		values, isList = v.Values, true
	}
	if isList && len(values) == 0 {
		if op == query.OpIn {
			b.WriteString("(1 = 0)")
		} else {
			b.WriteString("(1 = 1)")
		}
		return nil
	}

	if err := c.writeOperand(b, l); err != nil {
		return err
	}
	b.WriteString(" ")
	b.WriteString(string(op))
	b.WriteString(" ")
	switch v := r.(type) {
	case query.Subquery, query.ValueList:
		return c.writeExpr(b, v)
	case query.Value:
		if isList {
			return c.writeLiteral(b, values)
		}
	}
	// A single value or expression still needs a list.
	b.WriteString("(")
	if err := c.writeExpr(b, r); err != nil {
		return err
	}
	b.WriteString(")")
	return nil
}

func (c *Compiler) writeILIKEWithLower(b *strings.Builder, op query.BoolOp, l, r query.Expr) error {
	b.WriteString("LOWER(")
	if err := c.writeExpr(b, l); err != nil {
		return err
	}
	b.WriteString(")")
	if op == query.OpNotILike {
		b.WriteString(" NOT LIKE LOWER(")
	} else {
		b.WriteString(" LIKE LOWER(")
	}
	if err := c.writeExpr(b, r); err != nil {
		return err
	}
	b.WriteString(")")
	return nil
}

func (c *Compiler) writeComplex(b *strings.Builder, e query.ComplexExpression) error {
	style, overridden := c.dialect.ComplexOps[e.Op]
	if style.Unsupported {
		return c.unsupported("expression", e.Op, "operator %s is not supported", e.Op)
	}
	if len(e.Args) == 0 {
		return query.NewValueError(query.MalformedInput, "expression", e.Op, "operator %s needs arguments", e.Op)
	}
	if overridden && style.Func != "" {
		b.WriteString(style.Func)
		b.WriteString("(")
		if err := c.writeExprList(b, e.Args); err != nil {
			return err
		}
		b.WriteString(")")
		return nil
	}

	token := string(e.Op)
	if overridden && style.Infix != "" {
		token = style.Infix
	}
	if len(e.Args) == 1 {
		if e.Op != query.OpSub && e.Op != query.OpBitNot {
			return c.writeExpr(b, e.Args[0])
		}
		b.WriteString(token)
		if selfDelimitedOperand(e.Args[0]) {
			return c.writeExpr(b, e.Args[0])
		}
		// A bare operand could start with "-" and turn "--" into a comment.
		b.WriteString("(")
		if err := c.writeExpr(b, e.Args[0]); err != nil {
			return err
		}
		b.WriteString(")")
		return nil
	}
	b.WriteString("(")
	for i, arg := range e.Args {
		if i > 0 {
			b.WriteString(" ")
			b.WriteString(token)
			b.WriteString(" ")
		}
		if err := c.writeExpr(b, arg); err != nil {
			return err
		}
	}
	b.WriteString(")")
	return nil
}

// selfDelimitedOperand reports whether e renders starting with a name or an
// opening parenthesis, so a unary operator can precede it directly.
func selfDelimitedOperand(e query.Expr) bool {
	switch x := e.(type) {
	case query.Identifier, query.QualifiedIdentifier, query.Function:
		return true
	case query.ComplexExpression:
		return len(x.Args) > 1
	}
	return false
}

func (c *Compiler) writeFunction(b *strings.Builder, f query.Function) error {
	b.WriteString(f.Name)
	b.WriteString("(")
	if f.Distinct {
		b.WriteString("DISTINCT ")
	}
	if f.Star {
		b.WriteString("*")
	} else if err := c.writeExprList(b, f.Args); err != nil {
		return err
	}
	b.WriteString(")")
	if f.Over == nil {
		return nil
	}

	if !c.dialect.Features.WindowFunctions {
		return c.unsupported("window", f.Name, "window functions are not supported")
	}
	b.WriteString(" OVER (")
	if len(f.Over.PartitionBy) > 0 {
		b.WriteString("PARTITION BY ")
		if err := c.writeExprList(b, f.Over.PartitionBy); err != nil {
			return err
		}
	}
	if len(f.Over.OrderBy) > 0 {
		if len(f.Over.PartitionBy) > 0 {
			b.WriteString(" ")
		}
		b.WriteString("ORDER BY ")
		if err := c.writeExprList(b, f.Over.OrderBy); err != nil {
			return err
		}
	}
	b.WriteString(")")
	return nil
}

func (c *Compiler) writeOrdered(b *strings.Builder, o query.OrderedExpression) error {
	if err := c.writeExpr(b, o.Expr); err != nil {
		return err
	}
	if o.Desc {
		b.WriteString(" DESC")
	} else {
		b.WriteString(" ASC")
	}
	if o.Nulls == query.NullsDefault {
		return nil
	}
	if !c.dialect.Features.NullsOrdering {
		return c.unsupported("order", o.Nulls, "NULLS FIRST/LAST is not supported")
	}
	if o.Nulls == query.NullsFirst {
		b.WriteString(" NULLS FIRST")
	} else {
		b.WriteString(" NULLS LAST")
	}
	return nil
}

func (c *Compiler) writeCase(b *strings.Builder, e query.CaseExpression) error {
	if len(e.Whens) == 0 {
		return query.NewError(query.MalformedInput, "expression", "CASE needs at least one WHEN")
	}
	b.WriteString("(CASE ")
	if e.Subject != nil {
		if err := c.writeExpr(b, e.Subject); err != nil {
			return err
		}
		b.WriteString(" ")
	}
	for _, w := range e.Whens {
		b.WriteString("WHEN ")
		if err := c.writeExpr(b, w.Cond); err != nil {
			return err
		}
		b.WriteString(" THEN ")
		if err := c.writeExpr(b, w.Result); err != nil {
			return err
		}
		b.WriteString(" ")
	}
	if e.Else != nil {
		b.WriteString("ELSE ")
		if err := c.writeExpr(b, e.Else); err != nil {
			return err
		}
		b.WriteString(" ")
	}
	b.WriteString("END)")
	return nil
}

// writePLS substitutes literalized arguments into a template.
func (c *Compiler) writePLS(b *strings.Builder, p query.PlaceholderLiteralString) error {
	if p.Parens {
		b.WriteString("(")
	}
	var err error
	if p.Named != nil {
		err = c.writeNamedTemplate(b, p.Template, p.Named)
	} else {
		err = c.writePositionalTemplate(b, "literal", p.Template, p.Args)
	}
	if err != nil {
		return err
	}
	if p.Parens {
		b.WriteString(")")
	}
	return nil
}

func (c *Compiler) writePositionalTemplate(b *strings.Builder, clause, template string, args []any) error {
	if n := query.CountPlaceholders(template); n != len(args) {
		return query.NewValueError(query.MalformedInput, clause, template,
			"template has %d placeholders but %d arguments were given", n, len(args))
	}
	next := 0
	inQuote := false
	for i := 0; i < len(template); i++ {
		ch := template[i]
		switch {
		case ch == '\'':
			inQuote = !inQuote
			b.WriteByte(ch)
		case ch == '?' && !inQuote:
			if err := c.writeLiteral(b, args[next]); err != nil {
				return err
			}
			next++
		default:
			b.WriteByte(ch)
		}
	}
	return nil
}

func (c *Compiler) writeNamedTemplate(b *strings.Builder, template string, args map[string]any) error {
	segments, names := query.SplitNamed(template)
	for i, seg := range segments {
		b.WriteString(seg)
		if i == len(names) {
			break
		}
		v, ok := args[names[i]]
		if !ok {
			return query.NewValueError(query.MalformedInput, "literal", names[i], "no value for :%s", names[i])
		}
		if err := c.writeLiteral(b, v); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) writeRawSQL(b *strings.Builder, raw *query.RawSQL) error {
	if len(raw.Args) == 0 {
		b.WriteString(raw.SQL)
		return nil
	}
	return c.writePositionalTemplate(b, "sql", raw.SQL, raw.Args)
}

// writePlaceholder writes a native marker and records the bind name, or in
// emulated mode writes the bound value itself.
func (c *Compiler) writePlaceholder(b *strings.Builder, p query.Placeholder) error {
	if c.state.Emulate {
		v, ok := c.state.Binds[p.Name]
		if !ok {
			return query.NewValueError(query.MissingBindVariable, "bind", p.Name, "no value bound for :%s", p.Name)
		}
		return c.writeLiteral(b, v)
	}
	c.state.ParamCount++
	c.state.Params = append(c.state.Params, p.Name)
	b.WriteString(c.dialect.PlaceholderMarker(c.state.ParamCount))
	return nil
}

// selfParenthesized reports whether a comparison renders its own outer
// parentheses: empty IN lists and emulated IS NOT TRUE/FALSE.
func (c *Compiler) selfParenthesized(e query.BooleanExpression) bool {
	if len(e.Args) != 2 {
		return false
	}
	switch e.Op {
	case query.OpIn, query.OpNotIn:
		switch v := e.Args[1].(type) {
		case query.ValueList:
			return len(v.Values) == 0
		case query.Value:
			return isSliceValue(v.V) && len(sliceValues(v.V)) == 0
		}
	case query.OpIsNot:
		if v, ok := e.Args[1].(query.Value); ok {
			_, isBool := v.V.(bool)
			return isBool && !c.dialect.Features.IsTrue
		}
	}
	return false
}

// selfDelimited reports whether NOT can precede e without parentheses.
func selfDelimited(e query.Expr) bool {
	switch x := e.(type) {
	case query.Identifier, query.QualifiedIdentifier, query.Function, query.Subquery, query.CaseExpression:
		return true
	case query.BooleanExpression:
		return (x.Op == query.OpAnd || x.Op == query.OpOr) && len(x.Args) != 1
	case query.PlaceholderLiteralString:
		return x.Parens
	}
	return false
}
