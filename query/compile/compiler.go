package compile

import (
	"fmt"
	"strings"

	"github.com/shipq/sequel/query"
)

// Compiler compiles query descriptors to SQL for a specific dialect.
type Compiler struct {
	dialect *Dialect
	state   *CompilerState
}

// CompilerState holds the mutable state during compilation.
// This is separate from Dialect to allow proper subquery handling.
type CompilerState struct {
	ParamCount int
	Params     []string

	// Emulate literalizes Placeholder nodes from Binds instead of writing
	// native markers.
	Emulate bool
	Binds   map[string]any

	// scopes holds the table aliases visible to each nested SELECT.
	scopes [][]string
}

// NewCompiler creates a compiler that writes native bind markers.
func NewCompiler(dialect *Dialect) *Compiler {
	return &Compiler{
		dialect: dialect,
		state:   &CompilerState{},
	}
}

// NewEmulatedCompiler creates a compiler that substitutes bind values
// directly into the SQL text.
func NewEmulatedCompiler(dialect *Dialect, binds map[string]any) *Compiler {
	return &Compiler{
		dialect: dialect,
		state:   &CompilerState{Emulate: true, Binds: binds},
	}
}

// Dialect returns the compiler's dialect.
func (c *Compiler) Dialect() *Dialect { return c.dialect }

// Compile compiles a descriptor to SQL.
// Returns the SQL string and the parameter names in order (including duplicates).
func (c *Compiler) Compile(ast *query.AST) (sql string, paramOrder []string, err error) {
	if ast == nil {
		return "", nil, query.NewError(query.MalformedInput, "compile", "nil query")
	}

	// Reset state once at the top level
	c.state.ParamCount = 0
	c.state.Params = nil
	c.state.scopes = nil

	var b strings.Builder
	if err := c.compileInto(ast, &b); err != nil {
		return "", nil, err
	}

	return b.String(), c.state.Params, nil
}

// CompileResult is Compile returning a Result.
func (c *Compiler) CompileResult(ast *query.AST) (Result, error) {
	sql, order, err := c.Compile(ast)
	if err != nil {
		return Result{}, err
	}
	return CompileResult(sql, order), nil
}

// Compile compiles ast for d with native bind markers.
func Compile(d *Dialect, ast *query.AST) (Result, error) {
	return NewCompiler(d).CompileResult(ast)
}

// Literal renders a single value or expression as SQL text.
func (c *Compiler) Literal(v any) (string, error) {
	var b strings.Builder
	if err := c.writeLiteral(&b, v); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Clause renders one named clause of ast on its own. An empty slot yields "".
func (c *Compiler) Clause(name string, ast *query.AST) (string, error) {
	fn, ok := c.dialect.clause(name)
	if !ok {
		return "", query.NewValueError(query.InvalidOperation, name, name, "unknown clause")
	}
	c.pushScope(ast)
	defer c.popScope()
	var b strings.Builder
	if err := fn(c, &b, ast); err != nil {
		return "", err
	}
	return b.String(), nil
}

// compileInto is the internal compilation method that does NOT reset state.
// This allows nested compilation (subqueries, CTEs, compounds) to share
// state with the parent compilation, ensuring correct parameter numbering.
func (c *Compiler) compileInto(ast *query.AST, b *strings.Builder) error {
	if ast.RawSQL != nil {
		return c.writeRawSQL(b, ast.RawSQL)
	}

	switch ast.Kind {
	case query.SelectQuery, "":
		return c.compileSelect(ast, b)
	case query.InsertQuery, query.UpdateQuery, query.DeleteQuery:
		return c.compileDML(ast, b)
	}
	return query.NewValueError(query.InvalidOperation, "compile", ast.Kind, "unknown query kind")
}

func (c *Compiler) compileSelect(ast *query.AST, b *strings.Builder) error {
	if rw := c.dialect.selectRewrite; rw != nil {
		var err error
		if ast, err = rw(c.dialect, ast); err != nil {
			return err
		}
	}
	if err := c.checkClauses(ast, query.SelectQuery); err != nil {
		return err
	}

	c.pushScope(ast)
	defer c.popScope()
	if err := c.validateAliases(ast); err != nil {
		return err
	}
	return c.runClauses(b, ast, c.dialect.SelectClauses)
}

func (c *Compiler) compileDML(ast *query.AST, b *strings.Builder) error {
	if len(ast.From) != 1 {
		return query.NewValueError(query.InvalidOperation, string(ast.Kind), len(ast.From),
			"%s requires exactly one table", ast.Kind)
	}
	if err := c.checkClauses(ast, ast.Kind); err != nil {
		return err
	}
	c.pushScope(ast)
	defer c.popScope()
	return c.runClauses(b, ast, c.dialect.clauseList(ast.Kind))
}

func (c *Compiler) runClauses(b *strings.Builder, ast *query.AST, names []string) error {
	for _, name := range names {
		fn, ok := c.dialect.clause(name)
		if !ok {
			return query.NewValueError(query.InvalidOperation, name, c.dialect.Name(), "dialect lists unknown clause")
		}
		if err := fn(c, b, ast); err != nil {
			return err
		}
	}
	return nil
}

// checkClauses fails when a populated slot has no clause in the dialect's
// list for this statement kind. DML order is dropped silently when absent.
func (c *Compiler) checkClauses(ast *query.AST, kind query.QueryKind) error {
	type slot struct {
		clause string
		set    bool
	}
	slots := []slot{
		{"with", len(ast.With) > 0},
		{"limit", ast.Limit != nil || ast.Offset != nil},
		{"returning", len(ast.Returning) > 0},
	}
	if kind == query.SelectQuery {
		slots = append(slots,
			slot{"distinct", ast.Distinct || len(ast.DistinctOn) > 0},
			slot{"join", len(ast.Joins) > 0},
			slot{"where", ast.Where != nil},
			slot{"group", len(ast.Group) > 0},
			slot{"having", ast.Having != nil},
			slot{"compounds", len(ast.Compounds) > 0},
			slot{"order", len(ast.Order) > 0},
			slot{"lock", ast.Lock != query.LockNone},
		)
	}
	for _, s := range slots {
		if s.set && !c.dialect.HasClause(kind, s.clause) {
			return query.NewValueError(query.UnsupportedFeature, s.clause, c.dialect.Name(),
				"%s does not support this clause in %s statements", c.dialect.Name(), kind)
		}
	}
	return nil
}

func (c *Compiler) pushScope(ast *query.AST) {
	aliases := ast.SourceAliases()
	for _, f := range ast.From {
		if x, ok := f.(query.QualifiedIdentifier); ok {
			aliases = append(aliases, x.Table+"."+x.Name)
		}
	}
	for _, cte := range ast.With {
		aliases = append(aliases, cte.Name)
	}
	c.state.scopes = append(c.state.scopes, aliases)
}

func (c *Compiler) popScope() {
	c.state.scopes = c.state.scopes[:len(c.state.scopes)-1]
}

func (c *Compiler) unsupported(clause string, value any, format string, args ...any) error {
	return query.NewValueError(query.UnsupportedFeature, clause, value, "%s: %s", c.dialect.Name(), fmt.Sprintf(format, args...))
}
