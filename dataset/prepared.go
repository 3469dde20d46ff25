package dataset

import (
	"context"
	"fmt"
	"maps"

	"github.com/shipq/sequel/query"
	"github.com/shipq/sequel/query/compile"
)

// PreparedKind is the statement type a Prepared runs.
type PreparedKind string

const (
	PrepareSelect PreparedKind = "select"
	PrepareFirst  PreparedKind = "first"
	PrepareInsert PreparedKind = "insert"
	PrepareUpdate PreparedKind = "update"
	PrepareDelete PreparedKind = "delete"
)

// Prepared is a compiled statement whose query.P placeholders are filled
// on each call.
//
// In NativeBinds mode the SQL is compiled once with dialect markers and
// every call passes the bound values positionally, repeating a value for
// each repeated name. In EmulatedBinds mode every call recompiles the
// statement with the values written into the SQL.
type Prepared struct {
	ds     *Dataset
	kind   PreparedKind
	name   string
	ast    *query.AST
	names  []string
	result compile.Result
	mode   BindMode
}

// Prepare compiles the dataset as a statement of kind. values supply the
// row for PrepareInsert and the columns for PrepareUpdate. A non-empty
// name registers the statement with databases that cache them.
func (d *Dataset) Prepare(kind PreparedKind, name string, values ...any) (*Prepared, error) {
	if d.err != nil {
		return nil, d.err
	}

	var ast *query.AST
	var err error
	switch kind {
	case PrepareSelect:
		ast = d.ast
	case PrepareFirst:
		ast = d.ast.Clone()
		one := 1
		ast.Limit = &one
	case PrepareInsert:
		ast, err = d.insertAST(values)
	case PrepareUpdate:
		if len(values) != 1 {
			return nil, query.NewValueError(query.MalformedInput, "prepare", len(values), "update takes exactly one set of values")
		}
		ast, err = d.updateAST(values[0])
	case PrepareDelete:
		ast, err = d.deleteAST()
	default:
		return nil, query.NewValueError(query.MalformedInput, "prepare", kind, "unknown statement kind %q", kind)
	}
	if err != nil {
		return nil, err
	}

	res, err := compile.NewCompiler(d.dialect).CompileResult(ast)
	if err != nil {
		return nil, err
	}
	p := &Prepared{
		ds:     d,
		kind:   kind,
		name:   name,
		ast:    ast,
		names:  query.PlaceholderNames(ast),
		result: res,
		mode:   d.mode,
	}
	if name != "" {
		if cache, ok := d.db.(StatementCache); ok {
			cache.RegisterPrepared(name, p)
		}
	}
	return p, nil
}

// Call prepares the dataset as kind and runs it once with binds.
func (d *Dataset) Call(ctx context.Context, kind PreparedKind, binds map[string]any, values ...any) (any, error) {
	p, err := d.Prepare(kind, "", values...)
	if err != nil {
		return nil, err
	}
	return p.Call(ctx, binds)
}

// Kind returns the statement kind.
func (p *Prepared) Kind() PreparedKind { return p.kind }

// Name returns the registration name, or "".
func (p *Prepared) Name() string { return p.name }

// Mode returns how bind values are passed.
func (p *Prepared) Mode() BindMode { return p.mode }

// Names returns the placeholder names in first-occurrence order.
func (p *Prepared) Names() []string { return p.names }

// ParamOrder returns the placeholder name behind each native marker.
func (p *Prepared) ParamOrder() []string { return p.result.ParamOrder }

// SQL returns the statement and arguments a call with binds would run.
// binds override values bound on the dataset.
func (p *Prepared) SQL(binds map[string]any) (string, []any, error) {
	merged := maps.Clone(p.ast.Binds)
	if merged == nil {
		merged = make(map[string]any, len(binds))
	}
	maps.Copy(merged, binds)

	if p.mode == EmulatedBinds {
		sql, _, err := compile.NewEmulatedCompiler(p.ds.dialect, merged).Compile(p.ast)
		if err != nil {
			return "", nil, err
		}
		return sql, nil, nil
	}
	args, err := p.result.Args(merged)
	if err != nil {
		return "", nil, err
	}
	return p.result.SQL, args, nil
}

// Call runs the statement. The result is []Row for PrepareSelect, Row (or
// nil) for PrepareFirst, the new id as int64 for PrepareInsert, and the
// affected row count as int64 for PrepareUpdate and PrepareDelete.
func (p *Prepared) Call(ctx context.Context, binds map[string]any) (any, error) {
	db, err := p.ds.database()
	if err != nil {
		return nil, err
	}
	sql, args, err := p.SQL(binds)
	if err != nil {
		return nil, err
	}

	switch p.kind {
	case PrepareSelect, PrepareFirst:
		var rows []Row
		err := p.ds.scanRows(ctx, db, p.ast.Graph, sql, args, func(r Row) error {
			rows = append(rows, r)
			return nil
		})
		if err != nil {
			return nil, err
		}
		if p.kind == PrepareFirst {
			if len(rows) == 0 {
				return Row(nil), nil
			}
			return rows[0], nil
		}
		return rows, nil
	case PrepareInsert:
		id, err := db.InsertReturningID(ctx, sql, args...)
		if err != nil {
			return nil, fmt.Errorf("insert: %w", err)
		}
		return id, nil
	}
	n, err := db.Exec(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.kind, err)
	}
	return n, nil
}
