package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shipq/sequel/query"
	"github.com/shipq/sequel/query/compile"
)

// ErrNoDatabase is returned by terminal methods of a dataset built without
// a Database.
var ErrNoDatabase = errors.New("dataset has no database")

// All runs the SELECT and returns every row.
func (d *Dataset) All(ctx context.Context) ([]Row, error) {
	var rows []Row
	err := d.Each(ctx, func(r Row) error {
		rows = append(rows, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Each runs the SELECT and calls fn for each row. An error from fn stops
// the iteration and is returned.
func (d *Dataset) Each(ctx context.Context, fn func(Row) error) error {
	if d.err != nil {
		return d.err
	}
	return d.eachRow(ctx, d.ast, fn)
}

// First returns the first row, or nil when there is none.
func (d *Dataset) First(ctx context.Context) (Row, error) {
	if d.err != nil {
		return nil, d.err
	}
	ast := d.ast.Clone()
	one := 1
	ast.Limit = &one
	return d.firstRow(ctx, ast)
}

func (d *Dataset) firstRow(ctx context.Context, ast *query.AST) (Row, error) {
	var first Row
	errStop := errors.New("stop")
	err := d.eachRow(ctx, ast, func(r Row) error {
		first = r
		return errStop
	})
	if err != nil && !errors.Is(err, errStop) {
		return nil, err
	}
	return first, nil
}

// Get selects a single expression and returns its value in the first row,
// or nil when there are no rows.
func (d *Dataset) Get(ctx context.Context, expr any) (any, error) {
	if d.err != nil {
		return nil, d.err
	}
	if ds, ok := expr.(*Dataset); ok && ds.err != nil {
		return nil, ds.err
	}
	ast := d.ast.Clone()
	ast.Columns = []query.Expr{exprOf(expr)}
	ast.Graph = nil
	one := 1
	ast.Limit = &one
	return d.scalar(ctx, ast)
}

// Count returns the number of rows the dataset selects. Datasets whose row
// count is not that of their source (compounds, DISTINCT, GROUP BY, limits)
// are counted through a derived table.
func (d *Dataset) Count(ctx context.Context) (int64, error) {
	if d.err != nil {
		return 0, d.err
	}
	ast, err := d.countAST()
	if err != nil {
		return 0, err
	}
	v, err := d.scalar(ctx, ast)
	if err != nil {
		return 0, err
	}
	return toInt64(v)
}

// CountSQL returns the statement Count runs.
func (d *Dataset) CountSQL() (string, error) {
	if d.err != nil {
		return "", d.err
	}
	ast, err := d.countAST()
	if err != nil {
		return "", err
	}
	return d.compileSQL(ast)
}

func (d *Dataset) countAST() (*query.AST, error) {
	a := d.ast
	var ast *query.AST
	if a.RawSQL != nil || len(a.Compounds) > 0 || a.Distinct || len(a.DistinctOn) > 0 ||
		len(a.Group) > 0 || a.Limit != nil || a.Offset != nil {
		ast = query.FromSelf(a, "")
	} else {
		ast = a.Clone()
	}
	ast.Columns = []query.Expr{query.As(query.Count(), "count")}
	ast.Order = nil
	ast.Graph = nil
	return ast, nil
}

// Insert runs an INSERT of values (see InsertSQL) and returns the new row's
// id where the database reports one.
func (d *Dataset) Insert(ctx context.Context, values ...any) (int64, error) {
	ast, err := d.insertAST(values)
	if err != nil {
		return 0, err
	}
	db, err := d.database()
	if err != nil {
		return 0, err
	}
	sql, args, err := d.compileArgs(ast)
	if err != nil {
		return 0, err
	}
	id, err := db.InsertReturningID(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("insert: %w", err)
	}
	return id, nil
}

// Update runs an UPDATE (see UpdateSQL) and returns the number of rows
// affected.
func (d *Dataset) Update(ctx context.Context, values any) (int64, error) {
	ast, err := d.updateAST(values)
	if err != nil {
		return 0, err
	}
	return d.exec(ctx, ast)
}

// Delete runs a DELETE and returns the number of rows affected.
func (d *Dataset) Delete(ctx context.Context) (int64, error) {
	ast, err := d.deleteAST()
	if err != nil {
		return 0, err
	}
	return d.exec(ctx, ast)
}

func (d *Dataset) database() (Database, error) {
	if d.db == nil {
		return nil, ErrNoDatabase
	}
	return d.db, nil
}

func (d *Dataset) exec(ctx context.Context, ast *query.AST) (int64, error) {
	db, err := d.database()
	if err != nil {
		return 0, err
	}
	sql, args, err := d.compileArgs(ast)
	if err != nil {
		return 0, err
	}
	n, err := db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ast.Kind, err)
	}
	return n, nil
}

func (d *Dataset) scalar(ctx context.Context, ast *query.AST) (any, error) {
	db, err := d.database()
	if err != nil {
		return nil, err
	}
	sql, args, err := d.compileArgs(ast)
	if err != nil {
		return nil, err
	}
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()
	values, err := rows.NextRow()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read row: %w", err)
	}
	if len(values) == 0 {
		return nil, nil
	}
	return values[0], nil
}

// eachRow compiles ast, runs it and hands each row to fn, folding column
// names for output and splitting graphed rows by table.
func (d *Dataset) eachRow(ctx context.Context, ast *query.AST, fn func(Row) error) error {
	db, err := d.database()
	if err != nil {
		return err
	}
	sql, args, err := d.compileArgs(ast)
	if err != nil {
		return err
	}
	return d.scanRows(ctx, db, ast.Graph, sql, args, fn)
}

func (d *Dataset) scanRows(ctx context.Context, db Database, graph *query.GraphMeta, sql string, args []any, fn func(Row) error) error {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("columns: %w", err)
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = d.dialect.OutputIdentifier(c)
	}

	for {
		values, err := rows.NextRow()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read row: %w", err)
		}
		flat := make(Row, len(names))
		for i, name := range names {
			// Offsets emulated over SELECT * carry the row number.
			if i < len(values) && !strings.EqualFold(name, compile.RowNumberColumn) {
				flat[name] = values[i]
			}
		}
		row := flat
		if graph != nil {
			row = splitRow(graph, flat)
		}
		if err := fn(row); err != nil {
			return err
		}
	}
}

func splitRow(graph *query.GraphMeta, flat Row) Row {
	split := query.Split(graph, flat)
	row := make(Row, len(split))
	for table, values := range split {
		if values == nil {
			row[table] = nil
			continue
		}
		row[table] = values
	}
	return row
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case []byte:
		return strconv.ParseInt(string(n), 10, 64)
	case string:
		return strconv.ParseInt(n, 10, 64)
	case nil:
		return 0, nil
	}
	return 0, query.NewValueError(query.TypeMismatch, "count", v, "count returned %T", v)
}
