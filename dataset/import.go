package dataset

import (
	"context"
	"fmt"

	"github.com/shipq/sequel/query"
)

// ImportOptions control bulk inserts.
type ImportOptions struct {
	// BatchSize is the number of rows per INSERT. Zero puts every row in
	// one statement. Dialects without multi-row VALUES always use one row
	// per statement.
	BatchSize int
}

// ImportSQL returns the INSERT statements Import runs for rows, each row
// holding one value per column.
func (d *Dataset) ImportSQL(columns []string, rows [][]any, opts ...ImportOptions) ([]string, error) {
	asts, err := d.importASTs(columns, rows, opts)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(asts))
	for i, ast := range asts {
		if out[i], err = d.compileSQL(ast); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Import inserts rows in batches. The batches run inside one transaction
// when the database is a Transactor.
func (d *Dataset) Import(ctx context.Context, columns []string, rows [][]any, opts ...ImportOptions) error {
	asts, err := d.importASTs(columns, rows, opts)
	if err != nil {
		return err
	}
	db, err := d.database()
	if err != nil {
		return err
	}

	type stmt struct {
		sql  string
		args []any
	}
	stmts := make([]stmt, len(asts))
	for i, ast := range asts {
		sql, args, err := d.compileArgs(ast)
		if err != nil {
			return err
		}
		stmts[i] = stmt{sql, args}
	}

	run := func(db Database) error {
		for i, s := range stmts {
			if _, err := db.Exec(ctx, s.sql, s.args...); err != nil {
				return fmt.Errorf("import batch %d: %w", i, err)
			}
		}
		return nil
	}
	if tx, ok := db.(Transactor); ok {
		return tx.Transaction(ctx, run)
	}
	return run(db)
}

func (d *Dataset) importASTs(columns []string, rows [][]any, opts []ImportOptions) ([]*query.AST, error) {
	if d.err != nil {
		return nil, d.err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	base, err := d.insertAST(nil)
	if err != nil {
		return nil, err
	}

	cols := make([]query.Expr, len(columns))
	for i, c := range columns {
		cols[i] = query.C(c)
	}
	for i, r := range rows {
		if len(columns) > 0 && len(r) != len(columns) {
			return nil, query.NewValueError(query.MalformedInput, "import", r,
				"row %d has %d values for %d columns", i, len(r), len(columns))
		}
	}

	size := len(rows)
	if len(opts) > 0 && opts[0].BatchSize > 0 {
		size = opts[0].BatchSize
	}
	if !d.dialect.Features.MultiRowInsert {
		size = 1
	}

	var out []*query.AST
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		batch := *base
		batch.Insert = &query.InsertPayload{Columns: cols, Rows: make([][]any, 0, end-start)}
		for _, r := range rows[start:end] {
			row := make([]any, len(r))
			for j, v := range r {
				row[j] = valueOf(v)
			}
			batch.Insert.Rows = append(batch.Insert.Rows, row)
		}
		out = append(out, &batch)
	}
	return out, nil
}
