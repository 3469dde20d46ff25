// Package sqlexec runs datasets through database/sql. It registers the pgx,
// MySQL and SQLite drivers and logs every statement it runs.
package sqlexec

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/shipq/sequel/dataset"
	"github.com/shipq/sequel/dburl"
	"github.com/shipq/sequel/internal/config"
	"github.com/shipq/sequel/logging"
	"github.com/shipq/sequel/query/compile"
)

// querier is the part of *sql.DB and *sql.Tx a DB needs.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB implements dataset.Database over a *sql.DB, or over a *sql.Tx inside
// Transaction.
type DB struct {
	sqlDB   *sql.DB
	q       querier
	dialect *compile.Dialect
	logger  *slog.Logger
	mode    dataset.BindMode
	txID    string

	mu       *sync.RWMutex
	prepared map[string]*dataset.Prepared
}

var (
	_ dataset.Database       = (*DB)(nil)
	_ dataset.Transactor     = (*DB)(nil)
	_ dataset.StatementCache = (*DB)(nil)
	_ dataset.BindModer      = (*DB)(nil)
)

// Option configures a DB.
type Option func(*DB)

// WithLogger logs every statement to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(db *DB) { db.logger = logger }
}

// WithDialect overrides the dialect table.
func WithDialect(d *compile.Dialect) Option {
	return func(db *DB) { db.dialect = d }
}

// WithEmulatedPrepared makes prepared statements write bound values into
// the SQL text instead of passing driver arguments.
func WithEmulatedPrepared() Option {
	return func(db *DB) { db.mode = dataset.EmulatedBinds }
}

// New wraps an open *sql.DB.
func New(sqlDB *sql.DB, d *compile.Dialect, opts ...Option) *DB {
	db := &DB{
		sqlDB:    sqlDB,
		q:        sqlDB,
		dialect:  d,
		mu:       &sync.RWMutex{},
		prepared: make(map[string]*dataset.Prepared),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Open connects to a database URL. The dialect is inferred from the scheme.
func Open(ctx context.Context, dbURL string, opts ...Option) (*DB, error) {
	kind, err := dburl.InferDialect(dbURL)
	if err != nil {
		return nil, err
	}
	driver, dsn, err := dburl.DriverDSN(dbURL)
	if err != nil {
		return nil, err
	}
	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dburl.Redact(dbURL), err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("connect to %s: %w", dburl.Redact(dbURL), err)
	}
	return New(sqlDB, compile.ForKind(kind), opts...), nil
}

// OpenProfile connects using a profile from sequel.ini. Options override
// the profile's settings.
func OpenProfile(ctx context.Context, p config.Profile, opts ...Option) (*DB, error) {
	if p.URL == "" {
		return nil, fmt.Errorf("profile %q has no database url", p.Name)
	}
	logger, err := logging.ForMode(p.Log)
	if err != nil {
		return nil, err
	}
	base := []Option{WithDialect(p.DialectTable()), WithLogger(logger)}
	if p.Prepared == config.PreparedEmulated {
		base = append(base, WithEmulatedPrepared())
	}
	return Open(ctx, p.URL, append(base, opts...)...)
}

// SQLDB returns the underlying *sql.DB.
func (db *DB) SQLDB() *sql.DB { return db.sqlDB }

// Close closes the underlying *sql.DB.
func (db *DB) Close() error { return db.sqlDB.Close() }

// Dialect returns the dialect table.
func (db *DB) Dialect() *compile.Dialect { return db.dialect }

// BindMode reports how prepared statements pass bind values.
func (db *DB) BindMode() dataset.BindMode { return db.mode }

// Dataset returns a dataset on db selecting from tables.
func (db *DB) Dataset(tables ...any) *dataset.Dataset { return dataset.New(db, tables...) }

// Query runs a statement that returns rows.
func (db *DB) Query(ctx context.Context, query string, args ...any) (dataset.Rows, error) {
	start := time.Now()
	rows, err := db.q.QueryContext(ctx, query, args...)
	db.log(ctx, query, args, start, err)
	if err != nil {
		return nil, err
	}
	return &sqlRows{rows: rows}, nil
}

// Exec runs a statement and returns the number of rows affected.
func (db *DB) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	start := time.Now()
	res, err := db.q.ExecContext(ctx, query, args...)
	db.log(ctx, query, args, start, err)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// InsertReturningID runs an INSERT and returns the new row's id: the first
// returned column when the statement has RETURNING, otherwise the driver's
// last insert id.
func (db *DB) InsertReturningID(ctx context.Context, query string, args ...any) (int64, error) {
	start := time.Now()
	if strings.Contains(strings.ToUpper(query), " RETURNING ") {
		var id int64
		err := db.q.QueryRowContext(ctx, query, args...).Scan(&id)
		db.log(ctx, query, args, start, err)
		return id, err
	}
	res, err := db.q.ExecContext(ctx, query, args...)
	db.log(ctx, query, args, start, err)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		// Drivers without LastInsertId (pgx) still inserted the row.
		return 0, nil
	}
	return id, nil
}

// Transaction runs fn inside a transaction, committing when fn returns nil
// and rolling back otherwise. Nested calls reuse the open transaction.
func (db *DB) Transaction(ctx context.Context, fn func(dataset.Database) error) error {
	if _, inTx := db.q.(*sql.Tx); inTx {
		return fn(db)
	}
	tx, err := db.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	_, txID := logging.WithTxID(ctx)

	txDB := *db
	txDB.q = tx
	txDB.txID = txID
	if err := fn(&txDB); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback of %s failed: %v)", err, txID, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction %s: %w", txID, err)
	}
	return nil
}

func (db *DB) log(ctx context.Context, query string, args []any, start time.Time, err error) {
	if db.logger == nil {
		return
	}
	if db.txID != "" {
		ctx = context.WithValue(ctx, logging.TxIDKey, db.txID)
	}
	logging.Query(ctx, db.logger, query, args, time.Since(start), err)
}

// RegisterPrepared stores a named prepared statement.
func (db *DB) RegisterPrepared(name string, p *dataset.Prepared) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.prepared[name] = p
}

// Prepared returns a named prepared statement.
func (db *DB) Prepared(name string) (*dataset.Prepared, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	p, ok := db.prepared[name]
	return p, ok
}

// Call runs the named prepared statement with binds.
func (db *DB) Call(ctx context.Context, name string, binds map[string]any) (any, error) {
	p, ok := db.Prepared(name)
	if !ok {
		return nil, fmt.Errorf("no prepared statement named %q", name)
	}
	return p.Call(ctx, binds)
}

// sqlRows adapts *sql.Rows to dataset.Rows.
type sqlRows struct {
	rows *sql.Rows
	cols []string
}

func (r *sqlRows) Columns() ([]string, error) {
	if r.cols == nil {
		cols, err := r.rows.Columns()
		if err != nil {
			return nil, err
		}
		r.cols = cols
	}
	return r.cols, nil
}

func (r *sqlRows) NextRow() ([]any, error) {
	if !r.rows.Next() {
		if err := r.rows.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	cols, err := r.Columns()
	if err != nil {
		return nil, err
	}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	return values, nil
}

func (r *sqlRows) Close() error { return r.rows.Close() }
