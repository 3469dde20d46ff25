package dataset

import (
	"context"

	"github.com/shipq/sequel/query/compile"
)

// Database executes compiled SQL. sqlexec.DB is the database/sql
// implementation; tests use in-memory fakes.
type Database interface {
	Dialect() *compile.Dialect
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
	InsertReturningID(ctx context.Context, sql string, args ...any) (int64, error)
}

// Rows is a forward-only row stream. NextRow returns io.EOF once the
// stream is exhausted.
type Rows interface {
	Columns() ([]string, error)
	NextRow() ([]any, error)
	Close() error
}

// Transactor is implemented by databases that can run a function inside a
// transaction. The Database passed to fn is bound to the transaction.
type Transactor interface {
	Transaction(ctx context.Context, fn func(Database) error) error
}

// StatementCache is implemented by databases that keep named prepared
// statements. Prepare registers every named statement with it.
type StatementCache interface {
	RegisterPrepared(name string, p *Prepared)
	Prepared(name string) (*Prepared, bool)
}

// BindModer is implemented by databases that choose how prepared
// statements pass bind values.
type BindModer interface {
	BindMode() BindMode
}

// BindMode selects how prepared statements pass bind values.
type BindMode int

const (
	// NativeBinds writes dialect placeholder markers and passes values as
	// positional driver arguments.
	NativeBinds BindMode = iota
	// EmulatedBinds literalizes the bound values into the SQL text on every
	// call.
	EmulatedBinds
)

func (m BindMode) String() string {
	if m == EmulatedBinds {
		return "emulated"
	}
	return "native"
}
