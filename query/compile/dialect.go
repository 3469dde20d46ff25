package compile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/shipq/sequel/query"
)

// Kind identifies one of the supported SQL dialects.
type Kind int

const (
	KindDefault Kind = iota
	KindPostgres
	KindMySQL
	KindSQLite
	KindMSSQL
	KindOracle
	KindDB2
	KindFirebird
	KindH2
)

var kindNames = [...]string{
	KindDefault:  "default",
	KindPostgres: "postgres",
	KindMySQL:    "mysql",
	KindSQLite:   "sqlite",
	KindMSSQL:    "mssql",
	KindOracle:   "oracle",
	KindDB2:      "db2",
	KindFirebird: "firebird",
	KindH2:       "h2",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// Kinds lists every dialect kind.
func Kinds() []Kind {
	return []Kind{KindDefault, KindPostgres, KindMySQL, KindSQLite, KindMSSQL, KindOracle, KindDB2, KindFirebird, KindH2}
}

// ParseKind maps a dialect name (or a common alias such as "postgresql" or
// "sqlserver") to its Kind.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default", "ansi":
		return KindDefault, nil
	case "postgres", "postgresql", "pg", "pgx":
		return KindPostgres, nil
	case "mysql", "mariadb":
		return KindMySQL, nil
	case "sqlite", "sqlite3":
		return KindSQLite, nil
	case "mssql", "sqlserver", "tsql":
		return KindMSSQL, nil
	case "oracle", "oci":
		return KindOracle, nil
	case "db2", "ibmdb":
		return KindDB2, nil
	case "firebird", "fb":
		return KindFirebird, nil
	case "h2":
		return KindH2, nil
	}
	return KindDefault, fmt.Errorf("unknown dialect %q", name)
}

// QuoteStyle selects how identifiers are quoted.
type QuoteStyle int

const (
	QuoteDouble QuoteStyle = iota
	QuoteBacktick
	QuoteBracket
)

// CaseFold is an identifier case-folding policy.
type CaseFold int

const (
	FoldNone CaseFold = iota
	FoldUpper
	FoldLower
)

// Apply folds s according to the policy.
func (f CaseFold) Apply(s string) string {
	switch f {
	case FoldUpper:
		return strings.ToUpper(s)
	case FoldLower:
		return strings.ToLower(s)
	}
	return s
}

// PlaceholderStyle selects the native bind marker syntax.
type PlaceholderStyle int

const (
	PlaceholderQuestion PlaceholderStyle = iota // ?
	PlaceholderDollar                           // $1
	PlaceholderColon                            // :1
	PlaceholderAtP                              // @p1
)

// BlobStyle selects how byte slices are literalized.
type BlobStyle int

const (
	BlobHex       BlobStyle = iota // X'0a0b'
	Blob0x                         // 0x0a0b
	BlobBytea                      // '\x0a0b'::bytea
	BlobHexToRaw                   // HEXTORAW('0a0b')
)

// OpStyle overrides how a ComplexOp is rendered: as a different infix token,
// as a function call, or not at all.
type OpStyle struct {
	Infix       string
	Func        string
	Unsupported bool
}

// Features lists optional constructs. A construct whose flag is false fails
// compilation with UnsupportedFeature.
type Features struct {
	CTE                    bool
	RecursiveCTE           bool
	RecursiveKeyword       bool
	DistinctOn             bool
	IntersectExcept        bool
	IntersectExceptAll     bool
	UsingJoins             bool
	NaturalJoins           bool
	FullOuterJoin          bool
	WindowFunctions        bool
	Returning              bool
	IsTrue                 bool
	ShareLock              bool
	ParenthesizedCompounds bool
	TableAliasAS           bool
	MultiRowInsert         bool
	NullsOrdering          bool
	NativeILike            bool
}

// ClauseFunc writes one named clause of a statement. Clause functions write
// their own leading space and must write nothing when their slot is empty.
type ClauseFunc func(c *Compiler, b *strings.Builder, ast *query.AST) error

// Dialect is the read-only rule table for one SQL dialect. Dialects are
// built once and never mutated; the With* methods return modified copies.
type Dialect struct {
	Kind Kind

	Quote            QuoteStyle
	QuoteIdentifiers bool
	IdentifierInput  CaseFold
	IdentifierOutput CaseFold

	TrueLiteral      string
	FalseLiteral     string
	BackslashEscapes bool
	UnicodeStrings   bool
	Blob             BlobStyle
	TimestampFormat  string
	DateFormat       string
	DatetimeKeywords bool

	Placeholder PlaceholderStyle
	Features    Features

	// MaxLimit is written as the LIMIT when only an offset is given.
	MaxLimit string
	// ExceptKeyword replaces EXCEPT (Oracle uses MINUS).
	ExceptKeyword string
	// EmptyFrom is written when a SELECT has no source table.
	EmptyFrom string
	// DefaultValues is the INSERT suffix used when no columns are given.
	DefaultValues string

	SelectClauses []string
	InsertClauses []string
	UpdateClauses []string
	DeleteClauses []string

	ComplexOps map[query.ComplexOp]OpStyle

	clauses       map[string]ClauseFunc
	selectRewrite func(d *Dialect, ast *query.AST) (*query.AST, error)
}

// Name returns the dialect name for logging.
func (d *Dialect) Name() string { return d.Kind.String() }

// QuoteIdentifier folds and (when enabled) quotes a single identifier.
// Every node renderer goes through here.
func (d *Dialect) QuoteIdentifier(name string) string {
	name = d.IdentifierInput.Apply(name)
	if !d.QuoteIdentifiers {
		return name
	}
	switch d.Quote {
	case QuoteBacktick:
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	case QuoteBracket:
		return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
	}
	if d.Kind == KindPostgres {
		return pq.QuoteIdentifier(name)
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// OutputIdentifier folds a result column name for use as a row key.
func (d *Dialect) OutputIdentifier(name string) string {
	return d.IdentifierOutput.Apply(name)
}

// PlaceholderMarker returns the native bind marker for the 1-based index.
func (d *Dialect) PlaceholderMarker(index int) string {
	switch d.Placeholder {
	case PlaceholderDollar:
		return "$" + strconv.Itoa(index)
	case PlaceholderColon:
		return ":" + strconv.Itoa(index)
	case PlaceholderAtP:
		return "@p" + strconv.Itoa(index)
	}
	return "?"
}

// BoolLiteral returns the SQL token for a boolean value.
func (d *Dialect) BoolLiteral(v bool) string {
	if v {
		return d.TrueLiteral
	}
	return d.FalseLiteral
}

// HasClause reports whether a clause name appears in the list for kind.
func (d *Dialect) HasClause(kind query.QueryKind, name string) bool {
	for _, c := range d.clauseList(kind) {
		if c == name {
			return true
		}
	}
	return false
}

func (d *Dialect) clauseList(kind query.QueryKind) []string {
	switch kind {
	case query.InsertQuery:
		return d.InsertClauses
	case query.UpdateQuery:
		return d.UpdateClauses
	case query.DeleteQuery:
		return d.DeleteClauses
	}
	return d.SelectClauses
}

func (d *Dialect) clause(name string) (ClauseFunc, bool) {
	if fn, ok := d.clauses[name]; ok {
		return fn, true
	}
	fn, ok := defaultClauses[name]
	return fn, ok
}

// WithQuoting returns a copy of d with identifier quoting switched on or off.
func (d *Dialect) WithQuoting(on bool) *Dialect {
	c := *d
	c.QuoteIdentifiers = on
	return &c
}

// WithIdentifierCase returns a copy of d with new input/output folding.
func (d *Dialect) WithIdentifierCase(input, output CaseFold) *Dialect {
	c := *d
	c.IdentifierInput = input
	c.IdentifierOutput = output
	return &c
}

// ForKind returns the shared dialect table for k.
func ForKind(k Kind) *Dialect {
	switch k {
	case KindPostgres:
		return Postgres
	case KindMySQL:
		return MySQL
	case KindSQLite:
		return SQLite
	case KindMSSQL:
		return MSSQL
	case KindOracle:
		return Oracle
	case KindDB2:
		return DB2
	case KindFirebird:
		return Firebird
	case KindH2:
		return H2
	}
	return Default
}
