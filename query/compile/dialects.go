package compile

import "github.com/shipq/sequel/query"

var (
	defaultSelectClauses = []string{"with", "select", "distinct", "columns", "from", "join", "where", "group", "having", "compounds", "order", "limit", "lock"}
	defaultInsertClauses = []string{"with", "insert", "values", "returning"}
	defaultUpdateClauses = []string{"with", "update", "set", "where", "returning"}
	defaultDeleteClauses = []string{"with", "delete", "where", "returning"}
)

const isoTimestamp = "2006-01-02 15:04:05.000000"

// Default is an ANSI dialect with unquoted identifiers.
var Default = &Dialect{
	Kind:            KindDefault,
	TrueLiteral:     "TRUE",
	FalseLiteral:    "FALSE",
	TimestampFormat: isoTimestamp,
	DateFormat:      "2006-01-02",
	ExceptKeyword:   "EXCEPT",
	DefaultValues:   " DEFAULT VALUES",
	Features: Features{
		CTE:                true,
		RecursiveCTE:       true,
		RecursiveKeyword:   true,
		IntersectExcept:    true,
		IntersectExceptAll: true,
		UsingJoins:         true,
		NaturalJoins:       true,
		FullOuterJoin:      true,
		WindowFunctions:    true,
		IsTrue:             true,
		ShareLock:          true,
		TableAliasAS:       true,
		MultiRowInsert:     true,
		NullsOrdering:      true,
	},
	SelectClauses: defaultSelectClauses,
	InsertClauses: defaultInsertClauses,
	UpdateClauses: defaultUpdateClauses,
	DeleteClauses: defaultDeleteClauses,
}

// Postgres implements PostgreSQL.
var Postgres = &Dialect{
	Kind:             KindPostgres,
	Quote:            QuoteDouble,
	QuoteIdentifiers: true,
	TrueLiteral:      "TRUE",
	FalseLiteral:     "FALSE",
	Blob:             BlobBytea,
	TimestampFormat:  isoTimestamp + "-07:00",
	DateFormat:       "2006-01-02",
	Placeholder:      PlaceholderDollar,
	ExceptKeyword:    "EXCEPT",
	DefaultValues:    " DEFAULT VALUES",
	Features: Features{
		CTE:                    true,
		RecursiveCTE:           true,
		RecursiveKeyword:       true,
		DistinctOn:             true,
		IntersectExcept:        true,
		IntersectExceptAll:     true,
		UsingJoins:             true,
		NaturalJoins:           true,
		FullOuterJoin:          true,
		WindowFunctions:        true,
		Returning:              true,
		IsTrue:                 true,
		ShareLock:              true,
		ParenthesizedCompounds: true,
		TableAliasAS:           true,
		MultiRowInsert:         true,
		NullsOrdering:          true,
		NativeILike:            true,
	},
	SelectClauses: defaultSelectClauses,
	InsertClauses: defaultInsertClauses,
	UpdateClauses: defaultUpdateClauses,
	DeleteClauses: defaultDeleteClauses,
}

// MySQL implements the MySQL 5.7 feature set: no CTEs, window functions or
// INTERSECT/EXCEPT, backslash string escapes and 1/0 booleans.
var MySQL = &Dialect{
	Kind:             KindMySQL,
	Quote:            QuoteBacktick,
	QuoteIdentifiers: true,
	TrueLiteral:      "1",
	FalseLiteral:     "0",
	BackslashEscapes: true,
	TimestampFormat:  isoTimestamp,
	DateFormat:       "2006-01-02",
	MaxLimit:         "18446744073709551615",
	ExceptKeyword:    "EXCEPT",
	DefaultValues:    " () VALUES ()",
	Features: Features{
		UsingJoins:             true,
		NaturalJoins:           true,
		IsTrue:                 true,
		ShareLock:              true,
		ParenthesizedCompounds: true,
		TableAliasAS:           true,
		MultiRowInsert:         true,
	},
	SelectClauses: defaultSelectClauses,
	InsertClauses: defaultInsertClauses,
	UpdateClauses: []string{"update", "set", "where", "order", "limit"},
	DeleteClauses: []string{"delete", "where", "order", "limit"},
	ComplexOps: map[query.ComplexOp]OpStyle{
		query.OpConcat: {Func: "CONCAT"},
	},
	clauses: map[string]ClauseFunc{
		"lock": writeMySQLLock,
	},
}

// SQLite implements SQLite 3.39+.
var SQLite = &Dialect{
	Kind:             KindSQLite,
	Quote:            QuoteDouble,
	QuoteIdentifiers: true,
	TrueLiteral:      "1",
	FalseLiteral:     "0",
	TimestampFormat:  isoTimestamp,
	DateFormat:       "2006-01-02",
	MaxLimit:         "-1",
	ExceptKeyword:    "EXCEPT",
	DefaultValues:    " DEFAULT VALUES",
	Features: Features{
		CTE:              true,
		RecursiveCTE:     true,
		RecursiveKeyword: true,
		IntersectExcept:  true,
		UsingJoins:       true,
		NaturalJoins:     true,
		FullOuterJoin:    true,
		WindowFunctions:  true,
		Returning:        true,
		IsTrue:           true,
		TableAliasAS:     true,
		MultiRowInsert:   true,
		NullsOrdering:    true,
	},
	SelectClauses: []string{"with", "select", "distinct", "columns", "from", "join", "where", "group", "having", "compounds", "order", "limit"},
	InsertClauses: defaultInsertClauses,
	UpdateClauses: defaultUpdateClauses,
	DeleteClauses: defaultDeleteClauses,
	ComplexOps: map[query.ComplexOp]OpStyle{
		query.OpBitXor: {Unsupported: true},
	},
}

// MSSQL implements Microsoft SQL Server. Limits use TOP, which cannot
// express an offset; locking uses table hints and RETURNING becomes OUTPUT.
var MSSQL = &Dialect{
	Kind:             KindMSSQL,
	Quote:            QuoteBracket,
	QuoteIdentifiers: true,
	TrueLiteral:      "1",
	FalseLiteral:     "0",
	UnicodeStrings:   true,
	Blob:             Blob0x,
	TimestampFormat:  "2006-01-02T15:04:05.000",
	DateFormat:       "2006-01-02",
	Placeholder:      PlaceholderAtP,
	ExceptKeyword:    "EXCEPT",
	DefaultValues:    " DEFAULT VALUES",
	Features: Features{
		CTE:             true,
		RecursiveCTE:    true,
		IntersectExcept: true,
		FullOuterJoin:   true,
		WindowFunctions: true,
		Returning:       true,
		ShareLock:       true,
		TableAliasAS:    true,
		MultiRowInsert:  true,
	},
	SelectClauses: []string{"with", "select", "distinct", "limit", "columns", "from", "lock", "join", "where", "group", "having", "compounds", "order"},
	InsertClauses: []string{"with", "insert", "returning", "values"},
	UpdateClauses: []string{"with", "update", "set", "returning", "where"},
	DeleteClauses: []string{"with", "delete", "returning", "where"},
	ComplexOps: map[query.ComplexOp]OpStyle{
		query.OpConcat: {Infix: "+"},
	},
	clauses: map[string]ClauseFunc{
		"limit":     writeTop,
		"lock":      writeTableHint,
		"returning": writeOutput,
	},
}

// Oracle implements Oracle Database. It has no LIMIT clause: limits and
// offsets are rewritten into ROWNUM or ROW_NUMBER() derived tables.
var Oracle = &Dialect{
	Kind:             KindOracle,
	Quote:            QuoteDouble,
	QuoteIdentifiers: true,
	IdentifierInput:  FoldUpper,
	IdentifierOutput: FoldLower,
	TrueLiteral:      "1",
	FalseLiteral:     "0",
	Blob:             BlobHexToRaw,
	TimestampFormat:  isoTimestamp + " -07:00",
	DateFormat:       "2006-01-02",
	DatetimeKeywords: true,
	Placeholder:      PlaceholderColon,
	ExceptKeyword:    "MINUS",
	EmptyFrom:        " FROM DUAL",
	DefaultValues:    " DEFAULT VALUES",
	Features: Features{
		CTE:             true,
		RecursiveCTE:    true,
		IntersectExcept: true,
		UsingJoins:      true,
		NaturalJoins:    true,
		FullOuterJoin:   true,
		WindowFunctions: true,
		NullsOrdering:   true,
	},
	SelectClauses: []string{"with", "select", "distinct", "columns", "from", "join", "where", "group", "having", "compounds", "order", "lock"},
	InsertClauses: []string{"with", "insert", "values"},
	UpdateClauses: []string{"with", "update", "set", "where"},
	DeleteClauses: []string{"with", "delete", "where"},
	ComplexOps: map[query.ComplexOp]OpStyle{
		query.OpMod:        {Func: "MOD"},
		query.OpBitAnd:     {Func: "BITAND"},
		query.OpBitOr:      {Unsupported: true},
		query.OpBitXor:     {Unsupported: true},
		query.OpBitNot:     {Unsupported: true},
		query.OpShiftLeft:  {Unsupported: true},
		query.OpShiftRight: {Unsupported: true},
	},
	selectRewrite: rewriteRowNumber,
}

// DB2 implements IBM Db2. Limits use FETCH FIRST; offsets are rewritten
// into a ROW_NUMBER() derived table.
var DB2 = &Dialect{
	Kind:             KindDB2,
	Quote:            QuoteDouble,
	QuoteIdentifiers: true,
	IdentifierInput:  FoldUpper,
	IdentifierOutput: FoldLower,
	TrueLiteral:      "1",
	FalseLiteral:     "0",
	TimestampFormat:  isoTimestamp,
	DateFormat:       "2006-01-02",
	DatetimeKeywords: true,
	ExceptKeyword:    "EXCEPT",
	EmptyFrom:        " FROM SYSIBM.SYSDUMMY1",
	DefaultValues:    " DEFAULT VALUES",
	Features: Features{
		CTE:                true,
		RecursiveCTE:       true,
		IntersectExcept:    true,
		IntersectExceptAll: true,
		FullOuterJoin:      true,
		WindowFunctions:    true,
		TableAliasAS:       true,
		MultiRowInsert:     true,
		NullsOrdering:      true,
	},
	SelectClauses: defaultSelectClauses,
	InsertClauses: []string{"with", "insert", "values"},
	UpdateClauses: []string{"with", "update", "set", "where"},
	DeleteClauses: []string{"with", "delete", "where"},
	ComplexOps: map[query.ComplexOp]OpStyle{
		query.OpMod:        {Func: "MOD"},
		query.OpBitAnd:     {Func: "BITAND"},
		query.OpBitOr:      {Func: "BITOR"},
		query.OpBitXor:     {Func: "BITXOR"},
		query.OpBitNot:     {Func: "BITNOT"},
		query.OpShiftLeft:  {Unsupported: true},
		query.OpShiftRight: {Unsupported: true},
	},
	clauses: map[string]ClauseFunc{
		"limit": writeFetchFirst,
	},
	selectRewrite: rewriteRowNumber,
}

// Firebird implements Firebird 3. FIRST/SKIP precede the column list.
var Firebird = &Dialect{
	Kind:             KindFirebird,
	Quote:            QuoteDouble,
	QuoteIdentifiers: true,
	IdentifierInput:  FoldUpper,
	IdentifierOutput: FoldLower,
	TrueLiteral:      "TRUE",
	FalseLiteral:     "FALSE",
	TimestampFormat:  "2006-01-02 15:04:05.0000",
	DateFormat:       "2006-01-02",
	DatetimeKeywords: true,
	ExceptKeyword:    "EXCEPT",
	EmptyFrom:        " FROM RDB$DATABASE",
	DefaultValues:    " DEFAULT VALUES",
	Features: Features{
		CTE:              true,
		RecursiveCTE:     true,
		RecursiveKeyword: true,
		UsingJoins:       true,
		NaturalJoins:     true,
		FullOuterJoin:    true,
		WindowFunctions:  true,
		Returning:        true,
		IsTrue:           true,
		TableAliasAS:     true,
		NullsOrdering:    true,
	},
	SelectClauses: []string{"with", "select", "limit", "distinct", "columns", "from", "join", "where", "group", "having", "compounds", "order", "lock"},
	InsertClauses: defaultInsertClauses,
	UpdateClauses: defaultUpdateClauses,
	DeleteClauses: defaultDeleteClauses,
	ComplexOps: map[query.ComplexOp]OpStyle{
		query.OpMod:        {Func: "MOD"},
		query.OpBitAnd:     {Func: "BIN_AND"},
		query.OpBitOr:      {Func: "BIN_OR"},
		query.OpBitXor:     {Func: "BIN_XOR"},
		query.OpBitNot:     {Func: "BIN_NOT"},
		query.OpShiftLeft:  {Func: "BIN_SHL"},
		query.OpShiftRight: {Func: "BIN_SHR"},
	},
	clauses: map[string]ClauseFunc{
		"limit": writeFirstSkip,
	},
}

// H2 implements the H2 database.
var H2 = &Dialect{
	Kind:             KindH2,
	Quote:            QuoteDouble,
	QuoteIdentifiers: true,
	IdentifierInput:  FoldUpper,
	IdentifierOutput: FoldLower,
	TrueLiteral:      "TRUE",
	FalseLiteral:     "FALSE",
	TimestampFormat:  isoTimestamp,
	DateFormat:       "2006-01-02",
	DatetimeKeywords: true,
	ExceptKeyword:    "EXCEPT",
	DefaultValues:    " DEFAULT VALUES",
	Features: Features{
		CTE:              true,
		RecursiveCTE:     true,
		RecursiveKeyword: true,
		IntersectExcept:  true,
		NaturalJoins:     true,
		WindowFunctions:  true,
		IsTrue:           true,
		TableAliasAS:     true,
		MultiRowInsert:   true,
		NullsOrdering:    true,
	},
	SelectClauses: defaultSelectClauses,
	InsertClauses: []string{"with", "insert", "values"},
	UpdateClauses: []string{"with", "update", "set", "where"},
	DeleteClauses: []string{"with", "delete", "where"},
}
