package compile

import (
	"testing"

	"github.com/shipq/sequel/query"
)

func TestParseKind(t *testing.T) {
	cases := map[string]Kind{
		"":           KindDefault,
		"postgresql": KindPostgres,
		"PGX":        KindPostgres,
		"mariadb":    KindMySQL,
		"sqlite3":    KindSQLite,
		"sqlserver":  KindMSSQL,
		"oracle":     KindOracle,
		"db2":        KindDB2,
		"fb":         KindFirebird,
		"h2":         KindH2,
	}
	for name, want := range cases {
		got, err := ParseKind(name)
		if err != nil {
			t.Fatalf("ParseKind(%q) failed: %v", name, err)
		}
		if got != want {
			t.Errorf("ParseKind(%q) = %v, want %v", name, got, want)
		}
		if ForKind(got).Kind != want {
			t.Errorf("ForKind(%v) returned the %v dialect", want, ForKind(got).Kind)
		}
	}
	if _, err := ParseKind("dbase"); err == nil {
		t.Error("expected an error for an unknown dialect")
	}
}

func TestQuoteIdentifier(t *testing.T) {
	cases := []struct {
		d    *Dialect
		in   string
		want string
	}{
		{Default, "name", "name"},
		{Postgres, `we"ird`, `"we""ird"`},
		{MySQL, "we`ird", "`we``ird`"},
		{MSSQL, "we]ird", "[we]]ird]"},
		{Oracle, "name", `"NAME"`},
		{Default.WithQuoting(true), "name", `"name"`},
		{Postgres.WithIdentifierCase(FoldUpper, FoldNone), "name", `"NAME"`},
	}
	for _, tc := range cases {
		if got := tc.d.QuoteIdentifier(tc.in); got != tc.want {
			t.Errorf("%s: QuoteIdentifier(%q) = %s, want %s", tc.d.Name(), tc.in, got, tc.want)
		}
	}
	if Oracle.OutputIdentifier("NAME") != "name" {
		t.Errorf("expected Oracle output folding to lower case")
	}
	if !Postgres.QuoteIdentifiers || Default.QuoteIdentifiers {
		t.Errorf("WithQuoting must not modify the shared dialect")
	}
}

func TestCompile_LimitStrategies(t *testing.T) {
	limited := func(limit, offset *int) *query.AST {
		ast := table("t")
		ast.Order = []query.Expr{query.I("id")}
		ast.Limit, ast.Offset = limit, offset
		return ast
	}

	cases := []struct {
		name string
		d    *Dialect
		ast  *query.AST
		want string
	}{
		{"default", Default, limited(intp(10), intp(20)), "SELECT * FROM t ORDER BY id LIMIT 10 OFFSET 20"},
		{"default offset only", Default, limited(nil, intp(5)), "SELECT * FROM t ORDER BY id OFFSET 5"},
		{"postgres", Postgres, limited(intp(10), nil), `SELECT * FROM "t" ORDER BY "id" LIMIT 10`},
		{"mysql offset only", MySQL, limited(nil, intp(5)), "SELECT * FROM `t` ORDER BY `id` LIMIT 18446744073709551615 OFFSET 5"},
		{"sqlite offset only", SQLite, limited(nil, intp(5)), `SELECT * FROM "t" ORDER BY "id" LIMIT -1 OFFSET 5`},
		{"mssql top", MSSQL, limited(intp(10), nil), `SELECT TOP (10) * FROM [t] ORDER BY [id]`},
		{"firebird", Firebird, limited(intp(10), intp(20)), `SELECT FIRST 10 SKIP 20 * FROM "T" ORDER BY "ID"`},
		{"db2 fetch first", DB2, limited(intp(10), nil), `SELECT * FROM "T" ORDER BY "ID" FETCH FIRST 10 ROWS ONLY`},
		{"h2", H2, limited(intp(10), intp(20)), `SELECT * FROM "T" ORDER BY "ID" LIMIT 10 OFFSET 20`},
		{"oracle rownum", Oracle, limited(intp(10), nil),
			`SELECT * FROM (SELECT * FROM "T" ORDER BY "ID") "T1" WHERE (ROWNUM <= 10)`},
		{"oracle row number", Oracle, limited(intp(10), intp(20)),
			`SELECT * FROM (SELECT "T".*, ROW_NUMBER() OVER (ORDER BY "ID") AS "X_ROW_NUMBER_X" FROM "T") "T1" ` +
				`WHERE ("X_ROW_NUMBER_X" > 20 AND "X_ROW_NUMBER_X" <= 30) ORDER BY "X_ROW_NUMBER_X"`},
		{"db2 row number", DB2, limited(nil, intp(20)),
			`SELECT * FROM (SELECT "T".*, ROW_NUMBER() OVER (ORDER BY "ID") AS "X_ROW_NUMBER_X" FROM "T") AS "T1" ` +
				`WHERE ("X_ROW_NUMBER_X" > 20) ORDER BY "X_ROW_NUMBER_X"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			expectSQL(t, tc.d, tc.ast, tc.want)
		})
	}
}

func TestCompile_MSSQLOffsetUnsupported(t *testing.T) {
	ast := table("t")
	ast.Limit, ast.Offset = intp(10), intp(20)
	_, _, err := NewCompiler(MSSQL).Compile(ast)
	expectKind(t, err, query.ErrUnsupportedFeature, "limit")
}

func TestCompile_RowNumberKeepsExplicitColumns(t *testing.T) {
	ast := table("t")
	ast.Columns = []query.Expr{query.I("id"), query.As(query.I("name"), "n")}
	ast.Offset = intp(5)

	expectSQL(t, Oracle, ast,
		`SELECT "T1"."ID", "T1"."N" FROM (SELECT "ID", "NAME" AS "N", ROW_NUMBER() OVER (ORDER BY NULL) AS "X_ROW_NUMBER_X" FROM "T") "T1" `+
			`WHERE ("X_ROW_NUMBER_X" > 5) ORDER BY "X_ROW_NUMBER_X"`)
}

func TestCompile_RowNumberNamesExpressions(t *testing.T) {
	ast := table("t")
	ast.Columns = []query.Expr{query.I("id"), query.Add(query.I("a"), 1)}
	ast.Offset = intp(5)

	expectSQL(t, Oracle, ast,
		`SELECT "T1"."ID", "T1"."X_COL_2" FROM (SELECT "ID", ("A" + 1) AS "X_COL_2", ROW_NUMBER() OVER (ORDER BY NULL) AS "X_ROW_NUMBER_X" FROM "T") "T1" `+
			`WHERE ("X_ROW_NUMBER_X" > 5) ORDER BY "X_ROW_NUMBER_X"`)
}

func TestCompile_Compounds(t *testing.T) {
	compound := func(op query.CompoundOp, all bool) *query.AST {
		ast := table("a")
		ast.Compounds = []query.Compound{{Op: op, All: all, Query: table("b")}}
		return ast
	}

	expectSQL(t, Postgres, compound(query.Union, false), `SELECT * FROM "a" UNION (SELECT * FROM "b")`)
	expectSQL(t, SQLite, compound(query.Union, true), `SELECT * FROM "a" UNION ALL SELECT * FROM "b"`)
	expectSQL(t, Oracle, compound(query.Except, false), `SELECT * FROM "A" MINUS SELECT * FROM "B"`)
	expectSQL(t, Postgres, compound(query.Intersect, true), `SELECT * FROM "a" INTERSECT ALL (SELECT * FROM "b")`)

	_, _, err := NewCompiler(MySQL).Compile(compound(query.Intersect, false))
	expectKind(t, err, query.ErrUnsupportedFeature, "compounds")

	_, _, err = NewCompiler(SQLite).Compile(compound(query.Except, true))
	expectKind(t, err, query.ErrUnsupportedFeature, "compounds")
}

func TestCompile_CompoundWrapsOrderedMember(t *testing.T) {
	right := table("b")
	right.Order = []query.Expr{query.I("x")}
	ast := table("a")
	ast.Compounds = []query.Compound{{Op: query.Union, Query: right}}

	expectSQL(t, Default, ast, "SELECT * FROM a UNION SELECT * FROM (SELECT * FROM b ORDER BY x) AS t1")
}

func TestCompile_Locks(t *testing.T) {
	locked := func(mode query.LockMode) *query.AST {
		ast := table("t")
		ast.Lock = mode
		return ast
	}

	expectSQL(t, Postgres, locked(query.ForUpdate), `SELECT * FROM "t" FOR UPDATE`)
	expectSQL(t, Postgres, locked(query.SkipLocked), `SELECT * FROM "t" FOR UPDATE SKIP LOCKED`)
	expectSQL(t, MySQL, locked(query.ForShare), "SELECT * FROM `t` LOCK IN SHARE MODE")
	expectSQL(t, MSSQL, locked(query.ForUpdate), `SELECT * FROM [t] WITH (UPDLOCK)`)
	expectSQL(t, Default, locked("FOR NO KEY UPDATE"), `SELECT * FROM t FOR NO KEY UPDATE`)

	_, _, err := NewCompiler(SQLite).Compile(locked(query.ForUpdate))
	expectKind(t, err, query.ErrUnsupportedFeature, "lock")

	_, _, err = NewCompiler(Oracle).Compile(locked(query.ForShare))
	expectKind(t, err, query.ErrUnsupportedFeature, "lock")
}

func TestCompile_BooleanEmulation(t *testing.T) {
	ast := table("t")
	ast.Where = query.IsTrue(query.I("active"))
	expectSQL(t, MSSQL, ast, `SELECT * FROM [t] WHERE ([active] = 1)`)

	ast.Where = query.Invert(query.IsTrue(query.I("active")))
	expectSQL(t, MSSQL, ast, `SELECT * FROM [t] WHERE ([active] <> 1 OR [active] IS NULL)`)

	ast.Where = query.V(true)
	expectSQL(t, MSSQL, ast, `SELECT * FROM [t] WHERE (1 = 1)`)
	expectSQL(t, SQLite, ast, `SELECT * FROM "t" WHERE 1`)
}

func TestCompile_NativeILike(t *testing.T) {
	ast := table("t")
	ast.Where = query.ILike(query.I("name"), "a%")
	expectSQL(t, Postgres, ast, `SELECT * FROM "t" WHERE ("name" ILIKE 'a%')`)
	expectSQL(t, SQLite, ast, `SELECT * FROM "t" WHERE (LOWER("name") LIKE LOWER('a%'))`)
}

func TestCompile_WindowAndNullsSupport(t *testing.T) {
	ast := table("t")
	ast.Columns = []query.Expr{query.F("rank").OverWindow(query.Window{OrderBy: []query.Expr{query.I("x")}})}
	_, _, err := NewCompiler(MySQL).Compile(ast)
	expectKind(t, err, query.ErrUnsupportedFeature, "window")

	ast = table("t")
	ast.Order = []query.Expr{query.OrderedExpression{Expr: query.I("x"), Nulls: query.NullsFirst}}
	_, _, err = NewCompiler(MySQL).Compile(ast)
	expectKind(t, err, query.ErrUnsupportedFeature, "order")
	expectSQL(t, Postgres, ast, `SELECT * FROM "t" ORDER BY "x" ASC NULLS FIRST`)
}

func TestCompile_Insert(t *testing.T) {
	ins := func(rows ...[]any) *query.AST {
		return &query.AST{
			Kind:   query.InsertQuery,
			From:   []query.Expr{query.I("t")},
			Insert: &query.InsertPayload{Columns: []query.Expr{query.I("a"), query.I("b")}, Rows: rows},
		}
	}

	expectSQL(t, Default, ins([]any{1, "x"}, []any{2, "y"}), "INSERT INTO t (a, b) VALUES (1, 'x'), (2, 'y')")

	ret := ins([]any{1, "x"})
	ret.Returning = []query.Expr{query.I("id")}
	expectSQL(t, Postgres, ret, `INSERT INTO "t" ("a", "b") VALUES (1, 'x') RETURNING "id"`)
	expectSQL(t, MSSQL, ret, `INSERT INTO [t] ([a], [b]) OUTPUT INSERTED.[id] VALUES (1, N'x')`)

	_, _, err := NewCompiler(MySQL).Compile(ret)
	expectKind(t, err, query.ErrUnsupportedFeature, "returning")

	_, _, err = NewCompiler(Firebird).Compile(ins([]any{1, "x"}, []any{2, "y"}))
	expectKind(t, err, query.ErrUnsupportedFeature, "values")

	_, _, err = NewCompiler(Default).Compile(ins([]any{1}))
	expectKind(t, err, query.ErrMalformedInput, "values")

	empty := &query.AST{Kind: query.InsertQuery, From: []query.Expr{query.I("t")}}
	expectSQL(t, Default, empty, "INSERT INTO t DEFAULT VALUES")
	expectSQL(t, MySQL, empty, "INSERT INTO `t` () VALUES ()")

	sel := &query.AST{
		Kind:   query.InsertQuery,
		From:   []query.Expr{query.I("archive")},
		Insert: &query.InsertPayload{Select: table("t")},
	}
	expectSQL(t, Default, sel, "INSERT INTO archive SELECT * FROM t")
}

func TestCompile_Update(t *testing.T) {
	upd := &query.AST{
		Kind:  query.UpdateQuery,
		From:  []query.Expr{query.I("t")},
		Set:   []query.SetClause{{Column: query.I("a"), Value: 1}, {Column: query.I("b"), Value: query.Add(query.I("b"), 1)}},
		Where: query.Eq(query.I("id"), 5),
	}
	expectSQL(t, Default, upd, "UPDATE t SET a = 1, b = (b + 1) WHERE (id = 5)")

	limited := upd.Clone()
	limited.Where = nil
	limited.Order = []query.Expr{query.I("id")}
	limited.Limit = intp(5)
	expectSQL(t, MySQL, limited, "UPDATE `t` SET `a` = 1, `b` = (`b` + 1) ORDER BY `id` LIMIT 5")

	_, _, err := NewCompiler(Postgres).Compile(limited)
	expectKind(t, err, query.ErrUnsupportedFeature, "limit")

	noSet := upd.Clone()
	noSet.Set = nil
	_, _, err = NewCompiler(Default).Compile(noSet)
	expectKind(t, err, query.ErrMalformedInput, "set")
}

func TestCompile_Delete(t *testing.T) {
	del := &query.AST{
		Kind:      query.DeleteQuery,
		From:      []query.Expr{query.I("t")},
		Where:     query.Eq(query.I("id"), 5),
		Returning: []query.Expr{query.I("id")},
	}
	expectSQL(t, Postgres, del, `DELETE FROM "t" WHERE ("id" = 5) RETURNING "id"`)
	expectSQL(t, MSSQL, del, `DELETE FROM [t] OUTPUT DELETED.[id] WHERE ([id] = 5)`)

	multi := del.Clone()
	multi.From = append(multi.From, query.I("u"))
	_, _, err := NewCompiler(Postgres).Compile(multi)
	expectKind(t, err, query.ErrInvalidOperation, "delete")
}
