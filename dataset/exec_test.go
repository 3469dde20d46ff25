package dataset_test

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipq/sequel/dataset"
	"github.com/shipq/sequel/proptest"
	"github.com/shipq/sequel/query"
	"github.com/shipq/sequel/query/compile"
	"github.com/shipq/sequel/sqlexec"
)

const schema = `
CREATE TABLE people (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL, age INTEGER);
CREATE TABLE pets (id INTEGER PRIMARY KEY AUTOINCREMENT, person_id INTEGER NOT NULL, name TEXT NOT NULL);
`

func openDB(t *testing.T, opts ...sqlexec.Option) *sqlexec.DB {
	t.Helper()
	sqlDB, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	db := sqlexec.New(sqlDB, compile.SQLite, opts...)
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		_, err := db.Exec(t.Context(), stmt)
		require.NoError(t, err)
	}
	return db
}

// seed inserts ann (30), bob (45) and cy (19); ann owns two pets.
func seed(t *testing.T, db *sqlexec.DB) {
	t.Helper()
	ctx := t.Context()
	err := db.Dataset("people").Import(ctx, []string{"name", "age"}, [][]any{
		{"ann", 30},
		{"bob", 45},
		{"cy", 19},
	})
	require.NoError(t, err)
	err = db.Dataset("pets").Import(ctx, []string{"person_id", "name"}, [][]any{
		{1, "rex"},
		{1, "tom"},
	})
	require.NoError(t, err)
}

func names(rows []dataset.Row) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r["name"]
	}
	return out
}

func TestExec_Read(t *testing.T) {
	db := openDB(t)
	seed(t, db)
	ctx := t.Context()
	people := db.Dataset("people")

	rows, err := people.Order("id").All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []any{"ann", "bob", "cy"}, names(rows))
	assert.Equal(t, int64(30), rows[0]["age"])

	first, err := people.Order(query.I("age").Desc()).First(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bob", first["name"])

	none, err := people.Where(query.Hash{"name": "nobody"}).First(ctx)
	require.NoError(t, err)
	assert.Nil(t, none)

	age, err := people.Where(query.Hash{"name": "cy"}).Get(ctx, "age")
	require.NoError(t, err)
	assert.Equal(t, int64(19), age)

	var seen []any
	err = people.Order("id").Each(ctx, func(r dataset.Row) error {
		seen = append(seen, r["name"])
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"ann", "bob", "cy"}, seen)

	stop := errors.New("stop")
	err = people.Each(ctx, func(dataset.Row) error { return stop })
	assert.ErrorIs(t, err, stop)
}

func TestExec_Count(t *testing.T) {
	db := openDB(t)
	seed(t, db)
	ctx := t.Context()
	people := db.Dataset("people")

	n, err := people.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	young := people.Select("name").Where(query.Lt(query.I("age"), 25))
	old := people.Select("name").Where(query.Gt(query.I("age"), 40))
	n, err = young.Union(old).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = people.Union(people).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n, "UNION drops duplicates")

	n, err = people.UnionAll(people).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)

	n, err = people.Limit(2).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestExec_Write(t *testing.T) {
	db := openDB(t)
	seed(t, db)
	ctx := t.Context()
	people := db.Dataset("people")

	id, err := people.Insert(ctx, query.Hash{"name": "dee", "age": 52})
	require.NoError(t, err)
	assert.Equal(t, int64(4), id)

	n, err := people.Where(query.Gt(query.I("age"), 40)).Update(ctx, query.Hash{"age": query.I("age").Add(1)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	age, err := people.Where(query.Hash{"name": "dee"}).Get(ctx, "age")
	require.NoError(t, err)
	assert.Equal(t, int64(53), age)

	n, err = people.Where(query.Hash{"name": []any{"cy", "dee"}}).Delete(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	rows, err := people.Order("id").All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []any{"ann", "bob"}, names(rows))
}

func TestExec_InsertSelect(t *testing.T) {
	db := openDB(t)
	seed(t, db)
	ctx := t.Context()

	_, err := db.Exec(ctx, `CREATE TABLE names (name TEXT)`)
	require.NoError(t, err)

	src := db.Dataset("people").Select("name").Where(query.Gt(query.I("age"), 20))
	_, err = db.Dataset("names").Insert(ctx, src)
	require.NoError(t, err)

	n, err := db.Dataset("names").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestExec_ImportRollsBack(t *testing.T) {
	db := openDB(t)
	ctx := t.Context()

	// The second batch violates NOT NULL; the first must not survive.
	err := db.Dataset("people").Import(ctx, []string{"name", "age"}, [][]any{
		{"ann", 30},
		{nil, 45},
	}, dataset.ImportOptions{BatchSize: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import batch 1")

	n, err := db.Dataset("people").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestExec_PreparedByName(t *testing.T) {
	for _, mode := range []dataset.BindMode{dataset.NativeBinds, dataset.EmulatedBinds} {
		t.Run(mode.String(), func(t *testing.T) {
			db := openDB(t)
			seed(t, db)
			ctx := t.Context()

			byName, err := db.Dataset("people").WithBindMode(mode).
				Where(query.Hash{"name": query.P("name")}).
				Prepare(dataset.PrepareSelect, "by_name")
			require.NoError(t, err)

			res, err := byName.Call(ctx, map[string]any{"name": "bob"})
			require.NoError(t, err)
			rows := res.([]dataset.Row)
			require.Len(t, rows, 1)
			assert.Equal(t, "bob", rows[0]["name"])

			res, err = db.Call(ctx, "by_name", map[string]any{"name": "ann"})
			require.NoError(t, err)
			assert.Equal(t, []any{"ann"}, names(res.([]dataset.Row)))

			_, err = byName.Call(ctx, nil)
			require.ErrorIs(t, err, query.ErrMissingBindVariable)
		})
	}
}

func TestExec_PreparedKinds(t *testing.T) {
	db := openDB(t)
	seed(t, db)
	ctx := t.Context()
	people := db.Dataset("people")

	ins, err := people.Prepare(dataset.PrepareInsert, "", query.Hash{"name": query.P("n"), "age": query.P("a")})
	require.NoError(t, err)
	id, err := ins.Call(ctx, map[string]any{"n": "eve", "a": 61})
	require.NoError(t, err)
	assert.Equal(t, int64(4), id)

	first, err := people.Where(query.Hash{"id": query.P("id")}).Prepare(dataset.PrepareFirst, "")
	require.NoError(t, err)
	row, err := first.Call(ctx, map[string]any{"id": id})
	require.NoError(t, err)
	assert.Equal(t, "eve", row.(dataset.Row)["name"])

	row, err = first.Call(ctx, map[string]any{"id": 99})
	require.NoError(t, err)
	assert.Nil(t, row)

	upd, err := people.Where(query.Hash{"id": query.P("id")}).
		Prepare(dataset.PrepareUpdate, "", query.Hash{"age": query.P("age")})
	require.NoError(t, err)
	n, err := upd.Call(ctx, map[string]any{"id": id, "age": 62})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	del, err := people.Where(query.Gt(query.I("age"), query.P("min"))).Prepare(dataset.PrepareDelete, "")
	require.NoError(t, err)
	n, err = del.Call(ctx, map[string]any{"min": 40})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestExec_GraphMissingTableIsNil(t *testing.T) {
	db := openDB(t)
	seed(t, db)
	ctx := t.Context()

	rows, err := db.Dataset("people").Select("id", "name").
		Graph("pets", query.Hash{"person_id": "id"}, query.GraphOptions{Columns: []string{"id", "name"}}).
		Order(query.Q("people", "id"), query.Q("pets", "id")).
		All(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, map[string]any{"id": int64(1), "name": "ann"}, rows[0]["people"])
	assert.Equal(t, map[string]any{"id": int64(1), "name": "rex"}, rows[0]["pets"])
	assert.Equal(t, map[string]any{"id": int64(2), "name": "tom"}, rows[1]["pets"])

	bob := rows[2]
	assert.Equal(t, "bob", bob["people"].(map[string]any)["name"])
	assert.Contains(t, bob, "pets")
	assert.Nil(t, bob["pets"], "a left join with no match yields nil for the table")
}

func TestExec_OutputCase(t *testing.T) {
	db := openDB(t)
	seed(t, db)

	row, err := db.Dataset("people").IdentifierCase(compile.FoldNone, compile.FoldUpper).
		Where(query.Hash{"name": "ann"}).
		First(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "ann", row["NAME"])
	assert.NotContains(t, row, "name")
}

func TestExec_NoDatabase(t *testing.T) {
	ds := dataset.NewWithDialect(compile.SQLite, "people")
	ctx := context.Background()

	_, err := ds.All(ctx)
	assert.ErrorIs(t, err, dataset.ErrNoDatabase)
	_, err = ds.Count(ctx)
	assert.ErrorIs(t, err, dataset.ErrNoDatabase)
	_, err = ds.Insert(ctx, query.Hash{"name": "x"})
	assert.ErrorIs(t, err, dataset.ErrNoDatabase)
}

// Strings that survive the round trip must come back byte for byte whether
// the value travels as a driver argument or inside the SQL text.
func TestExec_EmulatedEscaping(t *testing.T) {
	db := openDB(t)
	ctx := t.Context()
	people := db.Dataset("people")

	nativeIns, err := people.Prepare(dataset.PrepareInsert, "", query.Hash{"name": query.P("name")})
	require.NoError(t, err)
	emulatedIns, err := people.WithBindMode(dataset.EmulatedBinds).
		Prepare(dataset.PrepareInsert, "", query.Hash{"name": query.P("name")})
	require.NoError(t, err)
	lookup := people.WithBindMode(dataset.EmulatedBinds).Where(query.Hash{"name": query.P("name")})

	proptest.CheckWithLabel(t, "emulated binds round trip", proptest.Config{NumTrials: 200}, func(g *proptest.Generator) (string, bool) {
		s := g.EdgeCaseString()
		// SQL text cannot carry NUL through the SQLite C API.
		if strings.ContainsRune(s, 0) {
			return "", true
		}
		binds := map[string]any{"name": s}

		nativeID, err := nativeIns.Call(ctx, binds)
		if err != nil {
			return err.Error(), false
		}
		emulatedID, err := emulatedIns.Call(ctx, binds)
		if err != nil {
			return err.Error(), false
		}

		for _, id := range []any{nativeID, emulatedID} {
			got, err := people.Where(query.Hash{"id": id}).Get(ctx, "name")
			if err != nil || got != s {
				return s, false
			}
		}

		res, err := lookup.Call(ctx, dataset.PrepareSelect, binds)
		if err != nil {
			return err.Error(), false
		}
		if len(res.([]dataset.Row)) < 2 {
			return s, false
		}
		return s, true
	})
}

// Random predicates select the same rows whether binds are native or
// emulated.
func TestExec_BindModesAgree(t *testing.T) {
	db := openDB(t)
	seed(t, db)
	ctx := t.Context()
	people := db.Dataset("people")

	proptest.CheckWithLabel(t, "bind modes agree", proptest.Config{NumTrials: 100}, func(g *proptest.Generator) (string, bool) {
		col := proptest.OneOf(g, "name", "age")
		var v any = int64(g.IntRange(0, 60))
		if col == "name" {
			v = proptest.OneOf[any](g, "ann", "bob", "it's", g.String(4))
		}
		op := proptest.OneOf(g, query.Eq, query.Ne, query.Lt, query.Gte)
		var rhs any = query.P("v")
		if n, ok := v.(int64); ok && g.Bool() {
			// -(-n) must not read as a comment once n is written inline.
			rhs, v = query.Neg(query.P("v")), -n
		}
		ds := people.Where(op(query.I(col), rhs)).Order("id")
		binds := map[string]any{"v": v}

		native, err := ds.Call(ctx, dataset.PrepareSelect, binds)
		if err != nil {
			return err.Error(), false
		}
		emulated, err := ds.WithBindMode(dataset.EmulatedBinds).Call(ctx, dataset.PrepareSelect, binds)
		if err != nil {
			return err.Error(), false
		}
		label, _ := ds.SQL()
		return label, assert.ObjectsAreEqual(names(native.([]dataset.Row)), names(emulated.([]dataset.Row)))
	})
}

func TestExec_NegatedBind(t *testing.T) {
	db := openDB(t)
	seed(t, db)
	ctx := t.Context()
	ds := db.Dataset("people").Where(query.Gt(query.Neg(query.P("v")), query.I("age"))).Order("id")
	binds := map[string]any{"v": -50}

	for _, mode := range []dataset.BindMode{dataset.NativeBinds, dataset.EmulatedBinds} {
		res, err := ds.WithBindMode(mode).Call(ctx, dataset.PrepareSelect, binds)
		require.NoError(t, err, mode.String())
		assert.Equal(t, []any{"ann", "bob", "cy"}, names(res.([]dataset.Row)), mode.String())
	}
}

// Inverting twice may rewrite NOT nodes but never changes which rows match.
func TestExec_DoubleInvertSelectsSameRows(t *testing.T) {
	db := openDB(t)
	seed(t, db)
	ctx := t.Context()
	people := db.Dataset("people").Order("id")

	proptest.CheckWithLabel(t, "double invert", proptest.Config{NumTrials: 100}, func(g *proptest.Generator) (string, bool) {
		p := g.Predicate([]string{"name", "age"}, 3)
		ds := people.Where(p)
		label, err := ds.SQL()
		if err != nil {
			return err.Error(), false
		}
		if strings.ContainsRune(label, 0) {
			return "", true
		}

		want, err := ds.All(ctx)
		if err != nil {
			return label, false
		}
		got, err := people.Where(query.Invert(query.Invert(p))).All(ctx)
		if err != nil {
			return label, false
		}
		return label, assert.ObjectsAreEqual(names(want), names(got))
	})
}
