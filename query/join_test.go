package query

import (
	"errors"
	"testing"
)

func from(tables ...string) *AST {
	a := &AST{Kind: SelectQuery}
	for _, t := range tables {
		a.From = append(a.From, C(t))
	}
	return a
}

func TestJoin_HashQualifiesBothSides(t *testing.T) {
	got, err := Join(from("a"), InnerJoin, "b", Hash{"a_id": "id"}, JoinOptions{})
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if len(got.Joins) != 1 {
		t.Fatalf("expected 1 join, got %d", len(got.Joins))
	}
	j := got.Joins[0]
	if j.Alias != "b" || !Equal(j.Table, I("b")) {
		t.Errorf("unexpected target %#v alias %q", j.Table, j.Alias)
	}
	if want := Eq(Q("b", "a_id"), Q("a", "id")); !Equal(j.On, want) {
		t.Errorf("expected %#v, got %#v", want, j.On)
	}
}

func TestJoin_SecondJoinQualifiesAgainstLastJoin(t *testing.T) {
	ast, err := Join(from("a"), InnerJoin, "b", Hash{"a_id": "id"}, JoinOptions{})
	if err != nil {
		t.Fatal(err)
	}
	ast, err = Join(ast, LeftJoin, "c", Hash{"b_id": "id"}, JoinOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if want := Eq(Q("c", "b_id"), Q("b", "id")); !Equal(ast.Joins[1].On, want) {
		t.Errorf("expected %#v, got %#v", want, ast.Joins[1].On)
	}

	ast, err = Join(ast, LeftJoin, "d", Hash{"a_id": "id"}, JoinOptions{ImplicitQualifier: "a"})
	if err != nil {
		t.Fatal(err)
	}
	if want := Eq(Q("d", "a_id"), Q("a", "id")); !Equal(ast.Joins[2].On, want) {
		t.Errorf("expected implicit qualifier to win, got %#v", ast.Joins[2].On)
	}
}

func TestJoin_NonColumnValuesUsePredicateRules(t *testing.T) {
	got, err := Join(from("a"), InnerJoin, "b", Pairs{{Key: "a_id", Value: "id"}, {Key: "active", Value: true}}, JoinOptions{})
	if err != nil {
		t.Fatal(err)
	}
	want := And(Eq(Q("b", "a_id"), Q("a", "id")), BooleanExpression{Op: OpIs, Args: []Expr{Q("b", "active"), V(true)}})
	if !Equal(got.Joins[0].On, want) {
		t.Errorf("expected %#v, got %#v", want, got.Joins[0].On)
	}
}

func TestJoin_SubqueryGetsSyntheticAlias(t *testing.T) {
	sub := from("b")
	ast, err := Join(from("a"), InnerJoin, sub, Hash{"a_id": "id"}, JoinOptions{})
	if err != nil {
		t.Fatal(err)
	}
	ast, err = Join(ast, InnerJoin, sub, Hash{"a_id": "id"}, JoinOptions{ImplicitQualifier: "a"})
	if err != nil {
		t.Fatal(err)
	}
	if ast.Joins[0].Alias != "t1" || ast.Joins[1].Alias != "t2" {
		t.Errorf("expected t1, t2 got %q, %q", ast.Joins[0].Alias, ast.Joins[1].Alias)
	}
	if ast.JoinCounter != 2 {
		t.Errorf("expected join counter 2, got %d", ast.JoinCounter)
	}
}

func TestJoin_CounterNeverReused(t *testing.T) {
	ast, err := Join(from("a"), InnerJoin, from("b"), Hash{"a_id": "id"}, JoinOptions{})
	if err != nil {
		t.Fatal(err)
	}
	ast.Joins = nil
	ast, err = Join(ast, InnerJoin, from("c"), Hash{"a_id": "id"}, JoinOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if ast.Joins[0].Alias != "t2" {
		t.Errorf("expected t2 after clearing joins, got %q", ast.Joins[0].Alias)
	}
}

func TestJoin_SkipsAliasesOfDerivedSources(t *testing.T) {
	outer := &AST{Kind: SelectQuery, From: []Expr{Subquery{Query: from("a")}}}
	if got := outer.SourceAliases(); len(got) != 1 || got[0] != "t1" {
		t.Fatalf("expected bare subquery to be visible as t1, got %v", got)
	}
	ast, err := Join(outer, InnerJoin, from("b"), Hash{"a_id": "id"}, JoinOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if ast.Joins[0].Alias != "t2" {
		t.Errorf("expected t2, got %q", ast.Joins[0].Alias)
	}
	if want := Eq(Q("t2", "a_id"), Q("t1", "id")); !Equal(ast.Joins[0].On, want) {
		t.Errorf("expected %#v, got %#v", want, ast.Joins[0].On)
	}

	wrapped := FromSelf(from("a"), "t1")
	ast, err = Join(wrapped, InnerJoin, from("b"), Hash{"a_id": "id"}, JoinOptions{})
	if err != nil {
		t.Fatalf("explicit t1 must not collide with a synthetic alias: %v", err)
	}
	if ast.Joins[0].Alias != "t2" {
		t.Errorf("expected t2 after explicit t1, got %q", ast.Joins[0].Alias)
	}

	self := FromSelf(from("a"), "")
	if self.JoinCounter != 1 || self.FirstSourceAlias() != "t1" {
		t.Errorf("expected FromSelf to draw t1 from the counter, got %q (counter %d)",
			self.FirstSourceAlias(), self.JoinCounter)
	}
}

func TestJoin_AliasConflict(t *testing.T) {
	_, err := Join(from("a"), InnerJoin, "a", Hash{"x": "y"}, JoinOptions{})
	if !errors.Is(err, ErrAliasConflict) {
		t.Fatalf("expected AliasConflict, got %v", err)
	}

	got, err := Join(from("a"), InnerJoin, "a", Hash{"parent_id": "id"}, JoinOptions{TableAlias: "parent"})
	if err != nil {
		t.Fatalf("explicit alias should avoid the conflict: %v", err)
	}
	if want := Eq(Q("parent", "parent_id"), Q("a", "id")); !Equal(got.Joins[0].On, want) {
		t.Errorf("expected %#v, got %#v", want, got.Joins[0].On)
	}
}

func TestJoin_UsingAndFunc(t *testing.T) {
	got, err := Join(from("a"), InnerJoin, "b", []string{"id", "org_id"}, JoinOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if u := got.Joins[0].Using; len(u) != 2 || u[0] != "id" || u[1] != "org_id" {
		t.Errorf("unexpected USING list %v", u)
	}

	var sawJoined, sawLast string
	got, err = Join(got, InnerJoin, "c", JoinFunc(func(joined, last string, joins []JoinClause) Expr {
		sawJoined, sawLast = joined, last
		return Eq(Q(joined, "a_id"), Q(joins[0].Alias, "id"))
	}), JoinOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if sawJoined != "c" || sawLast != "b" {
		t.Errorf("expected joined=c last=b, got %q %q", sawJoined, sawLast)
	}
	if want := Eq(Q("c", "a_id"), Q("b", "id")); !Equal(got.Joins[1].On, want) {
		t.Errorf("expected %#v, got %#v", want, got.Joins[1].On)
	}
}

func TestJoin_ConditionShape(t *testing.T) {
	if _, err := Join(from("a"), CrossJoin, "b", Hash{"x": "y"}, JoinOptions{}); !errors.Is(err, ErrMalformedInput) {
		t.Errorf("cross join with condition: expected MalformedInput, got %v", err)
	}
	if _, err := Join(from("a"), InnerJoin, "b", nil, JoinOptions{}); !errors.Is(err, ErrMalformedInput) {
		t.Errorf("inner join without condition: expected MalformedInput, got %v", err)
	}
	got, err := Join(from("a"), NaturalJoin, "b", nil, JoinOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if got.Joins[0].On != nil || got.Joins[0].Using != nil {
		t.Errorf("natural join should carry no condition")
	}
}

func TestJoin_DoesNotMutateReceiver(t *testing.T) {
	base := from("a")
	if _, err := Join(base, InnerJoin, from("b"), Hash{"a_id": "id"}, JoinOptions{}); err != nil {
		t.Fatal(err)
	}
	if len(base.Joins) != 0 || base.JoinCounter != 0 {
		t.Errorf("receiver was mutated: %#v", base)
	}
}
