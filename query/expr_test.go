package query

import (
	"errors"
	"strings"
	"testing"
)

func TestC_ParsesColumnStrings(t *testing.T) {
	cases := []struct {
		in   string
		want Expr
	}{
		{"name", I("name")},
		{"users.name", Q("users", "name")},
		{"users__name", Q("users", "name")},
		{"name___n", As(I("name"), "n")},
		{"users__name___n", As(Q("users", "name"), "n")},
		{"*", Star{}},
		{"users.*", Star{Table: "users"}},
		{"public.users.id", Q("public.users", "id")},
		{"_private", I("_private")},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			if got := C(tc.in); !Equal(got, tc.want) {
				t.Errorf("expected %#v, got %#v", tc.want, got)
			}
		})
	}
}

func TestToExpr(t *testing.T) {
	sub := &AST{Kind: SelectQuery}
	if got := ToExpr(sub); !Equal(got, Subquery{Query: sub}) {
		t.Errorf("expected subquery, got %#v", got)
	}
	if got := ToExpr(I("a")); !Equal(got, I("a")) {
		t.Errorf("expected expression unchanged, got %#v", got)
	}
	if got := ToExpr(3); !Equal(got, V(3)) {
		t.Errorf("expected wrapped value, got %#v", got)
	}
}

func TestAnd_Flattens(t *testing.T) {
	a, b, c := Eq(I("a"), 1), Eq(I("b"), 2), Eq(I("c"), 3)
	got := And(And(a, b), c, nil)
	if len(got.Args) != 3 {
		t.Errorf("expected 3 flattened args, got %d", len(got.Args))
	}
	if o := Or(a, And(b, c)); len(o.Args) != 2 {
		t.Errorf("AND inside OR must not flatten, got %d args", len(o.Args))
	}
}

func TestOrderedExpression_Invert(t *testing.T) {
	o := OrderedExpression{Expr: I("a"), Nulls: NullsFirst}
	inv := o.Invert()
	if !inv.Desc || inv.Nulls != NullsLast {
		t.Errorf("unexpected inversion %#v", inv)
	}
}

func TestError_MessageCarriesContext(t *testing.T) {
	err := NewValueError(UnsupportedFeature, "limit", 20, "offset is not supported")
	msg := err.Error()
	for _, want := range []string{"unsupported feature", "limit", "offset is not supported", "20"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}
	if !errors.Is(err, ErrUnsupportedFeature) {
		t.Errorf("expected errors.Is to match by kind")
	}
	if errors.Is(err, ErrTypeMismatch) {
		t.Errorf("different kinds must not match")
	}
}

func TestPlaceholderNames_FirstOccurrenceOrder(t *testing.T) {
	ast := &AST{
		Kind:  SelectQuery,
		From:  []Expr{I("t")},
		Where: And(Eq(I("a"), P("x")), Eq(I("b"), P("y")), Eq(I("c"), P("x"))),
		Compounds: []Compound{{Op: Union, Query: &AST{
			Kind:  SelectQuery,
			From:  []Expr{I("u")},
			Where: Eq(I("d"), P("z")),
		}}},
	}
	got := PlaceholderNames(ast)
	if strings.Join(got, ",") != "x,y,z" {
		t.Errorf("expected x,y,z got %v", got)
	}
	if !HasSubqueries(&AST{Where: In(I("a"), ast)}) {
		t.Errorf("expected subquery to be found")
	}
}
