package prettyprinter

import (
	"strings"
	"testing"

	"github.com/eatikrh/kleis-sub002/internal/ast"
	"github.com/eatikrh/kleis-sub002/internal/structures"
	"github.com/eatikrh/kleis-sub002/internal/typesystem"
)

func TestExpressionFormatting(t *testing.T) {
	p := New()
	tests := []struct {
		name string
		expr ast.Expression
		want string
	}{
		{
			"infix plus",
			ast.NewOperation("plus", ast.NewObject("x"), ast.NewConst("1")),
			"x + 1",
		},
		{
			"nested infix keeps shape",
			ast.NewOperation("times",
				ast.NewOperation("plus", ast.NewObject("a"), ast.NewObject("b")),
				ast.NewObject("c")),
			"(a + b) * c",
		},
		{
			"negation",
			ast.NewOperation("negate", ast.NewOperation("plus", ast.NewObject("x"), ast.NewObject("y"))),
			"-(x + y)",
		},
		{
			"logical not",
			ast.NewOperation("not", ast.NewObject("p")),
			"¬p",
		},
		{
			"function call",
			ast.NewOperation("sqrt", ast.NewOperation("plus", ast.NewObject("x"), ast.NewConst("1"))),
			"sqrt(x + 1)",
		},
		{
			"nullary call",
			ast.NewOperation("pi"),
			"pi",
		},
		{
			"conditional",
			&ast.Conditional{Cond: ast.NewObject("p"), Then: ast.NewObject("x"), Else: ast.NewObject("y")},
			"if p then x else y",
		},
		{
			"let",
			&ast.Let{Name: "s", Value: ast.NewOperation("plus", ast.NewObject("x"), ast.NewObject("y")), Body: ast.NewObject("s")},
			"let s = x + y in s",
		},
		{
			"comparison",
			ast.NewOperation("less_equal", ast.NewObject("x"), ast.NewObject("y")),
			"x <= y",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Expression(tt.expr); got != tt.want {
				t.Errorf("Expression = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQuantifierFormatting(t *testing.T) {
	p := New()
	q := &ast.Quantifier{
		Kind: ast.ForAll,
		Bound: []ast.TypedVar{
			{Name: "x", Type: typesystem.Scalar{}},
			{Name: "y", Type: typesystem.Scalar{}},
		},
		Body: ast.NewOperation("equals",
			ast.NewOperation("plus", ast.NewObject("x"), ast.NewObject("y")),
			ast.NewOperation("plus", ast.NewObject("y"), ast.NewObject("x"))),
	}
	want := "∀(x : ℝ, y : ℝ). x + y = y + x"
	if got := p.Expression(q); got != want {
		t.Errorf("quantifier = %q, want %q", got, want)
	}

	q.Where = ast.NewOperation("not_equals", ast.NewObject("x"), ast.NewConst("0"))
	if got := p.Expression(q); !strings.Contains(got, "where x != 0.") {
		t.Errorf("where clause missing: %q", got)
	}

	ex := &ast.Quantifier{
		Kind:  ast.Exists,
		Bound: []ast.TypedVar{{Name: "n", Type: typesystem.Named{Name: "ℤ"}}},
		Body:  ast.NewOperation("greater_than", ast.NewObject("n"), ast.NewConst("0")),
	}
	if got := p.Expression(ex); got != "∃(n : ℤ). n > 0" {
		t.Errorf("existential = %q", got)
	}
}

func TestTypeFormatting(t *testing.T) {
	p := New()
	paramT := typesystem.Named{Name: "M"}

	// Signatures print as curried chains.
	sig := typesystem.Func{Params: []typesystem.Type{paramT, paramT}, Return: paramT}
	if got := p.Type(sig); got != "M → M → M" {
		t.Errorf("signature = %q, want M → M → M", got)
	}

	hof := typesystem.Func{
		Params: []typesystem.Type{typesystem.Func{Params: []typesystem.Type{paramT}, Return: paramT}},
		Return: paramT,
	}
	if got := p.Type(hof); got != "(M → M) → M" {
		t.Errorf("higher-order = %q, want (M → M) → M", got)
	}

	mat := typesystem.Parametric{Name: "Matrix", Args: []typesystem.Type{
		typesystem.Dim{Expr: typesystem.DimVar{Name: "m"}},
		typesystem.Dim{Expr: typesystem.DimVar{Name: "n"}},
		typesystem.Scalar{},
	}}
	if got := p.Type(mat); got != "Matrix(m, n, ℝ)" {
		t.Errorf("parametric = %q, want Matrix(m, n, ℝ)", got)
	}
}

func TestStructureDefBlock(t *testing.T) {
	paramM := typesystem.Named{Name: "M"}
	def := structures.StructureDef{
		Name:    "Monoid",
		Params:  []structures.TypeParam{{Name: "M", Kind: structures.KindType}},
		Extends: []string{"Semigroup"},
		Operations: []structures.Operation{
			{Name: "op", Signature: typesystem.Func{Params: []typesystem.Type{paramM, paramM}, Return: paramM}},
		},
		Elements: []structures.Element{{Name: "e", Type: paramM}},
		Axioms: []structures.Axiom{{
			Name: "left_identity",
			Proposition: &ast.Quantifier{
				Kind:  ast.ForAll,
				Bound: []ast.TypedVar{{Name: "x", Type: paramM}},
				Body: ast.NewOperation("equals",
					ast.NewOperation("op", ast.NewObject("e"), ast.NewObject("x")),
					ast.NewObject("x")),
			},
		}},
	}

	got := New().StructureDef(def)
	for _, want := range []string{
		"structure Monoid(M) extends Semigroup(M) {",
		"    operation op : M → M → M",
		"    element e : M",
		"    axiom left_identity: ∀(x : M). e * x = x",
		"}",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("structure block missing %q:\n%s", want, got)
		}
	}
}

func TestImplementationBlock(t *testing.T) {
	impl := structures.Implementation{
		Structure: "Monoid",
		TypeArgs:  []typesystem.Type{typesystem.Scalar{}},
		Bindings:  map[string]string{"op": "real_add"},
	}
	got := New().Implementation(impl)
	want := "implements Monoid(ℝ) {\n    operation op = real_add\n}"
	if got != want {
		t.Errorf("implementation = %q, want %q", got, want)
	}
}

func TestImplementationWhereClause(t *testing.T) {
	paramT := typesystem.Named{Name: "T"}
	impl := structures.Implementation{
		Structure: "MatrixMultipliable",
		TypeArgs: []typesystem.Type{
			typesystem.Dim{Expr: typesystem.DimVar{Name: "m"}},
			typesystem.Dim{Expr: typesystem.DimVar{Name: "n"}},
			typesystem.Dim{Expr: typesystem.DimVar{Name: "p"}},
			paramT,
		},
		Bindings: map[string]string{"multiply": "mat_mul"},
		Where:    []structures.Constraint{{Structure: "Semiring", Args: []typesystem.Type{paramT}}},
	}
	got := New().Implementation(impl)
	if !strings.Contains(got, "implements MatrixMultipliable(m, n, p, T) where Semiring(T) {") {
		t.Errorf("where clause missing:\n%s", got)
	}
}
