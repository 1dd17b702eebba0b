package inference

import (
	"errors"
	"strings"
	"testing"

	"github.com/eatikrh/kleis-sub002/internal/ast"
	"github.com/eatikrh/kleis-sub002/internal/dispatch"
	"github.com/eatikrh/kleis-sub002/internal/structures"
	"github.com/eatikrh/kleis-sub002/internal/typesystem"
)

func vecN() typesystem.Type {
	return typesystem.Parametric{Name: "Vector", Args: []typesystem.Type{typesystem.Dim{Expr: typesystem.DimVar{Name: "n"}}}}
}

func matMN() typesystem.Type {
	return typesystem.Parametric{Name: "Matrix", Args: []typesystem.Type{
		typesystem.Dim{Expr: typesystem.DimVar{Name: "m"}},
		typesystem.Dim{Expr: typesystem.DimVar{Name: "n"}},
		typesystem.Scalar{},
	}}
}

func setOf(t typesystem.Type) typesystem.Type {
	return typesystem.Parametric{Name: "Set", Args: []typesystem.Type{t}}
}

// testEngine builds an engine over:
//
//	Monoid(T) with plus : T → T → T, implemented for ℝ, Vector(n), Matrix(m,n,ℝ)
//	AbsoluteValue(T) with abs : T → T, implemented for ℝ
//	Collection(T) with card : Set(T) → ℕ, implemented for ℤ
func testEngine(t *testing.T) *Engine {
	t.Helper()
	src := structures.NewRegistry()

	paramT := typesystem.Named{Name: "T"}
	mustStructure := func(def structures.StructureDef) {
		t.Helper()
		if err := src.RegisterStructure(def); err != nil {
			t.Fatal(err)
		}
	}
	mustImpl := func(impl structures.Implementation) {
		t.Helper()
		if err := src.RegisterImplementation(impl); err != nil {
			t.Fatal(err)
		}
	}

	mustStructure(structures.StructureDef{
		Name:   "Monoid",
		Params: []structures.TypeParam{{Name: "T", Kind: structures.KindType}},
		Operations: []structures.Operation{
			{Name: "plus", Signature: typesystem.Func{Params: []typesystem.Type{paramT, paramT}, Return: paramT}},
		},
	})
	mustStructure(structures.StructureDef{
		Name:   "AbsoluteValue",
		Params: []structures.TypeParam{{Name: "T", Kind: structures.KindType}},
		Operations: []structures.Operation{
			{Name: "abs", Signature: typesystem.Func{Params: []typesystem.Type{paramT}, Return: paramT}},
		},
	})
	mustStructure(structures.StructureDef{
		Name:   "Collection",
		Params: []structures.TypeParam{{Name: "T", Kind: structures.KindType}},
		Operations: []structures.Operation{
			{Name: "card", Signature: typesystem.Func{Params: []typesystem.Type{setOf(paramT)}, Return: typesystem.Named{Name: "ℕ"}}},
		},
	})

	for _, carrier := range []typesystem.Type{typesystem.Scalar{}, vecN(), matMN()} {
		mustImpl(structures.Implementation{
			Structure: "Monoid",
			TypeArgs:  []typesystem.Type{carrier},
			Bindings:  map[string]string{"plus": "add"},
		})
	}
	mustImpl(structures.Implementation{
		Structure: "AbsoluteValue",
		TypeArgs:  []typesystem.Type{typesystem.Scalar{}},
		Bindings:  map[string]string{"abs": "real_abs"},
	})
	mustImpl(structures.Implementation{
		Structure: "Collection",
		TypeArgs:  []typesystem.Type{typesystem.Named{Name: "ℤ"}},
		Bindings:  map[string]string{"card": "set_card"},
	})

	ops, err := dispatch.Build(src)
	if err != nil {
		t.Fatal(err)
	}
	return New(ops)
}

func TestInferPolymorphicCandidatesInRegistrationOrder(t *testing.T) {
	e := testEngine(t)

	res := e.Infer(ast.NewOperation("plus", ast.NewObject("x"), ast.NewObject("y")), NewContext())
	if res.State != Polymorphic {
		t.Fatalf("state = %s, want polymorphic (diagnostic: %s)", res.State, res.Diagnostic())
	}
	want := []string{"ℝ", "Vector(n)", "Matrix(m, n, ℝ)"}
	if len(res.Candidates) != len(want) {
		t.Fatalf("candidates = %v, want %d entries", res.Candidates, len(want))
	}
	for i, w := range want {
		if res.Candidates[i].String() != w {
			t.Errorf("candidate %d = %s, want %s", i, res.Candidates[i], w)
		}
	}
}

func TestInferConcrete(t *testing.T) {
	e := testEngine(t)

	ctx := NewContext().
		Bind("x", typesystem.Scalar{}).
		Bind("y", typesystem.Scalar{})
	res := e.Infer(ast.NewOperation("plus", ast.NewObject("x"), ast.NewObject("y")), ctx)
	if res.State != Concrete {
		t.Fatalf("state = %s, want concrete (diagnostic: %s)", res.State, res.Diagnostic())
	}
	if res.Type.String() != "ℝ" {
		t.Errorf("type = %s, want ℝ", res.Type)
	}

	ctx = NewContext().Bind("v", vecN()).Bind("w", vecN())
	res = e.Infer(ast.NewOperation("plus", ast.NewObject("v"), ast.NewObject("w")), ctx)
	if res.State != Concrete || res.Type.String() != "Vector(n)" {
		t.Errorf("vector plus = %s / %s, want concrete Vector(n)", res.State, res.Type)
	}
}

func TestOperationResolutionSuggestsNearestMatch(t *testing.T) {
	e := testEngine(t)

	ctx := NewContext().Bind("S", setOf(typesystem.Named{Name: "ℤ"}))
	res := e.Infer(ast.NewOperation("abs", ast.NewObject("S")), ctx)
	if res.State != Error {
		t.Fatalf("state = %s, want error", res.State)
	}
	var resErr *OperationResolutionError
	if !errors.As(res.Err, &resErr) {
		t.Fatalf("expected OperationResolutionError, got %v", res.Err)
	}
	if resErr.Suggestion != "card" {
		t.Errorf("suggestion = %q, want card", resErr.Suggestion)
	}
	if len(resErr.ArgTypes) != 1 || resErr.ArgTypes[0].String() != "Set(ℤ)" {
		t.Errorf("error should carry the attempted argument types, got %v", resErr.ArgTypes)
	}
	if !strings.Contains(res.Diagnostic(), "did you mean card") {
		t.Errorf("diagnostic %q should suggest card", res.Diagnostic())
	}
}

func TestPlaceholderIsIncomplete(t *testing.T) {
	e := testEngine(t)

	ctx := NewContext().Bind("x", typesystem.Scalar{})
	res := e.Infer(ast.NewOperation("plus", ast.NewObject("x"), ast.NewPlaceholder(0, "addend")), ctx)
	if res.State != Incomplete {
		t.Errorf("state = %s, want incomplete", res.State)
	}
}

func TestUnboundVariableIsUnknownNotError(t *testing.T) {
	e := testEngine(t)

	res := e.Infer(ast.NewObject("x"), NewContext())
	if res.State != Unknown {
		t.Errorf("state = %s, want unknown", res.State)
	}
	if res.Err != nil {
		t.Errorf("missing binding must not be an error, got %v", res.Err)
	}
}

func TestEqualsTypesAsRightHandSide(t *testing.T) {
	e := testEngine(t)

	ctx := NewContext().Bind("M", matMN())
	res := e.Infer(ast.NewOperation("equals", ast.NewObject("I"), ast.NewObject("M")), ctx)
	if res.Type.String() != "Matrix(m, n, ℝ)" {
		t.Errorf("equation type = %s, want the right-hand side's Matrix(m, n, ℝ)", res.Type)
	}
	if res.State != Unknown {
		t.Errorf("state = %s, want unknown (I is unbound)", res.State)
	}
}

func TestQuantifierTypesAsBool(t *testing.T) {
	e := testEngine(t)

	prop := &ast.Quantifier{
		Kind:  ast.ForAll,
		Bound: []ast.TypedVar{{Name: "x", Type: typesystem.Scalar{}}},
		Body: ast.NewOperation("equals",
			ast.NewOperation("plus", ast.NewObject("x"), ast.NewObject("x")),
			ast.NewObject("x")),
	}
	res := e.Infer(prop, NewContext())
	if res.State != Concrete {
		t.Fatalf("state = %s, want concrete (diagnostic: %s)", res.State, res.Diagnostic())
	}
	if res.Type.String() != "Bool" {
		t.Errorf("proposition type = %s, want Bool", res.Type)
	}
}

func TestConditionalBranchesMustAgree(t *testing.T) {
	e := testEngine(t)
	ctx := NewContext().
		Bind("p", typesystem.Named{Name: "Bool"}).
		Bind("x", typesystem.Scalar{}).
		Bind("v", vecN())

	ok := e.Infer(&ast.Conditional{Cond: ast.NewObject("p"), Then: ast.NewObject("x"), Else: ast.NewObject("x")}, ctx)
	if ok.State != Concrete || ok.Type.String() != "ℝ" {
		t.Errorf("conditional = %s / %s, want concrete ℝ", ok.State, ok.Type)
	}

	bad := e.Infer(&ast.Conditional{Cond: ast.NewObject("p"), Then: ast.NewObject("x"), Else: ast.NewObject("v")}, ctx)
	if bad.State != Error {
		t.Fatalf("mismatched branches should be an error, got %s", bad.State)
	}
	var ue *typesystem.UnificationError
	if !errors.As(bad.Err, &ue) {
		t.Errorf("expected UnificationError, got %v", bad.Err)
	}

	nonBool := e.Infer(&ast.Conditional{Cond: ast.NewObject("x"), Then: ast.NewObject("x"), Else: ast.NewObject("x")}, ctx)
	if nonBool.State != Error {
		t.Errorf("non-Bool condition should be an error, got %s", nonBool.State)
	}
}

func TestLetBindsDefinitionInBody(t *testing.T) {
	e := testEngine(t)
	ctx := NewContext().
		Bind("x", typesystem.Scalar{}).
		Bind("y", typesystem.Scalar{})

	expr := &ast.Let{
		Name:  "s",
		Value: ast.NewOperation("plus", ast.NewObject("x"), ast.NewObject("y")),
		Body:  ast.NewOperation("plus", ast.NewObject("s"), ast.NewObject("s")),
	}
	res := e.Infer(expr, ctx)
	if res.State != Concrete {
		t.Fatalf("state = %s, want concrete (diagnostic: %s)", res.State, res.Diagnostic())
	}
	if res.Type.String() != "ℝ" {
		t.Errorf("type = %s, want ℝ", res.Type)
	}
}

func TestMalformedTreeIsRejected(t *testing.T) {
	e := testEngine(t)

	res := e.Infer(&ast.Quantifier{Kind: ast.ForAll, Body: ast.NewConst("1")}, NewContext())
	if res.State != Error {
		t.Fatalf("malformed tree should classify as error, got %s", res.State)
	}
	var mal *ast.MalformedError
	if !errors.As(res.Err, &mal) {
		t.Errorf("expected MalformedError, got %v", res.Err)
	}
}

func TestStateSeverityCombination(t *testing.T) {
	if combine(Unknown, Polymorphic) != Polymorphic {
		t.Error("polymorphic outranks unknown")
	}
	if combine(Incomplete, Polymorphic) != Incomplete {
		t.Error("incomplete outranks polymorphic")
	}
	if combine(Concrete, Concrete) != Concrete {
		t.Error("concrete stays concrete")
	}
	if combine(Error, Incomplete) != Error {
		t.Error("error outranks everything")
	}
}
