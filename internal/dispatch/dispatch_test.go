package dispatch

import (
	"testing"

	"github.com/eatikrh/kleis-sub002/internal/structures"
	"github.com/eatikrh/kleis-sub002/internal/typesystem"
)

func dimVar(name string) typesystem.Type {
	return typesystem.Dim{Expr: typesystem.DimVar{Name: name}}
}

func vector(n string) typesystem.Type {
	return typesystem.Parametric{Name: "Vector", Args: []typesystem.Type{dimVar(n)}}
}

func matrixMN() typesystem.Type {
	return typesystem.Parametric{Name: "Matrix", Args: []typesystem.Type{dimVar("m"), dimVar("n"), typesystem.Scalar{}}}
}

// monoidFixture registers Monoid(T) with plus : T → T → T and three
// implementations in a fixed order: ℝ, Vector(n), Matrix(m, n, ℝ).
func monoidFixture(t *testing.T) *structures.Registry {
	t.Helper()
	src := structures.NewRegistry()

	paramT := typesystem.Named{Name: "T"}
	err := src.RegisterStructure(structures.StructureDef{
		Name:   "Monoid",
		Params: []structures.TypeParam{{Name: "T", Kind: structures.KindType}},
		Operations: []structures.Operation{
			{Name: "plus", Signature: typesystem.Func{Params: []typesystem.Type{paramT, paramT}, Return: paramT}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	for _, c := range []struct {
		carrier typesystem.Type
		binding string
	}{
		{typesystem.Scalar{}, "real_add"},
		{vector("n"), "vec_add"},
		{matrixMN(), "mat_add"},
	} {
		err := src.RegisterImplementation(structures.Implementation{
			Structure: "Monoid",
			TypeArgs:  []typesystem.Type{c.carrier},
			Bindings:  map[string]string{"plus": c.binding},
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	return src
}

func TestTypesSupportingKeepsRegistrationOrder(t *testing.T) {
	reg, err := Build(monoidFixture(t))
	if err != nil {
		t.Fatal(err)
	}

	types := reg.TypesSupporting("plus")
	want := []string{"ℝ", "Vector(n)", "Matrix(m, n, ℝ)"}
	if len(types) != len(want) {
		t.Fatalf("TypesSupporting(plus) = %v, want %d entries", types, len(want))
	}
	for i, w := range want {
		if types[i].String() != w {
			t.Errorf("TypesSupporting(plus)[%d] = %s, want %s", i, types[i], w)
		}
	}

	if got := reg.TypesSupporting("transpose"); got != nil {
		t.Errorf("unknown operation should yield nil, got %v", got)
	}
}

func TestSignatureExactLookup(t *testing.T) {
	reg, err := Build(monoidFixture(t))
	if err != nil {
		t.Fatal(err)
	}

	e, ok := reg.Signature("plus", "Vector(n)")
	if !ok {
		t.Fatal("Signature(plus, Vector(n)) not found")
	}
	if e.Binding != "vec_add" {
		t.Errorf("Binding = %s, want vec_add", e.Binding)
	}
	// The template is specialized to the carrier.
	b, err := e.Template.Match([]typesystem.Type{vector("n"), vector("n")})
	if err != nil {
		t.Fatalf("specialized template should match the carrier: %v", err)
	}
	if got := e.Template.ResultType(b).String(); got != "Vector(n)" {
		t.Errorf("result = %s, want Vector(n)", got)
	}

	if _, ok := reg.Signature("plus", "Bool"); ok {
		t.Error("lookup is exact; Bool has no plus")
	}
}

func TestRebuildPicksUpNewImplementations(t *testing.T) {
	src := monoidFixture(t)
	before, err := Build(src)
	if err != nil {
		t.Fatal(err)
	}

	err = src.RegisterImplementation(structures.Implementation{
		Structure: "Monoid",
		TypeArgs:  []typesystem.Type{typesystem.Named{Name: "String"}},
		Bindings:  map[string]string{"plus": "string_concat"},
	})
	if err != nil {
		t.Fatal(err)
	}

	// The built registry is an immutable snapshot.
	if _, ok := before.Signature("plus", "String"); ok {
		t.Error("existing registry must not see later registrations")
	}

	after, err := Build(src)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := after.Signature("plus", "String"); !ok {
		t.Error("rebuild should include the new implementation")
	}
	if n := len(after.TypesSupporting("plus")); n != 4 {
		t.Errorf("TypesSupporting(plus) after rebuild = %d entries, want 4", n)
	}
}

func TestAllOperations(t *testing.T) {
	src := monoidFixture(t)
	paramT := typesystem.Named{Name: "T"}
	err := src.RegisterStructure(structures.StructureDef{
		Name:   "Group",
		Params: []structures.TypeParam{{Name: "T", Kind: structures.KindType}},
		Operations: []structures.Operation{
			{Name: "inverse", Signature: typesystem.Func{Params: []typesystem.Type{paramT}, Return: paramT}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	err = src.RegisterImplementation(structures.Implementation{
		Structure: "Group",
		TypeArgs:  []typesystem.Type{typesystem.Scalar{}},
		Bindings:  map[string]string{"inverse": "real_neg"},
	})
	if err != nil {
		t.Fatal(err)
	}

	reg, err := Build(src)
	if err != nil {
		t.Fatal(err)
	}
	ops := reg.AllOperations()
	if len(ops) != 2 || ops[0] != "plus" || ops[1] != "inverse" {
		t.Errorf("AllOperations = %v, want [plus inverse]", ops)
	}
}
