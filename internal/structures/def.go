package structures

import (
	"github.com/eatikrh/kleis-sub002/internal/ast"
	"github.com/eatikrh/kleis-sub002/internal/typesystem"
)

// ParamKind classifies a structure type parameter.
type ParamKind int

const (
	// KindType is an ordinary type parameter (T in Monoid(T)).
	KindType ParamKind = iota
	// KindNat is a natural-number dimension parameter (m, n in Matrix(m, n, T)).
	KindNat
	// KindString is a string-valued parameter (unit labels and the like).
	KindString
)

func (k ParamKind) String() string {
	switch k {
	case KindNat:
		return "Nat"
	case KindString:
		return "String"
	default:
		return "Type"
	}
}

// TypeParam is a declared parameter of a structure.
type TypeParam struct {
	Name string
	Kind ParamKind
}

// Operation is an abstract operation declared by a structure. The signature
// is a type expression over the structure's parameters, e.g.
// plus : T → T → T, or multiply : Matrix(m,n,T) → Matrix(n,p,T) → Matrix(m,p,T).
type Operation struct {
	Name      string
	Signature typesystem.Type
}

// Axiom is a named quantified proposition asserted of a structure's
// operations. Axioms stay structure-generic in the registry; concrete type
// arguments are substituted lazily when a caller asks for an
// implementation's axioms.
type Axiom struct {
	Name        string
	Proposition ast.Expression
}

// Element is a distinguished member such as an identity (zero, one, e),
// typed over the structure's parameters.
type Element struct {
	Name string
	Type typesystem.Type
}

// StructureDef is a named, parameterized algebraic interface: a type class
// with laws. Extends lists parent structures whose members are inherited
// through the flattened closure.
type StructureDef struct {
	Name       string
	Params     []TypeParam
	Extends    []string
	Operations []Operation
	Axioms     []Axiom
	Elements   []Element
}

// Constraint is a `where` requirement attached to an implementation:
// implements MatrixMultipliable(m,n,p,T) where Semiring(T).
type Constraint struct {
	Structure string
	Args      []typesystem.Type
}

// Implementation binds a structure at concrete type arguments to concrete
// operation bodies. Bindings maps each abstract operation name (declared or
// inherited) to the implementing symbol known to the evaluator collaborator.
type Implementation struct {
	Structure string
	TypeArgs  []typesystem.Type
	Bindings  map[string]string
	Where     []Constraint
}

// Carrier is the concrete type this implementation supports: the first
// non-dimension type argument. For Monoid(ℝ) that is ℝ, for
// Monoid(Matrix(m, n)) it is Matrix(m, n); dimension arguments such as the
// m, n, p of MatrixMultipliable(m, n, p, T) are skipped.
func (im *Implementation) Carrier() typesystem.Type {
	for _, arg := range im.TypeArgs {
		if _, isDim := arg.(typesystem.Dim); !isDim {
			return arg
		}
	}
	if len(im.TypeArgs) > 0 {
		return im.TypeArgs[0]
	}
	return typesystem.Named{Name: im.Structure}
}

// TypeName renders the carrier for registry keys and diagnostics:
// "ℝ", "Vector(n)", "Matrix(m, n, ℝ)".
func (im *Implementation) TypeName() string {
	return im.Carrier().String()
}
