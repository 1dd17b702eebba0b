package typesystem

import (
	"fmt"
	"strings"
)

// Type is the interface for all types in the system.
// Types are immutable; Apply returns a new tree and never mutates in place,
// so concurrent inference requests can share type values freely.
type Type interface {
	String() string
	Apply(Subst) Type
	FreeTypeVars() []int
}

// Scalar is the built-in real scalar type ℝ.
type Scalar struct{}

// Named is a reference to a named type: ℤ, Bool, a user-defined type, or an
// unresolved structure type parameter such as T. Keeping user types behind a
// name avoids a closed enum of built-ins.
type Named struct {
	Name string
}

// TVar is an inference type variable (α0, α1, ...). IDs are allocated from a
// per-request counter, never shared across requests.
type TVar struct {
	ID int
}

// Func is a function type with one or more parameters: (A, B) → C.
type Func struct {
	Params []Type
	Return Type
}

// Scheme is a universally quantified type: ∀α0 α1. body.
// Schemes appear at definition boundaries; each use site instantiates the
// quantified variables fresh.
type Scheme struct {
	Vars []int
	Body Type
}

// Parametric is a type constructor application: Vector(n), Matrix(m, n, ℝ),
// Set(ℤ), or any user-defined parametric type. Arguments may be types or
// dimension terms (wrapped in Dim).
type Parametric struct {
	Name string
	Args []Type
}

// Dim adapts a dimension expression into a type argument position.
// Dimension terms are symbolic only: this core never evaluates them
// numerically (2*3 does not reduce to 6).
type Dim struct {
	Expr DimExpr
}

func (Scalar) String() string { return "ℝ" }
func (n Named) String() string {
	return n.Name
}
func (v TVar) String() string { return fmt.Sprintf("α%d", v.ID) }

func (f Func) String() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = p.String()
	}
	if len(parts) == 1 {
		return parts[0] + " → " + f.Return.String()
	}
	return "(" + strings.Join(parts, " × ") + ") → " + f.Return.String()
}

func (s Scheme) String() string {
	vars := make([]string, len(s.Vars))
	for i, v := range s.Vars {
		vars[i] = fmt.Sprintf("α%d", v)
	}
	return "∀" + strings.Join(vars, " ") + ". " + s.Body.String()
}

func (p Parametric) String() string {
	parts := make([]string, len(p.Args))
	for i, a := range p.Args {
		parts[i] = a.String()
	}
	return p.Name + "(" + strings.Join(parts, ", ") + ")"
}

func (d Dim) String() string { return d.Expr.String() }

func (Scalar) Apply(Subst) Type { return Scalar{} }
func (n Named) Apply(Subst) Type {
	return n
}

func (v TVar) Apply(s Subst) Type {
	if t, ok := s.Types[v.ID]; ok {
		// Chase chains: the replacement may itself mention substituted vars.
		return t.Apply(s)
	}
	return v
}

func (f Func) Apply(s Subst) Type {
	params := make([]Type, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.Apply(s)
	}
	return Func{Params: params, Return: f.Return.Apply(s)}
}

func (sc Scheme) Apply(s Subst) Type {
	// Quantified variables are opaque to outer substitutions.
	inner := s.without(sc.Vars)
	return Scheme{Vars: sc.Vars, Body: sc.Body.Apply(inner)}
}

func (p Parametric) Apply(s Subst) Type {
	args := make([]Type, len(p.Args))
	for i, a := range p.Args {
		args[i] = a.Apply(s)
	}
	return Parametric{Name: p.Name, Args: args}
}

func (d Dim) Apply(s Subst) Type { return Dim{Expr: d.Expr.apply(s)} }

func (Scalar) FreeTypeVars() []int { return nil }
func (Named) FreeTypeVars() []int  { return nil }
func (v TVar) FreeTypeVars() []int { return []int{v.ID} }

func (f Func) FreeTypeVars() []int {
	var vars []int
	for _, p := range f.Params {
		vars = append(vars, p.FreeTypeVars()...)
	}
	return append(vars, f.Return.FreeTypeVars()...)
}

func (s Scheme) FreeTypeVars() []int {
	quantified := map[int]bool{}
	for _, v := range s.Vars {
		quantified[v] = true
	}
	var vars []int
	for _, v := range s.Body.FreeTypeVars() {
		if !quantified[v] {
			vars = append(vars, v)
		}
	}
	return vars
}

func (p Parametric) FreeTypeVars() []int {
	var vars []int
	for _, a := range p.Args {
		vars = append(vars, a.FreeTypeVars()...)
	}
	return vars
}

func (Dim) FreeTypeVars() []int { return nil }

// Equal reports structural equality of two types. Dimension terms compare
// structurally, not by value: 2*n equals 2*n but not 2*m and not a constant.
func Equal(a, b Type) bool {
	switch x := a.(type) {
	case Scalar:
		_, ok := b.(Scalar)
		return ok
	case Named:
		y, ok := b.(Named)
		return ok && x.Name == y.Name
	case TVar:
		y, ok := b.(TVar)
		return ok && x.ID == y.ID
	case Func:
		y, ok := b.(Func)
		if !ok || len(x.Params) != len(y.Params) {
			return false
		}
		for i := range x.Params {
			if !Equal(x.Params[i], y.Params[i]) {
				return false
			}
		}
		return Equal(x.Return, y.Return)
	case Scheme:
		y, ok := b.(Scheme)
		if !ok || len(x.Vars) != len(y.Vars) {
			return false
		}
		for i := range x.Vars {
			if x.Vars[i] != y.Vars[i] {
				return false
			}
		}
		return Equal(x.Body, y.Body)
	case Parametric:
		y, ok := b.(Parametric)
		if !ok || x.Name != y.Name || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !Equal(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	case Dim:
		y, ok := b.(Dim)
		return ok && dimEqual(x.Expr, y.Expr)
	}
	return false
}
