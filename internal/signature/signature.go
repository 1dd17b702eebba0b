// Package signature interprets abstract operation signatures as matching
// templates. A signature such as
//
//	multiply : Matrix(m, n, T) → Matrix(n, p, T) → Matrix(m, p, T)
//
// is parsed once when its structure is registered; call sites are then
// matched positionally against the template, binding the named holes
// (type and dimension parameters) consistently across every occurrence.
// No operation name is special-cased: multiply on matrices and plus on
// reals go through the same mechanism.
package signature

import (
	"fmt"

	"github.com/eatikrh/kleis-sub002/internal/typesystem"
)

// Template is a parsed operation signature: argument patterns, a result
// pattern, and the set of hole names they may bind.
type Template struct {
	Args   []typesystem.Type
	Result typesystem.Type
	holes  map[string]bool
}

// TemplateError reports a signature that cannot serve as a matching
// template, detected at registration time.
type TemplateError struct {
	Detail string
}

func (e *TemplateError) Error() string { return "invalid signature: " + e.Detail }

// ConflictError reports a recurring hole bound to incompatible values at
// two argument positions. Positions are zero-based argument indexes.
type ConflictError struct {
	Hole      string
	FirstPos  int
	SecondPos int
	First     string
	Second    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("parameter %s bound to %s at argument %d but %s at argument %d",
		e.Hole, e.First, e.FirstPos, e.Second, e.SecondPos)
}

// MismatchError reports an argument that does not fit its pattern.
type MismatchError struct {
	Pos      int
	Expected typesystem.Type
	Actual   typesystem.Type
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("argument %d: expected %s, got %s", e.Pos, e.Expected, e.Actual)
}

// Parse turns a signature into a template. Curried chains are flattened:
// A → B → C becomes arguments [A, B] with result C. The hole names are the
// enclosing structure's parameter names; any other name in the signature is
// a concrete type. A signature with no arguments is rejected, elements are
// not operations.
func Parse(sig typesystem.Type, holes []string) (*Template, error) {
	if sig == nil {
		return nil, &TemplateError{Detail: "signature is missing"}
	}
	t := &Template{holes: map[string]bool{}}
	for _, h := range holes {
		t.holes[h] = true
	}

	rest := sig
	for {
		fn, ok := rest.(typesystem.Func)
		if !ok {
			break
		}
		t.Args = append(t.Args, fn.Params...)
		rest = fn.Return
	}
	if len(t.Args) == 0 {
		return nil, &TemplateError{Detail: fmt.Sprintf("%s takes no arguments", sig)}
	}
	t.Result = rest
	return t, nil
}

// Binding is the assignment of hole names produced by a successful match.
// Dimension holes carry Dim-wrapped dimension terms.
type Binding map[string]typesystem.Type

// Match checks actual argument types against the template positionally.
// A hole occurring at several positions must receive the same value
// everywhere; the returned error names both conflicting positions.
// Holes that never meet a concrete argument (an inference variable in that
// position, or a hole appearing only in the result) stay unbound and keep
// their symbolic name in ResultType.
func (t *Template) Match(actual []typesystem.Type) (Binding, error) {
	if len(actual) != len(t.Args) {
		return nil, &TemplateError{Detail: fmt.Sprintf("expected %d arguments, got %d", len(t.Args), len(actual))}
	}
	b := Binding{}
	at := map[string]int{}
	for i := range t.Args {
		if err := t.match(t.Args[i], actual[i], i, b, at); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (t *Template) match(pattern, actual typesystem.Type, pos int, b Binding, at map[string]int) error {
	// An undetermined argument fits any pattern and binds nothing.
	if _, ok := actual.(typesystem.TVar); ok {
		return nil
	}

	switch p := pattern.(type) {
	case typesystem.Named:
		if t.holes[p.Name] {
			return t.bindHole(p.Name, actual, pos, b, at)
		}
		if typesystem.Equal(pattern, actual) {
			return nil
		}
	case typesystem.Scalar:
		if typesystem.Equal(pattern, actual) {
			return nil
		}
	case typesystem.Parametric:
		a, ok := actual.(typesystem.Parametric)
		if !ok || a.Name != p.Name || len(a.Args) != len(p.Args) {
			break
		}
		for i := range p.Args {
			if err := t.match(p.Args[i], a.Args[i], pos, b, at); err != nil {
				return err
			}
		}
		return nil
	case typesystem.Dim:
		a, ok := actual.(typesystem.Dim)
		if !ok {
			break
		}
		return t.matchDim(p.Expr, a.Expr, pos, b, at)
	case typesystem.Func:
		a, ok := actual.(typesystem.Func)
		if !ok || len(a.Params) != len(p.Params) {
			break
		}
		for i := range p.Params {
			if err := t.match(p.Params[i], a.Params[i], pos, b, at); err != nil {
				return err
			}
		}
		return t.match(p.Return, a.Return, pos, b, at)
	}
	return &MismatchError{Pos: pos, Expected: pattern, Actual: actual}
}

func (t *Template) matchDim(pattern, actual typesystem.DimExpr, pos int, b Binding, at map[string]int) error {
	switch p := pattern.(type) {
	case typesystem.DimVar:
		if t.holes[p.Name] {
			return t.bindHole(p.Name, typesystem.Dim{Expr: actual}, pos, b, at)
		}
		if a, ok := actual.(typesystem.DimVar); ok && a.Name == p.Name {
			return nil
		}
	case typesystem.DimConst:
		if a, ok := actual.(typesystem.DimConst); ok && a.Value == p.Value {
			return nil
		}
	case typesystem.DimOp:
		// Dimension terms compare symbolically, never by evaluation.
		a, ok := actual.(typesystem.DimOp)
		if !ok || a.Op != p.Op {
			break
		}
		if err := t.matchDim(p.Left, a.Left, pos, b, at); err != nil {
			return err
		}
		return t.matchDim(p.Right, a.Right, pos, b, at)
	}
	return &MismatchError{
		Pos:      pos,
		Expected: typesystem.Dim{Expr: pattern},
		Actual:   typesystem.Dim{Expr: actual},
	}
}

func (t *Template) bindHole(name string, value typesystem.Type, pos int, b Binding, at map[string]int) error {
	if prev, ok := b[name]; ok {
		if !typesystem.Equal(prev, value) {
			return &ConflictError{
				Hole:      name,
				FirstPos:  at[name],
				SecondPos: pos,
				First:     prev.String(),
				Second:    value.String(),
			}
		}
		return nil
	}
	b[name] = value
	at[name] = pos
	return nil
}

// ResultType instantiates the template's result pattern under a binding.
// Unbound holes stay symbolic, so multiply on Matrix(2, 3, ℝ) and
// Matrix(3, p, ℝ) yields Matrix(2, p, ℝ).
func (t *Template) ResultType(b Binding) typesystem.Type {
	return t.instantiate(t.Result, b)
}

// ArgType instantiates the i-th argument pattern under a binding.
func (t *Template) ArgType(i int, b Binding) typesystem.Type {
	return t.instantiate(t.Args[i], b)
}

func (t *Template) instantiate(pattern typesystem.Type, b Binding) typesystem.Type {
	switch p := pattern.(type) {
	case typesystem.Named:
		if v, ok := b[p.Name]; ok {
			return v
		}
		return p
	case typesystem.Parametric:
		args := make([]typesystem.Type, len(p.Args))
		for i, a := range p.Args {
			args[i] = t.instantiate(a, b)
		}
		return typesystem.Parametric{Name: p.Name, Args: args}
	case typesystem.Func:
		params := make([]typesystem.Type, len(p.Params))
		for i, a := range p.Params {
			params[i] = t.instantiate(a, b)
		}
		return typesystem.Func{Params: params, Return: t.instantiate(p.Return, b)}
	case typesystem.Dim:
		return typesystem.Dim{Expr: t.instantiateDim(p.Expr, b)}
	default:
		return pattern
	}
}

func (t *Template) instantiateDim(pattern typesystem.DimExpr, b Binding) typesystem.DimExpr {
	switch p := pattern.(type) {
	case typesystem.DimVar:
		if v, ok := b[p.Name]; ok {
			if d, isDim := v.(typesystem.Dim); isDim {
				return d.Expr
			}
		}
		return p
	case typesystem.DimOp:
		return typesystem.DimOp{Op: p.Op, Left: t.instantiateDim(p.Left, b), Right: t.instantiateDim(p.Right, b)}
	default:
		return pattern
	}
}
