package typesystem

import "fmt"

// DimExpr is a symbolic dimension term over natural-number type parameters:
// matrix sizes, vector lengths. Dimension arithmetic stays unevaluated in
// this core; 2*3 and 6 are distinct terms. Numeric dimension-constraint
// solving is a separate, future concern (see DESIGN.md).
type DimExpr interface {
	String() string
	apply(Subst) DimExpr
	freeDimVars() []string
}

// DimConst is a literal dimension: 2, 3, 6.
type DimConst struct {
	Value int
}

// DimVar is a named dimension parameter: n, m, p.
type DimVar struct {
	Name string
}

// DimOp is a binary arithmetic node over dimensions: 2*n, m+1, n^2.
// Op is one of "+", "-", "*", "/", "^".
type DimOp struct {
	Op    string
	Left  DimExpr
	Right DimExpr
}

func (c DimConst) String() string { return fmt.Sprintf("%d", c.Value) }
func (v DimVar) String() string   { return v.Name }
func (o DimOp) String() string {
	return o.Left.String() + o.Op + o.Right.String()
}

func (c DimConst) apply(Subst) DimExpr { return c }
func (v DimVar) apply(s Subst) DimExpr {
	if d, ok := s.Dims[v.Name]; ok {
		return d.apply(s)
	}
	return v
}
func (o DimOp) apply(s Subst) DimExpr {
	return DimOp{Op: o.Op, Left: o.Left.apply(s), Right: o.Right.apply(s)}
}

func (DimConst) freeDimVars() []string { return nil }
func (v DimVar) freeDimVars() []string { return []string{v.Name} }
func (o DimOp) freeDimVars() []string {
	return append(o.Left.freeDimVars(), o.Right.freeDimVars()...)
}

// FreeDimVars collects the dimension variable names occurring in a type,
// in first occurrence order.
func FreeDimVars(t Type) []string {
	var order []string
	seen := map[string]bool{}
	collectDimVars(t, seen, &order)
	return order
}

func collectDimVars(t Type, seen map[string]bool, order *[]string) {
	switch x := t.(type) {
	case Func:
		for _, p := range x.Params {
			collectDimVars(p, seen, order)
		}
		collectDimVars(x.Return, seen, order)
	case Scheme:
		collectDimVars(x.Body, seen, order)
	case Parametric:
		for _, a := range x.Args {
			collectDimVars(a, seen, order)
		}
	case Dim:
		for _, name := range x.Expr.freeDimVars() {
			if !seen[name] {
				seen[name] = true
				*order = append(*order, name)
			}
		}
	}
}

func dimEqual(a, b DimExpr) bool {
	switch x := a.(type) {
	case DimConst:
		y, ok := b.(DimConst)
		return ok && x.Value == y.Value
	case DimVar:
		y, ok := b.(DimVar)
		return ok && x.Name == y.Name
	case DimOp:
		y, ok := b.(DimOp)
		return ok && x.Op == y.Op && dimEqual(x.Left, y.Left) && dimEqual(x.Right, y.Right)
	}
	return false
}

func dimOccurs(name string, d DimExpr) bool {
	switch x := d.(type) {
	case DimVar:
		return x.Name == name
	case DimOp:
		return dimOccurs(name, x.Left) || dimOccurs(name, x.Right)
	}
	return false
}

// unifyDims unifies two dimension terms structurally. A dimension variable
// binds to any term it does not occur in; operator nodes unify node-by-node.
// A constant never unifies with an operator node, even when the arithmetic
// would work out: Mul(2, 3) does not unify with Const(6).
func unifyDims(a, b DimExpr, s Subst) (Subst, error) {
	a = a.apply(s)
	b = b.apply(s)

	switch x := a.(type) {
	case DimVar:
		if y, ok := b.(DimVar); ok && y.Name == x.Name {
			return s, nil
		}
		if dimOccurs(x.Name, b) {
			return Subst{}, &UnificationError{Left: Dim{Expr: a}, Right: Dim{Expr: b}, Reason: "dimension variable " + x.Name + " occurs in " + b.String()}
		}
		return s.bindDim(x.Name, b), nil
	case DimConst:
		switch y := b.(type) {
		case DimConst:
			if x.Value == y.Value {
				return s, nil
			}
		case DimVar:
			return s.bindDim(y.Name, a), nil
		}
	case DimOp:
		switch y := b.(type) {
		case DimVar:
			if dimOccurs(y.Name, a) {
				return Subst{}, &UnificationError{Left: Dim{Expr: a}, Right: Dim{Expr: b}, Reason: "dimension variable " + y.Name + " occurs in " + a.String()}
			}
			return s.bindDim(y.Name, a), nil
		case DimOp:
			if x.Op != y.Op {
				break
			}
			s1, err := unifyDims(x.Left, y.Left, s)
			if err != nil {
				return Subst{}, err
			}
			return unifyDims(x.Right, y.Right, s1)
		}
	}
	return Subst{}, &UnificationError{
		Left:   Dim{Expr: a},
		Right:  Dim{Expr: b},
		Reason: "dimension terms do not match structurally (dimensions are never evaluated)",
	}
}
