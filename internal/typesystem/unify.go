package typesystem

// Unify finds a substitution making t1 and t2 structurally equal, using
// Robinson's algorithm with an occurs check. On success, applying the result
// to either input yields structurally equal types.
func Unify(t1, t2 Type) (Subst, error) {
	return unify(t1, t2, NewSubst())
}

// UnifyUnder unifies t1 and t2 starting from an existing substitution,
// returning the extended substitution. The input substitution is not mutated.
func UnifyUnder(t1, t2 Type, s Subst) (Subst, error) {
	return unify(t1, t2, s)
}

func unify(t1, t2 Type, s Subst) (Subst, error) {
	t1 = t1.Apply(s)
	t2 = t2.Apply(s)

	if v, ok := t1.(TVar); ok {
		return bindVar(v, t2, s)
	}
	if v, ok := t2.(TVar); ok {
		return bindVar(v, t1, s)
	}

	switch a := t1.(type) {
	case Scalar:
		if _, ok := t2.(Scalar); ok {
			return s, nil
		}
		// ℝ written as a named type unifies with the scalar tag.
		if n, ok := t2.(Named); ok && isScalarName(n.Name) {
			return s, nil
		}
	case Named:
		switch b := t2.(type) {
		case Named:
			if a.Name == b.Name {
				return s, nil
			}
		case Scalar:
			if isScalarName(a.Name) {
				return s, nil
			}
		}
	case Func:
		b, ok := t2.(Func)
		if !ok || len(a.Params) != len(b.Params) {
			break
		}
		cur := s
		var err error
		for i := range a.Params {
			cur, err = unify(a.Params[i], b.Params[i], cur)
			if err != nil {
				return Subst{}, err
			}
		}
		return unify(a.Return, b.Return, cur)
	case Parametric:
		b, ok := t2.(Parametric)
		if !ok || a.Name != b.Name || len(a.Args) != len(b.Args) {
			break
		}
		cur := s
		var err error
		for i := range a.Args {
			cur, err = unifyArg(a.Args[i], b.Args[i], cur)
			if err != nil {
				return Subst{}, err
			}
		}
		return cur, nil
	case Dim:
		if b, ok := t2.(Dim); ok {
			return unifyDims(a.Expr, b.Expr, s)
		}
	case Scheme:
		// Schemes never unify directly; callers instantiate first.
	}

	return Subst{}, &UnificationError{Left: t1, Right: t2}
}

// unifyArg unifies a single type-constructor argument. A dimension term on
// one side requires a dimension term on the other: dimensions and types live
// in different syntactic positions and never cross-unify.
func unifyArg(a, b Type, s Subst) (Subst, error) {
	da, aIsDim := a.(Dim)
	db, bIsDim := b.(Dim)
	switch {
	case aIsDim && bIsDim:
		return unifyDims(da.Expr, db.Expr, s)
	case aIsDim != bIsDim:
		return Subst{}, &UnificationError{Left: a, Right: b, Reason: "dimension term against type term"}
	default:
		return unify(a, b, s)
	}
}

func bindVar(v TVar, t Type, s Subst) (Subst, error) {
	if other, ok := t.(TVar); ok && other.ID == v.ID {
		return s, nil
	}
	if occurs(v.ID, t) {
		return Subst{}, &OccursError{Var: v.ID, In: t}
	}
	return s.bind(v.ID, t), nil
}

func occurs(id int, t Type) bool {
	for _, free := range t.FreeTypeVars() {
		if free == id {
			return true
		}
	}
	return false
}

func isScalarName(name string) bool {
	return name == "ℝ" || name == "Real" || name == "Scalar"
}
