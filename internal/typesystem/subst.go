package typesystem

// Subst maps type variables to types and dimension variables to dimension
// terms. Substitutions are composed by copy, never mutated in place, so
// concurrent inference requests share nothing.
type Subst struct {
	Types map[int]Type
	Dims  map[string]DimExpr
}

// NewSubst returns an empty substitution.
func NewSubst() Subst {
	return Subst{Types: map[int]Type{}, Dims: map[string]DimExpr{}}
}

func (s Subst) clone() Subst {
	out := Subst{Types: make(map[int]Type, len(s.Types)+1), Dims: make(map[string]DimExpr, len(s.Dims)+1)}
	for k, v := range s.Types {
		out.Types[k] = v
	}
	for k, v := range s.Dims {
		out.Dims[k] = v
	}
	return out
}

func (s Subst) bind(id int, t Type) Subst {
	out := s.clone()
	out.Types[id] = t
	return out
}

func (s Subst) bindDim(name string, d DimExpr) Subst {
	out := s.clone()
	out.Dims[name] = d
	return out
}

// Compose returns a substitution equivalent to applying s first, then other.
func (s Subst) Compose(other Subst) Subst {
	out := Subst{Types: make(map[int]Type, len(s.Types)+len(other.Types)), Dims: make(map[string]DimExpr, len(s.Dims)+len(other.Dims))}
	for k, v := range other.Types {
		out.Types[k] = v
	}
	for k, v := range s.Types {
		out.Types[k] = v.Apply(other)
	}
	for k, v := range other.Dims {
		out.Dims[k] = v
	}
	for k, v := range s.Dims {
		out.Dims[k] = v.apply(other)
	}
	return out
}

// without returns a copy with the given type-variable bindings removed.
// Used when descending under a quantified scheme.
func (s Subst) without(vars []int) Subst {
	out := s.clone()
	for _, v := range vars {
		delete(out.Types, v)
	}
	return out
}

// IsEmpty reports whether the substitution binds nothing.
func (s Subst) IsEmpty() bool {
	return len(s.Types) == 0 && len(s.Dims) == 0
}
