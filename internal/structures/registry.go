package structures

import (
	"fmt"
	"sync"

	"github.com/eatikrh/kleis-sub002/internal/ast"
	"github.com/eatikrh/kleis-sub002/internal/typesystem"
)

// Registry holds structure definitions and their implementations. Parents
// named in extends clauses must already be registered; the inherited member
// closure is flattened once at registration time and cached, so queries
// never walk the extends graph.
//
// All methods are safe for concurrent use. Readers see a consistent
// snapshot; registration takes the write lock.
type Registry struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	order    []string
	impls    []Implementation
	warnings []string
}

// entry caches the flattened closure alongside the definition as written.
type entry struct {
	def        StructureDef
	operations []Operation
	axioms     []Axiom
	elements   []Element
	// ancestors is the transitive extends set including the structure itself.
	ancestors map[string]bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: map[string]*entry{}}
}

// RegisterStructure records a structure definition. It fails fast with a
// StructureError when the name is already taken, a parameter is duplicated,
// or an extends clause names an unregistered structure. When an inherited
// member name collides across parents (or with the structure's own members),
// the later declaration wins and a warning is queued.
func (r *Registry) RegisterStructure(def StructureDef) error {
	if def.Name == "" {
		return structureErrorf("(unnamed)", "structure name must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[def.Name]; exists {
		return structureErrorf(def.Name, "already registered")
	}

	seen := map[string]bool{}
	for _, p := range def.Params {
		if p.Name == "" {
			return structureErrorf(def.Name, "type parameter name must not be empty")
		}
		if seen[p.Name] {
			return structureErrorf(def.Name, "duplicate type parameter %s", p.Name)
		}
		seen[p.Name] = true
	}

	for _, parent := range def.Extends {
		if _, ok := r.entries[parent]; !ok {
			return structureErrorf(def.Name, "extends unknown structure %s", parent)
		}
	}

	e := &entry{def: def, ancestors: map[string]bool{def.Name: true}}

	opIdx := map[string]int{}
	axIdx := map[string]int{}
	elIdx := map[string]int{}
	addOp := func(op Operation, origin string) {
		if i, dup := opIdx[op.Name]; dup {
			r.warnings = append(r.warnings,
				fmt.Sprintf("structure %s: operation %s from %s shadows an inherited declaration", def.Name, op.Name, origin))
			e.operations[i] = op
			return
		}
		opIdx[op.Name] = len(e.operations)
		e.operations = append(e.operations, op)
	}
	addAx := func(ax Axiom, origin string) {
		if i, dup := axIdx[ax.Name]; dup {
			r.warnings = append(r.warnings,
				fmt.Sprintf("structure %s: axiom %s from %s shadows an inherited declaration", def.Name, ax.Name, origin))
			e.axioms[i] = ax
			return
		}
		axIdx[ax.Name] = len(e.axioms)
		e.axioms = append(e.axioms, ax)
	}
	addEl := func(el Element, origin string) {
		if i, dup := elIdx[el.Name]; dup {
			r.warnings = append(r.warnings,
				fmt.Sprintf("structure %s: element %s from %s shadows an inherited declaration", def.Name, el.Name, origin))
			e.elements[i] = el
			return
		}
		elIdx[el.Name] = len(e.elements)
		e.elements = append(e.elements, el)
	}

	for _, parent := range def.Extends {
		pe := r.entries[parent]
		for a := range pe.ancestors {
			e.ancestors[a] = true
		}
		for _, op := range pe.operations {
			addOp(op, parent)
		}
		for _, ax := range pe.axioms {
			addAx(ax, parent)
		}
		for _, el := range pe.elements {
			addEl(el, parent)
		}
	}
	for _, op := range def.Operations {
		addOp(op, def.Name)
	}
	for _, ax := range def.Axioms {
		addAx(ax, def.Name)
	}
	for _, el := range def.Elements {
		addEl(el, def.Name)
	}

	r.entries[def.Name] = e
	r.order = append(r.order, def.Name)
	return nil
}

// RegisterImplementation records an implementation after validating it
// against its structure: the structure must exist, the type argument count
// must match the parameter count, dimension parameters must receive
// dimension arguments, and every operation in the structure's closure must
// be bound. Bindings for operations the structure does not declare are
// rejected rather than silently dropped.
func (r *Registry) RegisterImplementation(impl Implementation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[impl.Structure]
	if !ok {
		return structureErrorf(impl.Structure, "implementation references unknown structure")
	}
	if len(impl.TypeArgs) != len(e.def.Params) {
		return structureErrorf(impl.Structure, "expects %d type arguments, got %d",
			len(e.def.Params), len(impl.TypeArgs))
	}
	for i, p := range e.def.Params {
		_, isDim := impl.TypeArgs[i].(typesystem.Dim)
		if p.Kind == KindNat && !isDim {
			return structureErrorf(impl.Structure,
				"parameter %s is a dimension, got type %s", p.Name, impl.TypeArgs[i])
		}
		if p.Kind != KindNat && isDim {
			return structureErrorf(impl.Structure,
				"parameter %s is a type, got dimension %s", p.Name, impl.TypeArgs[i])
		}
	}

	declared := map[string]bool{}
	for _, op := range e.operations {
		declared[op.Name] = true
		if impl.Bindings[op.Name] == "" {
			return structureErrorf(impl.Structure,
				"implementation for %s leaves operation %s unbound", impl.TypeName(), op.Name)
		}
	}
	for name := range impl.Bindings {
		if !declared[name] {
			return structureErrorf(impl.Structure,
				"implementation for %s binds undeclared operation %s", impl.TypeName(), name)
		}
	}
	for _, c := range impl.Where {
		if _, ok := r.entries[c.Structure]; !ok {
			return structureErrorf(impl.Structure,
				"where constraint references unknown structure %s", c.Structure)
		}
	}

	r.impls = append(r.impls, impl)
	return nil
}

// Structure returns a definition as it was registered, without inherited
// members.
func (r *Registry) Structure(name string) (StructureDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return StructureDef{}, false
	}
	return e.def, true
}

// Structures returns all definitions in registration order.
func (r *Registry) Structures() []StructureDef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]StructureDef, len(r.order))
	for i, name := range r.order {
		out[i] = r.entries[name].def
	}
	return out
}

// Operations returns the structure's operations including everything
// inherited through extends, or ok=false for an unknown structure.
func (r *Registry) Operations(name string) ([]Operation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return append([]Operation(nil), e.operations...), true
}

// Axioms returns the structure's axioms including inherited ones, still
// expressed over the structure's own type parameters.
func (r *Registry) Axioms(name string) ([]Axiom, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return append([]Axiom(nil), e.axioms...), true
}

// Elements returns the structure's distinguished elements including
// inherited ones.
func (r *Registry) Elements(name string) ([]Element, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return append([]Element(nil), e.elements...), true
}

// Extends reports whether structure name transitively extends parent.
// A structure extends itself.
func (r *Registry) Extends(name, parent string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return ok && e.ancestors[parent]
}

// Implementations returns all registered implementations in registration
// order. Candidate ordering elsewhere (polymorphic inference results,
// TypesSupporting) derives from this order.
func (r *Registry) Implementations() []Implementation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Implementation(nil), r.impls...)
}

// ImplementationsOf returns the implementations registered for a structure,
// in registration order.
func (r *Registry) ImplementationsOf(structure string) []Implementation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Implementation
	for _, im := range r.impls {
		if im.Structure == structure {
			out = append(out, im)
		}
	}
	return out
}

// AxiomsFor returns the structure's axiom closure specialized to an
// implementation's type arguments. Specialization happens here, on demand:
// the registry stores axioms generically and substitutes the parameters
// each time it is asked, so registering an implementation stays cheap.
func (r *Registry) AxiomsFor(impl Implementation) ([]Axiom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[impl.Structure]
	if !ok {
		return nil, structureErrorf(impl.Structure, "unknown structure")
	}
	if len(impl.TypeArgs) != len(e.def.Params) {
		return nil, structureErrorf(impl.Structure, "expects %d type arguments, got %d",
			len(e.def.Params), len(impl.TypeArgs))
	}

	sub := newParamSubst(e.def.Params, impl.TypeArgs)
	out := make([]Axiom, len(e.axioms))
	for i, ax := range e.axioms {
		out[i] = Axiom{Name: ax.Name, Proposition: sub.expr(ax.Proposition)}
	}
	return out, nil
}

// OperationsFor returns the structure's operation closure with signatures
// specialized to an implementation's type arguments. Dimension variables
// inside the carrier (the n of Monoid(Vector(n))) stay symbolic.
func (r *Registry) OperationsFor(impl Implementation) ([]Operation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[impl.Structure]
	if !ok {
		return nil, structureErrorf(impl.Structure, "unknown structure")
	}
	if len(impl.TypeArgs) != len(e.def.Params) {
		return nil, structureErrorf(impl.Structure, "expects %d type arguments, got %d",
			len(e.def.Params), len(impl.TypeArgs))
	}

	sub := newParamSubst(e.def.Params, impl.TypeArgs)
	out := make([]Operation, len(e.operations))
	for i, op := range e.operations {
		out[i] = Operation{Name: op.Name, Signature: sub.typ(op.Signature)}
	}
	return out, nil
}

// ElementsFor returns the structure's distinguished elements with types
// specialized to an implementation's type arguments.
func (r *Registry) ElementsFor(impl Implementation) ([]Element, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[impl.Structure]
	if !ok {
		return nil, structureErrorf(impl.Structure, "unknown structure")
	}
	if len(impl.TypeArgs) != len(e.def.Params) {
		return nil, structureErrorf(impl.Structure, "expects %d type arguments, got %d",
			len(e.def.Params), len(impl.TypeArgs))
	}

	sub := newParamSubst(e.def.Params, impl.TypeArgs)
	out := make([]Element, len(e.elements))
	for i, el := range e.elements {
		out[i] = Element{Name: el.Name, Type: sub.typ(el.Type)}
	}
	return out, nil
}

// Warnings drains queued registration warnings, such as member names
// shadowed across an extends closure.
func (r *Registry) Warnings() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.warnings
	r.warnings = nil
	return out
}

// Clone returns an independent copy, used to take a consistent snapshot
// before rebuilding derived indexes.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := NewRegistry()
	out.order = append([]string(nil), r.order...)
	out.impls = append([]Implementation(nil), r.impls...)
	out.warnings = append([]string(nil), r.warnings...)
	for name, e := range r.entries {
		ce := &entry{
			def:        e.def,
			operations: append([]Operation(nil), e.operations...),
			axioms:     append([]Axiom(nil), e.axioms...),
			elements:   append([]Element(nil), e.elements...),
			ancestors:  make(map[string]bool, len(e.ancestors)),
		}
		for a := range e.ancestors {
			ce.ancestors[a] = true
		}
		out.entries[name] = ce
	}
	return out
}

// paramSubst maps a structure's parameter names to an implementation's
// concrete arguments. Type parameters appear in signatures as Named types;
// dimension parameters appear as dimension variables of the same name.
type paramSubst struct {
	types map[string]typesystem.Type
	dims  map[string]typesystem.DimExpr
}

func newParamSubst(params []TypeParam, args []typesystem.Type) paramSubst {
	sub := paramSubst{types: map[string]typesystem.Type{}, dims: map[string]typesystem.DimExpr{}}
	for i, p := range params {
		if d, ok := args[i].(typesystem.Dim); ok {
			sub.dims[p.Name] = d.Expr
			continue
		}
		sub.types[p.Name] = args[i]
	}
	return sub
}

// typ substitutes parameter occurrences inside a type expression.
func (sub paramSubst) typ(t typesystem.Type) typesystem.Type {
	switch x := t.(type) {
	case typesystem.Named:
		if rep, ok := sub.types[x.Name]; ok {
			return rep
		}
		return x
	case typesystem.Func:
		params := make([]typesystem.Type, len(x.Params))
		for i, p := range x.Params {
			params[i] = sub.typ(p)
		}
		return typesystem.Func{Params: params, Return: sub.typ(x.Return)}
	case typesystem.Parametric:
		args := make([]typesystem.Type, len(x.Args))
		for i, a := range x.Args {
			args[i] = sub.typ(a)
		}
		return typesystem.Parametric{Name: x.Name, Args: args}
	case typesystem.Dim:
		return typesystem.Dim{Expr: sub.dim(x.Expr)}
	default:
		return t
	}
}

func (sub paramSubst) dim(d typesystem.DimExpr) typesystem.DimExpr {
	switch x := d.(type) {
	case typesystem.DimVar:
		if rep, ok := sub.dims[x.Name]; ok {
			return rep
		}
		return x
	case typesystem.DimOp:
		return typesystem.DimOp{Op: x.Op, Left: sub.dim(x.Left), Right: sub.dim(x.Right)}
	default:
		return d
	}
}

// expr rebuilds an expression tree with bound-variable types specialized.
// Only the types change; the proposition structure is shared where possible.
func (sub paramSubst) expr(e ast.Expression) ast.Expression {
	switch x := e.(type) {
	case *ast.Quantifier:
		bound := make([]ast.TypedVar, len(x.Bound))
		for i, b := range x.Bound {
			bound[i] = ast.TypedVar{Name: b.Name, Type: sub.typ(b.Type)}
		}
		var where ast.Expression
		if x.Where != nil {
			where = sub.expr(x.Where)
		}
		return &ast.Quantifier{Kind: x.Kind, Bound: bound, Body: sub.expr(x.Body), Where: where}
	case *ast.Operation:
		args := make([]ast.Expression, len(x.Args))
		for i, a := range x.Args {
			args[i] = sub.expr(a)
		}
		return &ast.Operation{Name: x.Name, Args: args}
	case *ast.Conditional:
		return &ast.Conditional{Cond: sub.expr(x.Cond), Then: sub.expr(x.Then), Else: sub.expr(x.Else)}
	case *ast.Let:
		return &ast.Let{Name: x.Name, Value: sub.expr(x.Value), Body: sub.expr(x.Body)}
	default:
		return e
	}
}
