// Package inference implements type inference over mathematical
// expressions: bottom-up constraint generation, Robinson unification
// through the typesystem package, and signature-driven resolution of
// operations against the operation registry. Every inference outcome is
// classified into one of five states so an editor can give live feedback
// on incomplete or ambiguous expressions without treating them as fatal.
package inference

import (
	"github.com/eatikrh/kleis-sub002/internal/ast"
	"github.com/eatikrh/kleis-sub002/internal/config"
	"github.com/eatikrh/kleis-sub002/internal/dispatch"
	"github.com/eatikrh/kleis-sub002/internal/signature"
	"github.com/eatikrh/kleis-sub002/internal/typesystem"
)

// State classifies an inference outcome. Ordering matters: when
// sub-results combine, the more severe state wins.
type State int

const (
	// Concrete: exactly one type is consistent with all constraints.
	Concrete State = iota
	// Unknown: a free variable has no binding in the context; the
	// expression is well-formed but its type is undetermined.
	Unknown
	// Polymorphic: more than one registered type remains consistent.
	Polymorphic
	// Incomplete: the expression contains placeholders.
	Incomplete
	// Error: the constraints are unsatisfiable or an operation cannot
	// be resolved.
	Error
)

func (s State) String() string {
	switch s {
	case Concrete:
		return "concrete"
	case Unknown:
		return "unknown"
	case Polymorphic:
		return "polymorphic"
	case Incomplete:
		return "incomplete"
	default:
		return "error"
	}
}

func combine(states ...State) State {
	out := Concrete
	for _, s := range states {
		if s > out {
			out = s
		}
	}
	return out
}

// Result is a classified inference outcome. Inference never panics and
// never returns a bare error: a failed or partial inference still yields a
// Result so incremental re-checking can continue around it.
type Result struct {
	State State
	Type  typesystem.Type
	Subst typesystem.Subst

	// Candidates lists the surviving carrier types of a Polymorphic
	// outcome, in implementation registration order.
	Candidates []typesystem.Type

	// Err holds the scoped failure of an Error outcome.
	Err error

	// Suggestion names a likely fix, such as another operation whose
	// signature accepts the attempted argument types.
	Suggestion string
}

// Diagnostic renders the failure of an Error result, or "".
func (r Result) Diagnostic() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Engine infers expression types against an operation registry snapshot.
// The engine itself is stateless and safe for concurrent use; each Infer
// call owns a private fresh-variable counter and substitution.
type Engine struct {
	ops *dispatch.Registry
}

// New returns an engine reading from the given registry snapshot.
func New(ops *dispatch.Registry) *Engine {
	return &Engine{ops: ops}
}

// Infer computes the classified type of an expression in a context.
// A malformed tree is rejected up front rather than assumed well-formed.
func (e *Engine) Infer(expr ast.Expression, ctx Context) Result {
	if err := ast.Validate(expr); err != nil {
		return Result{State: Error, Err: err, Subst: typesystem.NewSubst()}
	}
	req := &request{ops: e.ops}
	res := req.infer(expr, ctx, typesystem.NewSubst())
	if res.Type != nil {
		res.Type = res.Type.Apply(res.Subst)
	}
	return res
}

// request carries the per-call fresh-variable counter. Requests share
// nothing, so concurrent Infer calls cannot interfere.
type request struct {
	ops  *dispatch.Registry
	next int
}

func (q *request) fresh() typesystem.TVar {
	v := typesystem.TVar{ID: q.next}
	q.next++
	return v
}

var boolType = typesystem.Named{Name: config.TypeBool}

func (q *request) infer(expr ast.Expression, ctx Context, s typesystem.Subst) Result {
	switch e := expr.(type) {
	case *ast.Const:
		if e.Value == "true" || e.Value == "false" {
			return Result{State: Concrete, Type: boolType, Subst: s}
		}
		return Result{State: Concrete, Type: typesystem.Scalar{}, Subst: s}

	case *ast.Object:
		t, ok := ctx.Lookup(e.Name)
		if !ok {
			// Absence is not an error: the expression is fine, its type
			// is just not determined yet.
			return Result{State: Unknown, Type: q.fresh(), Subst: s}
		}
		if sch, isScheme := t.(typesystem.Scheme); isScheme {
			return Result{State: Concrete, Type: q.instantiate(sch), Subst: s}
		}
		return Result{State: classifyType(t), Type: t, Subst: s}

	case *ast.Placeholder:
		return Result{State: Incomplete, Type: q.fresh(), Subst: s}

	case *ast.Operation:
		return q.inferOperation(e, ctx, s)

	case *ast.Quantifier:
		return q.inferQuantifier(e, ctx, s)

	case *ast.Conditional:
		return q.inferConditional(e, ctx, s)

	case *ast.Let:
		return q.inferLet(e, ctx, s)
	}
	return Result{State: Error, Err: &ast.MalformedError{Node: "expression", Detail: "unrecognized expression node"}, Subst: s}
}

func (q *request) inferOperation(op *ast.Operation, ctx Context, s typesystem.Subst) Result {
	cur := s
	argTypes := make([]typesystem.Type, len(op.Args))
	state := Concrete
	for i, arg := range op.Args {
		r := q.infer(arg, ctx, cur)
		if r.State == Error {
			return r
		}
		cur = r.Subst
		argTypes[i] = r.Type.Apply(cur)
		state = combine(state, r.State)
	}

	switch op.Name {
	case config.OpEquals, config.OpNotEquals:
		// An equation's type is its right-hand side's type, so a
		// definition like I = Matrix(2, 2, ...) types as the matrix.
		if len(argTypes) == 2 {
			next, err := typesystem.UnifyUnder(argTypes[0], argTypes[1], cur)
			if err != nil {
				return Result{State: Error, Err: err, Subst: cur}
			}
			return Result{State: state, Type: argTypes[1], Subst: next}
		}
	case config.OpAnd, config.OpOr, config.OpNot, config.OpImplies:
		for _, at := range argTypes {
			next, err := typesystem.UnifyUnder(at, boolType, cur)
			if err != nil {
				return Result{State: Error, Err: err, Subst: cur}
			}
			cur = next
		}
		return Result{State: state, Type: boolType, Subst: cur}
	}

	type survivor struct {
		entry   dispatch.Entry
		binding signature.Binding
	}
	var survivors []survivor
	for _, cand := range q.ops.Candidates(op.Name) {
		if len(cand.Template.Args) != len(argTypes) {
			continue
		}
		if b, err := cand.Template.Match(argTypes); err == nil {
			survivors = append(survivors, survivor{entry: cand, binding: b})
		}
	}

	switch len(survivors) {
	case 0:
		hint := q.suggest(op.Name, argTypes)
		return Result{
			State:      Error,
			Subst:      cur,
			Err:        &OperationResolutionError{Op: op.Name, ArgTypes: argTypes, Suggestion: hint},
			Suggestion: hint,
		}
	case 1:
		sv := survivors[0]
		return Result{
			State: state,
			Type:  sv.entry.Template.ResultType(sv.binding),
			Subst: cur,
		}
	default:
		var cands []typesystem.Type
		seen := map[string]bool{}
		for _, sv := range survivors {
			if seen[sv.entry.TypeName] {
				continue
			}
			seen[sv.entry.TypeName] = true
			cands = append(cands, sv.entry.Type)
		}
		return Result{
			State:      combine(state, Polymorphic),
			Type:       survivors[0].entry.Template.ResultType(survivors[0].binding),
			Subst:      cur,
			Candidates: cands,
		}
	}
}

// suggest finds another operation whose signature accepts the attempted
// argument types, in registry order. "" when nothing fits.
func (q *request) suggest(op string, argTypes []typesystem.Type) string {
	for _, other := range q.ops.AllOperations() {
		if other == op {
			continue
		}
		for _, cand := range q.ops.Candidates(other) {
			if len(cand.Template.Args) != len(argTypes) {
				continue
			}
			if _, err := cand.Template.Match(argTypes); err == nil {
				return other
			}
		}
	}
	return ""
}

func (q *request) inferQuantifier(e *ast.Quantifier, ctx Context, s typesystem.Subst) Result {
	inner := ctx
	for _, b := range e.Bound {
		inner = inner.Bind(b.Name, b.Type)
	}

	cur := s
	state := Concrete
	if e.Where != nil {
		r := q.infer(e.Where, inner, cur)
		if r.State == Error {
			return r
		}
		next, err := typesystem.UnifyUnder(r.Type, boolType, r.Subst)
		if err != nil {
			return Result{State: Error, Err: err, Subst: r.Subst}
		}
		cur = next
		state = combine(state, r.State)
	}

	body := q.infer(e.Body, inner, cur)
	if body.State == Error {
		return body
	}
	return Result{State: combine(state, body.State), Type: boolType, Subst: body.Subst}
}

func (q *request) inferConditional(e *ast.Conditional, ctx Context, s typesystem.Subst) Result {
	cond := q.infer(e.Cond, ctx, s)
	if cond.State == Error {
		return cond
	}
	cur, err := typesystem.UnifyUnder(cond.Type, boolType, cond.Subst)
	if err != nil {
		return Result{State: Error, Err: err, Subst: cond.Subst}
	}

	then := q.infer(e.Then, ctx, cur)
	if then.State == Error {
		return then
	}
	els := q.infer(e.Else, ctx, then.Subst)
	if els.State == Error {
		return els
	}

	cur, err = typesystem.UnifyUnder(then.Type, els.Type, els.Subst)
	if err != nil {
		return Result{State: Error, Err: err, Subst: els.Subst}
	}
	return Result{
		State: combine(cond.State, then.State, els.State),
		Type:  then.Type.Apply(cur),
		Subst: cur,
	}
}

func (q *request) inferLet(e *ast.Let, ctx Context, s typesystem.Subst) Result {
	val := q.infer(e.Value, ctx, s)
	if val.State == Error {
		return val
	}

	// Definition boundary: free variables not visible from the enclosing
	// context become universally quantified, instantiated fresh per use.
	bound := q.generalize(ctx, val.Type.Apply(val.Subst))
	body := q.infer(e.Body, ctx.Bind(e.Name, bound), val.Subst)
	if body.State == Error {
		return body
	}
	return Result{State: combine(val.State, body.State), Type: body.Type, Subst: body.Subst}
}

func (q *request) generalize(ctx Context, t typesystem.Type) typesystem.Type {
	ctxFree := ctx.freeTypeVars()
	var vars []int
	seen := map[int]bool{}
	for _, v := range t.FreeTypeVars() {
		if !ctxFree[v] && !seen[v] {
			seen[v] = true
			vars = append(vars, v)
		}
	}
	if len(vars) == 0 {
		return t
	}
	return typesystem.Scheme{Vars: vars, Body: t}
}

func (q *request) instantiate(sch typesystem.Scheme) typesystem.Type {
	s := typesystem.NewSubst()
	for _, v := range sch.Vars {
		s.Types[v] = q.fresh()
	}
	return sch.Body.Apply(s)
}

// classifyType maps a looked-up type to a feedback state: a type still
// containing inference variables is undetermined, everything else is
// concrete.
func classifyType(t typesystem.Type) State {
	if len(t.FreeTypeVars()) > 0 {
		return Unknown
	}
	return Concrete
}
