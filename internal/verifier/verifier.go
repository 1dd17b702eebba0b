// Package verifier checks quantified propositions against an external
// SMT solver. Expressions translate to SMT-LIB2 through a fixed operator
// table; operations outside the table become uninterpreted functions
// constrained by the axioms of the structures that declare them. Validity
// is established by proving the negation unsatisfiable, with every solver
// call bounded by a configured timeout.
package verifier

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/eatikrh/kleis-sub002/internal/ast"
	"github.com/eatikrh/kleis-sub002/internal/config"
	"github.com/eatikrh/kleis-sub002/internal/structures"
	"github.com/eatikrh/kleis-sub002/internal/typesystem"
)

// Verifier runs axiom verification against a structure registry snapshot.
// Safe for concurrent use: each call owns its translator, environment and
// solver process.
type Verifier struct {
	registry *structures.Registry
	cfg      config.SolverConfig
	runner   Runner

	mu         sync.Mutex
	consistent map[string]bool
}

// New returns a verifier over a registry snapshot. A nil runner means the
// configured external solver binary.
func New(registry *structures.Registry, cfg config.SolverConfig, runner Runner) *Verifier {
	if runner == nil {
		runner = NewRunner(cfg)
	}
	return &Verifier{
		registry:   registry,
		cfg:        cfg,
		runner:     runner,
		consistent: map[string]bool{},
	}
}

// VerifyAxiom checks the validity of a proposition. Free variables are
// implicitly universally closed. The verdict is Valid when the negation
// is unsatisfiable, Invalid with a counterexample when it is satisfiable,
// and Unknown on solver timeout or incompleteness.
func (v *Verifier) VerifyAxiom(ctx context.Context, prop ast.Expression) (Result, error) {
	session := uuid.NewString()
	if err := ast.Validate(prop); err != nil {
		return Result{}, &VerificationError{Session: session, Detail: err.Error()}
	}

	bg, err := v.loadBackground(prop)
	if err != nil {
		return Result{}, &VerificationError{Session: session, Detail: err.Error()}
	}
	if err := v.ensureConsistent(ctx, bg, session); err != nil {
		return Result{}, err
	}

	script, err := v.buildScript(prop, bg, true)
	if err != nil {
		return Result{}, &VerificationError{Session: session, Detail: err.Error()}
	}

	out, timedOut, err := v.run(ctx, script)
	if timedOut {
		return Result{Verdict: Unknown, Reason: "solver timeout", Session: session}, nil
	}
	if err != nil {
		return Result{}, &VerificationError{Session: session, Detail: err.Error()}
	}

	status, ok := parseCheckSat(out)
	if !ok {
		return Result{}, &VerificationError{Session: session, Detail: "unreadable solver output: " + strings.TrimSpace(out)}
	}
	switch status {
	case statusUnsat:
		return Result{Verdict: Valid, Session: session}, nil
	case statusSat:
		return Result{Verdict: Invalid, Counterexample: parseModel(out), Session: session}, nil
	default:
		return Result{Verdict: Unknown, Reason: "solver returned unknown", Session: session}, nil
	}
}

// AreEquivalent checks whether two expressions denote the same value for
// all assignments of their free variables.
func (v *Verifier) AreEquivalent(ctx context.Context, a, b ast.Expression) (Result, error) {
	return v.VerifyAxiom(ctx, ast.NewOperation(config.OpEquals, a, b))
}

// Satisfiability classifies a CheckSatisfiability outcome.
type Satisfiability int

const (
	Unsatisfiable Satisfiability = iota
	Satisfiable
	Undetermined
)

func (s Satisfiability) String() string {
	switch s {
	case Unsatisfiable:
		return "unsatisfiable"
	case Satisfiable:
		return "satisfiable"
	default:
		return "undetermined"
	}
}

// SatResult is the outcome of a satisfiability query, with a witness
// model when one exists.
type SatResult struct {
	Status  Satisfiability
	Model   map[string]string
	Session string
}

// CheckSatisfiability asks whether the proposition itself has a model,
// without negating it.
func (v *Verifier) CheckSatisfiability(ctx context.Context, prop ast.Expression) (SatResult, error) {
	session := uuid.NewString()
	if err := ast.Validate(prop); err != nil {
		return SatResult{}, &VerificationError{Session: session, Detail: err.Error()}
	}
	bg, err := v.loadBackground(prop)
	if err != nil {
		return SatResult{}, &VerificationError{Session: session, Detail: err.Error()}
	}

	script, err := v.buildScript(prop, bg, false)
	if err != nil {
		return SatResult{}, &VerificationError{Session: session, Detail: err.Error()}
	}
	out, timedOut, err := v.run(ctx, script)
	if timedOut {
		return SatResult{Status: Undetermined, Session: session}, nil
	}
	if err != nil {
		return SatResult{}, &VerificationError{Session: session, Detail: err.Error()}
	}

	status, ok := parseCheckSat(out)
	if !ok {
		return SatResult{}, &VerificationError{Session: session, Detail: "unreadable solver output: " + strings.TrimSpace(out)}
	}
	switch status {
	case statusSat:
		return SatResult{Status: Satisfiable, Model: parseModel(out), Session: session}, nil
	case statusUnsat:
		return SatResult{Status: Unsatisfiable, Session: session}, nil
	default:
		return SatResult{Status: Undetermined, Session: session}, nil
	}
}

// run executes a script under the configured timeout. The second return
// reports a deadline hit, which callers map to Unknown rather than error.
func (v *Verifier) run(ctx context.Context, script string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, v.cfg.Timeout())
	defer cancel()

	out, err := v.runner.Run(ctx, script)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", true, nil
	}
	return out, false, err
}

// background is the axiom context pulled in for one verification: the
// signatures typing the uninterpreted operations, the specialized axioms
// to assert, the typed distinguished elements, and a stable key naming
// the loaded implementations.
type background struct {
	signatures map[string]typesystem.Type
	axioms     []structures.Axiom
	elements   []structures.Element
	loaded     []string
}

func (bg *background) key() string {
	sorted := append([]string(nil), bg.loaded...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

// loadBackground walks the proposition's operation dependencies and pulls
// the axioms of every structure implementation that declares them, plus
// the structures named by where-constraints. Axioms can themselves
// mention further operations, so loading iterates to a fixed point.
func (v *Verifier) loadBackground(prop ast.Expression) (*background, error) {
	bg := &background{signatures: map[string]typesystem.Type{}}
	pending := operationNames(prop)
	seenOp := map[string]bool{}
	loadedImpl := map[string]bool{}

	for len(pending) > 0 {
		name := pending[0]
		pending = pending[1:]
		if seenOp[name] {
			continue
		}
		seenOp[name] = true
		if _, builtin := smtOps[name]; builtin {
			continue
		}

		impl, ok := v.implementationDeclaring(name)
		if !ok {
			continue
		}
		more, err := v.loadImplementation(bg, loadedImpl, impl)
		if err != nil {
			return nil, err
		}
		pending = append(pending, more...)
	}
	return bg, nil
}

// loadImplementation asserts one implementation's axiom set into the
// background, returning the operation names newly referenced by those
// axioms.
func (v *Verifier) loadImplementation(bg *background, loadedImpl map[string]bool, impl structures.Implementation) ([]string, error) {
	key := impl.Structure + "(" + impl.TypeName() + ")"
	if loadedImpl[key] {
		return nil, nil
	}
	loadedImpl[key] = true

	ops, err := v.registry.OperationsFor(impl)
	if err != nil {
		return nil, err
	}
	for _, op := range ops {
		if _, dup := bg.signatures[op.Name]; !dup {
			bg.signatures[op.Name] = op.Signature
		}
	}
	els, err := v.registry.ElementsFor(impl)
	if err != nil {
		return nil, err
	}
	bg.elements = append(bg.elements, els...)

	axs, err := v.registry.AxiomsFor(impl)
	if err != nil {
		return nil, err
	}
	bg.axioms = append(bg.axioms, axs...)
	bg.loaded = append(bg.loaded, key)

	var more []string
	for _, ax := range axs {
		more = append(more, operationNames(ax.Proposition)...)
	}

	// A where-constraint's structure contributes its axioms too, at the
	// constraint's own type arguments.
	for _, c := range impl.Where {
		sub, err := v.loadImplementation(bg, loadedImpl, structures.Implementation{
			Structure: c.Structure,
			TypeArgs:  c.Args,
		})
		if err != nil {
			return nil, err
		}
		more = append(more, sub...)
	}
	return more, nil
}

// implementationDeclaring finds the first implementation, in registration
// order, whose structure closure declares the operation.
func (v *Verifier) implementationDeclaring(op string) (structures.Implementation, bool) {
	for _, impl := range v.registry.Implementations() {
		ops, err := v.registry.OperationsFor(impl)
		if err != nil {
			continue
		}
		for _, o := range ops {
			if o.Name == op {
				return impl, true
			}
		}
	}
	return structures.Implementation{}, false
}

// ensureConsistent runs a one-shot satisfiability check over a loaded
// axiom set. An unsatisfiable set would make every proposition vacuously
// Valid, so it is reported as an explicit error instead. The outcome is
// cached per implementation set.
func (v *Verifier) ensureConsistent(ctx context.Context, bg *background, session string) error {
	if len(bg.axioms) == 0 {
		return nil
	}
	key := bg.key()
	v.mu.Lock()
	done := v.consistent[key]
	v.mu.Unlock()
	if done {
		return nil
	}

	tr := newTranslator(bg.signatures)
	asserts, err := v.assertAxioms(tr, bg)
	if err != nil {
		return &VerificationError{Session: session, Detail: err.Error()}
	}
	script := strings.Join(append(append(tr.declarations(), asserts...), "(check-sat)"), "\n") + "\n"

	out, timedOut, err := v.run(ctx, script)
	if timedOut {
		// Not proven inconsistent; verification proceeds.
		return nil
	}
	if err != nil {
		return &VerificationError{Session: session, Detail: err.Error()}
	}
	if status, ok := parseCheckSat(out); ok && status == statusUnsat {
		return &VerificationError{
			Session: session,
			Detail:  "loaded axiom set is inconsistent (" + key + "); every proposition would verify vacuously",
		}
	}

	v.mu.Lock()
	v.consistent[key] = true
	v.mu.Unlock()
	return nil
}

// assertAxioms declares the background elements and renders each axiom as
// an assertion.
func (v *Verifier) assertAxioms(tr *translator, bg *background) ([]string, error) {
	for _, el := range bg.elements {
		tr.declareConst(symbol(el.Name), tr.sortOf(el.Type))
	}
	var asserts []string
	for _, ax := range bg.axioms {
		term, err := tr.term(ax.Proposition, newEnv())
		if err != nil {
			return nil, err
		}
		asserts = append(asserts, "(assert "+term+") ; "+ax.Name)
	}
	return asserts, nil
}

// buildScript assembles the full SMT-LIB2 script: declarations, the
// background axioms, then the goal, negated when proving validity.
func (v *Verifier) buildScript(prop ast.Expression, bg *background, negate bool) (string, error) {
	tr := newTranslator(bg.signatures)
	asserts, err := v.assertAxioms(tr, bg)
	if err != nil {
		return "", err
	}
	goal, err := tr.term(prop, newEnv())
	if err != nil {
		return "", err
	}
	if negate {
		goal = "(not " + goal + ")"
	}

	lines := []string{"(set-option :produce-models true)"}
	lines = append(lines, tr.declarations()...)
	lines = append(lines, asserts...)
	lines = append(lines, "(assert "+goal+")", "(check-sat)", "(get-model)")
	return strings.Join(lines, "\n") + "\n", nil
}

// operationNames collects the operation names used in an expression, in
// first occurrence order.
func operationNames(expr ast.Expression) []string {
	var order []string
	seen := map[string]bool{}
	ast.Walk(expr, func(e ast.Expression) bool {
		if op, ok := e.(*ast.Operation); ok && !seen[op.Name] {
			seen[op.Name] = true
			order = append(order, op.Name)
		}
		return true
	})
	return order
}
