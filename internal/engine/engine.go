// Package engine is the integration boundary for policy and automation
// callers: a single Evaluate entry point that routes quantified
// propositions to the axiom verifier and concrete expressions to an
// external numeric evaluator, plus per-expression editor feedback built
// on the inference engine. Consumers at this boundary fail closed: an
// error outcome is denied/unverified, never an implicit pass.
package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/eatikrh/kleis-sub002/internal/ast"
	"github.com/eatikrh/kleis-sub002/internal/inference"
	"github.com/eatikrh/kleis-sub002/internal/prettyprinter"
	"github.com/eatikrh/kleis-sub002/internal/verifier"
)

// NumericEvaluator reduces a concrete expression to a value. It is an
// external collaborator; this core never reduces numbers itself.
type NumericEvaluator interface {
	Evaluate(ctx context.Context, expr ast.Expression) (string, error)
}

// OutcomeKind tags an Evaluate result.
type OutcomeKind int

const (
	// KindValue: the input was a concrete expression, reduced to a value.
	KindValue OutcomeKind = iota
	// KindVerified: the input was a proposition, checked by the verifier.
	KindVerified
)

// Outcome is the tagged result of Evaluate.
type Outcome struct {
	Kind         OutcomeKind
	Value        string
	Verification verifier.Result
}

// Engine wires inference, verification and the evaluator collaborator
// behind one surface.
type Engine struct {
	infer   *inference.Engine
	verify  *verifier.Verifier
	eval    NumericEvaluator
	printer *prettyprinter.Printer
}

// New assembles an engine. The numeric evaluator may be nil, in which
// case concrete expressions fail closed.
func New(infer *inference.Engine, verify *verifier.Verifier, eval NumericEvaluator) *Engine {
	return &Engine{infer: infer, verify: verify, eval: eval, printer: prettyprinter.New()}
}

// ErrNoEvaluator is returned for concrete input when no numeric
// evaluator collaborator is configured.
var ErrNoEvaluator = errors.New("no numeric evaluator configured")

// Evaluate routes one input: a quantified proposition goes to the axiom
// verifier, anything else to the numeric evaluator. Errors propagate to
// the caller, which must treat them as denied.
func (e *Engine) Evaluate(ctx context.Context, input ast.Expression) (Outcome, error) {
	if err := ast.Validate(input); err != nil {
		return Outcome{}, err
	}

	if _, quantified := input.(*ast.Quantifier); quantified {
		res, err := e.verify.VerifyAxiom(ctx, input)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Kind: KindVerified, Verification: res}, nil
	}

	if e.eval == nil {
		return Outcome{}, ErrNoEvaluator
	}
	value, err := e.eval.Evaluate(ctx, input)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Kind: KindValue, Value: value}, nil
}

// Feedback is the per-expression record sent to the editor collaborator
// after each edit.
type Feedback struct {
	State      inference.State
	Type       string
	Message    string
	Suggestion string
}

// Feedback classifies one expression for live editor display. It never
// fails: error outcomes are part of the record.
func (e *Engine) Feedback(expr ast.Expression, ctx inference.Context) Feedback {
	res := e.infer.Infer(expr, ctx)

	fb := Feedback{State: res.State, Suggestion: res.Suggestion}
	if res.Type != nil {
		fb.Type = e.printer.Type(res.Type)
	}

	switch res.State {
	case inference.Error:
		fb.Message = res.Diagnostic()
	case inference.Polymorphic:
		names := make([]string, len(res.Candidates))
		for i, c := range res.Candidates {
			names[i] = c.String()
		}
		fb.Message = "multiple types possible: " + strings.Join(names, ", ")
	case inference.Incomplete:
		fb.Message = "expression has unfilled placeholders"
	case inference.Unknown:
		fb.Message = "type is not determined yet"
	}
	return fb
}
