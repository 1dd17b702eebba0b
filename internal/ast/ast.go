package ast

import (
	"strings"

	"github.com/eatikrh/kleis-sub002/internal/typesystem"
)

// Expression is the interface for all nodes of the mathematical expression
// tree. The tree is produced by the parser, consumed read-only by inference
// and verification, and never mutated after construction.
type Expression interface {
	exprNode()
	String() string
}

// Const is a numeric or symbolic literal ("1", "3.14", "true").
type Const struct {
	Value string
}

// Object is a reference to a named object or variable ("x", "α", "π").
type Object struct {
	Name string
}

// Operation is a named operation applied to arguments.
// Examples: plus(a, b), sqrt(x), transpose(M).
type Operation struct {
	Name string
	Args []Expression
}

// QuantifierKind distinguishes universal from existential quantification.
type QuantifierKind int

const (
	ForAll QuantifierKind = iota
	Exists
)

func (k QuantifierKind) String() string {
	if k == Exists {
		return "∃"
	}
	return "∀"
}

// TypedVar is a quantifier-bound variable with its declared type.
type TypedVar struct {
	Name string
	Type typesystem.Type
}

// Quantifier binds variables over a proposition body.
// Where is an optional side condition (∀(x : ℝ) where x ≠ 0. ...); nil when absent.
type Quantifier struct {
	Kind  QuantifierKind
	Bound []TypedVar
	Body  Expression
	Where Expression
}

// Conditional is if/then/else at the expression level.
type Conditional struct {
	Cond Expression
	Then Expression
	Else Expression
}

// Let binds a name to a value within a body.
type Let struct {
	Name  string
	Value Expression
	Body  Expression
}

// Placeholder is an empty slot used by the structural editor. Hint describes
// what belongs in the slot ("numerator", "exponent").
type Placeholder struct {
	ID   int
	Hint string
}

func (*Const) exprNode()       {}
func (*Object) exprNode()      {}
func (*Operation) exprNode()   {}
func (*Quantifier) exprNode()  {}
func (*Conditional) exprNode() {}
func (*Let) exprNode()         {}
func (*Placeholder) exprNode() {}

func (c *Const) String() string  { return c.Value }
func (o *Object) String() string { return o.Name }

func (op *Operation) String() string {
	parts := make([]string, len(op.Args))
	for i, a := range op.Args {
		parts[i] = a.String()
	}
	return op.Name + "(" + strings.Join(parts, ", ") + ")"
}

func (q *Quantifier) String() string {
	names := make([]string, len(q.Bound))
	for i, b := range q.Bound {
		names[i] = b.Name
	}
	s := q.Kind.String() + "(" + strings.Join(names, " ") + ")"
	if q.Where != nil {
		s += " where " + q.Where.String()
	}
	return s + ". " + q.Body.String()
}

func (c *Conditional) String() string {
	return "if " + c.Cond.String() + " then " + c.Then.String() + " else " + c.Else.String()
}

func (l *Let) String() string {
	return "let " + l.Name + " = " + l.Value.String() + " in " + l.Body.String()
}

func (p *Placeholder) String() string { return "⟨" + p.Hint + "⟩" }

// NewConst creates a constant expression.
func NewConst(value string) *Const { return &Const{Value: value} }

// NewObject creates an object/variable reference.
func NewObject(name string) *Object { return &Object{Name: name} }

// NewOperation creates an operation expression.
func NewOperation(name string, args ...Expression) *Operation {
	return &Operation{Name: name, Args: args}
}

// NewPlaceholder creates a placeholder with an editing hint.
func NewPlaceholder(id int, hint string) *Placeholder {
	return &Placeholder{ID: id, Hint: hint}
}
