// Package prettyprinter renders expressions, types, structures and
// implementations back to the concrete syntax the parsing collaborator
// accepts. Output is kept single-line per construct so printing and
// re-parsing round-trips.
package prettyprinter

import (
	"sort"
	"strings"

	"github.com/eatikrh/kleis-sub002/internal/ast"
	"github.com/eatikrh/kleis-sub002/internal/config"
	"github.com/eatikrh/kleis-sub002/internal/structures"
	"github.com/eatikrh/kleis-sub002/internal/typesystem"
)

// Printer renders trees to source text.
type Printer struct {
	indent string
}

// New returns a printer indenting blocks with four spaces.
func New() *Printer {
	return &Printer{indent: "    "}
}

// WithIndent returns a printer using a custom block indent.
func WithIndent(indent string) *Printer {
	return &Printer{indent: indent}
}

// infixSymbols maps binary operation names to their surface operators.
var infixSymbols = map[string]string{
	config.OpPlus:         "+",
	config.OpMinus:        "-",
	config.OpTimes:        "*",
	config.OpDivide:       "/",
	"power":               "^",
	config.OpEquals:       "=",
	config.OpNotEquals:    "!=",
	config.OpLessThan:     "<",
	config.OpGreaterThan:  ">",
	config.OpLessEqual:    "<=",
	config.OpGreaterEqual: ">=",
	config.OpAnd:          "and",
	config.OpOr:           "or",
	config.OpImplies:      "->",
	"compose":             "∘",
	"op":                  "*",
}

// Expression renders an expression tree.
func (p *Printer) Expression(expr ast.Expression) string {
	switch e := expr.(type) {
	case *ast.Const:
		return e.Value
	case *ast.Object:
		return e.Name
	case *ast.Operation:
		return p.operation(e)
	case *ast.Quantifier:
		return p.quantifier(e)
	case *ast.Conditional:
		return "if " + p.Expression(e.Cond) + " then " + p.Expression(e.Then) + " else " + p.Expression(e.Else)
	case *ast.Let:
		return "let " + e.Name + " = " + p.Expression(e.Value) + " in " + p.Expression(e.Body)
	case *ast.Placeholder:
		return "?"
	}
	return ""
}

func (p *Printer) operation(op *ast.Operation) string {
	if sym, infix := infixSymbols[op.Name]; infix && len(op.Args) == 2 {
		return p.maybeParen(op.Args[0]) + " " + sym + " " + p.maybeParen(op.Args[1])
	}
	if len(op.Args) == 1 {
		switch op.Name {
		case config.OpNegate:
			return "-" + p.maybeParen(op.Args[0])
		case config.OpNot:
			return "¬" + p.maybeParen(op.Args[0])
		}
	}
	if len(op.Args) == 0 {
		return op.Name
	}
	parts := make([]string, len(op.Args))
	for i, a := range op.Args {
		parts[i] = p.Expression(a)
	}
	return op.Name + "(" + strings.Join(parts, ", ") + ")"
}

// maybeParen wraps nested infix operations and conditionals so the
// re-parsed tree keeps its shape regardless of operator precedence.
func (p *Printer) maybeParen(expr ast.Expression) string {
	rendered := p.Expression(expr)
	switch e := expr.(type) {
	case *ast.Operation:
		if _, infix := infixSymbols[e.Name]; infix && len(e.Args) == 2 {
			return "(" + rendered + ")"
		}
	case *ast.Conditional:
		return "(" + rendered + ")"
	}
	return rendered
}

func (p *Printer) quantifier(q *ast.Quantifier) string {
	vars := make([]string, len(q.Bound))
	for i, b := range q.Bound {
		vars[i] = b.Name + " : " + p.Type(b.Type)
	}
	s := q.Kind.String() + "(" + strings.Join(vars, ", ") + ")"
	if q.Where != nil {
		s += " where " + p.Expression(q.Where)
	}
	return s + ". " + p.Expression(q.Body)
}

// Type renders a type expression. Function types print as curried arrow
// chains, the form signatures are written in.
func (p *Printer) Type(t typesystem.Type) string {
	switch x := t.(type) {
	case typesystem.Func:
		parts := make([]string, len(x.Params)+1)
		for i, param := range x.Params {
			parts[i] = p.typeAtom(param)
		}
		parts[len(x.Params)] = p.typeAtom(x.Return)
		return strings.Join(parts, " → ")
	case typesystem.Scheme:
		return x.String()
	default:
		return t.String()
	}
}

func (p *Printer) typeAtom(t typesystem.Type) string {
	if _, isFunc := t.(typesystem.Func); isFunc {
		return "(" + p.Type(t) + ")"
	}
	return p.Type(t)
}

// StructureDef renders a structure block:
//
//	structure Monoid(M) extends Semigroup(M) {
//	    operation op : M → M → M
//	    element e : M
//	    axiom left_identity: ∀(x : M). e * x = x
//	}
func (p *Printer) StructureDef(def structures.StructureDef) string {
	var b strings.Builder
	b.WriteString("structure " + def.Name)
	if len(def.Params) > 0 {
		names := make([]string, len(def.Params))
		for i, param := range def.Params {
			names[i] = param.Name
		}
		b.WriteString("(" + strings.Join(names, ", ") + ")")
		if len(def.Extends) > 0 {
			parents := make([]string, len(def.Extends))
			for i, parent := range def.Extends {
				parents[i] = parent + "(" + strings.Join(names, ", ") + ")"
			}
			b.WriteString(" extends " + strings.Join(parents, ", "))
		}
	}
	b.WriteString(" {\n")
	for _, op := range def.Operations {
		b.WriteString(p.indent + "operation " + op.Name + " : " + p.Type(op.Signature) + "\n")
	}
	for _, el := range def.Elements {
		b.WriteString(p.indent + "element " + el.Name + " : " + p.Type(el.Type) + "\n")
	}
	for _, ax := range def.Axioms {
		b.WriteString(p.indent + "axiom " + ax.Name + ": " + p.Expression(ax.Proposition) + "\n")
	}
	b.WriteString("}")
	return b.String()
}

// Implementation renders an implements block:
//
//	implements Monoid(ℝ) {
//	    operation op = real_add
//	}
func (p *Printer) Implementation(impl structures.Implementation) string {
	var b strings.Builder
	args := make([]string, len(impl.TypeArgs))
	for i, a := range impl.TypeArgs {
		args[i] = a.String()
	}
	b.WriteString("implements " + impl.Structure + "(" + strings.Join(args, ", ") + ")")

	for _, c := range impl.Where {
		cargs := make([]string, len(c.Args))
		for i, a := range c.Args {
			cargs[i] = a.String()
		}
		b.WriteString(" where " + c.Structure + "(" + strings.Join(cargs, ", ") + ")")
	}

	b.WriteString(" {\n")
	names := make([]string, 0, len(impl.Bindings))
	for name := range impl.Bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.WriteString(p.indent + "operation " + name + " = " + impl.Bindings[name] + "\n")
	}
	b.WriteString("}")
	return b.String()
}

// Axiom renders a named axiom declaration.
func (p *Printer) Axiom(ax structures.Axiom) string {
	return "axiom " + ax.Name + ": " + p.Expression(ax.Proposition)
}
