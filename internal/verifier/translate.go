package verifier

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/benbjohnson/immutable"

	"github.com/eatikrh/kleis-sub002/internal/ast"
	"github.com/eatikrh/kleis-sub002/internal/config"
	"github.com/eatikrh/kleis-sub002/internal/typesystem"
)

// smtOp is one entry of the operation translation table: the SMT-LIB2
// symbol and the accepted arity (-1 for any). Extending the verifier with
// a new builtin operator means adding a table entry, nothing else.
type smtOp struct {
	Symbol string
	Arity  int
}

// smtOps maps operation names to SMT-LIB2 builtins. Operations absent
// from the table become uninterpreted functions declared from their
// registered signatures.
var smtOps = map[string]smtOp{
	config.OpPlus:         {Symbol: "+", Arity: -1},
	config.OpMinus:        {Symbol: "-", Arity: 2},
	config.OpTimes:        {Symbol: "*", Arity: -1},
	config.OpDivide:       {Symbol: "/", Arity: 2},
	config.OpNegate:       {Symbol: "-", Arity: 1},
	config.OpAnd:          {Symbol: "and", Arity: -1},
	config.OpOr:           {Symbol: "or", Arity: -1},
	config.OpNot:          {Symbol: "not", Arity: 1},
	config.OpImplies:      {Symbol: "=>", Arity: 2},
	config.OpEquals:       {Symbol: "=", Arity: 2},
	config.OpNotEquals:    {Symbol: "distinct", Arity: 2},
	config.OpLessThan:     {Symbol: "<", Arity: 2},
	config.OpGreaterThan:  {Symbol: ">", Arity: 2},
	config.OpLessEqual:    {Symbol: "<=", Arity: 2},
	config.OpGreaterEqual: {Symbol: ">=", Arity: 2},
}

// TranslationError reports an expression the translator cannot express in
// SMT-LIB2 terms.
type TranslationError struct {
	Detail string
}

func (e *TranslationError) Error() string { return "cannot translate to solver terms: " + e.Detail }

// translator renders expressions to SMT-LIB2 text, collecting the
// declarations the rendered terms need: free constants, uninterpreted
// functions and uninterpreted sorts.
type translator struct {
	// signatures types the uninterpreted operations, keyed by name.
	signatures map[string]typesystem.Type

	// collected declarations, in first-use order.
	consts    []decl
	funs      []funDecl
	sorts     []string
	seenConst map[string]bool
	seenFun   map[string]bool
	seenSort  map[string]bool
}

type decl struct {
	Name string
	Sort string
}

type funDecl struct {
	Name   string
	Params []string
	Result string
}

func newTranslator(signatures map[string]typesystem.Type) *translator {
	return &translator{
		signatures: signatures,
		seenConst:  map[string]bool{},
		seenFun:    map[string]bool{},
		seenSort:   map[string]bool{},
	}
}

// env maps in-scope variable names to their sorts. Quantifiers extend it
// by copy; the parent environment is never touched, which keeps nested and
// re-entrant translations independent.
type env struct {
	vars *immutable.Map[string, string]
}

func newEnv() env {
	return env{vars: immutable.NewMap[string, string](nil)}
}

func (e env) bind(name, sort string) env {
	return env{vars: e.vars.Set(name, sort)}
}

func (e env) lookup(name string) (string, bool) {
	return e.vars.Get(name)
}

// sortOf maps a type to its SMT sort. Scalar and rational types map to
// Real, integral types to Int, Bool to Bool; everything else becomes an
// uninterpreted sort declared once per script.
func (t *translator) sortOf(ty typesystem.Type) string {
	switch x := ty.(type) {
	case typesystem.Scalar:
		return "Real"
	case typesystem.Named:
		switch x.Name {
		case config.TypeReal, "Real", "Scalar", config.TypeRational:
			return "Real"
		case config.TypeInteger, "Int", "Integer", config.TypeNatural, "Nat":
			return "Int"
		case config.TypeBool:
			return "Bool"
		}
		return t.uninterpretedSort(x.Name)
	case typesystem.Parametric:
		// Parametric carriers (Vector(n), Matrix(m, n, ℝ)) verify over an
		// opaque element sort; their algebra comes from asserted axioms.
		return t.uninterpretedSort(x.Name)
	default:
		return t.uninterpretedSort(ty.String())
	}
}

func (t *translator) uninterpretedSort(name string) string {
	s := symbol("Sort_" + name)
	if !t.seenSort[s] {
		t.seenSort[s] = true
		t.sorts = append(t.sorts, s)
	}
	return s
}

func (t *translator) declareConst(name, sort string) {
	if t.seenConst[name] {
		return
	}
	t.seenConst[name] = true
	t.consts = append(t.consts, decl{Name: name, Sort: sort})
}

func (t *translator) declareFun(name string, sig typesystem.Type) error {
	s := symbol(name)
	if t.seenFun[s] {
		return nil
	}
	fn, ok := sig.(typesystem.Func)
	if !ok {
		return &TranslationError{Detail: fmt.Sprintf("operation %s has non-function signature %s", name, sig)}
	}
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = t.sortOf(p)
	}
	t.seenFun[s] = true
	t.funs = append(t.funs, funDecl{Name: s, Params: params, Result: t.sortOf(fn.Return)})
	return nil
}

// term renders one expression under an environment. Free objects are
// declared as constants of sort Real unless the environment knows better.
func (t *translator) term(expr ast.Expression, scope env) (string, error) {
	switch e := expr.(type) {
	case *ast.Const:
		return constTerm(e.Value), nil

	case *ast.Object:
		s := symbol(e.Name)
		if _, bound := scope.lookup(e.Name); !bound {
			t.declareConst(s, "Real")
		}
		return s, nil

	case *ast.Operation:
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			rendered, err := t.term(a, scope)
			if err != nil {
				return "", err
			}
			args[i] = rendered
		}
		if op, builtin := smtOps[e.Name]; builtin {
			if op.Arity >= 0 && len(args) != op.Arity {
				return "", &TranslationError{Detail: fmt.Sprintf("%s expects %d arguments, got %d", e.Name, op.Arity, len(args))}
			}
			return "(" + op.Symbol + " " + strings.Join(args, " ") + ")", nil
		}
		sig, known := t.signatures[e.Name]
		if !known {
			return "", &TranslationError{Detail: fmt.Sprintf("operation %s has no registered signature", e.Name)}
		}
		if err := t.declareFun(e.Name, sig); err != nil {
			return "", err
		}
		if len(args) == 0 {
			return symbol(e.Name), nil
		}
		return "(" + symbol(e.Name) + " " + strings.Join(args, " ") + ")", nil

	case *ast.Quantifier:
		return t.quantifier(e, scope)

	case *ast.Conditional:
		cond, err := t.term(e.Cond, scope)
		if err != nil {
			return "", err
		}
		then, err := t.term(e.Then, scope)
		if err != nil {
			return "", err
		}
		els, err := t.term(e.Else, scope)
		if err != nil {
			return "", err
		}
		return "(ite " + cond + " " + then + " " + els + ")", nil

	case *ast.Let:
		val, err := t.term(e.Value, scope)
		if err != nil {
			return "", err
		}
		body, err := t.term(e.Body, scope.bind(e.Name, ""))
		if err != nil {
			return "", err
		}
		return "(let ((" + symbol(e.Name) + " " + val + ")) " + body + ")", nil

	case *ast.Placeholder:
		return "", &TranslationError{Detail: "expression contains an unfilled placeholder"}
	}
	return "", &TranslationError{Detail: fmt.Sprintf("unsupported node %T", expr)}
}

func (t *translator) quantifier(q *ast.Quantifier, scope env) (string, error) {
	inner := scope
	bindings := make([]string, len(q.Bound))
	for i, b := range q.Bound {
		sort := t.sortOf(b.Type)
		inner = inner.bind(b.Name, sort)
		bindings[i] = "(" + symbol(b.Name) + " " + sort + ")"
	}

	body, err := t.term(q.Body, inner)
	if err != nil {
		return "", err
	}
	if q.Where != nil {
		where, err := t.term(q.Where, inner)
		if err != nil {
			return "", err
		}
		// A side condition guards a universal and constrains an existential.
		if q.Kind == ast.ForAll {
			body = "(=> " + where + " " + body + ")"
		} else {
			body = "(and " + where + " " + body + ")"
		}
	}

	head := "forall"
	if q.Kind == ast.Exists {
		head = "exists"
	}
	return "(" + head + " (" + strings.Join(bindings, " ") + ") " + body + ")", nil
}

// declarations renders everything the collected terms need, sorts first.
func (t *translator) declarations() []string {
	var out []string
	for _, s := range t.sorts {
		out = append(out, "(declare-sort "+s+" 0)")
	}
	for _, f := range t.funs {
		out = append(out, "(declare-fun "+f.Name+" ("+strings.Join(f.Params, " ")+") "+f.Result+")")
	}
	for _, c := range t.consts {
		out = append(out, "(declare-const "+c.Name+" "+c.Sort+")")
	}
	return out
}

func constTerm(v string) string {
	if v == "true" || v == "false" {
		return v
	}
	// Negative literals need prefix form.
	if strings.HasPrefix(v, "-") {
		return "(- " + strings.TrimPrefix(v, "-") + ")"
	}
	return v
}

var simpleSymbol = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// symbol renders a name as an SMT-LIB2 symbol, quoting anything outside
// the simple-symbol grammar (unicode identifiers like α or ℝ).
func symbol(name string) string {
	if simpleSymbol.MatchString(name) {
		return name
	}
	return "|" + name + "|"
}
