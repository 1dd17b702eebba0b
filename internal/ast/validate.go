package ast

import "fmt"

// MalformedError reports a structurally invalid expression tree supplied by
// the parsing collaborator. The core rejects such trees explicitly instead of
// assuming well-formedness.
type MalformedError struct {
	Node   string
	Detail string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed %s node: %s", e.Node, e.Detail)
}

// Validate checks that expr is a well-formed tree: no nil nodes, no nil
// operation arguments, quantifiers bind at least one variable and every bound
// variable carries a declared type.
func Validate(expr Expression) error {
	if expr == nil {
		return &MalformedError{Node: "expression", Detail: "nil expression"}
	}
	switch e := expr.(type) {
	case *Const:
		if e.Value == "" {
			return &MalformedError{Node: "constant", Detail: "empty literal"}
		}
	case *Object:
		if e.Name == "" {
			return &MalformedError{Node: "object", Detail: "empty name"}
		}
	case *Operation:
		if e.Name == "" {
			return &MalformedError{Node: "operation", Detail: "empty operation name"}
		}
		for i, arg := range e.Args {
			if arg == nil {
				return &MalformedError{Node: "operation", Detail: fmt.Sprintf("%s: argument %d is nil", e.Name, i+1)}
			}
			if err := Validate(arg); err != nil {
				return err
			}
		}
	case *Quantifier:
		if len(e.Bound) == 0 {
			return &MalformedError{Node: "quantifier", Detail: "binds no variables"}
		}
		for _, b := range e.Bound {
			if b.Name == "" {
				return &MalformedError{Node: "quantifier", Detail: "bound variable with empty name"}
			}
			if b.Type == nil {
				return &MalformedError{Node: "quantifier", Detail: "bound variable " + b.Name + " has no declared type"}
			}
		}
		if e.Body == nil {
			return &MalformedError{Node: "quantifier", Detail: "nil body"}
		}
		if e.Where != nil {
			if err := Validate(e.Where); err != nil {
				return err
			}
		}
		return Validate(e.Body)
	case *Conditional:
		if e.Cond == nil || e.Then == nil || e.Else == nil {
			return &MalformedError{Node: "conditional", Detail: "missing branch"}
		}
		if err := Validate(e.Cond); err != nil {
			return err
		}
		if err := Validate(e.Then); err != nil {
			return err
		}
		return Validate(e.Else)
	case *Let:
		if e.Name == "" {
			return &MalformedError{Node: "let", Detail: "empty binding name"}
		}
		if e.Value == nil || e.Body == nil {
			return &MalformedError{Node: "let", Detail: "missing value or body"}
		}
		if err := Validate(e.Value); err != nil {
			return err
		}
		return Validate(e.Body)
	case *Placeholder:
		// Hints may be empty; IDs carry no structural constraint here.
	default:
		return &MalformedError{Node: "expression", Detail: fmt.Sprintf("unknown node %T", expr)}
	}
	return nil
}
