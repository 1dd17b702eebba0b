package typesystem

import "fmt"

// UnificationError indicates two types could not be made equal. It carries
// both conflicting types so diagnostics can show the full mismatch, and is
// always scoped to the single expression being checked.
type UnificationError struct {
	Left   Type
	Right  Type
	Reason string
}

func (e *UnificationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot unify %s with %s: %s", e.Left, e.Right, e.Reason)
	}
	return fmt.Sprintf("cannot unify %s with %s", e.Left, e.Right)
}

// OccursError indicates a type variable occurs inside the type it would be
// bound to; binding it would build an infinite type.
type OccursError struct {
	Var int
	In  Type
}

func (e *OccursError) Error() string {
	return fmt.Sprintf("occurs check failed: α%d occurs in %s", e.Var, e.In)
}
