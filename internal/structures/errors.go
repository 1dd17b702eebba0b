package structures

import "fmt"

// StructureError reports a registration problem: a duplicate structure, an
// unknown parent in an extends clause, or an implementation that does not
// match its structure's declaration. Registration is fail-fast; a definition
// that produces a StructureError is not recorded.
type StructureError struct {
	Structure string
	Detail    string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("structure %s: %s", e.Structure, e.Detail)
}

func structureErrorf(structure, format string, args ...any) *StructureError {
	return &StructureError{Structure: structure, Detail: fmt.Sprintf(format, args...)}
}
