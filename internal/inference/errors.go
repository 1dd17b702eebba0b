package inference

import (
	"strings"

	"github.com/eatikrh/kleis-sub002/internal/typesystem"
)

// OperationResolutionError reports that no registered type supports an
// operation at the attempted argument types. When another registered
// operation's signature does accept those arguments, it is suggested by
// name: a misapplied abs(S) over a Set suggests card(S).
type OperationResolutionError struct {
	Op         string
	ArgTypes   []typesystem.Type
	Suggestion string
}

func (e *OperationResolutionError) Error() string {
	parts := make([]string, len(e.ArgTypes))
	for i, t := range e.ArgTypes {
		parts[i] = t.String()
	}
	msg := "no type supports " + e.Op + "(" + strings.Join(parts, ", ") + ")"
	if e.Suggestion != "" {
		msg += "; did you mean " + e.Suggestion + "?"
	}
	return msg
}
