package verifier

import (
	"strings"
)

// Verdict is the outcome of an axiom verification.
type Verdict int

const (
	// Valid: the negated proposition is unsatisfiable.
	Valid Verdict = iota
	// Invalid: the negation is satisfiable; a counterexample is attached.
	Invalid
	// Unknown: the solver timed out or gave up. Never promoted to Valid
	// or Invalid.
	Unknown
)

func (v Verdict) String() string {
	switch v {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Result is a completed verification: the verdict, the counterexample
// bindings of an Invalid outcome, and the session id of the solver run
// that produced it.
type Result struct {
	Verdict        Verdict
	Counterexample map[string]string
	Reason         string
	Session        string
}

// VerificationError means the solver could not run at all: the binary is
// missing, the process died, the axiom set is inconsistent. Distinct from
// an Unknown verdict, where the solver ran and answered "don't know".
type VerificationError struct {
	Session string
	Detail  string
}

func (e *VerificationError) Error() string {
	return "verification failed (session " + e.Session + "): " + e.Detail
}

// satStatus is the raw solver answer to a check-sat command.
type satStatus int

const (
	statusUnsat satStatus = iota
	statusSat
	statusUnknown
)

// parseCheckSat reads the first status line of solver output. Anything
// the solver prints before the status (warnings, echoes) is skipped.
func parseCheckSat(out string) (satStatus, bool) {
	for _, line := range strings.Split(out, "\n") {
		switch strings.TrimSpace(line) {
		case "sat":
			return statusSat, true
		case "unsat":
			return statusUnsat, true
		case "unknown", "timeout":
			return statusUnknown, true
		}
	}
	return statusUnknown, false
}

// parseModel extracts variable assignments from a get-model response.
// The accepted shape is the define-fun form solvers print for constants:
//
//	(define-fun x () Real (- (/ 1.0 2.0)))
//
// Assignments for internal or skolem symbols (containing "!") are skipped.
func parseModel(out string) map[string]string {
	model := map[string]string{}
	for {
		i := strings.Index(out, "(define-fun ")
		if i < 0 {
			break
		}
		rest := out[i+len("(define-fun "):]
		form, consumed := balanced(rest)
		out = rest[consumed:]

		fields := strings.Fields(form)
		if len(fields) < 4 {
			continue
		}
		name := strings.Trim(fields[0], "|")
		if strings.Contains(name, "!") {
			continue
		}
		// Only zero-argument constants: "name () Sort value".
		if fields[1] != "()" {
			continue
		}
		model[name] = strings.TrimSpace(strings.Join(fields[3:], " "))
	}
	return model
}

// balanced returns the text of rest up to the paren closing the already
// open define-fun form, plus the number of bytes consumed.
func balanced(rest string) (string, int) {
	depth := 1
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return rest[:i], i + 1
			}
		}
	}
	return rest, len(rest)
}
