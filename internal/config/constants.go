package config

// Canonical operation names as they appear in parsed expressions.
// The dispatcher never branches on these; they exist so the verifier's
// translation table and the stdlib structures agree on spelling.
const (
	OpPlus         = "plus"
	OpMinus        = "minus"
	OpTimes        = "times"
	OpDivide       = "divide"
	OpNegate       = "negate"
	OpAnd          = "and"
	OpOr           = "or"
	OpNot          = "not"
	OpImplies      = "implies"
	OpEquals       = "equals"
	OpNotEquals    = "not_equals"
	OpLessThan     = "less_than"
	OpGreaterThan  = "greater_than"
	OpLessEqual    = "less_equal"
	OpGreaterEqual = "greater_equal"
)

// Built-in type names recognized in type expressions.
const (
	TypeReal     = "ℝ"
	TypeInteger  = "ℤ"
	TypeNatural  = "ℕ"
	TypeRational = "ℚ"
	TypeComplex  = "ℂ"
	TypeBool     = "Bool"
	TypeString   = "String"
)

// AltTypeNames maps ASCII spellings accepted from source to the canonical
// unicode names above.
var AltTypeNames = map[string]string{
	"Real":     TypeReal,
	"Scalar":   TypeReal,
	"Int":      TypeInteger,
	"Integer":  TypeInteger,
	"Nat":      TypeNatural,
	"Rational": TypeRational,
	"Complex":  TypeComplex,
}
