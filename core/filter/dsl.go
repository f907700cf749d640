// Package filter defines the declarative filter DSL shared by every consumer
// of the predicate compiler: structured filter conditions, the canonical
// operator vocabulary, processed values, and the properties-map boundary
// adapter. Dialect-specific rendering lives in the postgres package.
package filter

import (
	"github.com/asaidimu/go-chuja/core/schema"
)

// Logical connectors for combining filter conditions.
const (
	LogicalOperatorAnd schema.LogicalOperator = schema.LogicalAnd
	LogicalOperatorOr  schema.LogicalOperator = schema.LogicalOr
)

// Operator identifies a canonical comparison, membership, pattern, null or
// JSON test. Unrecognized operators degrade to OperatorEq wherever they are
// looked up; see the postgres package for the rendering table.
type Operator string

// Canonical operators.
const (
	OperatorEq  Operator = "eq"
	OperatorNeq Operator = "neq"
	OperatorGt  Operator = "gt"
	OperatorGte Operator = "gte"
	OperatorLt  Operator = "lt"
	OperatorLte Operator = "lte"

	OperatorBetween    Operator = "between"
	OperatorNotBetween Operator = "notBetween"

	OperatorContains   Operator = "contains"
	OperatorStartsWith Operator = "startsWith"
	OperatorEndsWith   Operator = "endsWith"

	OperatorIn    Operator = "in"
	OperatorNotIn Operator = "notIn"

	OperatorIsNull  Operator = "isNull"
	OperatorNotNull Operator = "notNull"

	OperatorBefore     Operator = "before"
	OperatorBeforeOrOn Operator = "beforeOrOn"
	OperatorAfter      Operator = "after"
	OperatorAfterOrOn  Operator = "afterOrOn"
	OperatorDuring     Operator = "during"

	OperatorHasKey       Operator = "hasKey"
	OperatorKeyEquals    Operator = "keyEquals"
	OperatorPathExists   Operator = "pathExists"
	OperatorContainsText Operator = "containsText"
)

// FilterValue represents the raw, user-supplied value of a filter condition.
// It can be of any type; the value processors are responsible for normalizing
// and escaping it.
type FilterValue any

// FilterCondition defines a single condition for filtering query results.
// LogicalOperator names the connector placed after this condition when several
// conditions are joined; it is ignored on the last condition in a list and
// defaults to AND when empty.
type FilterCondition struct {
	Column          string                 `json:"column"`
	Operator        Operator               `json:"operator"`
	Value           FilterValue            `json:"value"`
	LogicalOperator schema.LogicalOperator `json:"logicalOperator,omitempty"`
}

// ProcessedValue is the output of a value processor: the fully escaped SQL
// literal text for a condition's value, plus range bounds when the value was
// widened or parsed into an interval. When IsRange is true both Start and End
// are present, already escaped, and Start precedes or equals End. Original
// always retains the raw input so operators that need per-element handling
// (IN, NOT IN) can re-derive their own escaping.
type ProcessedValue struct {
	Escaped  string
	IsRange  bool
	Start    string
	End      string
	Original FilterValue
}

// ServiceType tags which query service a compilation context serves. The two
// consumers share identical compilation behavior; the tag exists for logging
// and for custom handlers that want to branch per caller.
type ServiceType string

const (
	ServiceTable     ServiceType = "table"
	ServiceDashboard ServiceType = "dashboard"
)

// EscapeStrategy selects the downstream consumption mode of the compiled
// text. It is threaded through the compilation context but no code path
// branches on it today; it is carried as a forward-compatibility tag.
type EscapeStrategy string

const (
	EscapeRawSQL  EscapeStrategy = "raw-sql"
	EscapeDrizzle EscapeStrategy = "drizzle"
)

// ValidationError represents a single problem found while validating a filter
// condition.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns the error message for a ValidationError.
func (ve ValidationError) Error() string {
	return "validation error in " + ve.Field + ": " + ve.Message
}

// ValidationResult contains the accumulated results of validating a condition.
// Validation never raises; callers inspect IsValid and Errors.
type ValidationResult struct {
	IsValid bool
	Errors  []ValidationError
}
