package postgres

import (
	"fmt"
	"strings"

	"github.com/asaidimu/go-chuja/core/filter"
	"github.com/asaidimu/go-chuja/core/schema"
)

// GenerateSQLFunc renders one predicate fragment from a quoted column
// accessor and an already-processed value. Implementations never re-escape
// either argument.
type GenerateSQLFunc func(column string, value *filter.ProcessedValue, ctx *FilterContext) string

// OperatorDefinition declares one canonical operator: its key, the type
// classes it applies to, and its rendering function.
type OperatorDefinition struct {
	Key         filter.Operator
	TypeClasses []schema.TypeClass
	GenerateSQL GenerateSQLFunc
}

// SupportsClass reports whether the operator applies to the given type class.
func (d *OperatorDefinition) SupportsClass(tc schema.TypeClass) bool {
	for _, c := range d.TypeClasses {
		if c == tc {
			return true
		}
	}
	return false
}

var (
	allClasses = []schema.TypeClass{
		schema.TypeClassDate,
		schema.TypeClassNumeric,
		schema.TypeClassText,
		schema.TypeClassBoolean,
		schema.TypeClassJSON,
	}
	dateNumericClasses = []schema.TypeClass{schema.TypeClassDate, schema.TypeClassNumeric}
	dateClasses        = []schema.TypeClass{schema.TypeClassDate}
	textClasses        = []schema.TypeClass{schema.TypeClassText}
	jsonClasses        = []schema.TypeClass{schema.TypeClassJSON}
)

// operatorTable is the static registry of operator definitions. The eq entry
// must stay first: lookup of an unregistered key deliberately falls back to
// it.
var operatorTable = []OperatorDefinition{
	{Key: filter.OperatorEq, TypeClasses: allClasses, GenerateSQL: equalitySQL(false)},
	{Key: filter.OperatorNeq, TypeClasses: allClasses, GenerateSQL: equalitySQL(true)},
	{Key: filter.OperatorGt, TypeClasses: dateNumericClasses, GenerateSQL: comparisonSQL(">")},
	{Key: filter.OperatorGte, TypeClasses: dateNumericClasses, GenerateSQL: comparisonSQL(">=")},
	{Key: filter.OperatorLt, TypeClasses: dateNumericClasses, GenerateSQL: comparisonSQL("<")},
	{Key: filter.OperatorLte, TypeClasses: dateNumericClasses, GenerateSQL: comparisonSQL("<=")},

	{Key: filter.OperatorBetween, TypeClasses: dateNumericClasses, GenerateSQL: rangeSQL(false)},
	{Key: filter.OperatorNotBetween, TypeClasses: dateNumericClasses, GenerateSQL: rangeSQL(true)},

	{Key: filter.OperatorContains, TypeClasses: textClasses, GenerateSQL: ilikeSQL},
	{Key: filter.OperatorStartsWith, TypeClasses: textClasses, GenerateSQL: ilikeSQL},
	{Key: filter.OperatorEndsWith, TypeClasses: textClasses, GenerateSQL: ilikeSQL},

	{Key: filter.OperatorIn, TypeClasses: allClasses, GenerateSQL: listSQL(false)},
	{Key: filter.OperatorNotIn, TypeClasses: allClasses, GenerateSQL: listSQL(true)},

	{Key: filter.OperatorIsNull, TypeClasses: allClasses, GenerateSQL: nullSQL("IS NULL")},
	{Key: filter.OperatorNotNull, TypeClasses: allClasses, GenerateSQL: nullSQL("IS NOT NULL")},

	{Key: filter.OperatorBefore, TypeClasses: dateClasses, GenerateSQL: comparisonSQL("<")},
	{Key: filter.OperatorBeforeOrOn, TypeClasses: dateClasses, GenerateSQL: comparisonSQL("<=")},
	{Key: filter.OperatorAfter, TypeClasses: dateClasses, GenerateSQL: comparisonSQL(">")},
	{Key: filter.OperatorAfterOrOn, TypeClasses: dateClasses, GenerateSQL: comparisonSQL(">=")},
	{Key: filter.OperatorDuring, TypeClasses: dateClasses, GenerateSQL: rangeSQL(false)},

	{Key: filter.OperatorHasKey, TypeClasses: jsonClasses, GenerateSQL: jsonHasKeySQL},
	{Key: filter.OperatorKeyEquals, TypeClasses: jsonClasses, GenerateSQL: jsonContainsSQL},
	{Key: filter.OperatorPathExists, TypeClasses: jsonClasses, GenerateSQL: jsonPathExistsSQL},
	{Key: filter.OperatorContainsText, TypeClasses: jsonClasses, GenerateSQL: jsonTextSQL},
}

// LookupOperator finds the definition for a canonical operator key. Lookup
// never fails: unregistered keys return the eq definition.
func LookupOperator(key filter.Operator) *OperatorDefinition {
	for i := range operatorTable {
		if operatorTable[i].Key == key {
			return &operatorTable[i]
		}
	}
	return &operatorTable[0]
}

// IsRegisteredOperator reports whether the key names a registered operator,
// without the eq fallback.
func IsRegisteredOperator(key filter.Operator) bool {
	for i := range operatorTable {
		if operatorTable[i].Key == key {
			return true
		}
	}
	return false
}

// equalitySQL renders =/!= fragments, switching to BETWEEN/NOT BETWEEN when
// the processed value carries a range. This is where date-equality widening
// surfaces at the SQL layer.
func equalitySQL(negate bool) GenerateSQLFunc {
	return func(column string, value *filter.ProcessedValue, _ *FilterContext) string {
		if value.IsRange {
			if negate {
				return fmt.Sprintf("%s NOT BETWEEN %s AND %s", column, value.Start, value.End)
			}
			return fmt.Sprintf("%s BETWEEN %s AND %s", column, value.Start, value.End)
		}
		if negate {
			return fmt.Sprintf("%s != %s", column, value.Escaped)
		}
		return fmt.Sprintf("%s = %s", column, value.Escaped)
	}
}

func comparisonSQL(op string) GenerateSQLFunc {
	return func(column string, value *filter.ProcessedValue, _ *FilterContext) string {
		return fmt.Sprintf("%s %s %s", column, op, value.Escaped)
	}
}

// rangeSQL renders BETWEEN fragments. A non-range value falls back to an
// equality fragment.
func rangeSQL(negate bool) GenerateSQLFunc {
	return func(column string, value *filter.ProcessedValue, ctx *FilterContext) string {
		if !value.IsRange {
			return equalitySQL(negate)(column, value, ctx)
		}
		if negate {
			return fmt.Sprintf("%s NOT BETWEEN %s AND %s", column, value.Start, value.End)
		}
		return fmt.Sprintf("%s BETWEEN %s AND %s", column, value.Start, value.End)
	}
}

// ilikeSQL renders case-insensitive pattern matches. Wildcard placement is
// already baked into the processed value.
func ilikeSQL(column string, value *filter.ProcessedValue, _ *FilterContext) string {
	return fmt.Sprintf("%s ILIKE %s", column, value.Escaped)
}

// listSQL renders IN/NOT IN membership tests. The parenthesized list is
// re-derived from the original, unprocessed value so every element is escaped
// individually rather than trusting a pre-joined string.
func listSQL(negate bool) GenerateSQLFunc {
	return func(column string, value *filter.ProcessedValue, _ *FilterContext) string {
		items, ok := filter.ToSlice(value.Original)
		if !ok {
			items = []any{value.Original}
		}
		if len(items) == 0 {
			// IN over an empty list is always false, NOT IN always true.
			if negate {
				return "1=1"
			}
			return "1=0"
		}
		escaped := make([]string, len(items))
		for i, item := range items {
			escaped[i] = escapeLiteral(item)
		}
		op := "IN"
		if negate {
			op = "NOT IN"
		}
		return fmt.Sprintf("%s %s (%s)", column, op, strings.Join(escaped, ", "))
	}
}

// nullSQL renders null checks, ignoring the value entirely.
func nullSQL(clause string) GenerateSQLFunc {
	return func(column string, _ *filter.ProcessedValue, _ *FilterContext) string {
		return fmt.Sprintf("%s %s", column, clause)
	}
}

func jsonHasKeySQL(column string, value *filter.ProcessedValue, _ *FilterContext) string {
	return fmt.Sprintf("%s ? %s", column, value.Escaped)
}

func jsonContainsSQL(column string, value *filter.ProcessedValue, _ *FilterContext) string {
	return fmt.Sprintf("%s @> %s::jsonb", column, value.Escaped)
}

func jsonPathExistsSQL(column string, value *filter.ProcessedValue, _ *FilterContext) string {
	return fmt.Sprintf("%s #> %s IS NOT NULL", column, value.Escaped)
}

func jsonTextSQL(column string, value *filter.ProcessedValue, _ *FilterContext) string {
	return fmt.Sprintf("%s::text ILIKE %s", column, value.Escaped)
}
