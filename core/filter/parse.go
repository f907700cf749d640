package filter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/asaidimu/go-chuja/core/schema"
)

// reservedPropertyKeys are property names that never describe a filter and are
// skipped by the parser.
var reservedPropertyKeys = map[string]struct{}{
	"columns": {},
}

// operatorAliases maps the human-readable operator spellings accepted at the
// properties boundary (typically a query string) to canonical operators.
// Lookup is case-insensitive. Unrecognized aliases degrade to eq.
var operatorAliases = map[string]Operator{
	"eq":                 OperatorEq,
	"equals":             OperatorEq,
	"is":                 OperatorEq,
	"neq":                OperatorNeq,
	"ne":                 OperatorNeq,
	"notequals":          OperatorNeq,
	"gt":                 OperatorGt,
	"greaterthan":        OperatorGt,
	"gte":                OperatorGte,
	"greaterthanorequal": OperatorGte,
	"lt":                 OperatorLt,
	"lessthan":           OperatorLt,
	"lte":                OperatorLte,
	"lessthanorequal":    OperatorLte,
	"between":            OperatorBetween,
	"notbetween":         OperatorNotBetween,
	"contains":           OperatorContains,
	"like":               OperatorContains,
	"startswith":         OperatorStartsWith,
	"endswith":           OperatorEndsWith,
	"in":                 OperatorIn,
	"notin":              OperatorNotIn,
	"nin":                OperatorNotIn,
	"isnull":             OperatorIsNull,
	"null":               OperatorIsNull,
	"notnull":            OperatorNotNull,
	"isnotnull":          OperatorNotNull,
	"before":             OperatorBefore,
	"beforeoron":         OperatorBeforeOrOn,
	"after":              OperatorAfter,
	"afteroron":          OperatorAfterOrOn,
	"during":             OperatorDuring,
	"haskey":             OperatorHasKey,
	"keyequals":          OperatorKeyEquals,
	"pathexists":         OperatorPathExists,
	"containstext":       OperatorContainsText,
}

// NormalizeOperatorAlias resolves an operator alias case-insensitively,
// falling back to eq for unrecognized spellings.
func NormalizeOperatorAlias(alias string) Operator {
	if op, ok := operatorAliases[strings.ToLower(strings.TrimSpace(alias))]; ok {
		return op
	}
	return OperatorEq
}

// ParseProperties turns a flat properties map whose keys have the shape
// "<column>.<operatorAlias>" (or a bare "<column>", implying eq) into a list
// of structured filter conditions ready for the filter builder.
//
// Nil values and reserved keys are skipped, as are keys with an empty column
// segment. A key naming a column absent from the metadata set is an error,
// wrapped with the offending key.
func ParseProperties(properties map[string]any, columns schema.ColumnSet) ([]FilterCondition, error) {
	conditions := make([]FilterCondition, 0, len(properties))

	// Map iteration order is not stable; sort keys so the same input always
	// compiles to the same predicate text.
	keys := make([]string, 0, len(properties))
	for key := range properties {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := properties[key]
		if value == nil {
			continue
		}
		if _, reserved := reservedPropertyKeys[key]; reserved {
			continue
		}

		columnName, alias, _ := strings.Cut(key, ".")
		if columnName == "" {
			continue
		}
		if columns.Find(columnName) == nil {
			return nil, fmt.Errorf("invalid filter key %q: %w", key, &ColumnNotFoundError{Column: columnName})
		}

		operator := OperatorEq
		if alias != "" {
			operator = NormalizeOperatorAlias(alias)
		}

		conditions = append(conditions, FilterCondition{
			Column:   columnName,
			Operator: operator,
			Value:    coercePropertyValue(operator, value),
		})
	}

	return conditions, nil
}

// coercePropertyValue applies operator-specific coercion to a raw property
// value before it enters the compilation pipeline.
func coercePropertyValue(operator Operator, value any) FilterValue {
	switch operator {
	case OperatorIsNull, OperatorNotNull:
		// Only the exact string "true" (case-insensitive) becomes boolean
		// true. Everything else, including "false", passes through unchanged.
		if s, ok := value.(string); ok && strings.EqualFold(s, "true") {
			return true
		}
		return value

	case OperatorIn, OperatorNotIn:
		if items, ok := coerceListValue(value); ok {
			return items
		}
		return []any{value}

	case OperatorBetween, OperatorNotBetween:
		if items, ok := coerceListValue(value); ok {
			return items
		}
		// Single scalars are left as-is; range validation happens downstream.
		return value
	}

	return value
}

// coerceListValue turns list-shaped input into []any: slices pass through,
// JSON-array-looking strings are parsed, and comma-separated strings are
// split and trimmed.
func coerceListValue(value any) ([]any, bool) {
	if items, ok := ToSlice(value); ok {
		return items, true
	}

	s, ok := value.(string)
	if !ok {
		return nil, false
	}

	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "[") {
		var items []any
		if err := json.Unmarshal([]byte(trimmed), &items); err == nil {
			return items, true
		}
	}
	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		items := make([]any, len(parts))
		for i, part := range parts {
			items[i] = strings.TrimSpace(part)
		}
		return items, true
	}

	return nil, false
}
