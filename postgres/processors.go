package postgres

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cast"

	"github.com/asaidimu/go-chuja/core/filter"
	"github.com/asaidimu/go-chuja/core/reldate"
	"github.com/asaidimu/go-chuja/core/schema"
)

// ValueProcessor normalizes and escapes a raw filter value for a given
// operator and column. Processors own escaping entirely: the ProcessedValue
// they return is ready to be spliced into predicate text as-is.
type ValueProcessor interface {
	Process(value filter.FilterValue, operator filter.Operator, column *schema.ColumnMetadata) (*filter.ProcessedValue, error)
}

// newProcessors builds the processor dispatch table for one builder. The text
// processor doubles as the fallback for unclassified columns.
func newProcessors(resolver *reldate.Resolver) map[schema.TypeClass]ValueProcessor {
	return map[schema.TypeClass]ValueProcessor{
		schema.TypeClassDate:    &dateProcessor{resolver: resolver},
		schema.TypeClassNumeric: &numericProcessor{},
		schema.TypeClassText:    &textProcessor{},
		schema.TypeClassBoolean: &booleanProcessor{},
		schema.TypeClassJSON:    &jsonProcessor{},
	}
}

// dateLayouts are the accepted absolute date/timestamp input formats.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
}

// dateProcessor handles date and timestamp columns: relative-date tokens,
// range arrays, and the widening of a bare date equality into a day-spanning
// range.
type dateProcessor struct {
	resolver *reldate.Resolver
}

func (p *dateProcessor) Process(value filter.FilterValue, operator filter.Operator, column *schema.ColumnMetadata) (*filter.ProcessedValue, error) {
	if opt, ok := reldate.ParseToken(value); ok {
		rng := p.resolver.Resolve(opt)
		return dateRangeValue(value, rng.Start, rng.End), nil
	}

	if operator == filter.OperatorBetween || operator == filter.OperatorNotBetween || operator == filter.OperatorDuring {
		if items, ok := filter.ToSlice(value); ok && len(items) == 2 {
			start, err := p.parseDate(items[0])
			if err != nil {
				return nil, &filter.InvalidValueError{Column: column.Name, Value: items[0], Reason: "not a recognized date"}
			}
			end, err := p.parseDate(items[1])
			if err != nil {
				return nil, &filter.InvalidValueError{Column: column.Name, Value: items[1], Reason: "not a recognized date"}
			}
			if start.After(end) {
				// Ranges must run start <= end; a reversed BETWEEN silently
				// matches nothing.
				start, end = end, start
			}
			return dateRangeValue(value, start, end), nil
		}
	}

	if operator == filter.OperatorEq {
		if s, ok := value.(string); ok && isDateLike(s) {
			if day, err := p.parseDate(s); err == nil {
				// A bare date compared with eq means "any time that day":
				// widen to a day-bounded range, end inclusive at 23:59:59.999.
				start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
				end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
				return dateRangeValue(value, start, end), nil
			}
		}
	}

	return &filter.ProcessedValue{
		Escaped:  p.escapeDate(value),
		Original: value,
	}, nil
}

func (p *dateProcessor) location() *time.Location {
	if p.resolver != nil && p.resolver.Location != nil {
		return p.resolver.Location
	}
	return time.UTC
}

func (p *dateProcessor) parseDate(value any) (time.Time, error) {
	if t, ok := value.(time.Time); ok {
		return t.In(p.location()), nil
	}
	s := strings.TrimSpace(cast.ToString(value))
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, p.location()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func (p *dateProcessor) escapeDate(value any) string {
	if t, ok := value.(time.Time); ok {
		return escapeString(t.In(p.location()).Format(timestampLayout))
	}
	return escapeString(cast.ToString(value))
}

// isDateLike reports whether a string plausibly names a date: it must contain
// a date separator, and bare 1-4 digit numerals are rejected so that IDs and
// years are not mistaken for dates.
func isDateLike(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) >= 1 && len(s) <= 4 {
		allDigits := true
		for _, r := range s {
			if r < '0' || r > '9' {
				allDigits = false
				break
			}
		}
		if allDigits {
			return false
		}
	}
	return strings.ContainsAny(s, "-/")
}

func dateRangeValue(original filter.FilterValue, start, end time.Time) *filter.ProcessedValue {
	startLit := escapeString(start.Format(timestampLayout))
	endLit := escapeString(end.Format(timestampLayout))
	return &filter.ProcessedValue{
		Escaped:  startLit,
		IsRange:  true,
		Start:    startLit,
		End:      endLit,
		Original: original,
	}
}

// numericProcessor coerces values for numeric columns, failing on non-numeric
// input.
type numericProcessor struct{}

func (p *numericProcessor) Process(value filter.FilterValue, operator filter.Operator, column *schema.ColumnMetadata) (*filter.ProcessedValue, error) {
	switch operator {
	case filter.OperatorIn, filter.OperatorNotIn:
		if items, ok := filter.ToSlice(value); ok {
			numerals := make([]string, len(items))
			for i, item := range items {
				f, err := cast.ToFloat64E(item)
				if err != nil {
					return nil, &filter.InvalidValueError{Column: column.Name, Value: item, Reason: "not a number"}
				}
				numerals[i] = formatNumber(f)
			}
			return &filter.ProcessedValue{
				Escaped:  strings.Join(numerals, ", "),
				Original: value,
			}, nil
		}

	case filter.OperatorBetween, filter.OperatorNotBetween:
		if items, ok := filter.ToSlice(value); ok && len(items) == 2 {
			start, err := cast.ToFloat64E(items[0])
			if err != nil {
				return nil, &filter.InvalidValueError{Column: column.Name, Value: items[0], Reason: "not a number"}
			}
			end, err := cast.ToFloat64E(items[1])
			if err != nil {
				return nil, &filter.InvalidValueError{Column: column.Name, Value: items[1], Reason: "not a number"}
			}
			if start > end {
				start, end = end, start
			}
			startLit := formatNumber(start)
			return &filter.ProcessedValue{
				Escaped:  startLit,
				IsRange:  true,
				Start:    startLit,
				End:      formatNumber(end),
				Original: value,
			}, nil
		}
	}

	f, err := cast.ToFloat64E(value)
	if err != nil {
		return nil, &filter.InvalidValueError{Column: column.Name, Value: value, Reason: "not a number"}
	}
	return &filter.ProcessedValue{
		Escaped:  formatNumber(f),
		Original: value,
	}, nil
}

// textProcessor escapes values for character columns and places ILIKE
// wildcards according to the operator; wildcard placement belongs here, not in
// the operator registry.
type textProcessor struct{}

func (p *textProcessor) Process(value filter.FilterValue, operator filter.Operator, column *schema.ColumnMetadata) (*filter.ProcessedValue, error) {
	switch operator {
	case filter.OperatorContains:
		doubled := strings.ReplaceAll(cast.ToString(value), "'", "''")
		return &filter.ProcessedValue{Escaped: "'%" + doubled + "%'", Original: value}, nil
	case filter.OperatorStartsWith:
		doubled := strings.ReplaceAll(cast.ToString(value), "'", "''")
		return &filter.ProcessedValue{Escaped: "'" + doubled + "%'", Original: value}, nil
	case filter.OperatorEndsWith:
		doubled := strings.ReplaceAll(cast.ToString(value), "'", "''")
		return &filter.ProcessedValue{Escaped: "'%" + doubled + "'", Original: value}, nil
	case filter.OperatorIn, filter.OperatorNotIn:
		if items, ok := filter.ToSlice(value); ok {
			quoted := make([]string, len(items))
			for i, item := range items {
				quoted[i] = escapeString(cast.ToString(item))
			}
			return &filter.ProcessedValue{
				Escaped:  strings.Join(quoted, ", "),
				Original: value,
			}, nil
		}
	}

	return &filter.ProcessedValue{
		Escaped:  escapeString(cast.ToString(value)),
		Original: value,
	}, nil
}

// booleanProcessor normalizes booleans, "true"/"false" strings and other
// truthy or falsy input into the literals TRUE and FALSE.
type booleanProcessor struct{}

func (p *booleanProcessor) Process(value filter.FilterValue, operator filter.Operator, column *schema.ColumnMetadata) (*filter.ProcessedValue, error) {
	b, err := cast.ToBoolE(value)
	if err != nil {
		b = isTruthy(value)
	}
	escaped := "FALSE"
	if b {
		escaped = "TRUE"
	}
	return &filter.ProcessedValue{Escaped: escaped, Original: value}, nil
}

func isTruthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return v != ""
	default:
		if f, err := cast.ToFloat64E(value); err == nil {
			return f != 0
		}
		return true
	}
}

// jsonProcessor applies operator-specific encodings for json/jsonb columns.
type jsonProcessor struct{}

func (p *jsonProcessor) Process(value filter.FilterValue, operator filter.Operator, column *schema.ColumnMetadata) (*filter.ProcessedValue, error) {
	switch operator {
	case filter.OperatorHasKey:
		// The value is a raw key name.
		return &filter.ProcessedValue{Escaped: escapeString(cast.ToString(value)), Original: value}, nil

	case filter.OperatorKeyEquals:
		s := cast.ToString(value)
		key, raw, found := strings.Cut(s, ":")
		if !found || key == "" {
			return nil, &filter.InvalidValueError{Column: column.Name, Value: value, Reason: `expected "key:value"`}
		}
		payload, err := json.Marshal(map[string]any{key: coerceJSONScalar(raw)})
		if err != nil {
			return nil, &filter.InvalidValueError{Column: column.Name, Value: value, Reason: "not serializable"}
		}
		return &filter.ProcessedValue{Escaped: escapeString(string(payload)), Original: value}, nil

	case filter.OperatorPathExists:
		path := strings.TrimSpace(cast.ToString(value))
		path = strings.TrimPrefix(path, "$.")
		path = strings.TrimPrefix(path, "$")
		parts := strings.Split(path, ".")
		return &filter.ProcessedValue{
			Escaped:  escapeString("{" + strings.Join(parts, ",") + "}"),
			Original: value,
		}, nil

	case filter.OperatorContainsText:
		doubled := strings.ReplaceAll(cast.ToString(value), "'", "''")
		return &filter.ProcessedValue{Escaped: "'%" + doubled + "%'", Original: value}, nil
	}

	switch reflect.ValueOf(value).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		payload, err := json.Marshal(value)
		if err != nil {
			return nil, &filter.InvalidValueError{Column: column.Name, Value: value, Reason: "not serializable"}
		}
		return &filter.ProcessedValue{Escaped: escapeString(string(payload)), Original: value}, nil
	}

	return &filter.ProcessedValue{Escaped: escapeString(cast.ToString(value)), Original: value}, nil
}

// coerceJSONScalar interprets the value side of a "key:value" pair as a
// boolean, number, null or string.
func coerceJSONScalar(raw string) any {
	trimmed := strings.TrimSpace(raw)
	switch strings.ToLower(trimmed) {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	if f, err := cast.ToFloat64E(trimmed); err == nil && trimmed != "" {
		return f
	}
	return trimmed
}
