// Package postgres renders filter conditions as PostgreSQL predicate text.
// It implements the operator registry, the per-type-class value processors,
// and the filter builder that orchestrates them. Escaping is the exclusive
// responsibility of this package's value processors; operator rendering never
// re-escapes what a processor produced.
package postgres

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// timestampLayout is the normalized form used for every timestamp literal
// emitted by this package, millisecond precision.
const timestampLayout = "2006-01-02 15:04:05.000"

// quoteIdentifier properly quotes an identifier for PostgreSQL.
func quoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// escapeString produces a single-quoted SQL string literal, doubling every
// embedded quote so that no input can prematurely terminate the literal.
func escapeString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// formatNumber renders a float without a trailing ".0" for integral values.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// escapeLiteral escapes a single raw value according to its Go type. It is
// used where an operator must re-derive per-element escaping from an original
// array value, e.g. IN lists.
func escapeLiteral(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	case int:
		return strconv.FormatInt(int64(val), 10)
	case int8:
		return strconv.FormatInt(int64(val), 10)
	case int16:
		return strconv.FormatInt(int64(val), 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint8:
		return strconv.FormatUint(uint64(val), 10)
	case uint16:
		return strconv.FormatUint(uint64(val), 10)
	case uint32:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return formatNumber(float64(val))
	case float64:
		return formatNumber(val)
	case time.Time:
		return escapeString(val.Format(timestampLayout))
	case string:
		return escapeString(val)
	default:
		return escapeString(fmt.Sprintf("%v", val))
	}
}
