// Package schema defines the column metadata contract consumed by the filter
// compiler. Column metadata is supplied by the caller per compilation context;
// this package only describes its shape and normalizes raw database type names
// into the small set of type classes the compiler dispatches on.
package schema

import "strings"

// LogicalOperator for combining predicate fragments.
type LogicalOperator string

const (
	LogicalAnd LogicalOperator = "AND" // All conditions must be true
	LogicalOr  LogicalOperator = "OR"  // At least one condition must be true
)

// TypeClass is an explicit, enumerated classification of a column's data type.
// It is assigned exactly once, when metadata is loaded, so that the rest of the
// compiler never has to inspect raw type strings. This avoids silent
// misclassification between similarly named type names (e.g. "character" vs
// "character varying").
type TypeClass string

const (
	TypeClassDate    TypeClass = "date"    // Dates, timestamps, times
	TypeClassNumeric TypeClass = "numeric" // Integers, decimals, floats
	TypeClassText    TypeClass = "text"    // Character data; also the fallback class
	TypeClassBoolean TypeClass = "boolean" // True/false values
	TypeClassJSON    TypeClass = "json"    // json and jsonb columns
)

// typeClassByName maps normalized database type names to their type class.
// Names are matched exactly after lowercasing and stripping any parenthesized
// modifier such as "(255)" or "(10,2)".
var typeClassByName = map[string]TypeClass{
	"date":                        TypeClassDate,
	"time":                        TypeClassDate,
	"datetime":                    TypeClassDate,
	"timestamp":                   TypeClassDate,
	"timestamptz":                 TypeClassDate,
	"timestamp without time zone": TypeClassDate,
	"timestamp with time zone":    TypeClassDate,
	"time without time zone":      TypeClassDate,
	"time with time zone":         TypeClassDate,

	"int":              TypeClassNumeric,
	"int2":             TypeClassNumeric,
	"int4":             TypeClassNumeric,
	"int8":             TypeClassNumeric,
	"integer":          TypeClassNumeric,
	"smallint":         TypeClassNumeric,
	"bigint":           TypeClassNumeric,
	"serial":           TypeClassNumeric,
	"bigserial":        TypeClassNumeric,
	"numeric":          TypeClassNumeric,
	"decimal":          TypeClassNumeric,
	"real":             TypeClassNumeric,
	"float4":           TypeClassNumeric,
	"float8":           TypeClassNumeric,
	"double precision": TypeClassNumeric,
	"money":            TypeClassNumeric,

	"bool":    TypeClassBoolean,
	"boolean": TypeClassBoolean,

	"json":  TypeClassJSON,
	"jsonb": TypeClassJSON,

	"text":              TypeClassText,
	"char":              TypeClassText,
	"character":         TypeClassText,
	"varchar":           TypeClassText,
	"character varying": TypeClassText,
	"citext":            TypeClassText,
	"uuid":              TypeClassText,
}

// ClassifyDataType resolves a raw database type name into a TypeClass.
// Unrecognized types classify as text, which keeps unknown columns filterable
// with the most conservative escaping rules.
func ClassifyDataType(dataType string) TypeClass {
	name := strings.ToLower(strings.TrimSpace(dataType))
	if idx := strings.IndexByte(name, '('); idx >= 0 {
		name = strings.TrimSpace(name[:idx])
	}
	if tc, ok := typeClassByName[name]; ok {
		return tc
	}
	return TypeClassText
}

// ColumnMetadata describes a single filterable column. Instances are immutable
// once loaded into a compilation context.
type ColumnMetadata struct {
	Name         string    `json:"name"`
	DataType     string    `json:"dataType"`
	TypeClass    TypeClass `json:"typeClass,omitempty"`
	IsNullable   bool      `json:"isNullable"`
	IsFilterable bool      `json:"isFilterable"`
}

// ColumnSet is the set of columns available to one compilation context.
type ColumnSet []ColumnMetadata

// NewColumnSet copies the given columns and assigns each one its TypeClass,
// derived from DataType, unless the caller already set one.
func NewColumnSet(columns []ColumnMetadata) ColumnSet {
	set := make(ColumnSet, len(columns))
	copy(set, columns)
	for i := range set {
		if set[i].TypeClass == "" {
			set[i].TypeClass = ClassifyDataType(set[i].DataType)
		}
	}
	return set
}

// Find returns the metadata for the named column, or nil if the column is not
// part of this set.
func (s ColumnSet) Find(name string) *ColumnMetadata {
	for i := range s {
		if s[i].Name == name {
			return &s[i]
		}
	}
	return nil
}
