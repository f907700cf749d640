package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/asaidimu/go-chuja/core/filter"
	"github.com/asaidimu/go-chuja/core/schema"
)

func TestLookupOperator_FallsBackToEq(t *testing.T) {
	def := LookupOperator(filter.Operator("definitely-not-registered"))
	assert.Equal(t, filter.OperatorEq, def.Key)

	def = LookupOperator(filter.OperatorNotBetween)
	assert.Equal(t, filter.OperatorNotBetween, def.Key)
}

func TestIsRegisteredOperator(t *testing.T) {
	assert.True(t, IsRegisteredOperator(filter.OperatorDuring))
	assert.False(t, IsRegisteredOperator(filter.Operator("typo")))
}

func TestOperatorDefinition_SupportsClass(t *testing.T) {
	gt := LookupOperator(filter.OperatorGt)
	assert.True(t, gt.SupportsClass(schema.TypeClassNumeric))
	assert.True(t, gt.SupportsClass(schema.TypeClassDate))
	assert.False(t, gt.SupportsClass(schema.TypeClassText))

	eq := LookupOperator(filter.OperatorEq)
	assert.True(t, eq.SupportsClass(schema.TypeClassJSON))
}

func TestEqualitySQL_RangeSwitchesToBetween(t *testing.T) {
	ranged := &filter.ProcessedValue{
		IsRange: true,
		Start:   "'2024-03-10 00:00:00.000'",
		End:     "'2024-03-10 23:59:59.999'",
	}

	eq := LookupOperator(filter.OperatorEq)
	assert.Equal(t,
		`"created_at" BETWEEN '2024-03-10 00:00:00.000' AND '2024-03-10 23:59:59.999'`,
		eq.GenerateSQL(`"created_at"`, ranged, nil))

	neq := LookupOperator(filter.OperatorNeq)
	assert.Equal(t,
		`"created_at" NOT BETWEEN '2024-03-10 00:00:00.000' AND '2024-03-10 23:59:59.999'`,
		neq.GenerateSQL(`"created_at"`, ranged, nil))
}

func TestRangeSQL_FallsBackToEqualityWithoutRange(t *testing.T) {
	scalar := &filter.ProcessedValue{Escaped: "10"}
	between := LookupOperator(filter.OperatorBetween)
	assert.Equal(t, `"amount" = 10`, between.GenerateSQL(`"amount"`, scalar, nil))

	notBetween := LookupOperator(filter.OperatorNotBetween)
	assert.Equal(t, `"amount" != 10`, notBetween.GenerateSQL(`"amount"`, scalar, nil))
}

func TestListSQL_ReescapesOriginalElements(t *testing.T) {
	// The pre-joined Escaped string is deliberately ignored: escaping is
	// re-derived per element from the original value.
	value := &filter.ProcessedValue{
		Escaped:  "tampered",
		Original: []any{"a", "O'Brien"},
	}
	in := LookupOperator(filter.OperatorIn)
	assert.Equal(t, `"name" IN ('a', 'O''Brien')`, in.GenerateSQL(`"name"`, value, nil))

	notIn := LookupOperator(filter.OperatorNotIn)
	assert.Equal(t, `"name" NOT IN ('a', 'O''Brien')`, notIn.GenerateSQL(`"name"`, value, nil))
}

func TestListSQL_MixedTypesAndScalars(t *testing.T) {
	in := LookupOperator(filter.OperatorIn)

	assert.Equal(t, `"amount" IN (1, 2.5, TRUE, NULL)`,
		in.GenerateSQL(`"amount"`, &filter.ProcessedValue{Original: []any{1, 2.5, true, nil}}, nil))

	// Non-slice originals are wrapped as a single-element list.
	assert.Equal(t, `"amount" IN (7)`,
		in.GenerateSQL(`"amount"`, &filter.ProcessedValue{Original: 7}, nil))
}

func TestListSQL_EmptyList(t *testing.T) {
	empty := &filter.ProcessedValue{Original: []any{}}
	assert.Equal(t, "1=0", LookupOperator(filter.OperatorIn).GenerateSQL(`"x"`, empty, nil))
	assert.Equal(t, "1=1", LookupOperator(filter.OperatorNotIn).GenerateSQL(`"x"`, empty, nil))
}

func TestNullSQL_IgnoresValue(t *testing.T) {
	value := &filter.ProcessedValue{Escaped: "'should-not-appear'"}

	isNull := LookupOperator(filter.OperatorIsNull)
	assert.Equal(t, `"status" IS NULL`, isNull.GenerateSQL(`"status"`, value, nil))

	notNull := LookupOperator(filter.OperatorNotNull)
	assert.Equal(t, `"status" IS NOT NULL`, notNull.GenerateSQL(`"status"`, value, nil))
}

func TestDateComparisonAliases(t *testing.T) {
	value := &filter.ProcessedValue{Escaped: "'2024-03-10 00:00:00.000'"}

	tests := []struct {
		operator filter.Operator
		expected string
	}{
		{filter.OperatorBefore, `"d" < '2024-03-10 00:00:00.000'`},
		{filter.OperatorBeforeOrOn, `"d" <= '2024-03-10 00:00:00.000'`},
		{filter.OperatorAfter, `"d" > '2024-03-10 00:00:00.000'`},
		{filter.OperatorAfterOrOn, `"d" >= '2024-03-10 00:00:00.000'`},
	}
	for _, tt := range tests {
		t.Run(string(tt.operator), func(t *testing.T) {
			assert.Equal(t, tt.expected, LookupOperator(tt.operator).GenerateSQL(`"d"`, value, nil))
		})
	}
}

func TestJSONOperators(t *testing.T) {
	assert.Equal(t, `"meta" ? 'role'`,
		LookupOperator(filter.OperatorHasKey).GenerateSQL(`"meta"`, &filter.ProcessedValue{Escaped: "'role'"}, nil))

	assert.Equal(t, `"meta" @> '{"role":"admin"}'::jsonb`,
		LookupOperator(filter.OperatorKeyEquals).GenerateSQL(`"meta"`, &filter.ProcessedValue{Escaped: `'{"role":"admin"}'`}, nil))

	assert.Equal(t, `"meta" #> '{a,b}' IS NOT NULL`,
		LookupOperator(filter.OperatorPathExists).GenerateSQL(`"meta"`, &filter.ProcessedValue{Escaped: "'{a,b}'"}, nil))

	assert.Equal(t, `"meta"::text ILIKE '%needle%'`,
		LookupOperator(filter.OperatorContainsText).GenerateSQL(`"meta"`, &filter.ProcessedValue{Escaped: "'%needle%'"}, nil))
}
