package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/asaidimu/go-chuja/core/filter"
	"github.com/asaidimu/go-chuja/core/schema"
)

func testColumns() []schema.ColumnMetadata {
	return []schema.ColumnMetadata{
		{Name: "status", DataType: "text", IsFilterable: true},
		{Name: "name", DataType: "character varying", IsFilterable: true},
		{Name: "amount", DataType: "numeric(12,2)", IsFilterable: true},
		{Name: "price", DataType: "integer", IsFilterable: true},
		{Name: "is_active", DataType: "boolean", IsFilterable: true},
		{Name: "created_at", DataType: "timestamp with time zone", IsFilterable: true, IsNullable: true},
		{Name: "meta", DataType: "jsonb", IsFilterable: true},
		{Name: "secret", DataType: "text"},
	}
}

func newTestBuilder(t *testing.T) *FilterBuilder {
	t.Helper()
	b := NewFilterBuilder(FilterContext{
		ServiceType:    filter.ServiceTable,
		Columns:        testColumns(),
		EscapeStrategy: filter.EscapeRawSQL,
	}, zap.NewNop())
	return b.WithResolver(fixedResolver())
}

func TestNewFilterBuilder(t *testing.T) {
	b := NewFilterBuilder(FilterContext{Columns: testColumns()}, nil)
	assert.NotNil(t, b)
	assert.NotNil(t, b.logger)
	// Type classes are assigned at construction.
	assert.Equal(t, schema.TypeClassDate, b.Context().Columns.Find("created_at").TypeClass)
}

func TestFilterBuilder_BuildCondition(t *testing.T) {
	tests := []struct {
		name     string
		cond     filter.FilterCondition
		expected string
	}{
		{
			name:     "text_equality",
			cond:     filter.FilterCondition{Column: "status", Operator: filter.OperatorEq, Value: "active"},
			expected: `"status" = 'active'`,
		},
		{
			name:     "numeric_gte",
			cond:     filter.FilterCondition{Column: "amount", Operator: filter.OperatorGte, Value: 100},
			expected: `"amount" >= 100`,
		},
		{
			name:     "quote_injection_is_neutralized",
			cond:     filter.FilterCondition{Column: "status", Operator: filter.OperatorEq, Value: "x' OR '1'='1"},
			expected: `"status" = 'x'' OR ''1''=''1'`,
		},
		{
			name:     "contains_renders_ilike",
			cond:     filter.FilterCondition{Column: "name", Operator: filter.OperatorContains, Value: "ann"},
			expected: `"name" ILIKE '%ann%'`,
		},
		{
			name:     "boolean_normalization",
			cond:     filter.FilterCondition{Column: "is_active", Operator: filter.OperatorEq, Value: "true"},
			expected: `"is_active" = TRUE`,
		},
		{
			name:     "is_null_ignores_value",
			cond:     filter.FilterCondition{Column: "created_at", Operator: filter.OperatorIsNull, Value: "true"},
			expected: `"created_at" IS NULL`,
		},
		{
			name:     "in_list_per_element_escaping",
			cond:     filter.FilterCondition{Column: "status", Operator: filter.OperatorIn, Value: []any{"active", "pend'ing"}},
			expected: `"status" IN ('active', 'pend''ing')`,
		},
		{
			name:     "date_eq_widens_to_between",
			cond:     filter.FilterCondition{Column: "created_at", Operator: filter.OperatorEq, Value: "2024-03-10"},
			expected: `"created_at" BETWEEN '2024-03-10 00:00:00.000' AND '2024-03-10 23:59:59.999'`,
		},
		{
			name:     "relative_date_token",
			cond:     filter.FilterCondition{Column: "created_at", Operator: filter.OperatorDuring, Value: "__rel_date:thisWeek"},
			expected: `"created_at" BETWEEN '2024-03-11 00:00:00.000' AND '2024-03-17 23:59:59.999'`,
		},
		{
			name:     "numeric_between",
			cond:     filter.FilterCondition{Column: "price", Operator: filter.OperatorBetween, Value: []any{10, 100}},
			expected: `"price" BETWEEN 10 AND 100`,
		},
		{
			name:     "numeric_between_reversed_bounds",
			cond:     filter.FilterCondition{Column: "price", Operator: filter.OperatorBetween, Value: []any{100, 10}},
			expected: `"price" BETWEEN 10 AND 100`,
		},
		{
			name:     "date_between_reversed_bounds",
			cond:     filter.FilterCondition{Column: "created_at", Operator: filter.OperatorBetween, Value: []any{"2024-02-01", "2024-01-01"}},
			expected: `"created_at" BETWEEN '2024-01-01 00:00:00.000' AND '2024-02-01 00:00:00.000'`,
		},
		{
			name:     "json_key_equals",
			cond:     filter.FilterCondition{Column: "meta", Operator: filter.OperatorKeyEquals, Value: "role:admin"},
			expected: `"meta" @> '{"role":"admin"}'::jsonb`,
		},
		{
			name:     "unknown_operator_degrades_to_eq",
			cond:     filter.FilterCondition{Column: "status", Operator: "definitely-a-typo", Value: "x"},
			expected: `"status" = 'x'`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBuilder(t)
			got, err := b.BuildCondition(tt.cond)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFilterBuilder_BuildCondition_UnknownColumn(t *testing.T) {
	b := newTestBuilder(t)
	_, err := b.BuildCondition(filter.FilterCondition{Column: "foo", Operator: filter.OperatorEq, Value: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"foo"`)

	var notFound *filter.ColumnNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "foo", notFound.Column)
}

func TestFilterBuilder_BuildWhere(t *testing.T) {
	b := newTestBuilder(t)

	t.Run("empty_list_yields_empty_string", func(t *testing.T) {
		got, err := b.BuildWhere(nil)
		require.NoError(t, err)
		assert.Equal(t, "", got)
	})

	t.Run("single_condition", func(t *testing.T) {
		got, err := b.BuildWhere([]filter.FilterCondition{
			{Column: "status", Operator: filter.OperatorEq, Value: "active"},
		})
		require.NoError(t, err)
		assert.Equal(t, `WHERE "status" = 'active'`, got)
	})

	t.Run("default_connector_is_and", func(t *testing.T) {
		got, err := b.BuildWhere([]filter.FilterCondition{
			{Column: "status", Operator: filter.OperatorEq, Value: "active"},
			{Column: "amount", Operator: filter.OperatorGte, Value: 100},
		})
		require.NoError(t, err)
		assert.Equal(t, `WHERE "status" = 'active' AND "amount" >= 100`, got)
	})

	t.Run("or_connector_binds_after_its_condition", func(t *testing.T) {
		got, err := b.BuildWhere([]filter.FilterCondition{
			{Column: "status", Operator: filter.OperatorEq, Value: "active", LogicalOperator: schema.LogicalOr},
			{Column: "status", Operator: filter.OperatorEq, Value: "pending"},
		})
		require.NoError(t, err)
		assert.Equal(t, `WHERE "status" = 'active' OR "status" = 'pending'`, got)
	})

	t.Run("trailing_connector_is_ignored", func(t *testing.T) {
		got, err := b.BuildWhere([]filter.FilterCondition{
			{Column: "status", Operator: filter.OperatorEq, Value: "active", LogicalOperator: schema.LogicalOr},
		})
		require.NoError(t, err)
		assert.Equal(t, `WHERE "status" = 'active'`, got)
	})

	t.Run("error_aborts_compilation", func(t *testing.T) {
		_, err := b.BuildWhere([]filter.FilterCondition{
			{Column: "status", Operator: filter.OperatorEq, Value: "active"},
			{Column: "missing", Operator: filter.OperatorEq, Value: 1},
		})
		assert.Error(t, err)
	})
}

func TestFilterBuilder_PropertiesRoundTrip(t *testing.T) {
	b := newTestBuilder(t)
	columns := b.Context().Columns

	parsed, err := filter.ParseProperties(map[string]any{"price.between": "10,100"}, columns)
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	fromProperties, err := b.BuildWhere(parsed)
	require.NoError(t, err)

	direct, err := b.BuildWhere([]filter.FilterCondition{
		{Column: "price", Operator: filter.OperatorBetween, Value: []any{10, 100}},
	})
	require.NoError(t, err)

	assert.Equal(t, direct, fromProperties)
	assert.Equal(t, `WHERE "price" BETWEEN 10 AND 100`, direct)
}

// recordingHandler claims conditions for a fixed column and records whether it
// ran.
type recordingHandler struct {
	column   string
	fragment string
	called   bool
}

func (h *recordingHandler) CanHandle(cond filter.FilterCondition, _ *FilterContext) bool {
	return cond.Column == h.column
}

func (h *recordingHandler) Generate(_ filter.FilterCondition, _ *FilterContext) (string, error) {
	h.called = true
	return h.fragment, nil
}

func TestFilterBuilder_CustomHandlers_FirstMatchWins(t *testing.T) {
	b := newTestBuilder(t)
	first := &recordingHandler{column: "status", fragment: "first_fragment"}
	second := &recordingHandler{column: "status", fragment: "second_fragment"}
	b.RegisterHandler(first)
	b.RegisterHandler(second)

	got, err := b.BuildCondition(filter.FilterCondition{Column: "status", Operator: filter.OperatorEq, Value: "x"})
	require.NoError(t, err)
	assert.Equal(t, "first_fragment", got)
	assert.True(t, first.called)
	assert.False(t, second.called)
}

func TestFilterBuilder_CustomHandlers_NonMatchingFallsThrough(t *testing.T) {
	b := newTestBuilder(t)
	handler := &recordingHandler{column: "amount", fragment: "handled"}
	b.RegisterHandler(handler)

	got, err := b.BuildCondition(filter.FilterCondition{Column: "status", Operator: filter.OperatorEq, Value: "active"})
	require.NoError(t, err)
	assert.Equal(t, `"status" = 'active'`, got)
	assert.False(t, handler.called)
}

func TestFilterBuilder_ValidateFilter(t *testing.T) {
	b := newTestBuilder(t)

	t.Run("valid_condition", func(t *testing.T) {
		result := b.ValidateFilter(filter.FilterCondition{Column: "amount", Operator: filter.OperatorGte, Value: 10})
		assert.True(t, result.IsValid)
		assert.Empty(t, result.Errors)
	})

	t.Run("unknown_column", func(t *testing.T) {
		result := b.ValidateFilter(filter.FilterCondition{Column: "ghost", Operator: filter.OperatorEq, Value: 1})
		assert.False(t, result.IsValid)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "column", result.Errors[0].Field)
	})

	t.Run("operator_type_class_mismatch", func(t *testing.T) {
		result := b.ValidateFilter(filter.FilterCondition{Column: "status", Operator: filter.OperatorGt, Value: "x"})
		assert.False(t, result.IsValid)
		require.NotEmpty(t, result.Errors)
		assert.Equal(t, "operator", result.Errors[0].Field)
	})

	t.Run("invalid_value", func(t *testing.T) {
		result := b.ValidateFilter(filter.FilterCondition{Column: "amount", Operator: filter.OperatorEq, Value: "abc"})
		assert.False(t, result.IsValid)
		require.NotEmpty(t, result.Errors)
		assert.Equal(t, "value", result.Errors[0].Field)
	})

	t.Run("non_filterable_column", func(t *testing.T) {
		result := b.ValidateFilter(filter.FilterCondition{Column: "secret", Operator: filter.OperatorEq, Value: "x"})
		assert.False(t, result.IsValid)
	})

	t.Run("unknown_operator_lenient_by_default", func(t *testing.T) {
		result := b.ValidateFilter(filter.FilterCondition{Column: "status", Operator: "typo", Value: "x"})
		assert.True(t, result.IsValid)
	})

	t.Run("unknown_operator_strict_mode", func(t *testing.T) {
		strict := true
		b.UpdateContext(ContextPatch{StrictOperators: &strict})
		result := b.ValidateFilter(filter.FilterCondition{Column: "status", Operator: "typo", Value: "x"})
		assert.False(t, result.IsValid)
	})
}

func TestFilterBuilder_BuildCondition_DoesNotEnforceTypeClass(t *testing.T) {
	// The fast path compiles whatever pairing is requested; only
	// ValidateFilter flags the mismatch.
	b := newTestBuilder(t)
	got, err := b.BuildCondition(filter.FilterCondition{Column: "status", Operator: filter.OperatorGt, Value: "x"})
	require.NoError(t, err)
	assert.Equal(t, `"status" > 'x'`, got)
}

func TestFilterBuilder_UpdateContext(t *testing.T) {
	b := newTestBuilder(t)

	service := filter.ServiceDashboard
	strategy := filter.EscapeDrizzle
	b.UpdateContext(ContextPatch{
		ServiceType:    &service,
		EscapeStrategy: &strategy,
		Columns: []schema.ColumnMetadata{
			{Name: "widget", DataType: "text", IsFilterable: true},
		},
	})

	ctx := b.Context()
	assert.Equal(t, filter.ServiceDashboard, ctx.ServiceType)
	assert.Equal(t, filter.EscapeDrizzle, ctx.EscapeStrategy)
	assert.Nil(t, ctx.Columns.Find("status"))
	assert.NotNil(t, ctx.Columns.Find("widget"))

	// Unset fields are untouched.
	b.UpdateContext(ContextPatch{})
	assert.Equal(t, filter.ServiceDashboard, b.Context().ServiceType)
}

func TestFilterBuilder_DateWideningSpan(t *testing.T) {
	b := newTestBuilder(t)
	got, err := b.BuildCondition(filter.FilterCondition{
		Column: "created_at", Operator: filter.OperatorEq, Value: "2024-03-10",
	})
	require.NoError(t, err)

	start, err := time.Parse(timestampLayout, "2024-03-10 00:00:00.000")
	require.NoError(t, err)
	end, err := time.Parse(timestampLayout, "2024-03-10 23:59:59.999")
	require.NoError(t, err)
	assert.Equal(t, int64(86_399_999), end.Sub(start).Milliseconds())
	assert.Contains(t, got, "BETWEEN")
}
