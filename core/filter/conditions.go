package filter

// ConditionListBuilder provides a fluent API for assembling an ordered list of
// filter conditions without writing struct literals. Conditions are joined
// with AND unless OrWhere is used, which attaches an OR connector to the
// condition preceding it.
type ConditionListBuilder struct {
	conditions []FilterCondition
}

// Conditions creates a new, empty condition list builder.
func Conditions() *ConditionListBuilder {
	return &ConditionListBuilder{}
}

// Where appends a condition joined to the previous one with AND.
func (b *ConditionListBuilder) Where(column string, operator Operator, value FilterValue) *ConditionListBuilder {
	b.conditions = append(b.conditions, FilterCondition{
		Column:   column,
		Operator: operator,
		Value:    value,
	})
	return b
}

// OrWhere appends a condition joined to the previous one with OR.
func (b *ConditionListBuilder) OrWhere(column string, operator Operator, value FilterValue) *ConditionListBuilder {
	if len(b.conditions) > 0 {
		b.conditions[len(b.conditions)-1].LogicalOperator = LogicalOperatorOr
	}
	return b.Where(column, operator, value)
}

// IsNull appends an IS NULL check for the column.
func (b *ConditionListBuilder) IsNull(column string) *ConditionListBuilder {
	return b.Where(column, OperatorIsNull, true)
}

// NotNull appends an IS NOT NULL check for the column.
func (b *ConditionListBuilder) NotNull(column string) *ConditionListBuilder {
	return b.Where(column, OperatorNotNull, true)
}

// Build returns the assembled condition list.
func (b *ConditionListBuilder) Build() []FilterCondition {
	return b.conditions
}

// Reset clears the builder, returning it to its initial state.
func (b *ConditionListBuilder) Reset() *ConditionListBuilder {
	b.conditions = nil
	return b
}
