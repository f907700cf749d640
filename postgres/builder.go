package postgres

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/asaidimu/go-chuja/core/filter"
	"github.com/asaidimu/go-chuja/core/reldate"
	"github.com/asaidimu/go-chuja/core/schema"
)

// CustomHandler is a caller-supplied override point. When CanHandle returns
// true for a condition, the handler fully owns fragment generation and the
// standard compilation steps are skipped.
type CustomHandler interface {
	CanHandle(cond filter.FilterCondition, ctx *FilterContext) bool
	Generate(cond filter.FilterCondition, ctx *FilterContext) (string, error)
}

// FilterContext is the mutable compilation context held by a FilterBuilder.
// CustomHandlers is an ordered list evaluated in registration order; the first
// matching handler wins, which makes handler precedence part of the observable
// contract.
type FilterContext struct {
	ServiceType    filter.ServiceType
	Columns        schema.ColumnSet
	CustomHandlers []CustomHandler
	EscapeStrategy filter.EscapeStrategy

	// StrictOperators makes ValidateFilter report unrecognized operator keys
	// instead of silently accepting the eq fallback. BuildCondition remains
	// lenient either way.
	StrictOperators bool
}

// ContextPatch is a partial FilterContext for UpdateContext. Nil fields are
// left untouched; non-nil fields replace the current value.
type ContextPatch struct {
	ServiceType     *filter.ServiceType
	Columns         []schema.ColumnMetadata
	CustomHandlers  []CustomHandler
	EscapeStrategy  *filter.EscapeStrategy
	StrictOperators *bool
}

// FilterBuilder compiles filter conditions into PostgreSQL predicate text.
//
// A builder holds one mutable context and must serve exactly one logical
// query-building operation: construct a fresh builder (or explicitly reset
// its context) per compilation, and never share an instance across
// concurrently executing requests.
type FilterBuilder struct {
	ctx        FilterContext
	resolver   *reldate.Resolver
	processors map[schema.TypeClass]ValueProcessor
	logger     *zap.Logger
}

// NewFilterBuilder creates a builder over the given context. Column type
// classes are assigned here if the caller did not classify them already. A nil
// logger is replaced with a no-op logger; every log line carries a generated
// builder id for correlation.
func NewFilterBuilder(ctx FilterContext, logger *zap.Logger) *FilterBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx.Columns = schema.NewColumnSet(ctx.Columns)
	resolver := reldate.NewResolver(nil, reldate.BoundaryInclusive)
	return &FilterBuilder{
		ctx:        ctx,
		resolver:   resolver,
		processors: newProcessors(resolver),
		logger:     logger.With(zap.String("builder_id", uuid.NewString())),
	}
}

// WithResolver swaps the relative-date resolver, e.g. to pin a reference
// instant, a target timezone, or the exclusive end-of-day convention.
func (b *FilterBuilder) WithResolver(resolver *reldate.Resolver) *FilterBuilder {
	if resolver != nil {
		b.resolver = resolver
		b.processors = newProcessors(resolver)
	}
	return b
}

// Context returns the builder's current compilation context.
func (b *FilterBuilder) Context() *FilterContext {
	return &b.ctx
}

// RegisterHandler appends a custom handler to the context. Handlers are
// consulted in registration order.
func (b *FilterBuilder) RegisterHandler(handler CustomHandler) {
	b.ctx.CustomHandlers = append(b.ctx.CustomHandlers, handler)
	b.logger.Info("Registered custom handler", zap.Int("position", len(b.ctx.CustomHandlers)-1))
}

// UpdateContext merges a partial context into the current one, mutating the
// builder's state in place.
func (b *FilterBuilder) UpdateContext(patch ContextPatch) {
	if patch.ServiceType != nil {
		b.ctx.ServiceType = *patch.ServiceType
	}
	if patch.Columns != nil {
		b.ctx.Columns = schema.NewColumnSet(patch.Columns)
	}
	if patch.CustomHandlers != nil {
		b.ctx.CustomHandlers = patch.CustomHandlers
	}
	if patch.EscapeStrategy != nil {
		b.ctx.EscapeStrategy = *patch.EscapeStrategy
	}
	if patch.StrictOperators != nil {
		b.ctx.StrictOperators = *patch.StrictOperators
	}
	b.logger.Info("Updated filter context",
		zap.String("service_type", string(b.ctx.ServiceType)),
		zap.Int("columns", len(b.ctx.Columns)))
}

// BuildWhere compiles an ordered list of conditions into a full WHERE clause.
// An empty list yields the empty string; any non-empty result begins with
// "WHERE ". Each condition's LogicalOperator names the connector placed after
// it, defaulting to AND and omitted after the last condition.
func (b *FilterBuilder) BuildWhere(conditions []filter.FilterCondition) (string, error) {
	if len(conditions) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("WHERE ")
	for i, cond := range conditions {
		fragment, err := b.BuildCondition(cond)
		if err != nil {
			return "", err
		}
		sb.WriteString(fragment)
		if i < len(conditions)-1 {
			connector := cond.LogicalOperator
			if connector == "" {
				connector = schema.LogicalAnd
			}
			sb.WriteString(" " + string(connector) + " ")
		}
	}
	return sb.String(), nil
}

// BuildCondition compiles exactly one condition into a predicate fragment.
func (b *FilterBuilder) BuildCondition(cond filter.FilterCondition) (string, error) {
	for _, handler := range b.ctx.CustomHandlers {
		if handler.CanHandle(cond, &b.ctx) {
			fragment, err := handler.Generate(cond, &b.ctx)
			if err != nil {
				return "", fmt.Errorf("custom handler failed for column %q: %w", cond.Column, err)
			}
			b.logger.Debug("Compiled condition via custom handler",
				zap.String("column", cond.Column),
				zap.String("operator", string(cond.Operator)))
			return fragment, nil
		}
	}

	column := b.ctx.Columns.Find(cond.Column)
	if column == nil {
		return "", &filter.ColumnNotFoundError{Column: cond.Column}
	}

	processed, err := b.processorFor(column.TypeClass).Process(cond.Value, cond.Operator, column)
	if err != nil {
		return "", err
	}

	definition := LookupOperator(cond.Operator)
	fragment := definition.GenerateSQL(quoteIdentifier(column.Name), processed, &b.ctx)

	b.logger.Debug("Compiled predicate fragment",
		zap.String("column", cond.Column),
		zap.String("operator", string(definition.Key)),
		zap.String("fragment", fragment))
	return fragment, nil
}

// ValidateFilter performs a non-throwing check of a single condition: column
// existence and filterability, operator/type-class compatibility, and a trial
// value-processing pass. Errors accumulate; nothing is raised. BuildCondition
// deliberately enforces a smaller rule set (the fast path); this is the safe
// path for callers that want feedback before compiling.
func (b *FilterBuilder) ValidateFilter(cond filter.FilterCondition) filter.ValidationResult {
	var errs []filter.ValidationError

	column := b.ctx.Columns.Find(cond.Column)
	if column == nil {
		errs = append(errs, filter.ValidationError{
			Field:   "column",
			Message: fmt.Sprintf("column %q not found in metadata", cond.Column),
		})
		return filter.ValidationResult{IsValid: false, Errors: errs}
	}
	if !column.IsFilterable {
		errs = append(errs, filter.ValidationError{
			Field:   "column",
			Message: fmt.Sprintf("column %q is not filterable", cond.Column),
		})
	}

	if b.ctx.StrictOperators && !IsRegisteredOperator(cond.Operator) {
		errs = append(errs, filter.ValidationError{
			Field:   "operator",
			Message: fmt.Sprintf("unknown operator %q", cond.Operator),
		})
	}
	definition := LookupOperator(cond.Operator)
	if !definition.SupportsClass(column.TypeClass) {
		errs = append(errs, filter.ValidationError{
			Field:   "operator",
			Message: fmt.Sprintf("operator %q does not support %s columns", definition.Key, column.TypeClass),
		})
	}

	if _, err := b.processorFor(column.TypeClass).Process(cond.Value, cond.Operator, column); err != nil {
		errs = append(errs, filter.ValidationError{
			Field:   "value",
			Message: err.Error(),
		})
	}

	return filter.ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// processorFor selects the value processor for a type class, defaulting to
// the text processor for anything unclassified.
func (b *FilterBuilder) processorFor(tc schema.TypeClass) ValueProcessor {
	if p, ok := b.processors[tc]; ok {
		return p
	}
	return b.processors[schema.TypeClassText]
}
