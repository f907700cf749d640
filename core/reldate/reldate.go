// Package reldate resolves symbolic relative-date tokens, such as "last7Days"
// or "thisMonth", into concrete [start, end] instant ranges. Resolution is
// timezone-aware: day, week, month and year boundaries are computed in the
// resolver's location before being returned as absolute instants.
package reldate

import (
	"strings"
	"time"
)

// Option is one of the supported relative-date tokens.
type Option string

const (
	OptionToday      Option = "today"
	OptionYesterday  Option = "yesterday"
	OptionTomorrow   Option = "tomorrow"
	OptionThisWeek   Option = "thisWeek"
	OptionLastWeek   Option = "lastWeek"
	OptionNextWeek   Option = "nextWeek"
	OptionThisMonth  Option = "thisMonth"
	OptionLastMonth  Option = "lastMonth"
	OptionNextMonth  Option = "nextMonth"
	OptionLast7Days  Option = "last7Days"
	OptionNext7Days  Option = "next7Days"
	OptionLast30Days Option = "last30Days"
	OptionNext30Days Option = "next30Days"
	OptionThisYear   Option = "thisYear"
	OptionLastYear   Option = "lastYear"
	OptionCustom     Option = "custom"
)

// TokenPrefix marks a condition value as a relative-date token. The full
// sentinel format is "__rel_date:<option>".
const TokenPrefix = "__rel_date:"

// ParseToken extracts the relative-date option from a sentinel value.
// It reports false when the value is not a relative-date token.
func ParseToken(value any) (Option, bool) {
	s, ok := value.(string)
	if !ok || !strings.HasPrefix(s, TokenPrefix) {
		return "", false
	}
	return Option(strings.TrimPrefix(s, TokenPrefix)), true
}

// IsToken reports whether a value carries the relative-date sentinel prefix.
func IsToken(value any) bool {
	_, ok := ParseToken(value)
	return ok
}

// Token renders the sentinel string for an option.
func Token(opt Option) string {
	return TokenPrefix + string(opt)
}

// Boundary selects how the end of the final day of a range is expressed.
type Boundary int

const (
	// BoundaryInclusive ends ranges at 23:59:59.999 of the final day.
	BoundaryInclusive Boundary = iota
	// BoundaryExclusive ends ranges at midnight of the following day.
	BoundaryExclusive
)

// Range is a resolved [Start, End] pair of absolute instants, Start <= End.
type Range struct {
	Start time.Time
	End   time.Time
}

// Resolver computes relative-date ranges against a reference instant.
// The zero value is not usable; construct with NewResolver.
type Resolver struct {
	// Now supplies the reference instant. Defaults to time.Now.
	Now func() time.Time
	// Location is the timezone in which day/week/month/year boundaries are
	// computed. Defaults to UTC.
	Location *time.Location
	// Boundary controls the end-of-day convention. Defaults to inclusive.
	Boundary Boundary
}

// NewResolver creates a resolver with the given location and boundary
// convention, defaulting to UTC and inclusive ends when zero values are
// passed.
func NewResolver(loc *time.Location, boundary Boundary) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{
		Now:      time.Now,
		Location: loc,
		Boundary: boundary,
	}
}

// Resolve maps an option to its concrete range against the resolver's current
// reference instant. Unrecognized options, including "custom", resolve to the
// single reference day's bounds as a safe default.
func (r *Resolver) Resolve(opt Option) Range {
	return r.ResolveAt(opt, r.now())
}

// ResolveAt is Resolve against an explicit reference instant. Resolving the
// same option against the same reference yields identical ranges.
func (r *Resolver) ResolveAt(opt Option, ref time.Time) Range {
	ref = ref.In(r.location())

	switch opt {
	case OptionToday:
		return r.dayRange(ref, ref)
	case OptionYesterday:
		d := ref.AddDate(0, 0, -1)
		return r.dayRange(d, d)
	case OptionTomorrow:
		d := ref.AddDate(0, 0, 1)
		return r.dayRange(d, d)
	case OptionThisWeek:
		monday := startOfWeek(ref)
		return r.dayRange(monday, monday.AddDate(0, 0, 6))
	case OptionLastWeek:
		monday := startOfWeek(ref).AddDate(0, 0, -7)
		return r.dayRange(monday, monday.AddDate(0, 0, 6))
	case OptionNextWeek:
		monday := startOfWeek(ref).AddDate(0, 0, 7)
		return r.dayRange(monday, monday.AddDate(0, 0, 6))
	case OptionThisMonth:
		first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
		return r.dayRange(first, first.AddDate(0, 1, -1))
	case OptionLastMonth:
		first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location()).AddDate(0, -1, 0)
		return r.dayRange(first, first.AddDate(0, 1, -1))
	case OptionNextMonth:
		first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location()).AddDate(0, 1, 0)
		return r.dayRange(first, first.AddDate(0, 1, -1))
	case OptionLast7Days:
		// 7-day window ending on the reference day, inclusive of it.
		return r.dayRange(ref.AddDate(0, 0, -6), ref)
	case OptionNext7Days:
		return r.dayRange(ref, ref.AddDate(0, 0, 6))
	case OptionLast30Days:
		return r.dayRange(ref.AddDate(0, 0, -29), ref)
	case OptionNext30Days:
		return r.dayRange(ref, ref.AddDate(0, 0, 29))
	case OptionThisYear:
		first := time.Date(ref.Year(), time.January, 1, 0, 0, 0, 0, ref.Location())
		return r.dayRange(first, time.Date(ref.Year(), time.December, 31, 0, 0, 0, 0, ref.Location()))
	case OptionLastYear:
		year := ref.Year() - 1
		first := time.Date(year, time.January, 1, 0, 0, 0, 0, ref.Location())
		return r.dayRange(first, time.Date(year, time.December, 31, 0, 0, 0, 0, ref.Location()))
	default:
		// Unknown and "custom" tokens fall back to the reference day.
		return r.dayRange(ref, ref)
	}
}

func (r *Resolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Resolver) location() *time.Location {
	if r.Location != nil {
		return r.Location
	}
	return time.UTC
}

// dayRange spans from the start of the first day to the configured end
// boundary of the last day.
func (r *Resolver) dayRange(first, last time.Time) Range {
	start := startOfDay(first)
	end := startOfDay(last).AddDate(0, 0, 1)
	if r.Boundary == BoundaryInclusive {
		end = end.Add(-time.Millisecond)
	}
	return Range{Start: start, End: end}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// startOfWeek returns midnight of the Monday of t's week.
func startOfWeek(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday belongs to the week that started the previous Monday.
	}
	return startOfDay(t.AddDate(0, 0, -(weekday - 1)))
}
