// Package dateparse turns natural-language date phrases ("last week",
// "Q3 2025", "next friday", "overdue") into concrete, inclusive date ranges
// bound to one of a memory's semantic date fields.
package dateparse

import (
	"fmt"
	"strings"
	"time"

	"github.com/mrdanjohnson/secondbrainv1/core"
	"github.com/mrdanjohnson/secondbrainv1/filter"
)

// Range is a resolved date phrase.
type Range struct {
	Start  time.Time
	End    time.Time
	Field  core.DateField
	Phrase string
	Rule   string
}

// Predicate returns the hard retrieval predicate for the range.
func (r Range) Predicate() filter.DateRange {
	return filter.DateRange{Field: r.Field, Start: r.Start, End: r.End}
}

// Resolver extracts and resolves date phrases using an ordered rule bank.
// It is safe for concurrent use.
type Resolver struct {
	rules []Rule
	hints []fieldHint
	now   func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock sets the function used to read the current time.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithRules replaces the rule bank.
func WithRules(rules []Rule) Option {
	return func(r *Resolver) {
		r.rules = rules
	}
}

// NewResolver creates a Resolver using DefaultRules and the wall clock.
//
// Day boundaries are always computed in time.Local, the same zone
// core.ShortDate formats stored dates in, so a one-day phrase covers
// exactly one stored date.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		rules: DefaultRules,
		hints: defaultFieldHints,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Extract returns the first date phrase found in query, in the casing it
// appears with. Rules are tried in bank order.
func (r *Resolver) Extract(query string) (string, bool) {
	for _, rl := range r.rules {
		if m := rl.Pattern.FindString(query); m != "" {
			return m, true
		}
	}
	return "", false
}

// Resolve converts phrase into a Range. hint is the text used to choose the
// date field when the matching rule does not force one; usually the full
// query. It returns ErrUnresolved when no rule matches or the matching rule
// cannot produce a range.
func (r *Resolver) Resolve(phrase, hint string) (*Range, error) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return nil, fmt.Errorf("%w: empty phrase", ErrUnresolved)
	}

	now := r.now().In(time.Local)
	for _, rl := range r.rules {
		m := rl.Pattern.FindStringSubmatch(phrase)
		if m == nil {
			continue
		}
		start, end, err := rl.Resolve(m, now)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrUnresolved, phrase, err)
		}
		field := rl.Field
		if field == "" {
			field = r.fieldFor(hint + " " + phrase)
		}
		return &Range{
			Start:  start,
			End:    end,
			Field:  field,
			Phrase: m[0],
			Rule:   rl.Name,
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnresolved, phrase)
}

// Parse extracts the first date phrase from query and resolves it.
func (r *Resolver) Parse(query string) (*Range, error) {
	phrase, ok := r.Extract(query)
	if !ok {
		return nil, fmt.Errorf("%w: no date phrase in %q", ErrUnresolved, query)
	}
	return r.Resolve(phrase, query)
}

func (r *Resolver) fieldFor(text string) core.DateField {
	for _, h := range r.hints {
		if h.pattern.MatchString(text) {
			return h.field
		}
	}
	return core.DateFieldOccurrence
}
