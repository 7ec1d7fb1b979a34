// Package filter defines the structured predicates a search sends to a
// memory store.
//
// A Predicate is a hard retrieval constraint: memories that do not satisfy
// it are never returned. A Boost is a soft preference: it never excludes a
// memory, it only adds Weight to the memory's score when its condition holds.
// Stores lower both to their native query language; Matches and Boost.Score
// are the in-process reference semantics every store must agree with.
package filter

import (
	"time"

	"github.com/mrdanjohnson/secondbrainv1/core"
)

// Predicate is a node of the predicate tree.
type Predicate interface {
	isPredicate()
}

// DateRange matches memories whose Field date falls within [Start, End] at
// day granularity.
type DateRange struct {
	Field core.DateField
	Start time.Time
	End   time.Time
}

// StartShort returns the inclusive lower bound in core.ShortDateLayout.
func (d DateRange) StartShort() string { return core.ShortDate(d.Start) }

// EndShort returns the inclusive upper bound in core.ShortDateLayout.
func (d DateRange) EndShort() string { return core.ShortDate(d.End) }

// CategoryEquals matches memories filed under Category.
type CategoryEquals struct {
	Category string
}

// TagsOverlap matches memories sharing at least one tag with Tags.
type TagsOverlap struct {
	Tags []string
}

// And matches when every term matches. An empty And matches everything.
type And struct {
	Terms []Predicate
}

// HasEmbedding matches memories that carry a vector.
type HasEmbedding struct{}

func (DateRange) isPredicate()      {}
func (CategoryEquals) isPredicate() {}
func (TagsOverlap) isPredicate()    {}
func (And) isPredicate()            {}
func (HasEmbedding) isPredicate()   {}

// All combines predicates into a single And, dropping nils and flattening
// nested Ands. It returns nil when nothing remains.
func All(preds ...Predicate) Predicate {
	var terms []Predicate
	for _, p := range preds {
		switch v := p.(type) {
		case nil:
		case And:
			if flat := All(v.Terms...); flat != nil {
				if a, ok := flat.(And); ok {
					terms = append(terms, a.Terms...)
				} else {
					terms = append(terms, flat)
				}
			}
		default:
			terms = append(terms, v)
		}
	}
	switch len(terms) {
	case 0:
		return nil
	case 1:
		return terms[0]
	}
	return And{Terms: terms}
}

// Matches evaluates p against m. A nil predicate matches everything.
func Matches(p Predicate, m *core.Memory) bool {
	if m == nil {
		return false
	}
	switch v := p.(type) {
	case nil:
		return true
	case DateRange:
		d, ok := m.Date(v.Field)
		if !ok || d.Short == "" {
			return false
		}
		return d.Short >= v.StartShort() && d.Short <= v.EndShort()
	case CategoryEquals:
		return m.Category == v.Category
	case TagsOverlap:
		return CountTagMatches(m.Tags, v.Tags) > 0
	case And:
		for _, t := range v.Terms {
			if !Matches(t, m) {
				return false
			}
		}
		return true
	case HasEmbedding:
		return m.HasEmbedding()
	}
	return false
}

// Find returns the first node of type T in p, searching And terms depth first.
func Find[T Predicate](p Predicate) (T, bool) {
	var zero T
	switch v := p.(type) {
	case T:
		return v, true
	case And:
		for _, t := range v.Terms {
			if found, ok := Find[T](t); ok {
				return found, true
			}
		}
	}
	return zero, false
}

// CountTagMatches returns |have ∩ want|. Both sides are compared after tag
// normalization and duplicates in want are counted once.
func CountTagMatches(have, want []string) int {
	if len(have) == 0 || len(want) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(have))
	for _, t := range have {
		set[core.NormalizeTag(t)] = struct{}{}
	}
	n := 0
	seen := make(map[string]struct{}, len(want))
	for _, t := range want {
		t = core.NormalizeTag(t)
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := set[t]; ok {
			n++
		}
	}
	return n
}
