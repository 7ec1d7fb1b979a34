package filter

import "github.com/mrdanjohnson/secondbrainv1/core"

// Boost adds Weight to a memory's score when When matches it. With PerMatch
// set on a TagsOverlap condition, Weight is applied once per overlapping tag.
type Boost struct {
	Name     string
	When     Predicate
	Weight   float64
	PerMatch bool
}

// Score returns the boost contributed to m.
func (b Boost) Score(m *core.Memory) float64 {
	if b.When == nil || m == nil {
		return 0
	}
	if b.PerMatch {
		if to, ok := b.When.(TagsOverlap); ok {
			return b.Weight * float64(CountTagMatches(m.Tags, to.Tags))
		}
	}
	if Matches(b.When, m) {
		return b.Weight
	}
	return 0
}

const (
	// BoostCategory names the category boost.
	BoostCategory = "category"
	// BoostTag names the tag boost.
	BoostTag = "tag"
)

// CategoryBoost prefers memories filed under category.
func CategoryBoost(category string, weight float64) Boost {
	return Boost{Name: BoostCategory, When: CategoryEquals{Category: category}, Weight: weight}
}

// TagBoost prefers memories by the number of tags they share with tags.
func TagBoost(tags []string, weight float64) Boost {
	return Boost{Name: BoostTag, When: TagsOverlap{Tags: core.NormalizeTags(tags)}, Weight: weight, PerMatch: true}
}

// TotalBoost sums every boost for m.
func TotalBoost(boosts []Boost, m *core.Memory) float64 {
	var total float64
	for _, b := range boosts {
		total += b.Score(m)
	}
	return total
}
