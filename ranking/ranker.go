// Package ranking merges vector similarity with category and tag boosts into
// one ordered result list.
//
// The boosts are expressed as filter.Boost values so the store can order its
// over-fetch with exactly the formula the ranker scores with.
package ranking

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/mrdanjohnson/secondbrainv1/core"
	"github.com/mrdanjohnson/secondbrainv1/filter"
)

// Match type labels. They describe a result and never influence its rank.
const (
	MatchDate     = "date"
	MatchCategory = "category"
	MatchTag      = "tag"
	MatchSemantic = "semantic"
)

// Weights are the additive boost weights.
type Weights struct {
	// Category is added once when the memory's category is the matched one.
	Category float64
	// Tag is added for every matched tag the memory carries.
	Tag float64
}

// DefaultWeights returns the reference weights.
func DefaultWeights() Weights {
	return Weights{Category: 3.0, Tag: 1.5}
}

// Validate rejects negative weights.
func (w Weights) Validate() error {
	if w.Category < 0 || w.Tag < 0 {
		return fmt.Errorf("%w: category=%v tag=%v", ErrInvalidWeights, w.Category, w.Tag)
	}
	return nil
}

// Request describes one ranking pass.
type Request struct {
	Category    string
	Tags        []string
	Threshold   float64
	Limit       int
	DateApplied bool
}

// Ranker scores candidates. It holds no mutable state.
type Ranker struct {
	weights Weights
}

// NewRanker creates a Ranker with the given weights.
func NewRanker(weights Weights) (*Ranker, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &Ranker{weights: weights}, nil
}

// Weights returns the ranker's weights.
func (r *Ranker) Weights() Weights {
	return r.weights
}

// Boosts returns the soft boosts for a matched category and tag set.
func (r *Ranker) Boosts(category string, tags []string) []filter.Boost {
	var boosts []filter.Boost
	if category != "" && r.weights.Category > 0 {
		boosts = append(boosts, filter.CategoryBoost(category, r.weights.Category))
	}
	if len(tags) > 0 && r.weights.Tag > 0 {
		boosts = append(boosts, filter.TagBoost(tags, r.weights.Tag))
	}
	return boosts
}

// Rank scores candidates, drops those that neither reach req.Threshold nor
// carry a boost, and returns the rest best first, truncated to req.Limit
// when it is positive.
func (r *Ranker) Rank(candidates []*core.Candidate, req Request) []*core.ScoredResult {
	boosts := r.Boosts(req.Category, req.Tags)

	results := make([]*core.ScoredResult, 0, len(candidates))
	for _, c := range candidates {
		if c == nil || c.Memory == nil {
			continue
		}
		res := &core.ScoredResult{Memory: c.Memory, Similarity: c.Similarity}
		for _, b := range boosts {
			switch b.Name {
			case filter.BoostCategory:
				res.CategoryBoost = b.Score(c.Memory)
			case filter.BoostTag:
				res.TagBoost = b.Score(c.Memory)
			}
		}
		if res.Similarity < req.Threshold && res.CategoryBoost <= 0 && res.TagBoost <= 0 {
			continue
		}
		res.FinalScore = res.Similarity + res.CategoryBoost + res.TagBoost
		res.MatchType = MatchType(req.DateApplied, res)
		results = append(results, res)
	}

	slices.SortFunc(results, compareResults)
	if req.Limit > 0 && len(results) > req.Limit {
		results = results[:req.Limit]
	}
	return results
}

// compareResults orders by final score, then similarity, then memory ID.
func compareResults(a, b *core.ScoredResult) int {
	if c := cmp.Compare(b.FinalScore, a.FinalScore); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Similarity, a.Similarity); c != 0 {
		return c
	}
	return cmp.Compare(a.Memory.Id, b.Memory.Id)
}

// MatchType labels why res matched, e.g. "date+category+semantic".
func MatchType(dateApplied bool, res *core.ScoredResult) string {
	var parts []string
	if dateApplied {
		parts = append(parts, MatchDate)
	}
	if res.CategoryBoost > 0 {
		parts = append(parts, MatchCategory)
	}
	if res.TagBoost > 0 {
		parts = append(parts, MatchTag)
	}
	if res.Similarity > 0 {
		parts = append(parts, MatchSemantic)
	}
	if len(parts) == 0 {
		return MatchSemantic
	}
	return strings.Join(parts, "+")
}
