package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrdanjohnson/secondbrainv1/core"
)

func candidate(id core.ID, sim float64, category string, tags ...string) *core.Candidate {
	return &core.Candidate{
		Memory:     &core.Memory{Id: id, RawContent: "m", Category: category, Tags: tags},
		Similarity: sim,
	}
}

func newRanker(t *testing.T) *Ranker {
	t.Helper()
	r, err := NewRanker(DefaultWeights())
	require.NoError(t, err)
	return r
}

func ids(results []*core.ScoredResult) []core.ID {
	out := make([]core.ID, len(results))
	for i, r := range results {
		out[i] = r.Memory.Id
	}
	return out
}

func TestNewRanker_RejectsNegativeWeights(t *testing.T) {
	_, err := NewRanker(Weights{Category: -1})
	assert.ErrorIs(t, err, ErrInvalidWeights)
}

func TestRank_StructuredMatchSurvivesThreshold(t *testing.T) {
	r := newRanker(t)
	results := r.Rank([]*core.Candidate{
		candidate(1, 0.2, "Note"),
		candidate(2, 0.1, "Task"),
		candidate(3, 0.9, "Note"),
		candidate(4, -0.3, "Note", "urgent"),
	}, Request{Category: "Task", Tags: []string{"urgent"}, Threshold: 0.5, Limit: 10})

	assert.Equal(t, []core.ID{2, 4, 3}, ids(results))

	b := results[0]
	assert.InDelta(t, 3.1, b.FinalScore, 1e-9)
	assert.Equal(t, 3.0, b.CategoryBoost)
	assert.Equal(t, "category+semantic", b.MatchType)

	assert.InDelta(t, 1.2, results[1].FinalScore, 1e-9)
	assert.Equal(t, "tag", results[1].MatchType)
}

func TestRank_FinalScoreIsExactSum(t *testing.T) {
	r := newRanker(t)
	results := r.Rank([]*core.Candidate{
		candidate(1, 0.7, "Task", "urgent", "work"),
		candidate(2, 0.4, "Idea", "work"),
		candidate(3, 0.9, "Idea"),
	}, Request{Category: "Task", Tags: []string{"urgent", "work"}, Limit: 10})

	for _, res := range results {
		assert.Equal(t, res.Similarity+res.CategoryBoost+res.TagBoost, res.FinalScore)
	}
	assert.Equal(t, 3.0, results[0].TagBoost)
	assert.Equal(t, []core.ID{1, 2, 3}, ids(results))
}

func TestRank_SortedDescendingAndTruncated(t *testing.T) {
	r := newRanker(t)
	var cands []*core.Candidate
	for i := 1; i <= 20; i++ {
		cands = append(cands, candidate(core.ID(i), float64(i%7)/7, "", []string{"a", "b"}[i%2]))
	}
	results := r.Rank(cands, Request{Tags: []string{"a"}, Limit: 5})

	require.Len(t, results, 5)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].FinalScore, results[i].FinalScore)
	}
}

func TestRank_PureSimilarityWithoutFilters(t *testing.T) {
	r := newRanker(t)
	cands := []*core.Candidate{
		candidate(1, 0.3, "Task"),
		candidate(2, 0.9, "Idea"),
		candidate(3, 0.0, "Idea"),
		candidate(4, 0.6, "Task"),
	}
	first := r.Rank(cands, Request{Limit: 10})
	second := r.Rank(cands, Request{Limit: 10})

	assert.Equal(t, []core.ID{2, 4, 1, 3}, ids(first))
	assert.Equal(t, ids(first), ids(second))
	for _, res := range first {
		assert.Equal(t, res.Similarity, res.FinalScore)
	}
}

func TestRank_TiesBreakOnSimilarityThenID(t *testing.T) {
	r := newRanker(t)
	results := r.Rank([]*core.Candidate{
		candidate(5, 0.5, ""),
		candidate(2, 0.5, ""),
		candidate(9, 0.0, "Task"),
	}, Request{Category: "Task", Limit: 10})

	// 9 scores 3.0, 2 and 5 tie at 0.5.
	assert.Equal(t, []core.ID{9, 2, 5}, ids(results))
}

func TestRank_TagBoostOnlyForIntersection(t *testing.T) {
	r := newRanker(t)
	results := r.Rank([]*core.Candidate{
		candidate(1, 0.1, "", "urgent", "work"),
		candidate(2, 0.1, "", "deadline"),
	}, Request{Tags: []string{"urgent"}, Limit: 10})

	require.Len(t, results, 2)
	assert.Equal(t, core.ID(1), results[0].Memory.Id)
	assert.Equal(t, 1.5, results[0].TagBoost)
	assert.Zero(t, results[1].TagBoost)
}

func TestRank_SkipsNilCandidates(t *testing.T) {
	r := newRanker(t)
	results := r.Rank([]*core.Candidate{nil, {Similarity: 1}, candidate(1, 1, "")}, Request{})
	assert.Equal(t, []core.ID{1}, ids(results))
}

func TestMatchType(t *testing.T) {
	tests := []struct {
		name string
		date bool
		res  core.ScoredResult
		want string
	}{
		{"semantic only", false, core.ScoredResult{Similarity: 0.8}, "semantic"},
		{"nothing", false, core.ScoredResult{}, "semantic"},
		{"date only", true, core.ScoredResult{}, "date"},
		{"everything", true, core.ScoredResult{Similarity: 0.1, CategoryBoost: 3, TagBoost: 1.5}, "date+category+tag+semantic"},
		{"tag no similarity", false, core.ScoredResult{TagBoost: 1.5, Similarity: -0.2}, "tag"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchType(tt.date, &tt.res))
		})
	}
}

func TestBoosts(t *testing.T) {
	r := newRanker(t)
	assert.Empty(t, r.Boosts("", nil))
	assert.Len(t, r.Boosts("Task", []string{"a"}), 2)

	zero, err := NewRanker(Weights{})
	require.NoError(t, err)
	assert.Empty(t, zero.Boosts("Task", []string{"a"}))
}
