package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrdanjohnson/secondbrainv1/core"
)

func memoryOn(field core.DateField, day time.Time) *core.Memory {
	m := &core.Memory{RawContent: "x", Vector: []float32{1}}
	m.SetDate(field, day)
	return m
}

func TestMatches_DateRange(t *testing.T) {
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.Local)
	end := time.Date(2025, 1, 12, 23, 59, 59, 0, time.Local)
	r := DateRange{Field: core.DateFieldOccurrence, Start: start, End: end}

	tests := []struct {
		name string
		m    *core.Memory
		want bool
	}{
		{"first day inclusive", memoryOn(core.DateFieldOccurrence, start.Add(3*time.Hour)), true},
		{"last day inclusive", memoryOn(core.DateFieldOccurrence, end.Add(-time.Hour)), true},
		{"day before", memoryOn(core.DateFieldOccurrence, start.Add(-time.Hour)), false},
		{"day after", memoryOn(core.DateFieldOccurrence, end.Add(time.Hour)), false},
		{"other field only", memoryOn(core.DateFieldDue, start.Add(time.Hour)), false},
		{"no dates", &core.Memory{RawContent: "x"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(r, tt.m))
		})
	}
}

func TestMatches_DateRangeAcrossYearBoundary(t *testing.T) {
	r := DateRange{
		Field: core.DateFieldOccurrence,
		Start: time.Date(2024, 12, 28, 0, 0, 0, 0, time.Local),
		End:   time.Date(2025, 1, 3, 0, 0, 0, 0, time.Local),
	}
	assert.True(t, Matches(r, memoryOn(core.DateFieldOccurrence, time.Date(2024, 12, 30, 9, 0, 0, 0, time.Local))))
	assert.True(t, Matches(r, memoryOn(core.DateFieldOccurrence, time.Date(2025, 1, 2, 9, 0, 0, 0, time.Local))))
	assert.False(t, Matches(r, memoryOn(core.DateFieldOccurrence, time.Date(2024, 1, 2, 9, 0, 0, 0, time.Local))))
}

func TestMatches_Composite(t *testing.T) {
	m := &core.Memory{RawContent: "x", Category: "Work", Tags: []string{"urgent", "q3"}, Vector: []float32{1}}

	assert.True(t, Matches(nil, m))
	assert.True(t, Matches(HasEmbedding{}, m))
	assert.False(t, Matches(HasEmbedding{}, &core.Memory{RawContent: "x"}))
	assert.True(t, Matches(CategoryEquals{Category: "Work"}, m))
	assert.False(t, Matches(CategoryEquals{Category: "work"}, m))
	assert.True(t, Matches(TagsOverlap{Tags: []string{"URGENT"}}, m))
	assert.False(t, Matches(TagsOverlap{Tags: []string{"home"}}, m))
	assert.True(t, Matches(And{}, m))
	assert.False(t, Matches(And{Terms: []Predicate{HasEmbedding{}, CategoryEquals{Category: "Home"}}}, m))
	assert.False(t, Matches(HasEmbedding{}, nil))
}

func TestAll(t *testing.T) {
	assert.Nil(t, All())
	assert.Nil(t, All(nil, And{}))
	assert.Equal(t, HasEmbedding{}, All(nil, HasEmbedding{}))

	cat := CategoryEquals{Category: "Work"}
	got := All(HasEmbedding{}, And{Terms: []Predicate{cat, And{Terms: []Predicate{TagsOverlap{Tags: []string{"a"}}}}}})
	and, ok := got.(And)
	require.True(t, ok)
	assert.Equal(t, []Predicate{HasEmbedding{}, cat, TagsOverlap{Tags: []string{"a"}}}, and.Terms)
}

func TestFind(t *testing.T) {
	r := DateRange{Field: core.DateFieldDue}
	p := All(HasEmbedding{}, r)

	got, ok := Find[DateRange](p)
	require.True(t, ok)
	assert.Equal(t, r, got)

	_, ok = Find[CategoryEquals](p)
	assert.False(t, ok)
}

func TestCountTagMatches(t *testing.T) {
	assert.Equal(t, 0, CountTagMatches(nil, []string{"a"}))
	assert.Equal(t, 2, CountTagMatches([]string{"a", "b", "c"}, []string{"b", "c", "d"}))
	assert.Equal(t, 1, CountTagMatches([]string{"a"}, []string{"a", "A", " a "}))
}

func TestBoost_Score(t *testing.T) {
	m := &core.Memory{RawContent: "x", Category: "Work", Tags: []string{"urgent", "q3", "client"}}

	assert.Equal(t, 3.0, CategoryBoost("Work", 3.0).Score(m))
	assert.Equal(t, 0.0, CategoryBoost("Home", 3.0).Score(m))
	assert.Equal(t, 3.0, TagBoost([]string{"urgent", "q3", "home"}, 1.5).Score(m))
	assert.Equal(t, 0.0, TagBoost(nil, 1.5).Score(m))

	flat := Boost{When: TagsOverlap{Tags: []string{"urgent", "q3"}}, Weight: 2}
	assert.Equal(t, 2.0, flat.Score(m))

	assert.Equal(t, 6.0, TotalBoost([]Boost{CategoryBoost("Work", 3.0), TagBoost([]string{"urgent", "client"}, 1.5)}, m))
}
