package postgres

import (
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrdanjohnson/secondbrainv1/core"
	"github.com/mrdanjohnson/secondbrainv1/filter"
	"github.com/mrdanjohnson/secondbrainv1/storage"
)

func TestLowerFilter(t *testing.T) {
	start := time.Date(2025, 6, 9, 0, 0, 0, 0, time.Local)
	end := time.Date(2025, 6, 15, 23, 59, 59, 0, time.Local)

	tests := []struct {
		name string
		pred filter.Predicate
		sql  string
		vars []any
	}{
		{"nil matches all", nil, "TRUE", nil},
		{"embedding", filter.HasEmbedding{}, "embedding IS NOT NULL", nil},
		{
			"due range",
			filter.DateRange{Field: core.DateFieldDue, Start: start, End: end},
			"due_date_short BETWEEN ? AND ?",
			[]any{"2025-06-09", "2025-06-15"},
		},
		{"category", filter.CategoryEquals{Category: "Task"}, "category = ?", []any{"Task"}},
		{
			"tags normalized",
			filter.TagsOverlap{Tags: []string{"Work", "urgent"}},
			"tags && ?::text[]",
			[]any{pq.StringArray{"urgent", "work"}},
		},
		{"empty tags", filter.TagsOverlap{}, "FALSE", nil},
		{
			"conjunction",
			filter.All(filter.HasEmbedding{}, filter.DateRange{Field: core.DateFieldOccurrence, Start: start, End: end}),
			"(embedding IS NOT NULL) AND (occurrence_date_short BETWEEN ? AND ?)",
			[]any{"2025-06-09", "2025-06-15"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := lowerFilter(tt.pred)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, expr.SQL)
			assert.Equal(t, tt.vars, expr.Vars)
		})
	}
}

func TestLowerFilter_UnknownDateField(t *testing.T) {
	_, err := lowerFilter(filter.DateRange{Field: "birthday"})
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestScoreExpr(t *testing.T) {
	vec := pgvector.NewVector([]float32{1, 0})
	expr, err := scoreExpr(vec, []filter.Boost{
		filter.CategoryBoost("Task", 3),
		filter.TagBoost([]string{"Urgent", "work"}, 1.5),
	})
	require.NoError(t, err)

	assert.Equal(t, "(1 - (embedding <=> ?))"+
		" + (CASE WHEN category = ? THEN ?::float8 ELSE 0 END)"+
		" + (?::float8 * cardinality(ARRAY(SELECT unnest(tags) INTERSECT SELECT unnest(?::text[]))))",
		expr.SQL)
	assert.Equal(t, []any{vec, "Task", 3.0, 1.5, pq.StringArray{"urgent", "work"}}, expr.Vars)
}

func TestScoreExpr_NoBoosts(t *testing.T) {
	vec := pgvector.NewVector([]float32{1})
	expr, err := scoreExpr(vec, nil)
	require.NoError(t, err)
	assert.Equal(t, similaritySQL, expr.SQL)
	assert.Len(t, expr.Vars, 1)
}

func TestRowRoundTrip(t *testing.T) {
	due := time.Date(2025, 6, 12, 9, 0, 0, 0, time.UTC)
	m := &core.Memory{
		Id:                7,
		RawContent:        "Send report",
		StructuredContent: map[string]any{"summary": "report"},
		Category:          "Task",
		Tags:              []string{"work"},
		Vector:            []float32{0.5, 0.5},
	}
	m.SetDate(core.DateFieldDue, due)

	row, err := toRow(m)
	require.NoError(t, err)
	assert.Equal(t, m.Dates[core.DateFieldDue].Short, row.DueShort)
	assert.Nil(t, row.OccurrenceDate)

	back, err := row.toMemory()
	require.NoError(t, err)
	assert.Equal(t, m.Id, back.Id)
	assert.Equal(t, m.Vector, back.Vector)
	assert.Equal(t, m.Dates, back.Dates)
	assert.Equal(t, "report", back.StructuredContent["summary"])
}
