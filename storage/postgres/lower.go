package postgres

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm/clause"

	"github.com/mrdanjohnson/secondbrainv1/core"
	"github.com/mrdanjohnson/secondbrainv1/filter"
	"github.com/mrdanjohnson/secondbrainv1/storage"
)

const similaritySQL = "(1 - (embedding <=> ?))"

// lowerFilter renders a predicate tree as a WHERE condition.
func lowerFilter(p filter.Predicate) (clause.Expr, error) {
	switch v := p.(type) {
	case nil:
		return clause.Expr{SQL: "TRUE"}, nil
	case filter.DateRange:
		cols, ok := dateColumns[v.Field]
		if !ok {
			return clause.Expr{}, fmt.Errorf("%w: %w: %q", storage.ErrInvalidQuery, core.ErrInvalidDateField, v.Field)
		}
		return clause.Expr{
			SQL:  cols.short + " BETWEEN ? AND ?",
			Vars: []any{v.StartShort(), v.EndShort()},
		}, nil
	case filter.CategoryEquals:
		return clause.Expr{SQL: "category = ?", Vars: []any{v.Category}}, nil
	case filter.TagsOverlap:
		tags := core.NormalizeTags(v.Tags)
		if len(tags) == 0 {
			return clause.Expr{SQL: "FALSE"}, nil
		}
		return clause.Expr{SQL: "tags && ?::text[]", Vars: []any{pq.StringArray(tags)}}, nil
	case filter.HasEmbedding:
		return clause.Expr{SQL: "embedding IS NOT NULL"}, nil
	case filter.And:
		if len(v.Terms) == 0 {
			return clause.Expr{SQL: "TRUE"}, nil
		}
		parts := make([]string, 0, len(v.Terms))
		var vars []any
		for _, term := range v.Terms {
			expr, err := lowerFilter(term)
			if err != nil {
				return clause.Expr{}, err
			}
			parts = append(parts, "("+expr.SQL+")")
			vars = append(vars, expr.Vars...)
		}
		return clause.Expr{SQL: strings.Join(parts, " AND "), Vars: vars}, nil
	}
	return clause.Expr{}, fmt.Errorf("%w: unsupported predicate %T", storage.ErrInvalidQuery, p)
}

// lowerBoost renders a boost as a numeric expression. A per-match tag
// boost counts the distinct shared tags, matching filter.CountTagMatches.
func lowerBoost(b filter.Boost) (clause.Expr, error) {
	if to, ok := b.When.(filter.TagsOverlap); ok && b.PerMatch {
		return clause.Expr{
			SQL:  "(?::float8 * cardinality(ARRAY(SELECT unnest(tags) INTERSECT SELECT unnest(?::text[]))))",
			Vars: []any{b.Weight, pq.StringArray(core.NormalizeTags(to.Tags))},
		}, nil
	}
	cond, err := lowerFilter(b.When)
	if err != nil {
		return clause.Expr{}, err
	}
	return clause.Expr{
		SQL:  "(CASE WHEN " + cond.SQL + " THEN ?::float8 ELSE 0 END)",
		Vars: append(cond.Vars, b.Weight),
	}, nil
}

// scoreExpr renders similarity plus every boost.
func scoreExpr(vector pgvector.Vector, boosts []filter.Boost) (clause.Expr, error) {
	expr := clause.Expr{SQL: similaritySQL, Vars: []any{vector}}
	for _, b := range boosts {
		if b.When == nil {
			continue
		}
		be, err := lowerBoost(b)
		if err != nil {
			return clause.Expr{}, err
		}
		expr.SQL += " + " + be.SQL
		expr.Vars = append(expr.Vars, be.Vars...)
	}
	return expr, nil
}
