// Package analyzer extracts structured intent from a free-text search query.
//
// The analyzer finds a date phrase, a category and any tags mentioned in the
// query, removes them, and returns the residual text to embed. Category and
// tag vocabularies are read from a CatalogProvider on every call so the
// result reflects the data currently stored.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mrdanjohnson/secondbrainv1/core"
	"github.com/mrdanjohnson/secondbrainv1/dateparse"
)

// CatalogProvider supplies the live category and tag vocabulary.
type CatalogProvider interface {
	Catalog(ctx context.Context) (*core.Catalog, error)
}

// SearchType labels what the analyzer found. It is informational only.
type SearchType string

const (
	SearchTypeSemantic SearchType = "semantic"
	SearchTypeHybrid   SearchType = "hybrid"
	SearchTypeFiltered SearchType = "filtered"
)

// TieBreak chooses between several categories matching one query.
type TieBreak int

const (
	// TieBreakFirst binds the first matching category in catalog order.
	TieBreakFirst TieBreak = iota
	// TieBreakLongest binds the category whose matched text is longest,
	// falling back to catalog order on equal length.
	TieBreakLongest
)

// MatchMode controls how catalog terms are found in a query.
type MatchMode int

const (
	// MatchSubstring finds a term anywhere in the query, so "work" is found
	// in "homework".
	MatchSubstring MatchMode = iota
	// MatchWord only finds a term as a whole word, optionally pluralized.
	MatchWord
)

// Analysis is the structured reading of a query.
type Analysis struct {
	OriginalQuery string
	CleanedQuery  string
	DatePhrase    string
	Category      string
	Tags          []string
	SearchType    SearchType
}

// EmbeddingText returns the text to embed: the cleaned query, or the
// original when nothing is left after stripping.
func (a *Analysis) EmbeddingText() string {
	if a.CleanedQuery != "" {
		return a.CleanedQuery
	}
	return a.OriginalQuery
}

// Analyzer turns queries into Analysis values. It is safe for concurrent use.
type Analyzer struct {
	resolver         *dateparse.Resolver
	catalog          CatalogProvider
	categorySynonyms []SynonymGroup
	tagSynonyms      []SynonymGroup
	tieBreak         TieBreak
	match            *matcher
	logger           *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer) error

// WithLogger sets the logger. nil selects slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// WithCategorySynonyms replaces the category synonym table.
func WithCategorySynonyms(groups []SynonymGroup) Option {
	return func(a *Analyzer) error {
		a.categorySynonyms = groups
		return nil
	}
}

// WithTagSynonyms replaces the tag synonym table.
func WithTagSynonyms(groups []SynonymGroup) Option {
	return func(a *Analyzer) error {
		a.tagSynonyms = groups
		return nil
	}
}

// WithTieBreak sets how competing category matches are resolved.
func WithTieBreak(tb TieBreak) Option {
	return func(a *Analyzer) error {
		if tb != TieBreakFirst && tb != TieBreakLongest {
			return fmt.Errorf("%w: %d", ErrInvalidTieBreak, tb)
		}
		a.tieBreak = tb
		return nil
	}
}

// WithMatchMode sets how catalog terms are found. The default is
// MatchSubstring.
func WithMatchMode(mode MatchMode) Option {
	return func(a *Analyzer) error {
		switch mode {
		case MatchSubstring:
			a.match = &matcher{}
		case MatchWord:
			a.match = &matcher{word: true}
		default:
			return fmt.Errorf("%w: %d", ErrInvalidMatchMode, mode)
		}
		return nil
	}
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(resolver *dateparse.Resolver, catalog CatalogProvider, opts ...Option) (*Analyzer, error) {
	if resolver == nil {
		return nil, ErrResolverRequired
	}
	if catalog == nil {
		return nil, ErrCatalogRequired
	}
	a := &Analyzer{
		resolver:         resolver,
		catalog:          catalog,
		categorySynonyms: DefaultCategorySynonyms,
		tagSynonyms:      DefaultTagSynonyms,
		tieBreak:         TieBreakFirst,
		match:            &matcher{},
		logger:           slog.Default().With("component", "analyzer"),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Resolver returns the date resolver the analyzer extracts phrases with.
func (a *Analyzer) Resolver() *dateparse.Resolver {
	return a.resolver
}

// Analyze reads the live catalog and analyzes query against it.
func (a *Analyzer) Analyze(ctx context.Context, query string) (*Analysis, error) {
	catalog, err := a.catalog.Catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	return a.AnalyzeWithCatalog(query, catalog), nil
}

// AnalyzeWithCatalog analyzes query against a given catalog snapshot.
func (a *Analyzer) AnalyzeWithCatalog(query string, catalog *core.Catalog) *Analysis {
	if catalog == nil {
		catalog = &core.Catalog{}
	}
	analysis := &Analysis{
		OriginalQuery: query,
		CleanedQuery:  query,
		SearchType:    SearchTypeSemantic,
	}

	// Category and tag detection run on the query with the date phrase
	// removed so date words are never read as vocabulary.
	scan := query
	if phrase, ok := a.resolver.Extract(query); ok {
		analysis.DatePhrase = phrase
		analysis.CleanedQuery = stripLiteral(analysis.CleanedQuery, phrase)
		scan = stripLiteral(scan, phrase)
		analysis.SearchType = SearchTypeHybrid
	}

	if category, term, ok := a.matchCategory(scan, catalog.Categories); ok {
		analysis.Category = category
		analysis.CleanedQuery = a.match.strip(analysis.CleanedQuery, term)
		analysis.SearchType = SearchTypeFiltered
		a.logger.Debug("matched category", "category", category, "term", term)
	}

	for _, tag := range catalog.Tags {
		term, ok := a.matchTerm(scan, tag, a.tagSynonyms)
		if !ok {
			continue
		}
		analysis.Tags = append(analysis.Tags, tag)
		analysis.CleanedQuery = a.match.strip(analysis.CleanedQuery, term)
		analysis.SearchType = SearchTypeFiltered
		a.logger.Debug("matched tag", "tag", tag, "term", term)
	}

	analysis.CleanedQuery = collapseSpaces(analysis.CleanedQuery)
	// Stripping vocabulary can splice a date phrase back together.
	for analysis.DatePhrase != "" && containsFold(analysis.CleanedQuery, analysis.DatePhrase) {
		analysis.CleanedQuery = collapseSpaces(stripLiteral(analysis.CleanedQuery, analysis.DatePhrase))
	}

	a.logger.Debug("query analyzed",
		"original", analysis.OriginalQuery,
		"cleaned", analysis.CleanedQuery,
		"date_phrase", analysis.DatePhrase,
		"category", analysis.Category,
		"tags", analysis.Tags,
		"search_type", analysis.SearchType)

	return analysis
}

// matchCategory binds at most one category. It returns the catalog name and
// the term that matched it.
func (a *Analyzer) matchCategory(text string, categories []string) (string, string, bool) {
	var (
		bestCategory string
		bestTerm     string
		bestLen      int
		found        bool
	)
	for _, category := range categories {
		term, ok := a.matchTerm(text, category, a.categorySynonyms)
		if !ok {
			continue
		}
		if a.tieBreak == TieBreakFirst {
			return category, term, true
		}
		matched, _ := a.match.find(text, term)
		if !found || len(matched) > bestLen {
			bestCategory, bestTerm, bestLen, found = category, term, len(matched), true
		}
	}
	return bestCategory, bestTerm, found
}

// matchTerm tests name directly and then each of its synonyms, returning the
// first term present in text.
func (a *Analyzer) matchTerm(text, name string, groups []SynonymGroup) (string, bool) {
	if _, ok := a.match.find(text, name); ok {
		return name, true
	}
	for _, syn := range synonymsFor(name, groups) {
		if _, ok := a.match.find(text, syn); ok {
			return syn, true
		}
	}
	return "", false
}
