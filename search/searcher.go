package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/samber/lo"

	"github.com/mrdanjohnson/secondbrainv1/ai"
	"github.com/mrdanjohnson/secondbrainv1/analyzer"
	"github.com/mrdanjohnson/secondbrainv1/core"
	"github.com/mrdanjohnson/secondbrainv1/dateparse"
	"github.com/mrdanjohnson/secondbrainv1/filter"
	"github.com/mrdanjohnson/secondbrainv1/ranking"
	"github.com/mrdanjohnson/secondbrainv1/storage"
)

const (
	// DefaultLimit is the result count used when Options.Limit is zero.
	DefaultLimit = 20
	// DefaultThreshold is the similarity floor used when Options.Threshold is nil.
	DefaultThreshold = 0.5
	// DefaultMaxFetch caps the candidate over-fetch.
	DefaultMaxFetch = 100
	// DefaultEmbedTimeout bounds the query embedding call.
	DefaultEmbedTimeout = 15 * time.Second

	overFetchFactor = 3
)

// Options are per-call search parameters.
type Options struct {
	// Limit is the maximum number of results. Zero selects DefaultLimit.
	Limit int
	// Threshold is the similarity a result without boosts must reach.
	// Nil selects DefaultThreshold.
	Threshold *float64
	// Category overrides the category found in the query text.
	Category string
	// Tags override the tags found in the query text.
	Tags []string
	// DatePhrase overrides the date phrase found in the query text.
	DatePhrase string
}

func (o Options) resolve() (int, float64, error) {
	if o.Limit < 0 {
		return 0, 0, fmt.Errorf("%w: negative limit %d", ErrInvalidOptions, o.Limit)
	}
	limit := o.Limit
	if limit == 0 {
		limit = DefaultLimit
	}
	threshold := DefaultThreshold
	if o.Threshold != nil {
		if math.IsNaN(*o.Threshold) {
			return 0, 0, fmt.Errorf("%w: threshold is NaN", ErrInvalidOptions)
		}
		threshold = *o.Threshold
	}
	return limit, threshold, nil
}

// Filters are the structured filters one search applied.
type Filters struct {
	Category string
	Tags     []string
	// DateRange is nil when no date phrase was found or it did not resolve.
	DateRange *dateparse.Range
}

// Metadata summarizes a search for callers deciding on a retry and for
// presentation layers.
type Metadata struct {
	Total            int
	DateFiltered     bool
	CategoryFiltered bool
	TagFiltered      bool
	// AvgScore is the mean final score of the results, rounded to two
	// decimals. Zero when there are no results.
	AvgScore float64
}

// Response is the result of one search.
type Response struct {
	Results  []*core.ScoredResult
	Analysis *analyzer.Analysis
	Filters  Filters
	Metadata Metadata
}

// Searcher runs the hybrid retrieval pipeline. It holds no per-request state
// and is safe for concurrent use.
type Searcher struct {
	querier      storage.CandidateQuerier
	analyzer     *analyzer.Analyzer
	embedder     ai.Embedder
	ranker       *ranking.Ranker
	embedTimeout time.Duration
	maxFetch     int
	logger       *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithEmbedTimeout bounds the query embedding call.
// Default is DefaultEmbedTimeout.
func WithEmbedTimeout(timeout time.Duration) Option {
	return func(s *Searcher) error {
		if timeout <= 0 {
			return fmt.Errorf("%w: embed timeout must be positive, got %v", ErrInvalidOptions, timeout)
		}
		s.embedTimeout = timeout
		return nil
	}
}

// WithWeights sets the category and tag boost weights.
// Default is ranking.DefaultWeights().
func WithWeights(weights ranking.Weights) Option {
	return func(s *Searcher) error {
		r, err := ranking.NewRanker(weights)
		if err != nil {
			return err
		}
		s.ranker = r
		return nil
	}
}

// WithMaxFetch caps the number of candidates requested from the store.
// Default is DefaultMaxFetch.
func WithMaxFetch(n int) Option {
	return func(s *Searcher) error {
		if n <= 0 {
			return fmt.Errorf("%w: max fetch must be positive, got %d", ErrInvalidOptions, n)
		}
		s.maxFetch = n
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	querier storage.CandidateQuerier,
	queryAnalyzer *analyzer.Analyzer,
	embedder ai.Embedder,
	opts ...Option,
) (*Searcher, error) {
	if querier == nil {
		return nil, ErrQuerierRequired
	}
	if queryAnalyzer == nil {
		return nil, ErrAnalyzerRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	ranker, err := ranking.NewRanker(ranking.DefaultWeights())
	if err != nil {
		return nil, err
	}
	s := &Searcher{
		querier:      querier,
		analyzer:     queryAnalyzer,
		embedder:     embedder,
		ranker:       ranker,
		embedTimeout: DefaultEmbedTimeout,
		maxFetch:     DefaultMaxFetch,
		logger:       slog.Default().With("component", "search"),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search runs query through the pipeline and returns the ranked results.
func (s *Searcher) Search(ctx context.Context, query string, opts Options) (*Response, error) {
	return s.SearchWithMonitor(ctx, query, opts, nil)
}

// SearchWithMonitor runs a search with monitoring.
// The monitor receives callbacks at each stage of the search process.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, opts Options, monitor SearchMonitor) (*Response, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	limit, threshold, err := opts.resolve()
	if err != nil {
		return nil, err
	}

	monitor.Start(query)

	// 1. Read the query against the live catalog
	analysis, err := s.analyzer.Analyze(ctx, query)
	if err != nil {
		s.logger.Error("error analyzing query", "query", query, "err", err)
		return nil, fmt.Errorf("%w: %w: %w", ErrSearchFailed, ErrStoreFailed, err)
	}
	filters := s.filtersFor(analysis, opts)
	monitor.AfterAnalysis(analysis)

	// 2. Resolve the date phrase into a hard range
	datePhrase := lo.CoalesceOrEmpty(opts.DatePhrase, analysis.DatePhrase)
	if datePhrase != "" {
		r, err := s.analyzer.Resolver().Resolve(datePhrase, query)
		switch {
		case err == nil:
			filters.DateRange = r
		case errors.Is(err, dateparse.ErrUnresolved):
			s.logger.Warn("could not resolve date phrase", "phrase", datePhrase, "err", err)
		default:
			return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
		}
	}
	monitor.AfterDateResolution(filters.DateRange)

	// 3. Embed what is left of the query
	text := analysis.EmbeddingText()
	vector, err := s.embed(ctx, text)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, fmt.Errorf("%w: %w: %w", ErrSearchFailed, ErrEmbeddingFailed, err)
	}
	monitor.AfterEmbedding(text, vector)

	// 4. Over-fetch candidates under the hard filter, ordered with the boosts
	hard := []filter.Predicate{filter.HasEmbedding{}}
	if filters.DateRange != nil {
		hard = append(hard, filters.DateRange.Predicate())
	}
	q := storage.Query{
		Vector: vector,
		Filter: filter.All(hard...),
		Boosts: s.ranker.Boosts(filters.Category, filters.Tags),
		Limit:  min(limit*overFetchFactor, s.maxFetch),
	}
	candidates, err := s.querier.QueryCandidates(ctx, q)
	if err != nil {
		s.logger.Error("error querying for candidates", "err", err)
		return nil, fmt.Errorf("%w: %w: %w", ErrSearchFailed, ErrStoreFailed, err)
	}
	monitor.AfterCandidateQuery(candidates)

	// 5. Score, filter and sort
	results := s.ranker.Rank(candidates, ranking.Request{
		Category:    filters.Category,
		Tags:        filters.Tags,
		Threshold:   threshold,
		Limit:       limit,
		DateApplied: filters.DateRange != nil,
	})
	monitor.Finish(results)

	s.logger.Debug("search complete",
		"query", query,
		"candidates", len(candidates),
		"results", len(results),
		"date_filtered", filters.DateRange != nil,
		"category", filters.Category,
		"tags", filters.Tags)

	return &Response{
		Results:  results,
		Analysis: analysis,
		Filters:  filters,
		Metadata: Metadata{
			Total:            len(results),
			DateFiltered:     filters.DateRange != nil,
			CategoryFiltered: filters.Category != "",
			TagFiltered:      len(filters.Tags) > 0,
			AvgScore:         averageScore(results),
		},
	}, nil
}

// filtersFor merges explicit options over what the analyzer found.
func (s *Searcher) filtersFor(analysis *analyzer.Analysis, opts Options) Filters {
	f := Filters{
		Category: lo.CoalesceOrEmpty(opts.Category, analysis.Category),
		Tags:     analysis.Tags,
	}
	if len(opts.Tags) > 0 {
		f.Tags = core.NormalizeTags(opts.Tags)
	}
	return f
}

func (s *Searcher) embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, s.embedTimeout)
	defer cancel()
	vector, err := s.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vector) == 0 {
		return nil, errors.New("embedder returned an empty vector")
	}
	return vector, nil
}

func averageScore(results []*core.ScoredResult) float64 {
	if len(results) == 0 {
		return 0
	}
	sum := lo.SumBy(results, func(r *core.ScoredResult) float64 { return r.FinalScore })
	return math.Round(sum/float64(len(results))*100) / 100
}
