package search

import (
	"context"

	"github.com/samber/lo"
)

// SearchWithFallback runs Search and, when nothing matched and no date
// filter was active, retries once for the single closest memory with the
// threshold lifted. A date-filtered empty result is kept as is: an empty
// window is a real answer.
func (s *Searcher) SearchWithFallback(ctx context.Context, query string, opts Options) (*Response, error) {
	resp, err := s.Search(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	if len(resp.Results) > 0 || resp.Metadata.DateFiltered {
		return resp, nil
	}

	s.logger.Debug("no results met threshold, retrying without one", "query", query)
	retry := opts
	retry.Limit = 1
	retry.Threshold = lo.ToPtr(0.0)
	return s.Search(ctx, query, retry)
}
