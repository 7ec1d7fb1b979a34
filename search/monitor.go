package search

import (
	"github.com/mrdanjohnson/secondbrainv1/analyzer"
	"github.com/mrdanjohnson/secondbrainv1/core"
	"github.com/mrdanjohnson/secondbrainv1/dateparse"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterAnalysis(analysis *analyzer.Analysis)
	// AfterDateResolution receives nil when no date filter applies.
	AfterDateResolution(dateRange *dateparse.Range)
	AfterEmbedding(text string, vector []float32)
	AfterCandidateQuery(candidates []*core.Candidate)
	Finish(results []*core.ScoredResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                          {}
func (n *noopMonitor) AfterAnalysis(_ *analyzer.Analysis)      {}
func (n *noopMonitor) AfterDateResolution(_ *dateparse.Range)  {}
func (n *noopMonitor) AfterEmbedding(_ string, _ []float32)    {}
func (n *noopMonitor) AfterCandidateQuery(_ []*core.Candidate) {}
func (n *noopMonitor) Finish(_ []*core.ScoredResult)           {}
