// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reembed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/mrdanjohnson/secondbrainv1/ai"
	"github.com/mrdanjohnson/secondbrainv1/core"
	"github.com/mrdanjohnson/secondbrainv1/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of memories to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of memories)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for each embedding call
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// OnlyMissing restricts the run to memories without an embedding,
	// backfilling what the ingestion pipeline did not finish.
	OnlyMissing bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Validate reports the first setting that cannot drive a run.
func (c *Config) Validate() error {
	switch {
	case c.BatchSize <= 0:
		return fmt.Errorf("%w: batch-size must be greater than 0", ErrInvalidConfig)
	case c.ReportInterval <= 0:
		return fmt.Errorf("%w: report-interval must be greater than 0", ErrInvalidConfig)
	case c.MaxRetries <= 0:
		return fmt.Errorf("%w: max-retries must be greater than 0", ErrInvalidConfig)
	case c.RetryDelay < 0:
		return fmt.Errorf("%w: retry-delay must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Stats summarizes a completed run.
type Stats struct {
	Scanned  int
	Embedded int
	Elapsed  time.Duration
}

// Reembedder regenerates the embeddings of stored memories.
type Reembedder struct {
	repo      storage.MemoryRepository
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *MemoryIterator
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(repo storage.MemoryRepository, embedder ai.Embedder, config *Config, progress io.Writer) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reembedder{
		repo:      repo,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(repo, embedder, config.MaxRetries, config.RetryDelay),
		iterator:  NewMemoryIterator(repo, config.BatchSize, config.OnlyMissing),
	}
}

// Run embeds every stored memory, or only those missing a vector when
// Config.OnlyMissing is set, reporting progress to the configured writer.
func (r *Reembedder) Run(ctx context.Context) (*Stats, error) {
	total, err := r.repo.CountMemories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count memories: %w", err)
	}
	if total == 0 {
		fmt.Fprintf(r.progress, "No memories found in database (0 memories)\n")
		return &Stats{}, nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d memories (batch size: %d, only missing: %t)\n",
		total, r.iterator.batchSize, r.config.OnlyMissing)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	stats := &Stats{}
	err = r.iterator.ForEach(ctx, func(memories []*core.Memory, scanned int) error {
		if err := r.processor.Process(ctx, memories); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		stats.Embedded += len(memories)
		stats.Scanned = scanned
		tracker.Update(scanned)
		return nil
	})
	if err != nil {
		return stats, err
	}

	tracker.Finish()

	stats.Scanned = total
	stats.Elapsed = tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Embedded %d of %d memories in %v\n",
		stats.Embedded, total, stats.Elapsed.Round(time.Millisecond))
	return stats, nil
}
