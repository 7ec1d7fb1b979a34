package badger

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"slices"

	"github.com/dgraph-io/badger/v4"

	"github.com/mrdanjohnson/secondbrainv1/core"
	"github.com/mrdanjohnson/secondbrainv1/filter"
	"github.com/mrdanjohnson/secondbrainv1/storage"
)

type rankedCandidate struct {
	candidate *core.Candidate
	score     float64
}

// QueryCandidates evaluates q by scanning memories in-process.
//
// When q.Filter contains a DateRange, only the date index slice for that
// range is visited; otherwise every memory is scanned. Candidates are kept
// by similarity plus boosts and returned highest first.
func (r *MemoryRepository) QueryCandidates(ctx context.Context, q storage.Query) ([]*core.Candidate, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var ranked []rankedCandidate
	consider := func(memory *core.Memory) error {
		if !filter.Matches(q.Filter, memory) || !memory.HasEmbedding() {
			return nil
		}
		if len(memory.Vector) != len(q.Vector) {
			return fmt.Errorf("%w: query has %d dimensions, memory %d has %d",
				storage.ErrDimensionMismatch, len(q.Vector), memory.Id, len(memory.Vector))
		}
		sim := cosineSimilarity(q.Vector, memory.Vector)
		ranked = append(ranked, rankedCandidate{
			candidate: &core.Candidate{Memory: memory, Similarity: sim},
			score:     sim + filter.TotalBoost(q.Boosts, memory),
		})
		return nil
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if dr, ok := filter.Find[filter.DateRange](q.Filter); ok {
			return scanDateRange(ctx, tx, dr, consider)
		}
		return scanAll(ctx, tx, consider)
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(ranked, func(a, b rankedCandidate) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		case a.candidate.Memory.Id < b.candidate.Memory.Id:
			return -1
		case a.candidate.Memory.Id > b.candidate.Memory.Id:
			return 1
		}
		return 0
	})
	if len(ranked) > q.Limit {
		ranked = ranked[:q.Limit]
	}

	results := make([]*core.Candidate, len(ranked))
	for i, rc := range ranked {
		results[i] = rc.candidate
	}
	return results, nil
}

func scanAll(ctx context.Context, tx *badger.Txn, fn func(*core.Memory) error) error {
	return scanPrefix(tx, []byte(memoryPrefix), false, func(item *badger.Item) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		memory, err := decodeItem(item)
		if err != nil {
			return false, err
		}
		return true, fn(memory)
	})
}

// scanDateRange visits memories whose dr.Field short date lies in the range.
func scanDateRange(ctx context.Context, tx *badger.Txn, dr filter.DateRange, fn func(*core.Memory) error) error {
	prefix := makeDatePrefix(dr.Field)
	end := dr.EndShort()

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Seek(makePartialDateKey(dr.Field, dr.StartShort())); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		key := iter.Item().Key()
		short, id, ok := splitDateKey(prefix, key)
		if !ok {
			continue
		}
		if short > end {
			break
		}
		memory, err := readMemory(tx, id)
		if err != nil {
			return err
		}
		if memory == nil {
			continue
		}
		if err := fn(memory); err != nil {
			return err
		}
	}
	return nil
}

// splitDateKey parses a date index key into its short date and memory ID.
func splitDateKey(prefix, key []byte) (string, core.ID, bool) {
	if !bytes.HasPrefix(key, prefix) || len(key)-len(prefix) < 9 {
		return "", 0, false
	}
	rest := key[len(prefix):]
	return string(rest[:len(rest)-9]), core.ID(binary.BigEndian.Uint64(rest[len(rest)-8:])), true
}

// cosineSimilarity returns 1 - cosine distance of a and b.
func cosineSimilarity(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
