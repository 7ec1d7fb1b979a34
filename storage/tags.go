package storage

import (
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/mrdanjohnson/secondbrainv1/core"
)

// Validate checks op is a known operation.
func (op TagOperation) Validate() error {
	switch op {
	case TagAdd, TagRemove, TagReplace:
		return nil
	}
	return fmt.Errorf("%w: %d", ErrInvalidTagOperation, op)
}

// Apply returns current changed by op with tags. The result is normalized.
func (op TagOperation) Apply(current, tags []string) []string {
	tags = core.NormalizeTags(tags)
	switch op {
	case TagAdd:
		return core.NormalizeTags(append(slices.Clone(current), tags...))
	case TagRemove:
		return core.NormalizeTags(lo.Filter(current, func(t string, _ int) bool {
			return !lo.Contains(tags, core.NormalizeTag(t))
		}))
	case TagReplace:
		return tags
	}
	return current
}
