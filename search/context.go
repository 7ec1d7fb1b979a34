package search

import (
	"strings"

	"github.com/mrdanjohnson/secondbrainv1/core"
)

// FormatContext renders results as one line per memory, for use as
// retrieval context in a prompt. It returns "" for no results.
func FormatContext(results []*core.ScoredResult) string {
	var b strings.Builder
	for _, r := range results {
		if r == nil || r.Memory == nil {
			continue
		}
		tags := "none"
		if len(r.Memory.Tags) > 0 {
			tags = strings.Join(r.Memory.Tags, ", ")
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(strings.TrimSpace(r.Memory.RawContent))
		b.WriteString(" (Category: ")
		b.WriteString(r.Memory.Category)
		b.WriteString(", Tags: ")
		b.WriteString(tags)
		b.WriteString(")")
	}
	return b.String()
}
