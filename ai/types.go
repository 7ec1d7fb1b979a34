package ai

import (
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/mrdanjohnson/secondbrainv1/core"
)

// Sentiments are the accepted sentiment labels. The first is the default.
var Sentiments = []string{"neutral", "positive", "negative"}

// Priorities are the accepted priority labels. Priority is optional.
var Priorities = []string{"high", "medium", "low"}

// MaxTags caps the tags kept from a classification.
const MaxTags = 5

// Classification is the structured form of a memory's content.
type Classification struct {
	Summary   string     `json:"summary"`
	Category  string     `json:"category"`
	Tags      []string   `json:"tags"`
	Sentiment string     `json:"sentiment"`
	Priority  string     `json:"priority,omitempty"`
	Entities  []string   `json:"entities,omitempty"`
	DueDate   *time.Time `json:"-"`
}

// Normalize constrains a model's answer: the category must name one of
// categories (matched case-insensitively) or becomes core.DefaultCategory,
// tags are normalized and capped at MaxTags, and unknown sentiment or
// priority labels are replaced by their defaults.
func (c *Classification) Normalize(categories []string) {
	c.Summary = strings.TrimSpace(c.Summary)

	category, ok := lo.Find(categories, func(name string) bool {
		return strings.EqualFold(name, strings.TrimSpace(c.Category))
	})
	if !ok {
		category = core.DefaultCategory
	}
	c.Category = category

	c.Tags = core.NormalizeTags(c.Tags)
	if len(c.Tags) > MaxTags {
		c.Tags = c.Tags[:MaxTags]
	}

	c.Sentiment = strings.ToLower(strings.TrimSpace(c.Sentiment))
	if !lo.Contains(Sentiments, c.Sentiment) {
		c.Sentiment = Sentiments[0]
	}
	c.Priority = strings.ToLower(strings.TrimSpace(c.Priority))
	if !lo.Contains(Priorities, c.Priority) {
		c.Priority = ""
	}

	c.Entities = lo.Uniq(lo.Filter(lo.Map(c.Entities, func(e string, _ int) string {
		return strings.TrimSpace(e)
	}), func(e string, _ int) bool { return e != "" }))
}

// StructuredContent returns the fields stored on core.Memory.StructuredContent.
func (c *Classification) StructuredContent() map[string]any {
	out := map[string]any{
		"summary":   c.Summary,
		"sentiment": c.Sentiment,
	}
	if c.Priority != "" {
		out["priority"] = c.Priority
	}
	if len(c.Entities) > 0 {
		out["entities"] = c.Entities
	}
	return out
}
