package core

import (
	"slices"
	"strings"
)

// DefaultCategory is assigned when no catalog category fits a memory.
const DefaultCategory = "Unsorted"

// DefaultCategories seeds an empty category catalog.
var DefaultCategories = []Category{
	{Name: "Idea", Description: "Creative ideas and inspirations", Color: "#f59e0b"},
	{Name: "Task", Description: "Actionable tasks and to-dos", Color: "#ef4444"},
	{Name: "Project", Description: "Project-related information", Color: "#8b5cf6"},
	{Name: "Reference", Description: "Reference material and notes", Color: "#10b981"},
	{Name: "Journal", Description: "Personal journal entries", Color: "#3b82f6"},
	{Name: "Meeting", Description: "Meeting notes and summaries", Color: "#ec4899"},
	{Name: "Learning", Description: "Learning resources and insights", Color: "#06b6d4"},
	{Name: DefaultCategory, Description: "Uncategorized items", Color: "#6b7280"},
}

// NormalizeTag trims and lower-cases a tag.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// NormalizeTags turns tags into a sorted set of normalized, non-empty values.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if n := NormalizeTag(t); n != "" {
			out = append(out, n)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
