package analyzer

import "strings"

// SynonymGroup is a set of interchangeable terms. A catalog entry belongs to
// every group that lists it as Canonical or among its Variants, and a query
// mentioning any member of such a group matches the entry.
type SynonymGroup struct {
	Canonical string
	Variants  []string
}

// DefaultCategorySynonyms holds the category synonym table.
var DefaultCategorySynonyms = []SynonymGroup{
	{Canonical: "meeting", Variants: []string{"meeting", "meetings", "event", "events", "call", "calls"}},
	{Canonical: "task", Variants: []string{"task", "tasks", "todo", "todos", "to-do", "to-dos"}},
	{Canonical: "email", Variants: []string{"email", "emails", "message", "messages"}},
	{Canonical: "note", Variants: []string{"note", "notes", "memo", "memos"}},
	{Canonical: "idea", Variants: []string{"idea", "ideas", "thought", "thoughts"}},
	{Canonical: "project", Variants: []string{"project", "projects"}},
	{Canonical: "work", Variants: []string{"work", "job"}},
	{Canonical: "personal", Variants: []string{"personal", "private"}},
	{Canonical: "journal", Variants: []string{"journal", "diary"}},
	{Canonical: "learning", Variants: []string{"learning", "study", "course", "courses"}},
	{Canonical: "reference", Variants: []string{"reference", "references", "docs", "documentation"}},
}

// DefaultTagSynonyms holds the tag synonym table.
var DefaultTagSynonyms = []SynonymGroup{
	{Canonical: "important", Variants: []string{"important", "priority", "urgent", "critical"}},
	{Canonical: "followup", Variants: []string{"followup", "follow-up", "follow up", "check back"}},
	{Canonical: "deadline", Variants: []string{"deadline", "due", "expires"}},
}

// synonymsFor returns the terms, in table order, that may stand for name in a
// query. name itself is not included.
func synonymsFor(name string, groups []SynonymGroup) []string {
	key := strings.ToLower(name)
	var out []string
	seen := map[string]bool{key: true}
	for _, g := range groups {
		if !g.contains(key) {
			continue
		}
		for _, term := range append([]string{g.Canonical}, g.Variants...) {
			term = strings.ToLower(term)
			if !seen[term] {
				seen[term] = true
				out = append(out, term)
			}
		}
	}
	return out
}

func (g SynonymGroup) contains(term string) bool {
	if strings.ToLower(g.Canonical) == term {
		return true
	}
	for _, v := range g.Variants {
		if strings.ToLower(v) == term {
			return true
		}
	}
	return false
}
