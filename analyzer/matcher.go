package analyzer

import (
	"regexp"
	"strings"
	"sync"
)

// matcher finds catalog terms in free text, case-insensitively.
//
// By default a term matches anywhere in the text ("work" is found in
// "homework"). A plural "s"/"es" ending a word right after the term is part
// of the match, so stripping "task" from "tasks" leaves nothing behind.
// In word mode a term only matches whole words, optionally pluralized
// ("task" matches "tasks" but not "multitasking").
type matcher struct {
	word  bool
	cache sync.Map // term -> *regexp.Regexp
}

func (m *matcher) pattern(term string) *regexp.Regexp {
	if re, ok := m.cache.Load(term); ok {
		return re.(*regexp.Regexp)
	}
	words := strings.Fields(term)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	body := strings.Join(words, `\s+`)
	expr := `(?i)` + body + `(?:e?s\b)?`
	if m.word {
		expr = `(?i)\b` + body + `(?:e?s)?\b`
	}
	re := regexp.MustCompile(expr)
	actual, _ := m.cache.LoadOrStore(term, re)
	return actual.(*regexp.Regexp)
}

// find returns the first occurrence of term in text.
func (m *matcher) find(text, term string) (string, bool) {
	if strings.TrimSpace(term) == "" {
		return "", false
	}
	loc := m.pattern(term).FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	return text[loc[0]:loc[1]], true
}

// strip removes every occurrence of term from text.
func (m *matcher) strip(text, term string) string {
	if strings.TrimSpace(term) == "" {
		return text
	}
	return m.pattern(term).ReplaceAllString(text, " ")
}

// stripLiteral removes every case-insensitive occurrence of s from text.
func stripLiteral(text, s string) string {
	if s == "" {
		return text
	}
	return regexp.MustCompile(`(?i)`+regexp.QuoteMeta(s)).ReplaceAllString(text, " ")
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
