package ai

import (
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

// classificationResponse is the JSON object classifiers are asked for.
type classificationResponse struct {
	Classification
	DueDate string `json:"due_date"`
}

var dueDateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// BuildClassifierPrompt returns the system prompt listing the allowed
// categories.
func BuildClassifierPrompt(categories []string) string {
	var sb strings.Builder
	sb.WriteString(`You are a content classification assistant for a personal knowledge base.

Analyze the user's note and return a JSON object with:
- summary: a brief 1-2 sentence summary (string)
- category: exactly one of [`)
	sb.WriteString(strings.Join(categories, ", "))
	sb.WriteString(`]
- tags: an array of 3-5 short lowercase tags
- sentiment: one of [positive, neutral, negative]
- priority: one of [high, medium, low], or omit when not applicable
- entities: an array of people, places or organizations mentioned
- due_date: the date the note's task is due as YYYY-MM-DD, or omit

Return only valid JSON, no additional text.`)
	return sb.String()
}

// ParseClassification decodes a model reply. Markdown fences are stripped
// and unquoted keys repaired before decoding.
func ParseClassification(reply string, categories []string) (*Classification, error) {
	text := strings.TrimSpace(reply)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = repairJSON(strings.TrimSpace(text))

	var resp classificationResponse
	if err := sonic.UnmarshalString(text, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	c := resp.Classification
	if due := strings.TrimSpace(resp.DueDate); due != "" {
		for _, layout := range dueDateLayouts {
			if t, err := time.ParseInLocation(layout, due, time.Local); err == nil {
				c.DueDate = &t
				break
			}
		}
	}
	c.Normalize(categories)
	return &c, nil
}

// repairJSON fixes keys missing their opening quote, a common defect of
// small local models: `{summary": ...}` becomes `{"summary": ...}`.
func repairJSON(s string) string {
	in := []rune(s)
	out := make([]rune, 0, len(in)+16)

	i := 0
	for i < len(in) {
		ch := in[i]
		out = append(out, ch)
		i++
		if ch != '{' && ch != ',' {
			continue
		}

		for i < len(in) && (in[i] == ' ' || in[i] == '\n' || in[i] == '\t') {
			out = append(out, in[i])
			i++
		}
		if i >= len(in) || !isLetter(in[i]) {
			continue
		}

		start := i
		for i < len(in) && (isLetter(in[i]) || in[i] == '_') {
			i++
		}
		if i+1 < len(in) && in[i] == '"' && in[i+1] == ':' {
			out = append(out, '"')
		}
		out = append(out, in[start:i]...)
	}
	return string(out)
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
