package core

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Memory IDs are assigned from database sequences.
type ID uint64

// Fingerprint derives a deterministic content hash using BLAKE2b.
// Whitespace and case differences do not change the fingerprint, so it
// can be used to detect re-ingestion of the same note.
func Fingerprint(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(strings.ToLower(strings.Join(strings.Fields(text), " "))))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// DateField names one of the semantic dates carried by a memory.
type DateField string

const (
	// DateFieldOccurrence is when the thing described by the memory happened.
	DateFieldOccurrence DateField = "occurrence"
	// DateFieldDue is when the memory's task or commitment is due.
	DateFieldDue DateField = "due"
	// DateFieldReceived is when the memory (usually a message) was received.
	DateFieldReceived DateField = "received"
)

// DateFields lists every semantic date field.
var DateFields = []DateField{DateFieldOccurrence, DateFieldDue, DateFieldReceived}

// Valid reports whether f is a known date field.
func (f DateField) Valid() bool {
	switch f {
	case DateFieldOccurrence, DateFieldDue, DateFieldReceived:
		return true
	}
	return false
}

// DateValue holds a semantic date and its day-granularity short form.
type DateValue struct {
	Time  time.Time
	Short string // ShortDateLayout in local time
}

// NewDateValue builds a DateValue for t, deriving Short from local time.
func NewDateValue(t time.Time) DateValue {
	return DateValue{Time: t, Short: ShortDate(t)}
}

// Memory is a single note in the knowledge base.
type Memory struct {
	Id                ID
	RawContent        string
	StructuredContent map[string]any // AI-derived summary, sentiment, entities, ...
	Category          string
	Tags              []string
	Vector            []float32 // empty until the embedding processor runs
	Dates             map[DateField]DateValue
	Source            string
	SourceID          string
	Fingerprint       ID
	InsertedAt        time.Time
	UpdatedAt         time.Time
}

// Date returns the value of the given date field, if set.
func (m *Memory) Date(field DateField) (DateValue, bool) {
	if m.Dates == nil {
		return DateValue{}, false
	}
	v, ok := m.Dates[field]
	return v, ok
}

// SetDate sets a semantic date on the memory.
func (m *Memory) SetDate(field DateField, t time.Time) {
	if m.Dates == nil {
		m.Dates = make(map[DateField]DateValue, len(DateFields))
	}
	m.Dates[field] = NewDateValue(t)
}

// HasEmbedding reports whether the memory carries a vector.
func (m *Memory) HasEmbedding() bool {
	return len(m.Vector) > 0
}

// Normalize recomputes the derived fields stores index on: normalized tags,
// the content fingerprint and missing short dates.
func (m *Memory) Normalize() {
	m.Tags = NormalizeTags(m.Tags)
	m.Fingerprint = Fingerprint(m.RawContent)
	for field, v := range m.Dates {
		if v.Short == "" && !v.Time.IsZero() {
			m.Dates[field] = NewDateValue(v.Time)
		}
	}
}

// Category is an entry of the category catalog.
type Category struct {
	Name        string
	Description string
	Color       string
	CreatedAt   time.Time
}

// Catalog is the vocabulary currently in use: distinct categories and tags
// found on stored memories, in store order.
type Catalog struct {
	Categories []string
	Tags       []string
}

// CategoryCount is the number of memories filed under a category.
type CategoryCount struct {
	Category string
	Count    int
}

// Candidate is a memory returned by the store with its vector similarity.
type Candidate struct {
	Memory     *Memory
	Similarity float64
}

// ScoredResult is a ranked search hit.
type ScoredResult struct {
	Memory        *Memory
	Similarity    float64
	CategoryBoost float64
	TagBoost      float64
	FinalScore    float64
	MatchType     string
}
