package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrdanjohnson/secondbrainv1/core"
)

func TestUnmarshalID_Truncated(t *testing.T) {
	_, err := UnmarshalID([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalID_SortsNumerically(t *testing.T) {
	assert.Less(t, string(MarshalID(255)), string(MarshalID(256)))
}

func TestMarshalMemory_PreservesDatesAndStructure(t *testing.T) {
	due := time.Date(2025, 9, 30, 17, 0, 0, 0, time.UTC)
	m := &core.Memory{
		Id:         7,
		RawContent: "Submit the Q3 report",
		StructuredContent: map[string]any{
			"summary":  "Q3 report submission",
			"priority": "high",
		},
		Category:    "Task",
		Tags:        []string{"report", "work"},
		Vector:      []float32{0.25, -0.5},
		Fingerprint: core.Fingerprint("Submit the Q3 report"),
		InsertedAt:  time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC),
	}
	m.SetDate(core.DateFieldDue, due)

	data, err := MarshalMemory(m)
	require.NoError(t, err)

	got, err := UnmarshalMemory(data)
	require.NoError(t, err)

	assert.Equal(t, m.Id, got.Id)
	assert.Equal(t, m.Tags, got.Tags)
	assert.Equal(t, m.Vector, got.Vector)
	assert.Equal(t, m.Fingerprint, got.Fingerprint)
	assert.Equal(t, "high", got.StructuredContent["priority"])

	d, ok := got.Date(core.DateFieldDue)
	require.True(t, ok)
	assert.True(t, due.Equal(d.Time))
	assert.Equal(t, m.Dates[core.DateFieldDue].Short, d.Short)

	_, ok = got.Date(core.DateFieldReceived)
	assert.False(t, ok)
}

func TestUnmarshalMemory_Invalid(t *testing.T) {
	_, err := UnmarshalMemory([]byte("{not json"))
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestQuery_Validate(t *testing.T) {
	assert.NoError(t, Query{Vector: []float32{1}, Limit: 3}.Validate())
	assert.ErrorIs(t, Query{Limit: 3}.Validate(), ErrInvalidQuery)
	assert.ErrorIs(t, Query{Vector: []float32{1}}.Validate(), ErrInvalidQuery)
}
