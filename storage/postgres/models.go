package postgres

import (
	"time"

	"github.com/bytedance/sonic"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"

	"github.com/mrdanjohnson/secondbrainv1/core"
)

// memoryRow is the memories table. Each date field is stored twice: the
// timestamp and its short form, which range filters compare against.
type memoryRow struct {
	ID                uint64           `gorm:"primaryKey;autoIncrement"`
	RawContent        string           `gorm:"type:text;not null"`
	StructuredContent datatypes.JSON   `gorm:"type:jsonb"`
	Category          string           `gorm:"type:varchar(100);index"`
	Tags              pq.StringArray   `gorm:"type:text[]"`
	Embedding         *pgvector.Vector `gorm:"type:vector"`
	OccurrenceDate    *time.Time
	OccurrenceShort   string `gorm:"column:occurrence_date_short;type:varchar(10);index"`
	DueDate           *time.Time
	DueShort          string `gorm:"column:due_date_short;type:varchar(10);index"`
	ReceivedDate      *time.Time
	ReceivedShort     string `gorm:"column:received_date_short;type:varchar(10);index"`
	Source            string `gorm:"type:varchar(50)"`
	SourceID          string `gorm:"type:varchar(255)"`
	Fingerprint       int64  `gorm:"index"`
	InsertedAt        time.Time `gorm:"not null;index"`
	UpdatedAt         time.Time
}

func (memoryRow) TableName() string {
	return "memories"
}

// candidateRow is a memory row plus the similarity computed by the query.
type candidateRow struct {
	memoryRow  `gorm:"embedded"`
	Similarity float64
}

type categoryRow struct {
	Name        string `gorm:"primaryKey;type:varchar(100)"`
	Description string `gorm:"type:text"`
	Color       string `gorm:"type:varchar(7)"`
	CreatedAt   time.Time
}

func (categoryRow) TableName() string {
	return "categories"
}

// dateColumns maps a date field to its timestamp and short-form columns.
var dateColumns = map[core.DateField]struct{ date, short string }{
	core.DateFieldOccurrence: {"occurrence_date", "occurrence_date_short"},
	core.DateFieldDue:        {"due_date", "due_date_short"},
	core.DateFieldReceived:   {"received_date", "received_date_short"},
}

func toRow(m *core.Memory) (*memoryRow, error) {
	row := &memoryRow{
		ID:          uint64(m.Id),
		RawContent:  m.RawContent,
		Category:    m.Category,
		Tags:        pq.StringArray(m.Tags),
		Source:      m.Source,
		SourceID:    m.SourceID,
		Fingerprint: int64(m.Fingerprint),
		InsertedAt:  m.InsertedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if len(m.StructuredContent) > 0 {
		raw, err := sonic.Marshal(m.StructuredContent)
		if err != nil {
			return nil, err
		}
		row.StructuredContent = datatypes.JSON(raw)
	}
	if m.HasEmbedding() {
		v := pgvector.NewVector(m.Vector)
		row.Embedding = &v
	}
	for field, dv := range m.Dates {
		t := dv.Time
		switch field {
		case core.DateFieldOccurrence:
			row.OccurrenceDate, row.OccurrenceShort = &t, dv.Short
		case core.DateFieldDue:
			row.DueDate, row.DueShort = &t, dv.Short
		case core.DateFieldReceived:
			row.ReceivedDate, row.ReceivedShort = &t, dv.Short
		}
	}
	return row, nil
}

func (row *memoryRow) toMemory() (*core.Memory, error) {
	m := &core.Memory{
		Id:          core.ID(row.ID),
		RawContent:  row.RawContent,
		Category:    row.Category,
		Tags:        []string(row.Tags),
		Source:      row.Source,
		SourceID:    row.SourceID,
		Fingerprint: core.ID(row.Fingerprint),
		InsertedAt:  row.InsertedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if len(row.StructuredContent) > 0 {
		if err := sonic.Unmarshal(row.StructuredContent, &m.StructuredContent); err != nil {
			return nil, err
		}
	}
	if row.Embedding != nil {
		m.Vector = row.Embedding.Slice()
	}
	setDate := func(field core.DateField, t *time.Time, short string) {
		if t == nil {
			return
		}
		if m.Dates == nil {
			m.Dates = map[core.DateField]core.DateValue{}
		}
		m.Dates[field] = core.DateValue{Time: *t, Short: short}
	}
	setDate(core.DateFieldOccurrence, row.OccurrenceDate, row.OccurrenceShort)
	setDate(core.DateFieldDue, row.DueDate, row.DueShort)
	setDate(core.DateFieldReceived, row.ReceivedDate, row.ReceivedShort)
	return m, nil
}

func (row *categoryRow) toCategory() *core.Category {
	return &core.Category{
		Name:        row.Name,
		Description: row.Description,
		Color:       row.Color,
		CreatedAt:   row.CreatedAt,
	}
}
