// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/mrdanjohnson/secondbrainv1/core"
)

// MarshalID serializes an ID to 8 big-endian bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(id))
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	if len(data) < 8 {
		return 0, fmt.Errorf("%w: id needs 8 bytes, got %d", ErrSerializationFailed, len(data))
	}
	return core.ID(binary.BigEndian.Uint64(data)), nil
}

type dateRecord struct {
	Time  time.Time `json:"t"`
	Short string    `json:"s"`
}

type memoryRecord struct {
	Id                uint64                `json:"id"`
	RawContent        string                `json:"raw"`
	StructuredContent map[string]any        `json:"structured,omitempty"`
	Category          string                `json:"category"`
	Tags              []string              `json:"tags,omitempty"`
	Vector            []float32             `json:"vector,omitempty"`
	Dates             map[string]dateRecord `json:"dates,omitempty"`
	Source            string                `json:"source,omitempty"`
	SourceID          string                `json:"source_id,omitempty"`
	Fingerprint       uint64                `json:"fingerprint"`
	InsertedAt        time.Time             `json:"inserted_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

type categoryRecord struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// MarshalMemory serializes a Memory to bytes.
func MarshalMemory(memory *core.Memory) ([]byte, error) {
	rec := memoryRecord{
		Id:                uint64(memory.Id),
		RawContent:        memory.RawContent,
		StructuredContent: memory.StructuredContent,
		Category:          memory.Category,
		Tags:              memory.Tags,
		Vector:            memory.Vector,
		Source:            memory.Source,
		SourceID:          memory.SourceID,
		Fingerprint:       uint64(memory.Fingerprint),
		InsertedAt:        memory.InsertedAt,
		UpdatedAt:         memory.UpdatedAt,
	}
	if len(memory.Dates) > 0 {
		rec.Dates = make(map[string]dateRecord, len(memory.Dates))
		for field, v := range memory.Dates {
			rec.Dates[string(field)] = dateRecord{Time: v.Time, Short: v.Short}
		}
	}
	data, err := sonic.Marshal(&rec)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalMemory deserializes a Memory from bytes.
func UnmarshalMemory(data []byte) (*core.Memory, error) {
	var rec memoryRecord
	if err := sonic.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	memory := &core.Memory{
		Id:                core.ID(rec.Id),
		RawContent:        rec.RawContent,
		StructuredContent: rec.StructuredContent,
		Category:          rec.Category,
		Tags:              rec.Tags,
		Vector:            rec.Vector,
		Source:            rec.Source,
		SourceID:          rec.SourceID,
		Fingerprint:       core.ID(rec.Fingerprint),
		InsertedAt:        rec.InsertedAt,
		UpdatedAt:         rec.UpdatedAt,
	}
	if len(rec.Dates) > 0 {
		memory.Dates = make(map[core.DateField]core.DateValue, len(rec.Dates))
		for field, v := range rec.Dates {
			memory.Dates[core.DateField(field)] = core.DateValue{Time: v.Time, Short: v.Short}
		}
	}
	return memory, nil
}

// MarshalCategory serializes a catalog Category to bytes.
func MarshalCategory(category *core.Category) ([]byte, error) {
	data, err := sonic.Marshal(&categoryRecord{
		Name:        category.Name,
		Description: category.Description,
		Color:       category.Color,
		CreatedAt:   category.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalCategory deserializes a catalog Category from bytes.
func UnmarshalCategory(data []byte) (*core.Category, error) {
	var rec categoryRecord
	if err := sonic.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &core.Category{
		Name:        rec.Name,
		Description: rec.Description,
		Color:       rec.Color,
		CreatedAt:   rec.CreatedAt,
	}, nil
}
