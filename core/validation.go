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

package core

import (
	"fmt"
	"math"
)

// ValidateMemory validates a Memory according to domain rules.
//
// Validation rules:
//   - RawContent must not be empty
//   - every date key must be a known DateField
//   - Vector, when present, must contain only finite values
//
// NOT validated (populated by processors):
//   - Vector may be empty until the embedding processor runs
//   - Category may be empty until classification runs
//   - ID (0 is valid before a sequence number is assigned)
func ValidateMemory(memory *Memory) error {
	if memory == nil {
		return fmt.Errorf("%w: memory is nil", ErrInvalidMemory)
	}

	if memory.RawContent == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMemory, ErrEmptyContent)
	}

	for field := range memory.Dates {
		if !field.Valid() {
			return fmt.Errorf("%w: %w: %q", ErrInvalidMemory, ErrInvalidDateField, field)
		}
	}

	if err := ValidateVector(memory.Vector); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMemory, err)
	}

	return nil
}

// ValidateCategory validates a catalog Category.
func ValidateCategory(category *Category) error {
	if category == nil {
		return fmt.Errorf("%w: category is nil", ErrInvalidCategory)
	}
	if category.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCategory, ErrEmptyCategoryName)
	}
	return nil
}

// ValidateVector rejects vectors holding NaN or infinite components.
func ValidateVector(vector []float32) error {
	for i, v := range vector {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: component %d is %v", ErrInvalidVector, i, v)
		}
	}
	return nil
}
