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

import "errors"

// Domain validation errors
var (
	// ErrInvalidMemory indicates a Memory failed validation.
	ErrInvalidMemory = errors.New("invalid memory")

	// ErrInvalidCategory indicates a Category failed validation.
	ErrInvalidCategory = errors.New("invalid category")

	// ErrEmptyContent indicates the RawContent field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrEmptyCategoryName indicates a category has no name.
	ErrEmptyCategoryName = errors.New("category name cannot be empty")

	// ErrInvalidDateField indicates an unknown semantic date field.
	ErrInvalidDateField = errors.New("invalid date field")

	// ErrInvalidVector indicates a vector contains NaN or infinite values.
	ErrInvalidVector = errors.New("invalid vector")
)
