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

import "errors"

// Sentinel errors shared by every backend. Backends wrap them with the
// offending id, name or value.
var (
	ErrNotFound = errors.New("memory or category not found")

	// ErrDuplicateKey is returned for a category name already in the catalog.
	ErrDuplicateKey = errors.New("category already exists")

	// ErrInvalidQuery covers candidate queries without a vector or limit,
	// predicates a backend cannot evaluate, and bad batch sizes.
	ErrInvalidQuery = errors.New("invalid query")

	ErrSerializationFailed = errors.New("record encoding failed")

	// ErrDimensionMismatch is returned when a vector's length differs from
	// the vectors already stored.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	ErrInvalidTagOperation = errors.New("invalid tag operation")
)
