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

package search

import "errors"

var (
	// ErrQuerierRequired is returned when a candidate querier is not provided.
	ErrQuerierRequired = errors.New("candidate querier required")

	// ErrAnalyzerRequired is returned when a query analyzer is not provided.
	ErrAnalyzerRequired = errors.New("query analyzer required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrInvalidOptions is returned for malformed search options.
	ErrInvalidOptions = errors.New("invalid search options")

	// ErrSearchFailed is the error every failed search wraps.
	ErrSearchFailed = errors.New("search failed")

	// ErrEmbeddingFailed indicates the query could not be embedded.
	ErrEmbeddingFailed = errors.New("query embedding failed")

	// ErrStoreFailed indicates the catalog or candidate query failed.
	ErrStoreFailed = errors.New("store query failed")
)
