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

// Package storage provides the storage abstraction layer for secondbrain.
//
// This package defines repository interfaces that decouple storage implementation
// from business logic. Two backends implement them: an embedded BadgerDB store
// (storage/badger) and a PostgreSQL + pgvector store (storage/postgres).
//
// # Architecture
//
//   - MemoryRepository: CRUD, bulk classification and tagging, statistics
//   - CandidateQuerier: similarity retrieval under a filter.Predicate with
//     filter.Boost ordering
//   - CatalogStore: distinct categories and tags currently in use
//   - CategoryRepository: the category catalog offered to the classifier
//
// Hard predicates and soft boosts are kept apart in Query: a backend must
// never turn a boost into a retrieval predicate.
//
// # Usage
//
//	repos, err := badger.NewRepositories("/path/to/db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repos.Close()
//
// Use in tests with in-memory storage:
//
//	repos, err := badger.NewMemoryRepositories()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support.
package storage
