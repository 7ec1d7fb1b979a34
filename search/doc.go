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


// Package search runs hybrid retrieval over stored memories.
//
// The Searcher applies filters in priority order Date > Category > Tag >
// Vector similarity:
//   - A date phrase found in the query is resolved into a range and becomes a
//     hard filter on the chosen date field.
//   - A category or tags named in the query become soft boosts added to the
//     similarity of matching memories.
//   - The rest of the query is embedded and compared by cosine similarity.
//
// The store over-fetches candidates ordered by the same boost formula the
// ranking package scores with, and the ranker trims them to the requested
// limit. An empty result list is a normal outcome.
package search
