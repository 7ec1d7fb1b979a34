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

// Package openai talks to OpenAI-compatible HTTP APIs for memory embeddings
// and classification. Hosted OpenAI works, as do local servers that mimic it
// (Ollama, LocalAI, vLLM); the config's hosts get a /v1 suffix when missing.
//
// Embeddings are checked for a stable dimension: once the first vector has
// been seen, a vector of another length fails with ErrDimensionChanged rather
// than reaching a store that cannot compare it.
//
//	provider, err := openai.NewProvider(ai.NewConfig(
//	    ai.WithHost("http://localhost:11434"),
//	    ai.WithEmbeddingModel("embeddinggemma"),
//	))
//	if err != nil {
//	    return err
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "dentist on friday")
package openai
