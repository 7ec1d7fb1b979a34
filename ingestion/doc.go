// Package ingestion stores new memories and enriches them in the background.
//
// The Pipeline type manages the ingestion workflow for memories, including:
//   - Rejecting content that was already ingested, by fingerprint
//   - Adding memories to storage
//   - Generating embeddings asynchronously
//   - Classifying memories asynchronously (summary, category, tags, due date)
//
// Processing is performed concurrently using worker pools to maximize throughput.
// Errors during async processing are logged but do not fail the ingestion operation.
// Editing a memory's content clears its embedding and queues it for re-embedding.
package ingestion
