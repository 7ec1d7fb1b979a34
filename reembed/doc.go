// Package reembed regenerates the embeddings of stored memories, either
// after switching embedding models or to backfill memories whose
// asynchronous embedding never completed.
//
// Memories are processed in batches with progress tracking, retries with
// exponential backoff, and vector normalization so stored vectors stay
// comparable under cosine similarity.
package reembed
