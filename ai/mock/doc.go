// Package mock holds in-memory stand-ins for the ai services, so storage,
// search and ingestion tests run without a model server.
//
// The default embedder hashes each text into a deterministic unit vector of
// DefaultDimension; NewFixedEmbedder pins chosen texts to chosen vectors
// when a test needs to control similarity:
//
//	embedder := mock.NewFixedEmbedder(map[string][]float32{
//	    "dentist appointment": {1, 0, 0},
//	    "dentist":             {0.9, 0.1, 0},
//	})
//	provider := mock.NewMockProvider(mock.WithEmbedder(embedder))
//
// The default classifier files content under the first catalog category
// its text mentions (core.DefaultCategory when none is) and tags it with
// its first three words.
package mock
