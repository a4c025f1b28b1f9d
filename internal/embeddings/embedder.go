package embeddings

import "context"

// Embedder turns text into embedding vectors for the document store.
type Embedder interface {
	// Embed generates one embedding per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the length of the vectors this embedder produces.
	Dimensions() int

	// Name returns the embedding model identifier.
	Name() string
}
