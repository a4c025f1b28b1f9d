package config

// providerModels lists the default chat and embedding model for each
// provider, used by the init wizard and DefaultConfig.
type providerModels struct {
	Model          string
	EmbeddingModel string
}

var defaultModels = map[ProviderType]providerModels{
	ProviderGoogle: {Model: "gemini-2.5-flash", EmbeddingModel: "text-embedding-004"},
	ProviderOpenAI: {Model: "gpt-4o-mini", EmbeddingModel: "text-embedding-3-small"},
	ProviderOllama: {Model: "llama3", EmbeddingModel: "nomic-embed-text"},
}

// DefaultConfig returns a Config with the tuned production defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderGoogle,
		Model:             defaultModels[ProviderGoogle].Model,
		Temperature:       0.1,
		MaxTokens:         1000,
		EmbeddingProvider: ProviderGoogle,
		EmbeddingModel:    defaultModels[ProviderGoogle].EmbeddingModel,
		RateLimitRPM:      30,
		DatabasePath:      "data/courses.db",
		IndexPath:         "data/index.gob.gz",
		Retrieval: RetrievalConfig{
			DefaultK:            20,
			MaxContextDocuments: 15,
			MaxQueryVariations:  6,
			SimilarityThreshold: 0.3,
		},
		Cache: CacheConfig{
			Size:       100,
			TTLSeconds: 3600,
		},
		Server: ServerConfig{
			Port:         8000,
			RateLimitRPM: 60,
		},
	}
}

// ModelsFor returns the default model pair for the given provider, falling
// back to the Google defaults for unknown providers.
func ModelsFor(provider ProviderType) (model, embeddingModel string) {
	m, ok := defaultModels[provider]
	if !ok {
		m = defaultModels[ProviderGoogle]
	}
	return m.Model, m.EmbeddingModel
}
