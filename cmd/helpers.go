package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/csexpert/csexpert/internal/cache"
	"github.com/csexpert/csexpert/internal/chat"
	"github.com/csexpert/csexpert/internal/config"
	"github.com/csexpert/csexpert/internal/docstore"
	"github.com/csexpert/csexpert/internal/embeddings"
	"github.com/csexpert/csexpert/internal/llm"
	"github.com/csexpert/csexpert/internal/relational"
	"github.com/csexpert/csexpert/internal/retriever"
	"github.com/csexpert/csexpert/internal/router"
)

// loadConfig loads and validates the config, providing a friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `csexpert init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newEmbedder creates the embedder selected by config.
func newEmbedder(cfg *config.Config) (embeddings.Embedder, error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = cfg.Provider
	}
	model := cfg.EmbeddingModel
	if model == "" {
		_, model = config.ModelsFor(provider)
	}

	switch provider {
	case config.ProviderGoogle:
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			apiKey = os.Getenv("GOOGLE_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required for Google embeddings")
		}
		return embeddings.NewGoogleEmbedder(apiKey, embeddings.GoogleModel(model)), nil
	case config.ProviderOpenAI:
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
		}
		return embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(model)), nil
	case config.ProviderOllama:
		return embeddings.NewOllamaEmbedder(model, 768, ""), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", provider)
	}
}

// newStore creates the vector store with the configured persistence path and
// similarity threshold.
func newStore(cfg *config.Config, embedder embeddings.Embedder) (*docstore.ChromemStore, error) {
	return docstore.NewChromemStore(embedder,
		docstore.WithPersistPath(cfg.IndexPath),
		docstore.WithSimilarityThreshold(float32(cfg.Retrieval.SimilarityThreshold)),
	)
}

// newChatService assembles the full answering pipeline over the given store.
func newChatService(cfg *config.Config, store docstore.Store) (*chat.Service, error) {
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	if cfg.RateLimitRPM > 0 {
		provider = llm.NewRateLimitedProvider(provider, cfg.RateLimitRPM)
	}

	aliases := router.DefaultAliases()
	aliases.AddPrograms(cfg.ProgramAliases)

	re := retriever.New(store, retriever.Options{
		PerVariantK:         cfg.Retrieval.DefaultK,
		MaxContextDocuments: cfg.Retrieval.MaxContextDocuments,
		MaxVariants:         cfg.Retrieval.MaxQueryVariations,
	})

	c, err := cache.New(cfg.Cache.Size, time.Duration(cfg.Cache.TTLSeconds)*time.Second)
	if err != nil {
		return nil, fmt.Errorf("creating response cache: %w", err)
	}

	synth := chat.NewSynthesizer(provider, chat.SynthesizerConfig{
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	})

	return chat.NewService(router.New(aliases), re, c, synth), nil
}

// openCatalog opens the relational course database.
func openCatalog(cfg *config.Config) (*relational.DB, error) {
	if _, err := os.Stat(cfg.DatabasePath); err != nil {
		return nil, fmt.Errorf("course database %s: %w", cfg.DatabasePath, err)
	}
	return relational.Open(cfg.DatabasePath)
}
