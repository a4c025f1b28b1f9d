package config

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderGoogle ProviderType = "google"
	ProviderOllama ProviderType = "ollama"
)

// Config is the top-level csexpert configuration, corresponding to
// csexpert.yml.
type Config struct {
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Model             string       `yaml:"model" koanf:"model"`
	Temperature       float64      `yaml:"temperature" koanf:"temperature"`
	MaxTokens         int          `yaml:"max_tokens" koanf:"max_tokens"`
	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`

	// RateLimitRPM caps language model calls per minute. Zero disables
	// limiting.
	RateLimitRPM int `yaml:"rate_limit_rpm" koanf:"rate_limit_rpm"`

	DatabasePath string `yaml:"database_path" koanf:"database_path"`
	IndexPath    string `yaml:"index_path" koanf:"index_path"`

	Retrieval RetrievalConfig `yaml:"retrieval" koanf:"retrieval"`
	Cache     CacheConfig     `yaml:"cache" koanf:"cache"`
	Server    ServerConfig    `yaml:"server" koanf:"server"`

	// ProgramAliases maps a program code to the natural language phrases that
	// should resolve to it, extending the built-in table.
	ProgramAliases map[string][]string `yaml:"program_aliases" koanf:"program_aliases"`
}

// RetrievalConfig tunes multi-query retrieval.
type RetrievalConfig struct {
	DefaultK            int     `yaml:"default_k" koanf:"default_k"`
	MaxContextDocuments int     `yaml:"max_context_documents" koanf:"max_context_documents"`
	MaxQueryVariations  int     `yaml:"max_query_variations" koanf:"max_query_variations"`
	SimilarityThreshold float64 `yaml:"similarity_threshold" koanf:"similarity_threshold"`
}

// CacheConfig tunes the response cache.
type CacheConfig struct {
	Size       int `yaml:"size" koanf:"size"`
	TTLSeconds int `yaml:"ttl_seconds" koanf:"ttl_seconds"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int `yaml:"port" koanf:"port"`
	RateLimitRPM int `yaml:"rate_limit_rpm" koanf:"rate_limit_rpm"`
}
