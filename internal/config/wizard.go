package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// DefaultConfigFile is where the wizard writes its result.
const DefaultConfigFile = "csexpert.yml"

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config, saved to csexpert.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to csexpert! Let's configure the assistant.")
	fmt.Println()

	cfg := DefaultConfig()

	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"google", "openai", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)
	cfg.EmbeddingProvider = cfg.Provider
	cfg.Model, cfg.EmbeddingModel = ModelsFor(cfg.Provider)

	modelPrompt := promptui.Prompt{
		Label:   "Chat model",
		Default: cfg.Model,
	}
	if cfg.Model, err = modelPrompt.Run(); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	dbPrompt := promptui.Prompt{
		Label:   "Path to the course database (SQLite)",
		Default: cfg.DatabasePath,
	}
	if cfg.DatabasePath, err = dbPrompt.Run(); err != nil {
		return nil, fmt.Errorf("database path: %w", err)
	}

	indexPrompt := promptui.Prompt{
		Label:   "Path for the persisted vector index",
		Default: cfg.IndexPath,
	}
	if cfg.IndexPath, err = indexPrompt.Run(); err != nil {
		return nil, fmt.Errorf("index path: %w", err)
	}

	portPrompt := promptui.Prompt{
		Label:   "HTTP server port",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			p, err := strconv.Atoi(s)
			if err != nil || p < 1 || p > 65535 {
				return fmt.Errorf("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	if envVar := APIKeyEnvVar(cfg.Provider); envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: Set %s in your environment before running csexpert serve.\n", envVar)
	}

	if err := cfg.Save(DefaultConfigFile); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", DefaultConfigFile)
	return cfg, nil
}
