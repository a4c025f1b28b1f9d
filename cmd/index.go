package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/csexpert/csexpert/internal/docstore"
	"github.com/csexpert/csexpert/internal/loader"
	"github.com/csexpert/csexpert/internal/progress"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the semantic index from the course database",
	Long: `Reads the relational course catalog, assembles retrieval documents for
courses, sections, details, and programs, embeds them, and persists the
resulting vector index.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := openCatalog(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		embedder, err := newEmbedder(cfg)
		if err != nil {
			return fmt.Errorf("creating embedder: %w", err)
		}

		ctx := cmd.Context()

		docs, err := loader.New(db).LoadAll(ctx)
		if err != nil {
			return fmt.Errorf("loading catalog documents: %w", err)
		}
		fmt.Printf("Loaded %d documents from %s\n", len(docs), cfg.DatabasePath)

		reporter := progress.NewReporter()
		reporter.Start(len(docs))
		store, err := docstore.NewChromemStore(embedder,
			docstore.WithPersistPath(cfg.IndexPath),
			docstore.WithSimilarityThreshold(float32(cfg.Retrieval.SimilarityThreshold)),
			docstore.WithProgress(func(done, total int) {
				reporter.Update(done, fmt.Sprintf("embedding documents (%s)", embedder.Name()))
			}),
		)
		if err != nil {
			return fmt.Errorf("creating vector store: %w", err)
		}

		if err := store.Index(ctx, docs); err != nil {
			return fmt.Errorf("indexing: %w", err)
		}
		reporter.Finish()

		fmt.Printf("Indexed %d documents into %s\n", store.Count(), cfg.IndexPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
