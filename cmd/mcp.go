package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/csexpert/csexpert/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing course search and counselor Q&A tools for AI agents.`,
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
		store, err := newStore(cfg, embedder)
		if err != nil {
			return fmt.Errorf("creating vector store: %w", err)
		}

		// Stdout carries the protocol; warnings must go to stderr.
		if err := store.Reload(cmd.Context()); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not load index from %s: %v\n", cfg.IndexPath, err)
			fmt.Fprintf(os.Stderr, "Search results will be empty. Run `csexpert index` first.\n")
		}

		svc, err := newChatService(cfg, store)
		if err != nil {
			return err
		}

		mcpserver.Version = Version
		fmt.Fprintf(os.Stderr, "csexpert MCP server started on stdio (documents=%d)\n", store.Count())

		srv := mcpserver.NewServer(store, db, svc)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
