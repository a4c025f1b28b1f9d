package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/csexpert/csexpert/internal/loader"
	"github.com/csexpert/csexpert/internal/server"
)

var (
	servePort     int
	serveAllowAll bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP chat and catalog server",
	Long: `Starts the HTTP server exposing the chat endpoint, a WebSocket chat
transport, catalog browsing endpoints, and admin operations. The vector
index is loaded from disk when present; otherwise run csexpert index first
or POST /system/reload.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if servePort != 0 {
			cfg.Server.Port = servePort
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

		if err := store.Reload(cmd.Context()); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not load index from %s: %v\n", cfg.IndexPath, err)
			fmt.Fprintf(os.Stderr, "Run `csexpert index` or POST /system/reload before asking questions.\n")
		} else {
			fmt.Printf("Loaded index with %d documents\n", store.Count())
		}

		svc, err := newChatService(cfg, store)
		if err != nil {
			return err
		}

		srv := server.New(server.Config{
			Port:         cfg.Server.Port,
			AllowAll:     serveAllowAll,
			RateLimitRPM: cfg.Server.RateLimitRPM,
		}, svc, store, db, loader.New(db))

		// Serve until interrupted, then drain connections.
		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case <-sigCh:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		}
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "override the configured port")
	serveCmd.Flags().BoolVar(&serveAllowAll, "allow-all-origins", false, "allow all CORS origins (dev mode)")
	rootCmd.AddCommand(serveCmd)
}
