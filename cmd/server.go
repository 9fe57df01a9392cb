package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/CATrainer/revu-sub000/internal/config"
	"github.com/CATrainer/revu-sub000/internal/db"
	"github.com/CATrainer/revu-sub000/internal/llm"
	"github.com/CATrainer/revu-sub000/internal/server"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the revu API server",
	Long:  `Starts the revu server with the interaction API, rule engine, approval queue, execution log, and websocket event feed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if serverPort != 0 {
			cfg.Port = serverPort
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		// Create LLM provider. A missing API key degrades to the unavailable
		// sentinel; AI conditions then answer with their documented fallbacks.
		provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
		if err != nil {
			return fmt.Errorf("creating LLM provider: %w", err)
		}
		provider = llm.NewRateLimitedProvider(provider, cfg.RequestsPerMinute)

		// Open database.
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return fmt.Errorf("creating data dir: %w", err)
		}
		dbPath := filepath.Join(cfg.DataDir, "revu.db")
		database, err := db.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		srv := server.New(server.Config{
			Port:     cfg.Port,
			AllowAll: true,
		}, database, provider, cfg.Model, server.EngineConfig{
			RuleCacheTTL:    time.Duration(cfg.Engine.RuleCacheTTLSeconds) * time.Second,
			JudgeCacheTTL:   time.Duration(cfg.Engine.JudgeCacheTTLSeconds) * time.Second,
			CacheMaxEntries: cfg.Engine.CacheMaxEntries,
		})

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "revu server v%s starting on port %d\n", Version, cfg.Port)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "  Provider: %s\n", provider.Name())

		return srv.Start()
	},
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serverCmd)
}
