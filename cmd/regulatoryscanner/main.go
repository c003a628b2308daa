package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"RegulatoryScanner/internal/logging"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "regulatoryscanner",
	Short:         "FDA and GACC regulatory news ingestion service",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			return os.Setenv("REGULATORY_SCANNER_CONFIG", configPath)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config (overrides REGULATORY_SCANNER_CONFIG)")
	rootCmd.AddCommand(newServeCmd(), newCrawlCmd(), newMigrateCmd())
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("load .env: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logging.NewWithWriter(os.Stderr, os.Getenv("LOG_LEVEL"), "text").Error("command failed", "error", err)
		os.Exit(1)
	}
}
