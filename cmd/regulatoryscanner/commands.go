package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"RegulatoryScanner/internal/app"
	"RegulatoryScanner/internal/config"
	"RegulatoryScanner/internal/domain"
	"RegulatoryScanner/internal/infrastructure/storage"
	"RegulatoryScanner/internal/logging"
)

func newServeCmd() *cobra.Command {
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the optional cron scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

			if migrateFirst {
				if err := storage.Migrate(cfg.Database.DSN, "up"); err != nil {
					return err
				}
			}

			application, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			return application.Serve(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func newCrawlCmd() *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Run one ingestion pass and print the report as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var sources []domain.Source
			if source != "" {
				parsed, err := domain.ParseSource(source)
				if err != nil {
					return err
				}
				sources = []domain.Source{parsed}
			}

			cfg := config.Load()
			logger := logging.NewWithWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

			application, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			report, runErr := application.Crawl(cmd.Context(), sources)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
			if runErr != nil {
				return runErr
			}
			if report.StorageFailed() {
				return fmt.Errorf("storage error while persisting articles")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&source, "source", "s", "", "limit the run to FDA or GACC")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate up|down",
		Short:     "Apply or roll back the database schema",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if err := storage.Migrate(cfg.Database.DSN, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: done\n", args[0])
			return nil
		},
	}
}
