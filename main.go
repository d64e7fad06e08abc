package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"rental-cleaning/config"
	"rental-cleaning/services"
	"rental-cleaning/storage"
	"rental-cleaning/tracking"
	"rental-cleaning/utils"
)

var params services.Params

func main() {
	logger := utils.NewLogger()

	rootCmd := &cobra.Command{
		Use:           "basic-clean",
		Short:         "Download a listings snapshot, clean it and republish it as a new artifact",
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return run(cmd.Context(), logger)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&params.InputArtifact, "input_artifact", "", "Fully-qualified name for the input artifact")
	flags.StringVar(&params.OutputArtifact, "output_artifact", "", "Name for the output artifact")
	flags.StringVar(&params.OutputType, "output_type", "", "Type for the output artifact")
	flags.StringVar(&params.OutputDescription, "output_description", "", "Description for the output artifact")
	flags.Float64Var(&params.MinPrice, "min_price", 0, "Minimum value for price")
	flags.Float64Var(&params.MaxPrice, "max_price", 0, "Maximum value for price")

	for _, name := range []string{
		"input_artifact", "output_artifact", "output_type",
		"output_description", "min_price", "max_price",
	} {
		_ = rootCmd.MarkFlagRequired(name)
	}

	if err := rootCmd.Execute(); err != nil {
		logger.Error("Run failed: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *utils.Logger) error {
	cfg := config.Load()

	logger.Info("=== Listings basic cleaning starting ===")
	logger.Info("Config — tracking: %s | project: %s | staging: %s",
		cfg.TrackingBaseURL, cfg.TrackingProject, cfg.StagingDir)

	client := tracking.NewClient(
		cfg.TrackingBaseURL, cfg.TrackingAPIKey, cfg.TrackingProject,
		cfg.StagingDir, cfg.TrackingTimeout,
	)

	trackedRun, err := client.NewRun(ctx, "basic_cleaning")
	if err != nil {
		return err
	}

	cleaner := services.NewCleaner(logger)
	pipeline := services.NewPipeline(cleaner, cfg.StagingDir, logger)

	ref, cleaned, stats, err := pipeline.Run(ctx, trackedRun, params)
	if err != nil {
		return err
	}

	logger.Info("Published artifact %s", ref)

	if cfg.PostgresMirror {
		pg, err := storage.NewPostgresWriter(cfg.DSN(), logger)
		if err != nil {
			return err
		}
		defer pg.Close()

		if err := pg.Mirror(cleaned); err != nil {
			return err
		}
		if n, err := pg.Count(); err == nil {
			logger.Info("Mirrored %d cleaned rows to PostgreSQL (table: listings)", n)
		}
	}

	reportSvc := services.NewReportService(logger)
	reportSvc.Print(reportSvc.Build(cleaned, stats))

	if err := trackedRun.Finish(ctx); err != nil {
		logger.Warn("Failed to mark run finished: %v", err)
	}

	return nil
}
