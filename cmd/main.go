package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yungbote/remission-backend/internal/app"
	"github.com/yungbote/remission-backend/internal/platform/logger"
)

var rootCmd = &cobra.Command{
	Use:           "remission",
	Short:         "remission - symptom tracking and flare risk backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the trend scheduler",
	RunE:  runServe,
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the flare classifier and save it to the model store",
	RunE:  runTrain,
}

var genDataCmd = &cobra.Command{
	Use:   "gen-data",
	Short: "Write a synthetic labeled symptom dataset as CSV",
	RunE:  runGenData,
}

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Recompute stored trend analyses for every subject once",
	RunE:  runTrends,
}

func init() {
	trainCmd.Flags().String("data", "", "CSV dataset to train on")
	trainCmd.Flags().Int("synthetic", 0, "train on N generated rows instead of --data")
	trainCmd.Flags().Int("trees", 100, "number of trees in the forest")
	trainCmd.Flags().Int("depth", 12, "maximum tree depth")
	trainCmd.Flags().Int64("seed", 42, "random seed for the split and the forest")
	trainCmd.Flags().Float64("test-fraction", 0.2, "share of rows held out for the report")
	trainCmd.Flags().String("out", "", "model name (defaults to MODEL_NAME)")

	genDataCmd.Flags().Int("n", 1000, "number of rows")
	genDataCmd.Flags().Int64("seed", 42, "random seed")
	genDataCmd.Flags().String("out", "", "output path (stdout when empty)")

	rootCmd.AddCommand(serveCmd, trainCmd, genDataCmd, trendsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "remission:", err)
		os.Exit(1)
	}
}

// setup builds the logger and loads config the same way for every command.
func setup() (*logger.Logger, app.Config, error) {
	log, err := app.NewLogger(os.Getenv("LOG_MODE"))
	if err != nil {
		return nil, app.Config{}, err
	}
	cfg, err := app.LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, app.Config{}, fmt.Errorf("load config: %w", err)
	}
	return log, cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	log, cfg, err := setup()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	a, err := app.New(ctx, log, cfg)
	if err != nil {
		log.Error("Failed to init app", "error", err)
		log.Sync()
		return err
	}
	defer a.Close()

	if err := a.Start(ctx); err != nil {
		return fmt.Errorf("start background work: %w", err)
	}
	return a.Run(ctx)
}

func runTrends(cmd *cobra.Command, _ []string) error {
	log, cfg, err := setup()
	if err != nil {
		return err
	}
	// The one-off pass owns its own run; the in-process scheduler is not needed.
	cfg.Trends.Cron = ""

	a, err := app.New(cmd.Context(), log, cfg)
	if err != nil {
		log.Sync()
		return err
	}
	defer a.Close()

	n, err := a.Services.Analysis.RefreshTrends(cmd.Context())
	if err != nil {
		return fmt.Errorf("refresh trends: %w", err)
	}
	log.Info("Trend refresh finished", "subjects", n)
	return nil
}
