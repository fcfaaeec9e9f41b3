package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/yungbote/remission-backend/internal/app"
	"github.com/yungbote/remission-backend/internal/forecast"
)

func runTrain(cmd *cobra.Command, _ []string) error {
	dataPath, _ := cmd.Flags().GetString("data")
	synthetic, _ := cmd.Flags().GetInt("synthetic")
	trees, _ := cmd.Flags().GetInt("trees")
	depth, _ := cmd.Flags().GetInt("depth")
	seed, _ := cmd.Flags().GetInt64("seed")
	testFraction, _ := cmd.Flags().GetFloat64("test-fraction")
	name, _ := cmd.Flags().GetString("out")

	if (dataPath == "") == (synthetic <= 0) {
		return fmt.Errorf("exactly one of --data or --synthetic is required")
	}

	log, cfg, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()
	ctx := cmd.Context()
	if name == "" {
		name = cfg.Model.Name
	}

	samples, err := loadSamples(dataPath, synthetic, seed)
	if err != nil {
		return err
	}

	opts := forecast.DefaultTrainOptions()
	opts.Trees = trees
	opts.MaxDepth = depth
	opts.Seed = seed
	opts.TestFraction = testFraction

	log.Info("Training flare model", "rows", len(samples), "trees", trees, "name", name)
	model, report, err := forecast.Train(ctx, samples, opts)
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}
	model.Window = cfg.Trends.Window

	bucket, store, err := app.OpenModelStore(ctx, log, cfg)
	if err != nil {
		return err
	}
	if bucket != nil {
		defer bucket.Close()
	}
	if err := store.Save(ctx, name, model); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	log.Info("Model saved",
		"name", name,
		"train_rows", report.TrainRows,
		"test_rows", report.TestRows,
		"accuracy", report.Accuracy,
		"precision", report.Precision,
		"recall", report.Recall,
	)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func loadSamples(path string, synthetic int, seed int64) ([]forecast.Sample, error) {
	if synthetic > 0 {
		return forecast.Generate(synthetic, seed), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return forecast.ReadCSV(f)
}

func runGenData(cmd *cobra.Command, _ []string) error {
	n, _ := cmd.Flags().GetInt("n")
	seed, _ := cmd.Flags().GetInt64("seed")
	out, _ := cmd.Flags().GetString("out")
	if n <= 0 {
		return fmt.Errorf("--n must be positive")
	}

	var w io.Writer = cmd.OutOrStdout()
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create %s: %w", out, err)
		}
		defer f.Close()
		w = f
	}
	return forecast.WriteCSV(w, forecast.Generate(n, seed))
}
