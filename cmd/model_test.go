package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/yungbote/remission-backend/internal/forecast"
)

func newGenDataCmd(out *bytes.Buffer) *cobra.Command {
	cmd := &cobra.Command{RunE: runGenData}
	cmd.Flags().Int("n", 0, "")
	cmd.Flags().Int64("seed", 7, "")
	cmd.Flags().String("out", "", "")
	cmd.SetOut(out)
	return cmd
}

func TestGenDataWritesCSV(t *testing.T) {
	var buf bytes.Buffer
	cmd := newGenDataCmd(&buf)
	_ = cmd.Flags().Set("n", "25")
	if err := cmd.RunE(cmd, nil); err != nil {
		t.Fatalf("gen-data: %v", err)
	}
	samples, err := forecast.ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(samples) != 25 {
		t.Fatalf("rows=%d, want 25", len(samples))
	}
}

func TestGenDataRejectsNonPositiveN(t *testing.T) {
	var buf bytes.Buffer
	cmd := newGenDataCmd(&buf)
	if err := cmd.RunE(cmd, nil); err == nil {
		t.Fatalf("want error for --n 0")
	}
}

func TestLoadSamples(t *testing.T) {
	if got, err := loadSamples("", 10, 1); err != nil || len(got) != 10 {
		t.Fatalf("synthetic: %d, %v", len(got), err)
	}

	path := filepath.Join(t.TempDir(), "data.csv")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := forecast.WriteCSV(f, forecast.Generate(12, 3)); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	_ = f.Close()
	if got, err := loadSamples(path, 0, 1); err != nil || len(got) != 12 {
		t.Fatalf("csv: %d, %v", len(got), err)
	}
	if _, err := loadSamples(filepath.Join(t.TempDir(), "missing.csv"), 0, 1); err == nil {
		t.Fatalf("want error for a missing dataset")
	}
}

func TestTrainRequiresOneSource(t *testing.T) {
	cmd := &cobra.Command{RunE: runTrain}
	cmd.Flags().String("data", "", "")
	cmd.Flags().Int("synthetic", 0, "")
	cmd.Flags().Int("trees", 5, "")
	cmd.Flags().Int("depth", 4, "")
	cmd.Flags().Int64("seed", 1, "")
	cmd.Flags().Float64("test-fraction", 0.2, "")
	cmd.Flags().String("out", "", "")
	if err := cmd.RunE(cmd, nil); err == nil {
		t.Fatalf("want error with neither --data nor --synthetic")
	}
	_ = cmd.Flags().Set("data", "x.csv")
	_ = cmd.Flags().Set("synthetic", "10")
	if err := cmd.RunE(cmd, nil); err == nil {
		t.Fatalf("want error with both --data and --synthetic")
	}
}

func TestTrainSavesModel(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("APP_ENV", "testing")
	t.Setenv("MODEL_DIR", dir)
	t.Setenv("MODEL_GCS_BUCKET_NAME", "")

	var out bytes.Buffer
	cmd := &cobra.Command{RunE: runTrain}
	cmd.Flags().String("data", "", "")
	cmd.Flags().Int("synthetic", 200, "")
	cmd.Flags().Int("trees", 5, "")
	cmd.Flags().Int("depth", 6, "")
	cmd.Flags().Int64("seed", 1, "")
	cmd.Flags().Float64("test-fraction", 0.2, "")
	cmd.Flags().String("out", "flare-test", "")
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	if err := cmd.ExecuteContext(t.Context()); err != nil {
		t.Fatalf("train: %v", err)
	}
	m, err := forecast.FileStore{Dir: dir}.Load(t.Context(), "flare-test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Window != 5 || len(m.Forest.Trees) != 5 {
		t.Fatalf("saved model: window=%d trees=%d", m.Window, len(m.Forest.Trees))
	}
}
