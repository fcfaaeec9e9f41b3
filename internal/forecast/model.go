package forecast

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/yungbote/remission-backend/internal/risk"
)

const ModelFormatVersion = 1

var ErrTooFewSamples = errors.New("forecast: too few samples to train")

type TrainOptions struct {
	Trees        int
	MaxDepth     int
	MinLeaf      int
	Seed         int64
	TestFraction float64
	Workers      int
}

func DefaultTrainOptions() TrainOptions {
	return TrainOptions{Trees: 100, MaxDepth: 12, MinLeaf: 1, Seed: 42, TestFraction: 0.2}
}

type Report struct {
	TrainRows int     `json:"train_rows"`
	TestRows  int     `json:"test_rows"`
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
}

// Model is a fitted pipeline plus forest. It is read-only after Train or
// Load and safe for concurrent use.
type Model struct {
	Version   int       `json:"version"`
	TrainedAt time.Time `json:"trained_at"`
	Pipeline  Pipeline  `json:"pipeline"`
	Forest    Forest    `json:"forest"`
	Report    Report    `json:"report"`
	Window    int       `json:"window,omitempty"`
}

func Train(ctx context.Context, samples []Sample, opts TrainOptions) (*Model, Report, error) {
	if len(samples) < 2 {
		return nil, Report{}, ErrTooFewSamples
	}
	if opts.TestFraction < 0 || opts.TestFraction >= 1 {
		return nil, Report{}, fmt.Errorf("forecast: test fraction %v out of range [0,1)", opts.TestFraction)
	}

	order := rand.New(rand.NewSource(opts.Seed)).Perm(len(samples))
	nTest := int(float64(len(samples)) * opts.TestFraction)
	testIdx, trainIdx := order[:nTest], order[nTest:]

	train := make([]Sample, len(trainIdx))
	for i, j := range trainIdx {
		train[i] = samples[j]
	}
	pipe := FitPipeline(train)
	X := make([][]float64, len(train))
	y := make([]bool, len(train))
	for i, s := range train {
		X[i] = pipe.Transform(s)
		y[i] = s.Label
	}

	forest, err := FitForest(ctx, X, y, ForestOptions{
		Trees:    opts.Trees,
		MaxDepth: opts.MaxDepth,
		MinLeaf:  opts.MinLeaf,
		Seed:     opts.Seed,
		Workers:  opts.Workers,
	})
	if err != nil {
		return nil, Report{}, err
	}

	m := &Model{
		Version:   ModelFormatVersion,
		TrainedAt: time.Now().UTC(),
		Pipeline:  pipe,
		Forest:    forest,
	}
	rep := Report{TrainRows: len(train), TestRows: nTest}
	var tp, fp, fn, correct int
	for _, j := range testIdx {
		s := samples[j]
		pred := m.probability(s) > 0.5
		switch {
		case pred && s.Label:
			tp++
		case pred && !s.Label:
			fp++
		case !pred && s.Label:
			fn++
		}
		if pred == s.Label {
			correct++
		}
	}
	if nTest > 0 {
		rep.Accuracy = float64(correct) / float64(nTest)
	}
	if tp+fp > 0 {
		rep.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		rep.Recall = float64(tp) / float64(tp+fn)
	}
	m.Report = rep
	return m, rep, nil
}

func (m *Model) probability(s Sample) float64 {
	return m.Forest.Probability(m.Pipeline.Transform(s))
}

func (m *Model) Predict(r risk.Record) (Prediction, error) {
	if err := r.ValidateCore(); err != nil {
		return Prediction{}, err
	}
	p := m.probability(SampleFromRecord(r))
	return Prediction{
		Flare:       p > 0.5,
		Probability: p,
		Suggestions: Suggestions(r),
		Source:      SourceModel,
	}, nil
}

func (m *Model) Insights(history []risk.Record) risk.TrendSummary {
	return risk.Analyze(history, m.Window)
}

func (m *Model) check() error {
	if m.Version != ModelFormatVersion {
		return fmt.Errorf("forecast: unsupported model version %d", m.Version)
	}
	if len(m.Forest.Trees) == 0 {
		return errors.New("forecast: model has no trees")
	}
	width := m.Pipeline.Width()
	for ti, t := range m.Forest.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("forecast: tree %d is empty", ti)
		}
		for ni, n := range t.Nodes {
			if n.Leaf {
				continue
			}
			if n.Feature < 0 || n.Feature >= width || n.Left <= ni || n.Right <= ni || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
				return fmt.Errorf("forecast: tree %d node %d is malformed", ti, ni)
			}
		}
	}
	return nil
}
