// Package forecast is the optional statistical side of flare-up prediction.
// The rule table in package risk stays authoritative; a Predictor adds a
// probability estimate on top of it.
package forecast

import (
	"github.com/yungbote/remission-backend/internal/risk"
)

const (
	SourceRules = "rules"
	SourceModel = "model"
)

type Predictor interface {
	Predict(r risk.Record) (Prediction, error)
	Insights(history []risk.Record) risk.TrendSummary
}

type Prediction struct {
	Flare       bool     `json:"flare_up"`
	Probability float64  `json:"probability"`
	Suggestions []string `json:"suggestions"`
	Source      string   `json:"source"`
}

const (
	SuggestHighPain   = "Pain level is high. Consult your healthcare provider."
	SuggestHighStress = "High stress detected. Consider stress management techniques."
	SuggestMissedMeds = "Missed medication may increase flare-up risk."
	SuggestNoExercise = "Regular light exercise can improve symptoms."
)

// Suggestions are the short, prediction-independent tips shown next to a
// model estimate.
func Suggestions(r risk.Record) []string {
	out := make([]string, 0, 4)
	if r.PainLevel > 7 {
		out = append(out, SuggestHighPain)
	}
	if r.StressLevel > 6 {
		out = append(out, SuggestHighStress)
	}
	if !r.TookMedication {
		out = append(out, SuggestMissedMeds)
	}
	if !r.ExerciseDone {
		out = append(out, SuggestNoExercise)
	}
	return out
}

// RulePredictor answers with the rule table, as a certainty.
type RulePredictor struct {
	Window int
}

func (p RulePredictor) Predict(r risk.Record) (Prediction, error) {
	c, err := risk.Classify(r)
	if err != nil {
		return Prediction{}, err
	}
	prob := 0.0
	if c.Flare() {
		prob = 1
	}
	return Prediction{
		Flare:       c.Flare(),
		Probability: prob,
		Suggestions: Suggestions(r),
		Source:      SourceRules,
	}, nil
}

func (p RulePredictor) Insights(history []risk.Record) risk.TrendSummary {
	return risk.Analyze(history, p.Window)
}
