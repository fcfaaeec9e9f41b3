package forecast

import (
	"math"
	"sort"
)

// Pipeline turns a Sample into a model feature vector: numeric columns are
// mean-imputed then standardized, the exercise type is mode-imputed then
// one-hot encoded.
type Pipeline struct {
	Means      [NumNumeric]float64 `json:"means"`
	Scales     [NumNumeric]float64 `json:"scales"`
	Mode       string              `json:"mode"`
	Categories []string            `json:"categories"`
}

func FitPipeline(samples []Sample) Pipeline {
	var p Pipeline
	for col := 0; col < NumNumeric; col++ {
		sum, n := 0.0, 0
		for _, s := range samples {
			if v := s.Features[col]; !math.IsNaN(v) {
				sum += v
				n++
			}
		}
		if n > 0 {
			p.Means[col] = sum / float64(n)
		}
		// Variance over the imputed column; imputed cells sit on the mean.
		ss := 0.0
		for _, s := range samples {
			if v := s.Features[col]; !math.IsNaN(v) {
				d := v - p.Means[col]
				ss += d * d
			}
		}
		std := 0.0
		if len(samples) > 0 {
			std = math.Sqrt(ss / float64(len(samples)))
		}
		if std == 0 {
			std = 1
		}
		p.Scales[col] = std
	}

	counts := map[string]int{}
	for _, s := range samples {
		if s.ExerciseType != "" {
			counts[s.ExerciseType]++
		}
	}
	for cat, c := range counts {
		if c > counts[p.Mode] || (c == counts[p.Mode] && cat < p.Mode) || p.Mode == "" {
			p.Mode = cat
		}
	}
	p.Categories = make([]string, 0, len(counts))
	for cat := range counts {
		p.Categories = append(p.Categories, cat)
	}
	sort.Strings(p.Categories)
	return p
}

func (p Pipeline) Width() int { return NumNumeric + len(p.Categories) }

func (p Pipeline) Transform(s Sample) []float64 {
	out := make([]float64, p.Width())
	for col := 0; col < NumNumeric; col++ {
		v := s.Features[col]
		if math.IsNaN(v) {
			v = p.Means[col]
		}
		out[col] = (v - p.Means[col]) / p.Scales[col]
	}
	cat := s.ExerciseType
	if cat == "" {
		cat = p.Mode
	}
	// Unknown categories encode as all zeros.
	if i := sort.SearchStrings(p.Categories, cat); i < len(p.Categories) && p.Categories[i] == cat {
		out[NumNumeric+i] = 1
	}
	return out
}
