package forecast

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/remission-backend/internal/risk"
)

const (
	FeaturePain = iota
	FeatureStress
	FeatureSleep
	FeatureExercise
	FeatureMedication
	NumNumeric
)

// Sample is one labeled training row. NaN features and an empty exercise
// type are missing values; the Pipeline imputes them.
type Sample struct {
	SubjectID    string
	LoggedAt     time.Time
	Features     [NumNumeric]float64
	ExerciseType string
	Label        bool
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func SampleFromRecord(r risk.Record) Sample {
	s := Sample{
		SubjectID: r.SubjectID,
		LoggedAt:  r.LoggedAt,
		Features: [NumNumeric]float64{
			FeaturePain:       float64(r.PainLevel),
			FeatureStress:     float64(r.StressLevel),
			FeatureSleep:      r.SleepHours,
			FeatureExercise:   boolFeature(r.ExerciseDone),
			FeatureMedication: boolFeature(r.TookMedication),
		},
	}
	if r.ExerciseDone && r.ExerciseType != nil {
		s.ExerciseType = string(*r.ExerciseType)
	}
	return s
}

var generatedExerciseTypes = []string{
	string(risk.ExerciseCardio),
	string(risk.ExerciseStrength),
	string(risk.ExerciseYoga),
	string(risk.ExerciseRunning),
	"",
}

var generateEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Generate builds n synthetic rows labeled by the rule table. The same seed
// always yields the same rows.
func Generate(n int, seed int64) []Sample {
	rng := rand.New(rand.NewSource(seed))
	out := make([]Sample, 0, n)
	for i := 0; i < n; i++ {
		r := risk.Record{
			SubjectID:      fmt.Sprintf("%010d", 1_000_000_000+rng.Int63n(9_000_000_000)),
			PainLevel:      risk.MinLevel + rng.Intn(risk.MaxLevel),
			StressLevel:    risk.MinLevel + rng.Intn(risk.MaxLevel),
			SleepHours:     math.Round((4+rng.Float64()*5)*10) / 10,
			ExerciseDone:   rng.Intn(2) == 1,
			TookMedication: rng.Intn(2) == 1,
			LoggedAt:       generateEpoch.Add(time.Duration(rng.Int63n(int64(365 * 24 * time.Hour)))).Truncate(time.Second),
		}
		if r.ExerciseDone {
			if name := generatedExerciseTypes[rng.Intn(len(generatedExerciseTypes))]; name != "" {
				et := risk.ExerciseType(name)
				r.ExerciseType = &et
			}
		}
		c, err := risk.Classify(r)
		if err != nil {
			// Every generated field is in range.
			panic(err)
		}
		s := SampleFromRecord(r)
		s.Label = c.Flare()
		out = append(out, s)
	}
	return out
}

var csvHeader = []string{
	"user_id", "pain_level", "stress_level", "sleep_hours", "exercise_done",
	"exercise_type", "took_medication", "flare_up", "logged_at",
}

func formatFeature(v float64, isBool bool) string {
	switch {
	case math.IsNaN(v):
		return ""
	case isBool:
		return strconv.FormatBool(v != 0)
	default:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
}

func WriteCSV(w io.Writer, samples []Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, s := range samples {
		logged := ""
		if !s.LoggedAt.IsZero() {
			logged = s.LoggedAt.UTC().Format(time.RFC3339)
		}
		row := []string{
			s.SubjectID,
			formatFeature(s.Features[FeaturePain], false),
			formatFeature(s.Features[FeatureStress], false),
			formatFeature(s.Features[FeatureSleep], false),
			formatFeature(s.Features[FeatureExercise], true),
			s.ExerciseType,
			formatFeature(s.Features[FeatureMedication], true),
			strconv.FormatBool(s.Label),
			logged,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads rows by header name, so column order does not matter.
// Blank cells become missing values; the label column is required.
func ReadCSV(r io.Reader) ([]Sample, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	labelIdx, ok := col["flare_up"]
	if !ok {
		return nil, fmt.Errorf("csv: missing flare_up column")
	}

	cell := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []Sample
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		var s Sample
		s.SubjectID = cell(row, "user_id")
		for i, name := range [...]string{"pain_level", "stress_level", "sleep_hours", "exercise_done", "took_medication"} {
			v, err := parseFeature(cell(row, name))
			if err != nil {
				return nil, fmt.Errorf("csv line %d %s: %w", line, name, err)
			}
			s.Features[i] = v
		}
		et := strings.ToLower(cell(row, "exercise_type"))
		if et != "none" && et != "nan" {
			s.ExerciseType = et
		}
		label, err := parseFeature(strings.TrimSpace(row[labelIdx]))
		if err != nil || math.IsNaN(label) {
			return nil, fmt.Errorf("csv line %d flare_up: invalid label %q", line, row[labelIdx])
		}
		s.Label = label != 0
		if raw := cell(row, "logged_at"); raw != "" {
			if t, err := time.Parse(time.RFC3339, raw); err == nil {
				s.LoggedAt = t
			}
		}
		out = append(out, s)
	}
	return out, nil
}

func parseFeature(raw string) (float64, error) {
	switch strings.ToLower(raw) {
	case "", "nan", "none":
		return math.NaN(), nil
	case "true", "yes":
		return 1, nil
	case "false", "no":
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}
