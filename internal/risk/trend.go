package risk

import (
	"sort"
	"strings"
)

const (
	DefaultWindow  = 5
	FlagMinRecords = 3

	MsgInsufficientData = "No data available for trend analysis."
	MsgStable           = "No significant trends detected."
	MsgLowSleep         = "You slept less than 6 hours on several recent days. Improving sleep hygiene might help."
	MsgMissedMeds       = "Medication was missed on several recent days. Ensure regular medication intake to manage symptoms effectively."
	MsgHighStress       = "Your stress level has been high on several recent days. Stress reduction strategies could improve your health."
	MsgLowExercise      = "You skipped exercise on several recent days. Light regular activity can improve symptoms."
)

type TrendFlags struct {
	LowSleep         bool `json:"low_sleep"`
	MissedMedication bool `json:"missed_medication"`
	HighStress       bool `json:"high_stress"`
	LowExercise      bool `json:"low_exercise"`

	LowSleepCount         int `json:"low_sleep_count"`
	MissedMedicationCount int `json:"missed_medication_count"`
	HighStressCount       int `json:"high_stress_count"`
	LowExerciseCount      int `json:"low_exercise_count"`
}

func (f TrendFlags) Any() bool {
	return f.LowSleep || f.MissedMedication || f.HighStress || f.LowExercise
}

type TrendSummary struct {
	Narrative  string     `json:"narrative"`
	Sentences  []string   `json:"sentences"`
	Flags      TrendFlags `json:"flags"`
	Window     int        `json:"window"`
	Records    int        `json:"records"`
	Sufficient bool       `json:"sufficient"`
	AvgPain    float64    `json:"avg_pain"`
	AvgStress  float64    `json:"avg_stress"`
	AvgSleep   float64    `json:"avg_sleep"`
}

// Analyze summarizes the most recent window records of one subject's history.
// An empty history is a normal outcome with the insufficient-data narrative.
func Analyze(history []Record, window int) TrendSummary {
	if window <= 0 {
		window = DefaultWindow
	}
	recent := lastN(history, window)
	if len(recent) == 0 {
		return TrendSummary{
			Narrative: MsgInsufficientData,
			Sentences: []string{MsgInsufficientData},
			Window:    window,
		}
	}

	var flags TrendFlags
	var painSum, stressSum, sleepSum float64
	for _, r := range recent {
		if r.SleepHours < 6 {
			flags.LowSleepCount++
		}
		if !r.TookMedication {
			flags.MissedMedicationCount++
		}
		if r.StressLevel > 6 {
			flags.HighStressCount++
		}
		if !r.ExerciseDone {
			flags.LowExerciseCount++
		}
		painSum += float64(r.PainLevel)
		stressSum += float64(r.StressLevel)
		sleepSum += r.SleepHours
	}
	flags.LowSleep = flags.LowSleepCount >= FlagMinRecords
	flags.MissedMedication = flags.MissedMedicationCount >= FlagMinRecords
	flags.HighStress = flags.HighStressCount >= FlagMinRecords
	flags.LowExercise = flags.LowExerciseCount >= FlagMinRecords

	sentences := make([]string, 0, 4)
	if flags.LowSleep {
		sentences = append(sentences, MsgLowSleep)
	}
	if flags.MissedMedication {
		sentences = append(sentences, MsgMissedMeds)
	}
	if flags.HighStress {
		sentences = append(sentences, MsgHighStress)
	}
	if flags.LowExercise {
		sentences = append(sentences, MsgLowExercise)
	}
	if len(sentences) == 0 {
		sentences = append(sentences, MsgStable)
	}

	n := float64(len(recent))
	return TrendSummary{
		Narrative:  strings.Join(sentences, " "),
		Sentences:  sentences,
		Flags:      flags,
		Window:     window,
		Records:    len(recent),
		Sufficient: true,
		AvgPain:    painSum / n,
		AvgStress:  stressSum / n,
		AvgSleep:   sleepSum / n,
	}
}

// lastN returns the n most recent records, oldest first, without touching
// the caller's slice.
func lastN(history []Record, n int) []Record {
	if len(history) == 0 {
		return nil
	}
	sorted := make([]Record, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LoggedAt.Before(sorted[j].LoggedAt)
	})
	if len(sorted) > n {
		sorted = sorted[len(sorted)-n:]
	}
	return sorted
}
