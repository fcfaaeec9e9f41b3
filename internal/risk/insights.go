package risk

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	MsgFlareLead  = "Your recent symptom logs indicate a potential flare-up. Please take care of yourself."
	MsgExercise   = "Exercise: Consider light activities to boost your energy."
	MsgMedication = "Medication: Ensure you're following your plan."
	MsgRemission  = "Fantastic! You seem to be in remission. Keep up your healthy habits!"
)

// Insights returns the display-ordered guidance for a classified record.
// Remission always yields exactly one message.
func Insights(r Record, c Classification) []string {
	if !c.Flare() {
		return []string{MsgRemission}
	}
	out := []string{MsgFlareLead}
	if r.PainLevel > 5 {
		out = append(out, fmt.Sprintf("Pain Level: %d. High pain can be challenging.", r.PainLevel))
	}
	if r.StressLevel > 6 {
		out = append(out, fmt.Sprintf("Stress Level: %d. High stress affects your well-being.", r.StressLevel))
	}
	if r.SleepHours < 7 {
		out = append(out, fmt.Sprintf("Sleep: %s hours. Aim for 7-9 hours.", formatHours(r.SleepHours)))
	}
	if !r.ExerciseDone {
		out = append(out, MsgExercise)
	}
	if !r.TookMedication {
		out = append(out, MsgMedication)
	}
	return out
}

// formatHours prints the shortest exact form, keeping one decimal for whole
// numbers ("6.0", "6.5").
func formatHours(h float64) string {
	s := strconv.FormatFloat(h, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
