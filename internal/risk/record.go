// Package risk holds the flare-up rules: record validation, the tiered
// classifier, insight text and windowed trend analysis. Everything here is
// pure and safe for concurrent use.
package risk

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

type ExerciseType string

const (
	ExerciseCardio      ExerciseType = "cardio"
	ExerciseStrength    ExerciseType = "strength"
	ExerciseFlexibility ExerciseType = "flexibility"
	ExerciseBalance     ExerciseType = "balance"
	ExerciseYoga        ExerciseType = "yoga"
	ExerciseRunning     ExerciseType = "running"
)

var exerciseTypes = map[ExerciseType]struct{}{
	ExerciseCardio:      {},
	ExerciseStrength:    {},
	ExerciseFlexibility: {},
	ExerciseBalance:     {},
	ExerciseYoga:        {},
	ExerciseRunning:     {},
}

func ExerciseTypes() []ExerciseType {
	return []ExerciseType{ExerciseCardio, ExerciseStrength, ExerciseFlexibility, ExerciseBalance, ExerciseYoga, ExerciseRunning}
}

func ParseExerciseType(raw string) (ExerciseType, bool) {
	et := ExerciseType(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := exerciseTypes[et]
	return et, ok
}

var dietTriggers = map[string]struct{}{
	"dairy":     {},
	"spicy":     {},
	"fried":     {},
	"processed": {},
	"gluten":    {},
}

const (
	MinLevel      = 1
	MaxLevel      = 10
	MinSleepHours = 0.0
	MaxSleepHours = 24.0
	MaxNoteLength = 500
)

// Record is one day of self-reported symptoms. Treat it as immutable.
type Record struct {
	SubjectID      string
	PainLevel      int
	StressLevel    int
	SleepHours     float64
	ExerciseDone   bool
	ExerciseType   *ExerciseType
	TookMedication bool
	LoggedAt       time.Time

	DietTriggers    []string
	DietNotes       string
	AdditionalNotes string
}

// Validate checks every field domain. It cannot detect absent fields; use
// Draft for input where absence must be reported.
func (r Record) Validate() error {
	verr := &ValidationError{}
	if strings.TrimSpace(r.SubjectID) == "" {
		verr.add("subject_id", "is required")
	}
	checkLevel(verr, "pain_level", r.PainLevel)
	checkLevel(verr, "stress_level", r.StressLevel)
	checkSleep(verr, r.SleepHours)
	if r.ExerciseDone && r.ExerciseType != nil {
		if _, ok := exerciseTypes[*r.ExerciseType]; !ok {
			verr.add("exercise_type", fmt.Sprintf("must be one of %s", joinExerciseTypes()))
		}
	}
	checkDiet(verr, r.DietTriggers)
	checkNote(verr, "diet_notes", r.DietNotes)
	checkNote(verr, "additional_notes", r.AdditionalNotes)
	return verr.orNil()
}

// ValidateCore checks the fields the classification rules read. The two
// booleans always carry a value in a Record.
func (r Record) ValidateCore() error {
	verr := &ValidationError{}
	checkLevel(verr, "pain_level", r.PainLevel)
	checkLevel(verr, "stress_level", r.StressLevel)
	checkSleep(verr, r.SleepHours)
	return verr.orNil()
}

// Draft is a record as submitted: nil pointers are absent fields.
type Draft struct {
	SubjectID       string
	PainLevel       *int
	StressLevel     *int
	SleepHours      *float64
	ExerciseDone    *bool
	ExerciseType    *string
	TookMedication  *bool
	DietTriggers    []string
	DietNotes       *string
	AdditionalNotes *string
}

// Record validates the draft and stamps it with loggedAt.
func (d Draft) Record(loggedAt time.Time) (Record, error) {
	verr := &ValidationError{}
	subject := strings.TrimSpace(d.SubjectID)
	if subject == "" {
		verr.add("subject_id", "is required")
	}
	if d.PainLevel == nil {
		verr.add("pain_level", "is required")
	} else {
		checkLevel(verr, "pain_level", *d.PainLevel)
	}
	if d.StressLevel == nil {
		verr.add("stress_level", "is required")
	} else {
		checkLevel(verr, "stress_level", *d.StressLevel)
	}
	if d.SleepHours == nil {
		verr.add("sleep_hours", "is required")
	} else {
		checkSleep(verr, *d.SleepHours)
	}
	if d.ExerciseDone == nil {
		verr.add("exercise_done", "is required")
	}
	if d.TookMedication == nil {
		verr.add("took_medication", "is required")
	}

	var exerciseType *ExerciseType
	if d.ExerciseDone != nil && *d.ExerciseDone && d.ExerciseType != nil && strings.TrimSpace(*d.ExerciseType) != "" {
		et, ok := ParseExerciseType(*d.ExerciseType)
		if !ok {
			verr.add("exercise_type", fmt.Sprintf("must be one of %s", joinExerciseTypes()))
		} else {
			exerciseType = &et
		}
	}

	triggers := make([]string, 0, len(d.DietTriggers))
	for _, t := range d.DietTriggers {
		triggers = append(triggers, strings.ToLower(strings.TrimSpace(t)))
	}
	checkDiet(verr, triggers)
	dietNotes := derefTrim(d.DietNotes)
	notes := derefTrim(d.AdditionalNotes)
	checkNote(verr, "diet_notes", dietNotes)
	checkNote(verr, "additional_notes", notes)

	if err := verr.orNil(); err != nil {
		return Record{}, err
	}
	return Record{
		SubjectID:       subject,
		PainLevel:       *d.PainLevel,
		StressLevel:     *d.StressLevel,
		SleepHours:      *d.SleepHours,
		ExerciseDone:    *d.ExerciseDone,
		ExerciseType:    exerciseType,
		TookMedication:  *d.TookMedication,
		LoggedAt:        loggedAt,
		DietTriggers:    triggers,
		DietNotes:       dietNotes,
		AdditionalNotes: notes,
	}, nil
}

func checkLevel(verr *ValidationError, field string, v int) {
	if v < MinLevel || v > MaxLevel {
		verr.add(field, fmt.Sprintf("must be between %d and %d", MinLevel, MaxLevel))
	}
}

func checkSleep(verr *ValidationError, v float64) {
	// NaN fails both comparisons, so test the accepted range directly.
	if !(v >= MinSleepHours && v <= MaxSleepHours) {
		verr.add("sleep_hours", "must be between 0 and 24")
	}
}

func checkDiet(verr *ValidationError, triggers []string) {
	for _, t := range triggers {
		if _, ok := dietTriggers[t]; !ok {
			verr.add("diet_triggers", fmt.Sprintf("unknown trigger %q", t))
			return
		}
	}
}

func checkNote(verr *ValidationError, field, v string) {
	if utf8.RuneCountInString(v) > MaxNoteLength {
		verr.add(field, fmt.Sprintf("must be at most %d characters", MaxNoteLength))
	}
}

func derefTrim(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func joinExerciseTypes() string {
	names := make([]string, 0, len(exerciseTypes))
	for _, et := range ExerciseTypes() {
		names = append(names, string(et))
	}
	return strings.Join(names, ", ")
}
