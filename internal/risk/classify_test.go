package risk

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func rec(pain, stress int, sleep float64, exercised, meds bool) Record {
	return Record{
		SubjectID:      "1700000000",
		PainLevel:      pain,
		StressLevel:    stress,
		SleepHours:     sleep,
		ExerciseDone:   exercised,
		TookMedication: meds,
		LoggedAt:       time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name     string
		in       Record
		wantTag  Tag
		wantTier int
	}{
		{name: "tier1_high_pain", in: rec(8, 2, 8, true, true), wantTag: TagFlare, wantTier: 1},
		{name: "tier1_boundary", in: rec(7, 1, 9, true, true), wantTag: TagFlare, wantTier: 1},
		{name: "tier2_short_sleep", in: rec(5, 3, 6, true, true), wantTag: TagFlare, wantTier: 2},
		{name: "tier2_missed_meds", in: rec(6, 1, 8, true, false), wantTag: TagFlare, wantTier: 2},
		{name: "tier2_stress_above_5", in: rec(5, 6, 8, true, true), wantTag: TagFlare, wantTier: 2},
		{name: "tier2_stress_equal_5", in: rec(5, 5, 7, true, true), wantTag: TagRemission},
		{name: "tier2_sleep_exactly_7", in: rec(6, 5, 7, false, true), wantTag: TagRemission},
		{name: "tier3_all_four", in: rec(3, 7, 6, false, false), wantTag: TagFlare, wantTier: 3},
		{name: "tier3_three_of_four", in: rec(2, 1, 5, false, false), wantTag: TagFlare, wantTier: 3},
		{name: "tier3_two_of_four", in: rec(4, 7, 8, false, true), wantTag: TagRemission},
		{name: "tier3_stress_equal_6_not_counted", in: rec(4, 6, 8, false, false), wantTag: TagRemission},
		{name: "pain_one_blocks_everything", in: rec(1, 10, 2, false, false), wantTag: TagRemission},
		{name: "healthy", in: rec(2, 2, 8, true, true), wantTag: TagRemission},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Classify(tc.in)
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if got.Tag != tc.wantTag || got.Tier != tc.wantTier {
				t.Fatalf("Classify()=%+v, want tag=%s tier=%d", got, tc.wantTag, tc.wantTier)
			}
		})
	}
}

func TestClassifyRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		in   Record
	}{
		{name: "pain_zero", in: rec(0, 5, 7, true, true)},
		{name: "pain_eleven", in: rec(11, 5, 7, true, true)},
		{name: "stress_zero", in: rec(5, 0, 7, true, true)},
		{name: "sleep_negative", in: rec(5, 5, -1, true, true)},
		{name: "sleep_over_24", in: rec(5, 5, 24.5, true, true)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Classify(tc.in)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || len(verr.Fields) == 0 {
				t.Fatalf("expected *ValidationError with fields, got %#v", err)
			}
		})
	}
}

func TestClassifyChecksOnlyRuleFields(t *testing.T) {
	long := strings.Repeat("x", MaxNoteLength+1)
	bad := ExerciseType("skydiving")
	cases := []struct {
		name string
		edit func(r *Record)
	}{
		{name: "no_subject", edit: func(r *Record) { r.SubjectID = "" }},
		{name: "long_diet_notes", edit: func(r *Record) { r.DietNotes = long }},
		{name: "long_additional_notes", edit: func(r *Record) { r.AdditionalNotes = long }},
		{name: "unknown_trigger", edit: func(r *Record) { r.DietTriggers = []string{"sand"} }},
		{name: "unknown_exercise", edit: func(r *Record) { r.ExerciseType = &bad }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := rec(8, 5, 7, true, true)
			tc.edit(&r)
			if r.Validate() == nil {
				t.Fatalf("Validate should still reject the record")
			}
			c, err := Classify(r)
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if c.Tag != TagFlare || c.Tier != 1 {
				t.Fatalf("classification: %+v", c)
			}
		})
	}
}

// Walks the whole discrete input space to check the properties that must hold
// for every valid record.
func TestClassifyProperties(t *testing.T) {
	sleeps := []float64{0, 5.5, 6, 6.9, 7, 8, 24}
	for pain := MinLevel; pain <= MaxLevel; pain++ {
		for stress := MinLevel; stress <= MaxLevel; stress++ {
			for _, sleep := range sleeps {
				for _, exercised := range []bool{true, false} {
					for _, meds := range []bool{true, false} {
						r := rec(pain, stress, sleep, exercised, meds)
						first, err := Classify(r)
						if err != nil {
							t.Fatalf("Classify(%+v): %v", r, err)
						}
						second, _ := Classify(r)
						if first != second {
							t.Fatalf("non-deterministic result for %+v: %+v vs %+v", r, first, second)
						}
						if pain >= 7 && (!first.Flare() || first.Tier != 1) {
							t.Fatalf("pain %d must be tier-1 flare, got %+v", pain, first)
						}
						if pain == 1 && first.Flare() {
							t.Fatalf("pain 1 must be remission, got %+v for %+v", first, r)
						}
						if first.Flare() == (first.Tier == 0) {
							t.Fatalf("tier/tag mismatch: %+v", first)
						}
					}
				}
			}
		}
	}
}

func TestClassifyDoesNotMutateInput(t *testing.T) {
	et := ExerciseYoga
	r := rec(6, 7, 5, true, false)
	r.ExerciseType = &et
	r.DietTriggers = []string{"dairy"}
	before := r
	beforeTriggers := append([]string(nil), r.DietTriggers...)
	c, err := Classify(r)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	_ = Insights(r, c)
	if !reflect.DeepEqual(before, r) || !reflect.DeepEqual(beforeTriggers, r.DietTriggers) || *r.ExerciseType != ExerciseYoga {
		t.Fatalf("record mutated: before=%+v after=%+v", before, r)
	}
}
