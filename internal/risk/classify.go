package risk

type Tag string

const (
	TagFlare     Tag = "flare"
	TagRemission Tag = "remission"
)

// Classification is the outcome of the rule table. Tier names the rule that
// fired (1..3); it is 0 for remission.
type Classification struct {
	Tag  Tag `json:"classification"`
	Tier int `json:"tier"`
}

func (c Classification) Flare() bool { return c.Tag == TagFlare }

// Classify applies the tiered flare-up rules in order; the first tier that
// fires wins. Only the fields the rules read are checked; out-of-range values
// are rejected, never defaulted. Identity and free text are Validate's job.
func Classify(r Record) (Classification, error) {
	if err := r.ValidateCore(); err != nil {
		return Classification{}, err
	}
	return classify(r), nil
}

func classify(r Record) Classification {
	switch {
	case r.PainLevel >= 7:
		return Classification{Tag: TagFlare, Tier: 1}
	case r.PainLevel >= 5 && (r.SleepHours < 7 || !r.TookMedication || r.StressLevel > 5):
		return Classification{Tag: TagFlare, Tier: 2}
	case r.PainLevel >= 2 && lifestyleRiskCount(r) >= 3:
		return Classification{Tag: TagFlare, Tier: 3}
	default:
		return Classification{Tag: TagRemission}
	}
}

// lifestyleRiskCount counts the tier-3 conditions that hold.
func lifestyleRiskCount(r Record) int {
	n := 0
	for _, hit := range [...]bool{
		r.SleepHours < 7,
		!r.TookMedication,
		!r.ExerciseDone,
		r.StressLevel > 6,
	} {
		if hit {
			n++
		}
	}
	return n
}
