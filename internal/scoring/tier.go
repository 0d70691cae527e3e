package scoring

// Tier is one of the three ordered seniority classifications.
type Tier string

const (
	TierJunior       Tier = "junior"
	TierIntermediate Tier = "intermediate"
	TierSenior       Tier = "senior"
)

// Score thresholds. Inclusive lower bounds, fixed at compile time.
const (
	intermediateMin = 40.0
	seniorMin       = 70.0
)

// ClassifyTier maps a normalized 0..100 score to a seniority tier.
// Total over the numeric domain: anything below the intermediate
// threshold (including 0) is junior.
func ClassifyTier(score float64) Tier {
	switch {
	case score >= seniorMin:
		return TierSenior
	case score >= intermediateMin:
		return TierIntermediate
	default:
		return TierJunior
	}
}

// Ordinal returns 1..3 for valid tiers, 0 otherwise.
func (t Tier) Ordinal() int {
	switch t {
	case TierJunior:
		return 1
	case TierIntermediate:
		return 2
	case TierSenior:
		return 3
	default:
		return 0
	}
}

func (t Tier) Valid() bool { return t.Ordinal() != 0 }

// Label returns the display form used in plan documents and emails.
func (t Tier) Label() string {
	switch t {
	case TierJunior:
		return "Junior"
	case TierIntermediate:
		return "Intermediate"
	case TierSenior:
		return "Senior"
	default:
		return string(t)
	}
}

// ParseTier validates a wire value coming from API payloads.
func ParseTier(s string) (Tier, bool) {
	t := Tier(s)
	return t, t.Valid()
}
