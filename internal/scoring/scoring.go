package scoring

import "math"

// Answer is one weighted questionnaire response. Value is the 1..5
// ordinal rating; 0 means the question was left unanswered.
type Answer struct {
	Weight float64 `json:"weight"`
	Value  int     `json:"value"`
}

// Score computes the normalized 0..100 score for a set of answers.
//
// Unanswered questions (value 0) are excluded entirely: the weighted
// average runs over answered weight only, so a partial submission is
// not penalized for missing questions. The 1..5 average is scaled by
// 20 and rounded to 2 decimal places.
func Score(answers []Answer) float64 {
	var weightedSum, weightSum float64
	for _, a := range answers {
		if a.Value <= 0 {
			continue
		}
		weightedSum += float64(a.Value) * a.Weight
		weightSum += a.Weight
	}
	if weightSum == 0 {
		return 0
	}
	raw := weightedSum / weightSum // (0,5]
	return math.Round(raw*20*100) / 100
}
