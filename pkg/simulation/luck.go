package simulation

import "math/rand/v2"

// LuckTagThreshold is the luck delta beyond which a narrative is attached
const LuckTagThreshold = 5.0

var (
	positiveTags = []string{
		"Perfect run through all sectors",
		"Clean air throughout",
		"Flawless pit strategy",
		"Ideal conditions hit at the right moment",
		"Competitor incident cleared the way",
	}
	negativeTags = []string{
		"Mechanical issue on lap 3",
		"Traffic incident cost time",
		"Safety car negated the lead",
		"Unexpected surface grip loss",
		"Debris on track forced evasion",
	}
)

const NeutralTag = "Uneventful run, luck was a non-factor"

func luckTag(delta float64, rng *rand.Rand) string {
	switch {
	case delta > LuckTagThreshold:
		return positiveTags[rng.IntN(len(positiveTags))]
	case delta < -LuckTagThreshold:
		return negativeTags[rng.IntN(len(negativeTags))]
	default:
		return NeutralTag
	}
}
