package inference

import (
	"cmp"
	"slices"
	"strings"
)

// FallbackConfidence is reported for every recommendation when no kept
// candidate has a positive score.
const FallbackConfidence = 0.5

type Recommendation struct {
	Candidate         Candidate
	Rank              int
	Score             float64
	Confidence        float64
	Justification     string
	ContributingRules []string
}

// Rank keeps recommended or positively scored survivors, orders them by
// score desc, rating desc, id asc and caps the list at limit (limit <= 0 keeps all).
func Rank(outcomes []Outcome, limit int) []Recommendation {
	kept := make([]Outcome, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Excluded {
			continue
		}
		if o.Recommended || o.Score > 0 {
			kept = append(kept, o)
		}
	}
	slices.SortStableFunc(kept, func(a, b Outcome) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Candidate.Rating, a.Candidate.Rating); c != 0 {
			return c
		}
		return cmp.Compare(a.Candidate.ID, b.Candidate.ID)
	})

	maxScore := 0.0
	for _, o := range kept {
		maxScore = max(maxScore, o.Score)
	}
	if limit > 0 && len(kept) > limit {
		kept = kept[:limit]
	}

	out := make([]Recommendation, 0, len(kept))
	for i, o := range kept {
		out = append(out, Recommendation{
			Candidate:         o.Candidate,
			Rank:              i + 1,
			Score:             o.Score,
			Confidence:        confidence(o.Score, maxScore),
			Justification:     justification(o),
			ContributingRules: o.ContributingRules,
		})
	}
	return out
}

func confidence(score, maxScore float64) float64 {
	if maxScore <= 0 {
		return FallbackConfidence
	}
	return min(max(score/maxScore, 0), 1)
}

func justification(o Outcome) string {
	if len(o.Reasons) > 0 {
		return strings.Join(o.Reasons, "; ")
	}
	if len(o.ContributingRules) > 0 {
		return "matched " + strings.Join(o.ContributingRules, ", ")
	}
	return ""
}
