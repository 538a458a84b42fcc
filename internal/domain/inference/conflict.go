package inference

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
)

var ErrUnknownStrategy = errors.New("unknown conflict strategy")

type Strategy string

const (
	StrategyPriority    Strategy = "priority"
	StrategySpecificity Strategy = "specificity"
	StrategyCombined    Strategy = "combined"
)

// ParseStrategy maps a strategy name; empty selects fallback.
func ParseStrategy(name string, fallback Strategy) (Strategy, error) {
	switch s := Strategy(strings.ToLower(strings.TrimSpace(name))); s {
	case "":
		return fallback, nil
	case StrategyPriority, StrategySpecificity, StrategyCombined:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// CombinedWeights are the coefficients of the combined strategy's composite score.
type CombinedWeights struct {
	Priority    float64
	Specificity float64
}

func DefaultCombinedWeights() CombinedWeights {
	return CombinedWeights{Priority: 0.6, Specificity: 0.4}
}

func (w CombinedWeights) Validate() error {
	if w.Priority < 0 || w.Specificity < 0 || math.IsNaN(w.Priority) || math.IsNaN(w.Specificity) {
		return errors.New("combined weights must be non-negative")
	}
	if w.Priority+w.Specificity == 0 {
		return errors.New("combined weights must not both be zero")
	}
	return nil
}

// Resolve returns the index of the winning rule in set.
func Resolve(strategy Strategy, set []Rule, w CombinedWeights) (int, bool) {
	if len(set) == 0 {
		return 0, false
	}
	return orderIndices(strategy, set, w)[0], true
}

// Order returns set sorted by the strategy, winner first. set is not modified.
func Order(strategy Strategy, set []Rule, w CombinedWeights) []Rule {
	out := make([]Rule, 0, len(set))
	for _, i := range orderIndices(strategy, set, w) {
		out = append(out, set[i])
	}
	return out
}

func orderIndices(strategy Strategy, set []Rule, w CombinedWeights) []int {
	idx := make([]int, len(set))
	for i := range idx {
		idx[i] = i
	}
	var less func(a, b Rule) int
	switch strategy {
	case StrategyPriority:
		less = byPriority
	case StrategySpecificity:
		less = bySpecificity
	default:
		scores := compositeScores(set, w)
		slices.SortStableFunc(idx, func(a, b int) int {
			if c := cmp.Compare(scores[b], scores[a]); c != 0 {
				return c
			}
			return cmp.Compare(set[a].ID, set[b].ID)
		})
		return idx
	}
	slices.SortStableFunc(idx, func(a, b int) int { return less(set[a], set[b]) })
	return idx
}

func byPriority(a, b Rule) int {
	if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Specificity, a.Specificity); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func bySpecificity(a, b Rule) int {
	if c := cmp.Compare(b.Specificity, a.Specificity); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// CompositeScore is wp*normP + ws*normS, normalized against the set's own
// min/max. An all-equal dimension normalizes to 1.
func CompositeScore(r Rule, set []Rule, w CombinedWeights) float64 {
	minP, maxP, minS, maxS := bounds(set)
	return w.Priority*normalize(float64(r.Priority), minP, maxP) +
		w.Specificity*normalize(float64(r.Specificity), minS, maxS)
}

func compositeScores(set []Rule, w CombinedWeights) []float64 {
	minP, maxP, minS, maxS := bounds(set)
	out := make([]float64, len(set))
	for i, r := range set {
		out[i] = w.Priority*normalize(float64(r.Priority), minP, maxP) +
			w.Specificity*normalize(float64(r.Specificity), minS, maxS)
	}
	return out
}

func bounds(set []Rule) (minP, maxP, minS, maxS float64) {
	for i, r := range set {
		p, s := float64(r.Priority), float64(r.Specificity)
		if i == 0 {
			minP, maxP, minS, maxS = p, p, s, s
			continue
		}
		minP, maxP = math.Min(minP, p), math.Max(maxP, p)
		minS, maxS = math.Min(minS, s), math.Max(maxS, s)
	}
	return minP, maxP, minS, maxS
}

func normalize(v, lo, hi float64) float64 {
	if hi == lo {
		return 1
	}
	return (v - lo) / (hi - lo)
}
