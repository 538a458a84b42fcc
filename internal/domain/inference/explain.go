package inference

import (
	"fmt"
	"strings"
)

type ConclusionConfidence struct {
	Conclusion        string   `json:"conclusion"`
	Confidence        float64  `json:"confidence"`
	ContributingRules []string `json:"contributing_rules"`
}

type Explanation struct {
	Summary                string                 `json:"summary"`
	ConclusionsExplanation []string               `json:"conclusions_explanation"`
	ReasoningChain         []Trace                `json:"reasoning_chain"`
	ConfidenceBreakdown    []ConclusionConfidence `json:"confidence_breakdown"`
}

// Explain builds the explanation for a finished run and its ranked output.
func Explain(res *Result, recs []Recommendation) Explanation {
	exp := Explanation{
		Summary:                summarize(res, len(recs)),
		ConclusionsExplanation: []string{},
		ReasoningChain:         res.Traces,
		ConfidenceBreakdown:    []ConclusionConfidence{},
	}
	if exp.ReasoningChain == nil {
		exp.ReasoningChain = []Trace{}
	}

	for _, r := range recs {
		line := fmt.Sprintf("%s ranked #%d with confidence %.2f", r.Candidate.Title, r.Rank, r.Confidence)
		if r.Justification != "" {
			line += ": " + r.Justification
		}
		exp.ConclusionsExplanation = append(exp.ConclusionsExplanation, line)
		exp.ConfidenceBreakdown = append(exp.ConfidenceBreakdown, ConclusionConfidence{
			Conclusion:        "recommend_game:" + r.Candidate.Title,
			Confidence:        r.Confidence,
			ContributingRules: dedupe(r.ContributingRules),
		})
	}

	for _, d := range derivedFacts(res) {
		exp.ConclusionsExplanation = append(exp.ConclusionsExplanation,
			fmt.Sprintf("%s.%s = %s (derived by %s)", d.fact.Entity, d.fact.Attribute, d.fact.Value, strings.Join(d.rules, ", ")))
		exp.ConfidenceBreakdown = append(exp.ConfidenceBreakdown, ConclusionConfidence{
			Conclusion:        fmt.Sprintf("%s.%s=%s", d.fact.Entity, d.fact.Attribute, d.fact.Value),
			Confidence:        1,
			ContributingRules: d.rules,
		})
	}
	return exp
}

type derived struct {
	fact  Fact
	rules []string
}

// derivedFacts lists asserted facts with their final value and the rules
// that wrote them, in first-assert order.
func derivedFacts(res *Result) []derived {
	var out []derived
	pos := make(map[factKey]int)
	for _, t := range res.Traces {
		for _, f := range t.FactsAdded {
			if f.Entity == entityCandidates {
				continue
			}
			k := factKey{entity: f.Entity, attribute: f.Attribute}
			i, ok := pos[k]
			if !ok {
				i = len(out)
				pos[k] = i
				out = append(out, derived{fact: f})
			}
			out[i].rules = appendUnique(out[i].rules, t.RuleName)
		}
	}
	for _, f := range res.Facts {
		if i, ok := pos[factKey{entity: f.Entity, attribute: f.Attribute}]; ok {
			out[i].fact = f
		}
	}
	return out
}

func summarize(res *Result, recommended int) string {
	fired := len(res.Traces)
	if res.Termination == TerminationExhausted && fired == 0 {
		return fmt.Sprintf("No rule applied to the given facts; %d recommendation(s) returned.", recommended)
	}
	var how string
	switch res.Termination {
	case TerminationGoalReached:
		how = "reached its goal"
	case TerminationExhausted:
		how = "ran out of applicable rules"
	case TerminationIterationLimit:
		how = "stopped at the iteration limit"
	case TerminationCancelled:
		how = "was cancelled"
	default:
		how = "finished"
	}
	return fmt.Sprintf("Inference %s after %d iteration(s): %d rule(s) fired, %d recommendation(s) returned.",
		how, res.Iterations, fired, recommended)
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = appendUnique(out, s)
	}
	return out
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
