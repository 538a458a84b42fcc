package inference

// FilterCandidates returns the candidates satisfying every condition, in input
// order. It is the same primitive a Filter action applies during a run.
func FilterCandidates(candidates []Candidate, conds []Condition) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	for i := range candidates {
		if (EvaluationScope{Candidate: candidates[i]}).HoldsAll(conds) {
			out = append(out, candidates[i])
		}
	}
	return out
}
