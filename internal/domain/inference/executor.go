package inference

// firing applies one rule's actions in authored order.
type firing struct {
	rule   Rule
	act    activation
	facts  *FactStore
	byID   map[int64]*candidateState
	added  []Fact
	counts map[string]int
	order  []string
}

func (f *firing) count(attribute string) {
	if _, ok := f.counts[attribute]; !ok {
		f.order = append(f.order, attribute)
	}
	f.counts[attribute]++
}

func (f *firing) run() []Fact {
	f.counts = make(map[string]int)
	for _, a := range f.rule.Actions {
		if a.Kind == ActionAssert {
			if f.facts.Assert(a.Entity, a.Attribute, a.Value) {
				f.added = append(f.added, NewFact(a.Entity, a.Attribute, a.Value))
			}
			continue
		}
		for _, st := range f.targets(a) {
			f.apply(a, st)
		}
	}
	for _, attr := range f.order {
		f.added = append(f.added, NewFact(entityCandidates, attr, IntValue(f.counts[attr])))
	}
	return f.added
}

// targets resolves the candidates an action touches at the moment it runs,
// so a filter earlier in the same firing hides its victims from later actions.
func (f *firing) targets(a Action) []*candidateState {
	t, ok := a.target()
	if !ok {
		return nil
	}
	if !t.implicit {
		st, found := f.byID[t.candidateID]
		if !found || st.excluded {
			return nil
		}
		return []*candidateState{st}
	}
	pool := f.act.preferred
	if a.Kind == ActionFilter {
		pool = f.act.candidates
	}
	out := make([]*candidateState, 0, len(pool))
	for _, st := range pool {
		if !st.excluded {
			out = append(out, st)
		}
	}
	return out
}

func (f *firing) apply(a Action, st *candidateState) {
	switch a.Kind {
	case ActionRecommend:
		st.recommended = true
		st.addReason(a.Reason)
		st.addContributor(f.rule.Name)
		f.count("recommended")
	case ActionExclude:
		if st.exclude() {
			st.addReason(a.Reason)
			f.count("excluded")
		}
	case ActionFilter:
		holds := EvaluationScope{Facts: f.facts, Candidate: st}.Holds(a.embeddedCondition())
		drop := !holds
		if a.ExcludeMatching {
			drop = holds
		}
		if drop && st.exclude() {
			st.addReason(a.Reason)
			f.count("filtered")
		}
	case ActionBoost:
		if st.excluded {
			return
		}
		if a.Mode == BoostMultiply {
			st.score *= a.Amount
		} else {
			st.score += a.Amount
		}
		st.addReason(a.Reason)
		st.addContributor(f.rule.Name)
		f.count("boosted")
	}
}
