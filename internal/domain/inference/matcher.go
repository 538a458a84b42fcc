package inference

import "strings"

// CandidateView exposes the attributes of one candidate to conditions.
type CandidateView interface {
	Attribute(name string) (Value, bool)
}

// EvaluationScope binds condition entities: candidate/game resolve against
// Candidate, every other entity against Facts. A nil Candidate is the global scope.
type EvaluationScope struct {
	Facts     *FactStore
	Candidate CandidateView
}

func (s EvaluationScope) lookup(entity, attribute string) (Value, bool) {
	if isCandidateEntity(entity) {
		if s.Candidate == nil {
			return Value{}, false
		}
		return s.Candidate.Attribute(attribute)
	}
	if s.Facts == nil {
		return Value{}, false
	}
	return s.Facts.Get(entity, attribute)
}

// Holds evaluates one condition. Absent attributes and type mismatches are false.
func (s EvaluationScope) Holds(c Condition) bool {
	actual, ok := s.lookup(c.Entity, c.Attribute)
	if !ok {
		return false
	}
	return Compare(actual, c.Operator, c.Value)
}

func (s EvaluationScope) HoldsAll(conds []Condition) bool {
	for _, c := range conds {
		if !s.Holds(c) {
			return false
		}
	}
	return true
}

// Compare applies op with actual on the left. A list on the left of == or !=
// is tested for membership.
func Compare(actual Value, op Operator, expected Value) bool {
	switch op {
	case OpEq:
		return equalOrMember(actual, expected)
	case OpNe:
		if !sameShape(actual, expected) {
			return false
		}
		return !equalOrMember(actual, expected)
	case OpGt, OpLt, OpGe, OpLe:
		a, ok1 := actual.AsNumber()
		b, ok2 := expected.AsNumber()
		if !ok1 || !ok2 {
			return false
		}
		switch op {
		case OpGt:
			return a > b
		case OpLt:
			return a < b
		case OpGe:
			return a >= b
		default:
			return a <= b
		}
	case OpIn:
		set, ok := expected.Items()
		if !ok {
			return false
		}
		if items, isList := actual.Items(); isList {
			for _, item := range items {
				if member(item, set) {
					return true
				}
			}
			return false
		}
		return member(actual, set)
	case OpContains:
		return contains(actual, expected)
	default:
		return false
	}
}

func sameShape(actual, expected Value) bool {
	if actual.Kind() == expected.Kind() {
		return true
	}
	return actual.Kind() == KindList && expected.Kind() != KindList
}

func equalOrMember(actual, expected Value) bool {
	if items, ok := actual.Items(); ok && expected.Kind() != KindList {
		return member(expected, items)
	}
	return actual.matches(expected)
}

func member(v Value, set []Value) bool {
	for _, item := range set {
		if v.matches(item) {
			return true
		}
	}
	return false
}

func contains(actual, expected Value) bool {
	if want, ok := expected.Items(); ok {
		if len(want) == 0 {
			return false
		}
		for _, w := range want {
			if !contains(actual, w) {
				return false
			}
		}
		return true
	}
	if s, ok := actual.AsString(); ok {
		sub, ok := expected.AsString()
		if !ok {
			return false
		}
		return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(sub)))
	}
	if items, ok := actual.Items(); ok {
		return member(expected, items)
	}
	return false
}

// Bindings maps a working-memory attribute to the candidate attribute it describes,
// e.g. prefers_genre -> genres.
type Bindings map[string]string

func DefaultBindings() Bindings {
	return Bindings{
		"prefers_genre":      "genres",
		"preferred_genre":    "genres",
		"favorite_genre":     "genres",
		"prefers_platform":   "platforms",
		"preferred_platform": "platforms",
		"platform":           "platforms",
		"prefers_tag":        "tags",
	}
}

// project turns matched preference facts into candidate conditions. Only
// positive tests (== and in) are projected, and only with the values the rule
// actually tested: a list-valued preference never widens a narrower rule.
func (b Bindings) project(conds []Condition, facts *FactStore) []Condition {
	var out []Condition
	for _, c := range conds {
		if c.Operator != OpEq && c.Operator != OpIn {
			continue
		}
		if normalizeName(c.Entity) != EntityUser {
			continue
		}
		bound, ok := b[normalizeName(c.Attribute)]
		if !ok {
			continue
		}
		actual, ok := facts.Get(c.Entity, c.Attribute)
		if !ok {
			continue
		}
		want, ok := projectedValue(c, actual)
		if !ok {
			continue
		}
		op := OpEq
		if want.Kind() == KindList {
			op = OpIn
		}
		out = append(out, Condition{Entity: EntityCandidate, Attribute: bound, Operator: op, Value: want})
	}
	return out
}

// projectedValue is the part of the preference the condition matched: the
// tested value for ==, the fact items inside the tested list for in.
func projectedValue(c Condition, actual Value) (Value, bool) {
	if c.Operator == OpEq {
		return c.Value, true
	}
	set, ok := c.Value.Items()
	if !ok {
		return Value{}, false
	}
	items, isList := actual.Items()
	if !isList {
		return actual, member(actual, set)
	}
	var hit []Value
	for _, item := range items {
		if member(item, set) {
			hit = append(hit, item)
		}
	}
	if len(hit) == 0 {
		return Value{}, false
	}
	if len(hit) == 1 {
		return hit[0], true
	}
	return ListValue(hit...), true
}

// activation is one member of the conflict set. candidates satisfy the rule's
// candidate conditions; preferred narrows them further by projected preferences.
type activation struct {
	index      int
	matched    []Fact
	candidates []*candidateState
	preferred  []*candidateState
}

type matcher struct {
	bindings Bindings
}

// match evaluates a rule against working memory and, for candidate-scoped
// rules, every surviving candidate.
func (m matcher) match(index int, r Rule, facts *FactStore, states []*candidateState) (activation, bool) {
	global := EvaluationScope{Facts: facts}
	act := activation{index: index}
	var local, globals []Condition
	for _, c := range r.Conditions {
		if c.candidateScoped() {
			local = append(local, c)
			continue
		}
		if !global.Holds(c) {
			return activation{}, false
		}
		globals = append(globals, c)
		v, _ := global.lookup(c.Entity, c.Attribute)
		act.matched = append(act.matched, NewFact(c.Entity, c.Attribute, v))
	}
	if !r.candidateScoped() {
		return act, true
	}
	act.candidates = selectCandidates(states, facts, local)
	if len(act.candidates) == 0 {
		return activation{}, false
	}
	act.preferred = act.candidates
	if projected := m.bindings.project(globals, facts); len(projected) > 0 {
		act.preferred = selectCandidates(act.candidates, facts, projected)
	}
	act.matched = append(act.matched, NewFact(entityCandidates, "matched", IntValue(len(act.preferred))))
	return act, true
}

func selectCandidates(states []*candidateState, facts *FactStore, conds []Condition) []*candidateState {
	var out []*candidateState
	for _, st := range states {
		if st.excluded {
			continue
		}
		if (EvaluationScope{Facts: facts, Candidate: st}).HoldsAll(conds) {
			out = append(out, st)
		}
	}
	return out
}
