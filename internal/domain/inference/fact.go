package inference

import "strings"

const (
	EntityUser       = "user"
	EntityCandidate  = "candidate"
	EntityGame       = "game"
	entityCandidates = "candidates"
)

type Fact struct {
	Entity    string `json:"entity"`
	Attribute string `json:"attribute"`
	Value     Value  `json:"value"`
}

func NewFact(entity, attribute string, value Value) Fact {
	return Fact{Entity: normalizeName(entity), Attribute: normalizeName(attribute), Value: value}
}

type factKey struct {
	entity    string
	attribute string
}

// FactStore is the working memory of one run. Facts are unique by
// (entity, attribute) and All returns them in first-insertion order.
type FactStore struct {
	index map[factKey]int
	facts []Fact
}

func NewFactStore(initial ...Fact) *FactStore {
	s := &FactStore{index: make(map[factKey]int, len(initial))}
	for _, f := range initial {
		s.Assert(f.Entity, f.Attribute, f.Value)
	}
	return s
}

// Assert stores the value and reports whether working memory changed.
func (s *FactStore) Assert(entity, attribute string, value Value) bool {
	k := factKey{entity: normalizeName(entity), attribute: normalizeName(attribute)}
	if i, ok := s.index[k]; ok {
		if s.facts[i].Value.Equal(value) {
			return false
		}
		s.facts[i].Value = value
		return true
	}
	s.index[k] = len(s.facts)
	s.facts = append(s.facts, Fact{Entity: k.entity, Attribute: k.attribute, Value: value})
	return true
}

func (s *FactStore) Get(entity, attribute string) (Value, bool) {
	i, ok := s.index[factKey{entity: normalizeName(entity), attribute: normalizeName(attribute)}]
	if !ok {
		return Value{}, false
	}
	return s.facts[i].Value, true
}

func (s *FactStore) All() []Fact {
	out := make([]Fact, len(s.facts))
	copy(out, s.facts)
	return out
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func isCandidateEntity(entity string) bool {
	switch normalizeName(entity) {
	case EntityCandidate, EntityGame:
		return true
	default:
		return false
	}
}
