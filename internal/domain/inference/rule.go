package inference

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Operator string

const (
	OpEq       Operator = "=="
	OpNe       Operator = "!="
	OpGt       Operator = ">"
	OpLt       Operator = "<"
	OpGe       Operator = ">="
	OpLe       Operator = "<="
	OpIn       Operator = "in"
	OpContains Operator = "contains"
)

func supportedOperators() []Operator {
	return []Operator{OpEq, OpNe, OpGt, OpLt, OpGe, OpLe, OpIn, OpContains}
}

func ParseOperator(s string) (Operator, bool) {
	op := Operator(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range supportedOperators() {
		if op == known {
			return op, true
		}
	}
	return "", false
}

func (o Operator) numeric() bool {
	switch o {
	case OpGt, OpLt, OpGe, OpLe:
		return true
	default:
		return false
	}
}

type Condition struct {
	Entity    string
	Attribute string
	Operator  Operator
	Value     Value
}

func (c Condition) candidateScoped() bool { return isCandidateEntity(c.Entity) }

type ActionKind string

const (
	ActionRecommend ActionKind = "recommend"
	ActionFilter    ActionKind = "filter"
	ActionBoost     ActionKind = "boost"
	ActionExclude   ActionKind = "exclude"
	ActionAssert    ActionKind = "assert"
)

func supportedActionKinds() []ActionKind {
	return []ActionKind{ActionRecommend, ActionFilter, ActionBoost, ActionExclude, ActionAssert}
}

func ParseActionKind(s string) (ActionKind, bool) {
	k := ActionKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range supportedActionKinds() {
		if k == known {
			return k, true
		}
	}
	return "", false
}

type BoostMode string

const (
	BoostAdd      BoostMode = "add"
	BoostMultiply BoostMode = "multiply"
)

// Action is a closed variant keyed by Kind. Only the fields of that kind are read:
// Filter uses Attribute/Operator/Value/ExcludeMatching, Boost uses Amount/Mode,
// Assert uses Attribute/Value with Entity naming a working-memory entity.
type Action struct {
	Kind            ActionKind
	Entity          string
	Attribute       string
	Operator        Operator
	Value           Value
	ExcludeMatching bool
	Amount          float64
	Mode            BoostMode
	Reason          string
}

// embeddedCondition is the Filter action's test against a candidate.
func (a Action) embeddedCondition() Condition {
	return Condition{Entity: EntityCandidate, Attribute: a.Attribute, Operator: a.Operator, Value: a.Value}
}

type target struct {
	implicit    bool
	candidateID int64
}

// target resolves which candidate a candidate-affecting action applies to.
func (a Action) target() (target, bool) {
	e := normalizeName(a.Entity)
	if e == "" || isCandidateEntity(e) {
		return target{implicit: true}, true
	}
	for _, prefix := range []string{EntityGame + ":", EntityCandidate + ":"} {
		e = strings.TrimPrefix(e, prefix)
	}
	id, err := strconv.ParseInt(e, 10, 64)
	if err != nil || id <= 0 {
		return target{}, false
	}
	return target{candidateID: id}, true
}

func (a Action) affectsCandidates() bool { return a.Kind != ActionAssert }

type Rule struct {
	ID          int64
	Name        string
	Description string
	Category    string
	Priority    int
	Specificity int
	Active      bool
	Conditions  []Condition
	Actions     []Action
	TimesFired  int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Clone deep-copies the rule so run snapshots never alias repository state.
func (r Rule) Clone() Rule {
	out := r
	out.Conditions = slices.Clone(r.Conditions)
	out.Actions = slices.Clone(r.Actions)
	return out
}

// candidateScoped reports whether the rule is evaluated once per surviving candidate.
func (r Rule) candidateScoped() bool {
	for _, c := range r.Conditions {
		if c.candidateScoped() {
			return true
		}
	}
	for _, a := range r.Actions {
		if !a.affectsCandidates() {
			continue
		}
		if t, ok := a.target(); ok && t.implicit {
			return true
		}
	}
	return false
}

// SortRules applies the repository's default order: priority desc, specificity desc, id asc.
func SortRules(rules []Rule) {
	slices.SortStableFunc(rules, func(a, b Rule) int {
		if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Specificity, a.Specificity); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
