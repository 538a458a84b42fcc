package inference

import (
	"context"
	"fmt"
	"strings"
)

const DefaultMaxIterations = 50

type Termination string

const (
	TerminationGoalReached    Termination = "goal_reached"
	TerminationExhausted      Termination = "exhausted"
	TerminationIterationLimit Termination = "iteration_limit"
	TerminationCancelled      Termination = "cancelled"
)

// Trace records one firing.
type Trace struct {
	Iteration    int    `json:"iteration"`
	RuleID       int64  `json:"rule_id"`
	RuleName     string `json:"rule_name"`
	FactsMatched []Fact `json:"facts_matched"`
	FactsAdded   []Fact `json:"facts_added"`
}

// Outcome is a candidate's overlay at the end of a run.
type Outcome struct {
	Candidate         Candidate
	Score             float64
	Excluded          bool
	Recommended       bool
	Reasons           []string
	ContributingRules []string
}

type Request struct {
	Rules         []Rule
	Candidates    []Candidate
	InitialFacts  []Fact
	Goal          string
	MaxIterations int
	Strategy      Strategy
}

type Result struct {
	Iterations   int
	Termination  Termination
	GoalReached  bool
	Traces       []Trace
	FiredRuleIDs []int64
	Facts        []Fact
	Outcomes     []Outcome
}

type Options struct {
	Weights  CombinedWeights
	Bindings Bindings
}

// Engine is stateless between runs and safe for concurrent use.
type Engine struct {
	weights CombinedWeights
	matcher matcher
}

func NewEngine(opts Options) *Engine {
	w := opts.Weights
	if w.Validate() != nil {
		w = DefaultCombinedWeights()
	}
	b := opts.Bindings
	if b == nil {
		b = DefaultBindings()
	}
	return &Engine{weights: w, matcher: matcher{bindings: b}}
}

type goal struct {
	entity    string
	attribute string
}

func parseGoal(s string) (goal, bool) {
	s = normalizeName(s)
	if s == "" {
		return goal{}, false
	}
	if entity, attr, ok := strings.Cut(s, "."); ok && entity != "" && attr != "" {
		return goal{entity: entity, attribute: attr}, true
	}
	return goal{entity: EntityUser, attribute: s}, true
}

func (g goal) reached(facts *FactStore) bool {
	v, ok := facts.Get(g.entity, g.attribute)
	return ok && v.Truthy()
}

// Run executes one forward-chaining pass. The request's rules and candidates
// are copied; nothing the caller holds is mutated. On cancellation the partial
// result is returned together with the wrapped context error.
func (e *Engine) Run(ctx context.Context, req Request) (*Result, error) {
	rules := make([]Rule, 0, len(req.Rules))
	for _, r := range req.Rules {
		if !r.Active {
			continue
		}
		c := r.Clone()
		c.Specificity = len(c.Conditions)
		rules = append(rules, c)
	}
	SortRules(rules)

	states := make([]*candidateState, 0, len(req.Candidates))
	byID := make(map[int64]*candidateState, len(req.Candidates))
	for _, c := range req.Candidates {
		st := &candidateState{Candidate: c}
		states = append(states, st)
		byID[c.ID] = st
	}
	facts := NewFactStore(req.InitialFacts...)
	g, hasGoal := parseGoal(req.Goal)

	res := &Result{Traces: []Trace{}, FiredRuleIDs: []int64{}}
	fired := make([]bool, len(rules))
	var runErr error

	switch {
	case hasGoal && g.reached(facts):
		res.Termination = TerminationGoalReached
	case req.MaxIterations <= 0:
		res.Termination = TerminationIterationLimit
	}

	for res.Termination == "" {
		if err := ctx.Err(); err != nil {
			res.Termination = TerminationCancelled
			runErr = fmt.Errorf("inference cancelled after %d iterations: %w", res.Iterations, err)
			break
		}
		set, acts := e.conflictSet(rules, fired, facts, states)
		winner, ok := Resolve(req.Strategy, set, e.weights)
		if !ok {
			res.Termination = TerminationExhausted
			break
		}
		act := acts[winner]
		rule := rules[act.index]
		res.Iterations++
		f := &firing{rule: rule, act: act, facts: facts, byID: byID}
		added := f.run()
		fired[act.index] = true
		res.FiredRuleIDs = append(res.FiredRuleIDs, rule.ID)
		res.Traces = append(res.Traces, Trace{
			Iteration:    res.Iterations,
			RuleID:       rule.ID,
			RuleName:     rule.Name,
			FactsMatched: nonNilFacts(act.matched),
			FactsAdded:   nonNilFacts(added),
		})
		switch {
		case hasGoal && g.reached(facts):
			res.Termination = TerminationGoalReached
		case res.Iterations >= req.MaxIterations:
			res.Termination = TerminationIterationLimit
		}
	}

	res.GoalReached = res.Termination == TerminationGoalReached
	res.Facts = facts.All()
	res.Outcomes = outcomes(states)
	return res, runErr
}

// conflictSet matches every active rule that has not fired yet.
func (e *Engine) conflictSet(rules []Rule, fired []bool, facts *FactStore, states []*candidateState) ([]Rule, []activation) {
	var set []Rule
	var acts []activation
	for i, r := range rules {
		if fired[i] {
			continue
		}
		act, ok := e.matcher.match(i, r, facts, states)
		if !ok {
			continue
		}
		set = append(set, r)
		acts = append(acts, act)
	}
	return set, acts
}

func outcomes(states []*candidateState) []Outcome {
	out := make([]Outcome, 0, len(states))
	for _, st := range states {
		out = append(out, Outcome{
			Candidate:         st.Candidate,
			Score:             st.score,
			Excluded:          st.excluded,
			Recommended:       st.recommended,
			Reasons:           append([]string(nil), st.reasons...),
			ContributingRules: append([]string(nil), st.contributors...),
		})
	}
	return out
}

func nonNilFacts(f []Fact) []Fact {
	if f == nil {
		return []Fact{}
	}
	return f
}
