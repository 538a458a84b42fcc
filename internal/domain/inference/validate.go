package inference

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var ErrInvalidRule = errors.New("invalid rule")

const (
	MinPriority = 1
	MaxPriority = 100
)

// ValidationError names the offending field of a rejected rule.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrInvalidRule, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrInvalidRule, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidRule }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// PrepareRule normalizes a rule for storage and derives its specificity.
// The returned rule is a copy; the argument is left untouched.
func PrepareRule(r Rule) (Rule, error) {
	out := r.Clone()
	out.Name = strings.TrimSpace(out.Name)
	out.Category = strings.TrimSpace(out.Category)
	for i := range out.Conditions {
		out.Conditions[i].Entity = normalizeName(out.Conditions[i].Entity)
		out.Conditions[i].Attribute = normalizeName(out.Conditions[i].Attribute)
	}
	for i := range out.Actions {
		out.Actions[i].Entity = normalizeName(out.Actions[i].Entity)
		out.Actions[i].Attribute = normalizeName(out.Actions[i].Attribute)
		if out.Actions[i].Kind == ActionBoost && out.Actions[i].Mode == "" {
			out.Actions[i].Mode = BoostAdd
		}
	}
	out.Specificity = len(out.Conditions)
	if err := ValidateRule(out); err != nil {
		return Rule{}, err
	}
	return out, nil
}

func ValidateRule(r Rule) error {
	if strings.TrimSpace(r.Name) == "" {
		return invalid("name", "must not be empty")
	}
	if r.Priority < MinPriority || r.Priority > MaxPriority {
		return invalid("priority", "must be between %d and %d, got %d", MinPriority, MaxPriority, r.Priority)
	}
	if len(r.Conditions) == 0 {
		return invalid("conditions", "at least one condition is required")
	}
	if r.Specificity != len(r.Conditions) {
		return invalid("specificity", "must equal the number of conditions")
	}
	if len(r.Actions) == 0 {
		return invalid("actions", "at least one action is required")
	}
	for i, c := range r.Conditions {
		if err := validateCondition(fmt.Sprintf("conditions[%d]", i), c); err != nil {
			return err
		}
	}
	for i, a := range r.Actions {
		if err := validateAction(fmt.Sprintf("actions[%d]", i), a); err != nil {
			return err
		}
	}
	return nil
}

func validateCondition(field string, c Condition) error {
	if strings.TrimSpace(c.Entity) == "" {
		return invalid(field+".entity", "must not be empty")
	}
	if strings.TrimSpace(c.Attribute) == "" {
		return invalid(field+".attribute", "must not be empty")
	}
	return validateOperand(field, c.Operator, c.Value)
}

func validateOperand(field string, op Operator, v Value) error {
	if _, ok := ParseOperator(string(op)); !ok {
		return invalid(field+".operator", "unsupported operator %q", op)
	}
	if !v.Valid() {
		return invalid(field+".value", "is required")
	}
	if op == OpIn && v.Kind() != KindList {
		return invalid(field+".value", "operator in requires a list")
	}
	return nil
}

func validateAction(field string, a Action) error {
	if _, ok := ParseActionKind(string(a.Kind)); !ok {
		return invalid(field+".type", "unsupported action type %q", a.Kind)
	}
	if a.Kind == ActionAssert {
		if isCandidateEntity(a.Entity) || strings.TrimSpace(a.Entity) == "" {
			return invalid(field+".entity", "assert needs a working-memory entity")
		}
		if strings.TrimSpace(a.Attribute) == "" {
			return invalid(field+".attribute", "must not be empty")
		}
		if !a.Value.Valid() {
			return invalid(field+".value", "is required")
		}
		return nil
	}
	if _, ok := a.target(); !ok {
		return invalid(field+".entity", "unknown candidate target %q", a.Entity)
	}
	switch a.Kind {
	case ActionFilter:
		if strings.TrimSpace(a.Attribute) == "" {
			return invalid(field+".attribute", "must not be empty")
		}
		return validateOperand(field, a.Operator, a.Value)
	case ActionBoost:
		if math.IsNaN(a.Amount) || math.IsInf(a.Amount, 0) {
			return invalid(field+".amount", "must be finite")
		}
		switch a.Mode {
		case "", BoostAdd, BoostMultiply:
		default:
			return invalid(field+".mode", "unsupported boost mode %q", a.Mode)
		}
	}
	return nil
}
