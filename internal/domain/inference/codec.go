package inference

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

var errEmptyDocument = errors.New("empty document")

// ConditionDoc is the authored (JSON/YAML) shape of a condition.
type ConditionDoc struct {
	Entity    string `json:"entity" yaml:"entity"`
	Attribute string `json:"attribute" yaml:"attribute"`
	Operator  string `json:"operator" yaml:"operator"`
	Value     any    `json:"value" yaml:"value"`
}

// ActionDoc is the authored shape of an action; Type selects the variant.
type ActionDoc struct {
	Type            string  `json:"type" yaml:"type"`
	Entity          string  `json:"entity,omitempty" yaml:"entity,omitempty"`
	Attribute       string  `json:"attribute,omitempty" yaml:"attribute,omitempty"`
	Operator        string  `json:"operator,omitempty" yaml:"operator,omitempty"`
	Value           any     `json:"value,omitempty" yaml:"value,omitempty"`
	ExcludeMatching bool    `json:"exclude_matching,omitempty" yaml:"exclude_matching,omitempty"`
	Amount          float64 `json:"amount,omitempty" yaml:"amount,omitempty"`
	Mode            string  `json:"mode,omitempty" yaml:"mode,omitempty"`
	Reason          string  `json:"reason,omitempty" yaml:"reason,omitempty"`
}

func ConditionsFromDocs(docs []ConditionDoc) ([]Condition, error) {
	out := make([]Condition, 0, len(docs))
	for i, d := range docs {
		field := fmt.Sprintf("conditions[%d]", i)
		op, ok := ParseOperator(d.Operator)
		if !ok {
			return nil, invalid(field+".operator", "unsupported operator %q", d.Operator)
		}
		v, err := ValueOf(d.Value)
		if err != nil {
			return nil, invalid(field+".value", "%v", err)
		}
		out = append(out, Condition{Entity: normalizeName(d.Entity), Attribute: normalizeName(d.Attribute), Operator: op, Value: v})
	}
	return out, nil
}

func ActionsFromDocs(docs []ActionDoc) ([]Action, error) {
	out := make([]Action, 0, len(docs))
	for i, d := range docs {
		field := fmt.Sprintf("actions[%d]", i)
		kind, ok := ParseActionKind(d.Type)
		if !ok {
			return nil, invalid(field+".type", "unsupported action type %q", d.Type)
		}
		a := Action{
			Kind:            kind,
			Entity:          normalizeName(d.Entity),
			Attribute:       normalizeName(d.Attribute),
			ExcludeMatching: d.ExcludeMatching,
			Amount:          d.Amount,
			Mode:            BoostMode(normalizeName(d.Mode)),
			Reason:          d.Reason,
		}
		if d.Operator != "" {
			op, ok := ParseOperator(d.Operator)
			if !ok {
				return nil, invalid(field+".operator", "unsupported operator %q", d.Operator)
			}
			a.Operator = op
		}
		if d.Value != nil {
			v, err := ValueOf(d.Value)
			if err != nil {
				return nil, invalid(field+".value", "%v", err)
			}
			a.Value = v
		}
		out = append(out, a)
	}
	return out, nil
}

func ConditionDocs(conds []Condition) []ConditionDoc {
	out := make([]ConditionDoc, 0, len(conds))
	for _, c := range conds {
		out = append(out, ConditionDoc{Entity: c.Entity, Attribute: c.Attribute, Operator: string(c.Operator), Value: c.Value.Interface()})
	}
	return out
}

func ActionDocs(actions []Action) []ActionDoc {
	out := make([]ActionDoc, 0, len(actions))
	for _, a := range actions {
		out = append(out, ActionDoc{
			Type:            string(a.Kind),
			Entity:          a.Entity,
			Attribute:       a.Attribute,
			Operator:        string(a.Operator),
			Value:           a.Value.Interface(),
			ExcludeMatching: a.ExcludeMatching,
			Amount:          a.Amount,
			Mode:            string(a.Mode),
			Reason:          a.Reason,
		})
	}
	return out
}

// DecodeConditions accepts a JSON array or a JSON string holding one.
func DecodeConditions(data []byte) ([]Condition, error) {
	var docs []ConditionDoc
	if err := decodeDocs(data, &docs); err != nil {
		return nil, invalid("conditions_json", "%v", err)
	}
	return ConditionsFromDocs(docs)
}

// DecodeActions accepts a JSON array or a JSON string holding one.
func DecodeActions(data []byte) ([]Action, error) {
	var docs []ActionDoc
	if err := decodeDocs(data, &docs); err != nil {
		return nil, invalid("actions_json", "%v", err)
	}
	return ActionsFromDocs(docs)
}

func EncodeConditions(conds []Condition) ([]byte, error) {
	return json.Marshal(ConditionDocs(conds))
}

func EncodeActions(actions []Action) ([]byte, error) {
	return json.Marshal(ActionDocs(actions))
}

func decodeDocs(data []byte, dst any) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errEmptyDocument
	}
	if data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return err
		}
		data = []byte(inner)
	}
	return json.Unmarshal(data, dst)
}
