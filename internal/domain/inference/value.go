package inference

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

var ErrInvalidValue = errors.New("invalid value")

type ValueKind int

const (
	KindInvalid ValueKind = iota
	KindString
	KindNumber
	KindBool
	KindList
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	default:
		return "invalid"
	}
}

// Value is the scalar carried by facts, conditions and candidate attributes.
// Lists exist for `in` operands and multi-valued attributes such as genres.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	b    bool
	list []Value
}

func StringValue(s string) Value { return Value{kind: KindString, str: s} }

func NumberValue(n float64) Value { return Value{kind: KindNumber, num: n} }

func IntValue(n int) Value { return Value{kind: KindNumber, num: float64(n)} }

func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

func ListValue(items ...Value) Value {
	out := make([]Value, len(items))
	copy(out, items)
	return Value{kind: KindList, list: out}
}

func StringsValue(items ...string) Value {
	out := make([]Value, 0, len(items))
	for _, s := range items {
		out = append(out, StringValue(s))
	}
	return Value{kind: KindList, list: out}
}

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) Valid() bool { return v.kind != KindInvalid }

func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

func (v Value) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }

func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

func (v Value) Items() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	out := make([]Value, len(v.list))
	copy(out, v.list)
	return out, true
}

// Equal is strict: strings compare case-sensitively. Used to detect fact changes.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.b == o.b
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// matches is the comparison used by condition operators; strings fold case.
func (v Value) matches(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return strings.EqualFold(strings.TrimSpace(v.str), strings.TrimSpace(o.str))
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].matches(o.list[i]) {
				return false
			}
		}
		return true
	default:
		return v.Equal(o)
	}
}

// Truthy reports whether the value satisfies a goal check.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.num != 0
	case KindString:
		s := strings.TrimSpace(v.str)
		return s != "" && !strings.EqualFold(s, "false")
	case KindList:
		return len(v.list) > 0
	default:
		return false
	}
}

func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindList:
		out := make([]any, 0, len(v.list))
		for _, item := range v.list {
			out = append(out, item.Interface())
		}
		return out
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindList:
		parts := make([]string, 0, len(v.list))
		for _, item := range v.list {
			parts = append(parts, item.String())
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return "<invalid>"
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v *Value) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	parsed, err := ValueOf(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ValueOf converts decoded JSON or YAML into a Value. Nil and maps are rejected.
func ValueOf(raw any) (Value, error) {
	switch t := raw.(type) {
	case Value:
		return t, nil
	case string:
		return StringValue(t), nil
	case bool:
		return BoolValue(t), nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return Value{}, fmt.Errorf("%w: non-finite number", ErrInvalidValue)
		}
		return NumberValue(t), nil
	case float32:
		return ValueOf(float64(t))
	case int:
		return NumberValue(float64(t)), nil
	case int32:
		return NumberValue(float64(t)), nil
	case int64:
		return NumberValue(float64(t)), nil
	case uint64:
		return NumberValue(float64(t)), nil
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		return NumberValue(n), nil
	case []string:
		return StringsValue(t...), nil
	case []any:
		items := make([]Value, 0, len(t))
		for _, item := range t {
			parsed, err := ValueOf(item)
			if err != nil {
				return Value{}, err
			}
			items = append(items, parsed)
		}
		return Value{kind: KindList, list: items}, nil
	case nil:
		return Value{}, fmt.Errorf("%w: null", ErrInvalidValue)
	default:
		return Value{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidValue, raw)
	}
}
