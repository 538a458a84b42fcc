package inference

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRule() Rule {
	return Rule{
		Name:     "rpg fans",
		Priority: 50,
		Conditions: []Condition{
			cond(EntityUser, "prefers_genre", OpEq, StringValue("RPG")),
			cond(EntityGame, "rating", OpGe, NumberValue(4)),
		},
		Actions: []Action{{Kind: ActionBoost, Amount: 2}},
	}
}

func TestPrepareRule_DerivesSpecificity(t *testing.T) {
	r := validRule()
	r.Specificity = 42
	out, err := PrepareRule(r)
	require.NoError(t, err)
	assert.Equal(t, len(out.Conditions), out.Specificity)
	assert.Equal(t, BoostAdd, out.Actions[0].Mode)
	assert.Equal(t, 42, r.Specificity, "input must not be modified")
}

func TestValidateRule_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *Rule)
		field  string
	}{
		{"empty name", func(r *Rule) { r.Name = "  " }, "name"},
		{"priority too low", func(r *Rule) { r.Priority = 0 }, "priority"},
		{"priority too high", func(r *Rule) { r.Priority = 101 }, "priority"},
		{"zero conditions", func(r *Rule) { r.Conditions = nil }, "conditions"},
		{"no actions", func(r *Rule) { r.Actions = nil }, "actions"},
		{"bad operator", func(r *Rule) { r.Conditions[0].Operator = "=~" }, "conditions[0].operator"},
		{"in without list", func(r *Rule) { r.Conditions[0].Operator = OpIn }, "conditions[0].value"},
		{"missing value", func(r *Rule) { r.Conditions[1].Value = Value{} }, "conditions[1].value"},
		{"bad action type", func(r *Rule) { r.Actions[0].Kind = "delete" }, "actions[0].type"},
		{"non-finite boost", func(r *Rule) { r.Actions[0].Amount = math.Inf(1) }, "actions[0].amount"},
		{"bad boost mode", func(r *Rule) { r.Actions[0].Mode = "pow" }, "actions[0].mode"},
		{"bad target", func(r *Rule) { r.Actions[0].Entity = "game:abc" }, "actions[0].entity"},
		{"assert on candidate", func(r *Rule) {
			r.Actions[0] = Action{Kind: ActionAssert, Entity: EntityGame, Attribute: "x", Value: BoolValue(true)}
		}, "actions[0].entity"},
		{"filter without attribute", func(r *Rule) {
			r.Actions[0] = Action{Kind: ActionFilter, Operator: OpEq, Value: IntValue(1)}
		}, "actions[0].attribute"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRule()
			tt.mutate(&r)
			_, err := PrepareRule(r)
			require.ErrorIs(t, err, ErrInvalidRule)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestValidateRule_SpecificityMustMatch(t *testing.T) {
	r := validRule()
	r.Specificity = 1
	err := ValidateRule(r)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "specificity", verr.Field)
}

func TestDecodeConditionsAndActions(t *testing.T) {
	conds, err := DecodeConditions([]byte(`[
		{"entity":"User","attribute":"prefers_genre","operator":"==","value":"RPG"},
		{"entity":"game","attribute":"platforms","operator":"in","value":["PC","PS5"]}
	]`))
	require.NoError(t, err)
	require.Len(t, conds, 2)
	assert.Equal(t, EntityUser, conds[0].Entity)
	assert.Equal(t, OpIn, conds[1].Operator)
	assert.True(t, conds[1].Value.Equal(StringsValue("PC", "PS5")))

	// the admin surface sometimes sends the array as an encoded string
	actions, err := DecodeActions([]byte(`"[{\"type\":\"boost\",\"amount\":1.5,\"mode\":\"multiply\"},{\"type\":\"filter\",\"attribute\":\"age_rating\",\"operator\":\"<=\",\"value\":16,\"exclude_matching\":false}]"`))
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, ActionBoost, actions[0].Kind)
	assert.Equal(t, BoostMultiply, actions[0].Mode)
	assert.Equal(t, 1.5, actions[0].Amount)
	assert.True(t, actions[1].Value.Equal(IntValue(16)))

	encoded, err := EncodeConditions(conds)
	require.NoError(t, err)
	again, err := DecodeConditions(encoded)
	require.NoError(t, err)
	assert.Equal(t, conds, again)
}

func TestDecode_RejectsUnknownTags(t *testing.T) {
	_, err := DecodeConditions([]byte(`[{"entity":"user","attribute":"a","operator":"like","value":"x"}]`))
	assert.ErrorIs(t, err, ErrInvalidRule)

	_, err = DecodeActions([]byte(`[{"type":"teleport"}]`))
	assert.ErrorIs(t, err, ErrInvalidRule)

	_, err = DecodeConditions([]byte(`[{"entity":"user","attribute":"a","operator":"==","value":null}]`))
	assert.ErrorIs(t, err, ErrInvalidRule)

	_, err = DecodeConditions([]byte(``))
	assert.ErrorIs(t, err, ErrInvalidRule)
}
