package model_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbiterhq/arbiter/model"
)

func TestUnmarshalCondition_Comparison(t *testing.T) {
	data := []byte(`{
		"operator": "equals",
		"left": {"category": "subject", "attributeId": "department"},
		"right": "Engineering"
	}`)

	cond, err := model.UnmarshalCondition(data)
	require.NoError(t, err)

	cmp, ok := cond.(*model.ComparisonCondition)
	require.True(t, ok)
	assert.Equal(t, model.OpEquals, cmp.Operator)

	ref, ok := cmp.Left.(*model.AttributeReference)
	require.True(t, ok)
	assert.Equal(t, model.CategorySubject, ref.Category)
	assert.Equal(t, "department", ref.AttributeID)
	assert.Equal(t, "Engineering", cmp.Right)
}

func TestUnmarshalCondition_NestedLogical(t *testing.T) {
	data := []byte(`{
		"operator": "and",
		"conditions": [
			{"operator": "exists", "left": {"category": "subject", "attributeId": "clearance"}},
			{"operator": "not", "conditions": [
				{"operator": "equals",
				 "left": {"category": "resource", "attributeId": "classification"},
				 "right": "restricted"}
			]}
		]
	}`)

	cond, err := model.UnmarshalCondition(data)
	require.NoError(t, err)

	and, ok := cond.(*model.LogicalCondition)
	require.True(t, ok)
	assert.Equal(t, model.LogicalAnd, and.Operator)
	require.Len(t, and.Conditions, 2)

	not, ok := and.Conditions[1].(*model.LogicalCondition)
	require.True(t, ok)
	assert.Equal(t, model.LogicalNot, not.Operator)
	require.Len(t, not.Conditions, 1)
}

func TestUnmarshalCondition_FunctionWithMixedArgs(t *testing.T) {
	data := []byte(`{
		"function": "ipInCIDR",
		"args": [
			{"category": "environment", "attributeId": "client_ip"},
			"10.0.0.0/8"
		]
	}`)

	cond, err := model.UnmarshalCondition(data)
	require.NoError(t, err)

	fn, ok := cond.(*model.FunctionCondition)
	require.True(t, ok)
	assert.Equal(t, "ipInCIDR", fn.Function)
	require.Len(t, fn.Args, 2)

	_, ok = fn.Args[0].(*model.AttributeReference)
	assert.True(t, ok)
	assert.Equal(t, "10.0.0.0/8", fn.Args[1])
}

func TestUnmarshalCondition_RejectsUnknownShape(t *testing.T) {
	_, err := model.UnmarshalCondition([]byte(`{"lhs": "a", "rhs": "b"}`))
	assert.Error(t, err)

	_, err = model.UnmarshalCondition([]byte(`"just a string"`))
	assert.Error(t, err)
}

func TestUnmarshalCondition_KeepsUnknownComparisonOperator(t *testing.T) {
	// Unknown comparison operators must survive decoding: at runtime
	// they evaluate to false rather than failing the policy load.
	cond, err := model.UnmarshalCondition([]byte(`{"operator": "soundsLike", "left": "a", "right": "b"}`))
	require.NoError(t, err)
	cmp, ok := cond.(*model.ComparisonCondition)
	require.True(t, ok)
	assert.Equal(t, model.ComparisonOperator("soundsLike"), cmp.Operator)
}

func TestPolicyUnmarshalJSON(t *testing.T) {
	data := []byte(`{
		"id": "eng-docs",
		"version": "2.1",
		"effect": "Permit",
		"priority": 10,
		"target": {
			"resource": {"operator": "equals",
				"left": {"category": "resource", "attributeId": "type"},
				"right": "document"}
		},
		"condition": {"operator": "equals",
			"left": {"category": "subject", "attributeId": "department"},
			"right": "Engineering"},
		"obligations": [{"id": "log-access", "attributes": {"sink": "audit"}}],
		"advice": [{"id": "remind-policy"}]
	}`)

	var policy model.ABACPolicy
	require.NoError(t, json.Unmarshal(data, &policy))

	assert.Equal(t, "eng-docs", policy.ID)
	assert.Equal(t, model.EffectPermit, policy.Effect)
	require.NotNil(t, policy.Target)
	assert.NotNil(t, policy.Target.Resource)
	assert.Nil(t, policy.Target.Subject)
	require.NotNil(t, policy.Condition)
	require.Len(t, policy.Obligations, 1)
	assert.Equal(t, "audit", policy.Obligations[0].Attributes["sink"])

	// Policies survive a marshal/unmarshal round trip.
	encoded, err := json.Marshal(&policy)
	require.NoError(t, err)
	var again model.ABACPolicy
	require.NoError(t, json.Unmarshal(encoded, &again))
	assert.Equal(t, policy.ID, again.ID)
	assert.Equal(t, policy.Condition, again.Condition)
}

func TestPolicyUnmarshalJSON_UnknownTargetCategory(t *testing.T) {
	data := []byte(`{
		"id": "p",
		"effect": "Deny",
		"target": {"tenant": {"operator": "exists", "left": {"category": "subject", "attributeId": "x"}}}
	}`)
	var policy model.ABACPolicy
	assert.Error(t, json.Unmarshal(data, &policy))
}

func TestRequestClone(t *testing.T) {
	original := &model.Request{
		Subject: model.Subject{ID: "alice", Attributes: map[string]any{
			"profile": map[string]any{"city": "NY"},
			"roles":   []any{"dev"},
		}},
		Resource: model.Resource{ID: "doc-1", Type: "document"},
		Action:   model.Action{ID: "read"},
	}

	clone := original.Clone()
	clone.Subject.Attributes["profile"].(map[string]any)["city"] = "LA"
	clone.Subject.Attributes["roles"].([]any)[0] = "admin"

	assert.Equal(t, "NY", original.Subject.Attributes["profile"].(map[string]any)["city"])
	assert.Equal(t, "dev", original.Subject.Attributes["roles"].([]any)[0])
}
