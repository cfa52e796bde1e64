package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbiterhq/arbiter/model"
	"github.com/arbiterhq/arbiter/validation"
)

func validPolicy() *model.ABACPolicy {
	return &model.ABACPolicy{
		ID:     "eng-docs",
		Effect: model.EffectPermit,
		Condition: &model.ComparisonCondition{
			Operator: model.OpEquals,
			Left:     &model.AttributeReference{Category: model.CategorySubject, AttributeID: "department"},
			Right:    "Engineering",
		},
	}
}

func TestValidatePolicy_OK(t *testing.T) {
	v := validation.New()
	assert.NoError(t, v.ValidatePolicy(validPolicy()))

	// No target and no condition is a valid always-applicable policy.
	assert.NoError(t, v.ValidatePolicy(&model.ABACPolicy{ID: "open", Effect: model.EffectDeny}))
}

func TestValidatePolicy_StructRules(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name   string
		mutate func(*model.ABACPolicy)
	}{
		{"missing id", func(p *model.ABACPolicy) { p.ID = "" }},
		{"missing effect", func(p *model.ABACPolicy) { p.Effect = "" }},
		{"bad effect", func(p *model.ABACPolicy) { p.Effect = "Allow" }},
		{"negative priority", func(p *model.ABACPolicy) { p.Priority = -1 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := validPolicy()
			tc.mutate(p)
			assert.Error(t, v.ValidatePolicy(p))
		})
	}

	assert.Error(t, v.ValidatePolicy(nil))
}

func TestValidatePolicy_ConditionTree(t *testing.T) {
	v := validation.New()
	subjectRef := &model.AttributeReference{Category: model.CategorySubject, AttributeID: "x"}

	tests := []struct {
		name      string
		condition model.Condition
		wantErr   string
	}{
		{
			"unknown comparison operator",
			&model.ComparisonCondition{Operator: "soundsLike", Left: subjectRef, Right: "y"},
			"unknown comparison operator",
		},
		{
			"unknown logical operator",
			&model.LogicalCondition{Operator: "xor", Conditions: []model.Condition{
				&model.ComparisonCondition{Operator: model.OpExists, Left: subjectRef},
			}},
			"unknown logical operator",
		},
		{
			"empty and",
			&model.LogicalCondition{Operator: model.LogicalAnd},
			"at least one",
		},
		{
			"not with two children",
			&model.LogicalCondition{Operator: model.LogicalNot, Conditions: []model.Condition{
				&model.ComparisonCondition{Operator: model.OpExists, Left: subjectRef},
				&model.ComparisonCondition{Operator: model.OpExists, Left: subjectRef},
			}},
			"exactly one",
		},
		{
			"reference with unknown category",
			&model.ComparisonCondition{Operator: model.OpEquals,
				Left:  &model.AttributeReference{Category: "tenant", AttributeID: "x"},
				Right: "y"},
			"unknown category",
		},
		{
			"reference without attributeId",
			&model.ComparisonCondition{Operator: model.OpEquals,
				Left:  &model.AttributeReference{Category: model.CategorySubject},
				Right: "y"},
			"attributeId",
		},
		{
			"function without a name",
			&model.FunctionCondition{},
			"function name",
		},
		{
			"nested failure inside or",
			&model.LogicalCondition{Operator: model.LogicalOr, Conditions: []model.Condition{
				&model.ComparisonCondition{Operator: model.OpEquals, Left: subjectRef, Right: "ok"},
				&model.ComparisonCondition{Operator: "bogus", Left: subjectRef, Right: "y"},
			}},
			"unknown comparison operator",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := validPolicy()
			p.Condition = tc.condition
			err := v.ValidatePolicy(p)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidatePolicy_TargetConditions(t *testing.T) {
	v := validation.New()
	p := validPolicy()
	p.Target = &model.Target{
		Resource: &model.ComparisonCondition{Operator: "bogus",
			Left:  &model.AttributeReference{Category: model.CategoryResource, AttributeID: "type"},
			Right: "document"},
	}
	err := v.ValidatePolicy(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target resource")
}

func TestValidatePolicies_ReportsFirstFailure(t *testing.T) {
	v := validation.New()
	bad := validPolicy()
	bad.ID = "bad"
	bad.Effect = "Maybe"

	err := v.ValidatePolicies([]*model.ABACPolicy{validPolicy(), bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
}
