package builder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbiterhq/arbiter/builder"
	"github.com/arbiterhq/arbiter/model"
)

func TestBuild_FullPolicy(t *testing.T) {
	policy, err := builder.NewPolicy("eng-docs").
		Version("2.0").
		Description("Engineering may read documents").
		Permit().
		Priority(10).
		TargetResource(builder.Resource("type").Equals("document")).
		When(builder.And(
			builder.Subject("department").Equals("Engineering"),
			builder.Resource("classification").NotEquals("restricted"),
		)).
		WithObligation("log-access", map[string]any{"sink": "audit"}).
		WithAdvice("remind-policy", nil).
		WithMetadata("owner", "security-team").
		Build()
	require.NoError(t, err)

	assert.Equal(t, "eng-docs", policy.ID)
	assert.Equal(t, "2.0", policy.Version)
	assert.Equal(t, model.EffectPermit, policy.Effect)
	assert.Equal(t, 10, policy.Priority)

	require.NotNil(t, policy.Target)
	targetCmp, ok := policy.Target.Resource.(*model.ComparisonCondition)
	require.True(t, ok)
	assert.Equal(t, model.OpEquals, targetCmp.Operator)

	and, ok := policy.Condition.(*model.LogicalCondition)
	require.True(t, ok)
	assert.Equal(t, model.LogicalAnd, and.Operator)
	assert.Len(t, and.Conditions, 2)

	require.Len(t, policy.Obligations, 1)
	assert.Equal(t, "audit", policy.Obligations[0].Attributes["sink"])
	require.Len(t, policy.Advice, 1)
	assert.Equal(t, "security-team", policy.Metadata["owner"])
}

func TestBuild_DefaultsVersion(t *testing.T) {
	policy, err := builder.NewPolicy("p").Deny().Build()
	require.NoError(t, err)
	assert.Equal(t, "1.0", policy.Version)
	assert.Equal(t, model.EffectDeny, policy.Effect)
	assert.Nil(t, policy.Target)
	assert.Nil(t, policy.Condition)
}

func TestBuild_ValidatesPolicy(t *testing.T) {
	// Missing effect fails struct validation.
	_, err := builder.NewPolicy("p").Build()
	assert.Error(t, err)

	// Missing id fails too.
	_, err = builder.NewPolicy("").Permit().Build()
	assert.Error(t, err)

	// A malformed condition tree is caught at build time.
	_, err = builder.NewPolicy("p").Permit().
		When(builder.Not(builder.And())).
		Build()
	assert.Error(t, err)
}

func TestRefComparisons(t *testing.T) {
	cmp := builder.Subject("profile", "address.city").Equals("NY").(*model.ComparisonCondition)
	ref := cmp.Left.(*model.AttributeReference)
	assert.Equal(t, model.CategorySubject, ref.Category)
	assert.Equal(t, "profile", ref.AttributeID)
	assert.Equal(t, "address.city", ref.Path)
	assert.Equal(t, "NY", cmp.Right)

	in := builder.Action("id").In("read", "list").(*model.ComparisonCondition)
	assert.Equal(t, model.OpIn, in.Operator)
	assert.Equal(t, []any{"read", "list"}, in.Right)

	exists := builder.Environment("maintenance_window").Exists().(*model.ComparisonCondition)
	assert.Equal(t, model.OpExists, exists.Operator)
	assert.Nil(t, exists.Right)
}

func TestFunctionAndArg(t *testing.T) {
	cond := builder.Function("ipInCIDR",
		builder.Environment("client_ip").Arg(),
		"10.0.0.0/8",
	).(*model.FunctionCondition)

	assert.Equal(t, "ipInCIDR", cond.Function)
	require.Len(t, cond.Args, 2)
	ref, ok := cond.Args[0].(*model.AttributeReference)
	require.True(t, ok)
	assert.Equal(t, model.CategoryEnvironment, ref.Category)
	assert.Equal(t, "10.0.0.0/8", cond.Args[1])
}

func TestBuild_ReturnsIndependentCopies(t *testing.T) {
	b := builder.NewPolicy("p").Permit()
	first, err := b.Build()
	require.NoError(t, err)

	second, err := b.Priority(5).Build()
	require.NoError(t, err)

	assert.Equal(t, 0, first.Priority)
	assert.Equal(t, 5, second.Priority)
}
