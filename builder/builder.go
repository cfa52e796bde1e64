// builder/builder.go

// Package builder offers fluent construction of policies and condition
// trees. It is sugar over the model types; nothing here adds semantics.
//
//	policy, err := builder.NewPolicy("eng-docs").
//		Permit().
//		When(builder.And(
//			builder.Subject("department").Equals("Engineering"),
//			builder.Resource("classification").NotEquals("restricted"),
//		)).
//		Build()
package builder

import (
	"github.com/arbiterhq/arbiter/model"
	"github.com/arbiterhq/arbiter/validation"
)

// Ref is a partially built comparison anchored on an attribute
// reference.
type Ref struct {
	ref *model.AttributeReference
}

// Subject starts a comparison on a subject attribute. An optional path
// walks into a nested value.
func Subject(attributeID string, path ...string) *Ref {
	return newRef(model.CategorySubject, attributeID, path)
}

// Resource starts a comparison on a resource attribute.
func Resource(attributeID string, path ...string) *Ref {
	return newRef(model.CategoryResource, attributeID, path)
}

// Action starts a comparison on an action attribute.
func Action(attributeID string, path ...string) *Ref {
	return newRef(model.CategoryAction, attributeID, path)
}

// Environment starts a comparison on an environment attribute.
func Environment(attributeID string, path ...string) *Ref {
	return newRef(model.CategoryEnvironment, attributeID, path)
}

func newRef(category model.Category, attributeID string, path []string) *Ref {
	ref := &model.AttributeReference{Category: category, AttributeID: attributeID}
	if len(path) > 0 {
		ref.Path = path[0]
	}
	return &Ref{ref: ref}
}

func (r *Ref) compare(op model.ComparisonOperator, right any) model.Condition {
	return &model.ComparisonCondition{Operator: op, Left: r.ref, Right: right}
}

func (r *Ref) Equals(value any) model.Condition    { return r.compare(model.OpEquals, value) }
func (r *Ref) NotEquals(value any) model.Condition { return r.compare(model.OpNotEquals, value) }
func (r *Ref) GreaterThan(value any) model.Condition {
	return r.compare(model.OpGreaterThan, value)
}
func (r *Ref) GreaterThanOrEqual(value any) model.Condition {
	return r.compare(model.OpGreaterThanOrEqual, value)
}
func (r *Ref) LessThan(value any) model.Condition { return r.compare(model.OpLessThan, value) }
func (r *Ref) LessThanOrEqual(value any) model.Condition {
	return r.compare(model.OpLessThanOrEqual, value)
}
func (r *Ref) In(values ...any) model.Condition    { return r.compare(model.OpIn, values) }
func (r *Ref) NotIn(values ...any) model.Condition { return r.compare(model.OpNotIn, values) }
func (r *Ref) Contains(value any) model.Condition  { return r.compare(model.OpContains, value) }
func (r *Ref) StartsWith(value any) model.Condition {
	return r.compare(model.OpStartsWith, value)
}
func (r *Ref) EndsWith(value any) model.Condition { return r.compare(model.OpEndsWith, value) }
func (r *Ref) MatchesRegex(pattern string) model.Condition {
	return r.compare(model.OpMatchesRegex, pattern)
}

// Exists tests that the referenced attribute resolves to a value.
func (r *Ref) Exists() model.Condition {
	return &model.ComparisonCondition{Operator: model.OpExists, Left: r.ref}
}

// NotExists tests that the referenced attribute is absent.
func (r *Ref) NotExists() model.Condition {
	return &model.ComparisonCondition{Operator: model.OpNotExists, Left: r.ref}
}

// And combines conditions; all must hold.
func And(conditions ...model.Condition) model.Condition {
	return &model.LogicalCondition{Operator: model.LogicalAnd, Conditions: conditions}
}

// Or combines conditions; at least one must hold.
func Or(conditions ...model.Condition) model.Condition {
	return &model.LogicalCondition{Operator: model.LogicalOr, Conditions: conditions}
}

// Not negates one condition.
func Not(condition model.Condition) model.Condition {
	return &model.LogicalCondition{Operator: model.LogicalNot, Conditions: []model.Condition{condition}}
}

// Function builds a function condition. Args may be literals, attribute
// references (via Arg), or nested conditions.
func Function(name string, args ...any) model.Condition {
	return &model.FunctionCondition{Function: name, Args: args}
}

// Arg returns a bare attribute reference for use as a function
// argument.
func (r *Ref) Arg() *model.AttributeReference {
	return r.ref
}

// PolicyBuilder assembles an ABACPolicy.
type PolicyBuilder struct {
	policy model.ABACPolicy
}

func NewPolicy(id string) *PolicyBuilder {
	return &PolicyBuilder{policy: model.ABACPolicy{ID: id, Version: "1.0"}}
}

func (b *PolicyBuilder) Version(version string) *PolicyBuilder {
	b.policy.Version = version
	return b
}

func (b *PolicyBuilder) Description(description string) *PolicyBuilder {
	b.policy.Description = description
	return b
}

// Permit sets the policy effect to Permit.
func (b *PolicyBuilder) Permit() *PolicyBuilder {
	b.policy.Effect = model.EffectPermit
	return b
}

// Deny sets the policy effect to Deny.
func (b *PolicyBuilder) Deny() *PolicyBuilder {
	b.policy.Effect = model.EffectDeny
	return b
}

func (b *PolicyBuilder) Priority(priority int) *PolicyBuilder {
	b.policy.Priority = priority
	return b
}

// When sets the policy's condition.
func (b *PolicyBuilder) When(condition model.Condition) *PolicyBuilder {
	b.policy.Condition = condition
	return b
}

func (b *PolicyBuilder) target() *model.Target {
	if b.policy.Target == nil {
		b.policy.Target = &model.Target{}
	}
	return b.policy.Target
}

func (b *PolicyBuilder) TargetSubject(condition model.Condition) *PolicyBuilder {
	b.target().Subject = condition
	return b
}

func (b *PolicyBuilder) TargetResource(condition model.Condition) *PolicyBuilder {
	b.target().Resource = condition
	return b
}

func (b *PolicyBuilder) TargetAction(condition model.Condition) *PolicyBuilder {
	b.target().Action = condition
	return b
}

func (b *PolicyBuilder) TargetEnvironment(condition model.Condition) *PolicyBuilder {
	b.target().Environment = condition
	return b
}

func (b *PolicyBuilder) WithObligation(id string, attributes map[string]any) *PolicyBuilder {
	b.policy.Obligations = append(b.policy.Obligations, model.Obligation{ID: id, Attributes: attributes})
	return b
}

func (b *PolicyBuilder) WithAdvice(id string, attributes map[string]any) *PolicyBuilder {
	b.policy.Advice = append(b.policy.Advice, model.Advice{ID: id, Attributes: attributes})
	return b
}

func (b *PolicyBuilder) WithMetadata(key string, value any) *PolicyBuilder {
	if b.policy.Metadata == nil {
		b.policy.Metadata = make(map[string]any)
	}
	b.policy.Metadata[key] = value
	return b
}

// Build validates the assembled policy and returns it.
func (b *PolicyBuilder) Build() (*model.ABACPolicy, error) {
	policy := b.policy
	if err := validation.New().ValidatePolicy(&policy); err != nil {
		return nil, err
	}
	return &policy, nil
}
