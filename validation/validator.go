// validation/validator.go

// Package validation checks policy documents before they reach the
// evaluator, so shape problems surface at load time instead of as
// Indeterminate decisions.
package validation

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/arbiterhq/arbiter/model"
)

var knownComparisonOperators = map[model.ComparisonOperator]bool{
	model.OpEquals:             true,
	model.OpNotEquals:          true,
	model.OpGreaterThan:        true,
	model.OpGreaterThanOrEqual: true,
	model.OpLessThan:           true,
	model.OpLessThanOrEqual:    true,
	model.OpIn:                 true,
	model.OpNotIn:              true,
	model.OpContains:           true,
	model.OpStartsWith:         true,
	model.OpEndsWith:           true,
	model.OpMatchesRegex:       true,
	model.OpExists:             true,
	model.OpNotExists:          true,
}

var knownCategories = map[model.Category]bool{
	model.CategorySubject:     true,
	model.CategoryResource:    true,
	model.CategoryAction:      true,
	model.CategoryEnvironment: true,
}

// Validator performs structural validation of policies: field-level
// rules via struct tags, plus a recursive walk of the condition trees.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	return &Validator{validate: validator.New()}
}

// ValidatePolicy checks one policy. The evaluator tolerates unknown
// comparison operators at runtime (they evaluate to false), but the
// validator flags them so authoring mistakes are caught early.
func (v *Validator) ValidatePolicy(policy *model.ABACPolicy) error {
	if policy == nil {
		return fmt.Errorf("policy cannot be nil")
	}
	if err := v.validate.Struct(policy); err != nil {
		return fmt.Errorf("policy %q: %w", policy.ID, err)
	}
	for _, entry := range policy.Target.Categories() {
		if err := v.validateCondition(entry.Condition); err != nil {
			return fmt.Errorf("policy %q target %s: %w", policy.ID, entry.Category, err)
		}
	}
	if policy.Condition != nil {
		if err := v.validateCondition(policy.Condition); err != nil {
			return fmt.Errorf("policy %q condition: %w", policy.ID, err)
		}
	}
	return nil
}

// ValidatePolicies checks a batch, reporting the first failure.
func (v *Validator) ValidatePolicies(policies []*model.ABACPolicy) error {
	for _, p := range policies {
		if err := v.ValidatePolicy(p); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) validateCondition(condition model.Condition) error {
	switch c := condition.(type) {
	case *model.LogicalCondition:
		switch c.Operator {
		case model.LogicalAnd, model.LogicalOr:
			if len(c.Conditions) == 0 {
				return fmt.Errorf("%q requires at least one sub-condition", c.Operator)
			}
		case model.LogicalNot:
			if len(c.Conditions) != 1 {
				return fmt.Errorf("'not' requires exactly one sub-condition, got %d", len(c.Conditions))
			}
		default:
			return fmt.Errorf("unknown logical operator %q", c.Operator)
		}
		for _, sub := range c.Conditions {
			if err := v.validateCondition(sub); err != nil {
				return err
			}
		}
		return nil
	case *model.ComparisonCondition:
		if !knownComparisonOperators[c.Operator] {
			return fmt.Errorf("unknown comparison operator %q", c.Operator)
		}
		if err := v.validateOperand(c.Left); err != nil {
			return err
		}
		return v.validateOperand(c.Right)
	case *model.FunctionCondition:
		if c.Function == "" {
			return fmt.Errorf("function condition needs a function name")
		}
		for _, arg := range c.Args {
			if err := v.validateOperand(arg); err != nil {
				return err
			}
		}
		return nil
	case nil:
		return fmt.Errorf("condition cannot be nil")
	default:
		return fmt.Errorf("unexpected condition type %T", condition)
	}
}

func (v *Validator) validateOperand(operand any) error {
	switch o := operand.(type) {
	case *model.AttributeReference:
		if !knownCategories[o.Category] {
			return fmt.Errorf("attribute reference has unknown category %q", o.Category)
		}
		if o.AttributeID == "" {
			return fmt.Errorf("attribute reference needs an attributeId")
		}
		return nil
	case model.Condition:
		return v.validateCondition(o)
	default:
		return nil
	}
}
