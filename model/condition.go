// model/condition.go

package model

import (
	"encoding/json"
	"fmt"
)

// ComparisonOperator names a binary predicate over two resolved values.
type ComparisonOperator string

const (
	OpEquals             ComparisonOperator = "equals"
	OpNotEquals          ComparisonOperator = "notEquals"
	OpGreaterThan        ComparisonOperator = "greaterThan"
	OpGreaterThanOrEqual ComparisonOperator = "greaterThanOrEqual"
	OpLessThan           ComparisonOperator = "lessThan"
	OpLessThanOrEqual    ComparisonOperator = "lessThanOrEqual"
	OpIn                 ComparisonOperator = "in"
	OpNotIn              ComparisonOperator = "notIn"
	OpContains           ComparisonOperator = "contains"
	OpStartsWith         ComparisonOperator = "startsWith"
	OpEndsWith           ComparisonOperator = "endsWith"
	OpMatchesRegex       ComparisonOperator = "matchesRegex"
	OpExists             ComparisonOperator = "exists"
	OpNotExists          ComparisonOperator = "not_exists"
)

// LogicalOperator combines sub-conditions.
type LogicalOperator string

const (
	LogicalAnd LogicalOperator = "and"
	LogicalOr  LogicalOperator = "or"
	LogicalNot LogicalOperator = "not"
)

// AttributeReference points at an attribute of one request category.
// The optional Path walks dot-separated keys into a nested map value.
type AttributeReference struct {
	Category    Category `json:"category"`
	AttributeID string   `json:"attributeId"`
	Path        string   `json:"path,omitempty"`
}

// Condition is the closed union of the three condition shapes a policy
// may carry. The concrete types are ComparisonCondition,
// LogicalCondition, and FunctionCondition; nothing else implements it.
type Condition interface {
	isCondition()
}

// ComparisonCondition applies Operator to two operands. An operand is a
// literal value, an *AttributeReference, or a nested Condition (which
// contributes its boolean result).
type ComparisonCondition struct {
	Operator ComparisonOperator `json:"operator"`
	Left     any                `json:"left"`
	Right    any                `json:"right,omitempty"`
}

// LogicalCondition combines sub-conditions with and/or/not.
// "not" must carry exactly one sub-condition.
type LogicalCondition struct {
	Operator   LogicalOperator `json:"operator"`
	Conditions []Condition     `json:"conditions"`
}

// FunctionCondition invokes a named predicate from the function
// registry with resolved arguments.
type FunctionCondition struct {
	Function string `json:"function"`
	Args     []any  `json:"args,omitempty"`
}

func (*ComparisonCondition) isCondition() {}
func (*LogicalCondition) isCondition()    {}
func (*FunctionCondition) isCondition()   {}

// UnmarshalCondition decodes the JSON form of a condition into the
// union. Objects carrying "function" become function conditions,
// "operator" with and/or/not becomes a logical condition, any other
// "operator" becomes a comparison condition (unknown comparison
// operators are kept as-is so the evaluator's runtime behavior for them
// is preserved). Anything else is rejected.
func UnmarshalCondition(data []byte) (Condition, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("condition must be a JSON object: %w", err)
	}

	if raw, ok := fields["function"]; ok {
		return unmarshalFunctionCondition(raw, fields)
	}

	raw, ok := fields["operator"]
	if !ok {
		return nil, fmt.Errorf("condition object carries neither \"operator\" nor \"function\"")
	}
	var operator string
	if err := json.Unmarshal(raw, &operator); err != nil {
		return nil, fmt.Errorf("condition operator must be a string: %w", err)
	}

	switch LogicalOperator(operator) {
	case LogicalAnd, LogicalOr, LogicalNot:
		return unmarshalLogicalCondition(LogicalOperator(operator), fields)
	}
	return unmarshalComparisonCondition(ComparisonOperator(operator), fields)
}

func unmarshalFunctionCondition(nameRaw json.RawMessage, fields map[string]json.RawMessage) (Condition, error) {
	var cond FunctionCondition
	if err := json.Unmarshal(nameRaw, &cond.Function); err != nil {
		return nil, fmt.Errorf("function name must be a string: %w", err)
	}
	if argsRaw, ok := fields["args"]; ok {
		var rawArgs []json.RawMessage
		if err := json.Unmarshal(argsRaw, &rawArgs); err != nil {
			return nil, fmt.Errorf("function %q args must be an array: %w", cond.Function, err)
		}
		cond.Args = make([]any, len(rawArgs))
		for i, r := range rawArgs {
			arg, err := unmarshalOperand(r)
			if err != nil {
				return nil, fmt.Errorf("function %q arg %d: %w", cond.Function, i, err)
			}
			cond.Args[i] = arg
		}
	}
	return &cond, nil
}

func unmarshalLogicalCondition(operator LogicalOperator, fields map[string]json.RawMessage) (Condition, error) {
	subRaw, ok := fields["conditions"]
	if !ok {
		return nil, fmt.Errorf("logical condition %q is missing \"conditions\"", operator)
	}
	var rawSubs []json.RawMessage
	if err := json.Unmarshal(subRaw, &rawSubs); err != nil {
		return nil, fmt.Errorf("logical condition %q conditions must be an array: %w", operator, err)
	}
	cond := LogicalCondition{Operator: operator, Conditions: make([]Condition, len(rawSubs))}
	for i, r := range rawSubs {
		sub, err := UnmarshalCondition(r)
		if err != nil {
			return nil, err
		}
		cond.Conditions[i] = sub
	}
	return &cond, nil
}

func unmarshalComparisonCondition(operator ComparisonOperator, fields map[string]json.RawMessage) (Condition, error) {
	cond := ComparisonCondition{Operator: operator}
	if raw, ok := fields["left"]; ok {
		left, err := unmarshalOperand(raw)
		if err != nil {
			return nil, fmt.Errorf("comparison %q left operand: %w", operator, err)
		}
		cond.Left = left
	}
	if raw, ok := fields["right"]; ok {
		right, err := unmarshalOperand(raw)
		if err != nil {
			return nil, fmt.Errorf("comparison %q right operand: %w", operator, err)
		}
		cond.Right = right
	}
	return &cond, nil
}

// unmarshalOperand decodes a single operand. Objects shaped like an
// attribute reference become *AttributeReference, objects shaped like a
// condition become a Condition, everything else stays a literal.
func unmarshalOperand(data []byte) (any, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		// Not an object: a plain literal.
		var literal any
		if err := json.Unmarshal(data, &literal); err != nil {
			return nil, err
		}
		return literal, nil
	}

	_, hasCategory := fields["category"]
	_, hasAttributeID := fields["attributeId"]
	if hasCategory && hasAttributeID {
		var ref AttributeReference
		if err := json.Unmarshal(data, &ref); err != nil {
			return nil, err
		}
		return &ref, nil
	}

	_, hasOperator := fields["operator"]
	_, hasFunction := fields["function"]
	if hasOperator || hasFunction {
		return UnmarshalCondition(data)
	}

	// A literal object value.
	var literal any
	if err := json.Unmarshal(data, &literal); err != nil {
		return nil, err
	}
	return literal, nil
}
