// engine/evaluator.go

package engine

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	arbiter_errors "github.com/arbiterhq/arbiter/errors"

	"github.com/arbiterhq/arbiter/model"
)

// PolicyEvaluator decides policy applicability against a request's
// target, evaluates condition trees to booleans, and produces a
// PolicyResult per policy. It holds no per-request state.
type PolicyEvaluator struct {
	resolver  *AttributeResolver
	functions *FunctionRegistry
	log       *zap.Logger
}

func NewPolicyEvaluator(resolver *AttributeResolver, functions *FunctionRegistry, log *zap.Logger) *PolicyEvaluator {
	if log == nil {
		log = zap.NewNop()
	}
	return &PolicyEvaluator{
		resolver:  resolver,
		functions: functions,
		log:       log,
	}
}

// IsPolicyApplicable reports whether every present target-category
// condition evaluates true. A policy without a target applies to every
// request.
func (pe *PolicyEvaluator) IsPolicyApplicable(ctx context.Context, request *model.Request, policy *model.ABACPolicy) (bool, error) {
	for _, entry := range policy.Target.Categories() {
		ok, err := pe.EvaluateCondition(ctx, entry.Condition, request)
		if err != nil {
			return false, fmt.Errorf("target %s: %w", entry.Category, err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// FindApplicablePolicies filters policies by applicability, preserving
// input order. A policy whose applicability check errors is logged and
// excluded; it never fails the batch.
func (pe *PolicyEvaluator) FindApplicablePolicies(ctx context.Context, request *model.Request, policies []*model.ABACPolicy) []*model.ABACPolicy {
	applicable := make([]*model.ABACPolicy, 0, len(policies))
	for _, policy := range policies {
		ok, err := pe.IsPolicyApplicable(ctx, request, policy)
		if err != nil {
			pe.log.Warn("Skipping policy whose applicability check failed",
				zap.String("policy_id", policy.ID),
				zap.Error(err))
			continue
		}
		if ok {
			applicable = append(applicable, policy)
		}
	}
	return applicable
}

// EvaluatePolicy evaluates one policy against the request. A condition
// that evaluates false yields NotApplicable with no obligations or
// advice; otherwise the policy's effect becomes the decision and its
// obligations and advice are carried verbatim.
func (pe *PolicyEvaluator) EvaluatePolicy(ctx context.Context, request *model.Request, policy *model.ABACPolicy) (model.PolicyResult, error) {
	if policy.Condition != nil {
		ok, err := pe.EvaluateCondition(ctx, policy.Condition, request)
		if err != nil {
			return model.PolicyResult{}, err
		}
		if !ok {
			return model.PolicyResult{
				Decision: model.DecisionNotApplicable,
				Policy:   policy,
				Reason:   "policy condition evaluated to false",
			}, nil
		}
	}

	var decision model.Decision
	switch policy.Effect {
	case model.EffectPermit:
		decision = model.DecisionPermit
	case model.EffectDeny:
		decision = model.DecisionDeny
	default:
		return model.PolicyResult{}, fmt.Errorf("%w: effect %q", arbiter_errors.ErrInvalidPolicyData, policy.Effect)
	}

	return model.PolicyResult{
		Decision:    decision,
		Policy:      policy,
		Obligations: policy.Obligations,
		Advice:      policy.Advice,
	}, nil
}

// EvaluatePolicies evaluates every policy in order. A failure in one
// policy is appended to errs and recorded as an Indeterminate result;
// it never aborts evaluation of sibling policies.
func (pe *PolicyEvaluator) EvaluatePolicies(ctx context.Context, request *model.Request, policies []*model.ABACPolicy, errs *[]string) []model.PolicyResult {
	results := make([]model.PolicyResult, 0, len(policies))
	for _, policy := range policies {
		result, err := pe.EvaluatePolicy(ctx, request, policy)
		if err != nil {
			pe.log.Error("Policy evaluation failed",
				zap.String("policy_id", policy.ID),
				zap.Error(err))
			if errs != nil {
				*errs = append(*errs, fmt.Sprintf("policy %s: %v", policy.ID, err))
			}
			result = model.PolicyResult{
				Decision: model.DecisionIndeterminate,
				Policy:   policy,
				Reason:   err.Error(),
			}
		}
		results = append(results, result)
	}
	return results
}

// EvaluateCondition recursively evaluates a condition tree to a
// boolean.
func (pe *PolicyEvaluator) EvaluateCondition(ctx context.Context, condition model.Condition, request *model.Request) (bool, error) {
	switch c := condition.(type) {
	case *model.LogicalCondition:
		return pe.evaluateLogical(ctx, c, request)
	case *model.ComparisonCondition:
		return pe.evaluateComparison(ctx, c, request)
	case *model.FunctionCondition:
		return pe.evaluateFunction(ctx, c, request)
	default:
		return false, fmt.Errorf("%w: unexpected condition type %T", arbiter_errors.ErrInvalidCondition, condition)
	}
}

func (pe *PolicyEvaluator) evaluateLogical(ctx context.Context, c *model.LogicalCondition, request *model.Request) (bool, error) {
	switch c.Operator {
	case model.LogicalAnd:
		for _, sub := range c.Conditions {
			ok, err := pe.EvaluateCondition(ctx, sub, request)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case model.LogicalOr:
		for _, sub := range c.Conditions {
			ok, err := pe.EvaluateCondition(ctx, sub, request)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case model.LogicalNot:
		if len(c.Conditions) != 1 {
			return false, fmt.Errorf("%w: got %d", arbiter_errors.ErrNotArity, len(c.Conditions))
		}
		ok, err := pe.EvaluateCondition(ctx, c.Conditions[0], request)
		if err != nil {
			return false, err
		}
		return !ok, nil
	default:
		return false, fmt.Errorf("%w: %q", arbiter_errors.ErrUnknownLogicalOp, c.Operator)
	}
}

func (pe *PolicyEvaluator) evaluateComparison(ctx context.Context, c *model.ComparisonCondition, request *model.Request) (bool, error) {
	// Existence checks look at the raw resolved value, with no
	// empty-string defaulting.
	if c.Operator == model.OpExists || c.Operator == model.OpNotExists {
		raw, err := pe.rawValue(ctx, c.Left, request)
		if err != nil {
			return false, err
		}
		if c.Operator == model.OpExists {
			return raw != nil, nil
		}
		return raw == nil, nil
	}

	left, err := pe.resolveValue(ctx, c.Left, request)
	if err != nil {
		return false, err
	}
	right, err := pe.resolveValue(ctx, c.Right, request)
	if err != nil {
		return false, err
	}

	switch c.Operator {
	case model.OpEquals:
		return strictEqual(left, right), nil
	case model.OpNotEquals:
		return !strictEqual(left, right), nil
	case model.OpGreaterThan, model.OpGreaterThanOrEqual, model.OpLessThan, model.OpLessThanOrEqual:
		ln, lok := toNumber(left)
		rn, rok := toNumber(right)
		if !lok || !rok {
			return false, nil
		}
		switch c.Operator {
		case model.OpGreaterThan:
			return ln > rn, nil
		case model.OpGreaterThanOrEqual:
			return ln >= rn, nil
		case model.OpLessThan:
			return ln < rn, nil
		default:
			return ln <= rn, nil
		}
	case model.OpIn:
		return pe.membership(c, left, right)
	case model.OpNotIn:
		ok, err := pe.membership(c, left, right)
		if err != nil {
			return false, err
		}
		return !ok, nil
	case model.OpContains:
		return strings.Contains(toString(left), toString(right)), nil
	case model.OpStartsWith:
		return strings.HasPrefix(toString(left), toString(right)), nil
	case model.OpEndsWith:
		return strings.HasSuffix(toString(left), toString(right)), nil
	case model.OpMatchesRegex:
		re, err := regexp.Compile(toString(right))
		if err != nil {
			return false, fmt.Errorf("%w: bad pattern for matchesRegex: %v", arbiter_errors.ErrInvalidCondition, err)
		}
		return re.MatchString(toString(left)), nil
	default:
		// Unknown comparison operators resolve to false rather than
		// erroring. Preserved for compatibility with existing policy
		// sets; see DESIGN.md.
		pe.log.Warn("Unknown comparison operator", zap.String("operator", string(c.Operator)))
		return false, nil
	}
}

func (pe *PolicyEvaluator) membership(c *model.ComparisonCondition, left, right any) (bool, error) {
	rv := reflect.ValueOf(right)
	if right == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return false, fmt.Errorf("%w: %q requires an array right operand, got %T", arbiter_errors.ErrInvalidCondition, c.Operator, right)
	}
	for i := 0; i < rv.Len(); i++ {
		if strictEqual(left, rv.Index(i).Interface()) {
			return true, nil
		}
	}
	return false, nil
}

func (pe *PolicyEvaluator) evaluateFunction(ctx context.Context, c *model.FunctionCondition, request *model.Request) (bool, error) {
	fn, ok := pe.functions.Get(c.Function)
	if !ok {
		return false, fmt.Errorf("%w: %q", arbiter_errors.ErrUnknownFunction, c.Function)
	}
	args := make([]any, len(c.Args))
	for i, arg := range c.Args {
		resolved, err := pe.resolveValue(ctx, arg, request)
		if err != nil {
			return false, fmt.Errorf("function %q arg %d: %w", c.Function, i, err)
		}
		args[i] = resolved
	}
	return fn(ctx, args, request, pe.resolver.Providers())
}

// resolveValue turns an operand into a concrete value: attribute
// references resolve to their value (empty string when unresolvable),
// nested conditions to their boolean result, literals to themselves.
func (pe *PolicyEvaluator) resolveValue(ctx context.Context, operand any, request *model.Request) (any, error) {
	raw, err := pe.rawValue(ctx, operand, request)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		if _, isRef := operand.(*model.AttributeReference); isRef {
			return "", nil
		}
	}
	return raw, nil
}

// rawValue is resolveValue without the empty-string default, used by
// the existence operators.
func (pe *PolicyEvaluator) rawValue(ctx context.Context, operand any, request *model.Request) (any, error) {
	switch v := operand.(type) {
	case *model.AttributeReference:
		return pe.resolver.GetAttributeValue(request, v.Category, v.AttributeID, v.Path), nil
	case model.AttributeReference:
		return pe.resolver.GetAttributeValue(request, v.Category, v.AttributeID, v.Path), nil
	case model.Condition:
		return pe.EvaluateCondition(ctx, v, request)
	default:
		return operand, nil
	}
}

// CollectObligations flattens the obligations of every result,
// preserving result order.
func (pe *PolicyEvaluator) CollectObligations(results []model.PolicyResult) []model.Obligation {
	obligations := []model.Obligation{}
	for _, r := range results {
		obligations = append(obligations, r.Obligations...)
	}
	return obligations
}

// CollectAdvice flattens the advice of every result, preserving result
// order.
func (pe *PolicyEvaluator) CollectAdvice(results []model.PolicyResult) []model.Advice {
	advice := []model.Advice{}
	for _, r := range results {
		advice = append(advice, r.Advice...)
	}
	return advice
}

// strictEqual compares two resolved values. Numeric values compare by
// value across int/float representations; times compare with
// time.Equal; everything else requires matching types.
func strictEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if an, aok := numericValue(a); aok {
		bn, bok := numericValue(b)
		return bok && an == bn
	}
	if at, ok := a.(time.Time); ok {
		bt, bok := b.(time.Time)
		return bok && at.Equal(bt)
	}
	return reflect.DeepEqual(a, b)
}

// numericValue converts numeric Go types to float64. Strings are not
// numbers here; equality stays strict across types.
func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// toNumber coerces a value to float64 for the ordering operators.
// Unlike strict equality, numeric strings, booleans, and times convert.
func toNumber(v any) (float64, bool) {
	if n, ok := numericValue(v); ok {
		return n, true
	}
	switch val := v.(type) {
	case string:
		n, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case time.Time:
		return float64(val.UnixMilli()), true
	default:
		return 0, false
	}
}

// toString coerces a value to its string form for the string
// operators.
func toString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}
