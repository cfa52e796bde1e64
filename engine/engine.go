// engine/engine.go

// Package engine implements the policy decision point: attribute
// resolution, condition evaluation, decision combining, and the
// orchestration that ties them together.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	arbiter_errors "github.com/arbiterhq/arbiter/errors"

	"github.com/arbiterhq/arbiter/attribute"
	"github.com/arbiterhq/arbiter/audit"
	"github.com/arbiterhq/arbiter/metrics"
	"github.com/arbiterhq/arbiter/model"
)

// Options configures an Engine. The zero value is usable: it gives a
// deny-overrides engine with no providers, the built-in functions, a
// no-op logger, and no observability sinks.
//
// There is deliberately no evaluation-timeout option; callers bound
// in-flight evaluations with context.WithTimeout on the context passed
// to Evaluate.
type Options struct {
	// CombiningAlgorithm names the algorithm reducing policy results to
	// one decision. Defaults to deny-overrides.
	CombiningAlgorithm string

	// AttributeProviders are registered on the resolver at
	// construction, in order.
	AttributeProviders []attribute.Provider

	// Functions are custom condition functions registered on top of the
	// built-in set.
	Functions map[string]ConditionFunc

	// EnableAuditLog gates calls into AuditService.
	EnableAuditLog bool
	AuditService   audit.Service

	// EnablePerformanceMetrics gates calls into Metrics.
	EnablePerformanceMetrics bool
	Metrics                  *metrics.Collector

	Logger *zap.Logger
}

// Engine is the policy decision point. It is stateless across calls to
// Evaluate except for the function registry and the provider registry,
// which are mutated only through explicit registration calls; those
// registries are lock-guarded so registration may race with in-flight
// evaluations.
type Engine struct {
	resolver  *AttributeResolver
	evaluator *PolicyEvaluator
	functions *FunctionRegistry
	algorithm CombiningAlgorithm

	auditEnabled   bool
	auditService   audit.Service
	metricsEnabled bool
	collector      *metrics.Collector

	log *zap.Logger
}

// New builds an Engine. An unknown combining algorithm name is the one
// construction-time failure: there is no safe decision to default to.
func New(opts Options) (*Engine, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	name := opts.CombiningAlgorithm
	if name == "" {
		name = AlgorithmDenyOverrides
	}
	algorithm, err := AlgorithmForName(name)
	if err != nil {
		return nil, err
	}

	functions := NewFunctionRegistry()
	for fnName, fn := range opts.Functions {
		functions.Register(fnName, fn)
	}

	resolver := NewAttributeResolver(log)
	for _, p := range opts.AttributeProviders {
		resolver.AddProvider(p)
	}

	return &Engine{
		resolver:       resolver,
		evaluator:      NewPolicyEvaluator(resolver, functions, log),
		functions:      functions,
		algorithm:      algorithm,
		auditEnabled:   opts.EnableAuditLog && opts.AuditService != nil,
		auditService:   opts.AuditService,
		metricsEnabled: opts.EnablePerformanceMetrics && opts.Metrics != nil,
		collector:      opts.Metrics,
		log:            log,
	}, nil
}

// RegisterFunction adds or replaces a named condition function.
func (e *Engine) RegisterFunction(name string, fn ConditionFunc) {
	e.functions.Register(name, fn)
}

// AddAttributeProvider registers an attribute provider.
func (e *Engine) AddAttributeProvider(p attribute.Provider) {
	e.resolver.AddProvider(p)
}

// RemoveAttributeProvider unregisters the provider with the given
// "category:name" key.
func (e *Engine) RemoveAttributeProvider(key string) {
	e.resolver.RemoveProvider(key)
}

// Resolver exposes the engine's attribute resolver, mainly for
// integrations that resolve attributes outside a full evaluation.
func (e *Engine) Resolver() *AttributeResolver {
	return e.resolver
}

// Evaluate runs the full decision pipeline: validate, enhance
// attributes, filter applicable policies, evaluate each, combine, and
// assemble the decision. It never returns an error and never panics
// out; every failure mode surfaces as a well-formed decision, with
// engine-level failures reported as Indeterminate plus entries in
// EvaluationDetails.Errors.
func (e *Engine) Evaluate(ctx context.Context, request *model.Request, policies []*model.ABACPolicy) *model.ABACDecision {
	start := time.Now()
	details := model.EvaluationDetails{
		DecisionID:    uuid.NewString(),
		TotalPolicies: len(policies),
		Timestamp:     start,
	}

	decision := e.evaluate(ctx, request, policies, &details)
	details.EvaluationTime = time.Since(start)
	decision.EvaluationDetails = details

	if e.metricsEnabled {
		e.collector.ObserveEvaluation(decision.Decision, details.EvaluationTime, len(details.Errors))
	}
	if e.auditEnabled {
		e.logDecision(ctx, request, decision)
	}
	return decision
}

func (e *Engine) evaluate(ctx context.Context, request *model.Request, policies []*model.ABACPolicy, details *model.EvaluationDetails) (decision *model.ABACDecision) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("Evaluation panicked", zap.Any("panic", r))
			details.Errors = append(details.Errors, fmt.Sprintf("%s: %v", arbiter_errors.ErrEvaluationFailed, r))
			decision = emptyDecision(model.DecisionIndeterminate)
		}
	}()

	if err := validateRequest(request); err != nil {
		e.log.Error("Invalid access request", zap.Error(err))
		details.Errors = append(details.Errors, err.Error())
		return emptyDecision(model.DecisionIndeterminate)
	}

	enhanced := e.resolver.EnhanceRequest(ctx, request)

	applicable := e.evaluator.FindApplicablePolicies(ctx, enhanced, policies)
	details.ApplicablePolicies = len(applicable)
	if len(applicable) == 0 {
		return emptyDecision(model.DecisionNotApplicable)
	}

	results := e.evaluator.EvaluatePolicies(ctx, enhanced, applicable, &details.Errors)
	final := e.algorithm.Combine(results)

	matched := []*model.ABACPolicy{}
	for _, r := range results {
		if r.Decision == model.DecisionPermit || r.Decision == model.DecisionDeny {
			matched = append(matched, r.Policy)
		}
	}

	return &model.ABACDecision{
		Decision:        final,
		Obligations:     e.evaluator.CollectObligations(results),
		Advice:          e.evaluator.CollectAdvice(results),
		MatchedPolicies: matched,
	}
}

func (e *Engine) logDecision(ctx context.Context, request *model.Request, decision *model.ABACDecision) {
	entry := audit.DecisionLog{
		ID:             decision.EvaluationDetails.DecisionID,
		Timestamp:      decision.EvaluationDetails.Timestamp,
		Decision:       string(decision.Decision),
		EvaluationTime: decision.EvaluationDetails.EvaluationTime,
		Errors:         decision.EvaluationDetails.Errors,
	}
	if request != nil {
		entry.SubjectID = request.Subject.ID
		entry.ResourceID = request.Resource.ID
		entry.ActionID = request.Action.ID
	}
	for _, p := range decision.MatchedPolicies {
		entry.MatchedPolicyIDs = append(entry.MatchedPolicyIDs, p.ID)
	}

	// The audit write must not delay or fail the decision; detach from
	// the request's cancellation.
	go func() {
		if err := e.auditService.LogDecision(context.WithoutCancel(ctx), entry); err != nil {
			e.log.Warn("Failed to write decision audit log",
				zap.String("decision_id", entry.ID),
				zap.Error(err))
		}
	}()
}

func validateRequest(request *model.Request) error {
	if request == nil {
		return fmt.Errorf("access request cannot be nil")
	}
	if request.Subject.ID == "" {
		return arbiter_errors.ErrMissingSubjectID
	}
	if request.Resource.ID == "" {
		return arbiter_errors.ErrMissingResourceID
	}
	if request.Action.ID == "" {
		return arbiter_errors.ErrMissingActionID
	}
	return nil
}

func emptyDecision(d model.Decision) *model.ABACDecision {
	return &model.ABACDecision{
		Decision:        d,
		Obligations:     []model.Obligation{},
		Advice:          []model.Advice{},
		MatchedPolicies: []*model.ABACPolicy{},
	}
}
