// model/decision.go

package model

import "time"

// Decision is the final outcome of evaluating a request. These four
// values follow XACML decision semantics and are the only values the
// engine ever returns.
type Decision string

const (
	DecisionPermit        Decision = "Permit"
	DecisionDeny          Decision = "Deny"
	DecisionNotApplicable Decision = "NotApplicable"
	DecisionIndeterminate Decision = "Indeterminate"
)

// PolicyResult is the outcome of evaluating one applicable policy. It
// is consumed only by a combining algorithm.
type PolicyResult struct {
	Decision    Decision     `json:"decision"`
	Policy      *ABACPolicy  `json:"policy,omitempty"`
	Obligations []Obligation `json:"obligations,omitempty"`
	Advice      []Advice     `json:"advice,omitempty"`
	Reason      string       `json:"reason,omitempty"`
}

// ABACDecision is the engine's final answer. MatchedPolicies holds only
// policies whose individual result was Permit or Deny.
type ABACDecision struct {
	Decision          Decision          `json:"decision"`
	Obligations       []Obligation      `json:"obligations"`
	Advice            []Advice          `json:"advice"`
	MatchedPolicies   []*ABACPolicy     `json:"matched_policies"`
	EvaluationDetails EvaluationDetails `json:"evaluation_details"`
}

// EvaluationDetails carries diagnostics about one evaluation run.
// Errors holds per-policy evaluation failures that were localized
// rather than failing the whole request.
type EvaluationDetails struct {
	DecisionID         string        `json:"decision_id"`
	TotalPolicies      int           `json:"total_policies"`
	ApplicablePolicies int           `json:"applicable_policies"`
	EvaluationTime     time.Duration `json:"evaluation_time"`
	Timestamp          time.Time     `json:"timestamp"`
	Errors             []string      `json:"errors,omitempty"`
}
