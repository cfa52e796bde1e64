// audit/model.go
package audit

import "time"

// DecisionLog is one audited authorization decision.
type DecisionLog struct {
	ID               string        `json:"id"`
	Timestamp        time.Time     `json:"timestamp"`
	SubjectID        string        `json:"subject_id"`
	ResourceID       string        `json:"resource_id"`
	ActionID         string        `json:"action_id"`
	Decision         string        `json:"decision"`
	MatchedPolicyIDs []string      `json:"matched_policy_ids,omitempty"`
	EvaluationTime   time.Duration `json:"evaluation_time"`
	Errors           []string      `json:"errors,omitempty"`
}
