// errors/evaluation_errors.go
package errors

import "errors"

var (
	ErrMissingSubjectID    = errors.New("request subject ID cannot be empty")
	ErrMissingResourceID   = errors.New("request resource ID cannot be empty")
	ErrMissingActionID     = errors.New("request action ID cannot be empty")
	ErrInvalidCondition    = errors.New("invalid condition")
	ErrUnknownLogicalOp    = errors.New("unknown logical operator")
	ErrNotArity            = errors.New("'not' requires exactly one sub-condition")
	ErrUnknownFunction     = errors.New("condition function is not registered")
	ErrUnknownAlgorithm    = errors.New("unknown combining algorithm")
	ErrInvalidPolicyData   = errors.New("invalid policy data")
	ErrEvaluationFailed    = errors.New("policy evaluation failed")
	ErrProviderUnavailable = errors.New("attribute provider unavailable")
)
