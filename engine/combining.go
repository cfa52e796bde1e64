// engine/combining.go

package engine

import (
	"fmt"

	arbiter_errors "github.com/arbiterhq/arbiter/errors"

	"github.com/arbiterhq/arbiter/model"
)

// CombiningAlgorithm folds an ordered list of policy results into one
// decision. Implementations are stateless and operate purely on the
// decision field in input order.
type CombiningAlgorithm interface {
	Name() string
	Combine(results []model.PolicyResult) model.Decision
}

// Combining algorithm names recognized by AlgorithmForName.
const (
	AlgorithmDenyOverrides     = "deny-overrides"
	AlgorithmPermitOverrides   = "permit-overrides"
	AlgorithmFirstApplicable   = "first-applicable"
	AlgorithmOnlyOneApplicable = "only-one-applicable"
	AlgorithmDenyUnlessPermit  = "deny-unless-permit"
	AlgorithmPermitUnlessDeny  = "permit-unless-deny"
)

// Singleton instances, built once and shared; the algorithms carry no
// state so reuse across engines is safe.
var combiningAlgorithms = map[string]CombiningAlgorithm{
	AlgorithmDenyOverrides:     denyOverrides{},
	AlgorithmPermitOverrides:   permitOverrides{},
	AlgorithmFirstApplicable:   firstApplicable{},
	AlgorithmOnlyOneApplicable: onlyOneApplicable{},
	AlgorithmDenyUnlessPermit:  denyUnlessPermit{},
	AlgorithmPermitUnlessDeny:  permitUnlessDeny{},
}

// AlgorithmForName returns the shared instance for a known algorithm
// name. An unknown name is an error: there is no safe default decision
// to fall back to.
func AlgorithmForName(name string) (CombiningAlgorithm, error) {
	alg, ok := combiningAlgorithms[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", arbiter_errors.ErrUnknownAlgorithm, name)
	}
	return alg, nil
}

type denyOverrides struct{}

func (denyOverrides) Name() string { return AlgorithmDenyOverrides }

func (denyOverrides) Combine(results []model.PolicyResult) model.Decision {
	decision := model.DecisionNotApplicable
	for _, r := range results {
		switch r.Decision {
		case model.DecisionDeny:
			return model.DecisionDeny
		case model.DecisionPermit:
			decision = model.DecisionPermit
		case model.DecisionIndeterminate:
			if decision != model.DecisionPermit {
				decision = model.DecisionIndeterminate
			}
		}
	}
	return decision
}

type permitOverrides struct{}

func (permitOverrides) Name() string { return AlgorithmPermitOverrides }

func (permitOverrides) Combine(results []model.PolicyResult) model.Decision {
	decision := model.DecisionNotApplicable
	for _, r := range results {
		switch r.Decision {
		case model.DecisionPermit:
			return model.DecisionPermit
		case model.DecisionDeny:
			decision = model.DecisionDeny
		case model.DecisionIndeterminate:
			if decision != model.DecisionDeny {
				decision = model.DecisionIndeterminate
			}
		}
	}
	return decision
}

type firstApplicable struct{}

func (firstApplicable) Name() string { return AlgorithmFirstApplicable }

func (firstApplicable) Combine(results []model.PolicyResult) model.Decision {
	for _, r := range results {
		if r.Decision != model.DecisionNotApplicable {
			return r.Decision
		}
	}
	return model.DecisionNotApplicable
}

type onlyOneApplicable struct{}

func (onlyOneApplicable) Name() string { return AlgorithmOnlyOneApplicable }

func (onlyOneApplicable) Combine(results []model.PolicyResult) model.Decision {
	decision := model.DecisionNotApplicable
	applicable := 0
	for _, r := range results {
		if r.Decision == model.DecisionNotApplicable {
			continue
		}
		applicable++
		if applicable > 1 {
			return model.DecisionIndeterminate
		}
		decision = r.Decision
	}
	return decision
}

type denyUnlessPermit struct{}

func (denyUnlessPermit) Name() string { return AlgorithmDenyUnlessPermit }

func (denyUnlessPermit) Combine(results []model.PolicyResult) model.Decision {
	for _, r := range results {
		if r.Decision == model.DecisionPermit {
			return model.DecisionPermit
		}
	}
	return model.DecisionDeny
}

type permitUnlessDeny struct{}

func (permitUnlessDeny) Name() string { return AlgorithmPermitUnlessDeny }

func (permitUnlessDeny) Combine(results []model.PolicyResult) model.Decision {
	for _, r := range results {
		if r.Decision == model.DecisionDeny {
			return model.DecisionDeny
		}
	}
	return model.DecisionPermit
}
