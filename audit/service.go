// audit/service.go
package audit

import (
	"context"
	"time"
)

// Service records authorization decisions for later review. The engine
// treats it as a best-effort sink: a failing audit write never changes
// a decision.
type Service interface {
	LogDecision(ctx context.Context, entry DecisionLog) error
	QueryDecisions(ctx context.Context, from, to time.Time, subjectID, resourceID string) ([]DecisionLog, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) LogDecision(ctx context.Context, entry DecisionLog) error {
	return s.repo.LogDecision(ctx, entry)
}

func (s *service) QueryDecisions(ctx context.Context, from, to time.Time, subjectID, resourceID string) ([]DecisionLog, error) {
	return s.repo.QueryDecisions(ctx, from, to, subjectID, resourceID)
}
