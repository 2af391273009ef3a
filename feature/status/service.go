package status

import (
	"context"
	"errors"

	"decomp-history/feature/history"
	"decomp-history/feature/journal"
	"decomp-history/feature/repository"

	"go.uber.org/zap"
)

// ErrJournalDisabled is returned by Runs when no journal is configured.
var ErrJournalDisabled = errors.New("run journal is disabled")

// History is the read-only part of history.Service.
type History interface {
	Status(ctx context.Context) (*repository.Snapshot, error)
	Plan(ctx context.Context) (*history.Report, error)
}

// Runs lists journal entries.
type Runs interface {
	Recent(ctx context.Context, limit int) ([]journal.Run, error)
}

// Service answers status queries.
type Service struct {
	history History
	runs    Runs
	logger  *zap.Logger
}

// NewService creates a Service. runs may be nil.
func NewService(history History, runs Runs, logger *zap.Logger) *Service {
	return &Service{history: history, runs: runs, logger: logger}
}

// Snapshot returns the current repository state.
func (s *Service) Snapshot(ctx context.Context) (*repository.Snapshot, error) {
	return s.history.Status(ctx)
}

// Plan returns what a run would do now.
func (s *Service) Plan(ctx context.Context) (*history.Report, error) {
	return s.history.Plan(ctx)
}

// Runs returns up to limit recent runs.
func (s *Service) Runs(ctx context.Context, limit int) ([]journal.Run, error) {
	if s.runs == nil {
		return nil, ErrJournalDisabled
	}
	return s.runs.Recent(ctx, limit)
}
