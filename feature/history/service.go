package history

import (
	"context"
	"fmt"
	"time"

	"decomp-history/core/apperr"
	"decomp-history/core/git"
	"decomp-history/core/lock"
	"decomp-history/core/reconcile"
	"decomp-history/core/version"
	"decomp-history/feature/decompiler"
	"decomp-history/feature/journal"
	"decomp-history/feature/repository"

	"go.uber.org/zap"
)

// Catalog supplies the full list of known versions.
type Catalog interface {
	Versions(ctx context.Context) (version.Set, error)
}

// Journal records runs. It may be nil.
type Journal interface {
	Start(ctx context.Context, dryRun bool) (*journal.Run, error)
	Finish(ctx context.Context, run *journal.Run, runErr error) error
}

// DriverFactory builds the decompilation driver for a catalog. The catalog
// is nil when only the toolchain is needed.
type DriverFactory func(catalog version.Set) (decompiler.Driver, error)

// Options configures a Service.
type Options struct {
	// StateDir holds the lock file.
	StateDir   string
	Policy     version.Policy
	Repository repository.Config
}

// Report describes what a run saw and did.
type Report struct {
	DryRun    bool                 `json:"dry_run"`
	Recovered bool                 `json:"recovered"`
	Target    version.Set          `json:"target"`
	Snapshot  *repository.Snapshot `json:"snapshot"`
	Plan      *reconcile.Plan      `json:"plan"`
	Result    *repository.Result   `json:"result,omitempty"`
}

// Service orchestrates runs.
type Service struct {
	opts      Options
	catalog   Catalog
	newDriver DriverFactory
	journal   Journal
	logger    *zap.Logger
}

// NewService creates a Service. journal may be nil.
func NewService(opts Options, catalog Catalog, newDriver DriverFactory, journal Journal, logger *zap.Logger) *Service {
	return &Service{opts: opts, catalog: catalog, newDriver: newDriver, journal: journal, logger: logger}
}

// Status inspects the repository without fetching the catalog.
func (s *Service) Status(ctx context.Context) (*repository.Snapshot, error) {
	driver, err := s.newDriver(nil)
	if err != nil {
		return nil, err
	}
	return s.inspect(ctx, driver)
}

// Plan computes the plan a run would apply right now.
func (s *Service) Plan(ctx context.Context) (*Report, error) {
	rep, _, err := s.plan(ctx)
	if err != nil {
		return nil, err
	}
	rep.DryRun = true
	return rep, nil
}

// Run brings the repository in line with the configured range. With dryRun
// set it stops after planning.
func (s *Service) Run(ctx context.Context, dryRun bool) (rep *Report, err error) {
	lk, err := lock.Acquire(s.opts.StateDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if relErr := lk.Release(); relErr != nil {
			s.logger.Warn("Failed to release lock", zap.Error(relErr))
		}
	}()

	run := s.startJournal(ctx, dryRun)
	defer func() { s.finishJournal(run, rep, err) }()

	recovered := false
	if !dryRun {
		// Recovery only needs the repository, not the driver.
		writer := repository.NewWriter(s.repo(), nil, s.opts.Repository, s.logger)
		if recovered, err = writer.Recover(ctx); err != nil {
			return nil, fmt.Errorf("failed to recover from an interrupted run: %w", err)
		}
	}

	rep, driver, err := s.plan(ctx)
	if err != nil {
		return nil, err
	}
	rep.DryRun = dryRun
	rep.Recovered = recovered

	log := s.logger.With(zap.String("strategy", string(rep.Plan.Strategy)))
	if dryRun {
		log.Info("Dry run, repository left unchanged", zap.Int("changes", len(rep.Plan.Changes())+len(rep.Plan.Prune)))
		return rep, nil
	}
	if rep.Plan.IsEmpty() {
		log.Info("Repository is up to date", zap.Int("versions", len(rep.Target)))
		return rep, nil
	}

	for _, reason := range rep.Plan.Reasons {
		log.Info("Rewriting history", zap.String("reason", reason))
	}

	writer := repository.NewWriter(s.repo(), driver, s.opts.Repository, s.logger)
	res, err := writer.Apply(ctx, rep.Plan)
	if err != nil {
		return rep, err
	}
	rep.Result = res

	if err := s.verify(ctx, driver, rep.Target); err != nil {
		return rep, err
	}
	return rep, nil
}

// plan runs every read-only step of a run.
func (s *Service) plan(ctx context.Context) (*Report, decompiler.Driver, error) {
	catalog, err := s.catalog.Versions(ctx)
	if err != nil {
		return nil, nil, err
	}

	target, err := version.Select(catalog, s.opts.Policy)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("Target versions selected",
		zap.Int("count", len(target)),
		zap.String("min", s.opts.Policy.MinVersion),
		zap.String("max", s.opts.Policy.MaxVersion),
	)

	driver, err := s.newDriver(catalog)
	if err != nil {
		return nil, nil, err
	}

	snap, err := s.inspect(ctx, driver)
	if err != nil {
		return nil, nil, err
	}

	plan, err := reconcile.Reconcile(target, snap.Existing())
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("Plan computed",
		zap.String("strategy", string(plan.Strategy)),
		zap.Int("new", plan.Summary.New),
		zap.Int("removed", plan.Summary.Removed),
		zap.Int("kept", plan.Summary.Kept),
		zap.Int("reused", plan.Summary.Reused),
	)

	return &Report{Target: target, Snapshot: snap, Plan: plan}, driver, nil
}

// verify checks that planning again right after an apply changes nothing.
func (s *Service) verify(ctx context.Context, driver decompiler.Driver, target version.Set) error {
	snap, err := s.inspect(ctx, driver)
	if err != nil {
		return err
	}
	again, err := reconcile.Reconcile(target, snap.Existing())
	if err != nil {
		return err
	}
	if !again.IsEmpty() {
		return &apperr.PlanInvariantError{
			Reason:   fmt.Sprintf("repository still needs a %s after apply", again.Strategy),
			Expected: target.IDs(),
			Got:      entryIDs(snap),
		}
	}
	return nil
}

func (s *Service) inspect(ctx context.Context, driver decompiler.Driver) (*repository.Snapshot, error) {
	return repository.Inspect(ctx, s.repo(), repository.InspectOptions{
		Branch:    s.opts.Repository.Branch,
		Toolchain: driver.Toolchain(),
	})
}

func (s *Service) repo() *git.Repository {
	return git.Open(s.opts.Repository.Path)
}

func (s *Service) startJournal(ctx context.Context, dryRun bool) *journal.Run {
	if s.journal == nil {
		return nil
	}
	run, err := s.journal.Start(ctx, dryRun)
	if err != nil {
		s.logger.Warn("Run journal unavailable", zap.Error(err))
		return nil
	}
	return run
}

func (s *Service) finishJournal(run *journal.Run, rep *Report, runErr error) {
	if run == nil {
		return
	}
	if rep != nil {
		run.Target = len(rep.Target)
		if rep.Plan != nil {
			run.Strategy = string(rep.Plan.Strategy)
		}
		if rep.Result != nil {
			run.Built = rep.Result.Built
			run.Reused = rep.Result.Reused
			run.Pruned = rep.Result.Pruned
			run.Head = rep.Result.Head
		}
	}
	// The run context may already be cancelled.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.journal.Finish(ctx, run, runErr); err != nil {
		s.logger.Warn("Failed to finish run journal entry", zap.Error(err))
	}
}

func entryIDs(snap *repository.Snapshot) []string {
	ids := make([]string, len(snap.Entries))
	for i, e := range snap.Entries {
		ids[i] = e.Version
	}
	return ids
}

// IsUpToDate reports whether a report needed no changes.
func (r *Report) IsUpToDate() bool {
	return r.Plan != nil && r.Plan.IsEmpty()
}
