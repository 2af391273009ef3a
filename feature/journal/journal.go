package journal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"decomp-history/core/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Status of a recorded run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one row of the runs table.
type Run struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	StartedAt  time.Time  `gorm:"index" json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	DryRun     bool       `json:"dry_run"`
	Strategy   string     `gorm:"size:16" json:"strategy,omitempty"`
	Target     int        `json:"target"`
	Built      int        `json:"built"`
	Reused     int        `json:"reused"`
	Pruned     int        `json:"pruned"`
	Head       string     `gorm:"size:64" json:"head,omitempty"`
	Status     Status     `gorm:"size:16" json:"status"`
	Error      string     `gorm:"type:text" json:"error,omitempty"`
}

// TableName implements gorm's tabler.
func (Run) TableName() string {
	return "runs"
}

// Columns lists the columns Migrate verifies after migrating.
var Columns = []string{
	"id", "started_at", "finished_at", "dry_run", "strategy", "target",
	"built", "reused", "pruned", "head", "status", "error",
}

// Journal reads and writes runs.
type Journal struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
}

// New creates a Journal on db.
func New(db *gorm.DB, logger *zap.Logger) *Journal {
	return &Journal{db: db, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Migrate creates or extends the runs table and verifies its columns.
func (j *Journal) Migrate() error {
	if err := j.db.AutoMigrate(&Run{}); err != nil {
		return fmt.Errorf("failed to migrate runs table: %w", err)
	}
	missing, err := database.MissingColumns(j.db, Run{}.TableName(), Columns)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("runs table is missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Start inserts a running row.
func (j *Journal) Start(ctx context.Context, dryRun bool) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		StartedAt: j.now(),
		DryRun:    dryRun,
		Status:    StatusRunning,
	}
	if err := j.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}
	j.logger.Debug("Run recorded", zap.String("run_id", run.ID))
	return run, nil
}

// Finish stores the outcome of run. A nil runErr marks it succeeded.
func (j *Journal) Finish(ctx context.Context, run *Run, runErr error) error {
	finished := j.now()
	run.FinishedAt = &finished
	run.Status = StatusSucceeded
	run.Error = ""
	if runErr != nil {
		run.Status = StatusFailed
		run.Error = runErr.Error()
	}
	if err := j.db.WithContext(ctx).Save(run).Error; err != nil {
		return fmt.Errorf("failed to update run %s: %w", run.ID, err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []Run
	if err := j.db.WithContext(ctx).Order("started_at desc").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}
