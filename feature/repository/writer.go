package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"decomp-history/core/apperr"
	"decomp-history/core/git"
	"decomp-history/core/reconcile"
	"decomp-history/core/version"
	"decomp-history/feature/decompiler"

	"go.uber.org/zap"
)

// StagingRef holds the commits of a plan that is being applied.
const StagingRef = "refs/decomp-history/staging"

// Result summarises an applied plan.
type Result struct {
	Strategy reconcile.Strategy `json:"strategy"`
	// Built counts versions produced by the driver.
	Built int `json:"built"`
	// Reused counts versions recommitted from an existing tree.
	Reused int `json:"reused"`
	// Pruned counts deleted tags.
	Pruned int `json:"pruned"`
	// Head is the branch tip after the plan, empty if the branch was removed.
	Head string `json:"head"`
}

// Writer applies reconciliation plans to the repository.
type Writer struct {
	repo   *git.Repository
	driver decompiler.Driver
	cfg    Config
	logger *zap.Logger
}

// NewWriter creates a Writer. The driver's Toolchain is recorded in every
// new sentinel.
func NewWriter(repo *git.Repository, driver decompiler.Driver, cfg Config, logger *zap.Logger) *Writer {
	return &Writer{repo: repo, driver: driver, cfg: cfg, logger: logger}
}

// Recover discards the leftovers of an interrupted run: the staging ref and
// any change to the working tree. It reports whether anything was discarded.
func (w *Writer) Recover(ctx context.Context) (bool, error) {
	if !git.Exists(w.repo.Dir()) {
		return false, nil
	}

	_, err := w.repo.ResolveCommit(ctx, StagingRef)
	staged := err == nil
	if err != nil && !errors.Is(err, git.ErrNotFound) {
		return false, err
	}

	dirty, err := w.repo.IsDirty(ctx)
	if err != nil {
		return false, err
	}
	if !staged && !dirty {
		return false, nil
	}

	w.logger.Warn("Discarding leftovers of an interrupted run",
		zap.Bool("staging_ref", staged),
		zap.Bool("dirty_worktree", dirty),
	)
	if err := w.repo.DeleteRef(ctx, StagingRef); err != nil {
		return false, err
	}
	return true, w.restore(ctx)
}

// Apply executes plan. On error the branch and tags are unchanged.
func (w *Writer) Apply(ctx context.Context, plan *reconcile.Plan) (res *Result, err error) {
	res = &Result{Strategy: plan.Strategy}
	if plan.IsEmpty() {
		return res, nil
	}

	additions := plan.Additions()
	for _, v := range additions {
		if err := git.CheckRefComponent(v.ID); err != nil {
			return nil, apperr.Configuration(fmt.Sprintf("version %q cannot be used as a tag", v.ID), err)
		}
	}

	if !git.Exists(w.repo.Dir()) {
		w.logger.Info("Creating repository", zap.String("path", w.repo.Dir()), zap.String("branch", w.cfg.Branch))
		if _, err := git.Init(ctx, w.repo.Dir(), w.cfg.Branch); err != nil {
			return nil, err
		}
	}
	branch := git.BranchRef(w.cfg.Branch)
	if err := w.repo.SetHead(ctx, branch); err != nil {
		return nil, err
	}

	tip, err := w.repo.ResolveCommit(ctx, branch)
	if err != nil && !errors.Is(err, git.ErrNotFound) {
		return nil, err
	}

	parent := ""
	if plan.Strategy == reconcile.StrategyAppend {
		if plan.Base != tip {
			return nil, apperr.Corrupt("branch %s moved from %s to %s since it was inspected", w.cfg.Branch, short(plan.Base), short(tip))
		}
		parent = plan.Base
	}

	defer func() {
		if err != nil {
			w.discard(res)
		}
	}()

	updates := make([]git.RefUpdate, 0, len(additions)+len(plan.Prune)+2)
	for _, action := range plan.Actions {
		if action.Type != reconcile.ActionAdd {
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		commit, err := w.commitVersion(ctx, action, parent)
		if err != nil {
			return res, err
		}
		if action.ReuseTree != "" {
			res.Reused++
		} else {
			res.Built++
		}
		updates = append(updates, git.RefUpdate{Ref: git.TagRef(action.Version.ID), New: commit})
		parent = commit
	}

	for _, tag := range plan.Prune {
		updates = append(updates, git.RefUpdate{Ref: git.TagRef(tag), Delete: true})
	}
	switch {
	case parent != "":
		updates = append(updates, git.RefUpdate{Ref: branch, New: parent, Old: tip, Create: tip == ""})
	case tip != "":
		updates = append(updates, git.RefUpdate{Ref: branch, Delete: true, Old: tip})
	}
	if len(additions) > 0 {
		updates = append(updates, git.RefUpdate{Ref: StagingRef, Delete: true})
	}

	if err := w.repo.UpdateRefs(ctx, updates); err != nil {
		return res, err
	}
	res.Pruned = len(plan.Prune)
	res.Head = parent

	w.logger.Info("Repository updated",
		zap.String("strategy", string(plan.Strategy)),
		zap.Int("built", res.Built),
		zap.Int("reused", res.Reused),
		zap.Int("pruned", res.Pruned),
		zap.String("head", short(parent)),
	)
	return res, w.restore(ctx)
}

// commitVersion creates the commit for one ADD action on top of parent and
// records it on the staging ref.
func (w *Writer) commitVersion(ctx context.Context, action reconcile.Action, parent string) (string, error) {
	v := action.Version
	sentinel := NewSentinel(v, w.driver.Toolchain())

	tree := action.ReuseTree
	if tree == "" {
		var err error
		if tree, err = w.build(ctx, v, sentinel); err != nil {
			return "", err
		}
	}

	message, err := commitMessage(v, sentinel)
	if err != nil {
		return "", err
	}
	commit, err := w.repo.CommitTree(ctx, tree, parent, message, git.Signature{
		Name:  w.cfg.AuthorName,
		Email: w.cfg.AuthorEmail,
		When:  v.ReleaseTime,
	})
	if err != nil {
		return "", err
	}
	if err := w.repo.UpdateRef(ctx, StagingRef, commit); err != nil {
		return "", err
	}

	w.logger.Info("Committed version",
		zap.String("version", v.ID),
		zap.String("commit", short(commit)),
		zap.Bool("reused_tree", action.ReuseTree != ""),
	)
	return commit, nil
}

// build runs the driver and turns its output into a tree.
func (w *Writer) build(ctx context.Context, v version.GameVersion, sentinel Sentinel) (string, error) {
	out, err := w.driver.Decompile(ctx, v)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return "", ctxErr
		}
		return "", &apperr.DecompilationFailedError{Version: v.ID, Err: err}
	}

	if err := w.replaceWorktree(out); err != nil {
		return "", err
	}
	data, err := sentinel.Encode()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(w.repo.Dir(), SentinelFile), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write sentinel: %w", err)
	}
	return w.repo.StageAll(ctx)
}

// replaceWorktree makes the working tree an exact copy of dir.
func (w *Writer) replaceWorktree(dir string) error {
	entries, err := os.ReadDir(w.repo.Dir())
	if err != nil {
		return fmt.Errorf("failed to read working tree: %w", err)
	}
	for _, e := range entries {
		if e.Name() == ".git" {
			continue
		}
		if err := os.RemoveAll(filepath.Join(w.repo.Dir(), e.Name())); err != nil {
			return fmt.Errorf("failed to clear working tree: %w", err)
		}
	}
	if err := os.CopyFS(w.repo.Dir(), os.DirFS(dir)); err != nil {
		return fmt.Errorf("failed to copy decompiled output: %w", err)
	}
	return nil
}

// restore makes the working tree match the branch tip.
func (w *Writer) restore(ctx context.Context) error {
	branch := git.BranchRef(w.cfg.Branch)
	if err := w.repo.SetHead(ctx, branch); err != nil {
		return err
	}
	if _, err := w.repo.ResolveCommit(ctx, branch); err == nil {
		if err := w.repo.ResetHard(ctx, branch); err != nil {
			return err
		}
	} else if errors.Is(err, git.ErrNotFound) {
		if err := w.repo.ClearIndex(ctx); err != nil {
			return err
		}
	} else {
		return err
	}
	return w.repo.Clean(ctx)
}

// discard drops the staging ref and restores the working tree after a
// failed apply. It must work even when the run's context is cancelled.
func (w *Writer) discard(res *Result) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := w.repo.DeleteRef(ctx, StagingRef); err != nil {
		w.logger.Error("Failed to delete staging ref", zap.Error(err))
	}
	if err := w.restore(ctx); err != nil {
		w.logger.Error("Failed to restore working tree", zap.Error(err))
	}
	w.logger.Warn("Discarded partial apply",
		zap.Int("built", res.Built),
		zap.Int("reused", res.Reused),
	)
}

func commitMessage(v version.GameVersion, sentinel Sentinel) (string, error) {
	data, err := sentinel.Encode()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Version %s (%s)\n\n", v.ID, v.Kind)
	b.Write(data)
	return b.String(), nil
}
