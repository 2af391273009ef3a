// Package reconcile decides how a repository's version history must change
// to match a target version set.
//
// The package is pure: it reads a target set and a snapshot of the existing
// entries and returns a Plan. Applying the plan is the repository writer's job.
//
// # Strategies
//
//  1. Noop: the repository already holds exactly the target, in order, built
//     by the current toolchain. Every action is a KEEP.
//
//  2. Append: the existing history is a prefix of the target and every new
//     version is newer than the current head. Existing commits are kept and
//     the new versions are committed on top of Plan.Base.
//
//  3. Rewrite: anything else. The plan is an ADD for every target version,
//     committed onto a fresh orphan history; tags of versions that left the
//     range are listed in Plan.Prune. Commit hashes are not preserved.
//
// # Validation
//
// Reconcile simulates each plan before returning it. A plan whose simulated
// result differs from the target is reported as apperr.PlanInvariantError,
// which callers must treat as a defect rather than bad input.
//
// # Usage
//
//	plan, err := reconcile.Reconcile(target, snapshot.Existing())
//	if err != nil {
//	    return err
//	}
//	if plan.IsEmpty() {
//	    return nil
//	}
package reconcile
