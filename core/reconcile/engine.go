package reconcile

import (
	"fmt"

	"decomp-history/core/version"
)

// Reconcile compares the target version set with the versions already in
// the repository and returns the plan that closes the gap.
//
// A plan either appends new versions after the current head or rebuilds the
// entire history. Surgical edits of existing commits are never planned: any
// removal, any reordering of kept versions, any stale kept entry, and any new
// version older than the current head forces a full rewrite.
//
// Every plan is simulated before it is returned; a plan that would not
// reproduce target exactly yields a PlanInvariantError.
func Reconcile(target version.Set, existing []Entry) (*Plan, error) {
	targetIDs := make(map[string]struct{}, len(target))
	for _, v := range target {
		targetIDs[v.ID] = struct{}{}
	}
	existingByID := make(map[string]Entry, len(existing))
	for _, e := range existing {
		existingByID[e.ID] = e
	}

	summary := PlanSummary{Target: len(target), Existing: len(existing)}

	// Partition by identifier
	var toRemove []string
	for _, e := range existing {
		if _, ok := targetIDs[e.ID]; !ok {
			toRemove = append(toRemove, e.ID)
		}
	}
	for _, v := range target {
		if _, ok := existingByID[v.ID]; ok {
			summary.Kept++
		} else {
			summary.New++
		}
	}
	summary.Removed = len(toRemove)

	reasons := rewriteReasons(target, existing, targetIDs, toRemove)

	var plan *Plan
	if len(reasons) > 0 {
		plan = buildRewrite(target, existingByID, toRemove, reasons)
	} else {
		plan = buildAppend(target, existing)
	}
	summary.Reused = countReused(plan.Actions)
	plan.Summary = summary

	if err := Validate(target, existing, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// rewriteReasons lists every condition that rules out the append path.
// An empty result means existing is exactly a fresh prefix of target.
func rewriteReasons(target version.Set, existing []Entry, targetIDs map[string]struct{}, toRemove []string) []string {
	var reasons []string

	if len(existing) == 0 && len(target) > 0 {
		// Nothing to keep; any history on the branch is replaced.
		return nil
	}

	if len(toRemove) > 0 {
		reasons = append(reasons, fmt.Sprintf("%d version(s) left the target range: %v", len(toRemove), toRemove))
	}

	for _, e := range existing {
		if _, kept := targetIDs[e.ID]; kept && e.Stale {
			reasons = append(reasons, fmt.Sprintf("version %s was built by an outdated toolchain", e.ID))
		}
	}

	// Kept versions must appear in the same relative order on both sides
	var existingKept []string
	for _, e := range existing {
		if _, kept := targetIDs[e.ID]; kept {
			existingKept = append(existingKept, e.ID)
		}
	}
	existingSet := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		existingSet[e.ID] = struct{}{}
	}
	var targetKept []string
	for _, v := range target {
		if _, ok := existingSet[v.ID]; ok {
			targetKept = append(targetKept, v.ID)
		}
	}
	if !equalIDs(existingKept, targetKept) {
		reasons = append(reasons, "release order of existing versions changed")
	}

	// Only trailing additions can be appended
	if len(reasons) == 0 {
		for i, e := range existing {
			if i >= len(target) || target[i].ID != e.ID {
				reasons = append(reasons, fmt.Sprintf("version %s is older than the current head", firstInsertion(target, existingSet)))
				break
			}
		}
	}

	return reasons
}

// firstInsertion returns the first new target version that precedes an
// existing one, for reporting.
func firstInsertion(target version.Set, existingSet map[string]struct{}) string {
	for _, v := range target {
		if _, ok := existingSet[v.ID]; !ok {
			return v.ID
		}
	}
	return ""
}

// buildRewrite plans a full linear rebuild over target.
func buildRewrite(target version.Set, existingByID map[string]Entry, toRemove []string, reasons []string) *Plan {
	actions := make([]Action, 0, len(target))
	for _, v := range target {
		action := Action{Type: ActionAdd, Version: v}
		if e, ok := existingByID[v.ID]; ok && !e.Stale && e.Tree != "" {
			action.ReuseTree = e.Tree
		}
		actions = append(actions, action)
	}

	strategy := StrategyRewrite
	if len(actions) == 0 && len(toRemove) == 0 {
		strategy = StrategyNoop
	}

	return &Plan{
		Strategy: strategy,
		Actions:  actions,
		Prune:    toRemove,
		Reasons:  reasons,
	}
}

// buildAppend keeps the existing prefix and adds the remaining versions.
func buildAppend(target version.Set, existing []Entry) *Plan {
	actions := make([]Action, 0, len(target))
	for i, v := range target {
		if i < len(existing) {
			actions = append(actions, Action{Type: ActionKeep, Version: v})
			continue
		}
		actions = append(actions, Action{Type: ActionAdd, Version: v})
	}

	plan := &Plan{Strategy: StrategyAppend, Actions: actions}
	if len(existing) > 0 {
		plan.Base = existing[len(existing)-1].Commit
	}
	if len(existing) == 0 && len(target) > 0 {
		plan.Strategy = StrategyRewrite
		plan.Reasons = []string{"repository holds no versions yet"}
	}
	if len(target) == len(existing) {
		plan.Strategy = StrategyNoop
		plan.Base = ""
	}
	return plan
}

func countReused(actions []Action) int {
	n := 0
	for _, a := range actions {
		if a.ReuseTree != "" {
			n++
		}
	}
	return n
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
