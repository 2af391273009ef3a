package reconcile

import (
	"fmt"
	"sort"

	"decomp-history/core/apperr"
	"decomp-history/core/version"
)

// Validate simulates applying plan to existing and checks that the result
// is exactly target: same tags, same history order. Any mismatch is a
// PlanInvariantError.
func Validate(target version.Set, existing []Entry, plan *Plan) error {
	history, tags, err := Simulate(existing, plan)
	if err != nil {
		return &apperr.PlanInvariantError{Reason: err.Error()}
	}

	want := target.IDs()
	if !equalIDs(history, want) {
		return &apperr.PlanInvariantError{
			Reason:   "simulated history does not match target order",
			Expected: want,
			Got:      history,
		}
	}

	if len(tags) != len(want) {
		return &apperr.PlanInvariantError{
			Reason:   fmt.Sprintf("simulated tag set has %d tags, target has %d", len(tags), len(want)),
			Expected: want,
			Got:      sortedKeys(tags),
		}
	}
	for _, id := range want {
		if _, ok := tags[id]; !ok {
			return &apperr.PlanInvariantError{Reason: fmt.Sprintf("tag %s missing after simulation", id)}
		}
	}
	return nil
}

// Simulate replays plan over the existing history and returns the
// resulting first-parent history (oldest first) and tag set.
func Simulate(existing []Entry, plan *Plan) ([]string, map[string]struct{}, error) {
	tags := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		tags[e.ID] = struct{}{}
	}

	var history []string
	switch plan.Strategy {
	case StrategyRewrite:
		for _, id := range plan.Prune {
			if _, ok := tags[id]; !ok {
				return nil, nil, fmt.Errorf("prune of unknown tag %s", id)
			}
			delete(tags, id)
		}
	case StrategyAppend, StrategyNoop:
		if len(plan.Prune) > 0 {
			return nil, nil, fmt.Errorf("%s plan cannot prune tags", plan.Strategy)
		}
		for _, e := range existing {
			history = append(history, e.ID)
		}
		if plan.Strategy == StrategyAppend && len(existing) > 0 && plan.Base != existing[len(existing)-1].Commit {
			return nil, nil, fmt.Errorf("append base %q is not the newest existing commit", plan.Base)
		}
	default:
		return nil, nil, fmt.Errorf("unknown strategy %q", plan.Strategy)
	}

	keepCursor := 0
	for _, action := range plan.Actions {
		id := action.Version.ID
		switch action.Type {
		case ActionKeep:
			if plan.Strategy == StrategyRewrite {
				return nil, nil, fmt.Errorf("rewrite plan cannot keep %s", id)
			}
			if keepCursor >= len(history) || history[keepCursor] != id {
				return nil, nil, fmt.Errorf("keep of %s does not match history position %d", id, keepCursor)
			}
			keepCursor++
		case ActionAdd:
			if plan.Strategy == StrategyNoop {
				return nil, nil, fmt.Errorf("noop plan cannot add %s", id)
			}
			if plan.Strategy == StrategyAppend && keepCursor != len(history) {
				return nil, nil, fmt.Errorf("add of %s before the end of the existing history", id)
			}
			for _, h := range history {
				if h == id {
					return nil, nil, fmt.Errorf("version %s added twice", id)
				}
			}
			history = append(history, id)
			keepCursor = len(history)
			tags[id] = struct{}{}
		case ActionRemove:
			idx := indexOf(history, id)
			if idx < 0 {
				return nil, nil, fmt.Errorf("remove of %s which is not in the history", id)
			}
			history = append(history[:idx], history[idx+1:]...)
			delete(tags, id)
			if keepCursor > idx {
				keepCursor--
			}
		default:
			return nil, nil, fmt.Errorf("unknown action %q for %s", action.Type, id)
		}
	}

	if plan.Strategy != StrategyRewrite && keepCursor != len(history) {
		return nil, nil, fmt.Errorf("plan leaves %d existing version(s) unaccounted for", len(history)-keepCursor)
	}
	return history, tags, nil
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
