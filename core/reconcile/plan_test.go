package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulate_Rewrite(t *testing.T) {
	target := versions("b", "c")
	plan := &Plan{
		Strategy: StrategyRewrite,
		Actions: []Action{
			{Type: ActionAdd, Version: target[0]},
			{Type: ActionAdd, Version: target[1]},
		},
		Prune: []string{"a"},
	}

	history, tags, err := Simulate(entries("a", "b"), plan)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, history)
	assert.Len(t, tags, 2)
	assert.NoError(t, Validate(target, entries("a", "b"), plan))
}

func TestSimulate_Remove(t *testing.T) {
	all := versions("a", "b", "c")
	plan := &Plan{
		Strategy: StrategyAppend,
		Base:     "commit-c",
		Actions: []Action{
			{Type: ActionKeep, Version: all[0]},
			{Type: ActionRemove, Version: all[1]},
			{Type: ActionKeep, Version: all[2]},
		},
	}

	history, tags, err := Simulate(entries("a", "b", "c"), plan)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, history)
	assert.NotContains(t, tags, "b")
}

func TestSimulate_Rejects(t *testing.T) {
	vs := versions("a", "b")

	tests := []struct {
		name     string
		existing []Entry
		plan     *Plan
		errPart  string
	}{
		{
			name:     "keep in rewrite",
			existing: entries("a"),
			plan:     &Plan{Strategy: StrategyRewrite, Actions: []Action{{Type: ActionKeep, Version: vs[0]}}},
			errPart:  "cannot keep",
		},
		{
			name:     "add in noop",
			existing: nil,
			plan:     &Plan{Strategy: StrategyNoop, Actions: []Action{{Type: ActionAdd, Version: vs[0]}}},
			errPart:  "noop plan cannot add",
		},
		{
			name:     "duplicate add",
			existing: nil,
			plan: &Plan{Strategy: StrategyRewrite, Actions: []Action{
				{Type: ActionAdd, Version: vs[0]},
				{Type: ActionAdd, Version: vs[0]},
			}},
			errPart: "added twice",
		},
		{
			name:     "append on wrong base",
			existing: entries("a"),
			plan: &Plan{Strategy: StrategyAppend, Base: "elsewhere", Actions: []Action{
				{Type: ActionKeep, Version: vs[0]},
				{Type: ActionAdd, Version: vs[1]},
			}},
			errPart: "append base",
		},
		{
			name:     "append before keeps",
			existing: entries("a"),
			plan: &Plan{Strategy: StrategyAppend, Base: "commit-a", Actions: []Action{
				{Type: ActionAdd, Version: vs[1]},
				{Type: ActionKeep, Version: vs[0]},
			}},
			errPart: "before the end",
		},
		{
			name:     "prune in append",
			existing: entries("a"),
			plan:     &Plan{Strategy: StrategyAppend, Base: "commit-a", Prune: []string{"a"}},
			errPart:  "cannot prune",
		},
		{
			name:     "prune unknown",
			existing: nil,
			plan:     &Plan{Strategy: StrategyRewrite, Prune: []string{"zzz"}},
			errPart:  "unknown tag",
		},
		{
			name:     "unaccounted existing",
			existing: entries("a", "b"),
			plan:     &Plan{Strategy: StrategyNoop, Actions: []Action{{Type: ActionKeep, Version: vs[0]}}},
			errPart:  "unaccounted",
		},
		{
			name:     "unknown strategy",
			existing: nil,
			plan:     &Plan{Strategy: "merge"},
			errPart:  "unknown strategy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Simulate(tt.existing, tt.plan)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errPart)
		})
	}
}

func TestValidate_DetectsOrderMismatch(t *testing.T) {
	target := versions("a", "b")
	plan := &Plan{
		Strategy: StrategyRewrite,
		Actions: []Action{
			{Type: ActionAdd, Version: target[1]},
			{Type: ActionAdd, Version: target[0]},
		},
	}

	err := Validate(target, nil, plan)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match target order")
}

func TestPlan_Helpers(t *testing.T) {
	vs := versions("a", "b")
	plan := &Plan{
		Strategy: StrategyAppend,
		Actions: []Action{
			{Type: ActionKeep, Version: vs[0]},
			{Type: ActionAdd, Version: vs[1]},
		},
	}

	assert.False(t, plan.IsEmpty())
	assert.Len(t, plan.Changes(), 1)
	require.Len(t, plan.Additions(), 1)
	assert.Equal(t, "b", plan.Additions()[0].ID)
}
