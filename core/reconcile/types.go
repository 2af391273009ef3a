package reconcile

import "decomp-history/core/version"

// Entry is a version already materialized in the repository, as observed
// at the start of a run. Entries are passed to Reconcile oldest first.
type Entry struct {
	// ID is the version identifier (and tag name).
	ID string `json:"id"`

	// Commit is the commit the version tag resolves to.
	Commit string `json:"commit"`

	// Tree is the tree of that commit.
	Tree string `json:"tree"`

	// Stale marks entries written by an older format or a different
	// decompilation toolchain. Stale entries cannot be kept.
	Stale bool `json:"stale"`
}

// ActionType represents the type of a planned step.
type ActionType string

const (
	// ActionAdd commits a version.
	ActionAdd ActionType = "add"
	// ActionRemove drops a version from the history.
	ActionRemove ActionType = "remove"
	// ActionKeep leaves an existing commit untouched.
	ActionKeep ActionType = "keep"
)

// Action is one step of a plan, listed in final history order.
type Action struct {
	// Type specifies the step to perform.
	Type ActionType `json:"type"`

	// Version is the version the step applies to.
	Version version.GameVersion `json:"version"`

	// ReuseTree is the tree id of an up-to-date existing commit for the
	// same version. Only set on ActionAdd during a rewrite; the writer may
	// recommit this tree instead of decompiling again.
	ReuseTree string `json:"reuse_tree,omitempty"`
}

// Strategy is how a plan changes the history.
type Strategy string

const (
	// StrategyNoop leaves the repository as it is.
	StrategyNoop Strategy = "noop"
	// StrategyAppend adds commits on top of the current head.
	StrategyAppend Strategy = "append"
	// StrategyRewrite rebuilds the whole history from an orphan root.
	StrategyRewrite Strategy = "rewrite"
)

// Plan contains the strategy and ordered actions that turn the existing
// history into the target one.
type Plan struct {
	// Strategy selects how the writer applies the actions.
	Strategy Strategy `json:"strategy"`

	// Actions lists one step per target version, in history order.
	Actions []Action `json:"actions"`

	// Base is the commit an append builds on. Empty for rewrites.
	Base string `json:"base,omitempty"`

	// Prune lists existing tags to delete because their version left the
	// target set. Only set for rewrites.
	Prune []string `json:"prune,omitempty"`

	// Reasons explains why a rewrite was chosen.
	Reasons []string `json:"reasons,omitempty"`

	// Summary provides aggregate counts.
	Summary PlanSummary `json:"summary"`
}

// PlanSummary provides aggregate statistics for a plan.
type PlanSummary struct {
	// Target is the number of versions the history must contain.
	Target int `json:"target"`

	// Existing is the number of versions found in the repository.
	Existing int `json:"existing"`

	// New counts target versions absent from the repository.
	New int `json:"new"`

	// Removed counts repository versions absent from the target.
	Removed int `json:"removed"`

	// Kept counts versions present in both.
	Kept int `json:"kept"`

	// Reused counts rewrite additions that can recommit an existing tree.
	Reused int `json:"reused"`
}

// Changes returns the actions that modify the history, dropping KEEPs.
func (p *Plan) Changes() []Action {
	var changes []Action
	for _, a := range p.Actions {
		if a.Type != ActionKeep {
			changes = append(changes, a)
		}
	}
	return changes
}

// IsEmpty reports whether applying the plan would change nothing.
func (p *Plan) IsEmpty() bool {
	return len(p.Changes()) == 0 && len(p.Prune) == 0
}

// Additions returns the versions the plan commits, in order.
func (p *Plan) Additions() []version.GameVersion {
	var out []version.GameVersion
	for _, a := range p.Actions {
		if a.Type == ActionAdd {
			out = append(out, a.Version)
		}
	}
	return out
}
