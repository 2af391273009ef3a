// Package repository reads and writes the version history repository.
//
// Every version commit carries a sentinel file, .decomp-history.toml, naming
// the version, the toolchain that built it and the sentinel format. Inspect
// turns the tags, the sentinels and the primary branch's first-parent chain
// into a Snapshot. Writer.Apply executes a reconcile.Plan.
//
// # Atomicity
//
// New commits are only reachable from the staging ref
// refs/decomp-history/staging until every version of the plan is built.
// The primary branch, the new tags, the pruned tags and the staging ref are
// then changed in a single reference transaction. A failure before that
// point leaves the branch and the tags untouched; Recover discards the
// leftovers of an interrupted run.
package repository
