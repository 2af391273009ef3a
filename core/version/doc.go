// Package version models the game's version catalog and the selection of
// the versions a repository should contain.
//
// # Ordering
//
// A Set is always ascending by release time. Versions released at the same
// instant are ordered by identifier so that every component agrees on one
// total order; the reconcile engine relies on the same rule.
//
// # Selection
//
// Select resolves the configured minimum and maximum identifiers against the
// catalog and keeps every version released between them, dropping snapshots
// unless the policy includes them:
//
//	target, err := version.Select(catalog, version.Policy{
//	    MinVersion: "1.16.5",
//	    MaxVersion: "1.21",
//	})
package version
