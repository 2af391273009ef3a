package version

import (
	"sort"
	"time"
)

// Kind is the release channel reported by the version manifest.
type Kind string

const (
	// KindRelease is a full release.
	KindRelease Kind = "release"
	// KindSnapshot is a development snapshot or pre-release.
	KindSnapshot Kind = "snapshot"
	// KindOldBeta is a historical beta build.
	KindOldBeta Kind = "old_beta"
	// KindOldAlpha is a historical alpha build.
	KindOldAlpha Kind = "old_alpha"
)

// GameVersion is one entry of the version catalog. Values are read-only facts.
type GameVersion struct {
	// ID is the version identifier, e.g. "1.17.1".
	ID string `json:"id"`
	// Kind is the release channel.
	Kind Kind `json:"type"`
	// ReleaseTime orders versions.
	ReleaseTime time.Time `json:"releaseTime"`
}

// IsSnapshot reports whether the version is a development snapshot.
// Historical alpha and beta builds are not snapshots.
func (v GameVersion) IsSnapshot() bool {
	return v.Kind == KindSnapshot
}

// IsAprilFools reports whether the version was released on April 1st (UTC).
func (v GameVersion) IsAprilFools() bool {
	t := v.ReleaseTime.UTC()
	return t.Month() == time.April && t.Day() == 1
}

// Less orders by release time, then by identifier.
func Less(a, b GameVersion) bool {
	if !a.ReleaseTime.Equal(b.ReleaseTime) {
		return a.ReleaseTime.Before(b.ReleaseTime)
	}
	return a.ID < b.ID
}

// Set is an ordered, duplicate-free sequence of versions, ascending by Less.
type Set []GameVersion

// NewSet sorts versions and drops repeated identifiers. The first
// occurrence of an identifier in the input wins.
func NewSet(versions []GameVersion) Set {
	seen := make(map[string]struct{}, len(versions))
	out := make(Set, 0, len(versions))
	for _, v := range versions {
		if _, dup := seen[v.ID]; dup {
			continue
		}
		seen[v.ID] = struct{}{}
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool { return Less(out[i], out[j]) })
	return out
}

// IDs returns the identifiers in order.
func (s Set) IDs() []string {
	ids := make([]string, len(s))
	for i, v := range s {
		ids[i] = v.ID
	}
	return ids
}

// Lookup finds a version by identifier.
func (s Set) Lookup(id string) (GameVersion, bool) {
	for _, v := range s {
		if v.ID == id {
			return v, true
		}
	}
	return GameVersion{}, false
}

// Index returns the versions keyed by identifier.
func (s Set) Index() map[string]GameVersion {
	m := make(map[string]GameVersion, len(s))
	for _, v := range s {
		m[v.ID] = v
	}
	return m
}

// Newest returns the last version of the set.
func (s Set) Newest() (GameVersion, bool) {
	if len(s) == 0 {
		return GameVersion{}, false
	}
	return s[len(s)-1], true
}
