package version

import (
	"decomp-history/core/apperr"
)

// Policy declares which catalog versions belong in the repository.
type Policy struct {
	MinVersion       string
	MaxVersion       string
	IncludeSnapshots bool
	// ExcludeAprilFools drops joke builds released on April 1st.
	ExcludeAprilFools bool
}

// InRange reports whether v is selected given the resolved bounds.
func (p Policy) InRange(v, lower, upper GameVersion) bool {
	if v.ReleaseTime.Before(lower.ReleaseTime) || v.ReleaseTime.After(upper.ReleaseTime) {
		return false
	}
	if !p.IncludeSnapshots && v.IsSnapshot() {
		return false
	}
	if p.ExcludeAprilFools && v.IsAprilFools() {
		return false
	}
	return true
}

// Select applies the policy to the catalog and returns the target set in
// ascending release order. It has no side effects.
func Select(catalog Set, p Policy) (Set, error) {
	lower, hasMin := catalog.Lookup(p.MinVersion)
	upper, hasMax := catalog.Lookup(p.MaxVersion)
	if !hasMin || !hasMax {
		return nil, &apperr.InvalidRangeError{
			MinVersion: p.MinVersion,
			MaxVersion: p.MaxVersion,
			MissingMin: !hasMin,
			MissingMax: !hasMax,
		}
	}
	if lower.ReleaseTime.After(upper.ReleaseTime) {
		return nil, &apperr.InvalidRangeError{
			MinVersion: p.MinVersion,
			MaxVersion: p.MaxVersion,
			Reversed:   true,
		}
	}

	selected := make([]GameVersion, 0, len(catalog))
	for _, v := range catalog {
		if p.InRange(v, lower, upper) {
			selected = append(selected, v)
		}
	}
	return NewSet(selected), nil
}
