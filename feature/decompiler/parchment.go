package decompiler

import "decomp-history/core/version"

// Parchment names the mapping release used for a version.
type Parchment struct {
	// GameVersion is the game version the mappings were published for.
	GameVersion string
	// Release is the parchment release date.
	Release string
}

// IsZero reports whether no mappings apply.
func (p Parchment) IsZero() bool {
	return p.GameVersion == ""
}

// parchmentReleases maps each game version parchment publishes for to the
// release that is used.
var parchmentReleases = map[string]string{
	"1.16.5": "2022.03.06",
	"1.17.1": "2021.12.12",
	"1.18.2": "2022.11.06",
	"1.19.2": "2022.11.27",
	"1.19.3": "2023.06.25",
	"1.19.4": "2023.06.26",
	"1.20.1": "2023.09.03",
	"1.20.2": "2023.12.10",
	"1.20.3": "2023.12.31",
	"1.20.4": "2024.04.14",
	"1.20.6": "2024.06.16",
	"1.21":   "2024.07.28",
}

// ParchmentIndex maps every version of the catalog to the newest parchment
// mappings published for a version released at or before it. Versions
// older than the first supported one map to the zero Parchment.
func ParchmentIndex(catalog version.Set) map[string]Parchment {
	index := make(map[string]Parchment, len(catalog))
	var current Parchment
	for _, v := range catalog {
		if release, ok := parchmentReleases[v.ID]; ok {
			current = Parchment{GameVersion: v.ID, Release: release}
		}
		index[v.ID] = current
	}
	return index
}
