package catalog

import (
	"encoding/json"
	"fmt"
	"time"

	"decomp-history/core/version"
)

// DefaultManifestURL is Mojang's launcher manifest.
const DefaultManifestURL = "https://piston-meta.mojang.com/mc/game/version_manifest_v2.json"

// Manifest is the decoded version manifest.
type Manifest struct {
	Latest   Latest          `json:"latest"`
	Versions []ManifestEntry `json:"versions"`
}

// Latest names the newest release and snapshot.
type Latest struct {
	Release  string `json:"release"`
	Snapshot string `json:"snapshot"`
}

// ManifestEntry is one version of the manifest.
type ManifestEntry struct {
	ID          string       `json:"id"`
	Type        version.Kind `json:"type"`
	URL         string       `json:"url"`
	Time        time.Time    `json:"time"`
	ReleaseTime time.Time    `json:"releaseTime"`
	SHA1        string       `json:"sha1,omitempty"`
}

// Decode parses a manifest document.
func Decode(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode version manifest: %w", err)
	}
	for i, e := range m.Versions {
		if e.ID == "" {
			return nil, fmt.Errorf("version manifest entry %d has no id", i)
		}
		if e.ReleaseTime.IsZero() {
			return nil, fmt.Errorf("version manifest entry %s has no release time", e.ID)
		}
	}
	return &m, nil
}

// Set converts the manifest to an ordered version set.
func (m *Manifest) Set() version.Set {
	vs := make([]version.GameVersion, len(m.Versions))
	for i, e := range m.Versions {
		vs[i] = version.GameVersion{ID: e.ID, Kind: e.Type, ReleaseTime: e.ReleaseTime}
	}
	return version.NewSet(vs)
}
