package repository

import (
	"fmt"

	"decomp-history/core/version"

	"github.com/pelletier/go-toml/v2"
)

// SentinelFile marks a commit as a version entry.
const SentinelFile = ".decomp-history.toml"

// FormatVersion is the newest sentinel format this build understands.
const FormatVersion = 1

// Sentinel is the content of SentinelFile.
type Sentinel struct {
	Format    int          `toml:"format" json:"format"`
	Version   string       `toml:"version" json:"version"`
	Kind      version.Kind `toml:"kind" json:"kind"`
	Toolchain string       `toml:"toolchain" json:"toolchain"`
}

// NewSentinel describes v built by toolchain in the current format.
func NewSentinel(v version.GameVersion, toolchain string) Sentinel {
	return Sentinel{Format: FormatVersion, Version: v.ID, Kind: v.Kind, Toolchain: toolchain}
}

// Encode renders the sentinel as TOML.
func (s Sentinel) Encode() ([]byte, error) {
	data, err := toml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sentinel: %w", err)
	}
	return data, nil
}

// DecodeSentinel parses SentinelFile content.
func DecodeSentinel(data []byte) (Sentinel, error) {
	var s Sentinel
	if err := toml.Unmarshal(data, &s); err != nil {
		return Sentinel{}, fmt.Errorf("failed to decode sentinel: %w", err)
	}
	if s.Format <= 0 {
		return Sentinel{}, fmt.Errorf("sentinel has no format version")
	}
	return s, nil
}

// Current reports whether the entry was built by toolchain in the current
// sentinel format.
func (s Sentinel) Current(toolchain string) bool {
	return s.Format == FormatVersion && s.Toolchain == toolchain
}
