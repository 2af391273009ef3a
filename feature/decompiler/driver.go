package decompiler

import (
	"context"
	"time"

	"decomp-history/core/version"
)

// Artifact output versions. Bump one whenever the corresponding output
// changes in any way so existing entries get rebuilt.
const (
	ClassesFormat   = 3
	LibrariesFormat = 1
)

// Paths of the artifacts inside an output directory.
const (
	SourcesDir    = "src"
	LibrariesFile = "libraries.txt"
)

// Driver decompiles a single version.
type Driver interface {
	// Decompile produces the source tree of v and returns the directory
	// holding it. The directory stays valid until the next call.
	Decompile(ctx context.Context, v version.GameVersion) (string, error)
	// Toolchain identifies the build pipeline. Output is deterministic per
	// version identifier and toolchain.
	Toolchain() string
}

type timeoutDriver struct {
	Driver
	timeout time.Duration
}

// WithTimeout bounds every Decompile call of d. A non-positive timeout
// returns d unchanged.
func WithTimeout(d Driver, timeout time.Duration) Driver {
	if timeout <= 0 {
		return d
	}
	return &timeoutDriver{Driver: d, timeout: timeout}
}

func (d *timeoutDriver) Decompile(ctx context.Context, v version.GameVersion) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return d.Driver.Decompile(ctx, v)
}
