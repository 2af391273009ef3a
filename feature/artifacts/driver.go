package artifacts

import (
	"context"
	"path/filepath"

	"decomp-history/core/version"
	"decomp-history/feature/decompiler"

	"go.uber.org/zap"
)

// Driver serves decompilation output from the cache when possible.
type Driver struct {
	next    decompiler.Driver
	cache   *Cache
	workDir string
	logger  *zap.Logger
}

// NewDriver wraps next. Cache hits are extracted below workDir.
func NewDriver(next decompiler.Driver, cache *Cache, workDir string, logger *zap.Logger) *Driver {
	return &Driver{next: next, cache: cache, workDir: workDir, logger: logger}
}

// Toolchain implements decompiler.Driver.
func (d *Driver) Toolchain() string {
	return d.next.Toolchain()
}

// Decompile implements decompiler.Driver.
func (d *Driver) Decompile(ctx context.Context, v version.GameVersion) (string, error) {
	toolchain := d.next.Toolchain()
	log := d.logger.With(zap.String("version", v.ID), zap.String("object", d.cache.ObjectName(toolchain, v.ID)))

	dest := filepath.Join(d.workDir, "cached-output")
	hit, err := d.cache.Fetch(ctx, toolchain, v.ID, dest)
	switch {
	case err != nil:
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		log.Warn("Artifact cache lookup failed", zap.Error(err))
	case hit:
		log.Info("Using cached decompilation output")
		return dest, nil
	}

	out, err := d.next.Decompile(ctx, v)
	if err != nil {
		return "", err
	}

	if err := d.cache.Store(ctx, toolchain, v.ID, out); err != nil {
		log.Warn("Failed to store decompilation output", zap.Error(err))
	} else {
		log.Debug("Stored decompilation output")
	}
	return out, nil
}
