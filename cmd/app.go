package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"decomp-history/core/config"
	"decomp-history/core/database"
	"decomp-history/core/fetch"
	"decomp-history/core/logger"
	"decomp-history/core/storage"
	"decomp-history/core/version"
	"decomp-history/feature/artifacts"
	"decomp-history/feature/catalog"
	"decomp-history/feature/decompiler"
	"decomp-history/feature/history"
	"decomp-history/feature/journal"
	"decomp-history/feature/status"

	"go.uber.org/zap"
)

// app wires the services shared by the commands.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	catalog *catalog.Service
	cache   *artifacts.Cache
	journal *journal.Journal
	history *history.Service
}

// newApp loads the configuration from the state directory and connects the
// optional storage and database backends. Backend failures disable the
// backend with a warning.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig(stateDir)
	if err != nil {
		return nil, err
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	zap.ReplaceGlobals(logg)

	a := &app{cfg: cfg, logger: logg}
	a.catalog = catalog.NewService(fetch.New(cfg.Catalog.HTTP), cfg.Catalog.ManifestURL, cfg.ManifestCachePath(), logg)

	if cfg.Storage.Enabled {
		if cache, err := a.connectStorage(ctx); err != nil {
			logg.Warn("Artifact cache disabled", zap.Error(err))
		} else {
			a.cache = cache
		}
	}

	if cfg.Database.Enabled {
		if j, err := a.connectJournal(); err != nil {
			logg.Warn("Run journal disabled", zap.Error(err))
		} else {
			a.journal = j
		}
	}

	var recorder history.Journal
	if a.journal != nil {
		recorder = a.journal
	}
	a.history = history.NewService(history.Options{
		StateDir:   cfg.StateDir,
		Policy:     cfg.Policy(),
		Repository: cfg.Repository,
	}, a.catalog, a.newDriver, recorder, logg)
	return a, nil
}

// newDriver builds the gradle driver, wrapped with the artifact cache and
// the configured timeout.
func (a *app) newDriver(catalogSet version.Set) (decompiler.Driver, error) {
	gradle, err := decompiler.NewGradleDriver(a.cfg.Decompiler, decompiler.ParchmentIndex(catalogSet), a.logger)
	if err != nil {
		return nil, err
	}

	var driver decompiler.Driver = gradle
	if a.cache != nil {
		driver = artifacts.NewDriver(driver, a.cache, gradle.WorkDir(), a.logger)
	}
	return decompiler.WithTimeout(driver, a.cfg.Decompiler.Timeout()), nil
}

func (a *app) connectStorage(ctx context.Context) (*artifacts.Cache, error) {
	client, err := storage.NewClient(a.cfg.Storage)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, time.Duration(max(a.cfg.Storage.TimeoutSeconds, 1))*time.Second)
	defer cancel()
	if err := storage.EnsureBucket(ctx, client, a.cfg.Storage.Bucket); err != nil {
		return nil, err
	}
	a.logger.Info("Artifact cache enabled",
		zap.String("endpoint", a.cfg.Storage.Endpoint),
		zap.String("bucket", a.cfg.Storage.Bucket),
	)
	return artifacts.NewCache(client, a.cfg.Storage.Bucket, a.cfg.Storage.Prefix, a.logger), nil
}

func (a *app) connectJournal() (*journal.Journal, error) {
	if a.cfg.Database.Driver == "sqlite" {
		if err := ensureParent(a.cfg.Database.Name); err != nil {
			return nil, err
		}
	}
	db, err := database.Connect(a.cfg.Database)
	if err != nil {
		return nil, err
	}
	j := journal.New(db, a.logger)
	if err := j.Migrate(); err != nil {
		return nil, err
	}
	a.logger.Debug("Run journal enabled", zap.String("driver", a.cfg.Database.Driver))
	return j, nil
}

// runs returns the journal as a status source, nil when disabled.
func (a *app) runs() status.Runs {
	if a.journal == nil {
		return nil
	}
	return a.journal
}

func (a *app) close() {
	_ = a.logger.Sync()
}

func ensureParent(path string) error {
	if path == ":memory:" {
		return nil
	}
	return os.MkdirAll(filepath.Dir(path), 0755)
}
