package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"decomp-history/core/fetch"
	"decomp-history/core/version"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Config holds configuration for the version catalog.
type Config struct {
	// ManifestURL is the location of version_manifest_v2.json.
	ManifestURL string `mapstructure:"manifest_url" default:"https://piston-meta.mojang.com/mc/game/version_manifest_v2.json"`
	// HTTP configures the download client.
	HTTP fetch.Config `mapstructure:"http"`
}

// Getter downloads a document.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Service fetches the version catalog.
type Service struct {
	getter    Getter
	url       string
	cachePath string
	logger    *zap.Logger
	group     singleflight.Group
}

// NewService creates a catalog service. cachePath may be empty to skip
// writing the display cache.
func NewService(getter Getter, url, cachePath string, logger *zap.Logger) *Service {
	if url == "" {
		url = DefaultManifestURL
	}
	return &Service{getter: getter, url: url, cachePath: cachePath, logger: logger}
}

// Fetch downloads and decodes the manifest. Callers arriving while a
// download is in flight receive its result. The download runs under the
// context of the caller that started it.
func (s *Service) Fetch(ctx context.Context) (*Manifest, error) {
	ch := s.group.DoChan("manifest", func() (any, error) {
		return s.fetch(ctx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Manifest), nil
	}
}

// Versions returns the catalog as an ordered set.
func (s *Service) Versions(ctx context.Context) (version.Set, error) {
	m, err := s.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return m.Set(), nil
}

// Cached returns the manifest saved by the last successful fetch.
func (s *Service) Cached() (*Manifest, error) {
	if s.cachePath == "" {
		return nil, fmt.Errorf("no manifest cache configured")
	}
	data, err := os.ReadFile(s.cachePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read cached manifest: %w", err)
	}
	return Decode(data)
}

func (s *Service) fetch(ctx context.Context) (*Manifest, error) {
	s.logger.Debug("Fetching version manifest", zap.String("url", s.url))

	data, err := s.getter.Get(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch version manifest: %w", err)
	}

	m, err := Decode(data)
	if err != nil {
		return nil, err
	}

	if err := s.writeCache(data); err != nil {
		s.logger.Warn("Failed to write manifest cache", zap.String("path", s.cachePath), zap.Error(err))
	}

	s.logger.Info("Fetched version manifest",
		zap.Int("versions", len(m.Versions)),
		zap.String("latest_release", m.Latest.Release),
		zap.String("latest_snapshot", m.Latest.Snapshot),
	)
	return m, nil
}

func (s *Service) writeCache(data []byte) error {
	if s.cachePath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.cachePath), 0755); err != nil {
		return err
	}
	tmp := s.cachePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.cachePath)
}
