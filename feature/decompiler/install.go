package decompiler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"decomp-history/core/utils"

	"go.uber.org/zap"
)

// ensureGradle returns the path of the Gradle executable, downloading the
// distribution into <work>/gradle-install/<version> when it is missing.
func (d *GradleDriver) ensureGradle(ctx context.Context) (string, error) {
	dir := filepath.Join(d.workDir, "gradle-install", d.cfg.GradleVersion)
	exe := filepath.Join(dir, "bin", "gradle")
	if _, err := os.Stat(exe); err == nil {
		return exe, nil
	}

	url := d.cfg.DistributionURL
	if strings.Contains(url, "%s") {
		url = fmt.Sprintf(url, d.cfg.GradleVersion)
	}
	d.logger.Info("Downloading Gradle", zap.String("version", d.cfg.GradleVersion), zap.String("url", url))

	archive, err := d.download(ctx, url)
	if err != nil {
		return "", err
	}
	defer os.Remove(archive)

	partial := dir + ".partial"
	if err := os.RemoveAll(partial); err != nil {
		return "", err
	}
	if err := utils.Unzip(archive, partial); err != nil {
		_ = os.RemoveAll(partial)
		return "", fmt.Errorf("failed to extract Gradle distribution: %w", err)
	}

	root, err := distributionRoot(partial)
	if err != nil {
		_ = os.RemoveAll(partial)
		return "", err
	}
	if err := os.RemoveAll(dir); err != nil {
		return "", err
	}
	if err := os.Rename(root, dir); err != nil {
		return "", fmt.Errorf("failed to install Gradle distribution: %w", err)
	}
	_ = os.RemoveAll(partial)

	if err := os.Chmod(exe, 0755); err != nil {
		return "", fmt.Errorf("%w: %v", errNoExecutable, err)
	}
	return exe, nil
}

// download stores url in a temporary file inside the work area.
func (d *GradleDriver) download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("invalid distribution url: %w", err)
	}
	resp, err := d.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download Gradle: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download Gradle: unexpected status %s", resp.Status)
	}

	f, err := os.CreateTemp(d.workDir, "gradle-*.zip")
	if err != nil {
		return "", fmt.Errorf("failed to create download file: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to download Gradle: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// distributionRoot returns the directory holding bin/gradle: dir itself, or
// its single top-level subdirectory.
func distributionRoot(dir string) (string, error) {
	if _, err := os.Stat(filepath.Join(dir, "bin", "gradle")); err == nil {
		return dir, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	if len(entries) != 1 || !entries[0].IsDir() {
		return "", fmt.Errorf("%w: unexpected archive layout", errNoExecutable)
	}
	root := filepath.Join(dir, entries[0].Name())
	if _, err := os.Stat(filepath.Join(root, "bin", "gradle")); err != nil {
		return "", errNoExecutable
	}
	return root, nil
}
