package decompiler

import (
	"bytes"
	"context"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"decomp-history/core/version"

	"go.uber.org/zap"
)

//go:embed templates/*.gradle.kts
var embeddedTemplates embed.FS

// Build scripts written into the work area.
var buildScripts = []string{"settings.gradle.kts", "build.gradle.kts"}

const (
	unpackSourcesTask   = "unpackSourcesIntoKnownDir"
	exportLibrariesTask = "exportLibraries"

	// Where the tasks leave their results, relative to the work area.
	unpackedSourcesDir = "decompiledSources"
	exportedLibraries  = "build/libraries.txt"

	outputDir = "output"
)

// daemonStopped makes sure a daemon left over from an earlier process is
// stopped only once per process.
var daemonStopped atomic.Bool

// Config holds configuration for the Gradle decompilation driver.
type Config struct {
	// WorkDir is the Gradle work area. Relative paths resolve against the
	// state directory.
	WorkDir string `mapstructure:"work_dir" default:"decompilationWorkArea"`
	// GradleVersion is the Gradle distribution to download.
	GradleVersion string `mapstructure:"gradle_version" default:"8.12"`
	// DistributionURL is the distribution download URL; %s is replaced by
	// GradleVersion.
	DistributionURL string `mapstructure:"distribution_url" default:"https://services.gradle.org/distributions/gradle-%s-bin.zip"`
	// TemplateDir overrides the embedded build scripts when set.
	TemplateDir string `mapstructure:"template_dir" default:""`
	// TimeoutMinutes bounds each version's decompilation. Zero disables it.
	TimeoutMinutes int `mapstructure:"timeout_minutes" default:"0"`
	// StreamOutput copies Gradle's output to stderr.
	StreamOutput bool `mapstructure:"stream_output" default:"true"`
}

// Timeout returns the per-version timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMinutes) * time.Minute
}

// GradleDriver decompiles versions by running Gradle in a work area.
type GradleDriver struct {
	cfg       Config
	workDir   string
	scripts   map[string][]byte
	toolchain string
	parchment map[string]Parchment
	http      *http.Client
	logger    *zap.Logger
	stderr    io.Writer

	mu sync.Mutex
}

// NewGradleDriver prepares a driver. parchment is usually the result of
// ParchmentIndex over the full catalog; a nil index disables mappings.
func NewGradleDriver(cfg Config, parchment map[string]Parchment, logger *zap.Logger) (*GradleDriver, error) {
	workDir, err := filepath.Abs(cfg.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve work area: %w", err)
	}
	if cfg.GradleVersion == "" {
		return nil, fmt.Errorf("gradle version is not configured")
	}

	var templates fs.FS
	if cfg.TemplateDir != "" {
		templates = os.DirFS(cfg.TemplateDir)
	} else {
		templates, err = fs.Sub(embeddedTemplates, "templates")
		if err != nil {
			return nil, err
		}
	}

	scripts := make(map[string][]byte, len(buildScripts))
	hash := sha256.New()
	for _, name := range buildScripts {
		data, err := fs.ReadFile(templates, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read build script %s: %w", name, err)
		}
		scripts[name] = data
		hash.Write(data)
	}

	return &GradleDriver{
		cfg:     cfg,
		workDir: workDir,
		scripts: scripts,
		toolchain: fmt.Sprintf("gradle-%s+classes-%d+libraries-%d+scripts-%s",
			cfg.GradleVersion, ClassesFormat, LibrariesFormat, hex.EncodeToString(hash.Sum(nil))[:12]),
		parchment: parchment,
		http:      &http.Client{},
		logger:    logger,
		stderr:    os.Stderr,
	}, nil
}

// Toolchain implements Driver.
func (d *GradleDriver) Toolchain() string {
	return d.toolchain
}

// WorkDir returns the absolute work area path.
func (d *GradleDriver) WorkDir() string {
	return d.workDir
}

// Decompile implements Driver.
func (d *GradleDriver) Decompile(ctx context.Context, v version.GameVersion) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := os.MkdirAll(d.workDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create work area: %w", err)
	}

	gradle, err := d.ensureGradle(ctx)
	if err != nil {
		return "", err
	}

	if err := d.prepare(v); err != nil {
		return "", err
	}

	if daemonStopped.CompareAndSwap(false, true) {
		d.logger.Debug("Stopping stale Gradle daemons")
		if err := d.run(ctx, gradle, "--stop"); err != nil {
			return "", fmt.Errorf("failed to stop Gradle daemon: %w", err)
		}
	}

	d.logger.Info("Decompiling version", zap.String("version", v.ID), zap.String("parchment", d.parchment[v.ID].GameVersion))
	start := time.Now()
	if err := d.run(ctx, gradle, "--stacktrace", "--parallel", "--configuration-cache", unpackSourcesTask, exportLibrariesTask); err != nil {
		return "", err
	}

	out, err := d.collect()
	if err != nil {
		return "", err
	}
	d.logger.Info("Decompiled version", zap.String("version", v.ID), zap.Duration("took", time.Since(start)))
	return out, nil
}

// prepare writes the build scripts and properties and clears the previous
// version's results.
func (d *GradleDriver) prepare(v version.GameVersion) error {
	for name, data := range d.scripts {
		if err := os.WriteFile(filepath.Join(d.workDir, name), data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	p := d.parchment[v.ID]
	props := fmt.Sprintf("minecraft_version=%s\nparchment_mc_version=%s\nparchment_version=%s\n", v.ID, p.GameVersion, p.Release)
	if err := os.WriteFile(filepath.Join(d.workDir, "gradle.properties"), []byte(props), 0644); err != nil {
		return fmt.Errorf("failed to write gradle.properties: %w", err)
	}

	for _, stale := range []string{unpackedSourcesDir, exportedLibraries, outputDir} {
		if err := os.RemoveAll(filepath.Join(d.workDir, stale)); err != nil {
			return fmt.Errorf("failed to clear %s: %w", stale, err)
		}
	}
	return nil
}

// collect moves the task results into the output directory.
func (d *GradleDriver) collect() (string, error) {
	out := filepath.Join(d.workDir, outputDir)
	if err := os.MkdirAll(out, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	moves := [][2]string{
		{unpackedSourcesDir, SourcesDir},
		{exportedLibraries, LibrariesFile},
	}
	for _, m := range moves {
		from := filepath.Join(d.workDir, m[0])
		if _, err := os.Stat(from); err != nil {
			return "", fmt.Errorf("gradle did not produce %s: %w", m[0], err)
		}
		if err := os.Rename(from, filepath.Join(out, m[1])); err != nil {
			return "", fmt.Errorf("failed to move %s into output: %w", m[0], err)
		}
	}
	return out, nil
}

func (d *GradleDriver) run(ctx context.Context, gradle string, args ...string) error {
	cmd := exec.CommandContext(ctx, gradle, args...)
	cmd.Dir = d.workDir
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = 30 * time.Second

	tail := &tailBuffer{limit: 8 << 10}
	var out io.Writer = tail
	if d.cfg.StreamOutput {
		out = io.MultiWriter(d.stderr, tail)
	}
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("gradle %v interrupted: %w", args, ctxErr)
		}
		return fmt.Errorf("gradle %v failed: %w\n%s", args, err, tail.String())
	}
	return nil
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	limit int
	buf   bytes.Buffer
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	t.buf.Write(p)
	if over := t.buf.Len() - t.limit; over > 0 {
		t.buf.Next(over)
	}
	return n, nil
}

func (t *tailBuffer) String() string {
	return t.buf.String()
}

// errNoExecutable is returned when a distribution lacks bin/gradle.
var errNoExecutable = errors.New("gradle executable not found in distribution")
