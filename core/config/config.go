package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"decomp-history/core/apperr"
	"decomp-history/core/database"
	"decomp-history/core/git"
	"decomp-history/core/logger"
	"decomp-history/core/server"
	"decomp-history/core/storage"
	"decomp-history/core/version"
	"decomp-history/feature/catalog"
	"decomp-history/feature/decompiler"
	"decomp-history/feature/repository"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileName is the configuration file at the state directory root.
const FileName = "config.toml"

// EnvPrefix prefixes every environment override, e.g.
// DECOMP_HISTORY_REPOSITORY_BRANCH.
const EnvPrefix = "DECOMP_HISTORY"

// Config holds all configuration for the application.
type Config struct {
	// MinVersion is the oldest version kept in the repository.
	MinVersion string `mapstructure:"min_version" default:""`
	// MaxVersion is the newest version kept in the repository.
	MaxVersion string `mapstructure:"max_version" default:""`
	// IncludeSnapshots selects non-release versions too.
	IncludeSnapshots bool `mapstructure:"include_snapshots" default:"false"`
	// ExcludeAprilFools drops versions released on April 1st.
	ExcludeAprilFools bool `mapstructure:"exclude_april_fools" default:"false"`

	Repository repository.Config `mapstructure:"repository"`
	Decompiler decompiler.Config `mapstructure:"decompiler"`
	Catalog    catalog.Config    `mapstructure:"catalog"`
	Log        logger.Config     `mapstructure:"log"`
	Storage    storage.Config    `mapstructure:"storage"`
	Database   database.Config   `mapstructure:"database"`
	Server     server.Config     `mapstructure:"server"`

	// StateDir is the absolute state directory the file was loaded from.
	StateDir string `mapstructure:"-"`
}

// LoadConfig reads <stateDir>/config.toml, after loading <stateDir>/.env
// into the environment. Environment variables override file values.
func LoadConfig(stateDir string) (*Config, error) {
	dir, err := filepath.Abs(stateDir)
	if err != nil {
		return nil, apperr.Configuration("cannot resolve state directory", err)
	}

	// A missing .env is normal.
	_ = godotenv.Overload(filepath.Join(dir, ".env"))

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	v.SetConfigFile(filepath.Join(dir, FileName))
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.Configuration(fmt.Sprintf("%s not found in %s", FileName, dir), nil)
		}
		return nil, apperr.Configuration("cannot parse "+FileName, err)
	}

	// Map environment variables to nested keys (e.g. DECOMP_HISTORY_LOG_LEVEL -> log.level)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, apperr.Configuration("invalid configuration value", err)
	}
	config.StateDir = dir
	config.resolvePaths()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks required fields and value formats.
func (c *Config) Validate() error {
	var missing []string
	if c.MinVersion == "" {
		missing = append(missing, "min_version")
	}
	if c.MaxVersion == "" {
		missing = append(missing, "max_version")
	}
	if len(missing) > 0 {
		return apperr.Configuration("missing required setting "+strings.Join(missing, " and "), nil)
	}

	if err := git.CheckRefComponent(c.Repository.Branch); err != nil {
		return apperr.Configuration("invalid repository.branch", err)
	}
	if c.Repository.AuthorName == "" || c.Repository.AuthorEmail == "" {
		return apperr.Configuration("repository.author_name and repository.author_email are required", nil)
	}
	if c.Decompiler.TimeoutMinutes < 0 {
		return apperr.Configuration("decompiler.timeout_minutes must not be negative", nil)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return apperr.Configuration(fmt.Sprintf("log.format must be console or json, got %q", c.Log.Format), nil)
	}
	return nil
}

// Policy returns the version selection policy.
func (c *Config) Policy() version.Policy {
	return version.Policy{
		MinVersion:        c.MinVersion,
		MaxVersion:        c.MaxVersion,
		IncludeSnapshots:  c.IncludeSnapshots,
		ExcludeAprilFools: c.ExcludeAprilFools,
	}
}

// ManifestCachePath is where the last fetched manifest is kept.
func (c *Config) ManifestCachePath() string {
	return filepath.Join(c.StateDir, "cache", "version_manifest.json")
}

// resolvePaths makes relative paths relative to the state directory.
func (c *Config) resolvePaths() {
	c.Repository.Path = c.resolve(c.Repository.Path)
	c.Decompiler.WorkDir = c.resolve(c.Decompiler.WorkDir)
	if c.Decompiler.TemplateDir != "" {
		c.Decompiler.TemplateDir = c.resolve(c.Decompiler.TemplateDir)
	}
	if c.Database.Driver == "sqlite" && c.Database.Name != ":memory:" {
		c.Database.Name = c.resolve(c.Database.Name)
	}
}

func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.StateDir, path)
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	// If it's a pointer, get the element
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
