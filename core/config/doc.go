// Package config loads the tool's configuration from the state directory.
//
// Sources, lowest precedence first:
//   - defaults from the `default` struct tags of every section
//   - <state>/config.toml
//   - environment variables prefixed DECOMP_HISTORY_, with dots in keys
//     replaced by underscores (DECOMP_HISTORY_REPOSITORY_BRANCH)
//   - <state>/.env, loaded into the environment first
//
// min_version and max_version are required. Any loading or validation
// failure is an apperr.ConfigurationError.
//
// # Usage
//
//	cfg, err := config.LoadConfig(stateDir)
//	if err != nil {
//	    return err
//	}
//	target, err := version.Select(catalog, cfg.Policy())
package config
