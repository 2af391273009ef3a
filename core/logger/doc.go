// Package logger provides structured logging based on Zap.
//
// New builds a logger from the log section of the configuration: console
// encoding with colored levels for interactive use, JSON otherwise. Output
// goes to stderr so that commands like `versions` can print to stdout.
//
// WithRayID attaches the request's ray id to a logger inside status API
// handlers so that every line of one request can be correlated.
//
// # Usage
//
//	log, err := logger.New(&cfg.Log)
//	if err != nil {
//	    return err
//	}
//	log.Info("Run started", zap.String("state_dir", dir))
package logger
