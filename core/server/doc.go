// Package server holds the status API server configuration.
//
// The serve command builds the Fiber application; this package defines
// where it listens and when an API key is mandatory.
package server
