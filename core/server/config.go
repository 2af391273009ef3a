package server

import (
	"fmt"
	"strconv"
)

// Config holds configuration for the read-only status API.
type Config struct {
	// Host is the interface the server binds to.
	Host string `mapstructure:"host" default:"127.0.0.1"`
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API. Empty disables
	// authentication, which is only accepted on a loopback host.
	ApiKey string `mapstructure:"api_key" default:""`
}

// Address returns the listen address.
func (c Config) Address() string {
	return c.Host + ":" + c.Port
}

// Validate checks the port and refuses an unauthenticated API on a
// non-loopback interface.
func (c Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid server port %q", c.Port)
	}
	if c.ApiKey == "" && !c.IsLoopback() {
		return fmt.Errorf("server.api_key is required when listening on %s", c.Host)
	}
	return nil
}

// IsLoopback reports whether Host only accepts local connections.
func (c Config) IsLoopback() bool {
	switch c.Host {
	case "127.0.0.1", "localhost", "::1":
		return true
	default:
		return false
	}
}
