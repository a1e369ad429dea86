// ABOUTME: Connection settings for the Charm KV exclusion backend
// ABOUTME: Values come from the application config; this file only holds defaults

package charm

import (
	"time"

	"github.com/charmbracelet/charm/kv"
)

const (
	// DefaultCharmHost is the self-hosted 2389 research server.
	DefaultCharmHost = "charm.2389.dev"

	// AppName names the Charm KV database.
	AppName = "leadengine"
)

// Config holds charm connection settings.
type Config struct {
	Host string

	// AutoSync pushes after every write and pulls on open.
	AutoSync bool

	// StaleThreshold is how old local data may get before a read syncs first.
	StaleThreshold time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Host:           DefaultCharmHost,
		AutoSync:       true,
		StaleThreshold: kv.DefaultStaleThreshold,
	}
}

// withDefaults fills unset fields.
func (c *Config) withDefaults() *Config {
	out := *c
	if out.Host == "" {
		out.Host = DefaultCharmHost
	}
	if out.StaleThreshold == 0 {
		out.StaleThreshold = kv.DefaultStaleThreshold
	}
	return &out
}
