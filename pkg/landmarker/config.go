package landmarker

import (
	"fmt"
	"net/url"
	"time"
)

// Config configures the sidecar client.
type Config struct {
	// URL of the sidecar websocket endpoint.
	URL string

	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration

	// PingInterval is how often a ping is sent. The connection is
	// considered dead after two intervals without a pong or message.
	PingInterval time.Duration

	// Reconnect backoff, doubling from ReconnectDelay up to ReconnectMaxDelay.
	ReconnectDelay    time.Duration
	ReconnectMaxDelay time.Duration
}

// DefaultConfig returns the sidecar defaults.
func DefaultConfig() Config {
	return Config{
		URL:               "ws://127.0.0.1:8765/landmarker",
		HandshakeTimeout:  10 * time.Second,
		WriteTimeout:      2 * time.Second,
		PingInterval:      15 * time.Second,
		ReconnectDelay:    1 * time.Second,
		ReconnectMaxDelay: 30 * time.Second,
	}
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid sidecar url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("sidecar url must be ws:// or wss://, got %q", c.URL)
	}
	if c.PingInterval <= 0 || c.WriteTimeout <= 0 {
		return fmt.Errorf("ping_interval and write_timeout must be positive")
	}
	if c.ReconnectDelay <= 0 || c.ReconnectMaxDelay < c.ReconnectDelay {
		return fmt.Errorf("reconnect delays must be positive and max >= base")
	}
	return nil
}
