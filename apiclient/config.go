package apiclient

import (
	"fmt"
	"time"
)

const (
	defaultTimeout = 10 * time.Second

	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	ContentTypeJSON     = "application/json"
)

// Config configures a Client.
type Config struct {
	// BaseURL is prepended verbatim to every endpoint.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout bounds each request. Defaults to 10s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Headers replace the default header set when non-empty.
	// The default set is Content-Type: application/json.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if len(c.Headers) == 0 {
		c.Headers = map[string]string{HeaderContentType: ContentTypeJSON}
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("apiclient: base_url is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("apiclient: timeout must be positive")
	}
	return nil
}
