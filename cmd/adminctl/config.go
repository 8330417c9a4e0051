package main

import (
	"errors"
	"fmt"

	"github.com/entadmin/adminkit/apiclient"
	"github.com/entadmin/adminkit/config"
	"github.com/entadmin/adminkit/resilience"
	"github.com/entadmin/adminkit/storage"
	"github.com/entadmin/adminkit/supabase"
)

const serviceName = "adminctl"

// AppConfig is the adminctl configuration. When supabase.url is set the data
// commands talk to the project REST API; otherwise they use api.base_url.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	API      apiclient.Config       `yaml:"api" mapstructure:"api"`
	Supabase supabase.Config        `yaml:"supabase" mapstructure:"supabase"`
	Storage  storage.Config         `yaml:"storage" mapstructure:"storage"`
	Retry    resilience.RetryConfig `yaml:"retry" mapstructure:"retry"`

	// AccessToken is a user session token sent with data requests.
	AccessToken string `yaml:"access_token" mapstructure:"access_token"`
}

func (c *AppConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.API.ApplyDefaults()
	c.Storage.ApplyDefaults()
	c.Retry.ApplyDefaults()
	if c.Supabase.URL != "" {
		c.Supabase.ApplyDefaults()
	}
}

func (c *AppConfig) Validate() error {
	var errs []error
	if err := c.ServiceConfig.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Supabase.URL != "" {
		if err := c.Supabase.Validate(); err != nil {
			errs = append(errs, err)
		}
	} else if err := c.API.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Storage.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// loadConfig reads adminctl configuration. Logs go to stderr so command
// output stays machine-readable.
func loadConfig(configFile, envFile string) (*AppConfig, error) {
	cfg := &AppConfig{}
	err := config.LoadConfig(serviceName, cfg,
		config.WithConfigFile(configFile),
		config.WithEnvFile(envFile),
		config.WithDefault("api.base_url", "/api"),
		config.WithDefault("logging.output", "stderr"),
		config.WithDefault("retry.max_attempts", 3),
	)
	if err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
