package storage

import (
	"errors"
	"fmt"
)

const (
	ProviderLocal    = "local"
	ProviderS3       = "s3"
	ProviderSupabase = "supabase"
)

const (
	DefaultProvider    = ProviderLocal
	DefaultBasePath    = "./data/uploads"
	DefaultRegion      = "us-east-1"
	DefaultBucket      = "uploads"
	DefaultMaxFileSize = int64(10 * 1024 * 1024)
)

// Config holds storage configuration for every provider. Fields that do not
// apply to the selected provider are ignored.
type Config struct {
	// Provider selects the backend: local, s3 or supabase.
	Provider string `yaml:"provider" mapstructure:"provider"`

	// BasePath is the root directory of the local provider.
	BasePath string `yaml:"base_path" mapstructure:"base_path"`

	// PublicURL, when set, is the URL prefix the local provider reports
	// instead of file:// URLs.
	PublicURL string `yaml:"public_url" mapstructure:"public_url"`

	Bucket    string `yaml:"bucket" mapstructure:"bucket"`
	Region    string `yaml:"region" mapstructure:"region"`
	Endpoint  string `yaml:"endpoint" mapstructure:"endpoint"`
	AccessKey string `yaml:"access_key" mapstructure:"access_key"`
	SecretKey string `yaml:"secret_key" mapstructure:"secret_key"`

	// ForcePathStyle selects path-style S3 addressing. Custom endpoints
	// always use it.
	ForcePathStyle bool `yaml:"force_path_style" mapstructure:"force_path_style"`

	// URL is the platform project URL used by the supabase provider.
	URL string `yaml:"url" mapstructure:"url"`

	// MaxFileSize caps uploads accepted by the domain services.
	MaxFileSize int64 `yaml:"max_file_size" mapstructure:"max_file_size"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.BasePath == "" {
		c.BasePath = DefaultBasePath
	}
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.Bucket == "" {
		c.Bucket = DefaultBucket
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = DefaultMaxFileSize
	}
}

// Validate checks the fields the selected provider needs.
func (c *Config) Validate() error {
	var errs []error
	switch c.Provider {
	case ProviderLocal:
		if c.BasePath == "" {
			errs = append(errs, errors.New("base_path is required"))
		}
	case ProviderS3:
		if c.Bucket == "" {
			errs = append(errs, errors.New("bucket is required"))
		}
		if c.Region == "" {
			errs = append(errs, errors.New("region is required"))
		}
	case ProviderSupabase:
		if c.URL == "" {
			errs = append(errs, errors.New("url is required"))
		}
		if c.Bucket == "" {
			errs = append(errs, errors.New("bucket is required"))
		}
		if c.SecretKey == "" {
			errs = append(errs, errors.New("secret_key is required"))
		}
	default:
		return fmt.Errorf("storage: unsupported provider %q", c.Provider)
	}
	if len(errs) > 0 {
		return fmt.Errorf("storage: invalid %s config: %w", c.Provider, errors.Join(errs...))
	}
	return nil
}
