package supabase

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/entadmin/adminkit/apiclient"
	"github.com/entadmin/adminkit/logger"
	"github.com/entadmin/adminkit/util"
)

const (
	HeaderAPIKey = "apikey"
	HeaderPrefer = "Prefer"

	// PreferRepresentation asks the REST API to echo written rows.
	PreferRepresentation = "return=representation"

	RestPath    = "/rest/v1"
	AuthPath    = "/auth/v1"
	StoragePath = "/storage/v1"

	DefaultTimeout = 10 * time.Second
)

// Config identifies a project and its keys.
type Config struct {
	URL string `yaml:"url" mapstructure:"url"`

	// AnonKey is the public key sent as apikey on user-facing calls.
	AnonKey string `yaml:"anon_key" mapstructure:"anon_key"`

	// ServiceKey bypasses row-level security. Only tooling should set it.
	ServiceKey string `yaml:"service_key" mapstructure:"service_key"`

	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	c.URL = strings.TrimRight(c.URL, "/")
}

func (c *Config) Validate() error {
	var errs []error
	if c.URL == "" {
		errs = append(errs, errors.New("url is required"))
	}
	if c.AnonKey == "" && c.ServiceKey == "" {
		errs = append(errs, errors.New("anon_key or service_key is required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("supabase: invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Project hands out clients bound to one project.
type Project struct {
	cfg Config
	log *logger.Logger
}

// New validates cfg and returns a Project.
func New(cfg Config, log *logger.Logger) (*Project, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log != nil {
		log = log.WithComponent("supabase")
	} else {
		log = logger.Component("supabase")
	}
	return &Project{cfg: cfg, log: log}, nil
}

// URL returns the project URL without a trailing slash.
func (p *Project) URL() string { return p.cfg.URL }

// Rest returns a client for the REST data API. Writes echo the stored rows.
func (p *Project) Rest() (*apiclient.Client, error) {
	c, err := p.client(RestPath, p.apiKey(), map[string]string{HeaderPrefer: PreferRepresentation})
	if err != nil {
		return nil, err
	}
	if p.cfg.ServiceKey != "" {
		c.SetAuthToken(p.cfg.ServiceKey)
	}
	return c, nil
}

// AuthErrorKeys are the body keys the auth API uses for error messages.
var AuthErrorKeys = []string{"message", "msg", "error_description", "error"}

// Auth returns a client for the auth API. It always uses the anon key when
// one is configured.
func (p *Project) Auth() (*apiclient.Client, error) {
	return p.client(AuthPath, p.apiKey(), nil, apiclient.WithErrorKeys(AuthErrorKeys...))
}

// Storage returns a client for the storage API authorised with the service
// key.
func (p *Project) Storage() (*apiclient.Client, error) {
	if p.cfg.ServiceKey == "" {
		return nil, errors.New("supabase: storage requires service_key")
	}
	c, err := p.client(StoragePath, p.cfg.ServiceKey, nil)
	if err != nil {
		return nil, err
	}
	c.SetAuthToken(p.cfg.ServiceKey)
	return c, nil
}

func (p *Project) apiKey() string {
	if p.cfg.AnonKey != "" {
		return p.cfg.AnonKey
	}
	return p.cfg.ServiceKey
}

func (p *Project) client(path, key string, extra map[string]string, opts ...apiclient.Option) (*apiclient.Client, error) {
	headers := map[string]string{
		apiclient.HeaderContentType: apiclient.ContentTypeJSON,
		HeaderAPIKey:                key,
	}
	for k, v := range extra {
		headers[k] = v
	}
	p.log.Debug("creating client", logger.Fields(logger.FieldURL, p.cfg.URL+path, "apikey", util.MaskSecret(key, 6)))
	return apiclient.New(apiclient.Config{
		BaseURL: p.cfg.URL + path,
		Timeout: p.cfg.Timeout,
		Headers: headers,
	}, append([]apiclient.Option{apiclient.WithLogger(p.log)}, opts...)...)
}
