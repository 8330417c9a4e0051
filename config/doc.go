// Package config loads service configuration from YAML files, .env files and
// the process environment using Viper.
//
//	var cfg AppConfig
//	if err := config.LoadConfig("adminctl", &cfg); err != nil { ... }
//	cfg.ApplyDefaults()
//
// Environment variables override file values. API_BASE_URL binds to
// api.base_url as well as api_base_url so nested and flat structs both work.
package config
