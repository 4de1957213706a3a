package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile      = ".env"
	defaultPort         = "8080"
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 15 * time.Second
	defaultIdleTimeout  = 60 * time.Second
	defaultContentDir   = "site"
	defaultLandingPath  = "/accademico"
	defaultLanguage     = "en"
	defaultLanguages    = "en,it"
	defaultCacheTTL     = 5 * time.Minute
	defaultFetchTimeout = 5 * time.Second
	defaultEnvironment  = "local"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server  ServerConfig
	Content ContentConfig
	Site    SiteConfig
	Env     string
	Dev     bool
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Addr returns the listen address for the configured port.
func (s ServerConfig) Addr() string {
	return ":" + s.Port
}

// ContentConfig locates the content tree (data documents, dictionaries, markdown).
// When BaseURL is set content is fetched over HTTP instead of from Dir.
type ContentConfig struct {
	Dir          string
	BaseURL      string
	CacheTTL     time.Duration
	FetchTimeout time.Duration
}

// SiteConfig holds routing and language settings.
type SiteConfig struct {
	LandingPath     string
	DefaultLanguage string
	Languages       []string
}

// Supports reports whether lang is one of the configured languages.
func (s SiteConfig) Supports(lang string) bool {
	for _, l := range s.Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the configuration by combining defaults, .env overrides and
// environment variables.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	// Cloud Run style PORT is honoured when SITE_PORT is unset.
	port := stringWithDefault(lookup, "PORT", defaultPort)
	port = stringWithDefault(lookup, "SITE_PORT", port)

	cfg := Config{
		Server: ServerConfig{
			Port:         port,
			ReadTimeout:  durationWithDefault(lookup, "SITE_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "SITE_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "SITE_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Content: ContentConfig{
			Dir:          stringWithDefault(lookup, "SITE_CONTENT_DIR", defaultContentDir),
			BaseURL:      strings.TrimRight(stringWithDefault(lookup, "SITE_CONTENT_URL", ""), "/"),
			CacheTTL:     durationWithDefault(lookup, "SITE_CACHE_TTL", defaultCacheTTL),
			FetchTimeout: durationWithDefault(lookup, "SITE_FETCH_TIMEOUT", defaultFetchTimeout),
		},
		Site: SiteConfig{
			LandingPath:     stringWithDefault(lookup, "SITE_LANDING_PATH", defaultLandingPath),
			DefaultLanguage: strings.ToLower(stringWithDefault(lookup, "SITE_DEFAULT_LANG", defaultLanguage)),
			Languages:       csvWithDefault(lookup, "SITE_LANGUAGES", defaultLanguages),
		},
		Env: strings.ToLower(stringWithDefault(lookup, "SITE_ENV", defaultEnvironment)),
		Dev: boolWithDefault(lookup, "SITE_DEV", false),
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var invalid []string
	if strings.TrimSpace(cfg.Server.Port) == "" {
		invalid = append(invalid, "Server.Port")
	} else if _, err := strconv.Atoi(cfg.Server.Port); err != nil {
		invalid = append(invalid, "Server.Port")
	}
	if cfg.Content.BaseURL == "" && strings.TrimSpace(cfg.Content.Dir) == "" {
		invalid = append(invalid, "Content.Dir")
	}
	if cfg.Content.CacheTTL < 0 {
		invalid = append(invalid, "Content.CacheTTL")
	}
	if !strings.HasPrefix(cfg.Site.LandingPath, "/") {
		invalid = append(invalid, "Site.LandingPath")
	}
	if len(cfg.Site.Languages) == 0 {
		invalid = append(invalid, "Site.Languages")
	}
	if !cfg.Site.Supports(cfg.Site.DefaultLanguage) {
		invalid = append(invalid, "Site.DefaultLanguage")
	}
	if len(invalid) > 0 {
		return &ValidationError{fields: invalid}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}
		values[key] = strings.Trim(value, "\"'")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}

func csvWithDefault(lookup func(string) (string, bool), key, fallback string) []string {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		raw = fallback
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.ToLower(strings.TrimSpace(part))
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
