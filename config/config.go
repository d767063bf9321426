package config

import (
	"errors"
	"os"
	"regexp"
	"time"

	"github.com/pelletier/go-toml"
)

const (
	DefaultListenAddress = "0.0.0.0:8545"
	DefaultDataDir       = "data"

	DefaultTimeoutSeconds         = 30
	DefaultRetryAttempts          = 3
	DefaultRetryDelaySeconds      = 5
	DefaultWorkers                = 5
	DefaultRefreshIntervalMinutes = 60
	DefaultConsolidatorMonths     = 1

	DefaultCacheTTLSeconds = 300
)

var (
	ErrInvalidListenAddress = errors.New("invalid listen address")
	ErrInvalidDataDir       = errors.New("invalid data directory")
	ErrInvalidScrapeConfig  = errors.New("invalid scrape configuration")
	ErrInvalidCacheConfig   = errors.New("invalid cache configuration")
)

var listenAddressRegex = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}:\d+$`)

// Config defines the base-level service configuration
type Config struct {
	// The associated CORS config, if any
	CORSConfig *CORS `toml:"cors_config"`

	// The scrape cycle configuration
	Scrape *Scrape `toml:"scrape"`

	// The aggregate cache configuration
	Cache *Cache `toml:"cache"`

	// The address at which the server will be served.
	// Format should be: <IP>:<PORT>
	ListenAddress string `toml:"listen_address"`

	// The directory holding the current aggregate and its history
	DataDir string `toml:"data_dir"`
}

// CORS defines the server CORS policy
type CORS struct {
	AllowedOrigins []string `toml:"allowed_origins"`
	AllowedMethods []string `toml:"allowed_methods"`
	AllowedHeaders []string `toml:"allowed_headers"`
}

// Scrape defines the scrape cycle and fetch discipline
type Scrape struct {
	// Rotated per request. Empty means the built-in list
	UserAgents []string `toml:"user_agents"`

	TimeoutSeconds         int `toml:"timeout_seconds"`
	RetryAttempts          int `toml:"retry_attempts"`
	RetryDelaySeconds      int `toml:"retry_delay_seconds"`
	Workers                int `toml:"workers"`
	RefreshIntervalMinutes int `toml:"refresh_interval_minutes"`
	ConsolidatorMonths     int `toml:"consolidator_months"`

	// Minimum interval between requests to the same host (0 disables pacing)
	HostIntervalMillis int `toml:"host_interval_millis"`

	InsecureSkipVerify bool `toml:"insecure_skip_verify"`
}

// Cache defines the aggregate cache
type Cache struct {
	TTLSeconds int `toml:"ttl_seconds"`
}

// DefaultConfig returns the default service configuration
func DefaultConfig() *Config {
	return &Config{
		ListenAddress: DefaultListenAddress,
		DataDir:       DefaultDataDir,
		CORSConfig:    DefaultCORSConfig(),
		Scrape:        DefaultScrapeConfig(),
		Cache:         DefaultCacheConfig(),
	}
}

// DefaultCORSConfig returns the default (permissive, read-mostly) CORS policy
func DefaultCORSConfig() *CORS {
	return &CORS{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}
}

// DefaultScrapeConfig returns the default scrape configuration
func DefaultScrapeConfig() *Scrape {
	return &Scrape{
		TimeoutSeconds:         DefaultTimeoutSeconds,
		RetryAttempts:          DefaultRetryAttempts,
		RetryDelaySeconds:      DefaultRetryDelaySeconds,
		Workers:                DefaultWorkers,
		RefreshIntervalMinutes: DefaultRefreshIntervalMinutes,
		ConsolidatorMonths:     DefaultConsolidatorMonths,
	}
}

// DefaultCacheConfig returns the default cache configuration
func DefaultCacheConfig() *Cache {
	return &Cache{
		TTLSeconds: DefaultCacheTTLSeconds,
	}
}

func (s *Scrape) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

func (s *Scrape) RetryDelay() time.Duration {
	return time.Duration(s.RetryDelaySeconds) * time.Second
}

func (s *Scrape) RefreshInterval() time.Duration {
	return time.Duration(s.RefreshIntervalMinutes) * time.Minute
}

func (s *Scrape) HostInterval() time.Duration {
	return time.Duration(s.HostIntervalMillis) * time.Millisecond
}

func (c *Cache) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// ValidateConfig validates the service configuration
func ValidateConfig(config *Config) error {
	// Validate the listen address
	if !listenAddressRegex.MatchString(config.ListenAddress) {
		return ErrInvalidListenAddress
	}

	if config.DataDir == "" {
		return ErrInvalidDataDir
	}

	if s := config.Scrape; s == nil ||
		s.TimeoutSeconds <= 0 ||
		s.RetryAttempts <= 0 ||
		s.RetryDelaySeconds < 0 ||
		s.Workers <= 0 ||
		s.RefreshIntervalMinutes <= 0 ||
		s.ConsolidatorMonths <= 0 ||
		s.HostIntervalMillis < 0 {
		return ErrInvalidScrapeConfig
	}

	if config.Cache == nil || config.Cache.TTLSeconds <= 0 {
		return ErrInvalidCacheConfig
	}

	return nil
}

// Read reads the configuration from the given path.
// Keys missing from the file keep their default values
func Read(path string) (*Config, error) {
	// Read the config file
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Parse it
	var cfg Config

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// applyDefaults fills in the unset values
func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.ListenAddress == "" {
		cfg.ListenAddress = defaults.ListenAddress
	}

	if cfg.DataDir == "" {
		cfg.DataDir = defaults.DataDir
	}

	if cfg.Scrape == nil {
		cfg.Scrape = defaults.Scrape
	} else {
		s := cfg.Scrape

		setDefault(&s.TimeoutSeconds, DefaultTimeoutSeconds)
		setDefault(&s.RetryAttempts, DefaultRetryAttempts)
		setDefault(&s.Workers, DefaultWorkers)
		setDefault(&s.RefreshIntervalMinutes, DefaultRefreshIntervalMinutes)
		setDefault(&s.ConsolidatorMonths, DefaultConsolidatorMonths)
	}

	if cfg.Cache == nil {
		cfg.Cache = defaults.Cache
	} else {
		setDefault(&cfg.Cache.TTLSeconds, DefaultCacheTTLSeconds)
	}
}

func setDefault(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}
