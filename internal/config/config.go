package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/textdup/sitescore/internal/domain"
)

// Config holds the sitescore configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Score     ScoreConfig     `yaml:"score"`
	Normalize NormalizeConfig `yaml:"normalize"`
	Cache     CacheConfig     `yaml:"cache"`
	Output    OutputConfig    `yaml:"output"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings for serve mode.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds serve mode HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// FetchConfig holds fetch pipeline settings.
type FetchConfig struct {
	TimeoutSec   int    `yaml:"timeout_sec"`
	Workers      int    `yaml:"workers"`
	MaxBodyBytes int64  `yaml:"max_body_bytes"`
	UserAgent    string `yaml:"user_agent"`
}

// ScoreConfig holds scoring settings.
type ScoreConfig struct {
	Policy   string `yaml:"policy"`    // max-pairwise, mean-pairwise, overlap-ratio
	MinMatch int    `yaml:"min_match"` // shortest match overlap-ratio counts
}

// NormalizeConfig holds text extraction settings. The landmarks trim
// extracted text to the content between them when both are present.
type NormalizeConfig struct {
	CutAfter  string `yaml:"cut_after"`
	CutBefore string `yaml:"cut_before"`
}

// CacheConfig holds fetch cache settings.
type CacheConfig struct {
	Driver           string   `yaml:"driver"` // memory, redis, none (default: memory)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	TTLSec           int      `yaml:"ttl_sec"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// OutputConfig holds report output settings for batch mode.
type OutputConfig struct {
	Format string `yaml:"format"` // csv, json (default: csv)
	Path   string `yaml:"path"`   // empty writes to stdout
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Fetch.TimeoutSec <= 0 {
		c.Fetch.TimeoutSec = 15
	}
	if c.Fetch.Workers == 0 {
		c.Fetch.Workers = 8
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		c.Fetch.MaxBodyBytes = 5 << 20
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = "sitescore/1.0"
	}
	if c.Score.Policy == "" {
		c.Score.Policy = "overlap-ratio"
	}
	if c.Score.MinMatch == 0 {
		c.Score.MinMatch = 4
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "memory"
	}
	if c.Cache.TTLSec == 0 {
		c.Cache.TTLSec = 3600
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Output.Format == "" {
		c.Output.Format = "csv"
	}
}

// Validate checks the configuration for correctness. Policy and format
// names are validated where they are parsed, at wiring time.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return domain.NewConfigError("http.port",
			fmt.Sprintf("must be between 1 and 65535, got %d", c.HTTP.Port))
	}
	if c.Fetch.Workers < 1 {
		return domain.NewConfigError("fetch.workers",
			fmt.Sprintf("must be at least 1, got %d", c.Fetch.Workers))
	}
	if c.Score.MinMatch < 1 {
		return domain.NewConfigError("score.min_match",
			fmt.Sprintf("must be at least 1, got %d", c.Score.MinMatch))
	}
	if c.Cache.TTLSec < 0 {
		return domain.NewConfigError("cache.ttl_sec", "must not be negative")
	}
	switch c.Cache.Driver {
	case "memory", "none":
		// ok
	case "redis":
		if len(c.Cache.Addrs) == 0 {
			return domain.NewConfigError("cache.addrs", "required for the redis driver")
		}
	default:
		return domain.NewConfigError("cache.driver",
			fmt.Sprintf("must be memory, redis or none, got %q", c.Cache.Driver))
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
