package config

import (
	"errors"
	"testing"

	"github.com/textdup/sitescore/internal/domain"
)

func validConfig() Config {
	cfg := Config{}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected Port=8080, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 30 {
		t.Errorf("expected WriteTimeoutSec=30, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Fetch.TimeoutSec != 15 {
		t.Errorf("expected Fetch.TimeoutSec=15, got %d", cfg.Fetch.TimeoutSec)
	}
	if cfg.Fetch.Workers != 8 {
		t.Errorf("expected Fetch.Workers=8, got %d", cfg.Fetch.Workers)
	}
	if cfg.Fetch.MaxBodyBytes != 5<<20 {
		t.Errorf("expected Fetch.MaxBodyBytes=%d, got %d", 5<<20, cfg.Fetch.MaxBodyBytes)
	}
	if cfg.Score.Policy != "overlap-ratio" {
		t.Errorf("expected Policy=overlap-ratio, got %q", cfg.Score.Policy)
	}
	if cfg.Score.MinMatch != 4 {
		t.Errorf("expected MinMatch=4, got %d", cfg.Score.MinMatch)
	}
	if cfg.Cache.Driver != "memory" {
		t.Errorf("expected Cache.Driver=memory, got %q", cfg.Cache.Driver)
	}
	if cfg.Cache.TTLSec != 3600 {
		t.Errorf("expected Cache.TTLSec=3600, got %d", cfg.Cache.TTLSec)
	}
	if cfg.Output.Format != "csv" {
		t.Errorf("expected Output.Format=csv, got %q", cfg.Output.Format)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:  HTTPConfig{Port: 9000, ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Fetch: FetchConfig{TimeoutSec: 5, Workers: 2, MaxBodyBytes: 1 << 20, UserAgent: "custom/2.0"},
		Score: ScoreConfig{Policy: "max-pairwise", MinMatch: 8},
		Cache: CacheConfig{Driver: "none", TTLSec: 60},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 9000 {
		t.Errorf("expected Port=9000, got %d", cfg.HTTP.Port)
	}
	if cfg.Fetch.Workers != 2 {
		t.Errorf("expected Workers=2, got %d", cfg.Fetch.Workers)
	}
	if cfg.Fetch.UserAgent != "custom/2.0" {
		t.Errorf("expected UserAgent=custom/2.0, got %q", cfg.Fetch.UserAgent)
	}
	if cfg.Score.Policy != "max-pairwise" {
		t.Errorf("expected Policy=max-pairwise, got %q", cfg.Score.Policy)
	}
	if cfg.Cache.Driver != "none" {
		t.Errorf("expected Driver=none, got %q", cfg.Cache.Driver)
	}
	if cfg.Cache.TTLSec != 60 {
		t.Errorf("expected TTLSec=60, got %d", cfg.Cache.TTLSec)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 70000

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
	var ce *domain.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *domain.ConfigError, got %T", err)
	}
	if ce.Field != "http.port" {
		t.Errorf("expected field http.port, got %q", ce.Field)
	}
}

func TestValidate_InvalidWorkers(t *testing.T) {
	cfg := validConfig()
	cfg.Fetch.Workers = -3

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for negative workers")
	}
	var ce *domain.ConfigError
	if !errors.As(err, &ce) || ce.Field != "fetch.workers" {
		t.Errorf("expected ConfigError on fetch.workers, got %v", err)
	}
}

func TestValidate_InvalidMinMatch(t *testing.T) {
	cfg := validConfig()
	cfg.Score.MinMatch = -1

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative min_match")
	}
}

func TestValidate_UnknownCacheDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.Driver = "memcached"

	err := cfg.Validate()
	var ce *domain.ConfigError
	if !errors.As(err, &ce) || ce.Field != "cache.driver" {
		t.Errorf("expected ConfigError on cache.driver, got %v", err)
	}
}

func TestValidate_RedisNeedsAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.Driver = "redis"

	err := cfg.Validate()
	var ce *domain.ConfigError
	if !errors.As(err, &ce) || ce.Field != "cache.addrs" {
		t.Errorf("expected ConfigError on cache.addrs, got %v", err)
	}

	cfg.Cache.Addrs = []string{"localhost:6379"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error with addrs set: %v", err)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("SITESCORE_TEST_KEY", "s3cret")

	in := []byte("api_keys: [\"${SITESCORE_TEST_KEY}\"]\nuser_agent: \"${SITESCORE_TEST_UA:-sitescore/1.0}\"\n")
	out := string(expandEnvVars(in))

	if want := "api_keys: [\"s3cret\"]\nuser_agent: \"sitescore/1.0\"\n"; out != want {
		t.Errorf("expandEnvVars:\ngot:  %q\nwant: %q", out, want)
	}
}
