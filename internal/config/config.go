// Package config loads server settings from defaults, an optional YAML file,
// an optional .env file and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// DefaultSecret is used when no JWT secret is configured. It exists so a
// fresh checkout runs; deployments must override it.
const DefaultSecret = "storyhub-dev-secret-change-me"

const (
	PolicyOwner         = "owner"
	PolicyAuthenticated = "authenticated"
)

type LogConfig struct {
	Level string `yaml:"level"`
	Dev   bool   `yaml:"dev"`
}

type Config struct {
	Addr            string        `yaml:"addr"`
	DatabasePath    string        `yaml:"database_path"`
	UploadDir       string        `yaml:"upload_dir"`
	UploadMaxBytes  int64         `yaml:"upload_max_bytes"`
	JWTSecret       string        `yaml:"jwt_secret"`
	TokenTTL        time.Duration `yaml:"token_ttl"`
	OwnershipPolicy string        `yaml:"ownership_policy"`
	AdminEmail      string        `yaml:"admin_email"`
	AdminPassword   string        `yaml:"admin_password"`
	SeedFile        string        `yaml:"seed_file"`
	Log             LogConfig     `yaml:"log"`
}

func Defaults() *Config {
	return &Config{
		Addr:            ":8080",
		DatabasePath:    "./data/storyhub.db",
		UploadDir:       "./uploads",
		UploadMaxBytes:  5 << 20,
		TokenTTL:        6 * time.Hour,
		OwnershipPolicy: PolicyOwner,
		SeedFile:        "./data/stories.json",
		Log:             LogConfig{Level: "info"},
	}
}

// Load builds a Config. A missing YAML file or .env file is not an error.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	// best effort: real environment still wins over .env
	_ = godotenv.Load()

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup("PORT"); ok && v != "" {
		c.Addr = ":" + v
	}
	str("DATABASE_PATH", &c.DatabasePath)
	str("UPLOAD_DIR", &c.UploadDir)
	str("JWT_SECRET", &c.JWTSecret)
	str("OWNERSHIP_POLICY", &c.OwnershipPolicy)
	str("ADMIN_EMAIL", &c.AdminEmail)
	str("ADMIN_PASSWORD", &c.AdminPassword)
	str("SEED_FILE", &c.SeedFile)
	str("LOG_LEVEL", &c.Log.Level)

	if v, ok := lookup("LOG_DEV"); ok {
		c.Log.Dev = v == "1" || v == "true"
	}
	if v, ok := lookup("TOKEN_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TOKEN_TTL: %w", err)
		}
		c.TokenTTL = d
	}
	if v, ok := lookup("UPLOAD_MAX_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("UPLOAD_MAX_BYTES: %w", err)
		}
		c.UploadMaxBytes = n
	}

	if c.JWTSecret == "" {
		c.JWTSecret = DefaultSecret
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.OwnershipPolicy {
	case PolicyOwner, PolicyAuthenticated:
	default:
		return fmt.Errorf("unknown ownership_policy %q (want %q or %q)", c.OwnershipPolicy, PolicyOwner, PolicyAuthenticated)
	}
	if c.TokenTTL <= 0 {
		return errors.New("token_ttl must be positive")
	}
	if c.UploadMaxBytes <= 0 {
		return errors.New("upload_max_bytes must be positive")
	}
	if c.JWTSecret == "" {
		return errors.New("jwt_secret is empty")
	}
	return nil
}

// UsingDefaultSecret reports whether tokens are signed with DefaultSecret.
func (c *Config) UsingDefaultSecret() bool {
	return c.JWTSecret == DefaultSecret
}
