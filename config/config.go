// Package config loads server settings from an optional YAML file and the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Addr     string `yaml:"addr" validate:"required"`
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// Store selects the workflow store backend.
	Store       string `yaml:"store" validate:"oneof=memory sqlite postgres"`
	DatabaseURL string `yaml:"database_url" validate:"required_if=Store postgres"`
	SQLitePath  string `yaml:"sqlite_path" validate:"required_if=Store sqlite"`

	Simulation Simulation `yaml:"simulation"`
}

// Simulation configures the registration pipeline simulator.
type Simulation struct {
	ValidationDelay time.Duration `yaml:"validation_delay" validate:"gte=0"`
	BranchDelay     time.Duration `yaml:"branch_delay" validate:"gte=0"`
	EmailDelay      time.Duration `yaml:"email_delay" validate:"gte=0"`
	// Seed of the random user generator; 0 seeds from the clock.
	Seed uint64 `yaml:"seed"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Addr:     ":3000",
		LogLevel: "info",
		Store:    "memory",
		Simulation: Simulation{
			ValidationDelay: 400 * time.Millisecond,
			BranchDelay:     600 * time.Millisecond,
			EmailDelay:      700 * time.Millisecond,
		},
	}
}

var validate = validator.New()

// Load reads path (if non-empty), applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and reports every violation.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, formatFieldError(fe))
	}
	return fmt.Errorf("config: %s", strings.Join(msgs, "; "))
}

func formatFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must not be negative", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func applyEnv(cfg *Config) error {
	cfg.Addr = getEnv("ADDR", cfg.Addr)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.Store = getEnv("STORE", cfg.Store)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.SQLitePath = getEnv("SQLITE_PATH", cfg.SQLitePath)

	var err error
	if cfg.Simulation.ValidationDelay, err = getEnvDuration("SIM_DELAY_VALIDATION", cfg.Simulation.ValidationDelay); err != nil {
		return err
	}
	if cfg.Simulation.BranchDelay, err = getEnvDuration("SIM_DELAY_BRANCH", cfg.Simulation.BranchDelay); err != nil {
		return err
	}
	if cfg.Simulation.EmailDelay, err = getEnvDuration("SIM_DELAY_EMAIL", cfg.Simulation.EmailDelay); err != nil {
		return err
	}
	if v := os.Getenv("SIM_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: SIM_SEED: %w", err)
		}
		cfg.Simulation.Seed = seed
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}
