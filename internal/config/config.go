// ============================================================================
// Drone Dispatch Configuration
// ============================================================================
//
// Package: internal/config
// File: config.go
// Purpose: Loads planner configuration from YAML with environment overrides
//
// Resolution order (later wins):
//   1. Built-in defaults (Default)
//   2. YAML file (default path: configs/default.yaml)
//   3. .env file in the working directory, if present
//   4. Process environment:
//        DISPATCH_STRATEGY      search.strategy
//        DISPATCH_BUILDER       search.builder
//        DISPATCH_SEED          search.seed
//        DISPATCH_WORKERS       worker.worker_count
//        DISPATCH_METRICS_PORT  metrics.port
//        DISPATCH_SERVER_PORT   server.port
//
// Fields missing from the YAML file keep their defaults.
//
// ============================================================================

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ChuLiYu/drone-dispatch/internal/search"
)

// DefaultPath is where the CLI looks for a configuration file.
const DefaultPath = "configs/default.yaml"

// Builder names accepted in search.builder.
var Builders = []string{"greedy", "random", "naive"}

// Config represents the complete planner configuration.
type Config struct {
	Search struct {
		Strategy string `yaml:"strategy"`
		Builder  string `yaml:"builder"`
		Seed     int64  `yaml:"seed"`
	} `yaml:"search"`

	HillClimbing struct {
		Iterations int `yaml:"iterations"`
	} `yaml:"hill_climbing"`

	Annealing struct {
		Iterations  int     `yaml:"iterations"`
		InitialTemp float64 `yaml:"initial_temp"`
		Cooling     string  `yaml:"cooling"`
		Restarts    int     `yaml:"restarts"`
	} `yaml:"annealing"`

	Genetic struct {
		Generations   int     `yaml:"generations"`
		Population    int     `yaml:"population"`
		Tournament    int     `yaml:"tournament"`
		CrossoverRate float64 `yaml:"crossover_rate"`
		MutationRate  float64 `yaml:"mutation_rate"`
	} `yaml:"genetic"`

	Worker struct {
		WorkerCount int `yaml:"worker_count"`
	} `yaml:"worker"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
		Port    int  `yaml:"port"`
	} `yaml:"metrics"`

	Server struct {
		Port    int `yaml:"port"`
		History int `yaml:"history"` // finished runs kept for the Runs call
	} `yaml:"server"`

	Output struct {
		Commands string `yaml:"commands"`
		Summary  string `yaml:"summary"`
	} `yaml:"output"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.Search.Strategy = search.StrategyAnnealing
	cfg.Search.Builder = "greedy"
	cfg.Search.Seed = 1

	cfg.HillClimbing.Iterations = 1000

	cfg.Annealing.Iterations = 1000
	cfg.Annealing.InitialTemp = 50
	cfg.Annealing.Cooling = "exponential"
	cfg.Annealing.Restarts = 3

	cfg.Genetic.Generations = 50
	cfg.Genetic.Population = 30
	cfg.Genetic.Tournament = 3
	cfg.Genetic.CrossoverRate = 0.9
	cfg.Genetic.MutationRate = 0.2

	cfg.Worker.WorkerCount = 4

	cfg.Metrics.Enabled = false
	cfg.Metrics.Port = 9090

	cfg.Server.Port = 50051
	cfg.Server.History = 32

	cfg.Output.Commands = "submission.out"
	return cfg
}

// Load reads path on top of the defaults and applies environment
// overrides. A missing file at the default path is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && path == DefaultPath:
		slog.Debug("config file not found, using defaults", "path", path)
	default:
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Search.Strategy = Get("DISPATCH_STRATEGY", c.Search.Strategy)
	c.Search.Builder = Get("DISPATCH_BUILDER", c.Search.Builder)

	ints := []struct {
		key string
		dst *int
	}{
		{"DISPATCH_WORKERS", &c.Worker.WorkerCount},
		{"DISPATCH_METRICS_PORT", &c.Metrics.Port},
		{"DISPATCH_SERVER_PORT", &c.Server.Port},
	}
	for _, v := range ints {
		raw, ok := os.LookupEnv(v.key)
		if !ok || raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("load config: %s: %w", v.key, err)
		}
		*v.dst = n
	}

	if raw := os.Getenv("DISPATCH_SEED"); raw != "" {
		seed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("load config: DISPATCH_SEED: %w", err)
		}
		c.Search.Seed = seed
	}
	return nil
}

// Validate rejects unknown names and out of range values.
func (c *Config) Validate() error {
	if !slices.Contains(search.Strategies, c.Search.Strategy) {
		return fmt.Errorf("invalid config: unknown strategy %q (available: %v)", c.Search.Strategy, search.Strategies)
	}
	if !slices.Contains(Builders, c.Search.Builder) {
		return fmt.Errorf("invalid config: unknown builder %q (available: %v)", c.Search.Builder, Builders)
	}
	if _, err := search.CoolingByName(c.Annealing.Cooling); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	checks := []struct {
		ok  bool
		msg string
	}{
		{c.HillClimbing.Iterations >= 0, "hill_climbing.iterations must not be negative"},
		{c.Annealing.Iterations >= 0, "annealing.iterations must not be negative"},
		{c.Annealing.InitialTemp > 0, "annealing.initial_temp must be positive"},
		{c.Annealing.Restarts >= 1, "annealing.restarts must be at least 1"},
		{c.Genetic.Generations >= 0, "genetic.generations must not be negative"},
		{c.Genetic.Population >= 1, "genetic.population must be at least 1"},
		{c.Genetic.Tournament >= 1, "genetic.tournament must be at least 1"},
		{c.Genetic.CrossoverRate >= 0 && c.Genetic.CrossoverRate <= 1, "genetic.crossover_rate must be in [0, 1]"},
		{c.Genetic.MutationRate >= 0 && c.Genetic.MutationRate <= 1, "genetic.mutation_rate must be in [0, 1]"},
		{c.Worker.WorkerCount >= 1, "worker.worker_count must be at least 1"},
		{c.Server.History >= 0, "server.history must not be negative"},
	}
	for _, chk := range checks {
		if !chk.ok {
			return fmt.Errorf("invalid config: %s", chk.msg)
		}
	}
	return nil
}

// Get returns the environment value of key, or fallback when unset.
func Get(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
