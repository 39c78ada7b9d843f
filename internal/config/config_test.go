package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "annealing", cfg.Search.Strategy)
	assert.Equal(t, "greedy", cfg.Search.Builder)
}

func TestLoadMergesWithDefaults(t *testing.T) {
	path := writeConfig(t, `
search:
  strategy: genetic
  builder: random
  seed: 99
genetic:
  population: 12
worker:
  worker_count: 2
output:
  summary: run.json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "genetic", cfg.Search.Strategy)
	assert.Equal(t, int64(99), cfg.Search.Seed)
	assert.Equal(t, "random", cfg.Search.Builder)
	assert.Equal(t, 12, cfg.Genetic.Population)
	assert.Equal(t, 50, cfg.Genetic.Generations, "unset fields keep their default")
	assert.Equal(t, 2, cfg.Worker.WorkerCount)
	assert.Equal(t, "run.json", cfg.Output.Summary)
	assert.Equal(t, "submission.out", cfg.Output.Commands)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, "search:\n  strategy: genetic\n")
	t.Setenv("DISPATCH_STRATEGY", "hill-climbing")
	t.Setenv("DISPATCH_SEED", "123")
	t.Setenv("DISPATCH_WORKERS", "6")
	t.Setenv("DISPATCH_METRICS_PORT", "9191")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "hill-climbing", cfg.Search.Strategy)
	assert.Equal(t, int64(123), cfg.Search.Seed)
	assert.Equal(t, 6, cfg.Worker.WorkerCount)
	assert.Equal(t, 9191, cfg.Metrics.Port)
}

func TestLoadRejectsBadEnvironment(t *testing.T) {
	path := writeConfig(t, "")
	t.Setenv("DISPATCH_WORKERS", "many")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "an explicitly named file must exist")
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "search: [unclosed")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown strategy", func(c *Config) { c.Search.Strategy = "tabu" }},
		{"unknown builder", func(c *Config) { c.Search.Builder = "tree" }},
		{"unknown cooling", func(c *Config) { c.Annealing.Cooling = "cubic" }},
		{"zero temperature", func(c *Config) { c.Annealing.InitialTemp = 0 }},
		{"no restarts", func(c *Config) { c.Annealing.Restarts = 0 }},
		{"empty population", func(c *Config) { c.Genetic.Population = 0 }},
		{"crossover above one", func(c *Config) { c.Genetic.CrossoverRate = 1.5 }},
		{"negative mutation", func(c *Config) { c.Genetic.MutationRate = -0.1 }},
		{"no workers", func(c *Config) { c.Worker.WorkerCount = 0 }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestGet(t *testing.T) {
	t.Setenv("DISPATCH_TEST_KEY", "value")

	assert.Equal(t, "value", Get("DISPATCH_TEST_KEY", "fallback"))
	assert.Equal(t, "fallback", Get("DISPATCH_TEST_UNSET_KEY", "fallback"))
}
