package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChuLiYu/drone-dispatch/internal/report"
)

const singleProblem = "../parser/testdata/single.in"

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := BuildCLI()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestBuildCLI(t *testing.T) {
	cmd := BuildCLI()

	assert.NotNil(t, cmd, "BuildCLI should return a non-nil command")
	assert.Equal(t, "dispatch", cmd.Use, "Root command should be 'dispatch'")
	assert.Equal(t, "1.0.0", cmd.Version, "Version should be 1.0.0")

	// 檢查子命令
	commands := cmd.Commands()
	commandNames := make(map[string]bool)
	for _, c := range commands {
		commandNames[c.Name()] = true
	}

	assert.True(t, commandNames["solve"], "Should have 'solve' command")
	assert.True(t, commandNames["info"], "Should have 'info' command")
	assert.True(t, commandNames["serve"], "Should have 'serve' command")
	assert.True(t, commandNames["show"], "Should have 'show' command")

	// 檢查持久化標誌
	configFlag := cmd.PersistentFlags().Lookup("config")
	assert.NotNil(t, configFlag, "Should have --config flag")
	assert.Equal(t, "configs/default.yaml", configFlag.DefValue, "Default config path should be configs/default.yaml")
}

func TestBuildSolveCommand(t *testing.T) {
	cmd := buildSolveCommand()

	assert.Equal(t, "solve", cmd.Use, "Command should be 'solve'")
	assert.NotNil(t, cmd.RunE, "RunE function should be set")

	for _, name := range []string{"input", "strategy", "builder", "output"} {
		flag := cmd.Flags().Lookup(name)
		require.NotNil(t, flag, "Should have --%s flag", name)
		assert.Equal(t, name[:1], flag.Shorthand)
	}
	for _, name := range []string{"cooling", "seed", "summary", "remote"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "Should have --%s flag", name)
	}
}

func TestSolveRequiresInput(t *testing.T) {
	_, err := execute(t, "solve")
	assert.Error(t, err)
}

func TestSolveWritesCommandsAndSummary(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "submission.out")
	summary := filepath.Join(dir, "run.json")

	stdout, err := execute(t, "solve", "-i", singleProblem, "-s", "greedy", "--seed", "11", "-o", out, "--summary", summary)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "2\n0 L 0 0 3\n0 D 0 0 3\n", string(data))

	s, err := report.NewWriter().LoadSummary(summary)
	require.NoError(t, err)
	assert.Equal(t, "greedy", s.Strategy)
	assert.Equal(t, int64(11), s.Seed)
	assert.Equal(t, singleProblem, s.Problem)
	assert.Equal(t, 50.0, s.Fitness)

	assert.Contains(t, stdout, "Fitness:     50.00")
	assert.Contains(t, stdout, "Orders:      1/1 completed")

	stdout, err = execute(t, "show", summary, "--commands", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Verified:")

	require.NoError(t, os.WriteFile(out, []byte("0\n"), 0644))
	_, err = execute(t, "show", summary, "--commands", out)
	assert.ErrorIs(t, err, report.ErrChecksumMismatch)
}

func TestSolveToStdout(t *testing.T) {
	stdout, err := execute(t, "solve", "-i", singleProblem, "-s", "hill-climbing", "-b", "naive", "-o", "-")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.NotEmpty(t, lines)
	assert.Equal(t, "2", lines[0])
	assert.Len(t, lines, 3)
}

func TestSolveRejectsUnknownNames(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "solve", "-i", singleProblem, "-s", "tabu", "-o", filepath.Join(dir, "a.out"))
	assert.Error(t, err)

	_, err = execute(t, "solve", "-i", singleProblem, "--cooling", "cubic", "-o", filepath.Join(dir, "b.out"))
	assert.Error(t, err)
}

func TestSolveWithConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	out := filepath.Join(dir, "planned.out")
	require.NoError(t, os.WriteFile(cfgPath, []byte("search:\n  strategy: greedy\noutput:\n  commands: "+out+"\n"), 0644))

	_, err := execute(t, "-c", cfgPath, "solve", "-i", singleProblem)
	require.NoError(t, err)

	_, err = os.Stat(out)
	assert.NoError(t, err, "output path comes from the config file")
}

func TestInfo(t *testing.T) {
	stdout, err := execute(t, "info", "-i", singleProblem)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Grid:        10 x 10")
	assert.Contains(t, stdout, "Drones:      1 (payload 5)")
	assert.Contains(t, stdout, "Orders:      1 (3 units requested)")
	assert.Contains(t, stdout, "Depot:       (0,0)")
}

func TestShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, report.NewWriter().WriteSummary(path, report.Summary{
		RunID:      "run-xyz",
		Strategy:   "genetic",
		Builder:    "random",
		Seed:       3,
		Fitness:    42.5,
		Iterations: 10,
	}))

	stdout, err := execute(t, "show", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "run-xyz")
	assert.Contains(t, stdout, "genetic (builder random, seed 3)")
	assert.Contains(t, stdout, "10 iterations")

	_, err = execute(t, "show")
	assert.Error(t, err, "show takes exactly one argument")
}
