package report

// ============================================================================
// Responsibilities:
// 1. Write the command file of a finished schedule
// 2. Write a JSON run summary next to it
// 3. Use atomic writes (temp file + rename) so readers never see a partial file
// 4. Validate the schema version when a summary is loaded back
// ============================================================================

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ChuLiYu/drone-dispatch/internal/solution"
)

// ============================================================================
// Errors
// ============================================================================

var (
	ErrCorruptedSummary    = errors.New("summary file is corrupted")
	ErrIncompatibleVersion = errors.New("summary schema version is incompatible")
	ErrSummaryNotFound     = errors.New("summary file not found")
	ErrChecksumMismatch    = errors.New("command file does not match summary")
)

// SchemaVersion is the summary format written by this package.
const SchemaVersion = 1

// ============================================================================
// Data structures
// ============================================================================

// Summary describes one planner run.
type Summary struct {
	SchemaVer int    `json:"schema_ver"`
	RunID     string `json:"run_id"`
	Problem   string `json:"problem,omitempty"` // input path when known

	Strategy string `json:"strategy"`
	Builder  string `json:"builder"`
	Seed     int64  `json:"seed"`

	Score   float64 `json:"score"`
	Penalty int     `json:"penalty"`
	Fitness float64 `json:"fitness"`

	Actions         int    `json:"actions"`
	Checksum        uint32 `json:"checksum"` // CRC32-IEEE of the command file
	DronesUsed      int    `json:"drones_used"`
	Orders          int    `json:"orders"`
	CompletedOrders int    `json:"completed_orders"`
	DeadEnd         bool   `json:"dead_end"`

	Iterations   int `json:"iterations"`
	Accepted     int `json:"accepted"`
	Improvements int `json:"improvements"`

	ElapsedMs int64     `json:"elapsed_ms"`
	CreatedAt time.Time `json:"created_at"`
}

// Describe fills the schedule dependent fields of s from c.
func (s *Summary) Describe(c *solution.Chromosome) {
	c.Evaluate()
	s.Score = c.Score
	s.Penalty = c.Penalty
	s.Fitness = c.Fitness()
	commands := c.Commands()
	s.Actions = len(commands) - 1
	s.Checksum = Checksum(commands)
	s.DronesUsed = len(c.Drones)
	s.Orders = len(c.Problem().Orders)
	s.CompletedOrders = c.CompletedOrders()
}

// Checksum returns the CRC32-IEEE of the command file holding lines.
func Checksum(lines []string) uint32 {
	h := crc32.NewIEEE()
	for _, line := range lines {
		h.Write([]byte(line))
		h.Write([]byte{'\n'})
	}
	return h.Sum32()
}

// Writer persists run artifacts.
type Writer struct {
	mu sync.Mutex // serializes file operations
}

// NewWriter creates a Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// ============================================================================
// Core methods
// ============================================================================

// WriteCommands atomically writes the command file of c to path.
func (w *Writer) WriteCommands(path string, c *solution.Chromosome) error {
	var buf bytes.Buffer
	if err := c.WriteCommands(&buf); err != nil {
		return err
	}
	return w.writeAtomic(path, buf.Bytes())
}

// WriteLines atomically writes lines to path, one per line. It is used for
// command files received from a remote planner.
func (w *Writer) WriteLines(path string, lines []string) error {
	var buf bytes.Buffer
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return w.writeAtomic(path, buf.Bytes())
}

// WriteSummary atomically writes s to path as indented JSON. The schema
// version is always set to SchemaVersion.
func (w *Writer) WriteSummary(path string, s Summary) error {
	s.SchemaVer = SchemaVersion

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	return w.writeAtomic(path, data)
}

// LoadSummary reads a summary written by WriteSummary.
func (w *Writer) LoadSummary(path string) (Summary, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var s Summary
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, fmt.Errorf("%w: %s", ErrSummaryNotFound, path)
		}
		return s, fmt.Errorf("failed to read summary: %w", err)
	}

	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("%w: %v", ErrCorruptedSummary, err)
	}
	if s.SchemaVer != SchemaVersion {
		return s, fmt.Errorf("%w: got %d, want %d", ErrIncompatibleVersion, s.SchemaVer, SchemaVersion)
	}
	return s, nil
}

// VerifyCommands checks that the command file at path is the one s was
// written for.
func (w *Writer) VerifyCommands(path string, s Summary) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read command file: %w", err)
	}
	if got := crc32.ChecksumIEEE(data); got != s.Checksum {
		return fmt.Errorf("%w: checksum %08x, want %08x", ErrChecksumMismatch, got, s.Checksum)
	}
	return nil
}

// writeAtomic writes data to a temp file in the target directory and
// renames it over path.
func (w *Writer) writeAtomic(path string, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename %s: %w", tmpPath, err)
	}
	return nil
}
