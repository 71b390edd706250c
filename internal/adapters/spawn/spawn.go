// Package spawn implements the process spawner: it runs a
// job's command line, redirects its stdout to a log file, and serializes
// console output and working-directory changes across concurrent jobs.
package spawn

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"minicargo/internal/core/domain"
	"minicargo/internal/core/ports"
)

const ansiRed = "\x1b[31m"
const ansiReset = "\x1b[0m"

// consoleMu serializes the "> argv…" status line and the red failure
// diagnostic across concurrent worker goroutines: console output is
// serialized by a process-wide mutex.
var consoleMu sync.Mutex

// cwdMu is held for the whole child run of every spawn that sets a working
// directory, so such spawns run one at a time. The directory is applied
// through exec.Cmd.Dir; the caller's own working directory never changes.
var cwdMu sync.Mutex

// spawnCount counts completed spawns for the MINICARGO_RUN_ONCE/MINICARGO_RUNONCE
// diagnostic abort.
var spawnCount atomic.Int64

// Spawner implements ports.Spawner using os/exec.
type Spawner struct {
	logger ports.Logger
}

// New creates a new Spawner.
func New(logger ports.Logger) *Spawner {
	return &Spawner{logger: logger}
}

// Spawn runs spec's command line, redirecting child stdout to spec.LogPath
// and inheriting the caller's stderr. It returns true iff the child exited
// with status zero.
func (s *Spawner) Spawn(ctx context.Context, spec domain.SpawnSpec) (bool, error) {
	if len(spec.Argv) == 0 {
		return false, fmt.Errorf("spawn: empty argv")
	}

	if spec.LogPath != "" {
		if err := os.MkdirAll(filepath.Dir(spec.LogPath), 0o755); err != nil {
			return false, fmt.Errorf("spawn: create log dir: %w", err)
		}
	}

	consoleMu.Lock()
	fmt.Println("> " + strings.Join(spec.Argv, " "))
	consoleMu.Unlock()

	if os.Getenv("MINICARGO_DUMPENV") != "" {
		consoleMu.Lock()
		for _, kv := range spec.Env {
			fmt.Println(kv)
		}
		consoleMu.Unlock()
	}

	cmd := exec.CommandContext(ctx, spec.Argv[0], spec.Argv[1:]...) //nolint:gosec // caller-assembled argv

	if spec.WorkingDir != "" {
		cwdMu.Lock()
		cmd.Dir = spec.WorkingDir
		defer cwdMu.Unlock()
	}

	cmd.Env = append(append([]string{}, os.Environ()...), spec.Env...)
	cmd.Stderr = os.Stderr

	var logFile *os.File
	if spec.LogPath != "" {
		f, err := os.Create(spec.LogPath)
		if err != nil {
			return false, fmt.Errorf("spawn: open log file: %w", err)
		}
		logFile = f
		defer logFile.Close()
		cmd.Stdout = logFile
	}

	runErr := cmd.Run()

	n := spawnCount.Add(1)
	if os.Getenv("MINICARGO_RUN_ONCE") != "" || os.Getenv("MINICARGO_RUNONCE") != "" {
		if n >= 1 {
			s.logger.Warn("MINICARGO_RUN_ONCE set, aborting after first spawn")
			os.Exit(1)
		}
	}

	if runErr == nil {
		return true, nil
	}

	consoleMu.Lock()
	fmt.Fprintf(os.Stderr, "%sFAILED: %s%s\n", ansiRed, strings.Join(spec.Argv, " "), ansiReset)
	consoleMu.Unlock()

	var exitErr *exec.ExitError
	if ok := isExitError(runErr, &exitErr); ok {
		return false, nil
	}
	return false, fmt.Errorf("spawn: %w", runErr)
}

func isExitError(err error, target **exec.ExitError) bool {
	ee, ok := err.(*exec.ExitError)
	if ok {
		*target = ee
	}
	return ok
}
