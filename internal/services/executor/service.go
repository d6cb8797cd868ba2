// Package executor invokes external commands and streams their output.
package executor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// LogSink receives every output line as the child process produces it. The
// UI relies on live progress, so lines are forwarded immediately rather
// than buffered to the end.
type LogSink interface {
	WriteLine(line string)
}

// Service defines the interface for running external commands. The returned
// int is the child's own exit code, which orchestrators branch on; err is
// only set when the command could not be started at all.
type Service interface {
	Run(ctx context.Context, name string, args ...string) (int, error)
	// RunQuiet discards the command's output instead of forwarding it to
	// the log sink. Used where the output is bulk data (archive listings)
	// rather than progress.
	RunQuiet(ctx context.Context, name string, args ...string) (int, error)
}

// Impl implements the Service interface using os/exec.
type Impl struct {
	sink   LogSink
	logger zerolog.Logger
}

// New creates a new executor service.
func New(logger zerolog.Logger, sink LogSink) *Impl {
	return &Impl{sink: sink, logger: logger}
}

// Run starts the command, forwards each stdout/stderr line to the log sink
// as it appears, and blocks until the child exits. No retries happen at
// this layer.
func (s *Impl) Run(ctx context.Context, name string, args ...string) (int, error) {
	return s.run(ctx, s.sink, name, args...)
}

// RunQuiet runs the command with its output discarded.
func (s *Impl) RunQuiet(ctx context.Context, name string, args ...string) (int, error) {
	return s.run(ctx, nil, name, args...)
}

func (s *Impl) run(ctx context.Context, sink LogSink, name string, args ...string) (int, error) {
	s.logger.Debug().Str("command", name).Strs("args", args).Msg("running external command")

	cmd := exec.CommandContext(ctx, name, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return -1, fmt.Errorf("attaching stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return -1, fmt.Errorf("attaching stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return -1, fmt.Errorf("starting %s: %w", name, err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go s.stream(&wg, sink, stdout, name)
	go s.stream(&wg, sink, stderr, name)
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return -1, fmt.Errorf("waiting for %s: %w", name, err)
	}

	return 0, nil
}

func (s *Impl) stream(wg *sync.WaitGroup, sink LogSink, r io.Reader, name string) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if sink != nil {
			sink.WriteLine(fmt.Sprintf("[%s] %s", name, line))
			s.logger.Debug().Str("command", name).Msg(line)
		}
	}
}

// CheckTools verifies that every named external tool is on PATH, returning
// an error that lists the missing ones.
func CheckTools(names ...string) error {
	var missing []string
	for _, name := range names {
		if _, err := exec.LookPath(name); err != nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required external tools not found: %s", strings.Join(missing, ", "))
	}
	return nil
}
