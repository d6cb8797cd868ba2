// Package archive drives the external archiving tool (tar with xz
// compression).
package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/svartholm/hostback/internal/models"
	"github.com/svartholm/hostback/internal/services/executor"
)

// Service defines the interface for archive operations.
type Service interface {
	// Create compresses the contents of sourceDir into a single archive
	// at archivePath, using xz at the given level (1-9, 9 = maximum).
	Create(ctx context.Context, archivePath, sourceDir string, level int) (*models.ArchiveResult, error)
	// List reads the archive's table of contents, discarding it; only the
	// exit code matters.
	List(ctx context.Context, archivePath string) (*models.ArchiveResult, error)
	// Extract unpacks the archive into targetDir. With members given,
	// only those paths are extracted.
	Extract(ctx context.Context, archivePath, targetDir string, members ...string) (*models.ArchiveResult, error)
}

// Impl implements the Service interface.
type Impl struct {
	exec   executor.Service
	logger zerolog.Logger
}

// New creates a new archive service.
func New(logger zerolog.Logger, exec executor.Service) *Impl {
	return &Impl{exec: exec, logger: logger}
}

// Create runs tar with an xz compressor at the configured level.
func (s *Impl) Create(ctx context.Context, archivePath, sourceDir string, level int) (*models.ArchiveResult, error) {
	start := time.Now()

	s.logger.Info().
		Str("archive", archivePath).
		Str("source", sourceDir).
		Int("level", level).
		Msg("creating archive")

	args := []string{
		"-I", fmt.Sprintf("xz -%d", level),
		"-cf", archivePath,
		"-C", sourceDir,
		".",
	}

	code, err := s.exec.Run(ctx, "tar", args...)
	if err != nil {
		return nil, err
	}

	result := &models.ArchiveResult{ExitCode: code, Duration: time.Since(start)}

	s.logger.Info().
		Int("exit_code", code).
		Dur("duration", result.Duration).
		Msg("archive creation finished")

	return result, nil
}

// List checks that the archive's table of contents is readable. tar
// detects the xz compression on its own.
func (s *Impl) List(ctx context.Context, archivePath string) (*models.ArchiveResult, error) {
	start := time.Now()

	code, err := s.exec.RunQuiet(ctx, "tar", "-tf", archivePath)
	if err != nil {
		return nil, err
	}

	return &models.ArchiveResult{ExitCode: code, Duration: time.Since(start)}, nil
}

// Extract unpacks the archive (or the named members) into targetDir.
func (s *Impl) Extract(ctx context.Context, archivePath, targetDir string, members ...string) (*models.ArchiveResult, error) {
	start := time.Now()

	s.logger.Info().
		Str("archive", archivePath).
		Str("target", targetDir).
		Int("members", len(members)).
		Msg("extracting archive")

	args := []string{"-xf", archivePath, "-C", targetDir}
	args = append(args, members...)

	code, err := s.exec.Run(ctx, "tar", args...)
	if err != nil {
		return nil, err
	}

	result := &models.ArchiveResult{ExitCode: code, Duration: time.Since(start)}

	s.logger.Info().
		Int("exit_code", code).
		Dur("duration", result.Duration).
		Msg("extraction finished")

	return result, nil
}
