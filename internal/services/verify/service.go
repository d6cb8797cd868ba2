// Package verify smoke-tests a finished archive: it confirms the table of
// contents is readable and that a small probe set can actually be
// extracted. It is deliberately not a full checksum pass, which would be
// too costly to run synchronously after every multi-gigabyte backup.
package verify

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/svartholm/hostback/internal/models"
	"github.com/svartholm/hostback/internal/services/archive"
)

// probeSet is the fixed set of files that exists near the root of any
// Linux filesystem tree, used to test extractability without a full
// extraction.
var probeSet = []string{"./etc/hostname", "./etc/os-release"}

// Failure reasons surfaced to the operator.
const (
	ReasonCorrupted     = "archive is corrupted"
	ReasonUnextractable = "could not extract test files"
)

// Service defines the interface for archive verification.
type Service interface {
	Verify(ctx context.Context, archivePath string) (*models.VerifyResult, error)
}

// Impl implements the Service interface.
type Impl struct {
	archive  archive.Service
	logger   zerolog.Logger
	tempRoot string // "" means the system temp area
}

// New creates a new verifier.
func New(logger zerolog.Logger, archiveSvc archive.Service) *Impl {
	return &Impl{archive: archiveSvc, logger: logger}
}

// NewWithTempRoot creates a verifier whose probe directories live under
// tempRoot (for testing).
func NewWithTempRoot(logger zerolog.Logger, archiveSvc archive.Service, tempRoot string) *Impl {
	return &Impl{archive: archiveSvc, logger: logger, tempRoot: tempRoot}
}

// Verify returns a passed result only if the archive lists cleanly and the
// probe set extracts. The probe directory is removed whether or not
// verification succeeds.
func (s *Impl) Verify(ctx context.Context, archivePath string) (*models.VerifyResult, error) {
	start := time.Now()

	s.logger.Info().Str("archive", archivePath).Msg("verifying archive")

	listResult, err := s.archive.List(ctx, archivePath)
	if err != nil {
		return nil, err
	}
	if listResult.ExitCode != 0 {
		s.logger.Error().Int("exit_code", listResult.ExitCode).Msg(ReasonCorrupted)
		return &models.VerifyResult{Reason: ReasonCorrupted, Duration: time.Since(start)}, nil
	}

	probeDir, err := os.MkdirTemp(s.tempRoot, "hostback-verify-")
	if err != nil {
		return nil, fmt.Errorf("creating probe directory: %w", err)
	}
	defer os.RemoveAll(probeDir)

	extractResult, err := s.archive.Extract(ctx, archivePath, probeDir, probeSet...)
	if err != nil {
		return nil, err
	}
	if extractResult.ExitCode != 0 {
		s.logger.Error().Int("exit_code", extractResult.ExitCode).Msg(ReasonUnextractable)
		return &models.VerifyResult{Reason: ReasonUnextractable, Duration: time.Since(start)}, nil
	}

	result := &models.VerifyResult{Passed: true, Duration: time.Since(start)}
	s.logger.Info().Dur("duration", result.Duration).Msg("archive verified")
	return result, nil
}
