// Package restore drives the restore state machine: validate, extract the
// archive into a disposable temp tree, sync that tree into the target,
// clean up.
package restore

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/svartholm/hostback/internal/fscheck"
	"github.com/svartholm/hostback/internal/models"
	"github.com/svartholm/hostback/internal/services/archive"
	"github.com/svartholm/hostback/internal/services/executor"
	"github.com/svartholm/hostback/internal/services/rsync"
	"github.com/svartholm/hostback/internal/settings"
)

// SettingsStore is the slice of the settings store the orchestrator needs.
// Restore never reads or writes the incremental-link chain; that state
// belongs to backup alone.
type SettingsStore interface {
	LoadRestoreConfig() (*models.RestoreConfig, error)
	AppendHistory(role, dir string) error
}

// ErrorRecorder receives every failure for cross-run recovery.
type ErrorRecorder interface {
	Record(message string) error
}

// LogSink receives human-readable progress lines.
type LogSink interface {
	WriteLine(line string)
}

// Service defines the interface for the restore orchestrator.
type Service interface {
	Run(ctx context.Context) bool
}

// Impl implements the Service interface.
type Impl struct {
	settings SettingsStore
	errors   ErrorRecorder
	sink     LogSink
	syncSvc  rsync.Service
	archSvc  archive.Service
	logger   zerolog.Logger
	tempRoot string // "" means the system temp area
}

// New creates a restore orchestrator wired to the real external tools.
func New(logger zerolog.Logger, sink LogSink, store *settings.Store, errors ErrorRecorder) *Impl {
	exec := executor.New(logger, sink)
	return &Impl{
		settings: store,
		errors:   errors,
		sink:     sink,
		syncSvc:  rsync.New(logger, exec),
		archSvc:  archive.New(logger, exec),
		logger:   logger,
	}
}

// NewWithServices creates a restore orchestrator with custom collaborators
// (for testing).
func NewWithServices(
	logger zerolog.Logger,
	sink LogSink,
	store SettingsStore,
	errors ErrorRecorder,
	syncSvc rsync.Service,
	archSvc archive.Service,
	tempRoot string,
) *Impl {
	return &Impl{
		settings: store,
		errors:   errors,
		sink:     sink,
		syncSvc:  syncSvc,
		archSvc:  archSvc,
		logger:   logger,
		tempRoot: tempRoot,
	}
}

// Run executes the full restore state machine.
func (s *Impl) Run(ctx context.Context) bool {
	start := time.Now()

	// Validating.
	cfg, err := s.settings.LoadRestoreConfig()
	if err != nil {
		return s.fail(fmt.Sprintf("invalid configuration: %v", err))
	}
	if cfg.BackupFile == "" {
		return s.fail("no backup file configured")
	}
	if _, err := os.Stat(cfg.BackupFile); err != nil {
		return s.fail(fmt.Sprintf("backup file %s does not exist", cfg.BackupFile))
	}
	if err := fscheck.WritableDir(cfg.RestoreDir); err != nil {
		return s.fail(fmt.Sprintf("restore target %s: %v", cfg.RestoreDir, err))
	}

	if err := s.settings.AppendHistory(models.HistoryRestore, cfg.RestoreDir); err != nil {
		s.logger.Warn().Err(err).Msg("could not record restore directory history")
	}

	s.logger.Info().
		Str("archive", cfg.BackupFile).
		Str("target", cfg.RestoreDir).
		Msg("starting restore")
	s.sink.WriteLine(fmt.Sprintf("restore: started, archive %s, target %s", cfg.BackupFile, cfg.RestoreDir))

	// Extracting.
	tempDir, err := os.MkdirTemp(s.tempRoot, "hostback-restore-")
	if err != nil {
		return s.fail(fmt.Sprintf("could not create extraction directory: %v", err))
	}

	extractResult, err := s.archSvc.Extract(ctx, cfg.BackupFile, tempDir)
	if err != nil {
		s.removeTemp(tempDir)
		return s.fail(fmt.Sprintf("extraction did not run: %v", err))
	}
	if extractResult.ExitCode != 0 {
		s.removeTemp(tempDir)
		return s.fail(fmt.Sprintf("extraction failed with exit code %d", extractResult.ExitCode))
	}
	s.sink.WriteLine(fmt.Sprintf("restore: archive extracted in %s", extractResult.Duration.Round(time.Second)))

	// Syncing.
	syncResult, err := s.syncSvc.Sync(ctx, rsync.Options{Source: tempDir, Dest: cfg.RestoreDir})
	if err != nil {
		s.removeTemp(tempDir)
		return s.fail(fmt.Sprintf("sync did not run: %v", err))
	}
	if syncResult.ExitCode != 0 {
		s.removeTemp(tempDir)
		return s.fail(fmt.Sprintf("sync failed with exit code %d", syncResult.ExitCode))
	}

	// CleaningUp.
	s.removeTemp(tempDir)

	s.logger.Info().Dur("duration", time.Since(start)).Msg("restore completed")
	s.sink.WriteLine(fmt.Sprintf("restore: completed in %s", time.Since(start).Round(time.Second)))
	return true
}

func (s *Impl) fail(message string) bool {
	s.logger.Error().Msg(message)
	s.sink.WriteLine("ERROR: " + message)
	if err := s.errors.Record(message); err != nil {
		s.logger.Error().Err(err).Msg("could not record error to ledger")
	}
	return false
}

func (s *Impl) removeTemp(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		s.logger.Warn().Err(err).Str("temp", dir).Msg("could not remove extraction directory")
	}
}
