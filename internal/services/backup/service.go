// Package backup drives the backup state machine: validate, sync,
// compress, link to the previous run, verify, report, clean up.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/svartholm/hostback/internal/fscheck"
	"github.com/svartholm/hostback/internal/models"
	"github.com/svartholm/hostback/internal/services/archive"
	"github.com/svartholm/hostback/internal/services/executor"
	"github.com/svartholm/hostback/internal/services/rsync"
	"github.com/svartholm/hostback/internal/services/verify"
	"github.com/svartholm/hostback/internal/settings"
)

// SettingsStore is the slice of the settings store the orchestrator needs.
type SettingsStore interface {
	LoadBackupConfig() (*models.BackupConfig, error)
	Set(key, value string) error
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

// Service defines the interface for the backup orchestrator.
type Service interface {
	// Run executes one backup attempt. It returns plain success or
	// failure; all detail goes to the log and the error ledger.
	Run(ctx context.Context) bool
}

// Impl implements the Service interface.
type Impl struct {
	settings  SettingsStore
	errors    ErrorRecorder
	sink      LogSink
	syncSvc   rsync.Service
	archSvc   archive.Service
	verifySvc verify.Service
	logger    zerolog.Logger
}

// New creates a backup orchestrator wired to the real external tools.
func New(logger zerolog.Logger, sink LogSink, store *settings.Store, errors ErrorRecorder) *Impl {
	exec := executor.New(logger, sink)
	archSvc := archive.New(logger, exec)
	return &Impl{
		settings:  store,
		errors:    errors,
		sink:      sink,
		syncSvc:   rsync.New(logger, exec),
		archSvc:   archSvc,
		verifySvc: verify.New(logger, archSvc),
		logger:    logger,
	}
}

// NewWithServices creates a backup orchestrator with custom collaborators
// (for testing).
func NewWithServices(
	logger zerolog.Logger,
	sink LogSink,
	store SettingsStore,
	errors ErrorRecorder,
	syncSvc rsync.Service,
	archSvc archive.Service,
	verifySvc verify.Service,
) *Impl {
	return &Impl{
		settings:  store,
		errors:    errors,
		sink:      sink,
		syncSvc:   syncSvc,
		archSvc:   archSvc,
		verifySvc: verifySvc,
		logger:    logger,
	}
}

// Run executes the full backup state machine. Steps are strictly
// sequential and nothing is retried; any external-tool failure ends the
// run.
func (s *Impl) Run(ctx context.Context) bool {
	start := time.Now()

	// Validating.
	cfg, err := s.settings.LoadBackupConfig()
	if err != nil {
		return s.fail(fmt.Sprintf("invalid configuration: %v", err))
	}
	if cfg.SourceDir == "" || cfg.BackupDir == "" {
		return s.fail("source or destination directory not configured")
	}
	if err := fscheck.ReadableDir(cfg.SourceDir); err != nil {
		return s.fail(fmt.Sprintf("source directory %s: %v", cfg.SourceDir, err))
	}
	if err := fscheck.WritableDir(cfg.BackupDir); err != nil {
		return s.fail(fmt.Sprintf("destination directory %s: %v", cfg.BackupDir, err))
	}

	if err := s.settings.AppendHistory(models.HistorySource, cfg.SourceDir); err != nil {
		s.logger.Warn().Err(err).Msg("could not record source directory history")
	}
	if err := s.settings.AppendHistory(models.HistoryBackup, cfg.BackupDir); err != nil {
		s.logger.Warn().Err(err).Msg("could not record destination directory history")
	}

	run := models.NewRunID()
	stagingDir := filepath.Join(cfg.BackupDir, run.StagingDirName())
	archivePath := filepath.Join(cfg.BackupDir, run.ArchiveName())

	s.logger.Info().
		Str("run", run.String()).
		Str("source", cfg.SourceDir).
		Str("staging", stagingDir).
		Msg("starting backup")
	s.sink.WriteLine(fmt.Sprintf("backup %s: started, source %s, destination %s",
		run, cfg.SourceDir, cfg.BackupDir))

	// Syncing.
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return s.fail(fmt.Sprintf("could not create staging directory %s: %v", stagingDir, err))
	}

	linkDest := ""
	if cfg.LastBackupDir != "" {
		if info, err := os.Stat(cfg.LastBackupDir); err == nil && info.IsDir() {
			linkDest = cfg.LastBackupDir
			s.logger.Info().Str("link_dest", linkDest).Msg("previous staging tree found, running incremental sync")
		} else {
			s.logger.Info().Str("link_dest", cfg.LastBackupDir).Msg("previous staging tree gone, running full sync")
		}
	}

	syncResult, err := s.syncSvc.Sync(ctx, rsync.Options{
		Source:   cfg.SourceDir,
		Dest:     stagingDir,
		Excludes: cfg.ExcludeDirs,
		LinkDest: linkDest,
	})
	if err != nil {
		s.removeStaging(stagingDir)
		return s.fail(fmt.Sprintf("sync did not run: %v", err))
	}
	if syncResult.ExitCode != 0 {
		s.removeStaging(stagingDir)
		return s.fail(fmt.Sprintf("sync failed with exit code %d", syncResult.ExitCode))
	}
	s.sink.WriteLine(fmt.Sprintf("backup %s: sync completed in %s", run, syncResult.Duration.Round(time.Second)))

	// Compressing.
	archResult, err := s.archSvc.Create(ctx, archivePath, stagingDir, cfg.CompressionLevel)
	if err != nil {
		s.removeStaging(stagingDir)
		return s.fail(fmt.Sprintf("compression did not run: %v", err))
	}
	if archResult.ExitCode != 0 {
		s.removeStaging(stagingDir)
		return s.fail(fmt.Sprintf("compression failed with exit code %d", archResult.ExitCode))
	}
	s.sink.WriteLine(fmt.Sprintf("backup %s: archive created at %s", run, archivePath))

	// Persist the chain pointers before verification, so a later
	// verification failure does not break the next incremental run.
	if err := s.settings.Set(settings.KeyLastBackupDir, stagingDir); err != nil {
		return s.fail(fmt.Sprintf("could not record staging directory: %v", err))
	}
	if err := s.settings.Set(settings.KeyLastBackup, archivePath); err != nil {
		return s.fail(fmt.Sprintf("could not record archive path: %v", err))
	}

	// Verifying.
	verifyResult, err := s.verifySvc.Verify(ctx, archivePath)
	if err != nil {
		s.sink.WriteLine(fmt.Sprintf("backup %s: temporary files preserved at %s for troubleshooting", run, stagingDir))
		return s.fail(fmt.Sprintf("verification did not run: %v", err))
	}
	if !verifyResult.Passed {
		// Keep the staging tree and the archive for manual inspection.
		s.sink.WriteLine(fmt.Sprintf("backup %s: temporary files preserved at %s for troubleshooting", run, stagingDir))
		return s.fail(fmt.Sprintf("verification failed: %s", verifyResult.Reason))
	}

	// Reporting. Informational only, cannot fail the run.
	if info, err := os.Stat(archivePath); err == nil {
		s.logger.Info().
			Str("archive", archivePath).
			Str("size", humanize.Bytes(uint64(info.Size()))).
			Msg("backup archive ready")
		s.sink.WriteLine(fmt.Sprintf("backup %s: archive %s (%s)", run, archivePath, humanize.Bytes(uint64(info.Size()))))
	} else {
		s.logger.Warn().Err(err).Msg("could not stat archive for report")
	}

	// CleaningUp.
	if cfg.KeepTemp {
		s.logger.Info().Str("staging", stagingDir).Msg("keep_temp set, staging directory preserved")
		s.sink.WriteLine(fmt.Sprintf("backup %s: staging directory preserved at %s", run, stagingDir))
	} else {
		s.removeStaging(stagingDir)
	}
	s.logResources(cfg.BackupDir)

	s.logger.Info().Dur("duration", time.Since(start)).Msg("backup completed")
	s.sink.WriteLine(fmt.Sprintf("backup %s: completed in %s", run, time.Since(start).Round(time.Second)))
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

func (s *Impl) removeStaging(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		s.logger.Warn().Err(err).Str("staging", dir).Msg("could not remove staging directory")
	}
}

// logResources writes an informational disk-space snapshot for the
// destination filesystem.
func (s *Impl) logResources(dir string) {
	var stat unix.Statfs_t
	if err := unix.Statfs(dir, &stat); err != nil {
		return
	}
	free := stat.Bavail * uint64(stat.Bsize)
	total := stat.Blocks * uint64(stat.Bsize)
	s.logger.Info().
		Str("free", humanize.Bytes(free)).
		Str("total", humanize.Bytes(total)).
		Msg("destination filesystem")
	s.sink.WriteLine(fmt.Sprintf("destination filesystem: %s free of %s", humanize.Bytes(free), humanize.Bytes(total)))
}
