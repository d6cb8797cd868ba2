package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/svartholm/hostback/internal/ledger"
	"github.com/svartholm/hostback/internal/logsink"
	"github.com/svartholm/hostback/internal/services/backup"
	"github.com/svartholm/hostback/internal/services/executor"
	"github.com/svartholm/hostback/internal/settings"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Run one backup",
	Long: `Run one backup using the persisted settings:
1. Validate source and destination directories
2. Sync the source into a fresh staging directory (hard-linked against
   the previous run's staging tree when it is still present)
3. Compress the staging tree into system_backup_<timestamp>.tar.xz
4. Verify the archive (table of contents plus probe extraction)
5. Report archive size and location
6. Remove the staging directory unless keep_temp is set`,
	RunE: runBackup,
}

func runBackup(cmd *cobra.Command, args []string) error {
	if err := executor.CheckTools("rsync", "tar", "xz"); err != nil {
		log.Error().Err(err).Msg("missing external tools")
		return err
	}

	store, err := settings.Open(settingsFile)
	if err != nil {
		log.Error().Err(err).Str("file", settingsFile).Msg("failed to load settings")
		return err
	}

	errorLedger := ledger.New(ledgerFile)
	if errorLedger.HasPending() {
		log.Warn().Str("ledger", ledgerFile).
			Msg("previous run left unresolved errors, run 'hostback errors' to review them")
	}

	sink := logsink.New(logFile)
	defer sink.Close()

	ctx, cancel := signalContext()
	defer cancel()

	svc := backup.New(log.Logger, sink, store, errorLedger)
	if !svc.Run(ctx) {
		return fmt.Errorf("backup failed, see %s and 'hostback errors'", logFile)
	}

	log.Info().Msg("backup completed successfully")
	return nil
}

// signalContext returns a context cancelled on SIGINT/SIGTERM. Cancellation
// kills any in-flight external process; the orchestrators then remove their
// partial staging or temp directories through the normal failure path.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Warn().Str("signal", sig.String()).Msg("received signal, shutting down")
		cancel()
	}()

	return ctx, cancel
}
