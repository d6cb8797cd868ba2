package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/svartholm/hostback/internal/ledger"
	"github.com/svartholm/hostback/internal/logsink"
	"github.com/svartholm/hostback/internal/services/executor"
	"github.com/svartholm/hostback/internal/services/restore"
	"github.com/svartholm/hostback/internal/settings"
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Run one restore",
	Long: `Restore the configured archive (backup_file, falling back to the
most recent backup) into the restore target:
1. Validate the archive path and the restore target
2. Extract the archive into a disposable temp directory
3. Sync the extracted tree into the target in archive-preserving mode
4. Remove the temp directory`,
	RunE: runRestore,
}

func runRestore(cmd *cobra.Command, args []string) error {
	if err := executor.CheckTools("rsync", "tar", "xz"); err != nil {
		log.Error().Err(err).Msg("missing external tools")
		return err
	}

	store, err := settings.Open(settingsFile)
	if err != nil {
		log.Error().Err(err).Str("file", settingsFile).Msg("failed to load settings")
		return err
	}

	sink := logsink.New(logFile)
	defer sink.Close()

	ctx, cancel := signalContext()
	defer cancel()

	svc := restore.New(log.Logger, sink, store, ledger.New(ledgerFile))
	if !svc.Run(ctx) {
		return fmt.Errorf("restore failed, see %s and 'hostback errors'", logFile)
	}

	log.Info().Msg("restore completed successfully")
	return nil
}
