package main

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/svartholm/hostback/internal/models"
	"github.com/svartholm/hostback/internal/services/rsync"
	"github.com/svartholm/hostback/internal/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show the effective configuration",
	Long:  `Show the persisted settings and the values a backup run would use.`,
	RunE:  showSettings,
}

func showSettings(cmd *cobra.Command, args []string) error {
	store, err := settings.Open(settingsFile)
	if err != nil {
		log.Error().Err(err).Str("file", settingsFile).Msg("failed to load settings")
		return err
	}

	cfg, err := store.LoadBackupConfig()
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return err
	}
	restoreCfg, err := store.LoadRestoreConfig()
	if err != nil {
		return err
	}

	fmt.Printf("Settings file: %s\n", store.Path())
	fmt.Println()
	fmt.Println("Backup:")
	fmt.Printf("  Source directory: %s\n", orUnset(cfg.SourceDir))
	fmt.Printf("  Destination directory: %s\n", orUnset(cfg.BackupDir))
	fmt.Printf("  Compression level: %d\n", cfg.CompressionLevel)
	fmt.Printf("  Keep staging directory: %v\n", cfg.KeepTemp)
	fmt.Printf("  Exclusions: %s\n", strings.Join(rsync.ExclusionList(cfg.ExcludeDirs), " "))
	fmt.Println()
	fmt.Println("Incremental chain:")
	fmt.Printf("  Last staging tree: %s\n", orUnset(cfg.LastBackupDir))
	fmt.Printf("  Last archive: %s\n", orUnset(cfg.LastBackup))
	fmt.Println()
	fmt.Println("Restore:")
	fmt.Printf("  Archive: %s\n", orUnset(restoreCfg.BackupFile))
	fmt.Printf("  Target: %s\n", restoreCfg.RestoreDir)

	for _, role := range []string{models.HistorySource, models.HistoryBackup, models.HistoryRestore} {
		if history := store.History(role); len(history) > 0 {
			fmt.Println()
			fmt.Printf("%s history:\n", role)
			for _, dir := range history {
				fmt.Printf("  %s\n", dir)
			}
		}
	}

	return nil
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
