package main

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	// Version is set at build time.
	Version = "dev"

	// Configuration flags.
	settingsFile string
	ledgerFile   string
	logFile      string
	verbose      bool
	quiet        bool
	jsonOutput   bool
)

// Default locations for the durable state files.
const (
	defaultSettingsFile = "/etc/hostback/settings.yaml"
	defaultLedgerFile   = "/var/lib/hostback/errors.list"
	defaultLogFile      = "/var/log/hostback/hostback.log"
)

var rootCmd = &cobra.Command{
	Use:   "hostback",
	Short: "Full-filesystem backup and restore for a Linux host",
	Long: `hostback orchestrates full-filesystem backup and restore using
rsync and tar with xz compression:
  - incremental space savings by hard-linking against the previous run
  - archive verification after every backup
  - a persisted error ledger surfaced across sessions
  - an interactive menu and one-shot subcommands

Backups are staged with rsync in archive-preserving mode, compressed into
a single system_backup_<timestamp>.tar.xz, then smoke-tested.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
	SilenceUsage: true,
	Version:      Version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&settingsFile, "settings", defaultSettingsFile, "settings file")
	rootCmd.PersistentFlags().StringVar(&ledgerFile, "ledger", defaultLedgerFile, "error ledger file")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", defaultLogFile, "run log file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose (debug) output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "enable quiet mode (errors only)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output logs in JSON format")

	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(menuCmd)
	rootCmd.AddCommand(errorsCmd)
	rootCmd.AddCommand(settingsCmd)
}

func setupLogging() {
	// Set output format
	if jsonOutput {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
		output.NoColor = !term.IsTerminal(int(os.Stdout.Fd()))
		output.FormatLevel = func(i interface{}) string {
			if s, ok := i.(string); ok {
				return strings.ToUpper(s)
			}
			return ""
		}
		log.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set log level
	switch {
	case quiet:
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case verbose:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// silentLogger is used while the interactive menu owns the terminal.
func silentLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
