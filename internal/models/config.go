// Package models contains the data structures used throughout hostback.
package models

// BackupConfig holds the validated configuration for one backup run.
type BackupConfig struct {
	SourceDir        string
	BackupDir        string
	ExcludeDirs      []string // configured excludes, already split
	CompressionLevel int      // 1-9, 9 = maximum
	KeepTemp         bool     // keep the staging directory after success
	LastBackupDir    string   // previous staging tree, "" if none recorded
	LastBackup       string   // previous archive, "" if none recorded
}

// RestoreConfig holds the validated configuration for one restore run.
type RestoreConfig struct {
	BackupFile string // archive to restore from
	RestoreDir string // target tree, defaults to "/"
}

// StandardExcludes are filesystem pseudo-directories that are never copied:
// they are virtual, transient, or recursively dangerous to sync.
var StandardExcludes = []string{
	"/proc",
	"/tmp",
	"/sys",
	"/dev",
	"/run",
	"/mnt",
	"/media",
	"/lost+found",
}

// History roles for previously used directories.
const (
	HistorySource  = "source_dir"
	HistoryBackup  = "backup_dir"
	HistoryRestore = "restore_dir"
)
