// Package settings persists named string settings and per-role directory
// histories in a flat key/value file, and parses them into typed
// configuration on read.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/svartholm/hostback/internal/models"
)

// Setting keys used by the orchestrators.
const (
	KeySourceDir        = "source_dir"
	KeyBackupDir        = "backup_dir"
	KeyExcludeDirs      = "exclude_dirs"
	KeyCompressionLevel = "compression_level"
	KeyKeepTemp         = "keep_temp"
	KeyLastBackupDir    = "last_backup_dir"
	KeyLastBackup       = "last_backup"
	KeyRestoreDir       = "restore_dir"
	KeyBackupFile       = "backup_file"
)

const historySuffix = "_history"

// Store is the durable settings store. It is created on first access and
// safe to call repeatedly within one interactive session; concurrent
// multi-process access is not supported.
type Store struct {
	v    *viper.Viper
	path string
}

// Open loads the settings file at path, creating an empty store if the file
// does not exist yet.
func Open(path string) (*Store, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading settings file: %w", err)
		}
	}

	return &Store{v: v, path: path}, nil
}

// Get returns the value stored under key, or def if the key is absent or
// empty.
func (s *Store) Get(key, def string) string {
	val := s.v.GetString(key)
	if val == "" {
		return def
	}
	return val
}

// Set persists value under key, creating it if new and overwriting if
// present. Writing the same key/value twice leaves exactly one entry.
func (s *Store) Set(key, value string) error {
	s.v.Set(key, value)
	return s.save()
}

// AppendHistory adds dir to the role's directory history unless it is
// already present. Histories only grow, and never hold duplicates.
func (s *Store) AppendHistory(role, dir string) error {
	if dir == "" {
		return nil
	}

	history := s.History(role)
	for _, known := range history {
		if known == dir {
			return nil
		}
	}

	history = append(history, dir)
	s.v.Set(role+historySuffix, strings.Join(history, ":"))
	return s.save()
}

// History returns the role's recorded directories in insertion order.
func (s *Store) History(role string) []string {
	raw := s.v.GetString(role + historySuffix)
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ":")
}

// Path returns the settings file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("writing settings file: %w", err)
	}
	return nil
}

// LoadBackupConfig parses the stored settings into a typed backup
// configuration, applying defaults and validating ranges.
func (s *Store) LoadBackupConfig() (*models.BackupConfig, error) {
	cfg := &models.BackupConfig{
		SourceDir:     s.Get(KeySourceDir, ""),
		BackupDir:     s.Get(KeyBackupDir, ""),
		LastBackupDir: s.Get(KeyLastBackupDir, ""),
		LastBackup:    s.Get(KeyLastBackup, ""),
	}

	if raw := s.Get(KeyExcludeDirs, ""); raw != "" {
		for _, dir := range strings.Split(raw, ":") {
			if dir != "" {
				cfg.ExcludeDirs = append(cfg.ExcludeDirs, dir)
			}
		}
	}

	level := s.v.GetInt(KeyCompressionLevel)
	if s.Get(KeyCompressionLevel, "") == "" {
		level = 9
	}
	if level < 1 || level > 9 {
		return nil, fmt.Errorf("compression_level must be between 1 and 9, got %q", s.Get(KeyCompressionLevel, ""))
	}
	cfg.CompressionLevel = level

	switch s.Get(KeyKeepTemp, "0") {
	case "0":
		cfg.KeepTemp = false
	case "1":
		cfg.KeepTemp = true
	default:
		return nil, fmt.Errorf("keep_temp must be 0 or 1, got %q", s.Get(KeyKeepTemp, ""))
	}

	return cfg, nil
}

// LoadRestoreConfig parses the stored settings into a typed restore
// configuration. An explicitly configured backup_file takes precedence over
// the last recorded archive.
func (s *Store) LoadRestoreConfig() (*models.RestoreConfig, error) {
	cfg := &models.RestoreConfig{
		BackupFile: s.Get(KeyBackupFile, s.Get(KeyLastBackup, "")),
		RestoreDir: s.Get(KeyRestoreDir, "/"),
	}
	return cfg, nil
}
