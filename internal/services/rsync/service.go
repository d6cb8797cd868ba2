// Package rsync drives the external file-synchronization tool.
package rsync

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/svartholm/hostback/internal/models"
	"github.com/svartholm/hostback/internal/services/executor"
)

// archiveFlags is the archive-preserving flag set: permissions, ownership,
// timestamps, ACLs, extended attributes and hard links.
var archiveFlags = []string{"-aAXH", "--numeric-ids", "--delete"}

// Options describes one sync invocation.
type Options struct {
	Source   string
	Dest     string
	Excludes []string // configured excludes; the standard set is always added
	LinkDest string   // previous staging tree for hard-link reuse, "" for a full sync
}

// Service defines the interface for sync operations.
type Service interface {
	Sync(ctx context.Context, opts Options) (*models.SyncResult, error)
}

// Impl implements the Service interface.
type Impl struct {
	exec   executor.Service
	logger zerolog.Logger
}

// New creates a new rsync service.
func New(logger zerolog.Logger, exec executor.Service) *Impl {
	return &Impl{exec: exec, logger: logger}
}

// BuildArgs assembles the rsync argument vector: archive-preserving flags,
// the de-duplicated exclusion list, the optional link-dest base, then
// source (contents, not the directory itself) and destination.
func BuildArgs(opts Options) []string {
	args := append([]string{}, archiveFlags...)

	for _, dir := range ExclusionList(opts.Excludes) {
		args = append(args, "--exclude="+dir)
	}

	if opts.LinkDest != "" {
		args = append(args, "--link-dest="+opts.LinkDest)
	}

	source := opts.Source
	if source != "" && source[len(source)-1] != '/' {
		source += "/"
	}

	return append(args, source, opts.Dest)
}

// ExclusionList merges configured excludes with the standard pseudo-dir set,
// dropping duplicates while keeping order.
func ExclusionList(configured []string) []string {
	seen := make(map[string]bool, len(configured)+len(models.StandardExcludes))
	var merged []string
	for _, dir := range append(append([]string{}, configured...), models.StandardExcludes...) {
		if dir == "" || seen[dir] {
			continue
		}
		seen[dir] = true
		merged = append(merged, dir)
	}
	return merged
}

// Sync runs rsync and reports its exit code. The run blocks until rsync
// exits; output is streamed to the log sink by the executor.
func (s *Impl) Sync(ctx context.Context, opts Options) (*models.SyncResult, error) {
	start := time.Now()
	args := BuildArgs(opts)

	s.logger.Info().
		Str("source", opts.Source).
		Str("dest", opts.Dest).
		Bool("incremental", opts.LinkDest != "").
		Msg("starting sync")

	code, err := s.exec.Run(ctx, "rsync", args...)
	if err != nil {
		return nil, err
	}

	result := &models.SyncResult{
		ExitCode: code,
		Linked:   opts.LinkDest != "",
		Duration: time.Since(start),
	}

	s.logger.Info().
		Int("exit_code", code).
		Dur("duration", result.Duration).
		Msg("sync finished")

	return result, nil
}
