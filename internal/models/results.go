package models

import "time"

// SyncResult holds the result of one rsync invocation.
type SyncResult struct {
	ExitCode int
	Linked   bool // true if --link-dest against the previous staging tree was used
	Duration time.Duration
	Error    error
}

// ArchiveResult holds the result of a tar create/list/extract invocation.
type ArchiveResult struct {
	ExitCode int
	Duration time.Duration
	Error    error
}

// VerifyResult holds the result of an archive smoke test.
type VerifyResult struct {
	Passed   bool
	Reason   string // set when Passed is false
	Duration time.Duration
}
