package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunID identifies a single backup or restore attempt. It is captured once
// at the start of a run and used for the staging directory name, the archive
// name and log correlation, so two rapid runs cannot collide.
type RunID struct {
	Timestamp time.Time
	Suffix    string
}

// NewRunID captures a run identifier from the current clock.
func NewRunID() RunID {
	return RunID{
		Timestamp: time.Now(),
		Suffix:    uuid.NewString()[:8],
	}
}

// String renders the identifier as used in file names.
func (r RunID) String() string {
	return fmt.Sprintf("%s_%s", r.Timestamp.Format("2006-01-02_15-04-05"), r.Suffix)
}

// StagingDirName is the name of the staging directory under the destination.
func (r RunID) StagingDirName() string {
	return "staging_" + r.String()
}

// ArchiveName is the name of the compressed archive at the destination.
func (r RunID) ArchiveName() string {
	return fmt.Sprintf("system_backup_%s.tar.xz", r.String())
}
