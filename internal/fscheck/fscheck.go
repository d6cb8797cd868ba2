// Package fscheck holds the directory permission checks shared by the
// backup and restore orchestrators.
package fscheck

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// ReadableDir verifies that path is an existing, readable directory.
func ReadableDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("does not exist")
	}
	if !info.IsDir() {
		return fmt.Errorf("is not a directory")
	}
	if err := unix.Access(path, unix.R_OK|unix.X_OK); err != nil {
		return fmt.Errorf("is not readable")
	}
	return nil
}

// WritableDir verifies that path is an existing, writable directory.
func WritableDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("does not exist")
	}
	if !info.IsDir() {
		return fmt.Errorf("is not a directory")
	}
	if err := unix.Access(path, unix.W_OK|unix.X_OK); err != nil {
		return fmt.Errorf("is not writable")
	}
	return nil
}
