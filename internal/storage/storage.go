// Package storage wraps the few filesystem primitives the service
// needs around its download root.
package storage

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// FreeBytes returns the free space available to unprivileged writers
// on the filesystem containing dir.
func FreeBytes(dir string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(dir, &st); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", dir, err)
	}
	return uint64(st.Bavail) * uint64(st.Bsize), nil
}

// EnsureDir creates dir if it does not exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create storage root %s: %w", dir, err)
	}
	return nil
}
