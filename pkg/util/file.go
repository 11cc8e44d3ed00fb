package util

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// CopyFileAtomic copies a file atomically, preserving permissions
func CopyFileAtomic(src, dst string) error {
	// Get source file info
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat source: %w", err)
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer srcFile.Close()

	return writeAtomic(dst, srcInfo.Mode(), func(w io.Writer) error {
		_, err := io.Copy(w, srcFile)
		return err
	})
}

// WriteFileAtomic writes the output of fn to path through a temp file and rename.
// An existing file keeps its permissions; a new one gets perm.
func WriteFileAtomic(path string, perm os.FileMode, fn func(w io.Writer) error) error {
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode()
	}
	return writeAtomic(path, perm, fn)
}

func writeAtomic(dst string, perm os.FileMode, fn func(w io.Writer) error) error {
	// Create temp file in destination directory
	tmpFile, err := os.CreateTemp(filepath.Dir(dst), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Cleanup temp file on error
	success := false
	defer func() {
		if !success {
			tmpFile.Close()
			os.Remove(tmpPath)
		}
	}()

	if err := fn(tmpFile); err != nil {
		return fmt.Errorf("failed to write contents: %w", err)
	}

	// Sync to disk
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, dst); err != nil {
		return fmt.Errorf("failed to rename: %w", err)
	}

	success = true
	return nil
}

// GenerateUniqueID generates a unique ID for snapshots and transactions
// Format: YYYYMMDD-HHMMSS-mmm-RRRR
// Where mmm = milliseconds, RRRR = random hex suffix
func GenerateUniqueID() string {
	now := time.Now()
	timestamp := now.Format("20060102-150405")
	ms := now.UnixMilli() % 1000

	randBytes := make([]byte, 2)
	if _, err := rand.Read(randBytes); err != nil {
		// Fallback to timestamp-only if crypto/rand fails
		return fmt.Sprintf("%s-%03d-fallback", timestamp, ms)
	}

	return fmt.Sprintf("%s-%03d-%x", timestamp, ms, randBytes)
}

// FileExists reports whether path exists and is a regular file
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// DirExists reports whether path exists and is a directory
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
