// Package snapshot keeps timestamped copies of ini files so a failed or
// unwanted change can be restored.
package snapshot

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/thesabbir/phpmanager/pkg/ini"
	"github.com/thesabbir/phpmanager/pkg/logger"
	"github.com/thesabbir/phpmanager/pkg/util"
	"github.com/thesabbir/phpmanager/pkg/version"
)

const (
	DefaultSnapshotDir = "/var/lib/phpmanager/snapshots"
	MetadataFile       = "metadata.json"

	// DefaultKeep is how many snapshots Create leaves behind when pruning
	DefaultKeep = 100
)

// File is one file captured in a snapshot
type File struct {
	Name     string `json:"name"`     // Name inside the snapshot directory
	Source   string `json:"source"`   // Path the file was copied from
	Checksum string `json:"checksum"` // SHA256 of the content
}

// Metadata contains information about a snapshot
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Files     []File    `json:"files"`
	ID        string    `json:"id"`      // Snapshot ID (timestamp-based)
	Version   string    `json:"version"` // phpmgr version that created this snapshot
}

// Snapshot represents a set of saved ini files
type Snapshot struct {
	ID       string
	Metadata Metadata
	Path     string
}

// Manager manages ini file snapshots
type Manager struct {
	snapshotDir string
	keep        int
}

// NewManager creates a new snapshot manager
func NewManager(snapshotDir string) *Manager {
	if snapshotDir == "" {
		snapshotDir = DefaultSnapshotDir
	}
	return &Manager{
		snapshotDir: snapshotDir,
		keep:        DefaultKeep,
	}
}

// SetKeep changes how many snapshots survive auto-pruning
func (m *Manager) SetKeep(keep int) {
	if keep > 0 {
		m.keep = keep
	}
}

// Create copies the given files into a new snapshot. Files that do not
// exist are skipped.
func (m *Manager) Create(message string, paths []string) (*Snapshot, error) {
	if err := os.MkdirAll(m.snapshotDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	// Generate unique snapshot ID (includes milliseconds + random suffix)
	id := util.GenerateUniqueID()
	snapshotPath := filepath.Join(m.snapshotDir, id)

	// Create specific snapshot directory with restricted permissions (owner only)
	if err := os.MkdirAll(snapshotPath, 0700); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	// Cleanup on error - remove partial snapshot
	success := false
	defer func() {
		if !success {
			os.RemoveAll(snapshotPath)
		}
	}()

	files := []File{}
	for _, src := range paths {
		if _, err := os.Stat(src); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to stat %s: %w", src, err)
		}

		// Sources from different directories may share a base name
		name := strconv.Itoa(len(files)) + "-" + util.BaseOf(src)
		dst := filepath.Join(snapshotPath, name)

		if err := util.CopyFileAtomic(src, dst); err != nil {
			return nil, fmt.Errorf("failed to copy %s: %w", src, err)
		}

		checksum, err := fileChecksum(dst)
		if err != nil {
			return nil, err
		}

		files = append(files, File{Name: name, Source: src, Checksum: checksum})
	}

	metadata := Metadata{
		Timestamp: time.Now(),
		Message:   message,
		Files:     files,
		ID:        id,
		Version:   version.GetVersion(),
	}

	// Write metadata atomically
	err := util.WriteFileAtomic(filepath.Join(snapshotPath, MetadataFile), 0600, func(w io.Writer) error {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(metadata)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write metadata: %w", err)
	}

	success = true

	// Auto-prune old snapshots if we have too many
	if deleted, err := m.Prune(m.keep); err != nil {
		logger.Warn("Failed to prune old snapshots", "error", err)
	} else if len(deleted) > 0 {
		logger.Info("Auto-pruned old snapshots", "count", len(deleted))
	}

	logger.Info("Snapshot created",
		"id", id,
		"files", len(files),
		"version", metadata.Version)

	return &Snapshot{
		ID:       id,
		Metadata: metadata,
		Path:     snapshotPath,
	}, nil
}

func fileChecksum(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s for checksum: %w", path, err)
	}
	return fmt.Sprintf("%x", sha256.Sum256(data)), nil
}

// List returns all snapshots, sorted by timestamp (newest first)
func (m *Manager) List() ([]*Snapshot, error) {
	if err := os.MkdirAll(m.snapshotDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	entries, err := os.ReadDir(m.snapshotDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot directory: %w", err)
	}

	snapshots := []*Snapshot{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		snapshot, err := m.Load(entry.Name())
		if err != nil {
			// Skip partial or foreign directories
			continue
		}

		snapshots = append(snapshots, snapshot)
	}

	sort.Slice(snapshots, func(i, j int) bool {
		if snapshots[i].Metadata.Timestamp.Equal(snapshots[j].Metadata.Timestamp) {
			return snapshots[i].ID > snapshots[j].ID
		}
		return snapshots[i].Metadata.Timestamp.After(snapshots[j].Metadata.Timestamp)
	})

	return snapshots, nil
}

// Load loads a snapshot by ID
func (m *Manager) Load(id string) (*Snapshot, error) {
	if id == "" || id != filepath.Base(id) {
		return nil, fmt.Errorf("invalid snapshot id: %q", id)
	}
	snapshotPath := filepath.Join(m.snapshotDir, id)

	if _, err := os.Stat(snapshotPath); err != nil {
		return nil, fmt.Errorf("snapshot not found: %s", id)
	}

	f, err := os.Open(filepath.Join(snapshotPath, MetadataFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata: %w", err)
	}
	defer f.Close()

	var metadata Metadata
	if err := json.NewDecoder(f).Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}

	return &Snapshot{
		ID:       id,
		Metadata: metadata,
		Path:     snapshotPath,
	}, nil
}

// Restore copies every file of a snapshot back to where it came from
func (m *Manager) Restore(id string) (*Snapshot, error) {
	snapshot, err := m.Load(id)
	if err != nil {
		return nil, err
	}

	// Validate snapshot integrity first
	if err := m.ValidateSnapshot(snapshot); err != nil {
		return nil, fmt.Errorf("snapshot validation failed: %w", err)
	}

	for _, file := range snapshot.Metadata.Files {
		src := filepath.Join(snapshot.Path, file.Name)
		if err := util.CopyFileAtomic(src, file.Source); err != nil {
			return nil, fmt.Errorf("failed to restore %s: %w", file.Source, err)
		}
	}

	logger.Info("Snapshot restored", "id", id, "files", len(snapshot.Metadata.Files))
	return snapshot, nil
}

// ValidateSnapshot checks that every file is present, matches its checksum
// and still parses as an ini document
func (m *Manager) ValidateSnapshot(snapshot *Snapshot) error {
	for _, file := range snapshot.Metadata.Files {
		path := filepath.Join(snapshot.Path, file.Name)

		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("snapshot corrupted: %s missing", file.Name)
			}
			return fmt.Errorf("failed to stat %s: %w", file.Name, err)
		}

		if file.Checksum != "" {
			actual, err := fileChecksum(path)
			if err != nil {
				return err
			}
			if actual != file.Checksum {
				return fmt.Errorf("checksum mismatch for %s: expected %s, got %s",
					file.Name, file.Checksum, actual)
			}
		}

		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", file.Name, err)
		}

		_, err = ini.Parse(f)
		f.Close()

		if err != nil {
			return fmt.Errorf("snapshot corrupted: invalid ini in %s: %w", file.Name, err)
		}
	}

	return nil
}

// Delete deletes a snapshot
func (m *Manager) Delete(id string) error {
	if id == "" || id != filepath.Base(id) {
		return fmt.Errorf("invalid snapshot id: %q", id)
	}

	if err := os.RemoveAll(filepath.Join(m.snapshotDir, id)); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}

	return nil
}

// Prune removes old snapshots, keeping only the specified number
func (m *Manager) Prune(keep int) ([]string, error) {
	snapshots, err := m.List()
	if err != nil {
		return nil, err
	}

	if len(snapshots) <= keep {
		return []string{}, nil
	}

	deleted := []string{}
	for i := keep; i < len(snapshots); i++ {
		if err := m.Delete(snapshots[i].ID); err != nil {
			return deleted, fmt.Errorf("failed to delete snapshot %s: %w", snapshots[i].ID, err)
		}
		deleted = append(deleted, snapshots[i].ID)
	}

	return deleted, nil
}

// GetLatest returns the most recent snapshot
func (m *Manager) GetLatest() (*Snapshot, error) {
	snapshots, err := m.List()
	if err != nil {
		return nil, err
	}

	if len(snapshots) == 0 {
		return nil, fmt.Errorf("no snapshots available")
	}

	return snapshots[0], nil
}
