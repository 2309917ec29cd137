package cpt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Reserved marker filenames. Both live inside the managed directory itself,
// are never treated as user content by diff or apply, and ride along inside
// every snapshot — which is what links each archive to its predecessor.
const (
	// BackupMarkerName holds the key of the directory's latest snapshot.
	BackupMarkerName = ".cpbackup"

	// SyncMarkerName lists absolute source paths to pull from on sync.
	SyncMarkerName = ".cpsync"
)

// IsReservedName reports whether name is management metadata rather than
// user content.
func IsReservedName(name string) bool {
	return name == BackupMarkerName || name == SyncMarkerName
}

// WritePointer records key as directory's latest snapshot, overwriting any
// prior value. The marker becomes part of the directory's contents, so the
// next snapshot of this directory embeds it.
func WritePointer(directory, key string) error {
	path := filepath.Join(directory, BackupMarkerName)
	if err := os.WriteFile(path, []byte(key+"\n"), 0644); err != nil {
		return fmt.Errorf("writing backup pointer: %w", err)
	}
	return nil
}

// ReadPointer returns the key of directory's latest snapshot.
func ReadPointer(directory string) (string, error) {
	path := filepath.Join(directory, BackupMarkerName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &PointerMissingError{Directory: directory}
		}
		return "", fmt.Errorf("reading backup pointer: %w", err)
	}
	key := strings.TrimSpace(string(data))
	if !ValidKey(key) {
		return "", &PointerCorruptError{Directory: directory, Value: key}
	}
	return key, nil
}

// ParsePointer validates raw pointer bytes as read out of an embedded
// archive member. directory is only used for error context.
func ParsePointer(directory string, data []byte) (string, error) {
	key := strings.TrimSpace(string(data))
	if !ValidKey(key) {
		return "", &PointerCorruptError{Directory: directory, Value: key}
	}
	return key, nil
}

// WriteManifest records the sync sources for directory. Sources must be
// absolute paths; validation against the filesystem is the caller's job.
func WriteManifest(directory string, sources []string) error {
	if len(sources) == 0 {
		return &ManifestEmptyError{Directory: directory}
	}
	path := filepath.Join(directory, SyncMarkerName)
	if err := os.WriteFile(path, []byte(strings.Join(sources, "\n")+"\n"), 0644); err != nil {
		return fmt.Errorf("writing sync manifest: %w", err)
	}
	return nil
}

// ReadManifest returns the sync sources recorded for directory.
func ReadManifest(directory string) ([]string, error) {
	path := filepath.Join(directory, SyncMarkerName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ManifestMissingError{Directory: directory}
		}
		return nil, fmt.Errorf("reading sync manifest: %w", err)
	}
	var sources []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			sources = append(sources, line)
		}
	}
	if len(sources) == 0 {
		return nil, &ManifestEmptyError{Directory: directory}
	}
	return sources, nil
}
