package cpt

import "fmt"

// The error types below form the failure taxonomy of the core. Each carries
// the path, key or tag involved so callers can act on the failure without
// parsing messages. Match with errors.As.

// DirectoryMissingError reports a directory that was expected to exist.
type DirectoryMissingError struct {
	Path string
}

func (e *DirectoryMissingError) Error() string {
	return fmt.Sprintf("directory does not exist: %s", e.Path)
}

// RepositoryUnavailableError reports a snapshot repository root that could
// not be created or accessed.
type RepositoryUnavailableError struct {
	Root string
	Err  error
}

func (e *RepositoryUnavailableError) Error() string {
	return fmt.Sprintf("snapshot repository unavailable at %s: %v", e.Root, e.Err)
}

func (e *RepositoryUnavailableError) Unwrap() error { return e.Err }

// ArchiveMissingError reports a snapshot archive that does not exist on disk.
// Key is empty when the archive was referenced by an explicit path rather
// than a repository key.
type ArchiveMissingError struct {
	Key  string
	Path string
}

func (e *ArchiveMissingError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("archive for snapshot %s unavailable at %s", e.Key, e.Path)
	}
	return fmt.Sprintf("archive unavailable at %s", e.Path)
}

// PointerMissingError reports a directory with no backup pointer marker.
type PointerMissingError struct {
	Directory string
}

func (e *PointerMissingError) Error() string {
	return fmt.Sprintf("no backup pointer in %s", e.Directory)
}

// PointerCorruptError reports a backup pointer whose stored value does not
// match the snapshot key format.
type PointerCorruptError struct {
	Directory string
	Value     string
}

func (e *PointerCorruptError) Error() string {
	return fmt.Sprintf("backup pointer in %s is corrupt: %q", e.Directory, e.Value)
}

// TagNotFoundError reports a tag absent from the tag index.
type TagNotFoundError struct {
	Tag string
}

func (e *TagNotFoundError) Error() string {
	return fmt.Sprintf("tag not found: %s", e.Tag)
}

// ManifestMissingError reports a directory with no sync manifest marker.
type ManifestMissingError struct {
	Directory string
}

func (e *ManifestMissingError) Error() string {
	return fmt.Sprintf("no sync manifest in %s", e.Directory)
}

// ManifestEmptyError reports a sync manifest that lists no sources.
type ManifestEmptyError struct {
	Directory string
}

func (e *ManifestEmptyError) Error() string {
	return fmt.Sprintf("sync manifest in %s is empty", e.Directory)
}

// CopyFailedError reports a diff entry that could not be copied. Entries
// copied before the failure remain in place; the pre-apply snapshot is the
// recovery path.
type CopyFailedError struct {
	Entry       string
	Source      string
	Destination string
	Err         error
}

func (e *CopyFailedError) Error() string {
	return fmt.Sprintf("copying %s from %s to %s: %v", e.Entry, e.Source, e.Destination, e.Err)
}

func (e *CopyFailedError) Unwrap() error { return e.Err }
