package cpt

import "time"

// SnapshotInfo describes one archive in the repository.
type SnapshotInfo struct {
	Key       string
	Path      string    // absolute path of the archive file
	Directory string    // original directory, decoded from the key
	CreatedAt time.Time // filesystem metadata, not stored in the archive
}

// ArchiveStore is the snapshot repository: whole-directory zip archives
// named by key, created before every mutating apply and read back on revert.
type ArchiveStore interface {
	// CreateSnapshot archives the full current contents of directory and
	// returns the new snapshot's key. Keys are unique even under rapid
	// repeated calls.
	CreateSnapshot(directory string) (string, error)

	// SnapshotInfo resolves a key to its archive file. Fails with
	// ArchiveMissingError if the archive does not exist.
	SnapshotInfo(key string) (SnapshotInfo, error)

	// ArchivePath returns the path the archive for key would live at,
	// whether or not it exists.
	ArchivePath(key string) string

	// Extract destructively replaces the contents of target with the
	// snapshot's contents. Not transactional: a failure partway leaves
	// target inconsistent.
	Extract(key string, target string) error

	// ExtractArchive is Extract for an archive referenced by explicit path
	// (a tag record or a repository listing) instead of by key.
	ExtractArchive(archivePath string, target string) error

	// EmbeddedKey reads the backup pointer marker embedded inside the
	// archive for key, if any. ok is false when the archive contains no
	// marker, which terminates a history walk.
	EmbeddedKey(key string) (next string, ok bool, err error)

	// List enumerates every archive in the repository, decoding original
	// directory and creation time from each name. Entries whose names do
	// not parse are skipped.
	List() ([]SnapshotInfo, error)
}

// TagRecord is one entry in the tag index.
type TagRecord struct {
	Tag         string
	Directory   string
	ArchivePath string
	CreatedAt   time.Time
}

// TagIndex is a small persistent key-value table labelling snapshots.
// It guarantees nothing about the continued existence of the archives it
// references; callers verify at read time.
type TagIndex interface {
	// Set upserts a tag. Reusing a tag overwrites the previous record.
	Set(rec TagRecord) error

	// Resolve looks a tag up. Fails with TagNotFoundError if absent.
	Resolve(tag string) (TagRecord, error)

	// ForDirectory returns every record for a directory, unfiltered.
	ForDirectory(directory string) ([]TagRecord, error)

	Close() error
}

// FileComparer reports whether two same-named files have equal content.
// Provided primitive; the diff engine never compares bytes itself.
type FileComparer interface {
	Equal(a, b string) (bool, error)
}

// TreeCopier copies single files and whole subtrees. Provided primitive.
// CopyTree merges into an existing destination, overwriting files that
// already exist.
type TreeCopier interface {
	CopyFile(src, dst string) error
	CopyTree(src, dst string) error
}
