package cpt

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Service is the orchestration layer that coordinates the archive store,
// backup pointers, the tag index and the copy primitives to perform the
// high-level operations needed by the CLI.
type Service struct {
	store    ArchiveStore
	tags     TagIndex
	comparer FileComparer
	copier   TreeCopier
	logger   Logger
	clock    Clock
}

// NewService creates a Service with the provided dependencies.
func NewService(store ArchiveStore, tags TagIndex, comparer FileComparer, copier TreeCopier, logger Logger, clock Clock) *Service {
	return &Service{
		store:    store,
		tags:     tags,
		comparer: comparer,
		copier:   copier,
		logger:   logger,
		clock:    clock,
	}
}

// Backup snapshots directory into the repository, records the new key in the
// directory's backup pointer, and, when tag is non-empty, labels the snapshot
// in the tag index. Returns the new snapshot key.
func (s *Service) Backup(directory, tag string) (string, error) {
	key, err := s.store.CreateSnapshot(directory)
	if err != nil {
		return "", err
	}
	if err := WritePointer(directory, key); err != nil {
		return "", err
	}
	if tag != "" {
		if err := s.SetTag(tag, directory, s.store.ArchivePath(key)); err != nil {
			return "", err
		}
	}
	s.logger.Info("snapshot created", "directory", directory, "key", key)
	return key, nil
}

// SetTag upserts a tag pointing at (directory, archivePath). Both must exist
// at call time; later invalidation is allowed and detected at read time.
func (s *Service) SetTag(tag, directory, archivePath string) error {
	if info, err := os.Stat(directory); err != nil || !info.IsDir() {
		return &DirectoryMissingError{Path: directory}
	}
	if _, err := os.Stat(archivePath); err != nil {
		return &ArchiveMissingError{Path: archivePath}
	}
	rec := TagRecord{
		Tag:         tag,
		Directory:   directory,
		ArchivePath: archivePath,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.tags.Set(rec); err != nil {
		return fmt.Errorf("recording tag %s: %w", tag, err)
	}
	s.logger.Info("tag set", "tag", tag, "directory", directory)
	return nil
}

// ResolveTag looks a tag up in the index. The index does not guarantee the
// archive still exists; Revert re-checks before touching anything.
func (s *Service) ResolveTag(tag string) (TagRecord, error) {
	return s.tags.Resolve(tag)
}

// TagsForDirectory lists the tags recorded for directory whose archives
// still physically exist. Creation time is read from the archive's
// filesystem metadata at query time. Records whose archive vanished are
// excluded from the listing but never removed from the index.
func (s *Service) TagsForDirectory(directory string) ([]TagRecord, error) {
	recs, err := s.tags.ForDirectory(directory)
	if err != nil {
		return nil, fmt.Errorf("listing tags for %s: %w", directory, err)
	}
	var live []TagRecord
	for _, rec := range recs {
		info, err := os.Stat(rec.ArchivePath)
		if err != nil {
			continue
		}
		rec.CreatedAt = info.ModTime()
		live = append(live, rec)
	}
	return live, nil
}

// ApplyDiff copies each named diff entry from source into destination.
//
// An empty diff is a no-op and takes no snapshot. When autoBackup is set and
// the diff is non-empty, destination is snapshotted (and optionally tagged)
// before the first copy — copying first and snapshotting after would make a
// failed apply unrevertable. A destination that does not exist yet is
// created and copied into without a snapshot; there is no prior state to
// protect.
//
// A copy failure aborts the remaining entries. Entries already copied stay
// copied; the pre-apply snapshot, not an in-place rollback, is the recovery
// path.
func (s *Service) ApplyDiff(source, destination string, diff []string, autoBackup bool, tag string) error {
	if len(diff) == 0 {
		s.logger.Debug("empty diff, nothing to apply", "source", source, "destination", destination)
		return nil
	}

	info, err := os.Stat(destination)
	dstExists := err == nil && info.IsDir()

	if autoBackup && dstExists {
		if _, err := s.Backup(destination, tag); err != nil {
			return err
		}
	}
	if !dstExists {
		if err := os.MkdirAll(destination, 0755); err != nil {
			return fmt.Errorf("creating destination directory: %w", err)
		}
	}

	for _, name := range diff {
		if IsReservedName(name) {
			continue
		}
		srcItem := filepath.Join(source, name)
		dstItem := filepath.Join(destination, name)

		srcInfo, err := os.Stat(srcItem)
		if err != nil {
			return &CopyFailedError{Entry: name, Source: source, Destination: destination, Err: err}
		}
		if srcInfo.IsDir() {
			err = s.copier.CopyTree(srcItem, dstItem)
		} else {
			err = s.copier.CopyFile(srcItem, dstItem)
		}
		if err != nil {
			return &CopyFailedError{Entry: name, Source: source, Destination: destination, Err: err}
		}
		s.logger.Debug("copied", "entry", name, "destination", destination)
	}

	s.logger.Info("diff applied", "source", source, "destination", destination, "entries", len(diff))
	return nil
}

// Sync pulls directory up to date from every source in its manifest.
// Exactly one snapshot of directory is taken up front, shared by all
// sources: a multi-source sync is a single recovery point even though it
// performs several independent diff and copy passes.
func (s *Service) Sync(directory, tag string) error {
	if info, err := os.Stat(directory); err != nil || !info.IsDir() {
		return &DirectoryMissingError{Path: directory}
	}
	sources, err := ReadManifest(directory)
	if err != nil {
		return err
	}
	for _, src := range sources {
		if info, err := os.Stat(src); err != nil || !info.IsDir() {
			return &DirectoryMissingError{Path: src}
		}
	}

	if _, err := s.Backup(directory, tag); err != nil {
		return err
	}

	for _, src := range sources {
		diff, err := s.ComputeDiff(src, directory)
		if err != nil {
			return err
		}
		if err := s.ApplyDiff(src, directory, diff, false, ""); err != nil {
			return err
		}
	}
	return nil
}

// Revert destructively replaces directory's contents from a snapshot. When
// archivePath is empty, the directory's backup pointer names the snapshot.
// No snapshot of the pre-revert state is taken: revert is one-way, and
// reverting a revert means picking an earlier point in the chain.
func (s *Service) Revert(directory, archivePath string) error {
	if info, err := os.Stat(directory); err != nil || !info.IsDir() {
		return &DirectoryMissingError{Path: directory}
	}

	if archivePath == "" {
		key, err := ReadPointer(directory)
		if err != nil {
			return err
		}
		info, err := s.store.SnapshotInfo(key)
		if err != nil {
			return err
		}
		archivePath = info.Path
	} else if _, err := os.Stat(archivePath); err != nil {
		return &ArchiveMissingError{Path: archivePath}
	}

	if err := s.store.ExtractArchive(archivePath, directory); err != nil {
		return err
	}
	s.logger.Info("directory reverted", "directory", directory, "archive", archivePath)
	return nil
}

// RevertTag resolves tag and reverts the tagged directory to the tagged
// archive.
func (s *Service) RevertTag(tag string) error {
	rec, err := s.tags.Resolve(tag)
	if err != nil {
		return err
	}
	return s.Revert(rec.Directory, rec.ArchivePath)
}

// History walks directory's snapshot chain, newest first: the backup pointer
// names the latest archive, each archive embeds the pointer that was current
// when it was taken, and the walk stops at the first archive with no
// embedded pointer. A directory with no pointer has empty history; a pointer
// naming a vanished archive is corruption and surfaces as ArchiveMissing.
// Each call recomputes the chain from scratch.
func (s *Service) History(directory string) ([]SnapshotInfo, error) {
	if info, err := os.Stat(directory); err != nil || !info.IsDir() {
		return nil, &DirectoryMissingError{Path: directory}
	}

	key, err := ReadPointer(directory)
	if err != nil {
		var missing *PointerMissingError
		if errors.As(err, &missing) {
			return nil, nil
		}
		return nil, err
	}

	var chain []SnapshotInfo
	for {
		info, err := s.store.SnapshotInfo(key)
		if err != nil {
			return nil, err
		}
		chain = append(chain, info)

		next, ok, err := s.store.EmbeddedKey(key)
		if err != nil {
			return nil, err
		}
		if !ok {
			return chain, nil
		}
		key = next
	}
}

// ListArchives enumerates every snapshot in the repository, for manual
// revert selection.
func (s *Service) ListArchives() ([]SnapshotInfo, error) {
	return s.store.List()
}
