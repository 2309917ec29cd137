// Package repo implements the snapshot repository: a flat directory of zip
// archives, one per snapshot, named by snapshot key.
package repo

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cpt-go/internal/cpt"
)

// ZipStore stores whole-directory snapshots as zip archives under a single
// repository root. The root is created on first use.
type ZipStore struct {
	root     string
	clock    cpt.Clock
	suffixer cpt.KeySuffixer
}

// NewZipStore creates a store rooted at root. Nothing is touched on disk
// until the first snapshot is taken.
func NewZipStore(root string, clock cpt.Clock, suffixer cpt.KeySuffixer) *ZipStore {
	return &ZipStore{root: root, clock: clock, suffixer: suffixer}
}

// ArchivePath returns where the archive for key lives, whether or not it
// exists yet.
func (z *ZipStore) ArchivePath(key string) string {
	return filepath.Join(z.root, key+cpt.ArchiveExt)
}

// CreateSnapshot archives the full current contents of directory, including
// its marker files, and returns the new snapshot's key.
func (z *ZipStore) CreateSnapshot(directory string) (string, error) {
	info, err := os.Stat(directory)
	if err != nil || !info.IsDir() {
		return "", &cpt.DirectoryMissingError{Path: directory}
	}
	if err := os.MkdirAll(z.root, 0755); err != nil {
		return "", &cpt.RepositoryUnavailableError{Root: z.root, Err: err}
	}

	key := cpt.EncodeKey(directory, z.clock.Now(), z.suffixer.Suffix())
	if err := z.writeArchive(directory, z.ArchivePath(key)); err != nil {
		return "", err
	}
	return key, nil
}

// writeArchive zips directory into destPath via a temp file and rename, so a
// failed snapshot never leaves a half-written archive under a valid key.
func (z *ZipStore) writeArchive(directory, destPath string) error {
	tmp, err := os.CreateTemp(z.root, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp archive: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	zw := zip.NewWriter(tmp)
	err = filepath.WalkDir(directory, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(directory, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			_, err := zw.Create(rel + "/")
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		hdr.Name = rel
		hdr.Method = zip.Deflate
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(w, f)
		return err
	})
	if err != nil {
		zw.Close()
		tmp.Close()
		return fmt.Errorf("archiving %s: %w", directory, err)
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("finalizing archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing archive: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("placing archive: %w", err)
	}
	success = true
	return nil
}

// SnapshotInfo resolves a key to its archive on disk.
func (z *ZipStore) SnapshotInfo(key string) (cpt.SnapshotInfo, error) {
	path := z.ArchivePath(key)
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cpt.SnapshotInfo{}, &cpt.ArchiveMissingError{Key: key, Path: path}
		}
		return cpt.SnapshotInfo{}, fmt.Errorf("stat archive: %w", err)
	}
	directory, _, err := cpt.DecodeKey(key)
	if err != nil {
		directory = ""
	}
	return cpt.SnapshotInfo{
		Key:       key,
		Path:      path,
		Directory: directory,
		CreatedAt: fi.ModTime(),
	}, nil
}

// Extract destructively replaces the contents of target with the snapshot's
// contents.
func (z *ZipStore) Extract(key string, target string) error {
	info, err := z.SnapshotInfo(key)
	if err != nil {
		return err
	}
	return z.ExtractArchive(info.Path, target)
}

// ExtractArchive destructively replaces the contents of target with the
// contents of the archive at archivePath. The existing contents of target
// are removed first; extraction is not transactional, so a failure partway
// leaves target inconsistent. The pre-existing snapshot chain, not this
// store, is the recovery mechanism for that case.
func (z *ZipStore) ExtractArchive(archivePath string, target string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &cpt.ArchiveMissingError{Path: archivePath}
		}
		return fmt.Errorf("opening archive %s: %w", archivePath, err)
	}
	defer zr.Close()

	if err := clearDirectory(target); err != nil {
		return fmt.Errorf("clearing %s: %w", target, err)
	}

	for _, f := range zr.File {
		if err := extractOne(f, target); err != nil {
			return fmt.Errorf("extracting %s: %w", f.Name, err)
		}
	}
	return nil
}

// EmbeddedKey reads the backup pointer marker embedded in the archive for
// key, if the snapshotted directory had one at snapshot time.
func (z *ZipStore) EmbeddedKey(key string) (string, bool, error) {
	path := z.ArchivePath(key)
	zr, err := zip.OpenReader(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, &cpt.ArchiveMissingError{Key: key, Path: path}
		}
		return "", false, fmt.Errorf("opening archive %s: %w", path, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != cpt.BackupMarkerName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", false, fmt.Errorf("reading embedded pointer: %w", err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", false, fmt.Errorf("reading embedded pointer: %w", err)
		}
		next, err := cpt.ParsePointer(path, data)
		if err != nil {
			return "", false, err
		}
		return next, true, nil
	}
	return "", false, nil
}

// List enumerates every archive in the repository, newest first. Files whose
// names do not parse as snapshot keys are skipped.
func (z *ZipStore) List() ([]cpt.SnapshotInfo, error) {
	entries, err := os.ReadDir(z.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading repository: %w", err)
	}

	var infos []cpt.SnapshotInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, cpt.ArchiveExt) {
			continue
		}
		key := strings.TrimSuffix(name, cpt.ArchiveExt)
		directory, _, err := cpt.DecodeKey(key)
		if err != nil {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		infos = append(infos, cpt.SnapshotInfo{
			Key:       key,
			Path:      filepath.Join(z.root, name),
			Directory: directory,
			CreatedAt: fi.ModTime(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].CreatedAt.After(infos[j].CreatedAt) })
	return infos, nil
}

// clearDirectory removes everything inside dir but keeps dir itself, so open
// handles on the directory stay valid across a revert.
func clearDirectory(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// extractOne writes a single zip member under target, refusing entries that
// would escape it.
func extractOne(f *zip.File, target string) error {
	dest := filepath.Join(target, filepath.FromSlash(f.Name))
	rel, err := filepath.Rel(target, dest)
	if err != nil || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("archive member escapes target: %s", f.Name)
	}

	if f.FileInfo().IsDir() {
		return os.MkdirAll(dest, 0755)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0644
	}
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Compile-time check that ZipStore implements cpt.ArchiveStore.
var _ cpt.ArchiveStore = (*ZipStore)(nil)
