package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cpt-go/internal/config"
	"cpt-go/internal/cpt"
	"cpt-go/internal/fsops"
	"cpt-go/internal/repo"
	"cpt-go/internal/tagdb"
)

// CPTApp is the application layer between the CLI and the core Service.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw string paths, and manages the tag index lifecycle on Close.
type CPTApp struct {
	cfg     *config.Config
	tags    cpt.TagIndex
	service *cpt.Service
	logFile *os.File
}

// ConfirmFunc decides whether a computed diff should be applied. It receives
// the diff entries; returning false aborts without copying. The core never
// prompts on its own — interactive confirmation lives entirely in the caller.
type ConfirmFunc func(diff []string) bool

// NewCPTApp creates a fully wired CPTApp from the given config.
// operation identifies the CLI command being run (e.g. "Copy", "Sync").
// The caller must call Close when done.
func NewCPTApp(cfg *config.Config, operation string) (*CPTApp, error) {
	tags, err := tagdb.NewIndexFromConfig(cfg.Index)
	if err != nil {
		return nil, fmt.Errorf("creating tag index: %w", err)
	}

	opID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		tags.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	store := repo.NewZipStore(cfg.RepoDir, cpt.RealClock{}, cpt.UUIDSuffixer{})
	svc := cpt.NewService(store, tags, fsops.NewByteComparer(), fsops.NewOSCopier(), &slogAdapter{l: logger}, cpt.RealClock{})

	return &CPTApp{
		cfg:     cfg,
		tags:    tags,
		service: svc,
		logFile: logFile,
	}, nil
}

// Close releases the tag index and the log file.
func (a *CPTApp) Close() error {
	var firstErr error
	if err := a.tags.Close(); err != nil {
		firstErr = err
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Copy diffs src against dst and, if confirm approves the diff, snapshots dst
// and copies the entries. Returns the diff that was computed and whether it
// was applied.
func (a *CPTApp) Copy(src, dst, tag string, confirm ConfirmFunc) ([]string, bool, error) {
	absSrc, err := filepath.Abs(src)
	if err != nil {
		return nil, false, fmt.Errorf("resolving source path: %w", err)
	}
	absDst, err := filepath.Abs(dst)
	if err != nil {
		return nil, false, fmt.Errorf("resolving destination path: %w", err)
	}

	diff, err := a.service.ComputeDiff(absSrc, absDst)
	if err != nil {
		return nil, false, err
	}
	if len(diff) == 0 {
		return nil, false, nil
	}
	if confirm != nil && !confirm(diff) {
		return diff, false, nil
	}
	if err := a.service.ApplyDiff(absSrc, absDst, diff, true, tag); err != nil {
		return diff, false, err
	}
	return diff, true, nil
}

// Revert restores directory from its latest snapshot, or from archivePath
// when non-empty.
func (a *CPTApp) Revert(directory, archivePath string) error {
	absDir, err := filepath.Abs(directory)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	return a.service.Revert(absDir, archivePath)
}

// RevertTag restores the directory a tag points at from the tagged archive.
func (a *CPTApp) RevertTag(tag string) error {
	return a.service.RevertTag(tag)
}

// History returns directory's snapshot chain, newest first.
func (a *CPTApp) History(directory string) ([]cpt.SnapshotInfo, error) {
	absDir, err := filepath.Abs(directory)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	return a.service.History(absDir)
}

// Tags returns the live tags recorded for directory.
func (a *CPTApp) Tags(directory string) ([]cpt.TagRecord, error) {
	absDir, err := filepath.Abs(directory)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	return a.service.TagsForDirectory(absDir)
}

// MakeSyncManifest records sources as directory's sync manifest. Every
// source must be an existing directory; paths are stored absolute.
func (a *CPTApp) MakeSyncManifest(directory string, sources []string) error {
	absDir, err := filepath.Abs(directory)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	if info, err := os.Stat(absDir); err != nil || !info.IsDir() {
		return &cpt.DirectoryMissingError{Path: absDir}
	}

	absSources := make([]string, 0, len(sources))
	for _, src := range sources {
		abs, err := filepath.Abs(src)
		if err != nil {
			return fmt.Errorf("resolving source path: %w", err)
		}
		if info, err := os.Stat(abs); err != nil || !info.IsDir() {
			return &cpt.DirectoryMissingError{Path: abs}
		}
		absSources = append(absSources, abs)
	}
	return cpt.WriteManifest(absDir, absSources)
}

// Sync pulls directory up to date from every source in its manifest.
func (a *CPTApp) Sync(directory, tag string) error {
	absDir, err := filepath.Abs(directory)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	return a.service.Sync(absDir, tag)
}

// Archives lists every snapshot in the repository, newest first.
func (a *CPTApp) Archives() ([]cpt.SnapshotInfo, error) {
	return a.service.ListArchives()
}
