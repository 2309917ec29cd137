package fsops

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"cpt-go/internal/cpt"
)

// OSCopier copies files and trees on the real filesystem.
type OSCopier struct{}

func NewOSCopier() *OSCopier { return &OSCopier{} }

// CopyFile copies a single regular file, overwriting dst if it exists.
// The source's permission bits are preserved.
func (OSCopier) CopyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", src)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}
	return nil
}

// CopyTree recursively copies the directory at src into dst, merging with
// and overwriting whatever is already there. Non-regular files (sockets,
// devices, symlinks) are skipped.
func (c OSCopier) CopyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(target, info.Mode().Perm()); err != nil {
				return fmt.Errorf("mkdir %s: %w", target, err)
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return c.CopyFile(path, target)
	})
}

// Compile-time check that OSCopier implements cpt.TreeCopier.
var _ cpt.TreeCopier = OSCopier{}
