package repo_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cpt-go/internal/cpt"
	"cpt-go/internal/repo"
	"cpt-go/internal/testutil"
)

func newTestStore(t *testing.T) *repo.ZipStore {
	t.Helper()
	return repo.NewZipStore(filepath.Join(t.TempDir(), "repo"), testutil.NewStepClock(), &testutil.SeqSuffixer{})
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestZipStore_CreateSnapshot(t *testing.T) {
	t.Run("creates the repository root on first use", func(t *testing.T) {
		store := newTestStore(t)
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "a.txt"), "a")

		key, err := store.CreateSnapshot(dir)
		if err != nil {
			t.Fatalf("CreateSnapshot() error = %v", err)
		}
		if _, err := os.Stat(store.ArchivePath(key)); err != nil {
			t.Errorf("archive not on disk: %v", err)
		}
	})

	t.Run("missing directory fails with DirectoryMissing", func(t *testing.T) {
		store := newTestStore(t)
		_, err := store.CreateSnapshot(filepath.Join(t.TempDir(), "gone"))
		var missing *cpt.DirectoryMissingError
		if !errors.As(err, &missing) {
			t.Errorf("CreateSnapshot() error = %v, want DirectoryMissingError", err)
		}
	})

	t.Run("rapid snapshots of the same directory get distinct keys", func(t *testing.T) {
		store := repo.NewZipStore(filepath.Join(t.TempDir(), "repo"),
			&testutil.StepClock{T: testutil.NewStepClock().T, Step: 0}, // frozen clock
			&testutil.SeqSuffixer{})
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "a.txt"), "a")

		seen := make(map[string]bool)
		for i := 0; i < 5; i++ {
			key, err := store.CreateSnapshot(dir)
			if err != nil {
				t.Fatalf("CreateSnapshot() error = %v", err)
			}
			if seen[key] {
				t.Fatalf("key collision: %q", key)
			}
			seen[key] = true
		}
	})
}

func TestZipStore_SnapshotInfo(t *testing.T) {
	t.Run("resolves an existing archive", func(t *testing.T) {
		store := newTestStore(t)
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "a.txt"), "a")

		key, err := store.CreateSnapshot(dir)
		if err != nil {
			t.Fatalf("CreateSnapshot() error = %v", err)
		}
		info, err := store.SnapshotInfo(key)
		if err != nil {
			t.Fatalf("SnapshotInfo() error = %v", err)
		}
		if info.Key != key || info.Path != store.ArchivePath(key) {
			t.Errorf("SnapshotInfo() = %+v", info)
		}
	})

	t.Run("unknown key fails with ArchiveMissing", func(t *testing.T) {
		store := newTestStore(t)
		_, err := store.SnapshotInfo("_x_on_20240301T120000_deadbeef")
		var missing *cpt.ArchiveMissingError
		if !errors.As(err, &missing) {
			t.Errorf("SnapshotInfo() error = %v, want ArchiveMissingError", err)
		}
	})
}

func TestZipStore_Extract(t *testing.T) {
	t.Run("replaces target contents with the snapshot", func(t *testing.T) {
		store := newTestStore(t)
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "a.txt"), "snapshot a")
		writeFile(t, filepath.Join(dir, "sub", "b.txt"), "snapshot b")
		if err := os.MkdirAll(filepath.Join(dir, "emptydir"), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}

		key, err := store.CreateSnapshot(dir)
		if err != nil {
			t.Fatalf("CreateSnapshot() error = %v", err)
		}

		writeFile(t, filepath.Join(dir, "a.txt"), "mutated")
		writeFile(t, filepath.Join(dir, "new.txt"), "new")

		if err := store.Extract(key, dir); err != nil {
			t.Fatalf("Extract() error = %v", err)
		}

		data, err := os.ReadFile(filepath.Join(dir, "a.txt"))
		if err != nil || string(data) != "snapshot a" {
			t.Errorf("a.txt = %q, %v; want %q", data, err, "snapshot a")
		}
		data, err = os.ReadFile(filepath.Join(dir, "sub", "b.txt"))
		if err != nil || string(data) != "snapshot b" {
			t.Errorf("sub/b.txt = %q, %v; want %q", data, err, "snapshot b")
		}
		if info, err := os.Stat(filepath.Join(dir, "emptydir")); err != nil || !info.IsDir() {
			t.Errorf("emptydir not restored: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "new.txt")); !os.IsNotExist(err) {
			t.Errorf("new.txt survived extraction")
		}
	})

	t.Run("missing archive fails with ArchiveMissing", func(t *testing.T) {
		store := newTestStore(t)
		err := store.ExtractArchive(filepath.Join(t.TempDir(), "nope.zip"), t.TempDir())
		var missing *cpt.ArchiveMissingError
		if !errors.As(err, &missing) {
			t.Errorf("ExtractArchive() error = %v, want ArchiveMissingError", err)
		}
	})
}

func TestZipStore_EmbeddedKey(t *testing.T) {
	store := newTestStore(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "a")

	first, err := store.CreateSnapshot(dir)
	if err != nil {
		t.Fatalf("CreateSnapshot() error = %v", err)
	}

	// No pointer existed at snapshot time.
	if _, ok, err := store.EmbeddedKey(first); err != nil || ok {
		t.Fatalf("EmbeddedKey(first) = ok=%v, err=%v; want no embedded pointer", ok, err)
	}

	if err := cpt.WritePointer(dir, first); err != nil {
		t.Fatalf("WritePointer() error = %v", err)
	}
	second, err := store.CreateSnapshot(dir)
	if err != nil {
		t.Fatalf("CreateSnapshot() error = %v", err)
	}

	next, ok, err := store.EmbeddedKey(second)
	if err != nil {
		t.Fatalf("EmbeddedKey(second) error = %v", err)
	}
	if !ok || next != first {
		t.Errorf("EmbeddedKey(second) = %q, ok=%v; want %q", next, ok, first)
	}
}

func TestZipStore_List(t *testing.T) {
	t.Run("empty repository lists nothing", func(t *testing.T) {
		store := newTestStore(t)
		infos, err := store.List()
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(infos) != 0 {
			t.Errorf("List() = %v, want empty", infos)
		}
	})

	t.Run("decodes directories and skips foreign files", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "repo")
		store := repo.NewZipStore(root, testutil.NewStepClock(), &testutil.SeqSuffixer{})
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "a.txt"), "a")

		if _, err := store.CreateSnapshot(dir); err != nil {
			t.Fatalf("CreateSnapshot() error = %v", err)
		}
		writeFile(t, filepath.Join(root, "stray.zip"), "not an archive name")
		writeFile(t, filepath.Join(root, "notes.txt"), "not an archive")

		infos, err := store.List()
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(infos) != 1 {
			t.Fatalf("List() length = %d, want 1", len(infos))
		}
		// Decoding is lossy (every underscore becomes a separator), so compare
		// the flattened forms.
		got := strings.ReplaceAll(infos[0].Directory, string(filepath.Separator), "_")
		want := strings.ReplaceAll(dir, string(filepath.Separator), "_")
		if got != want {
			t.Errorf("decoded directory = %q, want flattened %q", infos[0].Directory, dir)
		}
	})
}
