package app_test

import (
	"os"
	"path/filepath"
	"testing"

	"cpt-go/internal/app"
	"cpt-go/internal/config"
)

func newTestApp(t *testing.T) *app.CPTApp {
	t.Helper()
	base := t.TempDir()
	cfg := &config.Config{
		RepoDir: filepath.Join(base, "repo"),
		LogDir:  filepath.Join(base, "log"),
		Index:   config.IndexConfig{Type: "memory"},
	}
	a, err := app.NewCPTApp(cfg, "test")
	if err != nil {
		t.Fatalf("NewCPTApp() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
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

func TestCPTApp_Copy(t *testing.T) {
	t.Run("nil confirm applies the diff", func(t *testing.T) {
		a := newTestApp(t)
		src, dst := t.TempDir(), t.TempDir()
		writeFile(t, filepath.Join(src, "a.txt"), "a")

		diff, applied, err := a.Copy(src, dst, "", nil)
		if err != nil {
			t.Fatalf("Copy() error = %v", err)
		}
		if !applied || len(diff) != 1 {
			t.Errorf("Copy() = (%v, %v), want 1 entry applied", diff, applied)
		}
		if _, err := os.Stat(filepath.Join(dst, "a.txt")); err != nil {
			t.Errorf("a.txt not copied: %v", err)
		}
	})

	t.Run("declining confirm copies nothing", func(t *testing.T) {
		a := newTestApp(t)
		src, dst := t.TempDir(), t.TempDir()
		writeFile(t, filepath.Join(src, "a.txt"), "a")

		var saw []string
		decline := func(diff []string) bool {
			saw = diff
			return false
		}
		diff, applied, err := a.Copy(src, dst, "", decline)
		if err != nil {
			t.Fatalf("Copy() error = %v", err)
		}
		if applied {
			t.Error("Copy() applied despite declined confirmation")
		}
		if len(diff) != 1 || len(saw) != 1 {
			t.Errorf("diff = %v, confirm saw %v; want one entry each", diff, saw)
		}
		if _, err := os.Stat(filepath.Join(dst, "a.txt")); !os.IsNotExist(err) {
			t.Error("a.txt was copied despite declined confirmation")
		}
	})

	t.Run("empty diff never consults confirm", func(t *testing.T) {
		a := newTestApp(t)
		src, dst := t.TempDir(), t.TempDir()
		writeFile(t, filepath.Join(src, "a.txt"), "same")
		writeFile(t, filepath.Join(dst, "a.txt"), "same")

		confirm := func([]string) bool {
			t.Error("confirm called for an empty diff")
			return false
		}
		diff, applied, err := a.Copy(src, dst, "", confirm)
		if err != nil {
			t.Fatalf("Copy() error = %v", err)
		}
		if applied || len(diff) != 0 {
			t.Errorf("Copy() = (%v, %v), want nothing to do", diff, applied)
		}
	})
}

func TestCPTApp_SyncEndToEnd(t *testing.T) {
	a := newTestApp(t)
	dir, src := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(src, "pulled.txt"), "pulled")
	writeFile(t, filepath.Join(dir, "own.txt"), "mine")

	if err := a.MakeSyncManifest(dir, []string{src}); err != nil {
		t.Fatalf("MakeSyncManifest() error = %v", err)
	}
	if err := a.Sync(dir, "before-sync"); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "pulled.txt")); err != nil {
		t.Errorf("pulled.txt missing after sync: %v", err)
	}

	chain, err := a.History(dir)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(chain) != 1 {
		t.Fatalf("History() length = %d, want 1", len(chain))
	}

	tags, err := a.Tags(dir)
	if err != nil {
		t.Fatalf("Tags() error = %v", err)
	}
	if len(tags) != 1 || tags[0].Tag != "before-sync" {
		t.Fatalf("Tags() = %v, want [before-sync]", tags)
	}

	if err := a.RevertTag("before-sync"); err != nil {
		t.Fatalf("RevertTag() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "pulled.txt")); !os.IsNotExist(err) {
		t.Error("pulled.txt survived revert to the pre-sync snapshot")
	}
}

func TestCPTApp_MakeSyncManifest_Validation(t *testing.T) {
	a := newTestApp(t)
	dir := t.TempDir()

	if err := a.MakeSyncManifest(dir, []string{filepath.Join(t.TempDir(), "gone")}); err == nil {
		t.Error("MakeSyncManifest() accepted a missing source")
	}
	if err := a.MakeSyncManifest(filepath.Join(t.TempDir(), "gone"), []string{dir}); err == nil {
		t.Error("MakeSyncManifest() accepted a missing directory")
	}
}

func TestCPTApp_Archives(t *testing.T) {
	a := newTestApp(t)
	src, dst := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(src, "a.txt"), "a")
	writeFile(t, filepath.Join(dst, "old.txt"), "old")

	if _, _, err := a.Copy(src, dst, "", nil); err != nil {
		t.Fatalf("Copy() error = %v", err)
	}

	infos, err := a.Archives()
	if err != nil {
		t.Fatalf("Archives() error = %v", err)
	}
	if len(infos) != 1 {
		t.Errorf("Archives() length = %d, want 1", len(infos))
	}
}
