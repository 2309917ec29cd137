package tagdb_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"cpt-go/internal/config"
	"cpt-go/internal/cpt"
	"cpt-go/internal/tagdb"
)

// Both implementations must behave identically; run the same suite over each.
func TestTagIndex(t *testing.T) {
	impls := []struct {
		name string
		open func(t *testing.T) cpt.TagIndex
	}{
		{"sqlite", func(t *testing.T) cpt.TagIndex {
			idx, err := tagdb.NewSQLiteIndex(filepath.Join(t.TempDir(), "tags.db"))
			if err != nil {
				t.Fatalf("NewSQLiteIndex() error = %v", err)
			}
			return idx
		}},
		{"memory", func(t *testing.T) cpt.TagIndex {
			return tagdb.NewMemoryIndex()
		}},
	}

	for _, impl := range impls {
		t.Run(impl.name, func(t *testing.T) {
			t.Run("set then resolve", func(t *testing.T) {
				idx := impl.open(t)
				defer idx.Close()

				rec := cpt.TagRecord{
					Tag:         "v1",
					Directory:   "/srv/docs",
					ArchivePath: "/repo/docs_on_20240301T120000_deadbeef.zip",
					CreatedAt:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
				}
				if err := idx.Set(rec); err != nil {
					t.Fatalf("Set() error = %v", err)
				}
				got, err := idx.Resolve("v1")
				if err != nil {
					t.Fatalf("Resolve() error = %v", err)
				}
				if got.Directory != rec.Directory || got.ArchivePath != rec.ArchivePath {
					t.Errorf("Resolve() = %+v, want %+v", got, rec)
				}
			})

			t.Run("missing tag fails with TagNotFound", func(t *testing.T) {
				idx := impl.open(t)
				defer idx.Close()

				_, err := idx.Resolve("missing")
				var notFound *cpt.TagNotFoundError
				if !errors.As(err, &notFound) {
					t.Errorf("Resolve() error = %v, want TagNotFoundError", err)
				}
			})

			t.Run("upsert is last write wins", func(t *testing.T) {
				idx := impl.open(t)
				defer idx.Close()

				old := cpt.TagRecord{Tag: "v1", Directory: "/srv/a", ArchivePath: "/repo/one.zip", CreatedAt: time.Now()}
				if err := idx.Set(old); err != nil {
					t.Fatalf("Set() error = %v", err)
				}
				updated := cpt.TagRecord{Tag: "v1", Directory: "/srv/b", ArchivePath: "/repo/two.zip", CreatedAt: time.Now()}
				if err := idx.Set(updated); err != nil {
					t.Fatalf("Set() error = %v", err)
				}

				got, err := idx.Resolve("v1")
				if err != nil {
					t.Fatalf("Resolve() error = %v", err)
				}
				if got.ArchivePath != "/repo/two.zip" {
					t.Errorf("ArchivePath = %q, want %q", got.ArchivePath, "/repo/two.zip")
				}
			})

			t.Run("scan by directory", func(t *testing.T) {
				idx := impl.open(t)
				defer idx.Close()

				base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
				recs := []cpt.TagRecord{
					{Tag: "a1", Directory: "/srv/a", ArchivePath: "/repo/a1.zip", CreatedAt: base},
					{Tag: "a2", Directory: "/srv/a", ArchivePath: "/repo/a2.zip", CreatedAt: base.Add(time.Minute)},
					{Tag: "b1", Directory: "/srv/b", ArchivePath: "/repo/b1.zip", CreatedAt: base},
				}
				for _, rec := range recs {
					if err := idx.Set(rec); err != nil {
						t.Fatalf("Set(%s) error = %v", rec.Tag, err)
					}
				}

				got, err := idx.ForDirectory("/srv/a")
				if err != nil {
					t.Fatalf("ForDirectory() error = %v", err)
				}
				if len(got) != 2 {
					t.Fatalf("ForDirectory() length = %d, want 2", len(got))
				}
				if got[0].Tag != "a2" || got[1].Tag != "a1" {
					t.Errorf("ForDirectory() order = [%s %s], want [a2 a1]", got[0].Tag, got[1].Tag)
				}
			})
		})
	}
}

func TestSQLiteIndex_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.db")

	idx, err := tagdb.NewSQLiteIndex(path)
	if err != nil {
		t.Fatalf("NewSQLiteIndex() error = %v", err)
	}
	rec := cpt.TagRecord{Tag: "v1", Directory: "/srv/a", ArchivePath: "/repo/a.zip", CreatedAt: time.Now()}
	if err := idx.Set(rec); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := tagdb.NewSQLiteIndex(path)
	if err != nil {
		t.Fatalf("NewSQLiteIndex() reopen error = %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Resolve("v1")
	if err != nil {
		t.Fatalf("Resolve() after reopen error = %v", err)
	}
	if got.ArchivePath != "/repo/a.zip" {
		t.Errorf("ArchivePath = %q, want %q", got.ArchivePath, "/repo/a.zip")
	}
}

func TestNewIndexFromConfig(t *testing.T) {
	t.Run("sqlite", func(t *testing.T) {
		idx, err := tagdb.NewIndexFromConfig(config.IndexConfig{
			Type: "sqlite",
			Path: filepath.Join(t.TempDir(), "tags.db"),
		})
		if err != nil {
			t.Fatalf("NewIndexFromConfig() error = %v", err)
		}
		idx.Close()
	})

	t.Run("memory", func(t *testing.T) {
		idx, err := tagdb.NewIndexFromConfig(config.IndexConfig{Type: "memory"})
		if err != nil {
			t.Fatalf("NewIndexFromConfig() error = %v", err)
		}
		idx.Close()
	})

	t.Run("sqlite without a path is refused", func(t *testing.T) {
		if _, err := tagdb.NewIndexFromConfig(config.IndexConfig{Type: "sqlite"}); err == nil {
			t.Error("NewIndexFromConfig() succeeded, want error")
		}
	})

	t.Run("unknown type is refused", func(t *testing.T) {
		if _, err := tagdb.NewIndexFromConfig(config.IndexConfig{Type: "etcd"}); err == nil {
			t.Error("NewIndexFromConfig() succeeded, want error")
		}
	})
}
