package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	sq, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "kv.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sq,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

func TestStoreRoundTrip(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
				t.Fatalf("Get(missing) = ok %v, err %v", ok, err)
			}

			if err := s.Set(ctx, "a", "1"); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if err := s.Set(ctx, "a", "2"); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			if err := s.Set(ctx, "b", `{"x":1}`); err != nil {
				t.Fatalf("Set b: %v", err)
			}

			v, ok, err := s.Get(ctx, "a")
			if err != nil || !ok || v != "2" {
				t.Fatalf("Get(a) = %q %v %v", v, ok, err)
			}

			if err := s.Delete(ctx, "a", "b", "never-set"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			for _, k := range []string{"a", "b"} {
				if _, ok, _ := s.Get(ctx, k); ok {
					t.Errorf("%s still present after delete", k)
				}
			}
			if err := s.Delete(ctx); err != nil {
				t.Errorf("empty Delete: %v", err)
			}
		})
	}
}

func TestStoreSetMany(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := s.Set(ctx, "list", "old"); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if err := s.SetMany(ctx, map[string]string{"list": "new", "stamp": "42"}); err != nil {
				t.Fatalf("SetMany: %v", err)
			}
			for k, want := range map[string]string{"list": "new", "stamp": "42"} {
				if v, ok, err := s.Get(ctx, k); err != nil || !ok || v != want {
					t.Errorf("Get(%s) = %q %v %v, want %q", k, v, ok, err, want)
				}
			}
			if err := s.SetMany(ctx, nil); err != nil {
				t.Errorf("empty SetMany: %v", err)
			}
		})
	}
}

func TestSQLiteStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	ctx := context.Background()

	s1, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s1.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	v, ok, err := s2.Get(ctx, "k")
	if err != nil || !ok || v != "v" {
		t.Fatalf("Get after reopen = %q %v %v", v, ok, err)
	}
}

func TestMemoryStoreClosed(t *testing.T) {
	s := NewMemoryStore()
	_ = s.Close()
	if err := s.Set(context.Background(), "k", "v"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, BackendMemory, Options{})
	if err != nil {
		t.Fatalf("Open memory: %v", err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Errorf("expected *MemoryStore, got %T", s)
	}

	s, err = Open(ctx, BackendSQLite, Options{SQLitePath: filepath.Join(t.TempDir(), "x.db")})
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	_ = s.Close()

	if _, err := Open(ctx, "postgres", Options{}); err == nil {
		t.Error("expected error for unknown backend")
	}
}
