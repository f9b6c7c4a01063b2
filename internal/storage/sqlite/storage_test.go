package sqlite

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"go.uber.org/fx/fxtest"

	"github.com/AlwaysKim-03/orderland-sub000/internal/config"
)

func newTestStorage(t *testing.T) (*Storage, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.db")
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	storage, err := New(context.Background(), path, logger)
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { _ = storage.Close() })
	return storage, path
}

func TestStorageSaveLoadDelete(t *testing.T) {
	storage, _ := newTestStorage(t)
	ctx := context.Background()

	if _, ok, err := storage.Load(ctx, "tables"); err != nil || ok {
		t.Fatalf("expected missing key, ok=%v err=%v", ok, err)
	}

	if err := storage.Save(ctx, "tables", []byte(`[1]`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := storage.Save(ctx, "tables", []byte(`[1,2]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	value, ok, err := storage.Load(ctx, "tables")
	if err != nil || !ok || string(value) != `[1,2]` {
		t.Fatalf("unexpected load %q ok=%v err=%v", value, ok, err)
	}

	if err := storage.Delete(ctx, "tables"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := storage.Delete(ctx, "tables"); err != nil {
		t.Fatalf("delete of missing key: %v", err)
	}
	if _, ok, _ := storage.Load(ctx, "tables"); ok {
		t.Fatal("expected key to be gone")
	}
}

func TestStorageSurvivesReopen(t *testing.T) {
	storage, path := newTestStorage(t)
	ctx := context.Background()
	if err := storage.Save(ctx, "cart/3", []byte(`{}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := storage.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	reopened, err := New(ctx, path, logger)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	if value, ok, err := reopened.Load(ctx, "cart/3"); err != nil || !ok || string(value) != `{}` {
		t.Fatalf("unexpected value after reopen %q ok=%v err=%v", value, ok, err)
	}
}

func TestStorageClosedErrors(t *testing.T) {
	storage, _ := newTestStorage(t)
	_ = storage.Close()
	if _, _, err := storage.Load(context.Background(), "k"); err == nil {
		t.Fatal("expected error on closed database")
	}
	if err := storage.Save(context.Background(), "k", nil); err == nil {
		t.Fatal("expected error on closed database")
	}
	if err := (&Storage{}).Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestModuleProviderAndLifecycle(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	cfg := &config.Config{LocalStatePath: filepath.Join(t.TempDir(), "state.db")}

	storage, err := newStorage(storageParams{Ctx: context.Background(), Config: cfg, Logger: logger})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lc := fxtest.NewLifecycle(t)
	registerLifecycle(lc, storage)
	lc.RequireStart()
	lc.RequireStop()

	if err := storage.db.Ping(); err == nil {
		t.Fatal("expected database to be closed after stop")
	}
}
