package storage

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"go.uber.org/fx/fxtest"

	"github.com/AlwaysKim-03/orderland-sub000/internal/config"
)

func TestNewOrderStoreRejectsUnknownDriver(t *testing.T) {
	_, err := newOrderStore(orderStoreParams{
		Ctx:       context.Background(),
		Lifecycle: fxtest.NewLifecycle(t),
		Config:    &config.Config{StoreDriver: "mongo"},
		Logger:    slog.New(slog.NewJSONHandler(io.Discard, nil)),
	})
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestNewOrderStorePostgresBadDSN(t *testing.T) {
	_, err := newOrderStore(orderStoreParams{
		Ctx:       context.Background(),
		Lifecycle: fxtest.NewLifecycle(t),
		Config:    &config.Config{StoreDriver: config.DriverPostgres, DatabaseURI: ":://bad"},
		Logger:    slog.New(slog.NewJSONHandler(io.Discard, nil)),
	})
	if err == nil {
		t.Fatal("expected dsn error")
	}
}
