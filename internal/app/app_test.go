package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AlwaysKim-03/orderland-sub000/internal/broadcast"
	"github.com/AlwaysKim-03/orderland-sub000/internal/config"
	"github.com/AlwaysKim-03/orderland-sub000/internal/domain/model"
	"github.com/AlwaysKim-03/orderland-sub000/internal/reconcile"
	testhelpers "github.com/AlwaysKim-03/orderland-sub000/internal/test"
)

func newTestEngine(rosterStub *testhelpers.RosterStub) *reconcile.Engine {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return reconcile.NewEngine(
		testhelpers.NewOrderStoreStub(),
		&testhelpers.SubscriberStub{},
		rosterStub,
		&testhelpers.CartCacheStub{},
		&testhelpers.NotifierStub{},
		logger,
		reconcile.Options{},
	)
}

func TestNewHTTPServer(t *testing.T) {
	cfg := &config.Config{RunAddress: ":9999"}
	router := gin.New()
	server := newHTTPServer(serverParams{Config: cfg, Router: router})
	if server.Addr != ":9999" {
		t.Fatalf("expected address :9999, got %q", server.Addr)
	}
	if server.Handler != router {
		t.Fatalf("expected handler to be router")
	}
}

func TestRegisterLifecycleStartStop(t *testing.T) {
	recorder := &testhelpers.LifecycleRecorder{}
	shutdowner := &testhelpers.ShutdownerStub{Called: make(chan struct{}, 1)}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	server := &http.Server{Addr: "127.0.0.1:0", Handler: http.NewServeMux()}
	rosterStub := &testhelpers.RosterStub{IDs: []int{1}}
	engine := newTestEngine(rosterStub)
	bus := broadcast.NewLocal()

	registerLifecycle(lifecycleParams{
		Lifecycle:  recorder,
		Shutdowner: shutdowner,
		Logger:     logger,
		Server:     server,
		Engine:     engine,
		Bus:        bus,
		Config:     &config.Config{ShutdownTimeout: 100 * time.Millisecond},
	})

	if len(recorder.Hooks) != 1 {
		t.Fatalf("expected one hook registered, got %d", len(recorder.Hooks))
	}
	if err := recorder.Start(context.Background()); err != nil {
		t.Fatalf("on start failed: %v", err)
	}
	if len(engine.Tables()) != 1 {
		t.Fatalf("expected roster loaded on start, got %+v", engine.Tables())
	}

	rosterStub.Lock()
	rosterStub.IDs = append(rosterStub.IDs, 2)
	rosterStub.Unlock()
	_ = bus.Publish(context.Background(), model.TablesChanged{TableIDs: []int{1, 2}})
	if len(engine.Tables()) != 2 {
		t.Fatalf("expected broadcast to reload tables, got %+v", engine.Tables())
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = recorder.Stop(context.Background())
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected on stop to finish")
	}

	rosterStub.Lock()
	rosterStub.IDs = append(rosterStub.IDs, 3)
	rosterStub.Unlock()
	_ = bus.Publish(context.Background(), model.TablesChanged{})
	if len(engine.Tables()) != 2 {
		t.Fatal("stopped application must not react to broadcasts")
	}
}

func TestRegisterLifecycleStartError(t *testing.T) {
	recorder := &testhelpers.LifecycleRecorder{}
	boom := errors.New("roster unavailable")

	registerLifecycle(lifecycleParams{
		Lifecycle:  recorder,
		Shutdowner: &testhelpers.ShutdownerStub{},
		Logger:     slog.New(slog.NewJSONHandler(io.Discard, nil)),
		Server:     &http.Server{Addr: "127.0.0.1:0"},
		Engine:     newTestEngine(&testhelpers.RosterStub{ListErr: boom}),
		Bus:        broadcast.NewLocal(),
		Config:     &config.Config{ShutdownTimeout: time.Second},
	})

	if err := recorder.Start(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected start error, got %v", err)
	}
}

func TestRegisterLifecycleShutdownOnServerError(t *testing.T) {
	recorder := &testhelpers.LifecycleRecorder{}
	shutdowner := &testhelpers.ShutdownerStub{Called: make(chan struct{}, 1)}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	registerLifecycle(lifecycleParams{
		Lifecycle:  recorder,
		Shutdowner: shutdowner,
		Logger:     logger,
		Server:     &http.Server{Addr: "bad addr"},
		Engine:     newTestEngine(&testhelpers.RosterStub{}),
		Bus:        broadcast.NewLocal(),
		Config:     &config.Config{ShutdownTimeout: time.Second},
	})

	if err := recorder.Start(context.Background()); err != nil {
		t.Fatalf("on start returned error: %v", err)
	}

	select {
	case <-shutdowner.Called:
	case <-time.After(time.Second):
		t.Fatal("expected shutdown to be triggered on server error")
	}

	_ = recorder.Stop(context.Background())
}

func TestShutdownerStub(t *testing.T) {
	shutdowner := &testhelpers.ShutdownerStub{Called: make(chan struct{}, 1)}
	if err := shutdowner.Shutdown(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	select {
	case <-shutdowner.Called:
	default:
		t.Fatal("expected shutdown notification")
	}
}
