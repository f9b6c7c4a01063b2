package cart

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	domainErrors "github.com/AlwaysKim-03/orderland-sub000/internal/domain/errors"
	testhelpers "github.com/AlwaysKim-03/orderland-sub000/internal/test"
)

func TestKey(t *testing.T) {
	if got := Key(5); got != "cart/5" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewKeyValueStoreStub()
	c := New(store)

	got, err := c.Load(ctx, 5)
	if err != nil || got != nil {
		t.Fatalf("expected empty cart, got %s, %v", got, err)
	}

	payload := json.RawMessage(`[{"name":"Tea","quantity":2}]`)
	if err := c.Save(ctx, 5, payload); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err = c.Load(ctx, 5)
	if err != nil || string(got) != string(payload) {
		t.Fatalf("unexpected cart %s, %v", got, err)
	}

	if err := c.Clear(ctx, 5); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := c.Clear(ctx, 5); err != nil {
		t.Fatalf("clearing twice must succeed: %v", err)
	}
	if _, ok := store.Values[Key(5)]; ok {
		t.Fatal("cart still stored after clear")
	}
}

func TestCacheSaveValidation(t *testing.T) {
	c := New(testhelpers.NewKeyValueStoreStub())
	if err := c.Save(context.Background(), 0, json.RawMessage(`{}`)); !errors.Is(err, domainErrors.ErrInvalidTable) {
		t.Fatalf("expected invalid table, got %v", err)
	}
	if err := c.Save(context.Background(), 1, json.RawMessage(`{`)); err == nil {
		t.Fatal("expected malformed payload error")
	}
}

func TestCacheStoreErrors(t *testing.T) {
	boom := errors.New("locked")
	store := testhelpers.NewKeyValueStoreStub()
	store.LoadErr = boom
	store.SaveErr = boom
	c := New(store)

	if _, err := c.Load(context.Background(), 1); !errors.Is(err, boom) {
		t.Fatalf("expected load error, got %v", err)
	}
	if err := c.Save(context.Background(), 1, json.RawMessage(`[]`)); !errors.Is(err, boom) {
		t.Fatalf("expected save error, got %v", err)
	}
	if err := c.Clear(context.Background(), 1); !errors.Is(err, boom) {
		t.Fatalf("expected clear error, got %v", err)
	}
}
