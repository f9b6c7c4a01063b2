package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	domainErrors "github.com/AlwaysKim-03/orderland-sub000/internal/domain/errors"
	"github.com/AlwaysKim-03/orderland-sub000/internal/domain/repository"
)

const keyPrefix = "cart/"

// Key returns the persistence key of a table's cart.
func Key(tableID int) string {
	return keyPrefix + strconv.Itoa(tableID)
}

// Cache keeps one opaque JSON cart per table.
type Cache struct {
	store repository.KeyValueStore
}

// New returns a cart cache over store.
func New(store repository.KeyValueStore) *Cache {
	return &Cache{store: store}
}

// Load returns the cart of tableID, or nil when none is saved.
func (c *Cache) Load(ctx context.Context, tableID int) (json.RawMessage, error) {
	raw, ok, err := c.store.Load(ctx, Key(tableID))
	if err != nil {
		return nil, fmt.Errorf("load cart %d: %w", tableID, err)
	}
	if !ok {
		return nil, nil
	}
	return json.RawMessage(raw), nil
}

// Save replaces the cart of tableID. The payload must be valid JSON.
func (c *Cache) Save(ctx context.Context, tableID int, payload json.RawMessage) error {
	if tableID < 1 {
		return fmt.Errorf("table %d: %w", tableID, domainErrors.ErrInvalidTable)
	}
	if !json.Valid(payload) {
		return fmt.Errorf("cart %d: malformed payload", tableID)
	}
	if err := c.store.Save(ctx, Key(tableID), payload); err != nil {
		return fmt.Errorf("save cart %d: %w", tableID, err)
	}
	return nil
}

// Clear drops the cart of tableID. Clearing an empty cart succeeds.
func (c *Cache) Clear(ctx context.Context, tableID int) error {
	if err := c.store.Delete(ctx, Key(tableID)); err != nil {
		return fmt.Errorf("clear cart %d: %w", tableID, err)
	}
	return nil
}
