package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/AlwaysKim-03/orderland-sub000/internal/domain/model"
)

// Subject carries roster change events.
const Subject = "tables.changed"

// Bus fans TablesChanged events out to every interested component, possibly
// across processes sharing the same local state.
type Bus interface {
	Publish(ctx context.Context, ev model.TablesChanged) error
	Subscribe(handler func(model.TablesChanged)) (unsubscribe func(), err error)
	Close() error
}

func encode(ev model.TablesChanged) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode tables changed: %w", err)
	}
	return data, nil
}

func decode(data []byte) (model.TablesChanged, error) {
	var ev model.TablesChanged
	if err := json.Unmarshal(data, &ev); err != nil {
		return ev, fmt.Errorf("decode tables changed: %w", err)
	}
	return ev, nil
}

// Local delivers events in-process, synchronously, in subscription order.
type Local struct {
	mu       sync.RWMutex
	next     uint64
	handlers map[uint64]func(model.TablesChanged)
	order    []uint64
}

// NewLocal returns an empty in-process bus.
func NewLocal() *Local {
	return &Local{handlers: make(map[uint64]func(model.TablesChanged))}
}

func (b *Local) Publish(ctx context.Context, ev model.TablesChanged) error {
	b.mu.RLock()
	handlers := make([]func(model.TablesChanged), 0, len(b.order))
	for _, id := range b.order {
		handlers = append(handlers, b.handlers[id])
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
	return nil
}

func (b *Local) Subscribe(handler func(model.TablesChanged)) (func(), error) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.handlers[id] = handler
	b.order = append(b.order, id)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.handlers, id)
			for i, existing := range b.order {
				if existing == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}, nil
}

func (b *Local) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[uint64]func(model.TablesChanged))
	b.order = nil
	return nil
}
