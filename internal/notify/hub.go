package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/AlwaysKim-03/orderland-sub000/internal/domain/model"
)

// Hub is the notification sink. It logs every notice and fans it out to
// the current subscribers.
type Hub struct {
	logger *slog.Logger
	now    func() time.Time

	mu   sync.RWMutex
	next uint64
	subs map[uint64]func(model.Notice)
}

// NewHub returns a hub without subscribers.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{logger: logger, now: time.Now, subs: make(map[uint64]func(model.Notice))}
}

// Notify logs n and hands it to every subscriber.
func (h *Hub) Notify(n model.Notice) {
	if n.At.IsZero() {
		n.At = h.now()
	}

	attrs := []any{slog.String("notice_level", string(n.Level)), slog.String("message", n.Message)}
	if n.TableID != 0 {
		attrs = append(attrs, slog.Int("table", n.TableID))
	}
	switch n.Level {
	case model.NoticeError:
		h.logger.Error("notice", attrs...)
	case model.NoticeWarn:
		h.logger.Warn("notice", attrs...)
	default:
		h.logger.Info("notice", attrs...)
	}

	h.mu.RLock()
	subs := make([]func(model.Notice), 0, len(h.subs))
	for _, fn := range h.subs {
		subs = append(subs, fn)
	}
	h.mu.RUnlock()

	for _, fn := range subs {
		fn(n)
	}
}

// Subscribe registers fn for future notices.
func (h *Hub) Subscribe(fn func(model.Notice)) (unsubscribe func()) {
	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}
