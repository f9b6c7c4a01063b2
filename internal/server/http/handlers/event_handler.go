package handlers

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AlwaysKim-03/orderland-sub000/internal/domain/model"
	"github.com/AlwaysKim-03/orderland-sub000/internal/server/http/dto"
)

const (
	eventBuffer       = 64
	heartbeatInterval = 25 * time.Second
)

// EventHandler streams projection changes, notices and roster broadcasts as
// server-sent events.
type EventHandler struct {
	facade    EventFacade
	logger    *slog.Logger
	heartbeat time.Duration
}

// NewEventHandler constructs EventHandler.
func NewEventHandler(facade EventFacade, logger *slog.Logger) *EventHandler {
	return &EventHandler{facade: facade, logger: logger, heartbeat: heartbeatInterval}
}

// Stream handles GET /api/events. The first event carries every table view.
// A slow client gets only the latest view of each table and may lose notices,
// but never stalls the engine.
func (h *EventHandler) Stream(c *gin.Context) {
	queue := newEventQueue(eventBuffer)
	push := func(ev dto.Event) {
		if !queue.push(ev) {
			h.logger.Warn("event stream client lagging, dropping event", slog.String("event", ev.Name))
		}
	}

	unsubscribeTables, err := h.facade.OnTablesChanged(func(ev model.TablesChanged) {
		push(dto.Event{Name: dto.EventTablesChanged, Data: ev})
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.CommandResponse{Error: err.Error()})
		return
	}
	defer unsubscribeTables()
	defer h.facade.OnProjectionChanged(func(tableID int, view model.TableView) {
		queue.pushView(tableID, dto.Event{Name: dto.EventTable, Data: toTableViewResponse(view)})
	})()
	defer h.facade.OnNotice(func(n model.Notice) {
		push(dto.Event{Name: dto.EventNotice, Data: n})
	})()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent(dto.EventSnapshot, toTableViewResponses(h.facade.Tables()))
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-queue.ready:
			for _, ev := range queue.drain() {
				c.SSEvent(ev.Name, ev.Data)
			}
			c.Writer.Flush()
		case <-ticker.C:
			c.SSEvent("ping", "")
			c.Writer.Flush()
		}
	}
}

// eventQueue buffers events of one stream in arrival order. A queued table
// view is replaced in place by a newer view of the same table; other events
// are dropped once limit of them are queued.
type eventQueue struct {
	mu     sync.Mutex
	events []dto.Event
	views  map[int]int
	others int
	limit  int
	ready  chan struct{}
}

func newEventQueue(limit int) *eventQueue {
	return &eventQueue{views: make(map[int]int), limit: limit, ready: make(chan struct{}, 1)}
}

func (q *eventQueue) push(ev dto.Event) bool {
	q.mu.Lock()
	if q.others >= q.limit {
		q.mu.Unlock()
		return false
	}
	q.others++
	q.events = append(q.events, ev)
	q.mu.Unlock()
	q.signal()
	return true
}

func (q *eventQueue) pushView(tableID int, ev dto.Event) {
	q.mu.Lock()
	if i, ok := q.views[tableID]; ok {
		q.events[i] = ev
	} else {
		q.views[tableID] = len(q.events)
		q.events = append(q.events, ev)
	}
	q.mu.Unlock()
	q.signal()
}

func (q *eventQueue) drain() []dto.Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.events
	q.events = nil
	q.others = 0
	clear(q.views)
	return out
}

func (q *eventQueue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
