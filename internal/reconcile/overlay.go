package reconcile

import (
	"time"

	"github.com/AlwaysKim-03/orderland-sub000/internal/domain/model"
)

// overlayEntry is an optimistic override of one order record. It is merged on
// read and never written into the snapshot itself.
type overlayEntry struct {
	status      *model.OrderStatus
	items       []model.LineItem
	hasItems    bool
	completedAt *time.Time
	deleted     bool

	inflight   int
	settledSeq uint64
}

type overlay struct {
	entries map[string]*overlayEntry
}

func newOverlay() *overlay {
	return &overlay{entries: make(map[string]*overlayEntry)}
}

// begin returns the entry for orderID and counts one more in-flight write.
func (o *overlay) begin(orderID string) *overlayEntry {
	e, ok := o.entries[orderID]
	if !ok {
		e = &overlayEntry{}
		o.entries[orderID] = e
	}
	e.inflight++
	return e
}

// settle records the outcome of one write. A failed write drops the entry so
// the record falls back to the last snapshot. seq is the latest snapshot
// sequence received at settle time.
func (o *overlay) settle(orderID string, seq uint64, ok bool) {
	e, found := o.entries[orderID]
	if !found {
		return
	}
	if !ok {
		delete(o.entries, orderID)
		return
	}
	e.inflight--
	e.settledSeq = seq
}

// expire drops entries whose writes all settled before snapshot seq was
// received. It returns the number of entries dropped.
func (o *overlay) expire(seq uint64) int {
	dropped := 0
	for id, e := range o.entries {
		if e.inflight == 0 && e.settledSeq < seq {
			delete(o.entries, id)
			dropped++
		}
	}
	return dropped
}

// apply merges the overlay onto records without mutating them.
func (o *overlay) apply(records []model.OrderRecord) []model.OrderRecord {
	if len(o.entries) == 0 {
		return records
	}
	merged := make([]model.OrderRecord, 0, len(records))
	for _, r := range records {
		e, ok := o.entries[r.ID]
		if !ok {
			merged = append(merged, r)
			continue
		}
		if e.deleted {
			continue
		}
		r = r.Clone()
		if e.status != nil {
			r.Status = *e.status
		}
		if e.hasItems {
			r.Items = append([]model.LineItem(nil), e.items...)
			r.TotalAmount = model.TotalOf(r.Items)
		}
		if e.completedAt != nil {
			t := *e.completedAt
			r.CompletedAt = &t
		}
		merged = append(merged, r)
	}
	return merged
}

func (o *overlay) size() int {
	return len(o.entries)
}
