package reconcile

import (
	"sort"

	"github.com/AlwaysKim-03/orderland-sub000/internal/domain/model"
)

// PendingSet tracks tables with a new order nobody has acknowledged yet.
// Snapshots only ever add to it; entries leave through Acknowledge.
// It is not safe for concurrent use.
type PendingSet struct {
	ids map[int]struct{}
}

// NewPendingSet returns an empty set.
func NewPendingSet() *PendingSet {
	return &PendingSet{ids: make(map[int]struct{})}
}

// Observe marks every table holding a new order as pending and returns the
// tables that were not pending before.
func (p *PendingSet) Observe(byTable map[int][]model.OrderRecord) []int {
	var added []int
	for id, orders := range byTable {
		if p.Has(id) {
			continue
		}
		for _, o := range orders {
			if o.Status == model.OrderStatusNew {
				p.ids[id] = struct{}{}
				added = append(added, id)
				break
			}
		}
	}
	sort.Ints(added)
	return added
}

// Acknowledge removes the table and reports whether it was pending.
func (p *PendingSet) Acknowledge(id int) bool {
	if _, ok := p.ids[id]; !ok {
		return false
	}
	delete(p.ids, id)
	return true
}

func (p *PendingSet) Has(id int) bool {
	_, ok := p.ids[id]
	return ok
}

// IDs returns the pending tables in ascending order.
func (p *PendingSet) IDs() []int {
	ids := make([]int, 0, len(p.ids))
	for id := range p.ids {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
