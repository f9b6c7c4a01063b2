package reconcile

import (
	"sort"

	"github.com/AlwaysKim-03/orderland-sub000/internal/domain/model"
)

// sortByRecency orders records newest first; ties fall back to id so that
// line positions are stable across rebuilds.
func sortByRecency(records []model.OrderRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].ID < records[j].ID
	})
}

func groupByTable(records []model.OrderRecord) map[int][]model.OrderRecord {
	grouped := make(map[int][]model.OrderRecord)
	for _, r := range records {
		grouped[r.TableNumber] = append(grouped[r.TableNumber], r)
	}
	return grouped
}

// explodeLines turns the orders of a table into one line per item.
func explodeLines(orders []model.OrderRecord) []model.TableOrderLine {
	var lines []model.TableOrderLine
	for _, o := range orders {
		status := LineStatusFor(o.Status)
		for idx, item := range o.Items {
			lines = append(lines, model.TableOrderLine{
				Ref:       model.LineItemRef{OrderID: o.ID, Index: idx},
				Name:      item.Name,
				UnitPrice: item.UnitPrice,
				Quantity:  item.Quantity,
				Status:    status,
				CreatedAt: o.CreatedAt,
			})
		}
	}
	return lines
}

// buildView computes the derived view of one table from its orders.
func buildView(table model.Table, orders []model.OrderRecord, pending bool, layout string) model.TableView {
	view := model.TableView{
		Table:      table,
		Status:     DeriveStatus(orders),
		OrderCount: len(orders),
		Lines:      explodeLines(orders),
		Pending:    pending,
	}
	if len(orders) > 0 {
		view.LastOrderAt = earliestOrder(orders)
		view.LastOrderTime = view.LastOrderAt.Format(layout)
	}
	return view
}

// buildProjection rebuilds every table view from scratch. Tables on the
// roster, tables referenced by orders and tables still pending all get a view.
func buildProjection(records []model.OrderRecord, roster []model.Table, pending *PendingSet, layout string) map[int]model.TableView {
	grouped := groupByTable(records)
	views := make(map[int]model.TableView, len(roster)+len(grouped))

	for _, table := range roster {
		views[table.ID] = buildView(table, grouped[table.ID], pending.Has(table.ID), layout)
	}
	for id, orders := range grouped {
		if _, ok := views[id]; ok {
			continue
		}
		views[id] = buildView(model.NewTable(id), orders, pending.Has(id), layout)
	}
	for _, id := range pending.IDs() {
		if _, ok := views[id]; ok {
			continue
		}
		views[id] = buildView(model.NewTable(id), nil, true, layout)
	}
	return views
}
