package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	domainErrors "github.com/AlwaysKim-03/orderland-sub000/internal/domain/errors"
	"github.com/AlwaysKim-03/orderland-sub000/internal/domain/model"
)

// Dispatch applies cmd to the projection optimistically and then performs the
// matching remote writes. It returns once every write has completed. Remote
// writes are not cancelled by ctx.
func (e *Engine) Dispatch(ctx context.Context, cmd Command) Result {
	var err error
	switch cmd.Kind {
	case CommandConfirmTable:
		err = e.confirmTable(ctx, cmd.TableID)
	case CommandDeleteLineItem:
		err = e.deleteLineItem(ctx, cmd.Ref)
	case CommandEndTable:
		err = e.endTable(ctx, cmd.TableID)
	default:
		err = fmt.Errorf("unknown command %q", cmd.Kind)
	}

	if err != nil {
		e.logger.Warn("command failed",
			slog.String("command", string(cmd.Kind)),
			slog.Int("table", cmd.TableID),
			slog.String("ref", cmd.Ref.String()),
			slog.String("error", err.Error()),
		)
		e.notify(model.NoticeError, cmd.TableID, err.Error())
	}
	return resultOf(err)
}

// beginLocked reserves a write slot. It fails once the engine is stopping.
func (e *Engine) beginLocked() error {
	if e.stopped {
		return domainErrors.ErrEngineStopped
	}
	return nil
}

func (e *Engine) confirmTable(ctx context.Context, tableID int) error {
	e.mu.Lock()
	if err := e.beginLocked(); err != nil {
		e.mu.Unlock()
		return err
	}
	var ids []string
	for _, r := range e.mergedLocked() {
		if r.TableNumber == tableID && r.Status == model.OrderStatusNew {
			ids = append(ids, r.ID)
		}
	}
	if len(ids) == 0 {
		e.mu.Unlock()
		return fmt.Errorf("table %d: %w", tableID, domainErrors.ErrNoActionableOrders)
	}

	preparing := model.OrderStatusPreparing
	for _, id := range ids {
		entry := e.overlay.begin(id)
		entry.status = &preparing
	}
	e.pending.Acknowledge(tableID)
	e.writes.Add(1)
	e.unlockAndPublish(e.rebuildLocked())
	defer e.writes.Done()

	errs := e.runWrites(ctx, ids, func(wctx context.Context, id string) error {
		return e.store.UpdateFields(wctx, id, model.OrderUpdate{Status: &preparing})
	})
	e.settle(ids, errs)

	e.logger.Info("table confirmed", slog.Int("table", tableID), slog.Int("orders", len(ids)))
	return aggregate(fmt.Sprintf("confirm table %d", tableID), errs)
}

// deleteLineItem holds the order's lock from reading the operator's view until
// the remote write finishes, so line indexes of one order never race.
func (e *Engine) deleteLineItem(ctx context.Context, ref model.LineItemRef) error {
	unlock := e.orders.Lock(ref.OrderID)
	defer unlock()

	e.mu.Lock()
	if err := e.beginLocked(); err != nil {
		e.mu.Unlock()
		return err
	}
	var (
		record model.OrderRecord
		found  bool
	)
	for _, r := range e.mergedLocked() {
		if r.ID == ref.OrderID {
			record, found = r, true
			break
		}
	}
	if !found {
		e.mu.Unlock()
		return fmt.Errorf("order %s: %w", ref.OrderID, domainErrors.ErrNotFound)
	}
	if record.Status == model.OrderStatusCompleted || ref.Index < 0 || ref.Index >= len(record.Items) {
		e.mu.Unlock()
		return fmt.Errorf("line %s: %w", ref, domainErrors.ErrItemAlreadyRemoved)
	}

	target := record.Items[ref.Index]
	remaining := removeItem(record.Items, ref.Index)
	entry := e.overlay.begin(ref.OrderID)
	entry.items = remaining
	entry.hasItems = true
	if len(remaining) == 0 {
		completed := model.OrderStatusCompleted
		now := e.opts.Now()
		entry.status = &completed
		entry.completedAt = &now
	}
	e.writes.Add(1)
	e.unlockAndPublish(e.rebuildLocked())
	defer e.writes.Done()

	errs := e.runWrites(ctx, []string{ref.OrderID}, func(wctx context.Context, id string) error {
		return e.removeRemoteItem(wctx, id, ref.Index, target)
	})
	e.settle([]string{ref.OrderID}, errs)

	if err := errs[0]; err != nil {
		return fmt.Errorf("delete line %s: %w", ref, err)
	}
	e.logger.Info("line item removed", slog.String("ref", ref.String()), slog.Int("remaining", len(remaining)))
	return nil
}

// removeRemoteItem re-reads the current item list so concurrent additions to
// the same order survive the rewrite. The remote line at index must still be
// the one the operator removed.
func (e *Engine) removeRemoteItem(ctx context.Context, orderID string, index int, target model.LineItem) error {
	current, err := e.store.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if current.Status == model.OrderStatusCompleted || index < 0 || index >= len(current.Items) {
		return domainErrors.ErrItemAlreadyRemoved
	}
	if !sameLine(current.Items[index], target) {
		return fmt.Errorf("remote line %d of %s changed: %w", index, orderID, domainErrors.ErrItemAlreadyRemoved)
	}

	remaining := removeItem(current.Items, index)
	if len(remaining) == 0 {
		completed := model.OrderStatusCompleted
		zero := decimal.Zero
		now := e.opts.Now()
		return e.store.UpdateFields(ctx, orderID, model.OrderUpdate{
			Status:      &completed,
			Items:       &remaining,
			TotalAmount: &zero,
			CompletedAt: &now,
		})
	}

	total := model.TotalOf(remaining)
	return e.store.UpdateFields(ctx, orderID, model.OrderUpdate{Items: &remaining, TotalAmount: &total})
}

func (e *Engine) endTable(ctx context.Context, tableID int) error {
	e.mu.Lock()
	if err := e.beginLocked(); err != nil {
		e.mu.Unlock()
		return err
	}
	var ids []string
	for _, r := range e.records {
		if r.TableNumber == tableID {
			ids = append(ids, r.ID)
		}
	}
	for _, id := range ids {
		e.overlay.begin(id).deleted = true
	}
	e.pending.Acknowledge(tableID)
	e.writes.Add(1)
	e.unlockAndPublish(e.rebuildLocked())
	defer e.writes.Done()

	errs := e.runWrites(ctx, ids, func(wctx context.Context, id string) error {
		err := e.store.Delete(wctx, id)
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil
		}
		return err
	})
	e.settle(ids, errs)

	if e.carts != nil {
		if err := e.carts.Clear(context.WithoutCancel(ctx), tableID); err != nil {
			e.logger.Warn("failed to clear table cart", slog.Int("table", tableID), slog.String("error", err.Error()))
		}
	}

	err := aggregate(fmt.Sprintf("end table %d", tableID), errs)
	if err != nil && errors.Is(err, domainErrors.ErrPartialFailure) {
		e.logger.Warn("table partially ended", slog.Int("table", tableID), slog.String("error", err.Error()))
	} else if err == nil {
		e.logger.Info("table ended", slog.Int("table", tableID), slog.Int("orders", len(ids)))
	}
	return err
}

// runWrites performs one write per id concurrently and returns the error of
// each write at the matching position. Writes outlive ctx cancellation.
func (e *Engine) runWrites(ctx context.Context, ids []string, write func(context.Context, string) error) []error {
	errs := make([]error, len(ids))
	wctx := context.WithoutCancel(ctx)

	var g errgroup.Group
	g.SetLimit(e.opts.WriteConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			errs[i] = write(wctx, id)
			return nil
		})
	}
	_ = g.Wait()
	return errs
}

// settle resolves the overlay entries of finished writes. Failed writes roll
// the record back to the last snapshot immediately.
func (e *Engine) settle(ids []string, errs []error) {
	seq := e.recvSeq.Load()

	e.mu.Lock()
	for i, id := range ids {
		e.overlay.settle(id, seq, errs[i] == nil)
	}
	e.unlockAndPublish(e.rebuildLocked())
}

func sameLine(a, b model.LineItem) bool {
	return a.Name == b.Name && a.Quantity == b.Quantity && a.UnitPrice.Equal(b.UnitPrice)
}

func removeItem(items []model.LineItem, index int) []model.LineItem {
	out := make([]model.LineItem, 0, len(items)-1)
	out = append(out, items[:index]...)
	return append(out, items[index+1:]...)
}
