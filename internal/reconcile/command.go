package reconcile

import (
	"errors"
	"fmt"

	domainErrors "github.com/AlwaysKim-03/orderland-sub000/internal/domain/errors"
	"github.com/AlwaysKim-03/orderland-sub000/internal/domain/model"
)

// CommandKind names an operator intent.
type CommandKind string

const (
	CommandConfirmTable   CommandKind = "confirm_table"
	CommandDeleteLineItem CommandKind = "delete_line_item"
	CommandEndTable       CommandKind = "end_table"
)

// Command is an operator intent handed to Engine.Dispatch.
type Command struct {
	Kind    CommandKind
	TableID int
	Ref     model.LineItemRef
}

func ConfirmTable(tableID int) Command {
	return Command{Kind: CommandConfirmTable, TableID: tableID}
}

func DeleteLineItem(orderID string, index int) Command {
	return Command{Kind: CommandDeleteLineItem, Ref: model.LineItemRef{OrderID: orderID, Index: index}}
}

func EndTable(tableID int) Command {
	return Command{Kind: CommandEndTable, TableID: tableID}
}

// Result reports the outcome of a dispatched command.
type Result struct {
	OK  bool
	Err error
}

func resultOf(err error) Result {
	return Result{OK: err == nil, Err: err}
}

// aggregate folds per-write errors into one. Mixed outcomes are reported as
// ErrPartialFailure; total failure is reported as the joined causes.
func aggregate(op string, errs []error) error {
	var failed []error
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}
	switch {
	case len(failed) == 0:
		return nil
	case len(failed) < len(errs):
		return fmt.Errorf("%s: %w (%d of %d writes failed): %w", op, domainErrors.ErrPartialFailure, len(failed), len(errs), errors.Join(failed...))
	default:
		return fmt.Errorf("%s: %w", op, errors.Join(failed...))
	}
}
