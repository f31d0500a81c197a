package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/ariefcatur/go-stock-allocation/internal/allocation"
	"go.uber.org/zap"
)

// Store is the narrow persistence surface the dispatcher needs. The pgx repo
// implements it; tests plug an in-memory fake.
type Store interface {
	AllocateTx(ctx context.Context, line allocation.OrderLine) (allocation.AllocationResult, error)
	AddBatchTx(ctx context.Context, reference, sku string, qty int, eta *time.Time) error
}

// Notifier delivers out-of-stock notices. Delivery failure never rolls back
// an inventory change.
type Notifier interface {
	Send(ctx context.Context, sku string) error
}

type Dispatcher struct {
	Store    Store
	Notifier Notifier
	Log      *zap.SugaredLogger
}

// Dispatch processes events one at a time from a FIFO queue seeded with the
// triggering event. Each event runs inside its own storage transaction.
// Handlers do not enqueue follow-up events; the queue keeps that extension
// point open without recursion.
func (d *Dispatcher) Dispatch(ctx context.Context, ev allocation.Event) (string, error) {
	queue := []allocation.Event{ev}
	result := ""
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		msg, err := d.handle(ctx, next)
		if err != nil {
			return "", err
		}
		result = msg
	}
	return result, nil
}

func (d *Dispatcher) handle(ctx context.Context, ev allocation.Event) (string, error) {
	switch e := ev.(type) {
	case allocation.BatchCreate:
		if err := d.Store.AddBatchTx(ctx, e.Reference, e.SKU, e.Qty, e.ETA); err != nil {
			return "", err
		}
		return "Batch created successfully", nil

	case allocation.AllocateRequired:
		line := allocation.OrderLine{OrderID: e.OrderID, SKU: e.SKU, Qty: e.Qty}
		res, err := d.Store.AllocateTx(ctx, line)
		if err != nil {
			return "", err
		}
		return res.BatchRef, nil

	case allocation.OutOfStock:
		// best effort: notification and inventory are independent side effects
		if err := d.Notifier.Send(ctx, e.SKU); err != nil {
			if d.Log != nil {
				d.Log.Warnw("out-of-stock notification failed", "sku", e.SKU, "err", err)
			}
		}
		return "Out of stock notification sent", nil

	default:
		return "", fmt.Errorf("unhandled event type %T", ev)
	}
}
