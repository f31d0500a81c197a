package allocation

import (
	"sort"
	"time"
)

// OrderLine is an immutable request to consume Qty units of SKU for one order.
// Comparable on all three fields so it works as a set member: the same line
// can never be counted twice against a batch.
type OrderLine struct {
	OrderID string `json:"order_id"`
	SKU     string `json:"sku"`
	Qty     int    `json:"qty"`
}

// Batch is a purchased quantity of one SKU, optionally arriving at ETA.
// Identity is the Reference alone; nil ETA means the stock is already on hand.
type Batch struct {
	Reference string
	SKU       string
	ETA       *time.Time

	purchased   int
	allocations map[OrderLine]struct{}
}

func NewBatch(reference, sku string, qty int, eta *time.Time) *Batch {
	return &Batch{
		Reference:   reference,
		SKU:         sku,
		ETA:         eta,
		purchased:   qty,
		allocations: make(map[OrderLine]struct{}),
	}
}

// Allocate inserts line into the allocation set only when CanAllocate holds;
// an unsatisfiable line and a re-allocated line are both no-ops.
func (b *Batch) Allocate(line OrderLine) {
	if b.CanAllocate(line) {
		b.allocations[line] = struct{}{}
	}
}

// Deallocate removes line if present; absent lines are a no-op.
func (b *Batch) Deallocate(line OrderLine) {
	delete(b.allocations, line)
}

func (b *Batch) AllocatedQuantity() int {
	total := 0
	for line := range b.allocations {
		total += line.Qty
	}
	return total
}

func (b *Batch) AvailableQuantity() int {
	return b.purchased - b.AllocatedQuantity()
}

// CanAllocate is a pure predicate: SKU match and enough remaining quantity.
func (b *Batch) CanAllocate(line OrderLine) bool {
	return b.SKU == line.SKU && b.AvailableQuantity() >= line.Qty
}

// Before orders batches by arrival preference: on-hand stock (nil ETA) ahead
// of any shipment, then the shipment arriving soonest.
func (b *Batch) Before(other *Batch) bool {
	if b.ETA == nil {
		return other.ETA != nil
	}
	if other.ETA == nil {
		return false
	}
	return b.ETA.Before(*other.ETA)
}

// SortBatches sorts batches in place by arrival preference.
func SortBatches(batches []*Batch) {
	sort.SliceStable(batches, func(i, j int) bool { return batches[i].Before(batches[j]) })
}

// Allocate is the flat-list policy: first fit over batches in arrival order.
// It returns the reference of the chosen batch, or OutOfStockError when no
// batch can take the line.
func Allocate(line OrderLine, batches []*Batch) (string, error) {
	SortBatches(batches)
	for _, b := range batches {
		if b.CanAllocate(line) {
			b.Allocate(line)
			return b.Reference, nil
		}
	}
	return "", OutOfStockError{SKU: line.SKU}
}
