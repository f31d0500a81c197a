package allocation

import (
	"errors"
	"testing"
)

func TestProductAllocateBestFit(t *testing.T) {
	// the flat-list policy would pick the on-hand batch; best fit picks the
	// batch with the least room left
	big := NewBatch("big-batch", "PLAUSIBLE-SHELF", 100, nil)
	small := NewBatch("small-batch", "PLAUSIBLE-SHELF", 10, date("2026-09-20"))
	p := NewProduct("PLAUSIBLE-SHELF", []*Batch{big, small})

	res, err := p.Allocate(OrderLine{OrderID: "order-001", SKU: "PLAUSIBLE-SHELF", Qty: 5})
	if err != nil {
		t.Fatalf("allocate failed: %v", err)
	}
	if res.BatchRef != "small-batch" {
		t.Errorf("expected best-fit small-batch, got %s", res.BatchRef)
	}
	if small.AvailableQuantity() != 5 {
		t.Errorf("expected small batch available 5, got %d", small.AvailableQuantity())
	}
	if big.AvailableQuantity() != 100 {
		t.Errorf("expected big batch untouched, got %d", big.AvailableQuantity())
	}
}

func TestProductAllocateInvalidSKU(t *testing.T) {
	p := NewProduct("REAL-SKU", []*Batch{NewBatch("batch-001", "REAL-SKU", 10, nil)})

	_, err := p.Allocate(OrderLine{OrderID: "order-001", SKU: "FAKE-SKU", Qty: 1})

	var invalid InvalidSKUError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidSKUError, got %v", err)
	}
	if invalid.SKU != "FAKE-SKU" {
		t.Errorf("expected error to name FAKE-SKU, got %s", invalid.SKU)
	}
	if p.Version != 1 {
		t.Errorf("expected version unchanged at 1, got %d", p.Version)
	}
}

func TestProductAllocateOutOfStock(t *testing.T) {
	p := NewProduct("TALL-CABINET", []*Batch{NewBatch("batch-001", "TALL-CABINET", 3, nil)})

	_, err := p.Allocate(OrderLine{OrderID: "order-001", SKU: "TALL-CABINET", Qty: 4})

	var oos OutOfStockError
	if !errors.As(err, &oos) {
		t.Fatalf("expected OutOfStockError, got %v", err)
	}
	if p.Version != 1 {
		t.Errorf("expected version unchanged at 1, got %d", p.Version)
	}
}

func TestProductVersionIncrementsPerAllocation(t *testing.T) {
	p := NewProduct("WIDE-SOFA", []*Batch{NewBatch("batch-001", "WIDE-SOFA", 20, nil)})

	res1, err := p.Allocate(OrderLine{OrderID: "order-1", SKU: "WIDE-SOFA", Qty: 5})
	if err != nil {
		t.Fatalf("first allocate failed: %v", err)
	}
	res2, err := p.Allocate(OrderLine{OrderID: "order-2", SKU: "WIDE-SOFA", Qty: 5})
	if err != nil {
		t.Fatalf("second allocate failed: %v", err)
	}

	if res1.Version != 2 || res2.Version != 3 {
		t.Errorf("expected versions 2 then 3, got %d and %d", res1.Version, res2.Version)
	}
}

func TestStaleVersion(t *testing.T) {
	cases := []struct {
		persisted, next int
		want            bool
	}{
		{1, 2, false},
		{2, 2, true},
		{3, 2, true},
	}
	for _, c := range cases {
		if got := StaleVersion(c.persisted, c.next); got != c.want {
			t.Errorf("StaleVersion(%d, %d) = %v, want %v", c.persisted, c.next, got, c.want)
		}
	}
}

func TestTxStateTransitions(t *testing.T) {
	allowed := [][2]TxState{
		{TxStarted, TxValidated},
		{TxValidated, TxAllocated},
		{TxAllocated, TxCommitted},
		{TxAllocated, TxConflictAborted},
		{TxValidated, TxDomainAborted},
	}
	for _, pair := range allowed {
		if !CanTransition(pair[0], pair[1]) {
			t.Errorf("expected %s -> %s to be allowed", pair[0], pair[1])
		}
	}
	forbidden := [][2]TxState{
		{TxStarted, TxCommitted},
		{TxCommitted, TxStarted},
		{TxConflictAborted, TxCommitted},
	}
	for _, pair := range forbidden {
		if CanTransition(pair[0], pair[1]) {
			t.Errorf("expected %s -> %s to be forbidden", pair[0], pair[1])
		}
	}
}
