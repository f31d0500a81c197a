package allocator

import (
	"testing"
	"time"

	"github.com/ariefcatur/go-stock-allocation/internal/allocation"
	kafkax "github.com/ariefcatur/go-stock-allocation/internal/kafka"
)

func TestDecodeEventAllocateRequired(t *testing.T) {
	env := allocation.Envelope{
		EventType: allocation.EventAllocateRequired,
		Payload:   kafkax.MustMarshal(allocation.AllocateRequired{OrderID: "order-001", SKU: "SMALL-TABLE", Qty: 3}),
	}

	ev, err := decodeEvent(env)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	req, ok := ev.(allocation.AllocateRequired)
	if !ok {
		t.Fatalf("expected AllocateRequired, got %T", ev)
	}
	if req.OrderID != "order-001" || req.SKU != "SMALL-TABLE" || req.Qty != 3 {
		t.Errorf("unexpected payload: %+v", req)
	}
}

func TestDecodeEventBatchCreate(t *testing.T) {
	eta := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	env := allocation.Envelope{
		EventType: allocation.EventBatchCreate,
		Payload:   kafkax.MustMarshal(allocation.BatchCreate{Reference: "batch-001", SKU: "SMALL-TABLE", Qty: 20, ETA: &eta}),
	}

	ev, err := decodeEvent(env)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	bc, ok := ev.(allocation.BatchCreate)
	if !ok {
		t.Fatalf("expected BatchCreate, got %T", ev)
	}
	if bc.Reference != "batch-001" || bc.Qty != 20 || bc.ETA == nil || !bc.ETA.Equal(eta) {
		t.Errorf("unexpected payload: %+v", bc)
	}
}

func TestDecodeEventUnknownType(t *testing.T) {
	env := allocation.Envelope{EventType: "SomethingElse", Payload: []byte(`{}`)}

	if _, err := decodeEvent(env); err == nil {
		t.Error("expected error for unknown event type")
	}
}
