package kafka

import (
	"testing"

	"github.com/ariefcatur/go-stock-allocation/internal/allocation"
	"github.com/google/uuid"
)

func TestNewEnvelopeCarriesCommand(t *testing.T) {
	env := NewEnvelope("allocation-api", allocation.EventAllocateRequired,
		allocation.AllocateRequired{OrderID: "order-001", SKU: "SMALL-TABLE", Qty: 3})

	if env.EventType != allocation.EventAllocateRequired {
		t.Errorf("unexpected event type %q", env.EventType)
	}
	if env.EventVersion != 1 {
		t.Errorf("expected event version 1, got %d", env.EventVersion)
	}
	if env.Producer != "allocation-api" {
		t.Errorf("unexpected producer %q", env.Producer)
	}
	if _, err := uuid.Parse(env.EventID); err != nil {
		t.Errorf("event id is not a uuid: %q", env.EventID)
	}
	if env.OccurredAt.IsZero() {
		t.Error("occurred_at not set")
	}

	// the consumer side must get the same command back
	var decoded allocation.Envelope
	if err := UnmarshalEnvelope(MustMarshal(env), &decoded); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	cmd, err := UnwrapPayload[allocation.AllocateRequired](decoded.Payload)
	if err != nil {
		t.Fatalf("unwrap payload: %v", err)
	}
	if cmd.OrderID != "order-001" || cmd.SKU != "SMALL-TABLE" || cmd.Qty != 3 {
		t.Errorf("unexpected command: %+v", cmd)
	}
}

func TestNewEnvelopeFreshEventID(t *testing.T) {
	a := NewEnvelope("svc", allocation.EventOutOfStock, allocation.OutOfStock{SKU: "SMALL-FORK"})
	b := NewEnvelope("svc", allocation.EventOutOfStock, allocation.OutOfStock{SKU: "SMALL-FORK"})

	if a.EventID == b.EventID {
		t.Error("expected distinct event ids for distinct publishes")
	}
}
