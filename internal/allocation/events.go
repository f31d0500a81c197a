package allocation

import (
	"encoding/json"
	"time"
)

const (
	EventBatchCreate      = "BatchCreate"
	EventAllocateRequired = "AllocateRequired"
	EventOutOfStock       = "OutOfStock"
)

// Envelope is the wire form shared by every event on the bus.
type Envelope struct {
	EventID      string          `json:"event_id"`      // uuid
	EventType    string          `json:"event_type"`    // salah satu const di atas
	EventVersion int             `json:"event_version"` // 1
	OccurredAt   time.Time       `json:"occurred_at"`   // RFC3339
	Producer     string          `json:"producer"`      // e.g., "allocation-api"
	TraceID      string          `json:"trace_id,omitempty"`
	Payload      json.RawMessage `json:"payload"` // payload spesifik
}

// Event is the closed set of commands the dispatcher understands. The marker
// method keeps the union closed so the dispatcher's type switch stays
// exhaustive.
type Event interface{ isEvent() }

// BatchCreate: new stock arriving for a SKU.
type BatchCreate struct {
	Reference string     `json:"reference"`
	SKU       string     `json:"sku"`
	Qty       int        `json:"qty"`
	ETA       *time.Time `json:"eta,omitempty"`
}

// AllocateRequired: an order line wants stock.
type AllocateRequired struct {
	OrderID string `json:"order_id"`
	SKU     string `json:"sku"`
	Qty     int    `json:"qty"`
}

// OutOfStock: a SKU ran dry; triggers a best-effort notification only.
type OutOfStock struct {
	SKU string `json:"sku"`
}

func (BatchCreate) isEvent()      {}
func (AllocateRequired) isEvent() {}
func (OutOfStock) isEvent()       {}
