package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ariefcatur/go-stock-allocation/internal/allocation"
	"github.com/google/uuid"
)

// NewEnvelope wraps a command payload in the wire envelope every stock topic
// shares. EventID is fresh per call; consumers dedup on it.
func NewEnvelope(producer, eventType string, payload any) allocation.Envelope {
	return allocation.Envelope{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     producer,
		Payload:      MustMarshal(payload),
	}
}

// MustMarshal: panics only on unmarshalable types, which is a programming
// error for the closed event set.
func MustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func UnmarshalEnvelope(b []byte, out *allocation.Envelope) error {
	return json.Unmarshal(b, out)
}

// UnwrapPayload decodes the typed command carried inside an envelope.
func UnwrapPayload[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}
