package notify

import (
	"context"

	"github.com/ariefcatur/go-stock-allocation/internal/allocation"
	kafkax "github.com/ariefcatur/go-stock-allocation/internal/kafka"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Kafka publishes OutOfStock envelopes to the notifications topic. The
// producer is async; a lost notice is logged in the producer loop, never
// surfaced to the inventory transaction.
type Kafka struct {
	Producer *kafkax.Producer
	Service  string
	Log      *zap.SugaredLogger
}

func (k *Kafka) Send(ctx context.Context, sku string) error {
	ev := kafkax.NewEnvelope(k.Service, allocation.EventOutOfStock, allocation.OutOfStock{SKU: sku})
	k.Producer.Publish(allocation.PartitionKey(sku), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(allocation.EventOutOfStock)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
	if k.Log != nil {
		k.Log.Infow("out of stock notification queued", "sku", sku)
	}
	return nil
}
