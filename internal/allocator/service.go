package allocator

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-stock-allocation/internal/allocation"
	"github.com/ariefcatur/go-stock-allocation/internal/dispatch"
	kafkax "github.com/ariefcatur/go-stock-allocation/internal/kafka"
	"github.com/ariefcatur/go-stock-allocation/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Service glues the Kafka command topics to the dispatcher. One instance
// handles both the allocate and the batch-create topic; the envelope's
// event type decides the path.
type Service struct {
	Dispatcher  *dispatch.Dispatcher
	Redis       *redis.Client
	ServiceName string
	Log         *zap.SugaredLogger
}

// HandleCommand: dipasang sebagai handler consumer.
func (s *Service) HandleCommand(ctx context.Context, m kafkago.Message) error {
	// 1) decode envelope
	var env allocation.Envelope
	if err := kafkax.UnmarshalEnvelope(m.Value, &env); err != nil {
		return err
	}

	// 2) dedup via Redis (pakai event_id)
	dkey := fmt.Sprintf(redisx.KeyDedup, "allocator", env.EventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return nil
	}

	// 3) decode payload into a command event
	ev, err := decodeEvent(env)
	if err != nil {
		// poison message: commit the offset, don't loop forever
		s.Log.Warnw("dropping undecodable command", "event_id", env.EventID, "err", err)
		s.markDone(ctx, dkey)
		return nil
	}

	// 4) dispatch inside its own transaction
	msg, err := s.Dispatcher.Dispatch(ctx, ev)
	if err != nil {
		var oos allocation.OutOfStockError
		var invalid allocation.InvalidSKUError
		switch {
		case errors.As(err, &oos):
			// inventory untouched; fan the stock-out into a notification.
			// Retrying without new stock would just recur, so commit.
			if _, nerr := s.Dispatcher.Dispatch(ctx, allocation.OutOfStock{SKU: oos.SKU}); nerr != nil {
				s.Log.Warnw("out-of-stock dispatch failed", "sku", oos.SKU, "err", nerr)
			}
			s.markDone(ctx, dkey)
			return nil
		case errors.As(err, &invalid):
			s.Log.Warnw("rejected command", "event_id", env.EventID, "err", err)
			s.markDone(ctx, dkey)
			return nil
		case errors.Is(err, allocation.ErrVersionConflict):
			// redeliver: a fresh read may still find stock
			return err
		default:
			return err
		}
	}

	s.markDone(ctx, dkey)
	s.Log.Infow("command handled", "event_id", env.EventID, "type", env.EventType, "result", msg)

	// cache hasil alokasi buat read path API
	if req, ok := ev.(allocation.AllocateRequired); ok {
		key := fmt.Sprintf(redisx.KeyAllocResult, req.OrderID, req.SKU)
		_ = s.Redis.Set(ctx, key, msg, redisx.TTLAllocResult).Err()
	}
	return nil
}

func (s *Service) markDone(ctx context.Context, dkey string) {
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
}

func decodeEvent(env allocation.Envelope) (allocation.Event, error) {
	switch env.EventType {
	case allocation.EventBatchCreate:
		e, err := kafkax.UnwrapPayload[allocation.BatchCreate](env.Payload)
		return e, err
	case allocation.EventAllocateRequired:
		e, err := kafkax.UnwrapPayload[allocation.AllocateRequired](env.Payload)
		return e, err
	case allocation.EventOutOfStock:
		e, err := kafkax.UnwrapPayload[allocation.OutOfStock](env.Payload)
		return e, err
	default:
		return nil, fmt.Errorf("unknown event type %q", env.EventType)
	}
}
