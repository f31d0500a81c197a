package redisx

import "time"

const (
	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Cache hasil alokasi: alloc:{order_id}:{sku} -> batch_ref
	KeyAllocResult = "alloc:%s:%s"
)

var (
	TTLDedup       = 48 * time.Hour
	TTLAllocResult = 24 * time.Hour
)
