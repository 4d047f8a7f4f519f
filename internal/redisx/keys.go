package redisx

import "time"

const (
	// Bearer credential per browser session: session:{session_id}:token -> jwt
	KeySessionToken = "session:%s:token"

	// Cache status order: order_status:{order_id} -> orders.Order JSON
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLSessionToken = 48 * time.Hour
	TTLStatusCache  = 5 * time.Minute
	TTLDedup        = 48 * time.Hour
)
