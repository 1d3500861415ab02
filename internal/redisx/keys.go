package redisx

import "time"

const (
	// Cached low-stock report: flowers:lowstock -> JSON array
	KeyLowStockReport = "flowers:lowstock"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Last alert per flower: stock_alert:{flower_id} -> JSON payload
	KeyStockAlert = "stock_alert:%d"
)

var (
	TTLLowStockReport = 1 * time.Minute
	TTLDedup          = 48 * time.Hour
	TTLStockAlert     = 24 * time.Hour
)
