package flowers

import (
	"encoding/json"
	"strconv"
	"time"
)

const (
	EventStockLow = "StockLow"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // flower id
	Payload       json.RawMessage `json:"payload"`
}

type StockLowPayload struct {
	FlowerID  int64  `json:"flower_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Threshold int    `json:"threshold"`
	Label     string `json:"label"` // "Low Stock" | "Out of Stock"
}

// Partition key = flower id, so alerts for one flower keep their order.
func PartitionKey(flowerID int64) []byte {
	return []byte(strconv.FormatInt(flowerID, 10))
}
