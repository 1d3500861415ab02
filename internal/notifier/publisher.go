// Package notifier carries the low-stock diagnostic signal: a publisher
// the reservation manager fires after processing, and a consumer service
// that turns the events into alerts.
package notifier

import (
	"context"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/harshvardhansingh3000/flower-inventory/internal/flowers"
	kafkax "github.com/harshvardhansingh3000/flower-inventory/internal/kafka"
)

// Publisher implements flowers.Notifier over an async kafka producer.
// Publishing never blocks or fails the caller.
type Publisher struct {
	Producer    *kafkax.Producer
	ServiceName string
}

func (p *Publisher) StockLow(ctx context.Context, f flowers.Flower) {
	ev := flowers.Envelope{
		EventID:       uuid.NewString(),
		EventType:     flowers.EventStockLow,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      p.ServiceName,
		CorrelationID: string(flowers.PartitionKey(f.ID)),
		Payload: kafkax.MustMarshal(flowers.StockLowPayload{
			FlowerID:  f.ID,
			Name:      f.Name,
			Quantity:  f.Quantity,
			Threshold: f.Threshold,
			Label:     flowers.StockLabel(f.Quantity),
		}),
	}
	p.Producer.Publish(flowers.PartitionKey(f.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(flowers.EventStockLow)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
