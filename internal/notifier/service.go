package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/harshvardhansingh3000/flower-inventory/internal/flowers"
	kafkax "github.com/harshvardhansingh3000/flower-inventory/internal/kafka"
	"github.com/harshvardhansingh3000/flower-inventory/internal/redisx"
)

// Service consumes stock-low events, dedups them by event id, records
// the latest alert per flower in redis and logs it for operators.
type Service struct {
	Redis       *redis.Client
	ServiceName string
}

// HandleStockLow is installed as the consumer handler.
func (s *Service) HandleStockLow(ctx context.Context, m kafkago.Message) error {
	var env flowers.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != flowers.EventStockLow {
		return nil // ignore
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	p, err := kafkax.UnwrapPayload[flowers.StockLowPayload](env.Payload)
	if err != nil {
		return err
	}

	akey := fmt.Sprintf(redisx.KeyStockAlert, p.FlowerID)
	_ = s.Redis.Set(ctx, akey, m.Value, redisx.TTLStockAlert).Err()

	log.Printf("%s: flower %d (%s) quantity=%d threshold=%d",
		p.Label, p.FlowerID, p.Name, p.Quantity, p.Threshold)
	return nil
}
