package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Skotchmaster/storefront/internal/events"
)

type OrderHandler func(ctx context.Context, ev events.OrderEvent) error

// ConsumeOrders reads the order queue until ctx is done, reconnecting with
// backoff. Messages the handler rejects are nacked without requeue.
func ConsumeOrders(ctx context.Context, url, queue string, log *slog.Logger, h OrderHandler) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn("order_consumer_dial_failed", "retry_in", backoff.String(), "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, queue, log, h)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("order_consumer_reconnecting", "error", err)
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queue string, log *slog.Logger, h OrderHandler) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer ch.Close()

	if err := ch.Qos(50, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := HandleDelivery(ctx, d.Body, h); err != nil {
			log.Warn("order_message_rejected", "error", err)
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return fmt.Errorf("delivery channel closed")
}

func HandleDelivery(ctx context.Context, body []byte, h OrderHandler) error {
	var ev events.OrderEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if ev.OrderID == 0 {
		return fmt.Errorf("decode: missing orderID")
	}
	return h(ctx, ev)
}
