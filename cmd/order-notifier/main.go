// Command order-notifier drains the order.placed queue and logs each placed
// order for fulfilment.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/queue"
	pkgcfg "github.com/Skotchmaster/storefront/pkg/config"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

func main() {
	cfg := config.Load()
	pkgcfg.MustNonEmpty(cfg.RabbitURL, "RABBITMQ_URL")

	log := logging.New(cfg.LogLevel).With("service", "order-notifier")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("order_notifier_started", "queue", cfg.OrderQueue)
	err := queue.ConsumeOrders(ctx, cfg.RabbitURL, cfg.OrderQueue, log, func(ctx context.Context, ev events.OrderEvent) error {
		log.Info("order_received",
			"order_id", ev.OrderID,
			"user_id", ev.UserID,
			"total", ev.TotalAmount.StringFixed(2),
			"items", ev.ItemCount,
		)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("order_notifier_stopped", "error", err)
		os.Exit(1)
	}
	log.Info("order_notifier_stopped")
}
