package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/samber/lo"

	"github.com/shandysiswandi/crmotp/internal/pkg/config"
	"github.com/shandysiswandi/crmotp/internal/pkg/goroutine"
	"github.com/shandysiswandi/crmotp/internal/pkg/instrument"
	"github.com/shandysiswandi/crmotp/internal/pkg/messaging"
	"github.com/shandysiswandi/crmotp/internal/pkg/uid"
	"github.com/shandysiswandi/crmotp/internal/shared/event"
)

type mqConsumer struct {
	name    string
	topic   string
	handler messaging.Handler
}

// RegisterMQConsumer starts the consumers listed in
// modules.notification.consumer_names. An empty list starts all of them.
func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Messaging,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) {
	h := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	consumers := []mqConsumer{
		{
			name:    event.AccountProvisionedConsumerNotification,
			topic:   event.AccountProvisionedDestination,
			handler: h.AccountProvisionedNotification,
		},
	}

	enabled := cfg.GetArray("modules.notification.consumer_names")
	if len(enabled) > 0 {
		consumers = lo.Filter(consumers, func(c mqConsumer, _ int) bool {
			return slices.Contains(enabled, c.name)
		})
	}

	concurrency := cfg.GetInt("modules.notification.consumer_concurrency")
	for _, consumer := range consumers {
		err := routine.Go(ctx, consumer.name, func(ctx context.Context) error {
			slog.InfoContext(ctx, "Running job for handling consumer", "consumer", consumer.name)
			return messenger.Consume(ctx,
				consumer.topic,
				consumer.handler,
				messaging.WithConsumerName(consumer.name),
				messaging.WithAutoAck(true),
				messaging.WithConcurrency(concurrency),
			)
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to start consumer", "consumer", consumer.name, "error", err)
		}
	}
}
