package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/krishignan/krishignan/internal/pkg/config"
	"github.com/krishignan/krishignan/internal/pkg/goroutine"
	"github.com/krishignan/krishignan/internal/pkg/instrument"
	"github.com/krishignan/krishignan/internal/pkg/messaging"
	"github.com/krishignan/krishignan/internal/pkg/uid"
	"github.com/krishignan/krishignan/internal/shared/event"
)

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Consumer,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.notification.consumer_names")
	concurrency := cfg.GetInt("modules.notification.concurrency")
	if concurrency <= 0 {
		concurrency = 10
	}

	var consumers = []struct {
		name    string
		topic   string // destination where publisher sent message
		group   string // nsq channel, nats queue group, kafka group, pubsub subscription
		handler messaging.Handler
	}{
		{
			name:    event.PasswordResetCodeConsumerNotification,
			topic:   event.PasswordResetCodeDestination,
			group:   event.PasswordResetCodeConsumerNotification,
			handler: mqHandler.PasswordResetCodeNotification,
		},
	}

	for _, consumer := range consumers {
		if !slices.Contains(enableConsumerNames, consumer.name) {
			continue
		}

		routine.Go(ctx, func(pCtx context.Context) error {
			slog.InfoContext(ctx, "Running job for handling consumer", "consumer", consumer.name)
			return messenger.Consume(pCtx,
				consumer.topic,
				consumer.handler,
				messaging.WithChannel(consumer.group),
				messaging.WithQueueGroup(consumer.group),
				messaging.WithGroup(consumer.group),
				messaging.WithSubscription(consumer.group),
				messaging.WithAutoAck(true),
				messaging.WithConcurrency(concurrency),
				messaging.WithMaxInFlight(concurrency),
			)
		})
	}
}
