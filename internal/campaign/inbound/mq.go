package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/shandysiswandi/mailblast/internal/pkg/config"
	"github.com/shandysiswandi/mailblast/internal/pkg/goroutine"
	"github.com/shandysiswandi/mailblast/internal/pkg/instrument"
	"github.com/shandysiswandi/mailblast/internal/pkg/messaging"
	"github.com/shandysiswandi/mailblast/internal/pkg/uid"
	"github.com/shandysiswandi/mailblast/internal/shared/event"
)

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Messaging,
	uuid uid.StringID,
	uc ucConsumer,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.campaign.consumer_names")

	var consumers = []struct {
		name               string
		topic              string // destination where publisher sent message
		nsqConsumerName    string // for nsq
		natsConsumerName   string // for nats
		kafkaConsumerName  string // for kafka
		pubsubConsumerName string // for google pubsub
		handler            messaging.Handler
	}{
		{
			name:               event.CampaignSendDestinationConsumerDelivery,
			topic:              event.CampaignSendDestination,
			nsqConsumerName:    event.CampaignSendDestinationConsumerDelivery,
			natsConsumerName:   event.CampaignSendDestinationConsumerDelivery,
			kafkaConsumerName:  event.CampaignSendDestinationConsumerDelivery,
			pubsubConsumerName: event.CampaignSendDestinationConsumerDelivery,
			handler:            mqHandler.CampaignSendDelivery,
		},
	}

	for _, consumer := range consumers {
		if len(enableConsumerNames) > 0 && slices.Contains(enableConsumerNames, consumer.name) {
			routine.Go(ctx, func(pCtx context.Context) error {
				slog.InfoContext(ctx, "Running job for handling consumer", "consumer", consumer.name)
				// one campaign at a time keeps a single loop on the mail transport
				return messenger.Consume(pCtx,
					consumer.topic,
					consumer.handler,
					messaging.WithChannel(consumer.nsqConsumerName),
					messaging.WithQueueGroup(consumer.natsConsumerName),
					messaging.WithGroup(consumer.kafkaConsumerName),
					messaging.WithSubscription(consumer.pubsubConsumerName),
					messaging.WithAutoAck(false),
					messaging.WithConcurrency(1),
					messaging.WithMaxInFlight(1),
				)
			})
		}
	}
}
