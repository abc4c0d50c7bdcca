package pubsub

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/echo-chat/relay-service/config"
)

// NewPublisher builds the out-of-band bus publisher. With a configured
// broker URL events go to RabbitMQ; otherwise an in-process GoChannel bus
// serves local subscribers.
func NewPublisher(cfg *config.Config, logger watermill.LoggerAdapter) (message.Publisher, error) {
	if cfg.Broker.URL == "" {
		return gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 64,
		}, logger), nil
	}

	amqpConfig := amqp.NewDurablePubSubConfig(cfg.Broker.URL, amqp.GenerateQueueNameTopicName)
	pub, err := amqp.NewPublisher(amqpConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("pubsub: amqp publisher: %w", err)
	}
	return pub, nil
}
