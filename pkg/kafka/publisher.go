package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shopify/sarama"
	"github.com/immersionlab/backend/config"
	"github.com/immersionlab/backend/pkg/pubsub"
)

// publisher sends every pack synchronously. Packs with the same key always go
// to the same partition, so they are consumed in the order they were sent.
type publisher struct {
	producer sarama.SyncProducer
}

func NewPublisher(cfg config.KafkaConfigs) (*publisher, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("require at least one kafka broker")
	}

	saramaCfg := sarama.NewConfig()
	saramaCfg.ClientID = cfg.ClientID
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Partitioner = sarama.NewHashPartitioner
	saramaCfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(cfg.Addrs, saramaCfg)
	if err != nil {
		return nil, err
	}

	return newPublisher(producer), nil
}

func newPublisher(producer sarama.SyncProducer) *publisher {
	return &publisher{producer: producer}
}

func (p *publisher) Stop(ctx context.Context) error {
	return p.producer.Close()
}

func (p *publisher) Publish(ctx context.Context, topic string, pack *pubsub.Pack) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.ByteEncoder(pack.Key),
		Value: sarama.ByteEncoder(pack.Msg),
	}

	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("send message to %s: %w", topic, err)
	}

	return nil
}
