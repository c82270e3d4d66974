package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"
	"github.com/immersionlab/backend/config"
	"github.com/immersionlab/backend/pkg/pubsub"
	"github.com/stretchr/testify/require"
)

func TestPublisher_Publish(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if string(val) != `{"type":"level_up"}` {
			return errors.New("unexpected message " + string(val))
		}
		return nil
	})
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := newPublisher(producer)
	ctx := context.Background()

	err := p.Publish(ctx, "progression", &pubsub.Pack{Key: []byte("user1"), Msg: []byte(`{"type":"level_up"}`)})
	require.NoError(t, err)

	err = p.Publish(ctx, "progression", &pubsub.Pack{Key: []byte("user1"), Msg: []byte(`{}`)})
	require.ErrorIs(t, err, sarama.ErrOutOfBrokers)

	// A done context never reaches the producer.
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err = p.Publish(cancelled, "progression", &pubsub.Pack{Msg: []byte(`{}`)})
	require.ErrorIs(t, err, context.Canceled)

	require.NoError(t, p.Stop(ctx))
}

func TestNewPublisher_NoBroker(t *testing.T) {
	_, err := NewPublisher(config.KafkaConfigs{ClientID: "progression"})
	require.Error(t, err)
}
