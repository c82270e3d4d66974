package pubsub

import "context"

// Pack is a single message sent through a Publisher. Key decides the
// partition, so all messages of a key keep their order.
type Pack struct {
	Key []byte
	Msg []byte
}

type Publisher interface {
	Publish(context.Context, string, *Pack) error
	Stop(context.Context) error
}
