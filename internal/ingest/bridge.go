package ingest

import (
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"codeberg.org/mutker/kscand/internal/errors"
	"codeberg.org/mutker/kscand/internal/logger"
)

const (
	ErrConnectFailed   = errors.ErrorCode("ingest_connect_failed")
	ErrSubscribeFailed = errors.ErrorCode("ingest_subscribe_failed")

	connectTimeout = 10 * time.Second
	retryInterval  = 5 * time.Second
)

// Bridge subscribes to the transition topic on an MQTT broker and pumps
// events into the sink.
type Bridge struct {
	client paho.Client
	topic  string
}

// NewBridge connects to the broker and subscribes. The subscription
// handler runs on paho's own goroutine; the sink is responsible for its
// own locking.
func NewBridge(broker, clientID, topic string, sink Sink) (*Bridge, error) {
	errFactory := errors.New()

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(retryInterval).
		SetOnConnectHandler(func(c paho.Client) {
			// Re-subscribe after every (re)connect.
			token := c.Subscribe(topic, 0, func(_ paho.Client, msg paho.Message) {
				Forward(sink, msg.Payload())
			})
			token.Wait()
			if err := token.Error(); err != nil {
				logger.Error().Str("topic", topic).Str("error", err.Error()).
					Msg("Failed to subscribe to transition topic")
				return
			}
			logger.Info().Str("topic", topic).Msg("Subscribed to transition topic")
		})

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, errFactory.WithMessage(ErrConnectFailed, "connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, errFactory.Wrap(ErrConnectFailed, err)
	}

	return &Bridge{client: client, topic: topic}, nil
}

// Close unsubscribes and disconnects from the broker.
func (b *Bridge) Close() error {
	if b.client.IsConnected() {
		b.client.Unsubscribe(b.topic)
	}
	b.client.Disconnect(1000)
	return nil
}
