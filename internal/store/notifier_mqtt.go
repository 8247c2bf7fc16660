package store

import (
	"context"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

const mqttTopicPrefix = "izi/doc/"

type mqttNotifier struct {
	client mqtt.Client
}

var _ Notifier = (*mqttNotifier)(nil)

var mqttConnectHandler mqtt.OnConnectHandler = func(client mqtt.Client) {
	log.Info().Msg("[notifier] connected to MQTT broker")
}

var mqttConnectLostHandler mqtt.ConnectionLostHandler = func(client mqtt.Client, err error) {
	log.Error().Err(err).Msg("[notifier] MQTT connection lost")
}

// NewMQTTNotifier connects to the broker and returns a Notifier that
// publishes document-change keys on per-document topics. Displays in
// venues where Redis is not reachable subscribe over MQTT instead.
func NewMQTTNotifier(brokerURL, clientID string) (Notifier, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.OnConnect = mqttConnectHandler
	opts.OnConnectionLost = mqttConnectLostHandler
	opts.SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &mqttNotifier{client: client}, nil
}

func (n *mqttNotifier) Publish(_ context.Context, key string) error {
	token := n.client.Publish(mqttTopicPrefix+key, 1, false, []byte(key))
	token.Wait()
	if token.Error() != nil {
		log.Error().Err(token.Error()).Str("key", key).Msg("[notifier] MQTT publish failed")
		return token.Error()
	}
	return nil
}

func (n *mqttNotifier) Subscribe(key string, fn func(key string)) (func(), error) {
	topic := mqttTopicPrefix + key
	handler := func(client mqtt.Client, msg mqtt.Message) {
		fn(key)
	}
	if token := n.client.Subscribe(topic, 1, handler); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, token.Error())
	}

	return func() {
		if token := n.client.Unsubscribe(topic); token.Wait() && token.Error() != nil {
			log.Error().Err(token.Error()).Str("topic", topic).Msg("[notifier] MQTT unsubscribe failed")
		}
	}, nil
}

func (n *mqttNotifier) Close() error {
	n.client.Disconnect(250)
	return nil
}
