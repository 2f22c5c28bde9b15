package app

import (
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// Publisher delivers an encoded payload to a topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
	Close()
}

type mqttPublisher struct {
	client mqtt.Client
}

// NewMQTTPublisher connects to broker. A short random suffix keeps client IDs
// unique when several receivers share a broker.
func NewMQTTPublisher(broker, clientID string) (Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(uniqueClientID(clientID)).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT connect %s: %w", broker, token.Error())
	}
	log.Printf("connected to MQTT broker at %s", broker)
	return &mqttPublisher{client: client}, nil
}

func (p *mqttPublisher) Publish(topic string, payload []byte) error {
	token := p.client.Publish(topic, 0, true, payload)
	token.Wait()
	return token.Error()
}

func (p *mqttPublisher) Close() {
	p.client.Disconnect(250)
}

func uniqueClientID(base string) string {
	return base + "-" + uuid.NewString()[:8]
}
