// internal/notify/amqp.go
package notify

import (
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

// EventPublisher mirrors raw webhook events onto a RabbitMQ queue so other
// systems (analytics, CRM sync) can consume them. Disabled when no broker
// URL is configured; publish failures are logged and dropped, the webhook
// path never depends on the broker.
type EventPublisher struct {
	URL   string
	Queue string
}

func NewEventPublisher(url, queue string) *EventPublisher {
	if queue == "" {
		queue = "webhook_events"
	}
	return &EventPublisher{URL: url, Queue: queue}
}

func (p *EventPublisher) Enabled() bool {
	return p != nil && p.URL != ""
}

type queuedEvent struct {
	EventType  string          `json:"event_type"`
	Payload    json.RawMessage `json:"payload"`
	ReceivedAt time.Time       `json:"received_at"`
}

// Publish mirrors one event. Each publish dials its own connection; at
// webhook volumes that is cheaper than babysitting a long-lived channel
// through broker restarts.
func (p *EventPublisher) Publish(eventType string, payload []byte) {
	if !p.Enabled() {
		return
	}

	body, err := json.Marshal(queuedEvent{
		EventType:  eventType,
		Payload:    payload,
		ReceivedAt: time.Now().UTC(),
	})
	if err != nil {
		logrus.WithError(err).Warn("event mirror marshal failed")
		return
	}

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		logrus.WithError(err).Warn("event mirror broker dial failed")
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logrus.WithError(err).Warn("event mirror channel open failed")
		return
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		p.Queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		logrus.WithError(err).Warn("event mirror queue declare failed")
		return
	}

	err = ch.Publish(
		"",
		q.Name,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		logrus.WithError(err).Warn("event mirror publish failed")
	}
}
