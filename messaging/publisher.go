package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"lotto/events"
)

// StreamName is the JetStream stream holding lottery events
const StreamName = "lotto_events"

// MessagePublisher sends raw payloads to a subject
type MessagePublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Envelope wraps every published event
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

// NATSPublisher forwards bus events to NATS subjects named <prefix>.<event_type>
type NATSPublisher struct {
	client MessagePublisher
	prefix string
	now    func() time.Time
}

// NewNATSPublisher creates a publisher using the given subject prefix
func NewNATSPublisher(client MessagePublisher, prefix string) *NATSPublisher {
	return &NATSPublisher{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

// Subject returns the subject an event type is published to
func (p *NATSPublisher) Subject(eventType events.EventType) string {
	return fmt.Sprintf("%s.%s", p.prefix, eventType)
}

// Subjects lists every subject this publisher can write to
func (p *NATSPublisher) Subjects() []string {
	subjects := make([]string, 0, len(events.AllEventTypes))
	for _, t := range events.AllEventTypes {
		subjects = append(subjects, p.Subject(t))
	}
	return subjects
}

// Attach subscribes the publisher to every event type on the bus
func (p *NATSPublisher) Attach(bus *events.Bus) {
	bus.SubscribeAll(func(ctx context.Context, event events.Event) {
		if err := p.Publish(ctx, event); err != nil {
			log.WithFields(log.Fields{
				"eventType": event.Type(),
				"error":     err,
			}).Error("Failed to forward event to NATS")
		}
	})
}

// Publish serializes event into an envelope and sends it
func (p *NATSPublisher) Publish(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := Envelope{
		EventID:       uuid.New().String(),
		EventType:     string(event.Type()),
		Timestamp:     p.now().UTC(),
		SourceService: "lotto",
		Payload:       payload,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	subject := p.Subject(event.Type())
	if err := p.client.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"eventId":   envelope.EventID,
		"subject":   subject,
	}).Debug("Published event to NATS")
	return nil
}
