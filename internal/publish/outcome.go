// Package publish forwards completed parking searches to an MQTT topic
// so that displays and other consumers can follow along.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"parksmart_backend/internal/events"
	"parksmart_backend/internal/geo"
	"parksmart_backend/internal/lookup"
	"parksmart_backend/platform/logger"
)

const publishTimeout = 5 * time.Second

// Publisher sends a payload to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// Message is the JSON document published per search.
type Message struct {
	Seq        uint64             `json:"seq"`
	Coordinate geo.Coordinate     `json:"coordinate"`
	Address    string             `json:"address"`
	Narrative  string             `json:"narrativeSummary"`
	Candidates []lookup.Candidate `json:"candidates"`
	Timestamp  time.Time          `json:"timestamp"`
}

// OutcomePublisher is an event handler for events.SearchCompleted.
type OutcomePublisher struct {
	publisher Publisher
	topic     string
	log       *logger.Logger
}

func NewOutcomePublisher(p Publisher, topic string, log *logger.Logger) *OutcomePublisher {
	return &OutcomePublisher{publisher: p, topic: topic, log: log}
}

// RegisterHandlers subscribes to search completion events.
func (o *OutcomePublisher) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.SearchCompleted{}.EventName(), o)
}

func (o *OutcomePublisher) Handle(ctx context.Context, event events.Event) error {
	e, ok := event.(events.SearchCompleted)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	payload, err := json.Marshal(Message{
		Seq:        e.Seq,
		Coordinate: e.Coordinate,
		Address:    e.Address,
		Narrative:  e.Outcome.Narrative,
		Candidates: e.Outcome.Candidates,
		Timestamp:  e.OccurredAt(),
	})
	if err != nil {
		return fmt.Errorf("encode outcome: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := o.publisher.Publish(ctx, o.topic, payload); err != nil {
		return fmt.Errorf("publish outcome to %s: %w", o.topic, err)
	}
	o.log.Debug("outcome published", "topic", o.topic, "seq", e.Seq, "candidates", len(e.Outcome.Candidates))
	return nil
}

var _ events.Handler = (*OutcomePublisher)(nil)
