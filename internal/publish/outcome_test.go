package publish

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"parksmart_backend/internal/events"
	"parksmart_backend/internal/geo"
	"parksmart_backend/internal/lookup"
	platformevents "parksmart_backend/platform/events"
	"parksmart_backend/platform/logger"
)

type recordingPublisher struct {
	topic   string
	payload []byte
	err     error
}

func (r *recordingPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	r.topic = topic
	r.payload = payload
	return r.err
}

func completed() events.SearchCompleted {
	return events.SearchCompleted{
		BaseEvent:  events.NewBaseEvent(),
		Seq:        7,
		Coordinate: geo.Coordinate{Latitude: 1, Longitude: 2},
		Address:    "Damrak 1",
		Outcome: lookup.Outcome{
			Narrative:  "P1 is best",
			Candidates: []lookup.Candidate{{ID: "slot-0", Name: "P1"}},
		},
	}
}

func TestOutcomePublishedThroughBus(t *testing.T) {
	rec := &recordingPublisher{}
	bus := platformevents.NewInMemoryBus(logger.Discard())
	NewOutcomePublisher(rec, "parksmart/outcomes", logger.Discard()).RegisterHandlers(bus)

	if err := bus.PublishSync(context.Background(), completed()); err != nil {
		t.Fatalf("publish returned error: %v", err)
	}
	if rec.topic != "parksmart/outcomes" {
		t.Fatalf("unexpected topic %q", rec.topic)
	}

	var msg Message
	if err := json.Unmarshal(rec.payload, &msg); err != nil {
		t.Fatalf("payload is not json: %v", err)
	}
	if msg.Seq != 7 || msg.Address != "Damrak 1" || len(msg.Candidates) != 1 || msg.Narrative != "P1 is best" {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func TestPublishErrorIsReturned(t *testing.T) {
	rec := &recordingPublisher{err: errors.New("offline")}
	p := NewOutcomePublisher(rec, "t", logger.Discard())
	if err := p.Handle(context.Background(), completed()); err == nil {
		t.Fatalf("expected publish error")
	}
}

func TestRejectsOtherEvents(t *testing.T) {
	p := NewOutcomePublisher(&recordingPublisher{}, "t", logger.Discard())
	if err := p.Handle(context.Background(), events.SearchFailed{}); err == nil {
		t.Fatalf("expected type error")
	}
}
