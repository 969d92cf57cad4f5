// Package notification fans domain events out to connected clients.
// It is not HTTP-facing; the SSE endpoint is mounted by the parking module.
package notification

import (
	"context"
	"fmt"

	"parksmart_backend/internal/events"
	"parksmart_backend/internal/notification/sse"
	"parksmart_backend/platform/logger"
)

// Module forwards session events to the SSE service.
type Module struct {
	sse *sse.Service
	log *logger.Logger
}

func New(svc *sse.Service, log *logger.Logger) *Module {
	return &Module{sse: svc, log: log}
}

// SSE returns the shared SSE service.
func (m *Module) SSE() *sse.Service {
	return m.sse
}

// RegisterHandlers subscribes to the events clients care about.
// StateChanged is delivered synchronously by the session, so the handler
// must never block; Broadcast drops events for slow clients instead.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.StateChanged{}.EventName(), events.HandlerFunc(m.handleStateChanged))
	bus.Subscribe(events.SearchCompleted{}.EventName(), events.HandlerFunc(m.handleSearchCompleted))
	bus.Subscribe(events.SearchFailed{}.EventName(), events.HandlerFunc(m.handleSearchFailed))
	bus.Subscribe(events.SensorFailed{}.EventName(), events.HandlerFunc(m.handleSensorFailed))
}

func (m *Module) handleStateChanged(_ context.Context, event events.Event) error {
	e, ok := event.(events.StateChanged)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	m.sse.Broadcast(StateEvent(e))
	return nil
}

func (m *Module) handleSearchCompleted(_ context.Context, event events.Event) error {
	e, ok := event.(events.SearchCompleted)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	m.sse.Broadcast(sse.Event{
		Type:    sse.EventSearchCompleted,
		Message: fmt.Sprintf("%d parking spots nearby", len(e.Outcome.Candidates)),
		Data:    map[string]interface{}{"seq": e.Seq, "outcomeId": e.Outcome.ID},
	})
	return nil
}

func (m *Module) handleSearchFailed(_ context.Context, event events.Event) error {
	e, ok := event.(events.SearchFailed)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	m.sse.Broadcast(sse.Event{
		Type: sse.EventSearchFailed,
		Data: map[string]interface{}{"seq": e.Seq},
	})
	return nil
}

func (m *Module) handleSensorFailed(_ context.Context, event events.Event) error {
	e, ok := event.(events.SensorFailed)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	m.sse.Broadcast(sse.Event{
		Type: sse.EventSensorFailed,
		Data: map[string]interface{}{"code": e.Code},
	})
	return nil
}

// StateEvent wraps a state snapshot for SSE delivery.
func StateEvent(e events.StateChanged) sse.Event {
	return sse.Event{Type: sse.EventStateChanged, Data: e.State}
}
