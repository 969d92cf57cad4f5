// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"parksmart_backend/internal/geo"
	"parksmart_backend/internal/lookup"
	"parksmart_backend/internal/tracking"
	"parksmart_backend/platform/events"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewBaseEventAt = events.NewBaseEventAt
)

// =============================================================================
// Tracking Domain Events
// =============================================================================

// StateChanged is published after every session state transition.
type StateChanged struct {
	BaseEvent
	State tracking.State `json:"state"`
}

func (e StateChanged) EventName() string { return "tracking.state.changed" }

// LocationFixed is published for every accepted position fix.
type LocationFixed struct {
	BaseEvent
	Coordinate geo.Coordinate `json:"coordinate"`
	Accuracy   float64        `json:"accuracy,omitempty"`
}

func (e LocationFixed) EventName() string { return "tracking.location.fixed" }

// SensorFailed is published when the location sensor reports an error.
type SensorFailed struct {
	BaseEvent
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e SensorFailed) EventName() string { return "tracking.sensor.failed" }

// =============================================================================
// Search Domain Events
// =============================================================================

// SearchStarted is published when a lookup is issued.
type SearchStarted struct {
	BaseEvent
	Seq        uint64         `json:"seq"`
	Coordinate geo.Coordinate `json:"coordinate"`
	Forced     bool           `json:"forced"`
}

func (e SearchStarted) EventName() string { return "search.started" }

// SearchCompleted is published when the latest lookup succeeds.
type SearchCompleted struct {
	BaseEvent
	Seq        uint64         `json:"seq"`
	Coordinate geo.Coordinate `json:"coordinate"`
	Address    string         `json:"address"`
	Outcome    lookup.Outcome `json:"outcome"`
}

func (e SearchCompleted) EventName() string { return "search.completed" }

// SearchFailed is published when the latest lookup fails.
type SearchFailed struct {
	BaseEvent
	Seq        uint64         `json:"seq"`
	Coordinate geo.Coordinate `json:"coordinate"`
	Reason     string         `json:"reason"`
}

func (e SearchFailed) EventName() string { return "search.failed" }
