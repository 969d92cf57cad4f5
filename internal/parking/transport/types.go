// Package transport defines the request and response bodies of the
// parking HTTP API.
package transport

import (
	"time"

	"parksmart_backend/internal/geo"
	"parksmart_backend/internal/locator"
	"parksmart_backend/internal/tracking"
	"parksmart_backend/platform/sanitize"
)

// LocationRequest is one position fix reported by the device.
// Timestamp is milliseconds since the Unix epoch; zero means now.
type LocationRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
	Accuracy  float64  `json:"accuracy" validate:"gte=0"`
	Timestamp int64    `json:"timestamp" validate:"gte=0"`
}

// Reading converts the request into a sensor reading.
func (r LocationRequest) Reading() locator.Reading {
	var at time.Time
	if r.Timestamp > 0 {
		at = time.UnixMilli(r.Timestamp)
	}
	return locator.Fix(geo.Coordinate{Latitude: *r.Latitude, Longitude: *r.Longitude}, r.Accuracy, at)
}

// SensorErrorRequest reports a failed position attempt.
type SensorErrorRequest struct {
	Code    string `json:"code" validate:"required,oneof=permission_denied timeout position_unavailable"`
	Message string `json:"message" validate:"max=500"`
}

// Reading converts the request into a sensor failure reading. The device
// message is reduced to plain single-line text.
func (r SensorErrorRequest) Reading() locator.Reading {
	return locator.Failure(locator.ErrorCode(r.Code), sanitize.Text(r.Message), time.Time{})
}

// VisibilityRequest toggles whether the display is in the foreground.
type VisibilityRequest struct {
	Visible *bool `json:"visible" validate:"required"`
}

// StateResponse is the session snapshot plus derived display fields.
type StateResponse struct {
	tracking.State
	DisplayAddress string `json:"displayAddress"`
	Coordinates    string `json:"coordinates,omitempty"`
}

// NewStateResponse decorates a snapshot for clients.
func NewStateResponse(s tracking.State) StateResponse {
	resp := StateResponse{State: s, DisplayAddress: s.DisplayAddress()}
	if s.LastCoordinate != nil {
		resp.Coordinates = s.LastCoordinate.String()
	}
	return resp
}

// DirectionsResponse carries the navigation URL for a candidate.
type DirectionsResponse struct {
	URL string `json:"url"`
}

// Frame is one WebSocket message from the device. Type is "fix" or "error".
type Frame struct {
	Type      string   `json:"type" validate:"required,oneof=fix error"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Accuracy  float64  `json:"accuracy,omitempty"`
	Timestamp int64    `json:"timestamp,omitempty"`
	Code      string   `json:"code,omitempty"`
	Message   string   `json:"message,omitempty"`
}

// FrameReply acknowledges a WebSocket frame.
type FrameReply struct {
	Type  string `json:"type"`
	Error string `json:"error,omitempty"`
}
