// Package locator wraps continuous position monitoring. A Source hands out
// Subscriptions that push Readings to a single consumer; the Tracker owns
// the active subscription and guarantees at most one is live.
package locator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"parksmart_backend/internal/geo"
)

// User-facing messages surfaced by the tracker.
const (
	MessageSensorFailure = "GPS signal weak or permission denied."
	MessageUnsupported   = "Geolocation is not supported on this device."
)

var (
	// ErrUnsupported means no location capability is configured at all.
	ErrUnsupported = errors.New(MessageUnsupported)
	// ErrNotWatching is returned when a reading is pushed with no live subscription.
	ErrNotWatching = errors.New("location tracking is not active")
)

// ErrorCode classifies sensor failures the way device geolocation APIs do.
type ErrorCode string

const (
	CodePermissionDenied    ErrorCode = "permission_denied"
	CodeTimeout             ErrorCode = "timeout"
	CodePositionUnavailable ErrorCode = "position_unavailable"
)

// ParseErrorCode validates a code received from a device.
func ParseErrorCode(s string) (ErrorCode, error) {
	switch ErrorCode(s) {
	case CodePermissionDenied, CodeTimeout, CodePositionUnavailable:
		return ErrorCode(s), nil
	default:
		return "", fmt.Errorf("unknown sensor error code %q", s)
	}
}

// SensorError is a failed position attempt.
type SensorError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message,omitempty"`
}

func (e *SensorError) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Options mirror the watch configuration of device geolocation APIs.
type Options struct {
	HighAccuracy bool
	Timeout      time.Duration
	// MaximumAge is the staleness tolerance measured against the device
	// timestamp. Zero accepts any fix received after the watch began.
	MaximumAge time.Duration
}

// DefaultOptions returns high accuracy, a 15s timeout and no cached fixes.
func DefaultOptions() Options {
	return Options{
		HighAccuracy: true,
		Timeout:      15 * time.Second,
		MaximumAge:   0,
	}
}

// Reading is either a fix or a sensor error.
type Reading struct {
	Coordinate geo.Coordinate `json:"coordinate"`
	Accuracy   float64        `json:"accuracy,omitempty"`
	At         time.Time      `json:"at"`
	Err        *SensorError   `json:"error,omitempty"`
}

// Fix builds a successful reading.
func Fix(c geo.Coordinate, accuracy float64, at time.Time) Reading {
	return Reading{Coordinate: c, Accuracy: accuracy, At: at}
}

// Failure builds an error reading.
func Failure(code ErrorCode, message string, at time.Time) Reading {
	return Reading{At: at, Err: &SensorError{Code: code, Message: message}}
}

// Source starts position monitoring sessions.
type Source interface {
	Watch(ctx context.Context, opts Options) (Subscription, error)
}

// Subscription is one monitoring session. Readings is closed once the
// subscription ends; Close is idempotent.
type Subscription interface {
	Readings() <-chan Reading
	Close()
}
