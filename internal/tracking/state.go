// Package tracking holds the observable state of a parking session.
package tracking

import (
	"time"

	"parksmart_backend/internal/geo"
	"parksmart_backend/internal/lookup"
)

const (
	AddressLocating   = "Locating..."
	AddressRetrieving = "Retrieving address..."
)

// SensorOptions is the watch configuration a device should apply,
// expressed in milliseconds like device geolocation APIs.
type SensorOptions struct {
	HighAccuracy bool  `json:"enableHighAccuracy"`
	TimeoutMs    int64 `json:"timeout"`
	MaximumAgeMs int64 `json:"maximumAge"`
}

// State is a point-in-time copy of the session. Values handed out are
// never mutated afterwards.
type State struct {
	Version             uint64          `json:"version"`
	LastCoordinate      *geo.Coordinate `json:"lastCoordinate"`
	Accuracy            float64         `json:"accuracy,omitempty"`
	LastQueryCoordinate *geo.Coordinate `json:"lastQueryCoordinate"`
	LastSync            *time.Time      `json:"lastSync"`
	PermissionDenied    bool            `json:"permissionDenied"`
	Loading             bool            `json:"loading"`
	Refreshing          bool            `json:"refreshing"`
	Error               string          `json:"error,omitempty"`
	Address             string          `json:"address,omitempty"`
	Outcome             *lookup.Outcome `json:"outcome"`
	Visible             bool            `json:"visible"`
	Tracking            bool            `json:"tracking"`
	Supported           bool            `json:"supported"`
	Sensor              SensorOptions   `json:"sensor"`
}

// DisplayAddress is the address line shown to the user.
func (s State) DisplayAddress() string {
	if s.Address != "" {
		return s.Address
	}
	if s.Loading {
		return AddressLocating
	}
	return AddressRetrieving
}

// Busy reports whether a lookup is in flight.
func (s State) Busy() bool {
	return s.Loading || s.Refreshing
}

// Clone returns a copy that shares no mutable pointers with s. The
// outcome is shared because outcomes are immutable once built.
func (s State) Clone() State {
	out := s
	if s.LastCoordinate != nil {
		c := *s.LastCoordinate
		out.LastCoordinate = &c
	}
	if s.LastQueryCoordinate != nil {
		c := *s.LastQueryCoordinate
		out.LastQueryCoordinate = &c
	}
	if s.LastSync != nil {
		t := *s.LastSync
		out.LastSync = &t
	}
	return out
}
