package tracking

import (
	"testing"
	"time"

	"parksmart_backend/internal/geo"
)

func TestDisplayAddressFallbacks(t *testing.T) {
	if got := (State{Address: "Damrak 1"}).DisplayAddress(); got != "Damrak 1" {
		t.Fatalf("unexpected address %q", got)
	}
	if got := (State{Loading: true}).DisplayAddress(); got != AddressLocating {
		t.Fatalf("expected locating placeholder, got %q", got)
	}
	if got := (State{}).DisplayAddress(); got != AddressRetrieving {
		t.Fatalf("expected retrieving placeholder, got %q", got)
	}
}

func TestCloneDetachesPointers(t *testing.T) {
	now := time.Now()
	s := State{
		LastCoordinate:      &geo.Coordinate{Latitude: 1, Longitude: 2},
		LastQueryCoordinate: &geo.Coordinate{Latitude: 3, Longitude: 4},
		LastSync:            &now,
	}
	c := s.Clone()
	s.LastCoordinate.Latitude = 9
	s.LastQueryCoordinate.Latitude = 9

	if c.LastCoordinate.Latitude != 1 || c.LastQueryCoordinate.Latitude != 3 {
		t.Fatalf("clone shares coordinate storage")
	}
	if c.LastSync == s.LastSync {
		t.Fatalf("clone shares timestamp storage")
	}
}
