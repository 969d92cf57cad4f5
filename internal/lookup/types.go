package lookup

import (
	"time"

	"parksmart_backend/internal/geo"
)

// Availability is the coarse availability tier shown for a facility.
type Availability string

const (
	AvailabilityAvailable Availability = "Available"
	AvailabilityLimited   Availability = "Limited"
	AvailabilityFull      Availability = "Full"
	AvailabilityUnknown   Availability = "Unknown"
)

// DefaultRating is displayed when a candidate carries no rating.
const DefaultRating = 4.5

// Candidate is one parking facility derived from a grounding reference.
// Candidates are built once per search and never mutated.
type Candidate struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Address          string         `json:"address"`
	DistanceLabel    string         `json:"distanceLabel"`
	Rating           *float64       `json:"rating,omitempty"`
	PriceEstimate    string         `json:"priceEstimate,omitempty"`
	Availability     Availability   `json:"availability"`
	OccupancyPercent int            `json:"occupancyPercent"`
	LastUpdatedLabel string         `json:"lastUpdatedLabel"`
	ExternalMapURI   string         `json:"externalMapUri,omitempty"`
	Coordinate       geo.Coordinate `json:"coordinate"`
}

// DisplayRating returns the rating or DefaultRating when absent.
func (c Candidate) DisplayRating() float64 {
	if c.Rating == nil {
		return DefaultRating
	}
	return *c.Rating
}

// Reference is a grounding source returned alongside the narrative.
type Reference struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Outcome is the result of one successful parking search.
type Outcome struct {
	ID          string         `json:"id"`
	Candidates  []Candidate    `json:"candidates"`
	Narrative   string         `json:"narrativeSummary"`
	References  []Reference    `json:"sourceReferences"`
	Origin      geo.Coordinate `json:"origin"`
	CompletedAt time.Time      `json:"completedAt"`
}

// Candidate finds a candidate by id.
func (o *Outcome) Candidate(id string) (Candidate, bool) {
	if o == nil {
		return Candidate{}, false
	}
	for _, c := range o.Candidates {
		if c.ID == id {
			return c, true
		}
	}
	return Candidate{}, false
}

// Result pairs a search outcome with the resolved address of its origin.
type Result struct {
	Address string  `json:"address"`
	Outcome Outcome `json:"outcome"`
}
