package lookup

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
	"unicode/utf16"

	"parksmart_backend/internal/geo"
)

const (
	placeholderAddress = "Address available on map"
	candidateSpacing   = 0.0015
)

// Placeholder fills the display fields the grounding references do not
// carry. None of its values are real telemetry: occupancy is derived from
// the title and rank, rating and price are random filler, and coordinates
// are fixed offsets from the search origin.
type Placeholder struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewPlaceholder returns a generator drawing filler values from rng.
// A nil rng uses a randomly seeded source.
func NewPlaceholder(rng *rand.Rand, now func() time.Time) *Placeholder {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if now == nil {
		now = time.Now
	}
	return &Placeholder{rng: rng, now: now}
}

// Candidates builds one candidate per reference, preserving order.
func (p *Placeholder) Candidates(outcomeID string, origin geo.Coordinate, refs []Reference) []Candidate {
	now := p.now()
	updated := fmt.Sprintf("%d:%02d", now.Hour(), now.Minute())
	prefix := outcomeID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	candidates := make([]Candidate, 0, len(refs))
	for i, ref := range refs {
		occupancy := Occupancy(ref.Title, i)
		rating := 4.2 + p.rng.Float64()*0.6
		step := float64(i+1) * candidateSpacing
		candidates = append(candidates, Candidate{
			ID:               fmt.Sprintf("slot-%d-%s", i, prefix),
			Name:             ref.Title,
			Address:          placeholderAddress,
			DistanceLabel:    DistanceLabel(i),
			Rating:           &rating,
			PriceEstimate:    strings.Repeat("$", p.rng.IntN(3)+1),
			Availability:     AvailabilityFor(occupancy),
			OccupancyPercent: occupancy,
			LastUpdatedLabel: updated,
			ExternalMapURI:   ref.URI,
			Coordinate:       origin.Offset(step, step),
		})
	}
	return candidates
}

// Occupancy is ((len(title)+index)*17) mod 100, with the title length
// counted in UTF-16 code units.
func Occupancy(title string, index int) int {
	length := len(utf16.Encode([]rune(title)))
	return ((length + index) * 17) % 100
}

// AvailabilityFor maps an occupancy percentage onto a tier.
func AvailabilityFor(occupancy int) Availability {
	switch {
	case occupancy > 90:
		return AvailabilityFull
	case occupancy > 60:
		return AvailabilityLimited
	default:
		return AvailabilityAvailable
	}
}

// DistanceLabel is the rank-based distance shown for the i-th candidate.
func DistanceLabel(index int) string {
	return fmt.Sprintf("%.1f km", 0.1+float64(index)*0.25)
}
