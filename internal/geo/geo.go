// Package geo holds the coordinate value type, the movement gate that
// decides whether a new position warrants a fresh lookup, and the
// navigation handoff URL.
package geo

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// DefaultMovementThreshold is the planar distance, in raw degrees, a
// position must move before a non-forced lookup runs (~50 m at
// mid-latitudes).
const DefaultMovementThreshold = 0.0005

// Coordinate is an immutable latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// String formats the coordinate with five decimals, matching the GPS line
// shown to the user.
func (c Coordinate) String() string {
	return fmt.Sprintf("%.5f, %.5f", c.Latitude, c.Longitude)
}

// Offset returns the coordinate shifted by the given degree deltas.
func (c Coordinate) Offset(dLat, dLng float64) Coordinate {
	return Coordinate{Latitude: c.Latitude + dLat, Longitude: c.Longitude + dLng}
}

// DegreeDistance is the Euclidean distance between the raw degree values.
// No geodesic correction is applied. Computed as sqrt(dx*dx+dy*dy) rather
// than math.Hypot so results at the threshold round the same way as the
// web client.
func DegreeDistance(a, b Coordinate) float64 {
	dLat := a.Latitude - b.Latitude
	dLng := a.Longitude - b.Longitude
	return math.Sqrt(dLat*dLat + dLng*dLng)
}

// Gate filters GPS jitter out of the lookup trigger path.
type Gate struct {
	Threshold float64
}

// NewGate returns a gate with the given threshold; non-positive values
// fall back to DefaultMovementThreshold.
func NewGate(threshold float64) Gate {
	if threshold <= 0 {
		threshold = DefaultMovementThreshold
	}
	return Gate{Threshold: threshold}
}

// ShouldQuery reports whether a lookup should run for current given the
// coordinate of the last successful lookup (nil when there was none).
func (g Gate) ShouldQuery(previous *Coordinate, current Coordinate, forced bool) bool {
	if forced || previous == nil {
		return true
	}
	threshold := g.Threshold
	if threshold <= 0 {
		threshold = DefaultMovementThreshold
	}
	return DegreeDistance(*previous, current) >= threshold
}

const directionsBaseURL = "https://www.google.com/maps/dir/?api=1"

// DirectionsURL returns mapURI when set, otherwise a driving-directions
// search from origin to the destination name.
func DirectionsURL(origin Coordinate, destinationName, mapURI string) string {
	if mapURI != "" {
		return mapURI
	}
	var b strings.Builder
	b.WriteString(directionsBaseURL)
	b.WriteString("&origin=")
	b.WriteString(formatDegrees(origin.Latitude))
	b.WriteString(",")
	b.WriteString(formatDegrees(origin.Longitude))
	b.WriteString("&destination=")
	b.WriteString(escapeComponent(destinationName))
	b.WriteString("&travelmode=driving")
	return b.String()
}

func formatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// escapeComponent percent-encodes spaces as %20 rather than '+'.
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
