package lookup

import (
	"fmt"

	"parksmart_backend/internal/geo"
)

func addressPrompt(c geo.Coordinate) string {
	return fmt.Sprintf(
		"What is the approximate street address for coordinates %v, %v? Respond with ONLY the address string.",
		c.Latitude, c.Longitude,
	)
}

func searchPrompt(c geo.Coordinate, maxResults int, radiusKm float64) string {
	return fmt.Sprintf(`I am at GPS: %v, %v.
Identify the %d closest car parking lots or garages within %gkm of this precise location.
For each:
1. Exact Name
2. Estimated Availability (Available/Limited/Full)
3. Pricing level ($ - $$$)

Provide a brief summary of which one is the best option right now.`,
		c.Latitude, c.Longitude, maxResults, radiusKm)
}
