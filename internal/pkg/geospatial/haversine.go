// Package geospatial holds great-circle helpers used to derive stop distances
// from coordinates.
package geospatial

import "math"

const earthRadiusKm = 6371.0

// Haversine returns the great-circle distance in kilometres between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat, Lon float64
}

// CumulativeKm returns the running along-path distance at each point, starting
// at zero. Distances are rounded to metres.
func CumulativeKm(path []Point) []float64 {
	out := make([]float64, len(path))
	for i := 1; i < len(path); i++ {
		leg := Haversine(path[i-1].Lat, path[i-1].Lon, path[i].Lat, path[i].Lon)
		out[i] = math.Round((out[i-1]+leg)*1000) / 1000
	}
	return out
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
