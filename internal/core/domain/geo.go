package domain

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// IsZero reports whether the point was never set.
func (p GeoPoint) IsZero() bool {
	return p.Lat == 0 && p.Lon == 0
}
