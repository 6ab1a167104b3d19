package attendance

import "math"

const earthRadiusM = 6371000

// Geofence is the station boundary check. The result is displayed alongside a
// punch but never enforced by this layer.
type Geofence struct {
	Latitude  float64
	Longitude float64
	RadiusM   float64
}

// DistanceM returns the great-circle distance in meters between the station
// and the given coordinates.
func (g Geofence) DistanceM(lat, lng float64) float64 {
	lat1 := lat * math.Pi / 180
	lat2 := g.Latitude * math.Pi / 180
	dLat := (g.Latitude - lat) * math.Pi / 180
	dLng := (g.Longitude - lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusM * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Contains reports whether the coordinates fall inside the station radius.
func (g Geofence) Contains(lat, lng float64) bool {
	return g.DistanceM(lat, lng) <= g.RadiusM
}
