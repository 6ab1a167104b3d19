package attendance

import "testing"

func TestGeofenceDistance(t *testing.T) {
	// Station at the Greenwich observatory; a point ~111m north.
	g := Geofence{Latitude: 51.4779, Longitude: -0.0015, RadiusM: 250}

	d := g.DistanceM(51.4789, -0.0015)
	if d < 100 || d > 125 {
		t.Fatalf("expected roughly 111m, got %.1f", d)
	}
	if !g.Contains(51.4789, -0.0015) {
		t.Fatalf("point inside radius reported outside")
	}
	if g.Contains(51.4979, -0.0015) {
		t.Fatalf("point ~2km away reported inside a 250m radius")
	}
}

func TestGeofenceZeroDistance(t *testing.T) {
	g := Geofence{Latitude: 40.0, Longitude: -75.0, RadiusM: 50}
	if d := g.DistanceM(40.0, -75.0); d != 0 {
		t.Fatalf("expected zero distance at the station, got %f", d)
	}
}
