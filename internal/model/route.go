package model

import "math"

// Route represents a navigation route in a format-agnostic way.
// This is the unified internal representation used for conversion between
// the binary .route format, text, GPX and KML.
type Route struct {
	Name      string     // Display name (optional, the binary format does not store it)
	Waypoints []Waypoint // Waypoints in driving order
}

// Waypoint is a single route position
type Waypoint struct {
	Longitude float64 // Degrees east, WGS84
	Latitude  float64 // Degrees north, WGS84
	Label     string  // Free text shown by the device (street, city, ...)
}

// NewRoute creates a new empty route
func NewRoute(name string) *Route {
	return &Route{
		Name:      name,
		Waypoints: make([]Waypoint, 0),
	}
}

// Len returns the number of waypoints
func (r *Route) Len() int {
	return len(r.Waypoints)
}

// Append adds a waypoint at the end of the route
func (r *Route) Append(wp Waypoint) {
	r.Waypoints = append(r.Waypoints, wp)
}

// Insert adds a waypoint before index i. Indices past the end append.
func (r *Route) Insert(i int, wp Waypoint) {
	if i < 0 {
		i = 0
	}
	if i >= len(r.Waypoints) {
		r.Append(wp)
		return
	}
	r.Waypoints = append(r.Waypoints, Waypoint{})
	copy(r.Waypoints[i+1:], r.Waypoints[i:])
	r.Waypoints[i] = wp
}

// Slice returns a copy of the waypoints in [start, end) as a new route with
// the same name. Bounds are clamped to the route.
func (r *Route) Slice(start, end int) *Route {
	start = max(0, min(start, len(r.Waypoints)))
	end = max(start, min(end, len(r.Waypoints)))

	out := NewRoute(r.Name)
	out.Waypoints = append(out.Waypoints, r.Waypoints[start:end]...)
	return out
}

// Valid reports whether the waypoint has finite coordinates in WGS84 range
func (w Waypoint) Valid() bool {
	if math.IsNaN(w.Longitude) || math.IsNaN(w.Latitude) ||
		math.IsInf(w.Longitude, 0) || math.IsInf(w.Latitude, 0) {
		return false
	}
	return w.Longitude >= -180 && w.Longitude <= 180 &&
		w.Latitude >= -90 && w.Latitude <= 90
}
