package navroute

import "fmt"

// Validation levels
const (
	LevelError   = "error"
	LevelWarning = "warning"
)

// ValidationError represents a validation issue found in a route
type ValidationError struct {
	Field   string // Field name or location
	Message string // Error description
	Level   string // "error" or "warning"
}

func (v ValidationError) String() string {
	return v.Field + ": " + v.Message
}

// Validate checks a route for problems a device would reject or show
// badly. limit is the number of waypoints one file may hold; values below 1
// use MaximumPositionCount.
//
// Returns a list of validation errors/warnings. An empty list means
// the route is valid.
func Validate(route *Route, limit int) []ValidationError {
	if limit < 1 {
		limit = MaximumPositionCount
	}

	var issues []ValidationError
	add := func(level, field, format string, args ...any) {
		issues = append(issues, ValidationError{
			Field:   field,
			Message: fmt.Sprintf(format, args...),
			Level:   level,
		})
	}

	if route.Len() == 0 {
		add(LevelWarning, "route", "no waypoints")
	}
	if route.Len() > 255 {
		add(LevelError, "route", "%d waypoints do not fit the one byte count, split the route", route.Len())
	} else if route.Len() > limit {
		add(LevelWarning, "route", "%d waypoints exceed the limit of %d per file", route.Len(), limit)
	}

	for i, wp := range route.Waypoints {
		field := fmt.Sprintf("waypoint %d", i+1)
		if !wp.Valid() {
			add(LevelError, field, "invalid position %g,%g", wp.Longitude, wp.Latitude)
		}
		if wp.Label == "" {
			add(LevelWarning, field, "no label")
		}
		if wp.Longitude == 0 && wp.Latitude == 0 {
			add(LevelWarning, field, "position is 0,0")
		}
		if i > 0 && wp == route.Waypoints[i-1] {
			add(LevelWarning, field, "duplicate of the previous waypoint")
		}
	}

	return issues
}
