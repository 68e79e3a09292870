package exchange

import (
	"fmt"
	"io"

	"github.com/dyuri/navroute/internal/model"
	kml "github.com/twpayne/go-kml"
)

// WriteKML writes the route as a KML document: one placemark per waypoint
// and a line through all of them.
func WriteKML(w io.Writer, route *model.Route) error {
	name := route.Name
	if name == "" {
		name = "Route"
	}

	children := []kml.Element{kml.Name(name)}

	var line []kml.Coordinate
	for _, wp := range route.Waypoints {
		c := kml.Coordinate{Lon: wp.Longitude, Lat: wp.Latitude}
		line = append(line, c)
		children = append(children, kml.Placemark(
			kml.Name(wp.Label),
			kml.Point(kml.Coordinates(c)),
		))
	}

	if len(line) > 1 {
		children = append(children, kml.Placemark(
			kml.Name(name),
			kml.LineString(
				kml.Tessellate(true),
				kml.Coordinates(line...),
			),
		))
	}

	k := kml.KML(kml.Document(children...))
	if err := k.WriteIndent(w, "", "  "); err != nil {
		return fmt.Errorf("encode kml: %w", err)
	}
	return nil
}
