// Package exchange converts routes to and from the GPX and KML formats
// other navigation tools understand.
package exchange

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/dyuri/navroute/internal/model"
	"github.com/twpayne/go-gpx"
)

const creator = "navroute"

// ReadGPX reads the first route of a GPX document.
//
// Documents without a <rte> fall back to their top-level waypoints, and
// then to the points of the first track.
func ReadGPX(r io.Reader) (*model.Route, error) {
	g, err := gpx.Read(r)
	if err != nil {
		return nil, fmt.Errorf("decode gpx: %w", err)
	}

	route := model.NewRoute("")
	var points []*gpx.WptType

	switch {
	case len(g.Rte) > 0:
		route.Name = g.Rte[0].Name
		points = g.Rte[0].RtePt
	case len(g.Wpt) > 0:
		points = g.Wpt
	case len(g.Trk) > 0:
		route.Name = g.Trk[0].Name
		for _, seg := range g.Trk[0].TrkSeg {
			points = append(points, seg.TrkPt...)
		}
	}
	if route.Name == "" && g.Metadata != nil {
		route.Name = g.Metadata.Name
	}

	for i, pt := range points {
		route.Append(model.Waypoint{
			Longitude: pt.Lon,
			Latitude:  pt.Lat,
			Label:     gpxLabel(pt, i),
		})
	}

	return route, nil
}

// gpxLabel picks the most descriptive text of a GPX point
func gpxLabel(pt *gpx.WptType, i int) string {
	for _, s := range []string{pt.Name, pt.Desc, pt.Cmt} {
		if s != "" {
			return s
		}
	}
	return fmt.Sprintf("Position %d", i+1)
}

// WriteGPX writes the route as a GPX 1.1 document with a single <rte>
func WriteGPX(w io.Writer, route *model.Route) error {
	rte := &gpx.RteType{Name: route.Name}
	for _, wp := range route.Waypoints {
		rte.RtePt = append(rte.RtePt, &gpx.WptType{
			Lat:  wp.Latitude,
			Lon:  wp.Longitude,
			Name: wp.Label,
		})
	}

	g := &gpx.GPX{
		Version: "1.1",
		Creator: creator,
		Rte:     []*gpx.RteType{rte},
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	if err := g.WriteIndent(w, "", "  "); err != nil {
		return fmt.Errorf("encode gpx: %w", err)
	}
	return nil
}
