package text

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dyuri/navroute/internal/model"
)

// Writer handles writing routes to the sectioned text format
type Writer struct {
	w *bufio.Writer
}

// NewWriter creates a new text format writer
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write outputs the route in text format
func (w *Writer) Write(route *model.Route) error {
	// Write route section
	if err := w.writeRoute(route); err != nil {
		return fmt.Errorf("write route: %w", err)
	}

	// Write waypoints
	for i, wp := range route.Waypoints {
		if err := w.writeWaypoint(wp); err != nil {
			return fmt.Errorf("write waypoint %d: %w", i, err)
		}
	}

	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// writeRoute writes the [_route] section
func (w *Writer) writeRoute(route *model.Route) error {
	// Format:
	// [_route]
	// Name=Test
	// [end]

	if _, err := w.w.WriteString("[_route]\n"); err != nil {
		return err
	}

	if route.Name != "" {
		if _, err := fmt.Fprintf(w.w, "Name=%s\n", singleLine(route.Name)); err != nil {
			return err
		}
	}

	_, err := w.w.WriteString("[end]\n\n")
	return err
}

// writeWaypoint writes a [_waypoint] section
func (w *Writer) writeWaypoint(wp model.Waypoint) error {
	// Shortest representation that parses back to the same value
	lines := []string{
		"[_waypoint]",
		"Label=" + singleLine(wp.Label),
		"Longitude=" + strconv.FormatFloat(wp.Longitude, 'f', -1, 64),
		"Latitude=" + strconv.FormatFloat(wp.Latitude, 'f', -1, 64),
		"[end]",
		"",
	}
	for _, line := range lines {
		if _, err := w.w.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// singleLine folds line breaks, the format is line based
func singleLine(s string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}
