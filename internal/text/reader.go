package text

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dyuri/navroute/internal/model"
)

// Reader handles reading routes from the sectioned text format
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader creates a new text format reader
func NewReader(r io.Reader) *Reader {
	return &Reader{
		scanner: bufio.NewScanner(r),
		line:    0,
	}
}

// Read parses the entire text file and returns the route
func (r *Reader) Read() (*model.Route, error) {
	route := model.NewRoute("")

	for r.scanner.Scan() {
		r.line++
		line := strings.TrimSpace(r.scanner.Text())

		// Skip empty lines and comments
		if isBlank(line) {
			continue
		}

		// Parse section headers
		if strings.HasPrefix(line, "[") {
			section := strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")

			switch section {
			case "_route":
				if err := r.readRoute(route); err != nil {
					return nil, fmt.Errorf("line %d: read route: %w", r.line, err)
				}

			case "_waypoint":
				wp, err := r.readWaypoint()
				if err != nil {
					return nil, fmt.Errorf("line %d: read waypoint: %w", r.line, err)
				}
				route.Append(wp)

			case "end":
				continue

			default:
				// Unknown section - skip until [end]
				if err := r.skipToEnd(); err != nil {
					return nil, fmt.Errorf("line %d: skip unknown section: %w", r.line, err)
				}
			}
			continue
		}

		return nil, fmt.Errorf("line %d: unexpected %q outside a section", r.line, line)
	}

	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error: %w", err)
	}

	return route, nil
}

// readRoute reads the [_route] section
func (r *Reader) readRoute(route *model.Route) error {
	return r.readSection(func(key, value string) error {
		switch key {
		case "Name":
			route.Name = value
		}
		return nil
	})
}

// readWaypoint reads a [_waypoint] section
func (r *Reader) readWaypoint() (model.Waypoint, error) {
	var wp model.Waypoint
	var hasLon, hasLat bool

	err := r.readSection(func(key, value string) error {
		var err error
		switch key {
		case "Label":
			wp.Label = value
		case "Longitude":
			wp.Longitude, err = strconv.ParseFloat(value, 64)
			hasLon = true
		case "Latitude":
			wp.Latitude, err = strconv.ParseFloat(value, 64)
			hasLat = true
		}
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		return nil
	})
	if err != nil {
		return wp, err
	}

	if !hasLon || !hasLat {
		return wp, fmt.Errorf("waypoint %q lacks Longitude or Latitude", wp.Label)
	}
	return wp, nil
}

// readSection feeds key=value pairs to fn until [end]
func (r *Reader) readSection(fn func(key, value string) error) error {
	for r.scanner.Scan() {
		r.line++
		line := strings.TrimSpace(r.scanner.Text())

		if isBlank(line) {
			continue
		}

		if strings.HasPrefix(line, "[end]") {
			return nil
		}

		// Parse key=value pairs
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := fn(key, value); err != nil {
			return fmt.Errorf("line %d: %w", r.line, err)
		}
	}

	if err := r.scanner.Err(); err != nil {
		return err
	}
	return fmt.Errorf("missing [end]")
}

// skipToEnd skips lines until [end]
func (r *Reader) skipToEnd() error {
	for r.scanner.Scan() {
		r.line++
		if strings.HasPrefix(strings.TrimSpace(r.scanner.Text()), "[end]") {
			return nil
		}
	}
	return r.scanner.Err()
}

func isBlank(line string) bool {
	return line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";")
}
