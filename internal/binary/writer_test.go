package binary

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/dyuri/navroute/internal/model"
)

func TestWriteHeader(t *testing.T) {
	data := encode(t, threePointRoute(), 0, 3)

	if got := binary.LittleEndian.Uint32(data[0:]); got != 0xFFFF {
		t.Errorf("magic = 0x%x, want 0xffff", got)
	}
	if got := binary.LittleEndian.Uint64(data[4:]); got != 1 {
		t.Errorf("sentinel = %d, want 1", got)
	}
	if got := binary.LittleEndian.Uint32(data[12:]); int(got) != len(data)-12 {
		t.Errorf("length = %d, want %d", got, len(data)-12)
	}
	if got := binary.LittleEndian.Uint32(data[24:]); got != 3 {
		t.Errorf("point count = %d, want 3", got)
	}
}

func TestWritePointRecords(t *testing.T) {
	data := encode(t, threePointRoute(), 0, 3)
	offsets := recordOffsets(t, data)
	if len(offsets) != 3 {
		t.Fatalf("Got %d records, want 3", len(offsets))
	}

	for i, off := range offsets {
		// length, 8 zero bytes, then the position number
		numLen := binary.LittleEndian.Uint32(data[off+12:])
		num := string(data[off+16 : off+16+int(numLen)])
		if want := fmt.Sprintf("%02d", i+1); num != want {
			t.Errorf("record %d: number = %q, want %q", i, num, want)
		}

		marker := data[off+26 : off+34]
		if i == 0 && !bytes.Equal(marker, firstPointMarker[:]) {
			t.Errorf("record 0: marker = % x, want % x", marker, firstPointMarker)
		}
		if i > 0 && !bytes.Equal(marker, make([]byte, 8)) {
			t.Errorf("record %d: marker = % x, want zeros", i, marker)
		}

		if tag := binary.LittleEndian.Uint32(data[off+34:]); tag != 4 {
			t.Errorf("record %d: block tag = %d, want 4", i, tag)
		}
	}
}

func TestWriteInvalidRange(t *testing.T) {
	route := threePointRoute()
	for _, r := range [][2]int{{-1, 2}, {0, 4}, {2, 1}} {
		var buf bytes.Buffer
		if err := NewWriter(&buf).Write(route, r[0], r[1]); err == nil {
			t.Errorf("Write(%d, %d) succeeded, want error", r[0], r[1])
		}
		if buf.Len() != 0 {
			t.Errorf("Write(%d, %d) wrote %d bytes", r[0], r[1], buf.Len())
		}
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWriteSinkError(t *testing.T) {
	err := NewWriter(failingWriter{}).Write(threePointRoute(), 0, 3)
	if err == nil || err.Error() != "write header: disk full" {
		t.Errorf("err = %v, want write header: disk full", err)
	}
}

func TestRoundTripScenario(t *testing.T) {
	route, err := decode(t, encode(t, threePointRoute(), 0, 3))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if route.Len() != 3 {
		t.Fatalf("Got %d waypoints, want 3", route.Len())
	}

	want := threePointRoute().Waypoints
	for i, wp := range route.Waypoints {
		if wp.Label != want[i].Label {
			t.Errorf("waypoint %d: Label = %q, want %q", i, wp.Label, want[i].Label)
		}
		if math.Abs(wp.Longitude-want[i].Longitude) > 1e-6 || math.Abs(wp.Latitude-want[i].Latitude) > 1e-6 {
			t.Errorf("waypoint %d: position = (%v, %v), want (%v, %v)",
				i, wp.Longitude, wp.Latitude, want[i].Longitude, want[i].Latitude)
		}
	}
}

func TestRoundTripRandomRoutes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for n := 1; n <= MaximumPositionCount; n++ {
		src := model.NewRoute("random")
		for i := 0; i < n; i++ {
			src.Append(model.Waypoint{
				Longitude: rng.Float64()*360 - 180,
				Latitude:  rng.Float64()*180 - 90,
				Label:     fmt.Sprintf("Point %d/%d", i, rng.Intn(100000)),
			})
		}

		got, err := decode(t, encode(t, src, 0, n))
		if err != nil {
			t.Fatalf("%d waypoints: Read failed: %v", n, err)
		}
		if got.Len() != n {
			t.Fatalf("%d waypoints: got %d", n, got.Len())
		}
		for i := range src.Waypoints {
			// Doubles are stored verbatim
			if got.Waypoints[i] != src.Waypoints[i] {
				t.Errorf("%d waypoints: waypoint %d = %+v, want %+v", n, i, got.Waypoints[i], src.Waypoints[i])
			}
		}
	}
}

func TestWriteSplitRange(t *testing.T) {
	src := model.NewRoute("long")
	for i := 0; i < 120; i++ {
		src.Append(model.Waypoint{Longitude: float64(i) / 10, Latitude: 45, Label: fmt.Sprintf("P%03d", i)})
	}

	for _, r := range [][2]int{{0, 50}, {50, 100}, {100, 120}} {
		data := encode(t, src, r[0], r[1])
		if got := binary.LittleEndian.Uint32(data[24:]); int(got) != r[1]-r[0] {
			t.Errorf("[%d, %d): point count = %d", r[0], r[1], got)
		}

		route, err := decode(t, data)
		if err != nil {
			t.Fatalf("[%d, %d): Read failed: %v", r[0], r[1], err)
		}
		if route.Len() != r[1]-r[0] {
			t.Fatalf("[%d, %d): got %d waypoints", r[0], r[1], route.Len())
		}
		if route.Waypoints[0].Label != src.Waypoints[r[0]].Label {
			t.Errorf("[%d, %d): first label = %q", r[0], r[1], route.Waypoints[0].Label)
		}
	}
}

// The count is a single byte; 300 waypoints are written with count 44.
func TestWriteCountWraps(t *testing.T) {
	src := model.NewRoute("too long")
	for i := 0; i < 300; i++ {
		src.Append(model.Waypoint{Label: "x"})
	}

	data := encode(t, src, 0, 300)
	if got := binary.LittleEndian.Uint32(data[24:]); got != 300%256 {
		t.Errorf("point count = %d, want %d", got, 300%256)
	}
	if got := len(recordOffsets(t, data)); got != 300 {
		t.Errorf("records = %d, want 300", got)
	}
}

func TestWriteEmptyRange(t *testing.T) {
	route, err := decode(t, encode(t, threePointRoute(), 1, 1))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if route.Len() != 0 {
		t.Errorf("Got %d waypoints, want 0", route.Len())
	}
}
