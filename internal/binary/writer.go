package binary

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/dyuri/navroute/internal/model"
)

// MaximumPositionCount is the number of waypoints Navigon devices accept
// in a single route file. Longer routes have to be split by the caller.
const MaximumPositionCount = 99

// firstPointMarker is written into the first point record where later
// records carry zeros. Copied from a device-generated file.
var firstPointMarker = [8]byte{0x60, 0x81, 0x83, 0x05, 0x64, 0x00, 0x00, 0x00}

// Writer handles writing routes to the binary Navigon format
type Writer struct {
	w      io.Writer
	endian binary.ByteOrder
}

// NewWriter creates a new binary route writer
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w:      w,
		endian: binary.LittleEndian,
	}
}

// Write encodes the waypoints in [start, end) of route.
//
// The waypoint count is stored in a single byte, so ranges above 255
// waypoints produce a file with a wrapped count. Callers split long routes
// first, see MaximumPositionCount. Labels are always written as UTF-8.
func (w *Writer) Write(route *model.Route, start, end int) error {
	if start < 0 || end > route.Len() || start > end {
		return fmt.Errorf("invalid waypoint range [%d, %d) for %d waypoints", start, end, route.Len())
	}

	// Points go to a buffer first, the header needs their total size
	body := &bytes.Buffer{}

	// 4 bytes always 0
	w.putUint32(body, 0)
	// Creation date text, we write none
	w.putUint32(body, 0)
	// Point count, a single byte followed by 3 zero bytes
	body.WriteByte(byte(end - start))
	body.Write([]byte{0, 0, 0})
	// 4 byte int, seen 0 and 1; always 1
	w.putUint32(body, 1)

	positionNo := 1
	for i := start; i < end; i++ {
		body.Write(w.encodePoint(route.Waypoints[i], positionNo, i == start))
		positionNo++
	}

	header := make([]byte, headerSize)
	w.endian.PutUint32(header[0x00:0x04], magic)
	w.endian.PutUint64(header[0x04:0x0C], sentinel)
	w.endian.PutUint32(header[0x0C:0x10], uint32(body.Len()+4))

	if _, err := w.w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := body.WriteTo(w.w); err != nil {
		return fmt.Errorf("write points: %w", err)
	}

	return nil
}

// encodePoint encodes one point record holding a single coordinate block.
// Devices store city, state and country in further blocks; we have none of
// that, so none are written.
func (w *Writer) encodePoint(wp model.Waypoint, positionNo int, first bool) []byte {
	buf := &bytes.Buffer{}

	// Record length, patched below
	w.putUint32(buf, 0)
	buf.Write(make([]byte, 8))
	w.putText(buf, fmt.Sprintf("%02d", positionNo))
	// 4 byte always 1
	w.putUint32(buf, 1)
	// Number of following coordinate blocks
	w.putUint32(buf, 1)
	if first {
		buf.Write(firstPointMarker[:])
	} else {
		buf.Write(make([]byte, 8))
	}

	w.putUint32(buf, blockCoordinate)
	blockLengthPos := buf.Len()
	// Block length, patched below
	w.putUint64(buf, 0)
	w.putText(buf, wp.Label)
	w.putUint32(buf, 0)
	w.putUint64(buf, math.Float64bits(wp.Longitude))
	w.putUint64(buf, math.Float64bits(wp.Latitude))
	w.putUint32(buf, 2)
	buf.Write(make([]byte, 8))

	b := buf.Bytes()
	w.endian.PutUint32(b[0:4], uint32(len(b)-4))
	w.endian.PutUint64(b[blockLengthPos:blockLengthPos+8], uint64(len(b)-blockLengthPos-8))
	return b
}

func (w *Writer) putUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	w.endian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func (w *Writer) putUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	w.endian.PutUint64(b[:], v)
	buf.Write(b[:])
}

// putText writes a 32-bit length followed by the UTF-8 bytes of s
func (w *Writer) putText(buf *bytes.Buffer, s string) {
	w.putUint32(buf, uint32(len(s)))
	buf.WriteString(s)
}
