package binary

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/dyuri/navroute/internal/model"
)

// builder assembles little-endian test streams by hand
type builder struct {
	buf bytes.Buffer
}

func (b *builder) u32(v uint32) *builder {
	var p [4]byte
	binary.LittleEndian.PutUint32(p[:], v)
	b.buf.Write(p[:])
	return b
}

func (b *builder) u64(v uint64) *builder {
	var p [8]byte
	binary.LittleEndian.PutUint64(p[:], v)
	b.buf.Write(p[:])
	return b
}

func (b *builder) f64(v float64) *builder {
	return b.u64(math.Float64bits(v))
}

func (b *builder) text(s string) *builder {
	b.u32(uint32(len(s)))
	b.buf.WriteString(s)
	return b
}

func (b *builder) raw(p []byte) *builder {
	b.buf.Write(p)
	return b
}

func (b *builder) bytes() []byte {
	return b.buf.Bytes()
}

// coordinateBlock builds a type 4 data block including its tag
func coordinateBlock(label string, lon, lat float64, fields []byte) []byte {
	content := (&builder{}).text(label).u32(0).f64(lon).f64(lat).u32(2).raw(fields).u64(0).bytes()
	return (&builder{}).u32(4).u64(uint64(len(content))).raw(content).bytes()
}

// pointRecord builds a point record with its length prefix
func pointRecord(blocks ...[]byte) []byte {
	content := (&builder{}).u64(0).text("01").u32(1).u32(uint32(len(blocks))).u64(0)
	for _, blk := range blocks {
		content.raw(blk)
	}
	c := content.bytes()
	return (&builder{}).u32(uint32(len(c))).raw(c).bytes()
}

// routeFile wraps point records into a complete file with a valid header
func routeFile(expected int, records ...[]byte) []byte {
	body := (&builder{}).u32(0).text("2011-06-25").u32(uint32(expected)).u32(1)
	for _, rec := range records {
		body.raw(rec)
	}
	return withHeader(body.bytes())
}

// withHeader prepends a header whose length matches body
func withHeader(body []byte) []byte {
	return (&builder{}).u32(0xFFFF).u64(1).u32(uint32(len(body) + 4)).raw(body).bytes()
}

// recordOffsets returns the file offsets of all point records in data
func recordOffsets(t *testing.T, data []byte) []int {
	t.Helper()
	// header, unknown int, date text
	off := headerSize + 4
	off += 4 + int(binary.LittleEndian.Uint32(data[off:]))
	// expected count, flag
	off += 8

	var offsets []int
	for off+4 <= len(data) {
		offsets = append(offsets, off)
		off += 4 + int(binary.LittleEndian.Uint32(data[off:]))
	}
	return offsets
}

func decode(t *testing.T, data []byte, opts ...ReaderOption) (*model.Route, error) {
	t.Helper()
	return NewReader(bytes.NewReader(data), int64(len(data)), opts...).Read()
}

func encode(t *testing.T, route *model.Route, start, end int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := NewWriter(&buf).Write(route, start, end); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	return buf.Bytes()
}
