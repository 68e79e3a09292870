package binary

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/dyuri/navroute/internal/model"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
)

// ErrNotRecognized is returned when the input is not a Navigon .route file,
// or when it declares a different number of waypoints than it contains.
var ErrNotRecognized = errors.New("not a Navigon route file")

const (
	headerSize = 16
	magic      = 0xFFFF
	sentinel   = 1

	// Data block tags seen in point records. Tags 1 and 2 occur as well but
	// their layout is unknown, they end the record like any other tag.
	blockAdministrative = 0
	blockCoordinate     = 4

	// Only the first coordinate blocks of a point carry its label and
	// position; later ones hold state and country.
	maxCoordinateBlocks = 2

	// Some producers prefix short strings twice; a first length above this
	// is taken to be the outer prefix.
	doubleLengthThreshold = 0xFFFF
)

// Header is the fixed 16 byte preamble of a .route file
type Header struct {
	Magic    uint32 // Always 0xFFFF
	Sentinel uint64 // Always 1
	Length   uint32 // Bytes following the sentinel, this field included
}

// Reader handles parsing of binary Navigon route files
type Reader struct {
	r       io.ReaderAt
	size    int64
	endian  binary.ByteOrder  // Navigon uses little-endian
	decoder *encoding.Decoder // Text decoder for labels, nil for UTF-8
	log     *zap.Logger
}

// ReaderOption configures a Reader
type ReaderOption func(*Reader)

// WithCharset sets the encoding labels are decoded from. A nil encoding
// keeps the raw bytes (UTF-8).
func WithCharset(enc encoding.Encoding) ReaderOption {
	return func(r *Reader) {
		if enc == nil {
			r.decoder = nil
			return
		}
		r.decoder = enc.NewDecoder()
	}
}

// WithLogger sets the logger used for format diagnostics
func WithLogger(log *zap.Logger) ReaderOption {
	return func(r *Reader) {
		if log != nil {
			r.log = log
		}
	}
}

// NewReader creates a new binary route reader. Labels are taken as UTF-8
// unless WithCharset names a legacy charset.
func NewReader(r io.ReaderAt, size int64, opts ...ReaderOption) *Reader {
	rd := &Reader{
		r:      r,
		size:   size,
		endian: binary.LittleEndian,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(rd)
	}
	return rd
}

// ReadHeader reads and checks the 16 byte preamble.
//
// The declared length must match the bytes actually following the header,
// otherwise ErrNotRecognized is returned.
func (r *Reader) ReadHeader() (*Header, error) {
	if r.size < headerSize {
		return nil, ErrNotRecognized
	}

	buf := make([]byte, headerSize)
	if _, err := r.r.ReadAt(buf, 0); err != nil && err != io.EOF {
		return nil, fmt.Errorf("read header bytes: %w", err)
	}

	h := &Header{
		Magic:    r.endian.Uint32(buf[0x00:0x04]),
		Sentinel: r.endian.Uint64(buf[0x04:0x0C]),
		Length:   r.endian.Uint32(buf[0x0C:0x10]),
	}

	if h.Magic != magic || h.Sentinel != sentinel {
		return nil, ErrNotRecognized
	}
	if r.size-headerSize != int64(h.Length)-4 {
		r.log.Debug("route length mismatch",
			zap.Uint32("declared", h.Length),
			zap.Int64("available", r.size-headerSize+4))
		return nil, ErrNotRecognized
	}

	return h, nil
}

// Read parses the entire file and returns the route.
//
// Damage inside a point record only costs that point. The route is
// rejected with ErrNotRecognized when the number of waypoints read differs
// from the count the file declares.
func (r *Reader) Read() (*model.Route, error) {
	if _, err := r.ReadHeader(); err != nil {
		return nil, err
	}

	// Files hold at most a few hundred points, read everything at once
	buf := make([]byte, r.size-headerSize)
	if n, err := r.r.ReadAt(buf, headerSize); err != nil && !(err == io.EOF && n == len(buf)) {
		return nil, fmt.Errorf("read route body: %w", err)
	}
	c := newCursor(buf)

	// 4 byte point count, not used by devices we have seen
	c.int32()

	// Creation date as length-prefixed text
	created := c.lengthText()

	expected := int(c.int32())
	flag := c.int32() // seen 0 and 1

	if c.short {
		return nil, ErrNotRecognized
	}
	r.log.Debug("route body",
		zap.ByteString("created", created),
		zap.Int("expected", expected),
		zap.Int32("flag", flag))
	if flag != 0 && flag != 1 {
		r.log.Debug("unusual route flag", zap.Int32("flag", flag))
	}

	route := model.NewRoute("")
	for record := 0; c.remaining() > 4 && route.Len() < expected; record++ {
		wp := r.readPointRecord(c, record)
		if wp != nil {
			route.Append(*wp)
		}
	}

	if route.Len() != expected {
		r.log.Debug("waypoint count mismatch",
			zap.Int("expected", expected),
			zap.Int("read", route.Len()))
		return nil, ErrNotRecognized
	}
	if c.remaining() > 4 {
		r.log.Warn("ignoring point records past the declared count",
			zap.Int("expected", expected),
			zap.Int("bytes", c.remaining()))
	}

	return route, nil
}

// readPointRecord reads one point record and returns its waypoint, or nil
// if the record did not yield one. c is always left at the record's end.
func (r *Reader) readPointRecord(c *cursor, record int) *model.Waypoint {
	// 4 byte length, the field itself not included
	length := int(c.int32())
	rc := c.sub(length)
	if rc.truncated {
		r.log.Debug("point record overruns file",
			zap.Int("record", record),
			zap.Int("declared", length),
			zap.Int("available", rc.remaining()))
		return nil
	}

	// 8 bytes, zero in most files
	rc.skip(8)

	// Point number or label fragment
	rc.lengthText()

	// 4 byte int, so far only 1
	flags := rc.int32()
	// 4 byte int, number of following coordinate blocks
	blockCount := rc.int32()
	if flags != 1 || blockCount < 0 || blockCount > 16 {
		r.log.Debug("unusual point record flags",
			zap.Int("record", record),
			zap.Int32("flags", flags),
			zap.Int32("blocks", blockCount))
	}

	// 8 bytes of varying content, zero from the second point on
	rc.skip(8)

	var wp *model.Waypoint
	coordinateBlocks := 0
	for rc.remaining() > 0 && !rc.short {
		tag := rc.int32()
		if rc.short {
			break
		}

		switch tag {
		case blockCoordinate:
			var ok bool
			wp, ok = r.readCoordinateBlock(rc, wp, coordinateBlocks)
			if !ok {
				r.log.Debug("abandoning damaged coordinate block",
					zap.Int("record", record),
					zap.Int("block", coordinateBlocks))
				rc.end()
				break
			}
			coordinateBlocks++
			if coordinateBlocks >= maxCoordinateBlocks {
				rc.end()
			}

		case blockAdministrative:
			// Always last and of varying length
			rc.end()

		default:
			r.log.Debug("unknown data block",
				zap.Int("record", record),
				zap.Int32("tag", tag))
			rc.end()
		}
	}

	return wp
}

// readCoordinateBlock reads a type 4 block. segment is the number of
// coordinate blocks already read for this point.
//
// Layout after the tag:
//
//	8 byte length, this field not included
//	4 byte text length + text
//	  (some blocks end here)
//	4 byte int, seen 0 and 1, sometimes only 3 bytes left
//	  (the block then ends here)
//	8 byte longitude, 8 byte latitude
//	4 byte int, seen 2 and 3
//	tagged fields up to length - 8
//	8 bytes unknown
//
// It returns false when the block's label or position could not be read.
func (r *Reader) readCoordinateBlock(c *cursor, prev *model.Waypoint, segment int) (*model.Waypoint, bool) {
	length := int(int64(c.uint64()))
	bc := c.sub(length)
	if c.short || bc.truncated {
		return prev, false
	}

	body := bc.sub(length - 8)

	label := r.decodeString(body.lengthText())

	var longitude, latitude float64
	switch {
	case body.remaining() >= 4:
		body.int32() // 0 or 1
	case body.remaining() > 0:
		// Seen cut to 3 bytes, the block then has a label only
		body.end()
	}
	if body.remaining() > 0 {
		longitude = body.float64()
		latitude = body.float64()
		body.int32() // 2 or 3
	}
	if body.short {
		return prev, false
	}

	r.skipTaggedFields(body)

	// 2x4 byte unknown
	bc.skip(8)

	switch {
	case prev == nil:
		return &model.Waypoint{
			Longitude: longitude,
			Latitude:  latitude,
			Label:     label,
		}, true
	case segment == 1 && label != prev.Label:
		prev.Label = label + " " + prev.Label
	}
	return prev, true
}

// skipTaggedFields consumes the street, postal code and city fields that
// follow the position. Their content is not used. An unknown tag ends the
// list since its length cannot be known.
func (r *Reader) skipTaggedFields(c *cursor) {
	for c.remaining() > 0 && !c.short {
		tag := c.int32()
		switch tag {
		case 0x0:
			if c.remaining() > 0 {
				n := int(c.int32())
				if n > doubleLengthThreshold {
					n = int(c.int32())
				}
				c.text(n)
			}
		case 0x2:
			c.skip(8)
		case 0x5:
			c.skip(5)
		case 0x8, 0x9:
			c.lengthText()
		case 0x32: // postal code
			c.lengthText()
		case 0x3C: // name/value group
			c.lengthText()
			c.int32()
			c.lengthText()
			c.lengthText()
		default:
			r.log.Debug("unknown coordinate field", zap.Int32("tag", tag))
			c.end()
		}
	}
}

// decodeString decodes label bytes using the configured charset
func (r *Reader) decodeString(data []byte) string {
	if r.decoder == nil {
		return string(data)
	}
	decoded, err := r.decoder.Bytes(data)
	if err != nil {
		return string(data) // Fall back to raw string on error
	}
	return string(decoded)
}
