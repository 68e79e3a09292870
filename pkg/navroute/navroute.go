// Package navroute provides functions for working with Navigon .route files.
//
// This package can be used as a library to decode, encode, split and
// convert routes programmatically.
//
// Example usage:
//
//	f, _ := os.Open("trip.route")
//	defer f.Close()
//	stat, _ := f.Stat()
//
//	route, err := navroute.ParseBinaryRoute(f, stat.Size())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	out, _ := os.Create("trip.gpx")
//	defer out.Close()
//	navroute.WriteGPX(out, route)
package navroute

import (
	"bytes"
	"errors"
	"io"

	"github.com/dyuri/navroute/internal/binary"
	"github.com/dyuri/navroute/internal/exchange"
	"github.com/dyuri/navroute/internal/model"
	"github.com/dyuri/navroute/internal/text"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
)

// MaximumPositionCount is the default number of waypoints per file
const MaximumPositionCount = binary.MaximumPositionCount

type (
	// Route is an ordered list of waypoints
	Route = model.Route
	// Waypoint is a labelled position
	Waypoint = model.Waypoint
)

// Option configures decoding
type Option func(*[]binary.ReaderOption)

// WithCharset sets the charset labels are stored in, for files written by
// tools using a legacy code page. A nil encoding, the default, reads labels
// as UTF-8.
func WithCharset(enc encoding.Encoding) Option {
	return func(o *[]binary.ReaderOption) {
		*o = append(*o, binary.WithCharset(enc))
	}
}

// WithLogger sets the logger format diagnostics are written to
func WithLogger(log *zap.Logger) Option {
	return func(o *[]binary.ReaderOption) {
		*o = append(*o, binary.WithLogger(log))
	}
}

// ParseBinaryRoute reads a binary .route file.
//
// The reader must support ReadAt for random access. The size parameter
// should be the total file size in bytes. Input that is not a route file
// returns an error matching ErrNotRecognized.
//
// Example:
//
//	f, _ := os.Open("trip.route")
//	defer f.Close()
//	stat, _ := f.Stat()
//	route, err := ParseBinaryRoute(f, stat.Size())
func ParseBinaryRoute(r io.ReaderAt, size int64, opts ...Option) (*Route, error) {
	var ropts []binary.ReaderOption
	for _, opt := range opts {
		opt(&ropts)
	}

	route, err := binary.NewReader(r, size, ropts...).Read()
	if errors.Is(err, binary.ErrNotRecognized) {
		return nil, &Error{Code: ErrNotRecognized.Code, Message: ErrNotRecognized.Message, Cause: err}
	}
	return route, err
}

// Decode reads a binary route held in memory
func Decode(data []byte, opts ...Option) (*Route, error) {
	return ParseBinaryRoute(bytes.NewReader(data), int64(len(data)), opts...)
}

// WriteBinaryRoute writes the waypoints in [start, end) of route as a
// binary .route file. Labels are written as UTF-8.
//
// Example:
//
//	out, _ := os.Create("trip.route")
//	defer out.Close()
//	err := WriteBinaryRoute(out, route, 0, route.Len())
func WriteBinaryRoute(w io.Writer, route *Route, start, end int) error {
	if start < 0 || end > route.Len() || start > end {
		return ErrInvalidRange
	}
	return binary.NewWriter(w).Write(route, start, end)
}

// Encode returns the whole route as a binary .route file
func Encode(route *Route) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteBinaryRoute(&buf, route, 0, route.Len()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseTextRoute reads a route in the sectioned text format
func ParseTextRoute(r io.Reader) (*Route, error) {
	return text.NewReader(r).Read()
}

// WriteTextRoute writes a route in the sectioned text format.
//
// The output can be edited and read back with ParseTextRoute.
func WriteTextRoute(w io.Writer, route *Route) error {
	return text.NewWriter(w).Write(route)
}

// ParseGPX reads the first route, waypoint list or track of a GPX document
func ParseGPX(r io.Reader) (*Route, error) {
	return exchange.ReadGPX(r)
}

// WriteGPX writes a route as a GPX document
func WriteGPX(w io.Writer, route *Route) error {
	return exchange.WriteGPX(w, route)
}

// WriteKML writes a route as a KML document
func WriteKML(w io.Writer, route *Route) error {
	return exchange.WriteKML(w, route)
}

// Common errors
var (
	ErrNotRecognized = &Error{Code: "not_recognized", Message: "not a Navigon route file"}
	ErrInvalidRange  = &Error{Code: "invalid_range", Message: "invalid waypoint range"}
)

// Error represents a navroute error
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil && e.Cause.Error() != e.Message {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors by code, so a wrapped error still matches the
// package-level values.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}
