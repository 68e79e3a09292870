package navroute

import (
	"errors"
	"fmt"
	"io"

	"github.com/dyuri/navroute/internal/binary"
)

// Split cuts route into consecutive parts of at most limit waypoints. With
// more than one part, each name gets a " (n/m)" suffix. A limit below 1
// uses MaximumPositionCount. An empty route gives a single empty part.
func Split(route *Route, limit int) []*Route {
	if limit < 1 {
		limit = MaximumPositionCount
	}

	n := (route.Len() + limit - 1) / limit
	if n <= 1 {
		return []*Route{route.Slice(0, route.Len())}
	}

	parts := make([]*Route, 0, n)
	for i := 0; i < n; i++ {
		part := route.Slice(i*limit, (i+1)*limit)
		part.Name = fmt.Sprintf("%s (%d/%d)", route.Name, i+1, n)
		parts = append(parts, part)
	}
	return parts
}

// PartError reports a part EncodeSplit could not write. Parts before it
// were written and closed.
type PartError struct {
	Part  int    // Index of the failed part
	Parts int    // Number of parts
	Op    string // "open", "write" or "close"
	Err   error
}

func (e *PartError) Error() string {
	msg := fmt.Sprintf("%s part %d of %d", e.Op, e.Part+1, e.Parts)
	switch e.Part {
	case 0:
	case 1:
		msg += " (part 1 written)"
	default:
		msg += fmt.Sprintf(" (parts 1-%d written)", e.Part)
	}
	return msg + ": " + e.Err.Error()
}

func (e *PartError) Unwrap() error {
	return e.Err
}

// EncodeSplit splits route and writes every part as its own binary file.
// open is called with the part index and the number of parts and must
// return the destination of that part; it is closed after writing.
// Failures are returned as *PartError.
func EncodeSplit(route *Route, limit int, open func(i, n int) (io.WriteCloser, error)) error {
	parts := Split(route, limit)
	for i, part := range parts {
		fail := func(op string, err error) error {
			return &PartError{Part: i, Parts: len(parts), Op: op, Err: err}
		}

		w, err := open(i, len(parts))
		if err != nil {
			return fail("open", err)
		}

		if err := binary.NewWriter(w).Write(part, 0, part.Len()); err != nil {
			return fail("write", errors.Join(err, w.Close()))
		}
		if err := w.Close(); err != nil {
			return fail("close", err)
		}
	}
	return nil
}
