package binary

import (
	"encoding/binary"
	"math"
)

// cursor is a bounded little-endian view over an in-memory arena.
//
// Reads never run past limit. A read that would overrun sets short, pins
// the offset at limit and returns a zero value, so callers can finish a
// record and check short once instead of checking every field.
type cursor struct {
	buf       []byte
	off       int
	limit     int
	short     bool // a read overran limit
	truncated bool // declared length exceeded what the parent held
}

func newCursor(buf []byte) *cursor {
	return &cursor{buf: buf, limit: len(buf)}
}

// remaining returns the number of bytes left before limit
func (c *cursor) remaining() int {
	return c.limit - c.off
}

// take returns the next n bytes, or nil after marking the cursor short
func (c *cursor) take(n int) []byte {
	if n < 0 || n > c.remaining() {
		c.short = true
		c.off = c.limit
		return nil
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b
}

func (c *cursor) skip(n int) {
	c.take(n)
}

// end jumps to limit
func (c *cursor) end() {
	c.off = c.limit
}

func (c *cursor) uint32() uint32 {
	b := c.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (c *cursor) int32() int32 {
	return int32(c.uint32())
}

func (c *cursor) uint64() uint64 {
	b := c.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (c *cursor) float64() float64 {
	return math.Float64frombits(c.uint64())
}

// text reads count raw bytes. A count of zero or less yields an empty
// slice and consumes nothing.
func (c *cursor) text(count int) []byte {
	if count <= 0 {
		return []byte{}
	}
	return c.take(count)
}

// lengthText reads a 32-bit length followed by that many bytes
func (c *cursor) lengthText() []byte {
	return c.text(int(c.int32()))
}

// sub returns a child cursor covering the next n bytes and advances c past
// them. When n exceeds what is left, the child is clamped to c's limit and
// marked truncated; a negative n yields an empty child.
func (c *cursor) sub(n int) *cursor {
	if n < 0 {
		n = 0
	}
	child := &cursor{buf: c.buf, off: c.off, limit: c.limit}
	if n > c.remaining() {
		child.truncated = true
	} else {
		child.limit = c.off + n
	}
	c.off = child.limit
	return child
}
