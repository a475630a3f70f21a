package ot

import (
	"errors"
	"fmt"
)

// Reading bytes from a font's binary representation

var errBufferBounds = errors.New("internal inconsistency: buffer bounds error")

func u16(b []byte) uint16 {
	_ = b[1] // Bounds check hint to compiler
	return uint16(b[0])<<8 | uint16(b[1])<<0
}

func u32(b []byte) uint32 {
	_ = b[3] // Bounds check hint to compiler
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])<<0
}

// --- Random access ---------------------------------------------------------

// binarySegm is a segment of byte data. We use it throughout this package
// for random access to the font's binary data.
type binarySegm []byte

// view returns n bytes at the given offset.
// The byte segment returned is a sub-slice of b.
func (b binarySegm) view(offset, n int) (binarySegm, error) {
	if offset < 0 || n < 0 || offset+n > len(b) {
		return nil, errBufferBounds
	}
	return b[offset : offset+n], nil
}

// u16 returns the uint16 in b at the relative offset i.
func (b binarySegm) u16(i int) (uint16, error) {
	buf, err := b.view(i, 2)
	if err != nil {
		return 0, err
	}
	return u16(buf), nil
}

// i16 returns the int16 in b at the relative offset i.
func (b binarySegm) i16(i int) (int16, error) {
	n, err := b.u16(i)
	return int16(n), err
}

// u32 returns the uint32 in b at the relative offset i.
func (b binarySegm) u32(i int) (uint32, error) {
	buf, err := b.view(i, 4)
	if err != nil {
		return 0, err
	}
	return u32(buf), nil
}

// --- Sequential access -----------------------------------------------------

// Cursor is a sequential big-endian reader over a byte region of a font.
// The region starts at absolute offset base within the font file; base is
// used for error reporting only.
//
// Reading past the end of the region does not panic. Instead, the read
// returns 0 and the cursor records an error wrapping ErrMalformedFont.
// The error is sticky: once set, all further reads return 0. Clients
// therefore may read a whole record and check Err once.
type Cursor struct {
	data binarySegm
	base uint32
	pos  int
	err  error
}

// NewCursor creates a cursor at the start of b.
func NewCursor(b []byte, base uint32) *Cursor {
	return &Cursor{data: b, base: base}
}

// Pos returns the current read position, relative to the start of the region.
func (c *Cursor) Pos() int {
	return c.pos
}

// Offset returns the current read position as an absolute offset within the font.
func (c *Cursor) Offset() uint32 {
	return c.base + uint32(c.pos)
}

// Len returns the size of the region in bytes.
func (c *Cursor) Len() int {
	return len(c.data)
}

// Remaining returns the number of bytes left to read.
func (c *Cursor) Remaining() int {
	if c.err != nil || c.pos >= len(c.data) {
		return 0
	}
	return len(c.data) - c.pos
}

// Err returns the first error encountered by c, or nil.
func (c *Cursor) Err() error {
	return c.err
}

// Seek moves the read position to pos, relative to the start of the region.
// Seeking to the end of the region is legal.
func (c *Cursor) Seek(pos int) {
	if c.err != nil {
		return
	}
	if pos < 0 || pos > len(c.data) {
		c.fail(pos, 0)
		return
	}
	c.pos = pos
}

// Skip advances the read position by n bytes.
func (c *Cursor) Skip(n int) {
	if c.err != nil {
		return
	}
	if n < 0 || n > len(c.data)-c.pos {
		c.fail(c.pos, n)
		return
	}
	c.pos += n
}

// Bytes returns the next n bytes as a sub-slice of the region.
func (c *Cursor) Bytes(n int) []byte {
	b := c.next(n)
	if b == nil {
		return nil
	}
	return b
}

// U8 reads an unsigned byte.
func (c *Cursor) U8() uint8 {
	if b := c.next(1); b != nil {
		return b[0]
	}
	return 0
}

// I8 reads a signed byte.
func (c *Cursor) I8() int8 {
	return int8(c.U8())
}

// U16 reads a big-endian uint16.
func (c *Cursor) U16() uint16 {
	if b := c.next(2); b != nil {
		return u16(b)
	}
	return 0
}

// I16 reads a big-endian int16.
func (c *Cursor) I16() int16 {
	return int16(c.U16())
}

// U32 reads a big-endian uint32.
func (c *Cursor) U32() uint32 {
	if b := c.next(4); b != nil {
		return u32(b)
	}
	return 0
}

// F2Dot14 reads a signed 2.14 fixed-point number.
func (c *Cursor) F2Dot14() float32 {
	return float32(c.I16()) / (1 << 14)
}

// U16Array reads n consecutive uint16 values.
func (c *Cursor) U16Array(n int) []uint16 {
	if n < 0 {
		c.fail(c.pos, n)
		return nil
	}
	b := c.next(2 * n)
	if b == nil {
		return nil
	}
	r := make([]uint16, n)
	for i := range r {
		r[i] = u16(b[2*i:])
	}
	return r
}

func (c *Cursor) next(n int) binarySegm {
	if c.err != nil {
		return nil
	}
	b, err := c.data.view(c.pos, n)
	if err != nil {
		c.fail(c.pos, n)
		return nil
	}
	c.pos += n
	return b
}

func (c *Cursor) fail(pos, n int) {
	c.err = fmt.Errorf("%w: read of %d bytes at offset %d exceeds region [%d:%d]",
		ErrMalformedFont, n, c.base+uint32(max(pos, 0)), c.base, c.base+uint32(len(c.data)))
}
