// Package binary provides positioned little-endian decoding of HDF5
// metadata with file-specific offset and length widths.
package binary

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrShortRead is returned when the file ends inside a structure.
var ErrShortRead = errors.New("short read")

// Reader decodes HDF5 structures from an io.ReaderAt. A Reader carries its
// own position; At derives independent readers over the same file.
type Reader struct {
	r          io.ReaderAt
	order      binary.ByteOrder
	offsetSize int
	lengthSize int
	pos        int64
}

// Config holds reader configuration, typically derived from the superblock.
type Config struct {
	ByteOrder  binary.ByteOrder
	OffsetSize int // 2, 4, or 8 bytes
	LengthSize int // 2, 4, or 8 bytes
}

// DefaultConfig is used before the superblock has been decoded.
func DefaultConfig() Config {
	return Config{
		ByteOrder:  binary.LittleEndian,
		OffsetSize: 8,
		LengthSize: 8,
	}
}

// NewReader creates a reader positioned at offset 0.
func NewReader(r io.ReaderAt, cfg Config) *Reader {
	return &Reader{
		r:          r,
		order:      cfg.ByteOrder,
		offsetSize: cfg.OffsetSize,
		lengthSize: cfg.LengthSize,
	}
}

// At returns a new reader positioned at offset.
func (r *Reader) At(offset int64) *Reader {
	c := *r
	c.pos = offset
	return &c
}

// Pos returns the current read position.
func (r *Reader) Pos() int64 {
	return r.pos
}

// ReadAt reads len(p) bytes at an absolute offset without moving the
// reader. A file that ends early yields ErrShortRead.
func (r *Reader) ReadAt(p []byte, off int64) error {
	n, err := r.r.ReadAt(p, off)
	if n == len(p) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: wanted %d bytes at 0x%x, got %d", ErrShortRead, len(p), off, n)
	}
	return err
}

// ReadBytes reads exactly n bytes from the current position.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if err := r.ReadAt(buf, r.pos); err != nil {
		return nil, err
	}
	r.pos += int64(n)
	return buf, nil
}

// Peek reads n bytes without advancing the position.
func (r *Reader) Peek(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if err := r.ReadAt(buf, r.pos); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadUint8 reads an unsigned 8-bit integer.
func (r *Reader) ReadUint8() (uint8, error) {
	buf, err := r.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadUint16 reads an unsigned 16-bit integer.
func (r *Reader) ReadUint16() (uint16, error) {
	buf, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return r.order.Uint16(buf), nil
}

// ReadUint32 reads an unsigned 32-bit integer.
func (r *Reader) ReadUint32() (uint32, error) {
	buf, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return r.order.Uint32(buf), nil
}

// ReadUintN reads an unsigned integer of n bytes.
func (r *Reader) ReadUintN(n int) (uint64, error) {
	buf, err := r.ReadBytes(n)
	if err != nil {
		return 0, err
	}
	return r.DecodeUint(buf, n), nil
}

// ReadOffset reads a file address using the configured offset size.
func (r *Reader) ReadOffset() (uint64, error) {
	return r.ReadUintN(r.offsetSize)
}

// ReadLength reads a length using the configured length size.
func (r *Reader) ReadLength() (uint64, error) {
	return r.ReadUintN(r.lengthSize)
}

// DecodeUint decodes a size-byte unsigned integer from the start of buf.
func (r *Reader) DecodeUint(buf []byte, size int) uint64 {
	switch size {
	case 1:
		return uint64(buf[0])
	case 2:
		return uint64(r.order.Uint16(buf))
	case 4:
		return uint64(r.order.Uint32(buf))
	case 8:
		return r.order.Uint64(buf)
	}
	var val uint64
	for i := size - 1; i >= 0; i-- {
		val = val<<8 | uint64(buf[i])
	}
	return val
}

// IsUndefined reports whether an address is the all-ones "undefined"
// sentinel for this file's offset size.
func (r *Reader) IsUndefined(addr uint64) bool {
	if r.offsetSize >= 8 {
		return addr == ^uint64(0)
	}
	return addr == uint64(1)<<(8*r.offsetSize)-1
}

// Skip advances the position by n bytes.
func (r *Reader) Skip(n int64) {
	r.pos += n
}

// Align advances the position to the next multiple of alignment.
func (r *Reader) Align(alignment int64) {
	if alignment <= 1 {
		return
	}
	if rem := r.pos % alignment; rem != 0 {
		r.pos += alignment - rem
	}
}

// OffsetSize returns the configured offset size in bytes.
func (r *Reader) OffsetSize() int {
	return r.offsetSize
}

// LengthSize returns the configured length size in bytes.
func (r *Reader) LengthSize() int {
	return r.lengthSize
}

// ByteOrder returns the configured byte order.
func (r *Reader) ByteOrder() binary.ByteOrder {
	return r.order
}
