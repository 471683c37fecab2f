package binary

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReader(data []byte, offsetSize, lengthSize int) *Reader {
	cfg := DefaultConfig()
	cfg.OffsetSize = offsetSize
	cfg.LengthSize = lengthSize
	return NewReader(bytes.NewReader(data), cfg)
}

func TestReaderIntegers(t *testing.T) {
	data := []byte{
		0x2a,
		0x34, 0x12,
		0x78, 0x56, 0x34, 0x12,
		0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x80,
	}
	r := newTestReader(data, 8, 8)

	u8, err := r.ReadUint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x2a), u8)

	u16, err := r.ReadUint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), u16)

	u32, err := r.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x12345678), u32)

	off, err := r.ReadOffset()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x8000000000000001), off)
	assert.Equal(t, int64(len(data)), r.Pos())
}

func TestReaderOffsetWidths(t *testing.T) {
	data := []byte{0x10, 0x20, 0x30, 0x40, 0x50, 0x60, 0x70, 0x80}
	tests := []struct {
		size int
		want uint64
	}{
		{2, 0x2010},
		{4, 0x40302010},
		{8, 0x8070605040302010},
	}
	for _, tt := range tests {
		r := newTestReader(data, tt.size, tt.size)
		off, err := r.ReadOffset()
		require.NoError(t, err)
		assert.Equal(t, tt.want, off, "offset size %d", tt.size)

		r = newTestReader(data, tt.size, tt.size)
		l, err := r.ReadLength()
		require.NoError(t, err)
		assert.Equal(t, tt.want, l, "length size %d", tt.size)
	}
}

func TestReaderShortRead(t *testing.T) {
	r := newTestReader([]byte{1, 2, 3}, 8, 8)
	_, err := r.ReadUint32()
	assert.ErrorIs(t, err, ErrShortRead)
	assert.Equal(t, int64(0), r.Pos(), "failed read must not advance")
}

func TestReaderAtIsIndependent(t *testing.T) {
	r := newTestReader([]byte{0, 1, 2, 3, 4, 5, 6, 7}, 8, 8)
	r.Skip(2)
	sub := r.At(5)

	b, err := sub.ReadUint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(5), b)
	assert.Equal(t, int64(2), r.Pos())
	assert.Equal(t, int64(6), sub.Pos())
}

func TestReaderAlignAndPeek(t *testing.T) {
	r := newTestReader(make([]byte, 32), 8, 8)
	r.Skip(3)
	r.Align(8)
	assert.Equal(t, int64(8), r.Pos())
	r.Align(8)
	assert.Equal(t, int64(8), r.Pos())

	_, err := r.Peek(4)
	require.NoError(t, err)
	assert.Equal(t, int64(8), r.Pos())
}

func TestReaderIsUndefined(t *testing.T) {
	assert.True(t, newTestReader(nil, 8, 8).IsUndefined(0xFFFFFFFFFFFFFFFF))
	assert.True(t, newTestReader(nil, 4, 4).IsUndefined(0xFFFFFFFF))
	assert.True(t, newTestReader(nil, 2, 2).IsUndefined(0xFFFF))
	assert.False(t, newTestReader(nil, 8, 8).IsUndefined(0xFFFFFFFF))
}

func TestLookup3(t *testing.T) {
	vectors := []struct {
		in   string
		want uint32
	}{
		{"", 0xdeadbeef},
		{"Four score and seven years ago", 0x17770551},
	}
	for _, v := range vectors {
		t.Run(v.in, func(t *testing.T) {
			assert.Equal(t, v.want, Lookup3Checksum([]byte(v.in)))
		})
	}

	data := []byte("test data for verification")
	sum := Lookup3Checksum(data)
	assert.True(t, VerifyLookup3(data, sum))
	assert.False(t, VerifyLookup3(data, sum+1))

	// Lengths that end exactly on the 12-byte block boundary take the
	// final-mix path; neighbouring lengths must still differ.
	seen := map[uint32]int{}
	for n := 0; n <= 24; n++ {
		buf := make([]byte, n)
		for i := range buf {
			buf[i] = byte(i)
		}
		s := Lookup3Checksum(buf)
		_, dup := seen[s]
		assert.False(t, dup, "length %d collides with length %d", n, seen[s])
		seen[s] = n
	}
}
