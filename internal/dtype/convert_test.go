package dtype

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-uhdf/internal/message"
)

func beInt(size uint32, signed bool) *message.Datatype {
	dt := message.NewInteger(size, signed)
	dt.ByteOrder = message.OrderBE
	return dt
}

func TestNumbersIntegers(t *testing.T) {
	data := []byte{0xff, 0xfe, 0x00, 0x01}

	i16 := make([]int16, 2)
	require.NoError(t, Numbers(beInt(2, true), data, i16))
	assert.Equal(t, []int16{-2, 1}, i16)

	u16 := make([]uint16, 2)
	require.NoError(t, Numbers(message.NewInteger(2, false), data, u16))
	assert.Equal(t, []uint16{0xfeff, 0x0100}, u16)

	// Widening a signed byte keeps the sign.
	wide := make([]float64, 4)
	require.NoError(t, Numbers(message.NewInteger(1, true), data, wide))
	assert.Equal(t, []float64{-1, -2, 0, 1}, wide)
}

func TestNumbersFloats(t *testing.T) {
	data := binary.LittleEndian.AppendUint32(nil, math.Float32bits(1.5))
	data = binary.LittleEndian.AppendUint32(data, math.Float32bits(-3))

	f64 := make([]float64, 2)
	require.NoError(t, Numbers(message.NewFloat(4), data, f64))
	assert.Equal(t, []float64{1.5, -3}, f64)

	i32 := make([]int32, 2)
	require.NoError(t, Numbers(message.NewFloat(4), data, i32))
	assert.Equal(t, []int32{1, -3}, i32)
}

func TestNumbersRejects(t *testing.T) {
	err := Numbers(message.NewString(4, message.PadNullTerm, message.CharsetASCII), make([]byte, 4), make([]int32, 1))
	assert.ErrorIs(t, err, ErrNoConversion)

	err = Numbers(message.NewInteger(3, true), make([]byte, 3), make([]int32, 1))
	assert.ErrorIs(t, err, ErrNoConversion)

	err = Numbers(message.NewInteger(4, true), make([]byte, 4), make([]int32, 2))
	assert.ErrorIs(t, err, ErrShortData)
}

func TestConvertChecksBuffer(t *testing.T) {
	src := message.NewInteger(4, true)
	data := binary.LittleEndian.AppendUint32(nil, 7)

	out := make([]int64, 1)
	require.NoError(t, Convert(src, message.NewInteger(8, true), data, 1, out, nil))
	assert.Equal(t, int64(7), out[0])

	err := Convert(src, message.NewInteger(4, true), data, 1, out, nil)
	assert.ErrorIs(t, err, ErrBuffer)

	err = Convert(src, message.NewInteger(8, true), data, 1, make([]uint64, 1), nil)
	assert.ErrorIs(t, err, ErrBuffer)

	err = Convert(src, message.NewInteger(8, true), data, 1, []string{""}, nil)
	assert.ErrorIs(t, err, ErrBuffer)

	u8 := make([]byte, 1)
	require.NoError(t, Convert(src, message.NewInteger(1, false), data, 1, u8, nil))
	assert.Equal(t, []byte{7}, u8)
}

func TestStringsFixed(t *testing.T) {
	src := message.NewString(3, message.PadNullPad, message.CharsetASCII)
	dst := make([]byte, 8)
	require.NoError(t, Strings(src, 4, []byte("abcde\x00"), dst, nil))
	assert.Equal(t, []byte("abc\x00de\x00\x00"), dst)

	short := make([]byte, 4)
	require.NoError(t, Strings(src, 2, []byte("abcdef"), short, nil))
	assert.Equal(t, []byte("abde"), short)
}

type fakeHeap map[byte][]byte

func (f fakeHeap) Resolve(desc []byte) ([]byte, error) {
	v, ok := f[desc[0]]
	if !ok {
		return nil, errors.New("missing")
	}
	return v, nil
}

func TestStringsVarLen(t *testing.T) {
	src := &message.Datatype{Class: message.ClassVarLen, Size: 16, IsVarLenString: true}
	data := make([]byte, 32)
	data[0], data[16] = 1, 2
	vl := fakeHeap{1: []byte("hello"), 2: []byte("go")}

	dst := make([]byte, 10)
	require.NoError(t, Convert(src, message.NewString(5, message.PadNullTerm, message.CharsetASCII), data, 2, dst, vl))
	assert.Equal(t, []byte("hellogo\x00\x00\x00"), dst)

	data[16] = 9
	err := Strings(src, 5, data, dst, vl)
	assert.Error(t, err)

	err = Strings(src, 5, data, dst, nil)
	assert.ErrorIs(t, err, ErrNoConversion)
}

func TestReferenceCopy(t *testing.T) {
	ref := &message.Datatype{Class: message.ClassReference, Size: 8}
	data := binary.LittleEndian.AppendUint64(nil, 0x1234)
	dst := make([]byte, 8)
	require.NoError(t, Convert(ref, ref.Clone(), data, 1, dst, nil))
	assert.Equal(t, data, dst)

	err := Convert(message.NewInteger(8, false), ref, data, 1, dst, nil)
	assert.ErrorIs(t, err, ErrNoConversion)
}
