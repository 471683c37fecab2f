package message

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	binpkg "github.com/robert-malhotra/go-uhdf/internal/binary"
)

func mockReader() *binpkg.Reader {
	return binpkg.NewReader(bytes.NewReader(nil), binpkg.DefaultConfig())
}

func u16(v uint16) []byte { return binary.LittleEndian.AppendUint16(nil, v) }
func u32(v uint32) []byte { return binary.LittleEndian.AppendUint32(nil, v) }
func u64(v uint64) []byte { return binary.LittleEndian.AppendUint64(nil, v) }

func cat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// datatypeBytes encodes a version 1 datatype header with empty properties
// padded to the property size the class normally carries.
func datatypeBytes(class DatatypeClass, bits uint32, size uint32, props int) []byte {
	b := []byte{byte(class) | 1<<4, byte(bits), byte(bits >> 8), byte(bits >> 16)}
	b = append(b, u32(size)...)
	return append(b, make([]byte, props)...)
}

func TestDataspace(t *testing.T) {
	tests := []struct {
		name  string
		data  []byte
		typ   DataspaceType
		dims  []uint64
		max   []uint64
		count uint64
	}{
		{"v2 scalar", []byte{2, 0, 0, 0}, DataspaceScalar, nil, nil, 1},
		{"v2 null", []byte{2, 0, 0, 2}, DataspaceNull, nil, nil, 0},
		{"v2 simple 4x3", cat([]byte{2, 2, 0, 1}, u64(4), u64(3)), DataspaceSimple, []uint64{4, 3}, nil, 12},
		{"v2 with max", cat([]byte{2, 1, 1, 1}, u64(5), u64(^uint64(0))), DataspaceSimple, []uint64{5}, []uint64{^uint64(0)}, 5},
		{"v1 simple", cat([]byte{1, 2, 0, 0, 0, 0, 0, 0}, u64(2), u64(7)), DataspaceSimple, []uint64{2, 7}, nil, 14},
		{"v1 scalar", []byte{1, 0, 0, 0, 0, 0, 0, 0}, DataspaceScalar, nil, nil, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := parseDataspace(tt.data, mockReader())
			require.NoError(t, err)
			assert.Equal(t, tt.typ, ds.SpaceType)
			assert.Equal(t, tt.dims, ds.Dimensions)
			assert.Equal(t, tt.max, ds.MaxDims)
			assert.Equal(t, tt.count, ds.NumElements())
		})
	}

	_, err := parseDataspace(cat([]byte{2, 2, 0, 1}, u64(4)), mockReader())
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestDatatype(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		class  DatatypeClass
		size   uint32
		signed bool
		order  ByteOrder
	}{
		{"int32 LE", datatypeBytes(ClassFixedPoint, 0x08, 4, 4), ClassFixedPoint, 4, true, OrderLE},
		{"uint16 BE", datatypeBytes(ClassFixedPoint, 0x01, 2, 4), ClassFixedPoint, 2, false, OrderBE},
		{"float64", datatypeBytes(ClassFloatPoint, 0x20, 8, 12), ClassFloatPoint, 8, true, OrderLE},
		{"compound", datatypeBytes(ClassCompound, 2, 16, 0), ClassCompound, 16, false, OrderLE},
		{"reference", datatypeBytes(ClassReference, 0, 8, 0), ClassReference, 8, false, OrderLE},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dt, err := parseDatatype(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.class, dt.Class)
			assert.Equal(t, tt.size, dt.Size)
			assert.Equal(t, tt.signed, dt.Signed)
			assert.Equal(t, tt.order, dt.ByteOrder)
		})
	}
}

func TestDatatypeStrings(t *testing.T) {
	dt, err := parseDatatype(datatypeBytes(ClassString, uint32(PadSpacePad)|uint32(CharsetUTF8)<<4, 12, 0))
	require.NoError(t, err)
	assert.True(t, dt.IsString())
	assert.Equal(t, PadSpacePad, dt.StringPadding)
	assert.Equal(t, CharsetUTF8, dt.CharSet)

	vlen, err := parseDatatype(cat(datatypeBytes(ClassVarLen, 1, 16, 0), datatypeBytes(ClassFixedPoint, 0, 1, 4)))
	require.NoError(t, err)
	assert.True(t, vlen.IsVarLenString)
	assert.True(t, vlen.IsString())

	seq, err := parseDatatype(datatypeBytes(ClassVarLen, 0, 16, 0))
	require.NoError(t, err)
	assert.False(t, seq.IsString())
}

func TestDatatypeErrors(t *testing.T) {
	_, err := parseDatatype([]byte{0, 0, 0})
	assert.ErrorIs(t, err, ErrTruncated)

	_, err = parseDatatype(datatypeBytes(DatatypeClass(14), 0, 4, 0))
	assert.Error(t, err)
}

func TestDataLayout(t *testing.T) {
	t.Run("v3 contiguous", func(t *testing.T) {
		l, err := parseDataLayout(cat([]byte{3, 1}, u64(0x800), u64(96)), mockReader())
		require.NoError(t, err)
		assert.Equal(t, LayoutContiguous, l.Class)
		assert.Equal(t, uint64(0x800), l.Address)
		assert.Equal(t, uint64(96), l.Size)
	})
	t.Run("v3 compact", func(t *testing.T) {
		l, err := parseDataLayout(cat([]byte{3, 0}, u16(4), []byte{1, 2, 3, 4}), mockReader())
		require.NoError(t, err)
		assert.Equal(t, LayoutCompact, l.Class)
		assert.Equal(t, []byte{1, 2, 3, 4}, l.CompactData)
	})
	t.Run("v1 compact", func(t *testing.T) {
		data := cat([]byte{1, 1, 0, 0, 0, 0, 0, 0}, u32(2), u32(2), []byte{9, 8})
		l, err := parseDataLayout(data, mockReader())
		require.NoError(t, err)
		assert.Equal(t, []byte{9, 8}, l.CompactData)
	})
	t.Run("v3 chunked is recognized", func(t *testing.T) {
		l, err := parseDataLayout([]byte{3, 2, 0, 1, 4}, mockReader())
		require.NoError(t, err)
		assert.Equal(t, LayoutChunked, l.Class)
		assert.Equal(t, "chunked", l.Class.String())
	})
	t.Run("bad version", func(t *testing.T) {
		_, err := parseDataLayout([]byte{9, 1}, mockReader())
		assert.Error(t, err)
	})
}

func TestFillValue(t *testing.T) {
	fv, err := parseFillValue(cat([]byte{2, 1, 0, 1}, u32(4), u32(0xdeadbeef)))
	require.NoError(t, err)
	assert.True(t, fv.Defined)
	assert.Equal(t, u32(0xdeadbeef), fv.Value)

	fv, err = parseFillValue(cat([]byte{3, 0x20}, u32(2), []byte{7, 7}))
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 7}, fv.Value)

	fv, err = parseFillValue([]byte{3, 0x10})
	require.NoError(t, err)
	assert.False(t, fv.Defined)
	assert.Nil(t, fv.Value)
}

func TestAttributeV1(t *testing.T) {
	dt := datatypeBytes(ClassFixedPoint, 0x08, 4, 4) // 12 bytes, padded to 16
	ds := cat([]byte{1, 1, 0, 0, 0, 0, 0, 0}, u64(2))
	data := cat(
		[]byte{1, 0}, u16(6), u16(uint16(len(dt))), u16(uint16(len(ds))),
		[]byte("units\x00"), make([]byte, 2),
		dt, make([]byte, 4),
		ds,
		u32(10), u32(20),
	)
	a, err := parseAttribute(data, mockReader())
	require.NoError(t, err)
	assert.Equal(t, "units", a.Name)
	assert.Equal(t, ClassFixedPoint, a.Datatype.Class)
	assert.Equal(t, []uint64{2}, a.Dataspace.Dimensions)
	assert.Equal(t, cat(u32(10), u32(20)), a.Data)
}

func TestAttributeV3(t *testing.T) {
	dt := datatypeBytes(ClassString, 0, 5, 0)
	ds := []byte{2, 0, 0, 0}
	data := cat(
		[]byte{3, 0}, u16(5), u16(uint16(len(dt))), u16(uint16(len(ds))), []byte{0},
		[]byte("name\x00"), dt, ds, []byte("hello"),
	)
	a, err := parseAttribute(data, mockReader())
	require.NoError(t, err)
	assert.Equal(t, "name", a.Name)
	assert.True(t, a.Datatype.IsString())
	assert.True(t, a.Dataspace.IsScalar())
	assert.Equal(t, []byte("hello"), a.Data)
}

func TestLink(t *testing.T) {
	hard := cat([]byte{1, 0x00, 4}, []byte("data"), u64(0x1234))
	l, err := parseLink(hard, mockReader())
	require.NoError(t, err)
	assert.Equal(t, LinkHard, l.LinkType)
	assert.Equal(t, "data", l.Name)
	assert.Equal(t, uint64(0x1234), l.ObjectAddress)

	soft := cat([]byte{1, 0x08, byte(LinkSoft), 3}, []byte("alt"), u16(5), []byte("/data"))
	l, err = parseLink(soft, mockReader())
	require.NoError(t, err)
	assert.Equal(t, LinkSoft, l.LinkType)
	assert.Equal(t, "/data", l.SoftTarget)
}

func TestParseDispatch(t *testing.T) {
	r := mockReader()

	msg, err := Parse(TypeSymbolTable, cat(u64(0x100), u64(0x200)), 0, r)
	require.NoError(t, err)
	st := msg.(*SymbolTable)
	assert.Equal(t, uint64(0x100), st.BTreeAddress)
	assert.Equal(t, uint64(0x200), st.LocalHeapAddress)

	msg, err = Parse(TypeObjectHeaderContinuation, cat(u64(0x400), u64(64)), 0, r)
	require.NoError(t, err)
	assert.Equal(t, &Continuation{Offset: 0x400, Length: 64}, msg)

	msg, err = Parse(TypeDatatype, cat([]byte{2, 0}, u64(0x900)), FlagShared, r)
	require.NoError(t, err)
	assert.Equal(t, &Shared{MessageType: TypeDatatype, Address: 0x900}, msg)

	msg, err = Parse(Type(0x0E), []byte{1, 2, 3}, 0, r)
	require.NoError(t, err)
	assert.Equal(t, Type(0x0E), msg.Type())
}
