package sd

import (
	"fmt"
)

// NumberType is an SD element type code.
type NumberType int32

const (
	UChar8  NumberType = 3
	Char8   NumberType = 4
	Float32 NumberType = 5
	Float64 NumberType = 6
	Int8    NumberType = 20
	UInt8   NumberType = 21
	Int16   NumberType = 22
	UInt16  NumberType = 23
	Int32   NumberType = 24
	UInt32  NumberType = 25
	Int64   NumberType = 26
	UInt64  NumberType = 27
)

var numberTypeNames = map[NumberType]string{
	UChar8:  "UCHAR8",
	Char8:   "CHAR8",
	Float32: "FLOAT32",
	Float64: "FLOAT64",
	Int8:    "INT8",
	UInt8:   "UINT8",
	Int16:   "INT16",
	UInt16:  "UINT16",
	Int32:   "INT32",
	UInt32:  "UINT32",
	Int64:   "INT64",
	UInt64:  "UINT64",
}

func (t NumberType) String() string {
	if s, ok := numberTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("NumberType(%d)", int32(t))
}

// Size returns the element size in bytes, or 0 for an unknown code.
func (t NumberType) Size() int {
	switch t {
	case UChar8, Char8, Int8, UInt8:
		return 1
	case Int16, UInt16:
		return 2
	case Int32, UInt32, Float32:
		return 4
	case Int64, UInt64, Float64:
		return 8
	}
	return 0
}

// typeOf maps a netCDF value, as the cdf package hands it out, to its
// number type. BYTE is signed in netCDF even though it is read as []uint8.
func typeOf(v any) (NumberType, error) {
	switch v.(type) {
	case []uint8:
		return Int8, nil
	case string:
		return Char8, nil
	case []int16:
		return Int16, nil
	case []int32:
		return Int32, nil
	case []float32:
		return Float32, nil
	case []float64:
		return Float64, nil
	}
	return 0, fmt.Errorf("%w: value of type %T", ErrBadType, v)
}

func valueLen(v any) int {
	switch v := v.(type) {
	case []uint8:
		return len(v)
	case string:
		return len(v)
	case []int16:
		return len(v)
	case []int32:
		return len(v)
	case []float32:
		return len(v)
	case []float64:
		return len(v)
	}
	return 0
}
