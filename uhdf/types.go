package uhdf

import (
	"fmt"

	"github.com/robert-malhotra/go-uhdf/internal/h5"
	"github.com/robert-malhotra/go-uhdf/internal/sd"
)

// Type is the element type of a dataset or attribute. The zero value is
// Unknown.
type Type uint8

const (
	Unknown Type = iota
	UInt8
	Int8
	UInt16
	Int16
	UInt32
	Int32
	UInt64
	Int64
	Float32
	Float64
	String
	Reference
)

var typeNames = [...]string{
	Unknown:   "unknown",
	UInt8:     "uint8",
	Int8:      "int8",
	UInt16:    "uint16",
	Int16:     "int16",
	UInt32:    "uint32",
	Int32:     "int32",
	UInt64:    "uint64",
	Int64:     "int64",
	Float32:   "float32",
	Float64:   "float64",
	String:    "string",
	Reference: "reference",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// Size returns the width of one element in bytes. String, Reference and
// Unknown report 0.
func (t Type) Size() int {
	switch t {
	case UInt8, Int8:
		return 1
	case UInt16, Int16:
		return 2
	case UInt32, Int32, Float32:
		return 4
	case UInt64, Int64, Float64:
		return 8
	}
	return 0
}

// IsNumeric reports whether t is an integer or floating point type.
func (t Type) IsNumeric() bool { return t.Size() > 0 }

// Number is the set of Go element types reads convert to.
type Number interface {
	uint8 | int8 | uint16 | int16 | uint32 | int32 | uint64 | int64 | float32 | float64
}

// typeOf returns the Type of the Go element type T.
func typeOf[T Number]() Type {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return UInt8
	case int8:
		return Int8
	case uint16:
		return UInt16
	case int16:
		return Int16
	case uint32:
		return UInt32
	case int32:
		return Int32
	case uint64:
		return UInt64
	case int64:
		return Int64
	case float32:
		return Float32
	case float64:
		return Float64
	}
	return Unknown
}

// sdTypes classifies SD number types. UINT8 is an alias of UCHAR8 and
// CHAR8 holds text.
var sdTypes = map[sd.NumberType]Type{
	sd.UChar8:  UInt8,
	sd.UInt8:   UInt8,
	sd.Int8:    Int8,
	sd.UInt16:  UInt16,
	sd.Int16:   Int16,
	sd.UInt32:  UInt32,
	sd.Int32:   Int32,
	sd.UInt64:  UInt64,
	sd.Int64:   Int64,
	sd.Float32: Float32,
	sd.Float64: Float64,
	sd.Char8:   String,
}

var sdNative = map[Type]sd.NumberType{
	UInt8:   sd.UChar8,
	Int8:    sd.Int8,
	UInt16:  sd.UInt16,
	Int16:   sd.Int16,
	UInt32:  sd.UInt32,
	Int32:   sd.Int32,
	UInt64:  sd.UInt64,
	Int64:   sd.Int64,
	Float32: sd.Float32,
	Float64: sd.Float64,
	String:  sd.Char8,
}

func classifySD(nt sd.NumberType) (Type, error) {
	if t, ok := sdTypes[nt]; ok {
		return t, nil
	}
	return Unknown, fmt.Errorf("%w: SD number type %s", ErrUnsupportedType, nt)
}

func toNativeSD(t Type) (sd.NumberType, error) {
	if nt, ok := sdNative[t]; ok {
		return nt, nil
	}
	return 0, fmt.Errorf("%w: %s has no SD number type", ErrUnsupportedType, t)
}

var h5Native = map[Type]h5.ID{
	UInt8:     h5.NativeUint8,
	Int8:      h5.NativeInt8,
	UInt16:    h5.NativeUint16,
	Int16:     h5.NativeInt16,
	UInt32:    h5.NativeUint32,
	Int32:     h5.NativeInt32,
	UInt64:    h5.NativeUint64,
	Int64:     h5.NativeInt64,
	Float32:   h5.NativeFloat,
	Float64:   h5.NativeDouble,
	String:    h5.CS1,
	Reference: h5.StdRefObj,
}

// h5Integers is indexed by signedness and then byte width.
var h5Integers = map[bool]map[int]Type{
	false: {1: UInt8, 2: UInt16, 4: UInt32, 8: UInt64},
	true:  {1: Int8, 2: Int16, 4: Int32, 8: Int64},
}

// classifyH5 inspects an HDF5 datatype.
func classifyH5(api h5API, tid h5.ID) (Type, error) {
	class, err := api.TgetClass(tid)
	if err != nil {
		return Unknown, fmt.Errorf("%w: %w", ErrMetadata, err)
	}
	switch class {
	case h5.ClassReference:
		return Reference, nil
	case h5.ClassString:
		return String, nil
	case h5.ClassCompound:
		return Unknown, ErrUnsupportedCompoundType
	case h5.ClassInteger, h5.ClassFloat:
	default:
		return Unknown, fmt.Errorf("%w: HDF5 %s class", ErrUnsupportedType, class)
	}
	size, err := api.TgetSize(tid)
	if err != nil {
		return Unknown, fmt.Errorf("%w: %w", ErrMetadata, err)
	}
	if class == h5.ClassFloat {
		switch size {
		case 4:
			return Float32, nil
		case 8:
			return Float64, nil
		}
		return Unknown, fmt.Errorf("%w: %d-byte float", ErrUnsupportedType, size)
	}
	signed, err := api.TgetSign(tid)
	if err != nil {
		return Unknown, fmt.Errorf("%w: %w", ErrMetadata, err)
	}
	if t, ok := h5Integers[signed][size]; ok {
		return t, nil
	}
	return Unknown, fmt.Errorf("%w: %d-byte integer", ErrUnsupportedType, size)
}

func toNativeH5(t Type) (h5.ID, error) {
	if id, ok := h5Native[t]; ok {
		return id, nil
	}
	return h5.Invalid, fmt.Errorf("%w: %s has no HDF5 memory type", ErrUnsupportedType, t)
}
