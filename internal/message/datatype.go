package message

import (
	"encoding/binary"
	"fmt"
)

// DatatypeClass is the class nibble of a datatype message.
type DatatypeClass uint8

const (
	ClassFixedPoint DatatypeClass = 0
	ClassFloatPoint DatatypeClass = 1
	ClassTime       DatatypeClass = 2
	ClassString     DatatypeClass = 3
	ClassBitfield   DatatypeClass = 4
	ClassOpaque     DatatypeClass = 5
	ClassCompound   DatatypeClass = 6
	ClassReference  DatatypeClass = 7
	ClassEnum       DatatypeClass = 8
	ClassVarLen     DatatypeClass = 9
	ClassArray      DatatypeClass = 10
)

var classNames = [...]string{
	"integer", "float", "time", "string", "bitfield", "opaque",
	"compound", "reference", "enum", "vlen", "array",
}

func (c DatatypeClass) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return fmt.Sprintf("class(%d)", uint8(c))
}

// ByteOrder of numeric datatypes.
type ByteOrder uint8

const (
	OrderLE ByteOrder = 0
	OrderBE ByteOrder = 1
)

// StringPadding describes how fixed-length strings are terminated.
type StringPadding uint8

const (
	PadNullTerm StringPadding = 0
	PadNullPad  StringPadding = 1
	PadSpacePad StringPadding = 2
)

// CharacterSet of string datatypes.
type CharacterSet uint8

const (
	CharsetASCII CharacterSet = 0
	CharsetUTF8  CharacterSet = 1
)

// Datatype is a datatype message (type 0x0003). Only the properties the
// read path needs are decoded; member lists of compound, enum and array
// types are not.
type Datatype struct {
	Class   DatatypeClass
	Version uint8
	Size    uint32

	ByteOrder ByteOrder
	Signed    bool

	StringPadding StringPadding
	CharSet       CharacterSet

	// IsVarLenString marks a variable-length sequence of characters.
	IsVarLenString bool
}

func (m *Datatype) Type() Type { return TypeDatatype }

// IsString reports fixed and variable-length strings alike.
func (m *Datatype) IsString() bool {
	return m.Class == ClassString || (m.Class == ClassVarLen && m.IsVarLenString)
}

// Order returns the encoding's byte order.
func (m *Datatype) Order() binary.ByteOrder {
	if m.ByteOrder == OrderBE {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Clone returns an independent copy.
func (m *Datatype) Clone() *Datatype {
	c := *m
	return &c
}

// NewInteger describes a little-endian integer of size bytes.
func NewInteger(size uint32, signed bool) *Datatype {
	return &Datatype{Class: ClassFixedPoint, Version: 1, Size: size, Signed: signed}
}

// NewFloat describes a little-endian IEEE float of size bytes.
func NewFloat(size uint32) *Datatype {
	return &Datatype{Class: ClassFloatPoint, Version: 1, Size: size}
}

// NewString describes a fixed-length string.
func NewString(size uint32, pad StringPadding, cset CharacterSet) *Datatype {
	return &Datatype{Class: ClassString, Version: 1, Size: size, StringPadding: pad, CharSet: cset}
}

func parseDatatype(data []byte) (*Datatype, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("datatype: %w", ErrTruncated)
	}

	bits := uint32(data[1]) | uint32(data[2])<<8 | uint32(data[3])<<16
	dt := &Datatype{
		Class:   DatatypeClass(data[0] & 0x0F),
		Version: data[0] >> 4,
		Size:    binary.LittleEndian.Uint32(data[4:8]),
	}

	switch dt.Class {
	case ClassFixedPoint, ClassBitfield:
		dt.ByteOrder = ByteOrder(bits & 0x01)
		dt.Signed = bits&0x08 != 0
	case ClassFloatPoint:
		// Bit 6 together with bit 0 selects VAX order, which is not read.
		if bits&0x40 != 0 {
			return nil, fmt.Errorf("datatype: VAX float byte order is not supported")
		}
		dt.ByteOrder = ByteOrder(bits & 0x01)
		dt.Signed = true
	case ClassString:
		dt.StringPadding = StringPadding(bits & 0x0F)
		dt.CharSet = CharacterSet((bits >> 4) & 0x0F)
	case ClassVarLen:
		dt.IsVarLenString = bits&0x0F == 1
		dt.StringPadding = StringPadding((bits >> 4) & 0x0F)
		dt.CharSet = CharacterSet((bits >> 8) & 0x0F)
	case ClassTime, ClassOpaque, ClassCompound, ClassReference, ClassEnum, ClassArray:
	default:
		return nil, fmt.Errorf("datatype: unknown class %d", dt.Class)
	}
	return dt, nil
}
