// Package message decodes the HDF5 object header messages needed to read
// groups, datasets and attributes: dataspace, datatype, layout, fill value,
// link, symbol table, attribute and continuation.
package message

import (
	"errors"
	"fmt"

	binpkg "github.com/robert-malhotra/go-uhdf/internal/binary"
)

// ErrTruncated is returned when a message body is shorter than its
// declared contents.
var ErrTruncated = errors.New("message truncated")

// Type is an HDF5 header message type.
type Type uint16

const (
	TypeNIL                      Type = 0x0000
	TypeDataspace                Type = 0x0001
	TypeLinkInfo                 Type = 0x0002
	TypeDatatype                 Type = 0x0003
	TypeFillValueOld             Type = 0x0004
	TypeFillValue                Type = 0x0005
	TypeLink                     Type = 0x0006
	TypeDataLayout               Type = 0x0008
	TypeFilterPipeline           Type = 0x000B
	TypeAttribute                Type = 0x000C
	TypeObjectHeaderContinuation Type = 0x0010
	TypeSymbolTable              Type = 0x0011
	TypeAttributeInfo            Type = 0x0015
)

// Header message flag bits.
const (
	FlagConstant uint8 = 0x01
	FlagShared   uint8 = 0x02
)

// Message is implemented by all decoded header messages.
type Message interface {
	Type() Type
}

// Parse decodes one header message. Types this package does not model are
// returned as *Unknown so callers can still see they exist.
func Parse(typ Type, data []byte, flags uint8, r *binpkg.Reader) (Message, error) {
	if flags&FlagShared != 0 {
		return parseShared(typ, data, r)
	}
	switch typ {
	case TypeDataspace:
		return parseDataspace(data, r)
	case TypeDatatype:
		return parseDatatype(data)
	case TypeDataLayout:
		return parseDataLayout(data, r)
	case TypeFillValue:
		return parseFillValue(data)
	case TypeAttribute:
		return parseAttribute(data, r)
	case TypeLink:
		return parseLink(data, r)
	case TypeSymbolTable:
		return parseSymbolTable(data, r)
	case TypeObjectHeaderContinuation:
		return parseContinuation(data, r)
	}
	return &Unknown{typ: typ, data: data}, nil
}

// Unknown is a message type this package does not decode.
type Unknown struct {
	typ  Type
	data []byte
}

func (m *Unknown) Type() Type   { return m.typ }
func (m *Unknown) Data() []byte { return m.data }

// Continuation points at the next block of header messages.
type Continuation struct {
	Offset uint64
	Length uint64
}

func (m *Continuation) Type() Type { return TypeObjectHeaderContinuation }

func parseContinuation(data []byte, r *binpkg.Reader) (*Continuation, error) {
	os, ls := r.OffsetSize(), r.LengthSize()
	if len(data) < os+ls {
		return nil, fmt.Errorf("continuation: %w", ErrTruncated)
	}
	return &Continuation{
		Offset: r.DecodeUint(data, os),
		Length: r.DecodeUint(data[os:], ls),
	}, nil
}

// Shared stands in for a message stored elsewhere, typically a committed
// datatype living in its own object header.
type Shared struct {
	MessageType Type
	Address     uint64
}

func (m *Shared) Type() Type { return m.MessageType }

func parseShared(typ Type, data []byte, r *binpkg.Reader) (*Shared, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("shared message: %w", ErrTruncated)
	}
	os := r.OffsetSize()
	var pos int
	switch data[0] {
	case 1:
		pos = 8
	case 2:
		pos = 2
	case 3:
		if data[1] != 2 {
			return nil, fmt.Errorf("shared message: heap-stored messages are not supported")
		}
		pos = 2
	default:
		return nil, fmt.Errorf("shared message: unsupported version %d", data[0])
	}
	if len(data) < pos+os {
		return nil, fmt.Errorf("shared message: %w", ErrTruncated)
	}
	return &Shared{MessageType: typ, Address: r.DecodeUint(data[pos:], os)}, nil
}

// cstring returns the bytes of b up to the first NUL.
func cstring(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
