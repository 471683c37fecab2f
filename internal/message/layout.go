package message

import (
	"encoding/binary"
	"fmt"

	binpkg "github.com/robert-malhotra/go-uhdf/internal/binary"
)

// LayoutClass is the storage layout of a dataset.
type LayoutClass uint8

const (
	LayoutCompact    LayoutClass = 0
	LayoutContiguous LayoutClass = 1
	LayoutChunked    LayoutClass = 2
	LayoutVirtual    LayoutClass = 3
)

func (c LayoutClass) String() string {
	switch c {
	case LayoutCompact:
		return "compact"
	case LayoutContiguous:
		return "contiguous"
	case LayoutChunked:
		return "chunked"
	case LayoutVirtual:
		return "virtual"
	}
	return fmt.Sprintf("layout(%d)", uint8(c))
}

// DataLayout is a data layout message (type 0x0008). Chunked and virtual
// layouts are recognized but their indexes are not decoded.
type DataLayout struct {
	Version uint8
	Class   LayoutClass

	// Compact
	CompactData []byte

	// Contiguous
	Address uint64
	Size    uint64
}

func (m *DataLayout) Type() Type { return TypeDataLayout }

func parseDataLayout(data []byte, r *binpkg.Reader) (*DataLayout, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("data layout: %w", ErrTruncated)
	}
	l := &DataLayout{Version: data[0]}

	var pos int
	switch l.Version {
	case 1, 2:
		if len(data) < 8 {
			return nil, fmt.Errorf("data layout: %w", ErrTruncated)
		}
		ndims := int(data[1])
		l.Class = LayoutClass(data[2])
		// Reserved bytes and a data address follow, then one 4-byte size
		// per dimension. Contiguous v1/v2 store the address only; the size
		// is derived by the caller from the dataspace.
		pos = 8
		switch l.Class {
		case LayoutContiguous:
			os := r.OffsetSize()
			if len(data) < pos+os {
				return nil, fmt.Errorf("contiguous layout: %w", ErrTruncated)
			}
			l.Address = r.DecodeUint(data[pos:], os)
		case LayoutCompact:
			pos += ndims * 4
			if len(data) < pos+4 {
				return nil, fmt.Errorf("compact layout: %w", ErrTruncated)
			}
			n := int(binary.LittleEndian.Uint32(data[pos:]))
			pos += 4
			if len(data) < pos+n {
				return nil, fmt.Errorf("compact layout data: %w", ErrTruncated)
			}
			l.CompactData = append([]byte(nil), data[pos:pos+n]...)
		}
	case 3, 4:
		l.Class = LayoutClass(data[1])
		pos = 2
		switch l.Class {
		case LayoutCompact:
			if len(data) < pos+2 {
				return nil, fmt.Errorf("compact layout: %w", ErrTruncated)
			}
			n := int(binary.LittleEndian.Uint16(data[pos:]))
			pos += 2
			if len(data) < pos+n {
				return nil, fmt.Errorf("compact layout data: %w", ErrTruncated)
			}
			l.CompactData = append([]byte(nil), data[pos:pos+n]...)
		case LayoutContiguous:
			os, ls := r.OffsetSize(), r.LengthSize()
			if len(data) < pos+os+ls {
				return nil, fmt.Errorf("contiguous layout: %w", ErrTruncated)
			}
			l.Address = r.DecodeUint(data[pos:], os)
			l.Size = r.DecodeUint(data[pos+os:], ls)
		}
	default:
		return nil, fmt.Errorf("data layout: unsupported version %d", l.Version)
	}
	return l, nil
}
