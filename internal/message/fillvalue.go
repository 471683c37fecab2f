package message

import (
	"encoding/binary"
	"fmt"
)

// FillValue is a fill value message (type 0x0005). Value is nil when the
// fill value is undefined or the library default (all zero bytes).
type FillValue struct {
	Version   uint8
	AllocTime uint8
	Defined   bool
	Value     []byte
}

func (m *FillValue) Type() Type { return TypeFillValue }

func parseFillValue(data []byte) (*FillValue, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("fill value: %w", ErrTruncated)
	}
	fv := &FillValue{Version: data[0]}

	pos := 0
	present := false
	switch fv.Version {
	case 1, 2:
		if len(data) < 4 {
			return nil, fmt.Errorf("fill value: %w", ErrTruncated)
		}
		fv.AllocTime = data[1]
		fv.Defined = data[3] != 0
		present = fv.Defined
		pos = 4
	case 3:
		flags := data[1]
		fv.AllocTime = flags & 0x03
		fv.Defined = flags&0x10 == 0
		present = flags&0x20 != 0
		pos = 2
	default:
		return nil, fmt.Errorf("fill value: unsupported version %d", fv.Version)
	}

	if !present {
		return fv, nil
	}
	if len(data) < pos+4 {
		return nil, fmt.Errorf("fill value size: %w", ErrTruncated)
	}
	n := int(binary.LittleEndian.Uint32(data[pos:]))
	pos += 4
	if len(data) < pos+n {
		return nil, fmt.Errorf("fill value data: %w", ErrTruncated)
	}
	if n > 0 {
		fv.Value = append([]byte(nil), data[pos:pos+n]...)
	}
	return fv, nil
}
