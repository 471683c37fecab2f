package message

import (
	"encoding/binary"
	"fmt"

	binpkg "github.com/robert-malhotra/go-uhdf/internal/binary"
)

// Attribute is an attribute message (type 0x000C) with its value bytes.
type Attribute struct {
	Version   uint8
	Name      string
	Datatype  *Datatype
	Dataspace *Dataspace
	Data      []byte
}

func (m *Attribute) Type() Type { return TypeAttribute }

// parseAttribute decodes an attribute message laid out as
// version (1), flags (1), name size (2), datatype size (2), dataspace size (2),
// [v3: name encoding (1)], name, datatype, dataspace, data.
// Version 1 pads name, datatype and dataspace to multiples of 8 bytes.
func parseAttribute(data []byte, r *binpkg.Reader) (*Attribute, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("attribute: %w", ErrTruncated)
	}
	a := &Attribute{Version: data[0]}
	if a.Version < 1 || a.Version > 3 {
		return nil, fmt.Errorf("attribute: unsupported version %d", a.Version)
	}
	if data[1]&0x03 != 0 {
		return nil, fmt.Errorf("attribute: shared datatype or dataspace is not supported")
	}

	nameSize := int(binary.LittleEndian.Uint16(data[2:]))
	typeSize := int(binary.LittleEndian.Uint16(data[4:]))
	spaceSize := int(binary.LittleEndian.Uint16(data[6:]))

	pos := 8
	if a.Version == 3 {
		pos = 9
	}
	field := func(n int) ([]byte, error) {
		if len(data) < pos+n {
			return nil, ErrTruncated
		}
		b := data[pos : pos+n]
		pos += n
		if a.Version == 1 {
			pos = (pos + 7) &^ 7
		}
		return b, nil
	}

	name, err := field(nameSize)
	if err != nil {
		return nil, fmt.Errorf("attribute name: %w", err)
	}
	a.Name = cstring(name)

	tb, err := field(typeSize)
	if err != nil {
		return nil, fmt.Errorf("attribute %q datatype: %w", a.Name, err)
	}
	if a.Datatype, err = parseDatatype(tb); err != nil {
		return nil, fmt.Errorf("attribute %q: %w", a.Name, err)
	}

	sb, err := field(spaceSize)
	if err != nil {
		return nil, fmt.Errorf("attribute %q dataspace: %w", a.Name, err)
	}
	if a.Dataspace, err = parseDataspace(sb, r); err != nil {
		return nil, fmt.Errorf("attribute %q: %w", a.Name, err)
	}

	if pos < len(data) {
		a.Data = append([]byte(nil), data[pos:]...)
	}
	return a, nil
}
