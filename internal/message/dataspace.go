package message

import (
	"fmt"

	binpkg "github.com/robert-malhotra/go-uhdf/internal/binary"
)

// DataspaceType is the kind of a dataspace.
type DataspaceType uint8

const (
	DataspaceScalar DataspaceType = 0
	DataspaceSimple DataspaceType = 1
	DataspaceNull   DataspaceType = 2
)

// Dataspace is a dataspace message (type 0x0001).
type Dataspace struct {
	Version    uint8
	Rank       int
	SpaceType  DataspaceType
	Dimensions []uint64
	MaxDims    []uint64 // nil when not stored
}

func (m *Dataspace) Type() Type { return TypeDataspace }

// NumElements returns the number of elements the dataspace describes.
func (m *Dataspace) NumElements() uint64 {
	switch m.SpaceType {
	case DataspaceScalar:
		return 1
	case DataspaceSimple:
		n := uint64(1)
		for _, d := range m.Dimensions {
			n *= d
		}
		return n
	}
	return 0
}

// IsScalar reports whether this is a scalar dataspace.
func (m *Dataspace) IsScalar() bool {
	return m.SpaceType == DataspaceScalar
}

// IsNull reports whether this is a null dataspace.
func (m *Dataspace) IsNull() bool {
	return m.SpaceType == DataspaceNull
}

func parseDataspace(data []byte, r *binpkg.Reader) (*Dataspace, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("dataspace: %w", ErrTruncated)
	}

	ds := &Dataspace{
		Version: data[0],
		Rank:    int(data[1]),
	}
	hasMax := data[2]&0x01 != 0

	pos := 4
	switch ds.Version {
	case 1:
		// Version 1 has no type byte and four more reserved bytes.
		pos = 8
		ds.SpaceType = DataspaceSimple
		if ds.Rank == 0 {
			ds.SpaceType = DataspaceScalar
		}
	case 2:
		ds.SpaceType = DataspaceType(data[3])
	default:
		return nil, fmt.Errorf("dataspace: unsupported version %d", ds.Version)
	}

	if ds.SpaceType != DataspaceSimple || ds.Rank == 0 {
		return ds, nil
	}

	ls := r.LengthSize()
	need := pos + ds.Rank*ls
	if hasMax {
		need += ds.Rank * ls
	}
	if len(data) < need {
		return nil, fmt.Errorf("dataspace dimensions: %w", ErrTruncated)
	}

	ds.Dimensions = make([]uint64, ds.Rank)
	for i := range ds.Dimensions {
		ds.Dimensions[i] = r.DecodeUint(data[pos:], ls)
		pos += ls
	}
	if hasMax {
		ds.MaxDims = make([]uint64, ds.Rank)
		for i := range ds.MaxDims {
			ds.MaxDims[i] = r.DecodeUint(data[pos:], ls)
			pos += ls
		}
	}
	return ds, nil
}
