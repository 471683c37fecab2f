// Package layout reads the raw bytes of a dataset from its storage layout
// and gathers hyperslab selections out of them.
package layout

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-uhdf/internal/binary"
	"github.com/robert-malhotra/go-uhdf/internal/message"
)

var (
	ErrUnsupportedLayout = errors.New("unsupported storage layout")
	ErrOutOfRange        = errors.New("read outside dataset storage")
)

// Storage gives byte access to a dataset's elements in row-major order.
type Storage interface {
	Class() message.LayoutClass
	// ReadAt fills p with the stored bytes starting off bytes into the
	// dataset.
	ReadAt(p []byte, off int64) error
}

// New returns the storage described by l for a dataset of size bytes.
// Unallocated contiguous storage reads as the fill value, or zeros.
func New(l *message.DataLayout, fill *message.FillValue, size int64, r *binary.Reader) (Storage, error) {
	switch l.Class {
	case message.LayoutCompact:
		return compact{data: l.CompactData}, nil
	case message.LayoutContiguous:
		if r.IsUndefined(l.Address) {
			var pattern []byte
			if fill != nil && fill.Defined {
				pattern = fill.Value
			}
			return fillStorage{pattern: pattern, size: size}, nil
		}
		return contiguous{r: r, address: int64(l.Address), size: size}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedLayout, l.Class)
}

type compact struct{ data []byte }

func (compact) Class() message.LayoutClass { return message.LayoutCompact }

func (c compact) ReadAt(p []byte, off int64) error {
	if off < 0 || off+int64(len(p)) > int64(len(c.data)) {
		return fmt.Errorf("%w: compact bytes [%d,%d) of %d", ErrOutOfRange, off, off+int64(len(p)), len(c.data))
	}
	copy(p, c.data[off:])
	return nil
}

type contiguous struct {
	r       *binary.Reader
	address int64
	size    int64
}

func (contiguous) Class() message.LayoutClass { return message.LayoutContiguous }

func (c contiguous) ReadAt(p []byte, off int64) error {
	if off < 0 || off+int64(len(p)) > c.size {
		return fmt.Errorf("%w: contiguous bytes [%d,%d) of %d", ErrOutOfRange, off, off+int64(len(p)), c.size)
	}
	if err := c.r.ReadAt(p, c.address+off); err != nil {
		return fmt.Errorf("reading contiguous data: %w", err)
	}
	return nil
}

type fillStorage struct {
	pattern []byte
	size    int64
}

func (fillStorage) Class() message.LayoutClass { return message.LayoutContiguous }

func (f fillStorage) ReadAt(p []byte, off int64) error {
	if off < 0 || off+int64(len(p)) > f.size {
		return fmt.Errorf("%w: bytes [%d,%d) of %d", ErrOutOfRange, off, off+int64(len(p)), f.size)
	}
	if len(f.pattern) == 0 {
		clear(p)
		return nil
	}
	n := int64(len(f.pattern))
	for i := range p {
		p[i] = f.pattern[(off+int64(i))%n]
	}
	return nil
}
