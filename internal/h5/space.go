package h5

import (
	"fmt"

	"github.com/robert-malhotra/go-uhdf/internal/layout"
	"github.com/robert-malhotra/go-uhdf/internal/message"
)

// dataspace is a shape plus an optional hyperslab selection. A nil sel
// selects everything.
type dataspace struct {
	dims   []uint64
	scalar bool
	null   bool
	sel    *layout.Selection
}

func (s *dataspace) kind() Kind   { return KindDataspace }
func (s *dataspace) owner() *file { return nil }

func spaceFromMessage(m *message.Dataspace) *dataspace {
	return &dataspace{
		dims:   append([]uint64(nil), m.Dimensions...),
		scalar: m.IsScalar(),
		null:   m.IsNull(),
	}
}

func (s *dataspace) clone() *dataspace {
	c := &dataspace{dims: append([]uint64(nil), s.dims...), scalar: s.scalar, null: s.null}
	if s.sel != nil {
		sel := layout.Selection{
			Start:  append([]uint64(nil), s.sel.Start...),
			Stride: append([]uint64(nil), s.sel.Stride...),
			Count:  append([]uint64(nil), s.sel.Count...),
		}
		c.sel = &sel
	}
	return c
}

// selection returns the effective selection.
func (s *dataspace) selection() layout.Selection {
	if s.sel != nil {
		return *s.sel
	}
	return layout.All(s.dims)
}

// npoints is the number of selected elements.
func (s *dataspace) npoints() uint64 {
	if s.null {
		return 0
	}
	return s.selection().NumElements()
}

// ScreateSimple creates a simple dataspace with every element selected.
// An empty dims creates a scalar dataspace.
func (l *Lib) ScreateSimple(dims []uint64) (ID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := &dataspace{dims: append([]uint64(nil), dims...), scalar: len(dims) == 0}
	return l.insert(s), nil
}

// Scopy copies a dataspace and its selection.
func (l *Lib) Scopy(id ID) (ID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, err := l.space(id)
	if err != nil {
		return Invalid, err
	}
	return l.insert(s.clone()), nil
}

// Sclose closes a dataspace ID.
func (l *Lib) Sclose(id ID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.remove(id, KindDataspace)
}

// space returns an open dataspace. Callers hold l.mu.
func (l *Lib) space(id ID) (*dataspace, error) {
	obj, err := l.lookup(id, KindDataspace)
	if err != nil {
		return nil, err
	}
	return obj.(*dataspace), nil
}

// SgetSimpleExtentNdims returns the rank of a dataspace; scalar spaces
// have rank 0.
func (l *Lib) SgetSimpleExtentNdims(id ID) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, err := l.space(id)
	if err != nil {
		return 0, err
	}
	return len(s.dims), nil
}

// SgetSimpleExtentDims returns the current extents of a dataspace.
func (l *Lib) SgetSimpleExtentDims(id ID) ([]uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, err := l.space(id)
	if err != nil {
		return nil, err
	}
	return append([]uint64(nil), s.dims...), nil
}

// SgetSimpleExtentNpoints returns the number of elements in the extent.
func (l *Lib) SgetSimpleExtentNpoints(id ID) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, err := l.space(id)
	if err != nil {
		return 0, err
	}
	if s.null {
		return 0, nil
	}
	return layout.All(s.dims).NumElements(), nil
}

// SgetSelectNpoints returns the number of selected elements.
func (l *Lib) SgetSelectNpoints(id ID) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, err := l.space(id)
	if err != nil {
		return 0, err
	}
	return s.npoints(), nil
}

// SselectHyperslab replaces the selection with a regular hyperslab. A nil
// stride means a stride of one in every dimension.
func (l *Lib) SselectHyperslab(id ID, start, stride, count []uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, err := l.space(id)
	if err != nil {
		return err
	}
	if stride == nil {
		stride = make([]uint64, len(start))
		for i := range stride {
			stride[i] = 1
		}
	}
	sel := layout.Selection{
		Start:  append([]uint64(nil), start...),
		Stride: append([]uint64(nil), stride...),
		Count:  append([]uint64(nil), count...),
	}
	if err := sel.Validate(s.dims); err != nil {
		return fmt.Errorf("%w: %v", ErrSelection, err)
	}
	s.sel = &sel
	return nil
}
