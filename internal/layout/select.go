package layout

import (
	"errors"
	"fmt"
)

var ErrInvalidSelection = errors.New("invalid selection")

// Selection is a regular hyperslab: per dimension a start, a stride and a
// count of elements.
type Selection struct {
	Start  []uint64
	Stride []uint64
	Count  []uint64
}

// All selects every element of a dataspace with dims.
func All(dims []uint64) Selection {
	s := Selection{
		Start:  make([]uint64, len(dims)),
		Stride: make([]uint64, len(dims)),
		Count:  append([]uint64(nil), dims...),
	}
	for i := range s.Stride {
		s.Stride[i] = 1
	}
	return s
}

// NumElements is the number of selected elements.
func (s Selection) NumElements() uint64 {
	n := uint64(1)
	for _, c := range s.Count {
		n *= c
	}
	return n
}

// Validate checks that s has the rank of dims, strides of at least one and
// that the last selected index of every dimension lies inside it.
func (s Selection) Validate(dims []uint64) error {
	if len(s.Start) != len(dims) || len(s.Stride) != len(dims) || len(s.Count) != len(dims) {
		return fmt.Errorf("%w: rank %d selection for rank %d dataspace", ErrInvalidSelection, len(s.Start), len(dims))
	}
	for i, d := range dims {
		if s.Stride[i] == 0 {
			return fmt.Errorf("%w: zero stride in dimension %d", ErrInvalidSelection, i)
		}
		if s.Count[i] == 0 {
			continue
		}
		if last := s.Start[i] + (s.Count[i]-1)*s.Stride[i]; last >= d {
			return fmt.Errorf("%w: dimension %d reaches index %d of %d", ErrInvalidSelection, i, last, d)
		}
	}
	return nil
}

// Gather copies the selected elements of st, each elemSize bytes, into dst
// in row-major order of the selection.
func Gather(st Storage, dims []uint64, sel Selection, elemSize int, dst []byte) error {
	if err := sel.Validate(dims); err != nil {
		return err
	}
	n := sel.NumElements()
	if uint64(len(dst)) < n*uint64(elemSize) {
		return fmt.Errorf("%w: %d bytes for %d elements", ErrInvalidSelection, len(dst), n)
	}
	if n == 0 {
		return nil
	}
	rank := len(dims)
	if rank == 0 {
		return st.ReadAt(dst[:elemSize], 0)
	}

	// Element strides of each dimension in the stored array.
	pitch := make([]uint64, rank)
	pitch[rank-1] = 1
	for i := rank - 2; i >= 0; i-- {
		pitch[i] = pitch[i+1] * dims[i+1]
	}

	inner := sel.Count[rank-1]
	step := sel.Stride[rank-1]
	span := make([]byte, ((inner-1)*step+1)*uint64(elemSize))
	idx := make([]uint64, rank-1)
	out := dst
	for {
		first := sel.Start[rank-1]
		for d := 0; d < rank-1; d++ {
			first += (sel.Start[d] + idx[d]*sel.Stride[d]) * pitch[d]
		}
		off := int64(first) * int64(elemSize)
		if step == 1 {
			if err := st.ReadAt(out[:inner*uint64(elemSize)], off); err != nil {
				return err
			}
		} else {
			if err := st.ReadAt(span, off); err != nil {
				return err
			}
			for k := uint64(0); k < inner; k++ {
				copy(out[k*uint64(elemSize):], span[k*step*uint64(elemSize):(k*step+1)*uint64(elemSize)])
			}
		}
		out = out[inner*uint64(elemSize):]

		// Advance the outer index like an odometer.
		d := rank - 2
		for ; d >= 0; d-- {
			idx[d]++
			if idx[d] < sel.Count[d] {
				break
			}
			idx[d] = 0
		}
		if d < 0 {
			return nil
		}
	}
}
