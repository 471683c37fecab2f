package sd

import (
	"fmt"

	"github.com/ctessum/cdf"
)

// element is a Go type the cdf readers accept.
type element interface {
	uint8 | int16 | int32 | float32 | float64
}

// ReadAttr copies the values of attribute index of a file or dataset into
// buf, which must be the slice type matching the attribute's number type
// ([]int8 for INT8, []byte for CHAR8) and hold at least Count values.
func (l *Lib) ReadAttr(id ID, index int, buf any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	info, val, err := l.attr(id, index)
	if err != nil {
		return err
	}
	if err := checkBuffer(info.Type, buf, info.Count); err != nil {
		return fmt.Errorf("attribute %q: %w", info.Name, err)
	}
	switch v := val.(type) {
	case []uint8:
		dst := buf.([]int8)
		for i, b := range v {
			dst[i] = int8(b)
		}
	case string:
		copy(buf.([]byte), v)
	case []int16:
		copy(buf.([]int16), v)
	case []int32:
		copy(buf.([]int32), v)
	case []float32:
		copy(buf.([]float32), v)
	case []float64:
		copy(buf.([]float64), v)
	}
	return nil
}

// checkBuffer verifies that buf is the slice type for nt with room for n
// values.
func checkBuffer(nt NumberType, buf any, n int) error {
	var (
		have int
		ok   bool
	)
	switch nt {
	case Int8:
		var b []int8
		b, ok = buf.([]int8)
		have = len(b)
	case Char8, UChar8, UInt8:
		var b []byte
		b, ok = buf.([]byte)
		have = len(b)
	case Int16:
		var b []int16
		b, ok = buf.([]int16)
		have = len(b)
	case UInt16:
		var b []uint16
		b, ok = buf.([]uint16)
		have = len(b)
	case Int32:
		var b []int32
		b, ok = buf.([]int32)
		have = len(b)
	case UInt32:
		var b []uint32
		b, ok = buf.([]uint32)
		have = len(b)
	case Int64:
		var b []int64
		b, ok = buf.([]int64)
		have = len(b)
	case UInt64:
		var b []uint64
		b, ok = buf.([]uint64)
		have = len(b)
	case Float32:
		var b []float32
		b, ok = buf.([]float32)
		have = len(b)
	case Float64:
		var b []float64
		b, ok = buf.([]float64)
		have = len(b)
	}
	if !ok {
		return fmt.Errorf("%w: %T for %s", ErrBadType, buf, nt)
	}
	if have < n {
		return fmt.Errorf("%w: buffer holds %d of %d values", ErrBadType, have, n)
	}
	return nil
}

// ReadData reads the hyperslab of a selected dataset described by start,
// stride and edge into buf in row-major order. A nil stride reads every
// element. buf follows the rules of ReadAttr. A rank 0 dataset takes empty
// selection vectors and reads its single value.
func (l *Lib) ReadData(sdsID ID, start, stride, edge []int32, buf any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, err := l.dataset(sdsID)
	if err != nil {
		return err
	}
	h := s.file.cdf.Header
	nt, err := typeOf(h.ZeroValue(s.name, 0))
	if err != nil {
		return fmt.Errorf("dataset %q: %w", s.name, err)
	}
	dims := s.file.dims(s.name)
	sel, err := newSlab(dims, start, stride, edge)
	if err != nil {
		return fmt.Errorf("dataset %q: %w", s.name, err)
	}
	n := sel.count()
	if err := checkBuffer(nt, buf, n); err != nil {
		return fmt.Errorf("dataset %q: %w", s.name, err)
	}
	if n == 0 {
		return nil
	}

	f := s.file.cdf
	switch nt {
	case Int8:
		raw := make([]uint8, n)
		if err := gather(f, s.name, sel, raw); err != nil {
			return fmt.Errorf("dataset %q: %w", s.name, err)
		}
		dst := buf.([]int8)
		for i, b := range raw {
			dst[i] = int8(b)
		}
		return nil
	case Char8:
		err = gather(f, s.name, sel, buf.([]byte))
	case Int16:
		err = gather(f, s.name, sel, buf.([]int16))
	case Int32:
		err = gather(f, s.name, sel, buf.([]int32))
	case Float32:
		err = gather(f, s.name, sel, buf.([]float32))
	case Float64:
		err = gather(f, s.name, sel, buf.([]float64))
	}
	if err != nil {
		return fmt.Errorf("dataset %q: %w", s.name, err)
	}
	return nil
}

// slab is a validated hyperslab.
type slab struct {
	start, stride, edge []int
}

func newSlab(dims []int, start, stride, edge []int32) (slab, error) {
	rank := len(dims)
	if len(start) != rank || len(edge) != rank || (stride != nil && len(stride) != rank) {
		return slab{}, fmt.Errorf("%w: rank %d selection for rank %d dataset", ErrBadSelect, len(start), rank)
	}
	s := slab{start: make([]int, rank), stride: make([]int, rank), edge: make([]int, rank)}
	for i := range dims {
		s.start[i], s.edge[i], s.stride[i] = int(start[i]), int(edge[i]), 1
		if stride != nil {
			s.stride[i] = int(stride[i])
		}
		switch {
		case s.start[i] < 0 || s.edge[i] < 0 || s.stride[i] < 1:
			return slab{}, fmt.Errorf("%w: dimension %d: start %d stride %d edge %d", ErrBadSelect, i, s.start[i], s.stride[i], s.edge[i])
		case s.edge[i] > 0 && s.start[i]+(s.edge[i]-1)*s.stride[i] >= dims[i]:
			return slab{}, fmt.Errorf("%w: dimension %d: selection ends past extent %d", ErrBadSelect, i, dims[i])
		}
	}
	return s, nil
}

func (s slab) count() int {
	n := 1
	for _, e := range s.edge {
		n *= e
	}
	return n
}

// gather reads the slab into dst. Every run along the innermost dimension
// is read as one contiguous span and strided in memory.
func gather[T element](f *cdf.File, name string, s slab, dst []T) error {
	rank := len(s.edge)
	if rank == 0 {
		return readSpan(f.Reader(name, nil, nil), dst[:1])
	}
	inner := rank - 1
	span := (s.edge[inner]-1)*s.stride[inner] + 1
	tmp := make([]T, span)
	pos := make([]int, inner)
	begin := make([]int, rank)
	end := make([]int, rank)
	for off := 0; off < len(dst); off += s.edge[inner] {
		for d := 0; d < inner; d++ {
			begin[d] = s.start[d] + pos[d]*s.stride[d]
			end[d] = begin[d]
		}
		begin[inner] = s.start[inner]
		end[inner] = s.start[inner] + span - 1
		if err := readSpan(f.Reader(name, begin, end), tmp); err != nil {
			return err
		}
		for j := 0; j < s.edge[inner]; j++ {
			dst[off+j] = tmp[j*s.stride[inner]]
		}
		for d := inner - 1; d >= 0; d-- {
			pos[d]++
			if pos[d] < s.edge[d] {
				break
			}
			pos[d] = 0
		}
	}
	return nil
}

func readSpan[T element](r cdf.Reader, dst []T) error {
	if r == nil {
		return ErrNotFound
	}
	n, err := r.Read(dst)
	if err != nil {
		return fmt.Errorf("read %d of %d values: %w", n, len(dst), err)
	}
	return nil
}
