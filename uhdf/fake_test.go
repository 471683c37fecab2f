package uhdf

import (
	"fmt"

	"github.com/robert-malhotra/go-uhdf/internal/sd"
)

// fakeSD is an in-memory SD reader. It holds types netCDF classic cannot
// store and records every call.
type fakeSD struct {
	vars  []fakeVar
	attrs []fakeAttr
	calls []string
	sds   map[sd.ID]int
	next  sd.ID
}

type fakeVar struct {
	name  string
	typ   sd.NumberType
	dims  []int32
	data  any
	attrs []fakeAttr
}

type fakeAttr struct {
	name string
	typ  sd.NumberType
	data any
}

const fakeFileID sd.ID = 1

func (f *fakeSD) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeSD) Start(path string, access sd.Access) (sd.ID, error) {
	f.record("Start")
	f.sds = make(map[sd.ID]int)
	f.next = 100
	return fakeFileID, nil
}

func (f *fakeSD) End(id sd.ID) error {
	f.record("End")
	if id != fakeFileID {
		return sd.ErrBadID
	}
	return nil
}

func (f *fakeSD) FileInfo(id sd.ID) (int, int, error) {
	f.record("FileInfo")
	return len(f.vars), len(f.attrs), nil
}

func (f *fakeSD) Select(id sd.ID, index int) (sd.ID, error) {
	f.record("Select %d", index)
	if index < 0 || index >= len(f.vars) {
		return sd.Fail, sd.ErrNotFound
	}
	f.next++
	f.sds[f.next] = index
	return f.next, nil
}

func (f *fakeSD) NameToIndex(id sd.ID, name string) (int, error) {
	f.record("NameToIndex %s", name)
	for i, v := range f.vars {
		if v.name == name {
			return i, nil
		}
	}
	return -1, sd.ErrNotFound
}

func (f *fakeSD) variable(id sd.ID) (*fakeVar, error) {
	i, ok := f.sds[id]
	if !ok {
		return nil, sd.ErrBadID
	}
	return &f.vars[i], nil
}

func (f *fakeSD) GetInfo(id sd.ID) (sd.Info, error) {
	f.record("GetInfo")
	v, err := f.variable(id)
	if err != nil {
		return sd.Info{}, err
	}
	return sd.Info{Name: v.name, Rank: len(v.dims), Dims: v.dims, Type: v.typ, NAttrs: len(v.attrs)}, nil
}

func (f *fakeSD) EndAccess(id sd.ID) error {
	f.record("EndAccess")
	if _, ok := f.sds[id]; !ok {
		return sd.ErrBadID
	}
	delete(f.sds, id)
	return nil
}

func (f *fakeSD) attrList(id sd.ID) ([]fakeAttr, error) {
	if id == fakeFileID {
		return f.attrs, nil
	}
	v, err := f.variable(id)
	if err != nil {
		return nil, err
	}
	return v.attrs, nil
}

func (f *fakeSD) FindAttr(id sd.ID, name string) (int, error) {
	f.record("FindAttr %s", name)
	attrs, err := f.attrList(id)
	if err != nil {
		return -1, err
	}
	for i, a := range attrs {
		if a.name == name {
			return i, nil
		}
	}
	return -1, sd.ErrNotFound
}

func (f *fakeSD) AttrInfo(id sd.ID, index int) (sd.AttrInfo, error) {
	f.record("AttrInfo %d", index)
	attrs, err := f.attrList(id)
	if err != nil {
		return sd.AttrInfo{}, err
	}
	if index < 0 || index >= len(attrs) {
		return sd.AttrInfo{}, sd.ErrNotFound
	}
	a := attrs[index]
	return sd.AttrInfo{Name: a.name, Type: a.typ, Count: lenOf(a.data)}, nil
}

func (f *fakeSD) ReadAttr(id sd.ID, index int, buf any) error {
	f.record("ReadAttr %T", buf)
	attrs, err := f.attrList(id)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(attrs) {
		return sd.ErrNotFound
	}
	a := attrs[index]
	idx := make([]int, lenOf(a.data))
	for i := range idx {
		idx[i] = i
	}
	return pick(a.data, idx, buf)
}

func (f *fakeSD) ReadData(id sd.ID, start, stride, edge []int32, buf any) error {
	f.record("ReadData %T", buf)
	v, err := f.variable(id)
	if err != nil {
		return err
	}
	return pick(v.data, hyperslab(v.dims, start, stride, edge), buf)
}

// hyperslab returns the row-major flat indices a selection visits.
func hyperslab(dims, start, stride, edge []int32) []int {
	if len(dims) == 0 {
		return []int{0}
	}
	var out []int
	pos := make([]int32, len(dims))
	for {
		flat := 0
		for i := range dims {
			flat = flat*int(dims[i]) + int(start[i]+pos[i]*stride[i])
		}
		out = append(out, flat)
		d := len(dims) - 1
		for ; d >= 0; d-- {
			pos[d]++
			if pos[d] < edge[d] {
				break
			}
			pos[d] = 0
		}
		if d < 0 {
			return out
		}
	}
}

func lenOf(data any) int {
	switch d := data.(type) {
	case []uint8:
		return len(d)
	case []int8:
		return len(d)
	case []uint16:
		return len(d)
	case []int16:
		return len(d)
	case []uint32:
		return len(d)
	case []int32:
		return len(d)
	case []uint64:
		return len(d)
	case []int64:
		return len(d)
	case []float32:
		return len(d)
	case []float64:
		return len(d)
	}
	return 0
}

func pick(src any, idx []int, dst any) error {
	switch s := src.(type) {
	case []uint8:
		return pickInto(s, idx, dst)
	case []int8:
		return pickInto(s, idx, dst)
	case []uint16:
		return pickInto(s, idx, dst)
	case []int16:
		return pickInto(s, idx, dst)
	case []uint32:
		return pickInto(s, idx, dst)
	case []int32:
		return pickInto(s, idx, dst)
	case []uint64:
		return pickInto(s, idx, dst)
	case []int64:
		return pickInto(s, idx, dst)
	case []float32:
		return pickInto(s, idx, dst)
	case []float64:
		return pickInto(s, idx, dst)
	}
	return sd.ErrBadType
}

func pickInto[T any](src []T, idx []int, dst any) error {
	d, ok := dst.([]T)
	if !ok || len(d) < len(idx) {
		return fmt.Errorf("%w: %T for %T", sd.ErrBadType, dst, src)
	}
	for i, j := range idx {
		d[i] = src[j]
	}
	return nil
}

// newFakeSD holds:
//
//	u16     UINT16  [3]    1 40000 65535
//	i64     INT64   [2 2]  -1 1<<40 3 4
//	u8      UCHAR8  [4]    0 127 128 255
//	alias8  UINT8   [1]    7
//	wide    INT32   [4]    1 300 -129 70000, attrs scale=[1.5 2.5], empty=[]
//	f64     FLOAT64 [3]    2.7 -2.7 0.5
//	bad     code 99 [1]
//
// and the file attribute count=7 (UINT32).
func newFakeSD() *fakeSD {
	return &fakeSD{
		vars: []fakeVar{
			{name: "u16", typ: sd.UInt16, dims: []int32{3}, data: []uint16{1, 40000, 65535}},
			{name: "i64", typ: sd.Int64, dims: []int32{2, 2}, data: []int64{-1, 1 << 40, 3, 4}},
			{name: "u8", typ: sd.UChar8, dims: []int32{4}, data: []uint8{0, 127, 128, 255}},
			{name: "alias8", typ: sd.UInt8, dims: []int32{1}, data: []uint8{7}},
			{name: "wide", typ: sd.Int32, dims: []int32{4}, data: []int32{1, 300, -129, 70000}, attrs: []fakeAttr{
				{name: "scale", typ: sd.Float64, data: []float64{1.5, 2.5}},
				{name: "empty", typ: sd.Int32, data: []int32{}},
			}},
			{name: "f64", typ: sd.Float64, dims: []int32{3}, data: []float64{2.7, -2.7, 0.5}},
			{name: "bad", typ: sd.NumberType(99), dims: []int32{1}, data: []int32{0}},
		},
		attrs: []fakeAttr{{name: "count", typ: sd.UInt32, data: []uint32{7}}},
	}
}
