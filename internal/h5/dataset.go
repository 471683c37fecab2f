package h5

import (
	"fmt"

	"github.com/robert-malhotra/go-uhdf/internal/dtype"
	"github.com/robert-malhotra/go-uhdf/internal/layout"
	"github.com/robert-malhotra/go-uhdf/internal/message"
	"github.com/robert-malhotra/go-uhdf/internal/object"
)

type dataset struct {
	f      *file
	addr   uint64
	path   string
	space  *message.Dataspace
	dt     *message.Datatype
	layout *message.DataLayout
	fill   *message.FillValue
}

func (d *dataset) kind() Kind   { return KindDataset }
func (d *dataset) owner() *file { return d.f }

func openDataset(f *file, h *object.Header, path string) (*dataset, error) {
	d := &dataset{f: f, addr: h.Address, path: path, fill: h.FillValue()}
	var err error
	if d.space, err = h.Dataspace(); err != nil {
		return nil, fmt.Errorf("dataspace: %w", err)
	}
	if d.dt, err = h.Datatype(); err != nil {
		return nil, fmt.Errorf("datatype: %w", err)
	}
	if d.dt == nil {
		return nil, fmt.Errorf("%w: no datatype message", ErrNotFound)
	}
	if d.layout, err = h.Layout(); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	if d.layout == nil {
		return nil, fmt.Errorf("%w: no layout message", ErrNotFound)
	}
	return d, nil
}

// Dopen opens the dataset at path relative to the file or group loc.
func (l *Lib) Dopen(loc ID, path string) (ID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, start, err := l.location(loc)
	if err != nil {
		return Invalid, err
	}
	addr, err := f.resolve(start, path)
	if err != nil {
		return Invalid, fmt.Errorf("opening dataset %q: %w", path, err)
	}
	h, err := f.header(addr)
	if err != nil {
		return Invalid, fmt.Errorf("opening dataset %q: %w", path, err)
	}
	if !h.Has(message.TypeDataspace) {
		return Invalid, fmt.Errorf("opening dataset %q: %w: not a dataset", path, ErrWrongKind)
	}
	d, err := openDataset(f, h, path)
	if err != nil {
		return Invalid, fmt.Errorf("opening dataset %q: %w", path, err)
	}
	f.ref()
	return l.insert(d), nil
}

// Dclose closes a dataset ID.
func (l *Lib) Dclose(id ID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.remove(id, KindDataset)
}

func (l *Lib) dataset(id ID) (*dataset, error) {
	obj, err := l.lookup(id, KindDataset)
	if err != nil {
		return nil, err
	}
	return obj.(*dataset), nil
}

// DgetSpace returns a copy of the dataset's dataspace with everything
// selected.
func (l *Lib) DgetSpace(id ID) (ID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	d, err := l.dataset(id)
	if err != nil {
		return Invalid, err
	}
	return l.insert(spaceFromMessage(d.space)), nil
}

// DgetType returns a copy of the dataset's datatype.
func (l *Lib) DgetType(id ID) (ID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	d, err := l.dataset(id)
	if err != nil {
		return Invalid, err
	}
	return l.newDatatype(d.dt, d.f), nil
}

// Layout is the storage layout of a dataset.
type Layout int

const (
	LayoutCompact    = Layout(message.LayoutCompact)
	LayoutContiguous = Layout(message.LayoutContiguous)
	LayoutChunked    = Layout(message.LayoutChunked)
	LayoutVirtual    = Layout(message.LayoutVirtual)
)

// DgetLayout returns the storage layout of a dataset. Only compact and
// contiguous datasets can be read.
func (l *Lib) DgetLayout(id ID) (Layout, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	d, err := l.dataset(id)
	if err != nil {
		return 0, err
	}
	return Layout(d.layout.Class), nil
}

// Dread reads the elements fileSpace selects into buf, converting them to
// memType. memSpace must select the same number of elements; they are
// stored contiguously in row-major order. Either space may be All.
//
// buf is a slice matching memType: a numeric slice for numeric types,
// []byte for fixed-length strings and references, or []string for a
// variable-length string memory type.
func (l *Lib) Dread(id, memType, memSpace, fileSpace ID, buf any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	d, err := l.dataset(id)
	if err != nil {
		return err
	}
	mt, err := l.datatype(memType)
	if err != nil {
		return err
	}

	fs := spaceFromMessage(d.space)
	if fileSpace != All {
		if fs, err = l.space(fileSpace); err != nil {
			return err
		}
	}
	n := fs.npoints()
	if memSpace != All {
		ms, err := l.space(memSpace)
		if err != nil {
			return err
		}
		if ms.npoints() != n {
			return fmt.Errorf("%w: memory selects %d elements, file %d", ErrSelection, ms.npoints(), n)
		}
	}
	if n == 0 {
		return nil
	}

	elem := int(d.dt.Size)
	st, err := layout.New(d.layout, d.fill, int64(d.space.NumElements())*int64(elem), d.f.r)
	if err != nil {
		return fmt.Errorf("reading %q: %w: %w", d.path, ErrUnsupported, err)
	}
	raw := make([]byte, n*uint64(elem))
	if err := layout.Gather(st, fs.dims, fs.selection(), elem, raw); err != nil {
		return fmt.Errorf("reading %q: %w", d.path, err)
	}
	if err := d.f.convert(d.dt, mt.dt, raw, int(n), buf); err != nil {
		return fmt.Errorf("reading %q: %w", d.path, err)
	}
	return nil
}

// convert converts raw elements of src into buf laid out as mem.
func (f *file) convert(src, mem *message.Datatype, raw []byte, n int, buf any) error {
	if strs, ok := buf.([]string); ok {
		if !mem.IsVarLenString {
			return fmt.Errorf("%w: []string needs a variable-length string memory type", dtype.ErrBuffer)
		}
		return f.varStrings(src, raw, n, strs)
	}
	return dtype.Convert(src, mem, raw, n, buf, f.heaps)
}

func (f *file) varStrings(src *message.Datatype, raw []byte, n int, dst []string) error {
	if len(dst) < n {
		return fmt.Errorf("%w: %d strings for %d elements", dtype.ErrBuffer, len(dst), n)
	}
	if !src.IsVarLenString {
		return fmt.Errorf("%w: %s to variable-length string", dtype.ErrNoConversion, src.Class)
	}
	size := int(src.Size)
	for i := 0; i < n; i++ {
		b, err := f.heaps.Resolve(raw[i*size : (i+1)*size])
		if err != nil {
			return fmt.Errorf("string element %d: %w", i, err)
		}
		dst[i] = string(b)
	}
	return nil
}
