package uhdf

import (
	"errors"
	"fmt"
	"math"
	"path"
	"runtime"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/robert-malhotra/go-uhdf/internal/h5"
)

// Dataset is an N-dimensional array of elements of one Type.
type Dataset struct {
	h       handle
	cleanup runtime.Cleanup
	name    string
	path    string
	typ     Type
	typeErr error
	dims    []uint64
	strSize int // bytes per string element, 0 for variable-length
	chunked bool
	closed  bool

	// format B: the file dataspace, copied for each read
	space        handle
	spaceCleanup runtime.Cleanup
}

// openDataset opens dataset name in the scope behind parent. parentPath is
// the path of that scope.
func openDataset(parent handle, parentPath, name string) (*Dataset, error) {
	d := &Dataset{name: name, path: joinPath(parentPath, name)}
	var err error
	if parent.b.format == FormatSD {
		err = d.openSD(parent)
	} else {
		err = d.openH5(parent)
	}
	if err != nil {
		d.space.release()
		d.h.release()
		return nil, err
	}
	d.cleanup = track(d, d.h)
	if d.space.valid() {
		d.spaceCleanup = track(d, d.space)
	}
	parent.b.log.WithFields(logrus.Fields{
		"format": parent.b.format,
		"object": d.path,
		"type":   d.typ,
		"dims":   d.dims,
	}).Debug("opened dataset")
	return d, nil
}

func (d *Dataset) openSD(file handle) error {
	b := file.b
	idx, err := b.sd.NameToIndex(file.sd(), d.name)
	if err != nil {
		return backendErr(ErrMetadata, err)
	}
	sds, err := b.sd.Select(file.sd(), idx)
	if err != nil {
		return backendErr(ErrMetadata, err)
	}
	d.h = newHandle(b, kindDataset, int64(sds))
	info, err := b.sd.GetInfo(sds)
	if err != nil {
		return backendErr(ErrMetadata, err)
	}
	d.dims = make([]uint64, info.Rank)
	for i := range d.dims {
		d.dims[i] = uint64(info.Dims[i])
	}
	d.typ, d.typeErr = classifySD(info.Type)
	if d.typ == String {
		d.strSize = 1
	}
	return nil
}

func (d *Dataset) openH5(loc handle) error {
	b := loc.b
	did, err := b.h5.Dopen(loc.h5(), d.name)
	if err != nil {
		return backendErr(ErrMetadata, err)
	}
	d.h = newHandle(b, kindDataset, int64(did))

	space, err := b.h5.DgetSpace(did)
	if err != nil {
		return backendErr(ErrMetadata, err)
	}
	d.space = newHandle(b, kindDataspace, int64(space))
	if d.dims, err = b.h5.SgetSimpleExtentDims(space); err != nil {
		return backendErr(ErrMetadata, err)
	}
	storage, err := b.h5.DgetLayout(did)
	if err != nil {
		return backendErr(ErrMetadata, err)
	}
	d.chunked = storage == h5.LayoutChunked

	tid, err := b.h5.DgetType(did)
	if err != nil {
		return backendErr(ErrMetadata, err)
	}
	th := newHandle(b, kindDatatype, int64(tid))
	defer th.release()
	d.typ, d.typeErr = classifyH5(b.h5, tid)
	if d.typ == String {
		vlen, err := b.h5.TisVariableStr(tid)
		if err != nil {
			return backendErr(ErrMetadata, err)
		}
		if !vlen {
			if d.strSize, err = b.h5.TgetSize(tid); err != nil {
				return backendErr(ErrMetadata, err)
			}
		}
	}
	return nil
}

// Name returns the last component of the dataset path.
func (d *Dataset) Name() string { return path.Base(d.path) }

// Path returns the full path of the dataset.
func (d *Dataset) Path() string { return d.path }

// Type returns the element type. It is Unknown when the stored type could
// not be classified; TypeErr then reports why and reads fail.
func (d *Dataset) Type() Type { return d.typ }

// TypeErr returns the classification failure of an Unknown dataset.
func (d *Dataset) TypeErr() error { return d.typeErr }

// Chunked reports chunked storage. Such datasets are listed and described
// but reading them fails with ErrUnsupportedOperation.
func (d *Dataset) Chunked() bool { return d.chunked }

// Rank returns the number of dimensions.
func (d *Dataset) Rank() int { return len(d.dims) }

// Dims returns the extent of each dimension.
func (d *Dataset) Dims() []uint64 { return append([]uint64(nil), d.dims...) }

// NumElements returns the product of the extents.
func (d *Dataset) NumElements() uint64 {
	n := uint64(1)
	for _, x := range d.dims {
		n *= x
	}
	return n
}

// Close releases the dataset. Closing twice is a no-op.
func (d *Dataset) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.cleanup.Stop()
	d.spaceCleanup.Stop()
	return errors.Join(d.space.release(), d.h.release())
}

// AttributeNames lists the attributes of the dataset.
func (d *Dataset) AttributeNames() ([]string, error) {
	if d.closed {
		return nil, fmt.Errorf("dataset %s: %w", d.path, ErrClosed)
	}
	names, err := attributeNames(d.h)
	if err != nil {
		return nil, fmt.Errorf("listing attributes of %s: %w", d.path, err)
	}
	return names, nil
}

// OpenAttribute opens an attribute of the dataset.
func (d *Dataset) OpenAttribute(name string) (*Attribute, error) {
	if d.closed {
		return nil, fmt.Errorf("dataset %s: %w", d.path, ErrClosed)
	}
	return openAttribute(d.h, d.path, name)
}

func (d *Dataset) readErr(err error) error {
	return fmt.Errorf("%w: dataset %s: %w", ErrRead, d.path, err)
}

// selection checks a hyperslab against the dataset and returns the
// number of elements it selects.
func (d *Dataset) selection(start, stride, count []int32) (int, error) {
	rank := len(d.dims)
	if len(start) != rank || len(stride) != rank || len(count) != rank {
		return 0, fmt.Errorf("%w: vectors of length %d, %d, %d for rank %d",
			ErrInvalidSelection, len(start), len(stride), len(count), rank)
	}
	n := 1
	for i := range d.dims {
		if start[i] < 0 || stride[i] <= 0 || count[i] <= 0 {
			return 0, fmt.Errorf("%w: dimension %d: start %d stride %d count %d",
				ErrInvalidSelection, i, start[i], stride[i], count[i])
		}
		last := uint64(start[i]) + uint64(count[i]-1)*uint64(stride[i])
		if last >= d.dims[i] {
			return 0, fmt.Errorf("%w: dimension %d: element %d past extent %d",
				ErrInvalidSelection, i, last, d.dims[i])
		}
		n *= int(count[i])
	}
	return n, nil
}

func (d *Dataset) check() error {
	if d.closed {
		return ErrClosed
	}
	if d.typ == Unknown {
		return fmt.Errorf("%w: %w", ErrUnknownType, d.typeErr)
	}
	return nil
}

// RawRead reads a hyperslab in the stored type. buf must be a slice of the
// Go type holding Type() with exactly product(count) elements. Fixed-length
// strings are read into a []byte of product(count) times the string size.
// Elements are stored in row-major order.
func (d *Dataset) RawRead(start, stride, count []int32, buf any) error {
	if err := d.check(); err != nil {
		return d.readErr(err)
	}
	n, err := d.selection(start, stride, count)
	if err != nil {
		return d.readErr(err)
	}
	want := n
	switch {
	case d.typ == Reference:
		return d.readErr(fmt.Errorf("%w: reference datasets", ErrUnsupportedType))
	case d.typ == String && d.strSize == 0:
		return d.readErr(fmt.Errorf("%w: variable-length string datasets", ErrUnsupportedType))
	case d.typ == String:
		want = n * d.strSize
	}
	if err := checkBuffer(d.typ, buf, want); err != nil {
		return d.readErr(err)
	}
	if d.h.b.format == FormatSD {
		err = d.h.b.sd.ReadData(d.h.sd(), start, stride, count, buf)
	} else {
		err = d.readH5(start, stride, count, n, d.typ, buf)
	}
	if err != nil {
		return d.readErr(err)
	}
	return nil
}

// readH5 selects the hyperslab in a copy of the file dataspace and reads
// it into a one-dimensional memory space of n elements.
func (d *Dataset) readH5(start, stride, count []int32, n int, mem Type, buf any) error {
	b := d.h.b
	memType, owned, err := d.h5MemType(mem)
	if err != nil {
		return err
	}
	defer owned.release()

	space, err := b.h5.Scopy(d.space.h5())
	if err != nil {
		return err
	}
	fileSpace := newHandle(b, kindDataspace, int64(space))
	defer fileSpace.release()
	if len(d.dims) > 0 {
		if err := b.h5.SselectHyperslab(space, widen(start), widen(stride), widen(count)); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSelection, err)
		}
	}
	selected, err := b.h5.SgetSelectNpoints(space)
	if err != nil {
		return err
	}
	if selected != uint64(n) {
		return fmt.Errorf("%w: %d elements selected for a buffer of %d", ErrInvalidSelection, selected, n)
	}

	ms, err := b.h5.ScreateSimple([]uint64{uint64(n)})
	if err != nil {
		return err
	}
	memSpace := newHandle(b, kindDataspace, int64(ms))
	defer memSpace.release()

	if err := b.h5.Dread(d.h.h5(), memType, ms, space, buf); err != nil {
		if errors.Is(err, h5.ErrUnsupported) {
			return fmt.Errorf("%w: %w", ErrUnsupportedOperation, err)
		}
		return err
	}
	return nil
}

// h5MemType returns the memory type to read t with. Strings use a copy of
// the stored type so fixed-length strings keep their size; that copy is
// returned as owned and must be released.
func (d *Dataset) h5MemType(t Type) (h5.ID, handle, error) {
	if t != String {
		id, err := toNativeH5(t)
		return id, handle{}, err
	}
	tid, err := d.h.b.h5.DgetType(d.h.h5())
	if err != nil {
		return h5.Invalid, handle{}, err
	}
	return tid, newHandle(d.h.b, kindDatatype, int64(tid)), nil
}

func widen(v []int32) []uint64 {
	out := make([]uint64, len(v))
	for i, x := range v {
		out[i] = uint64(x)
	}
	return out
}

// Read reads a hyperslab converted to T.
func Read[T Number](d *Dataset, start, stride, count []int32) ([]T, error) {
	if err := d.check(); err != nil {
		return nil, d.readErr(err)
	}
	n, err := d.selection(start, stride, count)
	if err != nil {
		return nil, d.readErr(err)
	}
	dst := make([]T, n)
	if err := ReadInto(d, start, stride, count, dst); err != nil {
		return nil, err
	}
	return dst, nil
}

// ReadInto reads a hyperslab converted to T into dst, which must hold
// exactly product(count) elements.
func ReadInto[T Number](d *Dataset, start, stride, count []int32, dst []T) error {
	if err := d.check(); err != nil {
		return d.readErr(err)
	}
	n, err := d.selection(start, stride, count)
	if err != nil {
		return d.readErr(err)
	}
	if len(dst) != n {
		return d.readErr(fmt.Errorf("%w: buffer holds %d elements, selection %d", ErrInvalidSelection, len(dst), n))
	}
	if !d.typ.IsNumeric() {
		return d.readErr(fmt.Errorf("%w: %s dataset read as %s", ErrUnsupportedType, d.typ, typeOf[T]()))
	}

	want := typeOf[T]()
	b := d.h.b
	switch {
	case b.format == FormatSD && want == d.typ:
		err = b.sd.ReadData(d.h.sd(), start, stride, count, dst)
	case b.format == FormatSD:
		var raw any
		if raw, err = newBuffer(d.typ, n); err == nil {
			if err = b.sd.ReadData(d.h.sd(), start, stride, count, raw); err == nil {
				err = convertSlice(raw, dst)
			}
		}
	default:
		err = d.readH5(start, stride, count, n, want, dst)
	}
	if err != nil {
		return d.readErr(err)
	}
	return nil
}

// ReadAll reads the whole dataset converted to T.
func ReadAll[T Number](d *Dataset) ([]T, error) {
	if err := d.check(); err != nil {
		return nil, d.readErr(err)
	}
	rank := len(d.dims)
	start := make([]int32, rank)
	stride := make([]int32, rank)
	count := make([]int32, rank)
	if slices.Contains(d.dims, 0) {
		return []T{}, nil
	}
	for i, x := range d.dims {
		if x > math.MaxInt32 {
			return nil, d.readErr(fmt.Errorf("%w: extent %d of dimension %d does not fit a selection count", ErrInvalidSelection, x, i))
		}
		stride[i] = 1
		count[i] = int32(x)
	}
	return Read[T](d, start, stride, count)
}
