package uhdf

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/sirupsen/logrus"

	"github.com/robert-malhotra/go-uhdf/internal/h5"
	"github.com/robert-malhotra/go-uhdf/internal/sd"
)

// Attribute is a named value attached to a file, group or dataset.
type Attribute struct {
	h       handle
	cleanup runtime.Cleanup
	values  any // SD only: the values, read at open
	name    string
	path    string
	typ     Type
	typeErr error
	count   uint64
	npoints uint64
	closed  bool
}

// backendErr wraps a reader error in the matching error of this package.
// Errors that are not about a missing object or an unsupported feature
// become kind.
func backendErr(kind, err error) error {
	switch {
	case errors.Is(err, sd.ErrNotFound), errors.Is(err, h5.ErrNotFound), errors.Is(err, h5.ErrWrongKind):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, sd.ErrUnsupported), errors.Is(err, h5.ErrUnsupported), errors.Is(err, sd.ErrHDF4):
		return fmt.Errorf("%w: %w", ErrUnsupportedOperation, err)
	}
	return fmt.Errorf("%w: %w", kind, err)
}

// attributeNames lists the attributes of a file, group or dataset handle.
func attributeNames(h handle) ([]string, error) {
	b := h.b
	if b.format == FormatSD {
		var n int
		switch h.kind {
		case kindFile:
			_, attrs, err := b.sd.FileInfo(h.sd())
			if err != nil {
				return nil, backendErr(ErrMetadata, err)
			}
			n = attrs
		default:
			info, err := b.sd.GetInfo(h.sd())
			if err != nil {
				return nil, backendErr(ErrMetadata, err)
			}
			n = info.NAttrs
		}
		names := make([]string, 0, n)
		for i := 0; i < n; i++ {
			info, err := b.sd.AttrInfo(h.sd(), i)
			if err != nil {
				return nil, backendErr(ErrMetadata, err)
			}
			names = append(names, info.Name)
		}
		return names, nil
	}

	n, err := b.h5.AgetNumAttrs(h.h5())
	if err != nil {
		return nil, backendErr(ErrMetadata, err)
	}
	names := make([]string, 0, n)
	for i := 0; i < n; i++ {
		name, err := b.h5.AgetNameByIdx(h.h5(), i)
		if err != nil {
			return nil, backendErr(ErrMetadata, err)
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// openAttribute opens attribute name of the object behind owner.
// ownerPath is used in messages.
func openAttribute(owner handle, ownerPath, name string) (*Attribute, error) {
	if !owner.valid() {
		return nil, fmt.Errorf("opening attribute %q of %s: %w", name, ownerPath, ErrClosed)
	}
	a := &Attribute{name: name, path: JoinAttrPath(ownerPath, name)}
	var err error
	if owner.b.format == FormatSD {
		err = a.openSD(owner)
	} else {
		err = a.openH5(owner)
	}
	if err != nil {
		a.h.release()
		return nil, fmt.Errorf("opening attribute %s: %w", a.path, err)
	}
	a.cleanup = track(a, a.h)
	owner.b.log.WithFields(logrus.Fields{
		"format": owner.b.format,
		"object": a.path,
		"type":   a.typ,
	}).Debug("opened attribute")
	return a, nil
}

func (a *Attribute) openSD(owner handle) error {
	b := owner.b
	idx, err := b.sd.FindAttr(owner.sd(), a.name)
	if err != nil {
		return backendErr(ErrMetadata, err)
	}
	info, err := b.sd.AttrInfo(owner.sd(), idx)
	if err != nil {
		return backendErr(ErrMetadata, err)
	}
	// SD attributes are not objects; the handle only carries the index.
	a.h = newHandle(b, kindAttribute, int64(idx))
	a.typ, a.typeErr = classifySD(info.Type)
	a.count = uint64(info.Count)
	a.npoints = a.count
	if a.typ == Unknown {
		return nil
	}
	// The owner is only borrowed for the open, so the values are copied now.
	// Zero-element attributes still transfer one slot.
	buf, err := sdBuffer(info.Type, max(info.Count, 1))
	if err != nil {
		return err
	}
	if err := b.sd.ReadAttr(owner.sd(), idx, buf); err != nil {
		return backendErr(ErrRead, err)
	}
	a.values = buf
	return nil
}

func (a *Attribute) openH5(owner handle) error {
	b := owner.b
	aid, err := b.h5.Aopen(owner.h5(), a.name)
	if err != nil {
		return backendErr(ErrMetadata, err)
	}
	a.h = newHandle(b, kindAttribute, int64(aid))

	space, err := b.h5.AgetSpace(aid)
	if err != nil {
		return backendErr(ErrMetadata, err)
	}
	sh := newHandle(b, kindDataspace, int64(space))
	defer sh.release()
	if a.npoints, err = b.h5.SgetSimpleExtentNpoints(space); err != nil {
		return backendErr(ErrMetadata, err)
	}

	tid, err := b.h5.AgetType(aid)
	if err != nil {
		return backendErr(ErrMetadata, err)
	}
	th := newHandle(b, kindDatatype, int64(tid))
	defer th.release()
	a.typ, a.typeErr = classifyH5(b.h5, tid)

	switch a.typ {
	case Reference:
		a.count = 1
	case String:
		a.count, err = h5StringLen(b.h5, aid, tid, a.npoints)
		if err != nil {
			return backendErr(ErrMetadata, err)
		}
	default:
		a.count = a.npoints
	}
	return nil
}

// h5StringLen is the byte length of one string of a string attribute: the
// declared size of a fixed-length string, or the length of the first
// value of a variable-length one.
func h5StringLen(api h5API, aid, tid h5.ID, npoints uint64) (uint64, error) {
	vlen, err := api.TisVariableStr(tid)
	if err != nil {
		return 0, err
	}
	if !vlen {
		size, err := api.TgetSize(tid)
		return uint64(size), err
	}
	if npoints == 0 {
		return 0, nil
	}
	strs := make([]string, npoints)
	if err := api.Aread(aid, tid, strs); err != nil {
		return 0, err
	}
	return uint64(len(strs[0])), nil
}

// Name returns the attribute name.
func (a *Attribute) Name() string { return a.name }

// Path returns the attribute path in object@name form.
func (a *Attribute) Path() string { return a.path }

// Type returns the element type. It is Unknown when the stored type could
// not be classified; TypeErr then reports why.
func (a *Attribute) Type() Type { return a.typ }

// TypeErr returns the classification failure of an Unknown attribute.
func (a *Attribute) TypeErr() error { return a.typeErr }

// IsString reports whether the attribute holds text.
func (a *Attribute) IsString() bool { return a.typ == String }

// NumElements returns the number of values. For an HDF5 string attribute
// it is the byte length of one string.
func (a *Attribute) NumElements() uint64 { return a.count }

// Close releases the attribute. Closing twice is a no-op.
func (a *Attribute) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	a.cleanup.Stop()
	return a.h.release()
}

func (a *Attribute) readErr(err error) error {
	return fmt.Errorf("%w: attribute %s: %w", ErrRead, a.path, err)
}

// ReadAttribute reads every value of a numeric attribute as T. A value of
// another numeric type is converted. Reference attributes read as an empty
// slice.
func ReadAttribute[T Number](a *Attribute) ([]T, error) {
	if a.closed {
		return nil, a.readErr(ErrClosed)
	}
	switch a.typ {
	case Unknown:
		return nil, a.readErr(fmt.Errorf("%w: %w", ErrUnknownType, a.typeErr))
	case String:
		return nil, a.readErr(fmt.Errorf("%w: string attribute read as %s", ErrUnsupportedType, typeOf[T]()))
	case Reference:
		return []T{}, nil
	}

	n := int(a.count)
	// Zero-element attributes still transfer one slot.
	buf := make([]T, max(n, 1))
	b := a.h.b
	switch b.format {
	case FormatSD:
		if err := convertSlice(a.values, buf); err != nil {
			return nil, a.readErr(err)
		}
	case FormatH5:
		mem, err := toNativeH5(typeOf[T]())
		if err != nil {
			return nil, a.readErr(err)
		}
		if err := b.h5.Aread(a.h.h5(), mem, buf); err != nil {
			return nil, a.readErr(err)
		}
	}
	return buf[:n], nil
}

// ReadAsString reads a string attribute. The result stops at the first
// NUL, so an N-byte string without one reads as exactly N bytes.
func (a *Attribute) ReadAsString() (string, error) {
	if a.closed {
		return "", a.readErr(ErrClosed)
	}
	if a.typ != String {
		return "", a.readErr(fmt.Errorf("%w: %s attribute read as string", ErrUnsupportedType, a.typ))
	}
	n := int(a.count)
	b := a.h.b
	if b.format == FormatSD {
		buf, ok := a.values.([]byte)
		if !ok || len(buf) < n {
			return "", a.readErr(fmt.Errorf("%w: %T values for a string", ErrUnsupportedType, a.values))
		}
		return cString(buf[:n]), nil
	}

	s, err := a.readH5String(n)
	if err != nil {
		return "", a.readErr(err)
	}
	return s, nil
}

// readH5String reads the first string of the attribute as a
// NUL-terminated ASCII string of n+1 bytes.
func (a *Attribute) readH5String(n int) (string, error) {
	api := a.h.b.h5
	tid, err := api.AgetType(a.h.h5())
	if err != nil {
		return "", err
	}
	th := newHandle(a.h.b, kindDatatype, int64(tid))
	defer th.release()
	mem, err := api.Tcopy(tid)
	if err != nil {
		return "", err
	}
	mh := newHandle(a.h.b, kindDatatype, int64(mem))
	defer mh.release()

	if err := api.TsetSize(mem, n+1); err != nil {
		return "", err
	}
	if err := api.TsetStrpad(mem, h5.StrNullTerm); err != nil {
		return "", err
	}
	if err := api.TsetCset(mem, h5.CsetASCII); err != nil {
		return "", err
	}
	buf := make([]byte, (n+1)*int(max(a.npoints, 1)))
	if err := api.Aread(a.h.h5(), mem, buf); err != nil {
		return "", err
	}
	return cString(buf[:n+1]), nil
}
