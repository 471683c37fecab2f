package uhdf

import (
	"fmt"
	"runtime"

	"github.com/sirupsen/logrus"

	"github.com/robert-malhotra/go-uhdf/internal/h5"
	"github.com/robert-malhotra/go-uhdf/internal/sd"
)

// File is an open SD or HDF5 file.
type File struct {
	b           *backend
	path        string
	h           handle
	root        handle // HDF5 root group
	cleanup     runtime.Cleanup
	rootCleanup runtime.Cleanup
	closed      bool
}

// Open opens the file at path for reading. The SD format is tried first,
// then HDF5.
func Open(path string, opts ...Option) (*File, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.access != ReadOnly {
		return nil, fmt.Errorf("opening %s: %w: %s access", path, ErrUnsupportedOperation, o.access)
	}
	log := o.log.WithField("path", path)

	ok, err := sd.IsSD(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if ok {
		log.WithField("format", FormatSD).Debug("format probe matched")
		return openSD(path, sd.New(), o)
	}
	ok, err = h5.IsHDF5(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if ok {
		log.WithField("format", FormatH5).Debug("format probe matched")
		return openH5(path, h5.New(), o)
	}
	return nil, fmt.Errorf("opening %s: %w", path, ErrUnrecognizedFormat)
}

func openSD(path string, api sdAPI, o *options) (*File, error) {
	b := &backend{format: FormatSD, sd: api, log: o.log}
	id, err := api.Start(path, sd.Read)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, backendErr(ErrMetadata, err))
	}
	f := &File{b: b, path: path, h: newHandle(b, kindFile, int64(id))}
	f.cleanup = track(f, f.h)
	b.log.WithFields(logrus.Fields{"path": path, "format": b.format}).Debug("opened file")
	return f, nil
}

func openH5(path string, api h5API, o *options) (*File, error) {
	b := &backend{format: FormatH5, h5: api, log: o.log}
	fid, err := api.Fopen(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, backendErr(ErrMetadata, err))
	}
	h := newHandle(b, kindFile, int64(fid))
	rid, err := api.Gopen(fid, "/")
	if err != nil {
		h.release()
		return nil, fmt.Errorf("opening root group of %s: %w", path, backendErr(ErrMetadata, err))
	}
	f := &File{b: b, path: path, h: h, root: newHandle(b, kindGroup, int64(rid))}
	f.cleanup = track(f, f.h)
	f.rootCleanup = track(f, f.root)
	b.log.WithFields(logrus.Fields{"path": path, "format": b.format}).Debug("opened file")
	return f, nil
}

// Format returns the container format of the file.
func (f *File) Format() Format { return f.b.format }

// Path returns the path the file was opened with.
func (f *File) Path() string { return f.path }

// HasGroups reports whether the format has groups.
func (f *File) HasGroups() bool { return f.b.format == FormatH5 }

// Close releases the file. Accessors opened from it stay usable until they
// are closed themselves. Closing twice is a no-op.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	f.cleanup.Stop()
	f.rootCleanup.Stop()
	rootErr := f.root.release()
	if err := f.h.release(); err != nil {
		return err
	}
	return rootErr
}

func (f *File) checkOpen() error {
	if f.closed {
		return fmt.Errorf("file %s: %w", f.path, ErrClosed)
	}
	return nil
}

// scope is the handle datasets and attributes are looked up on.
func (f *File) scope() handle {
	if f.b.format == FormatH5 {
		return f.root
	}
	return f.h
}

// DatasetNames lists the datasets at the top of the file: every dataset
// of an SD file, the root datasets of an HDF5 file.
func (f *File) DatasetNames() ([]string, error) {
	if err := f.checkOpen(); err != nil {
		return nil, err
	}
	if f.b.format == FormatH5 {
		names, err := h5Children(f.root, h5.ObjDataset)
		if err != nil {
			return nil, fmt.Errorf("listing datasets of %s: %w", f.path, err)
		}
		return names, nil
	}

	api := f.b.sd
	n, _, err := api.FileInfo(f.h.sd())
	if err != nil {
		return nil, fmt.Errorf("listing datasets of %s: %w", f.path, backendErr(ErrMetadata, err))
	}
	names := make([]string, 0, n)
	for i := 0; i < n; i++ {
		name, err := sdName(api, f.h.sd(), i)
		if err != nil {
			return nil, fmt.Errorf("listing datasets of %s: %w", f.path, backendErr(ErrMetadata, err))
		}
		names = append(names, name)
	}
	return names, nil
}

func sdName(api sdAPI, file sd.ID, index int) (string, error) {
	sds, err := api.Select(file, index)
	if err != nil {
		return "", err
	}
	info, err := api.GetInfo(sds)
	if endErr := api.EndAccess(sds); err == nil {
		err = endErr
	}
	return info.Name, err
}

// GroupNames lists the root groups. SD files report none.
func (f *File) GroupNames() ([]string, error) {
	if err := f.checkOpen(); err != nil {
		return nil, err
	}
	if f.b.format != FormatH5 {
		return []string{}, nil
	}
	names, err := h5Children(f.root, h5.ObjGroup)
	if err != nil {
		return nil, fmt.Errorf("listing groups of %s: %w", f.path, err)
	}
	return names, nil
}

// OpenGroup opens a group by path. SD files fail with
// ErrUnsupportedOperation.
func (f *File) OpenGroup(p string) (*Group, error) {
	if err := f.checkOpen(); err != nil {
		return nil, err
	}
	if f.b.format != FormatH5 {
		return nil, fmt.Errorf("opening group %s: %w: %s files have no groups", p, ErrUnsupportedOperation, f.b.format)
	}
	g, err := resolve(f.root, "/", p, openGroup)
	if err != nil {
		return nil, fmt.Errorf("opening group %s: %w", fullPath("/", p), err)
	}
	return g, nil
}

// OpenDataset opens a dataset by path.
func (f *File) OpenDataset(p string) (*Dataset, error) {
	if err := f.checkOpen(); err != nil {
		return nil, err
	}
	var (
		d   *Dataset
		err error
	)
	if f.b.format == FormatH5 {
		d, err = resolve(f.root, "/", p, openDataset)
	} else {
		d, err = f.openSDDataset(p)
	}
	if err != nil {
		return nil, fmt.Errorf("opening dataset %s: %w", fullPath("/", p), err)
	}
	return d, nil
}

func (f *File) openSDDataset(p string) (*Dataset, error) {
	parts, err := splitPath(p)
	if err != nil {
		return nil, err
	}
	if len(parts) > 1 {
		return nil, fmt.Errorf("%w: %s files have no groups", ErrNotFound, f.b.format)
	}
	return openDataset(f.h, "/", parts[0])
}

// AttributeNames lists the file attributes: the global attributes of an
// SD file, the root group attributes of an HDF5 file.
func (f *File) AttributeNames() ([]string, error) {
	if err := f.checkOpen(); err != nil {
		return nil, err
	}
	names, err := attributeNames(f.scope())
	if err != nil {
		return nil, fmt.Errorf("listing attributes of %s: %w", f.path, err)
	}
	return names, nil
}

// OpenAttribute opens a file attribute.
func (f *File) OpenAttribute(name string) (*Attribute, error) {
	if err := f.checkOpen(); err != nil {
		return nil, err
	}
	return openAttribute(f.scope(), "/", name)
}
