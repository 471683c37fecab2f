// Package sd provides the flat scientific dataset (SD) interface over
// netCDF classic files (CDF-1 and CDF-2). Files and datasets are addressed
// by integer IDs; datasets are selected by index or looked up by name and
// attributes are addressed by index on their file or dataset.
package sd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ctessum/cdf"
)

// ID identifies an open file or selected dataset.
type ID int32

// Fail is the ID returned alongside errors.
const Fail ID = -1

var (
	ErrNotSD       = errors.New("not an SD file")
	ErrHDF4        = errors.New("HDF4 DD-block files are not supported")
	ErrNotFound    = errors.New("not found")
	ErrBadID       = errors.New("invalid identifier")
	ErrBadType     = errors.New("buffer does not match number type")
	ErrBadSelect   = errors.New("invalid selection")
	ErrUnsupported = errors.New("unsupported operation")
)

// Access is a file access mode.
type Access int

const (
	Read  Access = 1
	Write Access = 2
)

var (
	magicCDF1 = []byte("CDF\x01")
	magicCDF2 = []byte("CDF\x02")
	magicHDF4 = []byte{0x0e, 0x03, 0x13, 0x01}
)

// IsSD reports whether the file at path starts with a netCDF classic or
// HDF4 signature.
func IsSD(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	magic, err := readMagic(f)
	if err != nil {
		return false, nil
	}
	return isMagic(magic, magicCDF1, magicCDF2, magicHDF4), nil
}

func readMagic(r io.ReaderAt) ([]byte, error) {
	magic := make([]byte, 4)
	if _, err := r.ReadAt(magic, 0); err != nil {
		return nil, err
	}
	return magic, nil
}

func isMagic(b []byte, magics ...[]byte) bool {
	for _, m := range magics {
		if bytes.Equal(b, m) {
			return true
		}
	}
	return false
}

type sdFile struct {
	path string
	f    *os.File
	cdf  *cdf.File
	size int64
	vars []string
	refs int
}

type sdsRef struct {
	file  *sdFile
	index int
	name  string
}

// Lib is the SD handle table of one reader instance. Calls are serialized.
type Lib struct {
	mu    sync.Mutex
	next  ID
	files map[ID]*sdFile
	sds   map[ID]*sdsRef
}

// New returns an empty Lib.
func New() *Lib {
	return &Lib{
		next:  1,
		files: make(map[ID]*sdFile),
		sds:   make(map[ID]*sdsRef),
	}
}

func (l *Lib) newID() ID {
	id := l.next
	l.next++
	return id
}

// Start opens a file. Only Read access is supported.
func (l *Lib) Start(path string, access Access) (ID, error) {
	if access != Read {
		return Fail, fmt.Errorf("%w: access mode %d", ErrUnsupported, access)
	}
	f, err := os.Open(path)
	if err != nil {
		return Fail, err
	}
	sf, err := open(f, path)
	if err != nil {
		f.Close()
		return Fail, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.newID()
	l.files[id] = sf
	return id, nil
}

func open(f *os.File, path string) (*sdFile, error) {
	magic, err := readMagic(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, ErrNotSD)
	}
	switch {
	case isMagic(magic, magicHDF4):
		return nil, fmt.Errorf("%s: %w", path, ErrHDF4)
	case !isMagic(magic, magicCDF1, magicCDF2):
		return nil, fmt.Errorf("%s: %w", path, ErrNotSD)
	}
	cf, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("%s: reading header: %w", path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return &sdFile{
		path: path,
		f:    f,
		cdf:  cf,
		size: fi.Size(),
		vars: cf.Header.Variables(),
		refs: 1,
	}, nil
}

func (f *sdFile) unref() error {
	f.refs--
	if f.refs > 0 {
		return nil
	}
	return f.f.Close()
}

// End closes a file. Datasets selected from it stay readable until
// EndAccess.
func (l *Lib) End(id ID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, ok := l.files[id]
	if !ok {
		return fmt.Errorf("%w: file %d", ErrBadID, id)
	}
	delete(l.files, id)
	return f.unref()
}

func (l *Lib) file(id ID) (*sdFile, error) {
	f, ok := l.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: file %d", ErrBadID, id)
	}
	return f, nil
}

func (l *Lib) dataset(id ID) (*sdsRef, error) {
	s, ok := l.sds[id]
	if !ok {
		return nil, fmt.Errorf("%w: dataset %d", ErrBadID, id)
	}
	return s, nil
}

// FileInfo returns the number of datasets and of global attributes.
func (l *Lib) FileInfo(id ID) (datasets, attrs int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := l.file(id)
	if err != nil {
		return 0, 0, err
	}
	return len(f.vars), len(f.cdf.Header.Attributes("")), nil
}

// NameToIndex returns the index of the dataset called name.
func (l *Lib) NameToIndex(id ID, name string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := l.file(id)
	if err != nil {
		return -1, err
	}
	for i, v := range f.vars {
		if v == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("dataset %q: %w", name, ErrNotFound)
}

// Select opens dataset index of file id.
func (l *Lib) Select(id ID, index int) (ID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := l.file(id)
	if err != nil {
		return Fail, err
	}
	if index < 0 || index >= len(f.vars) {
		return Fail, fmt.Errorf("dataset index %d of %d: %w", index, len(f.vars), ErrNotFound)
	}
	f.refs++
	sid := l.newID()
	l.sds[sid] = &sdsRef{file: f, index: index, name: f.vars[index]}
	return sid, nil
}

// EndAccess releases a selected dataset.
func (l *Lib) EndAccess(sdsID ID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, err := l.dataset(sdsID)
	if err != nil {
		return err
	}
	delete(l.sds, sdsID)
	return s.file.unref()
}

// Info describes a dataset.
type Info struct {
	Name   string
	Rank   int
	Dims   []int32
	Type   NumberType
	NAttrs int
}

// GetInfo describes a selected dataset. The record dimension of a record
// variable reports the number of records in the file.
func (l *Lib) GetInfo(sdsID ID) (Info, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, err := l.dataset(sdsID)
	if err != nil {
		return Info{}, err
	}
	h := s.file.cdf.Header
	dims := s.file.dims(s.name)
	nt, err := typeOf(h.ZeroValue(s.name, 0))
	if err != nil {
		return Info{}, fmt.Errorf("dataset %q: %w", s.name, err)
	}
	out := Info{
		Name:   s.name,
		Rank:   len(dims),
		Dims:   make([]int32, len(dims)),
		Type:   nt,
		NAttrs: len(h.Attributes(s.name)),
	}
	for i, d := range dims {
		out.Dims[i] = int32(d)
	}
	return out, nil
}

func (f *sdFile) dims(name string) []int {
	h := f.cdf.Header
	dims := append([]int(nil), h.Lengths(name)...)
	if h.IsRecordVariable(name) {
		dims[0] = int(h.NumRecs(f.size))
	}
	return dims
}

// owner returns the variable name attributes of id belong to: "" for a
// file, the dataset name for a dataset.
func (l *Lib) owner(id ID) (*sdFile, string, error) {
	if f, ok := l.files[id]; ok {
		return f, "", nil
	}
	if s, ok := l.sds[id]; ok {
		return s.file, s.name, nil
	}
	return nil, "", fmt.Errorf("%w: %d", ErrBadID, id)
}

// FindAttr returns the index of attribute name on a file or dataset.
func (l *Lib) FindAttr(id ID, name string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, v, err := l.owner(id)
	if err != nil {
		return -1, err
	}
	for i, a := range f.cdf.Header.Attributes(v) {
		if a == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("attribute %q: %w", name, ErrNotFound)
}

// AttrInfo describes one attribute.
type AttrInfo struct {
	Name  string
	Type  NumberType
	Count int
}

func (l *Lib) attr(id ID, index int) (AttrInfo, any, error) {
	f, v, err := l.owner(id)
	if err != nil {
		return AttrInfo{}, nil, err
	}
	names := f.cdf.Header.Attributes(v)
	if index < 0 || index >= len(names) {
		return AttrInfo{}, nil, fmt.Errorf("attribute index %d of %d: %w", index, len(names), ErrNotFound)
	}
	val := f.cdf.Header.GetAttribute(v, names[index])
	nt, err := typeOf(val)
	if err != nil {
		return AttrInfo{}, nil, fmt.Errorf("attribute %q: %w", names[index], err)
	}
	return AttrInfo{Name: names[index], Type: nt, Count: valueLen(val)}, val, nil
}

// AttrInfo describes attribute index of a file or dataset.
func (l *Lib) AttrInfo(id ID, index int) (AttrInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	info, _, err := l.attr(id, index)
	return info, err
}
