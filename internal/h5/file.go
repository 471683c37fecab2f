package h5

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/robert-malhotra/go-uhdf/internal/binary"
	"github.com/robert-malhotra/go-uhdf/internal/btree"
	"github.com/robert-malhotra/go-uhdf/internal/heap"
	"github.com/robert-malhotra/go-uhdf/internal/message"
	"github.com/robert-malhotra/go-uhdf/internal/object"
	"github.com/robert-malhotra/go-uhdf/internal/superblock"
)

// maxLinkDepth bounds soft link chains.
const maxLinkDepth = 16

// file is an open HDF5 file. refs counts the file ID and every ID opened
// beneath it; the OS file is closed when the count drops to zero.
type file struct {
	path    string
	f       io.Closer
	r       *binary.Reader
	sb      *superblock.Superblock
	heaps   *heap.Cache
	headers map[uint64]*object.Header
	refs    int
}

func (f *file) kind() Kind       { return KindFile }
func (f *file) owner() *file     { return f }
func (f *file) ref()             { f.refs++ }
func (f *file) rootAddr() uint64 { return f.sb.RootGroupAddress }

func (f *file) unref() error {
	f.refs--
	if f.refs > 0 {
		return nil
	}
	return f.f.Close()
}

// IsHDF5 reports whether the file at path carries an HDF5 superblock
// signature.
func IsHDF5(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	return superblock.Probe(f), nil
}

// Fopen opens an HDF5 file read-only.
func (l *Lib) Fopen(path string) (ID, error) {
	osf, err := os.Open(path)
	if err != nil {
		return Invalid, err
	}
	fo, err := newFile(osf, path)
	if err != nil {
		osf.Close()
		return Invalid, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.insert(fo), nil
}

type readerAtCloser interface {
	io.ReaderAt
	io.Closer
}

func newFile(src readerAtCloser, path string) (*file, error) {
	sb, err := superblock.Read(src)
	if err != nil {
		if errors.Is(err, superblock.ErrNotHDF5) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotHDF5)
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var ra io.ReaderAt = src
	if sb.BaseAddress != 0 {
		ra = io.NewSectionReader(src, int64(sb.BaseAddress), math.MaxInt64-int64(sb.BaseAddress))
	}
	r := binary.NewReader(ra, sb.ReaderConfig())
	return &file{
		path:    path,
		f:       src,
		r:       r,
		sb:      sb,
		heaps:   heap.NewCache(r),
		headers: make(map[uint64]*object.Header),
		refs:    1,
	}, nil
}

// Fclose closes a file ID. The file stays readable through IDs opened
// beneath it until they are closed too.
func (l *Lib) Fclose(id ID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.remove(id, KindFile)
}

func (f *file) header(addr uint64) (*object.Header, error) {
	if h, ok := f.headers[addr]; ok {
		return h, nil
	}
	h, err := object.Read(f.r, addr)
	if err != nil {
		return nil, err
	}
	f.headers[addr] = h
	return h, nil
}

// ObjType is the kind of a group member.
type ObjType int

const (
	ObjUnknown ObjType = iota
	ObjGroup
	ObjDataset
	ObjNamedType
)

func (t ObjType) String() string {
	switch t {
	case ObjGroup:
		return "group"
	case ObjDataset:
		return "dataset"
	case ObjNamedType:
		return "datatype"
	}
	return "unknown"
}

// objType classifies the object at addr: a dataspace makes a dataset, a
// lone datatype a named type, anything else a group.
func (f *file) objType(addr uint64) (ObjType, error) {
	h, err := f.header(addr)
	if err != nil {
		return ObjUnknown, err
	}
	switch {
	case h.Has(message.TypeDataspace):
		return ObjDataset, nil
	case h.Has(message.TypeDatatype):
		return ObjNamedType, nil
	}
	return ObjGroup, nil
}

type member struct {
	name     string
	addr     uint64
	soft     string
	external bool
}

// members lists the links of the group at addr in name order.
func (f *file) members(addr uint64) ([]member, error) {
	h, err := f.header(addr)
	if err != nil {
		return nil, err
	}
	var out []member
	for _, l := range h.Links() {
		m := member{name: l.Name, addr: l.ObjectAddress}
		switch l.LinkType {
		case message.LinkSoft:
			m.soft = l.SoftTarget
		case message.LinkHard:
		default:
			m.external = true
		}
		out = append(out, m)
	}

	st, err := h.SymbolTable()
	if err != nil {
		return nil, err
	}
	if st == nil && addr == f.rootAddr() && f.sb.RootBTreeAddress != 0 {
		st = &message.SymbolTable{BTreeAddress: f.sb.RootBTreeAddress, LocalHeapAddress: f.sb.RootLocalHeapAddress}
	}
	if st != nil {
		names, err := heap.ReadLocalHeap(f.r, st.LocalHeapAddress)
		if err != nil {
			return nil, err
		}
		entries, err := btree.ReadGroupEntries(f.r, st.BTreeAddress, names)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			m := member{name: e.Name, addr: e.ObjectAddress}
			if e.Soft {
				m.soft = e.SoftTarget
			}
			out = append(out, m)
		}
	}

	if len(out) == 0 && f.dense(h, message.TypeLinkInfo) {
		return nil, fmt.Errorf("%w: dense link storage in group at 0x%x", ErrUnsupported, addr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out, nil
}

// dense inspects a link info or attribute info message: version (1), flags
// (1), optional max creation index (8 for links, 2 for attributes), fractal
// heap address (O), ... A defined heap address means the members are stored
// densely.
func (f *file) dense(h *object.Header, typ message.Type) bool {
	m, _ := h.Find(typ)
	u, ok := m.(*message.Unknown)
	if !ok {
		return false
	}
	data := u.Data()
	pos := 2
	if len(data) > 1 && data[1]&0x01 != 0 {
		if typ == message.TypeLinkInfo {
			pos += 8
		} else {
			pos += 2
		}
	}
	if len(data) < pos+f.r.OffsetSize() {
		return false
	}
	return !f.r.IsUndefined(f.r.DecodeUint(data[pos:], f.r.OffsetSize()))
}

// resolve follows path from the group at start. A leading slash starts at
// the root group.
func (f *file) resolve(start uint64, path string) (uint64, error) {
	return f.resolveDepth(start, path, 0)
}

func (f *file) resolveDepth(start uint64, path string, depth int) (uint64, error) {
	if depth > maxLinkDepth {
		return 0, fmt.Errorf("%q: soft links nested too deeply", path)
	}
	addr := start
	if strings.HasPrefix(path, "/") {
		addr = f.rootAddr()
	}
	for _, name := range strings.Split(path, "/") {
		if name == "" || name == "." {
			continue
		}
		ms, err := f.members(addr)
		if err != nil {
			return 0, err
		}
		i := sort.Search(len(ms), func(i int) bool { return ms[i].name >= name })
		if i == len(ms) || ms[i].name != name {
			return 0, fmt.Errorf("%q: %w", name, ErrNotFound)
		}
		m := ms[i]
		switch {
		case m.external:
			return 0, fmt.Errorf("%q: %w: external link", name, ErrUnsupported)
		case m.soft != "":
			if addr, err = f.resolveDepth(addr, m.soft, depth+1); err != nil {
				return 0, fmt.Errorf("soft link %q: %w", name, err)
			}
		default:
			addr = m.addr
		}
	}
	return addr, nil
}
