// Package h5 is a handle-based HDF5 reader. A Lib hands out integer IDs for
// files, groups, datasets, attributes, dataspaces and datatypes, in the
// manner of the HDF5 C API, and every ID must be closed with the matching
// close call.
//
// Only reading is supported. Datasets stored with the compact or contiguous
// layouts can be read; chunked datasets can be opened and inspected but
// not read.
package h5

import (
	"errors"
	"fmt"
	"sync"
)

// ID identifies an open object. Negative values are never valid.
type ID int64

// Invalid is returned alongside errors.
const Invalid ID = -1

// All selects the whole dataspace when passed as a dataspace ID to Dread.
const All ID = 0

var (
	ErrNotHDF5     = errors.New("not an HDF5 file")
	ErrNotFound    = errors.New("object not found")
	ErrBadID       = errors.New("invalid identifier")
	ErrWrongKind   = errors.New("identifier has the wrong kind")
	ErrImmutable   = errors.New("predefined datatype cannot be modified or closed")
	ErrUnsupported = errors.New("unsupported feature")
	ErrSelection   = errors.New("invalid selection")
)

// Kind is the kind of object an ID refers to.
type Kind int

const (
	KindFile Kind = iota + 1
	KindGroup
	KindDataset
	KindAttribute
	KindDataspace
	KindDatatype
)

var kindNames = map[Kind]string{
	KindFile:      "file",
	KindGroup:     "group",
	KindDataset:   "dataset",
	KindAttribute: "attribute",
	KindDataspace: "dataspace",
	KindDatatype:  "datatype",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// firstID is the first ID handed out for opened objects; lower values are
// reserved for predefined datatypes and All.
const firstID ID = 64

type entry interface {
	kind() Kind
}

// Lib holds the handle table of one reader instance. Lib is safe for use
// by multiple goroutines; each call holds the table lock for its duration.
type Lib struct {
	mu   sync.Mutex
	next ID
	objs map[ID]entry
}

// New returns an empty Lib.
func New() *Lib {
	return &Lib{next: firstID, objs: make(map[ID]entry)}
}

// insert registers obj and returns its ID. Callers hold l.mu.
func (l *Lib) insert(obj entry) ID {
	id := l.next
	l.next++
	l.objs[id] = obj
	return id
}

// lookup returns the object for id if it has kind k. Callers hold l.mu.
func (l *Lib) lookup(id ID, k Kind) (entry, error) {
	obj, ok := l.objs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrBadID, id)
	}
	if obj.kind() != k {
		return nil, fmt.Errorf("%w: %d is a %s, not a %s", ErrWrongKind, id, obj.kind(), k)
	}
	return obj, nil
}

// remove drops id from the table and releases its file reference.
// Callers hold l.mu.
func (l *Lib) remove(id ID, k Kind) error {
	obj, err := l.lookup(id, k)
	if err != nil {
		return err
	}
	delete(l.objs, id)
	if fo, ok := obj.(interface{ owner() *file }); ok && fo.owner() != nil {
		return fo.owner().unref()
	}
	return nil
}

// Open reports the number of IDs currently open, predefined types excluded.
func (l *Lib) Open() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.objs)
}
