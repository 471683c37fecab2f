// Package btree walks version 1 group B-trees and their symbol table nodes.
package btree

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-uhdf/internal/binary"
	"github.com/robert-malhotra/go-uhdf/internal/heap"
)

var ErrBadSignature = errors.New("bad B-tree signature")

// maxDepth bounds recursion through corrupt trees.
const maxDepth = 64

// Entry is one member of an old-style group.
type Entry struct {
	Name          string
	ObjectAddress uint64
	Soft          bool
	SoftTarget    string
}

// symbol table entry cache types
const cacheSoft = 2

// ReadGroupEntries returns the members reachable from the group B-tree at
// address, in B-tree order. Names come from heap.
func ReadGroupEntries(r *binary.Reader, address uint64, names *heap.LocalHeap) ([]Entry, error) {
	var out []Entry
	if err := walkNode(r, address, names, 0, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// walkNode appends the entries below the node at address. Node layout:
// "TREE", type (1, 0 = group), level (1), entries used (2), left sibling
// (O), right sibling (O), then keys (L) interleaved with child pointers
// (O), one more key than children.
func walkNode(r *binary.Reader, address uint64, names *heap.LocalHeap, depth int, out *[]Entry) error {
	if depth > maxDepth {
		return fmt.Errorf("group B-tree at 0x%x: too deep", address)
	}
	nr := r.At(int64(address))
	sig, err := nr.ReadBytes(4)
	if err != nil {
		return fmt.Errorf("group B-tree at 0x%x: %w", address, err)
	}
	if string(sig) != "TREE" {
		return fmt.Errorf("group B-tree at 0x%x: %w %q", address, ErrBadSignature, sig)
	}
	typ, _ := nr.ReadUint8()
	if typ != 0 {
		return fmt.Errorf("group B-tree at 0x%x: node type %d is not a group node", address, typ)
	}
	level, _ := nr.ReadUint8()
	used, err := nr.ReadUint16()
	if err != nil {
		return err
	}
	nr.Skip(int64(2 * r.OffsetSize()))

	for i := 0; i < int(used); i++ {
		nr.Skip(int64(r.LengthSize()))
		child, err := nr.ReadOffset()
		if err != nil {
			return err
		}
		if level > 0 {
			err = walkNode(r, child, names, depth+1, out)
		} else {
			err = readSymbolNode(r, child, names, out)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// readSymbolNode reads an "SNOD" node: signature, version (1), reserved
// (1), symbol count (2), then the entries.
func readSymbolNode(r *binary.Reader, address uint64, names *heap.LocalHeap, out *[]Entry) error {
	nr := r.At(int64(address))
	sig, err := nr.ReadBytes(4)
	if err != nil {
		return fmt.Errorf("symbol node at 0x%x: %w", address, err)
	}
	if string(sig) != "SNOD" {
		return fmt.Errorf("symbol node at 0x%x: %w %q", address, ErrBadSignature, sig)
	}
	if v, _ := nr.ReadUint8(); v != 1 {
		return fmt.Errorf("symbol node at 0x%x: unsupported version %d", address, v)
	}
	nr.Skip(1)
	n, err := nr.ReadUint16()
	if err != nil {
		return err
	}
	for i := 0; i < int(n); i++ {
		e, err := readEntry(nr, names)
		if err != nil {
			return fmt.Errorf("symbol node at 0x%x entry %d: %w", address, i, err)
		}
		if e.Name != "" {
			*out = append(*out, e)
		}
	}
	return nil
}

// readEntry decodes a symbol table entry: name offset (O), header address
// (O), cache type (4), reserved (4), scratch pad (16).
func readEntry(r *binary.Reader, names *heap.LocalHeap) (Entry, error) {
	nameOff, err := r.ReadOffset()
	if err != nil {
		return Entry{}, err
	}
	addr, err := r.ReadOffset()
	if err != nil {
		return Entry{}, err
	}
	cache, err := r.ReadUint32()
	if err != nil {
		return Entry{}, err
	}
	r.Skip(4)
	scratch, err := r.ReadBytes(16)
	if err != nil {
		return Entry{}, err
	}

	e := Entry{Name: names.GetString(nameOff), ObjectAddress: addr}
	if cache == cacheSoft {
		e.Soft = true
		e.SoftTarget = names.GetString(r.DecodeUint(scratch, 4))
		e.ObjectAddress = 0
	}
	return e, nil
}
