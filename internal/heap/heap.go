// Package heap reads HDF5 local heaps (group member names) and global heap
// collections (variable-length data).
package heap

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-uhdf/internal/binary"
)

var (
	ErrBadSignature = errors.New("bad heap signature")
	ErrNoObject     = errors.New("global heap object not found")
)

// LocalHeap is a local heap data segment.
type LocalHeap struct {
	DataAddress uint64
	data        []byte
}

// ReadLocalHeap reads the local heap at address.
//
// Layout: "HEAP", version (1), reserved (3), data size (L), free list
// offset (L), data address (O).
func ReadLocalHeap(r *binary.Reader, address uint64) (*LocalHeap, error) {
	hr := r.At(int64(address))
	sig, err := hr.ReadBytes(4)
	if err != nil {
		return nil, fmt.Errorf("local heap at 0x%x: %w", address, err)
	}
	if string(sig) != "HEAP" {
		return nil, fmt.Errorf("local heap at 0x%x: %w %q", address, ErrBadSignature, sig)
	}
	if v, _ := hr.ReadUint8(); v != 0 {
		return nil, fmt.Errorf("local heap at 0x%x: unsupported version %d", address, v)
	}
	hr.Skip(3)
	size, err := hr.ReadLength()
	if err != nil {
		return nil, err
	}
	hr.Skip(int64(r.LengthSize()))
	addr, err := hr.ReadOffset()
	if err != nil {
		return nil, err
	}

	h := &LocalHeap{DataAddress: addr, data: make([]byte, size)}
	if err := r.ReadAt(h.data, int64(addr)); err != nil {
		return nil, fmt.Errorf("local heap data at 0x%x: %w", addr, err)
	}
	return h, nil
}

// GetString returns the NUL-terminated string at offset, or "" when offset
// is outside the heap.
func (h *LocalHeap) GetString(offset uint64) string {
	if offset >= uint64(len(h.data)) {
		return ""
	}
	s := h.data[offset:]
	if i := bytes.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return string(s)
}

// GlobalHeap is a global heap collection indexed by object number.
type GlobalHeap struct {
	Address uint64
	objects map[uint16][]byte
}

// ID locates one object in a global heap collection.
type ID struct {
	Collection uint64
	Index      uint32
}

// ReadGlobalHeap reads the collection at address.
//
// Layout: "GCOL", version (1), reserved (3), collection size (L), then
// objects of index (2), refcount (2), reserved (4), size (L), data padded to
// 8 bytes. Index 0 is the free-space object and ends the list.
func ReadGlobalHeap(r *binary.Reader, address uint64) (*GlobalHeap, error) {
	if address == 0 || r.IsUndefined(address) {
		return nil, fmt.Errorf("global heap: invalid address 0x%x", address)
	}
	hr := r.At(int64(address))
	sig, err := hr.ReadBytes(4)
	if err != nil {
		return nil, fmt.Errorf("global heap at 0x%x: %w", address, err)
	}
	if string(sig) != "GCOL" {
		return nil, fmt.Errorf("global heap at 0x%x: %w %q", address, ErrBadSignature, sig)
	}
	if v, _ := hr.ReadUint8(); v != 1 {
		return nil, fmt.Errorf("global heap at 0x%x: unsupported version %d", address, v)
	}
	hr.Skip(3)
	size, err := hr.ReadLength()
	if err != nil {
		return nil, err
	}

	g := &GlobalHeap{Address: address, objects: make(map[uint16][]byte)}
	end := int64(address) + int64(size)
	objHeader := int64(8 + r.LengthSize())
	for hr.Pos()+objHeader <= end {
		index, err := hr.ReadUint16()
		if err != nil || index == 0 {
			break
		}
		hr.Skip(6)
		n, err := hr.ReadLength()
		if err != nil {
			break
		}
		data, err := hr.ReadBytes(int(n))
		if err != nil {
			return nil, fmt.Errorf("global heap object %d: %w", index, err)
		}
		g.objects[index] = data
		hr.Skip(int64((8 - n%8) % 8))
	}
	return g, nil
}

// Object returns the bytes of object index.
func (g *GlobalHeap) Object(index uint32) ([]byte, error) {
	data, ok := g.objects[uint16(index)]
	if !ok || index > 0xffff {
		return nil, fmt.Errorf("%w: index %d in collection 0x%x", ErrNoObject, index, g.Address)
	}
	return data, nil
}

// ParseID decodes a heap ID: collection address (offset-sized) then a
// 4-byte object index.
func ParseID(r *binary.Reader, data []byte) (ID, error) {
	os := r.OffsetSize()
	if len(data) < os+4 {
		return ID{}, fmt.Errorf("global heap ID: need %d bytes, have %d", os+4, len(data))
	}
	return ID{
		Collection: r.DecodeUint(data, os),
		Index:      uint32(r.DecodeUint(data[os:], 4)),
	}, nil
}

// Cache keeps collections that were already read.
type Cache struct {
	r    *binary.Reader
	heap map[uint64]*GlobalHeap
}

// NewCache returns an empty collection cache reading through r.
func NewCache(r *binary.Reader) *Cache {
	return &Cache{r: r, heap: make(map[uint64]*GlobalHeap)}
}

// Lookup returns the bytes referenced by id.
func (c *Cache) Lookup(id ID) ([]byte, error) {
	g, ok := c.heap[id.Collection]
	if !ok {
		var err error
		if g, err = ReadGlobalHeap(c.r, id.Collection); err != nil {
			return nil, err
		}
		c.heap[id.Collection] = g
	}
	return g.Object(id.Index)
}

// Resolve returns the bytes of a variable-length element descriptor: a
// 4-byte element count followed by a heap ID. A zero collection address is
// an empty or NULL value.
func (c *Cache) Resolve(desc []byte) ([]byte, error) {
	if len(desc) < 4 {
		return nil, fmt.Errorf("variable-length descriptor: need 4 bytes, have %d", len(desc))
	}
	id, err := ParseID(c.r, desc[4:])
	if err != nil {
		return nil, err
	}
	if id.Collection == 0 {
		return nil, nil
	}
	data, err := c.Lookup(id)
	if err != nil {
		return nil, err
	}
	if n := int(c.r.DecodeUint(desc, 4)); n < len(data) {
		data = data[:n]
	}
	return data, nil
}
