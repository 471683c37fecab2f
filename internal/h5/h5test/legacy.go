package h5test

import (
	"sort"

	"github.com/robert-malhotra/go-uhdf/internal/superblock"
)

// NewLegacy returns a Builder for a version 0 or 1 superblock. Its objects
// get version 1 headers, and groups hold their members in symbol tables.
func NewLegacy(version uint8) *Builder {
	n := 96
	if version == 1 {
		n += 4
	}
	return &Builder{buf: make([]byte, n), version: version}
}

var undefined = le64(^uint64(0))

func pad8(data []byte) []byte {
	out := append([]byte(nil), data...)
	for len(out)%8 != 0 {
		out = append(out, 0)
	}
	return out
}

// messagesV1 encodes version 1 message records: type (2), size (2),
// flags (1), reserved (3), data padded to 8.
func messagesV1(msgs []Msg) []byte {
	var body []byte
	for _, m := range msgs {
		data := pad8(m.Data)
		body = join(body, le16(uint16(m.Type)), le16(uint16(len(data))), make([]byte, 4), data)
	}
	return body
}

func (b *Builder) objectV1(msgs []Msg) uint64 {
	body := messagesV1(msgs)
	count := len(msgs) + b.carry
	b.carry = 0
	return b.Raw(join([]byte{1, 0}, le16(uint16(count)), le32(1), le32(uint32(len(body))), make([]byte, 4), body))
}

// Nil is a NIL message of n padding bytes.
func Nil(n int) Msg { return Msg{0x00, make([]byte, n)} }

// Continued appends msgs as a continuation block and returns the
// continuation message pointing at it. The next Object counts the block's
// messages in its header.
func (b *Builder) Continued(msgs ...Msg) Msg {
	body := messagesV1(msgs)
	addr := b.Raw(body)
	b.carry += len(msgs)
	return Msg{0x10, join(le64(addr), le64(uint64(len(body))))}
}

// LocalHeap appends a local heap holding strs and returns its address and
// the offset of each string. Offset 0 holds the empty string.
func (b *Builder) LocalHeap(strs ...string) (uint64, []uint64) {
	data := make([]byte, 8)
	offsets := make([]uint64, len(strs))
	for i, s := range strs {
		offsets[i] = uint64(len(data))
		data = append(data, pad8(append([]byte(s), 0))...)
	}
	at := b.Raw(data)
	return b.Raw(join([]byte("HEAP"), []byte{0, 0, 0, 0}, le64(uint64(len(data))), undefined, le64(at))), offsets
}

// Entry is one member of a symbol table group. A non-empty Target makes
// it a soft link.
type Entry struct {
	Name   string
	Addr   uint64
	Target string
}

// SymbolTable locates a group's B-tree and local heap.
type SymbolTable struct {
	BTree uint64
	Heap  uint64
}

// Msg is the symbol table message naming st.
func (st SymbolTable) Msg() Msg {
	return Msg{0x11, join(le64(st.BTree), le64(st.Heap))}
}

// SymbolGroup appends the storage of a group holding entries: a local heap,
// one symbol node and a leaf B-tree over it.
func (b *Builder) SymbolGroup(entries ...Entry) SymbolTable {
	sorted := append([]Entry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var strs []string
	for _, e := range sorted {
		strs = append(strs, e.Name)
		if e.Target != "" {
			strs = append(strs, e.Target)
		}
	}
	heapAddr, offsets := b.LocalHeap(strs...)

	node := join([]byte("SNOD"), []byte{1, 0}, le16(uint16(len(sorted))))
	var last uint64
	for _, e := range sorted {
		name := offsets[0]
		offsets = offsets[1:]
		last = name
		if e.Target == "" {
			node = join(node, le64(name), le64(e.Addr), le32(0), le32(0), make([]byte, 16))
			continue
		}
		target := offsets[0]
		offsets = offsets[1:]
		node = join(node, le64(name), le64(0), le32(2), le32(0), le32(uint32(target)), make([]byte, 12))
	}
	snod := b.Raw(node)
	return SymbolTable{BTree: b.GroupNode(0, []uint64{0, last}, snod), Heap: heapAddr}
}

// GroupNode appends a group B-tree node at level with the given children.
// keys holds one more entry than children.
func (b *Builder) GroupNode(level uint8, keys []uint64, children ...uint64) uint64 {
	node := join([]byte("TREE"), []byte{0, level}, le16(uint16(len(children))), undefined, undefined)
	for i, c := range children {
		node = join(node, le64(keys[i]), le64(c))
	}
	return b.Raw(join(node, le64(keys[len(children)])))
}

// CacheRoot records st in the root symbol table entry's scratch pad.
func (b *Builder) CacheRoot(st SymbolTable) {
	b.cache = &st
}

// bytesV0V1 writes a version 0/1 superblock: signature, versions and the
// offset/length sizes, group K values, flags, [v1: indexed K], base,
// free-space, EOF and driver addresses, then the root symbol table entry.
func (b *Builder) bytesV0V1(root uint64) []byte {
	sb := join(superblock.Signature, []byte{b.version, 0, 0, 0, 0, 8, 8, 0}, le16(4), le16(16), le32(0))
	if b.version == 1 {
		sb = join(sb, le16(32), le16(0))
	}
	sb = join(sb, le64(0), undefined, le64(uint64(len(b.buf))), undefined)
	scratch := make([]byte, 16)
	cache := uint32(0)
	if b.cache != nil {
		cache = 1
		scratch = join(le64(b.cache.BTree), le64(b.cache.Heap))
	}
	sb = join(sb, le64(0), le64(root), le32(cache), le32(0), scratch)
	copy(b.buf, sb)
	return b.buf
}
