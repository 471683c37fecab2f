// Package h5test assembles small HDF5 files byte by byte for tests. Files
// from New use a version 2 superblock and version 2 object headers; files
// from NewLegacy use a version 0 or 1 superblock, version 1 object headers
// and symbol table groups. Objects are appended in order, so children are
// written before the groups that link to them.
package h5test

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	binpkg "github.com/robert-malhotra/go-uhdf/internal/binary"
	"github.com/robert-malhotra/go-uhdf/internal/superblock"
)

// Builder accumulates the bytes of one file.
type Builder struct {
	buf []byte

	// superblock version; below 2 selects the legacy layout
	version uint8

	// root symbol table cached in the legacy root entry
	cache *SymbolTable

	// messages in continuation blocks not yet counted by an Object
	carry int
}

// Msg is one object header message.
type Msg struct {
	Type uint8
	Data []byte
}

// New returns a Builder with room reserved for the superblock.
func New() *Builder {
	return &Builder{buf: make([]byte, 48), version: 2}
}

func le16(v uint16) []byte { return binary.LittleEndian.AppendUint16(nil, v) }
func le32(v uint32) []byte { return binary.LittleEndian.AppendUint32(nil, v) }
func le64(v uint64) []byte { return binary.LittleEndian.AppendUint64(nil, v) }

func join(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Raw appends 8-byte aligned data and returns its address.
func (b *Builder) Raw(data []byte) uint64 {
	for len(b.buf)%8 != 0 {
		b.buf = append(b.buf, 0)
	}
	addr := uint64(len(b.buf))
	b.buf = append(b.buf, data...)
	return addr
}

// Object appends an object header holding msgs and returns its address.
func (b *Builder) Object(msgs ...Msg) uint64 {
	if b.version < 2 {
		return b.objectV1(msgs)
	}
	var body []byte
	for _, m := range msgs {
		body = append(body, m.Type)
		body = append(body, le16(uint16(len(m.Data)))...)
		body = append(body, 0)
		body = append(body, m.Data...)
	}
	hdr := join([]byte("OHDR"), []byte{2, 0x02}, le32(uint32(len(body))), body)
	hdr = append(hdr, le32(binpkg.Lookup3Checksum(hdr))...)
	return b.Raw(hdr)
}

// GlobalHeap appends a collection holding objs as indexes 1..n.
func (b *Builder) GlobalHeap(objs ...[]byte) uint64 {
	var body []byte
	for i, o := range objs {
		body = append(body, le16(uint16(i+1))...)
		body = append(body, le16(1)...)
		body = append(body, 0, 0, 0, 0)
		body = append(body, le64(uint64(len(o)))...)
		body = append(body, o...)
		for len(body)%8 != 0 {
			body = append(body, 0)
		}
	}
	body = append(body, make([]byte, 16)...)
	return b.Raw(join([]byte("GCOL"), []byte{1, 0, 0, 0}, le64(uint64(16+len(body))), body))
}

// VarLenDesc is the in-file descriptor of a variable-length string of n
// bytes stored as object index of the heap at addr.
func VarLenDesc(n uint32, addr uint64, index uint32) []byte {
	return join(le32(n), le64(addr), le32(index))
}

// Bytes writes the superblock pointing at root and returns the file.
func (b *Builder) Bytes(root uint64) []byte {
	if b.version < 2 {
		return b.bytesV0V1(root)
	}
	sb := join(superblock.Signature, []byte{2, 8, 8, 0}, le64(0), le64(^uint64(0)), le64(uint64(len(b.buf))), le64(root))
	sb = append(sb, le32(binpkg.Lookup3Checksum(sb))...)
	copy(b.buf, sb)
	return b.buf
}

// Finish saves the file under a test temporary directory.
func (b *Builder) Finish(t testing.TB, root uint64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.h5")
	if err := os.WriteFile(path, b.Bytes(root), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// Space is a dataspace message. No dims makes it scalar.
func Space(dims ...uint64) Msg {
	if dims == nil {
		return Msg{0x01, []byte{2, 0, 0, 0}}
	}
	d := []byte{2, byte(len(dims)), 0, 1}
	for _, n := range dims {
		d = append(d, le64(n)...)
	}
	return Msg{0x01, d}
}

// Int encodes an integer datatype.
func Int(size uint32, signed, bigEndian bool) []byte {
	var bits byte
	if bigEndian {
		bits |= 0x01
	}
	if signed {
		bits |= 0x08
	}
	return join([]byte{0x10, bits, 0, 0}, le32(size), le16(0), le16(uint16(size*8)))
}

// Float encodes a little-endian IEEE float datatype.
func Float(size uint32) []byte {
	return join([]byte{0x11, 0x20, byte(size*8 - 1), 0}, le32(size), make([]byte, 12))
}

// String encodes a fixed-length null-terminated ASCII string datatype.
func String(size uint32) []byte {
	return join([]byte{0x13, 0, 0, 0}, le32(size))
}

// VarString encodes a variable-length string datatype.
func VarString() []byte {
	return join([]byte{0x19, 0x01, 0, 0}, le32(16), Int(1, false, false))
}

// Compound encodes a compound datatype of size bytes with no members.
func Compound(size uint32) []byte {
	return join([]byte{0x16, 0, 0, 0}, le32(size))
}

// Reference encodes an object reference datatype.
func Reference() []byte {
	return join([]byte{0x17, 0, 0, 0}, le32(8))
}

// Type is a datatype message.
func Type(dt []byte) Msg { return Msg{0x03, dt} }

// Contiguous is a version 3 contiguous layout message.
func Contiguous(addr, size uint64) Msg {
	return Msg{0x08, join([]byte{3, 1}, le64(addr), le64(size))}
}

// Compact is a version 3 compact layout message.
func Compact(data []byte) Msg {
	return Msg{0x08, join([]byte{3, 0}, le16(uint16(len(data))), data)}
}

// Chunked is a version 3 chunked layout message with 2x4 chunks.
func Chunked() Msg {
	return Msg{0x08, join([]byte{3, 2, 2}, le64(0x100), le32(2), le32(4))}
}

// Link is a hard link message.
func Link(name string, addr uint64) Msg {
	return Msg{0x06, join([]byte{1, 0, byte(len(name))}, []byte(name), le64(addr))}
}

// SoftLink is a soft link message.
func SoftLink(name, target string) Msg {
	return Msg{0x06, join([]byte{1, 0x08, 1, byte(len(name))}, []byte(name), le16(uint16(len(target))), []byte(target))}
}

// Attr is a version 3 attribute message.
func Attr(name string, dt []byte, space Msg, data []byte) Msg {
	n := append([]byte(name), 0)
	return Msg{0x0C, join(
		[]byte{3, 0}, le16(uint16(len(n))), le16(uint16(len(dt))), le16(uint16(len(space.Data))), []byte{0},
		n, dt, space.Data, data,
	)}
}

// Int32s encodes little-endian int32 values.
func Int32s(vals ...int32) []byte {
	var out []byte
	for _, v := range vals {
		out = append(out, le32(uint32(v))...)
	}
	return out
}

// Uint16s encodes little-endian uint16 values.
func Uint16s(vals ...uint16) []byte {
	var out []byte
	for _, v := range vals {
		out = append(out, le16(v)...)
	}
	return out
}

// Uint64s encodes little-endian uint64 values.
func Uint64s(vals ...uint64) []byte {
	var out []byte
	for _, v := range vals {
		out = append(out, le64(v)...)
	}
	return out
}

// Float32s encodes little-endian float32 values.
func Float32s(vals ...float32) []byte {
	var out []byte
	for _, v := range vals {
		out = append(out, le32(math.Float32bits(v))...)
	}
	return out
}

// Float64s encodes little-endian float64 values.
func Float64s(vals ...float64) []byte {
	var out []byte
	for _, v := range vals {
		out = append(out, le64(math.Float64bits(v))...)
	}
	return out
}
