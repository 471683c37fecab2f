package binary

import (
	"encoding/binary"
	"math/bits"
)

// Lookup3Checksum is Bob Jenkins' lookup3 hashlittle with an initial value
// of 0. HDF5 stores it after version 2 superblocks and object header chunks.
func Lookup3Checksum(data []byte) uint32 {
	seed := 0xdeadbeef + uint32(len(data))
	h := lookup3{a: seed, b: seed, c: seed}
	if len(data) == 0 {
		return h.c
	}
	// The last block is zero padded and goes through final, never mix.
	for len(data) > 12 {
		h.add(data[:12])
		h.mix()
		data = data[12:]
	}
	var tail [12]byte
	copy(tail[:], data)
	h.add(tail[:])
	return h.final()
}

// VerifyLookup3 reports whether data hashes to stored.
func VerifyLookup3(data []byte, stored uint32) bool {
	return Lookup3Checksum(data) == stored
}

type lookup3 struct{ a, b, c uint32 }

func (h *lookup3) add(block []byte) {
	h.a += binary.LittleEndian.Uint32(block)
	h.b += binary.LittleEndian.Uint32(block[4:])
	h.c += binary.LittleEndian.Uint32(block[8:])
}

func (h *lookup3) mix() {
	subXorAdd(&h.a, &h.b, &h.c, 4)
	subXorAdd(&h.b, &h.c, &h.a, 6)
	subXorAdd(&h.c, &h.a, &h.b, 8)
	subXorAdd(&h.a, &h.b, &h.c, 16)
	subXorAdd(&h.b, &h.c, &h.a, 19)
	subXorAdd(&h.c, &h.a, &h.b, 4)
}

func subXorAdd(x, y, z *uint32, r int) {
	*x -= *z
	*x ^= bits.RotateLeft32(*z, r)
	*z += *y
}

func (h *lookup3) final() uint32 {
	xorSub(&h.c, h.b, 14)
	xorSub(&h.a, h.c, 11)
	xorSub(&h.b, h.a, 25)
	xorSub(&h.c, h.b, 16)
	xorSub(&h.a, h.c, 4)
	xorSub(&h.b, h.a, 14)
	xorSub(&h.c, h.b, 24)
	return h.c
}

func xorSub(x *uint32, y uint32, r int) {
	*x ^= y
	*x -= bits.RotateLeft32(y, r)
}
