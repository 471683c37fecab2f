// Package superblock locates and decodes the HDF5 superblock, the entry
// point that gives the offset/length widths and the root group address.
//
// Versions 0 and 1 reference the root group through a symbol table entry
// whose scratch pad may cache the root B-tree and local heap addresses.
// Versions 2 and 3 reference the root object header directly and are
// protected by a lookup3 checksum.
package superblock

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	binpkg "github.com/robert-malhotra/go-uhdf/internal/binary"
)

// Signature is the 8-byte HDF5 format signature.
var Signature = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

// The superblock may sit at 0 or at any power of two from 512 upwards when
// a user block precedes it.
var searchOffsets = []int64{0, 512, 1024, 2048, 4096, 8192}

var (
	ErrNotHDF5            = errors.New("not an HDF5 file: signature not found")
	ErrUnsupportedVersion = errors.New("unsupported superblock version")
	ErrChecksum           = errors.New("superblock checksum mismatch")
)

// Superblock holds the fields needed to read the rest of the file.
type Superblock struct {
	Version    uint8
	OffsetSize uint8
	LengthSize uint8

	BaseAddress      uint64
	EOFAddress       uint64
	RootGroupAddress uint64

	// Cached in the v0/v1 root symbol table entry; zero when absent.
	RootBTreeAddress     uint64
	RootLocalHeapAddress uint64

	// FileOffset is where the signature was found.
	FileOffset int64
}

// Probe reports whether r carries an HDF5 signature at one of the
// standard superblock offsets.
func Probe(r io.ReaderAt) bool {
	_, err := locate(r)
	return err == nil
}

func locate(r io.ReaderAt) (int64, error) {
	sig := make([]byte, len(Signature))
	for _, off := range searchOffsets {
		if _, err := r.ReadAt(sig, off); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, err
		}
		if bytes.Equal(sig, Signature) {
			return off, nil
		}
	}
	return 0, ErrNotHDF5
}

// Read locates and parses the superblock.
func Read(r io.ReaderAt) (*Superblock, error) {
	off, err := locate(r)
	if err != nil {
		return nil, err
	}

	head := make([]byte, 3)
	if _, err := r.ReadAt(head, off+8); err != nil {
		return nil, fmt.Errorf("reading superblock version: %w", err)
	}

	var sb *Superblock
	switch head[0] {
	case 0, 1:
		sb, err = readV0V1(r, off, head[0])
	case 2, 3:
		sb, err = readV2V3(r, off, head[0], head[1], head[2])
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, head[0])
	}
	if err != nil {
		return nil, err
	}
	sb.FileOffset = off
	return sb, nil
}

// ReaderConfig returns the reader configuration this file requires.
func (sb *Superblock) ReaderConfig() binpkg.Config {
	return binpkg.Config{
		ByteOrder:  binary.LittleEndian,
		OffsetSize: int(sb.OffsetSize),
		LengthSize: int(sb.LengthSize),
	}
}

func validSize(n uint8) bool {
	return n == 2 || n == 4 || n == 8
}

// readV0V1 decodes a version 0/1 superblock. After the signature come
// version, free-space version, root symtab version, reserved, shared header
// version, size of offsets, size of lengths, reserved, group leaf K (2),
// group internal K (2), consistency flags (4), [v1: indexed storage K (2),
// reserved (2)], base address, free-space address, EOF address, driver
// info address and the root symbol table entry: name offset, header
// address, cache type (4), reserved (4), scratch pad (16).
func readV0V1(r io.ReaderAt, off int64, version uint8) (*Superblock, error) {
	fixed := make([]byte, 16)
	if _, err := r.ReadAt(fixed, off+8); err != nil {
		return nil, fmt.Errorf("reading superblock: %w", err)
	}
	sb := &Superblock{
		Version:    version,
		OffsetSize: fixed[5],
		LengthSize: fixed[6],
	}
	if !validSize(sb.OffsetSize) || !validSize(sb.LengthSize) {
		return nil, fmt.Errorf("superblock: invalid offset/length sizes %d/%d", sb.OffsetSize, sb.LengthSize)
	}

	br := binpkg.NewReader(r, sb.ReaderConfig()).At(off + 24)
	if version == 1 {
		br.Skip(4)
	}

	var err error
	if sb.BaseAddress, err = br.ReadOffset(); err != nil {
		return nil, err
	}
	br.Skip(int64(sb.OffsetSize)) // free-space info
	if sb.EOFAddress, err = br.ReadOffset(); err != nil {
		return nil, err
	}
	br.Skip(int64(sb.OffsetSize)) // driver info
	br.Skip(int64(sb.OffsetSize)) // root link name offset
	if sb.RootGroupAddress, err = br.ReadOffset(); err != nil {
		return nil, err
	}

	cacheType, err := br.ReadUint32()
	if err != nil {
		return nil, err
	}
	br.Skip(4)
	if cacheType == 1 {
		if sb.RootBTreeAddress, err = br.ReadOffset(); err != nil {
			return nil, err
		}
		if sb.RootLocalHeapAddress, err = br.ReadOffset(); err != nil {
			return nil, err
		}
	}
	return sb, nil
}

// readV2V3 decodes a version 2/3 superblock. After the signature come
// version, size of offsets, size of lengths, consistency flags, base
// address, extension address, EOF address, root header address and a
// lookup3 checksum over everything before it.
func readV2V3(r io.ReaderAt, off int64, version, offsetSize, lengthSize uint8) (*Superblock, error) {
	sb := &Superblock{
		Version:    version,
		OffsetSize: offsetSize,
		LengthSize: lengthSize,
	}
	if !validSize(sb.OffsetSize) || !validSize(sb.LengthSize) {
		return nil, fmt.Errorf("superblock: invalid offset/length sizes %d/%d", offsetSize, lengthSize)
	}

	br := binpkg.NewReader(r, sb.ReaderConfig()).At(off + 12)
	var err error
	if sb.BaseAddress, err = br.ReadOffset(); err != nil {
		return nil, err
	}
	br.Skip(int64(offsetSize)) // superblock extension
	if sb.EOFAddress, err = br.ReadOffset(); err != nil {
		return nil, err
	}
	if sb.RootGroupAddress, err = br.ReadOffset(); err != nil {
		return nil, err
	}

	end := br.Pos()
	stored, err := br.ReadUint32()
	if err != nil {
		return nil, err
	}
	body := make([]byte, end-off)
	if err := br.ReadAt(body, off); err != nil {
		return nil, err
	}
	if !binpkg.VerifyLookup3(body, stored) {
		return nil, ErrChecksum
	}
	return sb, nil
}
