package message

import (
	"encoding/binary"
	"fmt"

	binpkg "github.com/robert-malhotra/go-uhdf/internal/binary"
)

// LinkType is the kind of a link message.
type LinkType uint8

const (
	LinkHard     LinkType = 0
	LinkSoft     LinkType = 1
	LinkExternal LinkType = 64
)

// Link is a link message (type 0x0006) from a compact-storage group.
type Link struct {
	Version  uint8
	LinkType LinkType
	Name     string

	ObjectAddress uint64 // hard
	SoftTarget    string // soft
}

func (m *Link) Type() Type { return TypeLink }

func parseLink(data []byte, r *binpkg.Reader) (*Link, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("link: %w", ErrTruncated)
	}
	l := &Link{Version: data[0]}
	flags := data[1]
	pos := 2

	need := func(n int) error {
		if len(data) < pos+n {
			return fmt.Errorf("link: %w", ErrTruncated)
		}
		return nil
	}

	if flags&0x08 != 0 {
		if err := need(1); err != nil {
			return nil, err
		}
		l.LinkType = LinkType(data[pos])
		pos++
	}
	if flags&0x04 != 0 {
		pos += 8 // creation order
	}
	if flags&0x10 != 0 {
		pos++ // name charset
	}

	lenSize := 1 << (flags & 0x03)
	if err := need(lenSize); err != nil {
		return nil, err
	}
	var nameLen int
	switch lenSize {
	case 1:
		nameLen = int(data[pos])
	case 2:
		nameLen = int(binary.LittleEndian.Uint16(data[pos:]))
	case 4:
		nameLen = int(binary.LittleEndian.Uint32(data[pos:]))
	case 8:
		nameLen = int(binary.LittleEndian.Uint64(data[pos:]))
	}
	pos += lenSize
	if err := need(nameLen); err != nil {
		return nil, err
	}
	l.Name = string(data[pos : pos+nameLen])
	pos += nameLen

	switch l.LinkType {
	case LinkHard:
		if err := need(r.OffsetSize()); err != nil {
			return nil, err
		}
		l.ObjectAddress = r.DecodeUint(data[pos:], r.OffsetSize())
	case LinkSoft:
		if err := need(2); err != nil {
			return nil, err
		}
		n := int(binary.LittleEndian.Uint16(data[pos:]))
		pos += 2
		if err := need(n); err != nil {
			return nil, err
		}
		l.SoftTarget = string(data[pos : pos+n])
	}
	return l, nil
}
