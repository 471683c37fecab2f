// Package object reads HDF5 object headers (versions 1 and 2) and exposes
// the decoded messages that describe groups, datasets and named types.
package object

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-uhdf/internal/binary"
	"github.com/robert-malhotra/go-uhdf/internal/message"
)

var (
	ErrInvalidHeader    = errors.New("invalid object header")
	ErrChecksumMismatch = errors.New("object header checksum mismatch")
)

// maxContinuations bounds continuation chains in corrupt files.
const maxContinuations = 1024

// Header is a parsed object header.
type Header struct {
	Version  uint8
	Address  uint64
	Messages []message.Message
}

// invalid records a message that is present but could not be decoded, so
// that asking for it reports why.
type invalid struct {
	typ message.Type
	err error
}

func (m *invalid) Type() message.Type { return m.typ }

// rawMessage is one undecoded message record.
type rawMessage struct {
	typ   message.Type
	flags uint8
	data  []byte
}

// Read parses the object header at address.
func Read(r *binary.Reader, address uint64) (*Header, error) {
	h, err := read(r, address)
	if err != nil {
		return nil, err
	}
	for i, m := range h.Messages {
		sh, ok := m.(*message.Shared)
		if !ok || sh.MessageType != message.TypeDatatype {
			continue
		}
		// Committed datatype: the message lives in the named type's header.
		target, err := read(r, sh.Address)
		if err != nil {
			h.Messages[i] = &invalid{typ: message.TypeDatatype, err: fmt.Errorf("committed datatype at 0x%x: %w", sh.Address, err)}
			continue
		}
		if dt, _ := target.Datatype(); dt != nil {
			h.Messages[i] = dt
		}
	}
	return h, nil
}

func read(r *binary.Reader, address uint64) (*Header, error) {
	hr := r.At(int64(address))
	peek, err := hr.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("reading object header at 0x%x: %w", address, err)
	}

	var raws []rawMessage
	h := &Header{Address: address}
	switch {
	case string(peek) == "OHDR":
		h.Version = 2
		raws, err = readV2(hr)
	case peek[0] == 1:
		h.Version = 1
		raws, err = readV1(hr)
	default:
		return nil, fmt.Errorf("%w at 0x%x", ErrInvalidHeader, address)
	}
	if err != nil {
		return nil, fmt.Errorf("object header at 0x%x: %w", address, err)
	}

	for _, raw := range raws {
		msg, err := message.Parse(raw.typ, raw.data, raw.flags, r)
		if err != nil {
			msg = &invalid{typ: raw.typ, err: err}
		}
		h.Messages = append(h.Messages, msg)
	}
	return h, nil
}

// readV1 parses a version 1 header.
// Version 1 prefix: version (1), reserved (1), message count (2),
// reference count (4), header size (4), padding to 8.
// Each message: type (2), size (2), flags (1), reserved (3), data padded to 8.
func readV1(r *binary.Reader) ([]rawMessage, error) {
	r.Skip(2)
	count, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}
	r.Skip(4)
	size, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	r.Align(8)

	var out []rawMessage
	blocks := []struct{ start, end int64 }{{r.Pos(), r.Pos() + int64(size)}}
	for i := 0; i < len(blocks) && i < maxContinuations; i++ {
		br := r.At(blocks[i].start)
		for br.Pos()+8 <= blocks[i].end && len(out) < int(count) {
			typ, _ := br.ReadUint16()
			n, _ := br.ReadUint16()
			flags, _ := br.ReadUint8()
			br.Skip(3)
			data, err := br.ReadBytes(int(n))
			if err != nil {
				return nil, err
			}
			br.Align(8)

			raw := rawMessage{typ: message.Type(typ), flags: flags, data: data}
			if raw.typ == message.TypeObjectHeaderContinuation {
				c, err := message.Parse(raw.typ, data, 0, r)
				if err != nil {
					return nil, err
				}
				cont := c.(*message.Continuation)
				blocks = append(blocks, struct{ start, end int64 }{int64(cont.Offset), int64(cont.Offset + cont.Length)})
			}
			if raw.typ != message.TypeNIL && raw.typ != message.TypeObjectHeaderContinuation {
				out = append(out, raw)
			}
			// The message count includes NIL and continuation messages.
			count--
			if count == 0 {
				return out, nil
			}
		}
	}
	return out, nil
}

// readV2 parses a version 2 header.
// Version 2 prefix: "OHDR", version (1), flags (1), optional timestamps (16),
// optional attribute phase values (4), chunk 0 size (1/2/4/8 bytes).
// Each message: type (1), size (2), flags (1), optional creation order (2).
// Every chunk ends with a lookup3 checksum; continuation chunks start "OCHK".
func readV2(r *binary.Reader) ([]rawMessage, error) {
	start := r.Pos()
	r.Skip(4)
	version, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version != 2 {
		return nil, fmt.Errorf("%w: version %d", ErrInvalidHeader, version)
	}
	flags, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	if flags&0x20 != 0 {
		r.Skip(16)
	}
	if flags&0x10 != 0 {
		r.Skip(4)
	}
	chunkSize, err := r.ReadUintN(1 << (flags & 0x03))
	if err != nil {
		return nil, err
	}
	ordered := flags&0x04 != 0

	type chunk struct{ start, body, end int64 }
	chunks := []chunk{{start, r.Pos(), r.Pos() + int64(chunkSize)}}

	var out []rawMessage
	for i := 0; i < len(chunks) && i < maxContinuations; i++ {
		c := chunks[i]
		if err := verifyChunk(r, c.start, c.end); err != nil {
			return nil, err
		}
		br := r.At(c.body)
		// A gap smaller than a message prefix may pad the end of a chunk.
		for br.Pos()+4 <= c.end {
			typ, _ := br.ReadUint8()
			n, err := br.ReadUint16()
			if err != nil {
				return nil, err
			}
			mflags, _ := br.ReadUint8()
			if ordered {
				br.Skip(2)
			}
			data, err := br.ReadBytes(int(n))
			if err != nil {
				return nil, err
			}

			raw := rawMessage{typ: message.Type(typ), flags: mflags, data: data}
			switch raw.typ {
			case message.TypeNIL:
			case message.TypeObjectHeaderContinuation:
				m, err := message.Parse(raw.typ, data, 0, r)
				if err != nil {
					return nil, err
				}
				cont := m.(*message.Continuation)
				off := int64(cont.Offset)
				chunks = append(chunks, chunk{off, off + 4, off + int64(cont.Length) - 4})
			default:
				out = append(out, raw)
			}
		}
	}
	return out, nil
}

// verifyChunk checks the lookup3 checksum stored at end over [start, end).
func verifyChunk(r *binary.Reader, start, end int64) error {
	body := make([]byte, end-start+4)
	if err := r.ReadAt(body, start); err != nil {
		return err
	}
	n := len(body) - 4
	stored := uint32(body[n]) | uint32(body[n+1])<<8 | uint32(body[n+2])<<16 | uint32(body[n+3])<<24
	if !binary.VerifyLookup3(body[:n], stored) {
		return fmt.Errorf("%w at 0x%x", ErrChecksumMismatch, start)
	}
	return nil
}

// Find returns the first message of typ, nil if there is none, or the
// decode error if the message is present but malformed.
func (h *Header) Find(typ message.Type) (message.Message, error) {
	for _, m := range h.Messages {
		if m.Type() != typ {
			continue
		}
		if bad, ok := m.(*invalid); ok {
			return nil, bad.err
		}
		return m, nil
	}
	return nil, nil
}

// Has reports whether a message of typ is present.
func (h *Header) Has(typ message.Type) bool {
	for _, m := range h.Messages {
		if m.Type() == typ {
			return true
		}
	}
	return false
}

// Dataspace returns the dataspace message, or nil if absent.
func (h *Header) Dataspace() (*message.Dataspace, error) {
	m, err := h.Find(message.TypeDataspace)
	if m == nil {
		return nil, err
	}
	return m.(*message.Dataspace), nil
}

// Datatype returns the datatype message, or nil if absent.
func (h *Header) Datatype() (*message.Datatype, error) {
	m, err := h.Find(message.TypeDatatype)
	if m == nil {
		return nil, err
	}
	dt, ok := m.(*message.Datatype)
	if !ok {
		return nil, fmt.Errorf("unresolved shared datatype")
	}
	return dt, nil
}

// Layout returns the data layout message, or nil if absent.
func (h *Header) Layout() (*message.DataLayout, error) {
	m, err := h.Find(message.TypeDataLayout)
	if m == nil {
		return nil, err
	}
	return m.(*message.DataLayout), nil
}

// FillValue returns the fill value message, or nil if absent.
func (h *Header) FillValue() *message.FillValue {
	m, _ := h.Find(message.TypeFillValue)
	if m == nil {
		return nil
	}
	return m.(*message.FillValue)
}

// SymbolTable returns the symbol table message, or nil if absent.
func (h *Header) SymbolTable() (*message.SymbolTable, error) {
	m, err := h.Find(message.TypeSymbolTable)
	if m == nil {
		return nil, err
	}
	return m.(*message.SymbolTable), nil
}

// Links returns the decoded link messages in header order.
func (h *Header) Links() []*message.Link {
	var out []*message.Link
	for _, m := range h.Messages {
		if l, ok := m.(*message.Link); ok {
			out = append(out, l)
		}
	}
	return out
}

// Attributes returns the attribute messages in header order. Malformed
// attributes are reported by name-less errors in the second result.
func (h *Header) Attributes() ([]*message.Attribute, []error) {
	var out []*message.Attribute
	var errs []error
	for _, m := range h.Messages {
		switch a := m.(type) {
		case *message.Attribute:
			out = append(out, a)
		case *invalid:
			if a.typ == message.TypeAttribute {
				errs = append(errs, a.err)
			}
		}
	}
	return out, errs
}
