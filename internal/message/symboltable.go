package message

import (
	"fmt"

	binpkg "github.com/robert-malhotra/go-uhdf/internal/binary"
)

// SymbolTable is a symbol table message (type 0x0011): the B-tree and
// local heap that hold an old-style group's members.
type SymbolTable struct {
	BTreeAddress     uint64
	LocalHeapAddress uint64
}

func (m *SymbolTable) Type() Type { return TypeSymbolTable }

func parseSymbolTable(data []byte, r *binpkg.Reader) (*SymbolTable, error) {
	os := r.OffsetSize()
	if len(data) < 2*os {
		return nil, fmt.Errorf("symbol table: %w", ErrTruncated)
	}
	return &SymbolTable{
		BTreeAddress:     r.DecodeUint(data, os),
		LocalHeapAddress: r.DecodeUint(data[os:], os),
	}, nil
}
