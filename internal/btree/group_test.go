package btree_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-uhdf/internal/binary"
	"github.com/robert-malhotra/go-uhdf/internal/btree"
	"github.com/robert-malhotra/go-uhdf/internal/h5/h5test"
	"github.com/robert-malhotra/go-uhdf/internal/heap"
)

func open(t *testing.T, b *h5test.Builder, st h5test.SymbolTable) (*binary.Reader, *heap.LocalHeap) {
	t.Helper()
	r := binary.NewReader(bytes.NewReader(b.Bytes(0)), binary.DefaultConfig())
	names, err := heap.ReadLocalHeap(r, st.Heap)
	require.NoError(t, err)
	return r, names
}

func TestReadGroupEntries(t *testing.T) {
	tests := []struct {
		name    string
		entries []h5test.Entry
		want    []btree.Entry
	}{
		{"empty", nil, nil},
		{
			"hard links",
			[]h5test.Entry{{Name: "temp", Addr: 0x300}, {Name: "lat", Addr: 0x200}},
			[]btree.Entry{{Name: "lat", ObjectAddress: 0x200}, {Name: "temp", ObjectAddress: 0x300}},
		},
		{
			"soft link",
			[]h5test.Entry{{Name: "data", Addr: 0x100}, {Name: "alias", Target: "/data"}},
			[]btree.Entry{{Name: "alias", Soft: true, SoftTarget: "/data"}, {Name: "data", ObjectAddress: 0x100}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := h5test.New()
			st := b.SymbolGroup(tt.entries...)
			r, names := open(t, b, st)

			got, err := btree.ReadGroupEntries(r, st.BTree, names)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadGroupEntriesInternalNode(t *testing.T) {
	b := h5test.New()
	left := b.SymbolGroup(h5test.Entry{Name: "a", Addr: 0x10})
	// The second leaf shares the first leaf's heap for its names.
	right := b.SymbolGroup(h5test.Entry{Name: "a", Addr: 0x20})
	root := b.GroupNode(1, []uint64{0, 0, 0}, left.BTree, right.BTree)
	r, names := open(t, b, left)

	got, err := btree.ReadGroupEntries(r, root, names)
	require.NoError(t, err)
	assert.Equal(t, []btree.Entry{{Name: "a", ObjectAddress: 0x10}, {Name: "a", ObjectAddress: 0x20}}, got)
}

func TestReadGroupEntriesErrors(t *testing.T) {
	b := h5test.New()
	st := b.SymbolGroup(h5test.Entry{Name: "x", Addr: 0x40})
	chunkIndex := b.Raw([]byte{'T', 'R', 'E', 'E', 1, 0, 0, 0})
	// An internal node whose only child is a leaf B-tree node, where a
	// symbol node is expected.
	wrongChild := b.GroupNode(0, []uint64{0, 0}, st.BTree)
	r, names := open(t, b, st)

	tests := []struct {
		name string
		addr uint64
		msg  string
	}{
		{"heap is not a tree", st.Heap, "bad B-tree signature"},
		{"chunk index node", chunkIndex, "not a group node"},
		{"tree where a symbol node belongs", wrongChild, "bad B-tree signature"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := btree.ReadGroupEntries(r, tt.addr, names)
			assert.ErrorContains(t, err, tt.msg)
		})
	}

	_, err := btree.ReadGroupEntries(r, st.Heap, names)
	assert.ErrorIs(t, err, btree.ErrBadSignature)
}
