package heap_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	binpkg "github.com/robert-malhotra/go-uhdf/internal/binary"
	"github.com/robert-malhotra/go-uhdf/internal/h5/h5test"
	"github.com/robert-malhotra/go-uhdf/internal/heap"
)

func reader(data []byte) *binpkg.Reader {
	return binpkg.NewReader(bytes.NewReader(data), binpkg.DefaultConfig())
}

func TestLocalHeap(t *testing.T) {
	b := h5test.New()
	addr, offsets := b.LocalHeap("temperature", "x", "a longer name past one slot")
	r := reader(b.Bytes(0))

	h, err := heap.ReadLocalHeap(r, addr)
	require.NoError(t, err)
	assert.NotZero(t, h.DataAddress)

	tests := []struct {
		name   string
		offset uint64
		want   string
	}{
		{"first", offsets[0], "temperature"},
		{"short", offsets[1], "x"},
		{"long", offsets[2], "a longer name past one slot"},
		{"empty at zero", 0, ""},
		{"out of range", 1 << 20, ""},
		{"mid string", offsets[0] + 4, "erature"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, h.GetString(tt.offset))
		})
	}
}

func TestLocalHeapErrors(t *testing.T) {
	b := h5test.New()
	heapAddr, _ := b.LocalHeap("a")
	junk := b.Raw([]byte("NOTAHEAP........................"))
	data := b.Bytes(0)

	_, err := heap.ReadLocalHeap(reader(data), junk)
	assert.ErrorIs(t, err, heap.ErrBadSignature)

	data[heapAddr+4] = 3
	_, err = heap.ReadLocalHeap(reader(data), heapAddr)
	assert.ErrorContains(t, err, "unsupported version 3")

	_, err = heap.ReadLocalHeap(reader(data[:heapAddr+2]), heapAddr)
	assert.Error(t, err)
}

func TestGlobalHeap(t *testing.T) {
	b := h5test.New()
	addr := b.GlobalHeap([]byte("first"), []byte("second object"))
	r := reader(b.Bytes(0))

	g, err := heap.ReadGlobalHeap(r, addr)
	require.NoError(t, err)
	obj, err := g.Object(2)
	require.NoError(t, err)
	assert.Equal(t, "second object", string(obj))
	_, err = g.Object(3)
	assert.ErrorIs(t, err, heap.ErrNoObject)

	_, err = heap.ReadGlobalHeap(r, 0)
	assert.Error(t, err)

	c := heap.NewCache(r)
	got, err := c.Resolve(h5test.VarLenDesc(3, addr, 1))
	require.NoError(t, err)
	assert.Equal(t, "fir", string(got))
	got, err = c.Resolve(h5test.VarLenDesc(0, 0, 0))
	require.NoError(t, err)
	assert.Nil(t, got)

	id, err := heap.ParseID(r, binary.LittleEndian.AppendUint32(binary.LittleEndian.AppendUint64(nil, addr), 2))
	require.NoError(t, err)
	assert.Equal(t, heap.ID{Collection: addr, Index: 2}, id)
}
